// Copyright © 2024 Meroxa, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package builtin

import (
	"bufio"
	"context"
	"io"
	"iter"
	"os"
	"strconv"
	"time"

	"github.com/conduitio/conduit-commons/config"
	"github.com/conduitio/conduit-commons/opencdc"
	"github.com/conduitio/datastream/pkg/foundation/cerrors"
	"github.com/conduitio/datastream/pkg/foundation/log"
	"github.com/conduitio/datastream/pkg/funnel"
	"github.com/conduitio/datastream/pkg/plugin"
	"github.com/conduitio/yaml/v3"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// Context keys set by built-in readers.
const (
	ContextSource   = "source"
	ContextPosition = "position"
)

// maxLineSize is the longest line the jsonl reader accepts.
const maxLineSize = 4 * 1024 * 1024

// -- generator ----------------------------------------------------------------

var generatorBlueprint = plugin.Blueprint{
	Section: funnel.SectionReader,
	Type:    "generator",
	Summary: "Produces a fixed number of synthetic entries.",
	Build:   build(newGenerator),
}

type generatorConfig struct {
	Count int `json:"count"`
}

func (generatorConfig) Parameters() config.Parameters {
	return config.Parameters{
		"count": {
			Default:     "10",
			Description: "Number of entries to produce.",
			Type:        config.ParameterTypeInt,
			Validations: []config.Validation{config.ValidationGreaterThan{V: -1}},
		},
	}
}

type generator struct {
	cfg generatorConfig
}

func newGenerator(_ plugin.Dependencies, d funnel.Descriptor) (*generator, error) {
	var cfg generatorConfig
	if err := decodeSettings(d, cfg.Parameters(), &cfg); err != nil {
		return nil, err
	}
	return &generator{cfg: cfg}, nil
}

func (g *generator) Entries(ctx context.Context) iter.Seq2[*funnel.Entry, error] {
	return func(yield func(*funnel.Entry, error) bool) {
		for i := range g.cfg.Count {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}
			e := funnel.NewEntry(
				opencdc.StructuredData{
					"id":        i + 1,
					"key":       uuid.NewString(),
					"createdAt": time.Now().UTC().Format(time.RFC3339Nano),
				},
				opencdc.Metadata{
					ContextSource:   "generator",
					ContextPosition: strconv.Itoa(i),
				},
			)
			if !yield(e, nil) {
				return
			}
		}
	}
}

// -- jsonl --------------------------------------------------------------------

var jsonlReaderBlueprint = plugin.Blueprint{
	Section: funnel.SectionReader,
	Type:    "jsonl",
	Summary: "Reads one entry per line from a JSON lines file.",
	Build:   build(newJSONLReader),
}

type fileConfig struct {
	Path string `json:"path"`
}

func (fileConfig) Parameters() config.Parameters {
	return config.Parameters{
		"path": {
			Description: "Path to the file.",
			Type:        config.ParameterTypeString,
			Validations: []config.Validation{config.ValidationRequired{}},
		},
	}
}

type jsonlReader struct {
	logger log.CtxLogger
	cfg    fileConfig
}

func newJSONLReader(deps plugin.Dependencies, d funnel.Descriptor) (*jsonlReader, error) {
	var cfg fileConfig
	if err := decodeSettings(d, cfg.Parameters(), &cfg); err != nil {
		return nil, err
	}
	return &jsonlReader{logger: deps.Logger, cfg: cfg}, nil
}

// Entries yields an entry per non-empty line. Lines that are not valid JSON
// objects produce failed entries that contain the raw line.
func (r *jsonlReader) Entries(ctx context.Context) iter.Seq2[*funnel.Entry, error] {
	return func(yield func(*funnel.Entry, error) bool) {
		f, err := os.Open(r.cfg.Path)
		if err != nil {
			yield(nil, cerrors.Errorf("could not open %s: %w", r.cfg.Path, err))
			return
		}
		defer f.Close()
		r.logger.Debug(ctx).Str(log.FilepathField, r.cfg.Path).Msg("reading entries")

		sc := bufio.NewScanner(f)
		sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
		line := 0
		for sc.Scan() {
			line++
			raw := sc.Bytes()
			if len(raw) == 0 {
				continue
			}

			meta := opencdc.Metadata{ContextSource: r.cfg.Path, ContextPosition: strconv.Itoa(line)}
			var payload opencdc.StructuredData
			var e *funnel.Entry
			if err := json.Unmarshal(raw, &payload); err != nil {
				e = funnel.NewEntry(opencdc.StructuredData{"raw": string(raw)}, meta)
				e.AddError("jsonl reader error: line " + strconv.Itoa(line) + ": " + err.Error())
			} else {
				e = funnel.NewEntry(payload, meta)
			}
			if !yield(e, nil) {
				return
			}
		}
		if err := sc.Err(); err != nil {
			yield(nil, cerrors.Errorf("could not read %s: %w", r.cfg.Path, err))
		}
	}
}

// -- fixtures -----------------------------------------------------------------

var fixturesBlueprint = plugin.Blueprint{
	Section: funnel.SectionReader,
	Type:    "fixtures",
	Summary: "Reads one entry per document from a multi-document YAML file.",
	Build:   build(newFixturesReader),
}

type fixturesReader struct {
	logger log.CtxLogger
	cfg    fileConfig
}

func newFixturesReader(deps plugin.Dependencies, d funnel.Descriptor) (*fixturesReader, error) {
	var cfg fileConfig
	if err := decodeSettings(d, cfg.Parameters(), &cfg); err != nil {
		return nil, err
	}
	return &fixturesReader{logger: deps.Logger, cfg: cfg}, nil
}

func (r *fixturesReader) Entries(ctx context.Context) iter.Seq2[*funnel.Entry, error] {
	return func(yield func(*funnel.Entry, error) bool) {
		f, err := os.Open(r.cfg.Path)
		if err != nil {
			yield(nil, cerrors.Errorf("could not open %s: %w", r.cfg.Path, err))
			return
		}
		defer f.Close()
		r.logger.Debug(ctx).Str(log.FilepathField, r.cfg.Path).Msg("loading fixtures")

		dec := yaml.NewDecoder(f)
		for doc := 1; ; doc++ {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}

			var payload map[string]any
			err := dec.Decode(&payload)
			if cerrors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				// the decoder can't recover from syntax errors
				yield(nil, cerrors.Errorf("could not decode document %d of %s: %w", doc, r.cfg.Path, err))
				return
			}
			if payload == nil {
				// empty document
				continue
			}

			e := funnel.NewEntry(
				opencdc.StructuredData(payload),
				opencdc.Metadata{ContextSource: r.cfg.Path, ContextPosition: strconv.Itoa(doc)},
			)
			if !yield(e, nil) {
				return
			}
		}
	}
}
