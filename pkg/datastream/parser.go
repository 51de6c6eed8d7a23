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

package datastream

import (
	"context"
	"io"
	"os"

	"github.com/Masterminds/semver/v3"
	"github.com/conduitio/datastream/pkg/foundation/cerrors"
	"github.com/conduitio/datastream/pkg/foundation/log"
	"github.com/conduitio/datastream/pkg/funnel"
	"github.com/conduitio/yaml/v3"
)

// SupportedVersions is the range of pipeline file versions the parser accepts.
const SupportedVersions = ">= 1.0, < 2"

var versionConstraint = func() *semver.Constraints {
	c, err := semver.NewConstraint(SupportedVersions)
	if err != nil {
		panic(cerrors.Errorf("invalid version constraint: %w", err))
	}
	return c
}()

// PipelineFile is a single YAML document with pipeline definitions.
type PipelineFile struct {
	Version   string     `yaml:"version"`
	Pipelines []Pipeline `yaml:"pipelines"`
}

// Pipeline is the YAML representation of a funnel.Definition.
type Pipeline struct {
	ID           string              `yaml:"id"`
	BatchSize    int                 `yaml:"batch-size"`
	Readers      []funnel.Descriptor `yaml:"readers"`
	Transformers []funnel.Descriptor `yaml:"transformers"`
	Writers      []funnel.Descriptor `yaml:"writers"`
}

func (p Pipeline) Definition() funnel.Definition {
	return funnel.Definition{
		ID:           p.ID,
		Readers:      p.Readers,
		Transformers: p.Transformers,
		Writers:      p.Writers,
		BatchSize:    p.BatchSize,
	}
}

// Parser reads pipeline definitions from YAML. Environment variables in string
// values are expanded.
type Parser struct {
	logger log.CtxLogger
}

func NewParser(logger log.CtxLogger) *Parser {
	return &Parser{
		logger: logger.WithComponent("datastream.Parser"),
	}
}

// ParseFile parses the pipeline file at path.
func (p *Parser) ParseFile(ctx context.Context, path string) ([]funnel.Definition, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, cerrors.Errorf("could not open pipeline file: %w", err)
	}
	defer f.Close()

	defs, err := p.Parse(ctx, f)
	if err != nil {
		return nil, cerrors.Errorf("%s: %w", path, err)
	}
	p.logger.Debug(ctx).
		Str(log.FilepathField, path).
		Int("pipelines", len(defs)).
		Msg("parsed pipeline file")
	return defs, nil
}

// Parse decodes all YAML documents in reader. Pipeline IDs need to be unique
// across documents, pipelines are returned in the order they are defined.
func (p *Parser) Parse(ctx context.Context, reader io.Reader) ([]funnel.Definition, error) {
	dec := yaml.NewDecoder(reader)
	dec.KnownFields(true)
	dec.WithHook(envDecoderHook)

	var (
		defs []funnel.Definition
		ids  = make(map[string]bool)
	)
	for doc := 1; ; doc++ {
		var file PipelineFile
		err := dec.Decode(&file)
		if err != nil {
			if cerrors.Is(err, io.EOF) {
				break
			}
			// check if it's a type error (document was partially decoded)
			var typeErr *yaml.TypeError
			if cerrors.As(err, &typeErr) {
				err = p.handleYamlTypeError(ctx, typeErr)
			}
			if err != nil {
				return nil, cerrors.Errorf("parsing error in document %d: %w", doc, err)
			}
		}

		if err := checkVersion(file.Version); err != nil {
			return nil, cerrors.Errorf("document %d: %w", doc, err)
		}
		for _, pl := range file.Pipelines {
			if err := validatePipeline(pl); err != nil {
				return nil, cerrors.Errorf("document %d: %w", doc, err)
			}
			if ids[pl.ID] {
				return nil, cerrors.Errorf("found a duplicated pipeline id: %s", pl.ID)
			}
			ids[pl.ID] = true
			defs = append(defs, pl.Definition())
		}
	}
	return defs, nil
}

func (p *Parser) handleYamlTypeError(ctx context.Context, typeErr *yaml.TypeError) error {
	for _, uerr := range typeErr.Errors {
		if _, ok := uerr.(*yaml.UnknownFieldError); !ok {
			// we don't tolerate any other error except unknown field
			return typeErr
		}
	}
	// only UnknownFieldErrors found, log them
	for _, uerr := range typeErr.Errors {
		p.logger.Warn(ctx).
			Int("line", uerr.Line()).
			Int("column", uerr.Column()).
			Msg(uerr.Error())
	}
	return nil
}

func checkVersion(v string) error {
	if v == "" {
		return cerrors.New("version is required")
	}
	sv, err := semver.NewVersion(v)
	if err != nil {
		return cerrors.Errorf("invalid version %q: %w", v, err)
	}
	if !versionConstraint.Check(sv) {
		return cerrors.Errorf("unsupported version %s, supported versions: %s", v, SupportedVersions)
	}
	return nil
}

func validatePipeline(p Pipeline) error {
	switch {
	case p.ID == "":
		return cerrors.New("pipeline id is required")
	case p.BatchSize < 0:
		return cerrors.Errorf("pipeline %s: batch-size can't be negative", p.ID)
	case len(p.Readers) == 0:
		return cerrors.Errorf("pipeline %s: at least one reader is required", p.ID)
	case len(p.Writers) == 0:
		return cerrors.Errorf("pipeline %s: at least one writer is required", p.ID)
	}
	for _, list := range [][]funnel.Descriptor{p.Readers, p.Transformers, p.Writers} {
		for i, d := range list {
			if d.Type == "" {
				return cerrors.Errorf("pipeline %s: component %d has no type", p.ID, i)
			}
		}
	}
	return nil
}

func envDecoderHook(_ []string, node *yaml.Node) {
	if node.Kind == yaml.ScalarNode && node.Tag == "!!str" {
		node.SetString(os.ExpandEnv(node.Value))
	}
}
