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

// Package builtin contains the readers, transformers and writers that ship
// with datastream.
package builtin

import (
	"context"
	"maps"

	"github.com/conduitio/conduit-commons/config"
	"github.com/conduitio/conduit-commons/opencdc"
	"github.com/conduitio/datastream/pkg/foundation/cerrors"
	"github.com/conduitio/datastream/pkg/funnel"
	"github.com/conduitio/datastream/pkg/plugin"
	"github.com/goccy/go-json"
)

// DefaultBlueprints are all built-in components.
var DefaultBlueprints = []plugin.Blueprint{
	generatorBlueprint,
	jsonlReaderBlueprint,
	fixturesBlueprint,

	templateBlueprint,
	filterBlueprint,
	requireBlueprint,
	dedupeBlueprint,
	jsBlueprint,

	logWriterBlueprint,
	jsonlWriterBlueprint,
	kvWriterBlueprint,
	redisWriterBlueprint,
	clickhouseWriterBlueprint,
}

// Register adds the blueprints to the registry. If no blueprints are passed,
// DefaultBlueprints are registered.
func Register(r *plugin.Registry, bps ...plugin.Blueprint) error {
	if len(bps) == 0 {
		bps = DefaultBlueprints
	}
	for _, bp := range bps {
		if err := r.Register(bp); err != nil {
			return err
		}
	}
	return nil
}

// decodeSettings applies defaults to the descriptor settings, validates them
// and decodes them into target.
func decodeSettings(d funnel.Descriptor, params config.Parameters, target any) error {
	cfg := make(config.Config, len(d.Settings))
	maps.Copy(cfg, d.Settings)
	cfg = cfg.Sanitize().ApplyDefaults(params)

	if err := cfg.Validate(params); err != nil {
		return cerrors.Errorf("invalid settings: %w", err)
	}
	if err := cfg.DecodeInto(target); err != nil {
		return cerrors.Errorf("failed decoding settings: %w", err)
	}
	return nil
}

// payloadJSON encodes the payload of an entry, it is used to evaluate gjson
// paths.
func payloadJSON(e *funnel.Entry) ([]byte, error) {
	raw, err := json.Marshal(e.Payload)
	if err != nil {
		return nil, cerrors.Errorf("could not encode payload: %w", err)
	}
	return raw, nil
}

// entryJSON is how entries are serialized by writers.
type entryJSON struct {
	Payload opencdc.StructuredData `json:"payload"`
	Context opencdc.Metadata       `json:"context,omitempty"`
}

func marshalEntry(e *funnel.Entry) ([]byte, error) {
	return json.Marshal(entryJSON{Payload: e.Payload, Context: e.Context})
}

// build is a shortcut for builders of components that don't need the context.
func build[T any](f func(plugin.Dependencies, funnel.Descriptor) (T, error)) plugin.Builder {
	return func(_ context.Context, deps plugin.Dependencies, d funnel.Descriptor) (any, error) {
		return f(deps, d)
	}
}
