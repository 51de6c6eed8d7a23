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
	"bytes"
	"context"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/conduitio/conduit-commons/config"
	"github.com/conduitio/datastream/pkg/foundation/cerrors"
	"github.com/conduitio/datastream/pkg/funnel"
	"github.com/conduitio/datastream/pkg/plugin"
	"github.com/tidwall/gjson"
	"github.com/twmb/go-cache/cache"
)

// -- template -----------------------------------------------------------------

var templateBlueprint = plugin.Blueprint{
	Section:  funnel.SectionTransformer,
	Type:     "template",
	Summary:  "Sets a payload field to the output of a Go template (sprig functions available).",
	Build:    build(newTemplateTransformer),
	Reusable: true,
}

// templates caches parsed templates by their text, it is shared by all
// template transformers.
var templates = cache.New[string, *template.Template]()

type templateConfig struct {
	Field    string `json:"field"`
	Template string `json:"template"`
}

func (templateConfig) Parameters() config.Parameters {
	return config.Parameters{
		"field": {
			Description: "Payload field that receives the output.",
			Type:        config.ParameterTypeString,
			Validations: []config.Validation{config.ValidationRequired{}},
		},
		"template": {
			Description: "Template executed with .Payload and .Context of the entry.",
			Type:        config.ParameterTypeString,
			Validations: []config.Validation{config.ValidationRequired{}},
		},
	}
}

type templateTransformer struct {
	field string
	tmpl  *template.Template
}

func newTemplateTransformer(_ plugin.Dependencies, d funnel.Descriptor) (*templateTransformer, error) {
	var cfg templateConfig
	if err := decodeSettings(d, cfg.Parameters(), &cfg); err != nil {
		return nil, err
	}

	tmpl, err, _ := templates.Get(cfg.Template, func() (*template.Template, error) {
		t, err := template.New("").Funcs(sprig.TxtFuncMap()).Option("missingkey=error").Parse(cfg.Template)
		if err != nil {
			return nil, cerrors.Errorf("could not parse template: %w", err)
		}
		return t, nil
	})
	if err != nil {
		return nil, err
	}
	return &templateTransformer{field: cfg.Field, tmpl: tmpl}, nil
}

func (t *templateTransformer) Mode() funnel.Mode { return funnel.ModePerEntry }

func (t *templateTransformer) Apply(_ context.Context, e *funnel.Entry) (*funnel.Entry, error) {
	var buf bytes.Buffer
	data := map[string]any{"Payload": map[string]any(e.Payload), "Context": map[string]string(e.Context)}
	if err := t.tmpl.Execute(&buf, data); err != nil {
		return nil, cerrors.Errorf("could not execute template: %w", err)
	}
	e.Payload[t.field] = buf.String()
	return e, nil
}

func (t *templateTransformer) ApplyBatch(context.Context, []*funnel.Entry) ([]*funnel.Entry, error) {
	return nil, funnel.ErrUnsupportedMode
}

// -- filter -------------------------------------------------------------------

var filterBlueprint = plugin.Blueprint{
	Section:  funnel.SectionTransformer,
	Type:     "filter",
	Summary:  "Marks entries as filtered when a gjson condition on the payload matches.",
	Build:    build(newFilterTransformer),
	Reusable: true,
}

type filterConfig struct {
	Condition string `json:"condition"`
	// Keep inverts the filter, only matching entries are kept.
	Keep bool `json:"keep"`
}

func (filterConfig) Parameters() config.Parameters {
	return config.Parameters{
		"condition": {
			Description: "gjson path evaluated against the payload, the entry matches if the result is truthy.",
			Type:        config.ParameterTypeString,
			Validations: []config.Validation{config.ValidationRequired{}},
		},
		"keep": {
			Default:     "false",
			Description: "Keep matching entries and filter the rest.",
			Type:        config.ParameterTypeBool,
		},
	}
}

type filterTransformer struct {
	cfg filterConfig
}

func newFilterTransformer(_ plugin.Dependencies, d funnel.Descriptor) (*filterTransformer, error) {
	var cfg filterConfig
	if err := decodeSettings(d, cfg.Parameters(), &cfg); err != nil {
		return nil, err
	}
	return &filterTransformer{cfg: cfg}, nil
}

func (f *filterTransformer) Mode() funnel.Mode { return funnel.ModePerEntry }

func (f *filterTransformer) Apply(_ context.Context, e *funnel.Entry) (*funnel.Entry, error) {
	raw, err := payloadJSON(e)
	if err != nil {
		return nil, err
	}
	res := gjson.GetBytes(raw, f.cfg.Condition)
	// an entry filtered by an earlier transformer stays filtered
	if matches := res.Exists() && res.Bool(); matches != f.cfg.Keep {
		e.Filtered = true
	}
	return e, nil
}

func (f *filterTransformer) ApplyBatch(context.Context, []*funnel.Entry) ([]*funnel.Entry, error) {
	return nil, funnel.ErrUnsupportedMode
}

// -- require ------------------------------------------------------------------

var requireBlueprint = plugin.Blueprint{
	Section:  funnel.SectionTransformer,
	Type:     "require",
	Summary:  "Fails entries that are missing any of the required payload fields.",
	Build:    build(newRequireTransformer),
	Reusable: true,
}

type requireConfig struct {
	Fields string `json:"fields"`
}

func (requireConfig) Parameters() config.Parameters {
	return config.Parameters{
		"fields": {
			Description: "Comma separated list of gjson paths that need to exist in the payload.",
			Type:        config.ParameterTypeString,
			Validations: []config.Validation{config.ValidationRequired{}},
		},
	}
}

type requireTransformer struct {
	fields []string
}

func newRequireTransformer(_ plugin.Dependencies, d funnel.Descriptor) (*requireTransformer, error) {
	var cfg requireConfig
	if err := decodeSettings(d, cfg.Parameters(), &cfg); err != nil {
		return nil, err
	}
	return &requireTransformer{fields: splitList(cfg.Fields)}, nil
}

func (r *requireTransformer) Mode() funnel.Mode { return funnel.ModePerEntry }

func (r *requireTransformer) Apply(_ context.Context, e *funnel.Entry) (*funnel.Entry, error) {
	raw, err := payloadJSON(e)
	if err != nil {
		return nil, err
	}
	var missing []string
	for i, res := range gjson.GetManyBytes(raw, r.fields...) {
		if !res.Exists() || res.Type == gjson.Null {
			missing = append(missing, r.fields[i])
		}
	}
	if len(missing) > 0 {
		return nil, cerrors.Errorf("missing required fields: %s", strings.Join(missing, ", "))
	}
	return e, nil
}

func (r *requireTransformer) ApplyBatch(context.Context, []*funnel.Entry) ([]*funnel.Entry, error) {
	return nil, funnel.ErrUnsupportedMode
}

// -- dedupe -------------------------------------------------------------------

var dedupeBlueprint = plugin.Blueprint{
	Section:  funnel.SectionTransformer,
	Type:     "dedupe",
	Summary:  "Filters entries whose key was already seen earlier in the same batch.",
	Build:    build(newDedupeTransformer),
	Reusable: true,
}

type dedupeConfig struct {
	Key string `json:"key"`
}

func (dedupeConfig) Parameters() config.Parameters {
	return config.Parameters{
		"key": {
			Description: "gjson path of the key that identifies duplicates.",
			Type:        config.ParameterTypeString,
			Validations: []config.Validation{config.ValidationRequired{}},
		},
	}
}

type dedupeTransformer struct {
	key string
}

func newDedupeTransformer(_ plugin.Dependencies, d funnel.Descriptor) (*dedupeTransformer, error) {
	var cfg dedupeConfig
	if err := decodeSettings(d, cfg.Parameters(), &cfg); err != nil {
		return nil, err
	}
	return &dedupeTransformer{key: cfg.Key}, nil
}

func (t *dedupeTransformer) Mode() funnel.Mode { return funnel.ModeBatch }

func (t *dedupeTransformer) Apply(context.Context, *funnel.Entry) (*funnel.Entry, error) {
	return nil, funnel.ErrUnsupportedMode
}

// ApplyBatch keeps the first entry of every key. Failed entries and entries
// without the key are left alone.
func (t *dedupeTransformer) ApplyBatch(_ context.Context, entries []*funnel.Entry) ([]*funnel.Entry, error) {
	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		if !e.Active() {
			continue
		}
		raw, err := payloadJSON(e)
		if err != nil {
			return nil, err
		}
		key := gjson.GetBytes(raw, t.key)
		if !key.Exists() {
			continue
		}
		if seen[key.Raw] {
			e.Filtered = true
			continue
		}
		seen[key.Raw] = true
	}
	return entries, nil
}
