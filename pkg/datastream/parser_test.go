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
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/conduitio/conduit-commons/config"
	"github.com/conduitio/datastream/pkg/foundation/log"
	"github.com/conduitio/datastream/pkg/funnel"
	"github.com/google/go-cmp/cmp"
	"github.com/matryer/is"
)

func writeTestFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParser_Parse(t *testing.T) {
	is := is.New(t)
	t.Setenv("DATASTREAM_TEST_OUT", "/tmp/out.jsonl")

	const input = `
version: 1.1
pipelines:
  - id: users
    batch-size: 50
    readers:
      - type: jsonl
        name: in
        settings:
          path: users.jsonl
    transformers:
      - type: require
        settings:
          fields: id,email
      - type: dedupe
        settings:
          key: id
    writers:
      - type: jsonl
        settings:
          path: ${DATASTREAM_TEST_OUT}
---
version: 1.0
pipelines:
  - id: generated
    readers:
      - type: generator
        settings:
          count: 25
    writers:
      - type: log
`
	want := []funnel.Definition{{
		ID:        "users",
		BatchSize: 50,
		Readers: []funnel.Descriptor{
			{Type: "jsonl", Name: "in", Settings: config.Config{"path": "users.jsonl"}},
		},
		Transformers: []funnel.Descriptor{
			{Type: "require", Settings: config.Config{"fields": "id,email"}},
			{Type: "dedupe", Settings: config.Config{"key": "id"}},
		},
		Writers: []funnel.Descriptor{
			{Type: "jsonl", Settings: config.Config{"path": "/tmp/out.jsonl"}},
		},
	}, {
		ID: "generated",
		Readers: []funnel.Descriptor{
			{Type: "generator", Settings: config.Config{"count": "25"}},
		},
		Writers: []funnel.Descriptor{
			{Type: "log"},
		},
	}}

	p := NewParser(log.Test(t))
	got, err := p.Parse(context.Background(), strings.NewReader(input))
	is.NoErr(err)
	is.Equal("", cmp.Diff(want, got))
}

func TestParser_UnknownFieldIsIgnored(t *testing.T) {
	is := is.New(t)

	const input = `
version: 1.0
pipelines:
  - id: p1
    description: not a known field
    readers: [{type: generator}]
    writers: [{type: log}]
`
	p := NewParser(log.Test(t))
	got, err := p.Parse(context.Background(), strings.NewReader(input))
	is.NoErr(err)
	is.Equal(len(got), 1)
	is.Equal(got[0].ID, "p1")
}

func TestParser_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		input   string
		wantErr string
	}{{
		name:    "missing version",
		input:   "pipelines: []",
		wantErr: "version is required",
	}, {
		name:    "unsupported version",
		input:   "version: 2.0",
		wantErr: "unsupported version 2.0",
	}, {
		name:    "invalid version",
		input:   "version: latest",
		wantErr: `invalid version "latest"`,
	}, {
		name: "missing id",
		input: `
version: 1.0
pipelines:
  - readers: [{type: generator}]
    writers: [{type: log}]
`,
		wantErr: "pipeline id is required",
	}, {
		name: "missing writer",
		input: `
version: 1.0
pipelines:
  - id: p1
    readers: [{type: generator}]
`,
		wantErr: "pipeline p1: at least one writer is required",
	}, {
		name: "missing component type",
		input: `
version: 1.0
pipelines:
  - id: p1
    readers: [{name: nameless}]
    writers: [{type: log}]
`,
		wantErr: "pipeline p1: component 0 has no type",
	}, {
		name: "duplicate id",
		input: `
version: 1.0
pipelines:
  - id: p1
    readers: [{type: generator}]
    writers: [{type: log}]
---
version: 1.0
pipelines:
  - id: p1
    readers: [{type: generator}]
    writers: [{type: log}]
`,
		wantErr: "found a duplicated pipeline id: p1",
	}, {
		name: "type error",
		input: `
version: 1.0
pipelines:
  - id: p1
    batch-size: many
`,
		wantErr: "parsing error in document 1",
	}}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			is := is.New(t)
			p := NewParser(log.Test(t))
			_, err := p.Parse(context.Background(), strings.NewReader(tc.input))
			is.True(err != nil)
			is.True(strings.Contains(err.Error(), tc.wantErr))
		})
	}
}

func TestParser_ParseFile(t *testing.T) {
	is := is.New(t)

	path := writeTestFile(t, "pipeline.yaml", `
version: 1.0
pipelines:
  - id: p1
    readers: [{type: generator}]
    writers: [{type: log}]
`)
	p := NewParser(log.Test(t))
	got, err := p.ParseFile(context.Background(), path)
	is.NoErr(err)
	is.Equal(len(got), 1)

	_, err = p.ParseFile(context.Background(), filepath.Join(t.TempDir(), "missing.yaml"))
	is.True(err != nil)
}
