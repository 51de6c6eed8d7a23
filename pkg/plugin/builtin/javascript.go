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
	"context"
	"os"
	"sync"

	"github.com/conduitio/conduit-commons/config"
	"github.com/conduitio/conduit-commons/opencdc"
	"github.com/conduitio/datastream/pkg/foundation/cerrors"
	"github.com/conduitio/datastream/pkg/foundation/log"
	"github.com/conduitio/datastream/pkg/funnel"
	"github.com/conduitio/datastream/pkg/plugin"
	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/require"
)

// jsEntrypoint is the function every script needs to define.
const jsEntrypoint = "process"

var jsBlueprint = plugin.Blueprint{
	Section:  funnel.SectionTransformer,
	Type:     "js",
	Summary:  "Runs the JavaScript function process(entry) on every entry, returning null filters the entry.",
	Build:    build(newJSTransformer),
	Reusable: true,
}

type jsConfig struct {
	Script     string `json:"script"`
	ScriptPath string `json:"script.path"`
}

func (jsConfig) Parameters() config.Parameters {
	return config.Parameters{
		"script": {
			Description: "JavaScript code defining a function process(entry) that returns the entry or null.",
			Type:        config.ParameterTypeString,
		},
		"script.path": {
			Description: "Path to a .js file, used instead of script.",
			Type:        config.ParameterTypeString,
		},
	}
}

// jsEntry is what scripts see as entry. Payload and Context are the maps of
// the entry, changes made by the script are visible without copying.
type jsEntry struct {
	Payload  map[string]any
	Context  map[string]string
	Filtered bool
}

// jsRuntime is one goja runtime with the compiled entrypoint. A runtime must
// not be used concurrently, the transformer pools them.
type jsRuntime struct {
	rt      *goja.Runtime
	process goja.Callable
}

type jsTransformer struct {
	src      string
	logger   log.CtxLogger
	runtimes sync.Pool
}

func newJSTransformer(deps plugin.Dependencies, d funnel.Descriptor) (*jsTransformer, error) {
	var cfg jsConfig
	if err := decodeSettings(d, cfg.Parameters(), &cfg); err != nil {
		return nil, err
	}

	t := &jsTransformer{logger: deps.Logger}
	switch {
	case cfg.Script != "" && cfg.ScriptPath != "":
		return nil, cerrors.New("only one of script and script.path can be set")
	case cfg.Script != "":
		t.src = cfg.Script
	case cfg.ScriptPath != "":
		src, err := os.ReadFile(cfg.ScriptPath)
		if err != nil {
			return nil, cerrors.Errorf("could not read script %s: %w", cfg.ScriptPath, err)
		}
		t.src = string(src)
	default:
		return nil, cerrors.New("script or script.path is required")
	}

	// compile once up front so broken scripts fail when the component is built
	first, err := t.newRuntime()
	if err != nil {
		return nil, err
	}
	t.runtimes.Put(first)
	t.runtimes.New = func() any {
		r, err := t.newRuntime()
		if err != nil {
			// the same source compiled before
			panic(err)
		}
		return r
	}
	return t, nil
}

func (t *jsTransformer) newRuntime() (*jsRuntime, error) {
	rt := goja.New()
	require.NewRegistry().Enable(rt)

	zl := t.logger.ZerologWithComponent()
	if err := rt.Set("logger", &zl); err != nil {
		return nil, cerrors.Errorf("could not set logger: %w", err)
	}

	prg, err := goja.Compile("", t.src, false)
	if err != nil {
		return nil, cerrors.Errorf("could not compile script: %w", err)
	}
	if _, err := rt.RunProgram(prg); err != nil {
		return nil, cerrors.Errorf("could not run script: %w", err)
	}
	process, ok := goja.AssertFunction(rt.Get(jsEntrypoint))
	if !ok {
		return nil, cerrors.Errorf("script does not define function %s", jsEntrypoint)
	}
	return &jsRuntime{rt: rt, process: process}, nil
}

func (t *jsTransformer) Mode() funnel.Mode { return funnel.ModePerEntry }

func (t *jsTransformer) Apply(_ context.Context, e *funnel.Entry) (*funnel.Entry, error) {
	r := t.runtimes.Get().(*jsRuntime)
	defer t.runtimes.Put(r)

	if e.Payload == nil {
		e.Payload = opencdc.StructuredData{}
	}
	if e.Context == nil {
		e.Context = opencdc.Metadata{}
	}
	in := &jsEntry{
		Payload:  e.Payload,
		Context:  e.Context,
		Filtered: e.Filtered,
	}

	out, err := r.process(goja.Undefined(), r.rt.ToValue(in))
	if err != nil {
		return nil, cerrors.Errorf("script failed: %w", err)
	}

	switch v := out.Export().(type) {
	case nil:
		e.Filtered = true
	case *jsEntry:
		e.Payload = v.Payload
		e.Context = v.Context
		if v.Filtered {
			e.Filtered = true
		}
	default:
		return nil, cerrors.Errorf("%s must return the entry or null, got %T", jsEntrypoint, v)
	}
	return e, nil
}

func (t *jsTransformer) ApplyBatch(context.Context, []*funnel.Entry) ([]*funnel.Entry, error) {
	return nil, funnel.ErrUnsupportedMode
}
