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

package ctxutil

import (
	"context"

	"github.com/conduitio/datastream/pkg/foundation/log"
	"github.com/rs/zerolog"
)

type pipelineIDCtxKey struct{}

// ContextWithPipelineID wraps ctx and returns a context that contains the ID
// of the pipeline being run.
func ContextWithPipelineID(ctx context.Context, pipelineID string) context.Context {
	return context.WithValue(ctx, pipelineIDCtxKey{}, pipelineID)
}

// PipelineIDFromContext fetches the pipeline ID from the context.
func PipelineIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(pipelineIDCtxKey{}).(string); ok {
		return v
	}
	return ""
}

// PipelineIDLogCtxHook adds the pipeline ID stored in the context to the log
// output.
type PipelineIDLogCtxHook struct{}

// Run executes the log hook.
func (h PipelineIDLogCtxHook) Run(e *zerolog.Event, _ zerolog.Level, _ string) {
	if p := PipelineIDFromContext(e.GetCtx()); p != "" {
		e.Str(log.PipelineIDField, p)
	}
}
