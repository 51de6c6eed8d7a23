// Copyright © 2022 Meroxa, Inc.
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

// Package ctxutil stores datastream specific values in a context and exposes
// log hooks that add them to log entries.
package ctxutil

import (
	"context"

	"github.com/conduitio/datastream/pkg/foundation/log"
	"github.com/rs/zerolog"
)

// batchIDCtxKey is used as the key when saving the batch ID in a context.
type batchIDCtxKey struct{}

// ContextWithBatchID wraps ctx and returns a context that contains batchID.
func ContextWithBatchID(ctx context.Context, batchID string) context.Context {
	return context.WithValue(ctx, batchIDCtxKey{}, batchID)
}

// BatchIDFromContext fetches the batch ID from the context. If the context
// does not contain a batch ID it returns an empty string.
func BatchIDFromContext(ctx context.Context) string {
	batchID := ctx.Value(batchIDCtxKey{})
	if batchID != nil {
		return batchID.(string)
	}
	return ""
}

// BatchIDLogCtxHook fetches the batch ID from the context and if it exists
// it adds the batch ID to the log output.
type BatchIDLogCtxHook struct{}

// Run executes the log hook.
func (h BatchIDLogCtxHook) Run(e *zerolog.Event, _ zerolog.Level, _ string) {
	p := BatchIDFromContext(e.GetCtx())
	if p != "" {
		e.Str(log.BatchIDField, p)
	}
}
