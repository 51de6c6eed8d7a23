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

package funnel

import (
	"context"
	"fmt"

	"github.com/conduitio/datastream/pkg/foundation/cerrors"
	"github.com/conduitio/datastream/pkg/foundation/log"
	"github.com/sourcegraph/conc/panics"
)

// transformStage applies a single transformer to a batch.
type transformStage struct {
	resolver Resolver
	desc     Descriptor
	logger   log.CtxLogger
}

func (s *transformStage) Name() string      { return StageTransform }
func (s *transformStage) Component() string { return s.desc.String() }

func (s *transformStage) Run(ctx context.Context, b *Batch, _ *Result) error {
	t, err := resolveTransformer(ctx, s.resolver, s.desc)
	if err != nil {
		return err
	}

	switch t.Mode() {
	case ModeBatch:
		out, err := t.ApplyBatch(ctx, b.Entries)
		if err != nil {
			return cerrors.Errorf("transformer %s: %w", s.desc, err)
		}
		b.Entries = compact(out)
	case ModePerEntry:
		failed := 0
		for i, e := range b.Entries {
			if e.Failed() {
				continue
			}
			out, msg := s.apply(ctx, t, e)
			if msg != "" {
				e.AddError(msg)
				failed++
				continue
			}
			b.Entries[i] = out
		}
		if failed > 0 {
			s.logger.Debug(ctx).
				Str(log.TransformerField, s.desc.String()).
				Int("failed", failed).
				Msg("transformer recorded entry errors")
		}
	default:
		return cerrors.Errorf("transformer %s: %v: %w", s.desc, t.Mode(), ErrUnsupportedMode)
	}
	return nil
}

// apply calls the transformer for one entry. If the call fails or panics the
// returned message describes the failure and should be recorded on the entry.
func (s *transformStage) apply(ctx context.Context, t Transformer, e *Entry) (*Entry, string) {
	var (
		out *Entry
		err error
	)

	var pc panics.Catcher
	pc.Try(func() { out, err = t.Apply(ctx, e) })
	if r := pc.Recovered(); r != nil {
		return nil, entryError("transformer", s.desc, fmt.Sprintf("panic: %v", r.Value), cerrors.CallersStack(r.Callers))
	}
	if err != nil {
		return nil, entryError("transformer", s.desc, err.Error(), errorStack(err))
	}
	if out == nil {
		return nil, entryError("transformer", s.desc, "no entry returned", cerrors.Stack(1))
	}
	return out, ""
}

// entryError formats an error message recorded on an entry.
func entryError(kind string, d Descriptor, msg, stack string) string {
	return fmt.Sprintf("%s %s error: %s: %s", kind, d, msg, stack)
}

// errorStack returns the frames recorded in err or, if there are none, the
// stack of the caller.
func errorStack(err error) string {
	if st := cerrors.ErrorStack(err); st != "" {
		return st
	}
	return cerrors.Stack(2)
}

func compact(entries []*Entry) []*Entry {
	out := entries[:0]
	for _, e := range entries {
		if e != nil {
			out = append(out, e)
		}
	}
	return out
}
