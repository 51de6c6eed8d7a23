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

	"github.com/conduitio/datastream/pkg/foundation/cerrors"
	"github.com/conduitio/datastream/pkg/foundation/log"
)

// writeStage applies all writers in order to the active entries of a batch.
type writeStage struct {
	resolver Resolver
	descs    []Descriptor
	logger   log.CtxLogger
}

func (s *writeStage) Name() string { return StageWrite }
func (s *writeStage) Component() string {
	if len(s.descs) == 1 {
		return s.descs[0].String()
	}
	return ""
}

func (s *writeStage) Run(ctx context.Context, b *Batch, _ *Result) error {
	for _, d := range s.descs {
		w, err := resolveWriter(ctx, s.resolver, d)
		if err != nil {
			return err
		}
		// entries failed by the previous writer are not active anymore
		active := b.Active()

		switch w.Mode() {
		case ModeBatch:
			// called even if nothing survived, writers may flush per batch
			if err := s.recordBatchErrors(d, active, w.WriteBatch(ctx, active)); err != nil {
				return err
			}
		case ModePerEntry:
			for _, e := range active {
				err := w.Write(ctx, e)
				if err == nil {
					continue
				}
				var we *WriterError
				if !cerrors.As(err, &we) {
					return cerrors.Errorf("writer %s: %w", d, err)
				}
				e.AddError(entryError("writer", d, err.Error(), errorStack(err)))
			}
		default:
			return cerrors.Errorf("writer %s: %v: %w", d, w.Mode(), ErrUnsupportedMode)
		}

		s.logger.Trace(ctx).
			Str(log.WriterField, d.String()).
			Int(log.BatchSizeField, len(active)).
			Msg("writer finished")
	}
	return nil
}

// recordBatchErrors records writer errors returned by a batch writer on the
// referenced entries. If err contains anything but writer errors that
// reference one of the written entries, the whole batch fails and nothing is
// recorded.
func (s *writeStage) recordBatchErrors(d Descriptor, written []*Entry, err error) error {
	if err == nil {
		return nil
	}

	wes, ok := writerErrors(err)
	if !ok {
		return cerrors.Errorf("writer %s: %w", d, err)
	}

	isWritten := make(map[*Entry]bool, len(written))
	for _, e := range written {
		isWritten[e] = true
	}
	for _, we := range wes {
		if !isWritten[we.Entry] {
			return cerrors.Errorf("writer %s reported an error for an entry that was not written: %w", d, err)
		}
	}

	for _, we := range wes {
		we.Entry.AddError(entryError("writer", d, we.Error(), errorStack(we)))
	}
	return nil
}

// writerErrors flattens err into writer errors that reference an entry. It
// returns false if err contains any other error.
func writerErrors(err error) ([]*WriterError, bool) {
	errs := []error{err}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		errs = joined.Unwrap()
	}

	out := make([]*WriterError, 0, len(errs))
	for _, e := range errs {
		var we *WriterError
		if !cerrors.As(e, &we) || we.Entry == nil {
			return nil, false
		}
		out = append(out, we)
	}
	return out, len(out) > 0
}
