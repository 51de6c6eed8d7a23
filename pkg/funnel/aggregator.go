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
	"slices"

	"github.com/conduitio/datastream/pkg/executor"
	"github.com/conduitio/datastream/pkg/foundation/cerrors"
	"github.com/conduitio/datastream/pkg/foundation/log"
	"github.com/conduitio/datastream/pkg/foundation/multierror"
)

// AsyncResult is the handle returned by DataStream.Process. It collects the
// results of all dispatched batches the first time one of its accessors is
// called, blocking until every batch finished, and keeps the totals for later
// calls.
//
// Batches are awaited in dispatch order, FailedEntries is therefore ordered by
// batch dispatch order and not by completion order.
//
// A batch that was lost because a stage failed contributes nothing to the
// counters. Such batches are counted in LostBatches and LostEntries and their
// errors are returned by Err, Incomplete reports if any batch was lost.
// Failures recorded on entries are explained by FailedEntries, lost batches
// are only visible as the difference between the number of read entries and
// the sum of the counters.
//
// AsyncResult is safe for concurrent use.
type AsyncResult struct {
	batches []dispatched
	logger  log.CtxLogger
	// forget removes job records from the backend once aggregated
	forget bool

	// sem is a one-slot semaphore guarding the fields below, acquiring it
	// respects the context of Wait
	sem  chan struct{}
	next int
	res  Result
	errs error
}

// dispatched is a batch handed over to the executor.
type dispatched struct {
	future *executor.Future[Result]
	id     string
	seq    int
	size   int
}

func newAsyncResult(logger log.CtxLogger, forget bool) *AsyncResult {
	return &AsyncResult{
		logger: logger,
		forget: forget,
		sem:    make(chan struct{}, 1),
	}
}

func (r *AsyncResult) add(f *executor.Future[Result], b *Batch) {
	r.batches = append(r.batches, dispatched{
		future: f,
		id:     b.ID,
		seq:    b.Seq,
		size:   b.Len(),
	})
}

// Batches returns the number of dispatched batches.
func (r *AsyncResult) Batches() int {
	return len(r.batches)
}

// Wait blocks until all batches are finished and their results are
// aggregated. If ctx is canceled first the context error is returned, the
// progress is kept and a later call continues where this one stopped.
func (r *AsyncResult) Wait(ctx context.Context) error {
	select {
	case r.sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-r.sem }()

	for r.next < len(r.batches) {
		d := r.batches[r.next]
		res, err := d.future.Get(ctx)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil && cerrors.Is(err, ctxErr) {
				return err
			}
			r.res.LostBatches++
			r.res.LostEntries += d.size
			r.errs = multierror.Append(r.errs, cerrors.Errorf("batch %s (seq %d, %d entries) lost: %w", d.id, d.seq, d.size, err))
		} else {
			// results from the backend never carry lost batches
			res.LostBatches, res.LostEntries = 0, 0
			r.res.Merge(res)
		}
		if r.forget {
			if err := d.future.Forget(ctx); err != nil {
				r.logger.Warn(ctx).Err(err).Str(log.JobIDField, d.future.ID()).Msg("could not forget batch result")
			}
		}
		r.next++
	}
	return nil
}

func (r *AsyncResult) wait() {
	// Wait only fails if the context is canceled
	_ = r.Wait(context.Background())
}

// OkCount returns the number of entries that were written successfully.
func (r *AsyncResult) OkCount() int {
	return r.Result().OkCount
}

// FailedCount returns the number of entries with recorded errors.
func (r *AsyncResult) FailedCount() int {
	return r.Result().FailedCount
}

// SkippedCount returns the number of filtered entries.
func (r *AsyncResult) SkippedCount() int {
	return r.Result().SkippedCount
}

// FailedEntries returns all failed entries in batch dispatch order.
func (r *AsyncResult) FailedEntries() []*Entry {
	return r.Result().FailedEntries
}

// LostBatches returns the number of batches that were lost because of a stage
// failure.
func (r *AsyncResult) LostBatches() int {
	return r.Result().LostBatches
}

// LostEntries returns the number of entries in lost batches.
func (r *AsyncResult) LostEntries() int {
	return r.Result().LostEntries
}

// Incomplete returns true if at least one batch was lost.
func (r *AsyncResult) Incomplete() bool {
	return r.Result().Incomplete()
}

// Err returns the errors of all lost batches combined with
// multierror.Append, or nil if no batch was lost.
func (r *AsyncResult) Err() error {
	r.wait()
	r.sem <- struct{}{}
	defer func() { <-r.sem }()
	return r.errs
}

// Result returns a copy of the aggregated result.
func (r *AsyncResult) Result() Result {
	r.wait()
	r.sem <- struct{}{}
	defer func() { <-r.sem }()

	res := r.res
	res.FailedEntries = slices.Clone(r.res.FailedEntries)
	return res
}
