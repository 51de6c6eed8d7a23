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

// Package executor runs jobs on a pool of workers and keeps their outcome in a
// result backend. Submitting a job never waits for the job to run, the
// returned Future is used to fetch the outcome later.
package executor

import (
	"context"
	"time"

	"github.com/conduitio/datastream/pkg/foundation/cerrors"
	"github.com/conduitio/datastream/pkg/foundation/log"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/sourcegraph/conc/panics"
)

// ErrPoolClosed is returned when a job is submitted to a closed pool.
var ErrPoolClosed = cerrors.New("executor pool is closed")

// Job is a unit of work. The result of Run needs to be JSON encodable, it is
// stored in the result backend.
type Job[T any] struct {
	// ID identifies the job in the result backend. If empty a random ID is
	// generated on submission.
	ID string
	// Run executes the job.
	Run func(ctx context.Context) (T, error)
	// OnError is called in the worker if Run returns an error, panics or its
	// result can't be encoded. Optional.
	OnError func(ctx context.Context, err error)
}

// Executor runs submitted jobs.
type Executor[T any] interface {
	Submit(ctx context.Context, job Job[T]) (*Future[T], error)
}

// Inline is an Executor that runs the job in the goroutine calling Submit.
// The returned future is already resolved. Useful for debugging and tests.
type Inline[T any] struct {
	Backend *Backend
	Logger  log.CtxLogger
}

var _ Executor[any] = (*Inline[any])(nil)

func (e *Inline[T]) Submit(ctx context.Context, job Job[T]) (*Future[T], error) {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	c := newCompletion()
	rec := execute(ctx, job, time.Now())
	c.finish(rec, storeRecord(ctx, e.Backend, e.Logger, rec))
	return &Future[T]{id: job.ID, backend: e.Backend, task: c}, nil
}

// execute runs the job under a supervisor that recovers panics, calls the
// error hook on failure and returns the final record of the job.
func execute[T any](ctx context.Context, job Job[T], submittedAt time.Time) Record {
	var (
		res T
		err error
	)

	var pc panics.Catcher
	pc.Try(func() { res, err = job.Run(ctx) })
	if r := pc.Recovered(); r != nil {
		err = cerrors.Errorf("job panicked: %w", r.AsError())
	}

	var raw []byte
	if err == nil {
		raw, err = json.Marshal(res)
		if err != nil {
			err = cerrors.Errorf("could not encode job result: %w", err)
		}
	}

	if err != nil {
		return fail(ctx, job, submittedAt, err)
	}
	return Record{
		ID:          job.ID,
		State:       StateSucceeded,
		Result:      raw,
		SubmittedAt: submittedAt,
		FinishedAt:  time.Now(),
	}
}

// fail calls the error hook of the job and returns its failed record.
func fail[T any](ctx context.Context, job Job[T], submittedAt time.Time, err error) Record {
	rec := Record{
		ID:          job.ID,
		State:       StateFailed,
		Error:       err.Error(),
		SubmittedAt: submittedAt,
		FinishedAt:  time.Now(),
	}
	if job.OnError != nil {
		// a panicking error hook must not take down the worker
		var hc panics.Catcher
		hc.Try(func() { job.OnError(ctx, err) })
		if r := hc.Recovered(); r != nil {
			rec.Error += "; error hook panicked: " + r.String()
		}
	}
	return rec
}

func storeRecord(ctx context.Context, b *Backend, logger log.CtxLogger, rec Record) error {
	if b == nil {
		return cerrors.New("no result backend")
	}
	err := b.Store(ctx, rec)
	if err != nil {
		logger.Err(ctx, err).Str(log.JobIDField, rec.ID).Msg("failed to store job record, result only available locally")
	}
	return err
}
