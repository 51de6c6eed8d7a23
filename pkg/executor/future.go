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

package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/conduitio/datastream/pkg/foundation/cerrors"
	"github.com/conduitio/datastream/pkg/foundation/cchan"
	"github.com/conduitio/datastream/pkg/foundation/database"
	"github.com/goccy/go-json"
	"github.com/jpillora/backoff"
)

// JobError is returned by Future.Get when the job failed. It only carries the
// error message, the original error is handed to Job.OnError in the worker.
type JobError struct {
	JobID   string
	Message string
}

func (e *JobError) Error() string {
	return fmt.Sprintf("job %s failed: %s", e.JobID, e.Message)
}

// Future is a handle to the outcome of a submitted job.
type Future[T any] struct {
	id      string
	backend *Backend
	// task is set if the job was submitted in this process, it is used to
	// wait for the job without polling the backend.
	task *completion
}

// completion is closed by the worker once the job finished and its record
// was stored.
type completion struct {
	done chan struct{}
	// rec is the final record of the job
	rec Record
	// storeErr is set if rec could not be stored in the backend
	storeErr error
}

func newCompletion() *completion {
	return &completion{done: make(chan struct{})}
}

func (c *completion) finish(rec Record, storeErr error) {
	c.rec = rec
	c.storeErr = storeErr
	close(c.done)
}

// NewFuture returns a Future for a job that was submitted elsewhere (e.g. by
// another process sharing the same backend). Get polls the backend until the
// job finishes.
func NewFuture[T any](backend *Backend, id string) *Future[T] {
	return &Future[T]{
		id:      id,
		backend: backend,
	}
}

func newPoll() *backoff.Backoff {
	return &backoff.Backoff{
		Min:    5 * time.Millisecond,
		Max:    time.Second,
		Factor: 2,
		Jitter: true,
	}
}

// ID returns the ID of the job.
func (f *Future[T]) ID() string {
	return f.id
}

// Forget removes the record of the job from the backend. Call it once the
// result was consumed, a future can't be resolved from the backend anymore
// afterwards.
func (f *Future[T]) Forget(ctx context.Context) error {
	if f.backend == nil {
		return nil
	}
	return f.backend.Forget(ctx, f.id)
}

// Get blocks until the job finishes and returns its result. If the job
// failed the returned error is a *JobError. If ctx is canceled before the
// job finishes the context error is returned, Get can be called again later.
func (f *Future[T]) Get(ctx context.Context) (T, error) {
	var zero T

	if f.task != nil {
		if _, _, err := cchan.Chan[struct{}](f.task.done).Recv(ctx); err != nil {
			return zero, err
		}
		if f.task.storeErr != nil {
			// the record never made it to the backend, use the local copy
			return decode[T](f.task.rec)
		}
	}

	rec, err := f.await(ctx)
	if err != nil {
		return zero, err
	}
	return decode[T](rec)
}

// await polls the backend until the job record reaches a final state.
func (f *Future[T]) await(ctx context.Context) (Record, error) {
	poll := newPoll()
	for {
		rec, err := f.backend.Load(ctx, f.id)
		switch {
		case err == nil && rec.State.Done():
			return rec, nil
		case err != nil && !cerrors.Is(err, database.ErrKeyNotExist):
			return Record{}, err
		}

		select {
		case <-ctx.Done():
			return Record{}, ctx.Err()
		case <-time.After(poll.Duration()):
		}
	}
}

func decode[T any](rec Record) (T, error) {
	var v T
	if rec.State == StateFailed {
		return v, &JobError{JobID: rec.ID, Message: rec.Error}
	}
	if len(rec.Result) == 0 {
		return v, nil
	}
	if err := json.Unmarshal(rec.Result, &v); err != nil {
		return v, cerrors.Errorf("could not decode result of job %s: %w", rec.ID, err)
	}
	return v, nil
}
