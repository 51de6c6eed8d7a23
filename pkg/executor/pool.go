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
	"runtime"
	"sync"
	"time"

	"github.com/conduitio/datastream/pkg/foundation/cchan"
	"github.com/conduitio/datastream/pkg/foundation/cerrors"
	"github.com/conduitio/datastream/pkg/foundation/log"
	"github.com/conduitio/datastream/pkg/foundation/metrics/measure"
	"github.com/google/uuid"
	"gopkg.in/tomb.v2"
)

// Pool is an Executor that runs jobs on a fixed number of workers. Submitted
// jobs are buffered in an unbounded queue and picked up in submission order.
type Pool[T any] struct {
	logger  log.CtxLogger
	backend *Backend
	queue   *Queue[*task[T]]

	t   *tomb.Tomb
	ctx context.Context

	// m guards closed, Submit holds a read lock while pushing into the queue
	m      sync.RWMutex
	closed bool
}

type task[T any] struct {
	job         Job[T]
	ctx         context.Context
	submittedAt time.Time
	completion  *completion
}

var _ Executor[any] = (*Pool[any])(nil)

// NewPool starts a pool with the given number of workers. If workers is not
// positive the number of CPUs is used. The pool needs to be closed with
// Close to stop the workers.
func NewPool[T any](logger log.CtxLogger, backend *Backend, workers int) *Pool[T] {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	t, ctx := tomb.WithContext(context.Background())
	p := &Pool[T]{
		logger:  logger.WithComponent("executor.Pool"),
		backend: backend,
		queue:   NewQueue[*task[T]](),
		t:       t,
		ctx:     ctx,
	}
	for i := range workers {
		p.t.Go(func() error { return p.work(i) })
	}
	return p
}

// Submit stores the job as pending in the backend and queues it. Jobs run
// detached from the cancellation of ctx, values stored in ctx are retained.
func (p *Pool[T]) Submit(ctx context.Context, job Job[T]) (*Future[T], error) {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}

	p.m.RLock()
	defer p.m.RUnlock()
	if p.closed {
		return nil, ErrPoolClosed
	}

	tk := &task[T]{
		job:         job,
		ctx:         context.WithoutCancel(ctx),
		submittedAt: time.Now(),
		completion:  newCompletion(),
	}
	if err := p.backend.Store(ctx, Record{ID: job.ID, State: StatePending, SubmittedAt: tk.submittedAt}); err != nil {
		return nil, cerrors.Errorf("could not submit job %s: %w", job.ID, err)
	}
	if err := p.queue.Push(ctx, tk); err != nil {
		return nil, cerrors.Errorf("could not submit job %s: %w", job.ID, err)
	}
	measure.ExecutorQueueGauge.Set(float64(p.queue.Len()))

	p.logger.Trace(ctx).Str(log.JobIDField, job.ID).Msg("job submitted")
	return &Future[T]{id: job.ID, backend: p.backend, task: tk.completion}, nil
}

func (p *Pool[T]) work(id int) error {
	for {
		tk, err := p.queue.Next(p.ctx)
		if err != nil {
			// queue drained or pool killed
			return nil
		}
		measure.ExecutorQueueGauge.Set(float64(p.queue.Len()))
		if !p.t.Alive() {
			p.abandon(tk)
			continue
		}
		p.run(id, tk)
	}
}

func (p *Pool[T]) run(workerID int, tk *task[T]) {
	ctx := tk.ctx
	start := time.Now()

	if err := p.backend.Store(ctx, Record{ID: tk.job.ID, State: StateRunning, SubmittedAt: tk.submittedAt}); err != nil {
		p.logger.Warn(ctx).Err(err).Str(log.JobIDField, tk.job.ID).Msg("could not mark job as running")
	}

	rec := execute(ctx, tk.job, tk.submittedAt)
	measure.ExecutorJobTimer.UpdateSince(start)

	e := p.logger.Trace(ctx)
	if rec.State == StateFailed {
		e = p.logger.Debug(ctx).Str("error", rec.Error)
	}
	e.Str(log.JobIDField, tk.job.ID).
		Int(log.WorkerIDField, workerID).
		Dur(log.DurationField, time.Since(start)).
		Str("state", string(rec.State)).
		Msg("job finished")

	tk.completion.finish(rec, storeRecord(ctx, p.backend, p.logger, rec))
}

// Close stops accepting new jobs and waits until all queued jobs ran. If ctx
// is canceled before that, the workers are stopped after their current job
// and jobs still in the queue are failed with ErrPoolClosed without running.
func (p *Pool[T]) Close(ctx context.Context) error {
	p.m.Lock()
	if !p.closed {
		p.closed = true
		p.queue.Close()
	}
	p.m.Unlock()

	done := make(chan error, 1)
	go func() { done <- p.t.Wait() }()

	err, _, ctxErr := cchan.Chan[error](done).Recv(ctx)
	if ctxErr != nil {
		p.t.Kill(nil)
		p.abandonQueued()
		return ctxErr
	}
	return err
}

// abandonQueued fails all jobs left in the closed queue. Workers racing for
// the same jobs abandon them too, see work.
func (p *Pool[T]) abandonQueued() {
	for {
		tk, err := p.queue.Next(context.Background())
		if err != nil {
			return
		}
		p.abandon(tk)
	}
}

func (p *Pool[T]) abandon(tk *task[T]) {
	p.logger.Warn(tk.ctx).
		Str(log.JobIDField, tk.job.ID).
		Msg("pool closed before the job ran, job abandoned")
	rec := fail(tk.ctx, tk.job, tk.submittedAt, ErrPoolClosed)
	tk.completion.finish(rec, storeRecord(tk.ctx, p.backend, p.logger, rec))
}
