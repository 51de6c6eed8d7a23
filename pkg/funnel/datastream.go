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

	"github.com/conduitio/datastream/pkg/executor"
	"github.com/conduitio/datastream/pkg/foundation/cerrors"
	"github.com/conduitio/datastream/pkg/foundation/ctxutil"
	"github.com/conduitio/datastream/pkg/foundation/log"
	"github.com/conduitio/datastream/pkg/foundation/metrics/measure"
	"github.com/conduitio/datastream/pkg/foundation/multierror"
)

// Definition describes what a data stream reads, how it transforms entries
// and where it writes them.
type Definition struct {
	// ID identifies the data stream in logs.
	ID           string
	Readers      []Descriptor
	Transformers []Descriptor
	Writers      []Descriptor
	// BatchSize is the maximum number of entries in a batch, DefaultBatchSize
	// is used if it's not positive.
	BatchSize int
}

// DataStream reads entries from all readers, groups them into batches and
// runs every batch through the chain.
type DataStream struct {
	def      Definition
	resolver Resolver
	exec     executor.Executor[Result]
	logger   log.CtxLogger

	success Callback
	failure ErrorCallback
	forget  bool
}

// Option configures optional parts of a DataStream.
type Option func(*DataStream)

// WithSuccessCallback sets the callback notified about ok and skipped entries.
func WithSuccessCallback(cb Callback) Option {
	return func(d *DataStream) { d.success = cb }
}

// WithErrorCallback sets the callback notified about failed entries and lost
// batches. It is also registered as the chain-level error handler.
func WithErrorCallback(cb ErrorCallback) Option {
	return func(d *DataStream) { d.failure = cb }
}

// WithForgetResults removes the record of every batch job from the result
// backend once AsyncResult aggregated it.
func WithForgetResults() Option {
	return func(d *DataStream) { d.forget = true }
}

// New creates a data stream. If exec is nil, batches submitted by Process run
// inline in the calling goroutine.
func New(
	logger log.CtxLogger,
	resolver Resolver,
	exec executor.Executor[Result],
	def Definition,
	opts ...Option,
) *DataStream {
	logger = logger.WithComponent("funnel.DataStream")
	if exec == nil {
		exec = &executor.Inline[Result]{Logger: logger}
	}
	if def.BatchSize <= 0 {
		def.BatchSize = DefaultBatchSize
	}

	d := &DataStream{
		def:      def,
		resolver: resolver,
		exec:     exec,
		logger:   logger,
		success:  noopCallback{},
		failure:  noopCallback{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Process reads all entries and submits every batch to the executor without
// waiting for it to finish. The returned AsyncResult collects the outcome of
// the submitted batches.
//
// If a reader can't be resolved or fails, reading stops. The entries read so
// far are still dispatched and the AsyncResult is returned together with the
// error. Batches that were already submitted keep running.
func (d *DataStream) Process(ctx context.Context) (*AsyncResult, error) {
	ctx = ctxutil.ContextWithPipelineID(ctx, d.def.ID)
	chain := d.chain()
	res := newAsyncResult(d.logger, d.forget)

	err := d.read(ctx, func(b *Batch) error {
		f, err := d.exec.Submit(ctx, executor.Job[Result]{
			ID: b.ID,
			Run: func(ctx context.Context) (Result, error) {
				return chain.Run(ctx, b)
			},
			OnError: func(ctx context.Context, err error) {
				chain.HandleError(ctx, b, err)
			},
		})
		if err != nil {
			return cerrors.Errorf("could not submit batch %s: %w", b.ID, err)
		}
		measure.BatchesDispatchedCounter.Inc()
		measure.BatchSizeHistogram.Observe(float64(b.Len()))
		res.add(f, b)
		return nil
	})

	d.logger.Debug(ctx).
		Int("batches", res.Batches()).
		Msg("all batches dispatched")
	return res, err
}

// ProcessSync processes all entries in the calling goroutine, batch by batch,
// and returns the aggregated result. Batches lost because of a stage failure
// are reported to the error callback and their errors are returned combined
// with a reader error, if any. The result is valid even if an error is
// returned.
func (d *DataStream) ProcessSync(ctx context.Context) (Result, error) {
	ctx = ctxutil.ContextWithPipelineID(ctx, d.def.ID)
	chain := d.chain()

	var (
		total Result
		errs  error
	)
	readErr := d.read(ctx, func(b *Batch) error {
		res, err := chain.Run(ctx, b)
		if err != nil {
			ce := chain.HandleError(ctx, b, err)
			total.LostBatches++
			total.LostEntries += b.Len()
			errs = multierror.Append(errs, ce)
			return nil
		}
		total.Merge(res)
		return nil
	})
	if readErr != nil {
		errs = multierror.Append(errs, readErr)
	}
	return total, errs
}

func (d *DataStream) chain() *Chain {
	return NewChain(d.logger, d.resolver, d.def.Transformers, d.def.Writers, d.success, d.failure)
}

// read drains all readers in declared order and calls dispatch for every
// sealed batch, including the last partial one. On a reader failure the
// pending entries are dispatched before the error is returned.
func (d *DataStream) read(ctx context.Context, dispatch func(*Batch) error) error {
	batcher := NewBatcher(d.def.BatchSize)

	readErr := func() error {
		for _, desc := range d.def.Readers {
			r, err := resolveReader(ctx, d.resolver, desc)
			if err != nil {
				return err
			}

			n := 0
			for e, err := range r.Entries(ctx) {
				if err != nil {
					return cerrors.Errorf("reader %s failed after %d entries: %w", desc, n, err)
				}
				if e == nil {
					continue
				}
				n++
				if b := batcher.Add(e); b != nil {
					if err := dispatch(b); err != nil {
						return err
					}
				}
			}
			d.logger.Debug(ctx).
				Str(log.ReaderField, desc.String()).
				Int("entries", n).
				Msg("reader drained")
		}
		return nil
	}()

	if b := batcher.Flush(); b != nil {
		if err := dispatch(b); err != nil {
			return multierror.Append(readErr, err)
		}
	}
	return readErr
}
