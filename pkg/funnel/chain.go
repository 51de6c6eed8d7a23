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
	"time"

	"github.com/conduitio/datastream/pkg/foundation/cerrors"
	"github.com/conduitio/datastream/pkg/foundation/ctxutil"
	"github.com/conduitio/datastream/pkg/foundation/log"
	"github.com/conduitio/datastream/pkg/foundation/metrics/measure"
	"github.com/sourcegraph/conc/panics"
)

// Stage names used in ChainError, logs and metrics.
const (
	StageTransform = "transform"
	StageWrite     = "write"
	StageOutcome   = "outcome"
)

// Stage is a single step of a Chain.
type Stage interface {
	// Name returns the stage kind (transform, write or outcome).
	Name() string
	// Component describes the component the stage runs, if any.
	Component() string
	// Run processes the batch. The outcome stage adds its counts to r.
	Run(ctx context.Context, b *Batch, r *Result) error
}

// ChainError describes a stage failure that aborted the chain of a batch. The
// entries of the batch are not classified, the batch is lost.
type ChainError struct {
	BatchID   string
	BatchSeq  int
	BatchSize int
	Stage     string
	Component string
	Err       error
}

func newChainError(b *Batch, s Stage, err error) *ChainError {
	ce := &ChainError{
		BatchID:   b.ID,
		BatchSeq:  b.Seq,
		BatchSize: b.Len(),
		Err:       err,
	}
	if s != nil {
		ce.Stage = s.Name()
		ce.Component = s.Component()
	}
	return ce
}

func (e *ChainError) Error() string {
	where := e.Stage
	if where == "" {
		where = "chain"
	}
	if e.Component != "" {
		where = fmt.Sprintf("%s %s", where, e.Component)
	}
	return fmt.Sprintf("batch %s (seq %d, %d entries) lost in %s: %v", e.BatchID, e.BatchSeq, e.BatchSize, where, e.Err)
}

func (e *ChainError) Unwrap() error {
	return e.Err
}

// Chain is the ordered list of stages every batch of a data stream runs
// through: all transform stages in declared order, one write stage and one
// outcome stage. A chain is built once per run and shared by all batches, it
// holds no per-batch state.
type Chain struct {
	stages  []Stage
	failure ErrorCallback
	logger  log.CtxLogger
}

// NewChain builds the chain for the given transformers and writers.
func NewChain(
	logger log.CtxLogger,
	resolver Resolver,
	transformers []Descriptor,
	writers []Descriptor,
	success Callback,
	failure ErrorCallback,
) *Chain {
	logger = logger.WithComponent("funnel.Chain")
	if success == nil {
		success = noopCallback{}
	}
	if failure == nil {
		failure = noopCallback{}
	}

	stages := make([]Stage, 0, len(transformers)+2)
	for _, d := range transformers {
		stages = append(stages, &transformStage{resolver: resolver, desc: d, logger: logger})
	}
	stages = append(stages,
		&writeStage{resolver: resolver, descs: writers, logger: logger},
		&outcomeStage{success: success, failure: failure},
	)

	return &Chain{
		stages:  stages,
		failure: failure,
		logger:  logger,
	}
}

// Stages returns the stages of the chain in execution order.
func (c *Chain) Stages() []Stage {
	return c.stages
}

// Run sends the batch through all stages and returns the outcome of the
// batch. If a stage fails or panics the remaining stages are skipped and a
// *ChainError is returned. Run does not notify the error callback about the
// failure, that is done by HandleError.
func (c *Chain) Run(ctx context.Context, b *Batch) (Result, error) {
	ctx = ctxutil.ContextWithBatchID(ctx, b.ID)
	c.logger.Trace(ctx).
		Int(log.BatchSeqField, b.Seq).
		Int(log.BatchSizeField, b.Len()).
		Msg("running batch")

	var res Result
	for _, s := range c.stages {
		start := time.Now()
		err := c.runStage(ctx, s, b, &res)
		measure.StageDurationTimer.WithValues(s.Name()).UpdateSince(start)
		if err != nil {
			return Result{}, newChainError(b, s, err)
		}
	}
	return res, nil
}

func (c *Chain) runStage(ctx context.Context, s Stage, b *Batch, res *Result) (err error) {
	var pc panics.Catcher
	pc.Try(func() { err = s.Run(ctx, b, res) })
	if r := pc.Recovered(); r != nil {
		err = cerrors.Errorf("stage panicked: %w", r.AsError())
	}
	return err
}

// HandleError notifies the error callback about a lost batch. It is the
// chain-level error handler and is called at most once per batch.
func (c *Chain) HandleError(ctx context.Context, b *Batch, err error) *ChainError {
	ctx = ctxutil.ContextWithBatchID(ctx, b.ID)

	var ce *ChainError
	if !cerrors.As(err, &ce) {
		ce = newChainError(b, nil, err)
	}

	measure.ChainFailuresCounter.Inc()
	c.logger.Err(ctx, ce.Err).
		Int(log.BatchSeqField, b.Seq).
		Int(log.BatchSizeField, b.Len()).
		Str(log.StageField, ce.Stage).
		Msg("batch lost")

	var pc panics.Catcher
	pc.Try(func() { c.failure.OnChainError(ctx, ce) })
	if r := pc.Recovered(); r != nil {
		c.logger.Error(ctx).
			Str("panic", r.String()).
			Msg("error callback panicked while handling a lost batch")
	}
	return ce
}
