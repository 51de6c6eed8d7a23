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
	"github.com/conduitio/datastream/pkg/foundation/metrics/measure"
)

// outcomeStage classifies every entry of a batch and notifies the callbacks.
// It only reads entries.
type outcomeStage struct {
	success Callback
	failure ErrorCallback
}

func (s *outcomeStage) Name() string      { return StageOutcome }
func (s *outcomeStage) Component() string { return "" }

func (s *outcomeStage) Run(ctx context.Context, b *Batch, r *Result) error {
	var res Result
	for _, e := range b.Entries {
		switch {
		case e.Failed():
			if err := s.failure.OnEntry(ctx, e); err != nil {
				return cerrors.Errorf("error callback: %w", err)
			}
			res.FailedCount++
			res.FailedEntries = append(res.FailedEntries, e)
		case e.Filtered:
			if err := s.success.OnEntry(ctx, e); err != nil {
				return cerrors.Errorf("success callback: %w", err)
			}
			res.SkippedCount++
		default:
			if err := s.success.OnEntry(ctx, e); err != nil {
				return cerrors.Errorf("success callback: %w", err)
			}
			res.OkCount++
		}
	}

	measure.EntriesCounter.WithValues(measure.OutcomeOK).Inc(float64(res.OkCount))
	measure.EntriesCounter.WithValues(measure.OutcomeFailed).Inc(float64(res.FailedCount))
	measure.EntriesCounter.WithValues(measure.OutcomeSkipped).Inc(float64(res.SkippedCount))

	r.Merge(res)
	return nil
}
