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

// Package measure defines the metrics collected by datastream.
package measure

import (
	"github.com/conduitio/datastream/pkg/foundation/metrics"
	"github.com/conduitio/datastream/pkg/foundation/metrics/prometheus"
)

// Outcome label values of EntriesCounter.
const (
	OutcomeOK      = "ok"
	OutcomeFailed  = "failed"
	OutcomeSkipped = "skipped"
)

var (
	DatastreamInfo = metrics.NewLabeledCounter("datastream_info",
		"Information about datastream, incremented once on startup.",
		[]string{"version"})

	BatchesDispatchedCounter = metrics.NewCounter("datastream_batches_dispatched_total",
		"Number of batches handed over to the executor.")
	BatchSizeHistogram = metrics.NewHistogram("datastream_batch_size",
		"Number of entries in dispatched batches.",
		prometheus.HistogramOpts{Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000}},
	)
	EntriesCounter = metrics.NewLabeledCounter("datastream_entries_total",
		"Number of classified entries by outcome (ok, failed, skipped).",
		[]string{"outcome"})
	ChainFailuresCounter = metrics.NewCounter("datastream_chain_failures_total",
		"Number of batches lost because of a stage-level failure.")

	StageDurationTimer = metrics.NewLabeledTimer("datastream_stage_duration_seconds",
		"Amount of time a batch spent in a stage (transform, write, outcome).",
		[]string{"stage"},
		prometheus.HistogramOpts{Buckets: []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5}},
	)

	ExecutorQueueGauge = metrics.NewGauge("datastream_executor_queue_size",
		"Number of jobs waiting for a free executor worker.")
	ExecutorJobTimer = metrics.NewTimer("datastream_executor_job_duration_seconds",
		"Amount of time a worker spent running a job.",
		prometheus.HistogramOpts{Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5, 10, 30}},
	)
)
