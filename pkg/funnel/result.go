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

// Result is the outcome of processing entries, either of a single batch or
// aggregated over a whole run.
//
// FailedEntries only contains failures that were recorded on entries. Entries
// of batches that were lost because of a stage failure are not classified at
// all, they are only reflected in LostBatches and LostEntries.
type Result struct {
	OkCount       int      `json:"okCount"`
	FailedCount   int      `json:"failedCount"`
	SkippedCount  int      `json:"skippedCount"`
	FailedEntries []*Entry `json:"failedEntries,omitempty"`

	LostBatches int `json:"lostBatches,omitempty"`
	LostEntries int `json:"lostEntries,omitempty"`
}

// Merge adds the counters of o to r and appends its failed entries.
func (r *Result) Merge(o Result) {
	r.OkCount += o.OkCount
	r.FailedCount += o.FailedCount
	r.SkippedCount += o.SkippedCount
	r.FailedEntries = append(r.FailedEntries, o.FailedEntries...)
	r.LostBatches += o.LostBatches
	r.LostEntries += o.LostEntries
}

// Total returns the number of classified entries.
func (r Result) Total() int {
	return r.OkCount + r.FailedCount + r.SkippedCount
}

// Incomplete returns true if at least one batch was lost, in that case the
// counters don't add up to the number of entries that were read.
func (r Result) Incomplete() bool {
	return r.LostBatches > 0
}
