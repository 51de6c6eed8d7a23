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

// Package funnel moves entries from readers through transformers and writers
// in bounded batches. Every batch runs through the same chain of stages
// (transform, write, outcome) as an independent job, failures of single
// entries are recorded on the entry and never abort the batch.
package funnel

import (
	"github.com/conduitio/conduit-commons/opencdc"
)

// Entry is a single unit of data moving through a data stream. Readers create
// entries, transformers and writers mutate them in place and the outcome
// stage classifies them.
type Entry struct {
	// Payload is the record content, it is opaque to the pipeline.
	Payload opencdc.StructuredData `json:"payload"`
	// Errors collects error messages added by stages. An entry with at least
	// one error is failed, later stages don't act on it anymore.
	Errors []string `json:"errors,omitempty"`
	// Filtered is set by a transformer to exclude the entry from writers
	// without marking it as failed.
	Filtered bool `json:"filtered,omitempty"`
	// Context carries metadata along all stages (e.g. the source of the
	// entry).
	Context opencdc.Metadata `json:"context,omitempty"`
}

// NewEntry creates an entry with the given payload and context. The payload is
// not copied.
func NewEntry(payload opencdc.StructuredData, ctx opencdc.Metadata) *Entry {
	if payload == nil {
		payload = opencdc.StructuredData{}
	}
	if ctx == nil {
		ctx = opencdc.Metadata{}
	}
	return &Entry{Payload: payload, Context: ctx}
}

// Failed returns true if at least one error was recorded on the entry.
func (e *Entry) Failed() bool {
	return len(e.Errors) > 0
}

// AddError records an error message on the entry. Errors can't be removed.
func (e *Entry) AddError(msg string) {
	e.Errors = append(e.Errors, msg)
}

// Active returns true if the entry is neither failed nor filtered, only
// active entries are handed to writers.
func (e *Entry) Active() bool {
	return !e.Failed() && !e.Filtered
}
