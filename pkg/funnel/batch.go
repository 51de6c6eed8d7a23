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
	"github.com/google/uuid"
)

// DefaultBatchSize is used when a data stream does not specify a batch size.
const DefaultBatchSize = 100

// Batch is an ordered group of entries dispatched as one job. A batch owns its
// entries exclusively while it runs through the chain.
type Batch struct {
	// ID uniquely identifies the batch, it is also used as the job ID.
	ID string
	// Seq is the position of the batch in the dispatch order of a run,
	// starting at 0.
	Seq     int
	Entries []*Entry
}

// Len returns the number of entries in the batch.
func (b *Batch) Len() int {
	return len(b.Entries)
}

// Active returns the entries that are neither failed nor filtered, in batch
// order.
func (b *Batch) Active() []*Entry {
	active := make([]*Entry, 0, len(b.Entries))
	for _, e := range b.Entries {
		if e.Active() {
			active = append(active, e)
		}
	}
	return active
}

// Batcher groups entries into batches of a fixed size.
type Batcher struct {
	size    int
	seq     int
	entries []*Entry
}

// NewBatcher creates a batcher that seals a batch once it contains size
// entries. If size is not positive DefaultBatchSize is used.
func NewBatcher(size int) *Batcher {
	if size <= 0 {
		size = DefaultBatchSize
	}
	return &Batcher{size: size}
}

// Size returns the number of entries in a full batch.
func (b *Batcher) Size() int {
	return b.size
}

// Add appends the entry to the current batch. If the batch is full it is
// sealed and returned, otherwise Add returns nil.
func (b *Batcher) Add(e *Entry) *Batch {
	if b.entries == nil {
		b.entries = make([]*Entry, 0, b.size)
	}
	b.entries = append(b.entries, e)
	if len(b.entries) < b.size {
		return nil
	}
	return b.seal()
}

// Flush seals and returns the current batch even if it's not full. It returns
// nil if there are no pending entries.
func (b *Batcher) Flush() *Batch {
	if len(b.entries) == 0 {
		return nil
	}
	return b.seal()
}

func (b *Batcher) seal() *Batch {
	batch := &Batch{
		ID:      uuid.NewString(),
		Seq:     b.seq,
		Entries: b.entries,
	}
	b.seq++
	b.entries = nil
	return batch
}
