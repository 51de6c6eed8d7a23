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
	"fmt"
	"testing"

	"github.com/conduitio/conduit-commons/opencdc"
	"github.com/matryer/is"
)

func TestBatcher_BatchCount(t *testing.T) {
	for _, size := range []int{1, 2, 3, 7, 10, 100} {
		for _, n := range []int{0, 1, 2, 9, 10, 11, 99, 100, 101, 250} {
			t.Run(fmt.Sprintf("size=%d/n=%d", size, n), func(t *testing.T) {
				is := is.New(t)

				b := NewBatcher(size)
				var batches []*Batch
				for i := range n {
					if batch := b.Add(NewEntry(opencdc.StructuredData{"i": i}, nil)); batch != nil {
						batches = append(batches, batch)
					}
				}
				if batch := b.Flush(); batch != nil {
					batches = append(batches, batch)
				}

				is.Equal(len(batches), (n+size-1)/size) // ceil(n/size)
				sum := 0
				for i, batch := range batches {
					is.True(batch.Len() <= size)
					is.True(batch.Len() > 0)
					is.Equal(batch.Seq, i)
					sum += batch.Len()
				}
				is.Equal(sum, n)
			})
		}
	}
}

func TestBatcher_PreservesOrder(t *testing.T) {
	is := is.New(t)

	b := NewBatcher(3)
	var got []int
	collect := func(batch *Batch) {
		if batch == nil {
			return
		}
		for _, e := range batch.Entries {
			got = append(got, e.Payload["i"].(int))
		}
	}
	for i := range 8 {
		collect(b.Add(NewEntry(opencdc.StructuredData{"i": i}, nil)))
	}
	collect(b.Flush())

	is.Equal(got, []int{0, 1, 2, 3, 4, 5, 6, 7})
	is.Equal(b.Flush(), nil) // nothing pending
}

func TestBatcher_DefaultSize(t *testing.T) {
	is := is.New(t)
	is.Equal(NewBatcher(0).Size(), DefaultBatchSize)
	is.Equal(NewBatcher(-5).Size(), DefaultBatchSize)
}

func TestBatch_Active(t *testing.T) {
	is := is.New(t)

	ok := NewEntry(nil, nil)
	failed := NewEntry(nil, nil)
	failed.AddError("boom")
	filtered := NewEntry(nil, nil)
	filtered.Filtered = true

	b := &Batch{Entries: []*Entry{ok, failed, filtered}}
	is.Equal(b.Active(), []*Entry{ok})
}
