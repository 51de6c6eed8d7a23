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

package executor

import (
	"context"
	"sync/atomic"

	"github.com/conduitio/datastream/pkg/foundation/cerrors"
	"github.com/gammazero/deque"
)

// ErrQueueClosed is returned by Queue.Next once the queue is closed and all
// buffered values were drained.
var ErrQueueClosed = cerrors.New("queue is closed")

// Queue is an unbounded FIFO queue. Values pushed into the queue are buffered
// by a goroutine until they are fetched with Next, so Push never waits for a
// consumer. To stop the goroutine the queue needs to be closed and all values
// need to be drained through Next until it returns ErrQueueClosed.
type Queue[T any] struct {
	// in is the channel where incoming values are sent into (see Push)
	in chan T
	// out is the channel where buffered values are sent into (see Next)
	out chan T
	// size is the number of values pushed but not yet fetched
	size atomic.Int64
}

// NewQueue returns an initialized Queue.
func NewQueue[T any]() *Queue[T] {
	q := &Queue[T]{
		in:  make(chan T),
		out: make(chan T),
	}
	q.run()
	return q
}

// run launches a goroutine that fetches values from the channel in and buffers
// them in a deque. It also pushes values from the deque into the channel out.
func (q *Queue[T]) run() {
	in := q.in

	var buf deque.Deque[T]
	outOrNil := func() chan T {
		if buf.Len() == 0 {
			return nil
		}
		return q.out
	}
	front := func() T {
		if buf.Len() == 0 {
			var zero T
			return zero
		}
		return buf.Front()
	}

	go func() {
		defer close(q.out)
		for buf.Len() > 0 || in != nil {
			select {
			case v, ok := <-in:
				if !ok {
					in = nil
					continue
				}
				buf.PushBack(v)
			case outOrNil() <- front():
				buf.PopFront()
			}
		}
	}()
}

// Push adds v to the back of the queue. It blocks only until the buffering
// goroutine accepts the value. Pushing into a closed queue panics.
func (q *Queue[T]) Push(ctx context.Context, v T) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case q.in <- v:
		q.size.Add(1)
		return nil
	}
}

// Next returns the value at the front of the queue. If the queue is empty
// the call blocks until a value is pushed, ctx is canceled or the queue is
// closed and drained.
func (q *Queue[T]) Next(ctx context.Context) (T, error) {
	select {
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	case v, ok := <-q.out:
		if !ok {
			return v, ErrQueueClosed
		}
		q.size.Add(-1)
		return v, nil
	}
}

// Len returns the number of values waiting in the queue.
func (q *Queue[T]) Len() int {
	// Push increments the counter after the hand-off, a concurrent Next can
	// observe the value first
	return max(int(q.size.Load()), 0)
}

// Close the queue, no more values can be pushed after this. Values that are
// already in the queue can still be fetched with Next.
func (q *Queue[T]) Close() {
	close(q.in)
}
