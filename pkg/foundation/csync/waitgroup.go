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

// Package csync contains synchronization primitives that respect a context.
package csync

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/conduitio/datastream/pkg/foundation/cchan"
)

// WaitGroup waits for a collection of goroutines like sync.WaitGroup, but
// waiting can be abandoned through a context. The zero value is ready to use.
type WaitGroup struct {
	wg      sync.WaitGroup
	pending atomic.Int64
}

// Add adds delta to the number of pending goroutines.
func (wg *WaitGroup) Add(delta int) {
	wg.pending.Add(int64(delta))
	wg.wg.Add(delta)
}

// Done marks one goroutine as finished.
func (wg *WaitGroup) Done() {
	wg.Add(-1)
}

// Len returns the number of pending goroutines.
func (wg *WaitGroup) Len() int {
	return int(wg.pending.Load())
}

// Wait blocks until no goroutine is pending. If ctx is done first the context
// error is returned, the goroutines keep running.
func (wg *WaitGroup) Wait(ctx context.Context) error {
	if wg.Len() == 0 {
		return nil
	}
	done := make(chan struct{})
	go func() {
		wg.wg.Wait()
		close(done)
	}()
	_, _, err := cchan.Chan[struct{}](done).Recv(ctx)
	return err
}

// WaitTimeout is Wait bounded by timeout.
func (wg *WaitGroup) WaitTimeout(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return wg.Wait(ctx)
}
