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

// Package inmemory contains a database.DB that keeps values in memory.
package inmemory

import (
	"context"
	"strings"
	"sync"

	"github.com/conduitio/datastream/pkg/foundation/cerrors"
	"github.com/conduitio/datastream/pkg/foundation/database"
)

// DB is a naive store that stores values in memory. Changes are lost on
// restart. The zero value is ready to use.
type DB struct {
	m      sync.RWMutex
	values map[string][]byte
	closed bool
}

var _ database.DB = (*DB)(nil)

func (d *DB) Ping(context.Context) error {
	d.m.RLock()
	defer d.m.RUnlock()
	return d.checkOpen()
}

func (d *DB) Set(_ context.Context, key string, value []byte) error {
	d.m.Lock()
	defer d.m.Unlock()
	if err := d.checkOpen(); err != nil {
		return err
	}

	if value == nil {
		delete(d.values, key)
		return nil
	}
	if d.values == nil {
		d.values = make(map[string][]byte)
	}
	// copy, callers may reuse the slice
	d.values[key] = append([]byte{}, value...)
	return nil
}

func (d *DB) Get(_ context.Context, key string) ([]byte, error) {
	d.m.RLock()
	defer d.m.RUnlock()
	if err := d.checkOpen(); err != nil {
		return nil, err
	}

	val, ok := d.values[key]
	if !ok {
		return nil, database.ErrKeyNotExist
	}
	return append([]byte{}, val...), nil
}

func (d *DB) GetKeys(_ context.Context, prefix string) ([]string, error) {
	d.m.RLock()
	defer d.m.RUnlock()
	if err := d.checkOpen(); err != nil {
		return nil, err
	}

	var result []string
	for k := range d.values {
		if strings.HasPrefix(k, prefix) {
			result = append(result, k)
		}
	}
	return result, nil
}

// Close marks the store as closed and drops all values.
func (d *DB) Close() error {
	d.m.Lock()
	defer d.m.Unlock()
	d.closed = true
	d.values = nil
	return nil
}

func (d *DB) checkOpen() error {
	if d.closed {
		return cerrors.New("inmemory: database is closed")
	}
	return nil
}
