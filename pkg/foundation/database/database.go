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

// Package database defines a minimal key-value store used by datastream to
// keep job outcomes and entries written by the kv writer. Implementations
// live in the subpackages.
package database

import (
	"context"

	"github.com/conduitio/datastream/pkg/foundation/cerrors"
)

// ErrKeyNotExist is returned from DB.Get when retrieving a non-existing key.
var ErrKeyNotExist = cerrors.New("key does not exist")

// DB defines the interface for a key-value store. Implementations need to be
// safe for concurrent use.
type DB interface {
	// Ping checks if the store is reachable.
	Ping(ctx context.Context) error
	// Close should flush any cached writes, release all resources and close the
	// store. After Close is called other methods should return an error.
	Close() error

	// Set stores value under key. A nil value deletes the key, an empty slice
	// is stored as is.
	Set(ctx context.Context, key string, value []byte) error
	// Get returns the value stored under key or ErrKeyNotExist.
	Get(ctx context.Context, key string) ([]byte, error)
	// GetKeys returns all keys starting with prefix, in no particular order.
	GetKeys(ctx context.Context, prefix string) ([]string, error)
}
