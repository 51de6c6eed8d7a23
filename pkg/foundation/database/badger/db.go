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

// Package badger contains a database.DB backed by an embedded badger store.
package badger

import (
	"context"

	"github.com/conduitio/datastream/pkg/foundation/cerrors"
	"github.com/conduitio/datastream/pkg/foundation/database"
	"github.com/conduitio/datastream/pkg/foundation/log"
	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"
)

// DB implements the database.DB interface on top of badger.
type DB struct {
	db *badger.DB
}

var _ database.DB = (*DB)(nil)

// New opens (or creates) the badger store in the directory path. If path is
// empty the store is kept in memory.
func New(l zerolog.Logger, path string) (*DB, error) {
	opt := badger.DefaultOptions(path)
	if path == "" {
		opt = opt.WithInMemory(true)
	}
	opt.Logger = logger(l.With().Str(log.ComponentField, "badger.DB").Logger())

	db, err := badger.Open(opt)
	if err != nil {
		return nil, cerrors.Errorf("badger: could not open db: %w", err)
	}

	return &DB{db: db}, nil
}

func (d *DB) Ping(context.Context) error {
	if d.db.IsClosed() {
		return cerrors.New("badger: db is closed")
	}
	return nil
}

// Close flushes any pending writes and closes the db.
func (d *DB) Close() error {
	return d.db.Close()
}

// Get finds the value corresponding to the key and returns it or an error.
func (d *DB) Get(_ context.Context, key string) ([]byte, error) {
	var val []byte
	err := d.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		val, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if cerrors.Is(err, badger.ErrKeyNotFound) {
			err = database.ErrKeyNotExist
		}
		return nil, cerrors.Errorf("badger: could not get key %q: %w", key, err)
	}
	return val, nil
}

// Set updates the key with the given value, a nil value deletes the key.
func (d *DB) Set(_ context.Context, key string, value []byte) error {
	err := d.db.Update(func(txn *badger.Txn) error {
		if value == nil {
			return txn.Delete([]byte(key))
		}
		return txn.Set([]byte(key), value)
	})
	if err != nil {
		return cerrors.Errorf("badger: could not set key %q: %w", key, err)
	}
	return nil
}

// GetKeys ranges over the keys and returns the ones with the given prefix.
func (d *DB) GetKeys(_ context.Context, prefix string) ([]string, error) {
	var results []string
	err := d.db.View(func(txn *badger.Txn) error {
		opt := badger.DefaultIteratorOptions
		opt.Prefix = []byte(prefix)
		opt.PrefetchValues = false // only iterate keys
		it := txn.NewIterator(opt)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			results = append(results, string(it.Item().KeyCopy(nil)))
		}
		return nil
	})
	if err != nil {
		return nil, cerrors.Errorf("badger: could not get keys with prefix %q: %w", prefix, err)
	}
	return results, nil
}
