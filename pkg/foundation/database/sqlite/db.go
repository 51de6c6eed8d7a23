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

// Package sqlite contains a database.DB that stores values in a single SQLite
// table.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/conduitio/datastream/pkg/foundation/cerrors"
	"github.com/conduitio/datastream/pkg/foundation/database"
	"github.com/conduitio/datastream/pkg/foundation/log"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

// FileName is the name of the database file created in the data directory.
const FileName = "datastream.db"

type DB struct {
	db     *sql.DB
	logger log.CtxLogger
	table  string
}

var _ database.DB = (*DB)(nil)

// New opens the database in directory path and creates the table if it does
// not exist yet.
func New(ctx context.Context, l zerolog.Logger, path, table string) (*DB, error) {
	dbpath, err := dburl(path)
	if err != nil {
		return nil, cerrors.Errorf("failed to construct db path: %w", err)
	}

	db, err := sql.Open("sqlite", dbpath)
	if err != nil {
		return nil, cerrors.Errorf("failed to open database: %w", err)
	}
	// SQLite allows a single writer, serialize access instead of retrying on
	// SQLITE_BUSY
	db.SetMaxOpenConns(1)

	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %q (
			key TEXT CHECK(key != '') NOT NULL PRIMARY KEY,
			value BLOB
		)`,
		table,
	)
	if _, err := db.ExecContext(ctx, query); err != nil {
		_ = db.Close()
		return nil, cerrors.Errorf("failed to init database: %w", err)
	}

	return &DB{
		logger: log.New(l.With().Str(log.ComponentField, "sqlite.DB").Logger()),
		db:     db,
		table:  table,
	}, nil
}

// Close closes all open connections.
func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

// Set will store the value under the key. If value is nil we consider that a
// delete.
func (d *DB) Set(ctx context.Context, key string, v []byte) error {
	if v == nil {
		return d.delete(ctx, key)
	}
	return d.upsert(ctx, key, v)
}

func (d *DB) Get(ctx context.Context, key string) ([]byte, error) {
	var v []byte

	query := fmt.Sprintf("SELECT value FROM %q WHERE key = ? LIMIT 1", d.table)
	if err := d.db.QueryRowContext(ctx, query, key).Scan(&v); err != nil {
		if cerrors.Is(err, sql.ErrNoRows) {
			return nil, database.ErrKeyNotExist
		}
		return nil, cerrors.Errorf("failed to get key %q: %w", key, err)
	}
	if v == nil {
		v = []byte{}
	}

	return v, nil
}

func (d *DB) GetKeys(ctx context.Context, prefix string) ([]string, error) {
	query := fmt.Sprintf("SELECT key FROM %q", d.table)
	var args []any
	if prefix != "" {
		// instr is case sensitive and does not interpret pattern characters
		query += " WHERE instr(key, ?) = 1"
		args = append(args, prefix)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, cerrors.Errorf("failed to get keys with prefix %q: %w", prefix, err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, cerrors.Errorf("failed to scan key: %w", err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, cerrors.Errorf("failed to iterate keys: %w", err)
	}
	return keys, nil
}

func (d *DB) upsert(ctx context.Context, key string, v []byte) error {
	query := fmt.Sprintf(`
		INSERT INTO %q (key, value) VALUES (?1, ?2) ON CONFLICT(key)
			DO UPDATE SET value = ?2`,
		d.table,
	)
	res, err := d.db.ExecContext(ctx, query, key, v)
	if err != nil {
		return cerrors.Errorf("failed to set %q: %w", key, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return cerrors.Errorf("failed to retrieve affected rows: %w", err)
	}
	if n != 1 {
		return cerrors.Errorf("unexpected write result: %d", n)
	}

	return nil
}

func (d *DB) delete(ctx context.Context, key string) error {
	query := fmt.Sprintf("DELETE FROM %q WHERE key = ?", d.table)
	res, err := d.db.ExecContext(ctx, query, key)
	if err != nil {
		return cerrors.Errorf("failed to delete %q: %w", key, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return cerrors.Errorf("failed to retrieve affected rows: %w", err)
	}
	if n == 0 {
		d.logger.Trace(ctx).Str("key", key).Msg("zero rows deleted")
	}

	return nil
}

func dburl(path string) (string, error) {
	v := url.Values{}
	v.Add("_pragma", "journal_mode(WAL)")
	v.Add("_pragma", "synchronous(NORMAL)")
	v.Add("_pragma", "busy_timeout(5000)")

	abspath, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(abspath, 0o750); err != nil {
		return "", err
	}

	u := url.URL{
		Scheme:   "file",
		Path:     filepath.Join(abspath, FileName),
		RawQuery: v.Encode(),
	}
	return u.String(), nil
}
