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

package executor

import (
	"context"
	"strings"
	"time"

	"github.com/conduitio/datastream/pkg/foundation/cerrors"
	"github.com/conduitio/datastream/pkg/foundation/database"
	"github.com/goccy/go-json"
)

const (
	// keyPrefix is the prefix of all keys written by Backend.
	keyPrefix = "datastream:job:"
)

// State describes where a job is in its lifecycle.
type State string

const (
	StatePending   State = "pending"
	StateRunning   State = "running"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
)

// Done returns true if the job reached a final state.
func (s State) Done() bool {
	return s == StateSucceeded || s == StateFailed
}

// Record is the persisted state of a job.
type Record struct {
	ID          string          `json:"id"`
	State       State           `json:"state"`
	Result      json.RawMessage `json:"result,omitempty"`
	Error       string          `json:"error,omitempty"`
	SubmittedAt time.Time       `json:"submittedAt"`
	FinishedAt  time.Time       `json:"finishedAt"`
}

// Backend stores job records in a database.DB. Any process sharing the
// database can look up the outcome of a job by its ID.
type Backend struct {
	db database.DB
}

// NewBackend returns a Backend that stores records in db.
func NewBackend(db database.DB) *Backend {
	return &Backend{db: db}
}

// Store persists the record, replacing any previous record with the same ID.
func (b *Backend) Store(ctx context.Context, r Record) error {
	raw, err := json.Marshal(r)
	if err != nil {
		return cerrors.Errorf("could not encode job record %q: %w", r.ID, err)
	}
	if err := b.db.Set(ctx, keyPrefix+r.ID, raw); err != nil {
		return cerrors.Errorf("could not store job record %q: %w", r.ID, err)
	}
	return nil
}

// Load returns the record of job id. If the job is unknown the returned error
// wraps database.ErrKeyNotExist.
func (b *Backend) Load(ctx context.Context, id string) (Record, error) {
	raw, err := b.db.Get(ctx, keyPrefix+id)
	if err != nil {
		return Record{}, cerrors.Errorf("could not load job record %q: %w", id, err)
	}
	var r Record
	if err := json.Unmarshal(raw, &r); err != nil {
		return Record{}, cerrors.Errorf("could not decode job record %q: %w", id, err)
	}
	return r, nil
}

// Forget removes the record of job id.
func (b *Backend) Forget(ctx context.Context, id string) error {
	if err := b.db.Set(ctx, keyPrefix+id, nil); err != nil {
		return cerrors.Errorf("could not remove job record %q: %w", id, err)
	}
	return nil
}

// IDs returns the IDs of all jobs with a stored record.
func (b *Backend) IDs(ctx context.Context) ([]string, error) {
	keys, err := b.db.GetKeys(ctx, keyPrefix)
	if err != nil {
		return nil, cerrors.Errorf("could not list job records: %w", err)
	}
	ids := make([]string, len(keys))
	for i, k := range keys {
		ids[i] = strings.TrimPrefix(k, keyPrefix)
	}
	return ids, nil
}
