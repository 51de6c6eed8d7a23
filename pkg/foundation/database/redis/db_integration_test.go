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

//go:build integration

package redis

import (
	"context"
	"testing"

	"github.com/conduitio/datastream/pkg/foundation/database"
	"github.com/conduitio/datastream/pkg/foundation/log"
	"github.com/google/uuid"
	"github.com/matryer/is"
)

func TestDB(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()

	db, err := New(ctx, log.Nop(), "redis://localhost:6379/0", "datastream-test-"+uuid.NewString()+":")
	is.NoErr(err)
	t.Cleanup(func() {
		is.NoErr(db.Close())
	})
	database.AcceptanceTest(t, db)
}
