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

package database

import (
	"bytes"
	"context"
	"fmt"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/conduitio/datastream/pkg/foundation/cerrors"
	"github.com/conduitio/datastream/pkg/foundation/csync"
	"github.com/google/uuid"
	"github.com/matryer/is"
)

// AcceptanceTest is the acceptance test that all implementations of DB should
// pass. It should manually be called from a test case in each implementation:
//
//	func TestDB(t *testing.T) {
//	    db = NewDB()
//	    database.AcceptanceTest(t, db)
//	}
func AcceptanceTest(t *testing.T, db DB) {
	testPing(t, db)
	testSetGet(t, db)
	testUpdate(t, db)
	testDelete(t, db)
	testEmptyValue(t, db)
	testGetKeys(t, db)
	testConcurrency(t, db)
}

func testPing(t *testing.T, db DB) {
	t.Run(testName(), func(t *testing.T) {
		is := is.New(t)
		is.NoErr(db.Ping(context.Background()))
	})
}

func testSetGet(t *testing.T, db DB) {
	t.Run(testName(), func(t *testing.T) {
		is := is.New(t)
		ctx := context.Background()

		key := "set-get-key"
		want := []byte(uuid.NewString())
		is.NoErr(db.Set(ctx, key, want))
		t.Cleanup(func() { _ = db.Set(ctx, key, nil) })

		got, err := db.Get(ctx, key)
		is.NoErr(err)
		is.Equal(want, got)
	})
}

func testUpdate(t *testing.T, db DB) {
	t.Run(testName(), func(t *testing.T) {
		is := is.New(t)
		ctx := context.Background()

		key := "update-key"
		want := []byte(uuid.NewString())
		is.NoErr(db.Set(ctx, key, []byte("do not want this")))
		is.NoErr(db.Set(ctx, key, want))
		t.Cleanup(func() { _ = db.Set(ctx, key, nil) })

		got, err := db.Get(ctx, key)
		is.NoErr(err)
		is.Equal(want, got)
	})
}

func testDelete(t *testing.T, db DB) {
	t.Run(testName(), func(t *testing.T) {
		is := is.New(t)
		ctx := context.Background()

		key := "delete-key"
		is.NoErr(db.Set(ctx, key, []byte(uuid.NewString())))
		is.NoErr(db.Set(ctx, key, nil))

		got, err := db.Get(ctx, key)
		is.True(got == nil)
		is.True(cerrors.Is(err, ErrKeyNotExist)) // expected error for non-existing key

		// deleting a missing key is not an error
		is.NoErr(db.Set(ctx, "missing-key", nil))
	})
}

func testEmptyValue(t *testing.T, db DB) {
	t.Run(testName(), func(t *testing.T) {
		is := is.New(t)
		ctx := context.Background()

		key := "empty-key"
		is.NoErr(db.Set(ctx, key, []byte{}))
		t.Cleanup(func() { _ = db.Set(ctx, key, nil) })

		got, err := db.Get(ctx, key)
		is.NoErr(err)
		is.Equal(len(got), 0)
	})
}

func testGetKeys(t *testing.T, db DB) {
	const valuesSize = 100
	t.Run(testName(), func(t *testing.T) {
		is := is.New(t)
		ctx := context.Background()

		keyPrefix := "key"
		var wantKeys []string
		for i := 0; i < valuesSize; i++ {
			key := fmt.Sprintf("key%02d", i)
			wantKeys = append(wantKeys, key)
			is.NoErr(db.Set(ctx, key, []byte(strconv.Itoa(i))))
		}
		is.NoErr(db.Set(ctx, "different prefix", []byte("should not be returned")))
		t.Cleanup(func() {
			for _, k := range append(wantKeys, "different prefix") {
				_ = db.Set(ctx, k, nil)
			}
		})

		t.Run("withKeyPrefix", func(t *testing.T) {
			is := is.New(t)
			gotKeys, err := db.GetKeys(ctx, keyPrefix)
			is.NoErr(err)
			is.Equal(len(gotKeys), valuesSize)

			sort.Strings(gotKeys)
			is.Equal(wantKeys, gotKeys)
		})

		t.Run("emptyKeyPrefix", func(t *testing.T) {
			is := is.New(t)
			gotKeys, err := db.GetKeys(ctx, "")
			is.NoErr(err)
			is.Equal(len(gotKeys), valuesSize+1)

			sort.Strings(gotKeys)
			is.Equal(append([]string{"different prefix"}, wantKeys...), gotKeys)
		})

		t.Run("nonExistingPrefix", func(t *testing.T) {
			is := is.New(t)
			gotKeys, err := db.GetKeys(ctx, "non-existing-prefix")
			is.NoErr(err)
			is.Equal(len(gotKeys), 0)
		})

		t.Run("patternCharacters", func(t *testing.T) {
			is := is.New(t)
			gotKeys, err := db.GetKeys(ctx, "k_y%")
			is.NoErr(err)
			is.Equal(len(gotKeys), 0)
		})
	})
}

func testConcurrency(t *testing.T, db DB) {
	const (
		workers = 20
		loops   = 50
	)

	t.Run(testName(), func(t *testing.T) {
		ctx := context.Background()
		is := is.New(t)

		iterationFn := func(ctx context.Context, workerID, iteration int) error {
			key := fmt.Sprintf("concurrency-%d-%d", workerID, iteration)
			val := []byte(fmt.Sprintf("value-%d-%d", workerID, iteration))
			_, err := db.Get(ctx, key)
			if !cerrors.Is(err, ErrKeyNotExist) {
				return cerrors.Errorf("expected error when getting value for key %q, got: %w", key, err)
			}
			if err := db.Set(ctx, key, val); err != nil {
				return cerrors.Errorf("expected no error when setting value for key %q, got: %w", key, err)
			}
			got, err := db.Get(ctx, key)
			if err != nil {
				return cerrors.Errorf("expected no error when getting value for key %q, got: %w", key, err)
			}
			if !bytes.Equal(val, got) {
				return cerrors.Errorf("expected value %q for key %q, got: %q", string(val), key, string(got))
			}
			return db.Set(ctx, key, nil)
		}

		var wg csync.WaitGroup
		wg.Add(workers)
		errs := make([]error, workers)

		for i := range workers {
			go func(i int) {
				defer wg.Done()
				for j := range loops {
					if err := iterationFn(ctx, i, j); err != nil {
						errs[i] = err
						return
					}
				}
			}(i)
		}
		is.NoErr(wg.WaitTimeout(ctx, time.Second*30))
		is.NoErr(cerrors.Join(errs...))
	})
}

// testName returns the name of the acceptance test (function name).
func testName() string {
	//nolint:dogsled // not important in tests
	pc, _, _, _ := runtime.Caller(1)
	caller := runtime.FuncForPC(pc).Name()
	return caller[strings.LastIndex(caller, ".")+1:]
}
