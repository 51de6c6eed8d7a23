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

package datastream

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/conduitio/conduit-commons/config"
	"github.com/conduitio/datastream/pkg/foundation/cerrors"
	"github.com/conduitio/datastream/pkg/foundation/database/inmemory"
	"github.com/conduitio/datastream/pkg/funnel"
	"github.com/matryer/is"
	dto "github.com/prometheus/client_model/go"
)

func newTestRuntime(t *testing.T, async bool, opts ...func(*Config)) (*Runtime, *inmemory.DB) {
	t.Helper()
	is := is.New(t)

	db := &inmemory.DB{}
	cfg := DefaultConfig()
	cfg.Log.Level = "error"
	cfg.Backend.Driver = db
	cfg.Executor.Workers = 2
	cfg.Pipeline.Async = async
	cfg.Pipeline.BatchSize = 4
	cfg.Pipeline.Path = writeTestFile(t, "pipeline.yaml", "version: 1.0\n")
	for _, opt := range opts {
		opt(&cfg)
	}

	r, err := NewRuntime(context.Background(), cfg)
	is.NoErr(err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		is.NoErr(r.Close(ctx))
	})
	return r, db
}

// testDefinition reads 10 users, every third one has no email and fails. Users
// are stored in the runtime DB.
func testDefinition(t *testing.T) funnel.Definition {
	var sb strings.Builder
	for i := 1; i <= 10; i++ {
		if i%3 == 0 {
			fmt.Fprintf(&sb, "{\"id\":\"u%d\"}\n", i)
			continue
		}
		fmt.Fprintf(&sb, "{\"id\":\"u%d\",\"email\":\"u%d@example.com\"}\n", i, i)
	}
	path := writeTestFile(t, "users.jsonl", sb.String())

	return funnel.Definition{
		ID: "users",
		Readers: []funnel.Descriptor{
			{Type: "jsonl", Settings: config.Config{"path": path}},
		},
		Transformers: []funnel.Descriptor{
			{Type: "require", Settings: config.Config{"fields": "email"}},
		},
		Writers: []funnel.Descriptor{
			{Type: "kv", Settings: config.Config{"key": "id", "prefix": "user:"}},
		},
	}
}

func TestRuntime_Run(t *testing.T) {
	for _, async := range []bool{true, false} {
		t.Run(fmt.Sprintf("async=%v", async), func(t *testing.T) {
			is := is.New(t)
			ctx := context.Background()
			r, db := newTestRuntime(t, async)

			reports, err := r.Run(ctx, []funnel.Definition{testDefinition(t)})
			is.NoErr(err)
			is.Equal(len(reports), 1)

			rep := reports[0]
			is.NoErr(rep.Err)
			is.Equal(rep.Pipeline, "users")
			is.Equal(rep.Result.OkCount, 7)
			is.Equal(rep.Result.FailedCount, 3)
			is.Equal(rep.Result.SkippedCount, 0)
			is.True(!rep.Result.Incomplete())

			keys, err := db.GetKeys(ctx, "user:")
			is.NoErr(err)
			is.Equal(len(keys), 7)

			if async {
				// aggregated batch results are removed from the backend
				ids, err := r.Backend.IDs(ctx)
				is.NoErr(err)
				is.Equal(len(ids), 0)
			}
		})
	}
}

func TestRuntime_Run_KeepResults(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()
	r, _ := newTestRuntime(t, true, func(cfg *Config) {
		cfg.Executor.KeepResults = true
	})

	reports, err := r.Run(ctx, []funnel.Definition{testDefinition(t)})
	is.NoErr(err)
	is.NoErr(reports[0].Err)

	// 10 entries in batches of 4
	ids, err := r.Backend.IDs(ctx)
	is.NoErr(err)
	is.Equal(len(ids), 3)
}

func TestRuntime_Run_ReaderError(t *testing.T) {
	is := is.New(t)
	r, _ := newTestRuntime(t, true)

	def := testDefinition(t)
	def.Readers = append(def.Readers, funnel.Descriptor{
		Type:     "jsonl",
		Settings: config.Config{"path": filepath.Join(t.TempDir(), "missing.jsonl")},
	})

	reports, err := r.Run(context.Background(), []funnel.Definition{def})
	is.NoErr(err)
	is.Equal(len(reports), 1)
	is.True(reports[0].Err != nil)
	// entries of the first reader are still processed
	is.Equal(reports[0].Result.OkCount, 7)
}

func TestRuntime_Run_UnknownComponent(t *testing.T) {
	is := is.New(t)
	r, _ := newTestRuntime(t, false)

	def := testDefinition(t)
	def.Writers = []funnel.Descriptor{{Type: "carrier-pigeon"}}

	reports, err := r.Run(context.Background(), []funnel.Definition{def})
	is.NoErr(err)
	is.True(reports[0].Err != nil)
	is.True(reports[0].Result.Incomplete())
	is.Equal(reports[0].Result.LostEntries, 10)
}

func TestRuntime_Run_Canceled(t *testing.T) {
	is := is.New(t)
	r, _ := newTestRuntime(t, true)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Run(ctx, []funnel.Definition{testDefinition(t)})
	is.True(cerrors.Is(err, context.Canceled))
}

func TestRuntime_Metrics(t *testing.T) {
	is := is.New(t)
	r, _ := newTestRuntime(t, true)
	r.Config.Metrics.Address = "127.0.0.1:0"

	_, err := r.Run(context.Background(), []funnel.Definition{testDefinition(t)})
	is.NoErr(err)
	is.True(r.MetricsAddr() != nil)

	mfs, err := r.promRegistry.Gather()
	is.NoErr(err)

	entries := findFamily(mfs, "datastream_entries_total")
	is.True(entries != nil)
	got := make(map[string]float64)
	for _, m := range entries.GetMetric() {
		got[labelValue(m, "outcome")] = m.GetCounter().GetValue()
	}
	is.Equal(got["ok"], float64(7))
	is.Equal(got["failed"], float64(3))

	dispatched := findFamily(mfs, "datastream_batches_dispatched_total")
	is.True(dispatched != nil)
	is.Equal(dispatched.GetMetric()[0].GetCounter().GetValue(), float64(3))
}

func findFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func labelValue(m *dto.Metric, name string) string {
	for _, l := range m.GetLabel() {
		if l.GetName() == name {
			return l.GetValue()
		}
	}
	return ""
}

func TestVersion(t *testing.T) {
	is := is.New(t)
	v := Version(true)
	is.True(strings.Contains(v, "/"))
	is.True(!strings.HasPrefix(v, " "))
}
