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

package metrics_test

import (
	"testing"
	"time"

	"github.com/conduitio/datastream/pkg/foundation/metrics"
	"github.com/conduitio/datastream/pkg/foundation/metrics/prometheus"
	"github.com/matryer/is"
	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegister_ReplaysMetrics(t *testing.T) {
	is := is.New(t)

	// created before the registry exists
	counter := metrics.NewLabeledCounter("replay_test_total", "test", []string{"kind"})
	timer := metrics.NewTimer("replay_test_seconds", "test")

	reg := prometheus.NewRegistry(nil)
	metrics.Register(reg)

	// created after the registry was registered
	gauge := metrics.NewGauge("replay_test_gauge", "test")

	counter.WithValues("a").Inc(2)
	timer.Update(time.Second)
	gauge.Set(5)

	is.Equal(testutil.CollectAndCount(reg, "replay_test_total"), 1)
	is.Equal(testutil.CollectAndCount(reg, "replay_test_seconds"), 1)

	promRegistry := promclient.NewRegistry()
	is.NoErr(promRegistry.Register(reg))
	families, err := promRegistry.Gather()
	is.NoErr(err)

	got := map[string]float64{}
	for _, f := range families {
		m := f.GetMetric()[0]
		switch {
		case m.GetCounter() != nil:
			got[f.GetName()] = m.GetCounter().GetValue()
		case m.GetGauge() != nil:
			got[f.GetName()] = m.GetGauge().GetValue()
		case m.GetHistogram() != nil:
			got[f.GetName()] = m.GetHistogram().GetSampleSum()
		}
	}
	is.Equal(got["replay_test_total"], 2.0)
	is.Equal(got["replay_test_seconds"], 1.0)
	is.Equal(got["replay_test_gauge"], 5.0)
}
