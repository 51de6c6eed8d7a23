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

// Package prometheus contains an adapter that exposes datastream metrics
// through the prometheus client.
package prometheus

import (
	"sync"
	"time"

	"github.com/conduitio/datastream/pkg/foundation/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// NewRegistry returns a registry that is responsible for managing a collection
// of metrics. Labels are added as constant labels to all metrics created in
// the registry.
func NewRegistry(labels map[string]string) *Registry {
	return &Registry{
		labels: labels,
	}
}

// Registry implements metrics.Registry as well as prometheus.Collector and can
// thus be used as an adapter to deliver datastream metrics to the prometheus
// client.
type Registry struct {
	labels  map[string]string
	mu      sync.Mutex
	metrics []prometheus.Collector
}

var (
	_ metrics.Registry     = (*Registry)(nil)
	_ prometheus.Collector = (*Registry)(nil)
)

func (r *Registry) NewCounter(name, help string, opts ...metrics.Option) metrics.Counter {
	pc := prometheus.NewCounter(r.counterOpts(name, help, opts))
	r.add(pc)
	return counter{pc: pc}
}

func (r *Registry) NewLabeledCounter(name, help string, labels []string, opts ...metrics.Option) metrics.LabeledCounter {
	pc := prometheus.NewCounterVec(r.counterOpts(name, help, opts), labels)
	r.add(pc)
	return labeledCounter{pc: pc}
}

func (r *Registry) NewGauge(name, help string, opts ...metrics.Option) metrics.Gauge {
	pg := prometheus.NewGauge(applyOptions(
		prometheus.GaugeOpts{Name: name, Help: help, ConstLabels: r.labels},
		opts,
		gaugeOption.applyGauge,
	))
	r.add(pg)
	return gauge{pg: pg}
}

func (r *Registry) NewTimer(name, help string, opts ...metrics.Option) metrics.Timer {
	return timer{h: r.NewHistogram(name, help, opts...)}
}

func (r *Registry) NewLabeledTimer(name, help string, labels []string, opts ...metrics.Option) metrics.LabeledTimer {
	ph := prometheus.NewHistogramVec(r.histogramOpts(name, help, opts), labels)
	r.add(ph)
	return labeledTimer{ph: ph}
}

func (r *Registry) NewHistogram(name, help string, opts ...metrics.Option) metrics.Histogram {
	ph := prometheus.NewHistogram(r.histogramOpts(name, help, opts))
	r.add(ph)
	return ph
}

func (r *Registry) counterOpts(name, help string, opts []metrics.Option) prometheus.CounterOpts {
	return applyOptions(
		prometheus.CounterOpts{Name: name, Help: help, ConstLabels: r.labels},
		opts,
		counterOption.applyCounter,
	)
}

func (r *Registry) histogramOpts(name, help string, opts []metrics.Option) prometheus.HistogramOpts {
	return applyOptions(
		prometheus.HistogramOpts{Name: name, Help: help, ConstLabels: r.labels},
		opts,
		histogramOption.applyHistogram,
	)
}

func (r *Registry) Describe(ch chan<- *prometheus.Desc) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, m := range r.metrics {
		m.Describe(ch)
	}
}

func (r *Registry) Collect(ch chan<- prometheus.Metric) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, m := range r.metrics {
		m.Collect(ch)
	}
}

func (r *Registry) add(collector prometheus.Collector) {
	r.mu.Lock()
	r.metrics = append(r.metrics, collector)
	r.mu.Unlock()
}

type counter struct {
	pc prometheus.Counter
}

func (c counter) Inc(vs ...float64) {
	if len(vs) == 0 {
		c.pc.Inc()
		return
	}
	c.pc.Add(sum(vs))
}

type labeledCounter struct {
	pc *prometheus.CounterVec
}

func (lc labeledCounter) WithValues(vs ...string) metrics.Counter {
	return counter{pc: lc.pc.WithLabelValues(vs...)}
}

type gauge struct {
	pg prometheus.Gauge
}

func (g gauge) Inc(vs ...float64) {
	if len(vs) == 0 {
		g.pg.Inc()
		return
	}
	g.pg.Add(sum(vs))
}

func (g gauge) Dec(vs ...float64) {
	if len(vs) == 0 {
		g.pg.Dec()
		return
	}
	g.pg.Sub(sum(vs))
}

func (g gauge) Set(v float64) {
	g.pg.Set(v)
}

type timer struct {
	h metrics.Histogram
}

func (t timer) Update(d time.Duration) {
	t.h.Observe(d.Seconds())
}

func (t timer) UpdateSince(start time.Time) {
	t.Update(time.Since(start))
}

type labeledTimer struct {
	ph *prometheus.HistogramVec
}

func (lt labeledTimer) WithValues(vs ...string) metrics.Timer {
	return timer{h: lt.ph.WithLabelValues(vs...)}
}

func sum(vs []float64) float64 {
	var s float64
	for _, v := range vs {
		s += v
	}
	return s
}
