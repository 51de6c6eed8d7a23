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

// Package metrics defines the metric types used in datastream and a global
// registry that forwards every metric to all registered backends. Metrics can
// be created before a backend is registered, they are created in the backend
// as soon as it is registered.
package metrics

import (
	"sync"
	"time"
)

// Registry is an object that can create and collect metrics.
type Registry interface {
	NewCounter(name, help string, opts ...Option) Counter
	NewGauge(name, help string, opts ...Option) Gauge
	NewTimer(name, help string, opts ...Option) Timer
	NewHistogram(name, help string, opts ...Option) Histogram

	NewLabeledCounter(name, help string, labels []string, opts ...Option) LabeledCounter
	NewLabeledTimer(name, help string, labels []string, opts ...Option) LabeledTimer
}

// Option is an option that can be applied on a metric. Registry implementations
// should only apply options meant for them and ignore the rest.
type Option interface{}

// Counter is a metric that can only increment its current count.
type Counter interface {
	// Inc adds Sum(vs) to the counter. Sum(vs) must be positive.
	//
	// If len(vs) == 0, increments the counter by 1.
	Inc(vs ...float64)
}

// LabeledCounter is a counter that must have labels populated before use.
type LabeledCounter interface {
	WithValues(vs ...string) Counter
}

// Gauge is a metric that allows incrementing and decrementing a value.
type Gauge interface {
	// Inc adds Sum(vs) to the gauge. If len(vs) == 0, increments the gauge by 1.
	Inc(vs ...float64)
	// Dec subtracts Sum(vs) from the gauge. If len(vs) == 0, decrements the
	// gauge by 1.
	Dec(vs ...float64)
	// Set replaces the gauge's current value with the provided value.
	Set(float64)
}

// Timer is a metric that collects durations of an action in seconds.
type Timer interface {
	Update(time.Duration)
	UpdateSince(time.Time)
}

// LabeledTimer is a timer that must have label values populated before use.
type LabeledTimer interface {
	WithValues(labels ...string) Timer
}

// Histogram is a metric that builds a histogram from observed values.
type Histogram interface {
	Observe(float64)
}

var global struct {
	mu         sync.Mutex
	metrics    []metric
	registries []Registry
}

// Register adds a Registry to the global registries. All metrics created
// before or after this call are also created in r. Registries should be
// registered before metrics are used, values recorded before the registration
// are not replayed.
func Register(r Registry) {
	global.mu.Lock()
	defer global.mu.Unlock()

	global.registries = append(global.registries, r)
	for _, mt := range global.metrics {
		mt.New(r)
	}
}

func NewCounter(name, help string, opts ...Option) Counter {
	mt := counter{newFanout(spec{name: name, help: help, opts: opts},
		func(r Registry, s spec) Counter { return r.NewCounter(s.name, s.help, s.opts...) })}
	addMetric(mt)
	return mt
}

func NewGauge(name, help string, opts ...Option) Gauge {
	mt := gauge{newFanout(spec{name: name, help: help, opts: opts},
		func(r Registry, s spec) Gauge { return r.NewGauge(s.name, s.help, s.opts...) })}
	addMetric(mt)
	return mt
}

func NewTimer(name, help string, opts ...Option) Timer {
	mt := timer{newFanout(spec{name: name, help: help, opts: opts},
		func(r Registry, s spec) Timer { return r.NewTimer(s.name, s.help, s.opts...) })}
	addMetric(mt)
	return mt
}

func NewHistogram(name, help string, opts ...Option) Histogram {
	mt := histogram{newFanout(spec{name: name, help: help, opts: opts},
		func(r Registry, s spec) Histogram { return r.NewHistogram(s.name, s.help, s.opts...) })}
	addMetric(mt)
	return mt
}

func NewLabeledCounter(name, help string, labels []string, opts ...Option) LabeledCounter {
	mt := labeledCounter{newFanout(spec{name: name, help: help, labels: labels, opts: opts},
		func(r Registry, s spec) LabeledCounter {
			return r.NewLabeledCounter(s.name, s.help, s.labels, s.opts...)
		})}
	addMetric(mt)
	return mt
}

func NewLabeledTimer(name, help string, labels []string, opts ...Option) LabeledTimer {
	mt := labeledTimer{newFanout(spec{name: name, help: help, labels: labels, opts: opts},
		func(r Registry, s spec) LabeledTimer {
			return r.NewLabeledTimer(s.name, s.help, s.labels, s.opts...)
		})}
	addMetric(mt)
	return mt
}

func addMetric(mt metric) {
	global.mu.Lock()
	defer global.mu.Unlock()

	global.metrics = append(global.metrics, mt)
	for _, r := range global.registries {
		mt.New(r)
	}
}

type metric interface {
	New(Registry)
}

type spec struct {
	name   string
	help   string
	labels []string
	opts   []Option
}

// fanout holds one instance of a metric per registered registry.
type fanout[M any] struct {
	spec
	create  func(Registry, spec) M
	metrics []M
}

func newFanout[M any](s spec, create func(Registry, spec) M) *fanout[M] {
	return &fanout[M]{spec: s, create: create}
}

func (f *fanout[M]) New(r Registry) {
	f.metrics = append(f.metrics, f.create(r, f.spec))
}

func (f *fanout[M]) each(fn func(M)) {
	for _, m := range f.metrics {
		fn(m)
	}
}

// derive builds a fanout whose instances are derived from the instances of f,
// used to resolve label values.
func derive[M, N any](f *fanout[M], fn func(M) N) *fanout[N] {
	out := &fanout[N]{spec: f.spec, metrics: make([]N, 0, len(f.metrics))}
	f.each(func(m M) { out.metrics = append(out.metrics, fn(m)) })
	return out
}

type counter struct{ *fanout[Counter] }

func (mt counter) Inc(vs ...float64) { mt.each(func(m Counter) { m.Inc(vs...) }) }

type labeledCounter struct{ *fanout[LabeledCounter] }

func (mt labeledCounter) WithValues(vs ...string) Counter {
	return counter{derive(mt.fanout, func(m LabeledCounter) Counter { return m.WithValues(vs...) })}
}

type gauge struct{ *fanout[Gauge] }

func (mt gauge) Inc(vs ...float64) { mt.each(func(m Gauge) { m.Inc(vs...) }) }
func (mt gauge) Dec(vs ...float64) { mt.each(func(m Gauge) { m.Dec(vs...) }) }
func (mt gauge) Set(v float64)     { mt.each(func(m Gauge) { m.Set(v) }) }

type timer struct{ *fanout[Timer] }

func (mt timer) Update(d time.Duration)  { mt.each(func(m Timer) { m.Update(d) }) }
func (mt timer) UpdateSince(t time.Time) { mt.each(func(m Timer) { m.UpdateSince(t) }) }

type labeledTimer struct{ *fanout[LabeledTimer] }

func (mt labeledTimer) WithValues(vs ...string) Timer {
	return timer{derive(mt.fanout, func(m LabeledTimer) Timer { return m.WithValues(vs...) })}
}

type histogram struct{ *fanout[Histogram] }

func (mt histogram) Observe(v float64) { mt.each(func(m Histogram) { m.Observe(v) }) }
