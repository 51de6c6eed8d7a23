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

package prometheus

import "github.com/prometheus/client_golang/prometheus"

type option interface {
	prometheusOption()
}

type counterOption interface {
	option
	applyCounter(prometheus.CounterOpts) prometheus.CounterOpts
}

type gaugeOption interface {
	option
	applyGauge(prometheus.GaugeOpts) prometheus.GaugeOpts
}

type histogramOption interface {
	option
	applyHistogram(prometheus.HistogramOpts) prometheus.HistogramOpts
}

// HistogramOpts overrides the buckets of histograms and timers.
type HistogramOpts struct {
	Buckets []float64
}

func (o HistogramOpts) prometheusOption() {}
func (o HistogramOpts) applyHistogram(opts prometheus.HistogramOpts) prometheus.HistogramOpts {
	if o.Buckets != nil {
		opts.Buckets = o.Buckets
	}
	return opts
}

// Namespace sets the namespace of any metric it is applied to.
type Namespace string

func (o Namespace) prometheusOption() {}
func (o Namespace) applyCounter(opts prometheus.CounterOpts) prometheus.CounterOpts {
	opts.Namespace = string(o)
	return opts
}

func (o Namespace) applyGauge(opts prometheus.GaugeOpts) prometheus.GaugeOpts {
	opts.Namespace = string(o)
	return opts
}

func (o Namespace) applyHistogram(opts prometheus.HistogramOpts) prometheus.HistogramOpts {
	opts.Namespace = string(o)
	return opts
}

// applyOptions applies all options that implement the option interface O
// using apply, other options are skipped.
func applyOptions[T, O, M any](opts T, metricsOpts []M, apply func(O, T) T) T {
	for _, mopt := range metricsOpts {
		if opt, ok := any(mopt).(O); ok {
			opts = apply(opt, opts)
		}
	}
	return opts
}
