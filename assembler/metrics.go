// Copyright 2026 Blink Labs Software
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

package assembler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	failureReasonInsufficientFunds = "insufficient_funds"
	failureReasonTooLarge          = "too_large"
	failureReasonOther             = "other"
)

type assemblerMetrics struct {
	buildsTotal    prometheus.Counter
	buildFailures  *prometheus.CounterVec
	inputsSelected prometheus.Histogram
	changeOutputs  prometheus.Histogram
	txSize         prometheus.Histogram
	fee            prometheus.Histogram
}

func (m *assemblerMetrics) init(promRegistry prometheus.Registerer) {
	promautoFactory := promauto.With(promRegistry)
	m.buildsTotal = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "txbuilder_builds_total",
		Help: "total number of transactions built",
	})
	m.buildFailures = promautoFactory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "txbuilder_build_failures_total",
			Help: "total number of failed transaction builds by reason",
		},
		[]string{"reason"},
	)
	m.inputsSelected = promautoFactory.NewHistogram(prometheus.HistogramOpts{
		Name:    "txbuilder_inputs_selected",
		Help:    "number of inputs selected per transaction",
		Buckets: prometheus.ExponentialBuckets(1, 2, 8),
	})
	m.changeOutputs = promautoFactory.NewHistogram(prometheus.HistogramOpts{
		Name:    "txbuilder_change_outputs",
		Help:    "number of change outputs per transaction",
		Buckets: prometheus.LinearBuckets(0, 1, 8),
	})
	m.txSize = promautoFactory.NewHistogram(prometheus.HistogramOpts{
		Name:    "txbuilder_tx_size_bytes",
		Help:    "size of built transactions including vkey witnesses",
		Buckets: prometheus.ExponentialBuckets(256, 2, 8),
	})
	m.fee = promautoFactory.NewHistogram(prometheus.HistogramOpts{
		Name:    "txbuilder_tx_fee_lovelace",
		Help:    "fee of built transactions",
		Buckets: prometheus.ExponentialBuckets(150000, 1.5, 10),
	})
}
