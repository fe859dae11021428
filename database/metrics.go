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

package database

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type databaseMetrics struct {
	utxosAdded   prometheus.Counter
	utxosRemoved prometheus.Counter
	lookups      prometheus.Counter
}

func (m *databaseMetrics) init(
	promRegistry prometheus.Registerer,
	plugin string,
) {
	promautoFactory := promauto.With(promRegistry)
	labels := prometheus.Labels{"plugin": plugin}
	m.utxosAdded = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name:        "txbuilder_database_utxos_added_total",
		Help:        "total number of UTxOs written to the database",
		ConstLabels: labels,
	})
	m.utxosRemoved = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name:        "txbuilder_database_utxos_removed_total",
		Help:        "total number of UTxOs removed from the database",
		ConstLabels: labels,
	})
	m.lookups = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name:        "txbuilder_database_address_lookups_total",
		Help:        "total number of UTxO lookups by address",
		ConstLabels: labels,
	})
}
