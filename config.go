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


package txbuilder

import (
	"context"
	"io"
	"log/slog"

	lcommon "github.com/blinklabs-io/gouroboros/ledger/common"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/blinklabs-io/txbuilder/ledger"
	"github.com/blinklabs-io/txbuilder/pparams"
	"github.com/blinklabs-io/txbuilder/selection"
)

// UtxoSource provides the UTxOs held at an address. Both the local
// database and the UTxO RPC client implement it
type UtxoSource interface {
	UtxosByAddress(ctx context.Context, address lcommon.Address) ([]ledger.Utxo, error)
}

type Config struct {
	logger             *slog.Logger
	promRegistry       prometheus.Registerer
	utxoSource         UtxoSource
	params             *pparams.ProtocolParameters
	strategy           selection.Strategy
	newRandom          func() selection.RandomSource
	baseSelectionLimit int
	tracing            bool
	tracingStdout      bool
	closeFuncs         []func() error
}

// ConfigOptionFunc is a type that represents functions that modify the txbuilder config
type ConfigOptionFunc func(*Config)

// NewConfig creates a new txbuilder config with the specified options
func NewConfig(opts ...ConfigOptionFunc) Config {
	c := Config{
		// Default logger will throw away logs
		// We do this so we don't have to add guards around every log operation
		logger: slog.New(slog.NewJSONHandler(io.Discard, nil)),
		params: pparams.Mainnet(),
	}
	// Apply options
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// WithLogger specifies the logger to use
func WithLogger(logger *slog.Logger) ConfigOptionFunc {
	return func(c *Config) {
		c.logger = logger
	}
}

// WithPromRegistry specifies a prometheus.Registerer instance to add metrics to. Metrics are not registered when
// no registry is given
func WithPromRegistry(registry prometheus.Registerer) ConfigOptionFunc {
	return func(c *Config) {
		c.promRegistry = registry
	}
}

// WithUtxoSource specifies where the UTxOs for the source addresses come from
func WithUtxoSource(source UtxoSource) ConfigOptionFunc {
	return func(c *Config) {
		c.utxoSource = source
	}
}

// WithProtocolParameters specifies the protocol parameters used for fees, min-ADA and size limits. The default is
// the current mainnet values
func WithProtocolParameters(params *pparams.ProtocolParameters) ConfigOptionFunc {
	return func(c *Config) {
		c.params = params
	}
}

// WithStrategy specifies the input selection strategy. The default is random-improve
func WithStrategy(strategy selection.Strategy) ConfigOptionFunc {
	return func(c *Config) {
		c.strategy = strategy
	}
}

// WithRandomSource specifies how the random source for each build is created
func WithRandomSource(newRandom func() selection.RandomSource) ConfigOptionFunc {
	return func(c *Config) {
		c.newRandom = newRandom
	}
}

// WithRandomSeed makes every build use a source seeded with the same value, so that identical requests select
// identical inputs
func WithRandomSeed(seed uint64) ConfigOptionFunc {
	return func(c *Config) {
		c.newRandom = func() selection.RandomSource {
			return selection.NewSeededRandom(seed)
		}
	}
}

// WithBaseSelectionLimit specifies the selection attempt budget before the per-asset allowance is added
func WithBaseSelectionLimit(limit int) ConfigOptionFunc {
	return func(c *Config) {
		c.baseSelectionLimit = limit
	}
}

// WithTracing enables tracing. By default, spans are submitted to a HTTP(s) endpoint using OTLP. This can be configured
// using the OTEL_EXPORTER_OTLP_* env vars documented in the README for [go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp]
func WithTracing(tracing bool) ConfigOptionFunc {
	return func(c *Config) {
		c.tracing = tracing
	}
}

// WithTracingStdout enables tracing output to stdout. This also requires tracing to enabled separately. This is mostly useful for debugging
func WithTracingStdout(stdout bool) ConfigOptionFunc {
	return func(c *Config) {
		c.tracingStdout = stdout
	}
}

// withCloseFunc registers a cleanup for a resource the TxBuilder owns
func withCloseFunc(closeFunc func() error) ConfigOptionFunc {
	return func(c *Config) {
		c.closeFuncs = append(c.closeFuncs, closeFunc)
	}
}
