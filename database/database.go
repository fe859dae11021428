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

// Package database provides the local cache of wallet UTxOs used as a
// source of candidate inputs
package database

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	lcommon "github.com/blinklabs-io/gouroboros/ledger/common"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/blinklabs-io/txbuilder/assembler"
	"github.com/blinklabs-io/txbuilder/database/badger"
	"github.com/blinklabs-io/txbuilder/database/sqlite"
	"github.com/blinklabs-io/txbuilder/database/types"
	"github.com/blinklabs-io/txbuilder/ledger"
)

const (
	PluginBadger = "badger"
	PluginSqlite = "sqlite"

	DefaultPlugin = PluginBadger
)

type Database struct {
	logger  *slog.Logger
	store   types.UtxoStore
	metrics databaseMetrics
	plugin  string
	dataDir string
}

// New opens a UTxO store using the named plugin, with optional persistence
// in the provided data directory
func New(
	plugin string,
	dataDir string,
	logger *slog.Logger,
	promRegistry prometheus.Registerer,
) (*Database, error) {
	if logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if plugin == "" {
		plugin = DefaultPlugin
	}
	var store types.UtxoStore
	var err error
	switch plugin {
	case PluginBadger:
		store, err = badger.New(
			badger.WithDataDir(dataDir),
			badger.WithLogger(logger),
		)
	case PluginSqlite:
		store, err = sqlite.New(dataDir, logger)
	default:
		return nil, fmt.Errorf("unknown database plugin: %s", plugin)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", plugin, err)
	}
	d := &Database{
		logger:  logger,
		store:   store,
		plugin:  plugin,
		dataDir: dataDir,
	}
	d.metrics.init(promRegistry, plugin)
	d.logger.Debug(
		"opened UTxO database",
		"component", "database",
		"plugin", plugin,
		"data_dir", dataDir,
	)
	return d, nil
}

// Plugin returns the name of the storage plugin in use
func (d *Database) Plugin() string {
	return d.plugin
}

// DataDir returns the path to the data directory used for storage
func (d *Database) DataDir() string {
	return d.dataDir
}

// Store returns the underlying storage plugin
func (d *Database) Store() types.UtxoStore {
	return d.store
}

func (d *Database) AddUtxos(ctx context.Context, utxos []ledger.Utxo) error {
	if err := d.store.AddUtxos(ctx, utxos); err != nil {
		return err
	}
	d.metrics.utxosAdded.Add(float64(len(utxos)))
	return nil
}

func (d *Database) RemoveUtxos(
	ctx context.Context,
	inputs []ledger.TxInput,
) error {
	if err := d.store.RemoveUtxos(ctx, inputs); err != nil {
		return err
	}
	d.metrics.utxosRemoved.Add(float64(len(inputs)))
	return nil
}

// UtxosByAddress returns the cached UTxOs held at the address
func (d *Database) UtxosByAddress(
	ctx context.Context,
	address lcommon.Address,
) ([]ledger.Utxo, error) {
	d.metrics.lookups.Inc()
	return d.store.UtxosByAddress(ctx, address)
}

func (d *Database) Utxo(
	ctx context.Context,
	input ledger.TxInput,
) (ledger.Utxo, error) {
	return d.store.Utxo(ctx, input)
}

// ApplyTransaction marks the inputs of a built transaction as spent and
// caches its change outputs, so that a following build does not pick the
// same inputs before the chain catches up. Both happen in one store
// transaction
func (d *Database) ApplyTransaction(
	ctx context.Context,
	tx *assembler.Transaction,
) error {
	inputs := tx.Inputs()
	spent := make([]ledger.TxInput, 0, len(inputs))
	for _, input := range inputs {
		spent = append(spent, input.Input)
	}
	// Change outputs follow the requested outputs in the body
	firstChangeIdx := len(tx.Outputs())
	changeOutputs := tx.ChangeOutputs()
	created := make([]ledger.Utxo, 0, len(changeOutputs))
	for idx, output := range changeOutputs {
		created = append(created, ledger.Utxo{
			Input: ledger.TxInput{
				TxId: tx.Hash(),
				// #nosec G115
				Index: uint32(firstChangeIdx + idx),
			},
			Address: output.Address,
			Amount:  output.Amount,
		})
	}
	if err := d.store.ReplaceUtxos(ctx, spent, created); err != nil {
		return fmt.Errorf("apply transaction %s: %w", tx.Hash().String(), err)
	}
	d.metrics.utxosRemoved.Add(float64(len(spent)))
	d.metrics.utxosAdded.Add(float64(len(created)))
	d.logger.Debug(
		"applied transaction to UTxO database",
		"component", "database",
		"hash", tx.Hash().String(),
		"spent", len(spent),
		"created", len(created),
	)
	return nil
}

// Close closes the underlying store
func (d *Database) Close() error {
	return d.store.Close()
}
