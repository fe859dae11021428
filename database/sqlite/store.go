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

// Package sqlite implements the UTxO store on top of SQLite through gorm
package sqlite

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	lcommon "github.com/blinklabs-io/gouroboros/ledger/common"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/blinklabs-io/txbuilder/database/types"
	"github.com/blinklabs-io/txbuilder/ledger"
)

// UtxoStoreSqlite keeps UTxOs in SQLite
type UtxoStoreSqlite struct {
	db      *gorm.DB
	logger  *slog.Logger
	dataDir string
}

// New creates a SQLite UTxO store. Uses an in-memory database if dataDir is
// empty
func New(dataDir string, logger *slog.Logger) (*UtxoStoreSqlite, error) {
	if logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	gormConfig := &gorm.Config{
		Logger:                 gormlogger.Discard,
		SkipDefaultTransaction: true,
	}
	var dsn string
	if dataDir == "" {
		dsn = ":memory:"
	} else {
		// Make sure that we can read data dir, and create if it doesn't exist
		if _, err := os.Stat(dataDir); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("failed to read data dir: %w", err)
			}
			if err := os.MkdirAll(dataDir, fs.ModePerm); err != nil {
				return nil, fmt.Errorf("failed to create data dir: %w", err)
			}
		}
		// WAL journal mode, disable sync on write
		dsn = fmt.Sprintf(
			"file:%s?_pragma=journal_mode(WAL)&_pragma=sync(OFF)",
			filepath.Join(dataDir, "utxo.sqlite"),
		)
	}
	db, err := gorm.Open(sqlite.Open(dsn), gormConfig)
	if err != nil {
		return nil, err
	}
	if dataDir == "" {
		// Every connection to :memory: gets its own database
		sqlDb, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDb.SetMaxOpenConns(1)
	}
	s := &UtxoStoreSqlite{
		db:      db,
		logger:  logger,
		dataDir: dataDir,
	}
	// Configure tracing for GORM
	if err := s.db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
		return nil, errors.Join(err, s.Close())
	}
	for _, model := range MigrateModels {
		s.logger.Debug(
			fmt.Sprintf("creating table: %T", model),
			"component", "database",
		)
		if err := s.db.AutoMigrate(model); err != nil {
			return nil, errors.Join(err, s.Close())
		}
	}
	return s, nil
}

// DB returns the database handle
func (s *UtxoStoreSqlite) DB() *gorm.DB {
	return s.db
}

// Close closes the underlying database connections
func (s *UtxoStoreSqlite) Close() error {
	sqlDb, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDb.Close()
}

func utxoToModel(utxo ledger.Utxo) (Utxo, error) {
	addrBytes, err := utxo.Address.Bytes()
	if err != nil {
		return Utxo{}, err
	}
	outputCbor, err := utxo.Cbor()
	if err != nil {
		return Utxo{}, err
	}
	paymentKey := utxo.Address.PaymentKeyHash()
	return Utxo{
		TxId:       utxo.Input.TxId.Bytes(),
		OutputIdx:  utxo.Input.Index,
		Address:    addrBytes,
		PaymentKey: paymentKey.Bytes(),
		Amount:     types.Uint64(utxo.Amount.Coin()),
		Cbor:       outputCbor,
	}, nil
}

func (u *Utxo) toLedger() (ledger.Utxo, error) {
	if len(u.TxId) != lcommon.Blake2b256Size {
		return ledger.Utxo{}, fmt.Errorf("malformed tx id: %x", u.TxId)
	}
	return ledger.NewUtxoFromCbor(
		ledger.TxInput{
			TxId:  lcommon.NewBlake2b256(u.TxId),
			Index: u.OutputIdx,
		},
		u.Cbor,
	)
}

func (s *UtxoStoreSqlite) AddUtxos(
	ctx context.Context,
	utxos []ledger.Utxo,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return addUtxos(s.db.WithContext(ctx), utxos)
}

func (s *UtxoStoreSqlite) RemoveUtxos(
	ctx context.Context,
	inputs []ledger.TxInput,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(txn *gorm.DB) error {
		return removeUtxos(txn, inputs)
	})
}

func (s *UtxoStoreSqlite) ReplaceUtxos(
	ctx context.Context,
	spent []ledger.TxInput,
	created []ledger.Utxo,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(txn *gorm.DB) error {
		if err := removeUtxos(txn, spent); err != nil {
			return err
		}
		return addUtxos(txn, created)
	})
}

func addUtxos(db *gorm.DB, utxos []ledger.Utxo) error {
	if len(utxos) == 0 {
		return nil
	}
	tmpUtxos := make([]Utxo, 0, len(utxos))
	for _, utxo := range utxos {
		tmpUtxo, err := utxoToModel(utxo)
		if err != nil {
			return fmt.Errorf("utxo %s: %w", utxo.Input, err)
		}
		tmpUtxos = append(tmpUtxos, tmpUtxo)
	}
	result := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "tx_id"}, {Name: "output_idx"}},
		DoUpdates: clause.AssignmentColumns(
			[]string{"address", "payment_key", "amount", "cbor"},
		),
	}).
		Create(&tmpUtxos)
	return result.Error
}

func removeUtxos(txn *gorm.DB, inputs []ledger.TxInput) error {
	for _, input := range inputs {
		result := txn.Where(
			"tx_id = ? AND output_idx = ?",
			input.TxId.Bytes(),
			input.Index,
		).Delete(&Utxo{})
		if result.Error != nil {
			return result.Error
		}
	}
	return nil
}

// UtxosByAddress returns the UTxOs held at the address ordered by input
func (s *UtxoStoreSqlite) UtxosByAddress(
	ctx context.Context,
	address lcommon.Address,
) ([]ledger.Utxo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	addrBytes, err := address.Bytes()
	if err != nil {
		return nil, err
	}
	var tmpUtxos []Utxo
	result := s.db.WithContext(ctx).
		Where("address = ?", addrBytes).
		Order("tx_id, output_idx").
		Find(&tmpUtxos)
	if result.Error != nil {
		return nil, result.Error
	}
	ret := make([]ledger.Utxo, 0, len(tmpUtxos))
	for i := range tmpUtxos {
		utxo, err := tmpUtxos[i].toLedger()
		if err != nil {
			return nil, err
		}
		ret = append(ret, utxo)
	}
	return ret, nil
}

func (s *UtxoStoreSqlite) Utxo(
	ctx context.Context,
	input ledger.TxInput,
) (ledger.Utxo, error) {
	if err := ctx.Err(); err != nil {
		return ledger.Utxo{}, err
	}
	var tmpUtxo Utxo
	result := s.db.WithContext(ctx).
		First(&tmpUtxo, "tx_id = ? AND output_idx = ?", input.TxId.Bytes(), input.Index)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return ledger.Utxo{}, types.ErrUtxoNotFound
		}
		return ledger.Utxo{}, result.Error
	}
	return tmpUtxo.toLedger()
}
