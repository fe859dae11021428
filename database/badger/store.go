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

// Package badger implements the UTxO store on top of badger
package badger

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	lcommon "github.com/blinklabs-io/gouroboros/ledger/common"
	badger "github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"

	"github.com/blinklabs-io/txbuilder/database/types"
	"github.com/blinklabs-io/txbuilder/ledger"
)

const gcInterval = 5 * time.Minute

// UtxoStoreBadger keeps UTxOs in badger. Without a data dir nothing is
// persisted
type UtxoStoreBadger struct {
	db             *badger.DB
	logger         *slog.Logger
	gcTicker       *time.Ticker
	gcStopCh       chan struct{}
	dataDir        string
	gcWg           sync.WaitGroup
	blockCacheSize uint64
	indexCacheSize uint64
	gcEnabled      bool
}

// New creates a new UTxO store
func New(opts ...UtxoStoreBadgerOptionFunc) (*UtxoStoreBadger, error) {
	s := &UtxoStoreBadger{
		// Set defaults
		gcEnabled:      true,
		blockCacheSize: DefaultBlockCacheSize,
		indexCacheSize: DefaultIndexCacheSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		s.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	var badgerOpts badger.Options
	if s.dataDir == "" {
		badgerOpts = badger.DefaultOptions("").
			WithLogger(newBadgerLogger(s.logger)).
			// The default INFO logging is a bit verbose
			WithLoggingLevel(badger.WARNING).
			WithInMemory(true)
	} else {
		// Make sure that we can read data dir, and create if it doesn't exist
		if _, err := os.Stat(s.dataDir); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("failed to read data dir: %w", err)
			}
			if err := os.MkdirAll(s.dataDir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create data dir: %w", err)
			}
		}
		badgerOpts = badger.DefaultOptions(filepath.Join(s.dataDir, "utxo")).
			WithLogger(newBadgerLogger(s.logger)).
			WithLoggingLevel(badger.WARNING).
			WithBlockCacheSize(int64(s.blockCacheSize)). //nolint:gosec // configured cache size
			WithIndexCacheSize(int64(s.indexCacheSize)). //nolint:gosec // configured cache size
			WithCompression(options.Snappy)
	}
	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, err
	}
	s.db = db
	// Value log GC only applies to disk-backed stores
	if s.gcEnabled && s.dataDir != "" {
		s.gcTicker = time.NewTicker(gcInterval)
		s.gcStopCh = make(chan struct{})
		s.gcWg.Add(1)
		go s.valueLogGc(s.gcTicker, s.gcStopCh)
	}
	return s, nil
}

func (s *UtxoStoreBadger) valueLogGc(t *time.Ticker, stop <-chan struct{}) {
	defer s.gcWg.Done()
	for {
		select {
		case <-t.C:
			for {
				err := s.db.RunValueLogGC(0.5)
				if err == nil {
					// Run it again if it just ran successfully
					continue
				}
				if !errors.Is(err, badger.ErrNoRewrite) {
					s.logger.Warn(
						fmt.Sprintf("utxo DB: GC failure: %s", err),
						"component", "database",
					)
				}
				break
			}
		case <-stop:
			return
		}
	}
}

// Close stops background GC and closes the database
func (s *UtxoStoreBadger) Close() error {
	if s.gcTicker != nil {
		s.gcTicker.Stop()
		close(s.gcStopCh)
		s.gcWg.Wait()
		s.gcTicker = nil
	}
	return s.db.Close()
}

// DB returns the database handle
func (s *UtxoStoreBadger) DB() *badger.DB {
	return s.db
}

func (s *UtxoStoreBadger) AddUtxos(
	ctx context.Context,
	utxos []ledger.Utxo,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return addUtxos(txn, utxos)
	})
}

func (s *UtxoStoreBadger) RemoveUtxos(
	ctx context.Context,
	inputs []ledger.TxInput,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return removeUtxos(txn, inputs)
	})
}

func (s *UtxoStoreBadger) ReplaceUtxos(
	ctx context.Context,
	spent []ledger.TxInput,
	created []ledger.Utxo,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		if err := removeUtxos(txn, spent); err != nil {
			return err
		}
		return addUtxos(txn, created)
	})
}

func addUtxos(txn *badger.Txn, utxos []ledger.Utxo) error {
	for _, utxo := range utxos {
		key, err := types.UtxoKey(utxo.Address, utxo.Input)
		if err != nil {
			return fmt.Errorf("utxo %s: %w", utxo.Input, err)
		}
		outputCbor, err := utxo.Cbor()
		if err != nil {
			return fmt.Errorf("utxo %s: %w", utxo.Input, err)
		}
		inputKey := types.UtxoInputKey(utxo.Input)
		// Drop any record of the same input held under another address
		if oldKey, err := getValue(txn, inputKey); err == nil {
			if !bytes.Equal(oldKey, key) {
				if err := txn.Delete(oldKey); err != nil {
					return err
				}
			}
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		if err := txn.Set(key, outputCbor); err != nil {
			return err
		}
		if err := txn.Set(inputKey, key); err != nil {
			return err
		}
	}
	return nil
}

func removeUtxos(txn *badger.Txn, inputs []ledger.TxInput) error {
	for _, input := range inputs {
		inputKey := types.UtxoInputKey(input)
		key, err := getValue(txn, inputKey)
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				continue
			}
			return err
		}
		if err := txn.Delete(key); err != nil {
			return err
		}
		if err := txn.Delete(inputKey); err != nil {
			return err
		}
	}
	return nil
}

// UtxosByAddress returns the UTxOs held at the address ordered by input
func (s *UtxoStoreBadger) UtxosByAddress(
	ctx context.Context,
	address lcommon.Address,
) ([]ledger.Utxo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	prefix, err := types.UtxoAddressPrefix(address)
	if err != nil {
		return nil, err
	}
	var ret []ledger.Utxo
	err = s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{
			Prefix:         prefix,
			PrefetchValues: true,
			PrefetchSize:   100,
		})
		defer it.Close()
		for it.Rewind(); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			input, ok := types.UtxoInputFromKey(item.Key())
			if !ok {
				return fmt.Errorf("malformed utxo key: %x", item.Key())
			}
			outputCbor, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			utxo, err := ledger.NewUtxoFromCbor(input, outputCbor)
			if err != nil {
				return err
			}
			ret = append(ret, utxo)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ret, nil
}

func (s *UtxoStoreBadger) Utxo(
	ctx context.Context,
	input ledger.TxInput,
) (ledger.Utxo, error) {
	if err := ctx.Err(); err != nil {
		return ledger.Utxo{}, err
	}
	var ret ledger.Utxo
	err := s.db.View(func(txn *badger.Txn) error {
		key, err := getValue(txn, types.UtxoInputKey(input))
		if err != nil {
			return err
		}
		outputCbor, err := getValue(txn, key)
		if err != nil {
			return err
		}
		ret, err = ledger.NewUtxoFromCbor(input, outputCbor)
		return err
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ledger.Utxo{}, types.ErrUtxoNotFound
		}
		return ledger.Utxo{}, err
	}
	return ret, nil
}

func getValue(txn *badger.Txn, key []byte) ([]byte, error) {
	item, err := txn.Get(key)
	if err != nil {
		return nil, err
	}
	return item.ValueCopy(nil)
}
