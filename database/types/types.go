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

package types

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"strconv"

	lcommon "github.com/blinklabs-io/gouroboros/ledger/common"

	"github.com/blinklabs-io/txbuilder/ledger"
)

// ErrUtxoNotFound is returned when a UTxO is not present in the store
var ErrUtxoNotFound = errors.New("utxo not found")

// ErrStoreClosed is returned when using a store after Close
var ErrStoreClosed = errors.New("store closed")

// UtxoStore persists the UTxOs observed for a set of wallet addresses
type UtxoStore interface {
	AddUtxos(ctx context.Context, utxos []ledger.Utxo) error
	RemoveUtxos(ctx context.Context, inputs []ledger.TxInput) error
	// ReplaceUtxos removes the spent inputs and adds the created UTxOs in a
	// single transaction. On error neither change is applied
	ReplaceUtxos(
		ctx context.Context,
		spent []ledger.TxInput,
		created []ledger.Utxo,
	) error
	UtxosByAddress(
		ctx context.Context,
		address lcommon.Address,
	) ([]ledger.Utxo, error)
	Utxo(ctx context.Context, input ledger.TxInput) (ledger.Utxo, error)
	Close() error
}

// Uint64 stores a uint64 as a decimal string. SQLite integers are signed, so
// lovelace amounts above the int64 range would not survive a round trip
//
//nolint:recvcheck
type Uint64 uint64

func (u Uint64) Value() (driver.Value, error) {
	return strconv.FormatUint(uint64(u), 10), nil
}

func (u *Uint64) Scan(val any) error {
	v, ok := val.(string)
	if !ok {
		return fmt.Errorf(
			"value was not expected type, wanted string, got %T",
			val,
		)
	}
	tmpUint, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return err
	}
	*u = Uint64(tmpUint)
	return nil
}
