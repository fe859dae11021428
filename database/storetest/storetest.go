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

// Package storetest holds the behavior every UTxO store must share
package storetest

import (
	"bytes"
	"context"
	"math/big"
	"testing"

	lcommon "github.com/blinklabs-io/gouroboros/ledger/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/txbuilder/database/types"
	"github.com/blinklabs-io/txbuilder/ledger"
	"github.com/blinklabs-io/txbuilder/value"
)

// Address returns a testnet enterprise address derived from the seed byte
func Address(t *testing.T, seed byte) lcommon.Address {
	t.Helper()
	addr, err := lcommon.NewAddressFromParts(
		lcommon.AddressTypeKeyNone,
		lcommon.AddressNetworkTestnet,
		bytes.Repeat([]byte{seed}, lcommon.AddressHashSize),
		nil,
	)
	require.NoError(t, err)
	return addr
}

// Utxo returns a UTxO at the address with a single native asset
func Utxo(
	t *testing.T,
	address lcommon.Address,
	txByte byte,
	idx uint32,
	coin uint64,
) ledger.Utxo {
	t.Helper()
	assets, err := value.NewMultiAsset(map[value.AssetID]*big.Int{
		value.MustAssetID(
			bytes.Repeat([]byte{0x42}, value.PolicyIdSize),
			[]byte("store"),
		): big.NewInt(int64(idx) + 1),
	})
	require.NoError(t, err)
	return ledger.Utxo{
		Input: ledger.TxInput{
			TxId:  lcommon.NewBlake2b256(bytes.Repeat([]byte{txByte}, 32)),
			Index: idx,
		},
		Address: address,
		Amount:  value.NewWithAssets(coin, assets),
	}
}

func assertSameUtxo(t *testing.T, expected ledger.Utxo, actual ledger.Utxo) {
	t.Helper()
	assert.Equal(t, expected.Input, actual.Input)
	assert.Equal(t, expected.Address.String(), actual.Address.String())
	assert.True(
		t,
		expected.Amount.Equal(actual.Amount),
		"expected %s, got %s",
		expected.Amount,
		actual.Amount,
	)
}

// Run exercises a store created by newStore
func Run(t *testing.T, newStore func(t *testing.T) types.UtxoStore) {
	t.Run("AddAndQuery", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		addrA := Address(t, 0x01)
		addrB := Address(t, 0x02)
		utxos := []ledger.Utxo{
			Utxo(t, addrA, 0x03, 1, 3000000),
			Utxo(t, addrA, 0x01, 0, 1000000),
			Utxo(t, addrB, 0x02, 0, 2000000),
		}
		require.NoError(t, store.AddUtxos(ctx, utxos))

		ret, err := store.UtxosByAddress(ctx, addrA)
		require.NoError(t, err)
		require.Len(t, ret, 2)
		// Ordered by input
		assertSameUtxo(t, utxos[1], ret[0])
		assertSameUtxo(t, utxos[0], ret[1])

		ret, err = store.UtxosByAddress(ctx, addrB)
		require.NoError(t, err)
		require.Len(t, ret, 1)
		assertSameUtxo(t, utxos[2], ret[0])

		ret, err = store.UtxosByAddress(ctx, Address(t, 0x09))
		require.NoError(t, err)
		assert.Empty(t, ret)

		utxo, err := store.Utxo(ctx, utxos[2].Input)
		require.NoError(t, err)
		assertSameUtxo(t, utxos[2], utxo)
	})

	t.Run("AddTwice", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		addr := Address(t, 0x01)
		utxo := Utxo(t, addr, 0x05, 0, 1500000)
		require.NoError(t, store.AddUtxos(ctx, []ledger.Utxo{utxo}))
		require.NoError(t, store.AddUtxos(ctx, []ledger.Utxo{utxo}))
		ret, err := store.UtxosByAddress(ctx, addr)
		require.NoError(t, err)
		assert.Len(t, ret, 1)
	})

	t.Run("Remove", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		addr := Address(t, 0x01)
		keep := Utxo(t, addr, 0x01, 0, 1000000)
		spent := Utxo(t, addr, 0x02, 0, 2000000)
		require.NoError(t, store.AddUtxos(ctx, []ledger.Utxo{keep, spent}))
		require.NoError(
			t,
			store.RemoveUtxos(ctx, []ledger.TxInput{spent.Input}),
		)
		// Removing an unknown input is not an error
		require.NoError(
			t,
			store.RemoveUtxos(ctx, []ledger.TxInput{spent.Input}),
		)
		ret, err := store.UtxosByAddress(ctx, addr)
		require.NoError(t, err)
		require.Len(t, ret, 1)
		assertSameUtxo(t, keep, ret[0])
		_, err = store.Utxo(ctx, spent.Input)
		assert.ErrorIs(t, err, types.ErrUtxoNotFound)
	})

	t.Run("Replace", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		addr := Address(t, 0x01)
		keep := Utxo(t, addr, 0x01, 0, 1000000)
		spent := Utxo(t, addr, 0x02, 0, 2000000)
		created := Utxo(t, addr, 0x03, 1, 1500000)
		require.NoError(t, store.AddUtxos(ctx, []ledger.Utxo{keep, spent}))
		require.NoError(
			t,
			store.ReplaceUtxos(
				ctx,
				[]ledger.TxInput{spent.Input},
				[]ledger.Utxo{created},
			),
		)
		ret, err := store.UtxosByAddress(ctx, addr)
		require.NoError(t, err)
		require.Len(t, ret, 2)
		assertSameUtxo(t, keep, ret[0])
		assertSameUtxo(t, created, ret[1])
		_, err = store.Utxo(ctx, spent.Input)
		assert.ErrorIs(t, err, types.ErrUtxoNotFound)
	})

	t.Run("ReplaceCanceledContext", func(t *testing.T) {
		store := newStore(t)
		addr := Address(t, 0x01)
		spent := Utxo(t, addr, 0x02, 0, 2000000)
		require.NoError(
			t,
			store.AddUtxos(context.Background(), []ledger.Utxo{spent}),
		)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := store.ReplaceUtxos(
			ctx,
			[]ledger.TxInput{spent.Input},
			[]ledger.Utxo{Utxo(t, addr, 0x03, 0, 1000000)},
		)
		require.ErrorIs(t, err, context.Canceled)
		ret, err := store.UtxosByAddress(context.Background(), addr)
		require.NoError(t, err)
		require.Len(t, ret, 1)
		assertSameUtxo(t, spent, ret[0])
	})

	t.Run("LargeCoin", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		addr := Address(t, 0x07)
		utxo := Utxo(t, addr, 0x07, 0, 45000000000000000)
		require.NoError(t, store.AddUtxos(ctx, []ledger.Utxo{utxo}))
		ret, err := store.Utxo(ctx, utxo.Input)
		require.NoError(t, err)
		assertSameUtxo(t, utxo, ret)
	})

	t.Run("CanceledContext", func(t *testing.T) {
		store := newStore(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := store.UtxosByAddress(ctx, Address(t, 0x01))
		assert.ErrorIs(t, err, context.Canceled)
	})
}
