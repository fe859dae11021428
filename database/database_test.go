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

package database_test

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/txbuilder/assembler"
	"github.com/blinklabs-io/txbuilder/database"
	"github.com/blinklabs-io/txbuilder/database/storetest"
	"github.com/blinklabs-io/txbuilder/database/types"
	"github.com/blinklabs-io/txbuilder/ledger"
	"github.com/blinklabs-io/txbuilder/pparams"
	"github.com/blinklabs-io/txbuilder/selection"
	"github.com/blinklabs-io/txbuilder/value"
)

func TestNewUnknownPlugin(t *testing.T) {
	_, err := database.New("leveldb", "", nil, nil)
	assert.ErrorContains(t, err, "unknown database plugin")
}

func TestApplyTransaction(t *testing.T) {
	for _, plugin := range []string{database.PluginBadger, database.PluginSqlite} {
		t.Run(plugin, func(t *testing.T) {
			ctx := context.Background()
			db, err := database.New(plugin, "", nil, prometheus.NewRegistry())
			require.NoError(t, err)
			defer db.Close()
			assert.Equal(t, plugin, db.Plugin())

			wallet := storetest.Address(t, 0x01)
			utxos := []ledger.Utxo{
				storetest.Utxo(t, wallet, 0x01, 0, 4000000),
				storetest.Utxo(t, wallet, 0x02, 0, 6000000),
			}
			require.NoError(t, db.AddUtxos(ctx, utxos))

			a, err := assembler.New(assembler.Config{
				Params: pparams.Mainnet(),
				NewRandom: func() selection.RandomSource {
					return selection.NewSeededRandom(5)
				},
			})
			require.NoError(t, err)
			available, err := db.UtxosByAddress(ctx, wallet)
			require.NoError(t, err)
			tx, err := a.Build(ctx, assembler.BuildRequest{
				ChangeAddress: wallet,
				Utxos:         available,
				Outputs: []ledger.TxOutput{
					{
						Address: storetest.Address(t, 0x02),
						Amount:  value.New(2000000),
					},
				},
			})
			require.NoError(t, err)
			require.NotEmpty(t, tx.ChangeOutputs())

			require.NoError(t, db.ApplyTransaction(ctx, tx))
			for _, input := range tx.Inputs() {
				_, err := db.Utxo(ctx, input.Input)
				assert.ErrorIs(t, err, types.ErrUtxoNotFound)
			}
			remaining, err := db.UtxosByAddress(ctx, wallet)
			require.NoError(t, err)
			// Unspent inputs plus one UTxO per change output
			assert.Len(
				t,
				remaining,
				len(utxos)-len(tx.Inputs())+len(tx.ChangeOutputs()),
			)
			change, err := db.Utxo(
				ctx,
				ledger.TxInput{TxId: tx.Hash(), Index: uint32(len(tx.Outputs()))},
			)
			require.NoError(t, err)
			assert.True(t, tx.ChangeOutputs()[0].Amount.Equal(change.Amount))
		})
	}
}
