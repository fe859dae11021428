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


package txbuilder_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	lcommon "github.com/blinklabs-io/gouroboros/ledger/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/txbuilder"
	"github.com/blinklabs-io/txbuilder/assembler"
	"github.com/blinklabs-io/txbuilder/database"
	"github.com/blinklabs-io/txbuilder/database/storetest"
	"github.com/blinklabs-io/txbuilder/internal/config"
	"github.com/blinklabs-io/txbuilder/ledger"
	"github.com/blinklabs-io/txbuilder/pparams"
	"github.com/blinklabs-io/txbuilder/selection"
	"github.com/blinklabs-io/txbuilder/value"
)

type mapSource struct {
	utxos map[string][]ledger.Utxo
	err   error
}

func (m *mapSource) UtxosByAddress(
	_ context.Context,
	address lcommon.Address,
) ([]ledger.Utxo, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.utxos[address.String()], nil
}

func assertBalanced(t *testing.T, tx *assembler.Transaction) {
	t.Helper()
	deposits, refunds := ledger.CertificateBalance(tx.Certificates())
	in := tx.InputTotal()
	in = in.WithCoin(in.Coin() + refunds)
	out := tx.OutputTotal()
	out = out.WithCoin(out.Coin() + tx.Fee() + deposits)
	assert.True(t, in.Equal(out), "inputs %s do not balance outputs %s", in, out)
}

func TestBuildFromDatabase(t *testing.T) {
	for _, plugin := range []string{database.PluginBadger, database.PluginSqlite} {
		t.Run(plugin, func(t *testing.T) {
			db, err := database.New(plugin, "", nil, nil)
			require.NoError(t, err)
			t.Cleanup(func() { _ = db.Close() })
			addr := storetest.Address(t, 0x11)
			require.NoError(
				t,
				db.AddUtxos(
					context.Background(),
					[]ledger.Utxo{
						storetest.Utxo(t, addr, 0x01, 0, 5000000),
						storetest.Utxo(t, addr, 0x02, 1, 5000000),
					},
				),
			)
			tb, err := txbuilder.New(
				txbuilder.NewConfig(
					txbuilder.WithUtxoSource(db),
					txbuilder.WithRandomSeed(5),
				),
			)
			require.NoError(t, err)
			t.Cleanup(func() { _ = tb.Close() })
			tx, err := tb.Build(
				context.Background(),
				[]lcommon.Address{addr},
				[]ledger.TxOutput{
					{Address: storetest.Address(t, 0x22), Amount: value.New(2000000)},
				},
				addr,
				nil,
			)
			require.NoError(t, err)
			assertBalanced(t, tx)
			require.NotEmpty(t, tx.ChangeOutputs())
			for _, output := range tx.ChangeOutputs() {
				assert.Equal(t, addr.String(), output.Address.String())
			}
		})
	}
}

func TestBuildRandomSeedIsReproducible(t *testing.T) {
	addr := storetest.Address(t, 0x11)
	var utxos []ledger.Utxo
	for i := range 10 {
		utxos = append(utxos, storetest.Utxo(t, addr, byte(i+1), uint32(i), 3000000))
	}
	source := &mapSource{utxos: map[string][]ledger.Utxo{addr.String(): utxos}}
	var hashes []string
	for range 2 {
		tb, err := txbuilder.New(
			txbuilder.NewConfig(
				txbuilder.WithUtxoSource(source),
				txbuilder.WithRandomSeed(1234),
			),
		)
		require.NoError(t, err)
		tx, err := tb.Build(
			context.Background(),
			[]lcommon.Address{addr},
			[]ledger.TxOutput{
				{Address: storetest.Address(t, 0x22), Amount: value.New(4000000)},
			},
			addr,
			nil,
		)
		require.NoError(t, err)
		hashes = append(hashes, tx.Hash().String())
		require.NoError(t, tb.Close())
	}
	assert.Equal(t, hashes[0], hashes[1])
}

func TestUtxosDeduplicates(t *testing.T) {
	addrA := storetest.Address(t, 0x11)
	addrB := storetest.Address(t, 0x12)
	shared := storetest.Utxo(t, addrA, 0x01, 0, 2000000)
	source := &mapSource{
		utxos: map[string][]ledger.Utxo{
			addrA.String(): {shared},
			addrB.String(): {shared, storetest.Utxo(t, addrB, 0x02, 0, 2000000)},
		},
	}
	tb, err := txbuilder.New(txbuilder.NewConfig(txbuilder.WithUtxoSource(source)))
	require.NoError(t, err)
	utxos, err := tb.Utxos(context.Background(), []lcommon.Address{addrA, addrB})
	require.NoError(t, err)
	require.Len(t, utxos, 2)
	assert.Equal(t, shared.Input, utxos[0].Input)
}

func TestBuildSourceErrors(t *testing.T) {
	addr := storetest.Address(t, 0x11)
	output := ledger.TxOutput{Address: addr, Amount: value.New(2000000)}

	tb, err := txbuilder.New(txbuilder.NewConfig())
	require.NoError(t, err)
	_, err = tb.Build(context.Background(), []lcommon.Address{addr}, []ledger.TxOutput{output}, addr, nil)
	require.ErrorIs(t, err, txbuilder.ErrNoUtxoSource)

	errTest := errors.New("backend down")
	tb, err = txbuilder.New(
		txbuilder.NewConfig(txbuilder.WithUtxoSource(&mapSource{err: errTest})),
	)
	require.NoError(t, err)
	_, err = tb.Build(context.Background(), []lcommon.Address{addr}, []ledger.TxOutput{output}, addr, nil)
	require.ErrorIs(t, err, errTest)
}

func TestBuildInsufficientFunds(t *testing.T) {
	addr := storetest.Address(t, 0x11)
	source := &mapSource{
		utxos: map[string][]ledger.Utxo{
			addr.String(): {storetest.Utxo(t, addr, 0x01, 0, 2000000)},
		},
	}
	tb, err := txbuilder.New(txbuilder.NewConfig(txbuilder.WithUtxoSource(source)))
	require.NoError(t, err)
	_, err = tb.Build(
		context.Background(),
		[]lcommon.Address{addr},
		[]ledger.TxOutput{{Address: addr, Amount: value.New(50000000)}},
		addr,
		nil,
	)
	require.ErrorIs(t, err, selection.ErrInsufficientFunds)
}

func TestNewInvalidConfig(t *testing.T) {
	_, err := txbuilder.New(
		txbuilder.NewConfig(txbuilder.WithProtocolParameters(&pparams.ProtocolParameters{})),
	)
	require.Error(t, err)

	_, err = txbuilder.New(txbuilder.NewConfig(txbuilder.WithBaseSelectionLimit(-1)))
	require.Error(t, err)

	_, err = txbuilder.New(txbuilder.NewConfig(txbuilder.WithTracingStdout(true)))
	require.Error(t, err)
}

func TestTracingStdout(t *testing.T) {
	tb, err := txbuilder.New(
		txbuilder.NewConfig(
			txbuilder.WithTracing(true),
			txbuilder.WithTracingStdout(true),
		),
	)
	require.NoError(t, err)
	require.NoError(t, tb.Close())
	// Closing twice is harmless
	require.NoError(t, tb.Close())
}

func TestNewFromConfigDatabase(t *testing.T) {
	cfg := &config.Config{
		Network:            "preview",
		DatabasePlugin:     database.PluginSqlite,
		DatabasePath:       t.TempDir(),
		BaseSelectionLimit: 10,
		RandomSeed:         3,
	}
	tb, err := txbuilder.NewFromConfig(cfg)
	require.NoError(t, err)
	addr := storetest.Address(t, 0x11)
	_, err = tb.Build(
		context.Background(),
		[]lcommon.Address{addr},
		[]ledger.TxOutput{{Address: addr, Amount: value.New(2000000)}},
		addr,
		nil,
	)
	require.ErrorIs(t, err, selection.ErrInsufficientFunds)
	require.NoError(t, tb.Close())
}

func TestNewFromConfigUtxoSourceOverride(t *testing.T) {
	addr := storetest.Address(t, 0x11)
	source := &mapSource{
		utxos: map[string][]ledger.Utxo{
			addr.String(): {storetest.Utxo(t, addr, 0x01, 0, 10000000)},
		},
	}
	cfg := &config.Config{
		Network:        "mainnet",
		DatabasePlugin: "postgres",
	}
	// The database is never opened when a source is supplied
	tb, err := txbuilder.NewFromConfig(cfg, txbuilder.WithUtxoSource(source))
	require.NoError(t, err)
	defer tb.Close()
	tx, err := tb.Build(
		context.Background(),
		[]lcommon.Address{addr},
		[]ledger.TxOutput{{Address: addr, Amount: value.New(2000000)}},
		addr,
		nil,
	)
	require.NoError(t, err)
	assertBalanced(t, tx)
}

func TestNewFromConfigUtxorpc(t *testing.T) {
	cfg := &config.Config{
		Network:    "mainnet",
		UtxorpcUrl: "http://localhost:50051",
		UtxorpcHeaders: map[string]string{
			"dmtr-api-key": "test",
		},
	}
	tb, err := txbuilder.NewFromConfig(cfg)
	require.NoError(t, err)
	require.NoError(t, tb.Close())
}

func TestNewFromConfigParamsFile(t *testing.T) {
	cfg := &config.Config{
		Network:                "mainnet",
		ProtocolParametersFile: filepath.Join(t.TempDir(), "missing.json"),
	}
	_, err := txbuilder.NewFromConfig(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load protocol parameters")
}
