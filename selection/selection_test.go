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

package selection_test

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"
	"math/rand/v2"
	"testing"

	lcommon "github.com/blinklabs-io/gouroboros/ledger/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/txbuilder/ledger"
	"github.com/blinklabs-io/txbuilder/pparams"
	"github.com/blinklabs-io/txbuilder/selection"
	"github.com/blinklabs-io/txbuilder/value"
)

const testFee = 200000

func testParams() *pparams.ProtocolParameters {
	return &pparams.ProtocolParameters{
		MinFeeA:    44,
		MinFeeB:    155381,
		MinUtxo:    500000,
		MaxTxSize:  16384,
		MaxValSize: 5000,
	}
}

func testAddress(t *testing.T) lcommon.Address {
	t.Helper()
	addr, err := lcommon.NewAddressFromParts(
		lcommon.AddressTypeKeyNone,
		lcommon.AddressNetworkTestnet,
		bytes.Repeat([]byte{0x11}, lcommon.AddressHashSize),
		nil,
	)
	require.NoError(t, err)
	return addr
}

func testAsset(policyByte byte, name string) value.AssetID {
	return value.MustAssetID(
		bytes.Repeat([]byte{policyByte}, value.PolicyIdSize),
		[]byte(name),
	)
}

func testValue(
	t *testing.T,
	coin uint64,
	assets map[value.AssetID]int64,
) value.Value {
	t.Helper()
	tmp := make(map[value.AssetID]*big.Int, len(assets))
	for id, qty := range assets {
		tmp[id] = big.NewInt(qty)
	}
	ma, err := value.NewMultiAsset(tmp)
	require.NoError(t, err)
	return value.NewWithAssets(coin, ma)
}

func testUtxos(t *testing.T, amounts ...value.Value) []ledger.Utxo {
	t.Helper()
	addr := testAddress(t)
	ret := make([]ledger.Utxo, 0, len(amounts))
	for idx, amount := range amounts {
		txId := bytes.Repeat([]byte{byte(idx + 1)}, 32)
		ret = append(ret, ledger.Utxo{
			Input: ledger.TxInput{
				TxId:  lcommon.NewBlake2b256(txId),
				Index: uint32(idx),
			},
			Address: addr,
			Amount:  amount,
		})
	}
	return ret
}

func testConfig(t *testing.T, random selection.RandomSource) selection.Config {
	t.Helper()
	return selection.Config{
		Params:        testParams(),
		Random:        random,
		ChangeAddress: testAddress(t),
		FeeEstimator: func([]ledger.Utxo, []ledger.TxOutput) (uint64, error) {
			return testFee, nil
		},
	}
}

func assertNoDuplicates(t *testing.T, inputs []ledger.Utxo) {
	t.Helper()
	seen := make(map[ledger.TxInput]bool)
	for _, input := range inputs {
		assert.False(t, seen[input.Input], "input %s selected twice", input.Input)
		seen[input.Input] = true
	}
}

func TestRandomImproveScenario(t *testing.T) {
	utxos := testUtxos(
		t,
		value.New(5),
		value.New(5),
		value.New(3000000),
	)
	outputs := []ledger.TxOutput{
		{Address: testAddress(t), Amount: value.New(2000000)},
	}
	for seed := range uint64(20) {
		sel := selection.NewRandomImprove(
			testConfig(t, selection.NewSeededRandom(seed)),
		)
		res, err := sel.Select(utxos, outputs, 20)
		require.NoError(t, err)
		assertNoDuplicates(t, res.Inputs)
		var found bool
		for _, input := range res.Inputs {
			if input.Amount.Coin() == 3000000 {
				found = true
			}
		}
		assert.True(t, found, "large UTxO not selected with seed %d", seed)
		assert.Equal(t, uint64(testFee), res.EstimatedFee)
		assert.InDelta(t, 800000, float64(res.Change.Coin()), 10)
		assert.False(t, res.Change.HasAssets())
	}
}

func TestSelectMissingAsset(t *testing.T) {
	have := testAsset(1, "have")
	missing := testAsset(2, "missing")
	utxos := testUtxos(
		t,
		testValue(t, 5000000, map[value.AssetID]int64{have: 100}),
		value.New(10000000),
	)
	outputs := []ledger.TxOutput{
		{
			Address: testAddress(t),
			Amount: testValue(t, 2000000, map[value.AssetID]int64{
				have:    10,
				missing: 1,
			}),
		},
	}
	sel := selection.NewRandomImprove(
		testConfig(t, selection.NewSeededRandom(1)),
	)
	_, err := sel.Select(utxos, outputs, 20)
	require.ErrorIs(t, err, selection.ErrInsufficientFunds)
	var fundsErr *selection.InsufficientFundsError
	require.True(t, errors.As(err, &fundsErr))
	assert.Equal(t, missing, fundsErr.Asset)
	assert.Equal(t, int64(1), fundsErr.Required.Int64())
	assert.Zero(t, fundsErr.Available.Sign())
}

func TestSelectInsufficientLovelace(t *testing.T) {
	utxos := testUtxos(t, value.New(1000000), value.New(1000000))
	outputs := []ledger.TxOutput{
		{Address: testAddress(t), Amount: value.New(1900000)},
	}
	sel := selection.NewRandomImprove(
		testConfig(t, selection.NewSeededRandom(1)),
	)
	_, err := sel.Select(utxos, outputs, 20)
	require.ErrorIs(t, err, selection.ErrInsufficientFunds)
	var fundsErr *selection.InsufficientFundsError
	require.ErrorAs(t, err, &fundsErr)
	assert.True(t, fundsErr.Asset.IsLovelace())
	assert.Equal(t, int64(2100000), fundsErr.Required.Int64())
	assert.Equal(t, int64(2000000), fundsErr.Available.Int64())
}

func TestSelectChangeMinAda(t *testing.T) {
	token := testAsset(0x01, "token")
	utxos := testUtxos(
		t,
		testValue(t, 5000000, map[value.AssetID]int64{token: 10}),
		value.New(100000000),
	)
	outputs := []ledger.TxOutput{
		{Address: testAddress(t), Amount: value.New(1000000)},
	}
	// Change carrying assets is paid out across several outputs, each
	// holding its own min-ADA
	splitMinAda := func(change value.Value) (uint64, error) {
		if change.HasAssets() {
			return 10000000, nil
		}
		return 500000, nil
	}

	sel := selection.NewRandomImprove(
		testConfig(t, selection.FirstCandidate{}),
	)
	res, err := sel.Select(utxos, outputs, 20)
	require.NoError(t, err)
	assert.Len(t, res.Inputs, 1)

	cfg := testConfig(t, selection.FirstCandidate{})
	cfg.ChangeMinAda = splitMinAda
	res, err = selection.NewRandomImprove(cfg).Select(utxos, outputs, 20)
	require.NoError(t, err)
	require.Len(t, res.Inputs, 2)
	assert.GreaterOrEqual(t, res.Change.Coin(), uint64(10000000))

	_, err = selection.NewRandomImprove(cfg).Select(utxos[:1], outputs, 20)
	require.ErrorIs(t, err, selection.ErrInsufficientFunds)
}

func TestSelectNoUtxos(t *testing.T) {
	sel := selection.NewRandomImprove(
		testConfig(t, selection.NewSeededRandom(1)),
	)
	_, err := sel.Select(
		nil,
		[]ledger.TxOutput{{Address: testAddress(t), Amount: value.New(1)}},
		20,
	)
	require.ErrorIs(t, err, selection.ErrInsufficientFunds)
}

func TestSelectZeroChange(t *testing.T) {
	utxos := testUtxos(t, value.New(2000000+testFee))
	outputs := []ledger.TxOutput{
		{Address: testAddress(t), Amount: value.New(2000000)},
	}
	sel := selection.NewRandomImprove(
		testConfig(t, selection.NewSeededRandom(1)),
	)
	res, err := sel.Select(utxos, outputs, 20)
	require.NoError(t, err)
	assert.Len(t, res.Inputs, 1)
	assert.True(t, res.Change.IsZero())
}

func TestSelectDeterministic(t *testing.T) {
	tok := testAsset(3, "tok")
	var amounts []value.Value
	for i := range 40 {
		if i%4 == 0 {
			amounts = append(amounts, testValue(t, 1500000, map[value.AssetID]int64{
				tok: int64(i + 1),
			}))
			continue
		}
		amounts = append(amounts, value.New(uint64(1000000+i*100000)))
	}
	utxos := testUtxos(t, amounts...)
	outputs := []ledger.TxOutput{
		{
			Address: testAddress(t),
			Amount:  testValue(t, 5000000, map[value.AssetID]int64{tok: 30}),
		},
	}
	run := func() []ledger.TxInput {
		sel := selection.NewRandomImprove(
			testConfig(t, selection.NewSeededRandom(42)),
		)
		res, err := sel.Select(utxos, outputs, 20)
		require.NoError(t, err)
		ret := make([]ledger.TxInput, 0, len(res.Inputs))
		for _, input := range res.Inputs {
			ret = append(ret, input.Input)
		}
		return ret
	}
	assert.Equal(t, run(), run())
}

func TestSelectCoverageProperty(t *testing.T) {
	assets := []value.AssetID{
		testAsset(1, "a"),
		testAsset(1, "b"),
		testAsset(2, "c"),
	}
	// #nosec G404
	rng := rand.New(rand.NewPCG(7, 7))
	for round := range 50 {
		t.Run(fmt.Sprintf("round-%d", round), func(t *testing.T) {
			var amounts []value.Value
			for range 30 + rng.IntN(30) {
				tmpAssets := make(map[value.AssetID]int64)
				for _, id := range assets {
					if rng.IntN(3) == 0 {
						tmpAssets[id] = int64(1 + rng.IntN(50))
					}
				}
				amounts = append(amounts, testValue(
					t,
					uint64(1000000+rng.IntN(5000000)),
					tmpAssets,
				))
			}
			utxos := testUtxos(t, amounts...)
			outputs := []ledger.TxOutput{
				{
					Address: testAddress(t),
					Amount: testValue(t, uint64(1000000+rng.IntN(10000000)), map[value.AssetID]int64{
						assets[rng.IntN(len(assets))]: int64(1 + rng.IntN(20)),
					}),
				},
			}
			sel := selection.NewRandomImprove(
				testConfig(t, selection.NewSeededRandom(uint64(round))),
			)
			res, err := sel.Select(utxos, outputs, 20+len(assets))
			require.NoError(t, err)
			assertNoDuplicates(t, res.Inputs)
			total := ledger.SumUtxos(res.Inputs)
			assert.True(t, total.Equal(res.Total))
			required := ledger.SumOutputs(outputs)
			required = required.WithCoin(required.Coin() + res.EstimatedFee)
			assert.True(t, total.Covers(required))
			assert.True(t, required.Add(res.Change).Equal(total))
		})
	}
}

func TestSelectNeverReusesAcrossClasses(t *testing.T) {
	a := testAsset(1, "a")
	b := testAsset(2, "b")
	// Every UTxO carries both assets, so covering one class also covers
	// part of the other
	var amounts []value.Value
	for range 10 {
		amounts = append(amounts, testValue(t, 2000000, map[value.AssetID]int64{
			a: 1,
			b: 1,
		}))
	}
	utxos := testUtxos(t, amounts...)
	outputs := []ledger.TxOutput{
		{
			Address: testAddress(t),
			Amount:  testValue(t, 1000000, map[value.AssetID]int64{a: 4, b: 6}),
		},
	}
	sel := selection.NewRandomImprove(
		testConfig(t, selection.NewSeededRandom(3)),
	)
	res, err := sel.Select(utxos, outputs, 22)
	require.NoError(t, err)
	assertNoDuplicates(t, res.Inputs)
	assert.GreaterOrEqual(t, len(res.Inputs), 6)
}

func TestSelectBudgetFallsBackToLargest(t *testing.T) {
	utxos := testUtxos(
		t,
		value.New(1000000),
		value.New(9000000),
		value.New(2000000),
	)
	outputs := []ledger.TxOutput{
		{Address: testAddress(t), Amount: value.New(3000000)},
	}
	// With no random budget the first pick is the largest UTxO
	sel := selection.NewRandomImprove(
		testConfig(t, selection.FirstCandidate{}),
	)
	res, err := sel.Select(utxos, outputs, 0)
	require.NoError(t, err)
	require.NotEmpty(t, res.Inputs)
	assert.Equal(t, uint64(9000000), res.Inputs[0].Amount.Coin())
	// With budget, FirstCandidate follows the listed order
	res, err = sel.Select(utxos, outputs, 20)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000000), res.Inputs[0].Amount.Coin())
}

func TestSelectDepositsAndRefunds(t *testing.T) {
	utxos := testUtxos(t, value.New(10000000))
	outputs := []ledger.TxOutput{
		{Address: testAddress(t), Amount: value.New(1000000)},
	}
	cfg := testConfig(t, selection.NewSeededRandom(1))
	cfg.Deposit = 2000000
	res, err := selection.NewRandomImprove(cfg).Select(utxos, outputs, 20)
	require.NoError(t, err)
	assert.Equal(t, uint64(10000000-1000000-2000000-testFee), res.Change.Coin())
	cfg = testConfig(t, selection.NewSeededRandom(1))
	cfg.Refund = 2000000
	res, err = selection.NewRandomImprove(cfg).Select(utxos, outputs, 20)
	require.NoError(t, err)
	assert.Equal(t, uint64(10000000-1000000+2000000-testFee), res.Change.Coin())
}

func TestLargestFirst(t *testing.T) {
	tok := testAsset(5, "x")
	utxos := testUtxos(
		t,
		value.New(3000000),
		testValue(t, 2000000, map[value.AssetID]int64{tok: 5}),
		value.New(8000000),
		testValue(t, 2000000, map[value.AssetID]int64{tok: 50}),
	)
	outputs := []ledger.TxOutput{
		{
			Address: testAddress(t),
			Amount:  testValue(t, 6000000, map[value.AssetID]int64{tok: 20}),
		},
	}
	sel := selection.NewLargestFirst(testConfig(t, nil))
	res, err := sel.Select(utxos, outputs, 20)
	require.NoError(t, err)
	require.Len(t, res.Inputs, 2)
	assert.Equal(t, utxos[3].Input, res.Inputs[0].Input)
	assert.Equal(t, utxos[2].Input, res.Inputs[1].Input)
	assert.Equal(t, int64(30), res.Change.Quantity(tok).Int64())
}

func TestSelectRequiresParams(t *testing.T) {
	cfg := testConfig(t, nil)
	cfg.Params = nil
	_, err := selection.NewRandomImprove(cfg).Select(nil, nil, 20)
	require.Error(t, err)
	assert.False(t, errors.Is(err, selection.ErrInsufficientFunds))
}
