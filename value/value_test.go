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

package value_test

import (
	"bytes"
	"math/big"
	"testing"

	"github.com/blinklabs-io/gouroboros/cbor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/txbuilder/value"
)

func testAsset(policyByte byte, name string) value.AssetID {
	return value.MustAssetID(
		bytes.Repeat([]byte{policyByte}, value.PolicyIdSize),
		[]byte(name),
	)
}

func testAssets(t *testing.T, qty map[value.AssetID]int64) value.MultiAsset {
	t.Helper()
	tmp := make(map[value.AssetID]*big.Int, len(qty))
	for id, q := range qty {
		tmp[id] = big.NewInt(q)
	}
	ret, err := value.NewMultiAsset(tmp)
	require.NoError(t, err)
	return ret
}

func TestNewAssetIDValidation(t *testing.T) {
	_, err := value.NewAssetID([]byte{1, 2, 3}, nil)
	require.Error(t, err)
	_, err = value.NewAssetID(
		make([]byte, value.PolicyIdSize),
		bytes.Repeat([]byte{'a'}, value.MaxAssetNameSize+1),
	)
	require.Error(t, err)
	id, err := value.NewAssetID(
		bytes.Repeat([]byte{0xab}, value.PolicyIdSize),
		[]byte("token"),
	)
	require.NoError(t, err)
	assert.False(t, id.IsLovelace())
	assert.Equal(t, []byte("token"), id.NameBytes())
	assert.Contains(t, id.Fingerprint(), "asset1")
}

func TestAssetIDOrdering(t *testing.T) {
	a := testAsset(1, "b")
	b := testAsset(1, "c")
	c := testAsset(2, "a")
	assert.Negative(t, a.Compare(b))
	assert.Negative(t, b.Compare(c))
	assert.Positive(t, c.Compare(a))
	assert.Zero(t, a.Compare(testAsset(1, "b")))
	assert.Negative(t, value.Lovelace.Compare(a))
}

func TestMultiAssetDropsZeroAndRejectsNegative(t *testing.T) {
	ma := testAssets(t, map[value.AssetID]int64{
		testAsset(1, "a"): 0,
		testAsset(1, "b"): 5,
	})
	assert.Equal(t, 1, ma.Len())
	assert.False(t, ma.Has(testAsset(1, "a")))
	_, err := value.NewMultiAsset(map[value.AssetID]*big.Int{
		testAsset(1, "a"): big.NewInt(-1),
	})
	require.ErrorIs(t, err, value.ErrInvalidQuantity)
	_, err = value.NewMultiAsset(map[value.AssetID]*big.Int{
		value.Lovelace: big.NewInt(1),
	})
	require.ErrorIs(t, err, value.ErrInvalidQuantity)
}

func TestMultiAssetCanonicalIDs(t *testing.T) {
	ma := testAssets(t, map[value.AssetID]int64{
		testAsset(3, "a"): 1,
		testAsset(1, "z"): 1,
		testAsset(1, "a"): 1,
		testAsset(2, "m"): 1,
	})
	assert.Equal(
		t,
		[]value.AssetID{
			testAsset(1, "a"),
			testAsset(1, "z"),
			testAsset(2, "m"),
			testAsset(3, "a"),
		},
		ma.IDs(),
	)
	assert.Len(t, ma.Policies(), 3)
}

func TestValueArithmetic(t *testing.T) {
	tok := testAsset(7, "tok")
	a := value.NewWithAssets(10, testAssets(t, map[value.AssetID]int64{tok: 5}))
	b := value.NewWithAssets(4, testAssets(t, map[value.AssetID]int64{tok: 2}))
	sum := a.Add(b)
	assert.Equal(t, uint64(14), sum.Coin())
	assert.Equal(t, int64(7), sum.Quantity(tok).Int64())
	diff, err := a.Sub(b)
	require.NoError(t, err)
	assert.Equal(t, uint64(6), diff.Coin())
	assert.Equal(t, int64(3), diff.Quantity(tok).Int64())
	assert.True(t, a.Covers(b))
	assert.False(t, b.Covers(a))
	// Exact subtraction removes the asset entirely
	zero, err := a.Sub(a)
	require.NoError(t, err)
	assert.True(t, zero.IsZero())
	assert.False(t, zero.HasAssets())
}

func TestValueSubNeverNegative(t *testing.T) {
	tok := testAsset(7, "tok")
	a := value.New(10)
	_, err := a.Sub(value.New(11))
	require.ErrorIs(t, err, value.ErrNegativeValue)
	b := value.NewWithAssets(100, testAssets(t, map[value.AssetID]int64{tok: 1}))
	_, err = a.Sub(b.WithCoin(1))
	require.ErrorIs(t, err, value.ErrNegativeValue)
}

func TestValueImmutability(t *testing.T) {
	tok := testAsset(7, "tok")
	a := value.NewWithAssets(1, testAssets(t, map[value.AssetID]int64{tok: 5}))
	qty := a.Quantity(tok)
	qty.SetInt64(1000)
	assert.Equal(t, int64(5), a.Quantity(tok).Int64())
	_ = a.Add(value.NewWithAssets(0, testAssets(t, map[value.AssetID]int64{tok: 5})))
	assert.Equal(t, int64(5), a.Quantity(tok).Int64())
	b := a.WithAssets(a.Assets().Without(tok))
	assert.True(t, a.HasAssets())
	assert.False(t, b.HasAssets())
}

func TestValueSize(t *testing.T) {
	// An ADA-only value encodes as a bare unsigned integer
	v := value.New(1_000_000)
	size, err := v.Size()
	require.NoError(t, err)
	assert.Equal(t, 5, size)
	hexSize, err := v.HexSize()
	require.NoError(t, err)
	assert.Equal(t, 10, hexSize)
	// Adding assets can only grow the encoding
	withAssets := v.WithAssets(testAssets(t, map[value.AssetID]int64{
		testAsset(1, "a"): 1,
	}))
	assetSize, err := withAssets.Size()
	require.NoError(t, err)
	assert.Greater(t, assetSize, size+value.PolicyIdSize)
}

func TestValueCborRoundTrip(t *testing.T) {
	v := value.NewWithAssets(2_000_000, testAssets(t, map[value.AssetID]int64{
		testAsset(1, "a"):  1,
		testAsset(2, "bb"): 1 << 40,
	}))
	data, err := cbor.Encode(&v)
	require.NoError(t, err)
	var decoded value.Value
	_, err = cbor.Decode(data, &decoded)
	require.NoError(t, err)
	assert.True(t, v.Equal(decoded), "got %s, expected %s", decoded, v)
}

func TestSum(t *testing.T) {
	tok := testAsset(9, "x")
	total := value.Sum(
		value.New(1),
		value.NewWithAssets(2, testAssets(t, map[value.AssetID]int64{tok: 3})),
		value.New(3),
	)
	assert.Equal(t, uint64(6), total.Coin())
	assert.Equal(t, int64(3), total.Quantity(tok).Int64())
	assert.Equal(t, uint64(6), total.Quantity(value.Lovelace).Uint64())
}
