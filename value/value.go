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

// Package value provides the immutable amount types used for coin selection:
// a lovelace quantity plus an optional bundle of native assets.
package value

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/blinklabs-io/gouroboros/cbor"
	lcommon "github.com/blinklabs-io/gouroboros/ledger/common"
	"github.com/blinklabs-io/gouroboros/ledger/mary"
)

var (
	ErrNegativeValue   = errors.New("value would become negative")
	ErrInvalidQuantity = errors.New("invalid asset quantity")
)

// Value is a lovelace quantity plus an optional multi-asset bundle
type Value struct {
	coin   uint64
	assets MultiAsset
}

// New returns an ADA-only value
func New(coin uint64) Value {
	return Value{coin: coin}
}

// NewWithAssets returns a value holding both lovelace and native assets
func NewWithAssets(coin uint64, assets MultiAsset) Value {
	return Value{coin: coin, assets: assets}
}

// Sum adds up all provided values
func Sum(values ...Value) Value {
	var ret Value
	for _, v := range values {
		ret = ret.Add(v)
	}
	return ret
}

// Coin returns the lovelace quantity
func (v Value) Coin() uint64 {
	return v.coin
}

// Assets returns the native asset bundle
func (v Value) Assets() MultiAsset {
	return v.assets
}

// HasAssets returns true if any native asset is present
func (v Value) HasAssets() bool {
	return !v.assets.IsZero()
}

// IsZero returns true if neither lovelace nor native assets are present
func (v Value) IsZero() bool {
	return v.coin == 0 && v.assets.IsZero()
}

// WithCoin returns a copy with the lovelace quantity replaced
func (v Value) WithCoin(coin uint64) Value {
	return Value{coin: coin, assets: v.assets}
}

// WithAssets returns a copy with the asset bundle replaced
func (v Value) WithAssets(assets MultiAsset) Value {
	return Value{coin: v.coin, assets: assets}
}

// AssetIDs returns the native asset classes in canonical order
func (v Value) AssetIDs() []AssetID {
	return v.assets.IDs()
}

// Quantity returns the quantity of any asset class, lovelace included
func (v Value) Quantity(id AssetID) *big.Int {
	if id.IsLovelace() {
		return new(big.Int).SetUint64(v.coin)
	}
	return v.assets.Quantity(id)
}

// Add returns the sum of both values
func (v Value) Add(o Value) Value {
	return Value{
		coin:   v.coin + o.coin,
		assets: v.assets.Add(o.assets),
	}
}

// Sub returns v minus o. It fails if any asset class would become negative
func (v Value) Sub(o Value) (Value, error) {
	if v.coin < o.coin {
		return Value{}, fmt.Errorf(
			"%w: lovelace has %d, cannot subtract %d",
			ErrNegativeValue,
			v.coin,
			o.coin,
		)
	}
	assets, err := v.assets.Sub(o.assets)
	if err != nil {
		return Value{}, err
	}
	return Value{
		coin:   v.coin - o.coin,
		assets: assets,
	}, nil
}

// Covers returns true if v holds at least as much as o of every asset class
func (v Value) Covers(o Value) bool {
	return v.coin >= o.coin && v.assets.Covers(o.assets)
}

// Equal returns true if both values hold exactly the same quantities
func (v Value) Equal(o Value) bool {
	return v.coin == o.coin && v.assets.Equal(o.assets)
}

func (v Value) String() string {
	if !v.HasAssets() {
		return fmt.Sprintf("%d lovelace", v.coin)
	}
	return fmt.Sprintf("%d lovelace + %s", v.coin, v.assets.String())
}

// ToLedger returns the gouroboros output value representation
func (v Value) ToLedger() mary.MaryTransactionOutputValue {
	return mary.MaryTransactionOutputValue{
		Amount: v.coin,
		Assets: v.assets.toLedger(),
	}
}

// FromLedger converts a gouroboros coin and asset bundle into a Value
func FromLedger(
	coin uint64,
	assets *lcommon.MultiAsset[lcommon.MultiAssetTypeOutput],
) (Value, error) {
	tmpAssets, err := multiAssetFromLedger(assets)
	if err != nil {
		return Value{}, err
	}
	return Value{coin: coin, assets: tmpAssets}, nil
}

// MarshalCBOR encodes the value in the ledger output value format
func (v Value) MarshalCBOR() ([]byte, error) {
	tmpValue := v.ToLedger()
	return cbor.Encode(&tmpValue)
}

func (v *Value) UnmarshalCBOR(data []byte) error {
	var tmpValue mary.MaryTransactionOutputValue
	if _, err := cbor.Decode(data, &tmpValue); err != nil {
		return err
	}
	tmp, err := FromLedger(tmpValue.Amount, tmpValue.Assets)
	if err != nil {
		return err
	}
	*v = tmp
	return nil
}

// Size returns the length of the serialized value in bytes
func (v Value) Size() (int, error) {
	data, err := v.MarshalCBOR()
	if err != nil {
		return 0, fmt.Errorf("encode value: %w", err)
	}
	return len(data), nil
}

// HexSize returns the length of the serialized value in hex characters,
// which is the unit used by the max value size protocol parameter
func (v Value) HexSize() (int, error) {
	size, err := v.Size()
	if err != nil {
		return 0, err
	}
	return size * 2, nil
}
