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

package value

import (
	"fmt"
	"math/big"
	"slices"
	"strings"

	"github.com/blinklabs-io/gouroboros/cbor"
	lcommon "github.com/blinklabs-io/gouroboros/ledger/common"
)

// MultiAsset is an immutable collection of native asset quantities. Zero
// quantities are never stored, and the lovelace class is never present
type MultiAsset struct {
	data map[AssetID]*big.Int
}

// NewMultiAsset creates a MultiAsset from the provided quantities. The input
// map is copied, and zero quantities are dropped. Negative quantities and
// the lovelace class are rejected
func NewMultiAsset(quantities map[AssetID]*big.Int) (MultiAsset, error) {
	ret := MultiAsset{}
	for id, qty := range quantities {
		if id.IsLovelace() {
			return MultiAsset{}, fmt.Errorf(
				"%w: lovelace is not a native asset",
				ErrInvalidQuantity,
			)
		}
		if qty == nil || qty.Sign() == 0 {
			continue
		}
		if qty.Sign() < 0 {
			return MultiAsset{}, fmt.Errorf(
				"%w: negative quantity %s for asset %s",
				ErrInvalidQuantity,
				qty.String(),
				id.String(),
			)
		}
		if ret.data == nil {
			ret.data = make(map[AssetID]*big.Int, len(quantities))
		}
		ret.data[id] = new(big.Int).Set(qty)
	}
	return ret, nil
}

// Len returns the number of distinct asset classes
func (m MultiAsset) Len() int {
	return len(m.data)
}

// IsZero returns true when no asset carries a positive quantity
func (m MultiAsset) IsZero() bool {
	return len(m.data) == 0
}

// IDs returns the asset classes in canonical order
func (m MultiAsset) IDs() []AssetID {
	ret := make([]AssetID, 0, len(m.data))
	for id := range m.data {
		ret = append(ret, id)
	}
	slices.SortFunc(ret, AssetID.Compare)
	return ret
}

// Policies returns the distinct policy IDs in canonical order
func (m MultiAsset) Policies() []lcommon.Blake2b224 {
	seen := make(map[lcommon.Blake2b224]struct{}, len(m.data))
	ret := make([]lcommon.Blake2b224, 0, len(m.data))
	for _, id := range m.IDs() {
		if _, ok := seen[id.Policy]; ok {
			continue
		}
		seen[id.Policy] = struct{}{}
		ret = append(ret, id.Policy)
	}
	return ret
}

// Quantity returns a copy of the quantity held for the asset class, or zero
func (m MultiAsset) Quantity(id AssetID) *big.Int {
	if qty, ok := m.data[id]; ok {
		return new(big.Int).Set(qty)
	}
	return new(big.Int)
}

// Has returns true if the asset class carries a positive quantity
func (m MultiAsset) Has(id AssetID) bool {
	_, ok := m.data[id]
	return ok
}

// With returns a copy with the quantity for the asset class replaced.
// A zero or nil quantity removes the asset class
func (m MultiAsset) With(id AssetID, qty *big.Int) MultiAsset {
	ret := m.clone()
	if qty == nil || qty.Sign() <= 0 {
		delete(ret.data, id)
		return ret
	}
	if ret.data == nil {
		ret.data = make(map[AssetID]*big.Int)
	}
	ret.data[id] = new(big.Int).Set(qty)
	return ret
}

// Without returns a copy with the asset class removed
func (m MultiAsset) Without(id AssetID) MultiAsset {
	return m.With(id, nil)
}

// Add returns the per-asset sum of both collections
func (m MultiAsset) Add(o MultiAsset) MultiAsset {
	ret := m.clone()
	for id, qty := range o.data {
		if ret.data == nil {
			ret.data = make(map[AssetID]*big.Int, len(o.data))
		}
		if cur, ok := ret.data[id]; ok {
			ret.data[id] = new(big.Int).Add(cur, qty)
		} else {
			ret.data[id] = new(big.Int).Set(qty)
		}
	}
	return ret
}

// Sub returns the per-asset difference. It fails if any asset class of o
// exceeds the quantity held by m
func (m MultiAsset) Sub(o MultiAsset) (MultiAsset, error) {
	ret := m.clone()
	for _, id := range o.IDs() {
		qty := o.data[id]
		cur := ret.data[id]
		if cur == nil || cur.Cmp(qty) < 0 {
			have := new(big.Int)
			if cur != nil {
				have.Set(cur)
			}
			return MultiAsset{}, fmt.Errorf(
				"%w: asset %s has %s, cannot subtract %s",
				ErrNegativeValue,
				id.String(),
				have.String(),
				qty.String(),
			)
		}
		diff := new(big.Int).Sub(cur, qty)
		if diff.Sign() == 0 {
			delete(ret.data, id)
		} else {
			ret.data[id] = diff
		}
	}
	return ret, nil
}

// Covers returns true if m holds at least the quantity of every asset in o
func (m MultiAsset) Covers(o MultiAsset) bool {
	for id, qty := range o.data {
		cur, ok := m.data[id]
		if !ok || cur.Cmp(qty) < 0 {
			return false
		}
	}
	return true
}

// Equal returns true if both collections hold exactly the same quantities
func (m MultiAsset) Equal(o MultiAsset) bool {
	if len(m.data) != len(o.data) {
		return false
	}
	return m.Covers(o)
}

func (m MultiAsset) String() string {
	ids := m.IDs()
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, id.String()+":"+m.data[id].String())
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// toLedger builds the gouroboros representation used for CBOR encoding.
// It returns nil for an empty collection so that the containing value is
// encoded as a bare coin
func (m MultiAsset) toLedger() *lcommon.MultiAsset[lcommon.MultiAssetTypeOutput] {
	if len(m.data) == 0 {
		return nil
	}
	tmpData := make(
		map[lcommon.Blake2b224]map[cbor.ByteString]lcommon.MultiAssetTypeOutput,
	)
	for id, qty := range m.data {
		policyData, ok := tmpData[id.Policy]
		if !ok {
			policyData = make(
				map[cbor.ByteString]lcommon.MultiAssetTypeOutput,
			)
			tmpData[id.Policy] = policyData
		}
		policyData[cbor.NewByteString([]byte(id.Name))] = new(big.Int).Set(qty)
	}
	ret := lcommon.NewMultiAsset[lcommon.MultiAssetTypeOutput](tmpData)
	return &ret
}

// multiAssetFromLedger copies a gouroboros multi-asset into a MultiAsset
func multiAssetFromLedger(
	assets *lcommon.MultiAsset[lcommon.MultiAssetTypeOutput],
) (MultiAsset, error) {
	if assets == nil {
		return MultiAsset{}, nil
	}
	tmpData := make(map[AssetID]*big.Int)
	for _, policyId := range assets.Policies() {
		for _, assetName := range assets.Assets(policyId) {
			id, err := NewAssetID(policyId.Bytes(), assetName)
			if err != nil {
				return MultiAsset{}, err
			}
			tmpData[id] = assets.Asset(policyId, assetName)
		}
	}
	return NewMultiAsset(tmpData)
}

func (m MultiAsset) clone() MultiAsset {
	if len(m.data) == 0 {
		return MultiAsset{}
	}
	ret := MultiAsset{
		data: make(map[AssetID]*big.Int, len(m.data)),
	}
	// Quantities are never mutated in place, so sharing them is safe
	for id, qty := range m.data {
		ret.data[id] = qty
	}
	return ret
}
