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
	"bytes"
	"encoding/hex"
	"fmt"

	lcommon "github.com/blinklabs-io/gouroboros/ledger/common"
)

const (
	// PolicyIdSize is the length of a minting policy ID in bytes
	PolicyIdSize = lcommon.Blake2b224Size
	// MaxAssetNameSize is the maximum length of an asset name in bytes
	MaxAssetNameSize = 32
)

// AssetID identifies a class of value. The zero AssetID is lovelace.
type AssetID struct {
	Policy lcommon.Blake2b224
	// Name holds the raw asset name bytes. A string is used so that
	// AssetID stays comparable and usable as a map key
	Name string
}

// Lovelace is the asset class of the base currency
var Lovelace = AssetID{}

// NewAssetID creates an AssetID from a policy ID and raw asset name
func NewAssetID(policyId []byte, assetName []byte) (AssetID, error) {
	if len(policyId) != PolicyIdSize {
		return AssetID{}, fmt.Errorf(
			"invalid policy ID length: expected %d, got %d",
			PolicyIdSize,
			len(policyId),
		)
	}
	if len(assetName) > MaxAssetNameSize {
		return AssetID{}, fmt.Errorf(
			"asset name too long: %d bytes (max %d)",
			len(assetName),
			MaxAssetNameSize,
		)
	}
	return AssetID{
		Policy: lcommon.NewBlake2b224(policyId),
		Name:   string(assetName),
	}, nil
}

// MustAssetID is like NewAssetID but panics on invalid input. It is meant
// for tests and package-level fixtures
func MustAssetID(policyId []byte, assetName []byte) AssetID {
	id, err := NewAssetID(policyId, assetName)
	if err != nil {
		panic(err)
	}
	return id
}

// IsLovelace returns true for the base currency asset class
func (a AssetID) IsLovelace() bool {
	return a == Lovelace
}

// NameBytes returns a copy of the raw asset name
func (a AssetID) NameBytes() []byte {
	return []byte(a.Name)
}

// Compare orders asset IDs by policy ID bytes and then by asset name bytes.
// Lovelace sorts before every native asset
func (a AssetID) Compare(b AssetID) int {
	if ret := bytes.Compare(a.Policy[:], b.Policy[:]); ret != 0 {
		return ret
	}
	return bytes.Compare([]byte(a.Name), []byte(b.Name))
}

func (a AssetID) String() string {
	if a.IsLovelace() {
		return "lovelace"
	}
	return a.Policy.String() + "." + hex.EncodeToString([]byte(a.Name))
}

// Fingerprint returns the CIP-14 asset fingerprint
func (a AssetID) Fingerprint() string {
	if a.IsLovelace() {
		return ""
	}
	return lcommon.NewAssetFingerprint(
		a.Policy.Bytes(),
		[]byte(a.Name),
	).String()
}
