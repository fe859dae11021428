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

package ledger

import (
	"math"

	lcommon "github.com/blinklabs-io/gouroboros/ledger/common"

	"github.com/blinklabs-io/txbuilder/pparams"
	"github.com/blinklabs-io/txbuilder/value"
)

const (
	// babbageOutputOverhead is the per-output UTxO entry overhead in bytes
	// added by the Babbage min-ADA rule
	babbageOutputOverhead = 160
	// adaOnlyUtxoSize is the size in words of an ADA-only UTxO entry used
	// by the Mary/Alonzo min-ADA rule
	adaOnlyUtxoSize = 27
)

// MinAdaFunc returns the minimum lovelace an output carrying the given value
// to the given address must hold.
//
// The lovelace quantity of the value is ignored. Sizes are measured with a
// maximum-width coin so that the result does not shrink once the real coin
// quantity is filled in.
type MinAdaFunc func(address lcommon.Address, amount value.Value) (uint64, error)

// MinAdaForParameters picks the min-ADA rule matching the parameters: the
// Babbage per-byte rule when a per-byte cost is set, the Mary rule otherwise
func MinAdaForParameters(pp *pparams.ProtocolParameters) MinAdaFunc {
	if pp.CoinsPerUtxoByte > 0 {
		return BabbageMinAda(pp.CoinsPerUtxoByte)
	}
	return MaryMinAda(pp.MinUtxo)
}

// BabbageMinAda implements (160 + serialized output size) * coinsPerUtxoByte
func BabbageMinAda(coinsPerUtxoByte uint64) MinAdaFunc {
	return func(address lcommon.Address, amount value.Value) (uint64, error) {
		tmpOutput := TxOutput{
			Address: address,
			Amount:  amount.WithCoin(math.MaxUint64),
		}
		size, err := tmpOutput.Size()
		if err != nil {
			return 0, err
		}
		// #nosec G115
		return (babbageOutputOverhead + uint64(size)) * coinsPerUtxoByte, nil
	}
}

// MaryMinAda implements the pre-Babbage rule, which scales minUtxo by the
// serialized size of the value in 8-byte words
func MaryMinAda(minUtxo uint64) MinAdaFunc {
	return func(_ lcommon.Address, amount value.Value) (uint64, error) {
		if !amount.HasAssets() {
			return minUtxo, nil
		}
		size, err := amount.WithCoin(math.MaxUint64).Size()
		if err != nil {
			return 0, err
		}
		// #nosec G115
		words := (uint64(size) + 7) / 8
		scaled := (minUtxo / adaOnlyUtxoSize) * (adaOnlyUtxoSize + words)
		return max(minUtxo, scaled), nil
	}
}
