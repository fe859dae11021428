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

package assembler

import (
	"fmt"
	"math"
	"math/big"

	lcommon "github.com/blinklabs-io/gouroboros/ledger/common"

	"github.com/blinklabs-io/txbuilder/ledger"
	"github.com/blinklabs-io/txbuilder/selection"
	"github.com/blinklabs-io/txbuilder/value"
)

const maxFeeIterations = 10

// valueHexSize measures a value as it would appear in an output. The coin is
// replaced with the widest possible quantity so the measurement holds no
// matter how much lovelace the output ends up carrying
func valueHexSize(assets value.MultiAsset) (uint64, error) {
	size, err := value.NewWithAssets(math.MaxUint64, assets).HexSize()
	if err != nil {
		return 0, err
	}
	// #nosec G115
	return uint64(size), nil
}

// changeBucket is a carved set of change assets and the lovelace the
// output carrying them must hold
type changeBucket struct {
	assets value.MultiAsset
	minAda uint64
}

// planSplit carves native assets off the change assets until what is left
// fits in a single output. Assets are visited in canonical order. The asset
// whose insertion would bring a bucket to the max value size is left for
// the next bucket
func (a *Assembler) planSplit(
	address lcommon.Address,
	assets value.MultiAsset,
) ([]changeBucket, value.MultiAsset, error) {
	var ret []changeBucket
	remaining := assets
	maxValSize := a.config.Params.MaxValSize
	for !remaining.IsZero() {
		size, err := valueHexSize(remaining)
		if err != nil {
			return nil, value.MultiAsset{}, err
		}
		if size <= maxValSize {
			break
		}
		bucket, rest, err := carveBucket(remaining, maxValSize)
		if err != nil {
			return nil, value.MultiAsset{}, err
		}
		minAda, err := a.config.MinAda(address, value.NewWithAssets(0, bucket))
		if err != nil {
			return nil, value.MultiAsset{}, fmt.Errorf("calculate min-ADA: %w", err)
		}
		ret = append(ret, changeBucket{assets: bucket, minAda: minAda})
		remaining = rest
	}
	return ret, remaining, nil
}

// changeMinAda returns the lovelace needed to pay out the change, summed
// over every output the change is split into
func (a *Assembler) changeMinAda(
	address lcommon.Address,
	change value.Value,
) (uint64, error) {
	buckets, rest, err := a.planSplit(address, change.Assets())
	if err != nil {
		return 0, err
	}
	var total uint64
	for _, bucket := range buckets {
		total += bucket.minAda
	}
	remainder := value.NewWithAssets(change.Coin()-min(total, change.Coin()), rest)
	minAda, err := a.config.MinAda(address, remainder)
	if err != nil {
		return 0, fmt.Errorf("calculate min-ADA: %w", err)
	}
	return total + minAda, nil
}

// splitChange turns the planned buckets into change outputs, each holding
// exactly its min-ADA. The returned remainder still carries the fee
func (a *Assembler) splitChange(
	address lcommon.Address,
	change value.Value,
) ([]ledger.TxOutput, value.Value, error) {
	buckets, rest, err := a.planSplit(address, change.Assets())
	if err != nil {
		return nil, value.Value{}, err
	}
	ret := make([]ledger.TxOutput, 0, len(buckets))
	coin := change.Coin()
	for _, bucket := range buckets {
		if coin < bucket.minAda {
			return nil, value.Value{}, selection.NewInsufficientFundsError(
				value.Lovelace,
				new(big.Int).SetUint64(change.Coin()-coin+bucket.minAda),
				new(big.Int).SetUint64(change.Coin()),
			)
		}
		ret = append(
			ret,
			ledger.TxOutput{
				Address: address,
				Amount:  value.NewWithAssets(bucket.minAda, bucket.assets),
			},
		)
		coin -= bucket.minAda
	}
	if len(ret) > 0 {
		a.config.Logger.Debug(
			"split change",
			"component", "assembler",
			"outputs", len(ret),
			"remaining_assets", rest.Len(),
		)
	}
	return ret, value.NewWithAssets(coin, rest), nil
}

// carveBucket fills a bucket with assets in canonical order until the next
// asset would bring it to the max value size
func carveBucket(
	assets value.MultiAsset,
	maxValSize uint64,
) (value.MultiAsset, value.MultiAsset, error) {
	var bucket value.MultiAsset
	for _, id := range assets.IDs() {
		candidate := bucket.With(id, assets.Quantity(id))
		size, err := valueHexSize(candidate)
		if err != nil {
			return value.MultiAsset{}, value.MultiAsset{}, err
		}
		if size >= maxValSize {
			if bucket.IsZero() {
				return value.MultiAsset{}, value.MultiAsset{}, fmt.Errorf(
					"%w: %s",
					ErrValueTooLarge,
					id.String(),
				)
			}
			break
		}
		bucket = candidate
	}
	rest, err := assets.Sub(bucket)
	if err != nil {
		return value.MultiAsset{}, value.MultiAsset{}, err
	}
	return bucket, rest, nil
}

// settleFee splits the remainder between the fee and a final change output.
// ADA-only change too small to stand as an output is added to the fee
func (a *Assembler) settleFee(
	b *Builder,
	address lcommon.Address,
	remainder value.Value,
	estimatedFee uint64,
) error {
	fee, err := a.minFee(b, estimatedFee)
	if err != nil {
		return err
	}
	for range maxFeeIterations {
		if remainder.Coin() < fee {
			return selection.NewInsufficientFundsError(
				value.Lovelace,
				new(big.Int).SetUint64(fee),
				new(big.Int).SetUint64(remainder.Coin()),
			)
		}
		change := remainder.WithCoin(remainder.Coin() - fee)
		if change.IsZero() {
			b.SetFee(fee)
			return nil
		}
		minAda, err := a.config.MinAda(address, change)
		if err != nil {
			return fmt.Errorf("calculate min-ADA: %w", err)
		}
		if change.Coin() < minAda {
			if change.HasAssets() {
				return selection.NewInsufficientFundsError(
					value.Lovelace,
					new(big.Int).SetUint64(fee+minAda),
					new(big.Int).SetUint64(remainder.Coin()),
				)
			}
			a.config.Logger.Debug(
				"change below min-ADA, adding it to the fee",
				"component", "assembler",
				"change", change.Coin(),
				"min_ada", minAda,
			)
			b.SetFee(remainder.Coin())
			return nil
		}
		b.AddChangeOutput(ledger.TxOutput{Address: address, Amount: change})
		required, err := a.minFee(b, fee)
		if err != nil {
			return err
		}
		if required <= fee {
			b.SetFee(fee)
			return nil
		}
		// The change output made the transaction more expensive. Take it
		// back out and try again with the higher fee
		b.dropLastChangeOutput()
		fee = required
	}
	return ErrFeeNotConverged
}

// minFee returns the smallest fee, starting from the given lower bound,
// that pays for the transaction with that fee encoded in it. The builder's
// fee is left at the returned value
func (a *Assembler) minFee(b *Builder, lowerBound uint64) (uint64, error) {
	fee := lowerBound
	for range maxFeeIterations {
		b.SetFee(fee)
		size, err := b.Size()
		if err != nil {
			return 0, err
		}
		required := a.config.Params.LinearFee(size)
		if required <= fee {
			return fee, nil
		}
		fee = required
	}
	return 0, ErrFeeNotConverged
}
