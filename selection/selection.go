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

// Package selection picks the transaction inputs that cover a set of
// requested outputs.
package selection

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"

	lcommon "github.com/blinklabs-io/gouroboros/ledger/common"

	"github.com/blinklabs-io/txbuilder/ledger"
	"github.com/blinklabs-io/txbuilder/pparams"
	"github.com/blinklabs-io/txbuilder/value"
)

var ErrInsufficientFunds = errors.New("insufficient funds")

// InsufficientFundsError reports the asset class that could not be covered
type InsufficientFundsError struct {
	Asset     value.AssetID
	Required  *big.Int
	Available *big.Int
}

// NewInsufficientFundsError builds an InsufficientFundsError
func NewInsufficientFundsError(
	asset value.AssetID,
	required *big.Int,
	available *big.Int,
) *InsufficientFundsError {
	return &InsufficientFundsError{
		Asset:     asset,
		Required:  new(big.Int).Set(required),
		Available: new(big.Int).Set(available),
	}
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf(
		"insufficient funds: %s required %s, available %s",
		e.Asset.String(),
		e.Required.String(),
		e.Available.String(),
	)
}

func (e *InsufficientFundsError) Is(target error) bool {
	return target == ErrInsufficientFunds
}

func (e *InsufficientFundsError) Unwrap() error {
	return ErrInsufficientFunds
}

// FeeEstimator returns the fee of a transaction spending the given inputs
// and paying the given outputs, before any change is added
type FeeEstimator func(inputs []ledger.Utxo, outputs []ledger.TxOutput) (uint64, error)

// Selector chooses inputs covering the requested outputs. The limit bounds
// the number of inputs picked at random before falling back to
// deterministic selection
type Selector interface {
	Select(
		available []ledger.Utxo,
		outputs []ledger.TxOutput,
		limit int,
	) (*Result, error)
}

// Strategy creates a Selector for a single build
type Strategy func(Config) Selector

// Config carries everything a selector needs besides the candidate UTxOs
// and the requested outputs
type Config struct {
	Logger       *slog.Logger
	Params       *pparams.ProtocolParameters
	MinAda       ledger.MinAdaFunc
	FeeEstimator FeeEstimator
	Random       RandomSource
	// ChangeAddress is used to size the change output for min-ADA checks
	ChangeAddress lcommon.Address
	// ChangeMinAda returns the lovelace the change must hold to be paid out.
	// It defaults to the min-ADA of a single output at ChangeAddress. Callers
	// that split large change across several outputs supply the sum over
	// those outputs
	ChangeMinAda func(change value.Value) (uint64, error)
	// Deposit is the lovelace locked by certificates
	Deposit uint64
	// Refund is the lovelace released by certificates
	Refund uint64
}

func (c *Config) setDefaults() {
	if c.Logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		c.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if c.Random == nil {
		c.Random = NewRandom()
	}
	if c.MinAda == nil && c.Params != nil {
		c.MinAda = ledger.MinAdaForParameters(c.Params)
	}
	if c.ChangeMinAda == nil && c.MinAda != nil {
		minAda := c.MinAda
		address := c.ChangeAddress
		c.ChangeMinAda = func(change value.Value) (uint64, error) {
			return minAda(address, change)
		}
	}
	if c.FeeEstimator == nil {
		c.FeeEstimator = func([]ledger.Utxo, []ledger.TxOutput) (uint64, error) {
			return 0, nil
		}
	}
}

// Result is the outcome of a successful selection
type Result struct {
	// Inputs are in selection order
	Inputs       []ledger.Utxo
	Total        value.Value
	Change       value.Value
	EstimatedFee uint64
}
