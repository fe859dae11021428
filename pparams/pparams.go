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

// Package pparams holds the protocol parameter snapshot used while building
// a transaction.
package pparams

import (
	"errors"
	"fmt"
)

var ErrInvalidParameters = errors.New("invalid protocol parameters")

// ProtocolParameters is a read-only snapshot of the network constants that
// affect transaction building.
//
// MaxTxSize and MaxValSize are expressed in hex characters, which is twice
// the serialized byte length. Size checks compare against 2x the CBOR length
// of the transaction or value being measured.
type ProtocolParameters struct {
	MinFeeA          uint64
	MinFeeB          uint64
	MinUtxo          uint64
	CoinsPerUtxoByte uint64
	MaxTxSize        uint64
	MaxValSize       uint64
	KeyDeposit       uint64
	PoolDeposit      uint64
}

// Mainnet returns the Conway-era mainnet parameters
func Mainnet() *ProtocolParameters {
	return &ProtocolParameters{
		MinFeeA:          44,
		MinFeeB:          155381,
		MinUtxo:          1000000,
		CoinsPerUtxoByte: 4310,
		MaxTxSize:        16384 * 2,
		MaxValSize:       5000 * 2,
		KeyDeposit:       2000000,
		PoolDeposit:      500000000,
	}
}

// Validate checks that the parameters are usable for building a transaction
func (p *ProtocolParameters) Validate() error {
	if p == nil {
		return fmt.Errorf("%w: missing parameters", ErrInvalidParameters)
	}
	if p.MaxTxSize == 0 {
		return fmt.Errorf("%w: max tx size must be positive", ErrInvalidParameters)
	}
	if p.MaxValSize == 0 {
		return fmt.Errorf(
			"%w: max value size must be positive",
			ErrInvalidParameters,
		)
	}
	if p.MinUtxo == 0 && p.CoinsPerUtxoByte == 0 {
		return fmt.Errorf(
			"%w: one of min UTxO or coins per UTxO byte must be set",
			ErrInvalidParameters,
		)
	}
	return nil
}

// LinearFee returns the minimum fee for a transaction of the given size in
// bytes
func (p *ProtocolParameters) LinearFee(txSize int) uint64 {
	if txSize < 0 {
		txSize = 0
	}
	// #nosec G115
	return p.MinFeeA*uint64(txSize) + p.MinFeeB
}

// MaxTxBytes returns the maximum transaction size in bytes
func (p *ProtocolParameters) MaxTxBytes() int {
	// #nosec G115
	return int(p.MaxTxSize / 2)
}

// MaxFee returns the fee of a transaction of the maximum allowed size. It is
// used as a safety margin while selecting inputs
func (p *ProtocolParameters) MaxFee() uint64 {
	return p.LinearFee(p.MaxTxBytes())
}
