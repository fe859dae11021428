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
	"fmt"

	gledger "github.com/blinklabs-io/gouroboros/ledger"

	"github.com/blinklabs-io/txbuilder/value"
)

// NewUtxoFromCbor decodes a transaction output in any era's native CBOR
// format and pairs it with its input reference
func NewUtxoFromCbor(input TxInput, outputCbor []byte) (Utxo, error) {
	txOut, err := gledger.NewTransactionOutputFromCbor(outputCbor)
	if err != nil {
		return Utxo{}, fmt.Errorf(
			"decode output %s: %w",
			input.String(),
			err,
		)
	}
	coin := txOut.Amount()
	if coin == nil || coin.Sign() < 0 || !coin.IsUint64() {
		return Utxo{}, fmt.Errorf(
			"decode output %s: lovelace amount out of range",
			input.String(),
		)
	}
	amount, err := value.FromLedger(coin.Uint64(), txOut.Assets())
	if err != nil {
		return Utxo{}, fmt.Errorf(
			"decode output %s value: %w",
			input.String(),
			err,
		)
	}
	return Utxo{
		Input:   input,
		Address: txOut.Address(),
		Amount:  amount,
	}, nil
}

// Cbor returns the native Babbage-era CBOR encoding of the UTxO's output
func (u Utxo) Cbor() ([]byte, error) {
	tmpOutput := TxOutput{Address: u.Address, Amount: u.Amount}
	return tmpOutput.Cbor()
}
