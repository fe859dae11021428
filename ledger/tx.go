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

// Package ledger contains the transaction primitives consumed by coin
// selection, along with the ledger rules needed to size and balance them.
package ledger

import (
	"bytes"
	"cmp"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/blinklabs-io/gouroboros/cbor"
	lcommon "github.com/blinklabs-io/gouroboros/ledger/common"
	"github.com/blinklabs-io/gouroboros/ledger/babbage"
	"github.com/blinklabs-io/gouroboros/ledger/shelley"

	"github.com/blinklabs-io/txbuilder/value"
)

// TxInput references a transaction output by transaction ID and index
type TxInput struct {
	TxId  lcommon.Blake2b256
	Index uint32
}

// NewTxInput creates an input reference from a hex transaction ID
func NewTxInput(txIdHex string, index uint32) (TxInput, error) {
	txId, err := hex.DecodeString(txIdHex)
	if err != nil {
		return TxInput{}, fmt.Errorf("invalid tx hash hex: %w", err)
	}
	if len(txId) != lcommon.Blake2b256Size {
		return TxInput{}, fmt.Errorf(
			"tx hash must be %d bytes, got %d",
			lcommon.Blake2b256Size,
			len(txId),
		)
	}
	return TxInput{
		TxId:  lcommon.NewBlake2b256(txId),
		Index: index,
	}, nil
}

// ParseTxInput parses an input reference in the form <txid>#<index>
func ParseTxInput(ref string) (TxInput, error) {
	txIdHex, idxStr, ok := strings.Cut(ref, "#")
	if !ok {
		return TxInput{}, fmt.Errorf("invalid input reference: %s", ref)
	}
	idx, err := strconv.ParseUint(idxStr, 10, 32)
	if err != nil {
		return TxInput{}, fmt.Errorf("invalid output index: %s", idxStr)
	}
	return NewTxInput(txIdHex, uint32(idx))
}

func (i TxInput) String() string {
	return fmt.Sprintf("%s#%d", i.TxId.String(), i.Index)
}

// Compare orders inputs by transaction ID and then by output index, which
// matches the ordering the ledger applies to the input set
func (i TxInput) Compare(o TxInput) int {
	if ret := bytes.Compare(i.TxId[:], o.TxId[:]); ret != 0 {
		return ret
	}
	return cmp.Compare(i.Index, o.Index)
}

// ToShelley returns the wire representation of the input
func (i TxInput) ToShelley() shelley.ShelleyTransactionInput {
	return shelley.ShelleyTransactionInput{
		TxId:        i.TxId,
		OutputIndex: i.Index,
	}
}

// Utxo is an unspent output available for selection
type Utxo struct {
	Input   TxInput
	Address lcommon.Address
	Amount  value.Value
}

func (u Utxo) String() string {
	return fmt.Sprintf("%s (%s)", u.Input.String(), u.Amount.String())
}

// TxOutput is a requested or generated transaction output
type TxOutput struct {
	Address lcommon.Address
	Amount  value.Value
}

// NewTxOutput creates an output paying to a bech32 or base58 address
func NewTxOutput(address string, amount value.Value) (TxOutput, error) {
	addr, err := lcommon.NewAddress(address)
	if err != nil {
		return TxOutput{}, fmt.Errorf("invalid address: %w", err)
	}
	return TxOutput{
		Address: addr,
		Amount:  amount,
	}, nil
}

// ToBabbage returns the wire representation of the output
func (o TxOutput) ToBabbage() babbage.BabbageTransactionOutput {
	return babbage.BabbageTransactionOutput{
		OutputAddress: o.Address,
		OutputAmount:  o.Amount.ToLedger(),
	}
}

// Cbor returns the Babbage-era encoding of the output
func (o TxOutput) Cbor() ([]byte, error) {
	tmpOutput := o.ToBabbage()
	data, err := cbor.Encode(&tmpOutput)
	if err != nil {
		return nil, fmt.Errorf("encode output: %w", err)
	}
	return data, nil
}

// Size returns the serialized size of the output in bytes
func (o TxOutput) Size() (int, error) {
	data, err := o.Cbor()
	if err != nil {
		return 0, err
	}
	return len(data), nil
}

// SumOutputs returns the combined value of all outputs
func SumOutputs(outputs []TxOutput) value.Value {
	var ret value.Value
	for _, out := range outputs {
		ret = ret.Add(out.Amount)
	}
	return ret
}

// SumUtxos returns the combined value of all UTxOs
func SumUtxos(utxos []Utxo) value.Value {
	var ret value.Value
	for _, utxo := range utxos {
		ret = ret.Add(utxo.Amount)
	}
	return ret
}
