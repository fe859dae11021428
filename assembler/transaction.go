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
	"slices"

	lcommon "github.com/blinklabs-io/gouroboros/ledger/common"

	"github.com/blinklabs-io/txbuilder/ledger"
	"github.com/blinklabs-io/txbuilder/value"
)

// Transaction is a finalized, unsigned transaction. Accessors return copies
type Transaction struct {
	bodyCbor      []byte
	cbor          []byte
	hash          lcommon.Blake2b256
	size          int
	fee           uint64
	ttl           uint64
	validityStart uint64
	inputs        []ledger.Utxo
	outputs       []ledger.TxOutput
	changeOutputs []ledger.TxOutput
	certificates  []ledger.Certificate
}

// Cbor returns the unsigned transaction with an empty witness set
func (t *Transaction) Cbor() []byte {
	return slices.Clone(t.cbor)
}

// BodyCbor returns the transaction body, which is what gets signed
func (t *Transaction) BodyCbor() []byte {
	return slices.Clone(t.bodyCbor)
}

// Hash returns the transaction ID
func (t *Transaction) Hash() lcommon.Blake2b256 {
	return t.hash
}

// Size returns the size in bytes of the transaction once its vkey witnesses
// are attached
func (t *Transaction) Size() int {
	return t.size
}

func (t *Transaction) Fee() uint64 {
	return t.fee
}

func (t *Transaction) Ttl() uint64 {
	return t.ttl
}

func (t *Transaction) ValidityStart() uint64 {
	return t.validityStart
}

// Inputs returns the spent UTxOs in selection order
func (t *Transaction) Inputs() []ledger.Utxo {
	return slices.Clone(t.inputs)
}

// Outputs returns the requested outputs
func (t *Transaction) Outputs() []ledger.TxOutput {
	return slices.Clone(t.outputs)
}

// ChangeOutputs returns the outputs returning leftover value, including any
// outputs produced by splitting oversized change
func (t *Transaction) ChangeOutputs() []ledger.TxOutput {
	return slices.Clone(t.changeOutputs)
}

func (t *Transaction) Certificates() []ledger.Certificate {
	return slices.Clone(t.certificates)
}

// InputTotal returns the combined value of the spent UTxOs
func (t *Transaction) InputTotal() value.Value {
	return ledger.SumUtxos(t.inputs)
}

// OutputTotal returns the combined value of all outputs, change included
func (t *Transaction) OutputTotal() value.Value {
	return ledger.SumOutputs(t.outputs).Add(ledger.SumOutputs(t.changeOutputs))
}
