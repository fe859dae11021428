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
	"slices"

	"github.com/blinklabs-io/gouroboros/cbor"
	lcommon "github.com/blinklabs-io/gouroboros/ledger/common"
	"github.com/blinklabs-io/gouroboros/ledger/babbage"
	"github.com/blinklabs-io/gouroboros/ledger/shelley"
	"golang.org/x/crypto/blake2b"

	"github.com/blinklabs-io/txbuilder/ledger"
)

const (
	vkeySize      = 32
	signatureSize = 64
)

// txBody is the Conway transaction body with the fields this package sets
type txBody struct {
	TxInputs                []shelley.ShelleyTransactionInput  `cbor:"0,keyasint"`
	TxOutputs               []babbage.BabbageTransactionOutput `cbor:"1,keyasint"`
	TxFee                   uint64                             `cbor:"2,keyasint"`
	Ttl                     uint64                             `cbor:"3,keyasint,omitempty"`
	TxCertificates          []cbor.RawMessage                  `cbor:"4,keyasint,omitempty"`
	TxValidityIntervalStart uint64                             `cbor:"8,keyasint,omitempty"`
}

// Builder accumulates the parts of a transaction until Finalize produces an
// immutable Transaction
type Builder struct {
	inputs         []ledger.Utxo
	outputs        []ledger.TxOutput
	changeOutputs  []ledger.TxOutput
	certificates   []ledger.Certificate
	fee            uint64
	ttl            uint64
	validityStart  uint64
	extraWitnesses int
	finalized      bool
}

func NewBuilder() *Builder {
	return &Builder{}
}

func (b *Builder) AddInput(utxo ledger.Utxo) *Builder {
	b.inputs = append(b.inputs, utxo)
	return b
}

func (b *Builder) AddOutput(output ledger.TxOutput) *Builder {
	b.outputs = append(b.outputs, output)
	return b
}

// AddChangeOutput adds an output that returns leftover value to the sender.
// Change outputs follow the requested outputs in the body
func (b *Builder) AddChangeOutput(output ledger.TxOutput) *Builder {
	b.changeOutputs = append(b.changeOutputs, output)
	return b
}

func (b *Builder) dropLastChangeOutput() {
	if len(b.changeOutputs) > 0 {
		b.changeOutputs = b.changeOutputs[:len(b.changeOutputs)-1]
	}
}

func (b *Builder) AddCertificate(cert ledger.Certificate) *Builder {
	b.certificates = append(b.certificates, cert)
	return b
}

func (b *Builder) SetFee(fee uint64) *Builder {
	b.fee = fee
	return b
}

func (b *Builder) SetTtl(ttl uint64) *Builder {
	b.ttl = ttl
	return b
}

func (b *Builder) SetValidityStart(slot uint64) *Builder {
	b.validityStart = slot
	return b
}

// SetExtraWitnesses reserves room for signatures beyond one per distinct
// input payment credential, such as stake key signatures for certificates
func (b *Builder) SetExtraWitnesses(count int) *Builder {
	b.extraWitnesses = count
	return b
}

// witnessCount returns the number of vkey witnesses the transaction will
// need once signed
func (b *Builder) witnessCount() int {
	seen := make(map[lcommon.Blake2b224]struct{})
	for _, input := range b.inputs {
		addr := input.Address
		seen[addr.PaymentKeyHash()] = struct{}{}
	}
	return len(seen) + b.extraWitnesses
}

func (b *Builder) body() txBody {
	ret := txBody{
		TxFee:                   b.fee,
		Ttl:                     b.ttl,
		TxValidityIntervalStart: b.validityStart,
	}
	// The input set is encoded in canonical order
	inputs := make([]ledger.TxInput, 0, len(b.inputs))
	for _, utxo := range b.inputs {
		inputs = append(inputs, utxo.Input)
	}
	slices.SortFunc(inputs, ledger.TxInput.Compare)
	for _, input := range inputs {
		ret.TxInputs = append(ret.TxInputs, input.ToShelley())
	}
	for _, output := range b.outputs {
		ret.TxOutputs = append(ret.TxOutputs, output.ToBabbage())
	}
	for _, output := range b.changeOutputs {
		ret.TxOutputs = append(ret.TxOutputs, output.ToBabbage())
	}
	for _, cert := range b.certificates {
		ret.TxCertificates = append(
			ret.TxCertificates,
			cbor.RawMessage(cert.Cbor),
		)
	}
	return ret
}

// encode returns the body CBOR, the unsigned transaction CBOR, and the size
// in bytes of the transaction once signed
func (b *Builder) encode() ([]byte, []byte, int, error) {
	body := b.body()
	bodyCbor, err := cbor.Encode(&body)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("encode body: %w", err)
	}
	// [body, witness_set, is_valid, auxiliary_data]
	unsignedCbor, err := cbor.Encode(
		[]any{
			cbor.RawMessage(bodyCbor),
			map[int]any{},
			true,
			nil,
		},
	)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("encode transaction: %w", err)
	}
	witnessCount := b.witnessCount()
	witnesses := make([]lcommon.VkeyWitness, 0, witnessCount)
	for range witnessCount {
		witnesses = append(
			witnesses,
			lcommon.VkeyWitness{
				Vkey:      make([]byte, vkeySize),
				Signature: make([]byte, signatureSize),
			},
		)
	}
	signedCbor, err := cbor.Encode(
		[]any{
			cbor.RawMessage(bodyCbor),
			map[int]any{0: witnesses},
			true,
			nil,
		},
	)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("encode transaction: %w", err)
	}
	return bodyCbor, unsignedCbor, len(signedCbor), nil
}

// Size returns the size in bytes of the transaction once signed
func (b *Builder) Size() (int, error) {
	_, _, size, err := b.encode()
	return size, err
}

// Finalize produces the immutable transaction. The builder cannot be used
// afterward
func (b *Builder) Finalize() (*Transaction, error) {
	if b.finalized {
		return nil, ErrAlreadyFinalized
	}
	bodyCbor, unsignedCbor, size, err := b.encode()
	if err != nil {
		return nil, err
	}
	b.finalized = true
	return &Transaction{
		bodyCbor:      bodyCbor,
		cbor:          unsignedCbor,
		hash:          lcommon.NewBlake2b256(hashBytes(bodyCbor)),
		size:          size,
		fee:           b.fee,
		ttl:           b.ttl,
		validityStart: b.validityStart,
		inputs:        slices.Clone(b.inputs),
		outputs:       slices.Clone(b.outputs),
		changeOutputs: slices.Clone(b.changeOutputs),
		certificates:  slices.Clone(b.certificates),
	}, nil
}

func hashBytes(data []byte) []byte {
	tmpHash := blake2b.Sum256(data)
	return tmpHash[:]
}
