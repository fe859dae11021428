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

package types

import (
	"encoding/binary"
	"encoding/hex"
	"slices"

	lcommon "github.com/blinklabs-io/gouroboros/ledger/common"

	"github.com/blinklabs-io/txbuilder/ledger"
)

const (
	UtxoKeyPrefix      = "utxo/"
	UtxoInputKeyPrefix = "input/"
)

func inputBytes(input ledger.TxInput) []byte {
	idxBytes := make([]byte, 4)
	binary.BigEndian.PutUint32(idxBytes, input.Index)
	return slices.Concat(input.TxId.Bytes(), idxBytes)
}

// UtxoAddressPrefix returns the key prefix shared by every UTxO held at the
// address. Address bytes are hex encoded so that no address is a prefix of
// another
func UtxoAddressPrefix(address lcommon.Address) ([]byte, error) {
	addrBytes, err := address.Bytes()
	if err != nil {
		return nil, err
	}
	return slices.Concat(
		[]byte(UtxoKeyPrefix),
		[]byte(hex.EncodeToString(addrBytes)),
		[]byte("/"),
	), nil
}

// UtxoKey returns the key holding the output CBOR of a UTxO
func UtxoKey(address lcommon.Address, input ledger.TxInput) ([]byte, error) {
	prefix, err := UtxoAddressPrefix(address)
	if err != nil {
		return nil, err
	}
	return slices.Concat(prefix, inputBytes(input)), nil
}

// UtxoInputKey returns the key pointing from an input to its UtxoKey
func UtxoInputKey(input ledger.TxInput) []byte {
	return slices.Concat([]byte(UtxoInputKeyPrefix), inputBytes(input))
}

// UtxoInputFromKey recovers the input from the tail of a UtxoKey
func UtxoInputFromKey(key []byte) (ledger.TxInput, bool) {
	if len(key) < lcommon.Blake2b256Size+4 {
		return ledger.TxInput{}, false
	}
	tail := key[len(key)-(lcommon.Blake2b256Size+4):]
	return ledger.TxInput{
		TxId:  lcommon.NewBlake2b256(tail[:lcommon.Blake2b256Size]),
		Index: binary.BigEndian.Uint32(tail[lcommon.Blake2b256Size:]),
	}, true
}
