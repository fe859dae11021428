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
	"errors"
	"fmt"

	"github.com/blinklabs-io/gouroboros/cbor"
	lcommon "github.com/blinklabs-io/gouroboros/ledger/common"

	"github.com/blinklabs-io/txbuilder/pparams"
)

const (
	certTypeStakeRegistration   = 0
	certTypeStakeDeregistration = 1
	certTypeStakeDelegation     = 2

	credentialTypeKeyHash = 0
)

// Certificate is an already-encoded certificate along with the lovelace it
// locks as a deposit or releases as a refund
type Certificate struct {
	Cbor    []byte
	Deposit uint64
	Refund  uint64
}

// NewCertificate wraps pre-encoded certificate CBOR
func NewCertificate(certCbor []byte, deposit uint64, refund uint64) (Certificate, error) {
	if len(certCbor) == 0 {
		return Certificate{}, errors.New("empty certificate CBOR")
	}
	// Make sure the payload is a single well-formed CBOR item
	var tmpData any
	if _, err := cbor.Decode(certCbor, &tmpData); err != nil {
		return Certificate{}, fmt.Errorf("invalid certificate CBOR: %w", err)
	}
	return Certificate{
		Cbor:    certCbor,
		Deposit: deposit,
		Refund:  refund,
	}, nil
}

// NewStakeRegistration builds a stake key registration certificate. It locks
// the key deposit
func NewStakeRegistration(
	stakeKeyHash lcommon.Blake2b224,
	pp *pparams.ProtocolParameters,
) (Certificate, error) {
	certCbor, err := cbor.Encode(
		[]any{
			certTypeStakeRegistration,
			[]any{credentialTypeKeyHash, stakeKeyHash.Bytes()},
		},
	)
	if err != nil {
		return Certificate{}, fmt.Errorf("encode certificate: %w", err)
	}
	return Certificate{Cbor: certCbor, Deposit: pp.KeyDeposit}, nil
}

// NewStakeDeregistration builds a stake key deregistration certificate. It
// releases the key deposit
func NewStakeDeregistration(
	stakeKeyHash lcommon.Blake2b224,
	pp *pparams.ProtocolParameters,
) (Certificate, error) {
	certCbor, err := cbor.Encode(
		[]any{
			certTypeStakeDeregistration,
			[]any{credentialTypeKeyHash, stakeKeyHash.Bytes()},
		},
	)
	if err != nil {
		return Certificate{}, fmt.Errorf("encode certificate: %w", err)
	}
	return Certificate{Cbor: certCbor, Refund: pp.KeyDeposit}, nil
}

// NewStakeDelegation builds a stake delegation certificate
func NewStakeDelegation(
	stakeKeyHash lcommon.Blake2b224,
	poolKeyHash lcommon.Blake2b224,
) (Certificate, error) {
	certCbor, err := cbor.Encode(
		[]any{
			certTypeStakeDelegation,
			[]any{credentialTypeKeyHash, stakeKeyHash.Bytes()},
			poolKeyHash.Bytes(),
		},
	)
	if err != nil {
		return Certificate{}, fmt.Errorf("encode certificate: %w", err)
	}
	return Certificate{Cbor: certCbor}, nil
}

// NewPoolRegistration wraps a pre-encoded pool registration certificate and
// charges the pool deposit
func NewPoolRegistration(
	certCbor []byte,
	pp *pparams.ProtocolParameters,
) (Certificate, error) {
	return NewCertificate(certCbor, pp.PoolDeposit, 0)
}

// CertificateBalance returns the total deposits and refunds of the provided
// certificates
func CertificateBalance(certs []Certificate) (uint64, uint64) {
	var deposits, refunds uint64
	for _, cert := range certs {
		deposits += cert.Deposit
		refunds += cert.Refund
	}
	return deposits, refunds
}
