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


// Package txbuilder builds unsigned Cardano transactions from the UTxOs held
// at a set of addresses, selecting inputs with random-improve and splitting
// change that is too large for a single output.
package txbuilder

import (
	"context"
	"errors"
	"fmt"
	"sync"

	lcommon "github.com/blinklabs-io/gouroboros/ledger/common"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/blinklabs-io/txbuilder/assembler"
	"github.com/blinklabs-io/txbuilder/ledger"
)

var ErrNoUtxoSource = errors.New("no UTxO source configured")

type TxBuilder struct {
	config         Config
	assembler      *assembler.Assembler
	tracerProvider *sdktrace.TracerProvider
	closeOnce      sync.Once
}

func New(cfg Config) (*TxBuilder, error) {
	t := &TxBuilder{
		config: cfg,
	}
	// Resources handed over through the config are released on failure
	if err := t.configValidate(); err != nil {
		return nil, errors.Join(
			fmt.Errorf("invalid configuration: %w", err),
			t.Close(),
		)
	}
	// Configure tracing
	if t.config.tracing {
		if err := t.setupTracing(); err != nil {
			return nil, errors.Join(err, t.Close())
		}
	}
	asmCfg := assembler.Config{
		Logger:             t.config.logger,
		PromRegistry:       t.config.promRegistry,
		Params:             t.config.params,
		Strategy:           t.config.strategy,
		NewRandom:          t.config.newRandom,
		BaseSelectionLimit: t.config.baseSelectionLimit,
	}
	if t.tracerProvider != nil {
		asmCfg.TracerProvider = t.tracerProvider
	}
	asm, err := assembler.New(asmCfg)
	if err != nil {
		return nil, errors.Join(err, t.Close())
	}
	t.assembler = asm
	return t, nil
}

func (t *TxBuilder) configValidate() error {
	if t.config.params == nil {
		return errors.New("no protocol parameters")
	}
	if err := t.config.params.Validate(); err != nil {
		return err
	}
	if t.config.baseSelectionLimit < 0 {
		return fmt.Errorf(
			"invalid base selection limit: %d",
			t.config.baseSelectionLimit,
		)
	}
	if t.config.tracingStdout && !t.config.tracing {
		return errors.New("tracing stdout requires tracing to be enabled")
	}
	return nil
}

// Build fetches the UTxOs held at the source addresses and builds a
// transaction paying the outputs, with change going to the change address
func (t *TxBuilder) Build(
	ctx context.Context,
	addresses []lcommon.Address,
	outputs []ledger.TxOutput,
	changeAddress lcommon.Address,
	certs []ledger.Certificate,
) (*assembler.Transaction, error) {
	utxos, err := t.Utxos(ctx, addresses)
	if err != nil {
		return nil, err
	}
	return t.assembler.Build(
		ctx,
		assembler.BuildRequest{
			ChangeAddress: changeAddress,
			Utxos:         utxos,
			Outputs:       outputs,
			Certificates:  certs,
		},
	)
}

// BuildRequest builds a transaction from an explicit set of UTxOs
func (t *TxBuilder) BuildRequest(
	ctx context.Context,
	req assembler.BuildRequest,
) (*assembler.Transaction, error) {
	return t.assembler.Build(ctx, req)
}

// Utxos returns the UTxOs held at the addresses, in address order. A UTxO
// reported for more than one address is returned once
func (t *TxBuilder) Utxos(
	ctx context.Context,
	addresses []lcommon.Address,
) ([]ledger.Utxo, error) {
	if t.config.utxoSource == nil {
		return nil, ErrNoUtxoSource
	}
	var ret []ledger.Utxo
	seen := make(map[ledger.TxInput]struct{})
	for _, address := range addresses {
		utxos, err := t.config.utxoSource.UtxosByAddress(ctx, address)
		if err != nil {
			return nil, fmt.Errorf(
				"lookup UTxOs for %s: %w",
				address.String(),
				err,
			)
		}
		for _, utxo := range utxos {
			if _, ok := seen[utxo.Input]; ok {
				continue
			}
			seen[utxo.Input] = struct{}{}
			ret = append(ret, utxo)
		}
	}
	t.config.logger.Debug(
		"fetched UTxOs",
		"component", "txbuilder",
		"addresses", len(addresses),
		"utxos", len(ret),
	)
	return ret, nil
}

// Assembler returns the underlying transaction assembler
func (t *TxBuilder) Assembler() *assembler.Assembler {
	return t.assembler
}

// Close flushes pending spans and releases resources opened on behalf of
// the TxBuilder
func (t *TxBuilder) Close() error {
	var err error
	t.closeOnce.Do(func() {
		if t.tracerProvider != nil {
			if shutdownErr := t.tracerProvider.Shutdown(context.Background()); shutdownErr != nil {
				err = errors.Join(err, fmt.Errorf("tracing shutdown: %w", shutdownErr))
			}
		}
		for _, closeFunc := range t.config.closeFuncs {
			err = errors.Join(err, closeFunc())
		}
	})
	return err
}
