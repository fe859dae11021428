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

// Package assembler builds balanced, fee-correct, unsigned transactions from
// a set of candidate UTxOs and requested outputs.
package assembler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	lcommon "github.com/blinklabs-io/gouroboros/ledger/common"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/blinklabs-io/txbuilder/ledger"
	"github.com/blinklabs-io/txbuilder/pparams"
	"github.com/blinklabs-io/txbuilder/selection"
	"github.com/blinklabs-io/txbuilder/value"
)

const (
	DefaultBaseSelectionLimit = 20

	tracerName = "github.com/blinklabs-io/txbuilder/assembler"
)

type Config struct {
	Logger         *slog.Logger
	PromRegistry   prometheus.Registerer
	TracerProvider trace.TracerProvider
	Params         *pparams.ProtocolParameters
	// MinAda defaults to the rule matching Params
	MinAda ledger.MinAdaFunc
	// Strategy defaults to random-improve
	Strategy selection.Strategy
	// NewRandom creates the random source for each build. Returning a
	// source seeded the same way every time makes builds reproducible
	NewRandom func() selection.RandomSource
	// BaseSelectionLimit is the selection attempt budget before one unit is
	// added per native asset class in the requested outputs
	BaseSelectionLimit int
}

// BuildRequest describes the transaction to build
type BuildRequest struct {
	ChangeAddress lcommon.Address
	Utxos         []ledger.Utxo
	Outputs       []ledger.TxOutput
	Certificates  []ledger.Certificate
	Ttl           uint64
	ValidityStart uint64
	// ExtraWitnesses reserves room for signatures not implied by the inputs
	ExtraWitnesses int
}

type Assembler struct {
	config  Config
	metrics assemblerMetrics
	tracer  trace.Tracer
}

func New(cfg Config) (*Assembler, error) {
	if err := cfg.Params.Validate(); err != nil {
		return nil, err
	}
	if cfg.Logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if cfg.TracerProvider == nil {
		cfg.TracerProvider = otel.GetTracerProvider()
	}
	if cfg.MinAda == nil {
		cfg.MinAda = ledger.MinAdaForParameters(cfg.Params)
	}
	if cfg.Strategy == nil {
		cfg.Strategy = selection.NewRandomImprove
	}
	if cfg.NewRandom == nil {
		cfg.NewRandom = selection.NewRandom
	}
	if cfg.BaseSelectionLimit <= 0 {
		cfg.BaseSelectionLimit = DefaultBaseSelectionLimit
	}
	a := &Assembler{
		config: cfg,
		tracer: cfg.TracerProvider.Tracer(tracerName),
	}
	a.metrics.init(cfg.PromRegistry)
	return a, nil
}

// Build selects inputs, balances the transaction, and finalizes it. The
// possible failures are insufficient funds (selection.ErrInsufficientFunds)
// and an oversized transaction (ErrTransactionTooLarge). Neither is retried
func (a *Assembler) Build(
	ctx context.Context,
	req BuildRequest,
) (*Transaction, error) {
	ctx, span := a.tracer.Start(ctx, "assembler.Build")
	defer span.End()
	span.SetAttributes(
		attribute.Int("utxos", len(req.Utxos)),
		attribute.Int("outputs", len(req.Outputs)),
		attribute.Int("certificates", len(req.Certificates)),
	)
	tx, err := a.build(ctx, req)
	if err != nil {
		reason := failureReasonOther
		switch {
		case errors.Is(err, selection.ErrInsufficientFunds):
			reason = failureReasonInsufficientFunds
		case errors.Is(err, ErrTransactionTooLarge):
			reason = failureReasonTooLarge
		}
		a.metrics.buildFailures.WithLabelValues(reason).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, reason)
		a.config.Logger.Debug(
			"failed to build transaction",
			"component", "assembler",
			"reason", reason,
			"error", err,
		)
		return nil, err
	}
	a.metrics.buildsTotal.Inc()
	a.metrics.inputsSelected.Observe(float64(len(tx.inputs)))
	a.metrics.changeOutputs.Observe(float64(len(tx.changeOutputs)))
	a.metrics.txSize.Observe(float64(tx.size))
	a.metrics.fee.Observe(float64(tx.fee))
	span.SetAttributes(
		attribute.String("tx.hash", tx.hash.String()),
		attribute.Int("tx.size", tx.size),
		attribute.Int("tx.inputs", len(tx.inputs)),
		attribute.Int("tx.change_outputs", len(tx.changeOutputs)),
	)
	a.config.Logger.Debug(
		"built transaction",
		"component", "assembler",
		"hash", tx.hash.String(),
		"inputs", len(tx.inputs),
		"outputs", len(tx.outputs),
		"change_outputs", len(tx.changeOutputs),
		"fee", tx.fee,
		"size", tx.size,
	)
	return tx, nil
}

func (a *Assembler) build(
	ctx context.Context,
	req BuildRequest,
) (*Transaction, error) {
	deposits, refunds := ledger.CertificateBalance(req.Certificates)
	// The attempt budget grows with the number of native asset classes
	limit := a.config.BaseSelectionLimit +
		ledger.SumOutputs(req.Outputs).Assets().Len()
	selector := a.config.Strategy(selection.Config{
		Logger:        a.config.Logger,
		Params:        a.config.Params,
		MinAda:        a.config.MinAda,
		Random:        a.config.NewRandom(),
		ChangeAddress: req.ChangeAddress,
		Deposit:       deposits,
		Refund:        refunds,
		ChangeMinAda: func(change value.Value) (uint64, error) {
			return a.changeMinAda(req.ChangeAddress, change)
		},
		FeeEstimator: func(inputs []ledger.Utxo, outputs []ledger.TxOutput) (uint64, error) {
			return a.estimateFee(req, inputs, outputs)
		},
	})
	_, selectSpan := a.tracer.Start(ctx, "selection.Select")
	selectSpan.SetAttributes(attribute.Int("limit", limit))
	res, err := selector.Select(req.Utxos, req.Outputs, limit)
	if err != nil {
		selectSpan.RecordError(err)
		selectSpan.SetStatus(codes.Error, "selection failed")
		selectSpan.End()
		return nil, fmt.Errorf("select inputs: %w", err)
	}
	selectSpan.SetAttributes(attribute.Int("inputs", len(res.Inputs)))
	selectSpan.End()
	return a.assemble(req, res)
}

// assemble attaches the selected inputs, splits the change as needed, and
// settles the fee
func (a *Assembler) assemble(
	req BuildRequest,
	res *selection.Result,
) (*Transaction, error) {
	b := a.newBuilder(req, res.Inputs, req.Outputs)
	// The selection change already has the estimated fee taken out. Add it
	// back so the fee can be settled against the final transaction
	change := res.Change.WithCoin(res.Change.Coin() + res.EstimatedFee)
	splitOutputs, remainder, err := a.splitChange(req.ChangeAddress, change)
	if err != nil {
		return nil, err
	}
	for _, output := range splitOutputs {
		b.AddChangeOutput(output)
	}
	if err := a.settleFee(b, req.ChangeAddress, remainder, res.EstimatedFee); err != nil {
		return nil, err
	}
	tx, err := b.Finalize()
	if err != nil {
		return nil, err
	}
	// #nosec G115
	if hexSize := tx.size * 2; uint64(hexSize) > a.config.Params.MaxTxSize {
		return nil, &TransactionTooLargeError{
			Size: hexSize,
			Max:  a.config.Params.MaxTxSize,
		}
	}
	return tx, nil
}

func (a *Assembler) newBuilder(
	req BuildRequest,
	inputs []ledger.Utxo,
	outputs []ledger.TxOutput,
) *Builder {
	b := NewBuilder().
		SetTtl(req.Ttl).
		SetValidityStart(req.ValidityStart).
		SetExtraWitnesses(req.ExtraWitnesses)
	for _, cert := range req.Certificates {
		b.AddCertificate(cert)
	}
	for _, input := range inputs {
		b.AddInput(input)
	}
	for _, output := range outputs {
		b.AddOutput(output)
	}
	return b
}

// EstimateFee returns the minimum fee of a transaction spending the inputs
// and paying the outputs, with no change output
func (a *Assembler) EstimateFee(
	inputs []ledger.Utxo,
	outputs []ledger.TxOutput,
	certs []ledger.Certificate,
) (uint64, error) {
	return a.estimateFee(
		BuildRequest{Certificates: certs},
		inputs,
		outputs,
	)
}

func (a *Assembler) estimateFee(
	req BuildRequest,
	inputs []ledger.Utxo,
	outputs []ledger.TxOutput,
) (uint64, error) {
	return a.minFee(a.newBuilder(req, inputs, outputs), 0)
}
