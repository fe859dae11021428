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

package selection

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/blinklabs-io/txbuilder/ledger"
	"github.com/blinklabs-io/txbuilder/value"
)

// engine holds the selection steps shared by every strategy. Strategies
// differ in how a candidate is picked while under the attempt budget, in
// whether an improvement pass runs, and in the lovelace margin kept for
// change while further candidates remain
type engine struct {
	config  Config
	name    string
	pick    func(s *selectionState, cands []int, id value.AssetID) int
	improve bool
	margin  uint64
}

// request is the per-call view of what must be covered
type request struct {
	outputs  []ledger.TxOutput
	required value.Value
	limit    int
}

// lovelaceStatus describes the lovelace balance of the current selection
type lovelaceStatus struct {
	fulfilled bool
	need      uint64
	have      uint64
	fee       uint64
}

func (e *engine) run(
	available []ledger.Utxo,
	outputs []ledger.TxOutput,
	limit int,
) (*Result, error) {
	if e.config.Params == nil {
		return nil, errors.New("selection requires protocol parameters")
	}
	req := &request{
		outputs:  outputs,
		required: ledger.SumOutputs(outputs),
		limit:    limit,
	}
	s := newSelectionState(available)
	// Native assets are covered first, in canonical order, so that the
	// lovelace they bring along counts toward the lovelace requirement
	for _, id := range req.required.AssetIDs() {
		if err := e.selectAsset(s, req, id); err != nil {
			return nil, err
		}
	}
	if err := e.selectLovelace(s, req, false); err != nil {
		return nil, err
	}
	if e.improve {
		for _, id := range req.required.AssetIDs() {
			e.improveAsset(s, req, id, req.required.Quantity(id))
		}
		status, err := e.lovelace(s, req, false)
		if err != nil {
			return nil, err
		}
		e.improveAsset(
			s,
			req,
			value.Lovelace,
			new(big.Int).SetUint64(status.need),
		)
	}
	// Best effort top-up so that the change can carry its own min-ADA and
	// still absorb fee growth. Running out of candidates here is fine
	if err := e.selectLovelace(s, req, true); err != nil {
		return nil, err
	}
	return e.result(s, req)
}

// choose picks the next candidate. Once the attempt budget is spent the
// largest remaining candidate for the asset class is used instead
func (e *engine) choose(
	s *selectionState,
	req *request,
	cands []int,
	id value.AssetID,
) int {
	if s.count() >= req.limit {
		e.config.Logger.Debug(
			"selection budget exhausted, picking largest candidate",
			"component", "selection",
			"strategy", e.name,
			"asset", id.String(),
			"limit", req.limit,
		)
		return s.largest(cands, id)
	}
	return e.pick(s, cands, id)
}

func (e *engine) selectAsset(
	s *selectionState,
	req *request,
	id value.AssetID,
) error {
	target := req.required.Quantity(id)
	for s.total.Quantity(id).Cmp(target) < 0 {
		cands := s.candidates(id)
		if len(cands) == 0 {
			return NewInsufficientFundsError(
				id,
				target,
				s.availableQuantity(id),
			)
		}
		s.add(e.choose(s, req, cands, id))
	}
	return nil
}

func (e *engine) selectLovelace(
	s *selectionState,
	req *request,
	bestEffort bool,
) error {
	for {
		cands := s.candidates(value.Lovelace)
		status, err := e.lovelace(s, req, len(cands) > 0)
		if err != nil {
			return err
		}
		if status.fulfilled {
			return nil
		}
		if len(cands) == 0 {
			if bestEffort {
				return nil
			}
			return NewInsufficientFundsError(
				value.Lovelace,
				new(big.Int).SetUint64(status.need),
				new(big.Int).SetUint64(status.have),
			)
		}
		if bestEffort {
			cands = s.adaOnly(cands)
		}
		s.add(e.choose(s, req, cands, value.Lovelace))
	}
}

// lovelace checks whether the selection covers the outputs, deposits, and
// the estimated fee, and whether the resulting change can exist as an
// output. While more candidates remain, nonzero change must also carry the
// strategy's safety margin
func (e *engine) lovelace(
	s *selectionState,
	req *request,
	withMargin bool,
) (lovelaceStatus, error) {
	fee, err := e.config.FeeEstimator(s.inputs(), req.outputs)
	if err != nil {
		return lovelaceStatus{}, fmt.Errorf("estimate fee: %w", err)
	}
	status := lovelaceStatus{
		need: req.required.Coin() + e.config.Deposit + fee,
		have: s.total.Coin() + e.config.Refund,
		fee:  fee,
	}
	// A transaction needs at least one input
	if s.count() == 0 || status.have < status.need {
		return status, nil
	}
	changeAssets, err := s.total.Assets().Sub(req.required.Assets())
	if err != nil {
		return lovelaceStatus{}, err
	}
	change := value.NewWithAssets(status.have-status.need, changeAssets)
	if change.IsZero() {
		status.fulfilled = true
		return status, nil
	}
	minAda, err := e.config.ChangeMinAda(change)
	if err != nil {
		return lovelaceStatus{}, fmt.Errorf("calculate min-ADA: %w", err)
	}
	if change.HasAssets() && change.Coin() < minAda {
		status.need += minAda - change.Coin()
		return status, nil
	}
	if withMargin && change.Coin() < minAda+e.margin {
		return status, nil
	}
	status.fulfilled = true
	return status, nil
}

// improveAsset adds random candidates that move the selected quantity of
// the asset class toward twice the target without exceeding three times
// the target
func (e *engine) improveAsset(
	s *selectionState,
	req *request,
	id value.AssetID,
	target *big.Int,
) {
	if target.Sign() <= 0 {
		return
	}
	ideal := new(big.Int).Mul(target, big.NewInt(2))
	maximum := new(big.Int).Mul(target, big.NewInt(3))
	rejected := make(map[int]bool)
	for s.count() < req.limit {
		current := s.total.Quantity(id)
		if current.Cmp(ideal) >= 0 {
			return
		}
		var cands []int
		for _, idx := range s.candidates(id) {
			if !rejected[idx] {
				cands = append(cands, idx)
			}
		}
		if len(cands) == 0 {
			return
		}
		idx := cands[e.config.Random.IntN(len(cands))]
		next := new(big.Int).Add(current, s.quantity(idx, id))
		curDist := new(big.Int).Sub(ideal, current)
		nextDist := new(big.Int).Abs(new(big.Int).Sub(ideal, next))
		if next.Cmp(maximum) <= 0 && nextDist.Cmp(curDist) < 0 {
			s.add(idx)
			continue
		}
		rejected[idx] = true
	}
}

func (e *engine) result(s *selectionState, req *request) (*Result, error) {
	inputs := s.inputs()
	fee, err := e.config.FeeEstimator(inputs, req.outputs)
	if err != nil {
		return nil, fmt.Errorf("estimate fee: %w", err)
	}
	have := s.total.WithCoin(s.total.Coin() + e.config.Refund)
	need := req.required.WithCoin(
		req.required.Coin() + e.config.Deposit + fee,
	)
	change, err := have.Sub(need)
	if err != nil {
		for _, id := range append(need.AssetIDs(), value.Lovelace) {
			if have.Quantity(id).Cmp(need.Quantity(id)) < 0 {
				return nil, NewInsufficientFundsError(
					id,
					need.Quantity(id),
					have.Quantity(id),
				)
			}
		}
		return nil, err
	}
	if change.HasAssets() {
		minAda, err := e.config.ChangeMinAda(change)
		if err != nil {
			return nil, fmt.Errorf("calculate min-ADA: %w", err)
		}
		if change.Coin() < minAda {
			return nil, NewInsufficientFundsError(
				value.Lovelace,
				new(big.Int).SetUint64(need.Coin()+minAda-change.Coin()),
				new(big.Int).SetUint64(have.Coin()),
			)
		}
	}
	e.config.Logger.Debug(
		"selected inputs",
		"component", "selection",
		"strategy", e.name,
		"inputs", len(inputs),
		"fee", fee,
	)
	return &Result{
		Inputs:       inputs,
		Total:        s.total,
		Change:       change,
		EstimatedFee: fee,
	}, nil
}
