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
	"math/big"

	"github.com/blinklabs-io/txbuilder/ledger"
	"github.com/blinklabs-io/txbuilder/value"
)

// selectionState tracks the UTxOs picked so far. Candidates are referred to
// by their index in the available slice so that iteration order, and with it
// the outcome for a given random seed, never depends on map ordering
type selectionState struct {
	available []ledger.Utxo
	used      []bool
	selected  []int
	total     value.Value
}

func newSelectionState(available []ledger.Utxo) *selectionState {
	return &selectionState{
		available: available,
		used:      make([]bool, len(available)),
	}
}

func (s *selectionState) add(idx int) {
	if s.used[idx] {
		return
	}
	s.used[idx] = true
	s.selected = append(s.selected, idx)
	s.total = s.total.Add(s.available[idx].Amount)
}

func (s *selectionState) count() int {
	return len(s.selected)
}

// candidates returns the unused UTxOs holding a positive quantity of the
// asset class
func (s *selectionState) candidates(id value.AssetID) []int {
	var ret []int
	for idx, utxo := range s.available {
		if s.used[idx] {
			continue
		}
		if utxo.Amount.Quantity(id).Sign() <= 0 {
			continue
		}
		ret = append(ret, idx)
	}
	return ret
}

func (s *selectionState) quantity(idx int, id value.AssetID) *big.Int {
	return s.available[idx].Amount.Quantity(id)
}

// largest returns the candidate holding the most of the asset class. Ties go
// to the candidate listed first
func (s *selectionState) largest(cands []int, id value.AssetID) int {
	best := cands[0]
	bestQty := s.quantity(best, id)
	for _, idx := range cands[1:] {
		qty := s.quantity(idx, id)
		if qty.Cmp(bestQty) > 0 {
			best = idx
			bestQty = qty
		}
	}
	return best
}

// availableQuantity sums the asset class across every candidate UTxO
func (s *selectionState) availableQuantity(id value.AssetID) *big.Int {
	ret := new(big.Int)
	for _, utxo := range s.available {
		ret.Add(ret, utxo.Amount.Quantity(id))
	}
	return ret
}

func (s *selectionState) inputs() []ledger.Utxo {
	ret := make([]ledger.Utxo, 0, len(s.selected))
	for _, idx := range s.selected {
		ret = append(ret, s.available[idx])
	}
	return ret
}

// adaOnly filters candidates down to those without native assets. The
// original slice is returned if none qualify
func (s *selectionState) adaOnly(cands []int) []int {
	var ret []int
	for _, idx := range cands {
		if !s.available[idx].Amount.HasAssets() {
			ret = append(ret, idx)
		}
	}
	if len(ret) == 0 {
		return cands
	}
	return ret
}
