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
	"github.com/blinklabs-io/txbuilder/ledger"
	"github.com/blinklabs-io/txbuilder/value"
)

// RandomImprove implements random-improve selection. Each required asset
// class is covered by UTxOs picked uniformly at random, falling back to
// largest-first once the attempt budget is spent. An improvement pass then
// adds random UTxOs that bring each class closer to twice its requirement.
type RandomImprove struct {
	engine
}

// NewRandomImprove creates a random-improve selector
func NewRandomImprove(cfg Config) Selector {
	cfg.setDefaults()
	ret := &RandomImprove{
		engine: engine{
			config:  cfg,
			name:    "random-improve",
			improve: true,
		},
	}
	if cfg.Params != nil {
		ret.margin = cfg.Params.MaxFee()
	}
	ret.pick = func(_ *selectionState, cands []int, _ value.AssetID) int {
		return cands[cfg.Random.IntN(len(cands))]
	}
	return ret
}

func (r *RandomImprove) Select(
	available []ledger.Utxo,
	outputs []ledger.TxOutput,
	limit int,
) (*Result, error) {
	return r.run(available, outputs, limit)
}

// LargestFirst always picks the UTxO holding the most of the asset class
// being covered. It is fully deterministic
type LargestFirst struct {
	engine
}

// NewLargestFirst creates a largest-first selector
func NewLargestFirst(cfg Config) Selector {
	cfg.setDefaults()
	return &LargestFirst{
		engine: engine{
			config: cfg,
			name:   "largest-first",
			pick: func(s *selectionState, cands []int, id value.AssetID) int {
				return s.largest(cands, id)
			},
		},
	}
}

func (l *LargestFirst) Select(
	available []ledger.Utxo,
	outputs []ledger.TxOutput,
	limit int,
) (*Result, error) {
	return l.run(available, outputs, limit)
}
