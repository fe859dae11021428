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
	"math/rand/v2"
)

// RandomSource picks an index in [0, n). Implementations need not be
// cryptographically secure
type RandomSource interface {
	IntN(n int) int
}

// NewRandom returns a randomly seeded source
func NewRandom() RandomSource {
	// #nosec G404
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

// NewSeededRandom returns a deterministic source for a given seed
func NewSeededRandom(seed uint64) RandomSource {
	// #nosec G404
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// FirstCandidate always picks the first candidate, which makes random
// selection follow the order of the available UTxOs
type FirstCandidate struct{}

func (FirstCandidate) IntN(int) int {
	return 0
}
