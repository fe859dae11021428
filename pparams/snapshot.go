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

package pparams

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Snapshot is the published form of the protocol parameters, as returned by
// chain indexers such as Blockfrost. Sizes are in bytes, and numeric fields
// may be encoded either as numbers or as decimal strings
type Snapshot struct {
	MinFeeA          Quantity  `json:"min_fee_a"           yaml:"minFeeA"`
	MinFeeB          Quantity  `json:"min_fee_b"           yaml:"minFeeB"`
	MinUtxo          Quantity  `json:"min_utxo"            yaml:"minUtxo"`
	CoinsPerUtxoSize *Quantity `json:"coins_per_utxo_size" yaml:"coinsPerUtxoSize"`
	MaxTxSize        Quantity  `json:"max_tx_size"         yaml:"maxTxSize"`
	MaxValSize       Quantity  `json:"max_val_size"        yaml:"maxValSize"`
	KeyDeposit       Quantity  `json:"key_deposit"         yaml:"keyDeposit"`
	PoolDeposit      Quantity  `json:"pool_deposit"        yaml:"poolDeposit"`
}

// Quantity is a non-negative integer that accepts both numeric and string
// encodings
type Quantity uint64

func (q *Quantity) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*q = 0
		return nil
	}
	var str string
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
	} else {
		str = string(data)
	}
	return q.parse(str)
}

func (q *Quantity) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("expected scalar value, got YAML node kind %d", node.Kind)
	}
	return q.parse(node.Value)
}

func (q *Quantity) parse(str string) error {
	str = strings.TrimSpace(str)
	if str == "" {
		*q = 0
		return nil
	}
	val, err := strconv.ParseUint(str, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid quantity %q: %w", str, err)
	}
	*q = Quantity(val)
	return nil
}

// ProtocolParameters converts the snapshot into validated parameters
func (s *Snapshot) ProtocolParameters() (*ProtocolParameters, error) {
	ret := &ProtocolParameters{
		MinFeeA:     uint64(s.MinFeeA),
		MinFeeB:     uint64(s.MinFeeB),
		MinUtxo:     uint64(s.MinUtxo),
		MaxTxSize:   uint64(s.MaxTxSize) * 2,
		MaxValSize:  uint64(s.MaxValSize) * 2,
		KeyDeposit:  uint64(s.KeyDeposit),
		PoolDeposit: uint64(s.PoolDeposit),
	}
	if s.CoinsPerUtxoSize != nil {
		ret.CoinsPerUtxoByte = uint64(*s.CoinsPerUtxoSize)
	}
	if err := ret.Validate(); err != nil {
		return nil, err
	}
	return ret, nil
}

// FromJSON parses a Blockfrost-style parameter snapshot
func FromJSON(data []byte) (*ProtocolParameters, error) {
	var tmpSnapshot Snapshot
	if err := json.Unmarshal(data, &tmpSnapshot); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidParameters, err)
	}
	return tmpSnapshot.ProtocolParameters()
}

// FromYAML parses a parameter snapshot in YAML form
func FromYAML(data []byte) (*ProtocolParameters, error) {
	var tmpSnapshot Snapshot
	if err := yaml.Unmarshal(data, &tmpSnapshot); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidParameters, err)
	}
	return tmpSnapshot.ProtocolParameters()
}

// LoadFile loads a parameter snapshot from disk. Files ending in .yaml or
// .yml are parsed as YAML, anything else as JSON
func LoadFile(path string) (*ProtocolParameters, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read protocol parameters: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FromYAML(buf)
	default:
		return FromJSON(buf)
	}
}
