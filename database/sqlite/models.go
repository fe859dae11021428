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

package sqlite

import (
	"github.com/blinklabs-io/txbuilder/database/types"
)

// Utxo is a UTxO row. The output CBOR is kept whole so the value decodes
// exactly as it was stored
type Utxo struct {
	ID         uint         `gorm:"primarykey"`
	TxId       []byte       `gorm:"uniqueIndex:tx_id_output_idx;not null"`
	OutputIdx  uint32       `gorm:"uniqueIndex:tx_id_output_idx;not null"`
	Address    []byte       `gorm:"index;not null"`
	PaymentKey []byte       `gorm:"index"`
	Amount     types.Uint64 `gorm:"not null"`
	Cbor       []byte       `gorm:"not null"`
}

func (u *Utxo) TableName() string {
	return "utxo"
}

// MigrateModels contains a list of model objects that should have DB
// migrations applied
var MigrateModels = []any{
	&Utxo{},
}
