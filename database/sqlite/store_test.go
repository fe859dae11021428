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

package sqlite_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/txbuilder/database/sqlite"
	"github.com/blinklabs-io/txbuilder/database/storetest"
	"github.com/blinklabs-io/txbuilder/database/types"
	"github.com/blinklabs-io/txbuilder/ledger"
)

func TestUtxoStoreSqliteInMemory(t *testing.T) {
	storetest.Run(t, func(t *testing.T) types.UtxoStore {
		store, err := sqlite.New("", nil)
		require.NoError(t, err)
		t.Cleanup(func() { _ = store.Close() })
		return store
	})
}

func TestUtxoStoreSqlitePersistent(t *testing.T) {
	dataDir := t.TempDir()
	ctx := context.Background()
	addr := storetest.Address(t, 0x01)
	utxo := storetest.Utxo(t, addr, 0x0b, 1, 7000000)

	store, err := sqlite.New(dataDir, nil)
	require.NoError(t, err)
	require.NoError(t, store.AddUtxos(ctx, []ledger.Utxo{utxo}))
	require.NoError(t, store.Close())

	store, err = sqlite.New(dataDir, nil)
	require.NoError(t, err)
	defer store.Close()
	ret, err := store.UtxosByAddress(ctx, addr)
	require.NoError(t, err)
	require.Len(t, ret, 1)
	require.Equal(t, utxo.Input, ret[0].Input)
	require.True(t, utxo.Amount.Equal(ret[0].Amount))
}
