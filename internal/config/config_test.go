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


package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetGlobalConfig() {
	globalConfig = &Config{
		Network:            "mainnet",
		DatabasePlugin:     "badger",
		BaseSelectionLimit: 20,
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpFile := filepath.Join(t.TempDir(), "test-txbuilder.yaml")
	require.NoError(t, os.WriteFile(tmpFile, []byte(content), 0o600))
	return tmpFile
}

func TestLoadDefaults(t *testing.T) {
	resetGlobalConfig()
	t.Setenv("HOME", t.TempDir())
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(
		t,
		&Config{
			Network:            "mainnet",
			DatabasePlugin:     "badger",
			BaseSelectionLimit: 20,
		},
		cfg,
	)
	assert.Same(t, cfg, GetConfig())
}

func TestLoadCompareFullStruct(t *testing.T) {
	resetGlobalConfig()
	tmpFile := writeConfig(t, `
network: "preview"
protocolParametersFile: "./pparams.json"
databasePlugin: "sqlite"
databasePath: ".txbuilder"
utxorpcUrl: "https://preview.utxorpc.example"
utxorpcHeaders:
  dmtr-api-key: "abc123"
utxorpcGrpc: true
baseSelectionLimit: 40
randomSeed: 42
tracing: true
tracingStdout: true
`)
	cfg, err := LoadConfig(tmpFile)
	require.NoError(t, err)
	assert.Equal(
		t,
		&Config{
			Network:                "preview",
			ProtocolParametersFile: "./pparams.json",
			DatabasePlugin:         "sqlite",
			DatabasePath:           ".txbuilder",
			UtxorpcUrl:             "https://preview.utxorpc.example",
			UtxorpcHeaders:         map[string]string{"dmtr-api-key": "abc123"},
			UtxorpcGrpc:            true,
			BaseSelectionLimit:     40,
			RandomSeed:             42,
			Tracing:                true,
			TracingStdout:          true,
		},
		cfg,
	)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	resetGlobalConfig()
	tmpFile := writeConfig(t, `
network: "preprod"
databasePath: "/var/lib/txbuilder"
randomSeed: 7
`)
	t.Setenv("TXBUILDER_NETWORK", "preview")
	t.Setenv("TXBUILDER_RANDOM_SEED", "99")
	t.Setenv("TXBUILDER_UTXORPC_URL", "http://localhost:9090")
	t.Setenv("TXBUILDER_UTXORPC_HEADERS", "x-api-key:secret")
	cfg, err := LoadConfig(tmpFile)
	require.NoError(t, err)
	assert.Equal(t, "preview", cfg.Network)
	assert.Equal(t, "/var/lib/txbuilder", cfg.DatabasePath)
	assert.Equal(t, uint64(99), cfg.RandomSeed)
	assert.Equal(t, "http://localhost:9090", cfg.UtxorpcUrl)
	assert.Equal(t, map[string]string{"x-api-key": "secret"}, cfg.UtxorpcHeaders)
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errText string
	}{
		{
			name:    "unknown network",
			content: `network: "nowhere"`,
			errText: "unknown network",
		},
		{
			name:    "unknown plugin",
			content: `databasePlugin: "postgres"`,
			errText: "unknown database plugin",
		},
		{
			name:    "negative limit",
			content: `baseSelectionLimit: -1`,
			errText: "must not be negative",
		},
		{
			name:    "stdout without tracing",
			content: `tracingStdout: true`,
			errText: "requires tracing",
		},
		{
			name:    "bad yaml",
			content: "network: [",
			errText: "error parsing config file",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			resetGlobalConfig()
			_, err := LoadConfig(writeConfig(t, test.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), test.errText)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	resetGlobalConfig()
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestContext(t *testing.T) {
	assert.Nil(t, FromContext(context.Background()))
	cfg := &Config{Network: "preview"}
	ctx := WithContext(context.Background(), cfg)
	assert.Same(t, cfg, FromContext(ctx))
}
