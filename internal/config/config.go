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
	"errors"
	"fmt"
	"os"
	"path/filepath"

	ouroboros "github.com/blinklabs-io/gouroboros"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/blinklabs-io/txbuilder/assembler"
	"github.com/blinklabs-io/txbuilder/database"
)

type ctxKey string

const configContextKey ctxKey = "txbuilder.config"

const envPrefix = "txbuilder"

func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configContextKey, cfg)
}

func FromContext(ctx context.Context) *Config {
	cfg, ok := ctx.Value(configContextKey).(*Config)
	if !ok {
		return nil
	}
	return cfg
}

type Config struct {
	Network                string            `yaml:"network"`
	ProtocolParametersFile string            `yaml:"protocolParametersFile" split_words:"true"`
	DatabasePlugin         string            `yaml:"databasePlugin"         split_words:"true"`
	DatabasePath           string            `yaml:"databasePath"           split_words:"true"`
	UtxorpcUrl             string            `yaml:"utxorpcUrl"             split_words:"true"`
	UtxorpcHeaders         map[string]string `yaml:"utxorpcHeaders"         split_words:"true"`
	UtxorpcGrpc            bool              `yaml:"utxorpcGrpc"            split_words:"true"`
	BaseSelectionLimit     int               `yaml:"baseSelectionLimit"     split_words:"true"`
	// RandomSeed makes input selection reproducible. Zero picks a fresh
	// seed for every build
	RandomSeed    uint64 `yaml:"randomSeed"    split_words:"true"`
	Tracing       bool   `yaml:"tracing"`
	TracingStdout bool   `yaml:"tracingStdout" split_words:"true"`
}

var globalConfig = &Config{
	Network:            "mainnet",
	DatabasePlugin:     database.DefaultPlugin,
	BaseSelectionLimit: assembler.DefaultBaseSelectionLimit,
}

// LoadConfig overlays the YAML config file, if any, and then the
// TXBUILDER_* environment variables onto the defaults
func LoadConfig(configFile string) (*Config, error) {
	if configFile == "" {
		// Check for config file in this path: ~/.txbuilder/txbuilder.yaml
		if homeDir, err := os.UserHomeDir(); err == nil {
			userPath := filepath.Join(homeDir, ".txbuilder", "txbuilder.yaml")
			if _, err := os.Stat(userPath); err == nil {
				configFile = userPath
			}
		}
	}
	if configFile != "" {
		buf, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		if err := yaml.Unmarshal(buf, globalConfig); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	}
	if err := envconfig.Process(envPrefix, globalConfig); err != nil {
		return nil, fmt.Errorf("error processing environment: %w", err)
	}
	if err := globalConfig.validate(); err != nil {
		return nil, err
	}
	return globalConfig, nil
}

// GetConfig returns the global config instance
func GetConfig() *Config {
	return globalConfig
}

func (c *Config) validate() error {
	if _, ok := ouroboros.NetworkByName(c.Network); !ok {
		return fmt.Errorf("unknown network: %s", c.Network)
	}
	switch c.DatabasePlugin {
	case database.PluginBadger, database.PluginSqlite:
	default:
		return fmt.Errorf("unknown database plugin: %s", c.DatabasePlugin)
	}
	if c.BaseSelectionLimit < 0 {
		return errors.New("base selection limit must not be negative")
	}
	if c.TracingStdout && !c.Tracing {
		return errors.New("tracing stdout requires tracing to be enabled")
	}
	return nil
}
