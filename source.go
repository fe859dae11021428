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


package txbuilder

import (
	"errors"
	"fmt"

	"github.com/blinklabs-io/txbuilder/database"
	"github.com/blinklabs-io/txbuilder/internal/config"
	"github.com/blinklabs-io/txbuilder/pparams"
	"github.com/blinklabs-io/txbuilder/utxorpc"
)

// NewFromConfig creates a TxBuilder from a loaded config file. The UTxO
// source is the UTxO RPC endpoint when a URL is configured and the local
// database otherwise. Options given here take precedence over the file
func NewFromConfig(
	cfg *config.Config,
	opts ...ConfigOptionFunc,
) (*TxBuilder, error) {
	if cfg == nil {
		return nil, errors.New("nil config")
	}
	base := NewConfig(opts...)
	var fileOpts []ConfigOptionFunc
	// Public test networks track the mainnet fee and size parameters, so
	// those are the fallback whichever network is configured
	params := pparams.Mainnet()
	if cfg.ProtocolParametersFile != "" {
		var err error
		params, err = pparams.LoadFile(cfg.ProtocolParametersFile)
		if err != nil {
			return nil, fmt.Errorf("load protocol parameters: %w", err)
		}
	}
	fileOpts = append(
		fileOpts,
		WithProtocolParameters(params),
		WithBaseSelectionLimit(cfg.BaseSelectionLimit),
		WithTracing(cfg.Tracing),
		WithTracingStdout(cfg.TracingStdout),
	)
	if cfg.RandomSeed != 0 {
		fileOpts = append(fileOpts, WithRandomSeed(cfg.RandomSeed))
	}
	if base.utxoSource == nil {
		sourceOpts, err := openUtxoSource(cfg, base)
		if err != nil {
			return nil, err
		}
		fileOpts = append(fileOpts, sourceOpts...)
	}
	t, err := New(NewConfig(append(fileOpts, opts...)...))
	if err != nil {
		return nil, err
	}
	t.config.logger.Info(
		"txbuilder ready",
		"component", "txbuilder",
		"network", cfg.Network,
		"utxorpc", cfg.UtxorpcUrl != "",
	)
	return t, nil
}

func openUtxoSource(
	cfg *config.Config,
	base Config,
) ([]ConfigOptionFunc, error) {
	if cfg.UtxorpcUrl != "" {
		client, err := utxorpc.NewClient(utxorpc.ClientConfig{
			Logger:  base.logger,
			Url:     cfg.UtxorpcUrl,
			Headers: cfg.UtxorpcHeaders,
			Grpc:    cfg.UtxorpcGrpc,
		})
		if err != nil {
			return nil, err
		}
		return []ConfigOptionFunc{WithUtxoSource(client)}, nil
	}
	db, err := database.New(
		cfg.DatabasePlugin,
		cfg.DatabasePath,
		base.logger,
		base.promRegistry,
	)
	if err != nil {
		return nil, err
	}
	return []ConfigOptionFunc{
		WithUtxoSource(db),
		withCloseFunc(db.Close),
	}, nil
}
