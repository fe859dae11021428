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

// Package utxorpc provides a UTxO source backed by a remote UTxO RPC
// QueryService
package utxorpc

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"connectrpc.com/connect"
	lcommon "github.com/blinklabs-io/gouroboros/ledger/common"
	cardano "github.com/utxorpc/go-codegen/utxorpc/v1alpha/cardano"
	query "github.com/utxorpc/go-codegen/utxorpc/v1alpha/query"
	"github.com/utxorpc/go-codegen/utxorpc/v1alpha/query/queryconnect"
	"golang.org/x/net/http2"

	"github.com/blinklabs-io/txbuilder/ledger"
)

const DefaultPageSize = 100

var ErrMissingNativeBytes = errors.New("utxo has no native bytes")

// ErrRepeatedPageToken is returned when a server hands out a page token it
// already returned, which would otherwise page forever
var ErrRepeatedPageToken = errors.New("server repeated a page token")

type ClientConfig struct {
	Logger *slog.Logger
	// Url is the base URL of the UTxO RPC endpoint
	Url string
	// Headers are added to every request, such as an API key
	Headers map[string]string
	// Grpc selects the gRPC protocol instead of Connect. Plain http URLs
	// then use HTTP/2 without TLS
	Grpc       bool
	HttpClient connect.HTTPClient
	PageSize   int32
}

type Client struct {
	config ClientConfig
	query  queryconnect.QueryServiceClient
}

func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.Url == "" {
		return nil, errors.New("missing UTxO RPC URL")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	cfg.Logger = cfg.Logger.With("component", "utxorpc")
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	var opts []connect.ClientOption
	if cfg.Grpc {
		opts = append(opts, connect.WithGRPC())
	}
	if len(cfg.Headers) > 0 {
		opts = append(
			opts,
			connect.WithInterceptors(headerInterceptor(cfg.Headers)),
		)
	}
	if cfg.HttpClient == nil {
		cfg.HttpClient = defaultHttpClient(cfg.Url, cfg.Grpc)
	}
	return &Client{
		config: cfg,
		query: queryconnect.NewQueryServiceClient(
			cfg.HttpClient,
			cfg.Url,
			opts...,
		),
	}, nil
}

func defaultHttpClient(url string, grpc bool) connect.HTTPClient {
	if !grpc || !strings.HasPrefix(url, "http://") {
		return http.DefaultClient
	}
	// h2c
	return &http.Client{
		Transport: &http2.Transport{
			AllowHTTP: true,
			DialTLSContext: func(
				ctx context.Context,
				network string,
				addr string,
				_ *tls.Config,
			) (net.Conn, error) {
				var d net.Dialer
				return d.DialContext(ctx, network, addr)
			},
		},
	}
}

func headerInterceptor(headers map[string]string) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(
			ctx context.Context,
			req connect.AnyRequest,
		) (connect.AnyResponse, error) {
			for k, v := range headers {
				req.Header().Set(k, v)
			}
			return next(ctx, req)
		}
	}
}

// UtxosByAddress returns every UTxO held at the exact address, following
// pagination until the server reports no further pages
func (c *Client) UtxosByAddress(
	ctx context.Context,
	address lcommon.Address,
) ([]ledger.Utxo, error) {
	addrBytes, err := address.Bytes()
	if err != nil {
		return nil, err
	}
	predicate := &query.UtxoPredicate{
		Match: &query.AnyUtxoPattern{
			UtxoPattern: &query.AnyUtxoPattern_Cardano{
				Cardano: &cardano.TxOutputPattern{
					Address: &cardano.AddressPattern{
						ExactAddress: addrBytes,
					},
				},
			},
		},
	}
	var ret []ledger.Utxo
	var startToken string
	seenTokens := make(map[string]struct{})
	for {
		resp, err := c.query.SearchUtxos(
			ctx,
			connect.NewRequest(&query.SearchUtxosRequest{
				Predicate:  predicate,
				MaxItems:   c.config.PageSize,
				StartToken: startToken,
			}),
		)
		if err != nil {
			return nil, fmt.Errorf("search utxos: %w", err)
		}
		for _, item := range resp.Msg.GetItems() {
			utxo, err := decodeUtxo(item)
			if err != nil {
				return nil, err
			}
			ret = append(ret, utxo)
		}
		startToken = resp.Msg.GetNextToken()
		if startToken == "" {
			break
		}
		if _, ok := seenTokens[startToken]; ok {
			return nil, fmt.Errorf("search utxos: %w: %q", ErrRepeatedPageToken, startToken)
		}
		seenTokens[startToken] = struct{}{}
	}
	c.config.Logger.Debug(
		"fetched UTxOs by address",
		"address", address.String(),
		"count", len(ret),
	)
	return ret, nil
}

// Utxos looks up specific UTxOs by input. Inputs unknown to the server are
// left out of the result
func (c *Client) Utxos(
	ctx context.Context,
	inputs []ledger.TxInput,
) ([]ledger.Utxo, error) {
	keys := make([]*query.TxoRef, 0, len(inputs))
	for _, input := range inputs {
		keys = append(keys, &query.TxoRef{
			Hash:  input.TxId.Bytes(),
			Index: input.Index,
		})
	}
	resp, err := c.query.ReadUtxos(
		ctx,
		connect.NewRequest(&query.ReadUtxosRequest{Keys: keys}),
	)
	if err != nil {
		return nil, fmt.Errorf("read utxos: %w", err)
	}
	ret := make([]ledger.Utxo, 0, len(resp.Msg.GetItems()))
	for _, item := range resp.Msg.GetItems() {
		utxo, err := decodeUtxo(item)
		if err != nil {
			return nil, err
		}
		ret = append(ret, utxo)
	}
	return ret, nil
}

func decodeUtxo(item *query.AnyUtxoData) (ledger.Utxo, error) {
	ref := item.GetTxoRef()
	if ref == nil || len(ref.GetHash()) != lcommon.Blake2b256Size {
		return ledger.Utxo{}, errors.New("utxo has a malformed reference")
	}
	input := ledger.TxInput{
		TxId:  lcommon.NewBlake2b256(ref.GetHash()),
		Index: ref.GetIndex(),
	}
	if len(item.GetNativeBytes()) == 0 {
		return ledger.Utxo{}, fmt.Errorf(
			"%w: %s",
			ErrMissingNativeBytes,
			input.String(),
		)
	}
	return ledger.NewUtxoFromCbor(input, item.GetNativeBytes())
}
