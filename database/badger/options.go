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

package badger

import (
	"log/slog"
)

const (
	DefaultBlockCacheSize uint64 = 64 << 20
	DefaultIndexCacheSize uint64 = 32 << 20
)

type UtxoStoreBadgerOptionFunc func(*UtxoStoreBadger)

// WithLogger specifies the logger object to use for logging messages
func WithLogger(logger *slog.Logger) UtxoStoreBadgerOptionFunc {
	return func(s *UtxoStoreBadger) {
		s.logger = logger
	}
}

// WithDataDir specifies the data directory to use for storage. An empty
// value keeps everything in memory
func WithDataDir(dataDir string) UtxoStoreBadgerOptionFunc {
	return func(s *UtxoStoreBadger) {
		s.dataDir = dataDir
	}
}

// WithBlockCacheSize specifies the block cache size
func WithBlockCacheSize(size uint64) UtxoStoreBadgerOptionFunc {
	return func(s *UtxoStoreBadger) {
		s.blockCacheSize = size
	}
}

// WithIndexCacheSize specifies the index cache size
func WithIndexCacheSize(size uint64) UtxoStoreBadgerOptionFunc {
	return func(s *UtxoStoreBadger) {
		s.indexCacheSize = size
	}
}

// WithGc specifies whether value log garbage collection is enabled
func WithGc(enabled bool) UtxoStoreBadgerOptionFunc {
	return func(s *UtxoStoreBadger) {
		s.gcEnabled = enabled
	}
}
