// Copyright 2026 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

package shadow

import (
	"fmt"
	"runtime"

	"github.com/klauspost/compress/zstd"
	"github.com/tkmct/shadowwitness/core/stateless/compress"
	"github.com/tkmct/shadowwitness/core/stateless/valuecache"
)

const (
	// DefaultCacheCutoff is the minimum proof value size eligible for the
	// value cache. Smaller values always stay in the witness.
	DefaultCacheCutoff = 32_000

	// DefaultLargeValueCutoff is the minimum proof value size the per-value
	// compression probe compresses.
	DefaultLargeValueCutoff = 128_000

	// DefaultWitnessCompressionLevel is the zstd level of the whole-witness probe.
	DefaultWitnessCompressionLevel = 3
)

// Config holds the shadow validation settings.
type Config struct {
	// Enabled switches the pipeline off at runtime. It cannot switch on a
	// binary built without the shadow_chunk_validation tag.
	Enabled bool

	CacheCapacity int // Proof value hashes kept per shard
	CacheCutoff   int // Minimum value size for cache elision

	// WitnessCompressionLevels are the reference zstd levels measured on the
	// whole witness. Each must map to a distinct encoder speed, e.g. 1, 3, 7
	// and 19; levels 3 and 4 would produce the same measurement twice.
	WitnessCompressionLevels []int

	SnappyProbe      bool // Also measure snappy on the whole witness
	LargeValueCutoff int  // Minimum value size for the per-value probe

	// Workers bounds how many background tasks run at once (0 = unbounded).
	// Submission never blocks either way.
	Workers int
}

// DefaultConfig contains the default shadow validation settings. Workers is
// GOMAXPROCS at package initialization; binaries adjusting GOMAXPROCS at
// startup should resolve it again with DefaultWorkers.
var DefaultConfig = Config{
	Enabled:                  true,
	CacheCapacity:            valuecache.DefaultCapacity,
	CacheCutoff:              DefaultCacheCutoff,
	WitnessCompressionLevels: []int{DefaultWitnessCompressionLevel},
	LargeValueCutoff:         DefaultLargeValueCutoff,
	Workers:                  DefaultWorkers(),
}

// DefaultWorkers returns the current GOMAXPROCS.
func DefaultWorkers() int {
	return runtime.GOMAXPROCS(0)
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.CacheCapacity <= 0 {
		return fmt.Errorf("cache capacity must be > 0, got %d", c.CacheCapacity)
	}
	if c.CacheCutoff <= 0 {
		return fmt.Errorf("cache cutoff must be > 0, got %d", c.CacheCutoff)
	}
	if c.LargeValueCutoff <= 0 {
		return fmt.Errorf("large value cutoff must be > 0, got %d", c.LargeValueCutoff)
	}
	encoders := make(map[zstd.EncoderLevel]int)
	for _, level := range c.WitnessCompressionLevels {
		if level < 1 || level > 22 {
			return fmt.Errorf("witness compression level %d out of range [1, 22]", level)
		}
		enc := compress.ZstdEncoderLevel(level)
		if prev, ok := encoders[enc]; ok {
			return fmt.Errorf("witness compression levels %d and %d use the same zstd encoder (%s)", prev, level, enc)
		}
		encoders[enc] = level
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must be >= 0, got %d", c.Workers)
	}
	return nil
}
