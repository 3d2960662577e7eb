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
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/tkmct/shadowwitness/core/stateless"
	"github.com/tkmct/shadowwitness/core/stateless/compress"
)

// Prober measures how much compression would shrink a witness beyond what
// cache elision already achieved. Its results only feed metrics.
type Prober struct {
	witnessCodecs []compress.Codec
	valueCodec    compress.Codec
	valueCutoff   int
	metrics       *Metrics
}

// NewProber creates the codecs configured in cfg.
func NewProber(cfg Config, m *Metrics) (*Prober, error) {
	p := &Prober{
		valueCutoff: cfg.LargeValueCutoff,
		metrics:     m,
	}
	for _, level := range cfg.WitnessCompressionLevels {
		codec, err := compress.NewZstd(level)
		if err != nil {
			return nil, err
		}
		p.witnessCodecs = append(p.witnessCodecs, codec)
	}
	if cfg.SnappyProbe {
		p.witnessCodecs = append(p.witnessCodecs, compress.Snappy{})
	}
	codec, err := compress.NewZstdFastest()
	if err != nil {
		return nil, err
	}
	p.valueCodec = codec
	return p, nil
}

// witnessStrategy names the whole-witness strategy of a codec, e.g.
// compress_witness_level_3 for zstd level 3.
func witnessStrategy(c compress.Codec) string {
	return strategyCompressWitnessPrefix + strings.TrimPrefix(c.Name(), "zstd_")
}

// CompressWitness compresses the encoded witness with every configured codec
// and records the compressed size and time per codec. Each result is
// decompressed again to check the round trip.
func (p *Prober) CompressWitness(shard uint64, witnessBytes []byte) {
	for _, codec := range p.witnessCodecs {
		strategy := witnessStrategy(codec)
		start := time.Now()
		compressed, err := compress.RoundTrip(codec, witnessBytes)
		if err != nil {
			p.metrics.probeFailure()
			log.Error("Shadow witness compression probe failed", "shard", shard, "strategy", strategy, "err", err)
			continue
		}
		p.metrics.compressionTime(shard, strategy, start)
		p.metrics.reducedSize(shard, strategy, len(compressed))
	}
}

// CompressLargeValues replaces every proof value of at least the large value
// cutoff with its compressed form and records the size of the resulting
// witness. The witness must be a private copy: it is mutated and must never
// reach validation.
func (p *Prober) CompressLargeValues(w *stateless.ChunkStateWitness) {
	shard := w.ShardID()
	start := time.Now()
	for _, transition := range w.Transitions() {
		if err := p.compressTransitionValues(transition); err != nil {
			p.metrics.probeFailure()
			log.Error("Shadow proof value compression probe failed", "shard", shard, "err", err)
			return
		}
	}
	p.metrics.compressionTime(shard, StrategyCompressStorageValues, start)

	size, err := stateless.WitnessSize(w)
	if err != nil {
		p.metrics.probeFailure()
		log.Error("Failed to encode compressed shadow witness", "shard", shard, "err", err)
		return
	}
	p.metrics.reducedSize(shard, StrategyCompressStorageValues, size)
}

func (p *Prober) compressTransitionValues(t *stateless.ChunkStateTransition) error {
	values := t.Values()
	for i, value := range values {
		if len(value) < p.valueCutoff {
			continue
		}
		compressed, err := compress.RoundTrip(p.valueCodec, value)
		if err != nil {
			return err
		}
		values[i] = compressed
	}
	return nil
}
