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
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/tkmct/shadowwitness/core/stateless"
	"github.com/tkmct/shadowwitness/core/stateless/valuecache"
	"github.com/tkmct/shadowwitness/core/types"
)

// Validator produces the state witness of an already processed chunk,
// reduces it, measures it and validates it statelessly. Nothing it does
// feeds back into block processing: its only outputs are logs and metrics.
//
// ValidateChunk must not be called concurrently; the value cache it owns is
// only ever touched from the calling goroutine.
type Validator struct {
	backend Backend
	reducer *Reducer
	prober  *Prober
	spawner Spawner
	metrics *Metrics
}

// NewValidator creates a validator with a fresh value cache.
func NewValidator(cfg Config, backend Backend, spawner Spawner, m *Metrics) (*Validator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := backend.check(); err != nil {
		return nil, err
	}
	prober, err := NewProber(cfg, m)
	if err != nil {
		return nil, err
	}
	cache := valuecache.New(cfg.CacheCapacity)
	return &Validator{
		backend: backend,
		reducer: NewReducer(cache, cfg.CacheCutoff, m),
		prober:  prober,
		spawner: spawner,
		metrics: m,
	}, nil
}

// ValidateChunk runs the shadow validation of one chunk. The synchronous part
// ends with pre-validation; compression probes and full validation run on
// the spawner and report only through logs and metrics.
func (v *Validator) ValidateChunk(prevBlock *types.BlockHeader, prevChunk *types.ChunkHeader, chunk *types.Chunk) error {
	var (
		shard     = chunk.ShardID()
		chunkHash = chunk.Hash()
		header    = chunk.Header
	)
	// Chunk producers ship the storage proof of their transactions; here it
	// has to be regenerated from the local state.
	validated, err := v.backend.Transactions.ValidatePreparedTransactions(header, StorageConfig{
		StateRoot:      header.PrevStateRoot,
		Source:         SourceDB,
		UseFlatStorage: true,
		RecordStorage:  true,
	}, chunk.Transactions)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrProofGeneration, err)
	}
	if validated == nil {
		return ErrProofGeneration
	}
	witness, err := v.backend.Builder.BuildWitness(prevBlock, prevChunk, chunk, validated.StorageProof)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWitnessBuild, err)
	}
	if witness == nil {
		return ErrWitnessBuild
	}

	witnessSize := v.measure(shard, chunkHash, witness, StrategyBaseline)
	if witnessSize > 0 {
		v.metrics.witnessSize(shard, witnessSize)
	}
	RecordSizeDistribution(v.metrics, witness)

	v.reducer.ReduceWitness(witness)
	reduced, err := stateless.EncodeWitness(witness)
	if err != nil {
		v.metrics.encodeFailure()
		log.Error("Failed to encode reduced shadow witness", "shard", shard, "chunk", chunkHash, "err", err)
	} else {
		v.metrics.reducedSize(shard, StrategyCacheStateValues, len(reduced))
		v.spawner.Spawn("compress witness", func() {
			v.prober.CompressWitness(shard, reduced)
		})
	}
	probeCopy := witness.Copy()
	v.spawner.Spawn("compress proof values", func() {
		v.prober.CompressLargeValues(probeCopy)
	})

	start := time.Now()
	pre, err := v.backend.PreValidator.PreValidate(witness)
	v.metrics.preValidationTime(shard, start)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPreValidation, err)
	}
	log.Debug("Completed shadow chunk pre-validation", "shard", shard, "chunk", chunkHash,
		"size", witnessSize, "elapsed", common.PrettyDuration(time.Since(start)))

	v.spawner.Spawn("validate witness", func() {
		v.validate(shard, chunkHash, witness, pre)
	})
	return nil
}

// measure encodes the witness and records its size under the strategy. It
// returns 0 if the witness cannot be encoded.
func (v *Validator) measure(shard uint64, chunkHash common.Hash, w *stateless.ChunkStateWitness, strategy string) int {
	size, err := stateless.WitnessSize(w)
	if err != nil {
		v.metrics.encodeFailure()
		log.Error("Failed to encode shadow witness", "shard", shard, "chunk", chunkHash, "strategy", strategy, "err", err)
		return 0
	}
	v.metrics.reducedSize(shard, strategy, size)
	return size
}

func (v *Validator) validate(shard uint64, chunkHash common.Hash, w *stateless.ChunkStateWitness, pre *PreValidationResult) {
	start := time.Now()
	err := v.backend.Validator.Validate(w, pre)
	v.metrics.validationTime(shard, start)
	if err != nil {
		v.metrics.failed()
		log.Error("Shadow chunk validation failed", "shard", shard, "chunk", chunkHash, "err", err)
		return
	}
	log.Debug("Completed shadow chunk validation", "shard", shard, "chunk", chunkHash,
		"elapsed", common.PrettyDuration(time.Since(start)))
}
