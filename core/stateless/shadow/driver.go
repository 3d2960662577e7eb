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
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/log"
	"github.com/tkmct/shadowwitness/core/types"
)

var errValidationPanic = errors.New("shadow chunk validation panicked")

// BlockDriver runs shadow validation for every chunk newly produced in a
// processed block. Chunk failures are logged and counted, never returned:
// block processing must not be affected by the shadow pipeline.
type BlockDriver struct {
	enabled   bool
	chain     ChainReader
	validator *Validator
	metrics   *Metrics
}

// NewBlockDriver creates a driver. It is a no-op unless the binary was built
// with the shadow_chunk_validation tag and cfg.Enabled is set.
func NewBlockDriver(cfg Config, chain ChainReader, validator *Validator, m *Metrics) *BlockDriver {
	return &BlockDriver{
		enabled:   BuildEnabled && cfg.Enabled,
		chain:     chain,
		validator: validator,
		metrics:   m,
	}
}

// Enabled reports whether ProcessBlock does any work.
func (d *BlockDriver) Enabled() bool {
	return d.enabled
}

// ProcessBlock shadow-validates the new chunks of block. Only failures to
// read the previous block or a chunk are returned.
func (d *BlockDriver) ProcessBlock(block *types.Block) error {
	if !d.enabled {
		return nil
	}
	blockHash := block.Hash()
	log.Debug("Shadow validating block chunks", "block", blockHash, "number", block.Header.Height)

	prevBlock, err := d.chain.GetBlock(block.Header.PrevHash)
	if err != nil {
		return fmt.Errorf("%w: previous block %x: %w", ErrFetch, block.Header.PrevHash, err)
	}
	if prevBlock == nil || prevBlock.Header == nil {
		return fmt.Errorf("%w: previous block %x not found", ErrFetch, block.Header.PrevHash)
	}
	for _, header := range block.Chunks {
		if header == nil || !header.IsNewChunk(block.Header.Height) {
			continue
		}
		chunk, err := d.chain.GetChunk(header)
		if err != nil {
			return fmt.Errorf("%w: chunk %x: %w", ErrFetch, header.ChunkHash, err)
		}
		if chunk == nil || chunk.Header == nil {
			return fmt.Errorf("%w: chunk %x not found", ErrFetch, header.ChunkHash)
		}
		prevChunk := prevBlock.ChunkHeader(header.ShardID)
		if prevChunk == nil {
			return fmt.Errorf("%w: previous block %x has no chunk for shard %d", ErrFetch, prevBlock.Hash(), header.ShardID)
		}
		if err := d.validateChunk(prevBlock.Header, prevChunk, chunk); err != nil {
			d.metrics.failed()
			log.Error("Shadow chunk validation failed", "shard", header.ShardID, "block", blockHash,
				"chunk", header.ChunkHash, "err", err)
		}
	}
	return nil
}

// validateChunk runs the validator, turning a panic of any synchronous
// collaborator into an error.
func (d *BlockDriver) validateChunk(prevBlock *types.BlockHeader, prevChunk *types.ChunkHeader, chunk *types.Chunk) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", errValidationPanic, r)
		}
	}()
	return d.validator.ValidateChunk(prevBlock, prevChunk, chunk)
}
