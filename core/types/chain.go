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

// Package types contains the chain primitives the shadow validation pipeline
// reads. They are produced elsewhere and treated as immutable here.
package types

import "github.com/ethereum/go-ethereum/common"

// Transaction is an opaque signed transaction as included in a chunk.
type Transaction []byte

// BlockHeader is the subset of a block header the pipeline needs.
type BlockHeader struct {
	Hash     common.Hash
	PrevHash common.Hash
	Height   uint64
}

// ChunkHeader describes a chunk of one shard. HeightIncluded equals the
// block height only when the chunk was newly produced for that block;
// otherwise the block repeats an older header for the shard.
type ChunkHeader struct {
	ChunkHash      common.Hash
	ShardID        uint64
	PrevBlockHash  common.Hash
	PrevStateRoot  common.Hash
	HeightCreated  uint64
	HeightIncluded uint64
}

// IsNewChunk reports whether the chunk was produced at the given block height.
func (h *ChunkHeader) IsNewChunk(height uint64) bool {
	return h.HeightIncluded == height
}

// Chunk is the unit of work of one shard within one block.
type Chunk struct {
	Header       *ChunkHeader
	Transactions []Transaction
}

// ShardID returns the shard the chunk belongs to.
func (c *Chunk) ShardID() uint64 {
	return c.Header.ShardID
}

// Hash returns the chunk hash.
func (c *Chunk) Hash() common.Hash {
	return c.Header.ChunkHash
}

// Block is a block header together with one chunk header per shard,
// indexed by shard id.
type Block struct {
	Header *BlockHeader
	Chunks []*ChunkHeader
}

// Hash returns the block hash.
func (b *Block) Hash() common.Hash {
	return b.Header.Hash
}

// ChunkHeader returns the chunk header for the given shard, or nil when the
// block carries no chunk for it.
func (b *Block) ChunkHeader(shard uint64) *ChunkHeader {
	if shard >= uint64(len(b.Chunks)) {
		return nil
	}
	return b.Chunks[shard]
}
