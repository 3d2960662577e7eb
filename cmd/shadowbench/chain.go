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

package main

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/ethereum/go-ethereum/common"
	"github.com/tkmct/shadowwitness/core/stateless"
	"github.com/tkmct/shadowwitness/core/stateless/shadow"
	"github.com/tkmct/shadowwitness/core/types"
)

var (
	errUnknownBlock = errors.New("unknown block")
	errUnknownChunk = errors.New("unknown chunk")

	errInjectedProof      = errors.New("injected storage proof failure")
	errInjectedValidation = errors.New("injected post state root mismatch")
)

const (
	// missRate is the probability that a shard produces no chunk in a block.
	missRate = 0.1

	// hotValues is the number of large proof values per shard that chunks
	// draw from when repeating a value, e.g. popular contract code.
	hotValues = 16
)

// syntheticChain is a deterministic in-memory chain of blocks and chunks.
type syntheticChain struct {
	blocks map[common.Hash]*types.Block
	chunks map[common.Hash]*types.Chunk
	order  []*types.Block // blocks from height 1, genesis excluded
}

func randomHash(rng *rand.Rand) common.Hash {
	var h common.Hash
	rng.Read(h[:])
	return h
}

// newSyntheticChain generates a genesis block plus the given number of
// blocks. Every shard has a chunk at genesis so each later block has a
// previous chunk header for every shard.
func newSyntheticChain(cfg benchSettings) *syntheticChain {
	var (
		rng   = rand.New(rand.NewSource(cfg.Seed))
		chain = &syntheticChain{
			blocks: make(map[common.Hash]*types.Block),
			chunks: make(map[common.Hash]*types.Chunk),
		}
		parent *types.Block
	)
	for height := uint64(0); height <= cfg.Blocks; height++ {
		block := &types.Block{Header: &types.BlockHeader{
			Hash:   randomHash(rng),
			Height: height,
		}}
		if parent != nil {
			block.Header.PrevHash = parent.Hash()
		}
		for shard := uint64(0); shard < cfg.Shards; shard++ {
			if parent != nil && rng.Float64() < missRate {
				block.Chunks = append(block.Chunks, parent.Chunks[shard])
				continue
			}
			chunk := &types.Chunk{
				Header: &types.ChunkHeader{
					ChunkHash:      randomHash(rng),
					ShardID:        shard,
					PrevStateRoot:  randomHash(rng),
					HeightCreated:  height,
					HeightIncluded: height,
				},
			}
			if parent != nil {
				chunk.Header.PrevBlockHash = parent.Hash()
			}
			for i := rng.Intn(8); i > 0; i-- {
				tx := make(types.Transaction, 100+rng.Intn(200))
				rng.Read(tx)
				chunk.Transactions = append(chunk.Transactions, tx)
			}
			block.Chunks = append(block.Chunks, chunk.Header)
			chain.chunks[chunk.Header.ChunkHash] = chunk
		}
		chain.blocks[block.Hash()] = block
		if parent != nil {
			chain.order = append(chain.order, block)
		}
		parent = block
	}
	return chain
}

func (c *syntheticChain) GetBlock(hash common.Hash) (*types.Block, error) {
	block, ok := c.blocks[hash]
	if !ok {
		return nil, fmt.Errorf("%w %x", errUnknownBlock, hash)
	}
	return block, nil
}

func (c *syntheticChain) GetChunk(header *types.ChunkHeader) (*types.Chunk, error) {
	chunk, ok := c.chunks[header.ChunkHash]
	if !ok {
		return nil, fmt.Errorf("%w %x", errUnknownChunk, header.ChunkHash)
	}
	return chunk, nil
}

// newChunks counts the chunks produced after genesis.
func (c *syntheticChain) newChunks() int {
	var n int
	for _, block := range c.order {
		for _, header := range block.Chunks {
			if header.IsNewChunk(block.Header.Height) {
				n++
			}
		}
	}
	return n
}

// syntheticBackend stands in for the runtime's transaction validator,
// witness builder and stateless validator. Everything it produces for a chunk
// is derived from the seed and the chunk coordinates, so results do not
// depend on the order chunks are processed in.
type syntheticBackend struct {
	seed       int64
	failRate   float64
	repeatRate float64
	hot        map[uint64][][]byte
}

func newSyntheticBackend(cfg benchSettings) *syntheticBackend {
	b := &syntheticBackend{
		seed:       cfg.Seed,
		failRate:   cfg.FailRate,
		repeatRate: cfg.RepeatRate,
		hot:        make(map[uint64][][]byte),
	}
	for shard := uint64(0); shard < cfg.Shards; shard++ {
		rng := b.rng(shard, 0, 0x40)
		for i := 0; i < hotValues; i++ {
			b.hot[shard] = append(b.hot[shard], largeValue(rng))
		}
	}
	return b
}

func (b *syntheticBackend) backend() shadow.Backend {
	return shadow.Backend{Transactions: b, Builder: b, PreValidator: b, Validator: b}
}

func (b *syntheticBackend) rng(shard, height uint64, salt int64) *rand.Rand {
	return rand.New(rand.NewSource(b.seed ^ int64(shard)<<40 ^ int64(height)<<8 ^ salt))
}

// injected reports which failure, if any, the chunk is set up to hit.
func (b *syntheticBackend) injected(header *types.ChunkHeader) error {
	r := b.rng(header.ShardID, header.HeightCreated, 0x66).Float64()
	switch {
	case r < b.failRate/2:
		return errInjectedProof
	case r < b.failRate:
		return errInjectedValidation
	}
	return nil
}

// largeValue returns a value big enough for the value cache, with a
// compressible tail.
func largeValue(rng *rand.Rand) []byte {
	value := make([]byte, 32_000+rng.Intn(200_000))
	rng.Read(value[:len(value)/4])
	return value
}

func (b *syntheticBackend) ValidatePreparedTransactions(header *types.ChunkHeader, config shadow.StorageConfig, txs []types.Transaction) (*shadow.ValidatedTransactions, error) {
	if config.StateRoot != header.PrevStateRoot {
		return nil, fmt.Errorf("storage view at %x, chunk built on %x", config.StateRoot, header.PrevStateRoot)
	}
	if errors.Is(b.injected(header), errInjectedProof) {
		return nil, errInjectedProof
	}
	var proof stateless.TrieValues
	if config.RecordStorage {
		rng := b.rng(header.ShardID, header.HeightCreated, 0x70)
		for range txs {
			node := make([]byte, 64+rng.Intn(500))
			rng.Read(node)
			proof = append(proof, node)
		}
	}
	return &shadow.ValidatedTransactions{Transactions: txs, StorageProof: proof}, nil
}

func (b *syntheticBackend) BuildWitness(prevBlock *types.BlockHeader, prevChunk *types.ChunkHeader, chunk *types.Chunk, proof stateless.PartialState) (*stateless.ChunkStateWitness, error) {
	if prevChunk.ShardID != chunk.ShardID() {
		return nil, fmt.Errorf("previous chunk of shard %d used for shard %d", prevChunk.ShardID, chunk.ShardID())
	}
	var (
		header = *chunk.Header
		rng    = b.rng(header.ShardID, header.HeightCreated, 0x77)
		values stateless.TrieValues
	)
	for i := 4 + rng.Intn(20); i > 0; i-- {
		switch {
		case rng.Float64() < 0.8:
			value := make([]byte, 32+rng.Intn(4000))
			rng.Read(value)
			values = append(values, value)
		case rng.Float64() < b.repeatRate:
			hot := b.hot[header.ShardID]
			values = append(values, hot[rng.Intn(len(hot))])
		default:
			values = append(values, largeValue(rng))
		}
	}
	postRoot := header.ChunkHash
	if errors.Is(b.injected(&header), errInjectedValidation) {
		postRoot = common.Hash{}
	}
	return &stateless.ChunkStateWitness{
		ChunkHeader: &header,
		MainStateTransition: stateless.ChunkStateTransition{
			BlockHash:     prevBlock.Hash,
			BaseState:     values,
			PostStateRoot: postRoot,
		},
		Transactions:                   chunk.Transactions,
		NewTransactionsValidationState: proof,
	}, nil
}

func (b *syntheticBackend) PreValidate(w *stateless.ChunkStateWitness) (*shadow.PreValidationResult, error) {
	if w.ChunkHeader == nil {
		return nil, stateless.ErrMissingChunkHeader
	}
	if len(w.Transactions) > 0 && w.NewTransactionsValidationState == nil {
		return nil, errors.New("missing storage proof for new transactions")
	}
	return &shadow.PreValidationResult{Payload: w.ChunkHeader.ChunkHash}, nil
}

func (b *syntheticBackend) Validate(w *stateless.ChunkStateWitness, pre *shadow.PreValidationResult) error {
	if pre == nil || pre.Payload != w.ChunkHeader.ChunkHash {
		return errors.New("pre-validation result does not belong to witness")
	}
	if w.MainStateTransition.PostStateRoot != w.ChunkHeader.ChunkHash {
		return errInjectedValidation
	}
	return nil
}
