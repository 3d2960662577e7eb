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

	"github.com/ethereum/go-ethereum/common"
	"github.com/tkmct/shadowwitness/core/stateless"
	"github.com/tkmct/shadowwitness/core/types"
)

var (
	// ErrFetch is returned when a block or chunk cannot be read from the
	// chain. It is the only error that aborts a whole block.
	ErrFetch = errors.New("failed to fetch shadow validation input")

	// ErrProofGeneration is returned when the storage proof for a chunk's
	// transactions cannot be produced.
	ErrProofGeneration = errors.New("could not produce storage proof for new transactions")

	// ErrWitnessBuild wraps failures of the witness builder.
	ErrWitnessBuild = errors.New("failed to build state witness")

	// ErrPreValidation wraps failures of witness pre-validation.
	ErrPreValidation = errors.New("state witness pre-validation failed")
)

// StorageDataSource selects where a storage read is served from.
type StorageDataSource uint8

const (
	// SourceDB reads from the on-disk trie and flat storage.
	SourceDB StorageDataSource = iota

	// SourceRecorded reads from a previously recorded partial state.
	SourceRecorded
)

// StorageConfig configures the storage view used to validate transactions.
type StorageConfig struct {
	StateRoot      common.Hash
	Source         StorageDataSource
	UseFlatStorage bool
	RecordStorage  bool // Record every node touched into a storage proof
}

// ValidatedTransactions is the outcome of transaction validation.
type ValidatedTransactions struct {
	Transactions []types.Transaction
	StorageProof stateless.PartialState
}

// PreValidationResult is whatever pre-validation derived from a witness that
// full validation needs. The pipeline only passes it along.
type PreValidationResult struct {
	Payload any
}

// ChainReader gives access to stored blocks and chunks.
type ChainReader interface {
	GetBlock(hash common.Hash) (*types.Block, error)
	GetChunk(header *types.ChunkHeader) (*types.Chunk, error)
}

// TransactionValidator re-validates a chunk's transactions against the
// state described by the storage config, recording a storage proof if
// requested.
type TransactionValidator interface {
	ValidatePreparedTransactions(header *types.ChunkHeader, config StorageConfig, txs []types.Transaction) (*ValidatedTransactions, error)
}

// WitnessBuilder assembles the state witness of a chunk.
type WitnessBuilder interface {
	BuildWitness(prevBlock *types.BlockHeader, prevChunk *types.ChunkHeader, chunk *types.Chunk, storageProof stateless.PartialState) (*stateless.ChunkStateWitness, error)
}

// PreValidator runs the cheap, synchronous checks on a witness.
type PreValidator interface {
	PreValidate(witness *stateless.ChunkStateWitness) (*PreValidationResult, error)
}

// WitnessValidator fully validates a witness by replaying its transitions.
type WitnessValidator interface {
	Validate(witness *stateless.ChunkStateWitness, pre *PreValidationResult) error
}

// Backend bundles the collaborators the validator calls out to.
type Backend struct {
	Transactions TransactionValidator
	Builder      WitnessBuilder
	PreValidator PreValidator
	Validator    WitnessValidator
}

func (b *Backend) check() error {
	if b.Transactions == nil || b.Builder == nil || b.PreValidator == nil || b.Validator == nil {
		return errors.New("shadow validation backend is incomplete")
	}
	return nil
}
