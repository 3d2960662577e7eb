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

package stateless

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/tkmct/shadowwitness/core/types"
)

var (
	// ErrMissingChunkHeader is returned when encoding a witness without header.
	ErrMissingChunkHeader = errors.New("witness has no chunk header")

	// ErrUnknownPartialState is returned for proof kinds the codec does not know.
	ErrUnknownPartialState = errors.New("unknown partial state kind")
)

// rlpPartialState is the RLP-encodable representation of a PartialState.
type rlpPartialState struct {
	Kind   uint8
	Values [][]byte
}

// rlpChunkStateTransition is the RLP-encodable representation of ChunkStateTransition.
type rlpChunkStateTransition struct {
	BlockHash     common.Hash
	BaseState     rlpPartialState
	PostStateRoot common.Hash
}

// rlpChunkHeader is the RLP-encodable representation of types.ChunkHeader.
type rlpChunkHeader struct {
	ChunkHash      common.Hash
	ShardID        uint64
	PrevBlockHash  common.Hash
	PrevStateRoot  common.Hash
	HeightCreated  uint64
	HeightIncluded uint64
}

// rlpChunkStateWitness is the RLP-encodable representation of ChunkStateWitness.
type rlpChunkStateWitness struct {
	ChunkHeader                    rlpChunkHeader
	MainStateTransition            rlpChunkStateTransition
	AppliedReceiptsHash            common.Hash
	Transactions                   [][]byte
	ImplicitTransitions            []rlpChunkStateTransition
	NewTransactions                [][]byte
	NewTransactionsValidationState rlpPartialState
}

// EncodeWitness encodes a witness to its canonical RLP form. The encoding
// is deterministic: equal witnesses always encode to equal bytes.
func EncodeWitness(w *ChunkStateWitness) ([]byte, error) {
	if w.ChunkHeader == nil {
		return nil, ErrMissingChunkHeader
	}
	main, err := encodeTransition(&w.MainStateTransition)
	if err != nil {
		return nil, err
	}
	newTxsState, err := encodePartialState(w.NewTransactionsValidationState)
	if err != nil {
		return nil, err
	}
	enc := rlpChunkStateWitness{
		ChunkHeader: rlpChunkHeader{
			ChunkHash:      w.ChunkHeader.ChunkHash,
			ShardID:        w.ChunkHeader.ShardID,
			PrevBlockHash:  w.ChunkHeader.PrevBlockHash,
			PrevStateRoot:  w.ChunkHeader.PrevStateRoot,
			HeightCreated:  w.ChunkHeader.HeightCreated,
			HeightIncluded: w.ChunkHeader.HeightIncluded,
		},
		MainStateTransition:            main,
		AppliedReceiptsHash:            w.AppliedReceiptsHash,
		Transactions:                   encodeTransactions(w.Transactions),
		ImplicitTransitions:            make([]rlpChunkStateTransition, len(w.ImplicitTransitions)),
		NewTransactions:                encodeTransactions(w.NewTransactions),
		NewTransactionsValidationState: newTxsState,
	}
	for i := range w.ImplicitTransitions {
		if enc.ImplicitTransitions[i], err = encodeTransition(&w.ImplicitTransitions[i]); err != nil {
			return nil, fmt.Errorf("implicit transition %d: %w", i, err)
		}
	}
	return rlp.EncodeToBytes(&enc)
}

// DecodeWitness decodes RLP bytes produced by EncodeWitness.
func DecodeWitness(data []byte) (*ChunkStateWitness, error) {
	var dec rlpChunkStateWitness
	if err := rlp.DecodeBytes(data, &dec); err != nil {
		return nil, err
	}
	main, err := decodeTransition(dec.MainStateTransition)
	if err != nil {
		return nil, err
	}
	newTxsState, err := decodePartialState(dec.NewTransactionsValidationState)
	if err != nil {
		return nil, err
	}
	w := &ChunkStateWitness{
		ChunkHeader: &types.ChunkHeader{
			ChunkHash:      dec.ChunkHeader.ChunkHash,
			ShardID:        dec.ChunkHeader.ShardID,
			PrevBlockHash:  dec.ChunkHeader.PrevBlockHash,
			PrevStateRoot:  dec.ChunkHeader.PrevStateRoot,
			HeightCreated:  dec.ChunkHeader.HeightCreated,
			HeightIncluded: dec.ChunkHeader.HeightIncluded,
		},
		MainStateTransition:            main,
		AppliedReceiptsHash:            dec.AppliedReceiptsHash,
		Transactions:                   decodeTransactions(dec.Transactions),
		ImplicitTransitions:            make([]ChunkStateTransition, len(dec.ImplicitTransitions)),
		NewTransactions:                decodeTransactions(dec.NewTransactions),
		NewTransactionsValidationState: newTxsState,
	}
	for i, t := range dec.ImplicitTransitions {
		if w.ImplicitTransitions[i], err = decodeTransition(t); err != nil {
			return nil, fmt.Errorf("implicit transition %d: %w", i, err)
		}
	}
	return w, nil
}

// WitnessSize returns the length of the canonical encoding of the witness.
func WitnessSize(w *ChunkStateWitness) (int, error) {
	enc, err := EncodeWitness(w)
	if err != nil {
		return 0, err
	}
	return len(enc), nil
}

func encodeTransition(t *ChunkStateTransition) (rlpChunkStateTransition, error) {
	state, err := encodePartialState(t.BaseState)
	if err != nil {
		return rlpChunkStateTransition{}, err
	}
	return rlpChunkStateTransition{
		BlockHash:     t.BlockHash,
		BaseState:     state,
		PostStateRoot: t.PostStateRoot,
	}, nil
}

func decodeTransition(t rlpChunkStateTransition) (ChunkStateTransition, error) {
	state, err := decodePartialState(t.BaseState)
	if err != nil {
		return ChunkStateTransition{}, err
	}
	return ChunkStateTransition{
		BlockHash:     t.BlockHash,
		BaseState:     state,
		PostStateRoot: t.PostStateRoot,
	}, nil
}

// encodePartialState encodes a missing state as empty trie values.
func encodePartialState(state PartialState) (rlpPartialState, error) {
	switch s := state.(type) {
	case nil:
		return rlpPartialState{Kind: uint8(KindTrieValues), Values: [][]byte{}}, nil
	case TrieValues:
		values := [][]byte(s)
		if values == nil {
			values = [][]byte{}
		}
		return rlpPartialState{Kind: uint8(KindTrieValues), Values: values}, nil
	default:
		return rlpPartialState{}, fmt.Errorf("%w: %d", ErrUnknownPartialState, state.Kind())
	}
}

func decodePartialState(state rlpPartialState) (PartialState, error) {
	switch PartialStateKind(state.Kind) {
	case KindTrieValues:
		return TrieValues(state.Values), nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownPartialState, state.Kind)
	}
}

func encodeTransactions(txs []types.Transaction) [][]byte {
	out := make([][]byte, len(txs))
	for i, tx := range txs {
		out[i] = tx
	}
	return out
}

func decodeTransactions(txs [][]byte) []types.Transaction {
	out := make([]types.Transaction, len(txs))
	for i, tx := range txs {
		out[i] = tx
	}
	return out
}
