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
	"github.com/ethereum/go-ethereum/common"
	"github.com/tkmct/shadowwitness/core/types"
)

// PartialStateKind tags the encoding of a PartialState.
type PartialStateKind uint8

const (
	// KindTrieValues marks a PartialState holding raw trie nodes and values.
	KindTrieValues PartialStateKind = 0
)

// PartialState is the proof a state transition carries so that it can be
// replayed without access to the full state. TrieValues is the only
// encoding today; new proof shapes implement this interface.
type PartialState interface {
	Kind() PartialStateKind

	// Copy returns a deep copy that shares no memory with the receiver.
	Copy() PartialState
}

// TrieValues is an unordered bag of serialized trie nodes and values. The
// order of the blobs carries no meaning for proof verification.
type TrieValues [][]byte

// Kind implements PartialState.
func (v TrieValues) Kind() PartialStateKind { return KindTrieValues }

// Copy implements PartialState.
func (v TrieValues) Copy() PartialState {
	if v == nil {
		return TrieValues(nil)
	}
	cpy := make(TrieValues, len(v))
	for i, blob := range v {
		cpy[i] = common.CopyBytes(blob)
	}
	return cpy
}

// ChunkStateTransition is one step (main or implicit) of applying a chunk,
// together with the proof needed to replay it.
type ChunkStateTransition struct {
	BlockHash     common.Hash
	BaseState     PartialState
	PostStateRoot common.Hash
}

// Copy returns a deep copy of the transition.
func (t *ChunkStateTransition) Copy() ChunkStateTransition {
	cpy := ChunkStateTransition{
		BlockHash:     t.BlockHash,
		PostStateRoot: t.PostStateRoot,
	}
	if t.BaseState != nil {
		cpy.BaseState = t.BaseState.Copy()
	}
	return cpy
}

// Values returns the trie values of the transition's proof, or nil if the
// proof is of another kind or missing.
func (t *ChunkStateTransition) Values() TrieValues {
	values, _ := t.BaseState.(TrieValues)
	return values
}

// ChunkStateWitness is everything a stateless validator needs to re-execute
// a chunk. A witness is built fresh for every validation attempt and is
// never persisted.
type ChunkStateWitness struct {
	ChunkHeader         *types.ChunkHeader
	MainStateTransition ChunkStateTransition
	AppliedReceiptsHash common.Hash
	Transactions        []types.Transaction

	// ImplicitTransitions holds one transition per shard with pending
	// incoming cross-shard effects.
	ImplicitTransitions []ChunkStateTransition

	NewTransactions                []types.Transaction
	NewTransactionsValidationState PartialState
}

// ShardID returns the shard of the chunk the witness was built for.
func (w *ChunkStateWitness) ShardID() uint64 {
	if w.ChunkHeader == nil {
		return 0
	}
	return w.ChunkHeader.ShardID
}

// Transitions returns the main transition followed by the implicit ones.
// The returned pointers alias the witness, so callers can mutate in place.
func (w *ChunkStateWitness) Transitions() []*ChunkStateTransition {
	transitions := make([]*ChunkStateTransition, 0, 1+len(w.ImplicitTransitions))
	transitions = append(transitions, &w.MainStateTransition)
	for i := range w.ImplicitTransitions {
		transitions = append(transitions, &w.ImplicitTransitions[i])
	}
	return transitions
}

// Copy returns a deep copy of the witness that can be handed to another
// goroutine and mutated freely.
func (w *ChunkStateWitness) Copy() *ChunkStateWitness {
	cpy := &ChunkStateWitness{
		MainStateTransition: w.MainStateTransition.Copy(),
		AppliedReceiptsHash: w.AppliedReceiptsHash,
		Transactions:        copyTransactions(w.Transactions),
		NewTransactions:     copyTransactions(w.NewTransactions),
	}
	if w.ChunkHeader != nil {
		header := *w.ChunkHeader
		cpy.ChunkHeader = &header
	}
	if w.ImplicitTransitions != nil {
		cpy.ImplicitTransitions = make([]ChunkStateTransition, len(w.ImplicitTransitions))
		for i := range w.ImplicitTransitions {
			cpy.ImplicitTransitions[i] = w.ImplicitTransitions[i].Copy()
		}
	}
	if w.NewTransactionsValidationState != nil {
		cpy.NewTransactionsValidationState = w.NewTransactionsValidationState.Copy()
	}
	return cpy
}

func copyTransactions(txs []types.Transaction) []types.Transaction {
	if txs == nil {
		return nil
	}
	cpy := make([]types.Transaction, len(txs))
	for i, tx := range txs {
		cpy[i] = common.CopyBytes(tx)
	}
	return cpy
}
