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
	"bytes"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	fuzz "github.com/google/gofuzz"
	"github.com/tkmct/shadowwitness/core/types"
)

func newTestWitness() *ChunkStateWitness {
	return &ChunkStateWitness{
		ChunkHeader: &types.ChunkHeader{
			ChunkHash:      common.HexToHash("0xc1"),
			ShardID:        3,
			PrevBlockHash:  common.HexToHash("0xb0"),
			PrevStateRoot:  common.HexToHash("0x51"),
			HeightCreated:  10,
			HeightIncluded: 10,
		},
		MainStateTransition: ChunkStateTransition{
			BlockHash:     common.HexToHash("0xb0"),
			BaseState:     TrieValues{{0x01, 0x02}, bytes.Repeat([]byte{0xaa}, 64)},
			PostStateRoot: common.HexToHash("0x52"),
		},
		AppliedReceiptsHash: common.HexToHash("0xee"),
		Transactions:        []types.Transaction{{0xf0}, {0xf1, 0xf2}},
		ImplicitTransitions: []ChunkStateTransition{
			{BlockHash: common.HexToHash("0xb1"), BaseState: TrieValues{{0x03}}},
			{BlockHash: common.HexToHash("0xb2"), BaseState: TrieValues{}},
		},
		NewTransactions:                []types.Transaction{{0xf3}},
		NewTransactionsValidationState: TrieValues{{0x04}},
	}
}

func TestWitnessCopyIsIndependent(t *testing.T) {
	w := newTestWitness()
	cpy := w.Copy()

	cpy.MainStateTransition.Values()[0][0] = 0xff
	cpy.ImplicitTransitions[0].BaseState = TrieValues{}
	cpy.ChunkHeader.ShardID = 7
	cpy.Transactions[0][0] = 0x00

	if w.MainStateTransition.Values()[0][0] != 0x01 {
		t.Fatal("copy shares main transition values with original")
	}
	if len(w.ImplicitTransitions[0].Values()) != 1 {
		t.Fatal("copy shares implicit transitions with original")
	}
	if w.ShardID() != 3 {
		t.Fatalf("copy shares chunk header with original, shard %d", w.ShardID())
	}
	if w.Transactions[0][0] != 0xf0 {
		t.Fatal("copy shares transactions with original")
	}
}

func TestWitnessTransitionsAlias(t *testing.T) {
	w := newTestWitness()
	transitions := w.Transitions()
	if len(transitions) != 3 {
		t.Fatalf("expected 3 transitions, got %d", len(transitions))
	}
	transitions[0].BaseState = TrieValues{}
	transitions[2].BaseState = TrieValues{{0x09}}

	if len(w.MainStateTransition.Values()) != 0 {
		t.Fatal("main transition not updated through alias")
	}
	if got := w.ImplicitTransitions[1].Values(); len(got) != 1 || got[0][0] != 0x09 {
		t.Fatal("implicit transition not updated through alias")
	}
}

func TestEncodeWitnessDeterministic(t *testing.T) {
	w := newTestWitness()
	first, err := EncodeWitness(w)
	if err != nil {
		t.Fatal(err)
	}
	second, err := EncodeWitness(w.Copy())
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(first, second) {
		t.Fatal("equal witnesses encoded differently")
	}
	size, err := WitnessSize(w)
	if err != nil {
		t.Fatal(err)
	}
	if size != len(first) {
		t.Fatalf("size mismatch: have %d, want %d", size, len(first))
	}
}

func TestDecodeWitness(t *testing.T) {
	w := newTestWitness()
	enc, err := EncodeWitness(w)
	if err != nil {
		t.Fatal(err)
	}
	dec, err := DecodeWitness(enc)
	if err != nil {
		t.Fatal(err)
	}
	if *dec.ChunkHeader != *w.ChunkHeader {
		t.Fatalf("chunk header mismatch: %+v", dec.ChunkHeader)
	}
	if len(dec.ImplicitTransitions) != 2 {
		t.Fatalf("expected 2 implicit transitions, got %d", len(dec.ImplicitTransitions))
	}
	values := dec.MainStateTransition.Values()
	if len(values) != 2 || !bytes.Equal(values[1], bytes.Repeat([]byte{0xaa}, 64)) {
		t.Fatal("main transition values mismatch")
	}
	reenc, err := EncodeWitness(dec)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(enc, reenc) {
		t.Fatal("re-encoding changed the witness")
	}
}

func TestEncodeWitnessSizeTracksValues(t *testing.T) {
	w := newTestWitness()
	before, err := WitnessSize(w)
	if err != nil {
		t.Fatal(err)
	}
	w.MainStateTransition.BaseState = TrieValues{{0x01, 0x02}}
	after, err := WitnessSize(w)
	if err != nil {
		t.Fatal(err)
	}
	if after >= before {
		t.Fatalf("dropping a value did not shrink the witness: %d >= %d", after, before)
	}
}

func TestEncodeWitnessNilState(t *testing.T) {
	w := newTestWitness()
	w.MainStateTransition.BaseState = nil
	w.NewTransactionsValidationState = nil
	if _, err := EncodeWitness(w); err != nil {
		t.Fatalf("nil partial state should encode, got %v", err)
	}
}

type unknownState struct{}

func (unknownState) Kind() PartialStateKind { return 42 }
func (unknownState) Copy() PartialState     { return unknownState{} }

func TestEncodeWitnessErrors(t *testing.T) {
	w := newTestWitness()
	w.ChunkHeader = nil
	if _, err := EncodeWitness(w); !errors.Is(err, ErrMissingChunkHeader) {
		t.Fatalf("expected ErrMissingChunkHeader, got %v", err)
	}
	w = newTestWitness()
	w.ImplicitTransitions[1].BaseState = unknownState{}
	if _, err := EncodeWitness(w); !errors.Is(err, ErrUnknownPartialState) {
		t.Fatalf("expected ErrUnknownPartialState, got %v", err)
	}
}

func TestWitnessCopyRandomized(t *testing.T) {
	f := fuzz.NewWithSeed(1).NilChance(0).NumElements(1, 16)
	for i := 0; i < 100; i++ {
		var main, implicit [][]byte
		f.Fuzz(&main)
		f.Fuzz(&implicit)

		w := newTestWitness()
		w.MainStateTransition.BaseState = TrieValues(main)
		w.ImplicitTransitions = []ChunkStateTransition{{BaseState: TrieValues(implicit)}}
		want, err := EncodeWitness(w)
		if err != nil {
			t.Fatal(err)
		}
		cpy := w.Copy()
		for _, transition := range cpy.Transitions() {
			values := transition.Values()
			for j := range values {
				values[j] = append(values[j], 0xff)
			}
			transition.BaseState = values[:len(values)/2]
		}
		have, err := EncodeWitness(w)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(have, want) {
			t.Fatalf("iteration %d: mutating the copy changed the original", i)
		}
	}
}
