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
	"bytes"
	"math/rand"
	"testing"

	"github.com/tkmct/shadowwitness/core/stateless"
	"github.com/tkmct/shadowwitness/core/stateless/valuecache"
)

func newTestReducer() (*Reducer, *valuecache.Cache, *Metrics) {
	cache := valuecache.New(valuecache.DefaultCapacity)
	m := newTestMetrics()
	return NewReducer(cache, DefaultCacheCutoff, m), cache, m
}

func valueLengths(values stateless.TrieValues) []int {
	lengths := make([]int, len(values))
	for i, v := range values {
		lengths[i] = len(v)
	}
	return lengths
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestReduceFirstSightKeepsEverything(t *testing.T) {
	r, cache, m := newTestReducer()

	large1, large2 := blob(40_000, 1), blob(35_000, 2)
	transition := &stateless.ChunkStateTransition{
		BaseState: stateless.TrieValues{blob(50, 3), large1, large2},
	}
	if updated := r.ReduceTransition(3, transition); !updated {
		t.Fatal("expected cache update")
	}
	if got := valueLengths(transition.Values()); !equalInts(got, []int{50, 35_000, 40_000}) {
		t.Fatalf("unexpected value lengths %v", got)
	}
	if !cache.Contains(3, valuecache.HashValue(large1)) || !cache.Contains(3, valuecache.HashValue(large2)) {
		t.Fatal("large values not cached")
	}
	if cache.Len(3) != 2 {
		t.Fatalf("expected 2 cached hashes, got %d", cache.Len(3))
	}
	if n := counterValue(m.Registry(), "stateless/shadow/cache/updated/3"); n != 1 {
		t.Fatalf("expected updated counter 1, got %d", n)
	}
	if n := gaugeValue(m.Registry(), "stateless/shadow/cache/size/3"); n != 2 {
		t.Fatalf("expected cache size gauge 2, got %d", n)
	}
}

func TestReduceDropsRepeatedValue(t *testing.T) {
	r, cache, _ := newTestReducer()

	repeated := blob(40_000, 1)
	r.ReduceTransition(3, &stateless.ChunkStateTransition{
		BaseState: stateless.TrieValues{blob(50, 3), repeated, blob(35_000, 2)},
	})

	fresh := blob(36_000, 4)
	transition := &stateless.ChunkStateTransition{
		BaseState: stateless.TrieValues{bytes.Clone(repeated), fresh},
	}
	r.ReduceTransition(3, transition)

	values := transition.Values()
	if len(values) != 1 || !bytes.Equal(values[0], fresh) {
		t.Fatalf("expected only the fresh value to remain, got lengths %v", valueLengths(values))
	}
	if !cache.Contains(3, valuecache.HashValue(fresh)) {
		t.Fatal("fresh value not cached")
	}
}

func TestReduceSmallValuesNeverCached(t *testing.T) {
	r, cache, m := newTestReducer()

	small := blob(DefaultCacheCutoff-1, 1)
	for i := 0; i < 3; i++ {
		transition := &stateless.ChunkStateTransition{
			BaseState: stateless.TrieValues{bytes.Clone(small)},
		}
		if r.ReduceTransition(0, transition) {
			t.Fatal("small value updated the cache")
		}
		if len(transition.Values()) != 1 {
			t.Fatal("small value was dropped")
		}
	}
	if cache.Len(0) != 0 {
		t.Fatalf("expected empty cache, got %d", cache.Len(0))
	}
	if n := counterValue(m.Registry(), "stateless/shadow/cache/updated/0"); n != 0 {
		t.Fatalf("expected no updates, got %d", n)
	}
}

func TestReduceCutoffBoundary(t *testing.T) {
	r, _, _ := newTestReducer()

	atCutoff := blob(DefaultCacheCutoff, 1)
	r.ReduceTransition(0, &stateless.ChunkStateTransition{BaseState: stateless.TrieValues{atCutoff}})

	transition := &stateless.ChunkStateTransition{BaseState: stateless.TrieValues{bytes.Clone(atCutoff)}}
	r.ReduceTransition(0, transition)
	if len(transition.Values()) != 0 {
		t.Fatal("value of exactly the cutoff size was not elided")
	}
}

func TestReduceEmptyAndNilState(t *testing.T) {
	r, _, _ := newTestReducer()

	for _, transition := range []*stateless.ChunkStateTransition{
		{},
		{BaseState: stateless.TrieValues{}},
		{BaseState: stateless.TrieValues(nil)},
	} {
		if r.ReduceTransition(1, transition) {
			t.Fatal("empty transition updated the cache")
		}
		if len(transition.Values()) != 0 {
			t.Fatal("empty transition gained values")
		}
	}
}

func TestReduceEvictionAfterCapacity(t *testing.T) {
	r, cache, _ := newTestReducer()

	first := blob(DefaultCacheCutoff, 0)
	for i := 0; i <= valuecache.DefaultCapacity; i++ {
		r.ReduceTransition(5, &stateless.ChunkStateTransition{
			BaseState: stateless.TrieValues{blob(DefaultCacheCutoff, uint64(i))},
		})
	}
	if cache.Len(5) != valuecache.DefaultCapacity {
		t.Fatalf("expected %d cached hashes, got %d", valuecache.DefaultCapacity, cache.Len(5))
	}
	if cache.Contains(5, valuecache.HashValue(first)) {
		t.Fatal("first value survived eviction")
	}
	transition := &stateless.ChunkStateTransition{BaseState: stateless.TrieValues{first}}
	r.ReduceTransition(5, transition)
	if len(transition.Values()) != 1 {
		t.Fatal("evicted value was elided")
	}
}

// Within one transition the largest value is inserted first and so becomes
// the oldest of the batch.
func TestReduceInsertionOrder(t *testing.T) {
	cache := valuecache.New(2)
	r := NewReducer(cache, DefaultCacheCutoff, newTestMetrics())

	small, mid, large := blob(33_000, 1), blob(34_000, 2), blob(35_000, 3)
	r.ReduceTransition(0, &stateless.ChunkStateTransition{
		BaseState: stateless.TrieValues{mid, large, small},
	})
	// Capacity 2: inserting large, mid, small in that order evicts large.
	if cache.Contains(0, valuecache.HashValue(large)) {
		t.Fatal("largest value should have been evicted first")
	}
	if !cache.Contains(0, valuecache.HashValue(mid)) || !cache.Contains(0, valuecache.HashValue(small)) {
		t.Fatal("smaller large values should remain cached")
	}

	// One more insertion evicts mid, the older of the two survivors.
	r.ReduceTransition(0, &stateless.ChunkStateTransition{
		BaseState: stateless.TrieValues{blob(36_000, 4)},
	})
	if cache.Contains(0, valuecache.HashValue(mid)) || !cache.Contains(0, valuecache.HashValue(small)) {
		t.Fatal("smallest large value should be the most recently used")
	}
}

func TestReduceWitnessCoversImplicitTransitions(t *testing.T) {
	r, _, _ := newTestReducer()

	shared := blob(50_000, 9)
	w := &stateless.ChunkStateWitness{
		MainStateTransition: stateless.ChunkStateTransition{BaseState: stateless.TrieValues{shared}},
		ImplicitTransitions: []stateless.ChunkStateTransition{
			{BaseState: stateless.TrieValues{bytes.Clone(shared), blob(10, 1)}},
		},
	}
	r.ReduceWitness(w)
	if len(w.MainStateTransition.Values()) != 1 {
		t.Fatal("main transition lost its first-seen value")
	}
	if got := valueLengths(w.ImplicitTransitions[0].Values()); !equalInts(got, []int{10}) {
		t.Fatalf("implicit transition should elide the value cached by the main one, got %v", got)
	}
}

// TestReduceProperties checks, over random inputs and cache states, that
// only cached large values are dropped, that small values always survive
// unchanged and that the output is sorted by size.
func TestReduceProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	cache := valuecache.New(16)
	r := NewReducer(cache, DefaultCacheCutoff, newTestMetrics())

	sizes := []int{0, 1, 99, 100, 5000, 31_999, 32_000, 32_001, 40_000, 64_000}
	pool := make([][]byte, 40)
	for i := range pool {
		pool[i] = blob(sizes[rng.Intn(len(sizes))], uint64(i))
	}
	for iter := 0; iter < 200; iter++ {
		var input stateless.TrieValues
		for n := rng.Intn(8); n > 0; n-- {
			input = append(input, pool[rng.Intn(len(pool))])
		}
		shard := uint64(rng.Intn(2))
		cachedBefore := make(map[string]bool)
		for _, v := range input {
			cachedBefore[string(v)] = cache.Contains(shard, valuecache.HashValue(v))
		}
		transition := &stateless.ChunkStateTransition{BaseState: append(stateless.TrieValues(nil), input...)}
		r.ReduceTransition(shard, transition)
		output := transition.Values()

		remaining := make(map[string]int)
		for _, v := range output {
			remaining[string(v)]++
		}
		for _, v := range input {
			if remaining[string(v)] > 0 {
				remaining[string(v)]--
				continue
			}
			if len(v) < DefaultCacheCutoff {
				t.Fatalf("iteration %d: small value of %d bytes dropped", iter, len(v))
			}
			if !cachedBefore[string(v)] {
				t.Fatalf("iteration %d: uncached value of %d bytes dropped", iter, len(v))
			}
		}
		for i := 1; i < len(output); i++ {
			if len(output[i-1]) > len(output[i]) {
				t.Fatalf("iteration %d: output not sorted: %v", iter, valueLengths(output))
			}
		}
		if cache.Len(shard) > 16 {
			t.Fatalf("iteration %d: cache exceeds capacity", iter)
		}
	}
}
