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
	"cmp"
	"slices"

	"github.com/ethereum/go-ethereum/common"
	"github.com/tkmct/shadowwitness/core/stateless"
	"github.com/tkmct/shadowwitness/core/stateless/valuecache"
)

// Reducer shrinks witnesses by dropping large proof values the receiver has
// probably seen in an earlier witness of the same shard.
type Reducer struct {
	cache   *valuecache.Cache
	cutoff  int
	metrics *Metrics
}

// NewReducer creates a reducer eliding values of at least cutoff bytes that
// are present in cache.
func NewReducer(cache *valuecache.Cache, cutoff int, m *Metrics) *Reducer {
	return &Reducer{cache: cache, cutoff: cutoff, metrics: m}
}

type proofValue struct {
	blob []byte
	hash common.Hash // only set for values at or above the cutoff
}

// ReduceWitness reduces the main transition and every implicit transition
// of the witness in place.
func (r *Reducer) ReduceWitness(w *stateless.ChunkStateWitness) {
	shard := w.ShardID()
	for _, transition := range w.Transitions() {
		r.ReduceTransition(shard, transition)
	}
}

// ReduceTransition drops every value of at least the cutoff size whose hash
// is cached for the shard, sorts the remaining values by ascending size and
// caches the hashes of the remaining large values. The insertion runs from
// the largest value to the smallest, leaving the smallest large value as the
// most recently used entry. It reports whether the cache was updated.
func (r *Reducer) ReduceTransition(shard uint64, t *stateless.ChunkStateTransition) bool {
	values, ok := t.BaseState.(stateless.TrieValues)
	if !ok && t.BaseState != nil {
		r.metrics.cacheSize(shard, r.cache.Len(shard))
		return false
	}
	kept := make([]proofValue, 0, len(values))
	for _, blob := range values {
		if len(blob) < r.cutoff {
			kept = append(kept, proofValue{blob: blob})
			continue
		}
		hash := valuecache.HashValue(blob)
		if r.cache.Lookup(shard, hash) {
			continue
		}
		kept = append(kept, proofValue{blob: blob, hash: hash})
	}
	slices.SortStableFunc(kept, func(a, b proofValue) int {
		return cmp.Compare(len(a.blob), len(b.blob))
	})

	var updated bool
	for i := len(kept) - 1; i >= 0 && len(kept[i].blob) >= r.cutoff; i-- {
		r.cache.Insert(shard, kept[i].hash)
		updated = true
	}
	reduced := make(stateless.TrieValues, len(kept))
	for i, v := range kept {
		reduced[i] = v.blob
	}
	t.BaseState = reduced

	if updated {
		r.metrics.cacheUpdated(shard)
	}
	r.metrics.cacheSize(shard, r.cache.Len(shard))
	return updated
}
