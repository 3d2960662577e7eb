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
	"math"
	"slices"
	"strconv"

	"github.com/tkmct/shadowwitness/core/stateless"
)

// Bucket is a half-open range [Lower, Upper) of proof value sizes.
type Bucket struct {
	Lower int
	Upper int // math.MaxInt for the last bucket
	Label string
}

var sizeBuckets = newSizeBuckets(0, 100, 1000, 4000, 16_000, 32_000, 64_000, 128_000)

func newSizeBuckets(bounds ...int) []Bucket {
	buckets := make([]Bucket, len(bounds))
	for i, lower := range bounds {
		upper, upperLabel := math.MaxInt, "inf"
		if i+1 < len(bounds) {
			upper = bounds[i+1]
			upperLabel = strconv.Itoa(upper)
		}
		buckets[i] = Bucket{
			Lower: lower,
			Upper: upper,
			Label: strconv.Itoa(lower) + "_" + upperLabel,
		}
	}
	return buckets
}

// SizeBuckets returns the proof value size buckets in ascending order.
func SizeBuckets() []Bucket {
	return slices.Clone(sizeBuckets)
}

// BucketFor returns the bucket a value of the given size falls into.
func BucketFor(size int) Bucket {
	for _, b := range sizeBuckets {
		if size >= b.Lower && size < b.Upper {
			return b
		}
	}
	// Unreachable for non-negative sizes.
	return sizeBuckets[0]
}

// RecordSizeDistribution adds the byte length of every proof value of the
// witness to the total of its size bucket. It must run before the witness is
// reduced so that it sees the complete proof.
func RecordSizeDistribution(m *Metrics, w *stateless.ChunkStateWitness) {
	shard := w.ShardID()
	for _, transition := range w.Transitions() {
		for _, value := range transition.Values() {
			m.proofValuesSize(shard, BucketFor(len(value)).Label, len(value))
		}
	}
}
