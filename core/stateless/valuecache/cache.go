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

// Package valuecache tracks, per shard, which large trie proof values a
// witness receiver has probably already seen.
package valuecache

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/lru"
	"github.com/minio/sha256-simd"
)

// DefaultCapacity is the number of value hashes kept per shard.
const DefaultCapacity = 1000

// HashValue returns the content hash under which a proof value is cached.
func HashValue(value []byte) common.Hash {
	return common.Hash(sha256.Sum256(value))
}

// Cache is a set of per-shard LRU caches of proof value hashes. The cache
// for a shard is created on first access and lives as long as the Cache.
// Entries leave only through LRU eviction.
//
// Cache is not safe for concurrent use; the caller serializes access.
type Cache struct {
	capacity int
	shards   map[uint64]*lru.BasicLRU[common.Hash, struct{}]
}

// New creates a cache holding at most capacity hashes per shard.
func New(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Cache{
		capacity: capacity,
		shards:   make(map[uint64]*lru.BasicLRU[common.Hash, struct{}]),
	}
}

func (c *Cache) shard(id uint64) *lru.BasicLRU[common.Hash, struct{}] {
	cache, ok := c.shards[id]
	if !ok {
		l := lru.NewBasicLRU[common.Hash, struct{}](c.capacity)
		cache = &l
		c.shards[id] = cache
	}
	return cache
}

// Contains reports whether hash is cached for the shard without touching
// its recency.
func (c *Cache) Contains(shard uint64, hash common.Hash) bool {
	return c.shard(shard).Contains(hash)
}

// Lookup reports whether hash is cached for the shard. A hit marks the entry
// as most recently used.
func (c *Cache) Lookup(shard uint64, hash common.Hash) bool {
	_, ok := c.shard(shard).Get(hash)
	return ok
}

// Insert marks hash as present and most recently used for the shard,
// evicting the least recently used entry when the shard is full. It
// reports whether an eviction happened.
func (c *Cache) Insert(shard uint64, hash common.Hash) bool {
	return c.shard(shard).Add(hash, struct{}{})
}

// Len returns the number of hashes cached for the shard.
func (c *Cache) Len(shard uint64) int {
	return c.shard(shard).Len()
}

// Capacity returns the per-shard bound.
func (c *Cache) Capacity() int {
	return c.capacity
}
