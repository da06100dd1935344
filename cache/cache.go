// Copyright 2021 The hydra Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package cache

import (
	"hash/fnv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gogama/hydra/request"
)

// DefaultShardCount is the number of shards used by New.
const DefaultShardCount = 16

// A Cache is an in-memory response cache with per-entry expiry. It is
// split into shards, each with its own lock, and is safe for concurrent
// use.
type Cache struct {
	shards []*shard
	mask   uint64
	now    func() time.Time

	hits   int64
	misses int64
	sets   int64
}

type shard struct {
	lock    sync.RWMutex
	entries map[string]entry
}

type entry struct {
	resp    *request.Response
	expires time.Time
}

// Stats holds counters of cache activity.
type Stats struct {
	Hits   int64
	Misses int64
	Sets   int64
}

// New returns an empty Cache with DefaultShardCount shards.
func New() *Cache {
	return NewWithShards(DefaultShardCount)
}

// NewWithShards returns an empty Cache with at least n shards. The
// shard count is rounded up to a power of two.
func NewWithShards(n int) *Cache {
	if n <= 0 {
		n = DefaultShardCount
	}
	size := 1
	for size < n {
		size <<= 1
	}
	c := &Cache{
		shards: make([]*shard, size),
		mask:   uint64(size - 1),
		now:    time.Now,
	}
	for i := range c.shards {
		c.shards[i] = &shard{entries: make(map[string]entry)}
	}
	return c
}

func (c *Cache) shardFor(key string) *shard {
	h := fnv.New64a()
	_, _ = h.Write([]byte(key))
	return c.shards[h.Sum64()&c.mask]
}

// Get returns the unexpired response stored for r, or nil. The
// returned response is not bound to any request.
func (c *Cache) Get(r *request.Request) *request.Response {
	key := r.CacheKey()
	s := c.shardFor(key)
	now := c.now()

	s.lock.RLock()
	e, ok := s.entries[key]
	s.lock.RUnlock()

	if !ok {
		atomic.AddInt64(&c.misses, 1)
		return nil
	}
	if !now.Before(e.expires) {
		s.lock.Lock()
		if cur, ok := s.entries[key]; ok && cur.expires == e.expires {
			delete(s.entries, key)
		}
		s.lock.Unlock()
		atomic.AddInt64(&c.misses, 1)
		return nil
	}
	atomic.AddInt64(&c.hits, 1)
	return e.resp
}

// Set stores the response of r until r.CacheTimeout has elapsed. It
// does nothing if r has no response or no positive CacheTimeout.
func (c *Cache) Set(r *request.Request) {
	resp := r.Response()
	if resp == nil || r.CacheTimeout <= 0 {
		return
	}
	key := r.CacheKey()
	s := c.shardFor(key)
	e := entry{
		resp:    resp.WithRequest(nil),
		expires: c.now().Add(r.CacheTimeout),
	}
	s.lock.Lock()
	s.entries[key] = e
	s.lock.Unlock()
	atomic.AddInt64(&c.sets, 1)
}

// Delete removes the response stored for r, if any.
func (c *Cache) Delete(r *request.Request) {
	key := r.CacheKey()
	s := c.shardFor(key)
	s.lock.Lock()
	delete(s.entries, key)
	s.lock.Unlock()
}

// Clear removes every entry.
func (c *Cache) Clear() {
	for _, s := range c.shards {
		s.lock.Lock()
		s.entries = make(map[string]entry)
		s.lock.Unlock()
	}
}

// Purge removes every expired entry and returns how many it removed.
func (c *Cache) Purge() int {
	now := c.now()
	n := 0
	for _, s := range c.shards {
		s.lock.Lock()
		for k, e := range s.entries {
			if !now.Before(e.expires) {
				delete(s.entries, k)
				n++
			}
		}
		s.lock.Unlock()
	}
	return n
}

// Len returns the number of entries, including expired entries not yet
// removed.
func (c *Cache) Len() int {
	n := 0
	for _, s := range c.shards {
		s.lock.RLock()
		n += len(s.entries)
		s.lock.RUnlock()
	}
	return n
}

// Stats returns the activity counters.
func (c *Cache) Stats() Stats {
	return Stats{
		Hits:   atomic.LoadInt64(&c.hits),
		Misses: atomic.LoadInt64(&c.misses),
		Sets:   atomic.LoadInt64(&c.sets),
	}
}
