// Package cache holds the snapshot the HTTP server hands out between cycles.
// Entries expire after a TTL so a quiet server falls back to a fresh cycle.
package cache

import (
	"sync"
	"sync/atomic"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/agentstation/staymap/pkg/snapshot"
)

const latestKey = "snapshot:latest"

// Cache wraps go-cache with snapshot-typed accessors and hit counters.
type Cache struct {
	store  *gocache.Cache
	mu     sync.Mutex // serializes Put
	hits   atomic.Int64
	misses atomic.Int64
}

// New creates a new cache with the given TTL and cleanup interval.
func New(defaultTTL, cleanupInterval time.Duration) *Cache {
	return &Cache{
		store: gocache.New(defaultTTL, cleanupInterval),
	}
}

// Put replaces the latest snapshot. Older snapshots never replace newer ones.
func (c *Cache) Put(snap *snapshot.Snapshot) {
	if snap == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if cur, ok := c.peek(); ok && cur.TakenAt.After(snap.TakenAt) {
		return
	}
	c.store.Set(latestKey, snap, gocache.DefaultExpiration)
	c.store.Set(snapshotKey(snap.ID), snap, gocache.DefaultExpiration)
}

// Latest returns the most recent unexpired snapshot.
func (c *Cache) Latest() (*snapshot.Snapshot, bool) {
	snap, ok := c.peek()
	c.count(ok)
	return snap, ok
}

// ByID returns a cached snapshot by its ID.
func (c *Cache) ByID(id string) (*snapshot.Snapshot, bool) {
	v, ok := c.store.Get(snapshotKey(id))
	c.count(ok)
	if !ok {
		return nil, false
	}
	return v.(*snapshot.Snapshot), true
}

// Clear removes all items from the cache.
func (c *Cache) Clear() {
	c.store.Flush()
}

// ItemCount returns the number of items in the cache.
func (c *Cache) ItemCount() int {
	return c.store.ItemCount()
}

// Stats returns cache statistics.
type Stats struct {
	ItemCount int   `json:"item_count"`
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
}

// GetStats returns current cache statistics.
func (c *Cache) GetStats() Stats {
	return Stats{
		ItemCount: c.store.ItemCount(),
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
	}
}

func (c *Cache) peek() (*snapshot.Snapshot, bool) {
	v, ok := c.store.Get(latestKey)
	if !ok {
		return nil, false
	}
	return v.(*snapshot.Snapshot), true
}

func (c *Cache) count(hit bool) {
	if hit {
		c.hits.Add(1)
		return
	}
	c.misses.Add(1)
}

func snapshotKey(id string) string {
	return "snapshot:" + id
}
