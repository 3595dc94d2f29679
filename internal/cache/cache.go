package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/dpup/prefab/errors"
	"github.com/dpup/prefab/logging"
)

// Store is a JSON value store with per-entry TTL
type Store interface {
	Get(ctx context.Context, key string, result interface{}) (bool, error)
	Set(ctx context.Context, key string, data interface{}, ttl time.Duration) error
}

// Cache provides thread-safe in-memory caching with TTL
type Cache struct {
	entries map[string]*CacheEntry
	mutex   sync.RWMutex
}

var _ Store = (*Cache)(nil)

// CacheEntry represents a cached item with metadata
type CacheEntry struct {
	Key       string    `json:"key"`
	Data      []byte    `json:"data"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewCache creates a new in-memory cache
func NewCache() *Cache {
	return &Cache{
		entries: make(map[string]*CacheEntry),
	}
}

// Set stores data in cache, expiring after ttl
func (c *Cache) Set(_ context.Context, key string, data interface{}, ttl time.Duration) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal data for cache: %w", err)
	}

	now := time.Now()
	entry := &CacheEntry{
		Key:       key,
		Data:      jsonData,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.entries[key] = entry
	return nil
}

// Get retrieves data from cache if not stale
func (c *Cache) Get(_ context.Context, key string, result interface{}) (bool, error) {
	c.mutex.RLock()
	entry, exists := c.entries[key]
	c.mutex.RUnlock()

	if !exists || time.Now().After(entry.ExpiresAt) {
		return false, nil
	}

	if err := json.Unmarshal(entry.Data, result); err != nil {
		return false, fmt.Errorf("failed to unmarshal cached data: %w", err)
	}

	return true, nil
}

// Delete removes an entry from cache
func (c *Cache) Delete(key string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	delete(c.entries, key)
}

// Stats returns cache statistics
func (c *Cache) Stats() CacheStats {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	now := time.Now()
	stats := CacheStats{
		TotalEntries: len(c.entries),
	}

	for _, entry := range c.entries {
		if now.After(entry.ExpiresAt) {
			stats.StaleEntries++
		} else {
			stats.FreshEntries++
		}

		if stats.OldestEntry.IsZero() || entry.CreatedAt.Before(stats.OldestEntry) {
			stats.OldestEntry = entry.CreatedAt
		}
		if entry.CreatedAt.After(stats.NewestEntry) {
			stats.NewestEntry = entry.CreatedAt
		}
	}

	return stats
}

// CleanupStale removes all stale entries from cache
func (c *Cache) CleanupStale() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	now := time.Now()
	var removed int

	for key, entry := range c.entries {
		if now.After(entry.ExpiresAt) {
			delete(c.entries, key)
			removed++
		}
	}

	return removed
}

// StartPeriodicCleanup removes stale entries every interval until ctx is done
func (c *Cache) StartPeriodicCleanup(ctx context.Context, interval time.Duration) {
	ctx = logging.EnsureLogger(ctx)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				err, _ := errors.ParseStack(debug.Stack())
				skipFrames := 3
				numFrames := 5
				logging.Errorw(ctx, "Cache cleanup: recovered from panic",
					"error", r, "error.stack_trace", err.MinimalStack(skipFrames, numFrames))
			}
		}()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if removed := c.CleanupStale(); removed > 0 {
					logging.Debugw(ctx, "Cache cleanup: removed stale entries", "removed", removed)
				}
			}
		}
	}()
}

// CacheStats provides cache usage statistics
type CacheStats struct {
	TotalEntries int
	FreshEntries int
	StaleEntries int
	OldestEntry  time.Time
	NewestEntry  time.Time
}
