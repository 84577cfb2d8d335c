package conditions

import (
	"sync"
	"time"

	"github.com/example/errand-core/internal/models"
)

// cellCache is a tiny in-memory TTL cache for weather lookups keyed by grid
// cell.
type cellCache struct {
	mu    sync.RWMutex
	store map[string]cellEntry
	ttl   time.Duration
}

type cellEntry struct {
	cond models.WeatherCondition
	ts   time.Time
}

func newCellCache(ttl time.Duration) *cellCache {
	return &cellCache{store: make(map[string]cellEntry), ttl: ttl}
}

func (c *cellCache) get(key string) (models.WeatherCondition, bool) {
	c.mu.RLock()
	e, ok := c.store[key]
	c.mu.RUnlock()
	if !ok {
		return models.WeatherClear, false
	}
	if time.Since(e.ts) > c.ttl {
		c.mu.Lock()
		delete(c.store, key)
		c.mu.Unlock()
		return models.WeatherClear, false
	}
	return e.cond, true
}

func (c *cellCache) set(key string, cond models.WeatherCondition) {
	c.mu.Lock()
	c.store[key] = cellEntry{cond: cond, ts: time.Now()}
	c.mu.Unlock()
}
