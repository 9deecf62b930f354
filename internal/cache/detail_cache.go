package cache

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/sanobery/recipe-be/internal/model"
)

type entry struct {
	detail    model.RecipeDetail
	expiresAt time.Time
}

// DetailCache keeps recently viewed recipe detail views. Entries expire after
// ttl and are evicted explicitly when the recipe changes.
//
// Every Invalidate bumps a per-recipe generation. A reader that built its
// view from the database stores it with SetIfUnchanged, so a view read
// before an invalidation never lands in the cache after it.
type DetailCache struct {
	lru *lru.Cache[uuid.UUID, entry]
	ttl time.Duration
	now func() time.Time

	mu  sync.Mutex
	gen map[uuid.UUID]uint64
}

func NewDetailCache(size int, ttl time.Duration) (*DetailCache, error) {
	l, err := lru.New[uuid.UUID, entry](size)
	if err != nil {
		return nil, fmt.Errorf("create detail cache: %w", err)
	}
	return &DetailCache{lru: l, ttl: ttl, now: time.Now, gen: map[uuid.UUID]uint64{}}, nil
}

// Get returns a copy of the cached detail view, or false when absent or expired.
func (c *DetailCache) Get(id uuid.UUID) (model.RecipeDetail, bool) {
	val, ok := c.lru.Get(id)
	if !ok {
		return model.RecipeDetail{}, false
	}

	if c.now().After(val.expiresAt) {
		c.lru.Remove(id)
		return model.RecipeDetail{}, false
	}

	return val.detail, true
}

// Generation returns the invalidation count seen so far for id.
func (c *DetailCache) Generation(id uuid.UUID) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen[id]
}

// SetIfUnchanged stores detail only when id has not been invalidated since
// gen was read. It reports whether the view was stored.
func (c *DetailCache) SetIfUnchanged(id uuid.UUID, gen uint64, detail model.RecipeDetail) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen[id] != gen {
		return false
	}
	c.lru.Add(id, entry{detail: detail, expiresAt: c.now().Add(c.ttl)})
	return true
}

func (c *DetailCache) Invalidate(id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen[id]++
	c.lru.Remove(id)
}
