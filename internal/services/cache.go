// internal/services/cache.go
package services

import (
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

const maxPriceKey = "catalog:max_price"

// CatalogCache keeps derived catalog values until the next catalog write.
// Every Invalidate starts a new generation; values computed under an older
// generation are discarded.
type CatalogCache struct {
	mu         sync.Mutex
	generation uint64
	store      *cache.Cache
}

func NewCatalogCache(ttl time.Duration) *CatalogCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CatalogCache{store: cache.New(ttl, 2*ttl)}
}

// MaxPrice returns the cached price, if any, and the current generation to
// pass back to SetMaxPrice.
func (c *CatalogCache) MaxPrice() (float64, uint64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	value, found := c.store.Get(maxPriceKey)
	if !found {
		return 0, c.generation, false
	}
	price, ok := value.(float64)
	return price, c.generation, ok
}

// SetMaxPrice stores price only if no Invalidate happened since generation was read.
func (c *CatalogCache) SetMaxPrice(generation uint64, price float64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if generation != c.generation {
		return false
	}
	c.store.SetDefault(maxPriceKey, price)
	return true
}

func (c *CatalogCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.generation++
	c.store.Flush()
}
