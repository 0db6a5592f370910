// Package catalogcache caches per-campaign condition catalogs with a bounded
// TTL so repeated event evaluation does not reread a campaign's conditions on
// every request. Entries expire on their own; writers to the campaign builder
// can also invalidate a campaign eagerly.
package catalogcache

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/maypok86/otter"

	"fulfillment-server/internal/store"
)

// Cache holds condition catalogs keyed by campaign ID. Stale reads are
// bounded by the TTL; correctness never depends on the cache because claim
// and completion writes go straight to the store.
type Cache struct {
	cache otter.Cache[string, []store.Condition]
}

// New builds a cache holding at most maxEntries campaign catalogs, each
// expiring ttl after it was written.
func New(maxEntries int, ttl time.Duration) (*Cache, error) {
	cache, err := otter.MustBuilder[string, []store.Condition](maxEntries).
		WithTTL(ttl).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build catalog cache: %w", err)
	}
	return &Cache{cache: cache}, nil
}

// Get returns the cached catalog for a campaign, if present and unexpired.
func (c *Cache) Get(campaignID uuid.UUID) ([]store.Condition, bool) {
	return c.cache.Get(campaignID.String())
}

// Set stores a campaign's catalog. An empty catalog is cached too so
// conditionless campaigns do not bypass the cache.
func (c *Cache) Set(campaignID uuid.UUID, conditions []store.Condition) {
	c.cache.Set(campaignID.String(), conditions)
}

// Invalidate drops a campaign's catalog ahead of its TTL.
func (c *Cache) Invalidate(campaignID uuid.UUID) {
	c.cache.Delete(campaignID.String())
}

// Len reports the number of cached catalogs.
func (c *Cache) Len() int {
	return c.cache.Size()
}

// Close releases the cache's background resources.
func (c *Cache) Close() {
	c.cache.Close()
}
