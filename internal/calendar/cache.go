package calendar

import (
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// GridKey identifies a memoised month grid. Epoch and Version identify the tenant's
// events version; bumping it on every write makes older entries unreachable.
type GridKey struct {
	TenantID string
	Epoch    string
	Version  int64
	Year     int
	Month    time.Month
	Location string
}

// NewGridKey builds the key for the month containing anchor
func NewGridKey(tenantID, epoch string, version int64, anchor time.Time) GridKey {
	return GridKey{
		TenantID: tenantID,
		Epoch:    epoch,
		Version:  version,
		Year:     anchor.Year(),
		Month:    anchor.Month(),
		Location: anchor.Location().String(),
	}
}

func (k GridKey) String() string {
	return fmt.Sprintf("%s/%s.v%d/%04d-%02d/%s", k.TenantID, k.Epoch, k.Version, k.Year, int(k.Month), k.Location)
}

// GridCache is a bounded LRU of built month grids. Cached grids are shared and must
// not be mutated by callers.
type GridCache struct {
	cache *lru.Cache[GridKey, []Day]
}

// NewGridCache creates a cache holding at most size grids
func NewGridCache(size int) (*GridCache, error) {
	cache, err := lru.New[GridKey, []Day](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create grid cache: %w", err)
	}
	return &GridCache{cache: cache}, nil
}

// Get returns the grid stored under key
func (c *GridCache) Get(key GridKey) ([]Day, bool) {
	return c.cache.Get(key)
}

// Add stores grid under key
func (c *GridCache) Add(key GridKey, grid []Day) {
	c.cache.Add(key, grid)
}

// Len returns the number of cached grids
func (c *GridCache) Len() int {
	return c.cache.Len()
}

// Purge drops every cached grid
func (c *GridCache) Purge() {
	c.cache.Purge()
}
