package catalog

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/tilelens/backend/internal/domain"
)

// Catalog maps image filenames to product records.
// The source is re-checked at most once per refresh interval and reloaded only
// when its fingerprint changes. A failed reload keeps the previous mapping.
type Catalog struct {
	source          Source
	refreshInterval time.Duration
	now             func() time.Time

	mu          sync.Mutex
	index       map[string]domain.ProductInfo
	fingerprint string
	lastCheck   time.Time
	loaded      bool
}

// New creates a catalog; refreshInterval defaults to five minutes
func New(source Source, refreshInterval time.Duration) *Catalog {
	if refreshInterval <= 0 {
		refreshInterval = 5 * time.Minute
	}
	return &Catalog{
		source:          source,
		refreshInterval: refreshInterval,
		now:             time.Now,
		index:           make(map[string]domain.ProductInfo),
	}
}

// Lookup finds the product for an image filename or path, case-insensitively
func (c *Catalog) Lookup(ctx context.Context, filename string) (domain.ProductInfo, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.lastCheck.IsZero() || c.now().Sub(c.lastCheck) >= c.refreshInterval {
		if err := c.refreshLocked(ctx, false); err != nil {
			log.Printf("[CATALOG] %v", err)
		}
	}

	info, ok := c.index[imageKey(filename)]
	return info, ok
}

// Refresh reloads the catalog. With force it reloads even if the fingerprint is unchanged.
func (c *Catalog) Refresh(ctx context.Context, force bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refreshLocked(ctx, force)
}

// Size returns the number of indexed image filenames
func (c *Catalog) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.index)
}

func (c *Catalog) refreshLocked(ctx context.Context, force bool) error {
	c.lastCheck = c.now()

	fingerprint, err := c.source.Fingerprint(ctx)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrCatalogUnavailable, c.source.Name(), err)
	}
	if !force && c.loaded && fingerprint == c.fingerprint {
		return nil
	}

	entries, err := c.source.Load(ctx)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrCatalogUnavailable, c.source.Name(), err)
	}

	c.index = buildIndex(entries)
	c.fingerprint = fingerprint
	c.loaded = true
	log.Printf("[CATALOG] Loaded %d image mappings from %s", len(c.index), c.source.Name())
	return nil
}
