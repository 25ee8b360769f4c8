package cache

import (
	"context"
	"fmt"

	"github.com/tilelens/backend/config"
	"github.com/tilelens/backend/internal/domain"
)

// Store is a cache repository that owns resources needing release
type Store interface {
	domain.CacheRepository
	Close() error
}

// New builds the cache selected by cfg.Type ("memory", "redis" or "bolt")
func New(ctx context.Context, cfg config.CacheConfig) (Store, error) {
	switch cfg.Type {
	case "", "memory":
		return NewMemoryCache(), nil
	case "redis":
		return NewRedisCache(ctx, cfg.RedisURL, "tilelens:")
	case "bolt":
		return NewBoltCache(cfg.BoltPath)
	}
	return nil, fmt.Errorf("unknown cache type %q", cfg.Type)
}
