package domain

import (
	"context"
	"time"
)

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// SearchBackend defines the interface for the remote inference/search backend
type SearchBackend interface {
	SearchByImage(ctx context.Context, upload *ImageUpload) ([]ProductMatch, error)
	SearchByText(ctx context.Context, description string) ([]ProductMatch, error)
}

// ProductCatalog resolves an image filename to its catalog record
type ProductCatalog interface {
	Lookup(ctx context.Context, filename string) (ProductInfo, bool)
}

// SessionRepository persists search sessions
type SessionRepository interface {
	GetSession(ctx context.Context, id string) (*SearchSession, error)
	SaveSession(ctx context.Context, session *SearchSession) error
}
