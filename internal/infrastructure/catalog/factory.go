package catalog

import (
	"context"
	"fmt"

	"github.com/tilelens/backend/config"
)

// FromConfig builds the catalog selected by cfg.Source.
// It returns nil, nil when the source is "none".
func FromConfig(ctx context.Context, cfg config.CatalogConfig) (*Catalog, error) {
	switch cfg.Source {
	case "", "none":
		return nil, nil
	case "file":
		return New(NewFileSource(cfg.Path), cfg.RefreshInterval), nil
	case "s3":
		source, err := NewS3Source(ctx, s3ConfigFrom(cfg))
		if err != nil {
			return nil, err
		}
		return New(source, cfg.RefreshInterval), nil
	}
	return nil, fmt.Errorf("unknown catalog source %q", cfg.Source)
}

func s3ConfigFrom(cfg config.CatalogConfig) S3Config {
	return S3Config{
		Bucket:       cfg.Bucket,
		Key:          cfg.Key,
		Region:       cfg.Region,
		Profile:      cfg.Profile,
		UsePathStyle: cfg.UsePathStyle,
	}
}
