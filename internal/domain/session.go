package domain

import "time"

// QueryKind tells which backend endpoint produced a session's results
type QueryKind string

const (
	QueryKindImage QueryKind = "image"
	QueryKindText  QueryKind = "text"
)

// SearchSession holds the latest result list for one user.
// Each successful search replaces Results entirely.
type SearchSession struct {
	ID        string         `json:"id"`
	Kind      QueryKind      `json:"kind"`
	Query     string         `json:"query"` // Description for text search, filename for image search
	Results   []ProductMatch `json:"results"`
	CreatedAt time.Time      `json:"createdAt"`
}

// ImageUpload is an image submitted for visual search
type ImageUpload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ProductInfo is the catalog record for a product image
type ProductInfo struct {
	Title    string `json:"title" yaml:"title"`
	Slug     string `json:"slug" yaml:"slug"`
	Sizes    string `json:"sizes" yaml:"sizes"`
	Category string `json:"category" yaml:"category"`
}

// Attributes returns the non-empty catalog fields keyed by filter category
func (p ProductInfo) Attributes() map[string]string {
	attrs := make(map[string]string, 4)
	if p.Title != "" {
		attrs["title"] = p.Title
	}
	if p.Slug != "" {
		attrs["slug"] = p.Slug
	}
	if p.Sizes != "" {
		attrs["sizes"] = p.Sizes
	}
	if p.Category != "" {
		attrs["category"] = p.Category
	}
	return attrs
}
