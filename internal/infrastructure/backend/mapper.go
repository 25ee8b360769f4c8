package backend

import (
	"path"
	"strings"

	"github.com/tilelens/backend/internal/domain"
)

// MapResults resolves result URLs against imageHost and fills in missing filenames.
// The returned slice is new; the input is left untouched.
func MapResults(results []domain.ProductMatch, imageHost string) []domain.ProductMatch {
	mapped := make([]domain.ProductMatch, 0, len(results))
	for _, r := range results {
		r.URL = ResolveURL(imageHost, r.URL)
		if r.Filename == "" && r.URL != "" {
			r.Filename = path.Base(r.URL)
		}
		mapped = append(mapped, r)
	}
	return mapped
}

// ResolveURL prefixes relative URLs with host; absolute URLs pass through
func ResolveURL(host, raw string) string {
	if raw == "" || host == "" {
		return raw
	}
	lower := strings.ToLower(raw)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") || strings.HasPrefix(raw, "//") {
		return raw
	}
	return strings.TrimRight(host, "/") + "/" + strings.TrimLeft(raw, "/")
}
