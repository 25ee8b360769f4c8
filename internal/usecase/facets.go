package usecase

import (
	"sort"
	"strings"
	"unicode"

	"github.com/tilelens/backend/internal/domain"
)

// Facets lists every attribute category present in results with its distinct
// values and counts. Values are merged with the same case folding the filter
// uses, keeping the first spelling seen. Categories and values are sorted alphabetically.
func Facets(results []domain.ProductMatch) []domain.Facet {
	type bucket struct {
		spelling string
		count    int
	}
	byCategory := make(map[string]map[string]*bucket)

	for _, match := range results {
		for rawCategory, rawValue := range match.Attributes {
			category := domain.NormalizeCategory(rawCategory)
			value := strings.TrimSpace(rawValue)
			if category == "" || value == "" {
				continue
			}

			values, ok := byCategory[category]
			if !ok {
				values = make(map[string]*bucket)
				byCategory[category] = values
			}
			key := foldKey(value)
			if b, ok := values[key]; ok {
				b.count++
			} else {
				values[key] = &bucket{spelling: value, count: 1}
			}
		}
	}

	facets := make([]domain.Facet, 0, len(byCategory))
	for category, values := range byCategory {
		facet := domain.Facet{Category: category, Values: make([]domain.FacetValue, 0, len(values))}
		for _, b := range values {
			facet.Values = append(facet.Values, domain.FacetValue{Value: b.spelling, Count: b.count})
		}
		sort.Slice(facet.Values, func(i, j int) bool {
			return foldKey(facet.Values[i].Value) < foldKey(facet.Values[j].Value)
		})
		facets = append(facets, facet)
	}
	sort.Slice(facets, func(i, j int) bool {
		return facets[i].Category < facets[j].Category
	})

	return facets
}

// foldKey maps each rune to the smallest rune of its simple case-folding orbit,
// so foldKey(a) == foldKey(b) exactly when strings.EqualFold(a, b).
func foldKey(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		least := r
		for f := unicode.SimpleFold(r); f != r; f = unicode.SimpleFold(f) {
			if f < least {
				least = f
			}
		}
		b.WriteRune(least)
	}
	return b.String()
}
