package domain

import (
	"fmt"
	"regexp"
	"strings"
)

// DefaultPageSize is the number of products shown per result page
const DefaultPageSize = 9

var whitespaceRegex = regexp.MustCompile(`\s+`)

// NormalizeCategory lowercases a filter category and replaces whitespace runs
// with underscores, so "Tile Type" and "tile_type" address the same attribute.
func NormalizeCategory(category string) string {
	return whitespaceRegex.ReplaceAllString(strings.ToLower(strings.TrimSpace(category)), "_")
}

// FilterSelection maps a filter category to the set of accepted values.
// An empty value list means the category is unconstrained.
type FilterSelection map[string][]string

// Normalized returns a copy with normalised category keys, trimmed values and
// empty categories removed. Values for categories that collapse to the same key are merged.
func (f FilterSelection) Normalized() FilterSelection {
	out := make(FilterSelection, len(f))
	for category, values := range f {
		key := NormalizeCategory(category)
		if key == "" {
			continue
		}
		for _, v := range values {
			v = strings.TrimSpace(v)
			if v == "" {
				continue
			}
			out[key] = append(out[key], v)
		}
	}
	return out
}

// SortOrder is the ordering applied to filtered matches before pagination
type SortOrder string

const (
	SortNone      SortOrder = "none"
	SortScoreDesc SortOrder = "score-desc"
	SortScoreAsc  SortOrder = "score-asc"
)

// ParseSortOrder accepts the canonical names plus the labels the result view uses
func ParseSortOrder(s string) (SortOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return SortNone, nil
	case "score-desc", "high-to-low", "desc":
		return SortScoreDesc, nil
	case "score-asc", "low-to-high", "asc":
		return SortScoreAsc, nil
	}
	return "", fmt.Errorf("%w: unknown sort order %q", ErrInvalidArgument, s)
}

// PageRequest is a 1-based page index and a page size
type PageRequest struct {
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
}

// ProjectedPage is one page of filtered, sorted products plus pagination metadata
type ProjectedPage struct {
	Items      []ProductMatch `json:"items"`
	TotalPages int            `json:"totalPages"`
	TotalCount int            `json:"totalCount"`
	Page       int            `json:"page"`
	PageSize   int            `json:"pageSize"`
	Pages      []int          `json:"pages,omitempty"` // Page buttons to show, 0 marks an ellipsis
}

// ProjectionQuery bundles the inputs the UI shell supplies on every projection
type ProjectionQuery struct {
	Filters   FilterSelection `json:"filters,omitempty"`
	SortOrder SortOrder       `json:"sortOrder,omitempty"`
	Page      int             `json:"page"`
	PageSize  int             `json:"pageSize"`
}

// FacetValue is one selectable filter value and how many products carry it
type FacetValue struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Facet lists the values present for one filter category
type Facet struct {
	Category string       `json:"category"`
	Values   []FacetValue `json:"values"`
}
