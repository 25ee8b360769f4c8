package usecase

import (
	"fmt"
	"slices"
	"strings"

	"github.com/tilelens/backend/internal/domain"
)

// Project filters, sorts and paginates a result list.
// It never mutates results and holds no state, so it is safe for concurrent use.
// Pages outside [1, totalPages] produce an empty item list; a non-positive
// pageSize is the only error.
func Project(
	results []domain.ProductMatch,
	filters domain.FilterSelection,
	sortOrder domain.SortOrder,
	page, pageSize int,
) (*domain.ProjectedPage, error) {
	if pageSize <= 0 {
		return nil, fmt.Errorf("%w: page size must be positive, got %d", domain.ErrInvalidArgument, pageSize)
	}

	filtered := filterMatches(results, filters)
	sortMatches(filtered, sortOrder)

	totalCount := len(filtered)
	totalPages := (totalCount + pageSize - 1) / pageSize

	return &domain.ProjectedPage{
		Items:      pageSlice(filtered, page, pageSize),
		TotalPages: totalPages,
		TotalCount: totalCount,
		Page:       page,
		PageSize:   pageSize,
	}, nil
}

// filterMatches returns a new slice holding the matches that pass every
// constrained category. The returned slice never aliases results.
func filterMatches(results []domain.ProductMatch, filters domain.FilterSelection) []domain.ProductMatch {
	active := filters.Normalized()

	filtered := make([]domain.ProductMatch, 0, len(results))
	for _, match := range results {
		if matchesFilters(match, active) {
			filtered = append(filtered, match)
		}
	}
	return filtered
}

// matchesFilters expects normalised filters (no empty categories)
func matchesFilters(match domain.ProductMatch, filters domain.FilterSelection) bool {
	for category, accepted := range filters {
		value, ok := match.Attribute(category)
		if !ok {
			return false
		}
		value = strings.TrimSpace(value)

		found := false
		for _, want := range accepted {
			if strings.EqualFold(value, want) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// sortMatches sorts in place; equal scores keep their relative order
func sortMatches(matches []domain.ProductMatch, order domain.SortOrder) {
	switch order {
	case domain.SortScoreDesc:
		slices.SortStableFunc(matches, func(a, b domain.ProductMatch) int {
			return compareScores(b.Score, a.Score)
		})
	case domain.SortScoreAsc:
		slices.SortStableFunc(matches, func(a, b domain.ProductMatch) int {
			return compareScores(a.Score, b.Score)
		})
	}
}

func compareScores(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// pageSlice clips [(page-1)*size, page*size) to the list bounds
func pageSlice(matches []domain.ProductMatch, page, pageSize int) []domain.ProductMatch {
	totalPages := (len(matches) + pageSize - 1) / pageSize
	if page < 1 || page > totalPages {
		return []domain.ProductMatch{}
	}
	start := (page - 1) * pageSize
	end := min(start+pageSize, len(matches))

	items := make([]domain.ProductMatch, end-start)
	copy(items, matches[start:end])
	return items
}

// PageWindow lists the page buttons to render: the first three pages, the
// last two, and the neighbours of current. Gaps collapse into a single 0.
func PageWindow(current, total int) []int {
	if total <= 0 {
		return nil
	}

	pages := make([]int, 0, 9)
	for i := 1; i <= total; i++ {
		visible := i <= 3 || i >= total-1 || (i >= current-1 && i <= current+1)
		if visible {
			pages = append(pages, i)
		} else if len(pages) > 0 && pages[len(pages)-1] != 0 {
			pages = append(pages, 0)
		}
	}
	return pages
}
