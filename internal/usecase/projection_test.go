package usecase

import (
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/tilelens/backend/internal/domain"
)

func tile(name string, score float64, attrs map[string]string) domain.ProductMatch {
	return domain.ProductMatch{
		URL:        "http://localhost:5000/static/" + name,
		Filename:   name,
		Score:      score,
		Attributes: attrs,
	}
}

func sampleResults() []domain.ProductMatch {
	return []domain.ProductMatch{
		tile("a.jpg", 0.9, map[string]string{"color": "Red", "tile_type": "Floor"}),
		tile("b.jpg", 0.4, map[string]string{"color": "blue", "tile_type": "Wall"}),
		tile("c.jpg", 0.7, map[string]string{"color": "red", "tile_type": "Wall"}),
		tile("d.jpg", 0.7, map[string]string{"color": "Green"}),
		tile("e.jpg", 0.2, nil),
	}
}

func filenames(matches []domain.ProductMatch) []string {
	names := make([]string, len(matches))
	for i, m := range matches {
		names[i] = m.Filename
	}
	return names
}

func TestProject(t *testing.T) {
	t.Run("sorts descending and returns first page", func(t *testing.T) {
		results := []domain.ProductMatch{
			tile("one.jpg", 0.9, nil),
			tile("two.jpg", 0.4, nil),
			tile("three.jpg", 0.7, nil),
		}

		page, err := Project(results, nil, domain.SortScoreDesc, 1, 2)
		if err != nil {
			t.Fatalf("Project() error = %v", err)
		}

		if got := filenames(page.Items); !reflect.DeepEqual(got, []string{"one.jpg", "three.jpg"}) {
			t.Errorf("Items = %v, want [one.jpg three.jpg]", got)
		}
		if page.TotalPages != 2 {
			t.Errorf("TotalPages = %d, want 2", page.TotalPages)
		}
		if page.TotalCount != 3 {
			t.Errorf("TotalCount = %d, want 3", page.TotalCount)
		}
	})

	t.Run("filter with no matching item yields empty page", func(t *testing.T) {
		results := []domain.ProductMatch{
			tile("x.jpg", 0.5, map[string]string{"color": "blue"}),
			tile("y.jpg", 0.6, nil),
		}

		page, err := Project(results, domain.FilterSelection{"color": {"red"}}, domain.SortNone, 1, 9)
		if err != nil {
			t.Fatalf("Project() error = %v", err)
		}

		if page.Items == nil || len(page.Items) != 0 {
			t.Errorf("Items = %v, want empty non-nil slice", page.Items)
		}
		if page.TotalCount != 0 || page.TotalPages != 0 {
			t.Errorf("TotalCount = %d, TotalPages = %d, want 0, 0", page.TotalCount, page.TotalPages)
		}
	})

	t.Run("empty results", func(t *testing.T) {
		for _, order := range []domain.SortOrder{domain.SortNone, domain.SortScoreDesc, domain.SortScoreAsc} {
			for _, p := range []int{-1, 0, 1, 5} {
				page, err := Project(nil, domain.FilterSelection{"color": {"red"}}, order, p, 9)
				if err != nil {
					t.Fatalf("Project() error = %v", err)
				}
				if len(page.Items) != 0 || page.TotalCount != 0 || page.TotalPages != 0 {
					t.Errorf("order=%s page=%d: got %+v, want empty projection", order, p, page)
				}
			}
		}
	})

	t.Run("rejects non-positive page size", func(t *testing.T) {
		for _, size := range []int{0, -3} {
			_, err := Project(sampleResults(), nil, domain.SortNone, 1, size)
			if !errors.Is(err, domain.ErrInvalidArgument) {
				t.Errorf("pageSize=%d: error = %v, want ErrInvalidArgument", size, err)
			}
		}
	})

	t.Run("out of range pages are empty but keep totals", func(t *testing.T) {
		for _, p := range []int{0, -2, 3, 1 << 40} {
			page, err := Project(sampleResults(), nil, domain.SortNone, p, 3)
			if err != nil {
				t.Fatalf("Project() error = %v", err)
			}
			if len(page.Items) != 0 {
				t.Errorf("page=%d: Items = %v, want empty", p, filenames(page.Items))
			}
			if page.TotalCount != 5 || page.TotalPages != 2 {
				t.Errorf("page=%d: TotalCount = %d, TotalPages = %d, want 5, 2", p, page.TotalCount, page.TotalPages)
			}
			if page.Page != p {
				t.Errorf("Page = %d, want %d echoed back", page.Page, p)
			}
		}
	})

	t.Run("last page is partial", func(t *testing.T) {
		page, err := Project(sampleResults(), nil, domain.SortNone, 2, 3)
		if err != nil {
			t.Fatalf("Project() error = %v", err)
		}
		if got := filenames(page.Items); !reflect.DeepEqual(got, []string{"d.jpg", "e.jpg"}) {
			t.Errorf("Items = %v, want [d.jpg e.jpg]", got)
		}
	})

	t.Run("none keeps backend order", func(t *testing.T) {
		page, err := Project(sampleResults(), nil, domain.SortNone, 1, 9)
		if err != nil {
			t.Fatalf("Project() error = %v", err)
		}
		want := []string{"a.jpg", "b.jpg", "c.jpg", "d.jpg", "e.jpg"}
		if got := filenames(page.Items); !reflect.DeepEqual(got, want) {
			t.Errorf("Items = %v, want %v", got, want)
		}
	})

	t.Run("equal scores keep their relative order", func(t *testing.T) {
		desc, _ := Project(sampleResults(), nil, domain.SortScoreDesc, 1, 9)
		wantDesc := []string{"a.jpg", "c.jpg", "d.jpg", "b.jpg", "e.jpg"}
		if got := filenames(desc.Items); !reflect.DeepEqual(got, wantDesc) {
			t.Errorf("desc Items = %v, want %v", got, wantDesc)
		}

		asc, _ := Project(sampleResults(), nil, domain.SortScoreAsc, 1, 9)
		wantAsc := []string{"e.jpg", "b.jpg", "c.jpg", "d.jpg", "a.jpg"}
		if got := filenames(asc.Items); !reflect.DeepEqual(got, wantAsc) {
			t.Errorf("asc Items = %v, want %v", got, wantAsc)
		}
	})
}

func TestProject_Filters(t *testing.T) {
	tests := []struct {
		name    string
		filters domain.FilterSelection
		want    []string
	}{
		{
			name:    "nil filters pass everything",
			filters: nil,
			want:    []string{"a.jpg", "b.jpg", "c.jpg", "d.jpg", "e.jpg"},
		},
		{
			name:    "empty value list leaves category unconstrained",
			filters: domain.FilterSelection{"color": {}},
			want:    []string{"a.jpg", "b.jpg", "c.jpg", "d.jpg", "e.jpg"},
		},
		{
			name:    "match is case-insensitive",
			filters: domain.FilterSelection{"color": {"RED"}},
			want:    []string{"a.jpg", "c.jpg"},
		},
		{
			name:    "values within a category are ORed",
			filters: domain.FilterSelection{"color": {"blue", "green"}},
			want:    []string{"b.jpg", "d.jpg"},
		},
		{
			name:    "categories are ANDed",
			filters: domain.FilterSelection{"color": {"red"}, "tile_type": {"wall"}},
			want:    []string{"c.jpg"},
		},
		{
			name:    "category names are normalised",
			filters: domain.FilterSelection{"Tile Type": {"floor"}},
			want:    []string{"a.jpg"},
		},
		{
			name:    "missing attribute fails a constrained category",
			filters: domain.FilterSelection{"tile_type": {"Floor", "Wall"}},
			want:    []string{"a.jpg", "b.jpg", "c.jpg"},
		},
		{
			name:    "match is exact, not substring",
			filters: domain.FilterSelection{"color": {"re"}},
			want:    []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := Project(sampleResults(), tt.filters, domain.SortNone, 1, 9)
			if err != nil {
				t.Fatalf("Project() error = %v", err)
			}
			if got := filenames(page.Items); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Items = %v, want %v", got, tt.want)
			}
			if page.TotalCount != len(tt.want) {
				t.Errorf("TotalCount = %d, want %d", page.TotalCount, len(tt.want))
			}
		})
	}
}

func TestProject_Properties(t *testing.T) {
	results := make([]domain.ProductMatch, 0, 23)
	colors := []string{"red", "blue", "green"}
	for i := range 23 {
		results = append(results, tile(
			fmt.Sprintf("t%02d.jpg", i),
			float64((i*37)%101)/100,
			map[string]string{"color": colors[i%3]},
		))
	}
	filters := domain.FilterSelection{"color": {"red", "blue"}}

	t.Run("total count is independent of sort and page", func(t *testing.T) {
		for _, order := range []domain.SortOrder{domain.SortNone, domain.SortScoreDesc, domain.SortScoreAsc} {
			for _, p := range []int{1, 2, 99} {
				page, _ := Project(results, filters, order, p, 4)
				if page.TotalCount != 16 {
					t.Errorf("order=%s page=%d: TotalCount = %d, want 16", order, p, page.TotalCount)
				}
			}
		}
	})

	t.Run("idempotent", func(t *testing.T) {
		first, _ := Project(results, filters, domain.SortScoreDesc, 2, 5)
		second, _ := Project(results, filters, domain.SortScoreDesc, 2, 5)
		if !reflect.DeepEqual(first, second) {
			t.Errorf("Project() not idempotent: %+v vs %+v", first, second)
		}
	})

	t.Run("descending reverses ascending for distinct scores", func(t *testing.T) {
		desc, _ := Project(results, filters, domain.SortScoreDesc, 1, 100)
		asc, _ := Project(results, filters, domain.SortScoreAsc, 1, 100)

		got := filenames(asc.Items)
		want := filenames(desc.Items)
		for i, j := 0, len(want)-1; i < j; i, j = i+1, j-1 {
			want[i], want[j] = want[j], want[i]
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("asc = %v, want reverse of desc %v", got, want)
		}
	})

	t.Run("pages cover the filtered list exactly once", func(t *testing.T) {
		full, _ := Project(results, filters, domain.SortScoreDesc, 1, 100)

		var concatenated []domain.ProductMatch
		first, _ := Project(results, filters, domain.SortScoreDesc, 1, 3)
		for p := 1; p <= first.TotalPages; p++ {
			page, _ := Project(results, filters, domain.SortScoreDesc, p, 3)
			concatenated = append(concatenated, page.Items...)
		}
		if !reflect.DeepEqual(filenames(concatenated), filenames(full.Items)) {
			t.Errorf("pages = %v, want %v", filenames(concatenated), filenames(full.Items))
		}
	})

	t.Run("does not mutate input", func(t *testing.T) {
		before := filenames(results)
		page, _ := Project(results, filters, domain.SortScoreAsc, 1, 100)
		if !reflect.DeepEqual(filenames(results), before) {
			t.Errorf("results reordered to %v", filenames(results))
		}

		page.Items[0].Score = 42
		if results[0].Score == 42 {
			t.Error("returned items alias the input slice")
		}
	})
}

func TestPageWindow(t *testing.T) {
	tests := []struct {
		name    string
		current int
		total   int
		want    []int
	}{
		{"no pages", 1, 0, nil},
		{"single page", 1, 1, []int{1}},
		{"all pages fit", 3, 5, []int{1, 2, 3, 4, 5}},
		{"gap before last pages", 1, 10, []int{1, 2, 3, 0, 9, 10}},
		{"current in the middle", 6, 12, []int{1, 2, 3, 0, 5, 6, 7, 0, 11, 12}},
		{"current next to head", 4, 12, []int{1, 2, 3, 4, 5, 0, 11, 12}},
		{"current at the end", 12, 12, []int{1, 2, 3, 0, 11, 12}},
		{"current near the tail", 9, 12, []int{1, 2, 3, 0, 8, 9, 10, 11, 12}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PageWindow(tt.current, tt.total)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("PageWindow(%d, %d) = %v, want %v", tt.current, tt.total, got, tt.want)
			}
		})
	}
}
