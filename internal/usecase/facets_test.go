package usecase

import (
	"reflect"
	"strings"
	"testing"

	"github.com/tilelens/backend/internal/domain"
)

func TestFacets(t *testing.T) {
	t.Run("returns empty list for no results", func(t *testing.T) {
		facets := Facets(nil)
		if len(facets) != 0 {
			t.Errorf("Facets(nil) = %v, want empty", facets)
		}
	})

	t.Run("counts values per category", func(t *testing.T) {
		facets := Facets(sampleResults())

		want := []domain.Facet{
			{Category: "color", Values: []domain.FacetValue{
				{Value: "blue", Count: 1},
				{Value: "Green", Count: 1},
				{Value: "Red", Count: 2},
			}},
			{Category: "tile_type", Values: []domain.FacetValue{
				{Value: "Floor", Count: 1},
				{Value: "Wall", Count: 2},
			}},
		}
		if !reflect.DeepEqual(facets, want) {
			t.Errorf("Facets() = %+v, want %+v", facets, want)
		}
	})

	t.Run("merges category spellings and skips blank values", func(t *testing.T) {
		results := []domain.ProductMatch{
			tile("a.jpg", 0.5, map[string]string{"Tile Type": " Floor "}),
			tile("b.jpg", 0.5, map[string]string{"tile_type": "floor", "color": "  "}),
		}

		facets := Facets(results)

		want := []domain.Facet{
			{Category: "tile_type", Values: []domain.FacetValue{{Value: "Floor", Count: 2}}},
		}
		if !reflect.DeepEqual(facets, want) {
			t.Errorf("Facets() = %+v, want %+v", facets, want)
		}
	})

	t.Run("groups values the filter treats as equal", func(t *testing.T) {
		// Final and medial sigma fold together but lower-case differently
		results := []domain.ProductMatch{
			tile("a.jpg", 0.5, map[string]string{"finish": "matteς"}),
			tile("b.jpg", 0.5, map[string]string{"finish": "matteσ"}),
			tile("c.jpg", 0.5, map[string]string{"finish": "MATTEΣ"}),
		}

		facets := Facets(results)
		if len(facets) != 1 || len(facets[0].Values) != 1 {
			t.Fatalf("Facets() = %+v, want one finish value", facets)
		}
		value := facets[0].Values[0]
		if value.Count != 3 {
			t.Errorf("Count = %d, want 3", value.Count)
		}

		page, err := Project(results, domain.FilterSelection{"finish": {value.Value}}, domain.SortNone, 1, 10)
		if err != nil {
			t.Fatalf("Project() error = %v", err)
		}
		if page.TotalCount != value.Count {
			t.Errorf("filter on facet value %q matched %d, want %d", value.Value, page.TotalCount, value.Count)
		}
	})
}

func TestFoldKey(t *testing.T) {
	pairs := [][2]string{
		{"Floor", "fLOOR"},
		{"ς", "Σ"},
		{"K", "\u212a"},
		{"straße", "STRAßE"},
	}
	for _, p := range pairs {
		if !strings.EqualFold(p[0], p[1]) {
			t.Fatalf("EqualFold(%q, %q) = false", p[0], p[1])
		}
		if foldKey(p[0]) != foldKey(p[1]) {
			t.Errorf("foldKey(%q) = %q, foldKey(%q) = %q, want equal", p[0], foldKey(p[0]), p[1], foldKey(p[1]))
		}
	}

	if foldKey("Floor") == foldKey("Wall") {
		t.Error("foldKey should keep distinct values apart")
	}
}
