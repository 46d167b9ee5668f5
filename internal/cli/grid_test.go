package cli

import (
	"strings"
	"testing"

	"github.com/matzehuels/bedplan/pkg/core/alloc"
	"github.com/matzehuels/bedplan/pkg/core/specimen"
	"github.com/matzehuels/bedplan/pkg/garden"
)

func TestRenderBed(t *testing.T) {
	b := garden.MustBed(2, 2, garden.LightHigh,
		garden.WithName("north"),
		garden.WithAllowed(garden.CategoryHerb),
		garden.WithCells([]string{"TOM", "TOM", "", "BAS"}))

	s := renderBed(0, b)
	for _, want := range []string{"bed 0 north", "2x2", "high light", "herb only", "TOM", "BAS", "·"} {
		if !strings.Contains(s, want) {
			t.Errorf("renderBed() missing %q:\n%s", want, s)
		}
	}
}

func TestRenderGardenLegend(t *testing.T) {
	g := garden.New("Patio", garden.MustBed(1, 3, garden.LightLow,
		garden.WithCells([]string{"LET", "LET", ""})))
	lookup := garden.LookupFrom([]garden.PlantType{{ID: "LET", Name: "Lettuce", Light: garden.LightLow}})

	s := renderGarden(g, lookup)
	for _, want := range []string{"Patio", "Lettuce (2)"} {
		if !strings.Contains(s, want) {
			t.Errorf("renderGarden() missing %q:\n%s", want, s)
		}
	}
}

func TestCenter(t *testing.T) {
	tests := []struct {
		s    string
		w    int
		want string
	}{
		{"A", 3, " A "},
		{"AB", 5, " AB  "},
		{"ABCD", 3, "ABCD"},
	}
	for _, tt := range tests {
		if got := center(tt.s, tt.w); got != tt.want {
			t.Errorf("center(%q, %d) = %q, want %q", tt.s, tt.w, got, tt.want)
		}
	}
}

func TestPlantStyleStable(t *testing.T) {
	if plantStyle("TOM").GetBackground() != plantStyle("TOM").GetBackground() {
		t.Error("a plant should always get the same colour")
	}
}

func TestPlacementTable(t *testing.T) {
	plan := &alloc.Plan{Placements: []alloc.Placement{
		{PlantID: "TOM", Target: 4, Bed: 0, Rect: alloc.Rect{StartRow: 0, StartCol: 0, Rows: 2, Cols: 2}, Cells: 4},
		{PlantID: "BAS", Target: 2, Bed: -1, Scattered: []alloc.CellRef{{Bed: 0, Cell: 5}, {Bed: 1, Cell: 0}}, Cells: 2},
		{PlantID: "MEL", Target: 3, Bed: -1},
	}}
	s := placementTable(plan)
	for _, want := range []string{"Plant", "TOM", "scattered over 2 cells", "MEL"} {
		if !strings.Contains(s, want) {
			t.Errorf("placementTable() missing %q:\n%s", want, s)
		}
	}
}

func TestRegionTable(t *testing.T) {
	beds := [][]specimen.Region{{
		{PlantID: "CUC", Cells: []int{0, 1, 2}, SpecimenSize: 2, Incomplete: true, Unclaimed: []int{2}},
	}}
	s := regionTable(beds)
	for _, want := range []string{"CUC", "Unclaimed"} {
		if !strings.Contains(s, want) {
			t.Errorf("regionTable() missing %q:\n%s", want, s)
		}
	}
}

func TestCatalogTable(t *testing.T) {
	s := catalogTable([]garden.PlantType{
		{ID: "LET", Name: "Lettuce", SpacingFactor: 4, Light: garden.LightLow},
		{ID: "SQU", CellsPerSpecimen: 8, Light: garden.LightHigh, Category: garden.CategoryVegetable},
	})
	for _, want := range []string{"Lettuce", "4", "SQU", "8", "vegetable"} {
		if !strings.Contains(s, want) {
			t.Errorf("catalogTable() missing %q:\n%s", want, s)
		}
	}
}
