package garden

import (
	"slices"
	"testing"

	"github.com/matzehuels/bedplan/pkg/errors"
)

func TestNewBed(t *testing.T) {
	tests := []struct {
		name     string
		rows     int
		cols     int
		light    Light
		opts     []BedOption
		wantCode errors.Code
	}{
		{name: "valid", rows: 4, cols: 4, light: LightHigh},
		{name: "single cell", rows: 1, cols: 1, light: LightLow},
		{name: "max size", rows: MaxSide, cols: MaxSide, light: LightMedium},
		{name: "zero rows", rows: 0, cols: 4, light: LightHigh, wantCode: errors.ErrCodeInvalidBed},
		{name: "negative cols", rows: 3, cols: -1, light: LightHigh, wantCode: errors.ErrCodeInvalidBed},
		{name: "too wide", rows: 3, cols: MaxSide + 1, light: LightHigh, wantCode: errors.ErrCodeInvalidBed},
		{name: "bad light", rows: 3, cols: 3, light: "dim", wantCode: errors.ErrCodeInvalidLight},
		{
			name: "bad category", rows: 2, cols: 2, light: LightLow,
			opts:     []BedOption{WithAllowed("weeds")},
			wantCode: errors.ErrCodeInvalidCategory,
		},
		{
			name: "cell count mismatch", rows: 2, cols: 2, light: LightLow,
			opts:     []BedOption{WithCells([]string{"TOM"})},
			wantCode: errors.ErrCodeInvalidBed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := NewBed(tt.rows, tt.cols, tt.light, tt.opts...)
			if tt.wantCode != "" {
				if !errors.Is(err, tt.wantCode) {
					t.Fatalf("NewBed() error = %v, want code %s", err, tt.wantCode)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewBed() error = %v", err)
			}
			if b.Len() != tt.rows*tt.cols {
				t.Errorf("Len() = %d, want %d", b.Len(), tt.rows*tt.cols)
			}
			if b.EmptyCount() != b.Len() {
				t.Errorf("new bed should be empty, got %d empty of %d", b.EmptyCount(), b.Len())
			}
		})
	}
}

func TestBedIndexing(t *testing.T) {
	b := MustBed(3, 4, LightHigh)

	if got := b.Index(2, 1); got != 9 {
		t.Errorf("Index(2,1) = %d, want 9", got)
	}
	if r, c := b.Pos(9); r != 2 || c != 1 {
		t.Errorf("Pos(9) = (%d,%d), want (2,1)", r, c)
	}
	if b.InBounds(3, 0) || b.InBounds(0, 4) || b.InBounds(-1, 0) {
		t.Error("InBounds should reject out-of-range positions")
	}
	if got := b.Cell(5, 5); got != Empty {
		t.Errorf("Cell out of bounds = %q, want empty", got)
	}
}

func TestBedWithCellIsPersistent(t *testing.T) {
	b := MustBed(2, 2, LightHigh)

	b2, err := b.WithCell(1, 0, "TOM")
	if err != nil {
		t.Fatalf("WithCell: %v", err)
	}

	if b.Cell(1, 0) != Empty {
		t.Error("original bed was mutated")
	}
	if b2.Cell(1, 0) != "TOM" {
		t.Errorf("Cell(1,0) = %q, want TOM", b2.Cell(1, 0))
	}
	if b2.Len() != 4 {
		t.Errorf("Len() = %d, want 4", b2.Len())
	}

	same, _ := b2.WithCell(1, 0, "TOM")
	if same != b2 {
		t.Error("setting an unchanged cell should return the same bed")
	}

	if _, err := b.WithCell(2, 0, "TOM"); !errors.Is(err, errors.ErrCodeInvalidBed) {
		t.Errorf("WithCell out of bounds error = %v, want INVALID_BED", err)
	}
}

func TestBedCellsIsCopy(t *testing.T) {
	b := MustBed(1, 2, LightLow, WithCells([]string{"TOM", ""}))
	cells := b.Cells()
	cells[0] = "XXX"
	if b.CellAt(0) != "TOM" {
		t.Error("Cells() must return a copy")
	}

	src := []string{"A", "B"}
	b2 := MustBed(1, 2, LightLow, WithCells(src))
	src[0] = "Z"
	if b2.CellAt(0) != "A" {
		t.Error("WithCells must copy its input")
	}
}

func TestBedCleared(t *testing.T) {
	b := MustBed(2, 2, LightHigh, WithCells([]string{"A", "B", "", "C"}))
	c := b.Cleared()
	if c.EmptyCount() != 4 {
		t.Errorf("Cleared().EmptyCount() = %d, want 4", c.EmptyCount())
	}
	if b.EmptyCount() != 1 {
		t.Error("Cleared mutated the original")
	}
}

func TestBedResized(t *testing.T) {
	b := MustBed(2, 3, LightHigh, WithName("north"), WithCells([]string{
		"A", "B", "C",
		"D", "E", "F",
	}))

	tests := []struct {
		name string
		rows int
		cols int
		want []string
	}{
		{"shrink cols", 2, 2, []string{"A", "B", "D", "E"}},
		{"shrink rows", 1, 3, []string{"A", "B", "C"}},
		{"grow", 3, 3, []string{"A", "B", "C", "D", "E", "F", "", "", ""}},
		{"grow cols", 2, 4, []string{"A", "B", "C", "", "D", "E", "F", ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nb, err := b.Resized(tt.rows, tt.cols)
			if err != nil {
				t.Fatalf("Resized: %v", err)
			}
			if !slices.Equal(nb.Cells(), tt.want) {
				t.Errorf("cells = %v, want %v", nb.Cells(), tt.want)
			}
			if nb.Len() != tt.rows*tt.cols {
				t.Errorf("Len() = %d, want %d", nb.Len(), tt.rows*tt.cols)
			}
			if nb.Name() != "north" {
				t.Errorf("Name() = %q, want north", nb.Name())
			}
		})
	}

	if _, err := b.Resized(0, 2); err == nil {
		t.Error("Resized to zero rows should fail")
	}
}

func TestBedAllows(t *testing.T) {
	open := MustBed(2, 2, LightHigh)
	herbs := MustBed(2, 2, LightHigh, WithAllowed(CategoryHerb, CategoryHerb))

	if !open.Allows(CategoryFruit) || !open.Allows("") {
		t.Error("unrestricted bed should allow everything")
	}
	if !herbs.Allows(CategoryHerb) {
		t.Error("herb bed should allow herbs")
	}
	if herbs.Allows(CategoryVegetable) || herbs.Allows("") {
		t.Error("herb bed should reject other categories")
	}
	if got := herbs.AllowedCategories(); len(got) != 1 {
		t.Errorf("duplicates should collapse, got %v", got)
	}
}

func TestBedAllowedCategoriesCanonicalOrder(t *testing.T) {
	b := MustBed(1, 1, LightLow, WithAllowed(CategoryHerb, CategoryVegetable))
	want := []Category{CategoryVegetable, CategoryHerb}
	if got := b.AllowedCategories(); !slices.Equal(got, want) {
		t.Errorf("AllowedCategories() = %v, want %v", got, want)
	}
}

func TestBedGrid(t *testing.T) {
	b := MustBed(2, 2, LightLow, WithCells([]string{"A", "B", "C", ""}))
	g := b.Grid()
	if len(g) != 2 || g[1][0] != "C" || g[1][1] != "" {
		t.Errorf("Grid() = %v", g)
	}
}
