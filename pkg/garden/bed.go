package garden

import (
	"slices"

	"github.com/zyedidia/generic/mapset"

	"github.com/matzehuels/bedplan/pkg/errors"
)

// MaxSide is the largest supported row or column count of a bed.
const MaxSide = 12

// Empty is the cell value of an unplanted cell.
const Empty = ""

// Bed is one rectangular planting grid. Bed values are immutable; every
// With* method returns a new bed.
type Bed struct {
	name    string
	rows    int
	cols    int
	light   Light
	allowed []Category // sorted in Categories order, no duplicates
	cells   []string
}

// BedOption configures optional bed properties in NewBed.
type BedOption func(*Bed) error

// WithName sets the bed's display name.
func WithName(name string) BedOption {
	return func(b *Bed) error {
		if err := errors.ValidateName(name); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidBed, err, "bed name")
		}
		b.name = name
		return nil
	}
}

// WithAllowed restricts the bed to the given categories.
// An empty list allows every category.
func WithAllowed(cats ...Category) BedOption {
	return func(b *Bed) error {
		allowed, err := normalizeCategories(cats)
		if err != nil {
			return err
		}
		b.allowed = allowed
		return nil
	}
}

// WithCells sets the initial cell contents. The slice is copied and must
// hold exactly rows*cols entries.
func WithCells(cells []string) BedOption {
	return func(b *Bed) error {
		if len(cells) != b.rows*b.cols {
			return errors.New(errors.ErrCodeInvalidBed, "bed has %d cells, want %d (%dx%d)", len(cells), b.rows*b.cols, b.rows, b.cols)
		}
		b.cells = slices.Clone(cells)
		return nil
	}
}

// NewBed creates an empty bed of the given size and light level.
func NewBed(rows, cols int, light Light, opts ...BedOption) (*Bed, error) {
	if rows <= 0 || cols <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidBed, "bed dimensions must be positive, got %dx%d", rows, cols)
	}
	if rows > MaxSide || cols > MaxSide {
		return nil, errors.New(errors.ErrCodeInvalidBed, "bed dimensions must be at most %dx%d, got %dx%d", MaxSide, MaxSide, rows, cols)
	}
	if !light.Valid() {
		return nil, errors.New(errors.ErrCodeInvalidLight, "invalid bed light level: %q", light)
	}
	b := &Bed{
		rows:  rows,
		cols:  cols,
		light: light,
		cells: make([]string, rows*cols),
	}
	for _, opt := range opts {
		if err := opt(b); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// MustBed is like NewBed but panics on error. Intended for tests and
// package-level fixtures.
func MustBed(rows, cols int, light Light, opts ...BedOption) *Bed {
	b, err := NewBed(rows, cols, light, opts...)
	if err != nil {
		panic(err)
	}
	return b
}

func normalizeCategories(cats []Category) ([]Category, error) {
	if len(cats) == 0 {
		return nil, nil
	}
	set := mapset.New[Category]()
	for _, c := range cats {
		if !c.Valid() {
			return nil, errors.New(errors.ErrCodeInvalidCategory, "invalid category: %q", c)
		}
		set.Put(c)
	}
	out := make([]Category, 0, set.Size())
	for _, c := range Categories {
		if set.Has(c) {
			out = append(out, c)
		}
	}
	return out, nil
}

// Name returns the bed's display name (may be empty).
func (b *Bed) Name() string { return b.name }

// Rows returns the number of rows.
func (b *Bed) Rows() int { return b.rows }

// Cols returns the number of columns.
func (b *Bed) Cols() int { return b.cols }

// Light returns the bed's light level.
func (b *Bed) Light() Light { return b.light }

// Len returns the number of cells, always Rows()*Cols().
func (b *Bed) Len() int { return len(b.cells) }

// AllowedCategories returns the categories this bed accepts, or nil when
// every category is allowed.
func (b *Bed) AllowedCategories() []Category { return slices.Clone(b.allowed) }

// Restricted reports whether the bed limits which categories it accepts.
func (b *Bed) Restricted() bool { return len(b.allowed) > 0 }

// Allows reports whether plants of category c may grow in this bed.
// Unrestricted beds allow everything, and uncategorised plants are only
// kept out of restricted beds.
func (b *Bed) Allows(c Category) bool {
	if len(b.allowed) == 0 {
		return true
	}
	return slices.Contains(b.allowed, c)
}

// Index converts (row, col) to a cell index.
func (b *Bed) Index(row, col int) int { return row*b.cols + col }

// Pos converts a cell index to (row, col).
func (b *Bed) Pos(i int) (row, col int) { return i / b.cols, i % b.cols }

// InBounds reports whether (row, col) lies inside the bed.
func (b *Bed) InBounds(row, col int) bool {
	return row >= 0 && row < b.rows && col >= 0 && col < b.cols
}

// Cell returns the plant at (row, col), or Empty when out of bounds.
func (b *Bed) Cell(row, col int) string {
	if !b.InBounds(row, col) {
		return Empty
	}
	return b.cells[b.Index(row, col)]
}

// CellAt returns the plant at index i, or Empty when out of range.
func (b *Bed) CellAt(i int) string {
	if i < 0 || i >= len(b.cells) {
		return Empty
	}
	return b.cells[i]
}

// Cells returns a copy of the row-major cell contents.
func (b *Bed) Cells() []string { return slices.Clone(b.cells) }

// Grid returns the cell contents as rows.
func (b *Bed) Grid() [][]string {
	out := make([][]string, b.rows)
	for r := range out {
		out[r] = slices.Clone(b.cells[r*b.cols : (r+1)*b.cols])
	}
	return out
}

// EmptyCount returns the number of unplanted cells.
func (b *Bed) EmptyCount() int {
	n := 0
	for _, c := range b.cells {
		if c == Empty {
			n++
		}
	}
	return n
}

// IsFull reports whether every cell is planted.
func (b *Bed) IsFull() bool { return b.EmptyCount() == 0 }

// WithCell returns a copy of the bed with (row, col) set to id.
// Pass Empty to clear the cell.
func (b *Bed) WithCell(row, col int, id string) (*Bed, error) {
	if !b.InBounds(row, col) {
		return nil, errors.New(errors.ErrCodeInvalidBed, "cell (%d,%d) outside %dx%d bed", row, col, b.rows, b.cols)
	}
	return b.WithCellAt(b.Index(row, col), id)
}

// WithCellAt returns a copy of the bed with cell i set to id.
func (b *Bed) WithCellAt(i int, id string) (*Bed, error) {
	if i < 0 || i >= len(b.cells) {
		return nil, errors.New(errors.ErrCodeInvalidBed, "cell index %d outside %dx%d bed", i, b.rows, b.cols)
	}
	if b.cells[i] == id {
		return b, nil
	}
	nb := b.clone()
	nb.cells[i] = id
	return nb, nil
}

// WithCells returns a copy of the bed holding the given cells, which must
// have length Len().
func (b *Bed) WithCells(cells []string) (*Bed, error) {
	if len(cells) != len(b.cells) {
		return nil, errors.New(errors.ErrCodeInvalidBed, "bed has %d cells, want %d", len(cells), len(b.cells))
	}
	nb := b.clone()
	copy(nb.cells, cells)
	return nb, nil
}

// Cleared returns a copy of the bed with every cell emptied.
func (b *Bed) Cleared() *Bed {
	nb := b.clone()
	clear(nb.cells)
	return nb
}

// WithLight returns a copy of the bed with a different light level.
func (b *Bed) WithLight(l Light) (*Bed, error) {
	if !l.Valid() {
		return nil, errors.New(errors.ErrCodeInvalidLight, "invalid bed light level: %q", l)
	}
	nb := b.clone()
	nb.light = l
	return nb, nil
}

// WithAllowedCategories returns a copy of the bed restricted to cats.
func (b *Bed) WithAllowedCategories(cats ...Category) (*Bed, error) {
	allowed, err := normalizeCategories(cats)
	if err != nil {
		return nil, err
	}
	nb := b.clone()
	nb.allowed = allowed
	return nb, nil
}

// Resized returns a copy of the bed with new dimensions. Cells keep their
// (row, col) position; cells outside the new bounds are dropped and new
// cells start empty.
func (b *Bed) Resized(rows, cols int) (*Bed, error) {
	nb, err := NewBed(rows, cols, b.light)
	if err != nil {
		return nil, err
	}
	nb.name = b.name
	nb.allowed = b.allowed
	for r := 0; r < min(rows, b.rows); r++ {
		for c := 0; c < min(cols, b.cols); c++ {
			nb.cells[nb.Index(r, c)] = b.cells[b.Index(r, c)]
		}
	}
	return nb, nil
}

// Equal reports whether two beds have identical configuration and cells.
func (b *Bed) Equal(o *Bed) bool {
	if b == o {
		return true
	}
	if b == nil || o == nil {
		return false
	}
	return b.name == o.name && b.rows == o.rows && b.cols == o.cols &&
		b.light == o.light && slices.Equal(b.allowed, o.allowed) &&
		slices.Equal(b.cells, o.cells)
}

// clone copies the bed; allowed is shared because it is never written.
func (b *Bed) clone() *Bed {
	nb := *b
	nb.cells = slices.Clone(b.cells)
	return &nb
}
