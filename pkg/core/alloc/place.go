package alloc

import (
	"fmt"

	"github.com/matzehuels/bedplan/pkg/garden"
)

// Rect is a shape anchored at a top-left cell.
type Rect struct {
	StartRow int `json:"startRow"`
	StartCol int `json:"startCol"`
	Rows     int `json:"rows"`
	Cols     int `json:"cols"`
}

// Size returns the number of cells.
func (r Rect) Size() int { return r.Rows * r.Cols }

// Shape returns the rectangle's footprint.
func (r Rect) Shape() Shape { return Shape{Rows: r.Rows, Cols: r.Cols} }

// Contains reports whether (row, col) lies inside r.
func (r Rect) Contains(row, col int) bool {
	return row >= r.StartRow && row < r.StartRow+r.Rows &&
		col >= r.StartCol && col < r.StartCol+r.Cols
}

// Indices returns the row-major cell indices of r in a grid with cols columns.
func (r Rect) Indices(cols int) []int {
	out := make([]int, 0, r.Size())
	for row := r.StartRow; row < r.StartRow+r.Rows; row++ {
		for col := r.StartCol; col < r.StartCol+r.Cols; col++ {
			out = append(out, row*cols+col)
		}
	}
	return out
}

func (r Rect) String() string {
	return fmt.Sprintf("%dx%d@(%d,%d)", r.Rows, r.Cols, r.StartRow, r.StartCol)
}

// Place returns the first rectangle, trying shapes in order and anchors in
// row-major order, whose cells are all empty in b.
func Place(shapes []Shape, b *garden.Bed) (Rect, bool) {
	for _, s := range shapes {
		for row := 0; row+s.Rows <= b.Rows(); row++ {
			for col := 0; col+s.Cols <= b.Cols(); col++ {
				r := Rect{StartRow: row, StartCol: col, Rows: s.Rows, Cols: s.Cols}
				if isFree(b, r) {
					return r, true
				}
			}
		}
	}
	return Rect{}, false
}

func isFree(b *garden.Bed, r Rect) bool {
	for row := r.StartRow; row < r.StartRow+r.Rows; row++ {
		for col := r.StartCol; col < r.StartCol+r.Cols; col++ {
			if b.Cell(row, col) != garden.Empty {
				return false
			}
		}
	}
	return true
}
