package alloc

import (
	"fmt"
	"sort"
)

// Shape is a rectangular footprint.
type Shape struct {
	Rows int `json:"rows"`
	Cols int `json:"cols"`
}

// Size returns the number of cells.
func (s Shape) Size() int { return s.Rows * s.Cols }

// Aspect returns max(rows,cols)/min(rows,cols); 1 for squares.
func (s Shape) Aspect() float64 {
	lo, hi := s.Rows, s.Cols
	if lo > hi {
		lo, hi = hi, lo
	}
	return float64(hi) / float64(lo)
}

func (s Shape) String() string { return fmt.Sprintf("%dx%d", s.Rows, s.Cols) }

// RankShapes returns every shape that fits in maxRows x maxCols and whose
// size lies inside w.Bounds(target), ordered by distance from target and
// then by aspect ratio. Ties keep enumeration order, rows ascending then
// cols ascending.
func RankShapes(target, maxRows, maxCols int, w Window) []Shape {
	if target <= 0 || maxRows <= 0 || maxCols <= 0 {
		return nil
	}
	lo, hi := w.Bounds(target)

	var shapes []Shape
	for r := 1; r <= maxRows; r++ {
		for c := 1; c <= maxCols; c++ {
			if size := r * c; size >= lo && size <= hi {
				shapes = append(shapes, Shape{Rows: r, Cols: c})
			}
		}
	}

	sort.SliceStable(shapes, func(i, j int) bool {
		di, dj := abs(shapes[i].Size()-target), abs(shapes[j].Size()-target)
		if di != dj {
			return di < dj
		}
		return shapes[i].Aspect() < shapes[j].Aspect()
	})
	return shapes
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
