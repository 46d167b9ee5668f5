package alloc

import "github.com/matzehuels/bedplan/pkg/garden"

// neighbourOffsets is the scan order used to break ties: up, down, left, right.
var neighbourOffsets = [4][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}}

// FillGaps assigns each empty cell of b the most common plant among its
// orthogonal neighbours, ties going to the first in scan order. Decisions
// read the bed as it was before the pass, so fills never chain. It returns
// the new bed and the number of filled cells; b itself is unchanged.
func FillGaps(b *garden.Bed) (*garden.Bed, int) {
	cells := b.Cells()
	filled := 0
	for i := range cells {
		if b.CellAt(i) != garden.Empty {
			continue
		}
		row, col := b.Pos(i)
		if id := modalNeighbour(b, row, col); id != garden.Empty {
			cells[i] = id
			filled++
		}
	}
	if filled == 0 {
		return b, 0
	}
	return mustCells(b, cells), filled
}

func modalNeighbour(b *garden.Bed, row, col int) string {
	var ids [4]string
	var counts [4]int
	n := 0
	for _, off := range neighbourOffsets {
		id := b.Cell(row+off[0], col+off[1])
		if id == garden.Empty {
			continue
		}
		found := false
		for k := 0; k < n; k++ {
			if ids[k] == id {
				counts[k]++
				found = true
				break
			}
		}
		if !found {
			ids[n], counts[n] = id, 1
			n++
		}
	}
	best := 0
	for k := 1; k < n; k++ {
		if counts[k] > counts[best] {
			best = k
		}
	}
	if n == 0 {
		return garden.Empty
	}
	return ids[best]
}
