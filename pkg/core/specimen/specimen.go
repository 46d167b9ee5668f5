// Package specimen splits planted regions into individual specimens.
//
// Sprawling plants such as squash need several cells per specimen. After
// allocation a bed holds contiguous blobs of the same plant ID; [Decompose]
// finds each blob and tiles it with specimen-sized shapes so that callers
// can draw one icon per plant rather than one per cell. Decomposition is
// read-only: it never changes which plant a cell holds.
//
// Tiling is greedy. Square sizes (4, 9) use squares, other composite sizes
// use their most square factorisation in a wide pass and then a tall pass,
// and prime sizes above 3 use the first k cells of a near-square rectangle
// or 1 x k strips, whichever claims more instances.
// Cells no specimen could claim are reported in [Region.Unclaimed].
package specimen

import (
	"math"
	"slices"

	"github.com/zyedidia/generic/mapset"

	"github.com/matzehuels/bedplan/pkg/core/alloc"
	"github.com/matzehuels/bedplan/pkg/garden"
)

// Instance is one specimen: exactly k cells of a region.
type Instance struct {
	Cells  []int      `json:"cells"`
	Bounds alloc.Rect `json:"bounds"`
}

// Region is a maximal 4-connected group of cells holding the same plant.
type Region struct {
	PlantID      string     `json:"plantId"`
	Cells        []int      `json:"cells"`
	Bounds       alloc.Rect `json:"bounds"`
	SpecimenSize int        `json:"specimenSize"`
	Instances    []Instance `json:"instances"`
	Unclaimed    []int      `json:"unclaimed,omitempty"`

	// Incomplete is set when some cells belong to no instance.
	Incomplete bool `json:"incomplete"`
}

// Size returns the number of cells in the region.
func (r Region) Size() int { return len(r.Cells) }

// Decompose returns the regions of b whose plant needs more than one cell
// per specimen, in row-major order of their first cell. Cells holding IDs
// unknown to lookup are skipped.
func Decompose(b *garden.Bed, lookup garden.Lookup) []Region {
	var out []Region
	for _, cells := range Regions(b) {
		id := b.CellAt(cells[0])
		p, ok := lookup(id)
		if !ok || !p.IsSprawling() {
			continue
		}
		out = append(out, DecomposeRegion(b, cells, p.SpecimenCells()))
	}
	return out
}

// Regions flood-fills b into 4-connected same-ID regions, seeded in
// row-major order. Each region's cells are sorted ascending. Empty cells
// form no region.
func Regions(b *garden.Bed) [][]int {
	seen := mapset.New[int]()
	var out [][]int
	for seed := 0; seed < b.Len(); seed++ {
		id := b.CellAt(seed)
		if id == garden.Empty || seen.Has(seed) {
			continue
		}
		seen.Put(seed)
		region := []int{seed}
		queue := []int{seed}
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			r, c := b.Pos(cur)
			for _, n := range [4][2]int{{r - 1, c}, {r + 1, c}, {r, c - 1}, {r, c + 1}} {
				if !b.InBounds(n[0], n[1]) {
					continue
				}
				ni := b.Index(n[0], n[1])
				if seen.Has(ni) || b.CellAt(ni) != id {
					continue
				}
				seen.Put(ni)
				region = append(region, ni)
				queue = append(queue, ni)
			}
		}
		slices.Sort(region)
		out = append(out, region)
	}
	return out
}

// DecomposeRegion tiles the given cells of b with specimens of k cells.
// At most round(n/k) instances are produced.
func DecomposeRegion(b *garden.Bed, cells []int, k int) Region {
	cells = slices.Clone(cells)
	slices.Sort(cells)
	reg := Region{
		Cells:        cells,
		SpecimenSize: k,
	}
	if len(cells) == 0 {
		return reg
	}
	reg.PlantID = b.CellAt(cells[0])
	reg.Bounds = bounds(b, cells)
	if k < 1 {
		k = 1
		reg.SpecimenSize = 1
	}

	member := mapset.New[int]()
	for _, i := range cells {
		member.Put(i)
	}
	limit := int(math.Round(float64(len(cells)) / float64(k)))

	var claimed mapset.Set[int]
	for i, seq := range patterns(k) {
		got := mapset.New[int]()
		var instances []Instance
		for _, pat := range seq {
			if len(instances) >= limit {
				break
			}
			instances = tile(b, reg.Bounds, pat, &member, &got, instances, limit)
		}
		if i == 0 || len(instances) > len(reg.Instances) {
			reg.Instances, claimed = instances, got
		}
	}

	for _, i := range cells {
		if !claimed.Has(i) {
			reg.Unclaimed = append(reg.Unclaimed, i)
		}
	}
	reg.Incomplete = len(reg.Unclaimed) > 0
	return reg
}

// tile scans anchors row-major over box and claims every placement of pat
// that lies inside the region and overlaps no earlier claim.
func tile(b *garden.Bed, box alloc.Rect, pat pattern, member, claimed *mapset.Set[int], out []Instance, limit int) []Instance {
	for row := box.StartRow; row+pat.rows <= box.StartRow+box.Rows; row++ {
		for col := box.StartCol; col+pat.cols <= box.StartCol+box.Cols; col++ {
			if len(out) >= limit {
				return out
			}
			cand := make([]int, 0, len(pat.offsets))
			ok := true
			for _, off := range pat.offsets {
				i := b.Index(row+off[0], col+off[1])
				if !member.Has(i) || claimed.Has(i) {
					ok = false
					break
				}
				cand = append(cand, i)
			}
			if !ok {
				continue
			}
			for _, i := range cand {
				claimed.Put(i)
			}
			out = append(out, Instance{Cells: cand, Bounds: bounds(b, cand)})
		}
	}
	return out
}

// pattern is a specimen footprint: cell offsets inside a rows x cols box.
type pattern struct {
	rows, cols int
	offsets    [][2]int
}

// patterns returns the footprint sequences tried for specimen size k. Each
// sequence is tiled in order; the one yielding the most instances wins,
// earlier sequences on ties.
func patterns(k int) [][]pattern {
	s := int(math.Sqrt(float64(k)))
	for (s+1)*(s+1) <= k {
		s++
	}
	if s*s == k {
		return [][]pattern{{rect(s, s, k)}}
	}

	a := 1
	for d := s; d >= 2; d-- {
		if k%d == 0 {
			a = d
			break
		}
	}
	if a > 1 || k <= 3 {
		b := k / a
		return [][]pattern{{rect(a, b, k), rect(b, a, k)}}
	}

	// Prime sizes: compact partial boxes, or exact strips.
	r := s
	c := (k + r - 1) / r
	boxes := []pattern{rect(r, c, k), rect(c, r, k)}
	strips := []pattern{rect(1, k, k), rect(k, 1, k)}
	return [][]pattern{
		append(slices.Clone(boxes), strips...),
		append(slices.Clone(strips), boxes...),
	}
}

// rect returns the first n row-major cells of a rows x cols box.
func rect(rows, cols, n int) pattern {
	p := pattern{rows: rows, cols: cols}
	for i := 0; i < n && i < rows*cols; i++ {
		p.offsets = append(p.offsets, [2]int{i / cols, i % cols})
	}
	return p
}

func bounds(b *garden.Bed, cells []int) alloc.Rect {
	minR, minC := b.Rows(), b.Cols()
	maxR, maxC := -1, -1
	for _, i := range cells {
		r, c := b.Pos(i)
		minR, maxR = min(minR, r), max(maxR, r)
		minC, maxC = min(minC, c), max(maxC, c)
	}
	return alloc.Rect{StartRow: minR, StartCol: minC, Rows: maxR - minR + 1, Cols: maxC - minC + 1}
}
