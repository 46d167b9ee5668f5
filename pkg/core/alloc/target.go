package alloc

import (
	"math"
	"sort"

	"github.com/matzehuels/bedplan/pkg/errors"
	"github.com/matzehuels/bedplan/pkg/garden"
)

// allocation is the per-plant working state of one planning run.
type allocation struct {
	plant    garden.PlantType
	order    int   // position in the caller's plant list
	beds     []int // eligible bed indices, ascending
	target   int
	min      int
	capacity int
}

// sizeTargets computes clamped, scaled targets for every plant and returns
// them in placement order. ratio is 1 unless targets were scaled down. A
// garden with no empty cells is not scaled since nothing can be placed.
func (p Policy) sizeTargets(beds []*garden.Bed, plants []garden.PlantType, overrides map[string]int) (allocs []*allocation, ratio float64) {
	allocs = make([]*allocation, len(plants))
	for i, plant := range plants {
		a := &allocation{plant: plant, order: i, min: p.minimum(plant)}
		for bi, b := range beds {
			if p.eligible(plant, b) {
				a.beds = append(a.beds, bi)
				a.capacity = max(a.capacity, b.Len())
			}
		}
		allocs[i] = a
	}

	for _, a := range allocs {
		if len(a.beds) == 0 {
			continue
		}
		t, ok := overrides[a.plant.ID]
		if !ok {
			t = proportionalTarget(a, allocs, beds)
		}
		a.target = clamp(t, a.min, a.capacity)
	}

	ratio = 1
	available := 0
	for _, b := range beds {
		available += b.EmptyCount()
	}
	sum := 0
	for _, a := range allocs {
		sum += a.target
	}
	if available > 0 && sum > available {
		ratio = float64(available) / float64(sum)
		for _, a := range allocs {
			if a.target > 0 {
				a.target = max(a.min, int(math.Floor(float64(a.target)*ratio)))
			}
		}
	}

	sort.SliceStable(allocs, func(i, j int) bool {
		return allocs[i].target > allocs[j].target
	})
	return allocs, ratio
}

// proportionalTarget shares the empty cells of a's eligible beds among all
// plants competing for any of them, by weight.
func proportionalTarget(a *allocation, all []*allocation, beds []*garden.Bed) int {
	pool := 0
	for _, bi := range a.beds {
		pool += beds[bi].EmptyCount()
	}
	var total float64
	for _, o := range all {
		if overlaps(a.beds, o.beds) {
			total += o.plant.Weight()
		}
	}
	if total == 0 {
		return 0
	}
	return int(math.Floor(float64(pool) * a.plant.Weight() / total))
}

func overlaps(a, b []int) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}

// clamp bounds t to [lo, hi]; lo wins when hi < lo.
func clamp(t, lo, hi int) int {
	return max(lo, min(t, hi))
}

// checkTargets rejects negative overrides and overrides for plants that are
// not being planned.
func checkTargets(targets map[string]int, plants []garden.PlantType) error {
	if len(targets) == 0 {
		return nil
	}
	known := make(map[string]bool, len(plants))
	for _, p := range plants {
		known[p.ID] = true
	}
	ids := make([]string, 0, len(targets))
	for id := range targets {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if targets[id] < 0 {
			return errors.New(errors.ErrCodeInvalidInput, "target for %s must not be negative", id)
		}
		if !known[id] {
			return errors.New(errors.ErrCodeInvalidInput, "target for %s names a plant that is not being planned", id)
		}
	}
	return nil
}
