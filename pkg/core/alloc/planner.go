package alloc

import (
	"sort"

	"github.com/matzehuels/bedplan/pkg/errors"
	"github.com/matzehuels/bedplan/pkg/garden"
)

// Options are per-run planning inputs.
type Options struct {
	// PrioritizeLight ranks beds by light match. When false beds are ranked
	// by free space only.
	PrioritizeLight bool `json:"prioritizeLight"`

	// Targets replaces the computed target cell count of the given plant
	// IDs. Overrides are still clamped and scaled.
	Targets map[string]int `json:"targets,omitempty"`

	// Known resolves plants that may already be planted in the garden.
	// When set, every planted cell must resolve through the plant list or
	// Known. When nil the planted cells are not checked.
	Known garden.Lookup `json:"-"`
}

// CellRef addresses one cell of a garden.
type CellRef struct {
	Bed  int `json:"bed"`
	Cell int `json:"cell"`
}

// Placement is the outcome for one plant.
type Placement struct {
	PlantID string `json:"plantId"`
	Target  int    `json:"target"`

	// Bed is the index of the bed holding the cluster, or -1.
	Bed  int  `json:"bed"`
	Rect Rect `json:"rect"`

	// Scattered lists cells assigned by the greedy fallback.
	Scattered []CellRef `json:"scattered,omitempty"`

	// Cells is the number of cells assigned before gap filling.
	Cells int `json:"cells"`
}

// Clustered reports whether the plant was placed as one rectangle.
func (p Placement) Clustered() bool { return p.Bed >= 0 }

// Placed reports whether the plant received any cells.
func (p Placement) Placed() bool { return p.Cells > 0 }

// Plan is the result of one planning run.
type Plan struct {
	// Garden is the planned garden. The input garden is not modified.
	Garden *garden.Garden `json:"-"`

	// Placements holds one entry per plant in placement order.
	Placements []Placement `json:"placements"`

	// Unplaced lists plant IDs that received no cells, in placement order.
	Unplaced []string `json:"unplaced,omitempty"`

	// Scaled is the ratio applied to all targets; 1 when unscaled.
	// A garden without empty cells is never scaled.
	Scaled float64 `json:"scaled"`

	// GapFills counts cells assigned by the gap filler.
	GapFills int `json:"gapFills"`
}

// Placement returns the placement for plant id.
func (p *Plan) Placement(id string) (Placement, bool) {
	for _, pl := range p.Placements {
		if pl.PlantID == id {
			return pl, true
		}
	}
	return Placement{}, false
}

// Planner allocates plants to beds under a policy.
type Planner struct {
	Policy Policy
}

// NewPlanner returns a planner for policy.
func NewPlanner(policy Policy) *Planner {
	return &Planner{Policy: policy}
}

// Plan places plants into the empty cells of g. Cells that are already
// planted are left alone.
func (pl *Planner) Plan(g *garden.Garden, plants []garden.PlantType, opts Options) (*Plan, error) {
	pol := pl.Policy
	if err := pol.Validate(); err != nil {
		return nil, err
	}
	if g == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "garden is nil")
	}
	var lookup garden.Lookup
	if opts.Known != nil {
		lookup = garden.Overlay(opts.Known, plants)
	}
	if err := garden.Validate(g, lookup); err != nil {
		return nil, err
	}
	if err := pol.checkLight(g); err != nil {
		return nil, err
	}
	if err := garden.ValidatePlants(plants); err != nil {
		return nil, err
	}
	if err := checkTargets(opts.Targets, plants); err != nil {
		return nil, err
	}

	beds := g.Beds()
	allocs, ratio := pol.sizeTargets(beds, plants, opts.Targets)
	plan := &Plan{Scaled: ratio}

	for _, a := range allocs {
		pm := Placement{PlantID: a.plant.ID, Target: a.target, Bed: -1}
		if len(a.beds) > 0 {
			pl.placeCluster(beds, a, opts.PrioritizeLight, &pm)
			if !pm.Clustered() && pol.GreedyFallback && !pol.CategoryRestriction {
				scatter(beds, a, &pm)
			}
		}
		if !pm.Placed() {
			plan.Unplaced = append(plan.Unplaced, pm.PlantID)
		}
		plan.Placements = append(plan.Placements, pm)
	}

	if pol.FillGaps {
		for i, b := range beds {
			nb, n := FillGaps(b)
			beds[i] = nb
			plan.GapFills += n
		}
	}

	out, err := g.WithBeds(beds)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "assemble planned garden")
	}
	plan.Garden = out
	return plan, nil
}

// placeCluster walks a's ranked beds and sizes from target down to minimum,
// writing the first fit into beds.
func (pl *Planner) placeCluster(beds []*garden.Bed, a *allocation, prioritize bool, pm *Placement) {
	for _, bi := range pl.rankBeds(beds, a, prioritize) {
		b := beds[bi]
		for size := a.target; size >= a.min && size > 0; size-- {
			shapes := RankShapes(size, b.Rows(), b.Cols(), pl.Policy.Window)
			r, ok := Place(shapes, b)
			if !ok {
				continue
			}
			beds[bi] = fillRect(b, r, a.plant.ID)
			pm.Bed = bi
			pm.Rect = r
			pm.Cells = r.Size()
			return
		}
	}
}

// rankBeds orders a's eligible beds by light score plus scarcity penalty,
// then by empty cells descending, then by index.
func (pl *Planner) rankBeds(beds []*garden.Bed, a *allocation, prioritize bool) []int {
	type ranked struct {
		bed   int
		score float64
		empty int
	}
	rs := make([]ranked, len(a.beds))
	perfect := -1
	perfectCount := 0
	for i, bi := range a.beds {
		b := beds[bi]
		rs[i] = ranked{
			bed:   bi,
			score: LightScore(a.plant.Light, b.Light(), prioritize),
			empty: b.EmptyCount(),
		}
		if prioritize && rs[i].score == 0 {
			perfect = i
			perfectCount++
		}
	}
	if perfectCount == 1 {
		r := &rs[perfect]
		if float64(a.target) < pl.Policy.ScarcityFillRatio*float64(r.empty) {
			r.score += pl.Policy.ScarcityPenalty
		}
	}

	sort.SliceStable(rs, func(i, j int) bool {
		if rs[i].score != rs[j].score {
			return rs[i].score < rs[j].score
		}
		if rs[i].empty != rs[j].empty {
			return rs[i].empty > rs[j].empty
		}
		return rs[i].bed < rs[j].bed
	})

	out := make([]int, len(rs))
	for i, r := range rs {
		out[i] = r.bed
	}
	return out
}

// scatter assigns up to a.target empty cells of a's eligible beds, bed order
// then cell order.
func scatter(beds []*garden.Bed, a *allocation, pm *Placement) {
	remaining := a.target
	for _, bi := range a.beds {
		if remaining == 0 {
			return
		}
		cells := beds[bi].Cells()
		changed := false
		for ci, id := range cells {
			if remaining == 0 {
				break
			}
			if id != garden.Empty {
				continue
			}
			cells[ci] = a.plant.ID
			pm.Scattered = append(pm.Scattered, CellRef{Bed: bi, Cell: ci})
			pm.Cells++
			remaining--
			changed = true
		}
		if changed {
			beds[bi] = mustCells(beds[bi], cells)
		}
	}
}

func fillRect(b *garden.Bed, r Rect, id string) *garden.Bed {
	cells := b.Cells()
	for _, i := range r.Indices(b.Cols()) {
		cells[i] = id
	}
	return mustCells(b, cells)
}

// mustCells replaces b's cells with a slice derived from b.Cells().
func mustCells(b *garden.Bed, cells []string) *garden.Bed {
	nb, err := b.WithCells(cells)
	if err != nil {
		panic("alloc: cell count changed during placement: " + err.Error())
	}
	return nb
}
