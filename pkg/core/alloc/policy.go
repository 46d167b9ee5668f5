package alloc

import (
	"math"
	"slices"

	"github.com/matzehuels/bedplan/pkg/errors"
	"github.com/matzehuels/bedplan/pkg/garden"
)

// Window is the qualifying size range for candidate shapes, as fractions of
// the target cell count.
type Window struct {
	Lower float64 `json:"lower" toml:"lower"`
	Upper float64 `json:"upper" toml:"upper"`
}

var (
	// WindowLoose accepts shapes between 80% and 120% of the target.
	WindowLoose = Window{Lower: 0.8, Upper: 1.2}
	// WindowStrict accepts shapes between 50% and 100% of the target,
	// so clusters never exceed their share.
	WindowStrict = Window{Lower: 0.5, Upper: 1.0}
)

// Bounds returns the inclusive size range [ceil(target*Lower), ceil(target*Upper)].
func (w Window) Bounds(target int) (lo, hi int) {
	return ceilInt(float64(target) * w.Lower), ceilInt(float64(target) * w.Upper)
}

// ceilInt rounds up, ignoring float noise such as 12.000000000000002.
func ceilInt(x float64) int {
	return int(math.Ceil(x - 1e-9))
}

// Default scarcity constants.
const (
	DefaultScarcityPenalty   = 0.75
	DefaultScarcityFillRatio = 0.35
	DefaultMinClusterSize    = 2
)

// Policy selects between allocation behaviours.
type Policy struct {
	// LightTiers is 2 (low, high) or 3 (low, medium, high). With two tiers a
	// medium bed is rejected.
	LightTiers int `json:"light_tiers" toml:"light_tiers"`

	// CategoryRestriction honours each bed's allowed categories, both for
	// eligibility and for target pools.
	CategoryRestriction bool `json:"category_restriction" toml:"category_restriction"`

	// MinClusterSize is the smallest cluster an ordinary plant may shrink to.
	MinClusterSize int `json:"min_cluster_size" toml:"min_cluster_size"`

	// SingleCellCategories may shrink to a single cell.
	SingleCellCategories []garden.Category `json:"single_cell_categories,omitempty" toml:"single_cell_categories"`

	// Window is the shape size window.
	Window Window `json:"window" toml:"window"`

	// ScarcityPenalty is added to the only perfect-light bed when the plant
	// would fill less than ScarcityFillRatio of its empty cells.
	ScarcityPenalty   float64 `json:"scarcity_penalty" toml:"scarcity_penalty"`
	ScarcityFillRatio float64 `json:"scarcity_fill_ratio" toml:"scarcity_fill_ratio"`

	// GreedyFallback scatters plants that found no cluster cell by cell.
	GreedyFallback bool `json:"greedy_fallback" toml:"greedy_fallback"`

	// FillGaps runs the gap filler over every bed after placement.
	FillGaps bool `json:"fill_gaps" toml:"fill_gaps"`
}

// SimplePolicy returns the two-tier policy without category restrictions.
func SimplePolicy() Policy {
	return Policy{
		LightTiers:        2,
		MinClusterSize:    DefaultMinClusterSize,
		Window:            WindowLoose,
		ScarcityPenalty:   DefaultScarcityPenalty,
		ScarcityFillRatio: DefaultScarcityFillRatio,
		GreedyFallback:    true,
		FillGaps:          true,
	}
}

// RichPolicy returns the three-tier, category-aware policy.
func RichPolicy() Policy {
	return Policy{
		LightTiers:           3,
		CategoryRestriction:  true,
		MinClusterSize:       DefaultMinClusterSize,
		SingleCellCategories: []garden.Category{garden.CategoryHerb},
		Window:               WindowLoose,
		ScarcityPenalty:      DefaultScarcityPenalty,
		ScarcityFillRatio:    DefaultScarcityFillRatio,
		FillGaps:             true,
	}
}

// PolicyByName returns the preset called "simple" or "rich".
func PolicyByName(name string) (Policy, error) {
	switch name {
	case "simple", "":
		return SimplePolicy(), nil
	case "rich":
		return RichPolicy(), nil
	}
	return Policy{}, errors.New(errors.ErrCodeInvalidPolicy, "unknown policy %q (must be one of: simple, rich)", name)
}

// Validate checks the policy's fields.
func (p Policy) Validate() error {
	if p.LightTiers != 2 && p.LightTiers != 3 {
		return errors.New(errors.ErrCodeInvalidPolicy, "light tiers must be 2 or 3, got %d", p.LightTiers)
	}
	if p.MinClusterSize < 1 {
		return errors.New(errors.ErrCodeInvalidPolicy, "minimum cluster size must be at least 1, got %d", p.MinClusterSize)
	}
	if p.Window.Lower <= 0 || p.Window.Upper < p.Window.Lower {
		return errors.New(errors.ErrCodeInvalidPolicy, "invalid shape window %.2f-%.2f", p.Window.Lower, p.Window.Upper)
	}
	if p.ScarcityPenalty < 0 {
		return errors.New(errors.ErrCodeInvalidPolicy, "scarcity penalty must not be negative")
	}
	if p.ScarcityFillRatio < 0 || p.ScarcityFillRatio > 1 {
		return errors.New(errors.ErrCodeInvalidPolicy, "scarcity fill ratio must be within [0, 1]")
	}
	for _, c := range p.SingleCellCategories {
		if !c.Valid() {
			return errors.New(errors.ErrCodeInvalidCategory, "invalid single-cell category %q", c)
		}
	}
	return nil
}

// minimum returns the smallest cluster size for plant.
func (p Policy) minimum(plant garden.PlantType) int {
	if plant.Category != "" && slices.Contains(p.SingleCellCategories, plant.Category) {
		return 1
	}
	return p.MinClusterSize
}

// eligible reports whether plant may be placed in b.
func (p Policy) eligible(plant garden.PlantType, b *garden.Bed) bool {
	return !p.CategoryRestriction || b.Allows(plant.Category)
}

// checkLight rejects beds whose light level the policy cannot rank.
func (p Policy) checkLight(g *garden.Garden) error {
	if p.LightTiers == 3 {
		return nil
	}
	for i, b := range g.Beds() {
		if b.Light() == garden.LightMedium {
			return errors.New(errors.ErrCodeInvalidLight, "bed %d: medium light requires a three-tier policy", i)
		}
	}
	return nil
}
