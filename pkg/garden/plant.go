package garden

import (
	"github.com/matzehuels/bedplan/pkg/errors"
)

// Light is a categorical sun-exposure tag, used both for a bed's light level
// and for a plant's light preference.
type Light string

// Light levels.
const (
	LightLow    Light = "low"
	LightMedium Light = "medium"
	LightHigh   Light = "high"
)

// ParseLight converts s to a Light, rejecting unknown values.
func ParseLight(s string) (Light, error) {
	switch l := Light(s); l {
	case LightLow, LightMedium, LightHigh:
		return l, nil
	}
	return "", errors.New(errors.ErrCodeInvalidLight, "invalid light level: %q (must be one of: low, medium, high)", s)
}

// Valid reports whether l is a known light level.
func (l Light) Valid() bool {
	return l == LightLow || l == LightMedium || l == LightHigh
}

// Category groups plant types for bed restrictions.
type Category string

// Plant categories.
const (
	CategoryVegetable Category = "vegetable"
	CategoryFruit     Category = "fruit"
	CategoryHerb      Category = "herb"
)

// Categories lists every known category in canonical order.
var Categories = []Category{CategoryVegetable, CategoryFruit, CategoryHerb}

// ParseCategory converts s to a Category, rejecting unknown values.
func ParseCategory(s string) (Category, error) {
	switch c := Category(s); c {
	case CategoryVegetable, CategoryFruit, CategoryHerb:
		return c, nil
	}
	return "", errors.New(errors.ErrCodeInvalidCategory, "invalid category: %q (must be one of: vegetable, fruit, herb)", s)
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	return c == CategoryVegetable || c == CategoryFruit || c == CategoryHerb
}

// PlantType is immutable reference data describing one kind of plant.
//
// SpacingFactor is the number of specimens that fit in one cell (4 means
// four lettuces share a cell). Sprawling plants instead set
// CellsPerSpecimen above 1 (a squash needing two cells); the two fields
// describe the same quantity from opposite ends and CellsPerSpecimen wins
// when both are set.
type PlantType struct {
	ID               string   `json:"id" yaml:"id" bson:"id"`
	Name             string   `json:"name" yaml:"name" bson:"name"`
	SpacingFactor    float64  `json:"spacing_factor,omitempty" yaml:"spacing_factor,omitempty" bson:"spacing_factor,omitempty"`
	CellsPerSpecimen int      `json:"cells_per_specimen,omitempty" yaml:"cells_per_specimen,omitempty" bson:"cells_per_specimen,omitempty"`
	Light            Light    `json:"light" yaml:"light" bson:"light"`
	Category         Category `json:"category,omitempty" yaml:"category,omitempty" bson:"category,omitempty"`
}

// Weight returns the plant's relative space demand per specimen.
// Plants that need more room per specimen weigh more.
func (p PlantType) Weight() float64 {
	if p.CellsPerSpecimen > 1 {
		return float64(p.CellsPerSpecimen)
	}
	if p.SpacingFactor > 0 {
		return 1 / p.SpacingFactor
	}
	return 1
}

// SpecimenCells returns how many cells one specimen occupies (at least 1).
func (p PlantType) SpecimenCells() int {
	if p.CellsPerSpecimen > 1 {
		return p.CellsPerSpecimen
	}
	return 1
}

// IsSprawling reports whether one specimen spans more than one cell.
func (p PlantType) IsSprawling() bool {
	return p.CellsPerSpecimen > 1
}

// DisplayName returns the name if set, otherwise the ID.
func (p PlantType) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return p.ID
}

// Validate checks the plant's fields.
func (p PlantType) Validate() error {
	if err := errors.ValidatePlantID(p.ID); err != nil {
		return err
	}
	if err := errors.ValidateName(p.Name); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPlant, err, "plant %s: name", p.ID)
	}
	if p.SpacingFactor < 0 {
		return errors.New(errors.ErrCodeInvalidPlant, "plant %s: spacing factor must not be negative", p.ID)
	}
	if p.CellsPerSpecimen < 0 {
		return errors.New(errors.ErrCodeInvalidPlant, "plant %s: cells per specimen must not be negative", p.ID)
	}
	if p.SpacingFactor == 0 && p.CellsPerSpecimen <= 1 {
		return errors.New(errors.ErrCodeInvalidPlant, "plant %s: spacing factor or cells per specimen is required", p.ID)
	}
	if !p.Light.Valid() {
		return errors.New(errors.ErrCodeInvalidLight, "plant %s: invalid light preference %q", p.ID, p.Light)
	}
	if p.Category != "" && !p.Category.Valid() {
		return errors.New(errors.ErrCodeInvalidCategory, "plant %s: invalid category %q", p.ID, p.Category)
	}
	return nil
}
