package garden

import (
	"github.com/matzehuels/bedplan/pkg/errors"
)

// Lookup resolves a plant identifier to its type.
type Lookup func(id string) (PlantType, bool)

// LookupFrom builds a Lookup over a plant list. Later duplicates are ignored.
func LookupFrom(plants []PlantType) Lookup {
	byID := make(map[string]PlantType, len(plants))
	for _, p := range plants {
		if _, dup := byID[p.ID]; !dup {
			byID[p.ID] = p
		}
	}
	return func(id string) (PlantType, bool) {
		p, ok := byID[id]
		return p, ok
	}
}

// Overlay returns a Lookup that resolves plants first and falls back to
// base. A nil base resolves plants only.
func Overlay(base Lookup, plants []PlantType) Lookup {
	own := LookupFrom(plants)
	if base == nil {
		return own
	}
	return func(id string) (PlantType, bool) {
		if p, ok := own(id); ok {
			return p, true
		}
		return base(id)
	}
}

// ValidateBed checks that every planted cell of b references a known plant.
// A nil lookup skips the plant check.
func ValidateBed(b *Bed, lookup Lookup) error {
	if b == nil {
		return errors.New(errors.ErrCodeInvalidBed, "bed is nil")
	}
	if b.Len() != b.rows*b.cols {
		return errors.New(errors.ErrCodeInvalidBed, "bed has %d cells, want %d", b.Len(), b.rows*b.cols)
	}
	if lookup == nil {
		return nil
	}
	for i, id := range b.cells {
		if id == Empty {
			continue
		}
		if _, ok := lookup(id); !ok {
			r, c := b.Pos(i)
			return errors.New(errors.ErrCodeUnknownPlant, "cell (%d,%d) references unknown plant %q", r, c, id)
		}
	}
	return nil
}

// Validate checks the garden's beds against lookup and every note key
// against the bed sizes.
func Validate(g *Garden, lookup Lookup) error {
	if g == nil {
		return errors.New(errors.ErrCodeInvalidInput, "garden is nil")
	}
	if err := errors.ValidateName(g.name); err != nil {
		return err
	}
	for i, b := range g.beds {
		if err := ValidateBed(b, lookup); err != nil {
			return errors.Wrap(errors.GetCode(err), err, "bed %d", i)
		}
	}
	for k := range g.notes {
		b, ok := g.Bed(k.Bed)
		if !ok || k.Cell < 0 || k.Cell >= b.Len() {
			return errors.New(errors.ErrCodeInvalidNote, "note %d.%d references a missing cell", k.Bed, k.Cell)
		}
	}
	return nil
}

// ValidatePlants checks a plant list for invalid entries and duplicate IDs.
func ValidatePlants(plants []PlantType) error {
	seen := make(map[string]bool, len(plants))
	for _, p := range plants {
		if err := p.Validate(); err != nil {
			return err
		}
		if seen[p.ID] {
			return errors.New(errors.ErrCodeInvalidPlant, "duplicate plant id %q", p.ID)
		}
		seen[p.ID] = true
	}
	return nil
}
