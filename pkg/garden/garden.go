package garden

import (
	"cmp"
	"maps"
	"slices"

	"github.com/matzehuels/bedplan/pkg/errors"
)

// NoteKey addresses one cell of one bed.
type NoteKey struct {
	Bed  int
	Cell int
}

// Note is a free-text annotation attached to a cell.
type Note struct {
	NoteKey
	Text string
}

// Garden is an ordered list of beds plus metadata. Garden values are
// immutable; unchanged beds are shared between a garden and the gardens
// derived from it.
type Garden struct {
	name  string
	zone  string
	beds  []*Bed
	notes map[NoteKey]string
}

// New creates a garden holding the given beds.
func New(name string, beds ...*Bed) *Garden {
	return &Garden{
		name: name,
		beds: slices.Clone(beds),
	}
}

// Name returns the garden's name.
func (g *Garden) Name() string { return g.name }

// Zone returns the climate zone label.
func (g *Garden) Zone() string { return g.zone }

// BedCount returns the number of beds.
func (g *Garden) BedCount() int { return len(g.beds) }

// Beds returns the beds in order. The slice is a copy; the beds are shared.
func (g *Garden) Beds() []*Bed { return slices.Clone(g.beds) }

// Bed returns the bed at index i.
func (g *Garden) Bed(i int) (*Bed, bool) {
	if i < 0 || i >= len(g.beds) {
		return nil, false
	}
	return g.beds[i], true
}

// WithName returns a copy of the garden with a new name.
func (g *Garden) WithName(name string) *Garden {
	ng := g.clone()
	ng.name = name
	return ng
}

// WithZone returns a copy of the garden with a new climate zone.
func (g *Garden) WithZone(zone string) *Garden {
	ng := g.clone()
	ng.zone = zone
	return ng
}

// AddBed returns a copy of the garden with b appended.
func (g *Garden) AddBed(b *Bed) *Garden {
	ng := g.clone()
	ng.beds = append(ng.beds, b)
	return ng
}

// WithBed returns a copy of the garden with bed i replaced by b.
// Notes that no longer reference a cell of b are pruned.
func (g *Garden) WithBed(i int, b *Bed) (*Garden, error) {
	if i < 0 || i >= len(g.beds) {
		return nil, errors.New(errors.ErrCodeInvalidBed, "bed index %d out of range (garden has %d beds)", i, len(g.beds))
	}
	if b == nil {
		return nil, errors.New(errors.ErrCodeInvalidBed, "bed %d is nil", i)
	}
	ng := g.clone()
	ng.beds[i] = b
	if b.Len() < g.beds[i].Len() {
		ng.notes = filterNotes(g.notes, func(k NoteKey) (NoteKey, bool) {
			return k, k.Bed != i || k.Cell < b.Len()
		})
	}
	return ng, nil
}

// WithBeds returns a copy of the garden whose beds are replaced wholesale,
// as the allocation planner does. The replacement must have the same bed
// count; notes are pruned against the new sizes.
func (g *Garden) WithBeds(beds []*Bed) (*Garden, error) {
	if len(beds) != len(g.beds) {
		return nil, errors.New(errors.ErrCodeInvalidBed, "got %d beds, want %d", len(beds), len(g.beds))
	}
	for i, b := range beds {
		if b == nil {
			return nil, errors.New(errors.ErrCodeInvalidBed, "bed %d is nil", i)
		}
	}
	ng := g.clone()
	copy(ng.beds, beds)
	ng.notes = filterNotes(g.notes, func(k NoteKey) (NoteKey, bool) {
		return k, k.Cell < beds[k.Bed].Len()
	})
	return ng, nil
}

// RemoveBed returns a copy of the garden without bed i. Notes on the
// removed bed are dropped; notes on later beds move down one index.
func (g *Garden) RemoveBed(i int) (*Garden, error) {
	if i < 0 || i >= len(g.beds) {
		return nil, errors.New(errors.ErrCodeInvalidBed, "bed index %d out of range (garden has %d beds)", i, len(g.beds))
	}
	ng := g.clone()
	ng.beds = slices.Delete(ng.beds, i, i+1)
	ng.notes = filterNotes(g.notes, func(k NoteKey) (NoteKey, bool) {
		switch {
		case k.Bed == i:
			return k, false
		case k.Bed > i:
			return NoteKey{Bed: k.Bed - 1, Cell: k.Cell}, true
		}
		return k, true
	})
	return ng, nil
}

// ResizeBed returns a copy of the garden with bed i resized. Notes follow
// their cell's (row, col) position and are pruned when it falls outside
// the new bounds.
func (g *Garden) ResizeBed(i, rows, cols int) (*Garden, error) {
	old, ok := g.Bed(i)
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidBed, "bed index %d out of range (garden has %d beds)", i, len(g.beds))
	}
	nb, err := old.Resized(rows, cols)
	if err != nil {
		return nil, err
	}
	ng := g.clone()
	ng.beds[i] = nb
	ng.notes = filterNotes(g.notes, func(k NoteKey) (NoteKey, bool) {
		if k.Bed != i {
			return k, true
		}
		r, c := old.Pos(k.Cell)
		if !nb.InBounds(r, c) {
			return k, false
		}
		return NoteKey{Bed: i, Cell: nb.Index(r, c)}, true
	})
	return ng, nil
}

// WithNote returns a copy of the garden with a note set on (bed, cell).
// An empty text removes the note. The key must reference an existing cell.
func (g *Garden) WithNote(bed, cell int, text string) (*Garden, error) {
	b, ok := g.Bed(bed)
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidNote, "note references bed %d, garden has %d beds", bed, len(g.beds))
	}
	if cell < 0 || cell >= b.Len() {
		return nil, errors.New(errors.ErrCodeInvalidNote, "note references cell %d, bed %d has %d cells", cell, bed, b.Len())
	}
	ng := g.clone()
	ng.notes = maps.Clone(g.notes)
	if ng.notes == nil {
		ng.notes = make(map[NoteKey]string)
	}
	key := NoteKey{Bed: bed, Cell: cell}
	if text == "" {
		delete(ng.notes, key)
	} else {
		ng.notes[key] = text
	}
	return ng, nil
}

// Note returns the note on (bed, cell).
func (g *Garden) Note(bed, cell int) (string, bool) {
	s, ok := g.notes[NoteKey{Bed: bed, Cell: cell}]
	return s, ok
}

// Notes returns every note sorted by bed then cell.
func (g *Garden) Notes() []Note {
	out := make([]Note, 0, len(g.notes))
	for k, v := range g.notes {
		out = append(out, Note{NoteKey: k, Text: v})
	}
	slices.SortFunc(out, func(a, b Note) int {
		if c := cmp.Compare(a.Bed, b.Bed); c != 0 {
			return c
		}
		return cmp.Compare(a.Cell, b.Cell)
	})
	return out
}

// TotalCells returns the number of cells across all beds.
func (g *Garden) TotalCells() int {
	n := 0
	for _, b := range g.beds {
		n += b.Len()
	}
	return n
}

// EmptyCells returns the number of unplanted cells across all beds.
func (g *Garden) EmptyCells() int {
	n := 0
	for _, b := range g.beds {
		n += b.EmptyCount()
	}
	return n
}

// PlantCount is the number of cells a plant occupies.
type PlantCount struct {
	ID    string
	Cells int
}

// Census counts planted cells per plant across the garden, ordered by
// cell count descending and then by ID.
func (g *Garden) Census() []PlantCount {
	counts := make(map[string]int)
	for _, b := range g.beds {
		for _, id := range b.cells {
			if id != Empty {
				counts[id]++
			}
		}
	}
	out := make([]PlantCount, 0, len(counts))
	for id, n := range counts {
		out = append(out, PlantCount{ID: id, Cells: n})
	}
	slices.SortFunc(out, func(a, b PlantCount) int {
		if c := cmp.Compare(b.Cells, a.Cells); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}

// Equal reports whether two gardens hold the same metadata, beds and notes.
func (g *Garden) Equal(o *Garden) bool {
	if g == o {
		return true
	}
	if g == nil || o == nil {
		return false
	}
	if g.name != o.name || g.zone != o.zone || len(g.beds) != len(o.beds) {
		return false
	}
	for i := range g.beds {
		if !g.beds[i].Equal(o.beds[i]) {
			return false
		}
	}
	return maps.Equal(g.notes, o.notes)
}

// clone copies the garden shell. Beds are shared; notes are shared until
// a method replaces the map.
func (g *Garden) clone() *Garden {
	ng := *g
	ng.beds = slices.Clone(g.beds)
	return &ng
}

// filterNotes builds a new note map by passing every key through fn,
// which returns the (possibly remapped) key and whether to keep it.
func filterNotes(notes map[NoteKey]string, fn func(NoteKey) (NoteKey, bool)) map[NoteKey]string {
	if len(notes) == 0 {
		return nil
	}
	out := make(map[NoteKey]string, len(notes))
	for k, v := range notes {
		if nk, keep := fn(k); keep {
			out[nk] = v
		}
	}
	return out
}
