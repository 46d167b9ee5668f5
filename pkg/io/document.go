package io

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/matzehuels/bedplan/pkg/errors"
	"github.com/matzehuels/bedplan/pkg/garden"
)

// Document is the serialised form of a garden.
type Document struct {
	Name  string            `json:"name,omitempty" bson:"name,omitempty"`
	Zone  string            `json:"zone,omitempty" bson:"zone,omitempty"`
	Beds  []BedDocument     `json:"beds" bson:"beds"`
	Notes map[string]string `json:"notes,omitempty" bson:"-"`
}

// BedDocument is the serialised form of one bed.
type BedDocument struct {
	Name              string            `json:"name,omitempty" bson:"name,omitempty"`
	Rows              int               `json:"rows" bson:"rows"`
	Cols              int               `json:"cols" bson:"cols"`
	LightLevel        garden.Light      `json:"lightLevel" bson:"lightLevel"`
	Cells             []*string         `json:"cells" bson:"cells"`
	AllowedCategories []garden.Category `json:"allowedCategories,omitempty" bson:"allowedCategories,omitempty"`
}

// FromGarden converts g to its document form.
func FromGarden(g *garden.Garden) Document {
	doc := Document{
		Name: g.Name(),
		Zone: g.Zone(),
		Beds: make([]BedDocument, g.BedCount()),
	}
	for i, b := range g.Beds() {
		bd := BedDocument{
			Name:              b.Name(),
			Rows:              b.Rows(),
			Cols:              b.Cols(),
			LightLevel:        b.Light(),
			Cells:             make([]*string, b.Len()),
			AllowedCategories: b.AllowedCategories(),
		}
		for ci, id := range b.Cells() {
			if id != garden.Empty {
				bd.Cells[ci] = &id
			}
		}
		doc.Beds[i] = bd
	}
	if notes := g.Notes(); len(notes) > 0 {
		doc.Notes = make(map[string]string, len(notes))
		for _, n := range notes {
			doc.Notes[NoteKey(n.Bed, n.Cell)] = n.Text
		}
	}
	return doc
}

// Garden builds a garden from the document, checking bed dimensions, light
// levels, categories and note keys.
func (d Document) Garden() (*garden.Garden, error) {
	if err := errors.ValidateName(d.Name); err != nil {
		return nil, err
	}
	beds := make([]*garden.Bed, len(d.Beds))
	for i, bd := range d.Beds {
		b, err := bd.Bed()
		if err != nil {
			return nil, errors.Wrap(errors.GetCode(err), err, "bed %d", i)
		}
		beds[i] = b
	}
	g := garden.New(d.Name, beds...).WithZone(d.Zone)

	// Sorted keys keep the first reported error stable.
	keys := make([]string, 0, len(d.Notes))
	for k := range d.Notes {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		bed, cell, err := ParseNoteKey(k)
		if err != nil {
			return nil, err
		}
		if g, err = g.WithNote(bed, cell, d.Notes[k]); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// Bed builds a bed from the document.
func (bd BedDocument) Bed() (*garden.Bed, error) {
	if bd.Cells == nil {
		return garden.NewBed(bd.Rows, bd.Cols, bd.LightLevel,
			garden.WithName(bd.Name), garden.WithAllowed(bd.AllowedCategories...))
	}
	cells := make([]string, len(bd.Cells))
	for i, c := range bd.Cells {
		if c != nil {
			cells[i] = strings.TrimSpace(*c)
		}
	}
	return garden.NewBed(bd.Rows, bd.Cols, bd.LightLevel,
		garden.WithName(bd.Name),
		garden.WithAllowed(bd.AllowedCategories...),
		garden.WithCells(cells),
	)
}

// NoteKey formats a note key as "bed.cell".
func NoteKey(bed, cell int) string {
	return fmt.Sprintf("%d.%d", bed, cell)
}

// ParseNoteKey parses a "bed.cell" note key.
func ParseNoteKey(key string) (bed, cell int, err error) {
	b, c, ok := strings.Cut(key, ".")
	if !ok {
		return 0, 0, errors.New(errors.ErrCodeInvalidNote, "note key %q must be bedIndex.cellIndex", key)
	}
	bed, err1 := strconv.Atoi(b)
	cell, err2 := strconv.Atoi(c)
	if err1 != nil || err2 != nil || bed < 0 || cell < 0 {
		return 0, 0, errors.New(errors.ErrCodeInvalidNote, "note key %q must be bedIndex.cellIndex", key)
	}
	return bed, cell, nil
}
