// Package garden provides the grid data model for raised-bed gardens.
//
// # Overview
//
// A [Garden] is an ordered list of [Bed] values plus non-grid metadata
// (name, climate zone, free-text notes keyed by bed and cell). A bed is a
// rectangular grid of cells; each cell holds a plant identifier or is empty.
// Cells are stored row-major, so the cell at (row, col) lives at index
// row*cols + col, and a bed always holds exactly rows*cols cells.
//
// Plants are described by [PlantType] reference records: a short code, a
// space requirement and a light preference.
//
// # Persistent Values
//
// Beds and gardens are immutable. Every edit returns a new value:
//
//	b, _ := garden.NewBed(4, 4, garden.LightHigh)
//	b2, _ := b.WithCell(0, 0, "TOM")   // b is unchanged
//	g := garden.New("Back yard", b)
//	g2, _ := g.WithBed(0, b2)          // g still holds b
//
// A new garden shares every unchanged bed with its predecessor, and a bed's
// cell slice is never written after construction, so keeping old values
// around (for undo history, diffing, caching) costs one pointer per bed.
//
// # Notes
//
// Notes are keyed by [NoteKey] (bed index, cell index) and must always point
// at an existing cell. Shrinking a bed with [Garden.ResizeBed] remaps notes to
// the cell's new index or drops them when the cell disappears;
// [Garden.RemoveBed] drops the removed bed's notes and shifts the keys of
// later beds down by one.
//
// # Validation
//
// Constructors reject non-positive or oversized dimensions, unknown light
// levels and unknown categories. [Validate] additionally checks every cell
// against a plant catalogue so that a garden reconstructed from a file never
// references a plant the caller does not know about.
package garden
