// Package store persists named gardens.
//
// Gardens are stored as [gardenio.Document] values under generated UUIDs.
// Two backends exist:
//
//   - [FileStore]: one JSON file per garden, for the CLI
//   - mongo.Store: a MongoDB collection, for the API server
//
// Both validate documents on write, so a stored garden always decodes.
package store

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/bedplan/pkg/errors"
	gardenio "github.com/matzehuels/bedplan/pkg/io"
)

// Record is a stored garden.
type Record struct {
	ID        string            `json:"id"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
	Garden    gardenio.Document `json:"garden"`
}

// Name returns the garden's name.
func (r *Record) Name() string { return r.Garden.Name }

// Store persists gardens.
type Store interface {
	// Create stores doc under a new ID.
	Create(ctx context.Context, doc gardenio.Document) (*Record, error)

	// Get returns the garden with the given ID. A missing garden is a
	// GARDEN_NOT_FOUND error.
	Get(ctx context.Context, id string) (*Record, error)

	// Update replaces the garden with the given ID.
	Update(ctx context.Context, id string, doc gardenio.Document) (*Record, error)

	// List returns all gardens, most recently updated first.
	List(ctx context.Context) ([]*Record, error)

	// Delete removes the garden with the given ID.
	Delete(ctx context.Context, id string) error

	// Close releases backend resources.
	Close() error
}

// NewID returns a fresh garden ID.
func NewID() string { return uuid.NewString() }

// CheckDocument validates doc by decoding it into a garden.
func CheckDocument(doc gardenio.Document) error {
	_, err := doc.Garden()
	return err
}

// NotFound returns the error for a missing garden.
func NotFound(id string) error {
	return errors.New(errors.ErrCodeGardenNotFound, "garden %s not found", id)
}

// SortRecords orders records by UpdatedAt descending, then ID.
func SortRecords(recs []*Record) {
	slices.SortFunc(recs, func(a, b *Record) int {
		if c := b.UpdatedAt.Compare(a.UpdatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}

// Resolve finds a garden by full ID, unique ID prefix or exact name.
func Resolve(ctx context.Context, s Store, ref string) (*Record, error) {
	if errors.ValidateGardenID(ref) == nil {
		return s.Get(ctx, ref)
	}
	recs, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	var match []*Record
	for _, r := range recs {
		if r.Name() == ref || strings.HasPrefix(r.ID, ref) {
			match = append(match, r)
		}
	}
	switch len(match) {
	case 0:
		return nil, NotFound(ref)
	case 1:
		return match[0], nil
	}
	return nil, errors.New(errors.ErrCodeInvalidInput, "%q matches %d gardens", ref, len(match))
}
