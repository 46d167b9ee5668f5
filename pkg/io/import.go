package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/bedplan/pkg/errors"
	"github.com/matzehuels/bedplan/pkg/garden"
)

// ReadJSON decodes a JSON garden document from r.
//
// ReadJSON returns an error if the JSON is malformed, a bed has invalid
// dimensions, light level or categories, a bed's cell count does not match
// rows*cols, or a note key references a missing cell. Unknown plant IDs are
// not detected here; pass the result to [garden.Validate] with a lookup.
//
// ReadJSON does not close r.
func ReadJSON(r io.Reader) (*garden.Garden, error) {
	var doc Document
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode garden")
	}
	return doc.Garden()
}

// ImportJSON reads a JSON garden document from the file at path.
func ImportJSON(path string) (*garden.Garden, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadJSON(f)
}
