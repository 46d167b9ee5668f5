// Package catalog loads and queries plant catalogues.
//
// A catalogue is an ordered list of [garden.PlantType] records. Order
// matters: the allocation planner breaks ties between equally sized plants
// by catalogue order, so the same file always yields the same plan.
//
// Catalogues are stored as YAML:
//
//	plants:
//	  - id: TOM
//	    name: Tomato
//	    spacing_factor: 1
//	    light: high
//	    category: vegetable
//
// [Default] returns the built-in catalogue embedded in the binary.
package catalog

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/bedplan/pkg/errors"
	"github.com/matzehuels/bedplan/pkg/garden"
)

//go:embed plants.yaml
var defaultYAML []byte

// Catalog is an immutable, ordered set of plant types.
type Catalog struct {
	plants []garden.PlantType
	index  map[string]int
}

type file struct {
	Plants []garden.PlantType `yaml:"plants"`
}

// New builds a catalogue from plants, validating each entry and rejecting
// duplicate IDs.
func New(plants []garden.PlantType) (*Catalog, error) {
	if err := garden.ValidatePlants(plants); err != nil {
		return nil, err
	}
	c := &Catalog{
		plants: make([]garden.PlantType, len(plants)),
		index:  make(map[string]int, len(plants)),
	}
	copy(c.plants, plants)
	for i, p := range c.plants {
		c.index[p.ID] = i
	}
	return c, nil
}

// Default returns the built-in catalogue.
func Default() *Catalog {
	c, err := Parse(bytes.NewReader(defaultYAML))
	if err != nil {
		panic(fmt.Sprintf("catalog: built-in catalogue is invalid: %v", err))
	}
	return c
}

// Parse decodes a YAML catalogue from r.
func Parse(r io.Reader) (*Catalog, error) {
	var f file
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if err == io.EOF {
			return nil, errors.New(errors.ErrCodeInvalidFormat, "catalogue is empty")
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode catalogue")
	}
	if len(f.Plants) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "catalogue has no plants")
	}
	return New(f.Plants)
}

// Load reads a YAML catalogue from path.
func Load(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open catalogue %s", path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	c, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Write encodes the catalogue as YAML to w.
func (c *Catalog) Write(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(file{Plants: c.plants}); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return enc.Close()
}

// Len returns the number of plants.
func (c *Catalog) Len() int { return len(c.plants) }

// Plants returns a copy of all plants in catalogue order.
func (c *Catalog) Plants() []garden.PlantType {
	out := make([]garden.PlantType, len(c.plants))
	copy(out, c.plants)
	return out
}

// Get returns the plant with the given ID.
func (c *Catalog) Get(id string) (garden.PlantType, bool) {
	i, ok := c.index[id]
	if !ok {
		return garden.PlantType{}, false
	}
	return c.plants[i], true
}

// Lookup returns a garden.Lookup backed by this catalogue.
func (c *Catalog) Lookup() garden.Lookup { return c.Get }

// Select returns the plants with the given IDs in catalogue order.
// Unknown IDs are rejected; duplicates are ignored.
func (c *Catalog) Select(ids ...string) ([]garden.PlantType, error) {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		if _, ok := c.index[id]; !ok {
			return nil, errors.New(errors.ErrCodeUnknownPlant, "unknown plant %q", id)
		}
		want[id] = true
	}
	out := make([]garden.PlantType, 0, len(want))
	for _, p := range c.plants {
		if want[p.ID] {
			out = append(out, p)
		}
	}
	return out, nil
}

// ByCategory returns the plants of category cat in catalogue order.
func (c *Catalog) ByCategory(cat garden.Category) []garden.PlantType {
	var out []garden.PlantType
	for _, p := range c.plants {
		if p.Category == cat {
			out = append(out, p)
		}
	}
	return out
}
