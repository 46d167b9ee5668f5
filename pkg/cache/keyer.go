package cache

import (
	"github.com/matzehuels/bedplan/pkg/core/alloc"
)

// PlanKeyOpts are the planning inputs besides garden and plants that
// affect a plan.
type PlanKeyOpts struct {
	Policy          alloc.Policy   `json:"policy"`
	PrioritizeLight bool           `json:"prioritize_light"`
	Targets         map[string]int `json:"targets,omitempty"`
}

// Keyer derives cache keys.
type Keyer interface {
	// PlanKey returns the key of a planned garden.
	PlanKey(gardenHash, plantsHash string, opts PlanKeyOpts) string

	// DecomposeKey returns the key of a garden's specimen decomposition.
	DecomposeKey(gardenHash, plantsHash string) string
}

// DefaultKeyer hashes every input into the key.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// PlanKey implements Keyer.
func (DefaultKeyer) PlanKey(gardenHash, plantsHash string, opts PlanKeyOpts) string {
	return hashKey("plan", gardenHash, plantsHash, opts)
}

// DecomposeKey implements Keyer.
func (DefaultKeyer) DecomposeKey(gardenHash, plantsHash string) string {
	return hashKey("decompose", gardenHash, plantsHash)
}
