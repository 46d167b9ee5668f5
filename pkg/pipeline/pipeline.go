// Package pipeline runs the planning engine with caching and observability.
//
// The CLI and the HTTP server both plan gardens through a [Runner], so the
// two entry points share cache keys, hooks and logging.
//
// # Stages
//
//  1. Plan: size targets, place clusters and fill gaps ([alloc.Planner])
//  2. Decompose: split sprawling regions into specimens ([specimen.Decompose])
//
// Each stage can be run on its own, or both in sequence with [Runner.Execute]:
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	result, err := runner.Execute(ctx, g, plants, pipeline.Options{
//	    Policy:          "rich",
//	    PrioritizeLight: true,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	planted := result.Plan.Garden
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/bedplan/pkg/cache"
	"github.com/matzehuels/bedplan/pkg/core/alloc"
	"github.com/matzehuels/bedplan/pkg/core/specimen"
	"github.com/matzehuels/bedplan/pkg/errors"
	"github.com/matzehuels/bedplan/pkg/garden"
)

// =============================================================================
// Defaults
// =============================================================================

// DefaultPolicy is the policy preset used when none is named.
const DefaultPolicy = "simple"

// =============================================================================
// Options
// =============================================================================

// Options configures a pipeline run. It is the request body of the
// planning API.
type Options struct {
	// Policy names a preset ("simple" or "rich").
	Policy string `json:"policy,omitempty"`

	// Custom replaces the named preset when set.
	Custom *alloc.Policy `json:"custom_policy,omitempty"`

	PrioritizeLight bool           `json:"prioritize_light"`
	Targets         map[string]int `json:"targets,omitempty"`

	// Refresh bypasses cache reads. Results are still written.
	Refresh bool `json:"refresh,omitempty"`

	// Catalog resolves plants already planted in the garden. The plants
	// of a run take precedence. When nil, planted cells are not checked
	// and only the run's plants are decomposed.
	Catalog garden.Lookup `json:"-"`

	Logger *log.Logger `json:"-"`

	resolved  alloc.Policy
	validated bool
}

// ValidateAndSetDefaults resolves the policy and checks the options.
// It is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Custom != nil {
		o.resolved = *o.Custom
	} else {
		if o.Policy == "" {
			o.Policy = DefaultPolicy
		}
		p, err := alloc.PolicyByName(o.Policy)
		if err != nil {
			return err
		}
		o.resolved = p
	}
	if err := o.resolved.Validate(); err != nil {
		return err
	}
	for id, n := range o.Targets {
		if n < 0 {
			return errors.New(errors.ErrCodeInvalidInput, "target for %s is negative", id)
		}
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// ResolvedPolicy returns the policy the run uses. Call
// ValidateAndSetDefaults first.
func (o *Options) ResolvedPolicy() alloc.Policy { return o.resolved }

// PlannerOptions returns the engine options.
func (o *Options) PlannerOptions() alloc.Options {
	return alloc.Options{PrioritizeLight: o.PrioritizeLight, Targets: o.Targets, Known: o.Catalog}
}

// Lookup resolves plants through the run's plants, then the catalogue.
func (o *Options) Lookup(plants []garden.PlantType) garden.Lookup {
	return garden.Overlay(o.Catalog, plants)
}

// PlanKeyOpts returns cache key options for planning.
func (o *Options) PlanKeyOpts() cache.PlanKeyOpts {
	return cache.PlanKeyOpts{
		Policy:          o.resolved,
		PrioritizeLight: o.PrioritizeLight,
		Targets:         o.Targets,
	}
}

// =============================================================================
// Results
// =============================================================================

// Result contains the outputs of a full pipeline run.
type Result struct {
	Plan *alloc.Plan

	// Regions holds the specimen decomposition of each planted bed.
	Regions [][]specimen.Region

	// GardenHash is the content hash of the input garden.
	GardenHash string

	Stats     Stats
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Plants        int
	Beds          int
	Placed        int
	Unplaced      int
	Regions       int
	Incomplete    int
	PlanTime      time.Duration
	DecomposeTime time.Duration
}

// CacheInfo tracks cache hits for each stage.
type CacheInfo struct {
	PlanHit      bool
	DecomposeHit bool
}
