package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/bedplan/pkg/cache"
	"github.com/matzehuels/bedplan/pkg/core/alloc"
	"github.com/matzehuels/bedplan/pkg/core/specimen"
	"github.com/matzehuels/bedplan/pkg/errors"
	"github.com/matzehuels/bedplan/pkg/garden"
	gardenio "github.com/matzehuels/bedplan/pkg/io"
	"github.com/matzehuels/bedplan/pkg/observability"
)

// Runner executes pipeline stages with caching.
//
// A Runner holds no per-run state, so one Runner may serve concurrent
// requests with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner. A nil keyer uses the default keyer, a nil
// cache disables caching.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute plans g and decomposes the planted beds.
func (r *Runner) Execute(ctx context.Context, g *garden.Garden, plants []garden.PlantType, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	result := &Result{}

	planStart := time.Now()
	plan, hit, err := r.PlanWithCacheInfo(ctx, g, plants, opts)
	if err != nil {
		return nil, fmt.Errorf("plan: %w", err)
	}
	result.Plan = plan
	result.Stats.PlanTime = time.Since(planStart)
	result.CacheInfo.PlanHit = hit
	result.Stats.Plants = len(plants)
	result.Stats.Beds = g.BedCount()
	result.Stats.Placed = countPlaced(plan)
	result.Stats.Unplaced = len(plan.Unplaced)
	if h, err := gardenHash(g); err == nil {
		result.GardenHash = h
	}

	r.Logger.Info("planned garden",
		"plants", len(plants),
		"placed", result.Stats.Placed,
		"unplaced", result.Stats.Unplaced,
		"cached", hit,
		"duration", result.Stats.PlanTime)

	decStart := time.Now()
	regions, hit, err := r.decompose(ctx, plan.Garden, opts.Lookup(plants), opts)
	if err != nil {
		return nil, fmt.Errorf("decompose: %w", err)
	}
	result.Regions = regions
	result.Stats.DecomposeTime = time.Since(decStart)
	result.CacheInfo.DecomposeHit = hit
	result.Stats.Regions, result.Stats.Incomplete = countRegions(regions)

	r.Logger.Info("decomposed specimens",
		"regions", result.Stats.Regions,
		"incomplete", result.Stats.Incomplete,
		"cached", hit,
		"duration", result.Stats.DecomposeTime)

	return result, nil
}

// cachedPlan is the cache encoding of a plan. The planted garden travels
// as a document because Plan.Garden is not serialized.
type cachedPlan struct {
	Garden gardenio.Document `json:"garden"`
	Plan   *alloc.Plan       `json:"plan"`
}

// PlanWithCacheInfo plans g with caching and reports whether the result
// came from the cache.
func (r *Runner) PlanWithCacheInfo(ctx context.Context, g *garden.Garden, plants []garden.PlantType, opts Options) (*alloc.Plan, bool, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, err
	}
	if g == nil {
		return nil, false, errors.New(errors.ErrCodeInvalidInput, "garden is nil")
	}
	if opts.Catalog != nil {
		if err := garden.Validate(g, opts.Lookup(plants)); err != nil {
			return nil, false, err
		}
	}
	hooks := observability.Pipeline()
	hooks.OnPlanStart(ctx, len(plants), g.BedCount())
	start := time.Now()

	key, keyErr := r.planKey(g, plants, opts)
	if keyErr != nil {
		opts.Logger.Debug("plan cache disabled", "error", keyErr)
	}

	if keyErr == nil && !opts.Refresh {
		if plan, ok := r.readPlan(ctx, key); ok {
			hooks.OnPlanComplete(ctx, countPlaced(plan), len(plan.Unplaced), time.Since(start), nil)
			return plan, true, nil
		}
	}

	plan, err := alloc.NewPlanner(opts.ResolvedPolicy()).Plan(g, plants, opts.PlannerOptions())
	if err != nil {
		hooks.OnPlanComplete(ctx, 0, 0, time.Since(start), err)
		return nil, false, err
	}
	hooks.OnPlanComplete(ctx, countPlaced(plan), len(plan.Unplaced), time.Since(start), nil)

	if keyErr == nil {
		if data, err := json.Marshal(cachedPlan{Garden: gardenio.FromGarden(plan.Garden), Plan: plan}); err == nil {
			r.write(ctx, "plan", key, data, cache.PlanTTL)
		}
	}
	return plan, false, nil
}

// Plan is PlanWithCacheInfo without the cache hit flag.
func (r *Runner) Plan(ctx context.Context, g *garden.Garden, plants []garden.PlantType, opts Options) (*alloc.Plan, error) {
	plan, _, err := r.PlanWithCacheInfo(ctx, g, plants, opts)
	return plan, err
}

// DecomposeWithCacheInfo decomposes every bed of g with caching. The
// result holds one region list per bed. Every planted cell must resolve
// through lookup.
func (r *Runner) DecomposeWithCacheInfo(ctx context.Context, g *garden.Garden, lookup garden.Lookup, opts Options) ([][]specimen.Region, bool, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, err
	}
	if g == nil {
		return nil, false, errors.New(errors.ErrCodeInvalidInput, "garden is nil")
	}
	if lookup == nil {
		return nil, false, errors.New(errors.ErrCodeInvalidInput, "plant lookup is nil")
	}
	if err := garden.Validate(g, lookup); err != nil {
		return nil, false, err
	}
	return r.decompose(ctx, g, lookup, opts)
}

// decompose runs the decomposition stage on a garden that has already
// been checked. Planted cells lookup cannot resolve are left out.
func (r *Runner) decompose(ctx context.Context, g *garden.Garden, lookup garden.Lookup, opts Options) ([][]specimen.Region, bool, error) {
	hooks := observability.Pipeline()
	hooks.OnDecomposeStart(ctx, g.BedCount())
	start := time.Now()

	specs := sprawlingSpecs(g, lookup)
	key, keyErr := r.decomposeKey(g, specs)
	if keyErr != nil {
		opts.Logger.Debug("decompose cache disabled", "error", keyErr)
	}

	if keyErr == nil && !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			var regions [][]specimen.Region
			if err := json.Unmarshal(data, &regions); err == nil {
				observability.Cache().OnCacheHit(ctx, "decompose")
				n, inc := countRegions(regions)
				hooks.OnDecomposeComplete(ctx, n, inc, time.Since(start), nil)
				return regions, true, nil
			}
		}
		observability.Cache().OnCacheMiss(ctx, "decompose")
	}

	regions := make([][]specimen.Region, g.BedCount())
	for i, b := range g.Beds() {
		regions[i] = specimen.Decompose(b, lookup)
	}
	n, inc := countRegions(regions)
	hooks.OnDecomposeComplete(ctx, n, inc, time.Since(start), nil)

	if keyErr == nil {
		if data, err := json.Marshal(regions); err == nil {
			r.write(ctx, "decompose", key, data, cache.DecomposeTTL)
		}
	}
	return regions, false, nil
}

// Decompose is DecomposeWithCacheInfo without the cache hit flag.
func (r *Runner) Decompose(ctx context.Context, g *garden.Garden, lookup garden.Lookup, opts Options) ([][]specimen.Region, error) {
	regions, _, err := r.DecomposeWithCacheInfo(ctx, g, lookup, opts)
	return regions, err
}

// Close releases resources held by the runner.
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) readPlan(ctx context.Context, key string) (*alloc.Plan, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil || !hit {
		observability.Cache().OnCacheMiss(ctx, "plan")
		return nil, false
	}
	var cp cachedPlan
	if err := json.Unmarshal(data, &cp); err != nil || cp.Plan == nil {
		observability.Cache().OnCacheMiss(ctx, "plan")
		return nil, false
	}
	g, err := cp.Garden.Garden()
	if err != nil {
		observability.Cache().OnCacheMiss(ctx, "plan")
		return nil, false
	}
	cp.Plan.Garden = g
	observability.Cache().OnCacheHit(ctx, "plan")
	return cp.Plan, true
}

func (r *Runner) write(ctx context.Context, keyType, key string, data []byte, ttl time.Duration) {
	if err := r.Cache.Set(ctx, key, data, ttl); err != nil {
		r.Logger.Warn("cache write failed", "key_type", keyType, "error", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, keyType, len(data))
}

func (r *Runner) planKey(g *garden.Garden, plants []garden.PlantType, opts Options) (string, error) {
	gh, err := gardenHash(g)
	if err != nil {
		return "", err
	}
	ph, err := cache.HashJSON(plants)
	if err != nil {
		return "", err
	}
	return r.Keyer.PlanKey(gh, ph, opts.PlanKeyOpts()), nil
}

func (r *Runner) decomposeKey(g *garden.Garden, specs map[string]int) (string, error) {
	gh, err := gardenHash(g)
	if err != nil {
		return "", err
	}
	sh, err := cache.HashJSON(specs)
	if err != nil {
		return "", err
	}
	return r.Keyer.DecomposeKey(gh, sh), nil
}

func gardenHash(g *garden.Garden) (string, error) {
	return cache.HashJSON(gardenio.FromGarden(g))
}

// sprawlingSpecs maps each multi-cell plant present in g to its specimen
// size. It is the only part of the lookup a decomposition depends on.
func sprawlingSpecs(g *garden.Garden, lookup garden.Lookup) map[string]int {
	out := make(map[string]int)
	for _, c := range g.Census() {
		if p, ok := lookup(c.ID); ok && p.IsSprawling() {
			out[c.ID] = p.SpecimenCells()
		}
	}
	return out
}

func countPlaced(p *alloc.Plan) int {
	n := 0
	for _, pm := range p.Placements {
		if pm.Placed() {
			n++
		}
	}
	return n
}

func countRegions(beds [][]specimen.Region) (regions, incomplete int) {
	for _, rs := range beds {
		for _, r := range rs {
			regions++
			if r.Incomplete {
				incomplete++
			}
		}
	}
	return regions, incomplete
}
