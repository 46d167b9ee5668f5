package pipeline

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/bedplan/pkg/cache"
	"github.com/matzehuels/bedplan/pkg/errors"
	"github.com/matzehuels/bedplan/pkg/garden"
	"github.com/matzehuels/bedplan/pkg/observability"
)

// memCache is an in-memory cache that counts operations.
type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
	gets int
	sets int
}

func newMemCache() *memCache { return &memCache{data: make(map[string][]byte)} }

func (c *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	d, ok := c.data[key]
	return d, ok, nil
}

func (c *memCache) Set(_ context.Context, key string, data []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	c.data[key] = data
	return nil
}

func (c *memCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *memCache) Close() error { return nil }

var _ cache.Cache = (*memCache)(nil)

type countingHooks struct {
	observability.NoopPipelineHooks
	observability.NoopCacheHooks
	plans, decomposes, hits, misses int
}

func (h *countingHooks) OnPlanComplete(context.Context, int, int, time.Duration, error) { h.plans++ }
func (h *countingHooks) OnDecomposeComplete(context.Context, int, int, time.Duration, error) {
	h.decomposes++
}
func (h *countingHooks) OnCacheHit(context.Context, string)  { h.hits++ }
func (h *countingHooks) OnCacheMiss(context.Context, string) { h.misses++ }

var (
	tomato   = garden.PlantType{ID: "TOM", SpacingFactor: 1, Light: garden.LightHigh}
	cucumber = garden.PlantType{ID: "CUC", SpacingFactor: 0.5, CellsPerSpecimen: 2, Light: garden.LightHigh}
)

func quietRunner(c cache.Cache) *Runner {
	return NewRunner(c, nil, log.New(io.Discard))
}

func TestExecute(t *testing.T) {
	g := garden.New("yard", garden.MustBed(2, 4, garden.LightHigh))
	plants := []garden.PlantType{tomato, cucumber}

	res, err := quietRunner(nil).Execute(context.Background(), g, plants, Options{PrioritizeLight: true})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Stats.Plants != 2 || res.Stats.Beds != 1 || res.Stats.Placed != 2 || res.Stats.Unplaced != 0 {
		t.Errorf("Stats = %+v", res.Stats)
	}
	if res.GardenHash == "" {
		t.Error("GardenHash should be set")
	}
	if len(res.Regions) != 1 {
		t.Fatalf("got %d bed decompositions, want 1", len(res.Regions))
	}
	if res.Stats.Regions != len(res.Regions[0]) {
		t.Errorf("Stats.Regions = %d, want %d", res.Stats.Regions, len(res.Regions[0]))
	}
	for _, reg := range res.Regions[0] {
		if reg.PlantID != "CUC" {
			t.Errorf("unexpected region for %s", reg.PlantID)
		}
	}
	bed, _ := res.Plan.Garden.Bed(0)
	if bed.EmptyCount() != 0 {
		t.Errorf("bed not filled: %v", bed.Cells())
	}
}

func TestPlanCaching(t *testing.T) {
	defer observability.Reset()
	hooks := &countingHooks{}
	observability.SetPipelineHooks(hooks)
	observability.SetCacheHooks(hooks)

	mc := newMemCache()
	r := quietRunner(mc)
	ctx := context.Background()
	g := garden.New("yard", garden.MustBed(3, 3, garden.LightHigh))
	plants := []garden.PlantType{tomato}

	first, hit, err := r.PlanWithCacheInfo(ctx, g, plants, Options{})
	if err != nil || hit {
		t.Fatalf("first plan: hit=%v err=%v", hit, err)
	}
	second, hit, err := r.PlanWithCacheInfo(ctx, g, plants, Options{})
	if err != nil || !hit {
		t.Fatalf("second plan: hit=%v err=%v", hit, err)
	}
	if !first.Garden.Equal(second.Garden) {
		t.Error("cached garden differs from computed garden")
	}
	if len(second.Placements) != len(first.Placements) || second.Placements[0].Rect != first.Placements[0].Rect {
		t.Errorf("cached placements = %+v, want %+v", second.Placements, first.Placements)
	}

	if _, hit, _ := r.PlanWithCacheInfo(ctx, g, plants, Options{Policy: "rich"}); hit {
		t.Error("a different policy should miss the cache")
	}
	if _, hit, _ := r.PlanWithCacheInfo(ctx, g, plants, Options{Refresh: true}); hit {
		t.Error("Refresh should bypass the cache")
	}

	if hooks.plans != 4 {
		t.Errorf("OnPlanComplete called %d times, want 4", hooks.plans)
	}
	if hooks.hits != 1 || hooks.misses != 2 {
		t.Errorf("hits=%d misses=%d, want 1 and 2", hooks.hits, hooks.misses)
	}
}

func TestDecomposeCaching(t *testing.T) {
	mc := newMemCache()
	r := quietRunner(mc)
	ctx := context.Background()
	g := garden.New("yard", garden.MustBed(1, 4, garden.LightHigh,
		garden.WithCells([]string{"CUC", "CUC", "CUC", "CUC"})))
	lookup := garden.LookupFrom([]garden.PlantType{cucumber})

	regions, hit, err := r.DecomposeWithCacheInfo(ctx, g, lookup, Options{})
	if err != nil || hit {
		t.Fatalf("first decompose: hit=%v err=%v", hit, err)
	}
	if len(regions[0]) != 1 || len(regions[0][0].Instances) != 2 {
		t.Fatalf("regions = %+v, want one region of two pairs", regions)
	}

	again, hit, err := r.DecomposeWithCacheInfo(ctx, g, lookup, Options{})
	if err != nil || !hit {
		t.Fatalf("second decompose: hit=%v err=%v", hit, err)
	}
	if len(again[0][0].Instances) != 2 {
		t.Errorf("cached regions = %+v", again)
	}

	big := cucumber
	big.CellsPerSpecimen = 4
	if _, hit, _ := r.DecomposeWithCacheInfo(ctx, g, garden.LookupFrom([]garden.PlantType{big}), Options{}); hit {
		t.Error("a different specimen size should miss the cache")
	}
}

func TestPlanErrors(t *testing.T) {
	r := quietRunner(nil)
	ctx := context.Background()
	if _, err := r.Plan(ctx, nil, nil, Options{}); err == nil {
		t.Error("nil garden should fail")
	}
	g := garden.New("yard", garden.MustBed(1, 1, garden.LightHigh))
	if _, err := r.Plan(ctx, g, []garden.PlantType{tomato}, Options{Policy: "fancy"}); err == nil {
		t.Error("unknown policy should fail")
	}
	if _, err := r.Execute(ctx, g, []garden.PlantType{{ID: ""}}, Options{}); err == nil {
		t.Error("invalid plant should fail")
	}
}

func TestExecuteRejectsUnknownPlantedCell(t *testing.T) {
	g := garden.New("yard", garden.MustBed(2, 2, garden.LightHigh,
		garden.WithCells([]string{"ZZZ", "", "", ""})))
	opts := Options{Catalog: garden.LookupFrom([]garden.PlantType{cucumber})}

	_, err := quietRunner(nil).Execute(context.Background(), g, []garden.PlantType{tomato}, opts)
	if !errors.Is(err, errors.ErrCodeUnknownPlant) {
		t.Fatalf("Execute() error = %v, want %s", err, errors.ErrCodeUnknownPlant)
	}

	if _, _, err := quietRunner(nil).DecomposeWithCacheInfo(context.Background(), g, garden.LookupFrom([]garden.PlantType{tomato}), Options{}); !errors.Is(err, errors.ErrCodeUnknownPlant) {
		t.Errorf("DecomposeWithCacheInfo() error = %v, want %s", err, errors.ErrCodeUnknownPlant)
	}
}

func TestExecuteDecomposesExistingSprawlers(t *testing.T) {
	g := garden.New("yard", garden.MustBed(2, 4, garden.LightHigh,
		garden.WithCells([]string{"CUC", "CUC", "", "", "CUC", "CUC", "", ""})))
	opts := Options{Catalog: garden.LookupFrom([]garden.PlantType{tomato, cucumber})}

	res, err := quietRunner(nil).Execute(context.Background(), g, []garden.PlantType{tomato}, opts)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Stats.Regions != 1 || len(res.Regions[0]) != 1 {
		t.Fatalf("regions = %+v, want one cucumber region", res.Regions)
	}
	if reg := res.Regions[0][0]; reg.PlantID != "CUC" || len(reg.Instances) != 2 || reg.Incomplete {
		t.Errorf("region = %+v, want two complete pairs", reg)
	}
}
