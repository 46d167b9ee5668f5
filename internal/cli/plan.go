package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/bedplan/pkg/catalog"
	"github.com/matzehuels/bedplan/pkg/errors"
	"github.com/matzehuels/bedplan/pkg/garden"
	gardenio "github.com/matzehuels/bedplan/pkg/io"
	"github.com/matzehuels/bedplan/pkg/pipeline"
	"github.com/matzehuels/bedplan/pkg/server"
	"github.com/matzehuels/bedplan/pkg/store"
)

// planOpts holds the command-line flags for the plan command.
type planOpts struct {
	stored     string   // stored garden reference instead of a file
	save       bool     // write the planted garden back to the store
	plants     []string // catalogue IDs to plan
	catalog    string   // catalogue file
	policy     string   // policy preset
	prioritize bool     // rank beds by light match
	targets    []string // ID=N target overrides
	pick       bool     // choose plants interactively
	output     string   // planted garden JSON output path
	decompose  bool     // split sprawling plants into specimens
	noCache    bool     // bypass the plan cache entirely
	refresh    bool     // skip cache reads
	json       bool     // print the result as JSON
}

// planCommand creates the plan command.
func (c *CLI) planCommand() *cobra.Command {
	var opts planOpts

	cmd := &cobra.Command{
		Use:   "plan [garden.json]",
		Short: "Allocate plants to the empty cells of a garden",
		Long: `Allocate plants to the empty cells of a garden.

The garden is read from a JSON file or, with --stored, from the garden
store. Each plant gets one compact rectangle on the bed that suits its
light best; leftover cells are filled from their neighbours.`,
		Example: `  bedplan plan garden.json --plants TOM,BAS,LET
  bedplan plan --stored backyard --pick --save
  bedplan plan garden.json --policy rich --target TOM=6 -o planted.json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if (len(args) == 1) == (opts.stored != "") {
				return errors.New(errors.ErrCodeInvalidInput, "give either a garden file or --stored")
			}
			if opts.save && opts.stored == "" {
				return errors.New(errors.ErrCodeInvalidInput, "--save requires --stored")
			}
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			return c.runPlan(cmd, path, &opts)
		},
	}

	cmd.Flags().StringVar(&opts.stored, "stored", "", "plan a stored garden (id, id prefix or name)")
	cmd.Flags().BoolVar(&opts.save, "save", false, "save the planted garden back to the store")
	cmd.Flags().StringSliceVar(&opts.plants, "plants", nil, "plant IDs to plan (comma-separated, default: whole catalogue)")
	cmd.Flags().StringVar(&opts.catalog, "catalog", "", "plant catalogue file (YAML)")
	cmd.Flags().StringVar(&opts.policy, "policy", pipeline.DefaultPolicy, "policy preset: simple, rich")
	cmd.Flags().BoolVar(&opts.prioritize, "prioritize-light", true, "rank beds by light match before free space")
	cmd.Flags().StringSliceVar(&opts.targets, "target", nil, "target cell count override as ID=N (repeatable)")
	cmd.Flags().BoolVar(&opts.pick, "pick", false, "choose plants interactively")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write the planted garden to a JSON file")
	cmd.Flags().BoolVar(&opts.decompose, "decompose", false, "split sprawling plants into specimens")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the plan cache")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "recompute even when a cached plan exists")
	cmd.Flags().BoolVar(&opts.json, "json", false, "print the result as JSON")

	return cmd
}

func (c *CLI) runPlan(cmd *cobra.Command, path string, opts *planOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	cat, err := c.loadCatalog(opts.catalog)
	if err != nil {
		return err
	}
	plants, err := selectPlants(cat, opts.plants, opts.pick)
	if err != nil {
		return err
	}
	if plants == nil {
		printInfo("No plants selected")
		return nil
	}

	g, rec, st, err := c.openGarden(ctx, path, opts.stored)
	if err != nil {
		return err
	}
	if st != nil {
		defer st.Close()
	}

	popts := c.pipelineOptions(cmd, opts.policy, opts.prioritize)
	popts.Refresh = opts.refresh
	popts.Catalog = cat.Lookup()
	if popts.Targets, err = parseTargets(opts.targets); err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	var sp *Spinner
	if !opts.json {
		sp = newSpinnerWithContext(ctx, "Planning...")
		sp.Start()
	}
	result, cached, err := c.plan(ctx, runner, g, plants, popts, opts.decompose)
	if sp != nil {
		sp.Stop()
	}
	if err != nil {
		return err
	}

	planted := result.Plan.Garden
	if opts.save {
		if rec, err = st.Update(ctx, rec.ID, gardenio.FromGarden(planted)); err != nil {
			return err
		}
		logger.Debug("saved planted garden", "id", rec.ID)
	}
	if opts.output != "" {
		if err := gardenio.ExportJSON(planted, opts.output); err != nil {
			return err
		}
	}

	if opts.json {
		resp := server.PlanResponse{
			Garden:  gardenio.FromGarden(planted),
			Plan:    result.Plan,
			Regions: result.Regions,
			Cached:  cached,
		}
		if rec != nil {
			resp.ID = rec.ID
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}

	fmt.Fprintln(out, renderGarden(planted, cat.Lookup()))
	printNewline()
	fmt.Fprintln(out, placementTable(result.Plan))
	if opts.decompose && result.Stats.Regions > 0 {
		fmt.Fprintln(out, regionTable(result.Regions))
	}
	printPlanStats(result.Stats, cached)
	for _, id := range result.Plan.Unplaced {
		printWarning("%s did not fit", id)
	}
	if result.Stats.Incomplete > 0 {
		printWarning("%d specimen regions left cells unclaimed", result.Stats.Incomplete)
	}
	if opts.save {
		printSuccess("Saved %s", rec.Name())
	}
	if opts.output != "" {
		printSuccess("Wrote planted garden")
		printFile(opts.output)
	}
	return nil
}

// plan runs the planner, and the decomposer when decompose is set.
func (c *CLI) plan(ctx context.Context, runner *pipeline.Runner, g *garden.Garden, plants []garden.PlantType, popts pipeline.Options, decompose bool) (*pipeline.Result, bool, error) {
	if decompose {
		result, err := runner.Execute(ctx, g, plants, popts)
		if err != nil {
			return nil, false, err
		}
		return result, result.CacheInfo.PlanHit, nil
	}
	prog := newProgress(loggerFromContext(ctx))
	start := time.Now()
	plan, hit, err := runner.PlanWithCacheInfo(ctx, g, plants, popts)
	if err != nil {
		return nil, false, err
	}
	prog.done("planned garden", "plants", len(plants), "unplaced", len(plan.Unplaced), "cached", hit)
	return &pipeline.Result{Plan: plan, Stats: pipeline.Stats{
		Plants:   len(plants),
		Beds:     g.BedCount(),
		Placed:   len(plants) - len(plan.Unplaced),
		Unplaced: len(plan.Unplaced),
		PlanTime: time.Since(start),
	}}, hit, nil
}

// selectPlants resolves the plant list from IDs or the interactive picker.
// A nil result with no error means the picker was cancelled.
func selectPlants(cat *catalog.Catalog, ids []string, pick bool) ([]garden.PlantType, error) {
	if pick {
		return pickPlants(cat.Plants(), ids...)
	}
	if len(ids) == 0 {
		return cat.Plants(), nil
	}
	return cat.Select(ids...)
}

// openGarden reads a garden from path or from the store. The store is
// returned open when ref is used and must be closed by the caller.
func (c *CLI) openGarden(ctx context.Context, path, ref string) (*garden.Garden, *store.Record, store.Store, error) {
	if path != "" {
		g, err := gardenio.ImportJSON(path)
		return g, nil, nil, err
	}
	st, err := c.newStore(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	rec, err := store.Resolve(ctx, st, ref)
	if err != nil {
		st.Close()
		return nil, nil, nil, err
	}
	g, err := rec.Garden.Garden()
	if err != nil {
		st.Close()
		return nil, nil, nil, err
	}
	return g, rec, st, nil
}

// parseTargets parses ID=N target overrides.
func parseTargets(specs []string) (map[string]int, error) {
	if len(specs) == 0 {
		return nil, nil
	}
	out := make(map[string]int, len(specs))
	for _, s := range specs {
		id, n, ok := strings.Cut(s, "=")
		id = strings.TrimSpace(id)
		v, err := strconv.Atoi(strings.TrimSpace(n))
		if !ok || id == "" || err != nil || v < 0 {
			return nil, errors.New(errors.ErrCodeInvalidInput, "invalid target %q (want ID=N)", s)
		}
		out[id] = v
	}
	return out, nil
}
