package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/bedplan/pkg/errors"
	"github.com/matzehuels/bedplan/pkg/pipeline"
	"github.com/matzehuels/bedplan/pkg/server"
)

// decomposeCommand creates the decompose command.
func (c *CLI) decomposeCommand() *cobra.Command {
	var (
		stored  string
		catFile string
		noCache bool
		refresh bool
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "decompose [garden.json]",
		Short: "Split sprawling plant regions into individual specimens",
		Long: `Split the regions of sprawling plants into individual specimens.

A sprawling plant needs several cells per specimen. Each connected region
it occupies is tiled with compact specimen shapes; cells that no shape can
claim are reported as unclaimed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if (len(args) == 1) == (stored != "") {
				return errors.New(errors.ErrCodeInvalidInput, "give either a garden file or --stored")
			}
			ctx := cmd.Context()
			path := ""
			if len(args) == 1 {
				path = args[0]
			}

			cat, err := c.loadCatalog(catFile)
			if err != nil {
				return err
			}
			g, _, st, err := c.openGarden(ctx, path, stored)
			if err != nil {
				return err
			}
			if st != nil {
				defer st.Close()
			}

			runner, err := c.newRunner(ctx, noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			regions, hit, err := runner.DecomposeWithCacheInfo(ctx, g, cat.Lookup(), pipeline.Options{Refresh: refresh, Logger: c.Logger})
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(server.DecomposeResponse{Regions: regions, Cached: hit})
			}

			total, incomplete := 0, 0
			for _, beds := range regions {
				for _, r := range beds {
					total++
					if r.Incomplete {
						incomplete++
					}
				}
			}
			if total == 0 {
				printInfo("No sprawling plants in %s", g.Name())
				return nil
			}
			fmt.Fprintln(out, regionTable(regions))
			printSuccess("%d regions decomposed", total)
			if incomplete > 0 {
				printWarning("%d regions left cells unclaimed", incomplete)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&stored, "stored", "", "decompose a stored garden (id, id prefix or name)")
	cmd.Flags().StringVar(&catFile, "catalog", "", "plant catalogue file (YAML)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the cache")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "recompute even when a cached result exists")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the regions as JSON")

	return cmd
}
