package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/bedplan/pkg/errors"
	"github.com/matzehuels/bedplan/pkg/garden"
	gardenio "github.com/matzehuels/bedplan/pkg/io"
	"github.com/matzehuels/bedplan/pkg/store"
)

// gardenCommand creates the stored garden command.
func (c *CLI) gardenCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "garden",
		Aliases: []string{"gardens"},
		Short:   "Manage stored gardens",
		Long: `Manage stored gardens.

Gardens live in the configured store (a directory of JSON files, or
MongoDB). Commands that take REF accept a full id, a unique id prefix or
a garden name.`,
	}

	cmd.AddCommand(c.gardenNewCommand())
	cmd.AddCommand(c.gardenListCommand())
	cmd.AddCommand(c.gardenShowCommand())
	cmd.AddCommand(c.gardenDeleteCommand())
	cmd.AddCommand(c.gardenImportCommand())
	cmd.AddCommand(c.gardenExportCommand())

	return cmd
}

// withStore opens the configured store for the duration of fn.
func (c *CLI) withStore(ctx context.Context, fn func(store.Store) error) error {
	st, err := c.newStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()
	return fn(st)
}

// gardenNewCommand creates the "garden new" subcommand.
func (c *CLI) gardenNewCommand() *cobra.Command {
	var (
		beds []string
		zone string
	)

	cmd := &cobra.Command{
		Use:   "new NAME",
		Short: "Create an empty garden",
		Example: `  bedplan garden new backyard --bed 4x8:high:north --bed 3x3:medium
  bedplan garden new balcony --bed 2x6:low --zone 7b`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(beds) == 0 {
				return errors.New(errors.ErrCodeInvalidInput, "at least one --bed is required")
			}
			g := garden.New(args[0]).WithZone(zone)
			for _, spec := range beds {
				b, err := parseBedSpec(spec)
				if err != nil {
					return err
				}
				g = g.AddBed(b)
			}
			return c.withStore(cmd.Context(), func(st store.Store) error {
				rec, err := st.Create(cmd.Context(), gardenio.FromGarden(g))
				if err != nil {
					return err
				}
				printSuccess("Created %s", rec.Name())
				printDetail("id %s", rec.ID)
				printNextStep("Plan it", "bedplan plan --stored "+rec.Name()+" --pick --save")
				return nil
			})
		},
	}
	cmd.Flags().StringArrayVar(&beds, "bed", nil, "bed as ROWSxCOLS:LIGHT[:NAME] (repeatable)")
	cmd.Flags().StringVar(&zone, "zone", "", "hardiness zone")

	return cmd
}

// parseBedSpec parses ROWSxCOLS:LIGHT[:NAME].
func parseBedSpec(spec string) (*garden.Bed, error) {
	parts := strings.SplitN(spec, ":", 3)
	if len(parts) < 2 {
		return nil, errors.New(errors.ErrCodeInvalidBed, "invalid bed %q (want ROWSxCOLS:LIGHT[:NAME])", spec)
	}
	r, cl, ok := strings.Cut(strings.ToLower(parts[0]), "x")
	rows, err1 := strconv.Atoi(r)
	cols, err2 := strconv.Atoi(cl)
	if !ok || err1 != nil || err2 != nil {
		return nil, errors.New(errors.ErrCodeInvalidBed, "invalid bed size %q (want ROWSxCOLS)", parts[0])
	}
	light, err := garden.ParseLight(parts[1])
	if err != nil {
		return nil, err
	}
	var opts []garden.BedOption
	if len(parts) == 3 {
		opts = append(opts, garden.WithName(parts[2]))
	}
	return garden.NewBed(rows, cols, light, opts...)
}

// gardenListCommand creates the "garden list" subcommand.
func (c *CLI) gardenListCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List stored gardens",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd.Context(), func(st store.Store) error {
				recs, err := st.List(cmd.Context())
				if err != nil {
					return err
				}
				if len(recs) == 0 {
					printInfo("No gardens")
					printNextStep("Create one", "bedplan garden new NAME --bed 4x8:high")
					return nil
				}
				fmt.Fprintln(out, gardenTable(recs))
				return nil
			})
		},
	}
}

// gardenTable lists stored gardens, most recently updated first.
func gardenTable(recs []*store.Record) string {
	t := newTable("ID", "Name", "Beds", "Planted", "Updated")
	for _, r := range recs {
		cells, planted := 0, 0
		for _, b := range r.Garden.Beds {
			n := b.Rows * b.Cols
			cells += n
			for _, c := range b.Cells {
				if c != nil && *c != "" {
					planted++
				}
			}
		}
		t.Row(shortID(r.ID), r.Name(), strconv.Itoa(len(r.Garden.Beds)),
			fmt.Sprintf("%d/%d", planted, cells), r.UpdatedAt.Local().Format(time.DateTime))
	}
	return t.Render()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// gardenShowCommand creates the "garden show" subcommand.
func (c *CLI) gardenShowCommand() *cobra.Command {
	var catFile string

	cmd := &cobra.Command{
		Use:   "show REF",
		Short: "Draw a stored garden",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := c.loadCatalog(catFile)
			if err != nil {
				return err
			}
			return c.withStore(cmd.Context(), func(st store.Store) error {
				rec, err := store.Resolve(cmd.Context(), st, args[0])
				if err != nil {
					return err
				}
				g, err := rec.Garden.Garden()
				if err != nil {
					return err
				}
				printKeyValue("ID", rec.ID)
				if g.Zone() != "" {
					printKeyValue("Zone", g.Zone())
				}
				printKeyValue("Cells", fmt.Sprintf("%d (%d empty)", g.TotalCells(), g.EmptyCells()))
				printKeyValue("Updated", rec.UpdatedAt.Local().Format(time.DateTime))
				printNewline()
				fmt.Fprintln(out, renderGarden(g, cat.Lookup()))
				for _, n := range g.Notes() {
					printDetail("bed %d cell %d: %s", n.Bed, n.Cell, n.Text)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&catFile, "catalog", "", "plant catalogue file (YAML)")

	return cmd
}

// gardenDeleteCommand creates the "garden delete" subcommand.
func (c *CLI) gardenDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "delete REF",
		Aliases: []string{"rm"},
		Short:   "Delete a stored garden",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd.Context(), func(st store.Store) error {
				rec, err := store.Resolve(cmd.Context(), st, args[0])
				if err != nil {
					return err
				}
				if err := st.Delete(cmd.Context(), rec.ID); err != nil {
					return err
				}
				printSuccess("Deleted %s", rec.Name())
				return nil
			})
		},
	}
}

// gardenImportCommand creates the "garden import" subcommand.
func (c *CLI) gardenImportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Store a garden from a JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := gardenio.ImportJSON(args[0])
			if err != nil {
				return err
			}
			return c.withStore(cmd.Context(), func(st store.Store) error {
				rec, err := st.Create(cmd.Context(), gardenio.FromGarden(g))
				if err != nil {
					return err
				}
				printSuccess("Imported %s", rec.Name())
				printDetail("id %s", rec.ID)
				return nil
			})
		},
	}
}

// gardenExportCommand creates the "garden export" subcommand.
func (c *CLI) gardenExportCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export REF",
		Short: "Write a stored garden as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd.Context(), func(st store.Store) error {
				rec, err := store.Resolve(cmd.Context(), st, args[0])
				if err != nil {
					return err
				}
				g, err := rec.Garden.Garden()
				if err != nil {
					return err
				}
				if output == "" {
					return gardenio.WriteJSON(g, out)
				}
				if err := gardenio.ExportJSON(g, output); err != nil {
					return err
				}
				printSuccess("Exported %s", rec.Name())
				printFile(output)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")

	return cmd
}
