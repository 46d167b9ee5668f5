package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/bedplan/pkg/garden"
)

// catalogCommand creates the plant catalogue command.
func (c *CLI) catalogCommand() *cobra.Command {
	var catFile string

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect the plant catalogue",
	}
	cmd.PersistentFlags().StringVar(&catFile, "catalog", "", "plant catalogue file (YAML)")

	cmd.AddCommand(c.catalogListCommand(&catFile))
	cmd.AddCommand(c.catalogExportCommand(&catFile))

	return cmd
}

// catalogListCommand creates the "catalog list" subcommand.
func (c *CLI) catalogListCommand(catFile *string) *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List plant types",
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := c.loadCatalog(*catFile)
			if err != nil {
				return err
			}
			plants := cat.Plants()
			if category != "" {
				cc, err := garden.ParseCategory(category)
				if err != nil {
					return err
				}
				plants = cat.ByCategory(cc)
			}
			if len(plants) == 0 {
				printInfo("No plants")
				return nil
			}
			fmt.Fprintln(out, catalogTable(plants))
			printDetail("%d plants", len(plants))
			return nil
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "only list plants of this category")

	return cmd
}

// catalogExportCommand creates the "catalog export" subcommand.
func (c *CLI) catalogExportCommand(catFile *string) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the catalogue as YAML",
		Long:  "Write the catalogue as YAML, for use as a starting point for a custom --catalog file.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := c.loadCatalog(*catFile)
			if err != nil {
				return err
			}
			if output == "" {
				return cat.Write(out)
			}
			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("create %s: %w", output, err)
			}
			if err := cat.Write(f); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			printSuccess("Exported %d plants", cat.Len())
			printFile(output)
			printNextStep("Use it", "bedplan plan garden.json --catalog "+output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")

	return cmd
}
