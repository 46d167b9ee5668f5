package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/bedplan/pkg/config"
)

// configure loads the layered configuration and attaches the logger to the
// command context. It runs before every subcommand.
func (c *CLI) configure(cmd *cobra.Command, args []string) error {
	cfg, err := config.NewLoader(c.Logger).Load(c.configPath)
	if err != nil {
		return err
	}
	c.cfg = cfg
	cmd.SetContext(withLogger(cmd.Context(), c.Logger))
	return nil
}
