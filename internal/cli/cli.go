// Package cli implements the bedplan command-line interface.
package cli

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/bedplan/pkg/buildinfo"
	"github.com/matzehuels/bedplan/pkg/cache"
	"github.com/matzehuels/bedplan/pkg/catalog"
	"github.com/matzehuels/bedplan/pkg/config"
	"github.com/matzehuels/bedplan/pkg/pipeline"
	"github.com/matzehuels/bedplan/pkg/store"
	"github.com/matzehuels/bedplan/pkg/store/mongo"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = config.AppName

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	cfg        *config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "bedplan lays out raised garden beds",
		Long: `bedplan allocates plants to the cells of raised garden beds. It sizes a
share of space per plant, places each plant as one compact rectangle on
the bed whose light suits it best, fills leftover gaps and splits
sprawling plants into individual specimens.`,
		Version:           buildinfo.Version,
		SilenceUsage:      true,
		PersistentPreRunE: c.configure,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (overrides user and project config)")

	root.AddCommand(c.planCommand())
	root.AddCommand(c.decomposeCommand())
	root.AddCommand(c.catalogCommand())
	root.AddCommand(c.gardenCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// config returns the loaded configuration, or the defaults before loading.
func (c *CLI) config() *config.Config {
	if c.cfg == nil {
		c.cfg = config.Default()
	}
	return c.cfg
}

// =============================================================================
// Factories
// =============================================================================

// newRunner creates a pipeline runner backed by the configured cache.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	ch, err := c.newCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	// Plans from one engine version are never served to another.
	keyer := cache.NewScopedKeyer(cache.NewDefaultKeyer(), buildinfo.Version+":")
	return pipeline.NewRunner(ch, keyer, c.Logger), nil
}

func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	cfg := c.config().Cache
	if noCache {
		return cache.NewNullCache(), nil
	}
	switch cfg.Backend {
	case config.BackendNone:
		return cache.NewNullCache(), nil
	case config.BackendRedis:
		return cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.Prefix + ":",
		})
	}
	fc, err := cache.NewFileCache(cfg.Dir)
	if err != nil {
		c.Logger.Warn("file cache unavailable, caching disabled", "dir", cfg.Dir, "error", err)
		return cache.NewNullCache(), nil
	}
	return fc, nil
}

// newStore opens the configured garden store.
func (c *CLI) newStore(ctx context.Context) (store.Store, error) {
	cfg := c.config().Store
	if cfg.Backend == config.BackendMongo {
		return mongo.Open(ctx, mongo.Config{
			URI:        cfg.MongoURI,
			Database:   cfg.MongoDatabase,
			Collection: cfg.MongoCollection,
		})
	}
	return store.NewFileStore(cfg.Dir)
}

// loadCatalog returns the catalogue at path, the configured catalogue, or
// the built-in one, in that order of preference.
func (c *CLI) loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		path = c.config().Planner.Catalog
	}
	if path == "" {
		return catalog.Default(), nil
	}
	return catalog.Load(path)
}

// pipelineOptions builds runner options from the config and flag overrides.
func (c *CLI) pipelineOptions(cmd *cobra.Command, policy string, prioritize bool) pipeline.Options {
	pc := c.config().Planner
	opts := pipeline.Options{
		Policy:          pc.Policy,
		Custom:          pc.Custom,
		PrioritizeLight: pc.PrioritizeLight,
		Logger:          c.Logger,
	}
	if cmd.Flags().Changed("policy") {
		opts.Policy = policy
		opts.Custom = nil
	}
	if cmd.Flags().Changed("prioritize-light") {
		opts.PrioritizeLight = prioritize
	}
	return opts
}
