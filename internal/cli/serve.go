package cli

import (
	"context"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/matzehuels/bedplan/pkg/catalog"
	bpmetrics "github.com/matzehuels/bedplan/pkg/observability/prometheus"
	"github.com/matzehuels/bedplan/pkg/pipeline"
	"github.com/matzehuels/bedplan/pkg/server"
	"github.com/matzehuels/bedplan/pkg/store"
)

// serveCommand creates the HTTP API command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr       string
		catFile    string
		watch      bool
		policy     string
		prioritize bool
		noMetrics  bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the planning API over HTTP",
		Long: `Serve the planning API over HTTP.

Endpoints:
  GET    /health                     liveness
  GET    /metrics                    Prometheus metrics
  GET    /api/catalog                plant catalogue
  POST   /api/plan                   plan a garden
  POST   /api/decompose              split sprawling regions
  GET    /api/gardens                list stored gardens
  POST   /api/gardens                store a garden
  GET    /api/gardens/{id}           fetch a stored garden
  PUT    /api/gardens/{id}           replace a stored garden
  DELETE /api/gardens/{id}           delete a stored garden
  POST   /api/gardens/{id}/plan      plan a stored garden`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := c.config()
			if !cmd.Flags().Changed("addr") {
				addr = cfg.Server.Addr
			}
			if !cmd.Flags().Changed("watch") {
				watch = cfg.Server.Watch
			}
			if catFile == "" {
				catFile = cfg.Planner.Catalog
			}

			cat, err := c.loadCatalog(catFile)
			if err != nil {
				return err
			}
			runner, err := c.newRunner(ctx, false)
			if err != nil {
				return err
			}
			defer runner.Close()

			var st store.Store
			if s, err := c.newStore(ctx); err != nil {
				c.Logger.Warn("garden store unavailable, /api/gardens disabled", "error", err)
			} else {
				st = s
				defer st.Close()
			}

			deps := server.Deps{
				Runner:   runner,
				Store:    st,
				Catalog:  cat,
				Logger:   c.Logger,
				Defaults: c.pipelineOptions(cmd, policy, prioritize),
			}
			if !noMetrics {
				deps.Metrics = metricsHandler()
			}
			srv := server.New(deps)

			if watch {
				if catFile == "" {
					c.Logger.Warn("--watch needs a catalogue file, using built-in catalogue")
				} else {
					w := &catalog.Watcher{Path: catFile, Logger: c.Logger, OnChange: srv.SetCatalog}
					go func() {
						if err := w.Watch(ctx); err != nil {
							c.Logger.Error("catalogue watcher stopped", "error", err)
						}
					}()
				}
			}

			err = srv.ListenAndServe(ctx, addr)
			if errors.Is(err, http.ErrServerClosed) || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&catFile, "catalog", "", "plant catalogue file (YAML)")
	cmd.Flags().BoolVar(&watch, "watch", false, "reload the catalogue file when it changes")
	cmd.Flags().StringVar(&policy, "policy", pipeline.DefaultPolicy, "default policy preset: simple, rich")
	cmd.Flags().BoolVar(&prioritize, "prioritize-light", true, "rank beds by light match by default")
	cmd.Flags().BoolVar(&noMetrics, "no-metrics", false, "disable the /metrics endpoint")

	return cmd
}

// metricsHandler registers the bedplan hooks and runtime collectors on a
// fresh registry and returns its exposition handler.
func metricsHandler() http.Handler {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	bpmetrics.New(reg).Register()
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}
