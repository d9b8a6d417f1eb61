package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/pagecraft/internal/metrics"
	"github.com/matzehuels/pagecraft/internal/server"
	"github.com/matzehuels/pagecraft/pkg/config"
	"github.com/matzehuels/pagecraft/pkg/session"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr  string
		watch bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve page editing and export over HTTP",
		Long: `Serve page editing and export over HTTP.

Each client works on its own session. Sessions live in memory and expire
after server.session_ttl of inactivity. Prometheus metrics are served on
/metrics.

With --watch the catalog file is reloaded whenever it changes; sessions
pick up the new components on their next request.`,
		Example: `  pagecraft serve --addr :9000 --watch`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.Server.Addr
			}

			catalog, err := config.NewCatalogHolder(cfg.Catalog, logger)
			if err != nil {
				return err
			}
			if watch {
				if err := catalog.Watch(); err != nil {
					return err
				}
			}
			defer catalog.Stop()

			dir, err := cacheDir()
			if err != nil {
				return err
			}
			runner, err := cfg.Runner(ctx, dir, logger)
			if err != nil {
				return err
			}
			defer runner.Close()

			collector := metrics.New()
			collector.Install()

			srv, err := server.New(server.Options{
				Config:   cfg,
				Runner:   runner,
				Catalog:  catalog,
				Sessions: session.NewMemoryStore(),
				Metrics:  collector,
				Logger:   logger,
			})
			if err != nil {
				return err
			}

			printSuccess("Listening on %s", StyleHighlight.Render(addr))
			printDetail("catalog: %d components", catalog.Get().Len())
			return srv.ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default: server.addr from config)")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "reload the catalog file on change")
	return cmd
}
