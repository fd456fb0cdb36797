package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/synopackage/internal/api"
	"github.com/matzehuels/synopackage/pkg/observability"
)

// serveCommand creates the "serve" command running the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the package API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}

			counters := observability.NewCounters()
			observability.SetSourceHooks(counters)
			observability.SetCacheHooks(counters)
			observability.SetIconHooks(counters)
			defer observability.Reset()

			a, err := newApp(cmd.Context(), cfg, c.Logger)
			if err != nil {
				return err
			}
			defer a.Close()

			catalogLoc, iconLoc := storeLocations(cfg)
			c.Logger.Info("starting",
				"addr", cfg.Server.Addr,
				"backend", cfg.Cache.Backend,
				"catalogs", catalogLoc,
				"icons", iconLoc,
				"sources", len(a.registry.ActiveSources()),
			)

			srv := api.NewServer(cfg.Server.Addr, api.Options{
				Service:  a.service,
				Icons:    a.icons,
				Registry: a.registry,
				Counters: counters.Snapshot,
				Breakers: a.fetcher.BreakerStates,
				Logger:   c.Logger,
			})
			return srv.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")

	return cmd
}
