package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/synopackage/pkg/config"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the catalog and icon caches",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	var catalogsOnly, iconsOnly bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove cached catalogs and icons",
		RunE: func(cmd *cobra.Command, args []string) error {
			if catalogsOnly && iconsOnly {
				return fmt.Errorf("--catalogs and --icons are mutually exclusive")
			}
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			catalogStore, iconStore, err := openStores(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closeStores(catalogStore, iconStore)

			catalogLoc, iconLoc := storeLocations(cfg)
			if !iconsOnly {
				n, err := catalogStore.Clear(cmd.Context())
				if err != nil {
					return fmt.Errorf("clear catalogs: %w", err)
				}
				printSuccess("Cleared %d cached catalogs", n)
				printDetail("Location: %s", catalogLoc)
			}
			if !catalogsOnly {
				n, err := iconStore.Clear(cmd.Context())
				if err != nil {
					return fmt.Errorf("clear icons: %w", err)
				}
				printSuccess("Cleared %d cached icons", n)
				printDetail("Location: %s", iconLoc)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&catalogsOnly, "catalogs", false, "clear only catalogs")
	cmd.Flags().BoolVar(&iconsOnly, "icons", false, "clear only icons")

	return cmd
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print where catalogs and icons are stored",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			catalogLoc, iconLoc := storeLocations(cfg)
			fmt.Fprintf(cmd.OutOrStdout(), "catalogs\t%s\nicons\t%s\n", catalogLoc, iconLoc)
			if cfg.Cache.Backend == config.BackendFile && !dirExists(cfg.Cache.BackendDir) {
				c.Logger.Debug("catalog cache directory does not exist yet", "dir", cfg.Cache.BackendDir)
			}
			return nil
		},
	}
}
