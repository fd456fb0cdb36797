package cli

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/synopackage/pkg/buildinfo"
	"github.com/matzehuels/synopackage/pkg/config"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for display.
	appName = "synopackage"

	// configEnv names the environment variable holding the config path.
	configEnv = "SYNOPACKAGE_CONFIG"
)

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
		Use:          appName,
		Short:        "Synopackage aggregates Synology package sources",
		Long:         `Synopackage queries third-party Synology package sources, caches their catalogs and icons, and serves filtered, sorted package lists.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $"+configEnv+", else built-in defaults)")

	root.AddCommand(c.serveCommand())
	root.AddCommand(c.packagesCommand())
	root.AddCommand(c.searchCommand())
	root.AddCommand(c.browseCommand())
	root.AddCommand(c.sourcesCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Config
// =============================================================================

// resolveConfigPath picks the --config flag, then $SYNOPACKAGE_CONFIG.
// An empty result selects the built-in defaults.
func (c *CLI) resolveConfigPath() string {
	if c.configPath != "" {
		return c.configPath
	}
	return os.Getenv(configEnv)
}

// loadConfig loads the configuration selected by resolveConfigPath.
func (c *CLI) loadConfig() (*config.Config, error) {
	path := c.resolveConfigPath()
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if path != "" {
		c.Logger.Debug("loaded config", "path", path)
	}
	return cfg, nil
}
