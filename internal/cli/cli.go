package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/releasehub/internal/app"
	"github.com/matzehuels/releasehub/internal/config"
	"github.com/matzehuels/releasehub/pkg/buildinfo"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = app.AppName

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
	flags  globalFlags
}

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	configPath string
	dev        bool
	cache      string
	noCache    bool
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
		Short:        "Releasehub aggregates release notes across repositories",
		Long:         `Releasehub collects the GitHub releases and changelogs of a family of repositories, merges them per package and serves them as JSON and feeds.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	pf := root.PersistentFlags()
	pf.StringVarP(&c.flags.configPath, "config", "c", "", "path to a TOML config file")
	pf.BoolVar(&c.flags.dev, "dev", false, "development mode: in-process cache only, any repository allowed")
	pf.StringVar(&c.flags.cache, "cache", "", "cache backend (redis, mongo, file, memory, null)")
	pf.BoolVar(&c.flags.noCache, "no-cache", false, "do not persist fetched data")

	root.AddCommand(c.serveCommand())
	root.AddCommand(c.discoverCommand())
	root.AddCommand(c.releasesCommand())
	root.AddCommand(c.browseCommand())
	root.AddCommand(c.trackerCommand())
	root.AddCommand(c.refreshCommand())
	root.AddCommand(c.changelogCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Config & App Factory
// =============================================================================

// loadConfig resolves the configuration and applies the global flags.
// Commands other than serve default to the file cache when neither a config
// file nor RELEASEHUB_CACHE selects a backend.
func (c *CLI) loadConfig(server bool) (*config.Config, error) {
	cfg, err := config.Load(c.flags.configPath)
	if err != nil {
		return nil, err
	}
	if _, set := os.LookupEnv("RELEASEHUB_CACHE"); !server && !set && c.flags.configPath == "" {
		cfg.Cache.Backend = config.BackendFile
	}
	if c.flags.cache != "" {
		cfg.Cache.Backend = c.flags.cache
	}
	if c.flags.noCache {
		cfg.Cache.Backend = config.BackendNull
	}
	if c.flags.dev {
		cfg.Server.Dev = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// newApp wires the services for a command.
func (c *CLI) newApp(ctx context.Context, server bool) (*app.App, error) {
	cfg, err := c.loadConfig(server)
	if err != nil {
		return nil, err
	}
	return app.New(ctx, cfg, c.Logger)
}
