package cli

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/releasehub/internal/refresh"
	"github.com/matzehuels/releasehub/internal/server"
)

type serveOpts struct {
	addr     string
	interval time.Duration
}

// serveCommand creates the serve command running the HTTP service.
func (c *CLI) serveCommand() *cobra.Command {
	var opts serveOpts

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Serve the JSON API, the GitHub and replicator webhooks, the RSS and JSON feeds
and the cron endpoint.

When --refresh is set, every registered repository is re-fetched on that
interval in the background.`,
		Example: `  releasehub serve
  releasehub serve --addr :3000 --refresh 30m
  releasehub serve --dev`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), opts, cmd.Flags().Changed("addr"), cmd.Flags().Changed("refresh"))
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", ":8080", "listen address")
	cmd.Flags().DurationVar(&opts.interval, "refresh", 0, "background refresh interval (0 uses the config value)")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, opts serveOpts, addrSet, intervalSet bool) error {
	a, err := c.newApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()

	addr := a.Config.Server.Addr
	if addrSet || addr == "" {
		addr = opts.addr
	}
	interval := a.Config.Server.RefreshInterval.Duration
	if intervalSet {
		interval = opts.interval
	}

	ref := refresh.New(a.Registry, a.Source, a.Discoverer,
		refresh.WithLogger(c.Logger),
		refresh.WithConcurrency(a.Config.Server.Concurrency),
	)
	if interval > 0 {
		go ref.Run(ctx, interval)
		c.Logger.Info("background refresh enabled", "interval", interval)
	}

	c.Logger.Info("listening", "addr", addr, "mode", a.Cache.Mode().String(), "repositories", a.Registry.Len())
	err = server.New(a, ref).ListenAndServe(ctx, addr)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
