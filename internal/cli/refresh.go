package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/releasehub/internal/refresh"
)

// refreshCommand creates the refresh command.
func (c *CLI) refreshCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Re-fetch the releases of every registered repository",
		Long: `Refresh re-fetches the releases of every registered repository, overwrites
the cached copies and updates the discovered packages. It performs the same
work as the cron endpoint.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := c.newApp(ctx, false)
			if err != nil {
				return err
			}
			defer a.Close()

			ref := refresh.New(a.Registry, a.Source, a.Discoverer,
				refresh.WithLogger(c.Logger),
				refresh.WithConcurrency(a.Config.Server.Concurrency),
			)
			spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Refreshing %s...", plural(a.Registry.Len(), "repository")))
			spinner.Start()
			report, err := ref.RefreshAll(ctx)
			spinner.Stop()
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}
			printReport(report)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the run report as JSON")

	return cmd
}

func printReport(r *refresh.Report) {
	printSuccess("Refreshed %s", plural(len(r.Refreshed), "repository"))
	printKeyValue("Run", r.RunID)
	printKeyValue("Duration", r.Duration.Round(time.Millisecond).String())

	failed := make([]string, 0, len(r.Failed))
	for repo := range r.Failed {
		failed = append(failed, repo)
	}
	sort.Strings(failed)
	for _, repo := range failed {
		printError("%s: %s", repo, r.Failed[repo])
	}
}
