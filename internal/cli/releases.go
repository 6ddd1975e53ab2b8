package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/releasehub/internal/app"
	"github.com/matzehuels/releasehub/pkg/feed"
	"github.com/matzehuels/releasehub/pkg/merge"
)

type releasesOpts struct {
	limit  int
	asJSON bool
}

// releasesCommand creates the releases command showing a merged history.
func (c *CLI) releasesCommand() *cobra.Command {
	var opts releasesOpts

	cmd := &cobra.Command{
		Use:   "releases <package|all>",
		Short: "Show the merged release history of a package",
		Long: `Releases merges the releases of every repository that published the package,
newest first. "all" shows the latest releases across every package.`,
		Example: `  releasehub releases @sveltejs/kit
  releasehub releases svelte --limit 5
  releasehub releases all --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.newApp(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer a.Close()
			return c.runReleases(cmd.Context(), os.Stdout, a, args[0], opts)
		},
	}

	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 10, "maximum number of releases to show (0 for all)")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print JSON")

	return cmd
}

func (c *CLI) runReleases(ctx context.Context, w io.Writer, a *app.App, name string, opts releasesOpts) error {
	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Merging releases of %s...", name))
	spinner.Start()
	found, err := a.Discoverer.GetOrDiscover(ctx)
	if err != nil {
		spinner.Stop()
		return err
	}

	var (
		releases []merge.Release
		result   *merge.PackageReleases
	)
	if name == feed.AllPackages {
		releases, err = a.Merge.AllPackagesReleases(ctx, found)
	} else if result, err = a.Merge.PackageReleases(ctx, name, found); err == nil {
		releases = result.Releases
	}
	spinner.Stop()
	if err != nil {
		return err
	}

	if opts.limit > 0 && len(releases) > opts.limit {
		releases = releases[:opts.limit]
	}

	if opts.asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if result != nil {
			out := *result
			out.Releases = releases
			return enc.Encode(out)
		}
		return enc.Encode(releases)
	}

	if result != nil {
		fmt.Fprintln(w, StyleTitle.Render(result.ReleasesRepo.Package.Name)+" "+StyleDim.Render(iconArrow+" "+result.ReleasesRepo.Repository.FullName()))
		if desc := result.ReleasesRepo.Package.Description; desc != "" {
			fmt.Fprintln(w, StyleDim.Render(desc))
		}
		if result.ReleasesRepo.Package.Deprecated {
			fmt.Fprintln(w, styleDeprecated.Render("deprecated "+result.ReleasesRepo.Package.DeprecationMessage))
		}
		fmt.Fprintln(w)
	}
	printReleaseList(w, releases, time.Now())
	if result != nil {
		for _, repo := range result.Unavailable {
			printWarning("releases of %s are unavailable", repo)
		}
	}
	return nil
}

// printReleaseList prints one line per release followed by its link.
func printReleaseList(w io.Writer, releases []merge.Release, now time.Time) {
	for _, r := range releases {
		line := StyleHighlight.Render(r.CleanName+"@"+r.CleanVersion) + "  " + StyleDim.Render(formatRelativeTime(r.Timestamp(), now))
		if r.Prerelease {
			line += "  " + stylePrerelease.Render("prerelease")
		}
		fmt.Fprintln(w, line)
		if r.HTMLURL != "" {
			fmt.Fprintln(w, "  "+StyleDim.Render(iconArrow)+" "+StyleLink.Render(r.HTMLURL))
		}
	}
	fmt.Fprintln(w, joinStats(plural(len(releases), "release")))
}
