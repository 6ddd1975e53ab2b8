package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/releasehub/pkg/discovery"
)

// discoverCommand creates the discover command listing known packages.
func (c *CLI) discoverCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "discover",
		Short: "List the packages published by the registered repositories",
		Long: `Discover derives the package names of every registered repository from its
release tags and groups them by category.`,
		Example: `  releasehub discover
  releasehub discover --json | jq '.[].category.name'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runDiscover(cmd.Context(), os.Stdout, asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")

	return cmd
}

func (c *CLI) runDiscover(ctx context.Context, w io.Writer, asJSON bool) error {
	a, err := c.newApp(ctx, false)
	if err != nil {
		return err
	}
	defer a.Close()

	prog := newProgress(c.Logger)
	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Discovering packages of %s...", plural(a.Registry.Len(), "repository")))
	spinner.Start()
	categories, err := a.Discoverer.GetOrDiscoverCategorized(ctx)
	spinner.Stop()
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(categories)
	}

	total := 0
	for _, cat := range categories {
		total += len(cat.Packages)
		fmt.Fprintln(w, StyleTitle.Render(cat.Category.Name))
		fmt.Fprintln(w, renderPackageTable(cat.Packages))
	}
	prog.done(fmt.Sprintf("Discovered %s", plural(total, "package")))
	return nil
}

// renderPackageTable renders one category as a table.
func renderPackageTable(entries []discovery.CategorizedEntry) string {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		desc := e.Package.Description
		if e.Package.Deprecated {
			desc = "deprecated"
			if e.Package.DeprecationMessage != "" {
				desc += ": " + e.Package.DeprecationMessage
			}
		}
		rows = append(rows, []string{e.Package.Name, e.Repository.FullName(), truncate(desc, 60)})
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Package", "Repository", "Description").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return styleHeader
			}
			if row >= 0 && row < len(entries) && entries[row].Package.Deprecated {
				return styleDeprecated
			}
			if col == 1 {
				return StyleDim
			}
			return lipgloss.NewStyle()
		}).
		Render()
}
