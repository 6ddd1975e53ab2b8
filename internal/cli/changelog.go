package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/releasehub/pkg/changelog"
)

// changelogCommand creates the changelog command group.
func (c *CLI) changelogCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "changelog",
		Short: "Work with CHANGELOG.md files",
	}

	cmd.AddCommand(c.changelogParseCommand())

	return cmd
}

func (c *CLI) changelogParseCommand() *cobra.Command {
	var (
		version string
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "parse [file|-]",
		Short: "Parse a changelog into versions",
		Long: `Parse reads a Markdown changelog (CHANGELOG.md by default, "-" for stdin)
and prints its versions. With --version only the matching entry is printed.`,
		Example: `  releasehub changelog parse
  releasehub changelog parse packages/kit/CHANGELOG.md --version 2.5.0
  curl -s .../CHANGELOG.md | releasehub changelog parse - --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "CHANGELOG.md"
			if len(args) == 1 {
				path = args[0]
			}
			text, err := readInput(cmd.InOrStdin(), path)
			if err != nil {
				return err
			}
			return runChangelogParse(cmd.OutOrStdout(), changelog.Parse(text), version, asJSON)
		},
	}

	cmd.Flags().StringVar(&version, "version", "", "print only the entry of this version")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")

	return cmd
}

func readInput(stdin io.Reader, path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		return string(data), err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read changelog: %w", err)
	}
	return string(data), nil
}

func runChangelogParse(w io.Writer, cl *changelog.Changelog, version string, asJSON bool) error {
	var out any = cl
	if version != "" {
		entry, ok := cl.Find(version)
		if !ok {
			return fmt.Errorf("version %q not found in changelog", version)
		}
		out = entry
	}

	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	if version != "" {
		printEntry(w, out.(*changelog.Entry))
		return nil
	}
	if cl.Title != "" {
		fmt.Fprintln(w, StyleTitle.Render(cl.Title))
	}
	for i := range cl.Versions {
		e := &cl.Versions[i]
		line := StyleHighlight.Render(e.Title)
		if e.Date != nil {
			line += " " + StyleDim.Render(*e.Date)
		}
		fmt.Fprintf(w, "%s %s\n", line, StyleDim.Render(fmt.Sprintf("(%s)", plural(len(e.Parsed[changelog.AllItemsKey]), "item"))))
	}
	fmt.Fprintln(w, joinStats(plural(cl.VersionCount(), "version"), plural(len(cl.Versions), "entry")))
	return nil
}

func printEntry(w io.Writer, e *changelog.Entry) {
	fmt.Fprintln(w, StyleTitle.Render(e.Title))
	sections := make([]string, 0, len(e.Parsed))
	for name := range e.Parsed {
		if name != changelog.AllItemsKey {
			sections = append(sections, name)
		}
	}
	sort.Strings(sections)
	if len(sections) == 0 {
		fmt.Fprintln(w, e.Body)
		return
	}
	for _, name := range sections {
		fmt.Fprintln(w, StyleHighlight.Render(name))
		fmt.Fprintln(w, strings.Join(e.Parsed[name], "\n"))
	}
}
