package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	apperrors "github.com/matzehuels/releasehub/pkg/errors"
	"github.com/matzehuels/releasehub/pkg/integrations/github"
	"github.com/matzehuels/releasehub/pkg/tracker"
)

// trackerCommand creates the tracker command.
func (c *CLI) trackerCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "tracker <owner/repo>",
		Short: "Show the open work of organization members in a repository",
		Long: `Tracker lists pull requests by organization members that do not close an
issue, issues filed by members, and member discussions from this year and the
last, each newest first.`,
		Example: `  releasehub tracker sveltejs/kit
  releasehub tracker https://github.com/sveltejs/svelte --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, repo, err := apperrors.ParseRepoRef(args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			a, err := c.newApp(ctx, false)
			if err != nil {
				return err
			}
			defer a.Close()

			spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Loading %s/%s...", owner, repo))
			spinner.Start()
			board, err := a.Tracker.Board(ctx, owner, repo)
			spinner.Stop()
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(board)
			}
			printBoard(os.Stdout, board, time.Now())
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")

	return cmd
}

func printBoard(w io.Writer, b *tracker.Board, now time.Time) {
	section := func(title string, n int) {
		fmt.Fprintln(w, StyleTitle.Render(title)+" "+StyleDim.Render(fmt.Sprintf("(%d)", n)))
	}
	item := func(number int, title, login string, updated time.Time) {
		fmt.Fprintf(w, "  %s %s %s\n",
			StyleHighlight.Render(fmt.Sprintf("#%-5d", number)),
			truncate(title, 70),
			StyleDim.Render(login+" · "+formatRelativeTime(updated, now)))
	}

	section("Pull requests", len(b.Pulls))
	for _, p := range b.Pulls {
		item(p.Number, p.Title, login(p.User), p.UpdatedAt)
	}
	section("Issues", len(b.Issues))
	for _, i := range b.Issues {
		item(i.Number, i.Title, login(i.User), i.UpdatedAt)
	}
	section("Discussions", len(b.Discussions))
	for _, d := range b.Discussions {
		item(d.Number, d.Title, login(d.User), d.UpdatedAt)
	}
}

func login(a *github.Author) string {
	if a == nil {
		return "ghost"
	}
	return a.Login
}
