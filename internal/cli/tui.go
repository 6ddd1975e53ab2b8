package cli

import (
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/releasehub/pkg/discovery"
)

var listDimStyle = lipgloss.NewStyle().Foreground(colorDim)

// =============================================================================
// PackageListModel - Interactive package selection
// =============================================================================

// PackageListModel is the bubbletea model for interactive package selection.
// Typing filters the list by package name.
type PackageListModel struct {
	All      []discovery.CategorizedEntry
	Visible  []discovery.CategorizedEntry
	Filter   string
	Cursor   int
	Selected *discovery.CategorizedEntry
	Height   int
	Offset   int
}

// NewPackageListModel flattens categories into a selectable list.
func NewPackageListModel(categories []discovery.CategorizedPackage) PackageListModel {
	var all []discovery.CategorizedEntry
	for _, cat := range categories {
		all = append(all, cat.Packages...)
	}
	return PackageListModel{All: all, Visible: all, Height: 15}
}

func (m PackageListModel) Init() tea.Cmd {
	return nil
}

func (m PackageListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyUp:
			m.moveCursor(-1)
		case tea.KeyDown:
			m.moveCursor(1)
		case tea.KeyEnter:
			if len(m.Visible) == 0 {
				return m, nil
			}
			entry := m.Visible[m.Cursor]
			m.Selected = &entry
			return m, tea.Quit
		case tea.KeyBackspace:
			if m.Filter != "" {
				r := []rune(m.Filter)
				m.setFilter(string(r[:len(r)-1]))
			}
		case tea.KeyRunes:
			m.setFilter(m.Filter + string(msg.Runes))
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-7, 5)
	}
	return m, nil
}

func (m *PackageListModel) moveCursor(delta int) {
	next := m.Cursor + delta
	if next < 0 || next >= len(m.Visible) {
		return
	}
	m.Cursor = next
	if m.Cursor < m.Offset {
		m.Offset = m.Cursor
	}
	if m.Cursor >= m.Offset+m.Height {
		m.Offset = m.Cursor - m.Height + 1
	}
}

func (m *PackageListModel) setFilter(filter string) {
	m.Filter = filter
	m.Cursor, m.Offset = 0, 0
	if filter == "" {
		m.Visible = m.All
		return
	}
	needle := strings.ToLower(filter)
	m.Visible = nil
	for _, e := range m.All {
		if strings.Contains(strings.ToLower(e.Package.Name), needle) {
			m.Visible = append(m.Visible, e)
		}
	}
}

func (m PackageListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Package"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  esc quit  type to filter"))
	b.WriteString("\n")
	b.WriteString(StyleHighlight.Render("/ " + m.Filter))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.Visible))

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		e := m.Visible[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		rows = append(rows, []string{cursor, e.Package.Name, e.Repository.Category.Name, e.Repository.FullName()})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Package", "Category", "Repository").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return styleHeader
			}
			idx := m.Offset + row
			if idx >= len(m.Visible) {
				return lipgloss.NewStyle()
			}
			base := lipgloss.NewStyle()
			if m.Visible[idx].Package.Deprecated {
				base = base.Foreground(colorDim)
			} else if col >= 2 {
				base = base.Foreground(colorGray)
			}
			if idx == m.Cursor {
				return base.Foreground(colorGreen).Bold(true)
			}
			return base
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	pos := 0
	if len(m.Visible) > 0 {
		pos = m.Cursor + 1
	}
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", pos, len(m.Visible))))

	return b.String()
}

// =============================================================================
// Browse Command
// =============================================================================

// browseCommand creates the interactive browse command.
func (c *CLI) browseCommand() *cobra.Command {
	var opts releasesOpts

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Pick a package interactively and show its releases",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := c.newApp(ctx, false)
			if err != nil {
				return err
			}
			defer a.Close()

			spinner := newSpinnerWithContext(ctx, "Discovering packages...")
			spinner.Start()
			categories, err := a.Discoverer.GetOrDiscoverCategorized(ctx)
			spinner.Stop()
			if err != nil {
				return err
			}

			final, err := tea.NewProgram(NewPackageListModel(categories), tea.WithContext(ctx)).Run()
			if err != nil {
				return fmt.Errorf("package picker: %w", err)
			}
			m, ok := final.(PackageListModel)
			if !ok || m.Selected == nil {
				printInfo("No package selected")
				return nil
			}
			return c.runReleases(ctx, os.Stdout, a, m.Selected.Package.Name, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 10, "maximum number of releases to show (0 for all)")

	return cmd
}
