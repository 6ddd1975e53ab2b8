package cli

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/releasehub/pkg/discovery"
	"github.com/matzehuels/releasehub/pkg/registry"
)

func testCategories() []discovery.CategorizedPackage {
	kit := registry.Repository{Owner: "sveltejs", Name: "kit", Category: registry.Category{Slug: "sveltekit", Name: "SvelteKit"}}
	svelte := registry.Repository{Owner: "sveltejs", Name: "svelte", Category: registry.Category{Slug: "svelte", Name: "Svelte"}}
	return []discovery.CategorizedPackage{
		{Category: svelte.Category, Packages: []discovery.CategorizedEntry{
			{Repository: svelte, Package: discovery.Package{Name: "svelte"}},
		}},
		{Category: kit.Category, Packages: []discovery.CategorizedEntry{
			{Repository: kit, Package: discovery.Package{Name: "@sveltejs/kit"}},
			{Repository: kit, Package: discovery.Package{Name: "@sveltejs/adapter-node"}},
		}},
	}
}

func send(m PackageListModel, msgs ...tea.Msg) (PackageListModel, tea.Cmd) {
	var cmd tea.Cmd
	for _, msg := range msgs {
		var next tea.Model
		next, cmd = m.Update(msg)
		m = next.(PackageListModel)
	}
	return m, cmd
}

func key(t tea.KeyType) tea.KeyMsg { return tea.KeyMsg{Type: t} }

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

func TestPackageListModel_Flatten(t *testing.T) {
	m := NewPackageListModel(testCategories())
	if len(m.All) != 3 || len(m.Visible) != 3 {
		t.Fatalf("len(All)=%d len(Visible)=%d, want 3", len(m.All), len(m.Visible))
	}
	if m.All[0].Package.Name != "svelte" {
		t.Errorf("first entry = %q, want svelte", m.All[0].Package.Name)
	}
}

func TestPackageListModel_Navigate(t *testing.T) {
	m := NewPackageListModel(testCategories())

	m, _ = send(m, key(tea.KeyUp))
	if m.Cursor != 0 {
		t.Errorf("cursor moved above the top: %d", m.Cursor)
	}
	m, _ = send(m, key(tea.KeyDown), key(tea.KeyDown), key(tea.KeyDown))
	if m.Cursor != 2 {
		t.Errorf("cursor = %d, want 2", m.Cursor)
	}

	m, cmd := send(m, key(tea.KeyEnter))
	if m.Selected == nil || m.Selected.Package.Name != "@sveltejs/adapter-node" {
		t.Fatalf("selected = %+v", m.Selected)
	}
	if cmd == nil {
		t.Error("enter should quit")
	}
}

func TestPackageListModel_Filter(t *testing.T) {
	m := NewPackageListModel(testCategories())

	m, _ = send(m, runes("KIT"))
	if len(m.Visible) != 1 || m.Visible[0].Package.Name != "@sveltejs/kit" {
		t.Fatalf("visible = %+v", m.Visible)
	}

	m, _ = send(m, runes("x"))
	if len(m.Visible) != 0 {
		t.Fatalf("visible = %d, want 0", len(m.Visible))
	}
	m, cmd := send(m, key(tea.KeyEnter))
	if m.Selected != nil || cmd != nil {
		t.Error("enter on an empty list should do nothing")
	}
	if !strings.Contains(m.View(), "[0/0]") {
		t.Errorf("view should show empty position:\n%s", m.View())
	}

	m, _ = send(m, key(tea.KeyBackspace), key(tea.KeyBackspace), key(tea.KeyBackspace), key(tea.KeyBackspace))
	if m.Filter != "" || len(m.Visible) != 3 {
		t.Errorf("filter = %q, visible = %d", m.Filter, len(m.Visible))
	}
}

func TestPackageListModel_Scroll(t *testing.T) {
	m := NewPackageListModel(testCategories())
	m.Height = 1

	m, _ = send(m, key(tea.KeyDown), key(tea.KeyDown))
	if m.Offset != 2 {
		t.Errorf("offset = %d, want 2", m.Offset)
	}
	m, _ = send(m, key(tea.KeyUp))
	if m.Offset != 1 {
		t.Errorf("offset = %d, want 1", m.Offset)
	}
}

func TestPackageListModel_Quit(t *testing.T) {
	m := NewPackageListModel(testCategories())
	m, cmd := send(m, key(tea.KeyEsc))
	if cmd == nil || m.Selected != nil {
		t.Error("esc should quit without a selection")
	}
}

func TestPackageListModel_View(t *testing.T) {
	m := NewPackageListModel(testCategories())
	view := m.View()
	for _, want := range []string{"Select Package", "svelte", "SvelteKit", "sveltejs/kit", "[1/3]"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestPackageListModel_WindowSize(t *testing.T) {
	m := NewPackageListModel(testCategories())
	m, _ = send(m, tea.WindowSizeMsg{Width: 80, Height: 8})
	if m.Height != 5 {
		t.Errorf("height = %d, want minimum 5", m.Height)
	}
}
