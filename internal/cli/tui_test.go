package cli

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/typegraph/pkg/graph"
	"github.com/matzehuels/typegraph/pkg/tagged"
)

func browseGraph(t *testing.T) graph.Graph {
	t.Helper()
	doc, err := tagged.Parse([]byte(forwardRef))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return graph.FromDocument(doc)
}

func press(m BrowseModel, keys ...tea.KeyMsg) (BrowseModel, tea.Cmd) {
	var cmd tea.Cmd
	for _, k := range keys {
		var next tea.Model
		next, cmd = m.Update(k)
		m = next.(BrowseModel)
	}
	return m, cmd
}

func current(t *testing.T, m BrowseModel) string {
	t.Helper()
	n, ok := m.Current()
	if !ok {
		t.Fatal("no current record")
	}
	return n.ID
}

func TestBrowseNavigation(t *testing.T) {
	m := NewBrowseModel(browseGraph(t))
	if got := current(t, m); got != "OtherModel#0" {
		t.Fatalf("start = %s, want OtherModel#0", got)
	}

	m, _ = press(m, tea.KeyMsg{Type: tea.KeyDown})
	if got := current(t, m); got != "Model#0" {
		t.Errorf("after down = %s, want Model#0", got)
	}

	m, _ = press(m, tea.KeyMsg{Type: tea.KeyDown})
	if got := current(t, m); got != "Model#0" {
		t.Errorf("down past the end = %s, want Model#0", got)
	}

	m, _ = press(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("k")})
	if got := current(t, m); got != "OtherModel#0" {
		t.Errorf("after k = %s, want OtherModel#0", got)
	}
}

func TestBrowseFollowEdge(t *testing.T) {
	m := NewBrowseModel(browseGraph(t))

	m, _ = press(m, tea.KeyMsg{Type: tea.KeyTab}, tea.KeyMsg{Type: tea.KeyEnter})
	if got := current(t, m); got != "Model#0" {
		t.Errorf("after follow = %s, want Model#0", got)
	}
	if m.Edge != 0 {
		t.Errorf("Edge = %d, want reset to 0", m.Edge)
	}

	// Model#0 has no outgoing edges.
	m, _ = press(m, tea.KeyMsg{Type: tea.KeyTab}, tea.KeyMsg{Type: tea.KeyEnter})
	if got := current(t, m); got != "Model#0" {
		t.Errorf("enter without edges moved to %s", got)
	}
}

func TestBrowseQuit(t *testing.T) {
	m := NewBrowseModel(browseGraph(t))
	for _, k := range []tea.KeyMsg{
		{Type: tea.KeyRunes, Runes: []rune("q")},
		{Type: tea.KeyEsc},
		{Type: tea.KeyCtrlC},
	} {
		if _, cmd := press(m, k); cmd == nil {
			t.Errorf("%s should quit", k.String())
		}
	}
}

func TestBrowseView(t *testing.T) {
	m := NewBrowseModel(browseGraph(t))
	m, _ = press(m, tea.KeyMsg{Type: tea.KeyDown})

	view := m.View()
	for _, want := range []string{"Browse Records", "OtherModel#0", "$[0].model", "[2/2]", "name:", "foobar"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestBrowseEmpty(t *testing.T) {
	m := NewBrowseModel(graph.Graph{})
	m, _ = press(m, tea.KeyMsg{Type: tea.KeyDown}, tea.KeyMsg{Type: tea.KeyEnter})
	if !strings.Contains(m.View(), "no records") {
		t.Error("empty view should say no records")
	}
}

func TestBrowseScroll(t *testing.T) {
	var items []*tagged.Value
	for range 20 {
		items = append(items, tagged.Record("Item"))
	}
	var m tea.Model = NewBrowseModel(graph.FromDocument(tagged.List(items...)))
	m, _ = m.Update(tea.WindowSizeMsg{Width: 80, Height: 10})

	bm := m.(BrowseModel)
	if bm.Height != 5 {
		t.Fatalf("Height = %d, want minimum of 5", bm.Height)
	}
	for range 10 {
		bm, _ = press(bm, tea.KeyMsg{Type: tea.KeyDown})
	}
	if bm.Cursor != 10 || bm.Offset != 6 {
		t.Errorf("Cursor, Offset = %d, %d, want 10, 6", bm.Cursor, bm.Offset)
	}
	if !strings.Contains(bm.View(), "[11/20]") {
		t.Errorf("view should scroll to Item#10:\n%s", bm.View())
	}
}
