package cli

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/typegraph/pkg/graph"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// BrowseModel - Interactive record browser
// =============================================================================

// BrowseModel is the bubbletea model for exploring the records of a graph.
// The cursor moves over records in document order; tab cycles through the
// outgoing edges of the current record and enter follows the selected one.
type BrowseModel struct {
	Graph  graph.Graph
	Cursor int
	Edge   int
	Height int
	Offset int

	index map[string]int
	out   map[string][]graph.Edge
}

// NewBrowseModel creates a browser over g.
func NewBrowseModel(g graph.Graph) BrowseModel {
	m := BrowseModel{
		Graph:  g,
		Height: 12,
		index:  make(map[string]int, len(g.Nodes)),
		out:    make(map[string][]graph.Edge),
	}
	for i, n := range g.Nodes {
		m.index[n.ID] = i
	}
	for _, e := range g.Edges {
		m.out[e.From] = append(m.out[e.From], e)
	}
	return m
}

// Current returns the record under the cursor.
func (m BrowseModel) Current() (graph.Node, bool) {
	if m.Cursor < 0 || m.Cursor >= len(m.Graph.Nodes) {
		return graph.Node{}, false
	}
	return m.Graph.Nodes[m.Cursor], true
}

func (m BrowseModel) edges() []graph.Edge {
	n, ok := m.Current()
	if !ok {
		return nil
	}
	return m.out[n.ID]
}

func (m BrowseModel) Init() tea.Cmd {
	return nil
}

func (m BrowseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.moveTo(m.Cursor - 1)
			}
		case "down", "j":
			if m.Cursor < len(m.Graph.Nodes)-1 {
				m.moveTo(m.Cursor + 1)
			}
		case "tab":
			if n := len(m.edges()); n > 0 {
				m.Edge = (m.Edge + 1) % n
			}
		case "enter":
			edges := m.edges()
			if m.Edge < len(edges) {
				if i, ok := m.index[edges[m.Edge].To]; ok {
					m.moveTo(i)
				}
			}
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 16
		if m.Height < 5 {
			m.Height = 5
		}
		m.scroll()
	}
	return m, nil
}

func (m *BrowseModel) moveTo(i int) {
	m.Cursor = i
	m.Edge = 0
	m.scroll()
}

func (m *BrowseModel) scroll() {
	if m.Cursor < m.Offset {
		m.Offset = m.Cursor
	}
	if m.Cursor >= m.Offset+m.Height {
		m.Offset = m.Cursor - m.Height + 1
	}
}

func (m BrowseModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Browse Records"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⇥ next edge  ⏎ follow  q quit"))
	b.WriteString("\n\n")

	if len(m.Graph.Nodes) == 0 {
		b.WriteString(listDimStyle.Render("  no records"))
		b.WriteString("\n")
		return b.String()
	}

	end := min(m.Offset+m.Height, len(m.Graph.Nodes))
	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		n := m.Graph.Nodes[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		rows = append(rows, []string{cursor, n.ID, n.Path, fmt.Sprint(n.Depth), fmt.Sprint(len(m.out[n.ID]))})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Record", "Path", "Depth", "Edges").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if m.Offset+row == m.Cursor {
				return listSelectedStyle
			}
			if col == 1 {
				return StyleType
			}
			return listDimStyle
		})

	b.WriteString(t.Render())
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Graph.Nodes))))
	b.WriteString("\n\n")
	b.WriteString(m.detail())
	return b.String()
}

// detail renders the scalar fields and outgoing edges of the current record.
func (m BrowseModel) detail() string {
	n, _ := m.Current()
	var b strings.Builder

	b.WriteString(StyleTitle.Render(n.ID))
	b.WriteString("\n")
	if len(n.Fields) == 0 {
		b.WriteString(listDimStyle.Render("  no scalar fields"))
		b.WriteString("\n")
	}
	for _, k := range slices.Sorted(maps.Keys(n.Fields)) {
		fmt.Fprintf(&b, "  %s %s\n", styleKey.Render(k+":"), StyleValue.Render(fmt.Sprint(n.Fields[k])))
	}

	edges := m.edges()
	if len(edges) > 0 {
		b.WriteString("\n")
	}
	for i, e := range edges {
		cursor := "  "
		style := listNormalStyle
		if i == m.Edge {
			cursor = "▸ "
			style = listSelectedStyle
		}
		target := StyleType.Render(e.To)
		if e.Ref {
			target = StyleRef.Render(iconArrow + " " + e.To)
		}
		fmt.Fprintf(&b, "%s%s %s\n", cursor, style.Render(e.Field), target)
	}
	return b.String()
}
