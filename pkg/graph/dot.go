package graph

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/goccy/go-graphviz"
)

// Options configures DOT output.
type Options struct {
	// Detailed adds scalar fields to node labels.
	// When false, only the node ID is shown.
	Detailed bool
}

// ToDOT converts a graph to Graphviz DOT. Containment edges are solid,
// reference edges dashed; both are labelled with the field they come from.
// Top-level values hang off a point-shaped root node.
func ToDOT(g Graph, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  edge [fontsize=10];\n")
	buf.WriteString("\n")
	fmt.Fprintf(&buf, "  %q [shape=point];\n", RootID)

	for _, n := range g.Nodes {
		fmt.Fprintf(&buf, "  %q [label=%q];\n", n.ID, fmtLabel(n, opts.Detailed))
	}

	buf.WriteString("\n")
	for _, e := range g.Edges {
		attrs := []string{fmt.Sprintf("label=%q", e.Field)}
		if e.Ref {
			attrs = append(attrs, "style=dashed", "color=grey40")
		}
		fmt.Fprintf(&buf, "  %q -> %q [%s];\n", e.From, e.To, strings.Join(attrs, ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(n Node, detailed bool) string {
	if !detailed || len(n.Fields) == 0 {
		return n.ID
	}
	parts := make([]string, 0, len(n.Fields))
	for _, k := range slices.Sorted(maps.Keys(n.Fields)) {
		v := n.Fields[k]
		if v == nil {
			v = "null"
		}
		parts = append(parts, fmt.Sprintf("%s: %v", k, v))
	}
	return n.ID + "\n" + strings.Join(parts, "\n")
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
