package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matzehuels/typegraph/pkg/graph"
	"github.com/matzehuels/typegraph/pkg/tagged"
)

// Inspect output formats.
const (
	formatTree = "tree"
	formatJSON = "json"
	formatYAML = "yaml"
)

// inspectCommand creates the "inspect" command.
func (c *CLI) inspectCommand() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "inspect FILE",
		Short: "Print a document as a tree, JSON or YAML",
		Long: `Print a transport document. Records are labelled Type#index in the order the
decoder numbers them, so refs can be matched to their targets by eye.

Use "-" to read from standard input.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := loadDocument(cmd, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			switch format {
			case formatTree:
				renderTree(out, doc)
				printStats(out, graph.FromDocument(doc).Stats())
				return nil
			case formatJSON:
				data, err := indentDocument(doc)
				if err != nil {
					return err
				}
				_, err = out.Write(data)
				return err
			case formatYAML:
				data, err := tagged.MarshalYAML(doc)
				if err != nil {
					return err
				}
				_, err = out.Write(data)
				return err
			default:
				return fmt.Errorf("unknown format %q (want tree, json or yaml)", format)
			}
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", formatTree, "output format: tree, json, yaml")
	return cmd
}

// loadDocument reads and parses a transport file.
func loadDocument(cmd *cobra.Command, path string) (tagged.Document, error) {
	data, err := readInput(cmd, path)
	if err != nil {
		return tagged.Document{}, err
	}
	doc, err := tagged.Parse(data)
	if err != nil {
		return tagged.Document{}, err
	}
	cmdLogger(cmd).Debug("parsed document", "path", path, "bytes", len(data), "roots", len(doc.Values()))
	return doc, nil
}

func indentDocument(doc tagged.Document) ([]byte, error) {
	compact, err := tagged.MarshalDocument(doc)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, compact, "", "  "); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// =============================================================================
// Tree Rendering
// =============================================================================

// treePrinter renders a document with box-drawing branches. It numbers
// records per type in pre-order while printing.
type treePrinter struct {
	w    io.Writer
	next map[string]int
}

func renderTree(w io.Writer, doc tagged.Document) {
	p := &treePrinter{w: w, next: map[string]int{}}
	for i, v := range doc.Values() {
		label := ""
		if doc.IsList() {
			label = fmt.Sprintf("[%d]", i)
		}
		p.node("", "", label, v)
	}
}

func (p *treePrinter) node(prefix, branch, label string, v *tagged.Value) {
	text := p.describe(v)
	if label != "" {
		text = styleKey.Render(label+":") + " " + text
	}
	fmt.Fprintln(p.w, prefix+branch+text)

	childPrefix := prefix
	switch branch {
	case "├─ ":
		childPrefix += "│  "
	case "└─ ":
		childPrefix += "   "
	}

	var labels []string
	var children []*tagged.Value
	switch v.Kind() {
	case tagged.KindRecord:
		for _, f := range v.Fields() {
			labels = append(labels, f.Name)
			children = append(children, f.Value)
		}
	case tagged.KindArray:
		for i, item := range v.Items() {
			labels = append(labels, fmt.Sprintf("[%d]", i))
			children = append(children, item)
		}
	}
	for i, child := range children {
		b := "├─ "
		if i == len(children)-1 {
			b = "└─ "
		}
		p.node(childPrefix, b, labels[i], child)
	}
}

func (p *treePrinter) describe(v *tagged.Value) string {
	switch v.Kind() {
	case tagged.KindRecord:
		idx := p.next[v.TypeName()]
		p.next[v.TypeName()] = idx + 1
		return StyleType.Render(graph.NodeID(v.TypeName(), idx))
	case tagged.KindRef:
		return StyleRef.Render(iconArrow + " " + graph.NodeID(v.TypeName(), v.Index()))
	case tagged.KindArray:
		return StyleDim.Render(fmt.Sprintf("Array(%d)", v.Len()))
	case tagged.KindString:
		return StyleValue.Render(strconv.Quote(v.Str()))
	case tagged.KindNumber:
		return StyleValue.Render(string(v.Num()))
	case tagged.KindBoolean:
		return StyleValue.Render(strconv.FormatBool(v.Boolean()))
	case tagged.KindDate:
		return StyleValue.Render("Date(" + v.Str() + ")")
	default:
		return StyleDim.Render(v.Discriminator())
	}
}
