package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/typegraph/pkg/graph"
)

// Graph output formats.
const (
	formatDOT = "dot"
	formatSVG = "svg"
)

// graphCommand creates the "graph" command.
func (c *CLI) graphCommand() *cobra.Command {
	var (
		format   string
		output   string
		detailed bool
	)

	cmd := &cobra.Command{
		Use:   "graph FILE",
		Short: "Export the reference graph of a document",
		Long: `Export the records of a document and the edges between them. Containment
edges connect a record to the records nested in its fields; ref edges (dashed
in DOT and SVG) connect the place of a back-reference to its target.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := loadDocument(cmd, args[0])
			if err != nil {
				return err
			}
			g := graph.FromDocument(doc)
			if err := g.Validate(); err != nil {
				return err
			}

			var data []byte
			switch format {
			case formatJSON:
				if data, err = graph.MarshalGraph(g); err != nil {
					return err
				}
			case formatDOT:
				data = []byte(graph.ToDOT(g, graph.Options{Detailed: detailed}))
			case formatSVG:
				sw := startStopwatch(cmdLogger(cmd))
				spinner := newSpinner(cmd.Context(), cmd.ErrOrStderr(), "Rendering SVG...")
				spinner.Start()
				data, err = graph.RenderSVG(cmd.Context(), graph.ToDOT(g, graph.Options{Detailed: detailed}))
				spinner.Stop()
				if err != nil {
					return err
				}
				sw.done("rendered svg", "records", len(g.Nodes), "bytes", len(data))
			default:
				return fmt.Errorf("unknown format %q (want json, dot or svg)", format)
			}

			if err := writeOutput(cmd, output, data); err != nil {
				return err
			}
			if output != "" {
				printSuccess(cmd.ErrOrStderr(), "Wrote %s graph", format)
				printFile(cmd.ErrOrStderr(), output)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", formatJSON, "output format: json, dot, svg")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "include scalar fields in node labels")
	return cmd
}
