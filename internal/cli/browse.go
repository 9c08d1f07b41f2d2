package cli

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/typegraph/pkg/graph"
)

// browseCommand creates the "browse" command.
func (c *CLI) browseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "browse FILE",
		Short: "Explore the records of a document interactively",
		Long: `Open a terminal browser over the records of a document. Move with the
arrow keys, cycle a record's edges with tab and follow one with enter.`,
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

			p := tea.NewProgram(NewBrowseModel(g),
				tea.WithContext(cmd.Context()),
				tea.WithInput(cmd.InOrStdin()),
				tea.WithOutput(cmd.OutOrStdout()),
			)
			_, err = p.Run()
			return err
		},
	}
}
