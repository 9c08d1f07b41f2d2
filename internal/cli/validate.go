package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/typegraph/pkg/graph"
)

// validateCommand creates the "validate" command.
func (c *CLI) validateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate FILE...",
		Short: "Check that documents parse and every ref resolves",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, path := range args {
				doc, err := loadDocument(cmd, path)
				if err != nil {
					printError(out, "%s", path)
					return err
				}
				g := graph.FromDocument(doc)
				if err := g.Validate(); err != nil {
					printError(out, "%s", path)
					return err
				}
				stats := g.Stats()
				cmdLogger(cmd).Debug("refs resolved", "path", path, "records", stats.Records, "refs", stats.Refs)
				printSuccess(out, "%s is valid", path)
				printStats(out, stats)
			}
			return nil
		},
	}
}
