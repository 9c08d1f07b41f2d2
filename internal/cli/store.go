package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// storeCommand creates the "store" command group.
func (c *CLI) storeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Put, get and delete documents in the configured store",
		Long: `Manage documents in the store selected by the [store] section of the config
file: a local directory, Redis, MongoDB, or nothing at all.`,
	}

	cmd.AddCommand(c.storePutCommand())
	cmd.AddCommand(c.storeGetCommand())
	cmd.AddCommand(c.storeDeleteCommand())
	return cmd
}

func (c *CLI) storePutCommand() *cobra.Command {
	var id string

	cmd := &cobra.Command{
		Use:   "put FILE",
		Short: "Validate a document and store it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			store, backend, err := c.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer backend.Close()

			if id == "" {
				id, err = store.SaveRaw(cmd.Context(), data)
			} else {
				err = store.PutRaw(cmd.Context(), id, data)
			}
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), id)
			printSuccess(cmd.ErrOrStderr(), "Stored document in %s store", c.cfg.Store.Backend)
			printNextStep(cmd.ErrOrStderr(), "Fetch it", appName+" store get "+id)
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "document id (default: a new UUID)")
	return cmd
}

func (c *CLI) storeGetCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "get ID",
		Short: "Print a stored document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, backend, err := c.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer backend.Close()

			data, err := store.GetRaw(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if output == "" {
				data = append(data, '\n')
			}
			return writeOutput(cmd, output, data)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}

func (c *CLI) storeDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a stored document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, backend, err := c.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer backend.Close()

			if err := store.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "Deleted %s", args[0])
			return nil
		},
	}
}
