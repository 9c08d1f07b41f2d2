package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/typegraph/pkg/server"
)

// serveCommand creates the "serve" command.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP document API",
		Long: `Serve the configured store over HTTP until interrupted:

  POST   /v1/documents
  PUT    /v1/documents/{id}
  GET    /v1/documents/{id}
  GET    /v1/documents/{id}/graph
  GET    /v1/documents/{id}/graph.svg
  DELETE /v1/documents/{id}
  GET    /healthz`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = c.cfg.Server.Addr
			}
			store, backend, err := c.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer backend.Close()

			srv := server.New(store, server.WithLogger(c.Logger))
			c.Logger.Info("starting server", "addr", addr, "store", c.cfg.Store.Backend)
			return srv.ListenAndServe(cmd.Context(), addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	return cmd
}
