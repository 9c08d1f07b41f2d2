// Package cli implements the typegraph command-line interface.
//
// The commands work on transport text files without needing the Go types
// that produced them:
//   - inspect: print a document as a tree, JSON or YAML with statistics
//   - validate: check that a document parses and every ref resolves
//   - graph: export the reference graph as JSON, DOT or SVG
//   - browse: explore records interactively
//   - store: put, get and delete documents in the configured store
//   - serve: run the HTTP document API
//   - cache: manage the file store directory
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. The logger
// travels through the command context (see loggerFromContext).
//
// # Configuration
//
// --config points at a TOML file; without it the default location is used
// when present. See package config.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/typegraph/pkg/buildinfo"
	"github.com/matzehuels/typegraph/pkg/cache"
	"github.com/matzehuels/typegraph/pkg/config"
	"github.com/matzehuels/typegraph/pkg/docstore"
)

// appName is the application name used for directories and display.
const appName = "typegraph"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	verbose    bool
	cfg        config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		cfg:    config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "typegraph inspects and stores type-tagged object graphs",
		Long:         `typegraph works with the type-tagged transport format: it inspects and validates documents, draws their reference graphs, and stores or serves them.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd)
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/typegraph/config.toml)")

	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.validateCommand())
	root.AddCommand(c.graphCommand())
	root.AddCommand(c.browseCommand())
	root.AddCommand(c.storeCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// setup loads the configuration and attaches the logger to the context.
func (c *CLI) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	c.cfg = cfg

	c.SetLogLevel(levelFor(cfg, c.verbose))

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(withLogger(ctx, c.Logger))
	return nil
}

// =============================================================================
// Store Factory
// =============================================================================

// openStore opens the configured backend and wraps it in a raw document
// store. The caller closes the returned cache.
func (c *CLI) openStore(ctx context.Context) (*docstore.Store, cache.Cache, error) {
	backend, err := cache.Open(ctx, c.cfg.CacheOptions())
	if err != nil {
		return nil, nil, fmt.Errorf("open %s store: %w", c.cfg.Store.Backend, err)
	}
	store := docstore.New(backend, nil,
		docstore.WithTTL(c.cfg.Store.TTL.Duration),
		docstore.WithLogger(c.Logger),
	)
	return store, backend, nil
}

// storeDir returns the directory of the file backend.
func (c *CLI) storeDir() (string, error) {
	if c.cfg.Store.Dir != "" {
		return c.cfg.Store.Dir, nil
	}
	return cache.DefaultDir()
}

// =============================================================================
// Input Helpers
// =============================================================================

// readInput reads a file, or standard input when path is "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

// writeOutput writes data to path, or to the command's output when path is
// empty.
func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	if path == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
