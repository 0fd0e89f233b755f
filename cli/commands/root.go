// Package commands implements the sqlkit CLI commands.
package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/sqlkit/cli/internal/version"
	"github.com/satishbabariya/sqlkit/internal/config"
	"github.com/satishbabariya/sqlkit/internal/debug"
	"github.com/satishbabariya/sqlkit/runtime/client"
)

// globalOptions are the persistent flags shared by every command
type globalOptions struct {
	database string
	debug    bool

	cfg *config.Config
}

// NewRootCommand builds the command tree
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   "sqlkit",
		Short: "Query and alter SQLite databases",
		Long: `sqlkit runs statements against a SQLite database and applies schema
changes SQLite cannot express natively, such as changing a column's type.

Settings are read from .sqlkit.yaml, .env, .env.local and SQLKIT_*
environment variables. DATABASE_URL is honored as well.`,
		Version:       version.Get().Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load(cmd)
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.database, "database", "d", "", "Database file or DSN (overrides DATABASE_URL)")
	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Log every statement to stderr")

	cmd.AddCommand(
		newInitCommand(opts),
		newExecCommand(opts),
		newQueryCommand(opts),
		newTablesCommand(opts),
		newSchemaCommand(opts),
		newAlterCommand(opts),
		newVersionCommand(opts),
	)
	return cmd
}

// Execute is the main entry point for the CLI
func Execute() error {
	return NewRootCommand().Execute()
}

func (o *globalOptions) load(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if o.database != "" {
		cfg.DatabaseURL = o.database
	}
	if cmd.Flags().Changed("debug") {
		cfg.Debug = o.debug
	}
	debug.Init(cfg.Debug)

	o.cfg = cfg
	return nil
}

// open connects a client for the configured database
func (o *globalOptions) open(ctx context.Context) (*client.Client, error) {
	c, err := client.Open(o.cfg.Options())
	if err != nil {
		return nil, err
	}
	if err := c.Connect(ctx); err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to connect to %s: %w", o.cfg.DatabaseURL, err)
	}
	debug.Debug("connected", "database", o.cfg.DatabaseURL)
	return c, nil
}

// withClient runs fn with a connected client, closing it afterwards
func (o *globalOptions) withClient(ctx context.Context, fn func(c *client.Client) error) error {
	c, err := o.open(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	if o.cfg.Debug {
		c.Use(client.LoggingMiddleware(debug.Logger()))
	}
	return fn(c)
}
