package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/sqlkit/cli/internal/ui"
	"github.com/satishbabariya/sqlkit/cli/internal/watch"
	"github.com/satishbabariya/sqlkit/migrate/ddl"
	"github.com/satishbabariya/sqlkit/runtime/client"
)

func newExecCommand(opts *globalOptions) *cobra.Command {
	var (
		file    string
		watchIt bool
		noTx    bool
	)

	cmd := &cobra.Command{
		Use:   "exec [sql]",
		Short: "Execute raw SQL statements",
		Long: `Execute raw SQL statements given as arguments or read from --file.
A script runs in a single transaction unless --no-tx is set. With --watch
the file is executed again whenever it changes.`,
		Example: `  sqlkit exec "DELETE FROM sessions WHERE expires < datetime('now')"
  sqlkit exec --file seed.sql --watch`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" && len(args) == 0 {
				return errors.New("nothing to execute, pass SQL or --file")
			}
			if file != "" && len(args) > 0 {
				return errors.New("pass either SQL or --file, not both")
			}
			if watchIt && file == "" {
				return errors.New("--watch needs --file")
			}

			ctx := cmd.Context()
			return opts.withClient(ctx, func(c *client.Client) error {
				run := func() error {
					script := strings.Join(args, " ")
					if file != "" {
						data, err := os.ReadFile(file)
						if err != nil {
							return err
						}
						script = string(data)
					}
					return execScript(ctx, c, script, !noTx)
				}

				if !watchIt {
					return run()
				}
				return watchScript(ctx, file, run)
			})
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Read statements from a SQL file")
	cmd.Flags().BoolVarP(&watchIt, "watch", "w", false, "Re-execute --file whenever it changes")
	cmd.Flags().BoolVar(&noTx, "no-tx", false, "Run each statement on its own")
	return cmd
}

// execScript runs every statement of script, all or nothing when inTx is set
func execScript(ctx context.Context, c *client.Client, script string, inTx bool) error {
	stmts, err := ddl.SplitStatements(script)
	if err != nil {
		return err
	}
	if len(stmts) == 0 {
		ui.PrintWarning("no statements to execute")
		return nil
	}

	runAll := func(db client.Database) error {
		for i, stmt := range stmts {
			if err := db.ExecRaw(ctx, stmt); err != nil {
				return fmt.Errorf("statement %d: %w", i+1, err)
			}
		}
		return nil
	}

	if inTx {
		err = c.Transaction(ctx, func(tx *client.Transaction) error { return runAll(tx) })
	} else {
		err = runAll(c)
	}
	if err != nil {
		return err
	}

	ui.PrintSuccess("executed %d statement(s)", len(stmts))
	return nil
}

func watchScript(ctx context.Context, file string, run func() error) error {
	w, err := watch.New(file, watch.DefaultDebounce)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	ui.PrintInfo("watching %s, press Ctrl+C to stop", file)
	return w.Run(ctx, run, func(err error) {
		ui.PrintError("%v", err)
	})
}
