package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/sqlkit/cli/internal/ui"
	"github.com/satishbabariya/sqlkit/migrate/alter"
	"github.com/satishbabariya/sqlkit/migrate/introspect"
	"github.com/satishbabariya/sqlkit/migrate/schema"
	"github.com/satishbabariya/sqlkit/runtime/client"
)

// errAborted is returned when the confirmation prompt is declined
var errAborted = errors.New("aborted")

// confirm is replaced in tests
var confirm = ui.Confirm

func newAlterCommand(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "alter",
		Short: "Change the columns of a table",
		Long: `Change the columns of a table. Column type, nullability and default
changes are carried out by copying data through a temporary column, or by
rebuilding the table when constraints, indexes or dependents require it.`,
	}

	cmd.AddCommand(
		newModifyColumnCommand(opts),
		newAddColumnCommand(opts),
		newDropColumnCommand(opts),
		newRenameColumnCommand(opts),
	)
	return cmd
}

func newModifyColumnCommand(opts *globalOptions) *cobra.Command {
	var (
		nullable    bool
		notNull     bool
		defaultFlag string
		yes         bool
		dryRun      bool
	)

	cmd := &cobra.Command{
		Use:     "modify-column <table> <column> <type>",
		Short:   "Change a column's type, nullability or default",
		Example: `  sqlkit alter modify-column tracks plays BIGINT --not-null --default 0`,
		Args:    cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, column := args[0], args[1]
			typ, err := parseType(args[2])
			if err != nil {
				return err
			}
			if nullable && notNull {
				return errors.New("--nullable and --not-null are exclusive")
			}

			op := schema.ModifyColumn{Name: column, NewType: typ}
			if nullable || notNull {
				op.NewNullable = &nullable
			}
			if cmd.Flags().Changed("default") {
				v := parseValue(defaultFlag)
				op.NewDefault = &v
			}

			ctx := cmd.Context()
			return opts.withClient(ctx, func(c *client.Client) error {
				path, reason, err := c.PlanModifyColumn(ctx, table, op)
				if err != nil {
					return err
				}
				switch path {
				case alter.PathTable:
					ui.PrintWarning("%s.%s will be changed by rebuilding %s (%s)", table, column, table, reason)
				default:
					ui.PrintInfo("%s.%s will be changed through a temporary column", table, column)
				}
				if dryRun {
					return nil
				}
				return applyAlter(ctx, c, table, yes, fmt.Sprintf("Modify %s.%s?", table, column), op)
			})
		},
	}

	cmd.Flags().BoolVar(&nullable, "nullable", false, "Allow NULL")
	cmd.Flags().BoolVar(&notNull, "not-null", false, "Disallow NULL")
	cmd.Flags().StringVar(&defaultFlag, "default", "", "New default value (null, now, a number or text)")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Only report how the change would be made")
	return cmd
}

func newAddColumnCommand(opts *globalOptions) *cobra.Command {
	var (
		nullable    bool
		defaultFlag string
	)

	cmd := &cobra.Command{
		Use:   "add-column <table> <column> <type>",
		Short: "Add a column",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			typ, err := parseType(args[2])
			if err != nil {
				return err
			}
			op := schema.AddColumn{Name: args[1], Type: typ, Nullable: nullable}
			if cmd.Flags().Changed("default") {
				v := parseValue(defaultFlag)
				op.Default = &v
			}

			ctx := cmd.Context()
			return opts.withClient(ctx, func(c *client.Client) error {
				return applyAlter(ctx, c, args[0], true, "", op)
			})
		},
	}

	cmd.Flags().BoolVar(&nullable, "nullable", false, "Allow NULL")
	cmd.Flags().StringVar(&defaultFlag, "default", "", "Default value (null, now, a number or text)")
	return cmd
}

func newDropColumnCommand(opts *globalOptions) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "drop-column <table> <column>",
		Short: "Drop a column and its data",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return opts.withClient(ctx, func(c *client.Client) error {
				prompt := fmt.Sprintf("Drop %s.%s and all of its data?", args[0], args[1])
				return applyAlter(ctx, c, args[0], yes, prompt, schema.DropColumn{Name: args[1]})
			})
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}

func newRenameColumnCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rename-column <table> <old> <new>",
		Short: "Rename a column",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return opts.withClient(ctx, func(c *client.Client) error {
				return applyAlter(ctx, c, args[0], true, "", schema.RenameColumn{OldName: args[1], NewName: args[2]})
			})
		},
	}
}

// applyAlter confirms, applies op and prints how the table definition changed
func applyAlter(ctx context.Context, c *client.Client, table string, yes bool, prompt string, op schema.AlterOperation) error {
	before, err := tableSQL(ctx, c, table)
	if err != nil {
		return err
	}

	if !yes {
		ok, err := confirm(prompt)
		if err != nil {
			return err
		}
		if !ok {
			return errAborted
		}
	}

	if err := c.ExecAlterTable(ctx, &schema.AlterTable{Name: table, Operations: []schema.AlterOperation{op}}); err != nil {
		return err
	}

	after, err := tableSQL(ctx, c, table)
	if err != nil {
		return err
	}
	ui.PrintDiff(before, after)
	ui.PrintSuccess("altered %s", table)
	return nil
}

func tableSQL(ctx context.Context, c *client.Client, table string) (sql string, err error) {
	err = c.Inspect(ctx, func(in *introspect.SQLiteIntrospector) error {
		sql, err = in.TableSQL(ctx, table)
		return err
	})
	return sql, err
}
