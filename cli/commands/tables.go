package commands

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/sqlkit/cli/internal/ui"
	"github.com/satishbabariya/sqlkit/migrate/introspect"
	"github.com/satishbabariya/sqlkit/runtime/client"
)

func newTablesCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List the tables of the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return opts.withClient(ctx, func(c *client.Client) error {
				var rows [][]string
				err := c.Inspect(ctx, func(in *introspect.SQLiteIntrospector) error {
					names, err := in.Tables(ctx)
					if err != nil {
						return err
					}
					for _, name := range names {
						t, err := in.Table(ctx, name)
						if err != nil {
							return err
						}
						rows = append(rows, []string{
							t.Name,
							strconv.Itoa(len(t.Columns)),
							strings.Join(t.PrimaryKey, ", "),
							strconv.Itoa(len(t.Indexes)),
							strconv.Itoa(len(t.ForeignKeys)),
						})
					}
					return nil
				})
				if err != nil {
					return err
				}
				if len(rows) == 0 {
					ui.PrintInfo("no tables")
					return nil
				}
				return ui.PrintTable([]string{"Table", "Columns", "Primary key", "Indexes", "Foreign keys"}, rows)
			})
		},
	}
}

func newSchemaCommand(opts *globalOptions) *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "schema <table>",
		Short: "Describe a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return opts.withClient(ctx, func(c *client.Client) error {
				doc, err := describeTable(ctx, c, args[0])
				if err != nil {
					return err
				}
				if raw {
					fmt.Fprint(ui.Output, doc)
					return nil
				}
				return ui.PrintMarkdown(doc)
			})
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "Print markdown without rendering")
	return cmd
}

// describeTable renders a table's structure and dependents as markdown
func describeTable(ctx context.Context, c *client.Client, name string) (string, error) {
	var sb strings.Builder

	err := c.Inspect(ctx, func(in *introspect.SQLiteIntrospector) error {
		t, err := in.Table(ctx, name)
		if err != nil {
			return err
		}
		deps, err := in.Dependents(ctx, name)
		if err != nil {
			return err
		}

		fmt.Fprintf(&sb, "# %s\n\n", t.Name)
		sb.WriteString("| Column | Type | Not null | Default | Primary key |\n")
		sb.WriteString("|---|---|---|---|---|\n")
		for _, col := range t.Columns {
			def := ""
			if col.DefaultValue != nil {
				def = "`" + *col.DefaultValue + "`"
			}
			pk := ""
			if col.PrimaryKey > 0 {
				pk = strconv.Itoa(col.PrimaryKey)
			}
			typ := col.Type
			if col.Generated() {
				typ += " (generated)"
			}
			fmt.Fprintf(&sb, "| %s | %s | %s | %s | %s |\n", col.Name, typ, yesNo(col.NotNull), def, pk)
		}

		if len(t.Indexes) > 0 {
			sb.WriteString("\n## Indexes\n\n")
			for _, idx := range t.Indexes {
				kind := "index"
				if idx.Unique {
					kind = "unique"
				}
				fmt.Fprintf(&sb, "- **%s** (%s) on %s\n", idx.Name, kind, strings.Join(idx.Columns, ", "))
			}
		}

		if len(t.ForeignKeys) > 0 {
			sb.WriteString("\n## Foreign keys\n\n")
			for _, fk := range t.ForeignKeys {
				fmt.Fprintf(&sb, "- (%s) references %s (%s)", strings.Join(fk.Columns, ", "),
					fk.ReferencedTable, strings.Join(fk.ReferencedColumns, ", "))
				if fk.OnDelete != "" && fk.OnDelete != "NO ACTION" {
					fmt.Fprintf(&sb, " on delete %s", strings.ToLower(fk.OnDelete))
				}
				sb.WriteString("\n")
			}
		}

		if len(deps) > 0 {
			sb.WriteString("\n## Dependents\n\n")
			for _, dep := range deps {
				fmt.Fprintf(&sb, "- %s **%s**\n", dep.Type, dep.Name)
			}
		}

		fmt.Fprintf(&sb, "\n## Definition\n\n```sql\n%s\n```\n", t.SQL)
		return nil
	})
	return sb.String(), err
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
