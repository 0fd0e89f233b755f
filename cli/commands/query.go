package commands

import (
	"github.com/spf13/cobra"

	"github.com/satishbabariya/sqlkit/cli/internal/ui"
	"github.com/satishbabariya/sqlkit/query/ast"
	"github.com/satishbabariya/sqlkit/runtime/client"
)

func newQueryCommand(opts *globalOptions) *cobra.Command {
	var (
		wheres   []string
		orders   []string
		columns  []string
		limit    int
		distinct bool
	)

	cmd := &cobra.Command{
		Use:   "query <table>",
		Short: "Select rows from a table",
		Example: `  sqlkit query tracks --where "plays>=10" --order plays:desc --limit 5
  sqlkit query tracks --where "title~%intro%" --columns id,title`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sel := &ast.Select{Table: args[0], Columns: columns, Distinct: distinct}

			for _, w := range wheres {
				expr, err := parseWhere(w)
				if err != nil {
					return err
				}
				sel.Filters = append(sel.Filters, expr)
			}
			for _, o := range orders {
				sort, err := parseOrder(o)
				if err != nil {
					return err
				}
				sel.Sorts = append(sel.Sorts, sort)
			}
			if limit > 0 {
				sel.Limit = ast.IntPtr(limit)
			}

			ctx := cmd.Context()
			return opts.withClient(ctx, func(c *client.Client) error {
				rows, err := c.Query(ctx, sel)
				if err != nil {
					return err
				}
				return ui.PrintRows(rows)
			})
		},
	}

	cmd.Flags().StringArrayVar(&wheres, "where", nil, "Filter as column<op>value, op one of = != > >= < <= ~ (repeatable)")
	cmd.Flags().StringArrayVar(&orders, "order", nil, "Sort as column[:asc|desc] (repeatable)")
	cmd.Flags().StringSliceVar(&columns, "columns", nil, "Columns to select")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of rows")
	cmd.Flags().BoolVar(&distinct, "distinct", false, "Select distinct rows")
	return cmd
}
