package executor

import (
	"fmt"
	"strings"

	"github.com/satishbabariya/sqlkit/query"
	"github.com/satishbabariya/sqlkit/query/ast"
)

// validateRows checks that every row assigns the same columns in the same
// order as the first one.
func validateRows(table string, rows [][]ast.Assignment) error {
	if len(rows) == 0 {
		return nil
	}

	first := ast.Columns(rows[0])
	if len(first) == 0 {
		return fmt.Errorf("%w: row 0 for %s has no columns", query.ErrInvalidRequest, table)
	}

	for i, row := range rows[1:] {
		cols := ast.Columns(row)
		if !sameColumns(first, cols) {
			return fmt.Errorf("%w: row %d for %s has columns (%s), expected (%s)",
				query.ErrInvalidRequest, i+1, table, strings.Join(cols, ", "), strings.Join(first, ", "))
		}
	}
	return nil
}

func sameColumns(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
