// Package sqlgen compiles the statement model into SQLite SQL.
package sqlgen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/satishbabariya/sqlkit/query"
	"github.com/satishbabariya/sqlkit/query/ast"
	"github.com/satishbabariya/sqlkit/runtime/types"
)

// Query represents a SQL statement with its bound values
type Query struct {
	SQL    string
	Params []types.Value
}

// Args returns the driver arguments for the query
func (q *Query) Args() ([]interface{}, error) {
	return Args(q.Params)
}

func newQuery(ctx *renderContext, sql string, params []types.Value) *Query {
	if len(params) != ctx.placeholders {
		panic(fmt.Sprintf("sqlgen: %d placeholders but %d bound values in %q", ctx.placeholders, len(params), sql))
	}
	return &Query{SQL: sql, Params: params}
}

// GenerateSelect builds a SELECT statement
func GenerateSelect(sel *ast.Select) *Query {
	ctx := newRenderContext()
	sql := ctx.renderSelect(sel)

	b := &binder{}
	b.selectStmt(sel)
	return newQuery(ctx, sql, b.values)
}

// GenerateSelectFirst builds a SELECT limited to one row regardless of the
// caller's limit
func GenerateSelectFirst(sel *ast.Select) *Query {
	first := *sel
	first.Limit = ast.IntPtr(1)
	return GenerateSelect(&first)
}

// GenerateDelete builds a DELETE statement
func GenerateDelete(del *ast.Delete) *Query {
	ctx := newRenderContext()

	var parts []string
	parts = append(parts, "DELETE FROM "+del.Table)
	if where := ctx.renderWhere(del.Table, del.Filters, del.Limit); where != "" {
		parts = append(parts, where)
	}
	parts = append(parts, "RETURNING *")

	params := BindValues(nil, del.Filters, del.Limit != nil && len(del.Filters) > 0)
	return newQuery(ctx, strings.Join(parts, " "), params)
}

// GenerateInsert builds a single-row INSERT statement
func GenerateInsert(ins *ast.Insert) *Query {
	ctx := newRenderContext()

	var parts []string
	parts = append(parts, "INSERT INTO "+ins.Table)
	if len(ins.Values) == 0 {
		parts = append(parts, "DEFAULT VALUES")
	} else {
		parts = append(parts, "("+strings.Join(ast.Columns(ins.Values), ", ")+")")
		parts = append(parts, "VALUES("+ctx.renderRow(ins.Values)+")")
	}
	parts = append(parts, "RETURNING *")

	return newQuery(ctx, strings.Join(parts, " "), BindValues(ins.Values, nil, false))
}

// GenerateUpdate builds an UPDATE statement
func GenerateUpdate(upd *ast.Update) (*Query, error) {
	if len(upd.Values) == 0 {
		return nil, fmt.Errorf("%w: update of %s sets no columns", query.ErrInvalidRequest, upd.Table)
	}

	ctx := newRenderContext()

	var parts []string
	parts = append(parts, "UPDATE "+upd.Table)

	sets := make([]string, len(upd.Values))
	for i, v := range upd.Values {
		sets[i] = v.Column + " = " + ctx.renderExpr(v.Expr)
	}
	parts = append(parts, "SET "+strings.Join(sets, ", "))

	if where := ctx.renderWhere(upd.Table, upd.Filters, upd.Limit); where != "" {
		parts = append(parts, where)
	}
	parts = append(parts, "RETURNING *")

	params := BindValues(upd.Values, upd.Filters, upd.Limit != nil && len(upd.Filters) > 0)
	return newQuery(ctx, strings.Join(parts, " "), params), nil
}

// GenerateUpsertMulti builds a multi-row INSERT ... ON CONFLICT DO UPDATE.
// Rows must already have identical column lists.
func GenerateUpsertMulti(table string, unique []string, rows [][]ast.Assignment) (*Query, error) {
	if len(unique) == 0 {
		return nil, fmt.Errorf("%w: upsert into %s", query.ErrMissingUnique, table)
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("%w: upsert into %s has no values", query.ErrInvalidRequest, table)
	}

	ctx := newRenderContext()
	columns := ast.Columns(rows[0])

	var parts []string
	parts = append(parts, "INSERT INTO "+table)
	parts = append(parts, "("+strings.Join(columns, ", ")+")")
	parts = append(parts, "VALUES "+ctx.renderRows(rows))
	parts = append(parts, "ON CONFLICT("+strings.Join(unique, ", ")+") DO UPDATE SET")

	sets := make([]string, len(columns))
	for i, col := range columns {
		sets[i] = col + " = EXCLUDED." + col
	}
	parts = append(parts, strings.Join(sets, ", "))
	parts = append(parts, "RETURNING *")

	return newQuery(ctx, strings.Join(parts, " "), bindRows(rows)), nil
}

// GenerateUpdateMulti builds an UPDATE ... FROM over a VALUES table, matching
// target rows on the unique columns.
func GenerateUpdateMulti(table string, unique []string, rows [][]ast.Assignment) (*Query, error) {
	if len(unique) == 0 {
		return nil, fmt.Errorf("%w: update of %s", query.ErrMissingUnique, table)
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("%w: update of %s has no values", query.ErrInvalidRequest, table)
	}

	columns := ast.Columns(rows[0])
	isUnique := make(map[string]bool, len(unique))
	for _, u := range unique {
		if !contains(columns, u) {
			return nil, fmt.Errorf("%w: unique column %s missing from update rows", query.ErrInvalidRequest, u)
		}
		isUnique[u] = true
	}

	var sets []string
	for _, col := range columns {
		if !isUnique[col] {
			sets = append(sets, col+" = "+updateSource+"."+col)
		}
	}
	if len(sets) == 0 {
		return nil, fmt.Errorf("%w: update of %s sets no columns", query.ErrInvalidRequest, table)
	}

	matches := make([]string, len(unique))
	for i, u := range unique {
		matches[i] = table + "." + u + " = " + updateSource + "." + u
	}

	ctx := newRenderContext()

	var parts []string
	parts = append(parts, "WITH "+updateSource+"("+strings.Join(columns, ", ")+") AS (VALUES "+ctx.renderRows(rows)+")")
	parts = append(parts, "UPDATE "+table)
	parts = append(parts, "SET "+strings.Join(sets, ", "))
	parts = append(parts, "FROM "+updateSource)
	parts = append(parts, "WHERE "+strings.Join(matches, " AND "))
	parts = append(parts, "RETURNING *")

	return newQuery(ctx, strings.Join(parts, " "), bindRows(rows)), nil
}

const updateSource = "sqlkit_values"

// renderWhere renders the WHERE clause of an UPDATE or DELETE. SQLite has
// no LIMIT on either, so a limit is expressed through a rowid sub-select
// and the filters are rendered a second time as an outer guard.
func (ctx *renderContext) renderWhere(table string, filters []ast.Expression, limit *int) string {
	if limit == nil {
		if len(filters) == 0 {
			return ""
		}
		return "WHERE " + ctx.renderFilters(filters)
	}

	inner := "SELECT rowid FROM " + table
	if len(filters) > 0 {
		inner += " WHERE " + ctx.renderFilters(filters)
	}
	inner += " LIMIT " + strconv.Itoa(*limit)

	where := "WHERE rowid IN (" + inner + ")"
	if len(filters) > 0 {
		where += " AND (" + ctx.renderFilters(filters) + ")"
	}
	return where
}

func (ctx *renderContext) renderRow(values []ast.Assignment) string {
	exprs := make([]string, len(values))
	for i, v := range values {
		exprs[i] = ctx.renderExpr(v.Expr)
	}
	return strings.Join(exprs, ", ")
}

func (ctx *renderContext) renderRows(rows [][]ast.Assignment) string {
	tuples := make([]string, len(rows))
	for i, row := range rows {
		tuples[i] = "(" + ctx.renderRow(row) + ")"
	}
	return strings.Join(tuples, ", ")
}

func bindRows(rows [][]ast.Assignment) []types.Value {
	b := &binder{}
	for _, row := range rows {
		b.assignments(row)
	}
	return b.values
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
