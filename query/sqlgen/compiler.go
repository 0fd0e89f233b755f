package sqlgen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/satishbabariya/sqlkit/query/ast"
	"github.com/satishbabariya/sqlkit/runtime/types"
)

const timestampFormat = "'%Y-%m-%dT%H:%M:%f'"

// renderContext tracks placeholder numbering for one statement.
// Nested renders (sub-selects, limit rewrites) share it so placeholders are
// numbered in emission order across the whole statement.
type renderContext struct {
	placeholders int
}

func newRenderContext() *renderContext {
	return &renderContext{}
}

// next returns the next positional placeholder
func (ctx *renderContext) next() string {
	ctx.placeholders++
	return "$" + strconv.Itoa(ctx.placeholders)
}

// renderExpr renders a single expression node
func (ctx *renderContext) renderExpr(expr ast.Expression) string {
	switch e := expr.(type) {
	case ast.Identifier:
		return e.Name
	case ast.Literal:
		return e.SQL
	case ast.ValueExpr:
		return ctx.renderValue(e.Value)
	case ast.Coalesce:
		return "COALESCE(" + ctx.renderList(e.Exprs) + ")"
	case ast.SubSelect:
		return "(" + ctx.renderSelect(e.Select) + ")"
	case ast.Comparison:
		return ctx.renderComparison(e)
	case ast.InList:
		op := "IN"
		if e.Negated {
			op = "NOT IN"
		}
		return fmt.Sprintf("%s %s (%s)", ctx.renderExpr(e.Left), op, ctx.renderList(e.Values))
	case ast.InSelect:
		op := "IN"
		if e.Negated {
			op = "NOT IN"
		}
		left := ctx.renderExpr(e.Left)
		return fmt.Sprintf("%s %s (%s)", left, op, ctx.renderSelect(e.Select))
	case ast.And:
		return ctx.renderBoolean(e.Exprs, "AND", "1 = 1")
	case ast.Or:
		return ctx.renderBoolean(e.Exprs, "OR", "1 = 0")
	case ast.Not:
		return "NOT (" + ctx.renderExpr(e.Expr) + ")"
	case ast.Like:
		left := ctx.renderExpr(e.Left)
		return left + " LIKE " + ctx.renderExpr(e.Pattern)
	case nil:
		panic("sqlgen: nil expression")
	default:
		panic(fmt.Sprintf("sqlgen: unhandled expression %T", expr))
	}
}

// renderValue renders a value, consuming a placeholder only when the value is bound
func (ctx *renderContext) renderValue(v types.Value) string {
	switch {
	case v.IsNull():
		return "NULL"
	case v.Kind() == types.KindNow:
		return "strftime(" + timestampFormat + ", 'now')"
	case v.Kind() == types.KindNowAdd:
		return "strftime(" + timestampFormat + ", 'now', " + quoteString(v.Modifier()) + ")"
	default:
		return ctx.next()
	}
}

func (ctx *renderContext) renderComparison(c ast.Comparison) string {
	left := ctx.renderExpr(c.Left)
	if isNullValue(c.Right) {
		switch c.Operator {
		case ast.OpEq:
			return left + " IS NULL"
		case ast.OpNe:
			return left + " IS NOT NULL"
		default:
			panic(fmt.Sprintf("sqlgen: cannot compare %s %s NULL", left, c.Operator))
		}
	}
	return left + " " + string(c.Operator) + " " + ctx.renderExpr(c.Right)
}

func (ctx *renderContext) renderBoolean(exprs []ast.Expression, op, empty string) string {
	if len(exprs) == 0 {
		return empty
	}
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		parts[i] = "(" + ctx.renderExpr(e) + ")"
	}
	return strings.Join(parts, " "+op+" ")
}

func (ctx *renderContext) renderList(exprs []ast.Expression) string {
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		parts[i] = ctx.renderExpr(e)
	}
	return strings.Join(parts, ", ")
}

// renderFilters renders a filter list joined with AND, without the WHERE keyword
func (ctx *renderContext) renderFilters(filters []ast.Expression) string {
	if len(filters) == 1 {
		return ctx.renderExpr(filters[0])
	}
	return ctx.renderBoolean(filters, "AND", "1 = 1")
}

func (ctx *renderContext) renderSelect(sel *ast.Select) string {
	var parts []string

	columns := "*"
	if len(sel.Columns) > 0 {
		columns = strings.Join(sel.Columns, ", ")
	}
	if sel.Distinct {
		parts = append(parts, "SELECT DISTINCT "+columns)
	} else {
		parts = append(parts, "SELECT "+columns)
	}
	parts = append(parts, "FROM "+sel.Table)

	for _, j := range sel.Joins {
		parts = append(parts, renderJoin(j))
	}

	if len(sel.Filters) > 0 {
		parts = append(parts, "WHERE "+ctx.renderFilters(sel.Filters))
	}

	if len(sel.Sorts) > 0 {
		sorts := make([]string, len(sel.Sorts))
		for i, s := range sel.Sorts {
			direction := ast.SortAsc
			if s.Direction == ast.SortDesc {
				direction = ast.SortDesc
			}
			sorts[i] = ctx.renderExpr(s.Expr) + " " + string(direction)
		}
		parts = append(parts, "ORDER BY "+strings.Join(sorts, ", "))
	}

	if sel.Limit != nil {
		parts = append(parts, "LIMIT "+strconv.Itoa(*sel.Limit))
	}

	return strings.Join(parts, " ")
}

func renderJoin(j ast.Join) string {
	kind := "JOIN"
	if j.Left {
		kind = "LEFT JOIN"
	}
	return fmt.Sprintf("%s %s ON %s", kind, j.Table, j.On)
}

func isNullValue(expr ast.Expression) bool {
	v, ok := expr.(ast.ValueExpr)
	return ok && v.Value.IsNull()
}

// quoteString renders a single-quoted SQL string literal
func quoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
