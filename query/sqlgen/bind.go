package sqlgen

import (
	"fmt"
	"math"

	"github.com/satishbabariya/sqlkit/query"
	"github.com/satishbabariya/sqlkit/query/ast"
	"github.com/satishbabariya/sqlkit/runtime/types"
)

// binder collects bound values in placeholder order. It walks expressions in
// exactly the order renderContext emits them.
type binder struct {
	values []types.Value
}

func (b *binder) expr(expr ast.Expression) {
	switch e := expr.(type) {
	case ast.Identifier, ast.Literal:
	case ast.ValueExpr:
		b.value(e.Value)
	case ast.Coalesce:
		b.exprs(e.Exprs)
	case ast.SubSelect:
		b.selectStmt(e.Select)
	case ast.Comparison:
		b.expr(e.Left)
		if !isNullValue(e.Right) {
			b.expr(e.Right)
		}
	case ast.InList:
		b.expr(e.Left)
		b.exprs(e.Values)
	case ast.InSelect:
		b.expr(e.Left)
		b.selectStmt(e.Select)
	case ast.And:
		b.exprs(e.Exprs)
	case ast.Or:
		b.exprs(e.Exprs)
	case ast.Not:
		b.expr(e.Expr)
	case ast.Like:
		b.expr(e.Left)
		b.expr(e.Pattern)
	}
}

func (b *binder) exprs(exprs []ast.Expression) {
	for _, e := range exprs {
		b.expr(e)
	}
}

func (b *binder) value(v types.Value) {
	if v.IsNull() || v.IsServerTime() {
		return
	}
	b.values = append(b.values, v)
}

func (b *binder) assignments(values []ast.Assignment) {
	for _, v := range values {
		b.expr(v.Expr)
	}
}

func (b *binder) selectStmt(sel *ast.Select) {
	b.exprs(sel.Filters)
	for _, s := range sel.Sorts {
		b.expr(s.Expr)
	}
}

// BindValues returns the values bound by the given assignments and filters,
// in placeholder order: assignments, then filters, then the filters again
// when repeatFilters is set (row-limit rewrite).
func BindValues(values []ast.Assignment, filters []ast.Expression, repeatFilters bool) []types.Value {
	b := &binder{}
	b.assignments(values)
	b.exprs(filters)
	if repeatFilters {
		b.exprs(filters)
	}
	return b.values
}

// CountParams returns the number of placeholders a row of assignments consumes
func CountParams(row []ast.Assignment) int {
	b := &binder{}
	b.assignments(row)
	return len(b.values)
}

// Args converts bound values into driver arguments.
func Args(values []types.Value) ([]interface{}, error) {
	args := make([]interface{}, len(values))
	for i, v := range values {
		arg, err := driverValue(v)
		if err != nil {
			return nil, fmt.Errorf("parameter $%d: %w", i+1, err)
		}
		args[i] = arg
	}
	return args, nil
}

func driverValue(v types.Value) (interface{}, error) {
	if v.IsNull() {
		return nil, nil
	}
	switch v.Kind() {
	case types.KindBool:
		b, _ := v.AsBool()
		return b, nil
	case types.KindNumber:
		n, _ := v.AsNumber()
		return n, nil
	case types.KindUNumber:
		u, _ := v.AsUNumber()
		if u > math.MaxInt64 {
			return nil, fmt.Errorf("%w: unsigned value %d overflows INTEGER", query.ErrInvalidRequest, u)
		}
		return int64(u), nil
	case types.KindReal:
		f, _ := v.AsReal()
		return f, nil
	case types.KindString:
		s, _ := v.AsString()
		return s, nil
	case types.KindDateTime:
		t, _ := v.AsDateTime()
		return t, nil
	default:
		return nil, fmt.Errorf("%w: %s cannot be bound", query.ErrInvalidRequest, v.Kind())
	}
}
