package ast

import (
	"github.com/satishbabariya/sqlkit/runtime/types"
)

// Col references a column
func Col(name string) Identifier { return Identifier{Name: name} }

// Val wraps a value
func Val(v types.Value) ValueExpr { return ValueExpr{Value: v} }

// Raw embeds SQL text
func Raw(sql string) Literal { return Literal{SQL: sql} }

// Eq compares column = value
func Eq(column string, v types.Value) Comparison {
	return Comparison{Left: Col(column), Operator: OpEq, Right: Val(v)}
}

// NotEq compares column != value
func NotEq(column string, v types.Value) Comparison {
	return Comparison{Left: Col(column), Operator: OpNe, Right: Val(v)}
}

// Gt compares column > value
func Gt(column string, v types.Value) Comparison {
	return Comparison{Left: Col(column), Operator: OpGt, Right: Val(v)}
}

// Gte compares column >= value
func Gte(column string, v types.Value) Comparison {
	return Comparison{Left: Col(column), Operator: OpGte, Right: Val(v)}
}

// Lt compares column < value
func Lt(column string, v types.Value) Comparison {
	return Comparison{Left: Col(column), Operator: OpLt, Right: Val(v)}
}

// Lte compares column <= value
func Lte(column string, v types.Value) Comparison {
	return Comparison{Left: Col(column), Operator: OpLte, Right: Val(v)}
}

// In matches column against a list of values
func In(column string, values ...types.Value) InList {
	exprs := make([]Expression, len(values))
	for i, v := range values {
		exprs[i] = Val(v)
	}
	return InList{Left: Col(column), Values: exprs}
}

// NotIn is the negation of In
func NotIn(column string, values ...types.Value) InList {
	in := In(column, values...)
	in.Negated = true
	return in
}

// InSub matches column against a sub-select
func InSub(column string, sel *Select) InSelect {
	return InSelect{Left: Col(column), Select: sel}
}

// NotInSub is the negation of InSub
func NotInSub(column string, sel *Select) InSelect {
	return InSelect{Left: Col(column), Select: sel, Negated: true}
}

// AllOf joins expressions with AND
func AllOf(exprs ...Expression) And { return And{Exprs: exprs} }

// AnyOf joins expressions with OR
func AnyOf(exprs ...Expression) Or { return Or{Exprs: exprs} }

// Set builds an assignment
func Set(column string, v types.Value) Assignment {
	return Assignment{Column: column, Expr: Val(v)}
}

// Asc sorts ascending by column
func Asc(column string) Sort { return Sort{Expr: Col(column), Direction: SortAsc} }

// Desc sorts descending by column
func Desc(column string) Sort { return Sort{Expr: Col(column), Direction: SortDesc} }

// IntPtr returns a pointer to n, convenient for Limit fields
func IntPtr(n int) *int { return &n }
