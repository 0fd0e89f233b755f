// Package ast defines the statement model compiled by query/sqlgen.
package ast

import (
	"github.com/satishbabariya/sqlkit/runtime/types"
)

// Expression is a scalar or boolean expression node.
//
// The set of implementations is closed; sqlgen switches over all of them.
type Expression interface {
	expression()
}

// Identifier is a column or table reference, emitted verbatim
type Identifier struct {
	Name string
}

// Literal is raw SQL text, emitted verbatim
type Literal struct {
	SQL string
}

// ValueExpr is a bound value
type ValueExpr struct {
	Value types.Value
}

// Coalesce renders COALESCE(a, b, ...)
type Coalesce struct {
	Exprs []Expression
}

// SubSelect is a nested SELECT used as an expression
type SubSelect struct {
	Select *Select
}

// ComparisonOperator is the operator of a Comparison
type ComparisonOperator string

const (
	OpEq  ComparisonOperator = "="
	OpNe  ComparisonOperator = "!="
	OpGt  ComparisonOperator = ">"
	OpGte ComparisonOperator = ">="
	OpLt  ComparisonOperator = "<"
	OpLte ComparisonOperator = "<="
)

// Ordered reports whether the operator requires an ordering of its operands
func (op ComparisonOperator) Ordered() bool {
	switch op {
	case OpGt, OpGte, OpLt, OpLte:
		return true
	}
	return false
}

// Comparison is a binary comparison
type Comparison struct {
	Left     Expression
	Operator ComparisonOperator
	Right    Expression
}

// InList is "left IN (values...)", Negated gives NOT IN
type InList struct {
	Left    Expression
	Values  []Expression
	Negated bool
}

// InSelect is "left IN (SELECT ...)", Negated gives NOT IN
type InSelect struct {
	Left    Expression
	Select  *Select
	Negated bool
}

// And joins its children with AND
type And struct {
	Exprs []Expression
}

// Or joins its children with OR
type Or struct {
	Exprs []Expression
}

// Not negates its child
type Not struct {
	Expr Expression
}

// Like is "left LIKE pattern"
type Like struct {
	Left    Expression
	Pattern Expression
}

func (Identifier) expression() {}
func (Literal) expression()    {}
func (ValueExpr) expression()  {}
func (Coalesce) expression()   {}
func (SubSelect) expression()  {}
func (Comparison) expression() {}
func (InList) expression()     {}
func (InSelect) expression()   {}
func (And) expression()        {}
func (Or) expression()         {}
func (Not) expression()        {}
func (Like) expression()       {}

// SortDirection represents sort direction
type SortDirection string

const (
	SortAsc  SortDirection = "ASC"
	SortDesc SortDirection = "DESC"
)

// Sort is an ORDER BY term
type Sort struct {
	Expr      Expression
	Direction SortDirection
}

// Join is a JOIN descriptor. On is raw SQL.
type Join struct {
	Table string
	On    string
	Left  bool
}

// Assignment pairs a column with the expression written to it
type Assignment struct {
	Column string
	Expr   Expression
}

// Columns returns the assigned column names in order
func Columns(values []Assignment) []string {
	cols := make([]string, len(values))
	for i, v := range values {
		cols[i] = v.Column
	}
	return cols
}
