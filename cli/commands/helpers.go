package commands

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/satishbabariya/sqlkit/migrate/schema"
	"github.com/satishbabariya/sqlkit/query/ast"
	"github.com/satishbabariya/sqlkit/runtime/types"
)

var typePattern = regexp.MustCompile(`^\s*([A-Za-z]+)\s*(?:\(\s*(\d+)\s*(?:,\s*(\d+)\s*)?\))?\s*$`)

// parseType reads a column type such as "TEXT", "VARCHAR(32)" or
// "DECIMAL(10,2)"
func parseType(s string) (schema.DataType, error) {
	m := typePattern.FindStringSubmatch(s)
	if m == nil {
		return schema.DataType{}, fmt.Errorf("invalid column type %q", s)
	}

	kind := schema.DataTypeKind(strings.ToUpper(m[1]))
	switch kind {
	case "INT":
		kind = schema.TypeInt
	case "BOOL":
		kind = schema.TypeBool
	case "STRING":
		kind = schema.TypeText
	}

	t := schema.DataType{Kind: kind}
	switch kind {
	case schema.TypeVarChar:
		if m[2] != "" {
			t.Length, _ = strconv.Atoi(m[2])
		}
	case schema.TypeDecimal:
		if m[2] != "" {
			t.Precision, _ = strconv.Atoi(m[2])
			t.Scale, _ = strconv.Atoi(m[3])
		}
	case schema.TypeText, schema.TypeBool, schema.TypeSmallInt, schema.TypeInt,
		schema.TypeBigInt, schema.TypeReal, schema.TypeDouble, schema.TypeDateTime:
		if m[2] != "" {
			return schema.DataType{}, fmt.Errorf("type %s takes no size", kind)
		}
	default:
		return schema.DataType{}, fmt.Errorf("unknown column type %q", m[1])
	}
	return t, nil
}

// parseValue reads a command line literal. Quoted text is always a string;
// null, now, true, false and numbers are recognized otherwise.
func parseValue(s string) types.Value {
	if len(s) >= 2 && (s[0] == '\'' && s[len(s)-1] == '\'' || s[0] == '"' && s[len(s)-1] == '"') {
		return types.String(s[1 : len(s)-1])
	}

	switch strings.ToLower(s) {
	case "null":
		return types.Null()
	case "now":
		return types.Now()
	case "true":
		return types.Bool(true)
	case "false":
		return types.Bool(false)
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return types.Number(n)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return types.Real(f)
	}
	return types.String(s)
}

// whereOperators are tried in order, longest first
var whereOperators = []string{">=", "<=", "!=", "~", "=", ">", "<"}

// parseWhere reads a filter such as "plays>=10", "title~%intro%" or
// "album=null"
func parseWhere(s string) (ast.Expression, error) {
	for _, op := range whereOperators {
		i := strings.Index(s, op)
		if i <= 0 {
			continue
		}
		column := strings.TrimSpace(s[:i])
		v := parseValue(strings.TrimSpace(s[i+len(op):]))

		switch op {
		case "~":
			return ast.Like{Left: ast.Col(column), Pattern: ast.Val(v)}, nil
		case "=":
			return ast.Eq(column, v), nil
		case "!=":
			return ast.NotEq(column, v), nil
		}
		if v.IsNull() {
			return nil, fmt.Errorf("filter %q compares against null", s)
		}
		return ast.Comparison{Left: ast.Col(column), Operator: ast.ComparisonOperator(op), Right: ast.Val(v)}, nil
	}
	return nil, fmt.Errorf("invalid filter %q, expected column<op>value", s)
}

// parseOrder reads "column" or "column:desc"
func parseOrder(s string) (ast.Sort, error) {
	column, dir, found := strings.Cut(s, ":")
	if column == "" {
		return ast.Sort{}, fmt.Errorf("invalid order %q", s)
	}
	if !found {
		return ast.Asc(column), nil
	}
	switch strings.ToLower(dir) {
	case "asc":
		return ast.Asc(column), nil
	case "desc":
		return ast.Desc(column), nil
	}
	return ast.Sort{}, fmt.Errorf("invalid sort direction %q", dir)
}
