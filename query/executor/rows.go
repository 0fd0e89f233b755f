package executor

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/satishbabariya/sqlkit/query"
	"github.com/satishbabariya/sqlkit/runtime/types"
)

// columnFamily is the value family a declared column type maps to
type columnFamily int

const (
	familyDynamic columnFamily = iota
	familyBool
	familyInteger
	familyReal
	familyText
	familyTimestamp
)

var columnFamilies = map[string]columnFamily{
	"BOOL":              familyBool,
	"BOOLEAN":           familyBool,
	"INT":               familyInteger,
	"INTEGER":           familyInteger,
	"TINYINT":           familyInteger,
	"SMALLINT":          familyInteger,
	"MEDIUMINT":         familyInteger,
	"BIGINT":            familyInteger,
	"INT2":              familyInteger,
	"INT8":              familyInteger,
	"UNSIGNED BIG INT":  familyInteger,
	"REAL":              familyReal,
	"DOUBLE":            familyReal,
	"DOUBLE PRECISION":  familyReal,
	"FLOAT":             familyReal,
	"NUMERIC":           familyReal,
	"DECIMAL":           familyReal,
	"TEXT":              familyText,
	"CHAR":              familyText,
	"VARCHAR":           familyText,
	"NCHAR":             familyText,
	"NVARCHAR":          familyText,
	"CLOB":              familyText,
	"CHARACTER":         familyText,
	"VARYING CHARACTER": familyText,
	"NATIVE CHARACTER":  familyText,
	"DATE":              familyTimestamp,
	"DATETIME":          familyTimestamp,
	"TIMESTAMP":         familyTimestamp,
	"TIME":              familyTimestamp,
}

// familyOf maps a declared column type to its family. An empty type
// (expression columns) is dynamic.
func familyOf(typeName string) (columnFamily, error) {
	name := strings.ToUpper(strings.TrimSpace(typeName))
	if i := strings.IndexByte(name, '('); i >= 0 {
		name = strings.TrimSpace(name[:i])
	}
	if name == "" {
		return familyDynamic, nil
	}
	if f, ok := columnFamilies[name]; ok {
		return f, nil
	}
	return familyDynamic, fmt.Errorf("%w: %q", query.ErrUnsupportedColumnType, typeName)
}

// RowIterator streams rows of an executed statement
type RowIterator struct {
	stmt *sql.Stmt
	// ownsStmt is false for statements owned by the statement cache
	ownsStmt bool
	// onFailure runs at Close when the statement failed while stepping
	onFailure func()
	rows      *sql.Rows
	columns   []string
	families  []columnFamily
	closed    bool
	err       error
}

func newRowIterator(stmt *sql.Stmt, rows *sql.Rows, ownsStmt bool) (*RowIterator, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}

	columnTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("failed to get column types: %w", err)
	}

	families := make([]columnFamily, len(columnTypes))
	for i, ct := range columnTypes {
		f, err := familyOf(ct.DatabaseTypeName())
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", columns[i], err)
		}
		families[i] = f
	}

	return &RowIterator{
		stmt:     stmt,
		ownsStmt: ownsStmt,
		rows:     rows,
		columns:  columns,
		families: families,
	}, nil
}

// Columns returns the result column names in order
func (it *RowIterator) Columns() []string {
	return it.columns
}

// Next advances to the next row
func (it *RowIterator) Next() bool {
	if it.closed || it.err != nil {
		return false
	}
	return it.rows.Next()
}

// Row converts the current row
func (it *RowIterator) Row() (types.Row, error) {
	raw := make([]interface{}, len(it.columns))
	ptrs := make([]interface{}, len(it.columns))
	for i := range raw {
		ptrs[i] = &raw[i]
	}

	if err := it.rows.Scan(ptrs...); err != nil {
		it.err = fmt.Errorf("failed to scan row: %w", err)
		return types.Row{}, it.err
	}

	row := types.Row{Columns: make([]types.Column, len(it.columns))}
	for i, name := range it.columns {
		v, err := convertValue(it.families[i], raw[i])
		if err != nil {
			it.err = fmt.Errorf("column %s: %w", name, err)
			return types.Row{}, it.err
		}
		row.Columns[i] = types.Column{Name: name, Value: v}
	}
	return row, nil
}

// Err returns the first error encountered while iterating
func (it *RowIterator) Err() error {
	if it.err != nil {
		return it.err
	}
	if err := it.rows.Err(); err != nil {
		return fmt.Errorf("row iteration failed: %w", err)
	}
	return nil
}

// Close releases the rows and the prepared statement. It is safe to call
// more than once.
func (it *RowIterator) Close() error {
	if it.closed {
		return nil
	}
	it.closed = true

	failed := it.rows.Err() != nil
	rowsErr := it.rows.Close()
	if (failed || rowsErr != nil) && it.onFailure != nil {
		it.onFailure()
	}
	if !it.ownsStmt {
		return rowsErr
	}
	stmtErr := it.stmt.Close()
	if rowsErr != nil {
		return rowsErr
	}
	return stmtErr
}

// All drains the iterator and closes it
func (it *RowIterator) All() ([]types.Row, error) {
	defer it.Close()

	var out []types.Row
	for it.Next() {
		row, err := it.Row()
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return out, it.Close()
}

func convertValue(family columnFamily, src interface{}) (types.Value, error) {
	if src == nil {
		return types.Null(), nil
	}

	switch family {
	case familyBool:
		switch v := src.(type) {
		case bool:
			return types.Bool(v), nil
		case int64:
			return types.Bool(v != 0), nil
		}
	case familyInteger:
		switch v := src.(type) {
		case int64:
			return types.Number(v), nil
		case float64:
			return types.Real(v), nil
		case bool:
			return types.Bool(v), nil
		case string:
			return types.String(v), nil
		}
	case familyReal:
		switch v := src.(type) {
		case float64:
			return types.Real(v), nil
		case int64:
			return types.Real(float64(v)), nil
		case string:
			return types.String(v), nil
		}
	case familyText:
		switch v := src.(type) {
		case string:
			return types.String(v), nil
		case []byte:
			return types.String(string(v)), nil
		case int64:
			return types.String(strconv.FormatInt(v, 10)), nil
		case float64:
			return types.String(strconv.FormatFloat(v, 'g', -1, 64)), nil
		}
	case familyTimestamp:
		switch v := src.(type) {
		case time.Time:
			return types.DateTime(v), nil
		case string:
			if t, ok := parseTimestamp(v); ok {
				return types.DateTime(t), nil
			}
		case int64:
			return types.DateTime(time.Unix(v, 0).UTC()), nil
		}
	case familyDynamic:
		switch v := src.(type) {
		case int64:
			return types.Number(v), nil
		case float64:
			return types.Real(v), nil
		case string:
			return types.String(v), nil
		case []byte:
			return types.String(string(v)), nil
		case bool:
			return types.Bool(v), nil
		case time.Time:
			return types.DateTime(v), nil
		}
	}

	return types.Value{}, fmt.Errorf("%w: cannot read %T", query.ErrUnsupportedColumnType, src)
}

func parseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSuffix(s, "Z")
	for _, format := range sqlite3.SQLiteTimestampFormats {
		if t, err := time.ParseInLocation(format, s, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
