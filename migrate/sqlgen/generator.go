// Package sqlgen generates SQLite DDL for schema statements.
package sqlgen

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/satishbabariya/sqlkit/migrate/schema"
	"github.com/satishbabariya/sqlkit/query"
	"github.com/satishbabariya/sqlkit/runtime/types"
)

// QuoteIdentifier quotes an identifier for SQLite
func QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// DataTypeSQL renders a column type
func DataTypeSQL(t schema.DataType) (string, error) {
	switch t.Kind {
	case schema.TypeText, schema.TypeBool, schema.TypeSmallInt, schema.TypeInt,
		schema.TypeBigInt, schema.TypeReal, schema.TypeDouble, schema.TypeDateTime:
		return string(t.Kind), nil
	case schema.TypeVarChar:
		if t.Length <= 0 {
			return "VARCHAR", nil
		}
		return fmt.Sprintf("VARCHAR(%d)", t.Length), nil
	case schema.TypeDecimal:
		if t.Precision <= 0 {
			return "DECIMAL", nil
		}
		return fmt.Sprintf("DECIMAL(%d, %d)", t.Precision, t.Scale), nil
	case "":
		return "", fmt.Errorf("%w: missing column type", query.ErrInvalidRequest)
	default:
		return "", fmt.Errorf("%w: unknown column type %s", query.ErrInvalidRequest, t.Kind)
	}
}

// DefaultSQL renders a DEFAULT expression
func DefaultSQL(v types.Value) (string, error) {
	if v.IsNull() {
		return "NULL", nil
	}
	switch v.Kind() {
	case types.KindString:
		s, _ := v.AsString()
		return "'" + strings.ReplaceAll(s, "'", "''") + "'", nil
	case types.KindNumber:
		n, _ := v.AsNumber()
		return strconv.FormatInt(n, 10), nil
	case types.KindUNumber:
		u, _ := v.AsUNumber()
		if u > math.MaxInt64 {
			return "", fmt.Errorf("%w: default %d overflows INTEGER", query.ErrInvalidRequest, u)
		}
		return strconv.FormatUint(u, 10), nil
	case types.KindReal:
		f, _ := v.AsReal()
		return strconv.FormatFloat(f, 'g', -1, 64), nil
	case types.KindBool:
		if b, _ := v.AsBool(); b {
			return "1", nil
		}
		return "0", nil
	case types.KindNow:
		return "(strftime('%Y-%m-%dT%H:%M:%f', 'now'))", nil
	default:
		return "", fmt.Errorf("%w: unsupported default value type %s", query.ErrInvalidRequest, v.Kind())
	}
}

// ColumnDefinition renders "name TYPE [NOT NULL] [DEFAULT x]"
func ColumnDefinition(name string, t schema.DataType, nullable bool, def *types.Value) (string, error) {
	typeSQL, err := DataTypeSQL(t)
	if err != nil {
		return "", err
	}

	parts := []string{QuoteIdentifier(name), typeSQL}
	if !nullable {
		parts = append(parts, "NOT NULL")
	}
	if def != nil {
		defSQL, err := DefaultSQL(*def)
		if err != nil {
			return "", err
		}
		parts = append(parts, "DEFAULT "+defSQL)
	}
	return strings.Join(parts, " "), nil
}

// GenerateCreateTable renders a CREATE TABLE statement
func GenerateCreateTable(ct *schema.CreateTable) (string, error) {
	if len(ct.Columns) == 0 {
		return "", fmt.Errorf("%w: table %s has no columns", query.ErrInvalidRequest, ct.Name)
	}

	inlinePrimaryKey := false
	defs := make([]string, 0, len(ct.Columns)+len(ct.ForeignKeys)+1)
	for _, col := range ct.Columns {
		if col.AutoIncrement {
			if col.Name != ct.PrimaryKey {
				return "", fmt.Errorf("%w: autoincrement column %s must be the primary key", query.ErrInvalidRequest, col.Name)
			}
			// AUTOINCREMENT is only accepted on an INTEGER PRIMARY KEY
			defs = append(defs, QuoteIdentifier(col.Name)+" INTEGER PRIMARY KEY AUTOINCREMENT")
			inlinePrimaryKey = true
			continue
		}

		def, err := ColumnDefinition(col.Name, col.Type, col.Nullable, col.Default)
		if err != nil {
			return "", fmt.Errorf("column %s: %w", col.Name, err)
		}
		defs = append(defs, def)
	}

	if ct.PrimaryKey != "" && !inlinePrimaryKey {
		defs = append(defs, "PRIMARY KEY ("+QuoteIdentifier(ct.PrimaryKey)+")")
	}

	for _, fk := range ct.ForeignKeys {
		def := fmt.Sprintf("FOREIGN KEY (%s) REFERENCES %s (%s)",
			QuoteIdentifier(fk.Column), QuoteIdentifier(fk.ReferencedTable), QuoteIdentifier(fk.ReferencedColumn))
		if fk.OnDelete != "" {
			def += " ON DELETE " + fk.OnDelete
		}
		if fk.OnUpdate != "" {
			def += " ON UPDATE " + fk.OnUpdate
		}
		defs = append(defs, def)
	}

	var sb strings.Builder
	sb.WriteString("CREATE TABLE ")
	if ct.IfNotExists {
		sb.WriteString("IF NOT EXISTS ")
	}
	sb.WriteString(QuoteIdentifier(ct.Name))
	sb.WriteString(" (")
	sb.WriteString(strings.Join(defs, ", "))
	sb.WriteString(")")
	return sb.String(), nil
}

// GenerateDropTable renders a DROP TABLE statement
func GenerateDropTable(dt *schema.DropTable) string {
	if dt.IfExists {
		return "DROP TABLE IF EXISTS " + QuoteIdentifier(dt.Name)
	}
	return "DROP TABLE " + QuoteIdentifier(dt.Name)
}

// GenerateCreateIndex renders a CREATE INDEX statement
func GenerateCreateIndex(ci *schema.CreateIndex) (string, error) {
	if len(ci.Columns) == 0 {
		return "", fmt.Errorf("%w: index %s has no columns", query.ErrInvalidRequest, ci.Name)
	}

	cols := make([]string, len(ci.Columns))
	for i, c := range ci.Columns {
		cols[i] = QuoteIdentifier(c)
	}

	var sb strings.Builder
	sb.WriteString("CREATE ")
	if ci.Unique {
		sb.WriteString("UNIQUE ")
	}
	sb.WriteString("INDEX ")
	if ci.IfNotExists {
		sb.WriteString("IF NOT EXISTS ")
	}
	fmt.Fprintf(&sb, "%s ON %s (%s)", QuoteIdentifier(ci.Name), QuoteIdentifier(ci.Table), strings.Join(cols, ", "))
	return sb.String(), nil
}

// GenerateDropIndex renders a DROP INDEX statement. SQLite index names are
// schema-wide, so the table is not part of the statement.
func GenerateDropIndex(di *schema.DropIndex) string {
	if di.IfExists {
		return "DROP INDEX IF EXISTS " + QuoteIdentifier(di.Name)
	}
	return "DROP INDEX " + QuoteIdentifier(di.Name)
}

// GenerateAddColumn renders ALTER TABLE ... ADD COLUMN
// SQLite only accepts constant defaults there, so Now is rejected.
func GenerateAddColumn(table string, op schema.AddColumn) (string, error) {
	if op.Default != nil && op.Default.Kind() == types.KindNow {
		return "", fmt.Errorf("%w: ADD COLUMN %s cannot default to the current time", query.ErrInvalidRequest, op.Name)
	}
	def, err := ColumnDefinition(op.Name, op.Type, op.Nullable, op.Default)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", QuoteIdentifier(table), def), nil
}

// GenerateDropColumn renders ALTER TABLE ... DROP COLUMN
func GenerateDropColumn(table, column string) string {
	return fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", QuoteIdentifier(table), QuoteIdentifier(column))
}

// GenerateRenameColumn renders ALTER TABLE ... RENAME COLUMN
func GenerateRenameColumn(table, oldName, newName string) string {
	return fmt.Sprintf("ALTER TABLE %s RENAME COLUMN %s TO %s",
		QuoteIdentifier(table), QuoteIdentifier(oldName), QuoteIdentifier(newName))
}

// GenerateRenameTable renders ALTER TABLE ... RENAME TO
func GenerateRenameTable(oldName, newName string) string {
	return fmt.Sprintf("ALTER TABLE %s RENAME TO %s", QuoteIdentifier(oldName), QuoteIdentifier(newName))
}
