// Package schema defines the schema statements accepted by the migrate layer.
package schema

import (
	"github.com/satishbabariya/sqlkit/runtime/types"
)

// DataTypeKind enumerates the column types sqlkit can declare
type DataTypeKind string

const (
	TypeText     DataTypeKind = "TEXT"
	TypeVarChar  DataTypeKind = "VARCHAR"
	TypeBool     DataTypeKind = "BOOLEAN"
	TypeSmallInt DataTypeKind = "SMALLINT"
	TypeInt      DataTypeKind = "INTEGER"
	TypeBigInt   DataTypeKind = "BIGINT"
	TypeReal     DataTypeKind = "REAL"
	TypeDouble   DataTypeKind = "DOUBLE"
	TypeDecimal  DataTypeKind = "DECIMAL"
	TypeDateTime DataTypeKind = "DATETIME"
)

// DataType is a column type with its optional size arguments
type DataType struct {
	Kind DataTypeKind
	// Length applies to VARCHAR
	Length int
	// Precision and Scale apply to DECIMAL
	Precision int
	Scale     int
}

// Common data types
var (
	Text     = DataType{Kind: TypeText}
	Bool     = DataType{Kind: TypeBool}
	SmallInt = DataType{Kind: TypeSmallInt}
	Int      = DataType{Kind: TypeInt}
	BigInt   = DataType{Kind: TypeBigInt}
	Real     = DataType{Kind: TypeReal}
	Double   = DataType{Kind: TypeDouble}
	DateTime = DataType{Kind: TypeDateTime}
)

// VarChar returns a VARCHAR(n) type
func VarChar(n int) DataType { return DataType{Kind: TypeVarChar, Length: n} }

// Decimal returns a DECIMAL(p, s) type
func Decimal(precision, scale int) DataType {
	return DataType{Kind: TypeDecimal, Precision: precision, Scale: scale}
}

// Column is a column definition
type Column struct {
	Name          string
	Type          DataType
	Nullable      bool
	AutoIncrement bool
	Default       *types.Value
}

// ForeignKey is a single-column foreign key of a created table
type ForeignKey struct {
	Column           string
	ReferencedTable  string
	ReferencedColumn string
	OnDelete         string
	OnUpdate         string
}

// CreateTable creates a table
type CreateTable struct {
	Name        string
	IfNotExists bool
	Columns     []Column
	PrimaryKey  string
	ForeignKeys []ForeignKey
}

// DropTable drops a table
type DropTable struct {
	Name     string
	IfExists bool
}

// CreateIndex creates an index
type CreateIndex struct {
	Name        string
	Table       string
	Columns     []string
	Unique      bool
	IfNotExists bool
}

// DropIndex drops an index
type DropIndex struct {
	Name     string
	Table    string
	IfExists bool
}

// AlterTable applies operations to a table in order
type AlterTable struct {
	Name       string
	Operations []AlterOperation
}

// AlterOperation is one change of an AlterTable. The set of
// implementations is closed.
type AlterOperation interface {
	alterOperation()
}

// AddColumn adds a column
type AddColumn struct {
	Name     string
	Type     DataType
	Nullable bool
	Default  *types.Value
}

// DropColumn drops a column
type DropColumn struct {
	Name string
}

// RenameColumn renames a column
type RenameColumn struct {
	OldName string
	NewName string
}

// ModifyColumn changes the type, nullability or default of a column.
// Nil NewNullable or NewDefault keep the current setting.
type ModifyColumn struct {
	Name        string
	NewType     DataType
	NewNullable *bool
	NewDefault  *types.Value
}

func (AddColumn) alterOperation()    {}
func (DropColumn) alterOperation()   {}
func (RenameColumn) alterOperation() {}
func (ModifyColumn) alterOperation() {}
