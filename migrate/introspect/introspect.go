// Package introspect reads the schema of a SQLite database.
package introspect

import (
	"context"
	"database/sql"
)

// Querier is the read side of a connection. *sql.Conn, *sql.Tx and *sql.DB
// all satisfy it.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

// Table represents a database table
type Table struct {
	Name        string
	SQL         string
	Columns     []Column
	PrimaryKey  []string
	Indexes     []Index
	ForeignKeys []ForeignKey
}

// Column represents a table column as reported by PRAGMA table_xinfo
type Column struct {
	Name         string
	Type         string
	NotNull      bool
	DefaultValue *string
	// PrimaryKey is the 1-based position in the primary key, 0 if none
	PrimaryKey int
	Hidden     Hidden
}

// Hidden classifies hidden and generated columns
type Hidden int

const (
	HiddenNone Hidden = iota
	HiddenVirtualTable
	HiddenGeneratedVirtual
	HiddenGeneratedStored
)

// Generated reports whether the column is computed
func (c Column) Generated() bool {
	return c.Hidden == HiddenGeneratedVirtual || c.Hidden == HiddenGeneratedStored
}

// Index represents a database index
type Index struct {
	Name    string
	Columns []string
	Unique  bool
	// Origin is "c" for CREATE INDEX, "u" for UNIQUE and "pk" for PRIMARY KEY
	Origin  string
	Partial bool
}

// ForeignKey represents a foreign key constraint
type ForeignKey struct {
	ID              int
	Table           string
	Columns         []string
	ReferencedTable string
	// ReferencedColumns holds empty strings when the parent primary key is implied
	ReferencedColumns []string
	OnDelete          string
	OnUpdate          string
}

// SchemaObject is an entry of sqlite_master
type SchemaObject struct {
	Type      string
	Name      string
	TableName string
	SQL       string
}

// Violation is a row reported by PRAGMA foreign_key_check
type Violation struct {
	Table  string
	RowID  sql.NullInt64
	Parent string
	FKID   int
}
