// Package alter applies ALTER TABLE operations to SQLite, emulating the
// column changes SQLite cannot express natively.
package alter

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	version "github.com/hashicorp/go-version"

	"github.com/satishbabariya/sqlkit/internal/debug"
	"github.com/satishbabariya/sqlkit/migrate/introspect"
	"github.com/satishbabariya/sqlkit/migrate/schema"
	"github.com/satishbabariya/sqlkit/migrate/sqlgen"
	"github.com/satishbabariya/sqlkit/query"
)

// Minimum engine versions for the native column statements
var (
	dropColumnVersion   = version.Must(version.NewVersion("3.35.0"))
	renameColumnVersion = version.Must(version.NewVersion("3.25.0"))
)

// Conn is the handle alterations run on
type Conn interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

// TxBeginner is a Conn that can start its own transaction. A *sql.Conn
// satisfies it; a *sql.Tx does not, and alterations on a transaction run
// inside a savepoint instead.
type TxBeginner interface {
	Conn
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// Emulator applies AlterTable statements
type Emulator struct {
	conn    Conn
	inspect *introspect.SQLiteIntrospector
	engine  *version.Version
}

// New creates an emulator bound to conn. conn must be a single connection
// (*sql.Conn) or a transaction (*sql.Tx); PRAGMA state does not carry
// across a pool.
func New(conn Conn) *Emulator {
	return &Emulator{
		conn:    conn,
		inspect: introspect.NewSQLiteIntrospector(conn),
	}
}

// Apply runs the operations of at in order. Each operation is atomic; a
// failure stops the remaining operations.
func (e *Emulator) Apply(ctx context.Context, at *schema.AlterTable) error {
	for _, op := range at.Operations {
		if err := e.apply(ctx, at.Name, op); err != nil {
			return fmt.Errorf("alter table %s: %w", at.Name, err)
		}
	}
	return nil
}

func (e *Emulator) apply(ctx context.Context, table string, op schema.AlterOperation) error {
	switch op := op.(type) {
	case schema.AddColumn:
		stmt, err := sqlgen.GenerateAddColumn(table, op)
		if err != nil {
			return err
		}
		return e.exec(ctx, e.conn, stmt)

	case schema.DropColumn:
		if err := e.require(ctx, dropColumnVersion, "DROP COLUMN"); err != nil {
			return err
		}
		return e.exec(ctx, e.conn, sqlgen.GenerateDropColumn(table, op.Name))

	case schema.RenameColumn:
		if err := e.require(ctx, renameColumnVersion, "RENAME COLUMN"); err != nil {
			return err
		}
		return e.exec(ctx, e.conn, sqlgen.GenerateRenameColumn(table, op.OldName, op.NewName))

	case schema.ModifyColumn:
		return e.modifyColumn(ctx, table, op)

	default:
		return fmt.Errorf("%w: unknown alter operation %T", query.ErrInvalidRequest, op)
	}
}

// engineVersion caches sqlite_version() for the emulator's lifetime
func (e *Emulator) engineVersion(ctx context.Context) (*version.Version, error) {
	if e.engine == nil {
		v, err := e.inspect.Version(ctx)
		if err != nil {
			return nil, err
		}
		e.engine = v
	}
	return e.engine, nil
}

func (e *Emulator) supports(ctx context.Context, minimum *version.Version) (bool, error) {
	v, err := e.engineVersion(ctx)
	if err != nil {
		return false, err
	}
	return v.GreaterThanOrEqual(minimum), nil
}

func (e *Emulator) require(ctx context.Context, minimum *version.Version, feature string) error {
	ok, err := e.supports(ctx, minimum)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s needs SQLite %s, have %s", query.ErrUnsupported, feature, minimum, e.engine)
	}
	return nil
}

// Feature is a native statement the emulator relies on when available
type Feature struct {
	Name      string
	Minimum   *version.Version
	Available bool
}

// Features reports which native column statements the engine supports
func (e *Emulator) Features(ctx context.Context) ([]Feature, error) {
	features := []Feature{
		{Name: "RENAME COLUMN", Minimum: renameColumnVersion},
		{Name: "DROP COLUMN", Minimum: dropColumnVersion},
	}
	for i := range features {
		ok, err := e.supports(ctx, features[i].Minimum)
		if err != nil {
			return nil, err
		}
		features[i].Available = ok
	}
	return features, nil
}

// EngineVersion returns the SQLite library version
func (e *Emulator) EngineVersion(ctx context.Context) (*version.Version, error) {
	return e.engineVersion(ctx)
}

func (e *Emulator) exec(ctx context.Context, conn Conn, stmt string) error {
	debug.Debug("executing schema statement", "sql", stmt)
	if _, err := conn.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("%s: %w", firstWords(stmt), err)
	}
	return nil
}

// tempName derives a collision-free name for a temporary table or column
func tempName(base string) string {
	return base + "_tmp_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// firstWords labels a statement in error messages
func firstWords(stmt string) string {
	fields := strings.Fields(stmt)
	if len(fields) > 3 {
		fields = fields[:3]
	}
	return strings.Join(fields, " ")
}
