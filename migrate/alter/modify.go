package alter

import (
	"context"
	"fmt"
	"strings"

	"github.com/satishbabariya/sqlkit/internal/debug"
	"github.com/satishbabariya/sqlkit/migrate/ddl"
	"github.com/satishbabariya/sqlkit/migrate/introspect"
	"github.com/satishbabariya/sqlkit/migrate/schema"
	"github.com/satishbabariya/sqlkit/migrate/sqlgen"
	"github.com/satishbabariya/sqlkit/query"
)

// Path is the strategy chosen for a ModifyColumn
type Path string

const (
	// PathColumn swaps the column through a temporary column
	PathColumn Path = "column"
	// PathTable rebuilds the whole table under a temporary name
	PathTable Path = "table"
)

// definition is the resolved new shape of a modified column
type definition struct {
	typeSQL    string
	notNull    bool
	defaultSQL *string
	// the caller's explicit changes, kept for the DDL rewrite
	nullChanged    bool
	defaultChanged bool
}

func (d definition) columnSQL(name string) string {
	parts := []string{sqlgen.QuoteIdentifier(name), d.typeSQL}
	if d.notNull {
		parts = append(parts, "NOT NULL")
	}
	if d.defaultSQL != nil {
		parts = append(parts, "DEFAULT "+*d.defaultSQL)
	}
	return strings.Join(parts, " ")
}

// Plan reports the path a ModifyColumn would take and why, without
// changing anything
func (e *Emulator) Plan(ctx context.Context, table string, op schema.ModifyColumn) (Path, string, error) {
	target, err := e.load(ctx, e.inspect, table, op)
	if err != nil {
		return "", "", err
	}
	return target.path, target.reason, nil
}

// target is everything known about the column being modified
type target struct {
	table  string
	column introspect.Column
	all    []introspect.Column
	create *ddl.CreateTable
	def    definition
	path   Path
	reason string
}

func (e *Emulator) load(ctx context.Context, in *introspect.SQLiteIntrospector, table string, op schema.ModifyColumn) (*target, error) {
	createSQL, err := in.TableSQL(ctx, table)
	if err != nil {
		return nil, err
	}
	ct, err := ddl.ParseCreateTable(createSQL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", query.ErrInvalidRequest, err)
	}

	columns, err := in.Columns(ctx, table)
	if err != nil {
		return nil, err
	}

	t := &target{table: table, all: columns, create: ct}
	found := false
	for _, c := range columns {
		if strings.EqualFold(c.Name, op.Name) {
			t.column = c
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("%w: column %s not found in table %s", query.ErrInvalidRequest, op.Name, table)
	}

	if t.def, err = resolve(t.column, op); err != nil {
		return nil, err
	}

	if t.reason, err = e.classify(ctx, in, t); err != nil {
		return nil, err
	}
	t.path = PathColumn
	if t.reason != "" {
		t.path = PathTable
	}
	return t, nil
}

func resolve(current introspect.Column, op schema.ModifyColumn) (definition, error) {
	typeSQL, err := sqlgen.DataTypeSQL(op.NewType)
	if err != nil {
		return definition{}, err
	}

	def := definition{
		typeSQL:    typeSQL,
		notNull:    current.NotNull,
		defaultSQL: current.DefaultValue,
	}
	if op.NewNullable != nil {
		def.notNull = !*op.NewNullable
		def.nullChanged = true
	}
	if op.NewDefault != nil {
		s, err := sqlgen.DefaultSQL(*op.NewDefault)
		if err != nil {
			return definition{}, err
		}
		def.defaultSQL = &s
		def.defaultChanged = true
	}
	return def, nil
}

// classify returns why the column needs a table rebuild, or "" when the
// temporary column swap is safe. ADD COLUMN and DROP COLUMN refuse many
// shapes the table rebuild handles, so anything they would reject goes
// down the rebuild path.
func (e *Emulator) classify(ctx context.Context, in *introspect.SQLiteIntrospector, t *target) (string, error) {
	col := t.column.Name

	if t.column.PrimaryKey > 0 {
		return "primary key", nil
	}
	if t.column.Generated() || t.create.InvolvedIn(col, ddl.ConstraintGenerated) {
		return "generated column", nil
	}
	if t.create.InvolvedIn(col, ddl.ConstraintCheck) {
		return "check constraint", nil
	}
	if t.create.InvolvedIn(col, ddl.ConstraintUnique) || t.create.InvolvedIn(col, ddl.ConstraintPrimaryKey) {
		return "unique constraint", nil
	}

	indexes, err := in.Indexes(ctx, t.table)
	if err != nil {
		return "", err
	}
	for _, idx := range indexes {
		if containsFold(idx.Columns, col) {
			if idx.Unique {
				return "unique index", nil
			}
			return "indexed", nil
		}
	}

	fks, err := in.ForeignKeys(ctx, t.table)
	if err != nil {
		return "", err
	}
	for _, fk := range fks {
		if containsFold(fk.Columns, col) {
			return "foreign key", nil
		}
	}
	refs, err := in.ReferencingForeignKeys(ctx, t.table)
	if err != nil {
		return "", err
	}
	for _, fk := range refs {
		if containsFold(fk.ReferencedColumns, col) {
			return "referenced by foreign key", nil
		}
	}

	deps, err := in.Dependents(ctx, t.table)
	if err != nil {
		return "", err
	}
	for _, obj := range deps {
		mentioned, err := ddl.References(obj.SQL, col)
		if err != nil {
			return "", err
		}
		if mentioned {
			return "used by " + obj.Type + " " + obj.Name, nil
		}
	}

	if t.def.notNull && t.def.defaultSQL == nil {
		return "not null without default", nil
	}
	if t.def.defaultSQL != nil && !constantDefault(*t.def.defaultSQL) {
		return "non-constant default", nil
	}

	ok, err := e.supports(ctx, dropColumnVersion)
	if err != nil {
		return "", err
	}
	if !ok {
		return "DROP COLUMN unavailable", nil
	}
	return "", nil
}

// constantDefault mirrors the ADD COLUMN rule that defaults must not be
// expressions or CURRENT_* keywords
func constantDefault(sql string) bool {
	s := strings.ToUpper(strings.TrimSpace(sql))
	return !strings.HasPrefix(s, "(") && !strings.HasPrefix(s, "CURRENT_")
}

func (e *Emulator) modifyColumn(ctx context.Context, table string, op schema.ModifyColumn) error {
	if op.NewType.Kind == "" {
		return fmt.Errorf("%w: modify column %s needs a type", query.ErrInvalidRequest, op.Name)
	}

	t, err := e.load(ctx, e.inspect, table, op)
	if err != nil {
		return err
	}
	debug.Debug("modify column", "table", table, "column", t.column.Name, "path", t.path, "reason", t.reason)

	if t.path == PathColumn {
		return e.run(ctx, func(s scope) error {
			return e.swapColumn(ctx, s, t)
		})
	}
	return e.rebuildTable(ctx, t)
}

// swapColumn moves the data through a temporary column carrying the new
// definition, then re-adds the column under its own name
func (e *Emulator) swapColumn(ctx context.Context, s scope, t *target) error {
	table := sqlgen.QuoteIdentifier(t.table)
	col := t.column.Name
	tmp := tempName(col)

	steps := []string{
		fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", table, t.def.columnSQL(tmp)),
		fmt.Sprintf("UPDATE %s SET %s = %s", table, sqlgen.QuoteIdentifier(tmp), castColumn(col, t.def.typeSQL)),
		sqlgen.GenerateDropColumn(t.table, col),
		fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", table, t.def.columnSQL(col)),
		fmt.Sprintf("UPDATE %s SET %s = %s", table, sqlgen.QuoteIdentifier(col), sqlgen.QuoteIdentifier(tmp)),
		sqlgen.GenerateDropColumn(t.table, tmp),
	}
	for _, stmt := range steps {
		if err := e.exec(ctx, s, stmt); err != nil {
			return err
		}
	}
	return nil
}

// rebuildTable recreates the table with the column's new definition
func (e *Emulator) rebuildTable(ctx context.Context, t *target) error {
	fkEnabled, err := e.inspect.ForeignKeysEnabled(ctx)
	if err != nil {
		return err
	}

	if fkEnabled {
		if e.ownsTransaction() {
			// foreign_keys cannot change inside a transaction
			if err := e.exec(ctx, e.conn, "PRAGMA foreign_keys = OFF"); err != nil {
				return err
			}
			defer func() {
				if err := e.exec(ctx, e.conn, "PRAGMA foreign_keys = ON"); err != nil {
					debug.Error("failed to re-enable foreign keys", "error", err)
				}
			}()
		} else if err := e.refuseRelatedTables(ctx, t.table); err != nil {
			return err
		}
	}

	return e.run(ctx, func(s scope) error {
		if !e.ownsTransaction() && fkEnabled {
			if err := e.exec(ctx, s, "PRAGMA defer_foreign_keys = ON"); err != nil {
				return err
			}
		}
		if err := e.recreate(ctx, s, t); err != nil {
			return err
		}
		if fkEnabled {
			return checkForeignKeys(ctx, introspect.NewSQLiteIntrospector(s))
		}
		return nil
	})
}

// refuseRelatedTables rejects a rebuild inside a caller's transaction when
// foreign keys are enforced and the table takes part in one: dropping the
// table would fire the ON DELETE actions of its children.
func (e *Emulator) refuseRelatedTables(ctx context.Context, table string) error {
	fks, err := e.inspect.ForeignKeys(ctx, table)
	if err != nil {
		return err
	}
	refs, err := e.inspect.ReferencingForeignKeys(ctx, table)
	if err != nil {
		return err
	}
	if len(fks) > 0 || len(refs) > 0 {
		return fmt.Errorf("%w: rebuilding %s inside a transaction needs foreign_keys disabled", query.ErrUnsupported, table)
	}
	return nil
}

func (e *Emulator) recreate(ctx context.Context, s scope, t *target) error {
	in := introspect.NewSQLiteIntrospector(s)

	deps, err := in.Dependents(ctx, t.table)
	if err != nil {
		return err
	}

	tmpTable := tempName(t.table)
	change := ddl.ColumnChange{Type: t.def.typeSQL}
	if t.def.nullChanged {
		change.NotNull = &t.def.notNull
	}
	if t.def.defaultChanged {
		change.Default = t.def.defaultSQL
	}
	createTmp, err := t.create.Rewrite(tmpTable, t.column.Name, change)
	if err != nil {
		return fmt.Errorf("%w: %v", query.ErrInvalidRequest, err)
	}

	var names, values []string
	for _, c := range t.all {
		if c.Hidden != introspect.HiddenNone {
			continue
		}
		names = append(names, sqlgen.QuoteIdentifier(c.Name))
		if c.Name == t.column.Name {
			values = append(values, castColumn(c.Name, t.def.typeSQL))
		} else {
			values = append(values, sqlgen.QuoteIdentifier(c.Name))
		}
	}

	steps := []string{
		createTmp,
		fmt.Sprintf("INSERT INTO %s (%s) SELECT %s FROM %s",
			sqlgen.QuoteIdentifier(tmpTable), strings.Join(names, ", "), strings.Join(values, ", "), sqlgen.QuoteIdentifier(t.table)),
	}
	// views and foreign triggers would fail the rename while the table is gone
	for _, obj := range deps {
		switch obj.Type {
		case "view":
			steps = append(steps, "DROP VIEW "+sqlgen.QuoteIdentifier(obj.Name))
		case "trigger":
			steps = append(steps, "DROP TRIGGER "+sqlgen.QuoteIdentifier(obj.Name))
		}
	}
	steps = append(steps,
		sqlgen.GenerateDropTable(&schema.DropTable{Name: t.table}),
		sqlgen.GenerateRenameTable(tmpTable, t.table),
	)
	for _, obj := range deps {
		steps = append(steps, obj.SQL)
	}

	for _, stmt := range steps {
		if err := e.exec(ctx, s, stmt); err != nil {
			return err
		}
	}
	return nil
}

func checkForeignKeys(ctx context.Context, in *introspect.SQLiteIntrospector) error {
	violations, err := in.ForeignKeyCheck(ctx)
	if err != nil {
		return err
	}
	if len(violations) == 0 {
		return nil
	}
	v := violations[0]
	return fmt.Errorf("%w: %d foreign key violation(s), first in %s referencing %s",
		query.ErrInvalidRequest, len(violations), v.Table, v.Parent)
}

// castColumn converts the copied value to the new type. DATETIME and
// BOOLEAN have NUMERIC affinity, where CAST would truncate ISO-8601 text
// and 'true' to numbers, so those are copied as is.
func castColumn(name, typeSQL string) string {
	quoted := sqlgen.QuoteIdentifier(name)
	switch strings.ToUpper(typeSQL) {
	case string(schema.TypeDateTime), string(schema.TypeBool):
		return quoted
	}
	return fmt.Sprintf("CAST(%s AS %s)", quoted, typeSQL)
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
