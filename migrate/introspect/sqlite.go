package introspect

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	version "github.com/hashicorp/go-version"

	"github.com/satishbabariya/sqlkit/migrate/ddl"
)

// SQLiteIntrospector reads schema metadata through sqlite_master and the
// pragma table-valued functions
type SQLiteIntrospector struct {
	q Querier
}

// NewSQLiteIntrospector creates an introspector reading through q
func NewSQLiteIntrospector(q Querier) *SQLiteIntrospector {
	return &SQLiteIntrospector{q: q}
}

// Version returns the library version reported by sqlite_version()
func (i *SQLiteIntrospector) Version(ctx context.Context) (*version.Version, error) {
	var raw string
	if err := i.queryRow(ctx, "SELECT sqlite_version()").Scan(&raw); err != nil {
		return nil, fmt.Errorf("failed to query sqlite version: %w", err)
	}
	v, err := version.NewVersion(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse sqlite version %q: %w", raw, err)
	}
	return v, nil
}

// Tables lists the user tables
func (i *SQLiteIntrospector) Tables(ctx context.Context) ([]string, error) {
	rows, err := i.q.QueryContext(ctx, `
		SELECT name
		FROM sqlite_master
		WHERE type = 'table'
		  AND name NOT LIKE 'sqlite_%'
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table: %w", err)
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

// Table reads the full description of a table
func (i *SQLiteIntrospector) Table(ctx context.Context, name string) (*Table, error) {
	createSQL, err := i.TableSQL(ctx, name)
	if err != nil {
		return nil, err
	}

	table := &Table{Name: name, SQL: createSQL}

	if table.Columns, err = i.Columns(ctx, name); err != nil {
		return nil, fmt.Errorf("failed to introspect columns for %s: %w", name, err)
	}
	table.PrimaryKey = primaryKey(table.Columns)

	if table.Indexes, err = i.Indexes(ctx, name); err != nil {
		return nil, fmt.Errorf("failed to introspect indexes for %s: %w", name, err)
	}

	if table.ForeignKeys, err = i.ForeignKeys(ctx, name); err != nil {
		return nil, fmt.Errorf("failed to introspect foreign keys for %s: %w", name, err)
	}

	return table, nil
}

// TableSQL returns the CREATE TABLE statement stored for the table
func (i *SQLiteIntrospector) TableSQL(ctx context.Context, name string) (string, error) {
	var createSQL sql.NullString
	err := i.queryRow(ctx, `SELECT sql FROM sqlite_master WHERE type = 'table' AND name = ?`, name).Scan(&createSQL)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("%w: %s", ErrTableNotFound, name)
	}
	if err != nil {
		return "", fmt.Errorf("failed to query table %s: %w", name, err)
	}
	return createSQL.String, nil
}

// Columns reads all columns of a table, generated and hidden ones included
func (i *SQLiteIntrospector) Columns(ctx context.Context, table string) ([]Column, error) {
	rows, err := i.q.QueryContext(ctx,
		`SELECT name, type, "notnull", dflt_value, pk, hidden FROM pragma_table_xinfo(?) ORDER BY cid`, table)
	if err != nil {
		return nil, fmt.Errorf("failed to query columns: %w", err)
	}
	defer rows.Close()

	var columns []Column
	for rows.Next() {
		var col Column
		var notNull, hidden int
		var dflt sql.NullString

		if err := rows.Scan(&col.Name, &col.Type, &notNull, &dflt, &col.PrimaryKey, &hidden); err != nil {
			return nil, fmt.Errorf("failed to scan column: %w", err)
		}

		col.NotNull = notNull != 0
		col.Hidden = Hidden(hidden)
		if dflt.Valid {
			col.DefaultValue = &dflt.String
		}
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, table)
	}
	return columns, nil
}

// Indexes reads all indexes of a table, including the automatic ones
// backing PRIMARY KEY and UNIQUE constraints
func (i *SQLiteIntrospector) Indexes(ctx context.Context, table string) ([]Index, error) {
	rows, err := i.q.QueryContext(ctx,
		`SELECT name, "unique", origin, partial FROM pragma_index_list(?) ORDER BY seq`, table)
	if err != nil {
		return nil, fmt.Errorf("failed to query indexes: %w", err)
	}

	var indexes []Index
	for rows.Next() {
		var idx Index
		var unique, partial int
		if err := rows.Scan(&idx.Name, &unique, &idx.Origin, &partial); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan index: %w", err)
		}
		idx.Unique = unique == 1
		idx.Partial = partial == 1
		indexes = append(indexes, idx)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	// index_info is queried after the list is drained so a single
	// connection is never asked for two open cursors
	for n := range indexes {
		cols, err := i.indexColumns(ctx, indexes[n].Name)
		if err != nil {
			return nil, err
		}
		indexes[n].Columns = cols
	}
	return indexes, nil
}

func (i *SQLiteIntrospector) indexColumns(ctx context.Context, index string) ([]string, error) {
	rows, err := i.q.QueryContext(ctx, `SELECT name FROM pragma_index_info(?) ORDER BY seqno`, index)
	if err != nil {
		return nil, fmt.Errorf("failed to query index %s: %w", index, err)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var name sql.NullString
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan index column: %w", err)
		}
		// expression columns have no name
		if name.Valid {
			columns = append(columns, name.String)
		}
	}
	return columns, rows.Err()
}

// ForeignKeys reads the foreign keys declared by a table
func (i *SQLiteIntrospector) ForeignKeys(ctx context.Context, table string) ([]ForeignKey, error) {
	rows, err := i.q.QueryContext(ctx,
		`SELECT id, "table", "from", "to", on_update, on_delete FROM pragma_foreign_key_list(?) ORDER BY id, seq`, table)
	if err != nil {
		return nil, fmt.Errorf("failed to query foreign keys: %w", err)
	}
	defer rows.Close()

	// foreign_key_list returns one row per column; group them by id
	fkMap := make(map[int]*ForeignKey)
	for rows.Next() {
		var id int
		var parent, from, onUpdate, onDelete string
		var to sql.NullString

		if err := rows.Scan(&id, &parent, &from, &to, &onUpdate, &onDelete); err != nil {
			return nil, fmt.Errorf("failed to scan foreign key: %w", err)
		}

		if fk, exists := fkMap[id]; exists {
			fk.Columns = append(fk.Columns, from)
			fk.ReferencedColumns = append(fk.ReferencedColumns, to.String)
			continue
		}
		fkMap[id] = &ForeignKey{
			ID:                id,
			Table:             table,
			Columns:           []string{from},
			ReferencedTable:   parent,
			ReferencedColumns: []string{to.String},
			OnUpdate:          onUpdate,
			OnDelete:          onDelete,
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	fks := make([]ForeignKey, 0, len(fkMap))
	for _, fk := range fkMap {
		fks = append(fks, *fk)
	}
	sort.Slice(fks, func(a, b int) bool { return fks[a].ID < fks[b].ID })
	return fks, nil
}

// ReferencingForeignKeys returns the foreign keys of other tables that
// point at table
func (i *SQLiteIntrospector) ReferencingForeignKeys(ctx context.Context, table string) ([]ForeignKey, error) {
	tables, err := i.Tables(ctx)
	if err != nil {
		return nil, err
	}

	var refs []ForeignKey
	for _, t := range tables {
		fks, err := i.ForeignKeys(ctx, t)
		if err != nil {
			return nil, err
		}
		for _, fk := range fks {
			if strings.EqualFold(fk.ReferencedTable, table) {
				refs = append(refs, fk)
			}
		}
	}
	return refs, nil
}

// Dependents returns the schema objects that must be recreated when the
// table is rebuilt: its explicit indexes and triggers, and the views and
// triggers elsewhere whose text references it. Automatic indexes are
// skipped since they are rebuilt from the table definition.
func (i *SQLiteIntrospector) Dependents(ctx context.Context, table string) ([]SchemaObject, error) {
	rows, err := i.q.QueryContext(ctx, `
		SELECT type, name, tbl_name, sql
		FROM sqlite_master
		WHERE type IN ('index', 'trigger', 'view')
		  AND sql IS NOT NULL
		  AND name NOT LIKE 'sqlite_autoindex_%'
		ORDER BY CASE type WHEN 'index' THEN 0 WHEN 'view' THEN 1 ELSE 2 END, rowid
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query schema objects: %w", err)
	}
	defer rows.Close()

	var objects []SchemaObject
	for rows.Next() {
		var obj SchemaObject
		if err := rows.Scan(&obj.Type, &obj.Name, &obj.TableName, &obj.SQL); err != nil {
			return nil, fmt.Errorf("failed to scan schema object: %w", err)
		}

		if obj.Type != "view" && strings.EqualFold(obj.TableName, table) {
			objects = append(objects, obj)
			continue
		}
		if obj.Type == "index" {
			continue
		}
		refs, err := ddl.References(obj.SQL, table)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s %s: %w", obj.Type, obj.Name, err)
		}
		if refs {
			objects = append(objects, obj)
		}
	}
	return objects, rows.Err()
}

// ForeignKeysEnabled reports the connection's foreign_keys setting
func (i *SQLiteIntrospector) ForeignKeysEnabled(ctx context.Context) (bool, error) {
	var enabled int
	if err := i.queryRow(ctx, "PRAGMA foreign_keys").Scan(&enabled); err != nil {
		return false, fmt.Errorf("failed to query foreign_keys: %w", err)
	}
	return enabled == 1, nil
}

// ForeignKeyCheck runs PRAGMA foreign_key_check over the whole schema
func (i *SQLiteIntrospector) ForeignKeyCheck(ctx context.Context) ([]Violation, error) {
	rows, err := i.q.QueryContext(ctx, "PRAGMA foreign_key_check")
	if err != nil {
		return nil, fmt.Errorf("failed to check foreign keys: %w", err)
	}
	defer rows.Close()

	var violations []Violation
	for rows.Next() {
		var v Violation
		if err := rows.Scan(&v.Table, &v.RowID, &v.Parent, &v.FKID); err != nil {
			return nil, fmt.Errorf("failed to scan foreign key violation: %w", err)
		}
		violations = append(violations, v)
	}
	return violations, rows.Err()
}

// queryRow runs a single row query through the Querier
func (i *SQLiteIntrospector) queryRow(ctx context.Context, query string, args ...interface{}) *rowScanner {
	rows, err := i.q.QueryContext(ctx, query, args...)
	return &rowScanner{rows: rows, err: err}
}

// rowScanner mirrors *sql.Row for Queriers that only expose QueryContext
type rowScanner struct {
	rows *sql.Rows
	err  error
}

func (r *rowScanner) Scan(dest ...interface{}) error {
	if r.err != nil {
		return r.err
	}
	defer r.rows.Close()

	if !r.rows.Next() {
		if err := r.rows.Err(); err != nil {
			return err
		}
		return sql.ErrNoRows
	}
	if err := r.rows.Scan(dest...); err != nil {
		return err
	}
	return r.rows.Close()
}

func primaryKey(columns []Column) []string {
	var pk []Column
	for _, c := range columns {
		if c.PrimaryKey > 0 {
			pk = append(pk, c)
		}
	}
	sort.Slice(pk, func(a, b int) bool { return pk[a].PrimaryKey < pk[b].PrimaryKey })

	names := make([]string, len(pk))
	for n, c := range pk {
		names[n] = c.Name
	}
	return names
}
