package introspect

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T, statements ...string) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	// every pooled connection would see its own in-memory database
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	for _, stmt := range statements {
		_, err := db.Exec(stmt)
		require.NoError(t, err, stmt)
	}
	return db
}

var fixture = []string{
	`PRAGMA foreign_keys = ON`,
	`CREATE TABLE albums (id INTEGER PRIMARY KEY, name TEXT NOT NULL UNIQUE)`,
	`CREATE TABLE tracks (
		id INTEGER PRIMARY KEY,
		album_id INTEGER REFERENCES albums(id) ON DELETE CASCADE,
		title TEXT NOT NULL DEFAULT 'untitled',
		seconds INTEGER,
		minutes REAL GENERATED ALWAYS AS (seconds / 60.0) VIRTUAL
	)`,
	`CREATE INDEX tracks_title ON tracks (title)`,
	`CREATE TRIGGER tracks_touch AFTER UPDATE ON tracks BEGIN SELECT 1; END`,
	`CREATE VIEW long_tracks AS SELECT * FROM tracks WHERE seconds > 600`,
	`CREATE VIEW album_names AS SELECT name FROM albums`,
}

func TestTables(t *testing.T) {
	in := NewSQLiteIntrospector(openTestDB(t, fixture...))

	tables, err := in.Tables(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"albums", "tracks"}, tables)
}

func TestTable(t *testing.T) {
	in := NewSQLiteIntrospector(openTestDB(t, fixture...))

	table, err := in.Table(context.Background(), "tracks")
	require.NoError(t, err)

	assert.Contains(t, table.SQL, "CREATE TABLE tracks")
	assert.Equal(t, []string{"id"}, table.PrimaryKey)

	require.Len(t, table.Columns, 5)
	title := table.Columns[2]
	assert.Equal(t, "title", title.Name)
	assert.Equal(t, "TEXT", title.Type)
	assert.True(t, title.NotNull)
	require.NotNil(t, title.DefaultValue)
	assert.Equal(t, "'untitled'", *title.DefaultValue)
	assert.False(t, title.Generated())
	assert.True(t, table.Columns[4].Generated())

	require.Len(t, table.Indexes, 1)
	assert.Equal(t, "tracks_title", table.Indexes[0].Name)
	assert.Equal(t, []string{"title"}, table.Indexes[0].Columns)
	assert.Equal(t, "c", table.Indexes[0].Origin)

	require.Len(t, table.ForeignKeys, 1)
	fk := table.ForeignKeys[0]
	assert.Equal(t, []string{"album_id"}, fk.Columns)
	assert.Equal(t, "albums", fk.ReferencedTable)
	assert.Equal(t, []string{"id"}, fk.ReferencedColumns)
	assert.Equal(t, "CASCADE", fk.OnDelete)
}

func TestTableNotFound(t *testing.T) {
	in := NewSQLiteIntrospector(openTestDB(t))

	_, err := in.Table(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrTableNotFound)
}

func TestUniqueAutoIndex(t *testing.T) {
	in := NewSQLiteIntrospector(openTestDB(t, fixture...))

	indexes, err := in.Indexes(context.Background(), "albums")
	require.NoError(t, err)
	require.Len(t, indexes, 1)
	assert.True(t, indexes[0].Unique)
	assert.Equal(t, "u", indexes[0].Origin)
	assert.Equal(t, []string{"name"}, indexes[0].Columns)
}

func TestReferencingForeignKeys(t *testing.T) {
	in := NewSQLiteIntrospector(openTestDB(t, fixture...))

	refs, err := in.ReferencingForeignKeys(context.Background(), "albums")
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, "tracks", refs[0].Table)
}

func TestDependents(t *testing.T) {
	in := NewSQLiteIntrospector(openTestDB(t, fixture...))

	objects, err := in.Dependents(context.Background(), "tracks")
	require.NoError(t, err)

	names := make([]string, len(objects))
	for i, obj := range objects {
		names[i] = obj.Type + ":" + obj.Name
	}
	assert.Equal(t, []string{"index:tracks_title", "view:long_tracks", "trigger:tracks_touch"}, names)
}

func TestForeignKeyPragmas(t *testing.T) {
	db := openTestDB(t, fixture...)
	in := NewSQLiteIntrospector(db)
	ctx := context.Background()

	enabled, err := in.ForeignKeysEnabled(ctx)
	require.NoError(t, err)
	assert.True(t, enabled)

	_, err = db.Exec(`PRAGMA foreign_keys = OFF`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO tracks (id, album_id, title) VALUES (1, 42, 'orphan')`)
	require.NoError(t, err)

	violations, err := in.ForeignKeyCheck(ctx)
	require.NoError(t, err)
	require.Len(t, violations, 1)
	assert.Equal(t, "tracks", violations[0].Table)
	assert.Equal(t, "albums", violations[0].Parent)
	assert.Equal(t, int64(1), violations[0].RowID.Int64)
}

func TestVersion(t *testing.T) {
	in := NewSQLiteIntrospector(openTestDB(t))

	v, err := in.Version(context.Background())
	require.NoError(t, err)
	assert.True(t, v.Segments()[0] >= 3)
}
