package executor

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/sqlkit/query"
	"github.com/satishbabariya/sqlkit/query/ast"
	"github.com/satishbabariya/sqlkit/query/cache"
	"github.com/satishbabariya/sqlkit/runtime/types"
)

func openDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`CREATE TABLE files (
		id INTEGER PRIMARY KEY,
		path TEXT NOT NULL UNIQUE,
		size BIGINT,
		ratio REAL,
		hidden BOOLEAN,
		modified DATETIME
	)`)
	require.NoError(t, err)
	return db
}

func row(path string, size int64) []ast.Assignment {
	return []ast.Assignment{ast.Set("path", types.String(path)), ast.Set("size", types.Number(size))}
}

func TestFamilyOf(t *testing.T) {
	tests := []struct {
		declared string
		family   columnFamily
	}{
		{"INTEGER", familyInteger},
		{"bigint", familyInteger},
		{"VARCHAR(255)", familyText},
		{"DECIMAL(10, 2)", familyReal},
		{"BOOLEAN", familyBool},
		{"DATETIME", familyTimestamp},
		{"", familyDynamic},
	}

	for _, tt := range tests {
		t.Run(tt.declared, func(t *testing.T) {
			family, err := familyOf(tt.declared)
			require.NoError(t, err)
			assert.Equal(t, tt.family, family)
		})
	}

	_, err := familyOf("BLOB")
	assert.ErrorIs(t, err, query.ErrUnsupportedColumnType)
}

func TestConvertValue(t *testing.T) {
	v, err := convertValue(familyBool, int64(1))
	require.NoError(t, err)
	assert.True(t, v.Equal(types.Bool(true)))

	v, err = convertValue(familyReal, int64(2))
	require.NoError(t, err)
	assert.True(t, v.Equal(types.Real(2)))

	v, err = convertValue(familyText, []byte("abc"))
	require.NoError(t, err)
	assert.True(t, v.Equal(types.String("abc")))

	v, err = convertValue(familyTimestamp, "2024-03-01 10:00:00")
	require.NoError(t, err)
	assert.True(t, v.Equal(types.DateTime(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC))))

	v, err = convertValue(familyInteger, nil)
	require.NoError(t, err)
	assert.True(t, v.IsNull())

	_, err = convertValue(familyBool, "yes")
	assert.ErrorIs(t, err, query.ErrUnsupportedColumnType)
}

func TestChunkRows(t *testing.T) {
	rows := [][]ast.Assignment{row("/a", 1), row("/b", 2), row("/c", 3), row("/d", 4), row("/e", 5)}

	chunks, err := chunkRows(rows, 4)
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0], 2)
	assert.Len(t, chunks[1], 2)
	assert.Len(t, chunks[2], 1)

	chunks, err = chunkRows(rows, 100)
	require.NoError(t, err)
	assert.Len(t, chunks, 1)

	_, err = chunkRows(rows, 1)
	assert.ErrorIs(t, err, query.ErrInvalidRequest)
}

func TestChunkRowsSkipsServerTime(t *testing.T) {
	rows := [][]ast.Assignment{
		{ast.Set("path", types.String("/a")), ast.Set("modified", types.Now())},
		{ast.Set("path", types.String("/b")), ast.Set("modified", types.Now())},
	}

	chunks, err := chunkRows(rows, 2)
	require.NoError(t, err)
	assert.Len(t, chunks, 1)
}

func TestValidateRows(t *testing.T) {
	assert.NoError(t, validateRows("files", nil))
	assert.NoError(t, validateRows("files", [][]ast.Assignment{row("/a", 1), row("/b", 2)}))

	reordered := []ast.Assignment{ast.Set("size", types.Number(2)), ast.Set("path", types.String("/b"))}
	assert.ErrorIs(t, validateRows("files", [][]ast.Assignment{row("/a", 1), reordered}), query.ErrInvalidRequest)
	assert.ErrorIs(t, validateRows("files", [][]ast.Assignment{{}}), query.ErrInvalidRequest)
}

func TestWithMaxBindParams(t *testing.T) {
	assert.Equal(t, DefaultMaxBindParams, NewExecutor(nil, WithMaxBindParams(0)).maxBindParams)
	assert.Equal(t, 10, NewExecutor(nil, WithMaxBindParams(10)).maxBindParams)
	assert.Equal(t, 65535, NewExecutor(nil, WithMaxBindParams(1<<20)).maxBindParams)
}

func TestExecutorStatements(t *testing.T) {
	ctx := context.Background()
	e := NewExecutor(openDB(t))

	inserted, err := e.Insert(ctx, &ast.Insert{Table: "files", Values: []ast.Assignment{
		ast.Set("path", types.String("/a")),
		ast.Set("size", types.Number(10)),
		ast.Set("ratio", types.Real(0.5)),
		ast.Set("hidden", types.Bool(true)),
		ast.Set("modified", types.DateTime(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))),
	}})
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "path", "size", "ratio", "hidden", "modified"}, inserted.Names())

	hidden, _ := inserted.Get("hidden")
	assert.True(t, hidden.Equal(types.Bool(true)))
	modified, _ := inserted.Get("modified")
	assert.Equal(t, types.KindDateTime, modified.Kind())

	rows, err := e.Select(ctx, &ast.Select{Table: "files", Columns: []string{"path", "size + 1 AS next"}})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	next, _ := rows[0].Get("next")
	assert.True(t, next.Equal(types.Number(11)))

	first, err := e.UpdateFirst(ctx, &ast.Update{
		Table:   "files",
		Values:  []ast.Assignment{ast.Set("size", types.Number(20))},
		Filters: []ast.Expression{ast.Eq("path", types.String("/missing"))},
	})
	require.NoError(t, err)
	assert.Nil(t, first)

	upserted, err := e.UpsertFirst(ctx, &ast.Upsert{
		Table:   "files",
		Values:  row("/b", 3),
		Filters: []ast.Expression{ast.Eq("path", types.String("/b"))},
	})
	require.NoError(t, err)
	id, ok := upserted.ID()
	require.True(t, ok)
	assert.True(t, id.Equal(types.Number(2)))

	deleted, err := e.Delete(ctx, &ast.Delete{Table: "files"})
	require.NoError(t, err)
	assert.Len(t, deleted, 2)

	assert.Error(t, e.Raw(ctx, "DROP TABLE nowhere"))
}

func TestUpsertMultiChunks(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	e := NewExecutor(db, WithMaxBindParams(4))

	rows := [][]ast.Assignment{row("/a", 1), row("/b", 2), row("/c", 3)}
	out, err := e.UpsertMulti(ctx, &ast.UpsertMulti{Table: "files", Unique: []string{"path"}, Rows: rows})
	require.NoError(t, err)
	assert.Len(t, out, 3)

	out, err = e.UpsertMulti(ctx, &ast.UpsertMulti{Table: "files", Unique: []string{"path"}, Rows: [][]ast.Assignment{row("/a", 9)}})
	require.NoError(t, err)
	require.Len(t, out, 1)
	size, _ := out[0].Get("size")
	assert.True(t, size.Equal(types.Number(9)))

	empty, err := e.UpsertMulti(ctx, &ast.UpsertMulti{Table: "files", Unique: []string{"path"}})
	require.NoError(t, err)
	assert.Empty(t, empty)

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM files").Scan(&count))
	assert.Equal(t, 3, count)
}

func TestUpdateMultiLimit(t *testing.T) {
	ctx := context.Background()
	e := NewExecutor(openDB(t))

	_, err := e.UpsertMulti(ctx, &ast.UpsertMulti{Table: "files", Unique: []string{"path"}, Rows: [][]ast.Assignment{row("/a", 1), row("/b", 2)}})
	require.NoError(t, err)

	input := [][]ast.Assignment{row("/a", 10), row("/b", 20)}

	out, err := e.UpdateMulti(ctx, &ast.UpdateMulti{Table: "files", Unique: []string{"path"}, Rows: input, Limit: ast.IntPtr(0)})
	require.NoError(t, err)
	assert.Empty(t, out)

	out, err = e.UpdateMulti(ctx, &ast.UpdateMulti{Table: "files", Unique: []string{"path"}, Rows: input})
	require.NoError(t, err)
	assert.Len(t, out, 2)

	// the limit counts input rows, matched or not
	out, err = e.UpdateMulti(ctx, &ast.UpdateMulti{
		Table:  "files",
		Unique: []string{"path"},
		Rows:   [][]ast.Assignment{row("/missing", 5), row("/b", 30)},
		Limit:  ast.IntPtr(1),
	})
	require.NoError(t, err)
	assert.Empty(t, out)

	rows, err := e.Select(ctx, &ast.Select{Table: "files", Filters: []ast.Expression{ast.Eq("path", types.String("/b"))}})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	size, _ := rows[0].Get("size")
	assert.True(t, size.Equal(types.Number(20)))

	_, err = e.UpdateMulti(ctx, &ast.UpdateMulti{Table: "files", Rows: input})
	assert.ErrorIs(t, err, query.ErrMissingUnique)
}

func TestStatementCache(t *testing.T) {
	ctx := context.Background()
	e := NewExecutor(openDB(t), WithStatementCache(2))
	defer e.Close()

	_, err := e.Insert(ctx, &ast.Insert{Table: "files", Values: row("/a", 1)})
	require.NoError(t, err)

	all := &ast.Select{Table: "files"}
	for i := 0; i < 3; i++ {
		rows, err := e.Select(ctx, all)
		require.NoError(t, err)
		assert.Len(t, rows, 1)
	}
	stats := e.CacheStats()
	assert.Equal(t, int64(2), stats.Hits)
	assert.Equal(t, 2, stats.Size)

	_, err = e.Select(ctx, &ast.Select{Table: "files", Columns: []string{"path"}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), e.CacheStats().Evictions)

	require.NoError(t, e.Raw(ctx, "ALTER TABLE files ADD COLUMN note TEXT"))
	assert.Equal(t, 0, e.CacheStats().Size)

	rows, err := e.Select(ctx, all)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Contains(t, rows[0].Names(), "note")
}

func TestStatementCacheDropsFailedStatements(t *testing.T) {
	ctx := context.Background()
	e := NewExecutor(openDB(t), WithStatementCache(4))
	defer e.Close()

	ins := &ast.Insert{Table: "files", Values: row("/a", 1)}
	_, err := e.Insert(ctx, ins)
	require.NoError(t, err)
	assert.Equal(t, 1, e.CacheStats().Size)

	_, err = e.Insert(ctx, ins)
	require.Error(t, err)
	assert.Equal(t, 0, e.CacheStats().Size)

	_, err = e.Insert(ctx, &ast.Insert{Table: "files", Values: row("/b", 2)})
	assert.NoError(t, err)
}

func TestStatementCacheDisabled(t *testing.T) {
	e := NewExecutor(openDB(t), WithStatementCache(0))
	_, err := e.Select(context.Background(), &ast.Select{Table: "files"})
	require.NoError(t, err)
	assert.Equal(t, cache.Stats{}, e.CacheStats())
	assert.NoError(t, e.Close())
}
