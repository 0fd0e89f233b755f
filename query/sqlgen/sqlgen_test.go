package sqlgen

import (
	"testing"

	"github.com/satishbabariya/sqlkit/query"
	"github.com/satishbabariya/sqlkit/query/ast"
	"github.com/satishbabariya/sqlkit/runtime/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComparisonAgainstNull(t *testing.T) {
	tests := []struct {
		name string
		expr ast.Expression
		want string
	}{
		{name: "eq null", expr: ast.Eq("x", types.Null()), want: "x IS NULL"},
		{name: "ne null", expr: ast.NotEq("x", types.Null()), want: "x IS NOT NULL"},
		{name: "eq empty opt", expr: ast.Eq("x", types.StringOpt(nil)), want: "x IS NULL"},
		{name: "eq value", expr: ast.Eq("x", types.Number(5)), want: "x = $1"},
		{name: "ne value", expr: ast.NotEq("x", types.Number(5)), want: "x != $1"},
		{name: "gt value", expr: ast.Gt("x", types.Number(5)), want: "x > $1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := newRenderContext()
			assert.Equal(t, tt.want, ctx.renderExpr(tt.expr))
		})
	}
}

func TestOrderedComparisonAgainstNullPanics(t *testing.T) {
	for _, expr := range []ast.Expression{
		ast.Gt("x", types.Null()),
		ast.Gte("x", types.Null()),
		ast.Lt("x", types.NumberOpt(nil)),
		ast.Lte("x", types.Null()),
	} {
		assert.Panics(t, func() {
			newRenderContext().renderExpr(expr)
		})
	}
}

func TestServerTimeValuesDoNotConsumePlaceholders(t *testing.T) {
	ctx := newRenderContext()
	sql := ctx.renderExpr(ast.AllOf(
		ast.Lt("expires", types.Now()),
		ast.Gt("created", types.NowAdd("-1 day")),
		ast.Eq("name", types.String("a")),
	))

	assert.Equal(t,
		"(expires < strftime('%Y-%m-%dT%H:%M:%f', 'now')) AND "+
			"(created > strftime('%Y-%m-%dT%H:%M:%f', 'now', '-1 day')) AND (name = $1)",
		sql)
	assert.Equal(t, 1, ctx.placeholders)
}

func TestNowAddModifierIsQuoted(t *testing.T) {
	ctx := newRenderContext()
	assert.Equal(t, "strftime('%Y-%m-%dT%H:%M:%f', 'now', 'it''s')", ctx.renderValue(types.NowAdd("it's")))
}

func TestBooleanCombinators(t *testing.T) {
	ctx := newRenderContext()
	sql := ctx.renderExpr(ast.AnyOf(
		ast.Eq("a", types.Number(1)),
		ast.AllOf(ast.Eq("b", types.Number(2)), ast.Not{Expr: ast.Eq("c", types.Number(3))}),
	))
	assert.Equal(t, "(a = $1) OR ((b = $2) AND (NOT (c = $3)))", sql)
}

func TestSelect(t *testing.T) {
	sel := &ast.Select{
		Table:    "tracks",
		Distinct: true,
		Columns:  []string{"tracks.id", "albums.title"},
		Joins:    []ast.Join{{Table: "albums", On: "albums.id = tracks.album_id", Left: true}},
		Filters: []ast.Expression{
			ast.Eq("tracks.artist", types.String("x")),
			ast.In("tracks.format", types.String("flac"), types.String("mp3")),
		},
		Sorts: []ast.Sort{ast.Desc("tracks.id")},
		Limit: ast.IntPtr(10),
	}

	q := GenerateSelect(sel)
	assert.Equal(t,
		"SELECT DISTINCT tracks.id, albums.title FROM tracks LEFT JOIN albums ON albums.id = tracks.album_id "+
			"WHERE (tracks.artist = $1) AND (tracks.format IN ($2, $3)) ORDER BY tracks.id DESC LIMIT 10",
		q.SQL)
	assert.Equal(t, []types.Value{types.String("x"), types.String("flac"), types.String("mp3")}, q.Params)
}

func TestSelectFirstOverridesLimit(t *testing.T) {
	sel := &ast.Select{Table: "tracks", Limit: ast.IntPtr(50)}
	q := GenerateSelectFirst(sel)

	assert.Equal(t, "SELECT * FROM tracks LIMIT 1", q.SQL)
	assert.Equal(t, 50, *sel.Limit)
}

func TestSubSelectSharesPlaceholders(t *testing.T) {
	sel := &ast.Select{
		Table: "tracks",
		Filters: []ast.Expression{
			ast.Eq("title", types.String("a")),
			ast.InSub("album_id", &ast.Select{
				Table:   "albums",
				Columns: []string{"id"},
				Filters: []ast.Expression{ast.Gt("year", types.Number(1990))},
			}),
			ast.Comparison{
				Left:     ast.Col("artist_id"),
				Operator: ast.OpEq,
				Right: ast.SubSelect{Select: &ast.Select{
					Table:   "artists",
					Columns: []string{"id"},
					Filters: []ast.Expression{ast.Eq("name", types.String("b"))},
					Limit:   ast.IntPtr(1),
				}},
			},
		},
	}

	q := GenerateSelect(sel)
	assert.Equal(t,
		"SELECT * FROM tracks WHERE (title = $1) AND (album_id IN (SELECT id FROM albums WHERE year > $2)) "+
			"AND (artist_id = (SELECT id FROM artists WHERE name = $3 LIMIT 1))",
		q.SQL)
	assert.Equal(t, []types.Value{types.String("a"), types.Number(1990), types.String("b")}, q.Params)
}

func TestCoalesceAndLike(t *testing.T) {
	sel := &ast.Select{
		Table: "albums",
		Filters: []ast.Expression{
			ast.Like{
				Left:    ast.Coalesce{Exprs: []ast.Expression{ast.Col("sort_title"), ast.Col("title")}},
				Pattern: ast.Val(types.String("The%")),
			},
		},
	}

	q := GenerateSelect(sel)
	assert.Equal(t, "SELECT * FROM albums WHERE COALESCE(sort_title, title) LIKE $1", q.SQL)
	assert.Len(t, q.Params, 1)
}

func TestInsert(t *testing.T) {
	q := GenerateInsert(&ast.Insert{
		Table: "tracks",
		Values: []ast.Assignment{
			ast.Set("title", types.String("song")),
			ast.Set("number", types.Number(3)),
			ast.Set("comment", types.Null()),
			ast.Set("created", types.Now()),
		},
	})

	assert.Equal(t,
		"INSERT INTO tracks (title, number, comment, created) VALUES($1, $2, NULL, strftime('%Y-%m-%dT%H:%M:%f', 'now')) RETURNING *",
		q.SQL)
	assert.Equal(t, []types.Value{types.String("song"), types.Number(3)}, q.Params)
}

func TestInsertDefaultValues(t *testing.T) {
	q := GenerateInsert(&ast.Insert{Table: "tracks"})
	assert.Equal(t, "INSERT INTO tracks DEFAULT VALUES RETURNING *", q.SQL)
	assert.Empty(t, q.Params)
}

func TestUpdatePlaceholderOrdering(t *testing.T) {
	q, err := GenerateUpdate(&ast.Update{
		Table:   "tracks",
		Values:  []ast.Assignment{ast.Set("title", types.String("new")), ast.Set("rating", types.Real(4.5))},
		Filters: []ast.Expression{ast.Eq("id", types.Number(7)), ast.Gte("year", types.Number(2000))},
	})
	require.NoError(t, err)

	assert.Equal(t, "UPDATE tracks SET title = $1, rating = $2 WHERE (id = $3) AND (year >= $4) RETURNING *", q.SQL)
	assert.Equal(t, []types.Value{
		types.String("new"), types.Real(4.5), types.Number(7), types.Number(2000),
	}, q.Params)
}

func TestUpdateLimitRewriteRepeatsFilters(t *testing.T) {
	q, err := GenerateUpdate(&ast.Update{
		Table:   "tracks",
		Values:  []ast.Assignment{ast.Set("title", types.String("new"))},
		Filters: []ast.Expression{ast.Eq("album", types.String("a")), ast.Lt("number", types.Number(5))},
		Limit:   ast.IntPtr(2),
	})
	require.NoError(t, err)

	assert.Equal(t,
		"UPDATE tracks SET title = $1 WHERE rowid IN (SELECT rowid FROM tracks WHERE (album = $2) AND (number < $3) LIMIT 2) "+
			"AND ((album = $4) AND (number < $5)) RETURNING *",
		q.SQL)
	assert.Equal(t, []types.Value{
		types.String("new"),
		types.String("a"), types.Number(5),
		types.String("a"), types.Number(5),
	}, q.Params)
}

func TestUpdateWithoutValues(t *testing.T) {
	_, err := GenerateUpdate(&ast.Update{Table: "tracks"})
	assert.ErrorIs(t, err, query.ErrInvalidRequest)
}

func TestDelete(t *testing.T) {
	tests := []struct {
		name   string
		del    *ast.Delete
		sql    string
		params int
	}{
		{
			name: "all rows",
			del:  &ast.Delete{Table: "tracks"},
			sql:  "DELETE FROM tracks RETURNING *",
		},
		{
			name:   "filtered",
			del:    &ast.Delete{Table: "tracks", Filters: []ast.Expression{ast.Eq("id", types.Number(1))}},
			sql:    "DELETE FROM tracks WHERE id = $1 RETURNING *",
			params: 1,
		},
		{
			name:   "filtered with limit",
			del:    &ast.Delete{Table: "tracks", Filters: []ast.Expression{ast.Eq("id", types.Number(1))}, Limit: ast.IntPtr(1)},
			sql:    "DELETE FROM tracks WHERE rowid IN (SELECT rowid FROM tracks WHERE id = $1 LIMIT 1) AND (id = $2) RETURNING *",
			params: 2,
		},
		{
			name: "limit only",
			del:  &ast.Delete{Table: "tracks", Limit: ast.IntPtr(3)},
			sql:  "DELETE FROM tracks WHERE rowid IN (SELECT rowid FROM tracks LIMIT 3) RETURNING *",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := GenerateDelete(tt.del)
			assert.Equal(t, tt.sql, q.SQL)
			assert.Len(t, q.Params, tt.params)
		})
	}
}

func TestUpsertMulti(t *testing.T) {
	rows := [][]ast.Assignment{
		{ast.Set("path", types.String("/a")), ast.Set("size", types.Number(1))},
		{ast.Set("path", types.String("/b")), ast.Set("size", types.Number(2))},
	}

	q, err := GenerateUpsertMulti("files", []string{"path"}, rows)
	require.NoError(t, err)

	assert.Equal(t,
		"INSERT INTO files (path, size) VALUES ($1, $2), ($3, $4) ON CONFLICT(path) DO UPDATE SET "+
			"path = EXCLUDED.path, size = EXCLUDED.size RETURNING *",
		q.SQL)
	assert.Len(t, q.Params, 4)
}

func TestUpsertMultiRequiresUnique(t *testing.T) {
	_, err := GenerateUpsertMulti("files", nil, [][]ast.Assignment{{ast.Set("path", types.String("/a"))}})
	assert.ErrorIs(t, err, query.ErrMissingUnique)
}

func TestUpdateMulti(t *testing.T) {
	rows := [][]ast.Assignment{
		{ast.Set("id", types.Number(1)), ast.Set("title", types.String("a"))},
		{ast.Set("id", types.Number(2)), ast.Set("title", types.String("b"))},
	}

	q, err := GenerateUpdateMulti("tracks", []string{"id"}, rows)
	require.NoError(t, err)

	assert.Equal(t,
		"WITH sqlkit_values(id, title) AS (VALUES ($1, $2), ($3, $4)) UPDATE tracks SET title = sqlkit_values.title "+
			"FROM sqlkit_values WHERE tracks.id = sqlkit_values.id RETURNING *",
		q.SQL)
	assert.Len(t, q.Params, 4)
}

func TestUpdateMultiRejectsUnknownUniqueColumn(t *testing.T) {
	rows := [][]ast.Assignment{{ast.Set("title", types.String("a"))}}
	_, err := GenerateUpdateMulti("tracks", []string{"id"}, rows)
	assert.ErrorIs(t, err, query.ErrInvalidRequest)
}

func TestPlaceholderCountMatchesValues(t *testing.T) {
	values := []ast.Assignment{
		ast.Set("a", types.Number(1)),
		ast.Set("b", types.Now()),
		ast.Set("c", types.String("x")),
	}
	filters := []ast.Expression{
		ast.Eq("d", types.Null()),
		ast.In("e", types.Number(1), types.Number(2)),
	}

	q, err := GenerateUpdate(&ast.Update{Table: "t", Values: values, Filters: filters})
	require.NoError(t, err)

	// 2 bound assignments + 2 bound filter values
	assert.Len(t, q.Params, 4)
	assert.Equal(t, 2, CountParams(values))
}

func TestArgs(t *testing.T) {
	args, err := Args([]types.Value{
		types.Bool(true),
		types.Number(-1),
		types.UNumber(42),
		types.Real(1.5),
		types.String("s"),
	})
	require.NoError(t, err)
	assert.Equal(t, []interface{}{true, int64(-1), int64(42), 1.5, "s"}, args)
}

func TestArgsUnsignedOverflow(t *testing.T) {
	_, err := Args([]types.Value{types.UNumber(1 << 63)})
	assert.ErrorIs(t, err, query.ErrInvalidRequest)
}
