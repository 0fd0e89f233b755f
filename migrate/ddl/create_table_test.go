package ddl

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPtr(b bool) *bool    { return &b }
func strPtr(s string) *string { return &s }

const tracksDDL = `CREATE TABLE "tracks" (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	"title" VARCHAR(255) NOT NULL DEFAULT 'untitled' COLLATE NOCASE,
	album_id BIGINT CONSTRAINT fk_album REFERENCES albums(id) ON DELETE SET NULL,
	price DECIMAL(10, 2) CHECK (price >= 0),
	slug TEXT GENERATED ALWAYS AS (lower(title)) VIRTUAL,
	CONSTRAINT uq UNIQUE (album_id, "title")
)`

func TestParseCreateTable(t *testing.T) {
	ct, err := ParseCreateTable(tracksDDL)
	require.NoError(t, err)

	assert.Equal(t, "tracks", ct.Name)
	require.Len(t, ct.Elements, 6)

	id := ct.Elements[0]
	assert.True(t, id.Column)
	assert.Equal(t, "id", id.Name)
	assert.Equal(t, "INTEGER", id.TypeName)
	assert.True(t, id.Has(ConstraintPrimaryKey))

	title := ct.Elements[1]
	assert.Equal(t, "title", title.Name)
	assert.Equal(t, `"title"`, title.NameSQL)
	assert.Equal(t, "VARCHAR(255)", title.TypeName)
	kinds := make([]ConstraintKind, 0, len(title.Constraints))
	for _, c := range title.Constraints {
		kinds = append(kinds, c.Kind)
	}
	assert.Equal(t, []ConstraintKind{ConstraintNotNull, ConstraintDefault, ConstraintCollate}, kinds)

	album := ct.Elements[2]
	require.Len(t, album.Constraints, 1)
	assert.Equal(t, ConstraintReferences, album.Constraints[0].Kind)
	assert.Equal(t, "CONSTRAINT fk_album REFERENCES albums(id) ON DELETE SET NULL", album.Constraints[0].SQL)

	price := ct.Elements[3]
	assert.Equal(t, "DECIMAL(10, 2)", price.TypeName)
	assert.True(t, price.Has(ConstraintCheck))

	slug := ct.Elements[4]
	assert.True(t, slug.Has(ConstraintGenerated))

	uq := ct.Elements[5]
	assert.False(t, uq.Column)
	assert.Equal(t, ConstraintUnique, uq.Constraints[0].Kind)
}

func TestParseCreateTableVariants(t *testing.T) {
	tests := []struct {
		name     string
		sql      string
		table    string
		elements int
	}{
		{name: "if not exists", sql: `CREATE TABLE IF NOT EXISTS t (a)`, table: "t", elements: 1},
		{name: "schema qualified", sql: `CREATE TABLE main."my table" (a INT, b)`, table: "my table", elements: 2},
		{name: "without rowid", sql: `CREATE TABLE t (a TEXT PRIMARY KEY, b) WITHOUT ROWID`, table: "t", elements: 2},
		{name: "comments", sql: "CREATE TABLE t ( -- ids\n a INT /* (,) */, b TEXT)", table: "t", elements: 2},
		{name: "default null", sql: `CREATE TABLE t (a TEXT DEFAULT NULL NOT NULL)`, table: "t", elements: 1},
		{name: "string with comma", sql: `CREATE TABLE t (a TEXT DEFAULT 'x, y', b)`, table: "t", elements: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ct, err := ParseCreateTable(tt.sql)
			require.NoError(t, err)
			assert.Equal(t, tt.table, ct.Name)
			assert.Len(t, ct.Elements, tt.elements)
		})
	}
}

func TestParseCreateTableErrors(t *testing.T) {
	for _, sql := range []string{
		`CREATE VIEW v AS SELECT 1`,
		`CREATE TABLE t AS SELECT 1`,
		`CREATE TABLE t (a INT`,
		`CREATE TABLE t (a INT,, b)`,
	} {
		_, err := ParseCreateTable(sql)
		assert.ErrorIs(t, err, ErrSyntax, sql)
	}
}

func TestDefaultNullIsOneClause(t *testing.T) {
	ct, err := ParseCreateTable(`CREATE TABLE t (a TEXT DEFAULT NULL NOT NULL)`)
	require.NoError(t, err)

	a, ok := ct.Column("a")
	require.True(t, ok)
	require.Len(t, a.Constraints, 2)
	assert.Equal(t, "DEFAULT NULL", a.Constraints[0].SQL)
	assert.Equal(t, "NOT NULL", a.Constraints[1].SQL)
}

func TestInvolvedIn(t *testing.T) {
	ct, err := ParseCreateTable(tracksDDL)
	require.NoError(t, err)

	assert.True(t, ct.InvolvedIn("price", ConstraintCheck))
	assert.False(t, ct.InvolvedIn("album_id", ConstraintCheck))
	assert.True(t, ct.InvolvedIn("slug", ConstraintGenerated))
	assert.True(t, ct.InvolvedIn("title", ConstraintGenerated))
	assert.True(t, ct.InvolvedIn("album_id", ConstraintUnique))
	assert.False(t, ct.InvolvedIn("price", ConstraintUnique))
}

func TestRewrite(t *testing.T) {
	ct, err := ParseCreateTable(tracksDDL)
	require.NoError(t, err)

	got, err := ct.Rewrite("tracks_tmp", "title", ColumnChange{Type: "TEXT", NotNull: boolPtr(false)})
	require.NoError(t, err)

	assert.Equal(t, `CREATE TABLE "tracks_tmp" (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	"title" TEXT DEFAULT 'untitled' COLLATE NOCASE,
	album_id BIGINT CONSTRAINT fk_album REFERENCES albums(id) ON DELETE SET NULL,
	price DECIMAL(10, 2) CHECK (price >= 0),
	slug TEXT GENERATED ALWAYS AS (lower(title)) VIRTUAL,
	CONSTRAINT uq UNIQUE (album_id, "title")
)`, got)

	got, err = ct.Rewrite("t2", "album_id", ColumnChange{Type: "INTEGER", NotNull: boolPtr(true), Default: strPtr("0")})
	require.NoError(t, err)
	assert.Contains(t, got, `album_id INTEGER NOT NULL DEFAULT 0 CONSTRAINT fk_album REFERENCES albums(id) ON DELETE SET NULL,`)
	assert.Contains(t, got, `CREATE TABLE "t2" (`)

	_, err = ct.Rewrite("t2", "missing", ColumnChange{Type: "TEXT"})
	assert.ErrorIs(t, err, ErrSyntax)
}

func TestReferences(t *testing.T) {
	ok, err := References(`CREATE VIEW v AS SELECT * FROM "tracks" WHERE 1`, "tracks")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = References(`CREATE VIEW v AS SELECT 'tracks' FROM albums`, "tracks")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUnquote(t *testing.T) {
	assert.Equal(t, `a"b`, Unquote(`"a""b"`))
	assert.Equal(t, "a`b", Unquote("`a``b`"))
	assert.Equal(t, "a b", Unquote("[a b]"))
	assert.Equal(t, "it's", Unquote("'it''s'"))
	assert.Equal(t, "plain", Unquote("plain"))
}

func TestSplitStatements(t *testing.T) {
	script := `-- seed; data
CREATE TABLE t (a TEXT DEFAULT ';');
INSERT INTO t VALUES ('x;y') /* ; */;
CREATE TRIGGER t_ins AFTER INSERT ON t BEGIN
  UPDATE t SET a = CASE WHEN a = '' THEN 'empty' ELSE a END;
  DELETE FROM t WHERE a IS NULL;
END;
SELECT 1`

	stmts, err := SplitStatements(script)
	require.NoError(t, err)
	require.Len(t, stmts, 4)
	assert.Equal(t, "CREATE TABLE t (a TEXT DEFAULT ';')", stmts[0])
	assert.Equal(t, "INSERT INTO t VALUES ('x;y') /* ; */", stmts[1])
	assert.True(t, strings.HasPrefix(stmts[2], "CREATE TRIGGER t_ins"))
	assert.True(t, strings.HasSuffix(stmts[2], "END"))
	assert.Equal(t, "SELECT 1", stmts[3])

	empty, err := SplitStatements(" ;; -- nothing\n")
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = SplitStatements("CREATE TRIGGER x AFTER INSERT ON t BEGIN SELECT 1;")
	assert.ErrorIs(t, err, ErrSyntax)
}
