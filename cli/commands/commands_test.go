package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/sqlkit/cli/internal/ui"
	"github.com/satishbabariya/sqlkit/cli/internal/version"
)

// run executes the CLI against db and returns what it printed
func run(t *testing.T, db string, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	prev := ui.Output
	ui.Output = &out
	defer func() { ui.Output = prev }()

	cmd := NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--database", db}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func seed(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	db := filepath.Join(dir, "music.db")
	script := filepath.Join(dir, "seed.sql")
	require.NoError(t, os.WriteFile(script, []byte(`
CREATE TABLE tracks (id INTEGER PRIMARY KEY, title TEXT NOT NULL, plays INTEGER);
CREATE INDEX tracks_plays ON tracks (plays);
INSERT INTO tracks (title, plays) VALUES ('Intro', 3), ('Outro; live', 12), ('Interlude', NULL);
`), 0644))

	out, err := run(t, db, "exec", "--file", script)
	require.NoError(t, err)
	assert.Contains(t, out, "executed 3 statement(s)")
	return db
}

func TestExecAndQuery(t *testing.T) {
	db := seed(t)

	out, err := run(t, db, "query", "tracks", "--where", "plays>=5", "--columns", "id,title")
	require.NoError(t, err)
	assert.Contains(t, out, "Outro; live")
	assert.NotContains(t, out, "Intro ")
	assert.Contains(t, out, "(1 rows)")

	out, err = run(t, db, "query", "tracks", "--where", "title~In%", "--order", "title:desc", "--limit", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Intro")

	out, err = run(t, db, "query", "tracks", "--where", "plays=0")
	require.NoError(t, err)
	assert.Contains(t, out, "(no rows)")
}

func TestExecScriptIsAtomic(t *testing.T) {
	db := seed(t)

	_, err := run(t, db, "exec", "INSERT INTO tracks (title) VALUES ('x'); INSERT INTO nowhere VALUES (1)")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "statement 2")

	out, err := run(t, db, "query", "tracks", "--where", "title=x")
	require.NoError(t, err)
	assert.Contains(t, out, "(no rows)")

	_, err = run(t, db, "exec")
	assert.Error(t, err)
	_, err = run(t, db, "exec", "--watch", "SELECT 1")
	assert.Error(t, err)
}

func TestTablesAndSchema(t *testing.T) {
	db := seed(t)

	out, err := run(t, db, "tables")
	require.NoError(t, err)
	assert.Contains(t, out, "tracks")

	out, err = run(t, db, "schema", "tracks", "--raw")
	require.NoError(t, err)
	assert.Contains(t, out, "# tracks")
	assert.Contains(t, out, "| title | TEXT | yes |")
	assert.Contains(t, out, "**tracks_plays**")
	assert.Contains(t, out, "CREATE TABLE tracks")

	_, err = run(t, db, "schema", "missing")
	assert.Error(t, err)
}

func TestAlterModifyColumn(t *testing.T) {
	db := seed(t)

	out, err := run(t, db, "alter", "modify-column", "tracks", "plays", "TEXT", "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "rebuilding tracks (indexed)")

	_, err = run(t, db, "alter", "modify-column", "tracks", "plays", "TEXT", "--yes")
	require.NoError(t, err)

	out, err = run(t, db, "schema", "tracks", "--raw")
	require.NoError(t, err)
	assert.Contains(t, out, "| plays | TEXT | no |")
	assert.Contains(t, out, "**tracks_plays**")

	out, err = run(t, db, "query", "tracks", "--where", "plays='12'")
	require.NoError(t, err)
	assert.Contains(t, out, "(1 rows)")
}

func TestAlterConfirmation(t *testing.T) {
	db := seed(t)

	prev := confirm
	defer func() { confirm = prev }()

	var asked string
	confirm = func(message string) (bool, error) {
		asked = message
		return false, nil
	}

	_, err := run(t, db, "alter", "drop-column", "tracks", "plays")
	assert.ErrorIs(t, err, errAborted)
	assert.Equal(t, "Drop tracks.plays and all of its data?", asked)

	_, err = run(t, db, "alter", "add-column", "tracks", "rating", "REAL", "--nullable")
	require.NoError(t, err)
	_, err = run(t, db, "alter", "rename-column", "tracks", "rating", "score")
	require.NoError(t, err)

	out, err := run(t, db, "schema", "tracks", "--raw")
	require.NoError(t, err)
	assert.Contains(t, out, "| score | REAL |")
	assert.Contains(t, out, "| plays |")
}

func TestVersion(t *testing.T) {
	db := seed(t)

	out, err := run(t, db, "version", "--offline")
	require.NoError(t, err)
	assert.Contains(t, out, "sqlkit version")
	assert.NotContains(t, out, "SQLite:")

	out, err = run(t, db, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "SQLite: 3.")
	assert.Contains(t, out, "DROP COLUMN")
}

func TestVersionWarnsOnPrerelease(t *testing.T) {
	db := seed(t)

	saved := version.Version
	version.Version = "0.2.0-rc.1"
	t.Cleanup(func() { version.Version = saved })

	out, err := run(t, db, "version", "--offline")
	require.NoError(t, err)
	assert.Contains(t, out, "pre-release build")
}
