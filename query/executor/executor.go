// Package executor executes compiled statements and materializes result rows.
package executor

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/satishbabariya/sqlkit/internal/debug"
	"github.com/satishbabariya/sqlkit/query"
	"github.com/satishbabariya/sqlkit/query/ast"
	"github.com/satishbabariya/sqlkit/query/cache"
	"github.com/satishbabariya/sqlkit/query/sqlgen"
	"github.com/satishbabariya/sqlkit/runtime/types"
)

// Conn is the handle statements run on. *sql.Conn, *sql.Tx and *sql.DB
// all satisfy it.
type Conn interface {
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

// DefaultMaxBindParams is SQLite's default SQLITE_MAX_VARIABLE_NUMBER
const DefaultMaxBindParams = 32766

// maxBindParamsCeiling bounds the parameter count of any single statement
const maxBindParamsCeiling = 1<<16 - 1

// Executor executes statements against a single connection or transaction
type Executor struct {
	conn          Conn
	maxBindParams int

	// stmts holds prepared statements by SQL text when caching is enabled
	stmts *cache.LRU[string, *sql.Stmt]
}

// Option configures an Executor
type Option func(*Executor)

// WithMaxBindParams sets the per-statement parameter ceiling used when
// chunking multi-row statements. Values are clamped to 65535.
func WithMaxBindParams(n int) Option {
	return func(e *Executor) {
		if n <= 0 {
			return
		}
		if n > maxBindParamsCeiling {
			n = maxBindParamsCeiling
		}
		e.maxBindParams = n
	}
}

// WithStatementCache keeps up to size prepared statements open for reuse.
// Iterators must be closed before the next statement runs, since a
// statement evicted by it is closed.
func WithStatementCache(size int) Option {
	return func(e *Executor) {
		if size <= 0 {
			e.stmts = nil
			return
		}
		e.stmts = cache.NewLRU[string, *sql.Stmt](size, func(query string, stmt *sql.Stmt) {
			if err := stmt.Close(); err != nil {
				debug.Warn("failed to close cached statement", "sql", query, "error", err)
			}
		})
	}
}

// NewExecutor creates a new executor bound to conn
func NewExecutor(conn Conn, opts ...Option) *Executor {
	e := &Executor{
		conn:          conn,
		maxBindParams: DefaultMaxBindParams,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run prepares and executes q, returning a lazy iterator over its rows.
// The caller must Close the iterator.
func (e *Executor) Run(ctx context.Context, q *sqlgen.Query) (*RowIterator, error) {
	args, err := q.Args()
	if err != nil {
		return nil, err
	}

	debug.Debug("executing statement", "sql", q.SQL, "params", len(args))

	stmt, cached, err := e.prepare(ctx, q.SQL)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare statement: %w", err)
	}
	release := func() {
		if cached {
			e.stmts.Invalidate(q.SQL)
		} else {
			stmt.Close()
		}
	}

	rows, err := stmt.QueryContext(ctx, args...)
	if err != nil {
		release()
		return nil, fmt.Errorf("query execution failed: %w", err)
	}

	it, err := newRowIterator(stmt, rows, !cached)
	if err != nil {
		rows.Close()
		release()
		return nil, err
	}
	if cached {
		// errors of RETURNING statements surface while stepping
		it.onFailure = func() { e.stmts.Invalidate(q.SQL) }
	}
	return it, nil
}

// prepare returns a prepared statement for query and whether it belongs
// to the statement cache
func (e *Executor) prepare(ctx context.Context, query string) (*sql.Stmt, bool, error) {
	if e.stmts == nil {
		stmt, err := e.conn.PrepareContext(ctx, query)
		return stmt, false, err
	}

	if stmt, ok := e.stmts.Get(query); ok {
		return stmt, true, nil
	}
	stmt, err := e.conn.PrepareContext(ctx, query)
	if err != nil {
		return nil, false, err
	}
	e.stmts.Set(query, stmt)
	return stmt, true, nil
}

// Close releases the cached prepared statements. The executor stays usable.
func (e *Executor) Close() error {
	if e.stmts != nil {
		e.stmts.Clear()
	}
	return nil
}

// CacheStats reports statement cache usage; zero when caching is disabled
func (e *Executor) CacheStats() cache.Stats {
	if e.stmts == nil {
		return cache.Stats{}
	}
	return e.stmts.GetStats()
}

// Fetch executes q and collects every row
func (e *Executor) Fetch(ctx context.Context, q *sqlgen.Query) ([]types.Row, error) {
	it, err := e.Run(ctx, q)
	if err != nil {
		return nil, err
	}
	return it.All()
}

// FetchFirst executes q and returns its first row, or nil
func (e *Executor) FetchFirst(ctx context.Context, q *sqlgen.Query) (*types.Row, error) {
	it, err := e.Run(ctx, q)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	if !it.Next() {
		return nil, it.Err()
	}
	row, err := it.Row()
	if err != nil {
		return nil, err
	}
	return &row, it.Close()
}

// Select executes a SELECT statement
func (e *Executor) Select(ctx context.Context, sel *ast.Select) ([]types.Row, error) {
	return e.Fetch(ctx, sqlgen.GenerateSelect(sel))
}

// SelectFirst executes a SELECT limited to one row
func (e *Executor) SelectFirst(ctx context.Context, sel *ast.Select) (*types.Row, error) {
	return e.FetchFirst(ctx, sqlgen.GenerateSelectFirst(sel))
}

// Insert executes an INSERT and returns the inserted row
func (e *Executor) Insert(ctx context.Context, ins *ast.Insert) (types.Row, error) {
	row, err := e.FetchFirst(ctx, sqlgen.GenerateInsert(ins))
	if err != nil {
		return types.Row{}, fmt.Errorf("insert into %s failed: %w", ins.Table, err)
	}
	if row == nil {
		return types.Row{}, fmt.Errorf("insert into %s: %w", ins.Table, query.ErrNoRow)
	}
	return *row, nil
}

// Update executes an UPDATE and returns the updated rows
func (e *Executor) Update(ctx context.Context, upd *ast.Update) ([]types.Row, error) {
	q, err := sqlgen.GenerateUpdate(upd)
	if err != nil {
		return nil, err
	}
	return e.Fetch(ctx, q)
}

// UpdateFirst updates at most one row
func (e *Executor) UpdateFirst(ctx context.Context, upd *ast.Update) (*types.Row, error) {
	first := *upd
	first.Limit = ast.IntPtr(1)

	q, err := sqlgen.GenerateUpdate(&first)
	if err != nil {
		return nil, err
	}
	return e.FetchFirst(ctx, q)
}

// Delete executes a DELETE and returns the deleted rows
func (e *Executor) Delete(ctx context.Context, del *ast.Delete) ([]types.Row, error) {
	return e.Fetch(ctx, sqlgen.GenerateDelete(del))
}

// DeleteFirst deletes at most one row
func (e *Executor) DeleteFirst(ctx context.Context, del *ast.Delete) (*types.Row, error) {
	first := *del
	first.Limit = ast.IntPtr(1)
	return e.FetchFirst(ctx, sqlgen.GenerateDelete(&first))
}

// Upsert updates the rows matching the filters, or inserts when none match
func (e *Executor) Upsert(ctx context.Context, up *ast.Upsert) ([]types.Row, error) {
	rows, err := e.Update(ctx, up.AsUpdate())
	if err != nil {
		return nil, fmt.Errorf("upsert update failed: %w", err)
	}
	if len(rows) > 0 {
		return rows, nil
	}

	row, err := e.Insert(ctx, up.AsInsert())
	if err != nil {
		return nil, fmt.Errorf("upsert insert failed: %w", err)
	}
	return []types.Row{row}, nil
}

// UpsertFirst upserts a single row
func (e *Executor) UpsertFirst(ctx context.Context, up *ast.Upsert) (types.Row, error) {
	row, err := e.UpdateFirst(ctx, up.AsUpdate())
	if err != nil {
		return types.Row{}, fmt.Errorf("upsert update failed: %w", err)
	}
	if row != nil {
		return *row, nil
	}
	return e.Insert(ctx, up.AsInsert())
}

// Raw executes sql without compiling or binding anything
func (e *Executor) Raw(ctx context.Context, sql string) error {
	debug.Debug("executing raw statement", "sql", sql)

	if _, err := e.conn.ExecContext(ctx, sql); err != nil {
		return fmt.Errorf("raw statement failed: %w", err)
	}
	// raw statements may change the schema under cached statements
	e.Close()
	return nil
}
