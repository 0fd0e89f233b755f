package client

import (
	"context"

	version "github.com/hashicorp/go-version"

	"github.com/satishbabariya/sqlkit/migrate/alter"
	"github.com/satishbabariya/sqlkit/migrate/introspect"
	"github.com/satishbabariya/sqlkit/migrate/schema"
	"github.com/satishbabariya/sqlkit/migrate/sqlgen"
	"github.com/satishbabariya/sqlkit/query/ast"
	"github.com/satishbabariya/sqlkit/query/executor"
	"github.com/satishbabariya/sqlkit/runtime/types"
)

// Database is the statement surface shared by Client and Transaction
type Database interface {
	Query(ctx context.Context, sel *ast.Select) ([]types.Row, error)
	QueryFirst(ctx context.Context, sel *ast.Select) (*types.Row, error)

	ExecInsert(ctx context.Context, ins *ast.Insert) (types.Row, error)
	ExecUpdate(ctx context.Context, upd *ast.Update) ([]types.Row, error)
	ExecUpdateFirst(ctx context.Context, upd *ast.Update) (*types.Row, error)
	ExecDelete(ctx context.Context, del *ast.Delete) ([]types.Row, error)
	ExecDeleteFirst(ctx context.Context, del *ast.Delete) (*types.Row, error)
	ExecUpsert(ctx context.Context, up *ast.Upsert) ([]types.Row, error)
	ExecUpsertFirst(ctx context.Context, up *ast.Upsert) (types.Row, error)
	ExecUpsertMulti(ctx context.Context, up *ast.UpsertMulti) ([]types.Row, error)
	ExecUpdateMulti(ctx context.Context, upd *ast.UpdateMulti) ([]types.Row, error)
	ExecRaw(ctx context.Context, sql string) error

	ExecCreateTable(ctx context.Context, ct *schema.CreateTable) error
	ExecDropTable(ctx context.Context, dt *schema.DropTable) error
	ExecCreateIndex(ctx context.Context, ci *schema.CreateIndex) error
	ExecDropIndex(ctx context.Context, di *schema.DropIndex) error
	ExecAlterTable(ctx context.Context, at *schema.AlterTable) error

	BeginTransaction(ctx context.Context) (*Transaction, error)
}

var (
	_ Database = (*Client)(nil)
	_ Database = (*Transaction)(nil)
)

// handle bundles the components bound to one connection or transaction
type handle struct {
	exec    *executor.Executor
	alter   *alter.Emulator
	inspect *introspect.SQLiteIntrospector
}

func newHandle(conn executor.Conn, opts Options) *handle {
	return &handle{
		exec: executor.NewExecutor(conn,
			executor.WithMaxBindParams(opts.MaxBindParams),
			executor.WithStatementCache(opts.StatementCacheSize),
		),
		alter:   alter.New(conn),
		inspect: introspect.NewSQLiteIntrospector(conn),
	}
}

// runner hands out the handle of a Client or Transaction, serializing use
type runner interface {
	with(ctx context.Context, fn func(h *handle) error) error
}

// statements implements the Database operations once for both Client and
// Transaction
type statements struct {
	r     runner
	hooks *hookChain
}

func (s *statements) do(ctx context.Context, event *OperationEvent, fn func(h *handle) error) error {
	return s.hooks.execute(ctx, event, func() error {
		return s.r.with(ctx, fn)
	})
}

// Query runs a SELECT
func (s *statements) Query(ctx context.Context, sel *ast.Select) (rows []types.Row, err error) {
	event := &OperationEvent{Operation: "query", Table: sel.Table}
	err = s.do(ctx, event, func(h *handle) error {
		rows, err = h.exec.Select(ctx, sel)
		event.Rows = len(rows)
		return err
	})
	return rows, err
}

// QueryFirst runs a SELECT limited to one row; nil when nothing matches
func (s *statements) QueryFirst(ctx context.Context, sel *ast.Select) (row *types.Row, err error) {
	event := &OperationEvent{Operation: "query_first", Table: sel.Table}
	err = s.do(ctx, event, func(h *handle) error {
		row, err = h.exec.SelectFirst(ctx, sel)
		if row != nil {
			event.Rows = 1
		}
		return err
	})
	return row, err
}

// ExecInsert inserts one row and returns it as stored
func (s *statements) ExecInsert(ctx context.Context, ins *ast.Insert) (row types.Row, err error) {
	event := &OperationEvent{Operation: "insert", Table: ins.Table}
	err = s.do(ctx, event, func(h *handle) error {
		row, err = h.exec.Insert(ctx, ins)
		if err == nil {
			event.Rows = 1
		}
		return err
	})
	return row, err
}

// ExecUpdate updates the matching rows and returns them
func (s *statements) ExecUpdate(ctx context.Context, upd *ast.Update) (rows []types.Row, err error) {
	event := &OperationEvent{Operation: "update", Table: upd.Table}
	err = s.do(ctx, event, func(h *handle) error {
		rows, err = h.exec.Update(ctx, upd)
		event.Rows = len(rows)
		return err
	})
	return rows, err
}

// ExecUpdateFirst updates at most one matching row
func (s *statements) ExecUpdateFirst(ctx context.Context, upd *ast.Update) (row *types.Row, err error) {
	event := &OperationEvent{Operation: "update_first", Table: upd.Table}
	err = s.do(ctx, event, func(h *handle) error {
		row, err = h.exec.UpdateFirst(ctx, upd)
		if row != nil {
			event.Rows = 1
		}
		return err
	})
	return row, err
}

// ExecDelete deletes the matching rows and returns them
func (s *statements) ExecDelete(ctx context.Context, del *ast.Delete) (rows []types.Row, err error) {
	event := &OperationEvent{Operation: "delete", Table: del.Table}
	err = s.do(ctx, event, func(h *handle) error {
		rows, err = h.exec.Delete(ctx, del)
		event.Rows = len(rows)
		return err
	})
	return rows, err
}

// ExecDeleteFirst deletes at most one matching row
func (s *statements) ExecDeleteFirst(ctx context.Context, del *ast.Delete) (row *types.Row, err error) {
	event := &OperationEvent{Operation: "delete_first", Table: del.Table}
	err = s.do(ctx, event, func(h *handle) error {
		row, err = h.exec.DeleteFirst(ctx, del)
		if row != nil {
			event.Rows = 1
		}
		return err
	})
	return row, err
}

// ExecUpsert updates the matching rows, inserting when none match
func (s *statements) ExecUpsert(ctx context.Context, up *ast.Upsert) (rows []types.Row, err error) {
	event := &OperationEvent{Operation: "upsert", Table: up.Table}
	err = s.do(ctx, event, func(h *handle) error {
		rows, err = h.exec.Upsert(ctx, up)
		event.Rows = len(rows)
		return err
	})
	return rows, err
}

// ExecUpsertFirst is ExecUpsert limited to one row
func (s *statements) ExecUpsertFirst(ctx context.Context, up *ast.Upsert) (row types.Row, err error) {
	event := &OperationEvent{Operation: "upsert_first", Table: up.Table}
	err = s.do(ctx, event, func(h *handle) error {
		row, err = h.exec.UpsertFirst(ctx, up)
		if err == nil {
			event.Rows = 1
		}
		return err
	})
	return row, err
}

// ExecUpsertMulti inserts rows, updating on conflict with the unique columns
func (s *statements) ExecUpsertMulti(ctx context.Context, up *ast.UpsertMulti) (rows []types.Row, err error) {
	event := &OperationEvent{Operation: "upsert_multi", Table: up.Table}
	err = s.do(ctx, event, func(h *handle) error {
		rows, err = h.exec.UpsertMulti(ctx, up)
		event.Rows = len(rows)
		return err
	})
	return rows, err
}

// ExecUpdateMulti updates each row matched by its unique columns
func (s *statements) ExecUpdateMulti(ctx context.Context, upd *ast.UpdateMulti) (rows []types.Row, err error) {
	event := &OperationEvent{Operation: "update_multi", Table: upd.Table}
	err = s.do(ctx, event, func(h *handle) error {
		rows, err = h.exec.UpdateMulti(ctx, upd)
		event.Rows = len(rows)
		return err
	})
	return rows, err
}

// ExecRaw executes sql as is
func (s *statements) ExecRaw(ctx context.Context, sql string) error {
	return s.do(ctx, &OperationEvent{Operation: "raw"}, func(h *handle) error {
		return h.exec.Raw(ctx, sql)
	})
}

// ExecCreateTable creates a table
func (s *statements) ExecCreateTable(ctx context.Context, ct *schema.CreateTable) error {
	stmt, err := sqlgen.GenerateCreateTable(ct)
	if err != nil {
		return err
	}
	return s.do(ctx, &OperationEvent{Operation: "create_table", Table: ct.Name}, func(h *handle) error {
		return h.exec.Raw(ctx, stmt)
	})
}

// ExecDropTable drops a table
func (s *statements) ExecDropTable(ctx context.Context, dt *schema.DropTable) error {
	return s.do(ctx, &OperationEvent{Operation: "drop_table", Table: dt.Name}, func(h *handle) error {
		return h.exec.Raw(ctx, sqlgen.GenerateDropTable(dt))
	})
}

// ExecCreateIndex creates an index
func (s *statements) ExecCreateIndex(ctx context.Context, ci *schema.CreateIndex) error {
	stmt, err := sqlgen.GenerateCreateIndex(ci)
	if err != nil {
		return err
	}
	return s.do(ctx, &OperationEvent{Operation: "create_index", Table: ci.Table}, func(h *handle) error {
		return h.exec.Raw(ctx, stmt)
	})
}

// ExecDropIndex drops an index
func (s *statements) ExecDropIndex(ctx context.Context, di *schema.DropIndex) error {
	return s.do(ctx, &OperationEvent{Operation: "drop_index", Table: di.Table}, func(h *handle) error {
		return h.exec.Raw(ctx, sqlgen.GenerateDropIndex(di))
	})
}

// ExecAlterTable applies the operations of at, emulating ModifyColumn
func (s *statements) ExecAlterTable(ctx context.Context, at *schema.AlterTable) error {
	return s.do(ctx, &OperationEvent{Operation: "alter_table", Table: at.Name}, func(h *handle) error {
		defer h.exec.Close()
		return h.alter.Apply(ctx, at)
	})
}

// PlanModifyColumn reports how a ModifyColumn would be carried out
func (s *statements) PlanModifyColumn(ctx context.Context, table string, op schema.ModifyColumn) (path alter.Path, reason string, err error) {
	err = s.r.with(ctx, func(h *handle) error {
		path, reason, err = h.alter.Plan(ctx, table, op)
		return err
	})
	return path, reason, err
}

// Inspect runs fn with an introspector bound to the same connection
func (s *statements) Inspect(ctx context.Context, fn func(in *introspect.SQLiteIntrospector) error) error {
	return s.r.with(ctx, func(h *handle) error {
		return fn(h.inspect)
	})
}

// EngineFeatures reports which native column statements the engine supports
func (s *statements) EngineFeatures(ctx context.Context) (features []alter.Feature, err error) {
	err = s.r.with(ctx, func(h *handle) error {
		features, err = h.alter.Features(ctx)
		return err
	})
	return features, err
}

// EngineVersion returns the SQLite library version
func (s *statements) EngineVersion(ctx context.Context) (v *version.Version, err error) {
	err = s.r.with(ctx, func(h *handle) error {
		v, err = h.alter.EngineVersion(ctx)
		return err
	})
	return v, err
}
