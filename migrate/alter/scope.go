package alter

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/satishbabariya/sqlkit/internal/debug"
)

// scope is the unit an emulated change runs in: a transaction of its own
// or a savepoint inside the caller's transaction
type scope interface {
	Conn
	commit(ctx context.Context) error
	rollback(ctx context.Context) error
}

type txScope struct {
	*sql.Tx
}

func (s txScope) commit(context.Context) error   { return s.Tx.Commit() }
func (s txScope) rollback(context.Context) error { return s.Tx.Rollback() }

const savepointName = "sqlkit_alter"

type savepointScope struct {
	Conn
}

func (s savepointScope) commit(ctx context.Context) error {
	_, err := s.ExecContext(ctx, "RELEASE SAVEPOINT "+savepointName)
	return err
}

func (s savepointScope) rollback(ctx context.Context) error {
	if _, err := s.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+savepointName); err != nil {
		return err
	}
	_, err := s.ExecContext(ctx, "RELEASE SAVEPOINT "+savepointName)
	return err
}

// begin opens a scope on the emulator's connection
func (e *Emulator) begin(ctx context.Context) (scope, error) {
	if beginner, ok := e.conn.(TxBeginner); ok {
		tx, err := beginner.BeginTx(ctx, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to begin transaction: %w", err)
		}
		return txScope{Tx: tx}, nil
	}

	if _, err := e.conn.ExecContext(ctx, "SAVEPOINT "+savepointName); err != nil {
		return nil, fmt.Errorf("failed to create savepoint: %w", err)
	}
	return savepointScope{Conn: e.conn}, nil
}

// ownsTransaction reports whether changes run in a transaction the
// emulator controls, so connection level PRAGMAs can be toggled around it
func (e *Emulator) ownsTransaction() bool {
	_, ok := e.conn.(TxBeginner)
	return ok
}

// run executes fn inside a new scope, committing on success and rolling
// back on any error or panic
func (e *Emulator) run(ctx context.Context, fn func(s scope) error) (err error) {
	s, err := e.begin(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = s.rollback(ctx)
			panic(p)
		}
	}()

	if err := fn(s); err != nil {
		if rbErr := s.rollback(ctx); rbErr != nil {
			debug.Error("rollback failed", "error", rbErr)
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}

	if err := s.commit(ctx); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}
