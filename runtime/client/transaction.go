package client

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/satishbabariya/sqlkit/internal/debug"
)

// Transaction is a database transaction. Commit and Rollback each take the
// underlying transaction out of its slot, so whichever runs first wins and
// every later call, statements included, fails with
// ErrTransactionCommitted.
type Transaction struct {
	statements

	mu     sync.Mutex
	conn   *sql.Conn
	tx     *sql.Tx
	handle *handle
}

func newTransaction(conn *sql.Conn, tx *sql.Tx, opts Options, hooks *hookChain) *Transaction {
	t := &Transaction{
		conn:   conn,
		tx:     tx,
		handle: newHandle(tx, opts),
	}
	t.statements = statements{r: t, hooks: hooks}
	return t
}

func (t *Transaction) with(ctx context.Context, fn func(h *handle) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.tx == nil {
		return ErrTransactionCommitted
	}
	return fn(t.handle)
}

// take empties the slot, returning what it held
func (t *Transaction) take() (*sql.Tx, *sql.Conn) {
	t.mu.Lock()
	defer t.mu.Unlock()

	tx, conn := t.tx, t.conn
	if t.handle != nil {
		t.handle.exec.Close()
	}
	t.tx, t.conn, t.handle = nil, nil, nil
	return tx, conn
}

// Commit commits the transaction
func (t *Transaction) Commit(ctx context.Context) error {
	tx, conn := t.take()
	if tx == nil {
		return ErrTransactionCommitted
	}
	defer conn.Close()

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	debug.Debug("transaction committed")
	return nil
}

// Rollback aborts the transaction
func (t *Transaction) Rollback(ctx context.Context) error {
	tx, conn := t.take()
	if tx == nil {
		return ErrTransactionCommitted
	}
	defer conn.Close()

	if err := tx.Rollback(); err != nil {
		return fmt.Errorf("failed to roll back transaction: %w", err)
	}
	debug.Debug("transaction rolled back")
	return nil
}

// BeginTransaction always fails; transactions do not nest
func (t *Transaction) BeginTransaction(ctx context.Context) (*Transaction, error) {
	return nil, ErrNestedTransaction
}

// TransactionFunc is a function that runs within a transaction
type TransactionFunc func(tx *Transaction) error

// Transaction executes fn within a database transaction.
// If fn returns an error or panics, the transaction is rolled back.
// Otherwise, the transaction is committed.
func (c *Client) Transaction(ctx context.Context, fn TransactionFunc) error {
	tx, err := c.BeginTransaction(ctx)
	if err != nil {
		return err
	}

	// Defer rollback in case of panic
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p) // re-throw panic after rollback
		}
	}()

	if err := fn(tx); err != nil {
		// fn may have finished the transaction itself
		if rbErr := tx.Rollback(ctx); rbErr != nil && rbErr != ErrTransactionCommitted {
			return fmt.Errorf("transaction error: %v, rollback error: %w", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil && err != ErrTransactionCommitted {
		return err
	}
	return nil
}
