// Package client provides the runtime database client.
package client

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/satishbabariya/sqlkit/internal/debug"
	"github.com/satishbabariya/sqlkit/query/executor"
)

// DriverName is the database/sql driver the client opens
const DriverName = "sqlite3"

// Options configures a Client
type Options struct {
	// DSN is passed to the go-sqlite3 driver as is
	DSN string
	// MaxBindParams bounds the parameters of one chunked statement.
	// Zero selects executor.DefaultMaxBindParams.
	MaxBindParams int
	// MaxOpenConns bounds the pool; zero leaves the database/sql default.
	// The client holds one connection and each transaction checks out
	// another, so 1 is rejected.
	MaxOpenConns int
	// StatementCacheSize is the number of prepared statements kept per
	// connection. Zero selects DefaultStatementCacheSize, a negative value
	// disables the cache.
	StatementCacheSize int
}

// DefaultStatementCacheSize is used when Options.StatementCacheSize is zero
const DefaultStatementCacheSize = 64

// Client is the main database client. Statements issued through it run on
// a single connection acquired on first use; concurrent calls serialize.
type Client struct {
	statements

	db   *sql.DB
	opts Options

	mu     sync.Mutex
	conn   *sql.Conn
	handle *handle
	closed bool
}

// Open opens the database described by opts
func Open(opts Options) (*Client, error) {
	if opts.MaxOpenConns == 1 {
		return nil, fmt.Errorf("%w: MaxOpenConns must be 0 or at least 2, transactions need a connection besides the client's", ErrInvalidRequest)
	}
	db, err := sql.Open(DriverName, opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
	}
	return NewFromDB(db, opts), nil
}

// NewFromDB creates a client from an existing pool. The client takes
// ownership of db and closes it on Close.
func NewFromDB(db *sql.DB, opts Options) *Client {
	if opts.MaxBindParams <= 0 {
		opts.MaxBindParams = executor.DefaultMaxBindParams
	}
	if opts.StatementCacheSize == 0 {
		opts.StatementCacheSize = DefaultStatementCacheSize
	}
	c := &Client{db: db, opts: opts}
	c.statements = statements{r: c, hooks: &hookChain{}}
	return c
}

// with acquires the cached connection on first use and runs fn under the
// client lock
func (c *Client) with(ctx context.Context, fn func(h *handle) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClientClosed
	}
	if c.conn == nil {
		conn, err := c.db.Conn(ctx)
		if err != nil {
			return fmt.Errorf("failed to acquire connection: %w", err)
		}
		debug.Debug("acquired connection")
		c.conn = conn
		c.handle = newHandle(conn, c.opts)
	}
	return fn(c.handle)
}

// Use adds a middleware to the chain. Transactions begun afterwards share
// the chain.
func (c *Client) Use(middleware Middleware) {
	c.hooks.use(middleware)
}

// Connect verifies the database is reachable
func (c *Client) Connect(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// Close releases the cached connection and closes the pool
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	var connErr error
	if c.conn != nil {
		c.handle.exec.Close()
		connErr = c.conn.Close()
		c.conn = nil
		c.handle = nil
	}
	if err := c.db.Close(); err != nil {
		return err
	}
	return connErr
}

// BeginTransaction starts a transaction on a connection of its own
func (c *Client) BeginTransaction(ctx context.Context) (*Transaction, error) {
	return c.BeginTransactionWithOptions(ctx, nil)
}

// BeginTransactionWithOptions starts a transaction with custom options
func (c *Client) BeginTransactionWithOptions(ctx context.Context, opts *sql.TxOptions) (*Transaction, error) {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return nil, ErrClientClosed
	}
	if c.db.Stats().MaxOpenConnections == 1 {
		return nil, fmt.Errorf("%w: a pool of one connection cannot hold a transaction besides the client's", ErrInvalidRequest)
	}

	conn, err := c.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}

	tx, err := conn.BeginTx(ctx, opts)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	debug.Debug("transaction started")
	return newTransaction(conn, tx, c.opts, c.hooks), nil
}
