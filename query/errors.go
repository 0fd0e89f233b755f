// Package query holds the error taxonomy shared by the query and migrate layers.
package query

import "errors"

var (
	// ErrNoRow is returned when an operation expected to produce a row, or
	// the identifier of one, produced none
	ErrNoRow = errors.New("no row returned")
	// ErrInvalidRequest marks malformed caller input
	ErrInvalidRequest = errors.New("invalid request")
	// ErrMissingUnique is returned by upsert-multi without unique columns
	ErrMissingUnique = errors.New("missing unique columns")
	// ErrTransactionCommitted is returned for any use of a finished transaction
	ErrTransactionCommitted = errors.New("transaction already committed")
	// ErrNestedTransaction is returned when a transaction tries to begin another
	ErrNestedTransaction = errors.New("nested transactions are not supported")
	// ErrUnsupported is returned when the engine lacks a required capability
	ErrUnsupported = errors.New("unsupported by database engine")
	// ErrUnsupportedColumnType is returned when a result column type cannot be mapped
	ErrUnsupportedColumnType = errors.New("unsupported column type")
)
