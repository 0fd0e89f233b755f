package client

import (
	"errors"

	"github.com/satishbabariya/sqlkit/query"
)

// Errors callers match with errors.Is
var (
	ErrNoRow                = query.ErrNoRow
	ErrInvalidRequest       = query.ErrInvalidRequest
	ErrMissingUnique        = query.ErrMissingUnique
	ErrTransactionCommitted = query.ErrTransactionCommitted
	ErrNestedTransaction    = query.ErrNestedTransaction
	ErrUnsupported          = query.ErrUnsupported
	ErrClientClosed         = errors.New("client is closed")
)
