package introspect

import "errors"

var (
	ErrTableNotFound       = errors.New("table not found")
	ErrIntrospectionFailed = errors.New("database introspection failed")
)
