package client

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// OperationEvent describes one Database operation
type OperationEvent struct {
	Operation string
	Table     string
	// Rows is the number of rows returned
	Rows     int
	Duration time.Duration
	Error    error
	Start    time.Time
	End      time.Time
}

// Middleware is a function that intercepts operations
type Middleware func(ctx context.Context, event *OperationEvent, next func() error) error

// hookChain is shared by a Client and the transactions it begins
type hookChain struct {
	mu          sync.RWMutex
	middlewares []Middleware
}

func (h *hookChain) use(mw Middleware) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.middlewares = append(h.middlewares, mw)
}

func (h *hookChain) snapshot() []Middleware {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.middlewares
}

// execute runs exec through the middleware chain
func (h *hookChain) execute(ctx context.Context, event *OperationEvent, exec func() error) error {
	middlewares := h.snapshot()
	event.Start = time.Now()

	var next func() error
	index := 0

	next = func() error {
		if index >= len(middlewares) {
			// Last middleware, execute the actual operation
			err := exec()
			event.End = time.Now()
			event.Duration = event.End.Sub(event.Start)
			event.Error = err
			return err
		}

		middleware := middlewares[index]
		index++
		return middleware(ctx, event, next)
	}

	return next()
}

// LoggingMiddleware logs every operation to logger
func LoggingMiddleware(logger *slog.Logger) Middleware {
	return func(ctx context.Context, event *OperationEvent, next func() error) error {
		err := next()
		if err != nil {
			logger.ErrorContext(ctx, "operation failed",
				"operation", event.Operation, "table", event.Table, "duration", event.Duration, "error", err)
		} else {
			logger.DebugContext(ctx, "operation completed",
				"operation", event.Operation, "table", event.Table, "rows", event.Rows, "duration", event.Duration)
		}
		return err
	}
}

// TimingMiddleware reports the duration of every operation
func TimingMiddleware(onTiming func(operation string, duration time.Duration)) Middleware {
	return func(ctx context.Context, event *OperationEvent, next func() error) error {
		err := next()
		if onTiming != nil {
			onTiming(event.Operation, event.Duration)
		}
		return err
	}
}

// ErrorMiddleware reports failed operations
func ErrorMiddleware(onError func(operation string, err error)) Middleware {
	return func(ctx context.Context, event *OperationEvent, next func() error) error {
		err := next()
		if err != nil && onError != nil {
			onError(event.Operation, err)
		}
		return err
	}
}
