package executor

import (
	"context"
	"fmt"

	"github.com/satishbabariya/sqlkit/internal/debug"
	"github.com/satishbabariya/sqlkit/query"
	"github.com/satishbabariya/sqlkit/query/ast"
	"github.com/satishbabariya/sqlkit/query/sqlgen"
	"github.com/satishbabariya/sqlkit/runtime/types"
)

// chunkRows splits rows into consecutive chunks whose bound parameter
// count stays within maxParams.
func chunkRows(rows [][]ast.Assignment, maxParams int) ([][][]ast.Assignment, error) {
	var chunks [][][]ast.Assignment

	start, params := 0, 0
	for i, row := range rows {
		n := sqlgen.CountParams(row)
		if n > maxParams {
			return nil, fmt.Errorf("%w: row %d binds %d parameters, limit is %d", query.ErrInvalidRequest, i, n, maxParams)
		}
		if i > start && params+n > maxParams {
			chunks = append(chunks, rows[start:i])
			start, params = i, 0
		}
		params += n
	}
	if start < len(rows) {
		chunks = append(chunks, rows[start:])
	}
	return chunks, nil
}

// runChunked validates the batch, splits it and runs build+execute per
// chunk, concatenating the returned rows. Nothing is executed when
// validation fails.
func (e *Executor) runChunked(ctx context.Context, table string, rows [][]ast.Assignment, build func([][]ast.Assignment) (*sqlgen.Query, error)) ([]types.Row, error) {
	if err := validateRows(table, rows); err != nil {
		return nil, err
	}

	chunks, err := chunkRows(rows, e.maxBindParams)
	if err != nil {
		return nil, err
	}

	// build every statement up front so request errors surface before any chunk runs
	queries := make([]*sqlgen.Query, len(chunks))
	for i, chunk := range chunks {
		q, err := build(chunk)
		if err != nil {
			return nil, err
		}
		if _, err := q.Args(); err != nil {
			return nil, err
		}
		queries[i] = q
	}

	var out []types.Row
	for i, q := range queries {
		debug.Debug("executing chunk", "table", table, "chunk", i+1, "of", len(queries), "rows", len(chunks[i]), "params", len(q.Params))

		result, err := e.Fetch(ctx, q)
		if err != nil {
			return nil, fmt.Errorf("chunk %d of %d for %s failed: %w", i+1, len(queries), table, err)
		}
		out = append(out, result...)
	}
	return out, nil
}

// UpsertMulti inserts rows, updating existing rows on conflict with the
// unique columns
func (e *Executor) UpsertMulti(ctx context.Context, up *ast.UpsertMulti) ([]types.Row, error) {
	if len(up.Unique) == 0 {
		return nil, fmt.Errorf("%w: upsert into %s", query.ErrMissingUnique, up.Table)
	}
	if len(up.Rows) == 0 {
		return nil, nil
	}

	return e.runChunked(ctx, up.Table, up.Rows, func(chunk [][]ast.Assignment) (*sqlgen.Query, error) {
		return sqlgen.GenerateUpsertMulti(up.Table, up.Unique, chunk)
	})
}

// UpdateMulti updates the rows matching each input row's unique columns.
// A Limit bounds the number of input rows used; rows that match nothing
// still count against it.
func (e *Executor) UpdateMulti(ctx context.Context, upd *ast.UpdateMulti) ([]types.Row, error) {
	if len(upd.Unique) == 0 {
		return nil, fmt.Errorf("%w: update of %s", query.ErrMissingUnique, upd.Table)
	}

	if err := validateRows(upd.Table, upd.Rows); err != nil {
		return nil, err
	}

	rows := upd.Rows
	if upd.Limit != nil && *upd.Limit < len(rows) {
		if *upd.Limit <= 0 {
			return nil, nil
		}
		rows = rows[:*upd.Limit]
	}
	if len(rows) == 0 {
		return nil, nil
	}

	return e.runChunked(ctx, upd.Table, rows, func(chunk [][]ast.Assignment) (*sqlgen.Query, error) {
		return sqlgen.GenerateUpdateMulti(upd.Table, upd.Unique, chunk)
	})
}
