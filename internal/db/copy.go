package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
)

// CopyFrom bulk-inserts rows into a table using the PostgreSQL COPY protocol.
func CopyFrom(ctx context.Context, pool Pool, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	n, err := pool.CopyFrom(ctx, pgx.Identifier{table}, columns, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, eris.Wrapf(err, "db: COPY INTO %s", table)
	}
	return n, nil
}

// ReplaceTable swaps the contents of table for rows in one transaction:
// readers see either the old rows or the new rows, never a mix.
func ReplaceTable(ctx context.Context, pool Pool, table string, columns []string, rows [][]any) (int64, error) {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return 0, eris.Wrapf(err, "db: replace %s: begin tx", table)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, "DELETE FROM "+pgx.Identifier{table}.Sanitize()); err != nil {
		return 0, eris.Wrapf(err, "db: replace %s: clear", table)
	}

	var n int64
	if len(rows) > 0 {
		n, err = tx.CopyFrom(ctx, pgx.Identifier{table}, columns, pgx.CopyFromRows(rows))
		if err != nil {
			return 0, eris.Wrapf(err, "db: replace %s: COPY", table)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, eris.Wrapf(err, "db: replace %s: commit", table)
	}
	return n, nil
}
