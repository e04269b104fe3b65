package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
)

// CopyFrom bulk-inserts rows into a table using PostgreSQL COPY protocol.
// The load is atomic: either every row lands or none.
func CopyFrom(ctx context.Context, pool Pool, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if len(columns) == 0 {
		return 0, eris.Errorf("db: COPY INTO %s: no columns specified", table)
	}
	for i, row := range rows {
		if len(row) != len(columns) {
			return 0, eris.Errorf("db: COPY INTO %s: row %d has %d values, want %d", table, i, len(row), len(columns))
		}
	}

	n, err := pool.CopyFrom(ctx, pgx.Identifier{table}, columns, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, eris.Wrapf(err, "db: COPY INTO %s", table)
	}

	return n, nil
}
