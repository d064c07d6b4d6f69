package destructive

import (
	"context"
	"database/sql"
)

// Queryable is the narrow read-only connection surface the checker needs.
// Every query the checker issues is a single-value COUNT.
type Queryable interface {
	QueryCount(ctx context.Context, query string) (int64, error)
}

// DB adapts a *sql.DB to the Queryable interface.
type DB struct {
	*sql.DB
}

// QueryCount runs a COUNT query and scans its single value.
func (d DB) QueryCount(ctx context.Context, query string) (int64, error) {
	var count int64
	if err := d.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
