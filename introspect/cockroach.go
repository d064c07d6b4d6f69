package introspect

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// CockroachIntrospector reads a CockroachDB schema into a snapshot.
// CockroachDB speaks the PostgreSQL catalog, so the introspection itself
// is shared; only the version probe is specific.
type CockroachIntrospector struct {
	*PostgresIntrospector
}

// NewCockroachIntrospector creates an introspector for CockroachDB.
func NewCockroachIntrospector(db *sql.DB) *CockroachIntrospector {
	return &CockroachIntrospector{
		PostgresIntrospector: &PostgresIntrospector{db: db},
	}
}

// ServerVersion returns the server's release number, e.g. "23.1.11",
// parsed out of the version() banner.
func (i *CockroachIntrospector) ServerVersion(ctx context.Context) (string, error) {
	var banner string
	if err := i.db.QueryRowContext(ctx, "SELECT version()").Scan(&banner); err != nil {
		return "", fmt.Errorf("querying server version: %w", err)
	}
	// The banner looks like "CockroachDB CCL v23.1.11 (...)".
	for _, field := range strings.Fields(banner) {
		if strings.HasPrefix(field, "v") && strings.Contains(field, ".") {
			return strings.TrimPrefix(field, "v"), nil
		}
	}
	return "", fmt.Errorf("unrecognized version banner %q", banner)
}
