// Package introspect reads live database schemas into snapshots. Each
// supported connector has its own introspector; all of them produce the
// same flavour-agnostic schema.Snapshot the differ consumes.
package introspect

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/schemadrift/schemadrift/schema"
)

var (
	// ErrUnsupportedProvider is returned for provider names New does not
	// recognize.
	ErrUnsupportedProvider = errors.New("unsupported database provider")
)

// Introspector reads a database schema into a snapshot.
type Introspector interface {
	Snapshot(ctx context.Context) (*schema.Snapshot, error)
}

// New creates an introspector for the given provider name.
func New(db *sql.DB, provider string) (Introspector, error) {
	switch provider {
	case "postgresql", "postgres":
		return &PostgresIntrospector{db: db}, nil
	case "cockroachdb":
		return NewCockroachIntrospector(db), nil
	case "mysql":
		return &MySQLIntrospector{db: db}, nil
	case "sqlite":
		return &SQLiteIntrospector{db: db}, nil
	case "sqlserver", "mssql":
		return &MSSQLIntrospector{db: db}, nil
	default:
		return nil, ErrUnsupportedProvider
	}
}

// parseForeignKeyAction maps the referential action strings found in
// information_schema to the snapshot representation.
func parseForeignKeyAction(action string) schema.ForeignKeyAction {
	switch strings.ToUpper(strings.TrimSpace(action)) {
	case "CASCADE":
		return schema.Cascade
	case "SET NULL":
		return schema.SetNull
	case "SET DEFAULT":
		return schema.SetDefault
	case "RESTRICT":
		return schema.Restrict
	default:
		return schema.NoAction
	}
}

// parseDefault classifies a raw column default expression. Sequence-backed
// and function defaults are database-generated; everything else is kept as
// a literal value.
func parseDefault(raw string) *schema.Default {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	lower := strings.ToLower(raw)
	if strings.Contains(lower, "nextval(") {
		return &schema.Default{Kind: schema.DefaultSequence, Value: raw}
	}
	if strings.HasSuffix(lower, "()") ||
		strings.HasPrefix(lower, "current_timestamp") ||
		strings.HasPrefix(lower, "current_date") ||
		strings.HasPrefix(lower, "gen_random_uuid") {
		return &schema.Default{Kind: schema.DefaultDBGenerated, Value: raw}
	}
	// Strip Postgres-style cast suffixes like 'draft'::status.
	if i := strings.Index(raw, "::"); i > 0 {
		raw = raw[:i]
	}
	return &schema.Default{Kind: schema.DefaultValue, Value: strings.Trim(raw, "'")}
}

// sortedIndexColumns converts plain column name lists to index columns
// with the default ascending order.
func sortedIndexColumns(names []string) []schema.IndexColumn {
	columns := make([]schema.IndexColumn, 0, len(names))
	for _, name := range names {
		columns = append(columns, schema.IndexColumn{
			Name:      strings.TrimSpace(name),
			SortOrder: schema.Ascending,
		})
	}
	return columns
}
