package destructive

import (
	"testing"

	"github.com/schemadrift/schemadrift/diff/flavour"
)

func TestCheckerNamesMatchDiffFlavours(t *testing.T) {
	cockroach, err := NewCockroachChecker("")
	if err != nil {
		t.Fatalf("NewCockroachChecker failed: %v", err)
	}
	tests := []struct {
		checker CheckerFlavour
		differ  flavour.Flavour
	}{
		{PostgresChecker{}, flavour.NewPostgresFlavour()},
		{MySQLChecker{}, flavour.NewMySQLFlavour()},
		{SQLiteChecker{}, flavour.NewSQLiteFlavour()},
		{MSSQLChecker{}, flavour.NewMSSQLFlavour()},
		{cockroach, flavour.NewCockroachFlavour()},
	}
	for _, tt := range tests {
		if tt.checker.Name() != tt.differ.Name() {
			t.Errorf("Checker name %q does not match diff flavour name %q", tt.checker.Name(), tt.differ.Name())
		}
	}
}

func TestCountQueryQuoting(t *testing.T) {
	tests := []struct {
		name    string
		flavour CheckerFlavour
		rows    string
		values  string
	}{
		{
			name:    "postgres defaults to public",
			flavour: PostgresChecker{},
			rows:    `SELECT COUNT(*) FROM "public"."users"`,
			values:  `SELECT COUNT("email") FROM "public"."users"`,
		},
		{
			name:    "mysql uses backticks",
			flavour: MySQLChecker{},
			rows:    "SELECT COUNT(*) FROM `users`",
			values:  "SELECT COUNT(`email`) FROM `users`",
		},
		{
			name:    "sqlite has no namespace",
			flavour: SQLiteChecker{},
			rows:    `SELECT COUNT(*) FROM "users"`,
			values:  `SELECT COUNT("email") FROM "users"`,
		},
		{
			name:    "mssql defaults to dbo",
			flavour: MSSQLChecker{},
			rows:    "SELECT COUNT(*) FROM [dbo].[users]",
			values:  "SELECT COUNT([email]) FROM [dbo].[users]",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.flavour.RowCountQuery("", "users"); got != tt.rows {
				t.Errorf("RowCountQuery = %q, want %q", got, tt.rows)
			}
			if got := tt.flavour.ValueCountQuery("", "users", "email"); got != tt.values {
				t.Errorf("ValueCountQuery = %q, want %q", got, tt.values)
			}
		})
	}
}

func TestQuotedIdentifiersEscape(t *testing.T) {
	if got := postgresQuoteIdent(`wei"rd`); got != `"wei""rd"` {
		t.Errorf("postgresQuoteIdent = %q", got)
	}
	if got := sqliteQuoteIdent(`wei"rd`); got != `"wei""rd"` {
		t.Errorf("sqliteQuoteIdent = %q", got)
	}
}
