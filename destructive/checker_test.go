package destructive

import (
	"context"
	"strings"
	"testing"

	"github.com/schemadrift/schemadrift/diff"
	"github.com/schemadrift/schemadrift/diff/flavour"
	"github.com/schemadrift/schemadrift/schema"
)

// fakeConn serves canned counts keyed by the exact query string and
// records every query it sees.
type fakeConn struct {
	counts map[string]int64
	calls  []string
}

func (f *fakeConn) QueryCount(_ context.Context, query string) (int64, error) {
	f.calls = append(f.calls, query)
	count, ok := f.counts[query]
	if !ok {
		return 0, nil
	}
	return count, nil
}

func usersSchema() *schema.Snapshot {
	s := schema.New()
	users := s.AddTable("public", "users")
	s.AddColumn(users, schema.Column{
		Name:  "id",
		Type:  schema.ColumnType{Family: schema.FamilyInt, Native: "integer"},
		Arity: schema.Required,
	})
	s.AddColumn(users, schema.Column{
		Name:  "email",
		Type:  schema.ColumnType{Family: schema.FamilyString, Native: "varchar", Params: []int{255}},
		Arity: schema.Nullable,
	})
	s.SetPrimaryKey(users, schema.PrimaryKey{Columns: []schema.IndexColumn{{Name: "id"}}})
	return s
}

func diffMigration(t *testing.T, previous, next *schema.Snapshot) *diff.Migration {
	t.Helper()
	m := diff.Diff(previous, next, flavour.NewPostgresFlavour())
	if len(m.Steps) == 0 {
		t.Fatal("Expected the scenario to produce migration steps")
	}
	return m
}

func TestPureCheckDropTable(t *testing.T) {
	m := diffMigration(t, usersSchema(), schema.New())
	results := NewChecker(PostgresChecker{}, nil).PureCheck(m)

	if !results.HasWarnings() {
		t.Fatal("Expected a warning for a dropped table")
	}
	msg := results.Warnings[0].Message
	if !strings.Contains(msg, "drop the `public.users` table") {
		t.Errorf("Unexpected warning: %q", msg)
	}
}

func TestCheckDropTableWithZeroRowsIsSilent(t *testing.T) {
	m := diffMigration(t, usersSchema(), schema.New())

	conn := &fakeConn{counts: map[string]int64{
		PostgresChecker{}.RowCountQuery("public", "users"): 0,
	}}
	results, err := NewChecker(PostgresChecker{}, conn).Check(context.Background(), m)
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if !results.IsSafe() {
		t.Errorf("Expected no findings for an empty table, got %+v", results)
	}
}

func TestCheckDropTableReportsRowCount(t *testing.T) {
	m := diffMigration(t, usersSchema(), schema.New())

	conn := &fakeConn{counts: map[string]int64{
		PostgresChecker{}.RowCountQuery("public", "users"): 42,
	}}
	results, err := NewChecker(PostgresChecker{}, conn).Check(context.Background(), m)
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if len(results.Warnings) != 1 {
		t.Fatalf("Expected 1 warning, got %+v", results)
	}
	if !strings.Contains(results.Warnings[0].Message, "42 rows") {
		t.Errorf("Expected the row count in the message, got %q", results.Warnings[0].Message)
	}
}

func TestCheckAddedRequiredColumn(t *testing.T) {
	next := usersSchema()
	users, _ := next.FindTable("public", "users")
	next.AddColumn(users, schema.Column{
		Name:  "tenant",
		Type:  schema.ColumnType{Family: schema.FamilyString, Native: "text"},
		Arity: schema.Required,
	})
	m := diffMigration(t, usersSchema(), next)

	// Unknown row count: the step is flagged as unexecutable.
	results := NewChecker(PostgresChecker{}, nil).PureCheck(m)
	if len(results.Unexecutables) != 1 {
		t.Fatalf("Expected 1 unexecutable, got %+v", results)
	}
	if !strings.Contains(results.Unexecutables[0].Message, "required column `tenant`") {
		t.Errorf("Unexpected message: %q", results.Unexecutables[0].Message)
	}

	// Empty table: the step can run.
	conn := &fakeConn{counts: map[string]int64{
		PostgresChecker{}.RowCountQuery("public", "users"): 0,
	}}
	checked, err := NewChecker(PostgresChecker{}, conn).Check(context.Background(), m)
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if !checked.IsSafe() {
		t.Errorf("Expected no findings for an empty table, got %+v", checked)
	}

	// One row is enough to make the step impossible.
	conn = &fakeConn{counts: map[string]int64{
		PostgresChecker{}.RowCountQuery("public", "users"): 1,
	}}
	checked, err = NewChecker(PostgresChecker{}, conn).Check(context.Background(), m)
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if len(checked.Unexecutables) != 1 {
		t.Fatalf("Expected 1 unexecutable for a populated table, got %+v", checked)
	}
}

func TestCheckAddedColumnWithDefaultIsSafe(t *testing.T) {
	next := usersSchema()
	users, _ := next.FindTable("public", "users")
	next.AddColumn(users, schema.Column{
		Name:    "tenant",
		Type:    schema.ColumnType{Family: schema.FamilyString, Native: "text"},
		Arity:   schema.Required,
		Default: &schema.Default{Kind: schema.DefaultValue, Value: "main"},
	})
	m := diffMigration(t, usersSchema(), next)

	results := NewChecker(PostgresChecker{}, nil).PureCheck(m)
	if !results.IsSafe() {
		t.Errorf("Expected a defaulted column to be safe, got %+v", results)
	}
}

func TestCheckMadeColumnRequired(t *testing.T) {
	next := usersSchema()
	users, _ := next.FindTable("public", "users")
	col, _ := next.Table(users).Column("email")
	col.Get().Arity = schema.Required

	m := diffMigration(t, usersSchema(), next)

	conn := &fakeConn{counts: map[string]int64{
		PostgresChecker{}.RowCountQuery("public", "users"):            5,
		PostgresChecker{}.ValueCountQuery("public", "users", "email"): 3,
	}}
	results, err := NewChecker(PostgresChecker{}, conn).Check(context.Background(), m)
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if len(results.Unexecutables) != 1 {
		t.Fatalf("Expected 1 unexecutable, got %+v", results)
	}
	if !strings.Contains(results.Unexecutables[0].Message, "2 existing NULL values") {
		t.Errorf("Expected the NULL count in the message, got %q", results.Unexecutables[0].Message)
	}
}

func TestCheckMadeColumnRequiredWithoutNulls(t *testing.T) {
	next := usersSchema()
	users, _ := next.FindTable("public", "users")
	col, _ := next.Table(users).Column("email")
	col.Get().Arity = schema.Required

	m := diffMigration(t, usersSchema(), next)

	conn := &fakeConn{counts: map[string]int64{
		PostgresChecker{}.RowCountQuery("public", "users"):            5,
		PostgresChecker{}.ValueCountQuery("public", "users", "email"): 5,
	}}
	results, err := NewChecker(PostgresChecker{}, conn).Check(context.Background(), m)
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if !results.IsSafe() {
		t.Errorf("Expected no findings when all rows have values, got %+v", results)
	}
}

func TestCheckRiskyCast(t *testing.T) {
	next := usersSchema()
	users, _ := next.FindTable("public", "users")
	col, _ := next.Table(users).Column("email")
	col.Get().Type.Params = []int{10}

	m := diffMigration(t, usersSchema(), next)
	results := NewChecker(PostgresChecker{}, nil).PureCheck(m)

	if len(results.Warnings) != 1 {
		t.Fatalf("Expected 1 warning, got %+v", results)
	}
	if !strings.Contains(results.Warnings[0].Message, "cast may fail") {
		t.Errorf("Unexpected warning: %q", results.Warnings[0].Message)
	}
}

func TestCheckNotCastableColumn(t *testing.T) {
	next := usersSchema()
	users, _ := next.FindTable("public", "users")
	col, _ := next.Table(users).Column("email")
	col.Get().Arity = schema.List

	m := diffMigration(t, usersSchema(), next)
	results := NewChecker(PostgresChecker{}, nil).PureCheck(m)

	found := false
	for _, w := range results.Warnings {
		if strings.Contains(w.Message, "cannot be cast") {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected a not-castable warning, got %+v", results)
	}
}

func TestCheckRollbackOfColumnDrop(t *testing.T) {
	before := usersSchema()
	users, _ := before.FindTable("public", "users")
	before.AddColumn(users, schema.Column{
		Name:  "name",
		Type:  schema.ColumnType{Family: schema.FamilyString, Native: "text"},
		Arity: schema.Required,
	})
	next := usersSchema()

	// Forward: dropping the column loses its data.
	forward := diffMigration(t, before, next)
	results := NewChecker(PostgresChecker{}, nil).PureCheck(forward)
	if !results.HasWarnings() {
		t.Fatalf("Expected a data-loss warning for the dropped column, got %+v", results)
	}

	// Backward: re-creating the required column has no data to populate
	// it with.
	backward := diff.Rollback(before, next, flavour.NewPostgresFlavour())
	rolled := NewChecker(PostgresChecker{}, nil).PureCheck(backward)
	if len(rolled.Unexecutables) != 1 {
		t.Fatalf("Expected re-creating the required column to be unexecutable, got %+v", rolled)
	}
	if !strings.Contains(rolled.Unexecutables[0].Message, "required column `name`") {
		t.Errorf("Unexpected message: %q", rolled.Unexecutables[0].Message)
	}
}

func TestCheckDropAndRecreateRequiredColumn(t *testing.T) {
	before := usersSchema()
	users, _ := before.FindTable("public", "users")
	before.AddColumn(users, schema.Column{
		Name:  "joined_at",
		Type:  schema.ColumnType{Family: schema.FamilyDateTime, Native: "timestamp"},
		Arity: schema.Required,
	})

	next := usersSchema()
	nextUsers, _ := next.FindTable("public", "users")
	next.AddColumn(nextUsers, schema.Column{
		Name:  "joined_at",
		Type:  schema.ColumnType{Family: schema.FamilyBytes, Native: "bytea"},
		Arity: schema.Required,
	})

	m := diffMigration(t, before, next)

	// The recreated column is required without a default, so the step is
	// unexecutable, not a warning.
	results := NewChecker(PostgresChecker{}, nil).PureCheck(m)
	if len(results.Unexecutables) != 1 {
		t.Fatalf("Expected 1 unexecutable, got %+v", results)
	}
	if !strings.Contains(results.Unexecutables[0].Message, "must be dropped and recreated") {
		t.Errorf("Unexpected message: %q", results.Unexecutables[0].Message)
	}

	// Empty table: the recreate can run.
	conn := &fakeConn{counts: map[string]int64{
		PostgresChecker{}.RowCountQuery("public", "users"): 0,
	}}
	checked, err := NewChecker(PostgresChecker{}, conn).Check(context.Background(), m)
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if !checked.IsSafe() {
		t.Errorf("Expected an empty table to be safe, got %+v", checked)
	}
}

func TestCheckUniqueIndexOnExistingTable(t *testing.T) {
	next := usersSchema()
	users, _ := next.FindTable("public", "users")
	next.AddIndex(users, schema.Index{
		Name:    "users_email_key",
		Unique:  true,
		Columns: []schema.IndexColumn{{Name: "email"}},
	})

	m := diffMigration(t, usersSchema(), next)
	results := NewChecker(PostgresChecker{}, nil).PureCheck(m)

	if len(results.Warnings) != 1 {
		t.Fatalf("Expected 1 warning, got %+v", results)
	}
	if !strings.Contains(results.Warnings[0].Message, "unique constraint") {
		t.Errorf("Unexpected warning: %q", results.Warnings[0].Message)
	}
}

func TestCheckUniqueIndexOnNewTableIsSafe(t *testing.T) {
	next := usersSchema()
	orders := next.AddTable("public", "orders")
	next.AddColumn(orders, schema.Column{
		Name:  "number",
		Type:  schema.ColumnType{Family: schema.FamilyString, Native: "text"},
		Arity: schema.Required,
	})
	next.AddIndex(orders, schema.Index{
		Name:    "orders_number_key",
		Unique:  true,
		Columns: []schema.IndexColumn{{Name: "number"}},
	})

	m := diffMigration(t, usersSchema(), next)
	results := NewChecker(PostgresChecker{}, nil).PureCheck(m)
	if !results.IsSafe() {
		t.Errorf("Expected a unique index on a new table to be safe, got %+v", results)
	}
}

func TestCheckEnumValueRemoval(t *testing.T) {
	previous := schema.New()
	previous.AddEnum(schema.Enum{Name: "role", Values: []string{"admin", "member", "guest"}})
	next := schema.New()
	next.AddEnum(schema.Enum{Name: "role", Values: []string{"admin", "member"}})

	m := diffMigration(t, previous, next)
	results := NewChecker(PostgresChecker{}, nil).PureCheck(m)

	if len(results.Warnings) != 1 {
		t.Fatalf("Expected 1 warning, got %+v", results)
	}
	if !strings.Contains(results.Warnings[0].Message, "[guest]") {
		t.Errorf("Expected the dropped value in the message, got %q", results.Warnings[0].Message)
	}
}

func TestExecuteDeduplicatesCountQueries(t *testing.T) {
	// Two checks needing the same table's row count issue one query.
	plan := NewPlan()
	ref := tableRef{namespace: "public", table: "users"}
	plan.PushWarning(nonEmptyTableDrop{table: ref}, 0)
	plan.PushUnexecutable(addedRequiredColumn{table: ref, column: "tenant"}, 1)

	conn := &fakeConn{counts: map[string]int64{}}
	if _, err := plan.Execute(context.Background(), conn, PostgresChecker{}, DefaultRetryPolicy()); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if len(conn.calls) != 1 {
		t.Fatalf("Expected 1 count query, got %d: %v", len(conn.calls), conn.calls)
	}
}

func TestCheckEmptyMigrationSkipsDatabase(t *testing.T) {
	m := diff.Diff(usersSchema(), usersSchema(), flavour.NewPostgresFlavour())

	conn := &fakeConn{}
	results, err := NewChecker(PostgresChecker{}, conn).Check(context.Background(), m)
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if !results.IsSafe() {
		t.Errorf("Expected no findings, got %+v", results)
	}
	if len(conn.calls) != 0 {
		t.Errorf("Expected no queries for an empty migration, got %v", conn.calls)
	}
}

func TestCheckResultsRendering(t *testing.T) {
	results := &CheckResults{
		Warnings:      []Diagnostic{{Message: "data may be lost", StepIndex: 2}},
		Unexecutables: []Diagnostic{{Message: "cannot run", StepIndex: 0}},
	}
	out := results.String()
	if !strings.Contains(out, "Unexecutable steps:") || !strings.Contains(out, "Warnings:") {
		t.Errorf("Unexpected rendering: %q", out)
	}
	if strings.Index(out, "cannot run") > strings.Index(out, "data may be lost") {
		t.Error("Expected unexecutable findings to render first")
	}
}
