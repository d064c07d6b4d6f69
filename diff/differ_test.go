package diff

import (
	"testing"

	"github.com/schemadrift/schemadrift/diff/flavour"
	"github.com/schemadrift/schemadrift/schema"
)

// baseSchema builds the starting point most scenarios mutate: a users table
// with a primary key and a unique email index, and a posts table with a
// foreign key to users.
func baseSchema() *schema.Snapshot {
	s := schema.New()

	users := s.AddTable("public", "users")
	s.AddColumn(users, schema.Column{
		Name:          "id",
		Type:          schema.ColumnType{Family: schema.FamilyInt, Native: "integer"},
		Arity:         schema.Required,
		AutoIncrement: true,
	})
	s.AddColumn(users, schema.Column{
		Name:  "email",
		Type:  schema.ColumnType{Family: schema.FamilyString, Native: "varchar", Params: []int{255}},
		Arity: schema.Required,
	})
	s.SetPrimaryKey(users, schema.PrimaryKey{Columns: []schema.IndexColumn{{Name: "id"}}})
	s.AddIndex(users, schema.Index{
		Name:    "users_email_key",
		Unique:  true,
		Columns: []schema.IndexColumn{{Name: "email"}},
	})

	posts := s.AddTable("public", "posts")
	s.AddColumn(posts, schema.Column{
		Name:  "id",
		Type:  schema.ColumnType{Family: schema.FamilyInt, Native: "integer"},
		Arity: schema.Required,
	})
	s.AddColumn(posts, schema.Column{
		Name:  "author_id",
		Type:  schema.ColumnType{Family: schema.FamilyInt, Native: "integer"},
		Arity: schema.Required,
	})
	s.SetPrimaryKey(posts, schema.PrimaryKey{Columns: []schema.IndexColumn{{Name: "id"}}})
	s.AddForeignKey(posts, schema.ForeignKey{
		ConstraintName:    "posts_author_id_fkey",
		Columns:           []string{"author_id"},
		ReferencedTable:   "users",
		ReferencedColumns: []string{"id"},
	})

	return s
}

func stepKinds(m *Migration) []string {
	kinds := make([]string, len(m.Steps))
	for i, step := range m.Steps {
		kinds[i] = step.Description()
	}
	return kinds
}

func assertStepKinds(t *testing.T, m *Migration, want ...string) {
	t.Helper()
	got := stepKinds(m)
	if len(got) != len(want) {
		t.Fatalf("Expected steps %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Expected steps %v, got %v", want, got)
		}
	}
}

func TestDiffIdenticalSchemas(t *testing.T) {
	m := Diff(baseSchema(), baseSchema(), flavour.NewPostgresFlavour())
	if len(m.Steps) != 0 {
		t.Fatalf("Expected no steps for identical schemas, got %v", stepKinds(m))
	}
	summary := Summarize(m)
	if !summary.IsEmpty() {
		t.Error("Expected an empty summary")
	}
	if got := summary.String(); got != "No difference detected.\n" {
		t.Errorf("Unexpected summary rendering: %q", got)
	}
}

func TestDiffCreatedTable(t *testing.T) {
	previous := schema.New()
	m := Diff(previous, baseSchema(), flavour.NewPostgresFlavour())

	assertStepKinds(t, m,
		"CreateTable", "CreateTable", "CreateIndex", "AddForeignKey")

	summary := Summarize(m)
	if len(summary.AddedTables) != 2 {
		t.Fatalf("Expected 2 added tables, got %v", summary.AddedTables)
	}
}

func TestDiffDroppedTable(t *testing.T) {
	next := schema.New()
	users := next.AddTable("public", "users")
	next.AddColumn(users, schema.Column{
		Name:  "id",
		Type:  schema.ColumnType{Family: schema.FamilyInt, Native: "integer"},
		Arity: schema.Required,
	})
	m := Diff(baseSchema(), next, flavour.NewPostgresFlavour())

	// The foreign key on the dropped posts table goes before the table,
	// and the users table loses columns, its index and auto-increment.
	kinds := stepKinds(m)
	if kinds[0] != "DropForeignKey" {
		t.Fatalf("Expected the foreign key to drop first, got %v", kinds)
	}
	found := false
	for _, k := range kinds {
		if k == "DropTable" {
			found = true
		}
	}
	if !found {
		t.Fatalf("Expected a DropTable step, got %v", kinds)
	}
}

func TestDiffRenamedTableIsDropAndCreate(t *testing.T) {
	previous := schema.New()
	prevTable := previous.AddTable("public", "customers")
	previous.AddColumn(prevTable, schema.Column{
		Name:  "id",
		Type:  schema.ColumnType{Family: schema.FamilyInt, Native: "integer"},
		Arity: schema.Required,
	})

	next := schema.New()
	nextTable := next.AddTable("public", "clients")
	next.AddColumn(nextTable, schema.Column{
		Name:  "id",
		Type:  schema.ColumnType{Family: schema.FamilyInt, Native: "integer"},
		Arity: schema.Required,
	})

	m := Diff(previous, next, flavour.NewPostgresFlavour())
	assertStepKinds(t, m, "DropTable", "CreateTable")
}

func TestDiffAddedColumn(t *testing.T) {
	next := baseSchema()
	users, _ := next.FindTable("public", "users")
	next.AddColumn(users, schema.Column{
		Name:  "name",
		Type:  schema.ColumnType{Family: schema.FamilyString, Native: "text"},
		Arity: schema.Nullable,
	})

	m := Diff(baseSchema(), next, flavour.NewPostgresFlavour())
	assertStepKinds(t, m, "AlterTable")

	alter := m.Steps[0].(AlterTable)
	if len(alter.Changes) != 1 {
		t.Fatalf("Expected 1 change, got %d", len(alter.Changes))
	}
	add, ok := alter.Changes[0].(AddColumn)
	if !ok {
		t.Fatalf("Expected an AddColumn change, got %T", alter.Changes[0])
	}
	if got := m.After.Column(add.Column).Name(); got != "name" {
		t.Errorf("Expected the name column, got %q", got)
	}
}

func TestDiffSafeTypeChange(t *testing.T) {
	next := baseSchema()
	users, _ := next.FindTable("public", "users")
	col, _ := next.Table(users).Column("id")
	col.Get().Type = schema.ColumnType{Family: schema.FamilyBigInt, Native: "bigint"}

	m := Diff(baseSchema(), next, flavour.NewPostgresFlavour())
	assertStepKinds(t, m, "AlterTable")

	alter := m.Steps[0].(AlterTable)
	change, ok := alter.Changes[0].(AlterColumn)
	if !ok {
		t.Fatalf("Expected an AlterColumn change, got %T", alter.Changes[0])
	}
	if change.TypeChange != TypeChangeSafe {
		t.Errorf("Expected a safe cast, got %v", change.TypeChange)
	}
}

func TestDiffShrunkVarcharIsRisky(t *testing.T) {
	next := baseSchema()
	users, _ := next.FindTable("public", "users")
	col, _ := next.Table(users).Column("email")
	col.Get().Type.Params = []int{10}

	m := Diff(baseSchema(), next, flavour.NewPostgresFlavour())
	assertStepKinds(t, m, "AlterTable")

	change := m.Steps[0].(AlterTable).Changes[0].(AlterColumn)
	if change.TypeChange != TypeChangeRisky {
		t.Errorf("Expected a risky cast for varchar(255) -> varchar(10), got %v", change.TypeChange)
	}
}

func TestDiffNotCastableColumn(t *testing.T) {
	// Scalar to list has no cast path on Postgres.
	next := baseSchema()
	users, _ := next.FindTable("public", "users")
	col, _ := next.Table(users).Column("email")
	col.Get().Arity = schema.List

	m := Diff(baseSchema(), next, flavour.NewPostgresFlavour())
	assertStepKinds(t, m, "AlterTable")

	alter := m.Steps[0].(AlterTable)
	if _, ok := alter.Changes[0].(DropAndRecreateColumn); !ok {
		t.Fatalf("Expected DropAndRecreateColumn, got %T", alter.Changes[0])
	}
}

func TestDiffDefaultOnlyChange(t *testing.T) {
	next := baseSchema()
	users, _ := next.FindTable("public", "users")
	col, _ := next.Table(users).Column("email")
	col.Get().Default = &schema.Default{Kind: schema.DefaultValue, Value: "nobody"}

	m := Diff(baseSchema(), next, flavour.NewPostgresFlavour())
	assertStepKinds(t, m, "AlterTable")

	change := m.Steps[0].(AlterTable).Changes[0].(AlterColumn)
	if !change.Changes.OnlyDefaultChanged() {
		t.Error("Expected a default-only change")
	}
}

func TestDiffRenamedIndex(t *testing.T) {
	next := baseSchema()
	users, _ := next.FindTable("public", "users")
	next.Table(users).Indexes()[0].Get().Name = "uniq_users_email"

	m := Diff(baseSchema(), next, flavour.NewPostgresFlavour())
	assertStepKinds(t, m, "RenameIndex")

	summary := Summarize(m)
	if len(summary.ChangedTables) != 1 {
		t.Fatalf("Expected one changed table, got %+v", summary.ChangedTables)
	}
	change := summary.ChangedTables[0].Changes[0]
	if change != "renamed index `users_email_key` to `uniq_users_email`" {
		t.Errorf("Unexpected change description: %q", change)
	}
}

func TestDiffRenamedIndexWithoutRenameSupport(t *testing.T) {
	// MySQL before 5.7 semantics are not modelled; the MSSQL flavour keeps
	// rename support, SQLite does not.
	previous := schema.New()
	table := previous.AddTable("", "accounts")
	previous.AddColumn(table, schema.Column{
		Name:  "email",
		Type:  schema.ColumnType{Family: schema.FamilyString, Native: "text"},
		Arity: schema.Required,
	})
	previous.AddIndex(table, schema.Index{
		Name:    "idx_email",
		Columns: []schema.IndexColumn{{Name: "email"}},
	})

	next := schema.New()
	table = next.AddTable("", "accounts")
	next.AddColumn(table, schema.Column{
		Name:  "email",
		Type:  schema.ColumnType{Family: schema.FamilyString, Native: "text"},
		Arity: schema.Required,
	})
	next.AddIndex(table, schema.Index{
		Name:    "accounts_email_idx",
		Columns: []schema.IndexColumn{{Name: "email"}},
	})

	m := Diff(previous, next, flavour.NewSQLiteFlavour())
	assertStepKinds(t, m, "RedefineIndex")
}

func TestDiffAmbiguousIndexesAreDroppedAndRecreated(t *testing.T) {
	build := func(first, second string) *schema.Snapshot {
		s := schema.New()
		table := s.AddTable("public", "events")
		s.AddColumn(table, schema.Column{
			Name:  "kind",
			Type:  schema.ColumnType{Family: schema.FamilyString, Native: "text"},
			Arity: schema.Required,
		})
		s.AddIndex(table, schema.Index{Name: first, Columns: []schema.IndexColumn{{Name: "kind"}}})
		s.AddIndex(table, schema.Index{Name: second, Columns: []schema.IndexColumn{{Name: "kind"}}})
		return s
	}

	m := Diff(build("idx_a", "idx_b"), build("idx_c", "idx_d"), flavour.NewPostgresFlavour())

	// Two structurally identical candidates on each side: no rename can be
	// attributed, so all four indexes are dropped and created.
	assertStepKinds(t, m, "DropIndex", "DropIndex", "CreateIndex", "CreateIndex")
}

func TestDiffEnums(t *testing.T) {
	previous := schema.New()
	previous.AddEnum(schema.Enum{Name: "role", Values: []string{"admin", "member"}})
	previous.AddEnum(schema.Enum{Name: "legacy", Values: []string{"a"}})

	next := schema.New()
	next.AddEnum(schema.Enum{Name: "role", Values: []string{"admin", "member", "guest"}})
	next.AddEnum(schema.Enum{Name: "status", Values: []string{"active"}})

	m := Diff(previous, next, flavour.NewPostgresFlavour())
	assertStepKinds(t, m, "CreateEnum", "AlterEnum", "DropEnum")

	alter := m.Steps[1].(AlterEnum)
	if len(alter.CreatedValues) != 1 || alter.CreatedValues[0] != "guest" {
		t.Errorf("Expected created value [guest], got %v", alter.CreatedValues)
	}
	if len(alter.DroppedValues) != 0 {
		t.Errorf("Expected no dropped values, got %v", alter.DroppedValues)
	}
}

func TestDiffSQLiteRedefinesTableOnTypeChange(t *testing.T) {
	build := func(family schema.TypeFamily, native string) *schema.Snapshot {
		s := schema.New()
		table := s.AddTable("", "accounts")
		s.AddColumn(table, schema.Column{
			Name:  "balance",
			Type:  schema.ColumnType{Family: family, Native: native},
			Arity: schema.Required,
		})
		return s
	}

	m := Diff(build(schema.FamilyString, "TEXT"), build(schema.FamilyInt, "INTEGER"), flavour.NewSQLiteFlavour())
	assertStepKinds(t, m, "RedefineTables")

	redefine := m.Steps[0].(RedefineTables)
	if len(redefine.Tables) != 1 {
		t.Fatalf("Expected 1 redefined table, got %d", len(redefine.Tables))
	}
	entry := redefine.Tables[0]
	if len(entry.ColumnPairs) != 1 || !entry.ColumnPairs[0].Changes.TypeChanged() {
		t.Fatalf("Expected one changed column pair, got %+v", entry)
	}
}

func TestDiffMySQLTableNameCaseFolding(t *testing.T) {
	build := func(name string) *schema.Snapshot {
		s := schema.New()
		table := s.AddTable("", name)
		s.AddColumn(table, schema.Column{
			Name:  "id",
			Type:  schema.ColumnType{Family: schema.FamilyInt, Native: "int"},
			Arity: schema.Required,
		})
		return s
	}

	m := Diff(build("Users"), build("users"), flavour.NewMySQLFlavour())
	if len(m.Steps) != 0 {
		t.Fatalf("Expected case-folded names to match on MySQL, got %v", stepKinds(m))
	}

	m = Diff(build("Users"), build("users"), flavour.NewPostgresFlavour())
	if len(m.Steps) == 0 {
		t.Fatal("Expected case-sensitive names to differ on Postgres")
	}
}

func TestDiffIgnoresBookkeepingTables(t *testing.T) {
	next := baseSchema()
	table := next.AddTable("public", "_schemadrift_migrations")
	next.AddColumn(table, schema.Column{
		Name:  "id",
		Type:  schema.ColumnType{Family: schema.FamilyString, Native: "text"},
		Arity: schema.Required,
	})

	m := Diff(baseSchema(), next, flavour.NewPostgresFlavour())
	if len(m.Steps) != 0 {
		t.Fatalf("Expected the migrations table to be ignored, got %v", stepKinds(m))
	}
}

func TestRollbackInvertsDiff(t *testing.T) {
	next := baseSchema()
	users, _ := next.FindTable("public", "users")
	next.AddColumn(users, schema.Column{
		Name:  "name",
		Type:  schema.ColumnType{Family: schema.FamilyString, Native: "text"},
		Arity: schema.Nullable,
	})

	m := Rollback(baseSchema(), next, flavour.NewPostgresFlavour())
	assertStepKinds(t, m, "AlterTable")

	alter := m.Steps[0].(AlterTable)
	if _, ok := alter.Changes[0].(DropColumn); !ok {
		t.Fatalf("Expected the rollback to drop the added column, got %T", alter.Changes[0])
	}
}

func TestDiffIsDeterministic(t *testing.T) {
	previous := baseSchema()
	next := baseSchema()
	for _, name := range []string{"gamma", "alpha", "beta"} {
		table := next.AddTable("public", name)
		next.AddColumn(table, schema.Column{
			Name:  "id",
			Type:  schema.ColumnType{Family: schema.FamilyInt, Native: "integer"},
			Arity: schema.Required,
		})
	}

	reference := stepKinds(Diff(previous, next, flavour.NewPostgresFlavour()))
	for i := 0; i < 20; i++ {
		got := stepKinds(Diff(previous, next, flavour.NewPostgresFlavour()))
		if len(got) != len(reference) {
			t.Fatalf("Run %d produced %v, want %v", i, got, reference)
		}
		for j := range got {
			if got[j] != reference[j] {
				t.Fatalf("Run %d produced %v, want %v", i, got, reference)
			}
		}
	}
}
