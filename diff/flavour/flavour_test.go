package flavour

import (
	"testing"

	"github.com/schemadrift/schemadrift/schema"
)

// columnPair builds two single-column snapshots and returns the walkers, so
// cast rules can be exercised without a full diff.
func columnPair(previous, next schema.Column) (schema.ColumnWalker, schema.ColumnWalker) {
	prevSchema := schema.New()
	prevTable := prevSchema.AddTable("public", "t")
	prevID := prevSchema.AddColumn(prevTable, previous)

	nextSchema := schema.New()
	nextTable := nextSchema.AddTable("public", "t")
	nextID := nextSchema.AddColumn(nextTable, next)

	return prevSchema.Column(prevID), nextSchema.Column(nextID)
}

func typedColumn(family schema.TypeFamily, native string, params ...int) schema.Column {
	return schema.Column{
		Name:  "c",
		Type:  schema.ColumnType{Family: family, Native: native, Params: params},
		Arity: schema.Required,
	}
}

func TestPostgresCastClassification(t *testing.T) {
	tests := []struct {
		name     string
		previous schema.Column
		next     schema.Column
		want     ColumnTypeChange
	}{
		{"int to bigint", typedColumn(schema.FamilyInt, "integer"), typedColumn(schema.FamilyBigInt, "bigint"), SafeCast},
		{"bigint to int", typedColumn(schema.FamilyBigInt, "bigint"), typedColumn(schema.FamilyInt, "integer"), RiskyCast},
		{"string to int", typedColumn(schema.FamilyString, "text"), typedColumn(schema.FamilyInt, "integer"), RiskyCast},
		{"uuid to string", typedColumn(schema.FamilyUUID, "uuid"), typedColumn(schema.FamilyString, "text"), SafeCast},
		{"datetime to bytes", typedColumn(schema.FamilyDateTime, "timestamptz"), typedColumn(schema.FamilyBytes, "bytea"), NotCastable},
		{"same type", typedColumn(schema.FamilyInt, "integer"), typedColumn(schema.FamilyInt, "integer"), NoTypeChange},
		{"varchar grows", typedColumn(schema.FamilyString, "varchar", 50), typedColumn(schema.FamilyString, "varchar", 100), SafeCast},
		{"varchar shrinks", typedColumn(schema.FamilyString, "varchar", 100), typedColumn(schema.FamilyString, "varchar", 50), RiskyCast},
		{"varchar to text", typedColumn(schema.FamilyString, "varchar", 100), typedColumn(schema.FamilyString, "text"), SafeCast},
	}

	f := NewPostgresFlavour()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			previous, next := columnPair(tt.previous, tt.next)
			if got := f.ColumnTypeChange(previous, next); got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestPostgresListChangeIsNotCastable(t *testing.T) {
	previous := typedColumn(schema.FamilyString, "text")
	next := typedColumn(schema.FamilyString, "text")
	next.Arity = schema.List

	f := NewPostgresFlavour()
	prevWalker, nextWalker := columnPair(previous, next)
	if got := f.ColumnTypeChange(prevWalker, nextWalker); got != NotCastable {
		t.Errorf("Expected scalar to list to be NotCastable, got %v", got)
	}
}

func TestMySQLCastClassification(t *testing.T) {
	tests := []struct {
		name     string
		previous schema.Column
		next     schema.Column
		want     ColumnTypeChange
	}{
		{"int to bigint", typedColumn(schema.FamilyInt, "int"), typedColumn(schema.FamilyBigInt, "bigint"), SafeCast},
		{"bytes to string", typedColumn(schema.FamilyBytes, "blob"), typedColumn(schema.FamilyString, "text"), RiskyCast},
		{"string to uuid", typedColumn(schema.FamilyString, "varchar", 36), typedColumn(schema.FamilyUUID, "char", 36), NotCastable},
	}

	f := NewMySQLFlavour()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			previous, next := columnPair(tt.previous, tt.next)
			if got := f.ColumnTypeChange(previous, next); got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestSQLiteTreatsDeclaredTypesLoosely(t *testing.T) {
	f := NewSQLiteFlavour()

	previous, next := columnPair(
		typedColumn(schema.FamilyInt, "INTEGER"),
		typedColumn(schema.FamilyString, "TEXT"),
	)
	if got := f.ColumnTypeChange(previous, next); got != SafeCast {
		t.Errorf("Expected anything-to-text to be safe on SQLite, got %v", got)
	}

	previous, next = columnPair(
		typedColumn(schema.FamilyString, "TEXT"),
		typedColumn(schema.FamilyInt, "INTEGER"),
	)
	if got := f.ColumnTypeChange(previous, next); got != RiskyCast {
		t.Errorf("Expected text-to-integer to be risky on SQLite, got %v", got)
	}
}

func TestFlavourNames(t *testing.T) {
	names := map[string]Flavour{
		"postgresql":  NewPostgresFlavour(),
		"cockroachdb": NewCockroachFlavour(),
		"mysql":       NewMySQLFlavour(),
		"sqlite":      NewSQLiteFlavour(),
		"sqlserver":   NewMSSQLFlavour(),
	}
	for want, f := range names {
		if f.Name() != want {
			t.Errorf("Expected flavour name %q, got %q", want, f.Name())
		}
	}
}
