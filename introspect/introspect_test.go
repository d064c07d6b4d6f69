package introspect

import (
	"database/sql"
	"testing"

	"github.com/schemadrift/schemadrift/schema"
)

func TestParseForeignKeyAction(t *testing.T) {
	tests := []struct {
		raw  string
		want schema.ForeignKeyAction
	}{
		{"CASCADE", schema.Cascade},
		{"cascade", schema.Cascade},
		{"SET NULL", schema.SetNull},
		{"SET DEFAULT", schema.SetDefault},
		{"RESTRICT", schema.Restrict},
		{"NO ACTION", schema.NoAction},
		{"", schema.NoAction},
		{" Cascade ", schema.Cascade},
	}
	for _, tt := range tests {
		if got := parseForeignKeyAction(tt.raw); got != tt.want {
			t.Errorf("parseForeignKeyAction(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestParseDefault(t *testing.T) {
	tests := []struct {
		raw       string
		wantKind  schema.DefaultKind
		wantValue string
		wantNil   bool
	}{
		{raw: "", wantNil: true},
		{raw: "nextval('users_id_seq'::regclass)", wantKind: schema.DefaultSequence, wantValue: "nextval('users_id_seq'::regclass)"},
		{raw: "now()", wantKind: schema.DefaultDBGenerated, wantValue: "now()"},
		{raw: "CURRENT_TIMESTAMP", wantKind: schema.DefaultDBGenerated, wantValue: "CURRENT_TIMESTAMP"},
		{raw: "gen_random_uuid()", wantKind: schema.DefaultDBGenerated, wantValue: "gen_random_uuid()"},
		{raw: "'draft'::status", wantKind: schema.DefaultValue, wantValue: "draft"},
		{raw: "'hello'", wantKind: schema.DefaultValue, wantValue: "hello"},
		{raw: "42", wantKind: schema.DefaultValue, wantValue: "42"},
	}
	for _, tt := range tests {
		got := parseDefault(tt.raw)
		if tt.wantNil {
			if got != nil {
				t.Errorf("parseDefault(%q) = %+v, want nil", tt.raw, got)
			}
			continue
		}
		if got == nil {
			t.Errorf("parseDefault(%q) = nil, want kind %v", tt.raw, tt.wantKind)
			continue
		}
		if got.Kind != tt.wantKind || got.Value != tt.wantValue {
			t.Errorf("parseDefault(%q) = {%v %q}, want {%v %q}", tt.raw, got.Kind, got.Value, tt.wantKind, tt.wantValue)
		}
	}
}

func TestNewRejectsUnknownProvider(t *testing.T) {
	if _, err := New(nil, "oracle"); err == nil {
		t.Fatal("Expected an error for an unsupported provider")
	}
}

func TestSplitPostgresArray(t *testing.T) {
	tests := []struct {
		raw  string
		want []string
	}{
		{"{a,b,c}", []string{"a", "b", "c"}},
		{`{"first value","second"}`, []string{"first value", "second"}},
		{"{}", nil},
		{"{single}", []string{"single"}},
	}
	for _, tt := range tests {
		got := splitPostgresArray(tt.raw)
		if len(got) != len(tt.want) {
			t.Errorf("splitPostgresArray(%q) = %v, want %v", tt.raw, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("splitPostgresArray(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		}
	}
}

func TestMapPostgresType(t *testing.T) {
	none := sql.NullInt64{}
	length := sql.NullInt64{Int64: 255, Valid: true}

	tests := []struct {
		name       string
		dataType   string
		udtName    string
		maxLength  sql.NullInt64
		wantFamily schema.TypeFamily
		wantNative string
	}{
		{"integer", "integer", "int4", none, schema.FamilyInt, "INTEGER"},
		{"bigint", "bigint", "int8", none, schema.FamilyBigInt, "BIGINT"},
		{"varchar", "character varying", "varchar", length, schema.FamilyString, "VARCHAR"},
		{"timestamptz", "timestamp with time zone", "timestamptz", none, schema.FamilyDateTime, "TIMESTAMPTZ"},
		{"jsonb", "jsonb", "jsonb", none, schema.FamilyJSON, "JSONB"},
		{"uuid", "uuid", "uuid", none, schema.FamilyUUID, "UUID"},
		{"bytea", "bytea", "bytea", none, schema.FamilyBytes, "BYTEA"},
		{"unknown", "tsvector", "tsvector", none, schema.FamilyUnsupported, "tsvector"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapPostgresType(tt.dataType, tt.udtName, tt.maxLength, sql.NullInt64{}, sql.NullInt64{}, nil)
			if got.Family != tt.wantFamily || got.Native != tt.wantNative {
				t.Errorf("Got {%v %q}, want {%v %q}", got.Family, got.Native, tt.wantFamily, tt.wantNative)
			}
		})
	}
}

func TestMapPostgresEnumType(t *testing.T) {
	enums := map[string]schema.EnumID{"status": 3}
	got := mapPostgresType("USER-DEFINED", "status", sql.NullInt64{}, sql.NullInt64{}, sql.NullInt64{}, enums)
	if got.Family != schema.FamilyEnum || got.Enum != 3 {
		t.Errorf("Expected enum type bound to id 3, got %+v", got)
	}
}

func TestMapPostgresArrayType(t *testing.T) {
	got := mapPostgresType("ARRAY", "_text", sql.NullInt64{}, sql.NullInt64{}, sql.NullInt64{}, nil)
	if got.Family != schema.FamilyString || got.Native != "TEXT" {
		t.Errorf("Expected the array element type, got %+v", got)
	}
}

func TestMapMySQLType(t *testing.T) {
	s := schema.New()

	tests := []struct {
		columnType string
		wantFamily schema.TypeFamily
		wantNative string
	}{
		{"tinyint(1)", schema.FamilyBoolean, "BOOLEAN"},
		{"tinyint(4)", schema.FamilyInt, "TINYINT"},
		{"int(11)", schema.FamilyInt, "INT"},
		{"bigint(20) unsigned", schema.FamilyBigInt, "BIGINT"},
		{"varchar(191)", schema.FamilyString, "VARCHAR"},
		{"decimal(10,2)", schema.FamilyDecimal, "DECIMAL"},
		{"datetime", schema.FamilyDateTime, "DATETIME"},
		{"longblob", schema.FamilyBytes, "LONGBLOB"},
	}
	for _, tt := range tests {
		got := mapMySQLType(tt.columnType, s, "t", "c")
		if got.Family != tt.wantFamily || got.Native != tt.wantNative {
			t.Errorf("mapMySQLType(%q) = {%v %q}, want {%v %q}", tt.columnType, got.Family, got.Native, tt.wantFamily, tt.wantNative)
		}
	}

	if got := mapMySQLType("varchar(191)", s, "t", "c"); len(got.Params) != 1 || got.Params[0] != 191 {
		t.Errorf("Expected varchar length 191, got %v", got.Params)
	}
	if got := mapMySQLType("decimal(10,2)", s, "t", "c"); len(got.Params) != 2 || got.Params[0] != 10 || got.Params[1] != 2 {
		t.Errorf("Expected decimal params [10 2], got %v", got.Params)
	}
}

func TestMapMySQLInlineEnum(t *testing.T) {
	s := schema.New()
	got := mapMySQLType("enum('active','banned')", s, "users", "status")

	if got.Family != schema.FamilyEnum {
		t.Fatalf("Expected an enum type, got %+v", got)
	}
	enum := s.Enum(got.Enum)
	if enum.Name() != "users_status" {
		t.Errorf("Expected synthetic enum name users_status, got %q", enum.Name())
	}
	values := enum.Values()
	if len(values) != 2 || values[0] != "active" || values[1] != "banned" {
		t.Errorf("Unexpected enum values: %v", values)
	}
}

func TestParseInlineEnum(t *testing.T) {
	got := parseInlineEnum("enum('a','b','c')")
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("Expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Expected %v, got %v", want, got)
		}
	}
}

func TestMapSQLiteType(t *testing.T) {
	tests := []struct {
		declared   string
		wantFamily schema.TypeFamily
		wantNative string
	}{
		{"INTEGER", schema.FamilyInt, "INTEGER"},
		{"BIGINT", schema.FamilyBigInt, "BIGINT"},
		{"VARCHAR(30)", schema.FamilyString, "TEXT"},
		{"TEXT", schema.FamilyString, "TEXT"},
		{"", schema.FamilyBytes, "BLOB"},
		{"BLOB", schema.FamilyBytes, "BLOB"},
		{"REAL", schema.FamilyFloat, "REAL"},
		{"NUMERIC", schema.FamilyDecimal, "NUMERIC"},
		{"BOOLEAN", schema.FamilyBoolean, "BOOLEAN"},
		{"DATETIME", schema.FamilyDateTime, "DATETIME"},
	}
	for _, tt := range tests {
		got := mapSQLiteType(tt.declared)
		if got.Family != tt.wantFamily || got.Native != tt.wantNative {
			t.Errorf("mapSQLiteType(%q) = {%v %q}, want {%v %q}", tt.declared, got.Family, got.Native, tt.wantFamily, tt.wantNative)
		}
	}
}

func TestPostgresIndexAlgorithm(t *testing.T) {
	tests := []struct {
		raw  string
		want schema.IndexAlgorithm
	}{
		{"btree", schema.AlgorithmBTree},
		{"hash", schema.AlgorithmHash},
		{"gin", schema.AlgorithmGin},
		{"gist", schema.AlgorithmGist},
		{"brin", schema.AlgorithmBrin},
	}
	for _, tt := range tests {
		if got := postgresIndexAlgorithm(tt.raw); got != tt.want {
			t.Errorf("postgresIndexAlgorithm(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestSortedIndexColumns(t *testing.T) {
	columns := sortedIndexColumns([]string{"a", " b "})
	if len(columns) != 2 || columns[0].Name != "a" || columns[1].Name != "b" {
		t.Fatalf("Unexpected columns: %+v", columns)
	}
	for _, c := range columns {
		if c.SortOrder != schema.Ascending {
			t.Errorf("Expected ascending sort order, got %v", c.SortOrder)
		}
	}
}
