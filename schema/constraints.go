// Package schema provides index, primary key and foreign key definitions.
package schema

// SortOrder of a single index column.
type SortOrder int

const (
	Ascending SortOrder = iota
	Descending
)

// String implements fmt.Stringer.
func (s SortOrder) String() string {
	if s == Descending {
		return "DESC"
	}
	return "ASC"
}

// IndexAlgorithm is the connector-specific index access method.
type IndexAlgorithm string

const (
	AlgorithmDefault IndexAlgorithm = ""
	AlgorithmBTree   IndexAlgorithm = "BTREE"
	AlgorithmHash    IndexAlgorithm = "HASH"
	AlgorithmGist    IndexAlgorithm = "GIST"
	AlgorithmGin     IndexAlgorithm = "GIN"
	AlgorithmSpGist  IndexAlgorithm = "SPGIST"
	AlgorithmBrin    IndexAlgorithm = "BRIN"
)

// IndexColumn is one column participating in an index or primary key, with
// its per-column modifiers.
type IndexColumn struct {
	Name string
	// Length is the index prefix length (MySQL); zero means unset.
	Length int
	// SortOrder of the column within the index.
	SortOrder SortOrder
}

// Index is a secondary index on a table.
type Index struct {
	Name      string
	Columns   []IndexColumn
	Unique    bool
	Algorithm IndexAlgorithm
	// Clustered marks MSSQL clustered indexes.
	Clustered bool
}

// PrimaryKey is a table's primary key constraint. Compound keys list their
// columns in key order.
type PrimaryKey struct {
	Name    string
	Columns []IndexColumn
	// Clustered marks MSSQL clustered primary keys. Nil means the
	// connector default.
	Clustered *bool
}

// ColumnNames returns the key's column names in order.
func (pk *PrimaryKey) ColumnNames() []string {
	names := make([]string, len(pk.Columns))
	for i, c := range pk.Columns {
		names[i] = c.Name
	}
	return names
}

// ForeignKeyAction is a referential action.
type ForeignKeyAction int

const (
	NoAction ForeignKeyAction = iota
	Restrict
	Cascade
	SetNull
	SetDefault
)

// String implements fmt.Stringer.
func (a ForeignKeyAction) String() string {
	switch a {
	case Restrict:
		return "RESTRICT"
	case Cascade:
		return "CASCADE"
	case SetNull:
		return "SET NULL"
	case SetDefault:
		return "SET DEFAULT"
	default:
		return "NO ACTION"
	}
}

// ForeignKey is a foreign key constraint on a table.
type ForeignKey struct {
	// ConstraintName is empty on connectors with unnamed foreign keys
	// (SQLite).
	ConstraintName    string
	Columns           []string
	ReferencedTable   string
	ReferencedColumns []string
	OnDelete          ForeignKeyAction
	OnUpdate          ForeignKeyAction
}

// Enum is a connector-native enumerated type (Postgres ENUM, MySQL column
// enum lifted to schema level).
type Enum struct {
	Name   string
	Values []string
}

// HasValue reports whether the enum contains the given value.
func (e *Enum) HasValue(value string) bool {
	for _, v := range e.Values {
		if v == value {
			return true
		}
	}
	return false
}

// View is a database view. Views are carried through snapshots but not
// diffed structurally.
type View struct {
	Namespace  string
	Name       string
	Definition string
}
