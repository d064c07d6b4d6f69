// Package schema defines the flavour-agnostic in-memory representation of a
// relational database schema. A Snapshot is built once, by live introspection
// or by loading a saved snapshot file, and is never mutated afterwards.
//
// All entities live in flat, append-only slices owned by the Snapshot and are
// referenced by integer ids. Diff results carry ids, never pointers, so they
// stay valid for as long as the two source snapshots are kept alive.
package schema

// Entity ids. An id is an index into the owning Snapshot's entity slice and
// is only meaningful together with that Snapshot.
type (
	TableID      int
	ColumnID     int
	IndexID      int
	ForeignKeyID int
	EnumID       int
	ViewID       int
)

// Snapshot is an immutable database schema at one point in time.
type Snapshot struct {
	tables      []tableNode
	columns     []columnNode
	indexes     []indexNode
	foreignKeys []foreignKeyNode
	enums       []Enum
	views       []View
}

type tableNode struct {
	namespace  string
	name       string
	primaryKey *PrimaryKey
}

type columnNode struct {
	table  TableID
	column Column
}

type indexNode struct {
	table TableID
	index Index
}

type foreignKeyNode struct {
	table TableID
	fk    ForeignKey
}

// New returns an empty snapshot.
func New() *Snapshot {
	return &Snapshot{}
}

// AddTable appends a table and returns its id.
func (s *Snapshot) AddTable(namespace, name string) TableID {
	s.tables = append(s.tables, tableNode{namespace: namespace, name: name})
	return TableID(len(s.tables) - 1)
}

// AddColumn appends a column to a table and returns its id. Columns must be
// added in the table's column order.
func (s *Snapshot) AddColumn(table TableID, column Column) ColumnID {
	s.columns = append(s.columns, columnNode{table: table, column: column})
	return ColumnID(len(s.columns) - 1)
}

// SetPrimaryKey sets the table's primary key.
func (s *Snapshot) SetPrimaryKey(table TableID, pk PrimaryKey) {
	s.tables[table].primaryKey = &pk
}

// AddIndex appends an index to a table and returns its id.
func (s *Snapshot) AddIndex(table TableID, index Index) IndexID {
	s.indexes = append(s.indexes, indexNode{table: table, index: index})
	return IndexID(len(s.indexes) - 1)
}

// AddForeignKey appends a foreign key to a table and returns its id.
func (s *Snapshot) AddForeignKey(table TableID, fk ForeignKey) ForeignKeyID {
	s.foreignKeys = append(s.foreignKeys, foreignKeyNode{table: table, fk: fk})
	return ForeignKeyID(len(s.foreignKeys) - 1)
}

// AddEnum appends an enum and returns its id.
func (s *Snapshot) AddEnum(e Enum) EnumID {
	s.enums = append(s.enums, e)
	return EnumID(len(s.enums) - 1)
}

// AddView appends a view and returns its id.
func (s *Snapshot) AddView(v View) ViewID {
	s.views = append(s.views, v)
	return ViewID(len(s.views) - 1)
}

// TableCount returns the number of tables in the snapshot.
func (s *Snapshot) TableCount() int { return len(s.tables) }

// EnumCount returns the number of enums in the snapshot.
func (s *Snapshot) EnumCount() int { return len(s.enums) }

// Tables iterates over all tables.
func (s *Snapshot) Tables() []TableWalker {
	out := make([]TableWalker, len(s.tables))
	for i := range s.tables {
		out[i] = TableWalker{schema: s, id: TableID(i)}
	}
	return out
}

// Enums iterates over all enums.
func (s *Snapshot) Enums() []EnumWalker {
	out := make([]EnumWalker, len(s.enums))
	for i := range s.enums {
		out[i] = EnumWalker{schema: s, id: EnumID(i)}
	}
	return out
}

// Views returns all views.
func (s *Snapshot) Views() []View { return s.views }

// Table returns a walker for the given table id.
func (s *Snapshot) Table(id TableID) TableWalker { return TableWalker{schema: s, id: id} }

// Column returns a walker for the given column id.
func (s *Snapshot) Column(id ColumnID) ColumnWalker { return ColumnWalker{schema: s, id: id} }

// Index returns a walker for the given index id.
func (s *Snapshot) Index(id IndexID) IndexWalker { return IndexWalker{schema: s, id: id} }

// ForeignKey returns a walker for the given foreign key id.
func (s *Snapshot) ForeignKey(id ForeignKeyID) ForeignKeyWalker {
	return ForeignKeyWalker{schema: s, id: id}
}

// Enum returns a walker for the given enum id.
func (s *Snapshot) Enum(id EnumID) EnumWalker { return EnumWalker{schema: s, id: id} }

// FindTable looks a table up by namespace and name. The boolean reports
// whether it exists.
func (s *Snapshot) FindTable(namespace, name string) (TableID, bool) {
	for i, t := range s.tables {
		if t.namespace == namespace && t.name == name {
			return TableID(i), true
		}
	}
	return 0, false
}

// FindEnum looks an enum up by name.
func (s *Snapshot) FindEnum(name string) (EnumID, bool) {
	for i, e := range s.enums {
		if e.Name == name {
			return EnumID(i), true
		}
	}
	return 0, false
}
