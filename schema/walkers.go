// Package schema provides cheap, copyable walkers over snapshot entities.
// A walker is an (snapshot, id) pair; all accessors resolve lazily.
package schema

// TableWalker walks a single table.
type TableWalker struct {
	schema *Snapshot
	id     TableID
}

// ID returns the table id.
func (w TableWalker) ID() TableID { return w.id }

// Name returns the table name.
func (w TableWalker) Name() string { return w.schema.tables[w.id].name }

// Namespace returns the table's namespace or schema, empty for the default.
func (w TableWalker) Namespace() string { return w.schema.tables[w.id].namespace }

// PrimaryKey returns the table's primary key, or nil.
func (w TableWalker) PrimaryKey() *PrimaryKey { return w.schema.tables[w.id].primaryKey }

// Columns returns the table's columns in definition order.
func (w TableWalker) Columns() []ColumnWalker {
	var out []ColumnWalker
	for i, c := range w.schema.columns {
		if c.table == w.id {
			out = append(out, ColumnWalker{schema: w.schema, id: ColumnID(i)})
		}
	}
	return out
}

// Column looks a column up by name.
func (w TableWalker) Column(name string) (ColumnWalker, bool) {
	for i, c := range w.schema.columns {
		if c.table == w.id && c.column.Name == name {
			return ColumnWalker{schema: w.schema, id: ColumnID(i)}, true
		}
	}
	return ColumnWalker{}, false
}

// Indexes returns the table's indexes.
func (w TableWalker) Indexes() []IndexWalker {
	var out []IndexWalker
	for i, idx := range w.schema.indexes {
		if idx.table == w.id {
			out = append(out, IndexWalker{schema: w.schema, id: IndexID(i)})
		}
	}
	return out
}

// ForeignKeys returns the table's foreign keys.
func (w TableWalker) ForeignKeys() []ForeignKeyWalker {
	var out []ForeignKeyWalker
	for i, fk := range w.schema.foreignKeys {
		if fk.table == w.id {
			out = append(out, ForeignKeyWalker{schema: w.schema, id: ForeignKeyID(i)})
		}
	}
	return out
}

// ColumnWalker walks a single column.
type ColumnWalker struct {
	schema *Snapshot
	id     ColumnID
}

// ID returns the column id.
func (w ColumnWalker) ID() ColumnID { return w.id }

// Name returns the column name.
func (w ColumnWalker) Name() string { return w.schema.columns[w.id].column.Name }

// Table returns the owning table.
func (w ColumnWalker) Table() TableWalker {
	return TableWalker{schema: w.schema, id: w.schema.columns[w.id].table}
}

// Get returns the column definition.
func (w ColumnWalker) Get() *Column { return &w.schema.columns[w.id].column }

// Type returns the column type.
func (w ColumnWalker) Type() ColumnType { return w.schema.columns[w.id].column.Type }

// Arity returns the column arity.
func (w ColumnWalker) Arity() Arity { return w.schema.columns[w.id].column.Arity }

// Default returns the column default, or nil.
func (w ColumnWalker) Default() *Default { return w.schema.columns[w.id].column.Default }

// EnumName returns the backing enum's name for enum-typed columns, empty
// otherwise.
func (w ColumnWalker) EnumName() string {
	t := w.Type()
	if t.Family != FamilyEnum {
		return ""
	}
	return w.schema.enums[t.Enum].Name
}

// EnumValues returns the backing enum's values for enum-typed columns.
func (w ColumnWalker) EnumValues() []string {
	t := w.Type()
	if t.Family != FamilyEnum {
		return nil
	}
	return w.schema.enums[t.Enum].Values
}

// AutoIncrement reports whether the column is auto-incrementing.
func (w ColumnWalker) AutoIncrement() bool { return w.schema.columns[w.id].column.AutoIncrement }

// IsPartOfPrimaryKey reports whether the column participates in the table's
// primary key.
func (w ColumnWalker) IsPartOfPrimaryKey() bool {
	pk := w.Table().PrimaryKey()
	if pk == nil {
		return false
	}
	name := w.Name()
	for _, c := range pk.Columns {
		if c.Name == name {
			return true
		}
	}
	return false
}

// IndexWalker walks a single index.
type IndexWalker struct {
	schema *Snapshot
	id     IndexID
}

// ID returns the index id.
func (w IndexWalker) ID() IndexID { return w.id }

// Name returns the index name.
func (w IndexWalker) Name() string { return w.schema.indexes[w.id].index.Name }

// Table returns the owning table.
func (w IndexWalker) Table() TableWalker {
	return TableWalker{schema: w.schema, id: w.schema.indexes[w.id].table}
}

// Get returns the index definition.
func (w IndexWalker) Get() *Index { return &w.schema.indexes[w.id].index }

// IsUnique reports whether the index is unique.
func (w IndexWalker) IsUnique() bool { return w.schema.indexes[w.id].index.Unique }

// Columns returns the indexed columns with their modifiers.
func (w IndexWalker) Columns() []IndexColumn { return w.schema.indexes[w.id].index.Columns }

// ContainsColumn reports whether the index covers the named column.
func (w IndexWalker) ContainsColumn(name string) bool {
	for _, c := range w.Columns() {
		if c.Name == name {
			return true
		}
	}
	return false
}

// ForeignKeyWalker walks a single foreign key.
type ForeignKeyWalker struct {
	schema *Snapshot
	id     ForeignKeyID
}

// ID returns the foreign key id.
func (w ForeignKeyWalker) ID() ForeignKeyID { return w.id }

// Table returns the constrained table.
func (w ForeignKeyWalker) Table() TableWalker {
	return TableWalker{schema: w.schema, id: w.schema.foreignKeys[w.id].table}
}

// Get returns the foreign key definition.
func (w ForeignKeyWalker) Get() *ForeignKey { return &w.schema.foreignKeys[w.id].fk }

// ConstraintName returns the constraint name, empty if unnamed.
func (w ForeignKeyWalker) ConstraintName() string {
	return w.schema.foreignKeys[w.id].fk.ConstraintName
}

// EnumWalker walks a single enum.
type EnumWalker struct {
	schema *Snapshot
	id     EnumID
}

// ID returns the enum id.
func (w EnumWalker) ID() EnumID { return w.id }

// Name returns the enum name.
func (w EnumWalker) Name() string { return w.schema.enums[w.id].Name }

// Get returns the underlying enum.
func (w EnumWalker) Get() *Enum { return &w.schema.enums[w.id] }

// Values returns the enum's values in declaration order.
func (w EnumWalker) Values() []string { return w.schema.enums[w.id].Values }
