// Package diff provides the central matcher state for a diff run. The
// DifferDatabase pairs entities between the two snapshots up front; the
// differs then only read from it.
package diff

import (
	"strings"

	"github.com/schemadrift/schemadrift/diff/flavour"
	"github.com/schemadrift/schemadrift/internal/debug"
	"github.com/schemadrift/schemadrift/schema"
)

// tableKey is the match identity of a table: namespace plus (possibly
// case-folded) name.
type tableKey struct {
	namespace string
	name      string
}

// columnEntry tracks one column name within a matched table pair.
type columnEntry struct {
	name string
	ids  optionalPair[schema.ColumnID]
}

// DifferDatabase holds every entity pairing for one previous/next snapshot
// pair. It is built once per diff and never mutated afterwards, except for
// the redefine set which the planner fills in.
type DifferDatabase struct {
	flavour flavour.Flavour
	schemas MigrationPair[*schema.Snapshot]

	// Table iteration order: previous-schema order, then next-only tables
	// in next-schema order. Maps alone would randomize step order.
	tableKeys []tableKey
	tables    map[tableKey]optionalPair[schema.TableID]

	// Matched-table column entries, in previous order then next-only order.
	columns       map[MigrationPair[schema.TableID]][]columnEntry
	columnChanges map[MigrationPair[schema.ColumnID]]ColumnChanges

	// Tables that must be dropped and recreated for the migration to work.
	tablesToRedefine map[MigrationPair[schema.TableID]]bool
}

// NewDifferDatabase pairs all entities of the two snapshots.
func NewDifferDatabase(previous, next *schema.Snapshot, f flavour.Flavour) *DifferDatabase {
	db := &DifferDatabase{
		flavour:          f,
		schemas:          NewPair(previous, next),
		tables:           make(map[tableKey]optionalPair[schema.TableID]),
		columns:          make(map[MigrationPair[schema.TableID]][]columnEntry),
		columnChanges:    make(map[MigrationPair[schema.ColumnID]]ColumnChanges),
		tablesToRedefine: make(map[MigrationPair[schema.TableID]]bool),
	}

	db.buildTables()
	db.buildColumns()

	debug.Debug("differ database built",
		"tables", len(db.tables),
		"columnChanges", len(db.columnChanges))

	return db
}

func (db *DifferDatabase) tableIdentity(t schema.TableWalker) tableKey {
	name := t.Name()
	if db.flavour.LowerCasesTableNames() {
		name = strings.ToLower(name)
	}
	return tableKey{namespace: t.Namespace(), name: name}
}

func (db *DifferDatabase) buildTables() {
	for _, table := range db.schemas.Previous.Tables() {
		if db.flavour.TableShouldBeIgnored(table.Name()) {
			continue
		}
		key := db.tableIdentity(table)
		id := table.ID()
		db.tableKeys = append(db.tableKeys, key)
		db.tables[key] = optionalPair[schema.TableID]{previous: &id}
	}

	for _, table := range db.schemas.Next.Tables() {
		if db.flavour.TableShouldBeIgnored(table.Name()) {
			continue
		}
		key := db.tableIdentity(table)
		id := table.ID()
		entry, seen := db.tables[key]
		if !seen {
			db.tableKeys = append(db.tableKeys, key)
		}
		entry.next = &id
		db.tables[key] = entry
	}
}

func (db *DifferDatabase) buildColumns() {
	for _, key := range db.tableKeys {
		tableIDs, ok := db.tables[key].transpose()
		if !ok {
			continue
		}
		prevTable := db.schemas.Previous.Table(tableIDs.Previous)
		nextTable := db.schemas.Next.Table(tableIDs.Next)

		var entries []columnEntry
		position := make(map[string]int)

		for _, col := range prevTable.Columns() {
			id := col.ID()
			position[col.Name()] = len(entries)
			entries = append(entries, columnEntry{
				name: col.Name(),
				ids:  optionalPair[schema.ColumnID]{previous: &id},
			})
		}

		for _, col := range nextTable.Columns() {
			id := col.ID()
			if i, seen := position[col.Name()]; seen {
				entries[i].ids.next = &id
			} else {
				entries = append(entries, columnEntry{
					name: col.Name(),
					ids:  optionalPair[schema.ColumnID]{next: &id},
				})
			}
		}

		for _, entry := range entries {
			if ids, ok := entry.ids.transpose(); ok {
				changes := allColumnChanges(
					db.schemas.Previous.Column(ids.Previous),
					db.schemas.Next.Column(ids.Next),
					db.flavour,
				)
				db.columnChanges[ids] = changes
			}
		}

		db.columns[tableIDs] = entries
	}
}

// CreatedTables returns tables present only in the next snapshot.
func (db *DifferDatabase) CreatedTables() []schema.TableWalker {
	var out []schema.TableWalker
	for _, key := range db.tableKeys {
		pair := db.tables[key]
		if pair.previous == nil && pair.next != nil {
			out = append(out, db.schemas.Next.Table(*pair.next))
		}
	}
	return out
}

// DroppedTables returns tables present only in the previous snapshot.
func (db *DifferDatabase) DroppedTables() []schema.TableWalker {
	var out []schema.TableWalker
	for _, key := range db.tableKeys {
		pair := db.tables[key]
		if pair.next == nil && pair.previous != nil {
			out = append(out, db.schemas.Previous.Table(*pair.previous))
		}
	}
	return out
}

// TablePairs returns a differ for every table present in both snapshots.
func (db *DifferDatabase) TablePairs() []TableDiffer {
	var out []TableDiffer
	for _, key := range db.tableKeys {
		if ids, ok := db.tables[key].transpose(); ok {
			out = append(out, db.tableDiffer(ids))
		}
	}
	return out
}

// NonRedefinedTablePairs returns TablePairs minus the redefined tables.
func (db *DifferDatabase) NonRedefinedTablePairs() []TableDiffer {
	var out []TableDiffer
	for _, differ := range db.TablePairs() {
		if !db.tablesToRedefine[differ.tableIDs()] {
			out = append(out, differ)
		}
	}
	return out
}

// RedefinedTablePairs returns the differs for tables marked for
// redefinition.
func (db *DifferDatabase) RedefinedTablePairs() []TableDiffer {
	var out []TableDiffer
	for _, differ := range db.TablePairs() {
		if db.tablesToRedefine[differ.tableIDs()] {
			out = append(out, differ)
		}
	}
	return out
}

func (db *DifferDatabase) tableDiffer(ids MigrationPair[schema.TableID]) TableDiffer {
	return TableDiffer{
		db: db,
		tables: NewPair(
			db.schemas.Previous.Table(ids.Previous),
			db.schemas.Next.Table(ids.Next),
		),
	}
}

// ColumnChanges returns the precomputed changes for a matched column pair.
func (db *DifferDatabase) ColumnChanges(ids MigrationPair[schema.ColumnID]) ColumnChanges {
	return db.columnChanges[ids]
}

// TableIsRedefined reports whether the named table is marked for
// redefinition.
func (db *DifferDatabase) TableIsRedefined(namespace, name string) bool {
	if db.flavour.LowerCasesTableNames() {
		name = strings.ToLower(name)
	}
	ids, ok := db.tables[tableKey{namespace: namespace, name: name}].transpose()
	if !ok {
		return false
	}
	return db.tablesToRedefine[ids]
}

// markForRedefinition records that a table pair cannot be migrated with
// in-place ALTERs.
func (db *DifferDatabase) markForRedefinition(ids MigrationPair[schema.TableID]) {
	db.tablesToRedefine[ids] = true
}

// hasRedefinedTables reports whether any table is marked for redefinition.
func (db *DifferDatabase) hasRedefinedTables() bool { return len(db.tablesToRedefine) > 0 }

// EnumPairs returns enums matched by name across snapshots.
func (db *DifferDatabase) EnumPairs() []MigrationPair[schema.EnumWalker] {
	var out []MigrationPair[schema.EnumWalker]
	for _, prev := range db.schemas.Previous.Enums() {
		if nextID, ok := db.schemas.Next.FindEnum(prev.Name()); ok {
			out = append(out, NewPair(prev, db.schemas.Next.Enum(nextID)))
		}
	}
	return out
}

// CreatedEnums returns enums present only in the next snapshot.
func (db *DifferDatabase) CreatedEnums() []schema.EnumWalker {
	var out []schema.EnumWalker
	for _, next := range db.schemas.Next.Enums() {
		if _, ok := db.schemas.Previous.FindEnum(next.Name()); !ok {
			out = append(out, next)
		}
	}
	return out
}

// DroppedEnums returns enums present only in the previous snapshot.
func (db *DifferDatabase) DroppedEnums() []schema.EnumWalker {
	var out []schema.EnumWalker
	for _, prev := range db.schemas.Previous.Enums() {
		if _, ok := db.schemas.Next.FindEnum(prev.Name()); !ok {
			out = append(out, prev)
		}
	}
	return out
}

// columnEntries returns the matcher's column entries for a table pair.
func (db *DifferDatabase) columnEntries(ids MigrationPair[schema.TableID]) []columnEntry {
	return db.columns[ids]
}
