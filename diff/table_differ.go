package diff

import (
	"strings"

	"github.com/schemadrift/schemadrift/diff/flavour"
	"github.com/schemadrift/schemadrift/schema"
)

// TableDiffer compares one table that exists in both snapshots. It is a
// cheap value; all shared state lives in the DifferDatabase.
type TableDiffer struct {
	db     *DifferDatabase
	tables MigrationPair[schema.TableWalker]
}

// Previous returns the table as it was in the previous snapshot.
func (d TableDiffer) Previous() schema.TableWalker { return d.tables.Previous }

// Next returns the table as it is in the next snapshot.
func (d TableDiffer) Next() schema.TableWalker { return d.tables.Next }

func (d TableDiffer) tableIDs() MigrationPair[schema.TableID] {
	return NewPair(d.tables.Previous.ID(), d.tables.Next.ID())
}

// ColumnPairs returns the columns matched by name between the two table
// versions, in previous-table order.
func (d TableDiffer) ColumnPairs() []MigrationPair[schema.ColumnWalker] {
	var out []MigrationPair[schema.ColumnWalker]
	for _, entry := range d.db.columnEntries(d.tableIDs()) {
		if ids, ok := entry.ids.transpose(); ok {
			out = append(out, NewPair(
				d.db.schemas.Previous.Column(ids.Previous),
				d.db.schemas.Next.Column(ids.Next),
			))
		}
	}
	return out
}

// CreatedColumns returns the columns present only in the next version.
func (d TableDiffer) CreatedColumns() []schema.ColumnWalker {
	var out []schema.ColumnWalker
	for _, entry := range d.db.columnEntries(d.tableIDs()) {
		if entry.ids.previous == nil && entry.ids.next != nil {
			out = append(out, d.db.schemas.Next.Column(*entry.ids.next))
		}
	}
	return out
}

// DroppedColumns returns the columns present only in the previous version.
func (d TableDiffer) DroppedColumns() []schema.ColumnWalker {
	var out []schema.ColumnWalker
	for _, entry := range d.db.columnEntries(d.tableIDs()) {
		if entry.ids.next == nil && entry.ids.previous != nil {
			out = append(out, d.db.schemas.Previous.Column(*entry.ids.previous))
		}
	}
	return out
}

// AnyColumnChanged reports whether any matched column pair differs.
func (d TableDiffer) AnyColumnChanged() bool {
	for _, pair := range d.ColumnPairs() {
		ids := NewPair(pair.Previous.ID(), pair.Next.ID())
		if d.db.ColumnChanges(ids).DiffersInSomething() {
			return true
		}
	}
	return false
}

// CreatedPrimaryKey reports whether the next version gained a primary key
// the previous version did not have.
func (d TableDiffer) CreatedPrimaryKey() bool {
	return d.tables.Previous.PrimaryKey() == nil && d.tables.Next.PrimaryKey() != nil
}

// DroppedPrimaryKey reports whether the previous version's primary key is
// gone in the next version.
func (d TableDiffer) DroppedPrimaryKey() bool {
	return d.tables.Previous.PrimaryKey() != nil && d.tables.Next.PrimaryKey() == nil
}

// PrimaryKeyChanged reports whether both versions have a primary key and
// the keys differ, either structurally or because the flavour forces a
// recreation.
func (d TableDiffer) PrimaryKeyChanged() bool {
	previousPK := d.tables.Previous.PrimaryKey()
	nextPK := d.tables.Next.PrimaryKey()
	if previousPK == nil || nextPK == nil {
		return false
	}
	if !primaryKeysMatch(previousPK, nextPK) {
		return true
	}
	// A column recreate underneath the key also forces it to change on
	// some connectors.
	if d.db.flavour.ShouldRecreatePrimaryKeyOnColumnRecreate() {
		for _, pair := range d.ColumnPairs() {
			ids := NewPair(pair.Previous.ID(), pair.Next.ID())
			changes := d.db.ColumnChanges(ids)
			if changes.TypeChanged() && changes.TypeChange() == flavour.NotCastable &&
				pair.Previous.IsPartOfPrimaryKey() {
				return true
			}
		}
	}
	return d.db.flavour.PrimaryKeyChangedOverride(d.tables.Previous, d.tables.Next)
}

func primaryKeysMatch(previous, next *schema.PrimaryKey) bool {
	if len(previous.Columns) != len(next.Columns) {
		return false
	}
	for i, col := range previous.Columns {
		other := next.Columns[i]
		if col.Name != other.Name || col.Length != other.Length || col.SortOrder != other.SortOrder {
			return false
		}
	}
	return true
}

// indexMatch pairs a previous index with its next counterpart. Exact is
// true when the names matched too, so no rename is needed.
type indexMatch struct {
	pair  MigrationPair[schema.IndexWalker]
	exact bool
}

// matchIndexes pairs indexes in two passes. The first pass consumes
// name-and-structure matches. The second pass pairs a leftover previous
// index with a leftover next index only when each is the single structural
// match of the other; anything ambiguous stays unmatched and becomes a
// drop plus a create.
func (d TableDiffer) matchIndexes() (matches []indexMatch, prevUsed, nextUsed map[schema.IndexID]bool) {
	previous := d.tables.Previous.Indexes()
	next := d.tables.Next.Indexes()
	prevUsed = make(map[schema.IndexID]bool)
	nextUsed = make(map[schema.IndexID]bool)

	for _, prevIdx := range previous {
		for _, nextIdx := range next {
			if nextUsed[nextIdx.ID()] {
				continue
			}
			if prevIdx.Name() == nextIdx.Name() && d.indexesMatch(prevIdx, nextIdx) {
				matches = append(matches, indexMatch{pair: NewPair(prevIdx, nextIdx), exact: true})
				prevUsed[prevIdx.ID()] = true
				nextUsed[nextIdx.ID()] = true
				break
			}
		}
	}

	for _, prevIdx := range previous {
		if prevUsed[prevIdx.ID()] {
			continue
		}
		var candidate *schema.IndexWalker
		candidates := 0
		for _, nextIdx := range next {
			if nextUsed[nextIdx.ID()] {
				continue
			}
			if d.indexesMatch(prevIdx, nextIdx) {
				idx := nextIdx
				candidate = &idx
				candidates++
			}
		}
		if candidates != 1 {
			continue
		}
		// The next index must also have no other structural match among
		// the remaining previous indexes.
		reverse := 0
		for _, other := range previous {
			if prevUsed[other.ID()] {
				continue
			}
			if d.indexesMatch(other, *candidate) {
				reverse++
			}
		}
		if reverse != 1 {
			continue
		}
		matches = append(matches, indexMatch{pair: NewPair(prevIdx, *candidate)})
		prevUsed[prevIdx.ID()] = true
		nextUsed[candidate.ID()] = true
	}

	return matches, prevUsed, nextUsed
}

func (d TableDiffer) indexesMatch(previous, next schema.IndexWalker) bool {
	prevIdx := previous.Get()
	nextIdx := next.Get()
	if prevIdx.Unique != nextIdx.Unique {
		return false
	}
	if len(prevIdx.Columns) != len(nextIdx.Columns) {
		return false
	}
	for i, col := range prevIdx.Columns {
		other := nextIdx.Columns[i]
		if col.Name != other.Name || col.Length != other.Length || col.SortOrder != other.SortOrder {
			return false
		}
	}
	if d.db.flavour.IndexAlgorithmsMatter() && prevIdx.Algorithm != nextIdx.Algorithm {
		return false
	}
	return true
}

// IndexPairs returns the matched index pairs whose names differ, meaning a
// rename is needed.
func (d TableDiffer) IndexPairs() []MigrationPair[schema.IndexWalker] {
	matches, _, _ := d.matchIndexes()
	var out []MigrationPair[schema.IndexWalker]
	for _, m := range matches {
		if !m.exact {
			out = append(out, m.pair)
		}
	}
	return out
}

// CreatedIndexes returns the next-version indexes with no counterpart.
func (d TableDiffer) CreatedIndexes() []schema.IndexWalker {
	_, _, nextUsed := d.matchIndexes()
	var out []schema.IndexWalker
	for _, idx := range d.tables.Next.Indexes() {
		if nextUsed[idx.ID()] {
			continue
		}
		if d.db.flavour.ShouldSkipForeignKeyIndexes() && d.indexCoversForeignKey(d.tables.Next, idx) {
			continue
		}
		out = append(out, idx)
	}
	return out
}

// DroppedIndexes returns the previous-version indexes with no counterpart.
func (d TableDiffer) DroppedIndexes() []schema.IndexWalker {
	_, prevUsed, _ := d.matchIndexes()
	var out []schema.IndexWalker
	for _, idx := range d.tables.Previous.Indexes() {
		if prevUsed[idx.ID()] {
			continue
		}
		if d.db.flavour.ShouldSkipForeignKeyIndexes() && d.indexCoversForeignKey(d.tables.Previous, idx) {
			continue
		}
		out = append(out, idx)
	}
	return out
}

// indexCoversForeignKey reports whether a non-unique index exists solely to
// back a foreign key on the same leading columns. MySQL manages those
// implicitly, so the differ must not emit steps for them.
func (d TableDiffer) indexCoversForeignKey(table schema.TableWalker, index schema.IndexWalker) bool {
	if index.IsUnique() {
		return false
	}
	columns := index.Get().Columns
	for _, fk := range table.ForeignKeys() {
		fkColumns := fk.Get().Columns
		if len(fkColumns) > len(columns) {
			continue
		}
		covers := true
		for i, name := range fkColumns {
			if columns[i].Name != name {
				covers = false
				break
			}
		}
		if covers {
			return true
		}
	}
	return false
}

// matchForeignKeys pairs foreign keys greedily by structure: each previous
// key takes the first unconsumed structurally identical next key.
func (d TableDiffer) matchForeignKeys() (pairs []MigrationPair[schema.ForeignKeyWalker], prevUsed, nextUsed map[schema.ForeignKeyID]bool) {
	prevUsed = make(map[schema.ForeignKeyID]bool)
	nextUsed = make(map[schema.ForeignKeyID]bool)
	for _, prevFK := range d.tables.Previous.ForeignKeys() {
		for _, nextFK := range d.tables.Next.ForeignKeys() {
			if nextUsed[nextFK.ID()] {
				continue
			}
			if d.foreignKeysMatch(prevFK, nextFK) {
				pairs = append(pairs, NewPair(prevFK, nextFK))
				prevUsed[prevFK.ID()] = true
				nextUsed[nextFK.ID()] = true
				break
			}
		}
	}
	return pairs, prevUsed, nextUsed
}

func (d TableDiffer) foreignKeysMatch(previous, next schema.ForeignKeyWalker) bool {
	prevFK := previous.Get()
	nextFK := next.Get()
	if len(prevFK.Columns) != len(nextFK.Columns) {
		return false
	}
	for i, name := range prevFK.Columns {
		if name != nextFK.Columns[i] {
			return false
		}
	}
	if !d.referencedTablesMatch(prevFK.ReferencedTable, nextFK.ReferencedTable) {
		return false
	}
	if len(prevFK.ReferencedColumns) != len(nextFK.ReferencedColumns) {
		return false
	}
	for i, name := range prevFK.ReferencedColumns {
		if name != nextFK.ReferencedColumns[i] {
			return false
		}
	}
	return prevFK.OnDelete == nextFK.OnDelete && prevFK.OnUpdate == nextFK.OnUpdate
}

func (d TableDiffer) referencedTablesMatch(previous, next string) bool {
	if d.db.flavour.LowerCasesTableNames() {
		return strings.EqualFold(previous, next)
	}
	return previous == next
}

// ForeignKeyPairs returns the foreign keys matched by structure between
// the two table versions.
func (d TableDiffer) ForeignKeyPairs() []MigrationPair[schema.ForeignKeyWalker] {
	pairs, _, _ := d.matchForeignKeys()
	return pairs
}

// CreatedForeignKeys returns the next-version foreign keys with no match.
func (d TableDiffer) CreatedForeignKeys() []schema.ForeignKeyWalker {
	_, _, nextUsed := d.matchForeignKeys()
	var out []schema.ForeignKeyWalker
	for _, fk := range d.tables.Next.ForeignKeys() {
		if !nextUsed[fk.ID()] {
			out = append(out, fk)
		}
	}
	return out
}

// DroppedForeignKeys returns the previous-version foreign keys with no
// match.
func (d TableDiffer) DroppedForeignKeys() []schema.ForeignKeyWalker {
	_, prevUsed, _ := d.matchForeignKeys()
	var out []schema.ForeignKeyWalker
	for _, fk := range d.tables.Previous.ForeignKeys() {
		if !prevUsed[fk.ID()] {
			out = append(out, fk)
		}
	}
	return out
}

// changesSummary condenses the table pair's diff for the flavour's
// redefine decision.
func (d TableDiffer) changesSummary() flavour.TableChangesSummary {
	summary := flavour.TableChangesSummary{
		AddedColumns:       len(d.CreatedColumns()),
		DroppedColumns:     len(d.DroppedColumns()),
		CreatedForeignKeys: len(d.CreatedForeignKeys()),
		DroppedForeignKeys: len(d.DroppedForeignKeys()),
		CreatedIndexes:     len(d.CreatedIndexes()),
		PrimaryKeyChanged:  d.PrimaryKeyChanged() || d.CreatedPrimaryKey() || d.DroppedPrimaryKey(),
	}
	for _, pair := range d.ColumnPairs() {
		ids := NewPair(pair.Previous.ID(), pair.Next.ID())
		changes := d.db.ColumnChanges(ids)
		if !changes.DiffersInSomething() {
			continue
		}
		if changes.TypeChanged() && changes.TypeChange() == flavour.NotCastable {
			summary.RecreatedColumns++
		} else {
			summary.AlteredColumns++
		}
	}
	return summary
}
