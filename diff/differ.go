package diff

import (
	"github.com/schemadrift/schemadrift/diff/flavour"
	"github.com/schemadrift/schemadrift/internal/debug"
	"github.com/schemadrift/schemadrift/schema"
)

// Diff computes the migration turning the previous snapshot into the next
// one under the given flavour's rules. Identical snapshots produce a
// migration with no steps.
func Diff(previous, next *schema.Snapshot, f flavour.Flavour) *Migration {
	return &Migration{
		Before: previous,
		After:  next,
		Steps:  CalculateSteps(previous, next, f),
	}
}

// Rollback computes the migration undoing Diff(previous, next, f): the
// same diff run with the snapshots swapped.
func Rollback(previous, next *schema.Snapshot, f flavour.Flavour) *Migration {
	return Diff(next, previous, f)
}

// CalculateSteps computes the ordered step list between two snapshots.
func CalculateSteps(previous, next *schema.Snapshot, f flavour.Flavour) []MigrationStep {
	db := NewDifferDatabase(previous, next, f)
	decideRedefines(db)

	var steps []MigrationStep
	steps = pushEnumSteps(steps, db)
	steps = pushCreatedTableSteps(steps, db)
	steps = pushDroppedTableSteps(steps, db)
	steps = pushAlteredTableSteps(steps, db)
	steps = pushRedefinedTableSteps(steps, db)

	debug.Debug("diff computed", "flavour", f.Name(), "steps", len(steps))

	return sortSteps(steps, db)
}

// decideRedefines marks the table pairs whose changes the flavour cannot
// express as in-place ALTERs.
func decideRedefines(db *DifferDatabase) {
	for _, differ := range db.TablePairs() {
		summary := differ.changesSummary()
		if summary.Any() && db.flavour.ShouldRedefineTable(summary) {
			db.markForRedefinition(differ.tableIDs())
		}
	}
}

func pushEnumSteps(steps []MigrationStep, db *DifferDatabase) []MigrationStep {
	for _, enum := range db.CreatedEnums() {
		steps = append(steps, CreateEnum{Enum: enum.ID()})
	}
	for _, pair := range db.EnumPairs() {
		created, dropped := enumValueDiff(pair)
		if len(created) == 0 && len(dropped) == 0 {
			continue
		}
		steps = append(steps, AlterEnum{
			Enums:         NewPair(pair.Previous.ID(), pair.Next.ID()),
			CreatedValues: created,
			DroppedValues: dropped,
		})
	}
	for _, enum := range db.DroppedEnums() {
		steps = append(steps, DropEnum{Enum: enum.ID()})
	}
	return steps
}

func pushCreatedTableSteps(steps []MigrationStep, db *DifferDatabase) []MigrationStep {
	for _, table := range db.CreatedTables() {
		steps = append(steps, CreateTable{Table: table.ID()})
		for _, index := range table.Indexes() {
			steps = append(steps, CreateIndex{Index: index.ID()})
		}
		if db.flavour.ShouldPushForeignKeysFromCreatedTables() {
			for _, fk := range table.ForeignKeys() {
				steps = append(steps, AddForeignKey{ForeignKey: fk.ID()})
			}
		}
	}
	return steps
}

func pushDroppedTableSteps(steps []MigrationStep, db *DifferDatabase) []MigrationStep {
	for _, table := range db.DroppedTables() {
		steps = append(steps, DropTable{Table: table.ID()})
		// Breaking the constraints first avoids dependency failures when
		// several referencing tables go away in one migration. Connectors
		// with unnamed foreign keys cannot address them at all.
		if !db.flavour.HasUnnamedForeignKeys() {
			for _, fk := range table.ForeignKeys() {
				steps = append(steps, DropForeignKey{ForeignKey: fk.ID()})
			}
		}
		if db.flavour.ShouldDropIndexesFromDroppedTables() {
			for _, index := range table.Indexes() {
				steps = append(steps, DropIndex{Index: index.ID()})
			}
		}
	}
	return steps
}

func pushAlteredTableSteps(steps []MigrationStep, db *DifferDatabase) []MigrationStep {
	for _, differ := range db.NonRedefinedTablePairs() {
		steps = pushIndexSteps(steps, db, differ)
		steps = pushAlterTableStep(steps, db, differ)
		steps = pushForeignKeySteps(steps, db, differ)
	}
	return steps
}

func pushIndexSteps(steps []MigrationStep, db *DifferDatabase, differ TableDiffer) []MigrationStep {
	for _, index := range differ.DroppedIndexes() {
		steps = append(steps, DropIndex{Index: index.ID()})
	}
	for _, index := range differ.CreatedIndexes() {
		steps = append(steps, CreateIndex{Index: index.ID()})
	}
	for _, pair := range differ.IndexPairs() {
		ids := NewPair(pair.Previous.ID(), pair.Next.ID())
		if db.flavour.CanRenameIndex() {
			steps = append(steps, RenameIndex{Indexes: ids})
		} else {
			steps = append(steps, RedefineIndex{Indexes: ids})
		}
	}
	return steps
}

func pushAlterTableStep(steps []MigrationStep, db *DifferDatabase, differ TableDiffer) []MigrationStep {
	var changes []TableChange

	pkChanged := differ.PrimaryKeyChanged()
	alterPK := pkChanged && db.flavour.CanAlterPrimaryKeys()

	if differ.DroppedPrimaryKey() || (pkChanged && !alterPK) {
		changes = append(changes, DropPrimaryKey{})
	}
	if !pkChanged && primaryKeyOnlyRenamed(differ) {
		changes = append(changes, RenamePrimaryKey{})
	}

	for _, column := range differ.DroppedColumns() {
		changes = append(changes, DropColumn{Column: column.ID()})
	}
	for _, column := range differ.CreatedColumns() {
		changes = append(changes, AddColumn{Column: column.ID()})
	}
	for _, pair := range differ.ColumnPairs() {
		ids := NewPair(pair.Previous.ID(), pair.Next.ID())
		columnChanges := db.ColumnChanges(ids)
		if !columnChanges.DiffersInSomething() {
			continue
		}
		if columnChanges.TypeChanged() && columnChanges.TypeChange() == flavour.NotCastable {
			changes = append(changes, DropAndRecreateColumn{Columns: ids, Changes: columnChanges})
			if db.flavour.IndexesShouldBeRecreatedAfterColumnDrop() {
				steps = pushRecreatedIndexSteps(steps, differ, pair.Next)
			}
		} else {
			changes = append(changes, AlterColumn{
				Columns:    ids,
				Changes:    columnChanges,
				TypeChange: typeChangeKind(columnChanges.TypeChange()),
			})
		}
	}

	if differ.CreatedPrimaryKey() || (pkChanged && !alterPK) {
		changes = append(changes, AddPrimaryKey{})
	}

	if len(changes) > 0 {
		steps = append(steps, AlterTable{Tables: differ.tableIDs(), Changes: changes})
	}
	if alterPK {
		steps = append(steps, AlterPrimaryKey{Tables: differ.tableIDs()})
	}
	return steps
}

// primaryKeyOnlyRenamed reports whether the two versions carry structurally
// identical primary keys under different constraint names.
func primaryKeyOnlyRenamed(differ TableDiffer) bool {
	previousPK := differ.Previous().PrimaryKey()
	nextPK := differ.Next().PrimaryKey()
	if previousPK == nil || nextPK == nil {
		return false
	}
	return previousPK.Name != nextPK.Name && primaryKeysMatch(previousPK, nextPK)
}

// pushRecreatedIndexSteps re-creates the indexes that cover a column being
// dropped and recreated, for connectors that lose them with the column.
func pushRecreatedIndexSteps(steps []MigrationStep, differ TableDiffer, column schema.ColumnWalker) []MigrationStep {
	for _, index := range differ.Next().Indexes() {
		if index.ContainsColumn(column.Name()) {
			steps = append(steps, CreateIndex{Index: index.ID(), FromDropAndRecreate: true})
		}
	}
	return steps
}

func pushForeignKeySteps(steps []MigrationStep, db *DifferDatabase, differ TableDiffer) []MigrationStep {
	for _, fk := range differ.DroppedForeignKeys() {
		steps = append(steps, DropForeignKey{ForeignKey: fk.ID()})
	}
	for _, fk := range differ.CreatedForeignKeys() {
		steps = append(steps, AddForeignKey{ForeignKey: fk.ID()})
	}
	for _, pair := range differ.ForeignKeyPairs() {
		// A key pointing at a redefined table must be recreated, the
		// redefinition invalidates it.
		if db.TableIsRedefined(differ.Next().Namespace(), pair.Next.Get().ReferencedTable) {
			steps = append(steps,
				DropForeignKey{ForeignKey: pair.Previous.ID()},
				AddForeignKey{ForeignKey: pair.Next.ID()},
			)
			continue
		}
		if pair.Previous.ConstraintName() == pair.Next.ConstraintName() {
			continue
		}
		ids := NewPair(pair.Previous.ID(), pair.Next.ID())
		switch {
		case db.flavour.CanRenameForeignKey():
			steps = append(steps, RenameForeignKey{ForeignKeys: ids})
		case db.flavour.HasUnnamedForeignKeys():
			// Nothing to do, the name is not part of the schema.
		default:
			steps = append(steps,
				DropForeignKey{ForeignKey: pair.Previous.ID()},
				AddForeignKey{ForeignKey: pair.Next.ID()},
			)
		}
	}
	return steps
}

func pushRedefinedTableSteps(steps []MigrationStep, db *DifferDatabase) []MigrationStep {
	if !db.hasRedefinedTables() {
		return steps
	}
	var redefines []RedefineTable
	for _, differ := range db.RedefinedTablePairs() {
		entry := RedefineTable{
			Tables:            differ.tableIDs(),
			DroppedPrimaryKey: differ.DroppedPrimaryKey(),
		}
		for _, column := range differ.CreatedColumns() {
			entry.AddedColumns = append(entry.AddedColumns, column.ID())
		}
		for _, column := range differ.DroppedColumns() {
			entry.DroppedColumns = append(entry.DroppedColumns, column.ID())
		}
		for _, pair := range differ.ColumnPairs() {
			ids := NewPair(pair.Previous.ID(), pair.Next.ID())
			columnChanges := db.ColumnChanges(ids)
			entry.ColumnPairs = append(entry.ColumnPairs, RedefinedColumnPair{
				Columns:    ids,
				Changes:    columnChanges,
				TypeChange: typeChangeKind(columnChanges.TypeChange()),
			})
		}
		redefines = append(redefines, entry)

		// Recreating the table drops its indexes, so the next version's
		// indexes all come back afterwards.
		for _, index := range differ.Next().Indexes() {
			steps = append(steps, CreateIndex{Index: index.ID(), FromDropAndRecreate: true})
		}
	}
	return append(steps, RedefineTables{Tables: redefines})
}
