// Package flavour provides the SQLite differ rules. SQLite barely supports
// ALTER TABLE, so most table changes funnel into a full redefinition through
// a temporary table.
package flavour

import (
	"github.com/schemadrift/schemadrift/schema"
)

// SQLiteFlavour implements Flavour for SQLite.
type SQLiteFlavour struct{}

// NewSQLiteFlavour creates the SQLite flavour.
func NewSQLiteFlavour() *SQLiteFlavour {
	return &SQLiteFlavour{}
}

// Name implements Flavour.
func (f *SQLiteFlavour) Name() string { return "sqlite" }

// LowerCasesTableNames implements Flavour.
func (f *SQLiteFlavour) LowerCasesTableNames() bool { return false }

// TableShouldBeIgnored implements Flavour.
func (f *SQLiteFlavour) TableShouldBeIgnored(tableName string) bool {
	return tableName == "_schemadrift_migrations" || tableName == "sqlite_sequence"
}

// ColumnTypeChange implements Flavour. SQLite type affinity stores anything
// anywhere; a changed declared type rewrites the column during redefinition
// and only integer/text narrowing can actually lose data.
func (f *SQLiteFlavour) ColumnTypeChange(previous, next schema.ColumnWalker) ColumnTypeChange {
	prevType, nextType := previous.Type(), next.Type()

	if prevType.Family == nextType.Family {
		return sameFamilyChange(prevType, nextType)
	}

	switch {
	case nextType.Family == schema.FamilyString:
		return SafeCast
	case prevType.Family == schema.FamilyInt && nextType.Family == schema.FamilyBigInt:
		return SafeCast
	default:
		return RiskyCast
	}
}

// IndexAlgorithmsMatter implements Flavour.
func (f *SQLiteFlavour) IndexAlgorithmsMatter() bool { return false }

// CanRenameIndex implements Flavour.
func (f *SQLiteFlavour) CanRenameIndex() bool { return false }

// CanRenameForeignKey implements Flavour.
func (f *SQLiteFlavour) CanRenameForeignKey() bool { return false }

// HasUnnamedForeignKeys implements Flavour. SQLite foreign keys have no
// constraint names, so rename detection is meaningless.
func (f *SQLiteFlavour) HasUnnamedForeignKeys() bool { return true }

// CanAlterPrimaryKeys implements Flavour.
func (f *SQLiteFlavour) CanAlterPrimaryKeys() bool { return false }

// ShouldRecreatePrimaryKeyOnColumnRecreate implements Flavour.
func (f *SQLiteFlavour) ShouldRecreatePrimaryKeyOnColumnRecreate() bool { return false }

// PrimaryKeyChangedOverride implements Flavour.
func (f *SQLiteFlavour) PrimaryKeyChangedOverride(previous, next schema.TableWalker) bool {
	return false
}

// ShouldSkipForeignKeyIndexes implements Flavour.
func (f *SQLiteFlavour) ShouldSkipForeignKeyIndexes() bool { return false }

// IndexesShouldBeRecreatedAfterColumnDrop implements Flavour. Redefinition
// drops every index with the old table; they come back afterwards.
func (f *SQLiteFlavour) IndexesShouldBeRecreatedAfterColumnDrop() bool { return true }

// ShouldPushForeignKeysFromCreatedTables implements Flavour. Foreign keys
// are inline in CREATE TABLE on SQLite.
func (f *SQLiteFlavour) ShouldPushForeignKeysFromCreatedTables() bool { return false }

// ShouldDropIndexesFromDroppedTables implements Flavour. Index names are
// database-global on SQLite, so indexes of dropped tables must go before any
// new index can reuse the name.
func (f *SQLiteFlavour) ShouldDropIndexesFromDroppedTables() bool { return true }

// CanRedefineTablesWithInboundForeignKeys implements Flavour. With
// foreign_keys=off during the migration, SQLite tolerates redefining a
// referenced table.
func (f *SQLiteFlavour) CanRedefineTablesWithInboundForeignKeys() bool { return true }

// ShouldRedefineTable implements Flavour. Anything beyond adding columns or
// indexes needs the temp-table dance.
func (f *SQLiteFlavour) ShouldRedefineTable(summary TableChangesSummary) bool {
	return summary.AlteredColumns > 0 ||
		summary.RecreatedColumns > 0 ||
		summary.DroppedColumns > 0 ||
		summary.CreatedForeignKeys > 0 ||
		summary.DroppedForeignKeys > 0 ||
		summary.PrimaryKeyChanged
}
