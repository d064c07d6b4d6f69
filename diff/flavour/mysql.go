// Package flavour provides the MySQL differ rules.
package flavour

import (
	"github.com/schemadrift/schemadrift/schema"
)

// MySQLFlavour implements Flavour for MySQL and MariaDB.
type MySQLFlavour struct{}

// NewMySQLFlavour creates the MySQL flavour.
func NewMySQLFlavour() *MySQLFlavour {
	return &MySQLFlavour{}
}

// mysqlCasts covers cross-family changes. MySQL coerces aggressively on
// MODIFY COLUMN, so almost everything has a cast path, but most of them can
// mangle data.
var mysqlCasts = castTable{
	schema.FamilyInt: {
		schema.FamilyBigInt:  SafeCast,
		schema.FamilyFloat:   SafeCast,
		schema.FamilyDecimal: SafeCast,
		schema.FamilyString:  SafeCast,
		schema.FamilyBoolean: RiskyCast,
	},
	schema.FamilyBigInt: {
		schema.FamilyInt:     RiskyCast,
		schema.FamilyFloat:   RiskyCast,
		schema.FamilyDecimal: SafeCast,
		schema.FamilyString:  SafeCast,
	},
	schema.FamilyFloat: {
		schema.FamilyInt:     RiskyCast,
		schema.FamilyBigInt:  RiskyCast,
		schema.FamilyDecimal: RiskyCast,
		schema.FamilyString:  SafeCast,
	},
	schema.FamilyDecimal: {
		schema.FamilyInt:    RiskyCast,
		schema.FamilyBigInt: RiskyCast,
		schema.FamilyFloat:  RiskyCast,
		schema.FamilyString: SafeCast,
	},
	schema.FamilyBoolean: {
		schema.FamilyInt:    SafeCast,
		schema.FamilyString: SafeCast,
	},
	schema.FamilyString: {
		schema.FamilyInt:      RiskyCast,
		schema.FamilyBigInt:   RiskyCast,
		schema.FamilyFloat:    RiskyCast,
		schema.FamilyDecimal:  RiskyCast,
		schema.FamilyDateTime: RiskyCast,
		schema.FamilyJSON:     RiskyCast,
		schema.FamilyBytes:    SafeCast,
	},
	schema.FamilyDateTime: {
		schema.FamilyString: SafeCast,
	},
	schema.FamilyJSON: {
		schema.FamilyString: SafeCast,
	},
	schema.FamilyBytes: {
		schema.FamilyString: RiskyCast,
	},
}

// Name implements Flavour.
func (f *MySQLFlavour) Name() string { return "mysql" }

// LowerCasesTableNames implements Flavour. MySQL table identity follows the
// filesystem and is case-insensitive on the platforms we ship for.
func (f *MySQLFlavour) LowerCasesTableNames() bool { return true }

// TableShouldBeIgnored implements Flavour.
func (f *MySQLFlavour) TableShouldBeIgnored(tableName string) bool {
	return tableName == "_schemadrift_migrations"
}

// ColumnTypeChange implements Flavour.
func (f *MySQLFlavour) ColumnTypeChange(previous, next schema.ColumnWalker) ColumnTypeChange {
	prevType, nextType := previous.Type(), next.Type()

	if prevType.Family == schema.FamilyEnum || nextType.Family == schema.FamilyEnum {
		// MySQL column enums are value lists on the column; changing them
		// coerces unknown values to the empty string.
		if prevType.Family == nextType.Family {
			if previous.EnumName() == next.EnumName() {
				return NoTypeChange
			}
			return RiskyCast
		}
		if nextType.Family == schema.FamilyString {
			return SafeCast
		}
		return RiskyCast
	}

	if prevType.Family == nextType.Family {
		return sameFamilyChange(prevType, nextType)
	}

	return mysqlCasts.classify(prevType.Family, nextType.Family)
}

// IndexAlgorithmsMatter implements Flavour. MySQL only has BTREE for the
// index kinds we diff.
func (f *MySQLFlavour) IndexAlgorithmsMatter() bool { return false }

// CanRenameIndex implements Flavour. RENAME INDEX exists since 5.7.
func (f *MySQLFlavour) CanRenameIndex() bool { return true }

// CanRenameForeignKey implements Flavour. There is no RENAME for foreign
// keys; renames become drop+create.
func (f *MySQLFlavour) CanRenameForeignKey() bool { return false }

// HasUnnamedForeignKeys implements Flavour.
func (f *MySQLFlavour) HasUnnamedForeignKeys() bool { return false }

// CanAlterPrimaryKeys implements Flavour.
func (f *MySQLFlavour) CanAlterPrimaryKeys() bool { return false }

// ShouldRecreatePrimaryKeyOnColumnRecreate implements Flavour.
func (f *MySQLFlavour) ShouldRecreatePrimaryKeyOnColumnRecreate() bool { return false }

// PrimaryKeyChangedOverride implements Flavour. A primary key column gaining
// or losing AUTO_INCREMENT changes the key semantics on MySQL even when the
// column list is identical.
func (f *MySQLFlavour) PrimaryKeyChangedOverride(previous, next schema.TableWalker) bool {
	prevPK, nextPK := previous.PrimaryKey(), next.PrimaryKey()
	if prevPK == nil || nextPK == nil {
		return false
	}
	for _, name := range prevPK.ColumnNames() {
		prevCol, prevOK := previous.Column(name)
		nextCol, nextOK := next.Column(name)
		if prevOK && nextOK && prevCol.AutoIncrement() != nextCol.AutoIncrement() {
			return true
		}
	}
	return false
}

// ShouldSkipForeignKeyIndexes implements Flavour. MySQL creates an index for
// every foreign key; those are dropped with the key, never on their own.
func (f *MySQLFlavour) ShouldSkipForeignKeyIndexes() bool { return true }

// IndexesShouldBeRecreatedAfterColumnDrop implements Flavour.
func (f *MySQLFlavour) IndexesShouldBeRecreatedAfterColumnDrop() bool { return false }

// ShouldPushForeignKeysFromCreatedTables implements Flavour.
func (f *MySQLFlavour) ShouldPushForeignKeysFromCreatedTables() bool { return true }

// ShouldDropIndexesFromDroppedTables implements Flavour.
func (f *MySQLFlavour) ShouldDropIndexesFromDroppedTables() bool { return false }

// CanRedefineTablesWithInboundForeignKeys implements Flavour.
func (f *MySQLFlavour) CanRedefineTablesWithInboundForeignKeys() bool { return false }

// ShouldRedefineTable implements Flavour.
func (f *MySQLFlavour) ShouldRedefineTable(summary TableChangesSummary) bool { return false }
