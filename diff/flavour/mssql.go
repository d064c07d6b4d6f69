// Package flavour provides the Microsoft SQL Server differ rules.
package flavour

import (
	"github.com/schemadrift/schemadrift/schema"
)

// MSSQLFlavour implements Flavour for Microsoft SQL Server.
type MSSQLFlavour struct{}

// NewMSSQLFlavour creates the SQL Server flavour.
func NewMSSQLFlavour() *MSSQLFlavour {
	return &MSSQLFlavour{}
}

// mssqlCasts covers cross-family changes. SQL Server ALTER COLUMN refuses
// conversions it cannot prove; several pairs have no path at all.
var mssqlCasts = castTable{
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
		schema.FamilyUUID:     RiskyCast,
	},
	schema.FamilyDateTime: {
		schema.FamilyString: SafeCast,
	},
	schema.FamilyUUID: {
		schema.FamilyString: SafeCast,
	},
}

// Name implements Flavour.
func (f *MSSQLFlavour) Name() string { return "sqlserver" }

// LowerCasesTableNames implements Flavour.
func (f *MSSQLFlavour) LowerCasesTableNames() bool { return false }

// TableShouldBeIgnored implements Flavour.
func (f *MSSQLFlavour) TableShouldBeIgnored(tableName string) bool {
	return tableName == "_schemadrift_migrations"
}

// ColumnTypeChange implements Flavour.
func (f *MSSQLFlavour) ColumnTypeChange(previous, next schema.ColumnWalker) ColumnTypeChange {
	prevType, nextType := previous.Type(), next.Type()

	if prevType.Family == nextType.Family {
		return sameFamilyChange(prevType, nextType)
	}

	return mssqlCasts.classify(prevType.Family, nextType.Family)
}

// IndexAlgorithmsMatter implements Flavour. Clustered vs nonclustered is
// carried on the index itself, not as an algorithm.
func (f *MSSQLFlavour) IndexAlgorithmsMatter() bool { return false }

// CanRenameIndex implements Flavour. sp_rename handles indexes.
func (f *MSSQLFlavour) CanRenameIndex() bool { return true }

// CanRenameForeignKey implements Flavour.
func (f *MSSQLFlavour) CanRenameForeignKey() bool { return true }

// HasUnnamedForeignKeys implements Flavour.
func (f *MSSQLFlavour) HasUnnamedForeignKeys() bool { return false }

// CanAlterPrimaryKeys implements Flavour.
func (f *MSSQLFlavour) CanAlterPrimaryKeys() bool { return false }

// ShouldRecreatePrimaryKeyOnColumnRecreate implements Flavour. SQL Server
// drops the key with the column, so it must come back explicitly.
func (f *MSSQLFlavour) ShouldRecreatePrimaryKeyOnColumnRecreate() bool { return true }

// PrimaryKeyChangedOverride implements Flavour. A clustering change on an
// otherwise identical key forces a recreate.
func (f *MSSQLFlavour) PrimaryKeyChangedOverride(previous, next schema.TableWalker) bool {
	prevPK, nextPK := previous.PrimaryKey(), next.PrimaryKey()
	if prevPK == nil || nextPK == nil {
		return false
	}
	return clustered(prevPK) != clustered(nextPK)
}

func clustered(pk *schema.PrimaryKey) bool {
	// The connector default is a clustered primary key.
	return pk.Clustered == nil || *pk.Clustered
}

// ShouldSkipForeignKeyIndexes implements Flavour.
func (f *MSSQLFlavour) ShouldSkipForeignKeyIndexes() bool { return false }

// IndexesShouldBeRecreatedAfterColumnDrop implements Flavour.
func (f *MSSQLFlavour) IndexesShouldBeRecreatedAfterColumnDrop() bool { return true }

// ShouldPushForeignKeysFromCreatedTables implements Flavour.
func (f *MSSQLFlavour) ShouldPushForeignKeysFromCreatedTables() bool { return true }

// ShouldDropIndexesFromDroppedTables implements Flavour.
func (f *MSSQLFlavour) ShouldDropIndexesFromDroppedTables() bool { return false }

// CanRedefineTablesWithInboundForeignKeys implements Flavour.
func (f *MSSQLFlavour) CanRedefineTablesWithInboundForeignKeys() bool { return false }

// ShouldRedefineTable implements Flavour.
func (f *MSSQLFlavour) ShouldRedefineTable(summary TableChangesSummary) bool { return false }
