// Package flavour provides the PostgreSQL differ rules.
package flavour

import (
	"github.com/schemadrift/schemadrift/schema"
)

// PostgresFlavour implements Flavour for PostgreSQL.
type PostgresFlavour struct{}

// NewPostgresFlavour creates the PostgreSQL flavour.
func NewPostgresFlavour() *PostgresFlavour {
	return &PostgresFlavour{}
}

// postgresCasts covers cross-family changes. Postgres ALTER COLUMN goes
// through an implicit or explicit USING cast, so most conversions exist but
// many can reject rows.
var postgresCasts = castTable{
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
		schema.FamilyBoolean:  RiskyCast,
		schema.FamilyDateTime: RiskyCast,
		schema.FamilyJSON:     RiskyCast,
		schema.FamilyUUID:     RiskyCast,
		schema.FamilyBytes:    SafeCast,
	},
	schema.FamilyDateTime: {
		schema.FamilyString: SafeCast,
	},
	schema.FamilyJSON: {
		schema.FamilyString: SafeCast,
	},
	schema.FamilyUUID: {
		schema.FamilyString: SafeCast,
	},
}

// Name implements Flavour.
func (f *PostgresFlavour) Name() string { return "postgresql" }

// LowerCasesTableNames implements Flavour.
func (f *PostgresFlavour) LowerCasesTableNames() bool { return false }

// TableShouldBeIgnored implements Flavour.
func (f *PostgresFlavour) TableShouldBeIgnored(tableName string) bool {
	return tableName == "_schemadrift_migrations" || tableName == "spatial_ref_sys"
}

// ColumnTypeChange implements Flavour.
func (f *PostgresFlavour) ColumnTypeChange(previous, next schema.ColumnWalker) ColumnTypeChange {
	prevType, nextType := previous.Type(), next.Type()

	// Going to or from a list is a rewrite, not a cast.
	if (previous.Arity() == schema.List) != (next.Arity() == schema.List) {
		return NotCastable
	}

	if prevType.Family == schema.FamilyEnum || nextType.Family == schema.FamilyEnum {
		return enumChange(previous, next)
	}

	if prevType.Family == nextType.Family {
		return sameFamilyChange(prevType, nextType)
	}

	return postgresCasts.classify(prevType.Family, nextType.Family)
}

// IndexAlgorithmsMatter implements Flavour. Postgres indexes with different
// access methods are different indexes.
func (f *PostgresFlavour) IndexAlgorithmsMatter() bool { return true }

// CanRenameIndex implements Flavour.
func (f *PostgresFlavour) CanRenameIndex() bool { return true }

// CanRenameForeignKey implements Flavour.
func (f *PostgresFlavour) CanRenameForeignKey() bool { return true }

// HasUnnamedForeignKeys implements Flavour.
func (f *PostgresFlavour) HasUnnamedForeignKeys() bool { return false }

// CanAlterPrimaryKeys implements Flavour.
func (f *PostgresFlavour) CanAlterPrimaryKeys() bool { return false }

// ShouldRecreatePrimaryKeyOnColumnRecreate implements Flavour.
func (f *PostgresFlavour) ShouldRecreatePrimaryKeyOnColumnRecreate() bool { return false }

// PrimaryKeyChangedOverride implements Flavour.
func (f *PostgresFlavour) PrimaryKeyChangedOverride(previous, next schema.TableWalker) bool {
	return false
}

// ShouldSkipForeignKeyIndexes implements Flavour.
func (f *PostgresFlavour) ShouldSkipForeignKeyIndexes() bool { return false }

// IndexesShouldBeRecreatedAfterColumnDrop implements Flavour.
func (f *PostgresFlavour) IndexesShouldBeRecreatedAfterColumnDrop() bool { return false }

// ShouldPushForeignKeysFromCreatedTables implements Flavour.
func (f *PostgresFlavour) ShouldPushForeignKeysFromCreatedTables() bool { return true }

// ShouldDropIndexesFromDroppedTables implements Flavour.
func (f *PostgresFlavour) ShouldDropIndexesFromDroppedTables() bool { return false }

// CanRedefineTablesWithInboundForeignKeys implements Flavour.
func (f *PostgresFlavour) CanRedefineTablesWithInboundForeignKeys() bool { return true }

// ShouldRedefineTable implements Flavour. Postgres can alter everything in
// place.
func (f *PostgresFlavour) ShouldRedefineTable(summary TableChangesSummary) bool { return false }

// enumChange handles type changes where either side is enum-backed. Value
// additions/removals within the same enum are AlterEnum territory, not a
// column cast.
func enumChange(previous, next schema.ColumnWalker) ColumnTypeChange {
	prevType, nextType := previous.Type(), next.Type()

	if prevType.Family == schema.FamilyEnum && nextType.Family == schema.FamilyEnum {
		if previous.EnumName() == next.EnumName() {
			return NoTypeChange
		}
		return NotCastable
	}
	// Enum to text works, everything else needs a rewrite.
	if nextType.Family == schema.FamilyString {
		return SafeCast
	}
	return NotCastable
}

// sameFamilyChange compares two types within the same family: shrinking a
// parameter (length, precision) is risky, growing it is safe.
func sameFamilyChange(previous, next schema.ColumnType) ColumnTypeChange {
	prevLen, prevOK := previous.Length()
	nextLen, nextOK := next.Length()

	switch {
	case prevOK && nextOK && nextLen < prevLen:
		return RiskyCast
	case prevOK && !nextOK:
		// Dropping an explicit length, e.g. VARCHAR(10) -> TEXT.
		if previous.Native == next.Native {
			return RiskyCast
		}
		return SafeCast
	case previous.Native != next.Native:
		return SafeCast
	case prevOK && nextOK && nextLen > prevLen:
		return SafeCast
	default:
		return NoTypeChange
	}
}
