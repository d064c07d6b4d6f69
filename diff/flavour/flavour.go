// Package flavour isolates every connector-specific rule the schema differ
// relies on. The differ holds a Flavour reference and never branches on
// connector identity itself; adding a connector means adding one file here.
package flavour

import (
	"github.com/schemadrift/schemadrift/schema"
)

// ColumnTypeChange classifies the data risk of a column type change.
type ColumnTypeChange int

const (
	// NoTypeChange means the types are equivalent for this connector.
	NoTypeChange ColumnTypeChange = iota
	// SafeCast carries no data risk (e.g. INT to BIGINT).
	SafeCast
	// RiskyCast may truncate or reject values (e.g. VARCHAR(255) to VARCHAR(10)).
	RiskyCast
	// NotCastable has no cast path on this connector; the column must be
	// dropped and recreated.
	NotCastable
)

// String implements fmt.Stringer.
func (c ColumnTypeChange) String() string {
	switch c {
	case SafeCast:
		return "SafeCast"
	case RiskyCast:
		return "RiskyCast"
	case NotCastable:
		return "NotCastable"
	default:
		return "NoTypeChange"
	}
}

// TableChangesSummary describes what a table pair's diff contains, so a
// flavour can decide whether the table must be redefined (dropped and
// recreated with a data copy) instead of altered in place.
type TableChangesSummary struct {
	AlteredColumns     int
	RecreatedColumns   int
	AddedColumns       int
	DroppedColumns     int
	CreatedForeignKeys int
	DroppedForeignKeys int
	CreatedIndexes     int
	PrimaryKeyChanged  bool
}

// Any reports whether the summary records any change at all.
func (s TableChangesSummary) Any() bool {
	return s.AlteredColumns > 0 ||
		s.RecreatedColumns > 0 ||
		s.AddedColumns > 0 ||
		s.DroppedColumns > 0 ||
		s.CreatedForeignKeys > 0 ||
		s.DroppedForeignKeys > 0 ||
		s.PrimaryKeyChanged
}

// Flavour provides the connector-specific rules for schema diffing.
type Flavour interface {
	// Name is the connector identifier, e.g. "postgresql".
	Name() string

	// LowerCasesTableNames reports whether table identity is
	// case-insensitive on this connector (MySQL).
	LowerCasesTableNames() bool

	// TableShouldBeIgnored filters connector bookkeeping tables out of
	// the diff.
	TableShouldBeIgnored(tableName string) bool

	// ColumnTypeChange classifies a column type change between two
	// matched columns.
	ColumnTypeChange(previous, next schema.ColumnWalker) ColumnTypeChange

	// IndexAlgorithmsMatter reports whether the index access method
	// participates in structural index identity.
	IndexAlgorithmsMatter() bool

	// CanRenameIndex reports whether the connector supports renaming an
	// index in place.
	CanRenameIndex() bool

	// CanRenameForeignKey reports whether the connector supports renaming
	// a foreign key constraint in place.
	CanRenameForeignKey() bool

	// HasUnnamedForeignKeys reports whether foreign keys carry no
	// constraint name on this connector (SQLite); rename detection is
	// skipped there.
	HasUnnamedForeignKeys() bool

	// CanAlterPrimaryKeys reports whether a changed primary key can be
	// expressed as a single ALTER (CockroachDB) instead of drop+create.
	CanAlterPrimaryKeys() bool

	// ShouldRecreatePrimaryKeyOnColumnRecreate reports whether dropping
	// and recreating a primary key column forces the key itself to be
	// recreated.
	ShouldRecreatePrimaryKeyOnColumnRecreate() bool

	// PrimaryKeyChangedOverride lets a connector flag a primary key as
	// changed for reasons beyond its column list, e.g. the MySQL
	// auto-increment interaction.
	PrimaryKeyChangedOverride(previous, next schema.TableWalker) bool

	// ShouldSkipForeignKeyIndexes reports whether indexes implicitly
	// created for foreign keys must not be dropped on their own (MySQL).
	ShouldSkipForeignKeyIndexes() bool

	// IndexesShouldBeRecreatedAfterColumnDrop reports whether an index
	// covering a dropped-and-recreated column must be recreated too.
	IndexesShouldBeRecreatedAfterColumnDrop() bool

	// ShouldPushForeignKeysFromCreatedTables reports whether new tables
	// get separate AddForeignKey steps (false where FKs are inline in
	// CREATE TABLE, as on SQLite).
	ShouldPushForeignKeysFromCreatedTables() bool

	// ShouldDropIndexesFromDroppedTables reports whether dropped tables
	// need explicit DropIndex steps before the table drop.
	ShouldDropIndexesFromDroppedTables() bool

	// CanRedefineTablesWithInboundForeignKeys reports whether a table can
	// be redefined while other tables keep foreign keys pointing at it.
	CanRedefineTablesWithInboundForeignKeys() bool

	// ShouldRedefineTable decides whether the summarized changes force a
	// full table redefinition instead of in-place ALTERs.
	ShouldRedefineTable(summary TableChangesSummary) bool
}

// castTable maps (previous family, next family) to a classification. Pairs
// absent from the table are NotCastable; identical families are resolved by
// the per-connector same-family rules before the table is consulted.
type castTable map[schema.TypeFamily]map[schema.TypeFamily]ColumnTypeChange

func (t castTable) classify(previous, next schema.TypeFamily) ColumnTypeChange {
	if row, ok := t[previous]; ok {
		if change, ok := row[next]; ok {
			return change
		}
	}
	return NotCastable
}
