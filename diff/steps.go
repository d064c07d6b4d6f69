// Package diff defines the migration step taxonomy. Steps reference
// entities by snapshot id; the renderer and the destructive change checker
// resolve them against the before/after snapshots carried on the Migration.
package diff

import (
	"github.com/schemadrift/schemadrift/schema"
)

// MigrationStep is one structural change. The concrete types below are the
// only implementations.
type MigrationStep interface {
	// Description is the stable machine-readable step kind.
	Description() string
	// sortClass is the fixed precedence used by step ordering. Lower
	// classes run first when no finer dependency applies.
	sortClass() int
}

// Sort classes. The relative order encodes hard dependencies:
//
//   - Enums change before the columns that use them.
//   - Foreign keys and indexes drop before tables and columns drop.
//   - Tables drop before enums drop (objects depend on enums) and before
//     tables are created (name reuse).
//   - Indexes are created after ALTER TABLEs (they may cover new columns)
//     and foreign keys last (they may need the new unique indexes).
const (
	classCreateEnum = iota
	classAlterEnum
	classDropForeignKey
	classDropIndex
	classAlterTable
	classAlterPrimaryKey
	classDropTable
	classDropEnum
	classCreateTable
	classRedefineTables
	classCreateIndex
	classRenameForeignKey
	classAddForeignKey
	classRenameIndex
	classRedefineIndex
)

// CreateTable creates a table with all its columns and its primary key.
type CreateTable struct {
	Table schema.TableID
}

// DropTable drops a table.
type DropTable struct {
	Table schema.TableID
}

// AlterTable applies a list of in-place changes to one table.
type AlterTable struct {
	Tables  MigrationPair[schema.TableID]
	Changes []TableChange
}

// AlterPrimaryKey changes the primary key in place (CockroachDB).
type AlterPrimaryKey struct {
	Tables MigrationPair[schema.TableID]
}

// CreateIndex creates an index. FromDropAndRecreate marks indexes that come
// back after their column was dropped and recreated.
type CreateIndex struct {
	Index               schema.IndexID
	FromDropAndRecreate bool
}

// DropIndex drops an index.
type DropIndex struct {
	Index schema.IndexID
}

// RenameIndex renames an index in place.
type RenameIndex struct {
	Indexes MigrationPair[schema.IndexID]
}

// RedefineIndex drops and recreates an index on connectors that cannot
// rename one.
type RedefineIndex struct {
	Indexes MigrationPair[schema.IndexID]
}

// AddForeignKey creates a foreign key constraint.
type AddForeignKey struct {
	ForeignKey schema.ForeignKeyID
}

// DropForeignKey drops a foreign key constraint.
type DropForeignKey struct {
	ForeignKey schema.ForeignKeyID
}

// RenameForeignKey renames a foreign key constraint in place.
type RenameForeignKey struct {
	ForeignKeys MigrationPair[schema.ForeignKeyID]
}

// CreateEnum creates a connector-native enum type.
type CreateEnum struct {
	Enum schema.EnumID
}

// DropEnum drops a connector-native enum type.
type DropEnum struct {
	Enum schema.EnumID
}

// AlterEnum adds and removes enum values.
type AlterEnum struct {
	Enums         MigrationPair[schema.EnumID]
	CreatedValues []string
	DroppedValues []string
}

// RedefineTables recreates tables through temporary tables with a data
// copy, for connectors that cannot express the changes as ALTERs.
type RedefineTables struct {
	Tables []RedefineTable
}

// RedefineTable is one table's redefinition.
type RedefineTable struct {
	Tables            MigrationPair[schema.TableID]
	AddedColumns      []schema.ColumnID
	DroppedColumns    []schema.ColumnID
	ColumnPairs       []RedefinedColumnPair
	DroppedPrimaryKey bool
}

// RedefinedColumnPair is a matched column inside a redefined table with its
// detected changes.
type RedefinedColumnPair struct {
	Columns    MigrationPair[schema.ColumnID]
	Changes    ColumnChanges
	TypeChange ColumnTypeChangeKind
}

// TableChange is one change inside an AlterTable step. The concrete types
// below are the only implementations.
type TableChange interface {
	isTableChange()
}

// AddColumn adds a column.
type AddColumn struct {
	Column schema.ColumnID
}

// DropColumn drops a column.
type DropColumn struct {
	Column schema.ColumnID
}

// AlterColumn changes column attributes in place.
type AlterColumn struct {
	Columns    MigrationPair[schema.ColumnID]
	Changes    ColumnChanges
	TypeChange ColumnTypeChangeKind
}

// DropAndRecreateColumn replaces a column because the type change has no
// cast path.
type DropAndRecreateColumn struct {
	Columns MigrationPair[schema.ColumnID]
	Changes ColumnChanges
}

// DropPrimaryKey drops the table's primary key.
type DropPrimaryKey struct{}

// AddPrimaryKey creates the table's primary key.
type AddPrimaryKey struct{}

// RenamePrimaryKey renames the primary key constraint.
type RenamePrimaryKey struct{}

func (AddColumn) isTableChange()             {}
func (DropColumn) isTableChange()            {}
func (AlterColumn) isTableChange()           {}
func (DropAndRecreateColumn) isTableChange() {}
func (DropPrimaryKey) isTableChange()        {}
func (AddPrimaryKey) isTableChange()         {}
func (RenamePrimaryKey) isTableChange()      {}

// ColumnTypeChangeKind is the risk classification a step carries for its
// type change, mirroring flavour.ColumnTypeChange.
type ColumnTypeChangeKind int

const (
	TypeChangeNone ColumnTypeChangeKind = iota
	TypeChangeSafe
	TypeChangeRisky
	TypeChangeNotCastable
)

// String implements fmt.Stringer.
func (k ColumnTypeChangeKind) String() string {
	switch k {
	case TypeChangeSafe:
		return "SafeCast"
	case TypeChangeRisky:
		return "RiskyCast"
	case TypeChangeNotCastable:
		return "NotCastable"
	default:
		return "None"
	}
}

func (CreateTable) Description() string      { return "CreateTable" }
func (DropTable) Description() string        { return "DropTable" }
func (AlterTable) Description() string       { return "AlterTable" }
func (AlterPrimaryKey) Description() string  { return "AlterPrimaryKey" }
func (CreateIndex) Description() string      { return "CreateIndex" }
func (DropIndex) Description() string        { return "DropIndex" }
func (RenameIndex) Description() string      { return "RenameIndex" }
func (RedefineIndex) Description() string    { return "RedefineIndex" }
func (AddForeignKey) Description() string    { return "AddForeignKey" }
func (DropForeignKey) Description() string   { return "DropForeignKey" }
func (RenameForeignKey) Description() string { return "RenameForeignKey" }
func (CreateEnum) Description() string       { return "CreateEnum" }
func (DropEnum) Description() string         { return "DropEnum" }
func (AlterEnum) Description() string        { return "AlterEnum" }
func (RedefineTables) Description() string   { return "RedefineTables" }

func (CreateTable) sortClass() int      { return classCreateTable }
func (DropTable) sortClass() int        { return classDropTable }
func (AlterTable) sortClass() int       { return classAlterTable }
func (AlterPrimaryKey) sortClass() int  { return classAlterPrimaryKey }
func (CreateIndex) sortClass() int      { return classCreateIndex }
func (DropIndex) sortClass() int        { return classDropIndex }
func (RenameIndex) sortClass() int      { return classRenameIndex }
func (RedefineIndex) sortClass() int    { return classRedefineIndex }
func (AddForeignKey) sortClass() int    { return classAddForeignKey }
func (DropForeignKey) sortClass() int   { return classDropForeignKey }
func (RenameForeignKey) sortClass() int { return classRenameForeignKey }
func (CreateEnum) sortClass() int       { return classCreateEnum }
func (DropEnum) sortClass() int         { return classDropEnum }
func (AlterEnum) sortClass() int        { return classAlterEnum }
func (RedefineTables) sortClass() int   { return classRedefineTables }

// Migration bundles the two snapshots with the steps computed between them.
// Steps reference entities by id into these snapshots.
type Migration struct {
	Before *schema.Snapshot
	After  *schema.Snapshot
	Steps  []MigrationStep
}

// Schemas returns the before/after snapshots as a pair.
func (m *Migration) Schemas() MigrationPair[*schema.Snapshot] {
	return NewPair(m.Before, m.After)
}
