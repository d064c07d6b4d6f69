package diff

import (
	"sort"

	"github.com/schemadrift/schemadrift/schema"
)

// sortSteps orders the steps for execution. The bulk of the order is the
// fixed class precedence; a stable sort keeps the differ's deterministic
// emission order within each class.
//
// One exception is applied afterwards: when a unique index is being
// replaced by a primary key on the same columns, the index must survive
// until the key exists, otherwise rows lose their uniqueness guarantee in
// between. That DropIndex moves to just after the matching AlterTable.
func sortSteps(steps []MigrationStep, db *DifferDatabase) []MigrationStep {
	sort.SliceStable(steps, func(i, j int) bool {
		return steps[i].sortClass() < steps[j].sortClass()
	})

	for i := 0; i < len(steps); i++ {
		target := uniqueIndexToPrimaryKeyTarget(steps, i, db)
		if target <= i {
			continue
		}
		step := steps[i]
		copy(steps[i:], steps[i+1:target+1])
		steps[target] = step
		i--
	}

	return steps
}

// uniqueIndexToPrimaryKeyTarget returns the position the DropIndex at i
// must move to, or i when the step stays put. The move applies when the
// dropped index is unique, its table had no primary key, and a later
// AlterTable adds a primary key over the same columns.
func uniqueIndexToPrimaryKeyTarget(steps []MigrationStep, i int, db *DifferDatabase) int {
	drop, ok := steps[i].(DropIndex)
	if !ok {
		return i
	}
	index := db.schemas.Previous.Index(drop.Index)
	if !index.IsUnique() {
		return i
	}
	table := index.Table()
	if table.PrimaryKey() != nil {
		return i
	}

	for j := i + 1; j < len(steps); j++ {
		alter, ok := steps[j].(AlterTable)
		if !ok || alter.Tables.Previous != table.ID() {
			continue
		}
		if !alterTableAddsPrimaryKey(alter) {
			continue
		}
		pk := db.schemas.Next.Table(alter.Tables.Next).PrimaryKey()
		if pk != nil && indexColumnsEqualPrimaryKey(index, pk) {
			return j
		}
	}
	return i
}

func alterTableAddsPrimaryKey(step AlterTable) bool {
	for _, change := range step.Changes {
		if _, ok := change.(AddPrimaryKey); ok {
			return true
		}
	}
	return false
}

func indexColumnsEqualPrimaryKey(index schema.IndexWalker, pk *schema.PrimaryKey) bool {
	columns := index.Get().Columns
	if len(columns) != len(pk.Columns) {
		return false
	}
	for i, col := range columns {
		if col.Name != pk.Columns[i].Name {
			return false
		}
	}
	return true
}
