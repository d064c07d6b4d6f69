package destructive

import (
	"context"

	"github.com/schemadrift/schemadrift/diff"
	"github.com/schemadrift/schemadrift/internal/debug"
	"github.com/schemadrift/schemadrift/schema"
)

// Checker runs the destructive change check for one connector.
type Checker struct {
	Flavour CheckerFlavour
	Conn    Queryable
	Retry   RetryPolicy
}

// NewChecker returns a checker with the default retry policy. Conn may be
// nil when only PureCheck is used.
func NewChecker(flavour CheckerFlavour, conn Queryable) *Checker {
	return &Checker{
		Flavour: flavour,
		Conn:    conn,
		Retry:   DefaultRetryPolicy(),
	}
}

// Check plans the checks for the migration, gathers the counts they need
// from the live database and returns the findings.
func (c *Checker) Check(ctx context.Context, m *diff.Migration) (*CheckResults, error) {
	plan := BuildPlan(m, c.Flavour)
	if plan.IsEmpty() {
		return &CheckResults{}, nil
	}
	return plan.Execute(ctx, c.Conn, c.Flavour, c.Retry)
}

// PureCheck evaluates the migration without touching a database. Every
// data-dependent finding is reported, since no count can rule it out.
func (c *Checker) PureCheck(m *diff.Migration) *CheckResults {
	return BuildPlan(m, c.Flavour).PureCheck()
}

// BuildPlan derives the checks a migration's steps require.
func BuildPlan(m *diff.Migration, flavour CheckerFlavour) *DestructiveCheckPlan {
	plan := NewPlan()

	for stepIndex, step := range m.Steps {
		switch s := step.(type) {
		case diff.DropTable:
			table := m.Before.Table(s.Table)
			plan.PushWarning(nonEmptyTableDrop{
				table: tableRef{namespace: table.Namespace(), table: table.Name()},
			}, stepIndex)

		case diff.AlterTable:
			checkAlterTable(plan, m, flavour, s, stepIndex)

		case diff.AlterPrimaryKey:
			table := m.Before.Table(s.Tables.Previous)
			plan.PushWarning(primaryKeyChange{
				table: tableRef{namespace: table.Namespace(), table: table.Name()},
			}, stepIndex)

		case diff.RedefineTables:
			for _, entry := range s.Tables {
				checkRedefineTable(plan, m, flavour, entry, stepIndex)
			}

		case diff.CreateIndex:
			checkCreatedIndex(plan, m, s, stepIndex)

		case diff.AlterEnum:
			if len(s.DroppedValues) > 0 {
				plan.PushWarning(enumValueRemoval{
					enum:          m.Before.Enum(s.Enums.Previous).Name(),
					droppedValues: s.DroppedValues,
				}, stepIndex)
			}
		}
	}

	debug.Debug("destructive check planned",
		"warnings", len(plan.warnings),
		"unexecutables", len(plan.unexecutables))

	return plan
}

func checkAlterTable(plan *DestructiveCheckPlan, m *diff.Migration, flavour CheckerFlavour, step diff.AlterTable, stepIndex int) {
	previousTable := m.Before.Table(step.Tables.Previous)
	ref := tableRef{namespace: previousTable.Namespace(), table: previousTable.Name()}

	for _, change := range step.Changes {
		switch c := change.(type) {
		case diff.DropColumn:
			plan.PushWarning(nonEmptyColumnDrop{
				column: columnRefOf(m.Before.Column(c.Column)),
			}, stepIndex)

		case diff.AddColumn:
			column := m.After.Column(c.Column)
			if columnNeedsValueForExistingRows(column) {
				plan.PushUnexecutable(addedRequiredColumn{
					table:  ref,
					column: column.Name(),
				}, stepIndex)
			}

		case diff.AlterColumn:
			flavour.CheckAlterColumn(plan, columnPair(m, c.Columns), c.Changes, stepIndex)

		case diff.DropAndRecreateColumn:
			flavour.CheckDropAndRecreateColumn(plan, columnPair(m, c.Columns), c.Changes, stepIndex)

		case diff.DropPrimaryKey:
			plan.PushWarning(primaryKeyChange{table: ref}, stepIndex)
		}
	}
}

func checkRedefineTable(plan *DestructiveCheckPlan, m *diff.Migration, flavour CheckerFlavour, entry diff.RedefineTable, stepIndex int) {
	previousTable := m.Before.Table(entry.Tables.Previous)
	ref := tableRef{namespace: previousTable.Namespace(), table: previousTable.Name()}

	for _, id := range entry.DroppedColumns {
		plan.PushWarning(nonEmptyColumnDrop{
			column: columnRefOf(m.Before.Column(id)),
		}, stepIndex)
	}
	for _, id := range entry.AddedColumns {
		column := m.After.Column(id)
		if columnNeedsValueForExistingRows(column) {
			plan.PushUnexecutable(addedRequiredColumn{
				table:  ref,
				column: column.Name(),
			}, stepIndex)
		}
	}
	for _, pair := range entry.ColumnPairs {
		if !pair.Changes.DiffersInSomething() {
			continue
		}
		columns := columnPair(m, pair.Columns)
		if pair.TypeChange == diff.TypeChangeNotCastable {
			flavour.CheckDropAndRecreateColumn(plan, columns, pair.Changes, stepIndex)
		} else {
			flavour.CheckAlterColumn(plan, columns, pair.Changes, stepIndex)
		}
	}
	if entry.DroppedPrimaryKey {
		plan.PushWarning(primaryKeyChange{table: ref}, stepIndex)
	}
}

// checkCreatedIndex warns about unique indexes landing on tables that
// already exist: duplicate values make the index creation fail. Indexes on
// freshly created tables and indexes coming back after a column recreate
// are exempt.
func checkCreatedIndex(plan *DestructiveCheckPlan, m *diff.Migration, step diff.CreateIndex, stepIndex int) {
	if step.FromDropAndRecreate {
		return
	}
	index := m.After.Index(step.Index)
	if !index.IsUnique() {
		return
	}
	table := index.Table()
	if _, existed := m.Before.FindTable(table.Namespace(), table.Name()); !existed {
		return
	}
	var columns []string
	for _, col := range index.Get().Columns {
		columns = append(columns, col.Name)
	}
	plan.PushWarning(uniqueConstraintAddition{
		table:   tableRef{namespace: table.Namespace(), table: table.Name()},
		columns: columns,
	}, stepIndex)
}

// columnNeedsValueForExistingRows reports whether adding this column to a
// table with rows cannot succeed: it is required and the database has no
// value to fill in.
func columnNeedsValueForExistingRows(column schema.ColumnWalker) bool {
	return column.Arity().IsRequired() && !column.Get().HasDefault() && !column.AutoIncrement()
}

func columnPair(m *diff.Migration, ids diff.MigrationPair[schema.ColumnID]) diff.MigrationPair[schema.ColumnWalker] {
	return diff.NewPair(m.Before.Column(ids.Previous), m.After.Column(ids.Next))
}
