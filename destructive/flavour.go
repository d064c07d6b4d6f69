package destructive

import (
	"github.com/schemadrift/schemadrift/diff"
	"github.com/schemadrift/schemadrift/schema"
)

// CheckerFlavour provides the connector-specific pieces of the check:
// the SQL for the count queries, the per-connector handling of altered
// columns, and the transient error class worth retrying.
type CheckerFlavour interface {
	// Name is the connector identifier, matching the diff flavour.
	Name() string

	// RowCountQuery returns the SQL counting the rows of a table.
	RowCountQuery(namespace, table string) string

	// ValueCountQuery returns the SQL counting the non-null values of a
	// column.
	ValueCountQuery(namespace, table, column string) string

	// CheckAlterColumn plans the checks for an in-place column change.
	CheckAlterColumn(plan *DestructiveCheckPlan, columns diff.MigrationPair[schema.ColumnWalker], changes diff.ColumnChanges, stepIndex int)

	// CheckDropAndRecreateColumn plans the checks for a column replaced
	// because its type change has no cast path.
	CheckDropAndRecreateColumn(plan *DestructiveCheckPlan, columns diff.MigrationPair[schema.ColumnWalker], changes diff.ColumnChanges, stepIndex int)

	// IsTransient reports whether a count query error is worth retrying.
	IsTransient(err error) bool
}

// displayType renders a column's type for check messages, preferring the
// connector-native name when the snapshot has one.
func displayType(column schema.ColumnWalker) string {
	if native := column.Type().Native; native != "" {
		return native
	}
	return column.Type().Family.String()
}

// columnRefOf builds the column reference of a previous-snapshot column.
func columnRefOf(column schema.ColumnWalker) columnRef {
	table := column.Table()
	return columnRef{
		namespace: table.Namespace(),
		table:     table.Name(),
		column:    column.Name(),
	}
}

// checkArityChange plans the shared made-required check: a column turning
// from nullable to required fails on existing NULLs.
func checkArityChange(plan *DestructiveCheckPlan, columns diff.MigrationPair[schema.ColumnWalker], stepIndex int) {
	if columns.Previous.Arity().IsNullable() && columns.Next.Arity().IsRequired() {
		plan.PushUnexecutable(madeColumnRequired{column: columnRefOf(columns.Previous)}, stepIndex)
	}
}

// checkDropAndRecreate plans the shared drop-and-recreate checks. A
// recreated column that is required without a default cannot be populated
// for the existing rows, which makes the step unexecutable rather than a
// warning.
func checkDropAndRecreate(plan *DestructiveCheckPlan, columns diff.MigrationPair[schema.ColumnWalker], changes diff.ColumnChanges, stepIndex int) {
	if columnNeedsValueForExistingRows(columns.Next) {
		plan.PushUnexecutable(dropAndRecreateRequiredColumn{column: columnRefOf(columns.Previous)}, stepIndex)
		return
	}
	if changes.TypeChanged() {
		plan.PushWarning(notCastable{
			column:       columnRefOf(columns.Previous),
			previousType: displayType(columns.Previous),
			nextType:     displayType(columns.Next),
		}, stepIndex)
		return
	}
	plan.PushWarning(nonEmptyColumnDrop{column: columnRefOf(columns.Previous)}, stepIndex)
}
