package destructive

import (
	"fmt"
	"strings"

	"github.com/schemadrift/schemadrift/diff"
	"github.com/schemadrift/schemadrift/diff/flavour"
	"github.com/schemadrift/schemadrift/schema"
)

// SQLiteChecker implements the destructive change check for SQLite. Most
// table changes arrive as redefinitions, which the planner breaks down
// into the same per-column checks.
type SQLiteChecker struct{}

// Name implements CheckerFlavour.
func (SQLiteChecker) Name() string { return "sqlite" }

func sqliteQuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// RowCountQuery implements CheckerFlavour. SQLite has no namespaces.
func (SQLiteChecker) RowCountQuery(_, table string) string {
	return fmt.Sprintf("SELECT COUNT(*) FROM %s", sqliteQuoteIdent(table))
}

// ValueCountQuery implements CheckerFlavour.
func (SQLiteChecker) ValueCountQuery(_, table, column string) string {
	return fmt.Sprintf("SELECT COUNT(%s) FROM %s", sqliteQuoteIdent(column), sqliteQuoteIdent(table))
}

// CheckAlterColumn implements CheckerFlavour. SQLite's flexible affinities
// make in-place changes riskier than they look, so any type change on a
// column with values warns.
func (SQLiteChecker) CheckAlterColumn(plan *DestructiveCheckPlan, columns diff.MigrationPair[schema.ColumnWalker], changes diff.ColumnChanges, stepIndex int) {
	checkArityChange(plan, columns, stepIndex)
	if changes.TypeChanged() && changes.TypeChange() != flavour.SafeCast {
		plan.PushWarning(riskyCast{
			column:       columnRefOf(columns.Previous),
			previousType: displayType(columns.Previous),
			nextType:     displayType(columns.Next),
		}, stepIndex)
	}
}

// CheckDropAndRecreateColumn implements CheckerFlavour.
func (SQLiteChecker) CheckDropAndRecreateColumn(plan *DestructiveCheckPlan, columns diff.MigrationPair[schema.ColumnWalker], changes diff.ColumnChanges, stepIndex int) {
	checkDropAndRecreate(plan, columns, changes, stepIndex)
}

// IsTransient implements CheckerFlavour.
func (SQLiteChecker) IsTransient(error) bool { return false }
