package destructive

import (
	"fmt"
	"strings"

	"github.com/schemadrift/schemadrift/diff"
	"github.com/schemadrift/schemadrift/diff/flavour"
	"github.com/schemadrift/schemadrift/schema"
)

// PostgresChecker implements the destructive change check for PostgreSQL.
type PostgresChecker struct{}

// Name implements CheckerFlavour.
func (PostgresChecker) Name() string { return "postgresql" }

func postgresQuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func postgresQualify(namespace, table string) string {
	if namespace == "" {
		namespace = "public"
	}
	return postgresQuoteIdent(namespace) + "." + postgresQuoteIdent(table)
}

// RowCountQuery implements CheckerFlavour.
func (PostgresChecker) RowCountQuery(namespace, table string) string {
	return fmt.Sprintf("SELECT COUNT(*) FROM %s", postgresQualify(namespace, table))
}

// ValueCountQuery implements CheckerFlavour.
func (PostgresChecker) ValueCountQuery(namespace, table, column string) string {
	return fmt.Sprintf("SELECT COUNT(%s) FROM %s", postgresQuoteIdent(column), postgresQualify(namespace, table))
}

// CheckAlterColumn implements CheckerFlavour.
func (PostgresChecker) CheckAlterColumn(plan *DestructiveCheckPlan, columns diff.MigrationPair[schema.ColumnWalker], changes diff.ColumnChanges, stepIndex int) {
	checkArityChange(plan, columns, stepIndex)
	if !changes.TypeChanged() {
		return
	}
	if changes.TypeChange() == flavour.RiskyCast {
		plan.PushWarning(riskyCast{
			column:       columnRefOf(columns.Previous),
			previousType: displayType(columns.Previous),
			nextType:     displayType(columns.Next),
		}, stepIndex)
	}
}

// CheckDropAndRecreateColumn implements CheckerFlavour.
func (PostgresChecker) CheckDropAndRecreateColumn(plan *DestructiveCheckPlan, columns diff.MigrationPair[schema.ColumnWalker], changes diff.ColumnChanges, stepIndex int) {
	checkDropAndRecreate(plan, columns, changes, stepIndex)
}

// IsTransient implements CheckerFlavour. PostgreSQL DDL is synchronous,
// nothing is worth retrying.
func (PostgresChecker) IsTransient(error) bool { return false }
