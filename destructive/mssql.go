package destructive

import (
	"fmt"
	"strings"

	"github.com/schemadrift/schemadrift/diff"
	"github.com/schemadrift/schemadrift/diff/flavour"
	"github.com/schemadrift/schemadrift/schema"
)

// MSSQLChecker implements the destructive change check for SQL Server.
type MSSQLChecker struct{}

// Name implements CheckerFlavour.
func (MSSQLChecker) Name() string { return "sqlserver" }

func mssqlQuoteIdent(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}

func mssqlQualify(namespace, table string) string {
	if namespace == "" {
		namespace = "dbo"
	}
	return mssqlQuoteIdent(namespace) + "." + mssqlQuoteIdent(table)
}

// RowCountQuery implements CheckerFlavour.
func (MSSQLChecker) RowCountQuery(namespace, table string) string {
	return fmt.Sprintf("SELECT COUNT(*) FROM %s", mssqlQualify(namespace, table))
}

// ValueCountQuery implements CheckerFlavour.
func (MSSQLChecker) ValueCountQuery(namespace, table, column string) string {
	return fmt.Sprintf("SELECT COUNT(%s) FROM %s", mssqlQuoteIdent(column), mssqlQualify(namespace, table))
}

// CheckAlterColumn implements CheckerFlavour.
func (MSSQLChecker) CheckAlterColumn(plan *DestructiveCheckPlan, columns diff.MigrationPair[schema.ColumnWalker], changes diff.ColumnChanges, stepIndex int) {
	checkArityChange(plan, columns, stepIndex)
	if changes.TypeChanged() && changes.TypeChange() == flavour.RiskyCast {
		plan.PushWarning(riskyCast{
			column:       columnRefOf(columns.Previous),
			previousType: displayType(columns.Previous),
			nextType:     displayType(columns.Next),
		}, stepIndex)
	}
}

// CheckDropAndRecreateColumn implements CheckerFlavour.
func (MSSQLChecker) CheckDropAndRecreateColumn(plan *DestructiveCheckPlan, columns diff.MigrationPair[schema.ColumnWalker], changes diff.ColumnChanges, stepIndex int) {
	checkDropAndRecreate(plan, columns, changes, stepIndex)
}

// IsTransient implements CheckerFlavour.
func (MSSQLChecker) IsTransient(error) bool { return false }
