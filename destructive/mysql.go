package destructive

import (
	"fmt"
	"strings"

	"github.com/schemadrift/schemadrift/diff"
	"github.com/schemadrift/schemadrift/diff/flavour"
	"github.com/schemadrift/schemadrift/schema"
)

// MySQLChecker implements the destructive change check for MySQL and
// MariaDB.
type MySQLChecker struct{}

// Name implements CheckerFlavour.
func (MySQLChecker) Name() string { return "mysql" }

func mysqlQuoteIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func mysqlQualify(namespace, table string) string {
	if namespace == "" {
		return mysqlQuoteIdent(table)
	}
	return mysqlQuoteIdent(namespace) + "." + mysqlQuoteIdent(table)
}

// RowCountQuery implements CheckerFlavour.
func (MySQLChecker) RowCountQuery(namespace, table string) string {
	return fmt.Sprintf("SELECT COUNT(*) FROM %s", mysqlQualify(namespace, table))
}

// ValueCountQuery implements CheckerFlavour.
func (MySQLChecker) ValueCountQuery(namespace, table, column string) string {
	return fmt.Sprintf("SELECT COUNT(%s) FROM %s", mysqlQuoteIdent(column), mysqlQualify(namespace, table))
}

// CheckAlterColumn implements CheckerFlavour. MySQL casts nearly anything,
// so risky casts are the common case.
func (MySQLChecker) CheckAlterColumn(plan *DestructiveCheckPlan, columns diff.MigrationPair[schema.ColumnWalker], changes diff.ColumnChanges, stepIndex int) {
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
func (MySQLChecker) CheckDropAndRecreateColumn(plan *DestructiveCheckPlan, columns diff.MigrationPair[schema.ColumnWalker], changes diff.ColumnChanges, stepIndex int) {
	checkDropAndRecreate(plan, columns, changes, stepIndex)
}

// IsTransient implements CheckerFlavour.
func (MySQLChecker) IsTransient(error) bool { return false }
