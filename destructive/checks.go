package destructive

import (
	"fmt"
	"strings"
)

// check is one planned inspection. neededRowCount and neededValueCount
// declare the counts the check wants; evaluate returns the rendered
// message and whether the finding applies under the given (possibly
// incomplete) results. Whether a check is a warning or an unexecutable is
// decided by which plan list it is pushed onto.
type check interface {
	neededRowCount() (tableRef, bool)
	neededValueCount() (columnRef, bool)
	evaluate(results *InspectionResults) (string, bool)
}

// staticCheck is embedded by checks that need no live counts.
type staticCheck struct{}

func (staticCheck) neededRowCount() (tableRef, bool)    { return tableRef{}, false }
func (staticCheck) neededValueCount() (columnRef, bool) { return columnRef{}, false }

// nonEmptyTableDrop warns when a table with rows is dropped.
type nonEmptyTableDrop struct {
	table tableRef
}

func (c nonEmptyTableDrop) neededRowCount() (tableRef, bool)    { return c.table, true }
func (c nonEmptyTableDrop) neededValueCount() (columnRef, bool) { return columnRef{}, false }

func (c nonEmptyTableDrop) evaluate(results *InspectionResults) (string, bool) {
	count, known := results.RowCount(c.table.namespace, c.table.table)
	if known && count == 0 {
		return "", false
	}
	if known {
		return fmt.Sprintf("You are about to drop the `%s` table, which is not empty (%d rows).", c.table, count), true
	}
	return fmt.Sprintf("You are about to drop the `%s` table. If the table is not empty, all data it contains will be lost.", c.table), true
}

// nonEmptyColumnDrop warns when a column holding values is dropped.
type nonEmptyColumnDrop struct {
	column columnRef
}

func (c nonEmptyColumnDrop) neededRowCount() (tableRef, bool) { return tableRef{}, false }
func (c nonEmptyColumnDrop) neededValueCount() (columnRef, bool) {
	return c.column, true
}

func (c nonEmptyColumnDrop) evaluate(results *InspectionResults) (string, bool) {
	count, known := results.ValueCount(c.column.namespace, c.column.table, c.column.column)
	if known && count == 0 {
		return "", false
	}
	if known {
		return fmt.Sprintf("You are about to drop the column `%s` on the `%s` table, which still contains %d non-null values.",
			c.column.column, tableRef{c.column.namespace, c.column.table}, count), true
	}
	return fmt.Sprintf("You are about to drop the column `%s` on the `%s` table. All the data it contains will be lost.",
		c.column.column, tableRef{c.column.namespace, c.column.table}), true
}

// riskyCast warns when an in-place type change may fail or truncate on the
// values already present.
type riskyCast struct {
	column       columnRef
	previousType string
	nextType     string
}

func (c riskyCast) neededRowCount() (tableRef, bool) { return tableRef{}, false }
func (c riskyCast) neededValueCount() (columnRef, bool) {
	return c.column, true
}

func (c riskyCast) evaluate(results *InspectionResults) (string, bool) {
	count, known := results.ValueCount(c.column.namespace, c.column.table, c.column.column)
	if known && count == 0 {
		return "", false
	}
	return fmt.Sprintf("You are about to alter the column `%s` on the `%s` table from %s to %s. The cast may fail or lose precision for some of the existing values.",
		c.column.column, tableRef{c.column.namespace, c.column.table}, c.previousType, c.nextType), true
}

// notCastable warns when a column must be dropped and recreated because no
// cast path exists, losing its values.
type notCastable struct {
	column       columnRef
	previousType string
	nextType     string
}

func (c notCastable) neededRowCount() (tableRef, bool) { return tableRef{}, false }
func (c notCastable) neededValueCount() (columnRef, bool) {
	return c.column, true
}

func (c notCastable) evaluate(results *InspectionResults) (string, bool) {
	count, known := results.ValueCount(c.column.namespace, c.column.table, c.column.column)
	if known && count == 0 {
		return "", false
	}
	return fmt.Sprintf("The column `%s` on the `%s` table changes from %s to %s, which cannot be cast. The column will be dropped and recreated, and its values will be lost.",
		c.column.column, tableRef{c.column.namespace, c.column.table}, c.previousType, c.nextType), true
}

// primaryKeyChange warns that the primary key of a table is recreated.
type primaryKeyChange struct {
	staticCheck
	table tableRef
}

func (c primaryKeyChange) evaluate(*InspectionResults) (string, bool) {
	return fmt.Sprintf("The primary key for the `%s` table will be changed. If the table has existing relations or duplicate values on the new key columns, this can fail.", c.table), true
}

// uniqueConstraintAddition warns that a unique index lands on an existing
// table, where duplicates would make it fail.
type uniqueConstraintAddition struct {
	staticCheck
	table   tableRef
	columns []string
}

func (c uniqueConstraintAddition) evaluate(*InspectionResults) (string, bool) {
	return fmt.Sprintf("A unique constraint covering the columns `[%s]` on the table `%s` will be added. If there are existing duplicate values, this will fail.",
		strings.Join(c.columns, ","), c.table), true
}

// enumValueRemoval warns that values disappear from an enum.
type enumValueRemoval struct {
	staticCheck
	enum          string
	droppedValues []string
}

func (c enumValueRemoval) evaluate(*InspectionResults) (string, bool) {
	return fmt.Sprintf("The values [%s] on the enum `%s` will be removed. If these variants are still used in the database, this will fail.",
		strings.Join(c.droppedValues, ","), c.enum), true
}

// addedRequiredColumn flags a required column without a default added to a
// table that has rows: existing rows have no value to take.
type addedRequiredColumn struct {
	table  tableRef
	column string
}

func (c addedRequiredColumn) neededRowCount() (tableRef, bool)    { return c.table, true }
func (c addedRequiredColumn) neededValueCount() (columnRef, bool) { return columnRef{}, false }

func (c addedRequiredColumn) evaluate(results *InspectionResults) (string, bool) {
	count, known := results.RowCount(c.table.namespace, c.table.table)
	if known && count == 0 {
		return "", false
	}
	if known {
		return fmt.Sprintf("Added the required column `%s` to the `%s` table without a default value. There are %d rows in this table, it is not possible to execute this step.",
			c.column, c.table, count), true
	}
	return fmt.Sprintf("Added the required column `%s` to the `%s` table without a default value. This is not possible if the table is not empty.",
		c.column, c.table), true
}

// dropAndRecreateRequiredColumn flags a column replacement where the
// recreated column is required without a default: nothing can populate it
// for the rows already in the table.
type dropAndRecreateRequiredColumn struct {
	column columnRef
}

func (c dropAndRecreateRequiredColumn) neededRowCount() (tableRef, bool) {
	return tableRef{c.column.namespace, c.column.table}, true
}

func (c dropAndRecreateRequiredColumn) neededValueCount() (columnRef, bool) {
	return columnRef{}, false
}

func (c dropAndRecreateRequiredColumn) evaluate(results *InspectionResults) (string, bool) {
	count, known := results.RowCount(c.column.namespace, c.column.table)
	if known && count == 0 {
		return "", false
	}
	if known {
		return fmt.Sprintf("The required column `%s` on the `%s` table must be dropped and recreated without a default value. There are %d rows in this table, there is no way to populate the recreated column.",
			c.column.column, tableRef{c.column.namespace, c.column.table}, count), true
	}
	return fmt.Sprintf("The required column `%s` on the `%s` table must be dropped and recreated without a default value. This is not possible if the table is not empty.",
		c.column.column, tableRef{c.column.namespace, c.column.table}), true
}

// madeColumnRequired flags a column turning required while some rows hold
// NULL in it. Detected by comparing the row count with the non-null value
// count.
type madeColumnRequired struct {
	column columnRef
}

func (c madeColumnRequired) neededRowCount() (tableRef, bool) {
	return tableRef{c.column.namespace, c.column.table}, true
}

func (c madeColumnRequired) neededValueCount() (columnRef, bool) {
	return c.column, true
}

func (c madeColumnRequired) evaluate(results *InspectionResults) (string, bool) {
	rows, rowsKnown := results.RowCount(c.column.namespace, c.column.table)
	values, valuesKnown := results.ValueCount(c.column.namespace, c.column.table, c.column.column)
	if rowsKnown && valuesKnown {
		if nulls := rows - values; nulls > 0 {
			return fmt.Sprintf("Made the column `%s` on table `%s` required, but there are %d existing NULL values.",
				c.column.column, tableRef{c.column.namespace, c.column.table}, nulls), true
		}
		return "", false
	}
	return fmt.Sprintf("Made the column `%s` on table `%s` required. This step will fail if there are existing NULL values in that column.",
		c.column.column, tableRef{c.column.namespace, c.column.table}), true
}
