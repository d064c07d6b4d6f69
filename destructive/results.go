// Package destructive checks a computed migration for steps that would
// lose data or fail outright on the data already in the database. The
// check runs in three phases: plan the checks from the steps, execute the
// row count queries the plan needs against a live connection, then render
// the diagnostics. A pure check skips the middle phase and assumes the
// worst wherever a count is missing.
package destructive

import "fmt"

// tableRef identifies a table for row counting.
type tableRef struct {
	namespace string
	table     string
}

// columnRef identifies a column for non-null value counting.
type columnRef struct {
	namespace string
	table     string
	column    string
}

func (r tableRef) String() string {
	if r.namespace == "" {
		return r.table
	}
	return r.namespace + "." + r.table
}

// InspectionResults holds the counts gathered from the database. A missing
// entry means the count is unknown; the checks treat unknown
// pessimistically.
type InspectionResults struct {
	rowCounts   map[tableRef]int64
	valueCounts map[columnRef]int64
}

// NewInspectionResults returns empty results, under which every check
// assumes the worst.
func NewInspectionResults() *InspectionResults {
	return &InspectionResults{
		rowCounts:   make(map[tableRef]int64),
		valueCounts: make(map[columnRef]int64),
	}
}

// SetRowCount records the number of rows in a table.
func (r *InspectionResults) SetRowCount(namespace, table string, count int64) {
	r.rowCounts[tableRef{namespace, table}] = count
}

// SetValueCount records the number of non-null values in a column.
func (r *InspectionResults) SetValueCount(namespace, table, column string, count int64) {
	r.valueCounts[columnRef{namespace, table, column}] = count
}

// RowCount returns the recorded row count for a table, if known.
func (r *InspectionResults) RowCount(namespace, table string) (int64, bool) {
	count, ok := r.rowCounts[tableRef{namespace, table}]
	return count, ok
}

// ValueCount returns the recorded non-null value count for a column, if
// known.
func (r *InspectionResults) ValueCount(namespace, table, column string) (int64, bool) {
	count, ok := r.valueCounts[columnRef{namespace, table, column}]
	return count, ok
}

// Diagnostic is one rendered finding, tied to the migration step that
// caused it.
type Diagnostic struct {
	Message   string
	StepIndex int
}

// CheckResults is the outcome of a destructive change check.
type CheckResults struct {
	// Warnings are destructive but executable steps. The migration can
	// proceed once the user accepts the data loss.
	Warnings []Diagnostic
	// Unexecutables are steps the database would reject on the current
	// data. The migration cannot proceed as written.
	Unexecutables []Diagnostic
}

// HasWarnings reports whether any warning was found.
func (r *CheckResults) HasWarnings() bool { return len(r.Warnings) > 0 }

// HasUnexecutables reports whether any step cannot be executed.
func (r *CheckResults) HasUnexecutables() bool { return len(r.Unexecutables) > 0 }

// IsSafe reports whether the migration carries no findings at all.
func (r *CheckResults) IsSafe() bool { return !r.HasWarnings() && !r.HasUnexecutables() }

// String renders the findings for display, unexecutable steps first.
func (r *CheckResults) String() string {
	if r.IsSafe() {
		return "No destructive changes detected.\n"
	}
	out := ""
	if r.HasUnexecutables() {
		out += "Unexecutable steps:\n"
		for _, d := range r.Unexecutables {
			out += fmt.Sprintf("  - %s (step %d)\n", d.Message, d.StepIndex)
		}
	}
	if r.HasWarnings() {
		out += "Warnings:\n"
		for _, d := range r.Warnings {
			out += fmt.Sprintf("  - %s (step %d)\n", d.Message, d.StepIndex)
		}
	}
	return out
}
