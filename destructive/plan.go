package destructive

import (
	"context"
	"fmt"
)

type plannedCheck struct {
	check     check
	stepIndex int
}

// DestructiveCheckPlan is the list of checks a migration's steps require.
// Building the plan touches no database; Execute gathers the counts the
// checks ask for and evaluates them.
type DestructiveCheckPlan struct {
	warnings      []plannedCheck
	unexecutables []plannedCheck
}

// NewPlan returns an empty plan.
func NewPlan() *DestructiveCheckPlan {
	return &DestructiveCheckPlan{}
}

// PushWarning adds a warning check for the given step.
func (p *DestructiveCheckPlan) PushWarning(c check, stepIndex int) {
	p.warnings = append(p.warnings, plannedCheck{check: c, stepIndex: stepIndex})
}

// PushUnexecutable adds an unexecutable-step check for the given step.
func (p *DestructiveCheckPlan) PushUnexecutable(c check, stepIndex int) {
	p.unexecutables = append(p.unexecutables, plannedCheck{check: c, stepIndex: stepIndex})
}

// IsEmpty reports whether the plan contains no checks at all.
func (p *DestructiveCheckPlan) IsEmpty() bool {
	return len(p.warnings) == 0 && len(p.unexecutables) == 0
}

// Execute gathers every count the plan's checks need, one query per
// distinct table or column, then evaluates the checks against the results.
// Transient query errors are retried under the policy; permanent errors
// abort the check.
func (p *DestructiveCheckPlan) Execute(ctx context.Context, conn Queryable, flavour CheckerFlavour, retry RetryPolicy) (*CheckResults, error) {
	results := NewInspectionResults()

	rowCounts := make(map[tableRef]bool)
	valueCounts := make(map[columnRef]bool)
	p.eachCheck(func(c check) {
		if ref, ok := c.neededRowCount(); ok {
			rowCounts[ref] = true
		}
		if ref, ok := c.neededValueCount(); ok {
			valueCounts[ref] = true
		}
	})

	for ref := range rowCounts {
		query := flavour.RowCountQuery(ref.namespace, ref.table)
		count, err := queryCountWithRetry(ctx, conn, flavour, retry, query)
		if err != nil {
			return nil, fmt.Errorf("counting rows in %s: %w", ref, err)
		}
		results.SetRowCount(ref.namespace, ref.table, count)
	}
	for ref := range valueCounts {
		query := flavour.ValueCountQuery(ref.namespace, ref.table, ref.column)
		count, err := queryCountWithRetry(ctx, conn, flavour, retry, query)
		if err != nil {
			return nil, fmt.Errorf("counting values in %s.%s: %w", tableRef{ref.namespace, ref.table}, ref.column, err)
		}
		results.SetValueCount(ref.namespace, ref.table, ref.column, count)
	}

	return p.evaluate(results), nil
}

// PureCheck evaluates the plan without a database. Every count is unknown,
// so every data-dependent check reports.
func (p *DestructiveCheckPlan) PureCheck() *CheckResults {
	return p.evaluate(NewInspectionResults())
}

func (p *DestructiveCheckPlan) evaluate(results *InspectionResults) *CheckResults {
	out := &CheckResults{}
	for _, planned := range p.unexecutables {
		if message, applies := planned.check.evaluate(results); applies {
			out.Unexecutables = append(out.Unexecutables, Diagnostic{Message: message, StepIndex: planned.stepIndex})
		}
	}
	for _, planned := range p.warnings {
		if message, applies := planned.check.evaluate(results); applies {
			out.Warnings = append(out.Warnings, Diagnostic{Message: message, StepIndex: planned.stepIndex})
		}
	}
	return out
}

func (p *DestructiveCheckPlan) eachCheck(visit func(c check)) {
	for _, planned := range p.warnings {
		visit(planned.check)
	}
	for _, planned := range p.unexecutables {
		visit(planned.check)
	}
}

func queryCountWithRetry(ctx context.Context, conn Queryable, flavour CheckerFlavour, retry RetryPolicy, query string) (int64, error) {
	var count int64
	err := retry.do(ctx, flavour.IsTransient, func() error {
		var err error
		count, err = conn.QueryCount(ctx, query)
		return err
	})
	return count, err
}
