// Package diff provides column comparison logic.
package diff

import (
	"encoding/json"
	"strings"

	"github.com/schemadrift/schemadrift/diff/flavour"
	"github.com/schemadrift/schemadrift/schema"
)

type columnChange uint8

const (
	columnTypeChanged columnChange = 1 << iota
	columnArityChanged
	columnDefaultChanged
	columnAutoIncrementChanged
)

// ColumnChanges records which attributes differ between two matched columns.
// A pair is only treated as changed when at least one bit is set.
type ColumnChanges struct {
	changes columnChange
	cast    flavour.ColumnTypeChange
}

// DiffersInSomething reports whether any attribute changed.
func (c ColumnChanges) DiffersInSomething() bool { return c.changes != 0 }

// TypeChanged reports whether the column type changed.
func (c ColumnChanges) TypeChanged() bool { return c.changes&columnTypeChanged != 0 }

// ArityChanged reports whether nullability/list-ness changed.
func (c ColumnChanges) ArityChanged() bool { return c.changes&columnArityChanged != 0 }

// DefaultChanged reports whether the default value changed.
func (c ColumnChanges) DefaultChanged() bool { return c.changes&columnDefaultChanged != 0 }

// AutoIncrementChanged reports whether the auto-increment flag changed.
func (c ColumnChanges) AutoIncrementChanged() bool {
	return c.changes&columnAutoIncrementChanged != 0
}

// OnlyDefaultChanged reports whether the default is the only difference.
// Default-only changes never carry data risk.
func (c ColumnChanges) OnlyDefaultChanged() bool { return c.changes == columnDefaultChanged }

// TypeChange returns the connector's cast classification for the type
// change, NoTypeChange when the type did not change.
func (c ColumnChanges) TypeChange() flavour.ColumnTypeChange { return c.cast }

// allColumnChanges diffs a matched column pair.
func allColumnChanges(previous, next schema.ColumnWalker, f flavour.Flavour) ColumnChanges {
	var result ColumnChanges

	if cast := f.ColumnTypeChange(previous, next); cast != flavour.NoTypeChange {
		result.changes |= columnTypeChanged
		result.cast = cast
	}

	if previous.Arity() != next.Arity() {
		result.changes |= columnArityChanged
	}

	if !defaultsMatch(previous, next) {
		result.changes |= columnDefaultChanged
	}

	if previous.AutoIncrement() != next.AutoIncrement() {
		result.changes |= columnAutoIncrementChanged
	}

	return result
}

// defaultsMatch compares the default values of two columns. Comparison is
// intentionally lenient for expression defaults, where introspection and
// user input spell the same thing differently.
func defaultsMatch(previous, next schema.ColumnWalker) bool {
	prevDefault, nextDefault := previous.Default(), next.Default()

	if prevDefault == nil && nextDefault == nil {
		return true
	}
	if prevDefault == nil || nextDefault == nil {
		return false
	}
	if prevDefault.Kind != nextDefault.Kind {
		return false
	}

	prevVal, nextVal := prevDefault.Value, nextDefault.Value
	if prevVal == nextVal {
		return true
	}

	family := previous.Type().Family
	switch family {
	case schema.FamilyJSON:
		return jsonValuesMatch(prevVal, nextVal)
	case schema.FamilyDateTime:
		return isDateTimeFunction(prevVal) && isDateTimeFunction(nextVal)
	case schema.FamilyEnum, schema.FamilyString:
		return strings.Trim(prevVal, `"'`) == strings.Trim(nextVal, `"'`)
	case schema.FamilyInt, schema.FamilyBigInt, schema.FamilyFloat, schema.FamilyDecimal:
		return strings.TrimSpace(prevVal) == strings.TrimSpace(nextVal)
	default:
		return false
	}
}

// jsonValuesMatch compares two JSON defaults structurally, falling back to
// string comparison when either side is not valid JSON.
func jsonValuesMatch(previous, next string) bool {
	var prevDoc, nextDoc any
	if err := json.Unmarshal([]byte(previous), &prevDoc); err != nil {
		return previous == next
	}
	if err := json.Unmarshal([]byte(next), &nextDoc); err != nil {
		return previous == next
	}

	prevNorm, err1 := json.Marshal(prevDoc)
	nextNorm, err2 := json.Marshal(nextDoc)
	if err1 != nil || err2 != nil {
		return false
	}
	return string(prevNorm) == string(nextNorm)
}

func isDateTimeFunction(value string) bool {
	upper := strings.ToUpper(strings.TrimSpace(value))
	return strings.HasPrefix(upper, "NOW()") ||
		strings.HasPrefix(upper, "CURRENT_TIMESTAMP") ||
		strings.HasPrefix(upper, "CURRENT_DATE") ||
		strings.HasPrefix(upper, "CURRENT_TIME") ||
		strings.HasPrefix(upper, "GETDATE()")
}

// typeChangeKind converts the flavour classification to the step-level one.
func typeChangeKind(cast flavour.ColumnTypeChange) ColumnTypeChangeKind {
	switch cast {
	case flavour.SafeCast:
		return TypeChangeSafe
	case flavour.RiskyCast:
		return TypeChangeRisky
	case flavour.NotCastable:
		return TypeChangeNotCastable
	default:
		return TypeChangeNone
	}
}
