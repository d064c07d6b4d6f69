// Package diff computes the ordered migration steps between two schema
// snapshots.
package diff

// MigrationPair holds a value for the previous and the next schema. It is
// the unit the matcher produces: two ids (or walkers) that refer to the same
// logical entity across the two snapshots.
type MigrationPair[T any] struct {
	Previous T
	Next     T
}

// NewPair creates a pair.
func NewPair[T any](previous, next T) MigrationPair[T] {
	return MigrationPair[T]{Previous: previous, Next: next}
}

// Map applies f to both sides.
func MapPair[T, U any](p MigrationPair[T], f func(T) U) MigrationPair[U] {
	return MigrationPair[U]{Previous: f(p.Previous), Next: f(p.Next)}
}

// optionalPair tracks the two sides of a possibly-unmatched entity while the
// matcher is being built.
type optionalPair[T any] struct {
	previous *T
	next     *T
}

// hasBoth reports whether the entity exists on both sides.
func (p optionalPair[T]) hasBoth() bool { return p.previous != nil && p.next != nil }

// transpose returns the complete pair when both sides exist.
func (p optionalPair[T]) transpose() (MigrationPair[T], bool) {
	if !p.hasBoth() {
		return MigrationPair[T]{}, false
	}
	return MigrationPair[T]{Previous: *p.previous, Next: *p.next}, true
}
