// Package flavour provides the CockroachDB differ rules. CockroachDB is
// close enough to PostgreSQL to share its cast tables; it differs in primary
// key handling and in how schema changes propagate.
package flavour

// CockroachFlavour implements Flavour for CockroachDB.
type CockroachFlavour struct {
	PostgresFlavour
}

// NewCockroachFlavour creates the CockroachDB flavour.
func NewCockroachFlavour() *CockroachFlavour {
	return &CockroachFlavour{}
}

// Name implements Flavour.
func (f *CockroachFlavour) Name() string { return "cockroachdb" }

// CanAlterPrimaryKeys implements Flavour. CockroachDB supports
// ALTER TABLE ... ALTER PRIMARY KEY in place.
func (f *CockroachFlavour) CanAlterPrimaryKeys() bool { return true }
