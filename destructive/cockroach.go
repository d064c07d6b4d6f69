package destructive

import (
	"fmt"
	"strings"

	goversion "github.com/hashicorp/go-version"
)

// asyncSchemaChangesSince is the first CockroachDB release where DDL runs
// through asynchronous schema change jobs, making freshly created objects
// briefly invisible to COUNT queries.
var asyncSchemaChangesSince = goversion.Must(goversion.NewVersion("21.1"))

// CockroachChecker implements the destructive change check for CockroachDB.
// It behaves like the PostgreSQL checker, except that count queries hitting
// an object still being materialized are retried.
type CockroachChecker struct {
	PostgresChecker

	serverVersion *goversion.Version
}

// NewCockroachChecker returns a checker for a server reporting the given
// version, e.g. "23.1.11". An empty version is accepted and enables the
// retry behavior unconditionally.
func NewCockroachChecker(serverVersion string) (*CockroachChecker, error) {
	checker := &CockroachChecker{}
	if serverVersion == "" {
		return checker, nil
	}
	v, err := goversion.NewVersion(strings.TrimPrefix(serverVersion, "v"))
	if err != nil {
		return nil, fmt.Errorf("parsing cockroachdb server version %q: %w", serverVersion, err)
	}
	checker.serverVersion = v
	return checker, nil
}

// Name implements CheckerFlavour.
func (*CockroachChecker) Name() string { return "cockroachdb" }

// transientFragments match the errors CockroachDB returns while an
// asynchronous schema change has not finished materializing an object.
var transientFragments = []string{
	"does not exist",
	"descriptor is being dropped",
	"is being backfilled",
	"cannot be accessed",
}

// IsTransient implements CheckerFlavour.
func (c *CockroachChecker) IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if c.serverVersion != nil && c.serverVersion.LessThan(asyncSchemaChangesSince) {
		return false
	}
	message := err.Error()
	for _, fragment := range transientFragments {
		if strings.Contains(message, fragment) {
			return true
		}
	}
	return false
}
