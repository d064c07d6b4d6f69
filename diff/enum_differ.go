package diff

import "github.com/schemadrift/schemadrift/schema"

// enumValueDiff returns the values added to and removed from an enum pair,
// preserving snapshot order.
func enumValueDiff(pair MigrationPair[schema.EnumWalker]) (created, dropped []string) {
	for _, value := range pair.Next.Values() {
		if !pair.Previous.Get().HasValue(value) {
			created = append(created, value)
		}
	}
	for _, value := range pair.Previous.Values() {
		if !pair.Next.Get().HasValue(value) {
			dropped = append(dropped, value)
		}
	}
	return created, dropped
}
