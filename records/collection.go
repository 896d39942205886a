/*
collection.go - Record collection identifiers and mutation notifications

PURPOSE:
  Names the three record collections managed by the engine and declares
  the cross-collection report dependencies used for cache invalidation.

MUTATION NOTIFICATIONS:
  Every successful write against a collection emits exactly one
  notification identifying that collection. The report cache registers
  itself as the listener and drops every cached report belonging to the
  mutated collection and to any collection that depends on it for report
  filtering.

DEPENDENCY TABLE:
  Travel reports can be filtered by employee id, so a mutation to the
  employees collection must also invalidate travel report caches. The
  relation is declared here as data rather than hardcoded at call sites,
  so adding a new dependent collection is a one-line change.

SEE ALSO:
  - report.go: Report requests keyed by collection
  - reportcache/cache.go: The listener implementation
*/
package records

// Collection identifies one of the managed record collections.
type Collection string

const (
	CollectionEmployees    Collection = "employees"
	CollectionTravels      Collection = "travels"
	CollectionAppointments Collection = "appointments"
)

// Valid reports whether c names a known collection.
func (c Collection) Valid() bool {
	switch c {
	case CollectionEmployees, CollectionTravels, CollectionAppointments:
		return true
	}
	return false
}

// reportDependencies maps a collection to the collections whose report
// caches must also be invalidated when it mutates. A referencing
// collection appears here under the collection it references.
var reportDependencies = map[Collection][]Collection{
	CollectionEmployees: {CollectionTravels},
}

// Dependents returns the collections whose reports depend on c.
func (c Collection) Dependents() []Collection {
	return reportDependencies[c]
}

// MutationListener receives notifications after a successful committed
// write against a collection.
type MutationListener interface {
	CollectionMutated(c Collection)
}

// ListenerFunc adapts a function to the MutationListener interface.
type ListenerFunc func(Collection)

func (f ListenerFunc) CollectionMutated(c Collection) { f(c) }
