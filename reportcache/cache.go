/*
cache.go - TTL report cache with collection-scoped invalidation

PURPOSE:
  Caches computed report results keyed by the canonical encoding of the
  report request, and keeps them consistent with the record store by
  consuming mutation notifications.

INVALIDATION:
  A mutation to collection C drops EVERY cached entry whose request
  belongs to C, plus every entry of collections that declare a report
  dependency on C. This is a scan over all live keys by collection tag:
  report keys embed every filter dimension, so the number of live keys
  per collection is unbounded and a fixed single-key delete would leave
  stale aggregates behind for every other filter combination.

ENTRY LIFECYCLE:
  Absent -> Live (Set) -> Expired (TTL elapses; still stored) -> Absent
  (reaped on next Get, by Sweep, or by invalidation). Live -> Absent
  directly on invalidation.

CONCURRENCY:
  Backed by xsync.MapOf: reads are lock-free, and a concurrent
  miss-then-populate race is tolerated (last write wins; computation is
  a pure function of current record state).

SEE ALSO:
  - records/report.go: Canonical keys and the dependency table
  - store/sqlite/report.go: The computation behind a miss
*/
package reportcache

import (
	"time"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/docuflow/records-engine/records"
)

// DefaultTTL is how long a cached report stays live absent invalidation.
const DefaultTTL = 10 * time.Minute

type entry struct {
	result records.ReportResult
	expiry time.Time
}

// Cache is an in-process report cache. Construct once per process with
// New and pass by reference; it implements records.MutationListener so
// it can be registered directly on the record store.
type Cache struct {
	ttl     time.Duration
	entries *xsync.MapOf[string, entry]

	// now is swappable for TTL tests.
	now func() time.Time
}

// New creates a cache with the given TTL. A non-positive TTL falls back
// to DefaultTTL.
func New(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		ttl:     ttl,
		entries: xsync.NewMapOf[string, entry](),
		now:     time.Now,
	}
}

// Get returns the cached result for req while the entry is live. An
// expired entry is reaped and reported as a miss.
func (c *Cache) Get(req records.ReportRequest) (records.ReportResult, bool) {
	key := req.Key()
	e, ok := c.entries.Load(key)
	if !ok {
		return nil, false
	}
	if !c.now().Before(e.expiry) {
		c.entries.Delete(key)
		return nil, false
	}
	return e.result, true
}

// Set stores a freshly computed result for req with a full TTL.
func (c *Cache) Set(req records.ReportRequest, result records.ReportResult) {
	c.entries.Store(req.Key(), entry{result: result, expiry: c.now().Add(c.ttl)})
}

// Invalidate removes every entry belonging to the mutated collection and
// to every collection whose reports depend on it.
func (c *Cache) Invalidate(mutated records.Collection) {
	affected := map[records.Collection]bool{mutated: true}
	for _, dep := range mutated.Dependents() {
		affected[dep] = true
	}
	c.entries.Range(func(key string, _ entry) bool {
		if affected[records.CollectionFromKey(key)] {
			c.entries.Delete(key)
		}
		return true
	})
}

// CollectionMutated implements records.MutationListener.
func (c *Cache) CollectionMutated(col records.Collection) {
	c.Invalidate(col)
}

// Sweep reaps structurally present but expired entries. Expiry is also
// enforced lazily on Get, so sweeping is an optional background task.
func (c *Cache) Sweep() {
	now := c.now()
	c.entries.Range(func(key string, e entry) bool {
		if !now.Before(e.expiry) {
			c.entries.Delete(key)
		}
		return true
	})
}

// Len reports the number of structurally present entries, including
// expired ones not yet reaped.
func (c *Cache) Len() int {
	return c.entries.Size()
}
