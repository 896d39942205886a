/*
report.go - Aggregate report requests, results, and canonical cache keys

PURPOSE:
  Defines the typed report request (collection, time-bucket granularity,
  normalized filter map) and its canonical string key. Two requests that
  are equal component-wise always produce the same key, regardless of the
  order filters were supplied in.

CANONICAL KEY:
  <collection>|<granularity>|<dim>=<value>|...

  Dimensions are emitted in a fixed sorted order with an explicit "all"
  sentinel when a filter is absent, so the key is deterministic and the
  leading collection tag lets the cache invalidate by scanning keys.

SEE ALSO:
  - reportcache/cache.go: Keys index cache entries
  - store/sqlite/report.go: Executes the grouped count query
*/
package records

import (
	"sort"
	"strings"
)

// Granularity selects the time bucket a report groups by.
type Granularity string

const (
	GranularityYear  Granularity = "year"
	GranularityMonth Granularity = "month"
	GranularityWeek  Granularity = "week"
	GranularityDate  Granularity = "date"
)

// ParseGranularity validates a query-string bucket type.
func ParseGranularity(s string) (Granularity, error) {
	g := Granularity(s)
	switch g {
	case GranularityYear, GranularityMonth, GranularityWeek, GranularityDate:
		return g, nil
	}
	return "", Validationf("invalid type %q: must be one of year, month, week, date", s)
}

// Filter dimension names, shared between requests and the store's SQL
// mapping. Each collection declares the full set of dimensions its
// reports accept; unknown dimensions are dropped during normalization.
const (
	FilterEmployee = "employee"
	FilterPosition = "position"
	FilterName     = "name"
	FilterStatus   = "status"
	FilterYear     = "year"
	FilterMonth    = "month"
)

var reportFilterDims = map[Collection][]string{
	CollectionTravels:      {FilterEmployee, FilterMonth, FilterPosition, FilterYear},
	CollectionAppointments: {FilterMonth, FilterName, FilterStatus, FilterYear},
}

// ReportFilterDims returns the filter dimensions a collection's reports
// accept, in canonical (sorted) order.
func ReportFilterDims(c Collection) []string {
	return reportFilterDims[c]
}

// ReportRequest describes one aggregate report: a collection, a bucket
// granularity, and zero or more filter dimensions.
type ReportRequest struct {
	Collection  Collection
	Granularity Granularity
	Filters     map[string]string
}

// NewReportRequest builds a normalized request. Filters with empty values
// or dimensions the collection does not declare are dropped.
func NewReportRequest(c Collection, g Granularity, filters map[string]string) ReportRequest {
	req := ReportRequest{Collection: c, Granularity: g, Filters: make(map[string]string)}
	for _, dim := range reportFilterDims[c] {
		if v, ok := filters[dim]; ok && v != "" {
			req.Filters[dim] = v
		}
	}
	return req
}

// allSentinel marks an absent filter dimension in the canonical key.
const allSentinel = "all"

// keySeparator delimits canonical key segments.
const keySeparator = "|"

// Key returns the canonical cache key for the request. Every declared
// dimension appears exactly once, sorted, with "all" when unset.
func (r ReportRequest) Key() string {
	dims := append([]string(nil), reportFilterDims[r.Collection]...)
	sort.Strings(dims)

	parts := make([]string, 0, len(dims)+2)
	parts = append(parts, string(r.Collection), string(r.Granularity))
	for _, dim := range dims {
		v := r.Filters[dim]
		if v == "" {
			v = allSentinel
		}
		parts = append(parts, dim+"="+v)
	}
	return strings.Join(parts, keySeparator)
}

// CollectionFromKey recovers the collection tag from a canonical key.
func CollectionFromKey(key string) Collection {
	if i := strings.Index(key, keySeparator); i >= 0 {
		return Collection(key[:i])
	}
	return Collection(key)
}

// Bucket is one (label, count) pair of a report result.
type Bucket struct {
	Label string
	Count int
}

// ReportResult is an ordered sequence of buckets, chronologically
// ascending, covering only buckets with at least one matching record.
type ReportResult []Bucket
