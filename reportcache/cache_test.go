/*
cache_test.go - Report cache behavior tests

Tests for:
- Entry lifecycle: Absent -> Live -> Expired -> Absent
- Collection-scoped invalidation over many distinct filter combinations
- Cross-collection dependency invalidation (employees -> travels)
- Background sweep of expired entries
*/
package reportcache

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docuflow/records-engine/records"
)

func travelReq(filters map[string]string) records.ReportRequest {
	return records.NewReportRequest(records.CollectionTravels, records.GranularityMonth, filters)
}

func appointmentReq(filters map[string]string) records.ReportRequest {
	return records.NewReportRequest(records.CollectionAppointments, records.GranularityYear, filters)
}

func TestCache_GetSetRoundTrip(t *testing.T) {
	c := New(DefaultTTL)
	req := travelReq(map[string]string{records.FilterYear: "2024"})

	_, ok := c.Get(req)
	require.False(t, ok)

	want := records.ReportResult{{Label: "2024-01", Count: 3}}
	c.Set(req, want)

	got, ok := c.Get(req)
	require.True(t, ok)
	assert.Equal(t, want, got)
}

func TestCache_TTLExpiry(t *testing.T) {
	// GIVEN: An entry stored at a fixed instant
	c := New(10 * time.Minute)
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	now := base
	c.now = func() time.Time { return now }

	req := travelReq(nil)
	c.Set(req, records.ReportResult{{Label: "2024", Count: 1}})

	// WHEN: Just under the TTL has elapsed
	now = base.Add(10*time.Minute - time.Second)
	_, ok := c.Get(req)
	assert.True(t, ok, "entry should be live until the TTL elapses")

	// WHEN: The TTL boundary is reached
	now = base.Add(10 * time.Minute)
	_, ok = c.Get(req)
	assert.False(t, ok, "entry should expire at the TTL boundary")

	// THEN: The expired entry was reaped, not just hidden
	assert.Equal(t, 0, c.Len())
}

func TestCache_InvalidationCompleteness(t *testing.T) {
	// GIVEN: Many cached travel reports with distinct filter combinations,
	// plus one appointment report
	c := New(DefaultTTL)
	for i := 0; i < 25; i++ {
		req := travelReq(map[string]string{
			records.FilterEmployee: fmt.Sprintf("%d", i),
			records.FilterYear:     fmt.Sprintf("%d", 2000+i),
		})
		c.Set(req, records.ReportResult{{Label: "x", Count: i}})
	}
	other := appointmentReq(map[string]string{records.FilterStatus: "Confirmed"})
	c.Set(other, records.ReportResult{{Label: "2024", Count: 9}})
	require.Equal(t, 26, c.Len())

	// WHEN: The travels collection mutates
	c.Invalidate(records.CollectionTravels)

	// THEN: Every travel entry is gone, the appointment entry survives
	assert.Equal(t, 1, c.Len())
	_, ok := c.Get(other)
	assert.True(t, ok)
}

func TestCache_DependencyInvalidation(t *testing.T) {
	// An employee mutation must drop travel reports (they filter on
	// employee id) but not appointment reports.
	c := New(DefaultTTL)
	travel := travelReq(map[string]string{records.FilterEmployee: "12"})
	appointment := appointmentReq(nil)
	c.Set(travel, records.ReportResult{})
	c.Set(appointment, records.ReportResult{})

	c.CollectionMutated(records.CollectionEmployees)

	_, ok := c.Get(travel)
	assert.False(t, ok, "travel reports depend on employees")
	_, ok = c.Get(appointment)
	assert.True(t, ok, "appointment reports do not depend on employees")
}

func TestCache_NonDependentMutationInvalidatesNothing(t *testing.T) {
	c := New(DefaultTTL)
	travel := travelReq(nil)
	c.Set(travel, records.ReportResult{})

	c.CollectionMutated(records.CollectionAppointments)

	_, ok := c.Get(travel)
	assert.True(t, ok)
}

func TestCache_Sweep(t *testing.T) {
	c := New(10 * time.Minute)
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	now := base
	c.now = func() time.Time { return now }

	c.Set(travelReq(nil), records.ReportResult{})
	now = base.Add(5 * time.Minute)
	c.Set(appointmentReq(nil), records.ReportResult{})
	require.Equal(t, 2, c.Len())

	// Only the first entry has expired by now.
	now = base.Add(12 * time.Minute)
	c.Sweep()
	assert.Equal(t, 1, c.Len())
}
