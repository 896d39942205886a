/*
report_test.go - Canonical report key tests

Tests for:
- Key determinism regardless of filter supply order
- The "all" sentinel for absent filters
- Collection tag recovery from keys
- Filter normalization in NewReportRequest
*/
package records

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportKey_OrderIndependent(t *testing.T) {
	// GIVEN: Two component-wise equal requests built with filters supplied
	// in different orders
	a := NewReportRequest(CollectionTravels, GranularityMonth, map[string]string{
		FilterEmployee: "7",
		FilterYear:     "2024",
	})
	b := NewReportRequest(CollectionTravels, GranularityMonth, map[string]string{
		FilterYear:     "2024",
		FilterEmployee: "7",
	})

	// THEN: Their canonical keys are identical
	assert.Equal(t, a.Key(), b.Key())
}

func TestReportKey_AllSentinelForAbsentFilters(t *testing.T) {
	req := NewReportRequest(CollectionTravels, GranularityYear, nil)

	key := req.Key()
	assert.Equal(t, "travels|year|employee=all|month=all|position=all|year=all", key)
}

func TestReportKey_EmbedsEveryFilterDimension(t *testing.T) {
	// Two requests differing only in one filter must never collide.
	a := NewReportRequest(CollectionAppointments, GranularityWeek, map[string]string{
		FilterStatus: "Confirmed",
	})
	b := NewReportRequest(CollectionAppointments, GranularityWeek, map[string]string{
		FilterStatus: "Completed",
	})

	assert.NotEqual(t, a.Key(), b.Key())
}

func TestCollectionFromKey(t *testing.T) {
	req := NewReportRequest(CollectionAppointments, GranularityDate, map[string]string{
		FilterName: "Cruz",
	})

	assert.Equal(t, CollectionAppointments, CollectionFromKey(req.Key()))
}

func TestNewReportRequest_DropsUnknownAndEmptyFilters(t *testing.T) {
	req := NewReportRequest(CollectionTravels, GranularityYear, map[string]string{
		FilterEmployee: "3",
		FilterMonth:    "",
		FilterStatus:   "Confirmed", // not a travel dimension
		"bogus":        "x",
	})

	require.Len(t, req.Filters, 1)
	assert.Equal(t, "3", req.Filters[FilterEmployee])
}

func TestParseGranularity(t *testing.T) {
	for _, valid := range []string{"year", "month", "week", "date"} {
		g, err := ParseGranularity(valid)
		require.NoError(t, err)
		assert.Equal(t, Granularity(valid), g)
	}

	_, err := ParseGranularity("decade")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCollectionDependents(t *testing.T) {
	assert.Equal(t, []Collection{CollectionTravels}, CollectionEmployees.Dependents())
	assert.Empty(t, CollectionTravels.Dependents())
	assert.Empty(t, CollectionAppointments.Dependents())
}
