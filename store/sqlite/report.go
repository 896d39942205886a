/*
report.go - Grouped count queries behind the aggregate report cache

PURPOSE:
  Computes a records.ReportResult for a report request: rows of the
  requested collection with a non-null time field, filtered by the
  request's dimensions, grouped into time buckets and counted.

ORDERING:
  Buckets are ordered by their numeric date components, never by label
  string comparison. Labels are zero-padded, but the ordering contract
  must not depend on that.
*/
package sqlite

import (
	"context"
	"fmt"

	"github.com/docuflow/records-engine/records"
)

// bucketFormat maps a granularity to the label expression and the
// numeric group/order expressions over a date column.
type bucketFormat struct {
	label   string
	groupBy string
	orderBy string
}

func formatFor(g records.Granularity, col string) (bucketFormat, error) {
	switch g {
	case records.GranularityYear:
		return bucketFormat{
			label:   fmt.Sprintf("strftime('%%Y', %s)", col),
			groupBy: fmt.Sprintf("strftime('%%Y', %s)", col),
			orderBy: fmt.Sprintf("CAST(strftime('%%Y', %s) AS INTEGER)", col),
		}, nil
	case records.GranularityMonth:
		return bucketFormat{
			label:   fmt.Sprintf("strftime('%%Y-%%m', %s)", col),
			groupBy: fmt.Sprintf("strftime('%%Y', %s), strftime('%%m', %s)", col, col),
			orderBy: fmt.Sprintf("CAST(strftime('%%Y', %s) AS INTEGER), CAST(strftime('%%m', %s) AS INTEGER)", col, col),
		}, nil
	case records.GranularityWeek:
		return bucketFormat{
			label:   fmt.Sprintf("strftime('%%Y', %s) || '-W' || strftime('%%W', %s)", col, col),
			groupBy: fmt.Sprintf("strftime('%%Y', %s), strftime('%%W', %s)", col, col),
			orderBy: fmt.Sprintf("CAST(strftime('%%Y', %s) AS INTEGER), CAST(strftime('%%W', %s) AS INTEGER)", col, col),
		}, nil
	case records.GranularityDate:
		return bucketFormat{
			label:   fmt.Sprintf("strftime('%%Y-%%m-%%d', %s)", col),
			groupBy: fmt.Sprintf("date(%s)", col),
			orderBy: fmt.Sprintf("date(%s)", col),
		}, nil
	}
	return bucketFormat{}, records.Validationf("invalid bucket granularity %q", g)
}

// reportSource describes how one collection's reports map to SQL.
type reportSource struct {
	table   string
	dateCol string
	// filters maps a canonical filter dimension to a WHERE fragment
	// with one placeholder, plus how its value is bound.
	filters map[string]filterBinding
}

type filterBinding struct {
	clause string
	// like wraps the bound value in % wildcards.
	like bool
}

var reportSources = map[records.Collection]reportSource{
	records.CollectionTravels: {
		table:   "travels",
		dateCol: "dates_from",
		filters: map[string]filterBinding{
			records.FilterEmployee: {clause: "employee_id = ?"},
			records.FilterYear:     {clause: "CAST(strftime('%Y', dates_from) AS INTEGER) = ?"},
			records.FilterMonth:    {clause: "CAST(strftime('%m', dates_from) AS INTEGER) = ?"},
			records.FilterPosition: {clause: "position_designation LIKE ?", like: true},
		},
	},
	records.CollectionAppointments: {
		table:   "appointments",
		dateCol: "date_signed",
		filters: map[string]filterBinding{
			records.FilterName:   {clause: "name LIKE ?", like: true},
			records.FilterStatus: {clause: "status_appointment = ?"},
			records.FilterYear:   {clause: "CAST(strftime('%Y', date_signed) AS INTEGER) = ?"},
			records.FilterMonth:  {clause: "CAST(strftime('%m', date_signed) AS INTEGER) = ?"},
		},
	},
}

// GroupedCounts computes the report for req. Zero matching rows yield an
// empty (non-nil) result, not an error.
func (s *Store) GroupedCounts(ctx context.Context, req records.ReportRequest) (records.ReportResult, error) {
	src, ok := reportSources[req.Collection]
	if !ok {
		return nil, records.Validationf("collection %q has no report source", req.Collection)
	}
	format, err := formatFor(req.Granularity, src.dateCol)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(
		`SELECT %s AS label, COUNT(*) AS count FROM %s WHERE %s IS NOT NULL AND %s != ''`,
		format.label, src.table, src.dateCol, src.dateCol)
	var args []any
	// Iterate declared dimensions (stable order) rather than the map.
	for _, dim := range records.ReportFilterDims(req.Collection) {
		v, ok := req.Filters[dim]
		if !ok || v == "" {
			continue
		}
		binding := src.filters[dim]
		query += " AND " + binding.clause
		if binding.like {
			args = append(args, "%"+v+"%")
		} else {
			args = append(args, v)
		}
	}
	query += fmt.Sprintf(" GROUP BY %s ORDER BY %s", format.groupBy, format.orderBy)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, records.Storef("grouped counts", err)
	}
	defer rows.Close()

	result := records.ReportResult{}
	for rows.Next() {
		var b records.Bucket
		if err := rows.Scan(&b.Label, &b.Count); err != nil {
			return nil, records.Storef("scan bucket", err)
		}
		result = append(result, b)
	}
	if err := rows.Err(); err != nil {
		return nil, records.Storef("grouped counts", err)
	}
	return result, nil
}
