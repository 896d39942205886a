/*
graph.go - Aggregate report (graph) endpoints

PURPOSE:
  Serves the chart endpoints behind the report cache. A request is
  normalized into a typed report request; on a cache miss the grouped
  counts are computed by the store and the entry populated. Invalidation
  happens store-side via mutation notifications, never here.

RESPONSE SHAPE:
  {labels, datasets: [{label, data, backgroundColor}]} with labels and
  data positionally paired. Zero matching records produce empty arrays
  and HTTP 200, not an error.
*/
package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/docuflow/records-engine/records"
)

const graphBackgroundColor = "rgba(75, 192, 192, 0.6)"

// TravelGraph reports travel counts bucketed by the requested
// granularity. Filters: employee_ID, year, month, positionTitle.
func (h *Handler) TravelGraph(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if raw := q.Get("employee_ID"); raw != "" {
		if _, err := strconv.ParseInt(raw, 10, 64); err != nil {
			writeStatusError(w, http.StatusBadRequest, "Invalid employee ID", err)
			return
		}
	}

	h.serveGraph(w, r, records.CollectionTravels, "Travel Entries", map[string]string{
		records.FilterEmployee: q.Get("employee_ID"),
		records.FilterYear:     q.Get("year"),
		records.FilterMonth:    q.Get("month"),
		records.FilterPosition: q.Get("positionTitle"),
	})
}

// AppointmentGraph reports appointment counts bucketed by the requested
// granularity. Filters: name, statusAppointment, year, month.
func (h *Handler) AppointmentGraph(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	h.serveGraph(w, r, records.CollectionAppointments, "Appointments", map[string]string{
		records.FilterName:   q.Get("name"),
		records.FilterStatus: q.Get("statusAppointment"),
		records.FilterYear:   q.Get("year"),
		records.FilterMonth:  q.Get("month"),
	})
}

func (h *Handler) serveGraph(w http.ResponseWriter, r *http.Request, col records.Collection, subject string, filters map[string]string) {
	granularity, err := records.ParseGranularity(r.URL.Query().Get("type"))
	if err != nil {
		writeStatusError(w, http.StatusBadRequest, "Invalid type", err)
		return
	}

	req := records.NewReportRequest(col, granularity, filters)
	result, hit := h.Cache.Get(req)
	if !hit {
		result, err = h.Store.GroupedCounts(r.Context(), req)
		if err != nil {
			writeError(w, "Failed to retrieve graph data", err)
			return
		}
		h.Cache.Set(req, result)
	}

	labels := make([]string, len(result))
	data := make([]int, len(result))
	for i, b := range result {
		labels[i] = b.Label
		data[i] = b.Count
	}
	writeJSON(w, http.StatusOK, GraphResponse{
		Labels: labels,
		Datasets: []GraphDataset{{
			Label:           fmt.Sprintf("%s by %s", subject, granularity),
			Data:            data,
			BackgroundColor: graphBackgroundColor,
		}},
	})
}
