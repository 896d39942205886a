/*
handlers_test.go - HTTP surface tests over the assembled router

Tests for:
- Graph endpoints: response shape, caching, and write-through invalidation
- Domain-error to HTTP-status mapping
- Attachment upload constraints
- Legacy JSON field names on list responses
*/
package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docuflow/records-engine/filestore"
	"github.com/docuflow/records-engine/reportcache"
	"github.com/docuflow/records-engine/store/sqlite"
)

func newTestServer(t *testing.T) (*httptest.Server, *Handler) {
	t.Helper()

	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	files, err := filestore.New(t.TempDir())
	require.NoError(t, err)
	store.UseFileRemover(files)

	cache := reportcache.New(reportcache.DefaultTTL)
	store.OnMutation(cache)

	h := NewHandler(store, cache, files)
	srv := httptest.NewServer(NewRouter(h))
	t.Cleanup(srv.Close)
	return srv, h
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func appointmentBody(name, dateSigned string) map[string]string {
	return map[string]string{
		"name":              name,
		"positionTitle":     "Teacher I",
		"statusAppointment": "Confirmed",
		"schoolOffice":      "Central School",
		"natureAppointment": "Original",
		"itemNo":            "OSEC-1",
		"DateSigned":        dateSigned,
	}
}

// =============================================================================
// GRAPH ENDPOINTS
// =============================================================================

func TestGraph_EmptyResultShape(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/travels/graph?type=year")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	graph := decodeBody[GraphResponse](t, resp)
	assert.NotNil(t, graph.Labels)
	assert.Empty(t, graph.Labels)
	require.Len(t, graph.Datasets, 1)
	assert.Equal(t, "Travel Entries by year", graph.Datasets[0].Label)
	assert.NotNil(t, graph.Datasets[0].Data)
	assert.Empty(t, graph.Datasets[0].Data)
	assert.Equal(t, graphBackgroundColor, graph.Datasets[0].BackgroundColor)
}

func TestGraph_InvalidType(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/appointments/graph?type=decade")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGraph_InvalidEmployeeID(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/travels/graph?type=year&employee_ID=bogus")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGraph_WriteInvalidatesCachedReport(t *testing.T) {
	// GIVEN: A cached appointment report
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/appointments", appointmentBody("Juan Dela Cruz", "2024-03-01"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp, err := http.Get(srv.URL + "/appointments/graph?type=year")
	require.NoError(t, err)
	graph := decodeBody[GraphResponse](t, resp)
	require.Equal(t, []int{1}, graph.Datasets[0].Data)

	// WHEN: Another write lands through a different route
	resp = postJSON(t, srv.URL+"/appointments", appointmentBody("Maria Santos", "2024-04-01"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	// THEN: The next read reflects the mutation, not the cached entry
	resp, err = http.Get(srv.URL + "/appointments/graph?type=year")
	require.NoError(t, err)
	graph = decodeBody[GraphResponse](t, resp)
	assert.Equal(t, []int{2}, graph.Datasets[0].Data)
}

func TestGraph_EmployeeMutationInvalidatesTravelReports(t *testing.T) {
	srv, h := newTestServer(t)

	// Prime a travel report cache entry.
	resp, err := http.Get(srv.URL + "/travels/graph?type=year")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, 1, h.Cache.Len())

	// An employee write must drop it (travel reports filter on employee).
	resp = postJSON(t, srv.URL+"/employees", map[string]string{
		"office":        "Main Office",
		"fullname":      "Juan Dela Cruz",
		"positionTitle": "Teacher I",
		"Initial":       "JDC",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	assert.Equal(t, 0, h.Cache.Len())
}

// =============================================================================
// ERROR MAPPING
// =============================================================================

func TestCreateEmployee_MissingFieldsIs400(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/employees", map[string]string{"office": "Main"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body := decodeBody[ErrorResponse](t, resp)
	assert.NotEmpty(t, body.Error)
}

func TestDeleteEmployee_MissingIs404(t *testing.T) {
	srv, _ := newTestServer(t)

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/employees/999", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestChat_MessageTooLongIs400(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/chat", map[string]any{
		"message": strings.Repeat("a", 1001),
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// =============================================================================
// RECORD ROUTES
// =============================================================================

func TestEmployees_LegacyFieldNames(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/employees", map[string]string{
		"office":        "Main Office",
		"fullname":      "Juan Dela Cruz",
		"positionTitle": "Teacher I",
		"Initial":       "JDC",
		"sof":           "local",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody[MessageResponse](t, resp)
	require.NotZero(t, created.ID)

	resp, err := http.Get(srv.URL + "/employees")
	require.NoError(t, err)
	rows := decodeBody[[]map[string]any](t, resp)
	require.Len(t, rows, 1)
	for _, field := range []string{"uid", "office", "fullname", "positionTitle", "Initial", "sof"} {
		assert.Contains(t, rows[0], field)
	}
}

func TestTravels_CreateAndList(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/travels", map[string]string{
		"employeeID":          "1",
		"positiondesignation": "Teacher I",
		"station":             "Central School",
		"purpose":             "Training",
		"host":                "Division Office",
		"datesfrom":           "2024-01-10",
		"datesto":             "2024-01-12",
		"destination":         "Regional Center",
		"area":                "Region IV",
		"sof":                 "local",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody[TravelWriteResponse](t, resp)
	require.NotZero(t, created.ID)

	resp, err := http.Get(srv.URL + "/travels")
	require.NoError(t, err)
	travels := decodeBody[[]TravelDTO](t, resp)
	require.Len(t, travels, 1)
	assert.Equal(t, "2024-01-10", travels[0].DatesFrom)
}

func TestTravelsBulk_BareArrayAppends(t *testing.T) {
	srv, _ := newTestServer(t)

	entry := map[string]string{
		"employeeID":          "1",
		"positiondesignation": "Teacher I",
		"station":             "Central School",
		"purpose":             "Training",
		"host":                "Division Office",
		"fromDate":            "10/1/2024",
		"toDate":              "12/1/2024",
		"destination":         "Regional Center",
		"area":                "Region IV",
		"sof":                 "local",
	}
	resp := postJSON(t, srv.URL+"/travels/bulk", []map[string]string{entry})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	// Day-first dates were normalized on the way in.
	resp, err := http.Get(srv.URL + "/travels")
	require.NoError(t, err)
	travels := decodeBody[[]TravelDTO](t, resp)
	require.Len(t, travels, 1)
	assert.Equal(t, "2024-01-10", travels[0].DatesFrom)
}

// =============================================================================
// ATTACHMENTS
// =============================================================================

func multipartFile(t *testing.T, field, filename, contentType, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filename))
	header.Set("Content-Type", contentType)
	part, err := w.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestAppointmentAttachment_UploadAndServe(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/appointments", appointmentBody("Juan Dela Cruz", "2024-03-01"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody[AppointmentWriteResponse](t, resp)

	body, contentType := multipartFile(t, "attachment", "order.pdf", "application/pdf", "%PDF-1.4 data")
	resp, err := http.Post(fmt.Sprintf("%s/appointments/%d/attachment", srv.URL, created.ID), contentType, body)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	uploaded := decodeBody[MessageResponse](t, resp)
	require.NotEmpty(t, uploaded.Path)

	// The stored file is served back under /uploads/.
	resp, err = http.Get(srv.URL + uploaded.Path)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAppointmentAttachment_NonPDFIs415(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/appointments", appointmentBody("Juan Dela Cruz", "2024-03-01"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody[AppointmentWriteResponse](t, resp)

	body, contentType := multipartFile(t, "attachment", "notes.txt", "text/plain", "just text")
	resp, err := http.Post(fmt.Sprintf("%s/appointments/%d/attachment", srv.URL, created.ID), contentType, body)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)
}
