/*
handlers.go - HTTP handler context and shared plumbing

PURPOSE:
  Holds the Handler dependency struct and the helpers every endpoint
  shares: JSON encoding, domain-error to HTTP-status mapping, request
  body parsing for the mixed JSON/multipart form contract, and upload
  bookkeeping.

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Store: Database access (record collections + grouped counts)
  - Cache: Aggregate report cache (graph endpoints)
  - Files: Attachment store (multipart uploads)
  - Chat:  Assistant passthrough client (optional)
  - Log:   Structured logging

ERROR HANDLING:
  Domain errors map to HTTP status by sentinel:
  - ErrValidation          400
  - ErrNotFound            404
  - ErrPayloadTooLarge     413
  - ErrUnsupportedMedia    415
  - anything else          500
  Bodies are always {error, details}.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/docuflow/records-engine/filestore"
	"github.com/docuflow/records-engine/records"
	"github.com/docuflow/records-engine/reportcache"
	"github.com/docuflow/records-engine/store/sqlite"
)

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store *sqlite.Store
	Cache *reportcache.Cache
	Files *filestore.Store
	Chat  *ChatClient
	Log   *logrus.Logger
}

// NewHandler creates a handler over the given store, cache, and
// attachment store.
func NewHandler(store *sqlite.Store, cache *reportcache.Cache, files *filestore.Store) *Handler {
	return &Handler{
		Store: store,
		Cache: cache,
		Files: files,
		Log:   logrus.StandardLogger(),
	}
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError maps a domain error to an HTTP status and writes the
// {error, details} envelope.
func writeError(w http.ResponseWriter, message string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, records.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, records.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, records.ErrPayloadTooLarge):
		status = http.StatusRequestEntityTooLarge
	case errors.Is(err, records.ErrUnsupportedMedia):
		status = http.StatusUnsupportedMediaType
	}

	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

func writeStatusError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// =============================================================================
// REQUEST PARSING
// =============================================================================

const multipartMemory = 4 << 20

// isMultipart reports whether the request body is multipart/form-data.
// The travel and appointment forms submit multipart when an attachment
// is included and plain JSON otherwise.
func isMultipart(r *http.Request) bool {
	ct, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && ct == "multipart/form-data"
}

// decodeJSON decodes a JSON request body, translating decode failures to
// validation errors.
func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return records.Validationf("invalid request body: %v", err)
	}
	return nil
}

// saveUpload persists one multipart file into the attachment store and
// returns its public path. Returns "" when the form has no such file.
func (h *Handler) saveUpload(r *http.Request, field string) (string, error) {
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return "", nil
	}
	if err != nil {
		return "", records.Validationf("invalid %s upload: %v", field, err)
	}
	defer file.Close()
	return h.saveFile(header, file)
}

func (h *Handler) saveFile(header *multipart.FileHeader, file multipart.File) (string, error) {
	return h.Files.Save(header.Filename, header.Header.Get("Content-Type"), header.Size, file)
}

// discardUpload removes an already stored upload after a failed write,
// so rejected requests do not leak orphan files.
func (h *Handler) discardUpload(path string) {
	if path == "" {
		return
	}
	if err := h.Files.Delete(path); err != nil {
		h.Log.WithError(err).WithField("path", path).Warn("failed to delete orphaned upload")
	}
}

// parseID extracts a positive integer id from a URL parameter.
func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, records.Validationf("invalid id %q", raw)
	}
	return id, nil
}

// cellString renders a spreadsheet cell decoded from JSON. Excel-derived
// numeric cells (including date serials) arrive as float64.
func cellString(v any) string {
	switch c := v.(type) {
	case string:
		return c
	case float64:
		return strconv.FormatFloat(c, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(c)
	default:
		return ""
	}
}

// normalizeDate runs a client-supplied date through the ingestion
// normalizer, keeping the raw value when it is not recognizable.
func normalizeDate(v string) string {
	if norm, ok := records.NormalizeDate(v); ok {
		return norm
	}
	return v
}
