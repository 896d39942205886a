package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/docuflow/records-engine/records"
	"github.com/docuflow/records-engine/store/sqlite"
)

// readTravelEntry parses a travel create/update body. The form submits
// multipart when an attachment rides along and plain JSON otherwise; in
// the multipart case the attachment is stored before the row write, so
// callers must discard it on failure.
func (h *Handler) readTravelEntry(r *http.Request) (TravelEntryRequest, string, error) {
	if !isMultipart(r) {
		var e TravelEntryRequest
		err := decodeJSON(r, &e)
		return e, "", err
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return TravelEntryRequest{}, "", records.Validationf("invalid multipart form: %v", err)
	}
	e := TravelEntryRequest{
		EmployeeID:          r.FormValue("employeeID"),
		PositionDesignation: r.FormValue("positiondesignation"),
		Station:             r.FormValue("station"),
		Purpose:             r.FormValue("purpose"),
		Host:                r.FormValue("host"),
		DatesFrom:           r.FormValue("datesfrom"),
		DatesTo:             r.FormValue("datesto"),
		Destination:         r.FormValue("destination"),
		Area:                r.FormValue("area"),
		SOF:                 r.FormValue("sof"),
	}
	path, err := h.saveUpload(r, "attachment")
	if err != nil {
		return TravelEntryRequest{}, "", err
	}
	return e, path, nil
}

// entryToTravel converts a request entry to the store shape, normalizing
// dates and the employee id.
func entryToTravel(e TravelEntryRequest) (sqlite.Travel, error) {
	var employeeID int64
	if e.EmployeeID != "" {
		id, err := strconv.ParseInt(e.EmployeeID, 10, 64)
		if err != nil {
			return sqlite.Travel{}, records.Validationf("invalid employee ID %q", e.EmployeeID)
		}
		employeeID = id
	}

	from := e.DatesFrom
	if from == "" {
		from = e.FromDate
	}
	to := e.DatesTo
	if to == "" {
		to = e.ToDate
	}

	return sqlite.Travel{
		ID:                  e.ID,
		EmployeeID:          employeeID,
		PositionDesignation: e.PositionDesignation,
		Station:             e.Station,
		Purpose:             e.Purpose,
		Host:                e.Host,
		DatesFrom:           normalizeDate(from),
		DatesTo:             normalizeDate(to),
		Destination:         e.Destination,
		Area:                e.Area,
		SOF:                 e.SOF,
	}, nil
}

// ListTravels returns all travel authorizations with linked employee
// names.
func (h *Handler) ListTravels(w http.ResponseWriter, r *http.Request) {
	travels, err := h.Store.ListTravels(r.Context())
	if err != nil {
		writeError(w, "Failed to fetch travel entries", err)
		return
	}

	dtos := make([]TravelDTO, len(travels))
	for i, t := range travels {
		dtos[i] = toTravelDTO(t)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// FilterTravels returns travels matching the ad-hoc query filters.
func (h *Handler) FilterTravels(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	travels, err := h.Store.FilterTravels(r.Context(), sqlite.TravelFilter{
		Name:     q.Get("name"),
		Initial:  q.Get("initial"),
		FromDate: q.Get("fromDate"),
		ToDate:   q.Get("toDate"),
		SOF:      q.Get("sof"),
	})
	if err != nil {
		writeError(w, "Failed to fetch filtered travel entries", err)
		return
	}

	dtos := make([]TravelDTO, len(travels))
	for i, t := range travels {
		dtos[i] = toTravelDTO(t)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateTravel creates one travel authorization, optionally with a
// multipart attachment.
func (h *Handler) CreateTravel(w http.ResponseWriter, r *http.Request) {
	entry, attachment, err := h.readTravelEntry(r)
	if err != nil {
		writeError(w, "Invalid request body", err)
		return
	}

	travel, err := entryToTravel(entry)
	if err != nil {
		h.discardUpload(attachment)
		writeError(w, "Invalid travel entry", err)
		return
	}
	travel.Attachment = attachment

	id, err := h.Store.CreateTravel(r.Context(), travel)
	if err != nil {
		h.discardUpload(attachment)
		writeError(w, "Failed to insert travel entry", err)
		return
	}
	writeJSON(w, http.StatusCreated, TravelWriteResponse{ID: id, AttachmentPath: attachment})
}

// UpdateTravel replaces one travel authorization. A new attachment
// replaces the owned file; omitting it keeps the existing one.
func (h *Handler) UpdateTravel(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "Invalid travel id", err)
		return
	}

	entry, attachment, err := h.readTravelEntry(r)
	if err != nil {
		writeError(w, "Invalid request body", err)
		return
	}

	travel, err := entryToTravel(entry)
	if err != nil {
		h.discardUpload(attachment)
		writeError(w, "Invalid travel entry", err)
		return
	}
	travel.Attachment = attachment

	if _, err := h.Store.UpdateTravel(r.Context(), id, travel); err != nil {
		h.discardUpload(attachment)
		writeError(w, "Failed to update travel entry", err)
		return
	}
	writeJSON(w, http.StatusOK, TravelWriteResponse{Message: "Travel entry updated", AttachmentPath: attachment})
}

// DeleteTravel removes one travel authorization and its attachment.
func (h *Handler) DeleteTravel(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "Invalid travel id", err)
		return
	}

	if _, err := h.Store.DeleteTravel(r.Context(), id); err != nil {
		writeError(w, "Failed to delete travel entry", err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Travel entry deleted"})
}

// SelectiveDeleteTravels deletes every travel matching an id set and/or
// date range.
func (h *Handler) SelectiveDeleteTravels(w http.ResponseWriter, r *http.Request) {
	var req SelectiveDeleteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, "Invalid request body", err)
		return
	}

	affected, err := h.Store.SelectiveDeleteTravels(r.Context(), sqlite.SelectiveDelete{
		IDs:      req.IDs,
		FromDate: normalizeDate(req.FromDate),
		ToDate:   normalizeDate(req.ToDate),
	})
	if err != nil {
		writeError(w, "Failed to delete travel entries", err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{
		Message: fmt.Sprintf("%d travel entries deleted", affected),
	})
}

// UploadTravels ingests parsed spreadsheet rows. Legacy sheets pack
// several people into one row with semicolon-separated Name, Initial,
// PositionDesignation, and sof columns; each person becomes one entry.
func (h *Handler) UploadTravels(w http.ResponseWriter, r *http.Request) {
	var req SpreadsheetUploadRequest
	if err := decodeJSON(r, &req); err != nil || len(req.FileContent) == 0 {
		writeStatusError(w, http.StatusBadRequest, "No valid data provided", err)
		return
	}

	var batch []sqlite.Travel
	for _, row := range req.FileContent {
		names := splitRoster(cellString(row["Name"]))
		initials := splitRoster(cellString(row["Initial"]))
		positions := splitRoster(cellString(row["PositionDesignation"]))
		sofs := splitRoster(cellString(row["sof"]))

		for i, name := range names {
			batch = append(batch, sqlite.Travel{
				Initial:             rosterAt(initials, i, ""),
				Name:                name,
				PositionDesignation: rosterAt(positions, i, cellString(row["PositionDesignation"])),
				Station:             cellString(row["Station"]),
				Purpose:             cellString(row["Purpose"]),
				Host:                cellString(row["Host"]),
				DatesFrom:           normalizeDate(cellString(row["DatesFrom"])),
				DatesTo:             normalizeDate(cellString(row["DatesTo"])),
				Destination:         cellString(row["Destination"]),
				Area:                cellString(row["Area"]),
				SOF:                 rosterAt(sofs, i, cellString(row["sof"])),
			})
		}
	}

	affected, err := h.Store.IngestTravelRows(r.Context(), batch)
	if err != nil {
		writeError(w, "Failed to process data", err)
		return
	}
	writeJSON(w, http.StatusCreated, MessageResponse{
		Message: fmt.Sprintf("%d travel entries inserted/updated", affected),
	})
}

// BulkInsertTravels inserts a JSON batch of travel entries. The body is
// either a bare array (append) or {replace_all, entries}; replacing the
// whole collection requires the explicit flag.
func (h *Handler) BulkInsertTravels(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeStatusError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	var req BulkTravelRequest
	if err := json.Unmarshal(body, &req.Entries); err != nil {
		if err := json.Unmarshal(body, &req); err != nil {
			writeError(w, "Invalid request body", records.Validationf("invalid request body: %v", err))
			return
		}
	}
	if len(req.Entries) == 0 {
		writeStatusError(w, http.StatusBadRequest, "No data provided", nil)
		return
	}

	batch := make([]sqlite.Travel, 0, len(req.Entries))
	for _, e := range req.Entries {
		t, err := entryToTravel(e)
		if err != nil {
			writeError(w, "Invalid travel entry", err)
			return
		}
		batch = append(batch, t)
	}

	affected, err := h.Store.BulkInsertTravels(r.Context(), batch, req.ReplaceAll)
	if err != nil {
		writeError(w, "Failed to insert travel entries", err)
		return
	}
	writeJSON(w, http.StatusCreated, MessageResponse{
		Message: fmt.Sprintf("%d travel entries inserted", affected),
	})
}

// BulkUpdateTravels updates a batch of travel entries. Multipart bodies
// carry the entries as a JSON form field plus an "attachments" file set;
// each file maps to its entry by the "{id}-" filename prefix.
func (h *Handler) BulkUpdateTravels(w http.ResponseWriter, r *http.Request) {
	var entries []TravelEntryRequest
	attachments := map[int64]string{}

	if isMultipart(r) {
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			writeStatusError(w, http.StatusBadRequest, "Invalid multipart form", err)
			return
		}
		if raw := r.FormValue("entries"); raw != "" {
			if err := json.Unmarshal([]byte(raw), &entries); err != nil {
				writeError(w, "Invalid entries", records.Validationf("invalid entries field: %v", err))
				return
			}
		}
		for _, header := range r.MultipartForm.File["attachments"] {
			id, ok := attachmentTarget(header.Filename)
			if !ok {
				continue
			}
			file, err := header.Open()
			if err != nil {
				h.discardUploads(attachments)
				writeError(w, "Invalid attachment", records.Validationf("invalid attachment %q: %v", header.Filename, err))
				return
			}
			path, err := h.saveFile(header, file)
			file.Close()
			if err != nil {
				h.discardUploads(attachments)
				writeError(w, "Failed to store attachment", err)
				return
			}
			attachments[id] = path
		}
	} else {
		var req BulkUpdateTravelRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, "Invalid request body", err)
			return
		}
		entries = req.Entries
	}

	if len(entries) == 0 {
		h.discardUploads(attachments)
		writeStatusError(w, http.StatusBadRequest, "No entries provided", nil)
		return
	}

	batch := make([]sqlite.Travel, 0, len(entries))
	for _, e := range entries {
		t, err := entryToTravel(e)
		if err != nil {
			h.discardUploads(attachments)
			writeError(w, "Invalid travel entry", err)
			return
		}
		t.Attachment = attachments[t.ID]
		batch = append(batch, t)
	}

	affected, err := h.Store.BulkUpdateTravels(r.Context(), batch)
	if err != nil {
		h.discardUploads(attachments)
		writeError(w, "Failed to update travel entries", err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{
		Message: fmt.Sprintf("%d travel entries updated", affected),
	})
}

func (h *Handler) discardUploads(paths map[int64]string) {
	for _, p := range paths {
		h.discardUpload(p)
	}
}

// attachmentTarget extracts the target entry id from a bulk attachment
// filename of the form "{id}-name.pdf".
func attachmentTarget(filename string) (int64, bool) {
	prefix, _, found := strings.Cut(filename, "-")
	if !found {
		return 0, false
	}
	id, err := strconv.ParseInt(prefix, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// splitRoster splits a semicolon-packed roster cell into trimmed,
// non-empty parts, returning a single empty part for an empty cell.
func splitRoster(cell string) []string {
	parts := []string{}
	for _, p := range strings.Split(cell, ";") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		parts = append(parts, "")
	}
	return parts
}

// rosterAt returns the i-th roster part, falling back to the whole-row
// value when the packed column has fewer parts than names.
func rosterAt(parts []string, i int, fallback string) string {
	if i < len(parts) {
		return parts[i]
	}
	return fallback
}
