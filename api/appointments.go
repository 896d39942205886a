package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/docuflow/records-engine/records"
	"github.com/docuflow/records-engine/store/sqlite"
)

// readAppointmentEntry parses an appointment create/update body
// (multipart form with optional attachment, or plain JSON).
func (h *Handler) readAppointmentEntry(r *http.Request) (AppointmentEntryRequest, string, error) {
	if !isMultipart(r) {
		var e AppointmentEntryRequest
		err := decodeJSON(r, &e)
		return e, "", err
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return AppointmentEntryRequest{}, "", records.Validationf("invalid multipart form: %v", err)
	}
	e := AppointmentEntryRequest{
		Name:              r.FormValue("name"),
		PositionTitle:     r.FormValue("positionTitle"),
		StatusAppointment: r.FormValue("statusAppointment"),
		SchoolOffice:      r.FormValue("schoolOffice"),
		NatureAppointment: r.FormValue("natureAppointment"),
		ItemNo:            r.FormValue("itemNo"),
		DateSigned:        r.FormValue("DateSigned"),
	}
	path, err := h.saveUpload(r, "attachment")
	if err != nil {
		return AppointmentEntryRequest{}, "", err
	}
	return e, path, nil
}

func entryToAppointment(e AppointmentEntryRequest) sqlite.Appointment {
	return sqlite.Appointment{
		Name:              e.Name,
		PositionTitle:     e.PositionTitle,
		StatusAppointment: e.StatusAppointment,
		SchoolOffice:      e.SchoolOffice,
		NatureAppointment: e.NatureAppointment,
		ItemNo:            e.ItemNo,
		DateSigned:        normalizeDate(e.DateSigned),
	}
}

// ListAppointments returns all appointment documents.
func (h *Handler) ListAppointments(w http.ResponseWriter, r *http.Request) {
	appointments, err := h.Store.ListAppointments(r.Context())
	if err != nil {
		writeError(w, "Failed to fetch appointments", err)
		return
	}

	dtos := make([]AppointmentDTO, len(appointments))
	for i, a := range appointments {
		dtos[i] = toAppointmentDTO(a)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateAppointment creates one appointment, optionally with a multipart
// PDF attachment.
func (h *Handler) CreateAppointment(w http.ResponseWriter, r *http.Request) {
	entry, attachment, err := h.readAppointmentEntry(r)
	if err != nil {
		writeError(w, "Invalid request body", err)
		return
	}

	appointment := entryToAppointment(entry)
	appointment.PDFPath = attachment

	id, err := h.Store.CreateAppointment(r.Context(), appointment)
	if err != nil {
		h.discardUpload(attachment)
		writeError(w, "Failed to insert appointment", err)
		return
	}
	writeJSON(w, http.StatusCreated, AppointmentWriteResponse{ID: id, PDFPath: attachment})
}

// UpdateAppointment replaces one appointment. A new attachment replaces
// the owned file; omitting it keeps the existing one.
func (h *Handler) UpdateAppointment(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "Invalid appointment id", err)
		return
	}

	entry, attachment, err := h.readAppointmentEntry(r)
	if err != nil {
		writeError(w, "Invalid request body", err)
		return
	}

	appointment := entryToAppointment(entry)
	appointment.PDFPath = attachment

	if _, err := h.Store.UpdateAppointment(r.Context(), id, appointment); err != nil {
		h.discardUpload(attachment)
		writeError(w, "Failed to update appointment", err)
		return
	}
	writeJSON(w, http.StatusOK, AppointmentWriteResponse{Message: "Appointment updated", PDFPath: attachment})
}

// DeleteAppointment removes one appointment and its attachment.
func (h *Handler) DeleteAppointment(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "Invalid appointment id", err)
		return
	}

	if _, err := h.Store.DeleteAppointment(r.Context(), id); err != nil {
		writeError(w, "Failed to delete appointment", err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Appointment deleted"})
}

// SelectiveDeleteAppointments deletes every appointment matching an id
// set and/or date range.
func (h *Handler) SelectiveDeleteAppointments(w http.ResponseWriter, r *http.Request) {
	var req SelectiveDeleteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, "Invalid request body", err)
		return
	}

	affected, err := h.Store.SelectiveDeleteAppointments(r.Context(), sqlite.SelectiveDelete{
		IDs:      req.IDs,
		FromDate: normalizeDate(req.FromDate),
		ToDate:   normalizeDate(req.ToDate),
	})
	if err != nil {
		writeError(w, "Failed to delete appointments", err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{
		Message: fmt.Sprintf("%d appointments deleted", affected),
	})
}

// BulkInsertAppointments inserts a JSON batch of appointments.
func (h *Handler) BulkInsertAppointments(w http.ResponseWriter, r *http.Request) {
	var req BulkAppointmentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, "Invalid request body", err)
		return
	}
	if len(req.Appointments) == 0 {
		writeStatusError(w, http.StatusBadRequest, "No data provided", nil)
		return
	}

	batch := make([]sqlite.Appointment, 0, len(req.Appointments))
	for _, e := range req.Appointments {
		batch = append(batch, entryToAppointment(e))
	}

	affected, err := h.Store.BulkInsertAppointments(r.Context(), batch)
	if err != nil {
		writeError(w, "Bulk insert failed", err)
		return
	}
	writeJSON(w, http.StatusCreated, MessageResponse{
		Message: fmt.Sprintf("%d appointments inserted successfully", affected),
	})
}

// UploadAppointmentAttachment stores a PDF and associates it with an
// existing appointment, replacing any previously owned file.
func (h *Handler) UploadAppointmentAttachment(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "Invalid appointment id", err)
		return
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		writeStatusError(w, http.StatusBadRequest, "No file uploaded", err)
		return
	}
	path, err := h.saveUpload(r, "attachment")
	if err != nil {
		writeError(w, "Failed to store attachment", err)
		return
	}
	if path == "" {
		writeStatusError(w, http.StatusBadRequest, "No file uploaded", errors.New("attachment field missing"))
		return
	}

	if err := h.Store.SetAppointmentAttachment(r.Context(), id, path); err != nil {
		h.discardUpload(path)
		writeError(w, "Failed to upload attachment", err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "File uploaded successfully", Path: path})
}
