package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/docuflow/records-engine/store/sqlite"
)

// ListEmployees returns all employees.
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Store.ListEmployees(r.Context())
	if err != nil {
		writeError(w, "Failed to fetch employees", err)
		return
	}

	dtos := make([]EmployeeDTO, len(employees))
	for i, e := range employees {
		dtos[i] = toEmployeeDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateEmployee creates one employee. A duplicate natural key is an
// idempotent no-op returning the existing record's id.
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req CreateEmployeeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, "Invalid request body", err)
		return
	}

	id, _, err := h.Store.CreateEmployee(r.Context(), sqlite.Employee{
		Office:        req.Office,
		FullName:      req.FullName,
		PositionTitle: req.PositionTitle,
		Initial:       req.Initial,
		SOF:           req.SOF,
	})
	if err != nil {
		writeError(w, "Failed to insert employee", err)
		return
	}

	writeJSON(w, http.StatusCreated, MessageResponse{ID: id, Message: "Employee created"})
}

// DeleteEmployee removes one employee by id.
func (h *Handler) DeleteEmployee(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "Invalid employee id", err)
		return
	}

	if _, err := h.Store.DeleteEmployee(r.Context(), id); err != nil {
		writeError(w, "Failed to delete employee", err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Employee deleted"})
}

// UploadEmployees ingests parsed spreadsheet rows. Column names follow
// the legacy sheet layout; rows missing required columns are skipped.
func (h *Handler) UploadEmployees(w http.ResponseWriter, r *http.Request) {
	var req SpreadsheetUploadRequest
	if err := decodeJSON(r, &req); err != nil || len(req.FileContent) == 0 {
		writeStatusError(w, http.StatusBadRequest, "No valid data provided", err)
		return
	}

	batch := make([]sqlite.Employee, 0, len(req.FileContent))
	for _, row := range req.FileContent {
		batch = append(batch, sqlite.Employee{
			Office:        cellString(row["Official Station"]),
			FullName:      cellString(row["Name"]),
			PositionTitle: cellString(row["Position"]),
			Initial:       cellString(row["Initial"]),
			SOF:           cellString(row["sof"]),
		})
	}

	affected, err := h.Store.BulkCreateEmployees(r.Context(), batch)
	if err != nil {
		writeError(w, "Failed to process data", err)
		return
	}
	writeJSON(w, http.StatusCreated, MessageResponse{
		Message: fmt.Sprintf("%d employees inserted/updated", affected),
	})
}
