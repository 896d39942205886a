/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. Field names mirror
  the contract the browser UI already speaks (mixed-case legacy names
  included), so this backend is a drop-in replacement.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

VALIDATION:
  Validation is done in the store, not in DTOs. DTOs are pure data
  carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - graph.go: GraphResponse assembly
*/
package api

import (
	"github.com/docuflow/records-engine/store/sqlite"
)

// =============================================================================
// EMPLOYEES
// =============================================================================

// EmployeeDTO represents an employee in API responses.
type EmployeeDTO struct {
	UID           int64  `json:"uid"`
	Office        string `json:"office"`
	FullName      string `json:"fullname"`
	PositionTitle string `json:"positionTitle"`
	Initial       string `json:"Initial"`
	SOF           string `json:"sof"`
}

func toEmployeeDTO(e sqlite.Employee) EmployeeDTO {
	return EmployeeDTO{
		UID:           e.UID,
		Office:        e.Office,
		FullName:      e.FullName,
		PositionTitle: e.PositionTitle,
		Initial:       e.Initial,
		SOF:           e.SOF,
	}
}

// CreateEmployeeRequest is the request to create an employee.
type CreateEmployeeRequest struct {
	Office        string `json:"office"`
	FullName      string `json:"fullname"`
	PositionTitle string `json:"positionTitle"`
	Initial       string `json:"Initial"`
	SOF           string `json:"sof"`
}

// SpreadsheetUploadRequest carries parsed spreadsheet rows as loose
// column-name keyed maps. Cell values may arrive as strings or numbers
// (Excel date serials), so values are decoded as any.
type SpreadsheetUploadRequest struct {
	FileContent []map[string]any `json:"fileContent"`
}

// =============================================================================
// TRAVELS
// =============================================================================

// TravelDTO represents a travel authorization in API responses. The
// employee's name is joined in when the linked record exists.
type TravelDTO struct {
	ID                  int64  `json:"id"`
	EmployeeID          int64  `json:"employee_ID,omitempty"`
	Initial             string `json:"Initial"`
	Name                string `json:"Name"`
	PositionDesignation string `json:"PositionDesignation"`
	Station             string `json:"Station"`
	Purpose             string `json:"Purpose"`
	Host                string `json:"Host"`
	DatesFrom           string `json:"DatesFrom"`
	DatesTo             string `json:"DatesTo"`
	Destination         string `json:"Destination"`
	Area                string `json:"Area"`
	SOF                 string `json:"sof"`
	Attachment          string `json:"Attachment,omitempty"`
	FullName            string `json:"fullname,omitempty"`
}

func toTravelDTO(t sqlite.Travel) TravelDTO {
	return TravelDTO{
		ID:                  t.ID,
		EmployeeID:          t.EmployeeID,
		Initial:             t.Initial,
		Name:                t.Name,
		PositionDesignation: t.PositionDesignation,
		Station:             t.Station,
		Purpose:             t.Purpose,
		Host:                t.Host,
		DatesFrom:           t.DatesFrom,
		DatesTo:             t.DatesTo,
		Destination:         t.Destination,
		Area:                t.Area,
		SOF:                 t.SOF,
		Attachment:          t.Attachment,
		FullName:            t.EmployeeName,
	}
}

// TravelEntryRequest is one travel entry in create, update, and bulk
// bodies. Field names match the legacy form contract.
type TravelEntryRequest struct {
	ID                  int64  `json:"id,omitempty"`
	EmployeeID          string `json:"employeeID"`
	PositionDesignation string `json:"positiondesignation"`
	Station             string `json:"station"`
	Purpose             string `json:"purpose"`
	Host                string `json:"host"`
	DatesFrom           string `json:"datesfrom"`
	DatesTo             string `json:"datesto"`
	// Bulk insert bodies carry the range under different names.
	FromDate    string `json:"fromDate,omitempty"`
	ToDate      string `json:"toDate,omitempty"`
	Destination string `json:"destination"`
	Area        string `json:"area"`
	SOF         string `json:"sof"`
}

// BulkTravelRequest is the body of POST /travels/bulk. Entries are
// appended unless ReplaceAll is set, in which case the collection is
// atomically replaced. A bare JSON array is also accepted (append only).
type BulkTravelRequest struct {
	ReplaceAll bool                 `json:"replace_all"`
	Entries    []TravelEntryRequest `json:"entries"`
}

// BulkUpdateTravelRequest is the JSON variant of PUT /travels/bulk.
type BulkUpdateTravelRequest struct {
	Entries []TravelEntryRequest `json:"entries"`
}

// =============================================================================
// APPOINTMENTS
// =============================================================================

// AppointmentDTO represents an appointment document in API responses.
type AppointmentDTO struct {
	ID                int64  `json:"id"`
	Name              string `json:"name"`
	PositionTitle     string `json:"positionTitle"`
	StatusAppointment string `json:"statusAppointment"`
	SchoolOffice      string `json:"schoolOffice"`
	NatureAppointment string `json:"natureAppointment"`
	ItemNo            string `json:"itemNo"`
	DateSigned        string `json:"DateSigned"`
	PDFPath           string `json:"pdfPath,omitempty"`
}

func toAppointmentDTO(a sqlite.Appointment) AppointmentDTO {
	return AppointmentDTO{
		ID:                a.ID,
		Name:              a.Name,
		PositionTitle:     a.PositionTitle,
		StatusAppointment: a.StatusAppointment,
		SchoolOffice:      a.SchoolOffice,
		NatureAppointment: a.NatureAppointment,
		ItemNo:            a.ItemNo,
		DateSigned:        a.DateSigned,
		PDFPath:           a.PDFPath,
	}
}

// AppointmentEntryRequest is one appointment in create, update, and bulk
// bodies.
type AppointmentEntryRequest struct {
	Name              string `json:"name"`
	PositionTitle     string `json:"positionTitle"`
	StatusAppointment string `json:"statusAppointment"`
	SchoolOffice      string `json:"schoolOffice"`
	NatureAppointment string `json:"natureAppointment"`
	ItemNo            string `json:"itemNo"`
	DateSigned        string `json:"DateSigned"`
}

// BulkAppointmentRequest is the body of POST /appointments/bulk.
type BulkAppointmentRequest struct {
	Appointments []AppointmentEntryRequest `json:"appointments"`
}

// SelectiveDeleteRequest selects records for bulk deletion by id set
// and/or date range. At least one criterion is required.
type SelectiveDeleteRequest struct {
	IDs      []int64 `json:"ids"`
	FromDate string  `json:"fromDate"`
	ToDate   string  `json:"toDate"`
}

// =============================================================================
// GRAPHS
// =============================================================================

// GraphDataset is one positional series of a graph response.
type GraphDataset struct {
	Label           string `json:"label"`
	Data            []int  `json:"data"`
	BackgroundColor string `json:"backgroundColor"`
}

// GraphResponse is the chart-ready aggregate report shape: labels and
// dataset values are positionally paired. Zero matches yield empty
// arrays, never null.
type GraphResponse struct {
	Labels   []string       `json:"labels"`
	Datasets []GraphDataset `json:"datasets"`
}

// =============================================================================
// CHAT
// =============================================================================

// ChatRequest is the assistant passthrough body: the user's message plus
// the client's current appointment list for context.
type ChatRequest struct {
	Message      string           `json:"message"`
	Appointments []AppointmentDTO `json:"appointments"`
}

// ChatResponse wraps the assistant's reply.
type ChatResponse struct {
	Response string `json:"response"`
}

// =============================================================================
// COMMON
// =============================================================================

// TravelWriteResponse acknowledges a travel create or update.
type TravelWriteResponse struct {
	ID             int64  `json:"id,omitempty"`
	Message        string `json:"message,omitempty"`
	AttachmentPath string `json:"attachmentPath"`
}

// AppointmentWriteResponse acknowledges an appointment create or update.
type AppointmentWriteResponse struct {
	ID      int64  `json:"id,omitempty"`
	Message string `json:"message,omitempty"`
	PDFPath string `json:"pdfPath"`
}

// MessageResponse is the generic success envelope.
type MessageResponse struct {
	Message string `json:"message"`
	ID      int64  `json:"id,omitempty"`
	Path    string `json:"path,omitempty"`
}

// ErrorResponse is the error envelope for all failures.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
