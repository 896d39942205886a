package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/docuflow/records-engine/records"
)

// Appointment is one appointment document. PDFPath holds the public
// /uploads/ path of the owned attachment, if any.
type Appointment struct {
	ID                int64
	Name              string
	PositionTitle     string
	StatusAppointment string
	SchoolOffice      string
	NatureAppointment string
	ItemNo            string
	DateSigned        string
	PDFPath           string
	CreatedAt         time.Time
}

func validateAppointment(a Appointment) error {
	switch {
	case a.Name == "":
		return records.Validationf("name is required")
	case a.PositionTitle == "":
		return records.Validationf("positionTitle is required")
	case a.StatusAppointment == "":
		return records.Validationf("statusAppointment is required")
	case a.SchoolOffice == "":
		return records.Validationf("schoolOffice is required")
	case a.DateSigned == "":
		return records.Validationf("DateSigned is required")
	}
	return nil
}

const appointmentColumns = `id, name, position_title, status_appointment, school_office,
	nature_appointment, item_no, date_signed, pdf_path, created_at`

func scanAppointment(rows *sql.Rows) (Appointment, error) {
	var a Appointment
	var dateSigned, pdfPath sql.NullString
	var createdAt string
	err := rows.Scan(&a.ID, &a.Name, &a.PositionTitle, &a.StatusAppointment, &a.SchoolOffice,
		&a.NatureAppointment, &a.ItemNo, &dateSigned, &pdfPath, &createdAt)
	if err != nil {
		return a, records.Storef("scan appointment", err)
	}
	a.DateSigned = dateSigned.String
	a.PDFPath = pdfPath.String
	a.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return a, nil
}

// ListAppointments returns all appointment documents.
func (s *Store) ListAppointments(ctx context.Context) ([]Appointment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+appointmentColumns+` FROM appointments ORDER BY date_signed DESC`)
	if err != nil {
		return nil, records.Storef("list appointments", err)
	}
	defer rows.Close()

	var appointments []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appointments = append(appointments, a)
	}
	return appointments, rows.Err()
}

// CreateAppointment inserts one appointment and returns its id.
func (s *Store) CreateAppointment(ctx context.Context, a Appointment) (int64, error) {
	if err := validateAppointment(a); err != nil {
		return 0, err
	}

	var id int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO appointments (name, position_title, status_appointment, school_office,
			   nature_appointment, item_no, date_signed, pdf_path, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			a.Name, a.PositionTitle, a.StatusAppointment, a.SchoolOffice,
			a.NatureAppointment, a.ItemNo, a.DateSigned, nullString(a.PDFPath),
			time.Now().UTC().Format(time.RFC3339))
		if err != nil {
			return records.Storef("insert appointment", err)
		}
		id, _ = res.LastInsertId()
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.notifyMutated(records.CollectionAppointments)
	return id, nil
}

// UpdateAppointment replaces the fields of one appointment. A non-empty
// a.PDFPath becomes the owned attachment (the previous file is deleted
// after commit); empty keeps the existing one.
func (s *Store) UpdateAppointment(ctx context.Context, id int64, a Appointment) (int64, error) {
	if err := validateAppointment(a); err != nil {
		return 0, err
	}

	var affected int64
	var oldPath string
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var prev sql.NullString
		err := tx.QueryRowContext(ctx, `SELECT pdf_path FROM appointments WHERE id = ?`, id).Scan(&prev)
		if err == sql.ErrNoRows {
			return &records.NotFoundError{Collection: records.CollectionAppointments, Detail: "appointment not found"}
		}
		if err != nil {
			return records.Storef("load appointment", err)
		}
		oldPath = prev.String

		path := a.PDFPath
		if path == "" {
			path = oldPath
		}
		res, err := tx.ExecContext(ctx,
			`UPDATE appointments SET name = ?, position_title = ?, status_appointment = ?,
			   school_office = ?, nature_appointment = ?, item_no = ?, date_signed = ?, pdf_path = ?
			 WHERE id = ?`,
			a.Name, a.PositionTitle, a.StatusAppointment, a.SchoolOffice,
			a.NatureAppointment, a.ItemNo, a.DateSigned, nullString(path), id)
		if err != nil {
			return records.Storef("update appointment", err)
		}
		affected, _ = res.RowsAffected()
		if affected == 0 {
			return &records.NotFoundError{Collection: records.CollectionAppointments, Detail: "appointment not found"}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if a.PDFPath != "" && oldPath != "" && oldPath != a.PDFPath {
		s.removeAttachment(oldPath)
	}
	s.notifyMutated(records.CollectionAppointments)
	return affected, nil
}

// SetAppointmentAttachment associates a freshly stored attachment with an
// appointment, deleting the previously owned file after commit.
func (s *Store) SetAppointmentAttachment(ctx context.Context, id int64, path string) error {
	if path == "" {
		return records.Validationf("attachment path is required")
	}

	var oldPath string
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var prev sql.NullString
		err := tx.QueryRowContext(ctx, `SELECT pdf_path FROM appointments WHERE id = ?`, id).Scan(&prev)
		if err == sql.ErrNoRows {
			return &records.NotFoundError{Collection: records.CollectionAppointments, Detail: "appointment not found"}
		}
		if err != nil {
			return records.Storef("load appointment", err)
		}
		oldPath = prev.String

		res, err := tx.ExecContext(ctx, `UPDATE appointments SET pdf_path = ? WHERE id = ?`, path, id)
		if err != nil {
			return records.Storef("set appointment attachment", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return &records.NotFoundError{Collection: records.CollectionAppointments, Detail: "appointment not found"}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if oldPath != "" && oldPath != path {
		s.removeAttachment(oldPath)
	}
	s.notifyMutated(records.CollectionAppointments)
	return nil
}

// DeleteAppointment removes one appointment and its attachment.
func (s *Store) DeleteAppointment(ctx context.Context, id int64) (int64, error) {
	var affected int64
	var path string
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var prev sql.NullString
		err := tx.QueryRowContext(ctx, `SELECT pdf_path FROM appointments WHERE id = ?`, id).Scan(&prev)
		if err == sql.ErrNoRows {
			return &records.NotFoundError{Collection: records.CollectionAppointments, Detail: "appointment not found"}
		}
		if err != nil {
			return records.Storef("load appointment", err)
		}
		path = prev.String

		res, err := tx.ExecContext(ctx, `DELETE FROM appointments WHERE id = ?`, id)
		if err != nil {
			return records.Storef("delete appointment", err)
		}
		affected, _ = res.RowsAffected()
		if affected == 0 {
			return &records.NotFoundError{Collection: records.CollectionAppointments, Detail: "appointment not found"}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.removeAttachment(path)
	s.notifyMutated(records.CollectionAppointments)
	return affected, nil
}

// SelectiveDeleteAppointments deletes every appointment matching the id
// set and/or DateSigned range, removing owned attachments after commit.
func (s *Store) SelectiveDeleteAppointments(ctx context.Context, f SelectiveDelete) (int64, error) {
	if f.empty() {
		return 0, records.Validationf("at least one filter (ids, fromDate, or toDate) is required")
	}

	where, args := selectiveWhere(f, "date_signed", "date_signed")
	var affected int64
	var attachments []string
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `SELECT pdf_path FROM appointments`+where, args...)
		if err != nil {
			return records.Storef("select appointment attachments", err)
		}
		for rows.Next() {
			var a sql.NullString
			if err := rows.Scan(&a); err != nil {
				rows.Close()
				return records.Storef("scan attachment", err)
			}
			if a.String != "" {
				attachments = append(attachments, a.String)
			}
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return records.Storef("select appointment attachments", err)
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM appointments`+where, args...)
		if err != nil {
			return records.Storef("selective delete appointments", err)
		}
		affected, _ = res.RowsAffected()
		if affected == 0 {
			return &records.NotFoundError{Collection: records.CollectionAppointments, Detail: "no matching appointments found"}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	for _, a := range attachments {
		s.removeAttachment(a)
	}
	s.notifyMutated(records.CollectionAppointments)
	return affected, nil
}

// BulkInsertAppointments inserts a batch of appointment rows in one
// transaction, skipping rows that fail required-field validation. Fails
// with ErrValidation when no row survives.
func (s *Store) BulkInsertAppointments(ctx context.Context, batch []Appointment) (int64, error) {
	if len(batch) == 0 {
		return 0, records.Validationf("no appointment rows provided")
	}

	valid := make([]Appointment, 0, len(batch))
	for _, a := range batch {
		if validateAppointment(a) == nil {
			valid = append(valid, a)
		}
	}
	if len(valid) == 0 {
		return 0, records.Validationf("no valid appointment rows")
	}

	var affected int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		now := time.Now().UTC().Format(time.RFC3339)
		for _, a := range valid {
			res, err := tx.ExecContext(ctx,
				`INSERT INTO appointments (name, position_title, status_appointment, school_office,
				   nature_appointment, item_no, date_signed, pdf_path, created_at)
				 VALUES (?, ?, ?, ?, ?, ?, ?, NULL, ?)`,
				a.Name, a.PositionTitle, a.StatusAppointment, a.SchoolOffice,
				a.NatureAppointment, a.ItemNo, a.DateSigned, now)
			if err != nil {
				return records.Storef("bulk insert appointment", err)
			}
			n, _ := res.RowsAffected()
			affected += n
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.notifyMutated(records.CollectionAppointments)
	return affected, nil
}
