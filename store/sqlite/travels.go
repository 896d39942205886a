package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/docuflow/records-engine/records"
)

// Travel is one travel authorization. Initial and Name are carried for
// spreadsheet-ingested rows that predate employee linkage; EmployeeID
// links to the employees collection when known. Attachment holds the
// public /uploads/ path of the owned PDF, if any.
type Travel struct {
	ID                  int64
	EmployeeID          int64
	Initial             string
	Name                string
	PositionDesignation string
	Station             string
	Purpose             string
	Host                string
	DatesFrom           string
	DatesTo             string
	Destination         string
	Area                string
	SOF                 string
	Attachment          string
	CreatedAt           time.Time

	// EmployeeName is populated by list queries joining employees.
	EmployeeName string
}

// TravelFilter selects travels for the ad-hoc filtered listing.
type TravelFilter struct {
	Name     string
	Initial  string
	FromDate string
	ToDate   string
	SOF      string
}

// SelectiveDelete filters rows for bulk deletion by id set and/or date
// range. At least one criterion must be present.
type SelectiveDelete struct {
	IDs      []int64
	FromDate string
	ToDate   string
}

func (f SelectiveDelete) empty() bool {
	return len(f.IDs) == 0 && f.FromDate == "" && f.ToDate == ""
}

func validateTravel(t Travel) error {
	required := []struct {
		name  string
		value string
	}{
		{"positiondesignation", t.PositionDesignation},
		{"station", t.Station},
		{"purpose", t.Purpose},
		{"host", t.Host},
		{"datesfrom", t.DatesFrom},
		{"datesto", t.DatesTo},
		{"destination", t.Destination},
		{"area", t.Area},
		{"sof", t.SOF},
	}
	if t.EmployeeID == 0 {
		return records.Validationf("employeeID is required")
	}
	for _, f := range required {
		if f.value == "" {
			return records.Validationf("%s is required", f.name)
		}
	}
	return nil
}

const travelColumns = `id, employee_id, initial, name, position_designation, station, purpose, host,
	dates_from, dates_to, destination, area, sof, attachment, created_at`

func scanTravel(rows *sql.Rows) (Travel, error) {
	var t Travel
	var employeeID sql.NullInt64
	var datesFrom, datesTo, attachment sql.NullString
	var createdAt string
	err := rows.Scan(&t.ID, &employeeID, &t.Initial, &t.Name, &t.PositionDesignation,
		&t.Station, &t.Purpose, &t.Host, &datesFrom, &datesTo,
		&t.Destination, &t.Area, &t.SOF, &attachment, &createdAt)
	if err != nil {
		return t, records.Storef("scan travel", err)
	}
	t.EmployeeID = employeeID.Int64
	t.DatesFrom = datesFrom.String
	t.DatesTo = datesTo.String
	t.Attachment = attachment.String
	t.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return t, nil
}

// ListTravels returns all travel authorizations with the linked employee
// name when the employee record exists.
func (s *Store) ListTravels(ctx context.Context) ([]Travel, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT t.id, t.employee_id, t.initial, t.name, t.position_designation, t.station,
		        t.purpose, t.host, t.dates_from, t.dates_to, t.destination, t.area, t.sof,
		        t.attachment, t.created_at, e.fullname
		 FROM travels t LEFT JOIN employees e ON e.uid = t.employee_id
		 ORDER BY t.dates_from DESC`)
	if err != nil {
		return nil, records.Storef("list travels", err)
	}
	defer rows.Close()

	var travels []Travel
	for rows.Next() {
		var t Travel
		var employeeID sql.NullInt64
		var datesFrom, datesTo, attachment, fullname sql.NullString
		var createdAt string
		if err := rows.Scan(&t.ID, &employeeID, &t.Initial, &t.Name, &t.PositionDesignation,
			&t.Station, &t.Purpose, &t.Host, &datesFrom, &datesTo,
			&t.Destination, &t.Area, &t.SOF, &attachment, &createdAt, &fullname); err != nil {
			return nil, records.Storef("scan travel", err)
		}
		t.EmployeeID = employeeID.Int64
		t.DatesFrom = datesFrom.String
		t.DatesTo = datesTo.String
		t.Attachment = attachment.String
		t.EmployeeName = fullname.String
		t.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		travels = append(travels, t)
	}
	return travels, rows.Err()
}

// FilterTravels returns travels matching the ad-hoc filter. With no
// criteria the listing is capped at 1000 rows.
func (s *Store) FilterTravels(ctx context.Context, f TravelFilter) ([]Travel, error) {
	query := `SELECT ` + travelColumns + ` FROM travels WHERE 1=1`
	var args []any
	if f.Name != "" {
		query += ` AND name LIKE ?`
		args = append(args, "%"+f.Name+"%")
	}
	if f.Initial != "" {
		query += ` AND initial = ?`
		args = append(args, f.Initial)
	}
	if f.FromDate != "" {
		query += ` AND dates_from >= ?`
		args = append(args, f.FromDate)
	}
	if f.ToDate != "" {
		query += ` AND dates_to <= ?`
		args = append(args, f.ToDate)
	}
	if f.SOF != "" {
		query += ` AND sof LIKE ?`
		args = append(args, "%"+f.SOF+"%")
	}
	query += ` ORDER BY dates_from DESC`
	if len(args) == 0 {
		query += ` LIMIT 1000`
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, records.Storef("filter travels", err)
	}
	defer rows.Close()

	var travels []Travel
	for rows.Next() {
		t, err := scanTravel(rows)
		if err != nil {
			return nil, err
		}
		travels = append(travels, t)
	}
	return travels, rows.Err()
}

// CreateTravel inserts one travel authorization and returns its id.
func (s *Store) CreateTravel(ctx context.Context, t Travel) (int64, error) {
	if err := validateTravel(t); err != nil {
		return 0, err
	}

	var id int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO travels (employee_id, initial, name, position_designation, station,
			   purpose, host, dates_from, dates_to, destination, area, sof, attachment, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			nullInt64(t.EmployeeID), t.Initial, t.Name, t.PositionDesignation, t.Station,
			t.Purpose, t.Host, t.DatesFrom, t.DatesTo, t.Destination, t.Area, t.SOF,
			nullString(t.Attachment), time.Now().UTC().Format(time.RFC3339))
		if err != nil {
			return records.Storef("insert travel", err)
		}
		id, _ = res.LastInsertId()
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.notifyMutated(records.CollectionTravels)
	return id, nil
}

// UpdateTravel replaces the fields of one travel authorization. When
// t.Attachment is non-empty it becomes the owned attachment and the
// previous file is deleted after commit; when empty the existing
// attachment is kept.
func (s *Store) UpdateTravel(ctx context.Context, id int64, t Travel) (int64, error) {
	if err := validateTravel(t); err != nil {
		return 0, err
	}

	var affected int64
	var oldAttachment string
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var prev sql.NullString
		err := tx.QueryRowContext(ctx, `SELECT attachment FROM travels WHERE id = ?`, id).Scan(&prev)
		if err == sql.ErrNoRows {
			return &records.NotFoundError{Collection: records.CollectionTravels, Detail: "travel entry not found"}
		}
		if err != nil {
			return records.Storef("load travel", err)
		}
		oldAttachment = prev.String

		attachment := t.Attachment
		if attachment == "" {
			attachment = oldAttachment
		}
		res, err := tx.ExecContext(ctx,
			`UPDATE travels SET employee_id = ?, initial = ?, name = ?, position_designation = ?,
			   station = ?, purpose = ?, host = ?, dates_from = ?, dates_to = ?,
			   destination = ?, area = ?, sof = ?, attachment = ?
			 WHERE id = ?`,
			nullInt64(t.EmployeeID), t.Initial, t.Name, t.PositionDesignation,
			t.Station, t.Purpose, t.Host, t.DatesFrom, t.DatesTo,
			t.Destination, t.Area, t.SOF, nullString(attachment), id)
		if err != nil {
			return records.Storef("update travel", err)
		}
		affected, _ = res.RowsAffected()
		if affected == 0 {
			return &records.NotFoundError{Collection: records.CollectionTravels, Detail: "travel entry not found"}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	// Old file is deleted only after the row durably points at the new one.
	if t.Attachment != "" && oldAttachment != "" && oldAttachment != t.Attachment {
		s.removeAttachment(oldAttachment)
	}
	s.notifyMutated(records.CollectionTravels)
	return affected, nil
}

// DeleteTravel removes one travel authorization and its attachment.
func (s *Store) DeleteTravel(ctx context.Context, id int64) (int64, error) {
	var affected int64
	var attachment string
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var prev sql.NullString
		err := tx.QueryRowContext(ctx, `SELECT attachment FROM travels WHERE id = ?`, id).Scan(&prev)
		if err == sql.ErrNoRows {
			return &records.NotFoundError{Collection: records.CollectionTravels, Detail: "travel entry not found"}
		}
		if err != nil {
			return records.Storef("load travel", err)
		}
		attachment = prev.String

		res, err := tx.ExecContext(ctx, `DELETE FROM travels WHERE id = ?`, id)
		if err != nil {
			return records.Storef("delete travel", err)
		}
		affected, _ = res.RowsAffected()
		if affected == 0 {
			return &records.NotFoundError{Collection: records.CollectionTravels, Detail: "travel entry not found"}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.removeAttachment(attachment)
	s.notifyMutated(records.CollectionTravels)
	return affected, nil
}

// SelectiveDeleteTravels deletes every travel matching the id set and/or
// date range, removing owned attachments after commit. Zero matches roll
// back with ErrNotFound and emit no notification.
func (s *Store) SelectiveDeleteTravels(ctx context.Context, f SelectiveDelete) (int64, error) {
	if f.empty() {
		return 0, records.Validationf("at least one filter is required")
	}

	where, args := selectiveWhere(f, "dates_from", "dates_to")
	var affected int64
	var attachments []string
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `SELECT attachment FROM travels`+where, args...)
		if err != nil {
			return records.Storef("select travel attachments", err)
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
			return records.Storef("select travel attachments", err)
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM travels`+where, args...)
		if err != nil {
			return records.Storef("selective delete travels", err)
		}
		affected, _ = res.RowsAffected()
		if affected == 0 {
			return &records.NotFoundError{Collection: records.CollectionTravels, Detail: "no matching entries found"}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	for _, a := range attachments {
		s.removeAttachment(a)
	}
	s.notifyMutated(records.CollectionTravels)
	return affected, nil
}

// BulkInsertTravels inserts a batch of travel rows in one transaction.
// With replaceAll the collection is emptied first and the whole request
// fails (rolled back) when zero rows survive validation; otherwise
// invalid rows are skipped and the valid remainder inserted.
func (s *Store) BulkInsertTravels(ctx context.Context, batch []Travel, replaceAll bool) (int64, error) {
	if len(batch) == 0 {
		return 0, records.Validationf("no travel rows provided")
	}

	valid := make([]Travel, 0, len(batch))
	for _, t := range batch {
		if validateTravel(t) == nil {
			valid = append(valid, t)
		}
	}

	var affected int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if replaceAll {
			if _, err := tx.ExecContext(ctx, `DELETE FROM travels`); err != nil {
				return records.Storef("clear travels", err)
			}
		}
		if len(valid) == 0 {
			// Rolls back the delete above, leaving prior rows intact.
			return records.Validationf("no valid data rows after parsing")
		}
		now := time.Now().UTC().Format(time.RFC3339)
		for _, t := range valid {
			res, err := tx.ExecContext(ctx,
				`INSERT INTO travels (employee_id, initial, name, position_designation, station,
				   purpose, host, dates_from, dates_to, destination, area, sof, created_at)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				nullInt64(t.EmployeeID), t.Initial, t.Name, t.PositionDesignation, t.Station,
				t.Purpose, t.Host, t.DatesFrom, t.DatesTo, t.Destination, t.Area, t.SOF, now)
			if err != nil {
				return records.Storef("bulk insert travel", err)
			}
			n, _ := res.RowsAffected()
			affected += n
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.notifyMutated(records.CollectionTravels)
	return affected, nil
}

// BulkUpdateTravels updates a batch of travel authorizations in one
// transaction. Every entry must carry its id and pass full validation;
// any entry targeting a missing id fails the whole batch with
// ErrNotFound (rolled back, no files touched). Entries with a non-empty
// Attachment replace the owned file; replaced files are deleted after
// commit.
func (s *Store) BulkUpdateTravels(ctx context.Context, batch []Travel) (int64, error) {
	if len(batch) == 0 {
		return 0, records.Validationf("no entries provided")
	}
	for _, t := range batch {
		if t.ID == 0 {
			return 0, records.Validationf("id is required")
		}
		if err := validateTravel(t); err != nil {
			return 0, err
		}
	}

	var affected int64
	var replaced []string
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		for _, t := range batch {
			var prev sql.NullString
			err := tx.QueryRowContext(ctx, `SELECT attachment FROM travels WHERE id = ?`, t.ID).Scan(&prev)
			if err == sql.ErrNoRows {
				return &records.NotFoundError{Collection: records.CollectionTravels, Detail: "some entries were not found"}
			}
			if err != nil {
				return records.Storef("load travel", err)
			}

			attachment := t.Attachment
			if attachment == "" {
				attachment = prev.String
			}
			res, err := tx.ExecContext(ctx,
				`UPDATE travels SET employee_id = ?, initial = ?, name = ?, position_designation = ?,
				   station = ?, purpose = ?, host = ?, dates_from = ?, dates_to = ?,
				   destination = ?, area = ?, sof = ?, attachment = ?
				 WHERE id = ?`,
				nullInt64(t.EmployeeID), t.Initial, t.Name, t.PositionDesignation,
				t.Station, t.Purpose, t.Host, t.DatesFrom, t.DatesTo,
				t.Destination, t.Area, t.SOF, nullString(attachment), t.ID)
			if err != nil {
				return records.Storef("bulk update travel", err)
			}
			n, _ := res.RowsAffected()
			if n == 0 {
				return &records.NotFoundError{Collection: records.CollectionTravels, Detail: "some entries were not found"}
			}
			affected += n
			if t.Attachment != "" && prev.String != "" && prev.String != t.Attachment {
				replaced = append(replaced, prev.String)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	for _, a := range replaced {
		s.removeAttachment(a)
	}
	s.notifyMutated(records.CollectionTravels)
	return affected, nil
}

// IngestTravelRows inserts spreadsheet-shaped travel rows (name/initial
// keyed, no employee linkage). Rows without a name or start date are
// skipped.
func (s *Store) IngestTravelRows(ctx context.Context, batch []Travel) (int64, error) {
	if len(batch) == 0 {
		return 0, records.Validationf("no travel rows provided")
	}

	var affected int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		now := time.Now().UTC().Format(time.RFC3339)
		for _, t := range batch {
			if t.Name == "" || t.DatesFrom == "" {
				continue
			}
			res, err := tx.ExecContext(ctx,
				`INSERT INTO travels (employee_id, initial, name, position_designation, station,
				   purpose, host, dates_from, dates_to, destination, area, sof, created_at)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				nullInt64(t.EmployeeID), t.Initial, t.Name, t.PositionDesignation, t.Station,
				t.Purpose, t.Host, t.DatesFrom, nullString(t.DatesTo), t.Destination, t.Area, t.SOF, now)
			if err != nil {
				return records.Storef("ingest travel row", err)
			}
			n, _ := res.RowsAffected()
			affected += n
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.notifyMutated(records.CollectionTravels)
	return affected, nil
}

// selectiveWhere builds the WHERE clause shared by selective deletes.
func selectiveWhere(f SelectiveDelete, fromCol, toCol string) (string, []any) {
	clauses := []string{"1=1"}
	var args []any
	if len(f.IDs) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(f.IDs)), ",")
		clauses = append(clauses, fmt.Sprintf("id IN (%s)", placeholders))
		for _, id := range f.IDs {
			args = append(args, id)
		}
	}
	if f.FromDate != "" {
		clauses = append(clauses, fromCol+" >= ?")
		args = append(args, f.FromDate)
	}
	if f.ToDate != "" {
		clauses = append(clauses, toCol+" <= ?")
		args = append(args, f.ToDate)
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}
