package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/docuflow/records-engine/records"
)

// Employee is one employee record. The natural key for idempotent
// ingestion is (fullname, initial).
type Employee struct {
	UID           int64
	Office        string
	FullName      string
	PositionTitle string
	Initial       string
	SOF           string
	CreatedAt     time.Time
}

func validateEmployee(e Employee) error {
	switch {
	case e.Office == "":
		return records.Validationf("office is required")
	case e.FullName == "":
		return records.Validationf("fullname is required")
	case e.PositionTitle == "":
		return records.Validationf("positionTitle is required")
	case e.Initial == "":
		return records.Validationf("Initial is required")
	}
	return nil
}

// ListEmployees returns all employees ordered by name.
func (s *Store) ListEmployees(ctx context.Context) ([]Employee, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT uid, office, fullname, position_title, initial, sof, created_at
		 FROM employees ORDER BY fullname`)
	if err != nil {
		return nil, records.Storef("list employees", err)
	}
	defer rows.Close()

	var employees []Employee
	for rows.Next() {
		var e Employee
		var createdAt string
		if err := rows.Scan(&e.UID, &e.Office, &e.FullName, &e.PositionTitle, &e.Initial, &e.SOF, &createdAt); err != nil {
			return nil, records.Storef("scan employee", err)
		}
		e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		employees = append(employees, e)
	}
	return employees, rows.Err()
}

// CreateEmployee inserts an employee, ignoring the insert when a record
// with the same natural key already exists. Returns the id of the stored
// record and whether a new row was inserted.
func (s *Store) CreateEmployee(ctx context.Context, e Employee) (int64, bool, error) {
	if err := validateEmployee(e); err != nil {
		return 0, false, err
	}

	var id int64
	var inserted bool
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO employees (office, fullname, position_title, initial, sof, created_at)
			 VALUES (?, ?, ?, ?, ?, ?)
			 ON CONFLICT(fullname, initial) DO NOTHING`,
			e.Office, e.FullName, e.PositionTitle, e.Initial, e.SOF,
			time.Now().UTC().Format(time.RFC3339))
		if err != nil {
			return records.Storef("insert employee", err)
		}
		affected, _ := res.RowsAffected()
		inserted = affected > 0
		if inserted {
			id, _ = res.LastInsertId()
			return nil
		}
		// Upsert no-op: report the existing record's id.
		return tx.QueryRowContext(ctx,
			`SELECT uid FROM employees WHERE fullname = ? AND initial = ?`,
			e.FullName, e.Initial).Scan(&id)
	})
	if err != nil {
		return 0, false, err
	}

	s.notifyMutated(records.CollectionEmployees)
	return id, inserted, nil
}

// DeleteEmployee removes one employee by id.
func (s *Store) DeleteEmployee(ctx context.Context, id int64) (int64, error) {
	var affected int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM employees WHERE uid = ?`, id)
		if err != nil {
			return records.Storef("delete employee", err)
		}
		affected, _ = res.RowsAffected()
		if affected == 0 {
			return &records.NotFoundError{Collection: records.CollectionEmployees, Detail: "employee not found"}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.notifyMutated(records.CollectionEmployees)
	return affected, nil
}

// BulkCreateEmployees inserts a batch of employee rows in one
// transaction. Rows failing required-field validation are skipped;
// duplicate natural keys are ignored. Returns the number of new rows.
func (s *Store) BulkCreateEmployees(ctx context.Context, batch []Employee) (int64, error) {
	if len(batch) == 0 {
		return 0, records.Validationf("no employee rows provided")
	}

	var affected int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		now := time.Now().UTC().Format(time.RFC3339)
		for _, e := range batch {
			if validateEmployee(e) != nil {
				continue
			}
			res, err := tx.ExecContext(ctx,
				`INSERT INTO employees (office, fullname, position_title, initial, sof, created_at)
				 VALUES (?, ?, ?, ?, ?, ?)
				 ON CONFLICT(fullname, initial) DO NOTHING`,
				e.Office, e.FullName, e.PositionTitle, e.Initial, e.SOF, now)
			if err != nil {
				return records.Storef("bulk insert employee", err)
			}
			n, _ := res.RowsAffected()
			affected += n
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.notifyMutated(records.CollectionEmployees)
	return affected, nil
}
