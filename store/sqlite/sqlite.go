/*
Package sqlite implements the record store façade over SQLite.

PURPOSE:
  Atomic create/read/update/delete and bulk operations against the three
  record collections (employees, travels, appointments), attachment
  lifecycle bookkeeping, and exactly one mutation notification per
  successful write.

TRANSACTIONS:
  Every multi-statement write runs inside one database transaction:
  either all row changes commit or none do. Attachment file deletion is
  not transactional; failures there are logged warnings and never roll
  anything back. Row inconsistency is not tolerated, file-system
  inconsistency is.

NOTIFICATIONS:
  A registered records.MutationListener is invoked once per successful
  write operation (not once per row), after commit and before the call
  returns. The report cache registers itself here; route handlers never
  invalidate anything directly.

WAL MODE:
  SQLite is opened with WAL for concurrent readers alongside the single
  writer.

USAGE:
  store, err := sqlite.New("./data/records.db")
  store.OnMutation(cache)
  store.UseFileRemover(files)

SEE ALSO:
  - records/collection.go: Collection tags and the listener interface
  - report.go: Grouped count queries behind the report cache
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"

	"github.com/docuflow/records-engine/records"
)

// FileRemover deletes a stored attachment by its public path. Missing
// files must not be reported as errors.
type FileRemover interface {
	Delete(publicPath string) error
}

// Store implements the record store façade.
type Store struct {
	db       *sql.DB
	listener records.MutationListener
	files    FileRemover
	log      *logrus.Logger
}

// New opens (or creates) the database at dbPath and migrates the schema.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Each pool connection would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db, log: logrus.StandardLogger()}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// OnMutation registers the listener notified after every committed write.
func (s *Store) OnMutation(l records.MutationListener) {
	s.listener = l
}

// UseFileRemover registers the attachment store used for post-commit
// cleanup of replaced and deleted attachments.
func (s *Store) UseFileRemover(fr FileRemover) {
	s.files = fr
}

// UseLogger overrides the logger (tests).
func (s *Store) UseLogger(log *logrus.Logger) {
	s.log = log
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Employees, upserted on a natural key for idempotent ingestion
	CREATE TABLE IF NOT EXISTS employees (
		uid INTEGER PRIMARY KEY AUTOINCREMENT,
		office TEXT NOT NULL,
		fullname TEXT NOT NULL,
		position_title TEXT NOT NULL,
		initial TEXT NOT NULL,
		sof TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_employees_natural_key
		ON employees(fullname, initial);

	-- Travel authorizations; attachment is a public /uploads/ path
	CREATE TABLE IF NOT EXISTS travels (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		employee_id INTEGER,
		initial TEXT NOT NULL DEFAULT '',
		name TEXT NOT NULL DEFAULT '',
		position_designation TEXT NOT NULL DEFAULT '',
		station TEXT NOT NULL DEFAULT '',
		purpose TEXT NOT NULL DEFAULT '',
		host TEXT NOT NULL DEFAULT '',
		dates_from TEXT,
		dates_to TEXT,
		destination TEXT NOT NULL DEFAULT '',
		area TEXT NOT NULL DEFAULT '',
		sof TEXT NOT NULL DEFAULT '',
		attachment TEXT,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_travels_dates_from ON travels(dates_from);
	CREATE INDEX IF NOT EXISTS idx_travels_employee ON travels(employee_id);

	-- Appointment documents
	CREATE TABLE IF NOT EXISTS appointments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		position_title TEXT NOT NULL,
		status_appointment TEXT NOT NULL,
		school_office TEXT NOT NULL,
		nature_appointment TEXT NOT NULL DEFAULT '',
		item_no TEXT NOT NULL DEFAULT '',
		date_signed TEXT,
		pdf_path TEXT,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_appointments_date_signed ON appointments(date_signed);
	`

	_, err := s.db.Exec(schema)
	return err
}

// withTx runs fn inside one database transaction.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return records.Storef("begin", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return records.Storef("commit", err)
	}
	return nil
}

// notifyMutated emits the single post-commit mutation notification.
func (s *Store) notifyMutated(c records.Collection) {
	if s.listener != nil {
		s.listener.CollectionMutated(c)
	}
}

// removeAttachment deletes a stored attachment file, logging failures as
// warnings. Called only after the owning row change has committed.
func (s *Store) removeAttachment(path string) {
	if path == "" || s.files == nil {
		return
	}
	if err := s.files.Delete(path); err != nil {
		s.log.WithError(err).WithField("path", path).Warn("failed to delete attachment")
	}
}

func nullString(v string) sql.NullString {
	if v == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: v, Valid: true}
}

func nullInt64(v int64) sql.NullInt64 {
	if v == 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: v, Valid: true}
}
