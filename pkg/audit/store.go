package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	_ "github.com/lib/pq"
)

// DatabaseURLEnv names the connection string of the audit database
const DatabaseURLEnv = "AUDIT_DATABASE_URL"

const defaultStoreTimeout = 2 * time.Second

const insertRecordSQL = `INSERT INTO audit_messages (facility, severity, timestamp, hostname, appname, procid, msgid, sdata, message)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8::jsonb, $9)`

// Store appends records to the audit_messages table. A nil Store, or one
// without a connection, accepts and drops everything.
type Store struct {
	db      *sql.DB
	timeout time.Duration
}

// NewStore opens the database named by AUDIT_DATABASE_URL.
// It returns nil when the variable is unset.
func NewStore() (*Store, error) {
	return OpenStore(os.Getenv(DatabaseURLEnv))
}

// OpenStore opens a PostgreSQL audit store. An empty url disables it.
func OpenStore(url string) (*Store, error) {
	if url == "" {
		return nil, nil
	}

	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("open audit database: %w", err)
	}
	return NewStoreWithDB(db), nil
}

// NewStoreWithDB wraps an existing connection
func NewStoreWithDB(db *sql.DB) *Store {
	return &Store{db: db, timeout: defaultStoreTimeout}
}

// Close closes the database connection
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Save appends the record, bounded by the store timeout
func (s *Store) Save(record Record) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	return s.Append(ctx, record)
}

// Append inserts the records in one transaction, so a batch is stored
// whole or not at all.
func (s *Store) Append(ctx context.Context, records ...Record) error {
	if s == nil || s.db == nil || len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, insertRecordSQL)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, record := range records {
		args, err := recordArgs(record)
		if err != nil {
			return fmt.Errorf("audit record %s: %w", record.MsgID, err)
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// recordArgs maps a record onto the insert placeholders. Empty structured
// data is stored as NULL.
func recordArgs(record Record) ([]any, error) {
	var sdata any
	if len(record.SData) > 0 {
		encoded, err := json.Marshal(record.SData)
		if err != nil {
			return nil, err
		}
		sdata = string(encoded)
	}

	var hostname any
	if record.Hostname != "" {
		hostname = record.Hostname
	}

	return []any{
		record.Facility,
		int(record.Severity),
		record.Timestamp,
		hostname,
		AppName,
		strconv.Itoa(record.ProcID),
		record.MsgID,
		sdata,
		record.Message,
	}, nil
}
