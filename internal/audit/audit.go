// Package audit provides a SQLite-backed log of mutating vault operations.
// It is an observability surface only: read operations never consult it,
// and a failed audit write never fails the operation that triggered it.
package audit

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS operations (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	op         TEXT NOT NULL,
	path       TEXT NOT NULL,
	bytes      INTEGER NOT NULL DEFAULT 0,
	checksum   TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_operations_path ON operations(path);
CREATE INDEX IF NOT EXISTS idx_operations_created_at ON operations(created_at);
`

// Entry is one recorded operation.
type Entry struct {
	ID        int64     `json:"id"`
	Op        string    `json:"op"`
	Path      string    `json:"path"`
	Bytes     int64     `json:"bytes"`
	Checksum  string    `json:"checksum,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Recorder is the write side of the log. Consumers should depend on this
// interface rather than the concrete *Log type.
type Recorder interface {
	Record(e Entry) error
}

// Log wraps a sql.DB with audit operations.
type Log struct {
	conn *sql.DB
}

// Verify *Log satisfies Recorder at compile time.
var _ Recorder = (*Log)(nil)

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*Log, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("audit: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("audit: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("audit: apply schema: %w", err)
	}
	return &Log{conn: conn}, nil
}

// Close closes the underlying database connection.
func (l *Log) Close() error {
	return l.conn.Close()
}

// Record appends an entry. A zero CreatedAt is filled with the current time.
func (l *Log) Record(e Entry) error {
	at := e.CreatedAt
	if at.IsZero() {
		at = time.Now().UTC()
	}
	_, err := l.conn.Exec(`
		INSERT INTO operations (op, path, bytes, checksum, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, e.Op, e.Path, e.Bytes, e.Checksum, at)
	if err != nil {
		return fmt.Errorf("audit: record: %w", err)
	}
	return nil
}

// Recent returns the newest entries, newest first. limit <= 0 defaults to 50.
func (l *Log) Recent(limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := l.conn.Query(`
		SELECT id, op, path, bytes, checksum, created_at
		FROM operations
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("audit: recent: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Op, &e.Path, &e.Bytes, &e.Checksum, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("audit: scan: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
