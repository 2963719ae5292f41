// Package trace is an optional append-only SQLite log of transmitted
// payloads, one row per strobe, grouped into per-run sessions. It is
// a diagnostic record for later replay; the engine never reads it
// back and counters are never restored from it.
package trace

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/tmlab/strobetx/internal/engine"
)

//go:embed schema.sql
var schemaSQL string

// Store records transmissions into a SQLite database. Implements
// engine.Recorder. Each Open starts a fresh session identified by a
// random UUID.
type Store struct {
	db      *sql.DB
	session string
}

// Open creates or opens the trace database at path, applying pragmas
// and the schema. Idempotent over an existing database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open trace database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect trace database: %w", err)
	}

	// SQLite allows one writer at a time; keep a single connection so
	// the recorder never sees SQLITE_BUSY from its own process.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply trace schema: %w", err)
	}

	return &Store{db: db, session: uuid.NewString()}, nil
}

// Session returns this run's session identifier.
func (s *Store) Session() string {
	return s.session
}

// Record appends one transmission. Called synchronously from the
// worker; failures are the worker's to log, never fatal.
func (s *Store) Record(tx engine.Transmission) error {
	_, err := s.db.Exec(
		`INSERT INTO transmissions
		   (session, seq, total, mode, counter, lane, payload, wire, sent_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.session, tx.Seq, tx.Total, tx.Mode.String(), tx.Counter, tx.Lane,
		int64(tx.Payload), tx.Wire[:], tx.SentAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("record transmission %d: %w", tx.Total, err)
	}
	return nil
}

// Row is one recorded transmission read back for replay.
type Row struct {
	Session string
	Seq     int64
	Total   uint64
	Mode    string
	Counter uint32
	Lane    int
	Payload uint32
	Wire    []byte
	SentAt  time.Time
}

// Sessions lists recorded sessions, oldest first.
func (s *Store) Sessions(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT session FROM transmissions GROUP BY session ORDER BY MIN(id)`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []string
	for rows.Next() {
		var sess string
		if err := rows.Scan(&sess); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// List returns the transmissions of a session in transmit order. An
// empty session selects the most recently written one.
func (s *Store) List(ctx context.Context, session string) ([]Row, error) {
	if session == "" {
		err := s.db.QueryRowContext(ctx,
			`SELECT session FROM transmissions ORDER BY id DESC LIMIT 1`).Scan(&session)
		if err == sql.ErrNoRows {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("resolve latest session: %w", err)
		}
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT session, seq, total, mode, counter, lane, payload, wire, sent_at
		   FROM transmissions WHERE session = ? ORDER BY id`, session)
	if err != nil {
		return nil, fmt.Errorf("list transmissions: %w", err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var (
			r       Row
			payload int64
			sentAt  string
		)
		if err := rows.Scan(&r.Session, &r.Seq, &r.Total, &r.Mode, &r.Counter,
			&r.Lane, &payload, &r.Wire, &sentAt); err != nil {
			return nil, fmt.Errorf("scan transmission: %w", err)
		}
		r.Payload = uint32(payload)
		if t, perr := time.Parse(time.RFC3339Nano, sentAt); perr == nil {
			r.SentAt = t
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
