/*
Package sqlite provides a SQLite-backed implementation of attendance.Store.

KEY TABLES:
  people:     students, teachers, tutors and administrators (by category)
  events:     institutional events
  attendance: the ledger

  Every table carries a position column that records insertion order;
  ids are category-local and are not used as keys.

SAVE:
  Save rewrites every table inside one SQL transaction. Readers either see
  the previous snapshot or the new one. The store is meant for a single
  institution's dataset, so a full rewrite per mutation is acceptable.

CONCURRENCY:
  Uses sync.RWMutex around the database handle. The attendance.Registry
  already serializes mutations; the lock keeps direct users safe too.

USAGE:
  store, err := sqlite.New("./data/attendance.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  reg := attendance.NewRegistry(store, logger)
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/attendance-engine/attendance"
)

// Store implements attendance.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection: ":memory:" databases are per connection, and SQLite
	// allows a single writer anyway.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
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

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS people (
		category TEXT NOT NULL,
		position INTEGER NOT NULL,
		id INTEGER NOT NULL,
		status TEXT,
		attributes_json TEXT NOT NULL,
		PRIMARY KEY (category, position)
	);

	CREATE INDEX IF NOT EXISTS idx_people_category_id
		ON people(category, id);

	CREATE TABLE IF NOT EXISTS events (
		position INTEGER PRIMARY KEY,
		id INTEGER NOT NULL,
		attributes_json TEXT NOT NULL
	);

	-- Ledger (append-only from the application's point of view)
	CREATE TABLE IF NOT EXISTS attendance (
		position INTEGER PRIMARY KEY,
		id INTEGER NOT NULL,
		person_id INTEGER NOT NULL,
		person_type TEXT NOT NULL,
		date TEXT NOT NULL,
		status TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_attendance_person
		ON attendance(person_type, person_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// LOAD
// =============================================================================

func (s *Store) Load(ctx context.Context) (attendance.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := attendance.EmptySnapshot()
	for _, pt := range attendance.PersonTypes {
		people, err := s.loadPeople(ctx, pt.Category())
		if err != nil {
			return attendance.Snapshot{}, err
		}
		switch pt {
		case attendance.Student:
			snap.Students = people
		case attendance.Teacher:
			snap.Teachers = people
		case attendance.Tutor:
			snap.Tutors = people
		case attendance.Administrator:
			snap.Administrators = people
		}
	}

	events, err := s.loadEvents(ctx)
	if err != nil {
		return attendance.Snapshot{}, err
	}
	snap.Events = events

	ledger, err := s.loadAttendance(ctx)
	if err != nil {
		return attendance.Snapshot{}, err
	}
	snap.Attendance = ledger
	return snap, nil
}

func (s *Store) loadPeople(ctx context.Context, category attendance.Category) ([]attendance.Person, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, status, attributes_json FROM people
		WHERE category = ? ORDER BY position`, string(category))
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", category, err)
	}
	defer rows.Close()

	people := []attendance.Person{}
	for rows.Next() {
		var (
			p         attendance.Person
			status    sql.NullString
			attrsJSON string
		)
		if err := rows.Scan(&p.ID, &status, &attrsJSON); err != nil {
			return nil, fmt.Errorf("scan %s: %w", category, err)
		}
		if status.Valid {
			st := attendance.PersonStatus(status.String)
			p.Status = &st
		}
		if err := json.Unmarshal([]byte(attrsJSON), &p.Attributes); err != nil {
			return nil, fmt.Errorf("decode %s %d attributes: %w", category, p.ID, err)
		}
		people = append(people, p)
	}
	return people, rows.Err()
}

func (s *Store) loadEvents(ctx context.Context) ([]attendance.Event, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, attributes_json FROM events ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	events := []attendance.Event{}
	for rows.Next() {
		var (
			e         attendance.Event
			attrsJSON string
		)
		if err := rows.Scan(&e.ID, &attrsJSON); err != nil {
			return nil, fmt.Errorf("scan events: %w", err)
		}
		if err := json.Unmarshal([]byte(attrsJSON), &e.Attributes); err != nil {
			return nil, fmt.Errorf("decode event %d attributes: %w", e.ID, err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (s *Store) loadAttendance(ctx context.Context) ([]attendance.AttendanceRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, person_id, person_type, date, status
		FROM attendance ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query attendance: %w", err)
	}
	defer rows.Close()

	ledger := []attendance.AttendanceRecord{}
	for rows.Next() {
		var rec attendance.AttendanceRecord
		var personType string
		if err := rows.Scan(&rec.ID, &rec.PersonID, &personType, &rec.Date, &rec.Status); err != nil {
			return nil, fmt.Errorf("scan attendance: %w", err)
		}
		rec.PersonType = attendance.PersonType(personType)
		ledger = append(ledger, rec)
	}
	return ledger, rows.Err()
}

// =============================================================================
// SAVE
// =============================================================================

// Save replaces every table with the contents of snap in one transaction.
func (s *Store) Save(ctx context.Context, snap attendance.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() // no-op after commit

	for _, table := range []string{"people", "events", "attendance"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for _, pt := range attendance.PersonTypes {
		for i, p := range snap.People(pt) {
			attrs, err := json.Marshal(p.Attributes)
			if err != nil {
				return fmt.Errorf("encode %s %d: %w", pt, p.ID, err)
			}
			var status any
			if p.Status != nil {
				status = string(*p.Status)
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO people (category, position, id, status, attributes_json)
				VALUES (?, ?, ?, ?, ?)`,
				string(pt.Category()), i, p.ID, status, string(attrs)); err != nil {
				return fmt.Errorf("insert %s %d: %w", pt, p.ID, err)
			}
		}
	}

	for i, e := range snap.Events {
		attrs, err := json.Marshal(e.Attributes)
		if err != nil {
			return fmt.Errorf("encode event %d: %w", e.ID, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO events (position, id, attributes_json) VALUES (?, ?, ?)`,
			i, e.ID, string(attrs)); err != nil {
			return fmt.Errorf("insert event %d: %w", e.ID, err)
		}
	}

	for i, rec := range snap.Attendance {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO attendance (position, id, person_id, person_type, date, status)
			VALUES (?, ?, ?, ?, ?, ?)`,
			i, rec.ID, rec.PersonID, string(rec.PersonType), rec.Date, rec.Status); err != nil {
			return fmt.Errorf("insert attendance %d: %w", rec.ID, err)
		}
	}

	return tx.Commit()
}
