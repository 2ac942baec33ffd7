// Package postgres implements attendance.Store on PostgreSQL using pgx.
//
// The schema mirrors store/sqlite. Save rewrites the three tables inside a
// single serializable transaction, so concurrent readers see either the
// previous snapshot or the new one.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/warp/attendance-engine/attendance"
)

// ErrTransactionFailed wraps failures of the save transaction.
var ErrTransactionFailed = errors.New("postgres: transaction failed")

// Config holds connection pool settings.
type Config struct {
	URL             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	ConnectTimeout  time.Duration
}

// DefaultConfig returns pool defaults for url.
func DefaultConfig(url string) Config {
	return Config{
		URL:             url,
		MaxConns:        10,
		MinConns:        1,
		MaxConnLifetime: time.Hour,
		ConnectTimeout:  10 * time.Second,
	}
}

// Store implements attendance.Store.
type Store struct {
	pool *pgxpool.Pool
}

// New connects, pings and migrates.
func New(ctx context.Context, cfg Config) (*Store, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	poolCfg.ConnConfig.ConnectTimeout = cfg.ConnectTimeout

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &Store{pool: pool}
	if err := store.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
	CREATE TABLE IF NOT EXISTS people (
		category TEXT NOT NULL,
		position INTEGER NOT NULL,
		id INTEGER NOT NULL,
		status TEXT,
		attributes JSONB NOT NULL,
		PRIMARY KEY (category, position)
	);

	CREATE INDEX IF NOT EXISTS idx_people_category_id ON people(category, id);

	CREATE TABLE IF NOT EXISTS events (
		position INTEGER PRIMARY KEY,
		id INTEGER NOT NULL,
		attributes JSONB NOT NULL
	);

	CREATE TABLE IF NOT EXISTS attendance (
		position INTEGER PRIMARY KEY,
		id INTEGER NOT NULL,
		person_id INTEGER NOT NULL,
		person_type TEXT NOT NULL,
		date TEXT NOT NULL,
		status TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_attendance_person ON attendance(person_type, person_id);
	`)
	return err
}

// Load reads every table inside one repeatable-read transaction so the
// snapshot is consistent across tables.
func (s *Store) Load(ctx context.Context) (attendance.Snapshot, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return attendance.Snapshot{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	snap := attendance.EmptySnapshot()

	rows, err := tx.Query(ctx, `SELECT category, id, status, attributes FROM people ORDER BY category, position`)
	if err != nil {
		return attendance.Snapshot{}, fmt.Errorf("query people: %w", err)
	}
	for rows.Next() {
		var (
			category string
			p        attendance.Person
			status   *string
			attrs    []byte
		)
		if err := rows.Scan(&category, &p.ID, &status, &attrs); err != nil {
			rows.Close()
			return attendance.Snapshot{}, fmt.Errorf("scan people: %w", err)
		}
		if status != nil {
			st := attendance.PersonStatus(*status)
			p.Status = &st
		}
		if err := json.Unmarshal(attrs, &p.Attributes); err != nil {
			rows.Close()
			return attendance.Snapshot{}, fmt.Errorf("decode %s %d attributes: %w", category, p.ID, err)
		}
		switch attendance.Category(category) {
		case attendance.CategoryStudents:
			snap.Students = append(snap.Students, p)
		case attendance.CategoryTeachers:
			snap.Teachers = append(snap.Teachers, p)
		case attendance.CategoryTutors:
			snap.Tutors = append(snap.Tutors, p)
		case attendance.CategoryAdministrators:
			snap.Administrators = append(snap.Administrators, p)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return attendance.Snapshot{}, fmt.Errorf("read people: %w", err)
	}

	rows, err = tx.Query(ctx, `SELECT id, attributes FROM events ORDER BY position`)
	if err != nil {
		return attendance.Snapshot{}, fmt.Errorf("query events: %w", err)
	}
	for rows.Next() {
		var (
			e     attendance.Event
			attrs []byte
		)
		if err := rows.Scan(&e.ID, &attrs); err != nil {
			rows.Close()
			return attendance.Snapshot{}, fmt.Errorf("scan events: %w", err)
		}
		if err := json.Unmarshal(attrs, &e.Attributes); err != nil {
			rows.Close()
			return attendance.Snapshot{}, fmt.Errorf("decode event %d attributes: %w", e.ID, err)
		}
		snap.Events = append(snap.Events, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return attendance.Snapshot{}, fmt.Errorf("read events: %w", err)
	}

	rows, err = tx.Query(ctx, `SELECT id, person_id, person_type, date, status FROM attendance ORDER BY position`)
	if err != nil {
		return attendance.Snapshot{}, fmt.Errorf("query attendance: %w", err)
	}
	ledger, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (attendance.AttendanceRecord, error) {
		var rec attendance.AttendanceRecord
		var personType string
		err := row.Scan(&rec.ID, &rec.PersonID, &personType, &rec.Date, &rec.Status)
		rec.PersonType = attendance.PersonType(personType)
		return rec, err
	})
	if err != nil {
		return attendance.Snapshot{}, fmt.Errorf("read attendance: %w", err)
	}
	snap.Attendance = append(snap.Attendance, ledger...)

	return snap, tx.Commit(ctx)
}

// Save replaces all tables with snap.
func (s *Store) Save(ctx context.Context, snap attendance.Snapshot) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return fmt.Errorf("%w: begin: %v", ErrTransactionFailed, err)
	}
	defer tx.Rollback(ctx) // no-op after commit

	if _, err := tx.Exec(ctx, `TRUNCATE people, events, attendance`); err != nil {
		return fmt.Errorf("%w: truncate: %v", ErrTransactionFailed, err)
	}

	batch := &pgx.Batch{}
	for _, pt := range attendance.PersonTypes {
		for i, p := range snap.People(pt) {
			attrs, err := json.Marshal(p.Attributes)
			if err != nil {
				return fmt.Errorf("encode %s %d: %w", pt, p.ID, err)
			}
			var status *string
			if p.Status != nil {
				st := string(*p.Status)
				status = &st
			}
			batch.Queue(`INSERT INTO people (category, position, id, status, attributes) VALUES ($1, $2, $3, $4, $5)`,
				string(pt.Category()), i, p.ID, status, attrs)
		}
	}
	for i, e := range snap.Events {
		attrs, err := json.Marshal(e.Attributes)
		if err != nil {
			return fmt.Errorf("encode event %d: %w", e.ID, err)
		}
		batch.Queue(`INSERT INTO events (position, id, attributes) VALUES ($1, $2, $3)`, i, e.ID, attrs)
	}
	for i, rec := range snap.Attendance {
		batch.Queue(`INSERT INTO attendance (position, id, person_id, person_type, date, status) VALUES ($1, $2, $3, $4, $5, $6)`,
			i, rec.ID, rec.PersonID, string(rec.PersonType), rec.Date, rec.Status)
	}

	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("%w: insert: %v", ErrTransactionFailed, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: commit: %v", ErrTransactionFailed, err)
	}
	return nil
}
