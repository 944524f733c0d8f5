package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pbaille/timecsv/internal/domain"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Store keeps the report run history. Only run metadata is stored, never
// the generated CSV.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and migrates it.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return &Store{db: db}, nil
}

func migrate(db *sql.DB) error {
	goose.SetLogger(log.New(io.Discard, "", 0))
	goose.SetBaseFS(migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}
	return goose.Up(db, "migrations")
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordRun inserts a run, assigning an ID and timestamp when missing.
func (s *Store) RecordRun(ctx context.Context, run domain.ReportRun) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO report_runs (
			id, user_id, workspace_id, month, entries_fetched, entries_in_range,
			descriptions, dates, total_hours, status, error, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.UserID, run.WorkspaceID, run.Month, run.EntriesFetched, run.EntriesInRange,
		run.Descriptions, run.Dates, run.TotalHours, run.Status, run.Error, run.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]domain.ReportRun, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, workspace_id, month, entries_fetched, entries_in_range,
			descriptions, dates, total_hours, status, error, created_at
		FROM report_runs
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.ReportRun
	for rows.Next() {
		var r domain.ReportRun
		if err := rows.Scan(&r.ID, &r.UserID, &r.WorkspaceID, &r.Month, &r.EntriesFetched, &r.EntriesInRange,
			&r.Descriptions, &r.Dates, &r.TotalHours, &r.Status, &r.Error, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}

	return runs, rows.Err()
}
