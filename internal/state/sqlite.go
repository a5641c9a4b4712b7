package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/leapstack-labs/leapbundle/pkg/core"
	_ "modernc.org/sqlite" // SQLite driver (pure Go)
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite state store instance.
func NewSQLiteStore(logger *slog.Logger) *SQLiteStore {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SQLiteStore{logger: logger}
}

// Open opens a connection to the SQLite database, creating its directory.
// Use ":memory:" for an in-memory database.
func (s *SQLiteStore) Open(path string) error {
	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return fmt.Errorf("failed to create state directory: %w", err)
		}
		dsn = "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// Watch passes of several targets record concurrently; one connection
	// keeps writes serialized and an in-memory database shared.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	s.db = db
	s.path = path
	s.logger.Debug("state store opened", "path", path)
	return nil
}

// Close closes the SQLite database connection.
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// RecordPass stores the result of one pass.
func (s *SQLiteStore) RecordPass(ctx context.Context, target string, mode core.ExecMode, res *core.Result) (*Pass, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}
	if res == nil {
		return nil, errors.New("no result to record")
	}

	pass := &Pass{
		ID:        uuid.New().String(),
		Target:    target,
		Mode:      mode,
		Outcome:   res.Outcome,
		Errors:    nonNil(res.Errors),
		Warnings:  nonNil(res.Warnings),
		StartedAt: time.Now().UTC(),
	}
	if res.Stats != nil {
		pass.Duration = res.Stats.Duration
		if !res.Stats.StartedAt.IsZero() {
			pass.StartedAt = res.Stats.StartedAt.UTC()
		}
	}

	errorsJSON, err := json.Marshal(pass.Errors)
	if err != nil {
		return nil, fmt.Errorf("failed to encode errors: %w", err)
	}
	warningsJSON, err := json.Marshal(pass.Warnings)
	if err != nil {
		return nil, fmt.Errorf("failed to encode warnings: %w", err)
	}

	s.logger.Debug("recording pass", slog.String("id", pass.ID), slog.String("target", target), slog.String("outcome", string(pass.Outcome)))

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO passes (id, target, mode, outcome, errors, warnings, duration_ms, started_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		pass.ID, pass.Target, string(pass.Mode), string(pass.Outcome),
		string(errorsJSON), string(warningsJSON),
		pass.Duration.Milliseconds(), pass.StartedAt.UnixMilli(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to record pass: %w", err)
	}
	return pass, nil
}

// ListPasses returns recorded passes, newest first.
func (s *SQLiteStore) ListPasses(ctx context.Context, target string, limit int) ([]*Pass, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, target, mode, outcome, errors, warnings, duration_ms, started_at
		 FROM passes
		 WHERE (? = '' OR target = ?)
		 ORDER BY started_at DESC, rowid DESC
		 LIMIT ?`,
		target, target, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list passes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var passes []*Pass
	for rows.Next() {
		var (
			p                     Pass
			mode, outcome         string
			errorsJSON, warnsJSON string
			durationMS, startedMS int64
		)
		if err := rows.Scan(&p.ID, &p.Target, &mode, &outcome, &errorsJSON, &warnsJSON, &durationMS, &startedMS); err != nil {
			return nil, fmt.Errorf("failed to scan pass: %w", err)
		}
		p.Mode = core.ExecMode(mode)
		p.Outcome = core.Outcome(outcome)
		if err := json.Unmarshal([]byte(errorsJSON), &p.Errors); err != nil {
			return nil, fmt.Errorf("failed to decode errors of pass %s: %w", p.ID, err)
		}
		if err := json.Unmarshal([]byte(warnsJSON), &p.Warnings); err != nil {
			return nil, fmt.Errorf("failed to decode warnings of pass %s: %w", p.ID, err)
		}
		p.Duration = time.Duration(durationMS) * time.Millisecond
		p.StartedAt = time.UnixMilli(startedMS).UTC()
		passes = append(passes, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list passes: %w", err)
	}
	return passes, nil
}

// Recorder returns a result handler that records every pass. Failures are
// logged and never interrupt the build.
func (s *SQLiteStore) Recorder() core.ResultHandler {
	return func(target string, mode core.ExecMode, res *core.Result) {
		if _, err := s.RecordPass(context.Background(), target, mode, res); err != nil {
			s.logger.Warn("failed to record build pass", "target", target, "error", err)
		}
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
