// Package archive persists stage outputs to SQLite and retries persistence
// calls that failed on earlier steps.
package archive

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // pure-Go SQLite driver

	"replicator/pkg/logx"
	"replicator/pkg/workflow"
)

// Archiver persists the outputs of one stage. The store below is the real
// implementation; tests substitute fakes.
type Archiver interface {
	ArchiveStage(ctx context.Context, state *workflow.State, stageID string) error
}

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id         TEXT PRIMARY KEY,
	started_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS stage_archives (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id  TEXT NOT NULL REFERENCES sessions(id),
	stage_id    TEXT NOT NULL,
	status      TEXT NOT NULL,
	summary     TEXT,
	archived_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_stage_archives_stage ON stage_archives(session_id, stage_id);
`

// Store is a SQLite-backed stage archive. SQLite supports a single writer, so
// the connection pool is pinned to one connection.
type Store struct {
	db        *sql.DB
	sessionID string
	logger    *logx.Logger
}

// Open opens (or creates) the archive database at path and starts a new
// session.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", fmt.Sprintf(
		"file:%s?_foreign_keys=ON&_journal_mode=WAL&_busy_timeout=5000", path))
	if err != nil {
		return nil, fmt.Errorf("failed to open archive database: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping archive database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize archive schema: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &Store{
		db:        db,
		sessionID: uuid.NewString(),
		logger:    logx.NewLogger("archive"),
	}

	if _, err := db.Exec(
		`INSERT INTO sessions (id, started_at) VALUES (?, ?)`,
		store.sessionID, time.Now().UTC()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to record archive session: %w", err)
	}

	store.logger.Info("archive opened: %s (session %s)", path, store.sessionID)
	return store, nil
}

// SessionID returns the id of the current archive session.
func (s *Store) SessionID() string {
	return s.sessionID
}

// ArchiveStage writes the stage's current progress record to the archive.
func (s *Store) ArchiveStage(ctx context.Context, state *workflow.State, stageID string) error {
	if stageID == "" {
		return fmt.Errorf("cannot archive: empty stage id")
	}

	status := "unknown"
	summary := ""
	if rec, ok := state.ProgressFor(stageID); ok {
		status = rec.Status.String()
		summary = rec.Summary
	}

	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO stage_archives (session_id, stage_id, status, summary, archived_at)
		 VALUES (?, ?, ?, ?, ?)`,
		s.sessionID, stageID, status, summary, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to archive stage %s: %w", stageID, err)
	}

	s.logger.Debug("archived stage %s (%s)", stageID, status)
	return nil
}

// ArchivedStages returns the stage ids archived in the current session.
func (s *Store) ArchivedStages(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT stage_id FROM stage_archives WHERE session_id = ? ORDER BY stage_id`,
		s.sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query archived stages: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan archived stage: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading archived stages: %w", err)
	}
	return ids, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close archive database: %w", err)
	}
	return nil
}
