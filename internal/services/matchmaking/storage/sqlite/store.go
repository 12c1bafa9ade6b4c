// Package sqlite provides a SQLite-backed match result archive.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sqlitemigrate "github.com/riftvale/crucible.games/internal/platform/storage/sqlitemigrate"
	"github.com/riftvale/crucible.games/internal/services/matchmaking/storage"
	"github.com/riftvale/crucible.games/internal/services/matchmaking/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// MemoryDSN keeps the archive in process memory only. Results do not
// survive a restart.
const MemoryDSN = ":memory:"

// Store provides SQLite-backed match result persistence.
type Store struct {
	sqlDB *sql.DB
}

// Open opens a match result store and applies migrations. Pass MemoryDSN
// for an in-memory archive.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := path + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if path == MemoryDSN {
		// Every pooled connection to ":memory:" gets its own database.
		sqlDB.SetMaxOpenConns(1)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	store := &Store{sqlDB: sqlDB}
	if err := sqlitemigrate.ApplyMigrations(sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return store, nil
}

// Close releases the SQLite connection.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// RecordResult persists the result, replacing any earlier record for the
// same match id.
func (s *Store) RecordResult(ctx context.Context, result storage.MatchResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}

	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO match_results (
	match_id,
	winning_team,
	duration_secs,
	recorded_at
) VALUES (?, ?, ?, ?)
ON CONFLICT(match_id) DO UPDATE SET
	winning_team = excluded.winning_team,
	duration_secs = excluded.duration_secs,
	recorded_at = excluded.recorded_at
`,
		result.MatchID,
		result.WinningTeam,
		result.DurationSecs,
		time.Now().UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("record match result: %w", err)
	}
	return nil
}

// GetResult returns the archived result or storage.ErrNotFound.
func (s *Store) GetResult(ctx context.Context, matchID uint64) (storage.MatchResult, error) {
	if err := ctx.Err(); err != nil {
		return storage.MatchResult{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.MatchResult{}, fmt.Errorf("storage is not configured")
	}

	var result storage.MatchResult
	err := s.sqlDB.QueryRowContext(ctx, `
SELECT
	match_id,
	winning_team,
	duration_secs
FROM match_results
WHERE match_id = ?
`, matchID).Scan(
		&result.MatchID,
		&result.WinningTeam,
		&result.DurationSecs,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.MatchResult{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.MatchResult{}, fmt.Errorf("get match result: %w", err)
	}
	return result, nil
}

var _ storage.Archive = (*Store)(nil)
