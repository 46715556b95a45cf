// ABOUTME: SQLite transcript ledger using modernc.org/sqlite
// ABOUTME: Records agent exchanges per thread with automatic schema creation

package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const (
	defaultListLimit = 100
	maxListLimit     = 1000

	// fixed width so text ordering matches time ordering
	timeLayout = "2006-01-02T15:04:05.000000000Z"
)

// SQLiteStore persists transcripts in a single SQLite file
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

// NewSQLiteStore opens (or creates) the ledger at path.
// Parent directories are created if needed.
func NewSQLiteStore(path string, logger *slog.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "store")

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("transcript store initialized", "path", path)
	return s, nil
}

func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS threads (
			id         TEXT PRIMARY KEY,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_threads_updated
			ON threads(updated_at);

		CREATE TABLE IF NOT EXISTS exchanges (
			seq        INTEGER PRIMARY KEY AUTOINCREMENT,
			id         TEXT NOT NULL UNIQUE,
			thread_id  TEXT NOT NULL,
			command    TEXT NOT NULL,
			user_text  TEXT NOT NULL,
			reply      TEXT NOT NULL,
			created_at TEXT NOT NULL,
			FOREIGN KEY (thread_id) REFERENCES threads(id) ON DELETE CASCADE
		);

		CREATE INDEX IF NOT EXISTS idx_exchanges_thread
			ON exchanges(thread_id, seq);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	s.logger.Info("closing transcript store")
	return s.db.Close()
}

// RecordExchange appends an exchange, creating the thread row on first use.
// It satisfies agent.Recorder.
func (s *SQLiteStore) RecordExchange(ctx context.Context, threadID, command, userText, reply string) error {
	if threadID == "" {
		return fmt.Errorf("thread id is required")
	}
	now := s.now().UTC().Format(timeLayout)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	_, err = tx.ExecContext(ctx, `
		INSERT INTO threads (id, created_at, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET updated_at = excluded.updated_at
	`, threadID, now, now)
	if err != nil {
		return fmt.Errorf("upserting thread: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO exchanges (id, thread_id, command, user_text, reply, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, uuid.New().String(), threadID, command, userText, reply, now)
	if err != nil {
		return fmt.Errorf("inserting exchange: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing exchange: %w", err)
	}
	s.logger.Debug("recorded exchange", "thread_id", threadID, "command", command)
	return nil
}

// ListThreads returns threads ordered by most recent activity.
// If limit is 0 or negative, a default limit of 100 is used.
func (s *SQLiteStore) ListThreads(ctx context.Context, limit int) ([]*Thread, error) {
	limit = clampLimit(limit)

	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.created_at, t.updated_at, COUNT(e.seq)
		FROM threads t
		LEFT JOIN exchanges e ON e.thread_id = t.id
		GROUP BY t.id
		ORDER BY t.updated_at DESC, t.id
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying threads: %w", err)
	}
	defer rows.Close()

	var threads []*Thread
	for rows.Next() {
		var (
			th                   Thread
			createdAt, updatedAt string
		)
		if err := rows.Scan(&th.ID, &createdAt, &updatedAt, &th.ExchangeCount); err != nil {
			return nil, fmt.Errorf("scanning thread row: %w", err)
		}
		if th.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		if th.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return nil, err
		}
		threads = append(threads, &th)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating thread rows: %w", err)
	}
	return threads, nil
}

// ThreadExchanges returns the last limit exchanges of a thread, oldest first.
// Returns ErrNotFound if the thread doesn't exist.
func (s *SQLiteStore) ThreadExchanges(ctx context.Context, threadID string, limit int) ([]*Exchange, error) {
	limit = clampLimit(limit)

	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM threads WHERE id = ?`, threadID).Scan(&exists)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying thread: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, thread_id, command, user_text, reply, created_at FROM (
			SELECT seq, id, thread_id, command, user_text, reply, created_at
			FROM exchanges
			WHERE thread_id = ?
			ORDER BY seq DESC
			LIMIT ?
		) ORDER BY seq ASC
	`, threadID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying exchanges: %w", err)
	}
	defer rows.Close()

	var exchanges []*Exchange
	for rows.Next() {
		var (
			ex        Exchange
			createdAt string
		)
		if err := rows.Scan(&ex.ID, &ex.ThreadID, &ex.Command, &ex.UserText, &ex.Reply, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning exchange row: %w", err)
		}
		if ex.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		exchanges = append(exchanges, &ex)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating exchange rows: %w", err)
	}
	return exchanges, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing timestamp %q: %w", s, err)
	}
	return t, nil
}
