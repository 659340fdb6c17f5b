package store

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/ardnew/gold/lang"
	"github.com/ardnew/gold/log"
	"github.com/ardnew/gold/pkg"
)

// FileName is the name of the database file created by [Open].
const FileName = "values.db"

const schema = `
CREATE TABLE IF NOT EXISTS entry (
	key   TEXT PRIMARY KEY,
	data  BLOB NOT NULL,
	saved INTEGER NOT NULL
)`

// SQLite is a [lang.Store] backed by a sqlite database.
// It is safe for concurrent use.
type SQLite struct {
	db     *sql.DB
	logger log.Logger
}

var _ lang.Store = (*SQLite)(nil)

// Option configures a [SQLite] store.
type Option func(*SQLite)

// WithLogger sets the logger used to trace reads and writes.
func WithLogger(logger log.Logger) Option {
	return func(s *SQLite) {
		s.logger = logger
	}
}

// Open opens (creating if necessary) the database in dir.
func Open(ctx context.Context, dir string, opts ...Option) (*SQLite, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, pkg.ErrOpenStore.Wrap(err)
	}

	return OpenDSN(ctx, "file:"+filepath.Join(dir, FileName)+"?_busy_timeout=5000", opts...)
}

// OpenDSN opens the sqlite database identified by dsn, as understood by
// github.com/mattn/go-sqlite3. The DSN ":memory:" yields a private
// in-memory store.
func OpenDSN(ctx context.Context, dsn string, opts ...Option) (*SQLite, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, pkg.ErrOpenStore.Wrap(err)
	}

	// Each connection to ":memory:" is a distinct database.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()

		return nil, pkg.ErrOpenStore.Wrap(err)
	}

	s := &SQLite{db: db}

	for _, opt := range opts {
		opt(s)
	}

	s.logger.TraceContext(ctx, "store opened", slog.String("dsn", dsn))

	return s, nil
}

// Load returns the data saved under key. The boolean result is false if no
// entry exists.
func (s *SQLite) Load(ctx context.Context, key string) ([]byte, bool, error) {
	var data []byte

	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM entry WHERE key = ?`, key).Scan(&data)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		s.logger.TraceContext(ctx, "store read",
			slog.String("key", key), slog.Bool("found", false))

		return nil, false, nil

	case err != nil:
		return nil, false, pkg.ErrStoreRead.Wrap(err)
	}

	s.logger.TraceContext(ctx, "store read",
		slog.String("key", key),
		slog.Bool("found", true),
		slog.Int("bytes", len(data)))

	return data, true, nil
}

// Store saves data under key, replacing any existing entry.
func (s *SQLite) Store(ctx context.Context, key string, data []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO entry (key, data, saved) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET data = excluded.data, saved = excluded.saved`,
		key, data, time.Now().UnixNano())
	if err != nil {
		return pkg.ErrStoreWrite.Wrap(err)
	}

	s.logger.TraceContext(ctx, "store write",
		slog.String("key", key), slog.Int("bytes", len(data)))

	return nil
}

// Len returns the number of entries in the store.
func (s *SQLite) Len(ctx context.Context) (int, error) {
	var n int

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entry`).Scan(&n); err != nil {
		return 0, pkg.ErrStoreRead.Wrap(err)
	}

	return n, nil
}

// Prune removes entries saved before cutoff and returns how many were
// removed.
func (s *SQLite) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM entry WHERE saved < ?`, cutoff.UnixNano())
	if err != nil {
		return 0, pkg.ErrStoreWrite.Wrap(err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, pkg.ErrStoreWrite.Wrap(err)
	}

	s.logger.DebugContext(ctx, "store pruned",
		slog.Time("cutoff", cutoff), slog.Int64("removed", n))

	return n, nil
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}
