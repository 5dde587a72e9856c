package storage

import (
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "modernc.org/sqlite" // Registers the sqlite driver
)

// DB is the SQLite-backed store for decks, flashcards and tags.
//
// Every method is a single statement or a single transaction, so a failed
// call never leaves a partial write behind. There is no transaction across
// calls; callers that read, schedule and write back a card should use
// CompareAndSwapCardData.
type DB struct {
	conn   *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a DB.
type Option func(*DB)

// WithLogger sets the logger used for operation logs.
func WithLogger(l *slog.Logger) Option {
	return func(db *DB) {
		if l != nil {
			db.logger = l
		}
	}
}

// WithClock overrides the clock used for timestamps written by the store.
func WithClock(now func() time.Time) Option {
	return func(db *DB) {
		if now != nil {
			db.now = now
		}
	}
}

// Open creates a new database connection and ensures the schema is up to date.
// path is a file path or ":memory:"; a path that already carries a query
// string is passed to the driver unchanged.
func Open(path string, opts ...Option) (*DB, error) {
	db := &DB{
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(db)
	}
	db.logger = db.logger.With("component", "storage")

	conn, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite has a single writer, and an in-memory database only exists on
	// the connection that created it.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA foreign_keys = ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	// Execute the schema to create tables if they don't exist.
	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	db.conn = conn
	db.logger.Debug("database opened", "path", path)
	return db, nil
}

func dsn(path string) string {
	if strings.Contains(path, "?") {
		return path
	}
	return path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite"
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) timestamp() time.Time {
	return db.now().UTC()
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}
