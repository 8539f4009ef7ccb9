package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Registers the sqlite driver
)

var (
	// ErrStoreUnavailable is returned by every operation when the database
	// cannot be opened (blocked, unreadable, corrupted or closed).
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrWriteRejected is returned when a put or delete fails on an open
	// store. Nothing from the rejected call is persisted.
	ErrWriteRejected = errors.New("write rejected")
)

// DefaultOpenTimeout bounds how long opening the database may take.
const DefaultOpenTimeout = 5 * time.Second

// DB is the durable card and set store. The zero value is not usable; build
// one with New or Open. The connection is opened on first use and shared by
// every later call until Close.
type DB struct {
	dsn         string
	openTimeout time.Duration

	mu     sync.Mutex
	conn   *sql.DB
	closed bool
}

// Option configures a DB.
type Option func(*DB)

// WithOpenTimeout overrides DefaultOpenTimeout.
func WithOpenTimeout(d time.Duration) Option {
	return func(db *DB) {
		if d > 0 {
			db.openTimeout = d
		}
	}
}

// New returns an unopened store for dsn. Use ":memory:" for a throwaway
// database.
func New(dsn string, opts ...Option) *DB {
	db := &DB{dsn: dsn, openTimeout: DefaultOpenTimeout}
	for _, opt := range opts {
		opt(db)
	}
	return db
}

// Open creates a store and connects to it straight away.
func Open(ctx context.Context, dsn string, opts ...Option) (*DB, error) {
	db := New(dsn, opts...)
	if err := db.Open(ctx); err != nil {
		return nil, err
	}
	return db, nil
}

// Open connects to the database and applies the schema. It is idempotent:
// once a connection exists it is reused. A failed attempt is not
// remembered, so a later call tries again.
func (db *DB) Open(ctx context.Context) error {
	_, err := db.handle(ctx)
	return err
}

// Close releases the connection. Any later operation fails with
// ErrStoreUnavailable.
func (db *DB) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.closed = true
	if db.conn == nil {
		return nil
	}
	err := db.conn.Close()
	db.conn = nil
	return err
}

func (db *DB) handle(ctx context.Context) (*sql.DB, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.closed {
		return nil, fmt.Errorf("%w: store closed", ErrStoreUnavailable)
	}
	if db.conn != nil {
		return db.conn, nil
	}

	conn, err := connect(ctx, db.dsn, db.openTimeout)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	db.conn = conn
	return conn, nil
}

func connect(ctx context.Context, dsn string, timeout time.Duration) (*sql.DB, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection: a single writer, and ":memory:" stays one database.
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := applyPragmas(ctx, conn, dsn); err != nil {
		_ = conn.Close()
		return nil, err
	}

	if err := migrate(ctx, conn); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return conn, nil
}

func applyPragmas(ctx context.Context, conn *sql.DB, dsn string) error {
	pragmas := []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	if !isMemory(dsn) {
		pragmas = append(pragmas, "PRAGMA journal_mode = WAL", "PRAGMA synchronous = NORMAL")
	}
	for _, p := range pragmas {
		if _, err := conn.ExecContext(ctx, p); err != nil {
			return fmt.Errorf("failed to execute %q: %w", p, err)
		}
	}
	return nil
}

func isMemory(dsn string) bool {
	return dsn == ":memory:" || strings.Contains(dsn, "mode=memory")
}
