package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/conorfennell/knoldeck/internal/domain"
	"github.com/conorfennell/knoldeck/internal/srs"
	_ "modernc.org/sqlite" // Registers the sqlite driver
)

const lockStripes = 64

// DB represents a wrapper around the SQL database connection.
type DB struct {
	conn   *sql.DB
	loc    *time.Location
	params *srs.Params
	now    func() time.Time

	// Serialises in-process writes to the same card.
	cardLocks [lockStripes]sync.Mutex
}

// Option configures a DB.
type Option func(*DB)

// WithLocation sets the time zone used to assign review events to a date.
func WithLocation(loc *time.Location) Option {
	return func(db *DB) { db.loc = loc }
}

// WithParams sets the scheduler parameters used for new cards and for
// validating stored state.
func WithParams(p *srs.Params) Option {
	return func(db *DB) { db.params = p }
}

// WithClock overrides the clock used for created/updated timestamps and the
// due date of new cards.
func WithClock(now func() time.Time) Option {
	return func(db *DB) { db.now = now }
}

// Open creates a new database connection and ensures the schema is up to date.
// Pass ":memory:" for a throwaway database.
func Open(path string, opts ...Option) (*DB, error) {
	db := &DB{
		loc:    time.Local,
		params: srs.DefaultParams(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(db)
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection: an in-memory database lives and dies with its
	// connection, and sqlite allows a single writer anyway.
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	db.conn = conn

	if err := db.init(path); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

func (db *DB) init(path string) error {
	if err := db.conn.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = FULL",
	}
	for _, p := range pragmas {
		if _, err := db.conn.Exec(p); err != nil {
			return fmt.Errorf("failed to apply %q: %w", p, err)
		}
	}
	if path != ":memory:" {
		var mode string
		if err := db.conn.QueryRow("PRAGMA journal_mode = WAL").Scan(&mode); err != nil {
			return fmt.Errorf("failed to enable WAL: %w", err)
		}
	}

	// Execute the schema to create tables if they don't exist.
	for _, stmt := range schema {
		if _, err := db.conn.Exec(stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Location is the time zone review events are dated in.
func (db *DB) Location() *time.Location {
	return db.loc
}

func (db *DB) lockCard(id int64) func() {
	m := &db.cardLocks[uint64(id)%lockStripes]
	m.Lock()
	return m.Unlock
}

// withTx runs fn in a transaction. Once begun, the transaction is not tied
// to ctx cancellation: it commits or rolls back as a whole.
func (db *DB) withTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ctx = context.WithoutCancel(ctx)

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return &domain.StorageError{Op: op, Err: err}
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			err = errors.Join(err, rbErr)
		}
		return wrap(op, err)
	}
	if err := tx.Commit(); err != nil {
		return &domain.StorageError{Op: op, Err: err}
	}
	return nil
}

// wrap passes domain errors through and reports anything else as a
// StorageError.
func wrap(op string, err error) error {
	if errors.Is(err, domain.ErrValidation) || errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrStorage) {
		return err
	}
	return &domain.StorageError{Op: op, Err: err}
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type scanner interface {
	Scan(dest ...any) error
}

func millis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func nullID(id *int64) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *id, Valid: true}
}
