package store

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type Store struct {
	db *sqlx.DB
}

// NewStore creates a new database store
func NewStore(databaseURL string) (*Store, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// GetDB returns the underlying database connection
func (s *Store) GetDB() *sqlx.DB {
	return s.db
}

// Begin opens the transaction for one restaurant session. Every
// resolver call takes the returned handle explicitly; nothing in the
// import path touches ambient connection state.
func (s *Store) Begin(ctx context.Context) (*Tx, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &Tx{tx: tx}, nil
}

// Tx is the session handle threaded through the resolvers. All entity
// writes for one restaurant import go through one Tx and commit
// together or not at all.
type Tx struct {
	tx *sqlx.Tx
}

// Commit commits the session transaction
func (t *Tx) Commit() error {
	return t.tx.Commit()
}

// Rollback discards the session transaction
func (t *Tx) Rollback() error {
	return t.tx.Rollback()
}

// execInsert runs an INSERT ... ON CONFLICT DO NOTHING statement and
// reports whether a row was actually inserted. This is the shared
// compare-and-create building block: a false return means a concurrent
// importer won the race and the caller re-reads the existing row.
// Conflicts are absorbed by the statement itself, so the surrounding
// transaction stays usable.
func (t *Tx) execInsert(ctx context.Context, query string, args ...interface{}) (bool, error) {
	res, err := t.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// IsUniqueViolation reports whether err is a uniqueness-constraint
// violation (Postgres error class 23505).
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}

// IsRetryable reports whether err looks like transient store
// unavailability worth retrying at session granularity. Postgres class
// 08 covers connection exceptions; 57P01-57P03 cover server shutdown.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if pqErr.Code.Class() == "08" {
			return true
		}
		switch pqErr.Code {
		case "57P01", "57P02", "57P03":
			return true
		}
	}
	return false
}
