package storage

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/arodr/kgraph-mcp/internal/config"
	"github.com/arodr/kgraph-mcp/internal/kgerr"
)

// Store is the storage gateway: it owns the single database handle and the
// transaction boundary for every operation built on top of it. A second
// handle opened with query_only(ON) backs the ad-hoc query facade, so the
// engine itself rejects writes that slip past statement inspection.
type Store struct {
	db   *sql.DB
	rodb *sql.DB
}

// Open opens (or creates) the knowledge graph database, retrying the
// initial connection with bounded backoff before failing with a transient
// error.
func Open(cfg config.DatabaseConfig) (*Store, error) {
	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	dsn := fmt.Sprintf(
		"file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)",
		cfg.Path, cfg.BusyTimeoutMS,
	)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, kgerr.Wrap(kgerr.Transient, err, "open database")
	}

	retries := cfg.ConnectRetries
	if retries < 1 {
		retries = 1
	}
	for attempt := 1; ; attempt++ {
		err = db.Ping()
		if err == nil {
			break
		}
		if attempt == retries {
			db.Close()
			return nil, kgerr.Wrap(kgerr.Transient, err, "connect after %d attempts", retries)
		}
		log.Printf("Connection attempt %d failed: %v", attempt, err)
		time.Sleep(time.Duration(attempt) * 500 * time.Millisecond)
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	rodb, err := sql.Open("sqlite3", dsn+"&_pragma=query_only(ON)")
	if err != nil {
		db.Close()
		return nil, kgerr.Wrap(kgerr.Transient, err, "open read-only handle")
	}
	if err := rodb.Ping(); err != nil {
		rodb.Close()
		db.Close()
		return nil, kgerr.Wrap(kgerr.Transient, err, "connect read-only handle")
	}

	return &Store{db: db, rodb: rodb}, nil
}

// Close closes the database connections.
func (s *Store) Close() error {
	s.rodb.Close()
	return s.db.Close()
}

// withTx runs fn inside a transaction, committing on success and rolling
// back on any error so a failed statement never leaves the connection in an
// aborted state for the next call.
func (s *Store) withTx(fn func(tx *sql.Tx) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return kgerr.Wrap(kgerr.Storage, err, "begin tx")
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return kgerr.Wrap(kgerr.Storage, err, "commit")
	}
	return nil
}

// withReadTx is withTx on the query_only handle. Used by the ad-hoc query
// facade; any write the statement smuggles in is rejected by the engine.
func (s *Store) withReadTx(fn func(tx *sql.Tx) error) error {
	tx, err := s.rodb.Begin()
	if err != nil {
		return kgerr.Wrap(kgerr.Storage, err, "begin read tx")
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return kgerr.Wrap(kgerr.Storage, err, "commit")
	}
	return nil
}

// querier is satisfied by both *sql.DB and *sql.Tx so read helpers can run
// inside or outside a transaction.
type querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// storageErr logs a failing statement with its parameters and wraps the
// error with the right kind. Constraint violations surface as conflicts.
func storageErr(err error, query string, args ...any) error {
	log.Printf("query failed: %v\n  query: %s\n  params: %v", err, strings.Join(strings.Fields(query), " "), args)
	if isConstraintViolation(err) {
		return kgerr.Wrap(kgerr.Conflict, err, "constraint violated")
	}
	return kgerr.Wrap(kgerr.Storage, err, "query failed")
}

func isConstraintViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint") ||
		strings.Contains(msg, "CHECK constraint") ||
		strings.Contains(msg, "constraint failed")
}
