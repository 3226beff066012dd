// Package sqlite implements the NodeFlow working store: one SQLite database
// (project.db) inside a session's private working directory, holding the
// nodes, links, properties and process types of the open project.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/nodeflow/pkg/types"
)

// DBFileName is the database file name inside a working directory and
// inside a packed project file.
const DBFileName = "project.db"

// storePragmas are applied by the driver to every new connection.
const storePragmas = "_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"

// Store owns the working database of one session.
type Store struct {
	mu  sync.Mutex
	db  *sql.DB
	dir string
	uow UnitOfWork
}

// Open opens (creating if needed) project.db in dir. Foreign keys are
// enforced and the journal runs in WAL mode; call Checkpoint before packing
// the directory.
func Open(ctx context.Context, dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating working dir: %w: %v", types.ErrStorageInit, err)
	}

	dsn := "file:" + filepath.Join(dir, DBFileName) + "?" + storePragmas

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w: %v", types.ErrStorageInit, err)
	}
	// One connection keeps per-connection pragmas in force for every statement.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("opening database: %w: %v", types.ErrStorageInit, err)
	}

	return &Store{
		db:  db,
		dir: dir,
		uow: &sqliteUnitOfWork{db: db},
	}, nil
}

// Dir returns the working directory holding project.db.
func (s *Store) Dir() string {
	return s.dir
}

// Close releases the database handle. Close is idempotent.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	if err != nil {
		return fmt.Errorf("closing database: %w: %v", types.ErrStorageIO, err)
	}
	return nil
}

// CreateSchema creates all tables and indexes that do not already exist.
func (s *Store) CreateSchema(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return fmt.Errorf("creating schema: %w: store is closed", types.ErrStorageInit)
	}
	for _, ddl := range schemaDDL {
		if _, err := s.db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("creating schema: %w: %v", types.ErrStorageInit, err)
		}
	}
	for _, ddl := range indexDDL {
		if _, err := s.db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("creating indexes: %w: %v", types.ErrStorageInit, err)
		}
	}
	return nil
}

// Checkpoint folds the write-ahead log into project.db so the database file
// alone carries every committed row.
func (s *Store) Checkpoint(ctx context.Context) error {
	q, err := s.conn()
	if err != nil {
		return err
	}
	if _, err := q.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return classify("checkpointing", err)
	}
	return nil
}

// HighWaterMark reports the last identifier handed out for table, or zero
// when the table has never allocated one.
func (s *Store) HighWaterMark(ctx context.Context, table string) (int64, error) {
	q, err := s.conn()
	if err != nil {
		return 0, err
	}
	return highWaterMark(ctx, q, table)
}

func highWaterMark(ctx context.Context, q DBTX, table string) (int64, error) {
	var seq int64
	err := q.QueryRowContext(ctx, "SELECT seq FROM sqlite_sequence WHERE name = ?", table).Scan(&seq)
	if errors.Is(err, sql.ErrNoRows) || isMissingTable(err) {
		return 0, nil
	}
	if err != nil {
		return 0, classify("reading sequence for "+table, err)
	}
	return seq, nil
}

// tableExists reports whether table is present in the schema. A freshly
// created or unpacked database may have no schema yet.
func tableExists(ctx context.Context, q DBTX, table string) (bool, error) {
	var name string
	err := q.QueryRowContext(ctx,
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table,
	).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, classify("inspecting schema", err)
	}
	return true, nil
}

// conn returns the open handle or an error when the store is closed.
func (s *Store) conn() (*sql.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil, fmt.Errorf("%w: store is closed", types.ErrStorageIO)
	}
	return s.db, nil
}
