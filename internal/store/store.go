package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/latticeglyph/internal/lattice"
)

//go:embed schema.sql
var schemaSQL string

// pragma is a connection setting applied at open and read back to confirm
// the driver honoured it.
type pragma struct {
	name  string
	value string
	want  string // value PRAGMA <name> reports; empty skips the check
}

var pragmas = []pragma{
	{"journal_mode", "WAL", "wal"},
	{"synchronous", "NORMAL", "1"},
	{"busy_timeout", "5000", "5000"},
	{"foreign_keys", "ON", "1"},
}

// migrations[i] brings user_version i up to i+1. Each runs in its own
// transaction together with the version bump.
var migrations = []func(ctx context.Context, tx *sql.Tx) error{
	seedBuiltins,
}

// Store persists lattices and their revisions in SQLite.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path, applies the connection
// pragmas, creates the schema and runs pending migrations. Opening an
// up-to-date database changes nothing. ":memory:" gives a private
// in-memory store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open lattice store: %w", err)
	}
	// One connection: SQLite has a single writer, and an in-memory
	// database exists only on the connection that created it.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := setup(context.Background(), db, path == ":memory:"); err != nil {
		db.Close()
		return nil, fmt.Errorf("open lattice store %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

func setup(ctx context.Context, db *sql.DB, inMemory bool) error {
	if err := db.PingContext(ctx); err != nil {
		return err
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA %s = %s", p.name, p.value)); err != nil {
			return fmt.Errorf("pragma %s: %w", p.name, err)
		}
		if p.want == "" || (inMemory && p.name == "journal_mode") {
			continue
		}
		got, err := readPragma(ctx, db, p.name)
		if err != nil {
			return err
		}
		if got != p.want {
			return fmt.Errorf("pragma %s = %q, want %q", p.name, got, p.want)
		}
	}
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("schema: %w", err)
	}
	return migrate(ctx, db)
}

func readPragma(ctx context.Context, db *sql.DB, name string) (string, error) {
	var v string
	if err := db.QueryRowContext(ctx, "PRAGMA "+name).Scan(&v); err != nil {
		return "", fmt.Errorf("read pragma %s: %w", name, err)
	}
	return v, nil
}

// SchemaVersion is the user_version of a fully migrated database.
func SchemaVersion() int { return len(migrations) }

func migrate(ctx context.Context, db *sql.DB) error {
	var version int
	if err := db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}
	for ; version < len(migrations); version++ {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		if err := migrations[version](ctx, tx); err != nil {
			tx.Rollback()
			return fmt.Errorf("migrate to v%d: %w", version+1, err)
		}
		// PRAGMA does not take bind parameters.
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", version+1)); err != nil {
			tx.Rollback()
			return fmt.Errorf("migrate to v%d: %w", version+1, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migrate to v%d: %w", version+1, err)
		}
	}
	return nil
}

// seedBuiltins inserts the immutable default lattice unless a row with its
// id already exists.
func seedBuiltins(ctx context.Context, tx *sql.Tx) error {
	return insertLattice(ctx, tx, lattice.Default(), true)
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}
