package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/latticeglyph/internal/lattice"
	"github.com/roach88/latticeglyph/internal/verify"
)

var (
	// ErrNotFound is returned when no lattice (or revision) matches.
	ErrNotFound = errors.New("lattice not found")

	// ErrImmutable is returned when updating or deleting a built-in lattice.
	ErrImmutable = errors.New("lattice is immutable")

	// ErrNameTaken is returned when another lattice already uses the name.
	ErrNameTaken = errors.New("lattice name already in use")

	// ErrExists is returned when creating a lattice whose id is in use.
	ErrExists = errors.New("lattice id already exists")
)

// Revision is one stored version of a lattice together with its content
// digest.
type Revision struct {
	Lattice *lattice.Lattice
	Digest  string
}

// Summary describes a lattice's current revision without its content.
type Summary struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Version    int    `json:"version"`
	Builtin    bool   `json:"builtin"`
	Digest     string `json:"digest"`
	Characters int    `json:"characters"`
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Create stores a new lattice as version 1. The caller assigns the id.
// The lattice must pass lattice.Validate.
func (s *Store) Create(ctx context.Context, l *lattice.Lattice) (Revision, error) {
	if l.ID == "" {
		return Revision{}, fmt.Errorf("create lattice: id is required")
	}
	if err := lattice.Validate(l); err != nil {
		return Revision{}, fmt.Errorf("create lattice: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Revision{}, fmt.Errorf("create lattice: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	exists, err := rowExists(ctx, tx, `SELECT 1 FROM lattices WHERE id = ?`, l.ID)
	if err != nil {
		return Revision{}, fmt.Errorf("create lattice: %w", err)
	}
	if exists {
		return Revision{}, fmt.Errorf("create lattice %s: %w", l.ID, ErrExists)
	}
	if err := checkName(ctx, tx, l.Name, l.ID); err != nil {
		return Revision{}, fmt.Errorf("create lattice: %w", err)
	}

	stored := l.Clone()
	stored.Version = 1
	stored.Builtin = false
	if err := insertLattice(ctx, tx, stored, false); err != nil {
		return Revision{}, fmt.Errorf("create lattice: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return Revision{}, fmt.Errorf("create lattice: commit: %w", err)
	}
	return s.Get(ctx, l.ID)
}

// insertLattice writes the lattice row and its first revision. Existing
// rows are left untouched, which keeps seeding idempotent.
func insertLattice(ctx context.Context, db execer, l *lattice.Lattice, builtin bool) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO lattices (id, name, builtin, current_version)
		VALUES (?, ?, ?, 1)
		ON CONFLICT(id) DO NOTHING
	`, l.ID, l.Name, builtin)
	if err != nil {
		return fmt.Errorf("insert lattice: %w", err)
	}
	return insertRevision(ctx, db, l, 1)
}

func insertRevision(ctx context.Context, db execer, l *lattice.Lattice, version int) error {
	digest, err := verify.LatticeDigest(l)
	if err != nil {
		return fmt.Errorf("insert revision: %w", err)
	}
	c, err := marshalContent(l)
	if err != nil {
		return fmt.Errorf("insert revision: %w", err)
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO lattice_revisions
		(lattice_id, version, name, digest, rules, vertices, edges, character_map)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(lattice_id, version) DO NOTHING
	`, l.ID, version, l.Name, digest, c.rules, c.vertices, c.edges, c.characterMap)
	if err != nil {
		return fmt.Errorf("insert revision: %w", err)
	}
	return nil
}

// Update stores l's content as the next revision of the lattice with
// l.ID. The id is stable; the version increments and the digest follows
// the content.
func (s *Store) Update(ctx context.Context, l *lattice.Lattice) (Revision, error) {
	if err := lattice.Validate(l); err != nil {
		return Revision{}, fmt.Errorf("update lattice: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Revision{}, fmt.Errorf("update lattice: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	var builtin bool
	var current int
	err = tx.QueryRowContext(ctx, `
		SELECT builtin, current_version FROM lattices WHERE id = ?
	`, l.ID).Scan(&builtin, &current)
	if errors.Is(err, sql.ErrNoRows) {
		return Revision{}, fmt.Errorf("update lattice %s: %w", l.ID, ErrNotFound)
	}
	if err != nil {
		return Revision{}, fmt.Errorf("update lattice: %w", err)
	}
	if builtin {
		return Revision{}, fmt.Errorf("update lattice %s: %w", l.ID, ErrImmutable)
	}
	if err := checkName(ctx, tx, l.Name, l.ID); err != nil {
		return Revision{}, fmt.Errorf("update lattice: %w", err)
	}

	next := current + 1
	if err := insertRevision(ctx, tx, l, next); err != nil {
		return Revision{}, fmt.Errorf("update lattice: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
		UPDATE lattices SET name = ?, current_version = ? WHERE id = ?
	`, l.Name, next, l.ID)
	if err != nil {
		return Revision{}, fmt.Errorf("update lattice: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return Revision{}, fmt.Errorf("update lattice: commit: %w", err)
	}
	return s.Get(ctx, l.ID)
}

// Delete removes a lattice and all of its revisions.
func (s *Store) Delete(ctx context.Context, id string) error {
	var builtin bool
	err := s.db.QueryRowContext(ctx, `SELECT builtin FROM lattices WHERE id = ?`, id).Scan(&builtin)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("delete lattice %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("delete lattice: %w", err)
	}
	if builtin {
		return fmt.Errorf("delete lattice %s: %w", id, ErrImmutable)
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM lattices WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete lattice: %w", err)
	}
	return nil
}

const selectRevision = `
	SELECT l.id, r.name, l.builtin, r.version, r.digest, r.rules, r.vertices, r.edges, r.character_map
	FROM lattices l
	JOIN lattice_revisions r ON r.lattice_id = l.id
`

// Get returns the current revision of a lattice.
func (s *Store) Get(ctx context.Context, id string) (Revision, error) {
	row := s.db.QueryRowContext(ctx, selectRevision+`
		WHERE l.id = ? AND r.version = l.current_version
	`, id)
	rev, err := scanRevision(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Revision{}, fmt.Errorf("get lattice %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Revision{}, fmt.Errorf("get lattice %s: %w", id, err)
	}
	return rev, nil
}

// GetRevision returns a specific version of a lattice. Old revisions stay
// readable so encodings made under them can still be decoded.
func (s *Store) GetRevision(ctx context.Context, id string, version int) (Revision, error) {
	row := s.db.QueryRowContext(ctx, selectRevision+`
		WHERE l.id = ? AND r.version = ?
	`, id, version)
	rev, err := scanRevision(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Revision{}, fmt.Errorf("get lattice %s v%d: %w", id, version, ErrNotFound)
	}
	if err != nil {
		return Revision{}, fmt.Errorf("get lattice %s v%d: %w", id, version, err)
	}
	return rev, nil
}

// Resolve returns the current revision of the lattice whose id or, failing
// that, name equals ref.
func (s *Store) Resolve(ctx context.Context, ref string) (Revision, error) {
	rev, err := s.Get(ctx, ref)
	if !errors.Is(err, ErrNotFound) {
		return rev, err
	}

	var id string
	err = s.db.QueryRowContext(ctx, `SELECT id FROM lattices WHERE name = ?`, ref).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return Revision{}, fmt.Errorf("resolve lattice %q: %w", ref, ErrNotFound)
	}
	if err != nil {
		return Revision{}, fmt.Errorf("resolve lattice %q: %w", ref, err)
	}
	return s.Get(ctx, id)
}

// List returns a summary of every lattice, built-ins first, then by name.
// Returns an empty slice (not nil) when there are none.
func (s *Store) List(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT l.id, r.name, l.builtin, r.version, r.digest,
			(SELECT COUNT(*) FROM json_each(r.character_map))
		FROM lattices l
		JOIN lattice_revisions r ON r.lattice_id = l.id AND r.version = l.current_version
		ORDER BY l.builtin DESC, r.name COLLATE BINARY ASC, l.id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list lattices: %w", err)
	}
	defer rows.Close()

	summaries := []Summary{}
	for rows.Next() {
		var sum Summary
		if err := rows.Scan(&sum.ID, &sum.Name, &sum.Builtin, &sum.Version, &sum.Digest, &sum.Characters); err != nil {
			return nil, fmt.Errorf("scan lattice: %w", err)
		}
		summaries = append(summaries, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lattices: %w", err)
	}
	return summaries, nil
}

// Versions returns the version numbers of a lattice's revisions, oldest
// first.
func (s *Store) Versions(ctx context.Context, id string) ([]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT version FROM lattice_revisions WHERE lattice_id = ? ORDER BY version ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	defer rows.Close()

	var versions []int
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan version: %w", err)
		}
		versions = append(versions, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate versions: %w", err)
	}
	if len(versions) == 0 {
		return nil, fmt.Errorf("list versions %s: %w", id, ErrNotFound)
	}
	return versions, nil
}

// scanRevision decodes a selectRevision row and checks its digest.
func scanRevision(row *sql.Row) (Revision, error) {
	l := &lattice.Lattice{}
	var digest string
	var c content
	err := row.Scan(&l.ID, &l.Name, &l.Builtin, &l.Version, &digest,
		&c.rules, &c.vertices, &c.edges, &c.characterMap)
	if err != nil {
		return Revision{}, err
	}
	if err := unmarshalContent(c, l); err != nil {
		return Revision{}, err
	}

	got, err := verify.LatticeDigest(l)
	if err != nil {
		return Revision{}, err
	}
	if got != digest {
		return Revision{}, fmt.Errorf("stored digest %s does not match content digest %s", digest, got)
	}
	return Revision{Lattice: l, Digest: digest}, nil
}

func rowExists(ctx context.Context, db execer, query string, args ...any) (bool, error) {
	var one int
	err := db.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// checkName fails with ErrNameTaken if a lattice other than id uses name.
func checkName(ctx context.Context, db execer, name, id string) error {
	taken, err := rowExists(ctx, db, `SELECT 1 FROM lattices WHERE name = ? AND id <> ?`, name, id)
	if err != nil {
		return err
	}
	if taken {
		return fmt.Errorf("name %q: %w", name, ErrNameTaken)
	}
	return nil
}
