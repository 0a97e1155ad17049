package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_SettingsAndVersion(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for _, p := range pragmas {
		got, err := readPragma(ctx, s.db, p.name)
		require.NoError(t, err)
		assert.Equal(t, p.want, got, p.name)
	}

	var version int
	require.NoError(t, s.db.QueryRow("PRAGMA user_version").Scan(&version))
	assert.Equal(t, SchemaVersion(), version)
}

func TestOpen_ReopenKeepsLatticesAndSeedsOnce(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "glyph.db")

	s, err := Open(path)
	require.NoError(t, err)
	_, err = s.Create(ctx, triangle("tri", "triangle"))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	for i := 0; i < 2; i++ {
		s, err = Open(path)
		require.NoError(t, err)

		list, err := s.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2, "reopen %d", i)

		var revisions int
		require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM lattice_revisions WHERE lattice_id = 'default'`).Scan(&revisions))
		assert.Equal(t, 1, revisions)
		require.NoError(t, s.Close())
	}
}

func TestOpen_InMemoryIsPrivate(t *testing.T) {
	ctx := context.Background()

	a, err := Open(":memory:")
	require.NoError(t, err)
	defer a.Close()
	b, err := Open(":memory:")
	require.NoError(t, err)
	defer b.Close()

	_, err = a.Create(ctx, triangle("tri", "triangle"))
	require.NoError(t, err)

	_, err = b.Get(ctx, "tri")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = b.Get(ctx, "default")
	assert.NoError(t, err)
}

func TestOpen_InvalidPath(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing", "dir", "glyph.db"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open lattice store")
}

func TestMigrate_SeedsPreMigrationDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.db")

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = db.Exec(schemaSQL)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	rev, err := s.Get(context.Background(), "default")
	require.NoError(t, err)
	assert.Equal(t, "hexagram", rev.Lattice.Name)
	assert.True(t, rev.Lattice.Builtin)
}

func TestSchema_RevisionRequiresLattice(t *testing.T) {
	s := createTestStore(t)

	_, err := s.db.Exec(`
		INSERT INTO lattice_revisions
		(lattice_id, version, name, digest, rules, vertices, edges, character_map)
		VALUES ('missing', 1, 'x', 'd', '{}', '[]', '[]', '{}')
	`)
	assert.Error(t, err, "foreign keys must be enforced")
}
