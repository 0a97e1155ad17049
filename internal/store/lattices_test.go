package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/latticeglyph/internal/lattice"
	"github.com/roach88/latticeglyph/internal/verify"
)

// createTestStore creates a new file-backed store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// triangle is a small valid custom lattice.
func triangle(id, name string) *lattice.Lattice {
	return &lattice.Lattice{
		ID:       id,
		Name:     name,
		Vertices: []lattice.Vertex{{ID: 0, X: 0, Y: 0}, {ID: 1, X: 1, Y: 0}, {ID: 2, X: 0, Y: 1}},
		Edges:    []lattice.Edge{{A: 0, B: 1}, {A: 1, B: 2}, {A: 2, B: 0}},
		CharacterMap: map[string]lattice.CharEdge{
			"A": {Start: 0, End: 1},
			"B": {Start: 1, End: 0},
			"C": {Start: 1, End: 2},
		},
	}
}

func TestBuiltinLatticeSeeded(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	rev, err := s.Get(ctx, lattice.DefaultID)
	require.NoError(t, err)
	assert.True(t, rev.Lattice.Builtin)
	assert.Equal(t, int64(1), rev.Lattice.Version)
	assert.Equal(t, lattice.DefaultName, rev.Lattice.Name)
	assert.Equal(t, lattice.Default().CharacterMap, rev.Lattice.CharacterMap)
	assert.Equal(t, lattice.Default().Vertices, rev.Lattice.Vertices)

	want, err := verify.LatticeDigest(lattice.Default())
	require.NoError(t, err)
	assert.Equal(t, want, rev.Digest)
}

func TestBuiltinLatticeImmutable(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	l := lattice.Default()
	delete(l.CharacterMap, "Z")
	_, err := s.Update(ctx, l)
	assert.ErrorIs(t, err, ErrImmutable)

	err = s.Delete(ctx, lattice.DefaultID)
	assert.ErrorIs(t, err, ErrImmutable)

	rev, err := s.Get(ctx, lattice.DefaultID)
	require.NoError(t, err)
	assert.Contains(t, rev.Lattice.CharacterMap, "Z")
}

func TestCreateAndGet(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	in := triangle("t1", "triangle")
	in.Version = 9
	in.Builtin = true

	rev, err := s.Create(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, "t1", rev.Lattice.ID)
	assert.Equal(t, int64(1), rev.Lattice.Version, "version is assigned by the store")
	assert.False(t, rev.Lattice.Builtin, "custom lattices are never built-in")
	assert.Equal(t, lattice.DefaultRules(), rev.Lattice.Rules, "rules stored with defaults filled")
	assert.Equal(t, in.CharacterMap, rev.Lattice.CharacterMap)
	assert.Equal(t, in.Edges, rev.Lattice.Edges)

	got, err := s.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, rev, got)
	assert.Equal(t, int64(9), in.Version, "input is not modified")
}

func TestCreate_Rejects(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	_, err := s.Create(ctx, triangle("t1", "triangle"))
	require.NoError(t, err)

	t.Run("invalid lattice", func(t *testing.T) {
		l := triangle("t2", "broken")
		l.CharacterMap["D"] = lattice.CharEdge{Start: 0, End: 1} // same directed edge as A
		_, err := s.Create(ctx, l)
		assert.ErrorIs(t, err, lattice.ErrInvalidLattice)
		var ie *lattice.InvalidLatticeError
		require.ErrorAs(t, err, &ie)
		assert.True(t, ie.HasCode(lattice.ErrDirectedCollision))
	})

	t.Run("missing id", func(t *testing.T) {
		_, err := s.Create(ctx, triangle("", "anonymous"))
		assert.Error(t, err)
	})

	t.Run("duplicate id", func(t *testing.T) {
		_, err := s.Create(ctx, triangle("t1", "other"))
		assert.ErrorIs(t, err, ErrExists)
	})

	t.Run("duplicate name", func(t *testing.T) {
		_, err := s.Create(ctx, triangle("t3", "triangle"))
		assert.ErrorIs(t, err, ErrNameTaken)
	})

	t.Run("name of builtin", func(t *testing.T) {
		_, err := s.Create(ctx, triangle("t4", lattice.DefaultName))
		assert.ErrorIs(t, err, ErrNameTaken)
	})

	list, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2, "rejected lattices leave no rows")
}

func TestUpdateCreatesRevision(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	v1, err := s.Create(ctx, triangle("t1", "triangle"))
	require.NoError(t, err)

	edited := triangle("t1", "triangle-2")
	edited.CharacterMap["D"] = lattice.CharEdge{Start: 2, End: 1}
	v2, err := s.Update(ctx, edited)
	require.NoError(t, err)

	assert.Equal(t, "t1", v2.Lattice.ID, "id is stable")
	assert.Equal(t, int64(2), v2.Lattice.Version)
	assert.Equal(t, "triangle-2", v2.Lattice.Name)
	assert.NotEqual(t, v1.Digest, v2.Digest)

	old, err := s.GetRevision(ctx, "t1", 1)
	require.NoError(t, err)
	assert.Equal(t, v1, old, "earlier revisions are unchanged")
	assert.NotContains(t, old.Lattice.CharacterMap, "D")

	versions, err := s.Versions(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, versions)

	// The old name is free again.
	_, err = s.Create(ctx, triangle("t2", "triangle"))
	assert.NoError(t, err)
}

func TestUpdate_Rejects(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	_, err := s.Create(ctx, triangle("t1", "one"))
	require.NoError(t, err)
	_, err = s.Create(ctx, triangle("t2", "two"))
	require.NoError(t, err)

	_, err = s.Update(ctx, triangle("missing", "x"))
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.Update(ctx, triangle("t1", "two"))
	assert.ErrorIs(t, err, ErrNameTaken)

	bad := triangle("t1", "one")
	bad.Edges = append(bad.Edges, lattice.Edge{A: 0, B: 0})
	_, err = s.Update(ctx, bad)
	assert.True(t, lattice.IsInvalid(err))

	rev, err := s.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), rev.Lattice.Version)
}

func TestDelete(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	_, err := s.Create(ctx, triangle("t1", "triangle"))
	require.NoError(t, err)
	_, err = s.Update(ctx, triangle("t1", "triangle"))
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, "t1"))

	_, err = s.Get(ctx, "t1")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.GetRevision(ctx, "t1", 1)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Versions(ctx, "t1")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, s.Delete(ctx, "t1"), ErrNotFound)
}

func TestResolve(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	_, err := s.Create(ctx, triangle("t1", "triangle"))
	require.NoError(t, err)

	byID, err := s.Resolve(ctx, "t1")
	require.NoError(t, err)
	byName, err := s.Resolve(ctx, "triangle")
	require.NoError(t, err)
	assert.Equal(t, byID, byName)

	builtin, err := s.Resolve(ctx, lattice.DefaultName)
	require.NoError(t, err)
	assert.Equal(t, lattice.DefaultID, builtin.Lattice.ID)

	_, err = s.Resolve(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestList(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	_, err := s.Create(ctx, triangle("t2", "zeta"))
	require.NoError(t, err)
	_, err = s.Create(ctx, triangle("t1", "alpha"))
	require.NoError(t, err)

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)

	assert.Equal(t, lattice.DefaultID, list[0].ID, "built-ins first")
	assert.True(t, list[0].Builtin)
	assert.Equal(t, 37, list[0].Characters)
	assert.Equal(t, "alpha", list[1].Name)
	assert.Equal(t, "zeta", list[2].Name)
	assert.Equal(t, 3, list[1].Characters)
}

func TestGet_DetectsCorruptedRow(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	_, err := s.Create(ctx, triangle("t1", "triangle"))
	require.NoError(t, err)

	_, err = s.db.Exec(`UPDATE lattice_revisions SET character_map = '{"A":[1,0]}' WHERE lattice_id = 't1'`)
	require.NoError(t, err)

	_, err = s.Get(ctx, "t1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not match")
}

func TestMarshalContent_EscapesNothing(t *testing.T) {
	l := triangle("t1", "x")
	l.CharacterMap = map[string]lattice.CharEdge{"<": {Start: 0, End: 1}, "&": {Start: 1, End: 0}}
	c, err := marshalContent(l)
	require.NoError(t, err)
	assert.Equal(t, `{"&":[1,0],"<":[0,1]}`, c.characterMap)
	assert.Equal(t, `[[0,1],[1,2],[2,0]]`, c.edges)
	assert.Equal(t, `{"case":"upper","whitespace":"collapse"}`, c.rules)
}
