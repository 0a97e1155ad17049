package compiler

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/latticeglyph/internal/lattice"
)

func TestValidate_ReportsAllErrorsWithLines(t *testing.T) {
	def, err := CompileFile(filepath.Join("testdata", "broken.yaml"))
	require.NoError(t, err, "broken.yaml is well-formed, only invalid")

	errs := Validate(def)
	require.Len(t, errs, 3)

	assert.Equal(t, ErrInvalidID, errs[0].Code)
	assert.Equal(t, 1, errs[0].Line)

	assert.Equal(t, lattice.ErrVertexCoincident, errs[1].Code)
	assert.Equal(t, "vertices", errs[1].Field)
	assert.Equal(t, 3, errs[1].Line)

	assert.Equal(t, lattice.ErrEdgeSelfLoop, errs[2].Code)
	assert.Equal(t, "edges[1]", errs[2].Field)
	assert.Equal(t, 8, errs[2].Line)
	assert.Equal(t, "[E206] line 8: edges[1]: edge joins vertex 0 to itself", errs[2].Error())
}

func TestValidate_CharacterLines(t *testing.T) {
	src := "name: x\nvertices:\n  - {id: 0, x: 0, y: 0}\n  - {id: 1, x: 1, y: 0}\nedges:\n  - [0, 1]\ncharacter_map:\n  \"A\": [0, 1]\n  \"B\": [0, 1]\n  \"c\": [1, 0]\n"
	def, err := CompileYAML([]byte(src), "chars.yaml")
	require.NoError(t, err)

	errs := Validate(def)
	require.Len(t, errs, 2)

	assert.Equal(t, lattice.ErrCharacterKey, errs[0].Code)
	assert.Equal(t, `character_map["c"]`, errs[0].Field)
	assert.Equal(t, 10, errs[0].Line)

	assert.Equal(t, lattice.ErrDirectedCollision, errs[1].Code)
	assert.Equal(t, 7, errs[1].Line)
}

func TestValidate_IDPattern(t *testing.T) {
	tests := []struct {
		id    string
		valid bool
	}{
		{"", true},
		{"square", true},
		{"hex-7_b", true},
		{"0ring", true},
		{"Square", false},
		{"-lead", false},
		{"with space", false},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			l := squareLattice()
			l.ID = tt.id
			errs := Validate(&Definition{Lattice: l})
			if tt.valid {
				assert.Empty(t, errs)
			} else {
				require.Len(t, errs, 1)
				assert.Equal(t, ErrInvalidID, errs[0].Code)
				assert.Equal(t, 0, errs[0].Line)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	l, err := Load(filepath.Join("testdata", "square.cue"))
	require.NoError(t, err)
	assert.Equal(t, "square", l.Name)

	_, err = Load(filepath.Join("testdata", "broken.yaml"))
	require.Error(t, err)
	assert.True(t, IsLoadError(err))
	assert.Contains(t, err.Error(), "3 validation error(s)")
	assert.Contains(t, err.Error(), "[E101] line 1: id")
}

func TestLoad_CompileErrorIsNotLoadError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: [\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.False(t, IsLoadError(err))
	var ce *CompileError
	assert.ErrorAs(t, err, &ce)
}
