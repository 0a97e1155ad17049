package lattice

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// triangle is a small valid lattice used across tests.
func triangle() *Lattice {
	return &Lattice{
		Name:     "triangle",
		Vertices: []Vertex{{ID: 0, X: 0, Y: 0}, {ID: 1, X: 1, Y: 0}, {ID: 2, X: 0, Y: 1}},
		Edges:    []Edge{{0, 1}, {1, 2}, {2, 0}},
		CharacterMap: map[string]CharEdge{
			"A": {0, 1},
			"B": {1, 0},
			"C": {1, 2},
		},
	}
}

func invalidCodes(t *testing.T, err error) []string {
	t.Helper()
	var ie *InvalidLatticeError
	require.ErrorAs(t, err, &ie)
	codes := make([]string, len(ie.Problems))
	for i, p := range ie.Problems {
		codes[i] = p.Code
	}
	return codes
}

func TestDefaultLatticeIsValid(t *testing.T) {
	l := Default()
	require.NoError(t, Validate(l))

	assert.Len(t, l.Vertices, 7)
	assert.Len(t, l.Edges, 21)
	assert.Len(t, l.CharacterMap, 37)
	assert.Equal(t, CharEdge{0, 1}, l.CharacterMap["A"])
	assert.Equal(t, CharEdge{5, 0}, l.CharacterMap["F"])
	assert.Equal(t, " 0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ", l.Alphabet())
}

func TestDefaultLatticeGeometry(t *testing.T) {
	ix, err := NewIndex(Default())
	require.NoError(t, err)

	// Every ring vertex sits at radius 1 around the center.
	center, ok := ix.Point(6)
	require.True(t, ok)
	for id := 0; id < 6; id++ {
		p, ok := ix.Point(id)
		require.True(t, ok)
		assert.InDelta(t, 1.0, p.Distance(center), 1e-12, "vertex %d", id)
	}

	// Ring edges and spokes are the shortest edges: length 1.
	assert.InDelta(t, 1.0, ix.EdgeLength(), 1e-12)
	assert.InDelta(t, 0.2, ix.TickLength(), 1e-12)
	assert.InDelta(t, 1.0, ix.Spacing(), 1e-12)
}

func TestValidateCollectsAllProblems(t *testing.T) {
	l := &Lattice{
		Vertices: []Vertex{{ID: 0, X: 0, Y: 0}, {ID: 0, X: 1, Y: 1}},
		Edges:    []Edge{{0, 0}},
	}
	codes := invalidCodes(t, Validate(l))
	assert.Contains(t, codes, ErrNameEmpty)
	assert.Contains(t, codes, ErrVertexID)
	assert.Contains(t, codes, ErrEdgeSelfLoop)
	assert.Contains(t, codes, ErrCharacterMapEmpty)
}

func TestValidateRules(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(l *Lattice)
		code   string
	}{
		{"sparse ids", func(l *Lattice) { l.Vertices[2].ID = 5 }, ErrVertexID},
		{"nan coordinate", func(l *Lattice) { l.Vertices[1].X = math.NaN() }, ErrVertexNotFinite},
		{"coincident", func(l *Lattice) { l.Vertices[2].X, l.Vertices[2].Y = 1, 0 }, ErrVertexCoincident},
		{"unknown vertex", func(l *Lattice) { l.Edges = append(l.Edges, Edge{0, 9}) }, ErrEdgeUnknownVertex},
		{"duplicate edge", func(l *Lattice) { l.Edges = append(l.Edges, Edge{1, 0}) }, ErrEdgeDuplicate},
		{"lowercase key", func(l *Lattice) { l.CharacterMap["a"] = CharEdge{2, 1} }, ErrCharacterKey},
		{"multi rune key", func(l *Lattice) { l.CharacterMap["AB"] = CharEdge{2, 1} }, ErrCharacterKey},
		{"tab key under collapse", func(l *Lattice) { l.CharacterMap["\t"] = CharEdge{2, 1} }, ErrCharacterKey},
		{"missing edge", func(l *Lattice) {
			l.Edges = l.Edges[:2]
			l.CharacterMap["D"] = CharEdge{0, 2}
		}, ErrCharacterEdge},
		{"directed collision", func(l *Lattice) { l.CharacterMap["D"] = CharEdge{0, 1} }, ErrDirectedCollision},
		{"bad rules", func(l *Lattice) { l.Rules.Case = "title" }, ErrRules},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := triangle()
			tt.mutate(l)
			err := Validate(l)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidLattice))
			assert.True(t, IsInvalid(err))
			assert.Contains(t, invalidCodes(t, err), tt.code)
		})
	}
}

func TestReverseDirectionSharingIsAllowed(t *testing.T) {
	l := triangle()
	// A and B share edge 0-1 in opposite directions.
	assert.NoError(t, Validate(l))
}

func TestNewIndexToleratesCollisions(t *testing.T) {
	l := triangle()
	l.CharacterMap["D"] = CharEdge{0, 1}

	ix, err := NewIndex(l)
	require.NoError(t, err, "collisions are reported, not fatal")
	assert.ElementsMatch(t, []string{"A", "D"}, ix.CharactersOn(CharEdge{0, 1}))

	var codes []string
	for _, p := range ix.Problems() {
		codes = append(codes, p.Code)
	}
	assert.Contains(t, codes, ErrDirectedCollision)
}

func TestNewIndexFailsOnStructuralProblems(t *testing.T) {
	l := triangle()
	l.Edges = append(l.Edges, Edge{0, 7})
	_, err := NewIndex(l)
	require.Error(t, err)
	assert.Contains(t, invalidCodes(t, err), ErrEdgeUnknownVertex)
}

func TestNearestVertices(t *testing.T) {
	ix, err := NewIndex(triangle())
	require.NoError(t, err)

	assert.Equal(t, []int{1}, ix.NearestVertices(Vertex{X: 1.0000001}.Point(), 1e-6))
	assert.Empty(t, ix.NearestVertices(Vertex{X: 0.5, Y: 0.5}.Point(), 1e-6))
	assert.Equal(t, []int{0, 1}, ix.NearestVertices(Vertex{X: 0.4}.Point(), 0.7))
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		rules Rules
		in    string
		want  string
	}{
		{"default upper", Rules{}, "hello", "HELLO"},
		{"collapse folds whitespace", Rules{}, "a\tb\nc\u00a0d", "A B C D"},
		{"collapse keeps runs and ends", Rules{}, "  a \t\n b  ", "  A    B  "},
		{"nfc", Rules{Case: CasePreserve}, "e\u0301", "\u00e9"},
		{"upper nfc", Rules{}, "e\u0301", "\u00c9"},
		{"lower", Rules{Case: CaseLower}, "MiXeD", "mixed"},
		{"preserve whitespace", Rules{Whitespace: WhitespacePreserve}, " a  b ", " A  B "},
		{"only spaces", Rules{}, "   ", "   "},
		{"empty", Rules{}, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.rules.Normalize(tt.in))
		})
	}
}

func TestFromAnchors(t *testing.T) {
	anchors := []Vertex{{ID: 0, X: 0, Y: 0}, {ID: 1, X: 2, Y: 0}, {ID: 2, X: 2, Y: 2}}
	l := FromAnchors(anchors, map[string]CharEdge{
		"X": {1, 0},
		"Y": {0, 1},
		"Z": {2, 1},
	}, Rules{})

	assert.Equal(t, AdhocName, l.Name)
	assert.Equal(t, []Edge{{0, 1}, {1, 2}}, l.Edges)
	assert.NoError(t, Validate(l))
}

func TestCloneIsDeep(t *testing.T) {
	l := Default()
	c := l.Clone()
	c.Vertices[0].X = 42
	c.CharacterMap["A"] = CharEdge{1, 2}
	c.Edges[0] = Edge{3, 5}

	assert.Equal(t, 0.0, l.Vertices[0].X)
	assert.Equal(t, CharEdge{0, 1}, l.CharacterMap["A"])
	assert.Equal(t, Edge{0, 1}, l.Edges[0])
}

func TestEdgeJSON(t *testing.T) {
	data, err := json.Marshal(triangle())
	require.NoError(t, err)
	assert.Contains(t, string(data), `"edges":[[0,1],[1,2],[2,0]]`)
	assert.Contains(t, string(data), `"A":[0,1]`)

	var back Lattice
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, triangle().Edges, back.Edges)
	assert.Equal(t, triangle().CharacterMap, back.CharacterMap)

	var e Edge
	assert.Error(t, json.Unmarshal([]byte(`[1,2,3]`), &e))
}

func TestEdgeYAML(t *testing.T) {
	src := `
name: tri
vertices:
  - {id: 0, x: 0, y: 0}
  - {id: 1, x: 1, y: 0}
edges:
  - [0, 1]
character_map:
  A: [0, 1]
  B: [1, 0]
`
	var l Lattice
	require.NoError(t, yaml.Unmarshal([]byte(src), &l))
	assert.Equal(t, []Edge{{0, 1}}, l.Edges)
	assert.Equal(t, CharEdge{1, 0}, l.CharacterMap["B"])
	require.NoError(t, Validate(&l))

	out, err := yaml.Marshal(&l)
	require.NoError(t, err)
	assert.Contains(t, string(out), "- [0, 1]")

	var bad Lattice
	assert.Error(t, yaml.Unmarshal([]byte("edges:\n  - [0]\n"), &bad))
}
