package testutil

import "github.com/roach88/latticeglyph/internal/lattice"

// SquareLattice returns a valid four-vertex lattice with lower-case
// letters a-d around the ring and e-h in reverse. The id is left empty.
func SquareLattice(name string) *lattice.Lattice {
	return &lattice.Lattice{
		Name:  name,
		Rules: lattice.Rules{Case: lattice.CaseLower},
		Vertices: []lattice.Vertex{
			{ID: 0, X: 0, Y: 0},
			{ID: 1, X: 1, Y: 0},
			{ID: 2, X: 1, Y: 1},
			{ID: 3, X: 0, Y: 1},
		},
		Edges: []lattice.Edge{{A: 0, B: 1}, {A: 1, B: 2}, {A: 2, B: 3}, {A: 3, B: 0}},
		CharacterMap: map[string]lattice.CharEdge{
			"a": {Start: 0, End: 1},
			"b": {Start: 1, End: 2},
			"c": {Start: 2, End: 3},
			"d": {Start: 3, End: 0},
			"e": {Start: 1, End: 0},
			"f": {Start: 2, End: 1},
			"g": {Start: 3, End: 2},
			"h": {Start: 0, End: 3},
		},
	}
}
