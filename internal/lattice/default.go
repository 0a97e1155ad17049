package lattice

// DefaultID is the id of the built-in lattice.
const DefaultID = "default"

// DefaultName is the name of the built-in lattice.
const DefaultName = "hexagram"

// sin60 is sqrt(3)/2, written out so the built-in coordinates do not
// depend on platform math routines.
const sin60 = 0.8660254037844386

// Default returns the built-in lattice: a pointy-top hexagon of radius 1
// (vertices 0-5 clockwise from the top) around a center vertex 6.
//
// Edges are the ring, the six spokes, the six chords i->i+2 and the three
// diameters i->i+3. The character map covers A-Z, 0-9 and space.
func Default() *Lattice {
	return &Lattice{
		ID:      DefaultID,
		Name:    DefaultName,
		Version: 1,
		Builtin: true,
		Rules:   DefaultRules(),
		Vertices: []Vertex{
			{ID: 0, X: 0, Y: -1},
			{ID: 1, X: sin60, Y: -0.5},
			{ID: 2, X: sin60, Y: 0.5},
			{ID: 3, X: 0, Y: 1},
			{ID: 4, X: -sin60, Y: 0.5},
			{ID: 5, X: -sin60, Y: -0.5},
			{ID: 6, X: 0, Y: 0},
		},
		Edges: []Edge{
			// ring
			{0, 1}, {1, 2}, {2, 3}, {3, 4}, {4, 5}, {5, 0},
			// spokes
			{0, 6}, {1, 6}, {2, 6}, {3, 6}, {4, 6}, {5, 6},
			// chords
			{0, 2}, {1, 3}, {2, 4}, {3, 5}, {4, 0}, {5, 1},
			// diameters
			{0, 3}, {1, 4}, {2, 5},
		},
		CharacterMap: map[string]CharEdge{
			// clockwise ring
			"A": {0, 1}, "B": {1, 2}, "C": {2, 3}, "D": {3, 4}, "E": {4, 5}, "F": {5, 0},
			// spokes outward
			"G": {6, 0}, "H": {6, 1}, "I": {6, 2}, "J": {6, 3}, "K": {6, 4}, "L": {6, 5},
			// chords
			"M": {0, 2}, "N": {1, 3}, "O": {2, 4}, "P": {3, 5}, "Q": {4, 0}, "R": {5, 1},
			// counter-clockwise ring
			"S": {1, 0}, "T": {2, 1}, "U": {3, 2}, "V": {4, 3}, "W": {5, 4}, "X": {0, 5},
			// diameters
			"Y": {0, 3}, "Z": {1, 4}, "0": {2, 5}, "1": {3, 0}, "2": {4, 1}, "3": {5, 2},
			// spokes inward
			"4": {0, 6}, "5": {1, 6}, "6": {2, 6}, "7": {3, 6}, "8": {4, 6}, "9": {5, 6},
			// reversed chord
			" ": {2, 0},
		},
	}
}
