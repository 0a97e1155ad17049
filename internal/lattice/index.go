package lattice

import (
	"fmt"
	"math"
	"slices"

	"github.com/roach88/latticeglyph/internal/geometry"
)

// TickFraction is the tick cross-stroke length as a fraction of the
// lattice's characteristic (shortest) edge length.
const TickFraction = 0.2

// Index is a lookup structure over a lattice, used by the encoder and
// decoder. Building an Index only requires the lattice to be structurally
// usable; integrity problems such as directed-edge collisions are kept so
// that the decoder can report them instead of guessing.
type Index struct {
	lattice    *Lattice
	points     []geometry.Point
	edges      map[Edge]struct{}
	byEdge     map[CharEdge][]string
	problems   []Problem
	edgeLength float64
	spacing    float64
}

// NewIndex indexes l. It fails with an InvalidLatticeError when vertices or
// edges are unusable (bad ids, edges or characters referencing missing
// vertices or edges). Other problems are available through Problems.
func NewIndex(l *Lattice) (*Index, error) {
	ix, fatal := build(l)
	if len(fatal) > 0 {
		return nil, &InvalidLatticeError{Problems: fatal}
	}

	ix.edgeLength = ix.shortestEdge()
	ix.spacing = ix.minimumSpacing()
	return ix, nil
}

// build runs every check, returning the index with all problems recorded
// and the subset that makes the index unusable.
func build(l *Lattice) (*Index, []Problem) {
	ix := &Index{
		lattice: l,
		edges:   make(map[Edge]struct{}, len(l.Edges)),
		byEdge:  make(map[CharEdge][]string, len(l.CharacterMap)),
	}

	var fatal []Problem
	add := func(p Problem, isFatal bool) {
		ix.problems = append(ix.problems, p)
		if isFatal {
			fatal = append(fatal, p)
		}
	}

	if l.Name == "" {
		add(Problem{Code: ErrNameEmpty, Field: "name", Message: "name is required"}, false)
	}
	if err := l.Rules.Validate(); err != nil {
		add(Problem{Code: ErrRules, Field: "rules", Message: err.Error()}, true)
	}

	ix.indexVertices(add)
	ix.indexEdges(add)
	ix.indexCharacters(add)
	return ix, fatal
}

func (ix *Index) indexVertices(add func(Problem, bool)) {
	l := ix.lattice
	if len(l.Vertices) == 0 {
		add(Problem{Code: ErrNoVertices, Field: "vertices", Message: "at least one vertex is required"}, true)
		return
	}

	n := len(l.Vertices)
	ix.points = make([]geometry.Point, n)
	seen := make([]bool, n)
	for i, v := range l.Vertices {
		field := fmt.Sprintf("vertices[%d]", i)
		if v.ID < 0 || v.ID >= n {
			add(Problem{Code: ErrVertexID, Field: field, Message: fmt.Sprintf("id %d outside dense range 0..%d", v.ID, n-1)}, true)
			continue
		}
		if seen[v.ID] {
			add(Problem{Code: ErrVertexID, Field: field, Message: fmt.Sprintf("duplicate id %d", v.ID)}, true)
			continue
		}
		seen[v.ID] = true

		p := v.Point()
		if !p.IsFinite() {
			add(Problem{Code: ErrVertexNotFinite, Field: field, Message: fmt.Sprintf("coordinates (%v, %v) are not finite", v.X, v.Y)}, true)
		}
		ix.points[v.ID] = p
	}

	// Coincident vertices make decoding ambiguous but not impossible to
	// index, so they are not fatal here.
	for a := 0; a < n; a++ {
		for b := a + 1; b < n; b++ {
			if seen[a] && seen[b] && ix.points[a] == ix.points[b] {
				add(Problem{
					Code:    ErrVertexCoincident,
					Field:   "vertices",
					Message: fmt.Sprintf("vertices %d and %d share coordinates (%v, %v)", a, b, ix.points[a].X, ix.points[a].Y),
				}, false)
			}
		}
	}
}

func (ix *Index) hasVertex(id int) bool {
	return id >= 0 && id < len(ix.points)
}

func (ix *Index) indexEdges(add func(Problem, bool)) {
	for i, e := range ix.lattice.Edges {
		field := fmt.Sprintf("edges[%d]", i)
		if e.A == e.B {
			add(Problem{Code: ErrEdgeSelfLoop, Field: field, Message: fmt.Sprintf("edge joins vertex %d to itself", e.A)}, true)
			continue
		}
		if !ix.hasVertex(e.A) || !ix.hasVertex(e.B) {
			add(Problem{Code: ErrEdgeUnknownVertex, Field: field, Message: fmt.Sprintf("edge (%d, %d) references a missing vertex", e.A, e.B)}, true)
			continue
		}
		c := e.Canonical()
		if _, dup := ix.edges[c]; dup {
			add(Problem{Code: ErrEdgeDuplicate, Field: field, Message: fmt.Sprintf("edge (%d, %d) listed more than once", e.A, e.B)}, false)
			continue
		}
		ix.edges[c] = struct{}{}
	}
}

func (ix *Index) indexCharacters(add func(Problem, bool)) {
	l := ix.lattice
	if len(l.CharacterMap) == 0 {
		add(Problem{Code: ErrCharacterMapEmpty, Field: "character_map", Message: "at least one character is required"}, false)
		return
	}

	for _, ch := range l.Characters() {
		ce := l.CharacterMap[ch]
		field := fmt.Sprintf("character_map[%q]", ch)
		if !l.Rules.isNormalizedKey(ch) {
			add(Problem{Code: ErrCharacterKey, Field: field, Message: "key must be a single character in normalized form"}, false)
		}
		if _, ok := ix.edges[ce.Undirected()]; !ok {
			add(Problem{Code: ErrCharacterEdge, Field: field, Message: fmt.Sprintf("edge %s is not in the edge set", ce)}, true)
			continue
		}
		ix.byEdge[ce] = append(ix.byEdge[ce], ch)
	}

	edges := make([]CharEdge, 0, len(ix.byEdge))
	for ce := range ix.byEdge {
		edges = append(edges, ce)
	}
	slices.SortFunc(edges, compareCharEdge)
	for _, ce := range edges {
		if chars := ix.byEdge[ce]; len(chars) > 1 {
			add(Problem{
				Code:    ErrDirectedCollision,
				Field:   "character_map",
				Message: fmt.Sprintf("characters %q all map to directed edge %s", chars, ce),
			}, false)
		}
	}
}

func compareCharEdge(a, b CharEdge) int {
	if a.Start != b.Start {
		return a.Start - b.Start
	}
	return a.End - b.End
}

func (ix *Index) shortestEdge() float64 {
	shortest := math.Inf(1)
	for e := range ix.edges {
		if d := ix.points[e.A].Distance(ix.points[e.B]); d > 0 && d < shortest {
			shortest = d
		}
	}
	if math.IsInf(shortest, 1) {
		return 0
	}
	return shortest
}

func (ix *Index) minimumSpacing() float64 {
	spacing := math.Inf(1)
	for a := range ix.points {
		for b := a + 1; b < len(ix.points); b++ {
			if d := ix.points[a].Distance(ix.points[b]); d > 0 && d < spacing {
				spacing = d
			}
		}
	}
	if math.IsInf(spacing, 1) {
		return 0
	}
	return spacing
}

// Lattice returns the indexed lattice.
func (ix *Index) Lattice() *Lattice { return ix.lattice }

// Problems returns every invariant violation found while indexing.
func (ix *Index) Problems() []Problem { return ix.problems }

// Point returns the coordinates of vertex id.
func (ix *Index) Point(id int) (geometry.Point, bool) {
	if !ix.hasVertex(id) {
		return geometry.Point{}, false
	}
	return ix.points[id], true
}

// Anchors returns every vertex position ordered by id.
func (ix *Index) Anchors() []geometry.Point {
	return slices.Clone(ix.points)
}

// Lookup returns the directed edge for a normalized character.
func (ix *Index) Lookup(ch string) (CharEdge, bool) {
	ce, ok := ix.lattice.CharacterMap[ch]
	return ce, ok
}

// CharactersOn returns the characters mapped to exactly the directed edge
// ce. More than one result means the lattice is malformed.
func (ix *Index) CharactersOn(ce CharEdge) []string {
	return ix.byEdge[ce]
}

// EdgeLength is the characteristic edge length: the shortest edge.
func (ix *Index) EdgeLength() float64 { return ix.edgeLength }

// TickLength is the length of the disambiguation cross-stroke.
func (ix *Index) TickLength() float64 { return ix.edgeLength * TickFraction }

// Spacing is the smallest distance between two distinct vertices.
func (ix *Index) Spacing() float64 { return ix.spacing }

// NearestVertices returns the ids of every vertex within tol of p,
// nearest first.
func (ix *Index) NearestVertices(p geometry.Point, tol float64) []int {
	var ids []int
	for id, q := range ix.points {
		if q.Distance(p) <= tol {
			ids = append(ids, id)
		}
	}
	slices.SortStableFunc(ids, func(a, b int) int {
		da, db := ix.points[a].Distance(p), ix.points[b].Distance(p)
		switch {
		case da < db:
			return -1
		case da > db:
			return 1
		}
		return 0
	})
	return ids
}
