package codec

import (
	"strings"

	"github.com/roach88/latticeglyph/internal/geometry"
	"github.com/roach88/latticeglyph/internal/lattice"
)

// Epsilon is the default vertex match tolerance. Encoded paths carry exact
// lattice coordinates, so only serialization noise has to be absorbed.
const Epsilon = 1e-6

// Codec encodes and decodes text over one lattice. A Codec holds no
// mutable state and is safe for concurrent use.
type Codec struct {
	ix *lattice.Index
}

// New indexes l for encoding and decoding. Lattices with integrity
// problems that do not prevent indexing (such as two characters on one
// directed edge) are accepted so that Decode can report them.
func New(l *lattice.Lattice) (*Codec, error) {
	ix, err := lattice.NewIndex(l)
	if err != nil {
		return nil, err
	}
	return &Codec{ix: ix}, nil
}

// Index returns the lattice index the codec works from.
func (c *Codec) Index() *lattice.Index { return c.ix }

// Lattice returns the codec's lattice.
func (c *Codec) Lattice() *lattice.Lattice { return c.ix.Lattice() }

// Normalize applies the lattice's case and whitespace rules to text.
func (c *Codec) Normalize(text string) string {
	return c.ix.Lattice().Rules.Normalize(text)
}

// Encode normalizes text and converts it to a path. The whole encode fails
// on the first character the lattice does not map.
func (c *Codec) Encode(text string) (Path, error) {
	norm := c.Normalize(text)

	path := Path{}
	var prev lattice.CharEdge
	started := false
	for i, r := range []rune(norm) {
		ch := string(r)
		ce, ok := c.ix.Lookup(ch)
		if !ok {
			return nil, newUnmappedError(ch, i)
		}
		// Indexing guarantees both ends exist.
		start, _ := c.ix.Point(ce.Start)
		end, _ := c.ix.Point(ce.End)

		if !started || ce.Start != prev.End {
			path = append(path, Move{To: start})
		}
		if started && ce.SameSegment(prev) {
			path = append(path, Tick{To: end, Mark: c.tickMark(start, end)})
		} else {
			path = append(path, Line{To: end})
		}

		prev = ce
		started = true
	}
	return path, nil
}

// tickMark is the far end of the cross-stroke drawn at end. A zero-length
// edge (coincident vertices) gets a degenerate mark at end.
func (c *Codec) tickMark(start, end geometry.Point) geometry.Point {
	mark, ok := geometry.CrossStroke(start, end, c.ix.TickLength())
	if !ok {
		return end
	}
	return mark
}

// Decode recovers the normalized text of a path produced by Encode under
// the same lattice, matching coordinates within Epsilon.
func (c *Codec) Decode(path Path) (string, error) {
	return c.DecodeWithTolerance(path, Epsilon)
}

// DecodeWithTolerance is Decode with an explicit vertex match tolerance,
// used for paths recovered from rendered markup.
func (c *Codec) DecodeWithTolerance(path Path, tol float64) (string, error) {
	var (
		b       strings.Builder
		cursor  = -1
		prev    lattice.CharEdge
		hasPrev bool
		pending bool // a Move not yet followed by a segment
	)

	for i, e := range path {
		id, err := c.resolve(i, e.End(), tol)
		if err != nil {
			return "", err
		}

		if e.Kind() == KindMove {
			if pending {
				return "", newNoMatchError(i, "move follows a move without a segment")
			}
			cursor = id
			pending = true
			continue
		}
		if cursor < 0 {
			return "", newNoMatchError(i, "path must start with a move")
		}

		ce := lattice.CharEdge{Start: cursor, End: id}
		repeat := hasPrev && ce.SameSegment(prev)
		switch t := e.(type) {
		case Tick:
			if !repeat {
				return "", newNoMatchError(i, "tick on %s does not repeat the preceding edge", ce)
			}
			if !t.Mark.Near(c.tickMark(c.point(ce.Start), c.point(ce.End)), tol) {
				return "", newNoMatchError(i, "tick mark (%g, %g) is not a cross-stroke of %s", t.Mark.X, t.Mark.Y, ce)
			}
		case Line:
			if repeat {
				return "", newNoMatchError(i, "line repeats edge %s without a tick", ce)
			}
		}

		chars := c.ix.CharactersOn(ce)
		switch len(chars) {
		case 0:
			return "", newNoMatchError(i, "edge %s is not mapped to a character", ce)
		case 1:
		default:
			return "", newAmbiguousError(i, strings.Join(chars, ""),
				"characters %q all map to edge %s", chars, ce)
		}

		b.WriteString(chars[0])
		cursor = id
		prev = ce
		hasPrev = true
		pending = false
	}

	if pending {
		return "", newNoMatchError(len(path)-1, "path ends with a move")
	}
	return b.String(), nil
}

// resolve maps a point to the single vertex within tol.
func (c *Codec) resolve(segment int, p geometry.Point, tol float64) (int, error) {
	ids := c.ix.NearestVertices(p, tol)
	switch len(ids) {
	case 0:
		return -1, newNoMatchError(segment, "no vertex at (%g, %g)", p.X, p.Y)
	case 1:
		return ids[0], nil
	default:
		return -1, newAmbiguousError(segment, "",
			"vertices %v all lie within %g of (%g, %g)", ids, tol, p.X, p.Y)
	}
}

func (c *Codec) point(id int) geometry.Point {
	p, _ := c.ix.Point(id)
	return p
}

// Encode is a one-shot helper that builds a Codec for l and encodes text.
func Encode(text string, l *lattice.Lattice) (Path, error) {
	c, err := New(l)
	if err != nil {
		return nil, err
	}
	return c.Encode(text)
}

// Decode is a one-shot helper that builds a Codec for l and decodes path.
func Decode(path Path, l *lattice.Lattice) (string, error) {
	c, err := New(l)
	if err != nil {
		return "", err
	}
	return c.Decode(path)
}
