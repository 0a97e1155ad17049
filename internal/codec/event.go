package codec

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/latticeglyph/internal/geometry"
)

// Kind names an event variant.
type Kind string

const (
	KindMove Kind = "move"
	KindLine Kind = "line"
	KindTick Kind = "tick"
)

// Event is one drawing instruction of an encoded path. The set of variants
// is closed: Move, Line and Tick.
type Event interface {
	Kind() Kind
	// End is the point the pen rests on after the event.
	End() geometry.Point
	mapPoints(f func(geometry.Point) geometry.Point) Event
}

// Move lifts the pen and starts a new stroke at To.
type Move struct {
	To geometry.Point
}

// Line draws a straight segment from the current point to To.
type Line struct {
	To geometry.Point
}

// Tick draws a segment to To, then a short cross-stroke from To to Mark.
type Tick struct {
	To   geometry.Point
	Mark geometry.Point
}

func (Move) Kind() Kind { return KindMove }
func (Line) Kind() Kind { return KindLine }
func (Tick) Kind() Kind { return KindTick }

func (e Move) End() geometry.Point { return e.To }
func (e Line) End() geometry.Point { return e.To }
func (e Tick) End() geometry.Point { return e.To }

func (e Move) mapPoints(f func(geometry.Point) geometry.Point) Event {
	return Move{To: f(e.To)}
}

func (e Line) mapPoints(f func(geometry.Point) geometry.Point) Event {
	return Line{To: f(e.To)}
}

func (e Tick) mapPoints(f func(geometry.Point) geometry.Point) Event {
	return Tick{To: f(e.To), Mark: f(e.Mark)}
}

// Path is an encoded path.
type Path []Event

// Map returns a copy of the path with every coordinate passed through f.
// Tick marks are mapped as points, so the cross-stroke keeps its shape
// under any affine f.
func (p Path) Map(f func(geometry.Point) geometry.Point) Path {
	if p == nil {
		return nil
	}
	out := make(Path, len(p))
	for i, e := range p {
		out[i] = e.mapPoints(f)
	}
	return out
}

// Kinds returns the event kinds in order.
func (p Path) Kinds() []Kind {
	kinds := make([]Kind, len(p))
	for i, e := range p {
		kinds[i] = e.Kind()
	}
	return kinds
}

// Segments counts the Line and Tick events, one per encoded character.
func (p Path) Segments() int {
	n := 0
	for _, e := range p {
		if e.Kind() != KindMove {
			n++
		}
	}
	return n
}

// Equal reports whether two paths hold the same events with identical
// coordinates.
func (p Path) Equal(q Path) bool {
	if len(p) != len(q) {
		return false
	}
	for i := range p {
		if p[i] != q[i] {
			return false
		}
	}
	return true
}

// wireEvent is the JSON shape of an event. Tick marks use tx/ty.
type wireEvent struct {
	Op Kind     `json:"op"`
	X  float64  `json:"x"`
	Y  float64  `json:"y"`
	TX *float64 `json:"tx,omitempty"`
	TY *float64 `json:"ty,omitempty"`
}

// MarshalJSON encodes the path as [{"op":"move","x":0,"y":-1}, ...].
func (p Path) MarshalJSON() ([]byte, error) {
	wire := make([]wireEvent, len(p))
	for i, e := range p {
		to := e.End()
		w := wireEvent{Op: e.Kind(), X: to.X, Y: to.Y}
		if t, ok := e.(Tick); ok {
			tx, ty := t.Mark.X, t.Mark.Y
			w.TX, w.TY = &tx, &ty
		}
		wire[i] = w
	}
	return json.Marshal(wire)
}

// UnmarshalJSON decodes the format written by MarshalJSON.
func (p *Path) UnmarshalJSON(data []byte) error {
	var wire []wireEvent
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	out := make(Path, 0, len(wire))
	for i, w := range wire {
		e, err := w.event()
		if err != nil {
			return fmt.Errorf("event %d: %w", i, err)
		}
		out = append(out, e)
	}
	*p = out
	return nil
}

func (w wireEvent) event() (Event, error) {
	to := geometry.Pt(w.X, w.Y)
	hasMark := w.TX != nil || w.TY != nil
	switch w.Op {
	case KindMove, KindLine:
		if hasMark {
			return nil, fmt.Errorf("%s event has tick coordinates", w.Op)
		}
		if w.Op == KindMove {
			return Move{To: to}, nil
		}
		return Line{To: to}, nil
	case KindTick:
		if w.TX == nil || w.TY == nil {
			return nil, fmt.Errorf("tick event requires tx and ty")
		}
		return Tick{To: to, Mark: geometry.Pt(*w.TX, *w.TY)}, nil
	default:
		return nil, fmt.Errorf("unknown op %q", w.Op)
	}
}
