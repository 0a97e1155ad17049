package render

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/roach88/latticeglyph/internal/codec"
	"github.com/roach88/latticeglyph/internal/geometry"
)

// Markup is a glyph recovered from rendered SVG: the event list in
// viewport coordinates plus the parameters needed to undo the transform.
type Markup struct {
	Orientation geometry.Orientation
	Viewport    geometry.Viewport
	Path        codec.Path
}

type tickMark struct {
	event int
	to    geometry.Point
	mark  geometry.Point
}

// ParseMarkup reads SVG produced by Render. Background, grid, node and
// end cap elements are ignored.
func ParseMarkup(markup string) (*Markup, error) {
	dec := xml.NewDecoder(strings.NewReader(markup))

	m := &Markup{Path: codec.Path{}}
	var ticks []tickMark
	sawRoot := false

	for {
		tok, err := dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("parse markup: %w", err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		switch start.Name.Local {
		case "svg":
			if err := m.readRoot(start.Attr); err != nil {
				return nil, err
			}
			sawRoot = true
		case "path":
			class, d, event := pathAttrs(start.Attr)
			switch class {
			case "stroke":
				events, err := parseStroke(d)
				if err != nil {
					return nil, err
				}
				m.Path = append(m.Path, events...)
			case "tick":
				t, err := parseTick(d, event)
				if err != nil {
					return nil, err
				}
				ticks = append(ticks, t)
			}
		}
	}

	if !sawRoot {
		return nil, fmt.Errorf("parse markup: no svg element")
	}
	for _, t := range ticks {
		if err := m.applyTick(t); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Markup) readRoot(attrs []xml.Attr) error {
	var haveViewBox, havePadding bool
	for _, a := range attrs {
		var err error
		switch a.Name.Local {
		case "viewBox":
			m.Viewport.Size, err = parseViewBox(a.Value)
			haveViewBox = true
		case "data-rotation":
			m.Orientation.Rotation, err = strconv.ParseFloat(a.Value, 64)
		case "data-mirror":
			m.Orientation.Mirror, err = strconv.ParseBool(a.Value)
		case "data-flip":
			m.Orientation.FlipVertical, err = strconv.ParseBool(a.Value)
		case "data-padding":
			m.Viewport.Padding, err = strconv.ParseFloat(a.Value, 64)
			havePadding = true
		}
		if err != nil {
			return fmt.Errorf("parse markup: attribute %s: %w", a.Name.Local, err)
		}
	}
	if !haveViewBox || !havePadding {
		return fmt.Errorf("parse markup: svg element lacks viewBox or data-padding")
	}
	if err := m.Orientation.Validate(); err != nil {
		return fmt.Errorf("parse markup: %w", err)
	}
	return m.Viewport.Validate()
}

// parseViewBox accepts only square viewports anchored at the origin.
func parseViewBox(s string) (float64, error) {
	f := strings.Fields(strings.ReplaceAll(s, ",", " "))
	if len(f) != 4 || f[0] != "0" || f[1] != "0" || f[2] != f[3] {
		return 0, fmt.Errorf("unsupported viewBox %q", s)
	}
	return strconv.ParseFloat(f[2], 64)
}

func pathAttrs(attrs []xml.Attr) (class, d, event string) {
	for _, a := range attrs {
		switch a.Name.Local {
		case "class":
			class = a.Value
		case "d":
			d = a.Value
		case "data-event":
			event = a.Value
		}
	}
	return class, d, event
}

// parseStroke reads "M x y L x y ..." into a Move followed by Lines.
func parseStroke(d string) (codec.Path, error) {
	cmds, err := parsePathData(d)
	if err != nil {
		return nil, err
	}
	if len(cmds) == 0 || cmds[0].op != 'M' {
		return nil, fmt.Errorf("parse markup: stroke %q must start with M", d)
	}
	events := make(codec.Path, 0, len(cmds))
	for i, c := range cmds {
		if i > 0 && c.op == 'M' {
			return nil, fmt.Errorf("parse markup: stroke %q moves more than once", d)
		}
		if c.op == 'M' {
			events = append(events, codec.Move{To: c.pt})
		} else {
			events = append(events, codec.Line{To: c.pt})
		}
	}
	return events, nil
}

func parseTick(d, event string) (tickMark, error) {
	idx, err := strconv.Atoi(event)
	if err != nil {
		return tickMark{}, fmt.Errorf("parse markup: tick data-event %q: %w", event, err)
	}
	cmds, err := parsePathData(d)
	if err != nil {
		return tickMark{}, err
	}
	if len(cmds) != 2 || cmds[0].op != 'M' || cmds[1].op != 'L' {
		return tickMark{}, fmt.Errorf("parse markup: tick %q must be a single segment", d)
	}
	return tickMark{event: idx, to: cmds[0].pt, mark: cmds[1].pt}, nil
}

func (m *Markup) applyTick(t tickMark) error {
	if t.event < 0 || t.event >= len(m.Path) {
		return fmt.Errorf("parse markup: tick refers to missing event %d", t.event)
	}
	line, ok := m.Path[t.event].(codec.Line)
	if !ok {
		return fmt.Errorf("parse markup: tick refers to event %d which is not a segment", t.event)
	}
	if line.To != t.to {
		return fmt.Errorf("parse markup: tick %d does not start at its segment end", t.event)
	}
	m.Path[t.event] = codec.Tick{To: line.To, Mark: t.mark}
	return nil
}

type pathCmd struct {
	op byte
	pt geometry.Point
}

// parsePathData reads absolute M and L commands. Commas and whitespace
// separate numbers; repeated coordinate pairs continue the last command,
// with pairs after M treated as L.
func parsePathData(d string) ([]pathCmd, error) {
	tokens := tokenizePath(d)
	var cmds []pathCmd
	var op byte
	for i := 0; i < len(tokens); {
		tok := tokens[i]
		if tok == "M" || tok == "L" {
			op = tok[0]
			i++
			continue
		}
		if op == 0 {
			return nil, fmt.Errorf("parse markup: path data %q has coordinates before a command", d)
		}
		if i+1 >= len(tokens) {
			return nil, fmt.Errorf("parse markup: path data %q has an odd number of coordinates", d)
		}
		x, errX := strconv.ParseFloat(tokens[i], 64)
		y, errY := strconv.ParseFloat(tokens[i+1], 64)
		if err := errors.Join(errX, errY); err != nil {
			return nil, fmt.Errorf("parse markup: path data %q: %w", d, err)
		}
		cmds = append(cmds, pathCmd{op: op, pt: geometry.Pt(x, y)})
		if op == 'M' {
			op = 'L'
		}
		i += 2
	}
	return cmds, nil
}

// tokenizePath splits path data into command letters and numbers.
func tokenizePath(d string) []string {
	var tokens []string
	var cur bytes.Buffer
	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}
	for i := 0; i < len(d); i++ {
		c := d[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == ',':
			flush()
		case c == 'e' || c == 'E':
			cur.WriteByte(c)
		case c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z':
			flush()
			tokens = append(tokens, string(c))
		case c == '-' || c == '+':
			if n := cur.Len(); n > 0 {
				if last := cur.Bytes()[n-1]; last != 'e' && last != 'E' {
					flush()
				}
			}
			cur.WriteByte(c)
		default:
			cur.WriteByte(c)
		}
	}
	flush()
	return tokens
}
