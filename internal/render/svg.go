package render

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/roach88/latticeglyph/internal/codec"
	"github.com/roach88/latticeglyph/internal/geometry"
	"github.com/roach88/latticeglyph/internal/lattice"
)

// Renderer draws paths of one lattice. Every glyph of a lattice is fitted
// to the lattice's vertex bounds, so glyphs share placement and scale.
type Renderer struct {
	ix *lattice.Index
}

// New returns a Renderer for l.
func New(l *lattice.Lattice) (*Renderer, error) {
	ix, err := lattice.NewIndex(l)
	if err != nil {
		return nil, err
	}
	return &Renderer{ix: ix}, nil
}

// Transformer returns the lattice-to-viewport transform for a style and
// orientation.
func (r *Renderer) Transformer(style Style, o geometry.Orientation) (*geometry.Transformer, error) {
	return geometry.NewTransformer(r.ix.Anchors(), o, style.Viewport())
}

// Render returns the SVG markup of path. An empty path renders as a valid
// glyph with no strokes.
func (r *Renderer) Render(path codec.Path, style Style, o geometry.Orientation) (string, error) {
	if err := style.Validate(); err != nil {
		return "", err
	}
	tr, err := r.Transformer(style, o)
	if err != nil {
		return "", err
	}
	vp := tr.Viewport()
	size := num(vp.Size)

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %s %s" data-rotation="%s" data-mirror="%t" data-flip="%t" data-padding="%s">`,
		size, size, exact(o.Rotation), o.Mirror, o.FlipVertical, exact(vp.Padding))
	b.WriteByte('\n')

	if style.Background != "none" {
		fmt.Fprintf(&b, `<rect class="background" width="%s" height="%s" fill="%s"/>`+"\n", size, size, style.Background)
	}
	if style.Grid {
		r.writeGrid(&b, tr, style)
	}
	if style.Nodes {
		r.writeNodes(&b, tr, style)
	}

	fmt.Fprintf(&b, `<g class="glyph" fill="none" stroke="%s" stroke-width="%s" stroke-linecap="round" stroke-linejoin="round">`+"\n",
		style.Stroke, num(style.StrokeWidth))
	writeGlyph(&b, path.Map(tr.Apply), style.CapLength)
	b.WriteString("</g>\n</svg>")
	return b.String(), nil
}

func (r *Renderer) writeGrid(b *strings.Builder, tr *geometry.Transformer, style Style) {
	fmt.Fprintf(b, `<g class="grid" stroke="%s" stroke-width="%s">`+"\n", style.GridColor, num(style.StrokeWidth/4))
	for _, e := range r.ix.Lattice().Edges {
		pa, _ := r.ix.Point(e.A)
		pb, _ := r.ix.Point(e.B)
		p, q := tr.Apply(pa), tr.Apply(pb)
		fmt.Fprintf(b, `<line x1="%s" y1="%s" x2="%s" y2="%s"/>`+"\n", num(p.X), num(p.Y), num(q.X), num(q.Y))
	}
	b.WriteString("</g>\n")
}

func (r *Renderer) writeNodes(b *strings.Builder, tr *geometry.Transformer, style Style) {
	fmt.Fprintf(b, `<g class="nodes" fill="%s">`+"\n", style.NodeColor)
	for _, a := range r.ix.Anchors() {
		p := tr.Apply(a)
		fmt.Fprintf(b, `<circle cx="%s" cy="%s" r="%s"/>`+"\n", num(p.X), num(p.Y), num(style.NodeRadius))
	}
	b.WriteString("</g>\n")
}

// writeGlyph writes strokes, tick cross-strokes and the end cap of a path
// already in viewport coordinates.
func writeGlyph(b *strings.Builder, path codec.Path, capLength float64) {
	var (
		run   strings.Builder
		ticks []string
		pts   []geometry.Point
	)
	flush := func() {
		if run.Len() > 0 {
			fmt.Fprintf(b, `<path class="stroke" d="%s"/>`+"\n", run.String())
			run.Reset()
		}
	}

	for i, e := range path {
		to := e.End()
		switch e := e.(type) {
		case codec.Move:
			flush()
			fmt.Fprintf(&run, "M %s %s", num(to.X), num(to.Y))
		case codec.Line, codec.Tick:
			if run.Len() == 0 {
				// Segment without a preceding move: start the run at its end.
				fmt.Fprintf(&run, "M %s %s", num(to.X), num(to.Y))
				break
			}
			fmt.Fprintf(&run, " L %s %s", num(to.X), num(to.Y))
			if t, ok := e.(codec.Tick); ok {
				ticks = append(ticks, fmt.Sprintf(`<path class="tick" data-event="%d" d="M %s %s L %s %s"/>`,
					i, num(t.To.X), num(t.To.Y), num(t.Mark.X), num(t.Mark.Y)))
			}
		}
		pts = append(pts, to)
	}
	flush()

	for _, t := range ticks {
		b.WriteString(t)
		b.WriteByte('\n')
	}

	if n := len(pts); n >= 2 {
		last := pts[n-1]
		if end, ok := geometry.CrossStroke(pts[n-2], last, capLength); ok && capLength > 0 {
			fmt.Fprintf(b, `<path class="cap" d="M %s %s L %s %s"/>`+"\n", num(last.X), num(last.Y), num(end.X), num(end.Y))
		}
	}
}

// num formats a viewport coordinate with at most three decimals.
func num(v float64) string {
	r := math.Round(v*1000) / 1000
	if r == 0 {
		r = 0 // drop the sign of negative zero
	}
	return strconv.FormatFloat(r, 'f', -1, 64)
}

// exact formats a parameter so that parsing it returns the same value.
func exact(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Render is a one-shot helper that builds a Renderer for l.
func Render(path codec.Path, l *lattice.Lattice, style Style, o geometry.Orientation) (string, error) {
	r, err := New(l)
	if err != nil {
		return "", err
	}
	return r.Render(path, style, o)
}

// Unproject maps a parsed glyph back into lattice coordinates. It also
// returns the vertex match tolerance for decoding it: a quarter of the
// lattice's minimum vertex spacing, which absorbs markup rounding.
func (r *Renderer) Unproject(m *Markup) (codec.Path, float64, error) {
	tr, err := geometry.NewTransformer(r.ix.Anchors(), m.Orientation, m.Viewport)
	if err != nil {
		return nil, 0, err
	}
	return m.Path.Map(tr.Invert), r.ix.Spacing() / 4, nil
}
