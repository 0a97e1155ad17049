package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/vector"

	"github.com/roach88/latticeglyph/internal/codec"
	"github.com/roach88/latticeglyph/internal/geometry"
)

// MaxRasterSize bounds the edge length of a rasterized preview.
const MaxRasterSize = 4096

// Rasterize draws path into a size x size RGBA image. Strokes are filled
// as quads of the style's stroke width and nodes as diamonds, so the image
// matches the SVG stroke topology without an SVG engine.
func (r *Renderer) Rasterize(path codec.Path, style Style, o geometry.Orientation, size int) (*image.RGBA, error) {
	if size <= 0 || size > MaxRasterSize {
		return nil, fmt.Errorf("raster size must be in 1..%d, got %d", MaxRasterSize, size)
	}
	if err := style.Validate(); err != nil {
		return nil, err
	}
	tr, err := r.Transformer(style, o)
	if err != nil {
		return nil, err
	}

	stroke, _ := parseColor(style.Stroke)
	background, _ := parseColor(style.Background)

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)

	k := float64(size) / tr.Viewport().Size
	toPixels := func(p geometry.Point) geometry.Point { return tr.Apply(p).Mul(k) }
	width := style.StrokeWidth * k

	z := vector.NewRasterizer(size, size)
	if style.Grid {
		grid, _ := parseColor(style.GridColor)
		for _, e := range r.ix.Lattice().Edges {
			pa, _ := r.ix.Point(e.A)
			pb, _ := r.ix.Point(e.B)
			segment(z, toPixels(pa), toPixels(pb), width/4)
		}
		fill(z, dst, grid)
	}
	if style.Nodes && style.NodeRadius > 0 {
		node, _ := parseColor(style.NodeColor)
		rad := float32(style.NodeRadius * k)
		for _, a := range r.ix.Anchors() {
			p := toPixels(a)
			x, y := float32(p.X), float32(p.Y)
			z.MoveTo(x, y-rad)
			z.LineTo(x+rad, y)
			z.LineTo(x, y+rad)
			z.LineTo(x-rad, y)
			z.ClosePath()
		}
		fill(z, dst, node)
	}

	var pts []geometry.Point
	var pen geometry.Point
	for _, e := range path.Map(toPixels) {
		to := e.End()
		switch e := e.(type) {
		case codec.Line:
			segment(z, pen, to, width)
		case codec.Tick:
			segment(z, pen, to, width)
			segment(z, e.To, e.Mark, width)
		}
		pen = to
		pts = append(pts, to)
	}
	if n := len(pts); n >= 2 {
		if end, ok := geometry.CrossStroke(pts[n-2], pts[n-1], style.CapLength*k); ok && style.CapLength > 0 {
			segment(z, pts[n-1], end, width)
		}
	}
	fill(z, dst, stroke)
	return dst, nil
}

// segment adds the quad covering p→q at the given width. Zero-length
// segments add nothing.
func segment(z *vector.Rasterizer, p, q geometry.Point, width float64) {
	n, ok := geometry.Perpendicular(p, q)
	if !ok {
		return
	}
	h := n.Mul(width / 2)
	a, b, c, d := p.Add(h), q.Add(h), q.Sub(h), p.Sub(h)
	z.MoveTo(float32(a.X), float32(a.Y))
	z.LineTo(float32(b.X), float32(b.Y))
	z.LineTo(float32(c.X), float32(c.Y))
	z.LineTo(float32(d.X), float32(d.Y))
	z.ClosePath()
}

// fill paints the accumulated shapes and resets the rasterizer.
func fill(z *vector.Rasterizer, dst *image.RGBA, c color.RGBA) {
	b := dst.Bounds()
	z.DrawOp = draw.Over
	z.Draw(dst, b, image.NewUniform(c), image.Point{})
	z.Reset(b.Dx(), b.Dy())
}
