package geometry

import "fmt"

// Transformer applies an orientation and viewport fit computed from a
// fixed set of anchor points (normally every vertex of a lattice), so that
// all glyphs of one lattice share the same placement.
type Transformer struct {
	orient   Matrix
	full     Matrix
	inverse  Matrix
	viewport Viewport
	scale    float64
}

// NewTransformer builds a Transformer. The orientation center is the
// center of the anchors' bounding box; the viewport fit uses the bounds of
// the oriented anchors so rotated lattices stay inside the viewport.
func NewTransformer(anchors []Point, o Orientation, vp Viewport) (*Transformer, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}
	if err := vp.Validate(); err != nil {
		return nil, err
	}

	center := BoundsOf(anchors).Center()
	orient := o.Matrix(center)

	var oriented Bounds
	for _, p := range anchors {
		oriented = oriented.Extend(orient.TransformPoint(p))
	}
	fit := vp.Fit(oriented)
	full := fit.Multiply(orient)

	inv, ok := full.Invert()
	if !ok {
		return nil, fmt.Errorf("transform is not invertible")
	}

	return &Transformer{
		orient:   orient,
		full:     full,
		inverse:  inv,
		viewport: vp,
		scale:    fit.A,
	}, nil
}

// Orient applies only the orientation step.
func (t *Transformer) Orient(p Point) Point {
	return t.orient.TransformPoint(p)
}

// Apply maps a lattice point into viewport space.
func (t *Transformer) Apply(p Point) Point {
	return t.full.TransformPoint(p)
}

// Invert maps a viewport point back into lattice space.
func (t *Transformer) Invert(p Point) Point {
	return t.inverse.TransformPoint(p)
}

// Scale is the uniform lattice-to-viewport scale factor.
func (t *Transformer) Scale() float64 {
	return t.scale
}

// Viewport returns the viewport the transformer fits into.
func (t *Transformer) Viewport() Viewport {
	return t.viewport
}
