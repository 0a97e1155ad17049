package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eps = 1e-9

func square() []Point {
	return []Point{Pt(-1, -1), Pt(1, -1), Pt(1, 1), Pt(-1, 1)}
}

func assertNear(t *testing.T, want, got Point) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, eps, "x")
	assert.InDelta(t, want.Y, got.Y, eps, "y")
}

func TestOrientationIdentity(t *testing.T) {
	o := Orientation{}
	assert.True(t, o.IsIdentity())
	assert.True(t, Orientation{Rotation: 360}.IsIdentity())
	assert.False(t, Orientation{Mirror: true}.IsIdentity())

	m := o.Matrix(Pt(3, 4))
	for _, p := range square() {
		assertNear(t, p, m.TransformPoint(p))
	}
}

func TestOrientationMirrorAndFlip(t *testing.T) {
	center := Pt(0, 0)

	mirror := Orientation{Mirror: true}.Matrix(center)
	assertNear(t, Pt(-2, 5), mirror.TransformPoint(Pt(2, 5)))

	flip := Orientation{FlipVertical: true}.Matrix(center)
	assertNear(t, Pt(2, -5), flip.TransformPoint(Pt(2, 5)))

	// Mirror about a non-origin center.
	off := Orientation{Mirror: true}.Matrix(Pt(10, 0))
	assertNear(t, Pt(18, 3), off.TransformPoint(Pt(2, 3)))
}

func TestOrientationRotationIsClockwiseOnScreen(t *testing.T) {
	m := Orientation{Rotation: 90}.Matrix(Pt(0, 0))
	// (1,0) points right; a clockwise quarter turn with y down points it down.
	got := m.TransformPoint(Pt(1, 0))
	assert.Equal(t, Pt(0, 1), got, "quarter turns are exact")
}

func TestOrientationOrderMatters(t *testing.T) {
	// Mirror then rotate differs from rotate then mirror for 90 degrees.
	o := Orientation{Mirror: true, Rotation: 90}
	got := o.Matrix(Pt(0, 0)).TransformPoint(Pt(1, 2))
	// mirror: (-1, 2); rotate 90 cw: (-2, -1)
	assertNear(t, Pt(-2, -1), got)

	rotateFirst := Scale(-1, 1).Multiply(RotateDegrees(90)).TransformPoint(Pt(1, 2))
	assert.NotEqual(t, got, rotateFirst)
}

func TestRotateDegreesNegativeAndLarge(t *testing.T) {
	assert.Equal(t, RotateDegrees(270), RotateDegrees(-90))
	assert.Equal(t, RotateDegrees(180), RotateDegrees(540))

	m := RotateDegrees(45)
	got := m.TransformPoint(Pt(1, 0))
	assertNear(t, Pt(math.Sqrt2/2, math.Sqrt2/2), got)
}

func TestOrientationValidate(t *testing.T) {
	assert.NoError(t, Orientation{Rotation: 33}.Validate())
	assert.Error(t, Orientation{Rotation: math.NaN()}.Validate())
	assert.Error(t, Orientation{Rotation: math.Inf(1)}.Validate())
}

func TestMatrixInvert(t *testing.T) {
	m := Translate(5, -3).Multiply(RotateDegrees(30)).Multiply(Scale(2, 2))
	inv, ok := m.Invert()
	require.True(t, ok)

	p := Pt(1.25, -7.5)
	assertNear(t, p, inv.TransformPoint(m.TransformPoint(p)))

	_, ok = Scale(0, 1).Invert()
	assert.False(t, ok)
}

func TestViewportFitPreservesAspectRatio(t *testing.T) {
	vp := DefaultViewport()
	b := BoundsOf([]Point{Pt(-2, -1), Pt(2, 1)})
	m := vp.Fit(b)

	// Width 4 spans the 80-unit padded area, height 2 spans 40 units.
	assertNear(t, Pt(10, 30), m.TransformPoint(Pt(-2, -1)))
	assertNear(t, Pt(90, 70), m.TransformPoint(Pt(2, 1)))
	assertNear(t, Pt(50, 50), m.TransformPoint(Pt(0, 0)))
}

func TestViewportFitDegenerate(t *testing.T) {
	vp := DefaultViewport()
	m := vp.Fit(BoundsOf([]Point{Pt(7, 7)}))
	assertNear(t, Pt(50, 50), m.TransformPoint(Pt(7, 7)))

	assert.True(t, vp.Fit(Bounds{}).IsIdentity())
}

func TestViewportValidate(t *testing.T) {
	assert.NoError(t, DefaultViewport().Validate())
	assert.Error(t, Viewport{Size: 0, Padding: 0.1}.Validate())
	assert.Error(t, Viewport{Size: 100, Padding: 0.5}.Validate())
	assert.Error(t, Viewport{Size: 100, Padding: -0.1}.Validate())
}

func TestTransformerIdentityOnlyNormalizesViewport(t *testing.T) {
	anchors := square()
	tr, err := NewTransformer(anchors, Orientation{}, DefaultViewport())
	require.NoError(t, err)

	fit := DefaultViewport().Fit(BoundsOf(anchors))
	for _, p := range anchors {
		assertNear(t, p, tr.Orient(p))
		assertNear(t, fit.TransformPoint(p), tr.Apply(p))
	}
	assert.InDelta(t, 40.0, tr.Scale(), eps)
}

func TestTransformerRoundTrip(t *testing.T) {
	tr, err := NewTransformer(square(), Orientation{Rotation: 37, Mirror: true, FlipVertical: true}, DefaultViewport())
	require.NoError(t, err)

	for _, p := range []Point{Pt(0.3, -0.7), Pt(1, 1), Pt(-1, 0.5)} {
		assertNear(t, p, tr.Invert(tr.Apply(p)))
	}
}

func TestTransformerRotatedStaysInViewport(t *testing.T) {
	tr, err := NewTransformer(square(), Orientation{Rotation: 45}, DefaultViewport())
	require.NoError(t, err)

	for _, p := range square() {
		q := tr.Apply(p)
		assert.GreaterOrEqual(t, q.X, 10-eps)
		assert.LessOrEqual(t, q.X, 90+eps)
		assert.GreaterOrEqual(t, q.Y, 10-eps)
		assert.LessOrEqual(t, q.Y, 90+eps)
	}
}

func TestTransformerRejectsBadInput(t *testing.T) {
	_, err := NewTransformer(square(), Orientation{Rotation: math.NaN()}, DefaultViewport())
	assert.Error(t, err)

	_, err = NewTransformer(square(), Orientation{}, Viewport{Size: -1})
	assert.Error(t, err)
}

func TestCrossStroke(t *testing.T) {
	end, ok := CrossStroke(Pt(0, 0), Pt(10, 0), 2)
	require.True(t, ok)
	assertNear(t, Pt(10, 2), end)

	_, ok = CrossStroke(Pt(1, 1), Pt(1, 1), 2)
	assert.False(t, ok)
}
