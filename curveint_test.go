package solid

import (
	"math"
	"testing"

	"github.com/soypat/solid/curve"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func requireAligned(t *testing.T, curvePts []curve.Location, solidPts []LocationDetail) {
	t.Helper()
	require.Equal(t, len(curvePts), len(solidPts))
	for i := range curvePts {
		vecNear(t, curvePts[i].Point, solidPts[i].XYZ, 1e-6)
	}
}

func TestLineThroughSphere(t *testing.T) {
	s, err := NewSphere(r3.Vec{}, 1)
	require.NoError(t, err)
	line := curve.NewPath(curve.BoundaryOpen, &curve.Line{P0: r3.Vec{X: -3}, P1: r3.Vec{X: 3}})
	cp, sp := AddCurveIntersections(s, line, nil, nil, 4)
	require.Len(t, cp, 2)
	requireAligned(t, cp, sp)
	assert.InDelta(t, 1.0/3, cp[0].Fraction, 1e-9)
	assert.InDelta(t, 2.0/3, cp[1].Fraction, 1e-9)
	vecNear(t, r3.Vec{X: -1}, sp[0].XYZ, 1e-9)
	vecNear(t, r3.Vec{X: 1}, sp[1].XYZ, 1e-9)
	assert.Equal(t, 4, sp[1].ParentID)

	// Appending keeps previous entries in place.
	cp, sp = AddCurveIntersections(s, line, cp, sp, 5)
	require.Len(t, cp, 4)
	requireAligned(t, cp, sp)
	assert.Equal(t, 5, sp[3].ParentID)
}

func TestLineStringThroughBox(t *testing.T) {
	b, err := NewBoxFromCenterAndSize(r3.Vec{}, r3.Vec{X: 2, Y: 2, Z: 2}, true)
	require.NoError(t, err)
	ls := &curve.LineString{Points: []r3.Vec{{X: -3}, {}, {Y: 3}}}
	cp, sp := AddCurvePrimitiveIntersections(b, ls, nil, nil, 0)
	require.Len(t, cp, 2)
	requireAligned(t, cp, sp)
	assert.InDelta(t, 1.0/3, cp[0].Fraction, 1e-9)
	assert.InDelta(t, 2.0/3, cp[1].Fraction, 1e-9)
	vecNear(t, r3.Vec{X: -1}, sp[0].XYZ, 1e-9)
	vecNear(t, r3.Vec{Y: 1}, sp[1].XYZ, 1e-9)
}

func TestCircleCrossings(t *testing.T) {
	h := math.Sqrt(3) / 2
	t.Run("sphere", func(t *testing.T) {
		s, err := NewSphere(r3.Vec{}, 1)
		require.NoError(t, err)
		circle := curve.NewCircle(r3.Vec{X: 1}, r3.Vec{Y: 1}, 1)
		cp, sp := AddCurvePrimitiveIntersections(s, circle, nil, nil, 0)
		require.Len(t, cp, 2)
		requireAligned(t, cp, sp)
		assert.Less(t, cp[0].Fraction, cp[1].Fraction)
		for _, p := range sp {
			assert.InDelta(t, 0.5, p.XYZ.X, 1e-9)
			assert.InDelta(t, h, math.Abs(p.XYZ.Z), 1e-9)
		}
	})
	t.Run("cylinder", func(t *testing.T) {
		c, err := NewConeFromCenters(r3.Vec{}, r3.Vec{Z: 2}, 1, 1, false)
		require.NoError(t, err)
		circle := curve.NewCircle(r3.Vec{X: 1, Z: 1}, r3.Vec{Z: 1}, 1)
		cp, sp := AddCurvePrimitiveIntersections(c, circle, nil, nil, 0)
		require.Len(t, cp, 2)
		requireAligned(t, cp, sp)
		for _, p := range sp {
			assert.InDelta(t, 0.5, p.XYZ.X, 1e-9)
			assert.InDelta(t, h, math.Abs(p.XYZ.Y), 1e-9)
			assert.Equal(t, SideFace(0, 0), p.Face)
		}
	})
	t.Run("cap", func(t *testing.T) {
		c, err := NewConeFromCenters(r3.Vec{}, r3.Vec{Z: 2}, 2, 2, true)
		require.NoError(t, err)
		// Crosses the base cap at x=-1 and x=1 and never meets the wall.
		circle := curve.NewCircle(r3.Vec{}, r3.Vec{Y: 1}, 1)
		cp, sp := AddCurvePrimitiveIntersections(c, circle, nil, nil, 0)
		require.Len(t, cp, 2)
		requireAligned(t, cp, sp)
		for _, p := range sp {
			assert.Equal(t, CapFace(0), p.Face)
			assert.InDelta(t, 1, math.Abs(p.XYZ.X), 1e-9)
		}
	})
	t.Run("torus", func(t *testing.T) {
		tp, err := NewTorusPipe(r3.Vec{}, r3.Vec{X: 1}, r3.Vec{Y: 1}, 3, 1, 2*math.Pi, false)
		require.NoError(t, err)
		// A small coplanar circle stays inside the tube.
		circle := curve.NewCircle(r3.Vec{X: 3}, r3.Vec{Z: 1}, 0.5)
		cp, sp := AddCurvePrimitiveIntersections(tp, circle, nil, nil, 0)
		assert.Empty(t, cp)
		assert.Empty(t, sp)
		circle = curve.NewCircle(r3.Vec{X: 3}, r3.Vec{Z: 1}, 2)
		cp, sp = AddCurvePrimitiveIntersections(tp, circle, nil, nil, 0)
		// Crosses the inner and outer equators twice each.
		require.Len(t, cp, 4)
		requireAligned(t, cp, sp)
		for _, p := range sp {
			d, ok := tp.ClosestPoint(p.XYZ)
			require.True(t, ok)
			assert.Less(t, d.Pick, 1e-12)
		}
	})
}

func TestStrokedCurveIntersection(t *testing.T) {
	s, err := NewSphere(r3.Vec{}, 1)
	require.NoError(t, err)
	bs := curve.NewBSpline(2, []r3.Vec{{X: -3}, {X: 3}})
	cp, sp := AddCurvePrimitiveIntersections(s, bs, nil, nil, 0)
	require.Len(t, cp, 2)
	requireAligned(t, cp, sp)
	assert.InDelta(t, 1.0/3, cp[0].Fraction, 1e-6)
	assert.InDelta(t, 2.0/3, cp[1].Fraction, 1e-6)
}
