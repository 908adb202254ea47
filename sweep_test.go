package solid

import (
	"math"
	"testing"

	"github.com/soypat/solid/curve"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func unitSquare(z float64) *curve.Vector {
	return curve.NewRectangle(r3.Vec{Z: z}, r3.Vec{X: 1}, r3.Vec{Y: 1})
}

func TestExtrusionSquare(t *testing.T) {
	e, err := NewExtrusion(unitSquare(0), r3.Vec{Z: 2}, true)
	require.NoError(t, err)
	assert.True(t, e.IsClosedVolume())
	assert.Len(t, e.Faces(), 3)

	l, m, ok := e.ComputeSecondMomentVolumeProducts()
	require.True(t, ok)
	world := m.Transformed(l)
	assert.InDelta(t, 2, world.Quantity(), tol)
	c, _ := world.Centroid()
	vecNear(t, r3.Vec{X: 0.5, Y: 0.5, Z: 1}, c, tol)

	l, m, ok = e.ComputeSecondMomentAreaProducts()
	require.True(t, ok)
	assert.InDelta(t, 10, m.Transformed(l).Quantity(), 1e-9)

	hits := e.AddRayIntersections(nil, Ray{Origin: r3.Vec{X: 0.5, Y: 0.5, Z: -1}, Direction: r3.Vec{Z: 1}}, 0, 0)
	require.Len(t, hits, 2)
	assert.Equal(t, CapFace(0), hits[0].Face)
	assert.InDelta(t, 1, hits[0].Pick, tol)
	assert.Equal(t, CapFace(1), hits[1].Face)
	assert.InDelta(t, 3, hits[1].Pick, tol)

	hits = e.AddRayIntersections(nil, Ray{Origin: r3.Vec{X: -1, Y: 0.5, Z: 1}, Direction: r3.Vec{X: 1}}, 0, 0)
	require.Len(t, hits, 2)
	vecNear(t, r3.Vec{X: 0, Y: 0.5, Z: 1}, hits[0].XYZ, tol)
	vecNear(t, r3.Vec{X: 1, Y: 0.5, Z: 1}, hits[1].XYZ, tol)
	assert.InDelta(t, 0.5, hits[0].V, tol)

	d, ok := e.ClosestPoint(r3.Vec{X: 0.5, Y: -3, Z: 1.5})
	require.True(t, ok)
	vecNear(t, r3.Vec{X: 0.5, Z: 1.5}, d.XYZ, 1e-9)
	assert.InDelta(t, 9, d.Pick, 1e-8)
}

func TestExtrusionOpenProfile(t *testing.T) {
	arc := curve.NewArc(r3.Vec{}, r3.Vec{X: 1}, r3.Vec{Y: 1}, 1, 0, math.Pi)
	_, err := NewExtrusion(curve.NewPath(curve.BoundaryOpen, arc), r3.Vec{Z: 1}, true)
	assert.ErrorIs(t, err, ErrNotRegion)
	e, err := NewExtrusion(curve.NewPath(curve.BoundaryOpen, arc), r3.Vec{Z: 1}, false)
	require.NoError(t, err)
	_, _, ok := e.ComputeSecondMomentVolumeProducts()
	assert.False(t, ok)
	l, m, ok := e.ComputeSecondMomentAreaProducts()
	require.True(t, ok)
	// Half cylinder wall of unit radius and height.
	assert.InDelta(t, math.Pi, m.Transformed(l).Quantity(), 1e-9)
}

func TestRotationalSweepRing(t *testing.T) {
	// Rectangle 1<=x<=2, 0<=z<=1 about the z axis.
	profile := curve.NewRectangle(r3.Vec{X: 1}, r3.Vec{X: 1}, r3.Vec{Z: 1})
	rs, err := NewRotationalSweep(profile, r3.Vec{}, r3.Vec{Z: 1}, 2*math.Pi, false)
	require.NoError(t, err)
	assert.True(t, rs.IsClosedVolume())
	l, m, ok := rs.ComputeSecondMomentVolumeProducts()
	require.True(t, ok)
	world := m.Transformed(l)
	assert.InDelta(t, 3*math.Pi, world.Quantity(), 1e-9)
	c, _ := world.Centroid()
	vecNear(t, r3.Vec{Z: 0.5}, c, 1e-9)

	rg := rs.Range()
	vecNear(t, r3.Vec{X: -2, Y: -2}, rg.Min, 1e-9)
	vecNear(t, r3.Vec{X: 2, Y: 2, Z: 1}, rg.Max, 1e-9)

	hits := rs.AddRayIntersections(nil, Ray{Origin: r3.Vec{X: -5, Z: 0.5}, Direction: r3.Vec{X: 1}}, 0, 0)
	require.Len(t, hits, 4)
	for i, want := range []float64{-2, -1, 1, 2} {
		assert.InDelta(t, want, hits[i].XYZ.X, 1e-9)
	}
}

func TestRotationalSweepQuarterCaps(t *testing.T) {
	profile := curve.NewRectangle(r3.Vec{X: 1}, r3.Vec{X: 1}, r3.Vec{Z: 1})
	rs, err := NewRotationalSweep(profile, r3.Vec{}, r3.Vec{Z: 1}, math.Pi/2, true)
	require.NoError(t, err)
	require.Len(t, rs.Faces(), 3)
	_, m, ok := rs.ComputeSecondMomentVolumeProducts()
	require.True(t, ok)
	assert.InDelta(t, 3*math.Pi/4, m.Quantity(), 1e-9)

	// Enters through cap 0 (the xz plane) and leaves through the outer wall.
	hits := rs.AddRayIntersections(nil, Ray{Origin: r3.Vec{X: 1.5, Y: -1, Z: 0.5}, Direction: r3.Vec{Y: 1}}, 0, 0)
	require.Len(t, hits, 2)
	assert.Equal(t, CapFace(0), hits[0].Face)
	assert.InDelta(t, 0, hits[0].XYZ.Y, tol)
	assert.InDelta(t, math.Sqrt(4-1.5*1.5), hits[1].XYZ.Y, 1e-9)
}

func TestRuledSweepFrustum(t *testing.T) {
	base := curve.NewRectangle(r3.Vec{}, r3.Vec{X: 2}, r3.Vec{Y: 2})
	top := curve.NewRectangle(r3.Vec{X: 0.5, Y: 0.5, Z: 1}, r3.Vec{X: 1}, r3.Vec{Y: 1})
	rs, err := NewRuledSweep([]*curve.Vector{base, top}, true)
	require.NoError(t, err)
	assert.True(t, rs.IsClosedVolume())
	hits := rs.AddRayIntersections(nil, Ray{Origin: r3.Vec{X: 1, Y: 1, Z: -1}, Direction: r3.Vec{Z: 1}}, 0, 0)
	require.Len(t, hits, 2)
	assert.Equal(t, CapFace(0), hits[0].Face)
	assert.Equal(t, CapFace(1), hits[1].Face)

	// Side x = 0.5*z at height 0.5 sits at x = 0.25.
	hits = rs.AddRayIntersections(nil, Ray{Origin: r3.Vec{X: -1, Y: 1, Z: 0.5}, Direction: r3.Vec{X: 1}}, 0, 0)
	require.Len(t, hits, 2)
	assert.InDelta(t, 0.25, hits[0].XYZ.X, 1e-9)
	assert.InDelta(t, 1.75, hits[1].XYZ.X, 1e-9)
	assert.Equal(t, SideFace(0, 0), hits[0].Face)

	_, _, ok := rs.ComputeSecondMomentVolumeProducts()
	assert.False(t, ok, "ruled sweep volume has no closed form")

	l, m, ok := rs.ComputeSecondMomentAreaProducts()
	require.True(t, ok)
	slant := math.Sqrt(1 + 0.25)
	sides := 4 * (2 + 1) / 2 * slant
	assert.InDelta(t, sides+4+1, m.Transformed(l).Quantity(), 1e-8)
}

func TestCapParity(t *testing.T) {
	cyl, _ := NewConeFromCenters(r3.Vec{}, r3.Vec{Z: 3}, 1, 1, true)
	ext, _ := NewExtrusion(unitSquare(0), r3.Vec{X: 0.3, Z: 2}, true)
	ruled, _ := NewRuledSweep([]*curve.Vector{unitSquare(0), unitSquare(1), unitSquare(3)}, true)
	torus, _ := NewTorusPipe(r3.Vec{}, r3.Vec{X: 1}, r3.Vec{Y: 1}, 3, 1, 2, true)
	box, _ := NewBoxFromCenterAndSize(r3.Vec{}, r3.Vec{X: 1, Y: 2, Z: 3}, true)
	band, _ := NewSphereBand(NewFrame(r3.Vec{}, r3.Vec{X: 1}, r3.Vec{Y: 1}, r3.Vec{Z: 1}), -0.5, 1, true)
	rot, _ := NewRotationalSweep(curve.NewRectangle(r3.Vec{X: 1}, r3.Vec{X: 1}, r3.Vec{Z: 1}), r3.Vec{}, r3.Vec{Z: 1}, 1, true)
	for _, s := range []Shape{cyl, ext, ruled, torus, box, band, rot} {
		t.Run(s.Kind().String(), func(t *testing.T) {
			x0, du0, dv0, ok := s.TryUVFractionToXYZ(CapFace(0), 0.4, 0.45)
			require.True(t, ok)
			x1, du1, dv1, ok := s.TryUVFractionToXYZ(CapFace(1), 0.4, 0.45)
			require.True(t, ok)
			n0 := r3.Cross(du0, dv0)
			n1 := r3.Cross(du1, dv1)
			// Both normals point away from the other cap.
			assert.Less(t, r3.Dot(n0, r3.Sub(x1, x0)), 0.0)
			assert.Greater(t, r3.Dot(n1, r3.Sub(x1, x0)), 0.0)
		})
	}
}
