package solid

import (
	"math"
	"testing"

	"github.com/soypat/solid/internal/d3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestCylinderAxialRay(t *testing.T) {
	c, err := NewConeFromCenters(r3.Vec{}, r3.Vec{Z: 10}, 5, 5, true)
	require.NoError(t, err)
	hits := c.AddRayIntersections(nil, Ray{Origin: r3.Vec{Z: -5}, Direction: r3.Vec{Z: 1}}, 0, 0)
	require.Len(t, hits, 2)
	assert.Equal(t, CapFace(0), hits[0].Face)
	assert.Equal(t, CapFace(1), hits[1].Face)
	assert.InDelta(t, 5, hits[0].Pick, tol)
	assert.InDelta(t, 15, hits[1].Pick, tol)
	vecNear(t, r3.Vec{}, hits[0].XYZ, tol)
	vecNear(t, r3.Vec{Z: 10}, hits[1].XYZ, tol)
}

func TestConeSideRay(t *testing.T) {
	c, err := NewConeFromCenters(r3.Vec{}, r3.Vec{Z: 2}, 2, 1, false)
	require.NoError(t, err)
	// At height 1 the radius is 1.5.
	hits := c.AddRayIntersections(nil, Ray{Origin: r3.Vec{X: -4, Z: 1}, Direction: r3.Vec{X: 1}}, 0, 0)
	require.Len(t, hits, 2)
	assert.InDelta(t, -1.5, hits[0].XYZ.X, tol)
	assert.InDelta(t, 1.5, hits[1].XYZ.X, tol)
	for _, h := range hits {
		assert.Equal(t, SideFace(0, 0), h.Face)
		assert.InDelta(t, 0.5, h.V, tol)
	}
}

func TestConeMoments(t *testing.T) {
	const r, h = 2.0, 3.0
	c, err := NewConeFromCenters(r3.Vec{X: 1}, r3.Vec{X: 1, Z: h}, r, r, true)
	require.NoError(t, err)
	l, m, ok := c.ComputeSecondMomentVolumeProducts()
	require.True(t, ok)
	world := m.Transformed(l)
	assert.InDelta(t, math.Pi*r*r*h, world.Quantity(), 1e-9)
	centroid, _ := world.Centroid()
	vecNear(t, r3.Vec{X: 1, Z: h / 2}, centroid, 1e-9)

	l, m, ok = c.ComputeSecondMomentAreaProducts()
	require.True(t, ok)
	assert.InDelta(t, 2*math.Pi*r*h+2*math.Pi*r*r, m.Transformed(l).Quantity(), 1e-8)

	// Full cone of base radius r: volume pi r^2 h / 3.
	k, err := NewConeFromCenters(r3.Vec{}, r3.Vec{Z: h}, r, 0, true)
	require.NoError(t, err)
	l, m, ok = k.ComputeSecondMomentVolumeProducts()
	require.True(t, ok)
	world = m.Transformed(l)
	assert.InDelta(t, math.Pi*r*r*h/3, world.Quantity(), 1e-9)
	centroid, _ = world.Centroid()
	assert.InDelta(t, h/4, centroid.Z, 1e-9)
}

func TestSphereRay(t *testing.T) {
	s, err := NewSphere(r3.Vec{}, 1)
	require.NoError(t, err)
	hits := s.AddRayIntersections(nil, Ray{Origin: r3.Vec{X: 2}, Direction: r3.Vec{X: -1}}, 0, 0)
	require.Len(t, hits, 2)
	vecNear(t, r3.Vec{X: 1}, hits[0].XYZ, tol)
	vecNear(t, r3.Vec{X: -1}, hits[1].XYZ, tol)
	assert.InDelta(t, 1, hits[0].Pick, tol)
	assert.InDelta(t, 3, hits[1].Pick, tol)
}

func TestSphereBandCaps(t *testing.T) {
	// Northern hemisphere capped at the equator.
	l := d3.FromColumns(r3.Vec{X: 2}, r3.Vec{Y: 2}, r3.Vec{Z: 2}, r3.Vec{Z: 1})
	s, err := NewSphereBand(l, 0, math.Pi/2, true)
	require.NoError(t, err)
	assert.True(t, s.IsClosedVolume())
	require.Len(t, s.Faces(), 2, "pole has no cap")

	hits := s.AddRayIntersections(nil, Ray{Origin: r3.Vec{X: 0.5, Z: -3}, Direction: r3.Vec{Z: 1}}, 0, 0)
	require.Len(t, hits, 2)
	assert.Equal(t, CapFace(0), hits[0].Face)
	assert.InDelta(t, 1, hits[0].XYZ.Z, tol)
	assert.Equal(t, SideFace(0, 0), hits[1].Face)
	assert.InDelta(t, 1+math.Sqrt(4-0.25), hits[1].XYZ.Z, tol)

	_, m, ok := s.ComputeSecondMomentVolumeProducts()
	require.True(t, ok)
	assert.InDelta(t, 2.0/3*math.Pi*8, m.Quantity(), 1e-9)

	rg := s.Range()
	vecNear(t, r3.Vec{X: -2, Y: -2, Z: 1}, rg.Min, 1e-9)
	vecNear(t, r3.Vec{X: 2, Y: 2, Z: 3}, rg.Max, 1e-9)
}

func TestSphereMoments(t *testing.T) {
	const r = 1.5
	s, err := NewSphere(r3.Vec{X: 1, Y: 2, Z: 3}, r)
	require.NoError(t, err)
	l, m, ok := s.ComputeSecondMomentVolumeProducts()
	require.True(t, ok)
	world := m.Transformed(l)
	assert.InDelta(t, 4.0/3*math.Pi*r*r*r, world.Quantity(), 1e-9)
	c, ok := world.Centroid()
	require.True(t, ok)
	vecNear(t, r3.Vec{X: 1, Y: 2, Z: 3}, c, 1e-9)
	central, ok := world.CentralProducts()
	require.True(t, ok)
	// Ball: integral of x^2 is (4/15) pi r^5.
	assert.InDelta(t, 4.0/15*math.Pi*math.Pow(r, 5), central.At(0, 0), 1e-9)

	l, m, ok = s.ComputeSecondMomentAreaProducts()
	require.True(t, ok)
	assert.InDelta(t, 4*math.Pi*r*r, m.Transformed(l).Quantity(), 1e-9)
}

func TestTorusPipe(t *testing.T) {
	const R, r = 3.0, 1.0
	tp, err := NewTorusPipe(r3.Vec{}, r3.Vec{X: 1}, r3.Vec{Y: 1}, R, r, 2*math.Pi, false)
	require.NoError(t, err)
	hits := tp.AddRayIntersections(nil, Ray{Origin: r3.Vec{X: -10}, Direction: r3.Vec{X: 1}}, 0, 0)
	require.Len(t, hits, 4)
	for i, want := range []float64{-4, -2, 2, 4} {
		assert.InDelta(t, want, hits[i].XYZ.X, 1e-8)
	}
	_, m, ok := tp.ComputeSecondMomentVolumeProducts()
	require.True(t, ok)
	assert.InDelta(t, 2*math.Pi*math.Pi*R*r*r, m.Quantity(), 1e-9)
	_, m, ok = tp.ComputeSecondMomentAreaProducts()
	require.True(t, ok)
	assert.InDelta(t, 4*math.Pi*math.Pi*R*r, m.Quantity(), 1e-9)

	d, ok := tp.ClosestPoint(r3.Vec{Y: 10, Z: 0})
	require.True(t, ok)
	vecNear(t, r3.Vec{Y: 4}, d.XYZ, 1e-9)

	rg := tp.Range()
	vecNear(t, r3.Vec{X: -4, Y: -4, Z: -1}, rg.Min, 1e-9)
	vecNear(t, r3.Vec{X: 4, Y: 4, Z: 1}, rg.Max, 1e-9)
}

func TestTorusQuarterSweep(t *testing.T) {
	const R, r = 3.0, 1.0
	tp, err := NewTorusPipe(r3.Vec{}, r3.Vec{X: 1}, r3.Vec{Y: 1}, R, r, math.Pi/2, true)
	require.NoError(t, err)
	assert.True(t, tp.IsClosedVolume())
	_, m, ok := tp.ComputeSecondMomentVolumeProducts()
	require.True(t, ok)
	assert.InDelta(t, math.Pi*math.Pi*R*r*r/2, m.Quantity(), 1e-9)

	// Along -y the ray meets the cap at theta=0 only.
	hits := tp.AddRayIntersections(nil, Ray{Origin: r3.Vec{X: 3, Y: 5}, Direction: r3.Vec{Y: -1}}, 0, 0)
	require.Len(t, hits, 2)
	assert.Equal(t, SideFace(0, 0), hits[0].Face)
	assert.Equal(t, CapFace(0), hits[1].Face)
	assert.InDelta(t, 0, hits[1].XYZ.Y, 1e-9)

	rg := tp.Range()
	vecNear(t, r3.Vec{X: 0, Y: 0, Z: -1}, rg.Min, 1e-9)
	vecNear(t, r3.Vec{X: 4, Y: 4, Z: 1}, rg.Max, 1e-9)
}
