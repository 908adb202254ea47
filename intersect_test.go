package solid

import (
	"math"
	"math/rand"
	"testing"

	"github.com/soypat/solid/curve"
	"github.com/soypat/solid/internal/d3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

// splineShapes returns sweeps whose profiles are cubic or quadratic
// B-splines, added to the shapes of testShapes.
func splineShapes(t *testing.T) []Shape {
	t.Helper()
	var shapes []Shape
	add := func(s Shape, err error) {
		require.NoError(t, err)
		shapes = append(shapes, s)
	}
	meridian := curve.NewBSpline(4, []r3.Vec{{X: 1}, {X: 2, Z: 1}, {X: 1.5, Z: 2}, {X: 2.5, Z: 3}})
	add(NewRotationalSweep(curve.NewPath(curve.BoundaryOpen, meridian), r3.Vec{}, r3.Vec{Z: 1}, 2, false))
	wavy := curve.NewBSpline(3, []r3.Vec{{}, {X: 1, Y: 1}, {X: 2, Y: -1}, {X: 3}})
	add(NewExtrusion(curve.NewPath(curve.BoundaryOpen, wavy), r3.Vec{X: 0.3, Z: 2}, false))
	top := curve.NewBSpline(3, []r3.Vec{{Z: 2}, {X: 1, Y: -1, Z: 2}, {X: 2, Y: 1.5, Z: 2}, {X: 3, Z: 2.5}})
	add(NewRuledSweep([]*curve.Vector{
		curve.NewPath(curve.BoundaryOpen, wavy),
		curve.NewPath(curve.BoundaryOpen, top),
	}, false))
	return shapes
}

// randomCrossing returns a unit direction making at least a small angle
// with the tangent plane of normal n.
func randomCrossing(rng *rand.Rand, n r3.Vec) r3.Vec {
	for {
		d := r3.Vec{X: rng.NormFloat64(), Y: rng.NormFloat64(), Z: rng.NormFloat64()}
		d, ok := d3.SafeUnit(d)
		if ok && math.Abs(r3.Dot(d, n)) >= 0.05 {
			return d
		}
	}
}

var crossingUVs = [][2]float64{
	{0.13, 0.37}, {0.37, 0.89}, {0.61, 0.13}, {0.89, 0.61}, {0.5, 0.5}, {0.9618, 0.8755}, {0.05, 0.95},
}

func TestRaysThroughSurfacePoints(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	shapes := append(testShapes(t), splineShapes(t)...)
	for _, s := range shapes {
		t.Run(s.Kind().String(), func(t *testing.T) {
			for _, face := range s.Faces() {
				for _, uv := range crossingUVs {
					if face.IsCap() && math.Hypot(uv[0]-0.5, uv[1]-0.5) > 0.45 {
						continue // Disk caps do not cover the corners of their fraction square.
					}
					p, du, dv, ok := s.TryUVFractionToXYZ(face, uv[0], uv[1])
					require.True(t, ok)
					n, ok := d3.SafeUnit(r3.Cross(du, dv))
					if !ok {
						continue
					}
					for k := 0; k < 4; k++ {
						d := randomCrossing(rng, n)
						ray := Ray{Origin: r3.Sub(p, r3.Scale(3, d)), Direction: d}
						hits := s.AddRayIntersections(nil, ray, 0, 0)
						h, found := hitNear(hits, p, 1e-6)
						if !assert.True(t, found, "face %v uv %v direction %v: %d hits", face, uv, d, len(hits)) {
							continue
						}
						assert.Equal(t, face, h.Face)
						assert.InDelta(t, 3, h.Pick, 1e-6)
						assert.InDelta(t, uv[0], h.U, 1e-6, "face %v uv %v", face, uv)
						assert.InDelta(t, uv[1], h.V, 1e-6, "face %v uv %v", face, uv)
					}
				}
			}
		})
	}
}

func TestArcsThroughSurfacePoints(t *testing.T) {
	shapes := append(testShapes(t), splineShapes(t)...)
	// Revolved arc profile, solved in closed form.
	ring, err := NewRotationalSweep(
		curve.NewPath(curve.BoundaryOuter, curve.NewCircle(r3.Vec{X: 3}, r3.Vec{Y: 1}, 1)),
		r3.Vec{}, r3.Vec{Z: 1}, 2.5, true)
	require.NoError(t, err)
	shapes = append(shapes, ring)
	for _, s := range shapes {
		t.Run(s.Kind().String(), func(t *testing.T) {
			for _, face := range s.Faces() {
				if face.IsCap() {
					continue
				}
				for _, uv := range crossingUVs {
					p, du, dv, ok := s.TryUVFractionToXYZ(face, uv[0], uv[1])
					require.True(t, ok)
					n, ok := d3.SafeUnit(r3.Cross(du, dv))
					if !ok {
						continue
					}
					// Arc of radius 0.5 crossing p along the normal at
					// fraction 3/7, away from the stroke vertices.
					tangent, _ := d3.SafeUnit(du)
					a := &curve.Arc{
						Center:   r3.Sub(p, r3.Scale(0.5, tangent)),
						Vector0:  r3.Scale(0.5, tangent),
						Vector90: r3.Scale(0.5, n),
						Start:    -0.3,
						Sweep:    0.7,
					}
					cps, sps := AddCurvePrimitiveIntersections(s, a, nil, nil, 3)
					require.Len(t, sps, len(cps))
					h, found := hitNear(sps, p, 1e-6)
					if assert.True(t, found, "face %v uv %v: %d hits", face, uv, len(sps)) {
						assert.Equal(t, 3, h.ParentID)
						assert.InDelta(t, 0.3/0.7, h.Pick, 1e-6)
					}
				}
			}
		})
	}
}

func TestRevolvedSplineCloseRoots(t *testing.T) {
	s := splineShapes(t)[0].(*RotationalSweep)
	local, _, _, ok := s.localProfile()
	require.True(t, ok)
	leaf := local.Leaves()[0]
	// Two crossings a hundredth of the profile apart.
	p0, p1 := curve.Point(leaf, 0.952), curve.Point(leaf, 0.962)
	rho0, rho1 := math.Hypot(p0.X, p0.Y), math.Hypot(p1.X, p1.Y)
	o := r3.Vec{X: rho0, Z: p0.Z}
	d := r3.Sub(r3.Vec{X: rho1, Z: p1.Z}, o)
	roots := revolutionRoots(leaf, o, d)
	var near []float64
	for _, f := range roots {
		if f > 0.94 && f < 0.98 {
			near = append(near, f)
		}
	}
	require.Len(t, near, 2, "roots %v", roots)
	assert.InDelta(t, 0.952, near[0], 1e-9)
	assert.InDelta(t, 0.962, near[1], 1e-9)
}

func hitNear(hits []LocationDetail, p r3.Vec, tol float64) (LocationDetail, bool) {
	for _, h := range hits {
		if d3.Dist(h.XYZ, p) <= tol {
			return h, true
		}
	}
	return LocationDetail{}, false
}
