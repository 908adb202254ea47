package solid

import (
	"math"
	"testing"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/soypat/solid/curve"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestSimplifyRotatedCircleToSphere(t *testing.T) {
	circle := curve.NewPath(curve.BoundaryOuter, curve.NewCircle(r3.Vec{}, r3.Vec{Y: 1}, 1))
	rs, err := NewRotationalSweep(circle, r3.Vec{}, r3.Vec{Z: 1}, math.Pi, true)
	require.NoError(t, err)
	p := NewPrimitive(rs)
	before := p.Range()
	probe := r3.Vec{Y: 3, Z: 0.5}
	want, ok := p.ClosestPoint(probe)
	require.True(t, ok)

	require.True(t, p.Simplify())
	require.Equal(t, KindSphere, p.Kind())
	after := p.Range()
	vecNear(t, before.Min, after.Min, 1e-6)
	vecNear(t, before.Max, after.Max, 1e-6)
	got, ok := p.ClosestPoint(probe)
	require.True(t, ok)
	vecNear(t, want.XYZ, got.XYZ, 1e-6)
	assert.InDelta(t, math.Sqrt(want.Pick), math.Sqrt(got.Pick), 1e-6)

	// A true sphere has nothing simpler.
	assert.False(t, p.Simplify())
}

func TestSimplifyRuledSquaresToBox(t *testing.T) {
	rs, err := NewRuledSweep([]*curve.Vector{unitSquare(0), unitSquare(5)}, true)
	require.NoError(t, err)
	p := NewPrimitive(rs)
	require.True(t, p.Simplify())
	require.Equal(t, KindBox, p.Kind())
	rg := p.Range()
	vecNear(t, r3.Vec{}, rg.Min, 1e-9)
	vecNear(t, r3.Vec{X: 1, Y: 1, Z: 5}, rg.Max, 1e-9)
	l, m, ok := p.ComputeSecondMomentVolumeProducts()
	require.True(t, ok)
	assert.InDelta(t, 5, m.Transformed(l).Quantity(), 1e-9)
	assert.True(t, p.Capped())
}

func TestSimplifyExtrusions(t *testing.T) {
	circle := curve.NewPath(curve.BoundaryOuter, curve.NewCircle(r3.Vec{}, r3.Vec{Z: 1}, 1))
	e, err := NewExtrusion(circle, r3.Vec{Z: 2}, true)
	require.NoError(t, err)
	p := NewPrimitive(e)
	require.True(t, p.Simplify())
	require.Equal(t, KindCone, p.Kind())
	l, m, ok := p.ComputeSecondMomentVolumeProducts()
	require.True(t, ok)
	assert.InDelta(t, 2*math.Pi, m.Transformed(l).Quantity(), 1e-9)

	e, err = NewExtrusion(unitSquare(0), r3.Vec{Z: -1}, false)
	require.NoError(t, err)
	p = NewPrimitive(e)
	require.True(t, p.Simplify())
	require.Equal(t, KindBox, p.Kind())
	assert.False(t, p.Capped())
	rg := p.Range()
	vecNear(t, r3.Vec{Z: -1}, rg.Min, 1e-9)
	vecNear(t, r3.Vec{X: 1, Y: 1}, rg.Max, 1e-9)
}

func TestSimplifyTranslatedRuledToExtrusion(t *testing.T) {
	triangle := func(o r3.Vec) *curve.Vector {
		return curve.NewPath(curve.BoundaryOuter, &curve.LineString{Points: []r3.Vec{
			o, r3.Add(o, r3.Vec{X: 2}), r3.Add(o, r3.Vec{Y: 1}), o,
		}})
	}
	shift := r3.Vec{X: 0.5, Z: 3}
	rs, err := NewRuledSweep([]*curve.Vector{triangle(r3.Vec{}), triangle(shift)}, true)
	require.NoError(t, err)
	p := NewPrimitive(rs)
	require.True(t, p.Simplify())
	require.Equal(t, KindExtrusion, p.Kind())
	e := p.Shape().(*Extrusion)
	vecNear(t, shift, e.ExtrusionVector, 1e-9)

	// Scaled sections are not a translation.
	scaled := triangle(shift)
	scaled = scaled.CloneTransformed(NewFrame(r3.Vec{}, r3.Vec{X: 2}, r3.Vec{Y: 2}, r3.Vec{Z: 1}))
	rs, err = NewRuledSweep([]*curve.Vector{triangle(r3.Vec{}), scaled}, true)
	require.NoError(t, err)
	assert.False(t, NewPrimitive(rs).Simplify())
}

func TestSimplifyTorus(t *testing.T) {
	circle := curve.NewPath(curve.BoundaryOuter, curve.NewCircle(r3.Vec{X: 3}, r3.Vec{Y: 1}, 1))
	rs, err := NewRotationalSweep(circle, r3.Vec{}, r3.Vec{Z: 1}, math.Pi/2, true)
	require.NoError(t, err)
	p := NewPrimitive(rs)
	require.True(t, p.Simplify())
	require.Equal(t, KindTorusPipe, p.Kind())
	_, m, ok := p.ComputeSecondMomentVolumeProducts()
	require.True(t, ok)
	assert.InDelta(t, math.Pi*math.Pi*3/2, m.Quantity(), 1e-9)
}

func TestPrimitiveCloneAndTransform(t *testing.T) {
	e, err := NewExtrusion(unitSquare(0), r3.Vec{Z: 1}, true)
	require.NoError(t, err)
	p := NewPrimitive(e)
	c := p.Clone()
	assert.True(t, p.IsSameStructureAndGeometry(c, 1e-12))

	require.True(t, c.TransformInPlace(Translation(r3.Vec{X: 10})))
	vecNear(t, r3.Vec{}, p.Range().Min, 1e-12)
	vecNear(t, r3.Vec{X: 10}, c.Range().Min, 1e-12)
	assert.False(t, p.IsSameStructureAndGeometry(c, 1e-6))
	// Profiles are not shared.
	assert.NotSame(t, e.BaseCurve, c.Shape().(*Extrusion).BaseCurve)

	s, err := NewSphere(r3.Vec{}, 1)
	require.NoError(t, err)
	assert.False(t, p.IsSameStructureAndGeometry(NewPrimitive(s), 1))

	tp, err := NewTorusPipe(r3.Vec{}, r3.Vec{X: 1}, r3.Vec{Y: 1}, 3, 1, 2*math.Pi, false)
	require.NoError(t, err)
	q := NewPrimitive(tp)
	before := q.Range()
	stretch := NewFrame(r3.Vec{}, r3.Vec{X: 2}, r3.Vec{Y: 1}, r3.Vec{Z: 1})
	assert.False(t, q.TransformInPlace(stretch), "torus cannot be stretched")
	vecNear(t, before.Max, q.Range().Max, 1e-12)
	require.True(t, q.TransformInPlace(Rotation(r3.Vec{}, r3.Vec{X: 1}, math.Pi/2)))
	vecNear(t, r3.Vec{X: 4, Y: 1, Z: 4}, q.Range().Max, 1e-9)

	rs, err := NewRuledSweep([]*curve.Vector{unitSquare(0), unitSquare(1)}, true)
	require.NoError(t, err)
	r := NewPrimitive(rs)
	flat := NewFrame(r3.Vec{}, r3.Vec{X: 1}, r3.Vec{Y: 1}, r3.Vec{})
	assert.False(t, r.TransformInPlace(flat), "ruled sweep cannot be flattened")
	vecNear(t, r3.Vec{X: 1, Y: 1, Z: 1}, r.Range().Max, 1e-12)
	require.True(t, r.TransformInPlace(Translation(r3.Vec{Z: 2})))
	vecNear(t, r3.Vec{X: 1, Y: 1, Z: 3}, r.Range().Max, 1e-12)
}

func TestPrimitiveCaps(t *testing.T) {
	s, _ := NewSphere(r3.Vec{}, 1)
	assert.False(t, NewPrimitive(s).HasRealCaps())
	c, _ := NewConeFromCenters(r3.Vec{}, r3.Vec{Z: 1}, 1, 1, true)
	p := NewPrimitive(c)
	assert.True(t, p.HasRealCaps())
	l, region, ok := p.CapRegion(1)
	require.True(t, ok)
	require.NotNil(t, region)
	vecNear(t, r3.Vec{Z: 1}, l.Origin(), 1e-12)
	polys, ok := p.CapPolygonsUV(0, math.Pi/8, 0)
	require.True(t, ok)
	require.NotEmpty(t, polys)
	p.SetCapped(false)
	assert.False(t, p.HasRealCaps())
	_, _, ok = p.CapRegion(0)
	assert.False(t, ok)
}

type recordingBuilder struct {
	got []*Primitive
}

func (b *recordingBuilder) AddSolidPrimitive(p *Primitive) error {
	b.got = append(b.got, p)
	return nil
}

func TestPrimitiveFacet(t *testing.T) {
	b, _ := NewBoxFromCenterAndSize(r3.Vec{}, r3.Vec{X: 1, Y: 1, Z: 1}, true)
	p := NewPrimitive(b)
	var rec recordingBuilder
	require.NoError(t, p.Facet(&rec))
	require.Len(t, rec.got, 1)
	assert.Same(t, p, rec.got[0])
	assert.Error(t, (&Primitive{}).Facet(&rec))
}

func testShapes(t *testing.T) []Shape {
	t.Helper()
	var shapes []Shape
	add := func(s Shape, err error) {
		require.NoError(t, err)
		shapes = append(shapes, s)
	}
	add(NewBox(r3.Vec{}, r3.Vec{Z: 2}, r3.Vec{X: 1}, r3.Vec{Y: 1}, 2, 3, 1, 1.5, true))
	add(NewConeFromCenters(r3.Vec{X: 1}, r3.Vec{X: 1, Z: 3}, 2, 1, true))
	add(NewSphere(r3.Vec{Y: 2}, 1.5))
	add(NewSphereBand(NewFrame(r3.Vec{}, r3.Vec{X: 2}, r3.Vec{Y: 2}, r3.Vec{Z: 2}), -0.3, 1.2, true))
	add(NewTorusPipe(r3.Vec{}, r3.Vec{X: 1}, r3.Vec{Y: 1}, 3, 1, 2, true))
	add(NewExtrusion(unitSquare(0), r3.Vec{X: 0.2, Z: 2}, true))
	add(NewRotationalSweep(curve.NewRectangle(r3.Vec{X: 1}, r3.Vec{X: 1}, r3.Vec{Z: 1}), r3.Vec{}, r3.Vec{Z: 1}, 1.5, true))
	add(NewRuledSweep([]*curve.Vector{
		curve.NewRectangle(r3.Vec{}, r3.Vec{X: 2}, r3.Vec{Y: 2}),
		curve.NewRectangle(r3.Vec{X: 0.5, Y: 0.5, Z: 1}, r3.Vec{X: 1}, r3.Vec{Y: 1}),
	}, true))
	return shapes
}

func TestUVClosestPointRoundTrip(t *testing.T) {
	for _, s := range testShapes(t) {
		t.Run(s.Kind().String(), func(t *testing.T) {
			for _, face := range s.Faces() {
				for _, uv := range [][2]float64{{0.3, 0.6}, {0.5, 0.5}, {0.8, 0.2}} {
					x, _, _, ok := s.TryUVFractionToXYZ(face, uv[0], uv[1])
					require.True(t, ok, face.String())
					d, ok := s.ClosestPoint(x)
					require.True(t, ok, face.String())
					assert.Less(t, math.Sqrt(d.Pick), 1e-7, "face %v uv %v", face, uv)
				}
			}
		})
	}
}

func TestRayHitsLieOnSurface(t *testing.T) {
	rays := []Ray{
		{Origin: r3.Vec{X: -10, Y: 0.3, Z: 0.7}, Direction: r3.Vec{X: 1, Y: 0.05, Z: 0.02}},
		{Origin: r3.Vec{X: 0.6, Y: 0.4, Z: -10}, Direction: r3.Vec{Z: 1}},
		{Origin: r3.Vec{X: 5, Y: 5, Z: 5}, Direction: r3.Vec{X: -1, Y: -0.9, Z: -0.8}},
	}
	for _, s := range testShapes(t) {
		t.Run(s.Kind().String(), func(t *testing.T) {
			for _, ray := range rays {
				hits := s.AddRayIntersections(nil, ray, 0, 0)
				for i, h := range hits {
					if i > 0 {
						assert.LessOrEqual(t, hits[i-1].Pick, h.Pick)
					}
					vecNear(t, ray.At(h.Pick), h.XYZ, 1e-8)
					x, _, _, ok := s.TryUVFractionToXYZ(h.Face, h.U, h.V)
					require.True(t, ok)
					vecNear(t, h.XYZ, x, 1e-7)
				}
			}
		})
	}
}

// The signed distance functions of sdfx give the distance from an outside
// point to a closed solid, which must match the closest point query.
func TestClosestPointAgainstSDF(t *testing.T) {
	sphere, err := sdf.Sphere3D(1.5)
	require.NoError(t, err)
	box, err := sdf.Box3D(v3.Vec{X: 2, Y: 4, Z: 6}, 0)
	require.NoError(t, err)
	cylinder, err := sdf.Cylinder3D(4, 1.5, 0)
	require.NoError(t, err)

	s, _ := NewSphere(r3.Vec{}, 1.5)
	b, _ := NewBoxFromCenterAndSize(r3.Vec{}, r3.Vec{X: 2, Y: 4, Z: 6}, true)
	c, _ := NewConeFromCenters(r3.Vec{Z: -2}, r3.Vec{Z: 2}, 1.5, 1.5, true)
	cases := []struct {
		shape Shape
		sdf   sdf.SDF3
	}{{s, sphere}, {b, box}, {c, cylinder}}

	probes := []r3.Vec{
		{X: 5}, {X: 3, Y: 3}, {X: -2, Y: 1, Z: 4}, {X: 0.5, Y: 0.5, Z: 9}, {X: 4, Y: -4, Z: -4},
	}
	for _, tc := range cases {
		t.Run(tc.shape.Kind().String(), func(t *testing.T) {
			for _, x := range probes {
				want := tc.sdf.Evaluate(v3.Vec{X: x.X, Y: x.Y, Z: x.Z})
				require.Greater(t, want, 0.0, "probe %v must lie outside", x)
				d, ok := tc.shape.ClosestPoint(x)
				require.True(t, ok)
				assert.InDelta(t, want, math.Sqrt(d.Pick), 1e-6, "probe %v", x)
			}
		})
	}
}
