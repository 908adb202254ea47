package mesh

import (
	"math"
	"testing"

	"github.com/soypat/solid"
	"github.com/soypat/solid/internal/d3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func mustFacet(t *testing.T, opts Options, shapes ...solid.Shape) *Polyface {
	t.Helper()
	var prims []*solid.Primitive
	for _, s := range shapes {
		prims = append(prims, solid.NewPrimitive(s))
	}
	m, err := Facet(opts, prims...)
	require.NoError(t, err)
	return m
}

// maxChord returns the largest distance between a facet edge midpoint
// and the surface.
func maxChord(m *Polyface, s solid.Shape) float64 {
	var worst float64
	for i := range m.Facets {
		t := m.Triangle(i)
		for k := 0; k < 3; k++ {
			mid := r3.Scale(0.5, r3.Add(t[k], t[(k+1)%3]))
			if d, ok := s.ClosestPoint(mid); ok {
				worst = math.Max(worst, math.Sqrt(d.Pick))
			}
		}
	}
	return worst
}

func TestFacetBox(t *testing.T) {
	b, err := solid.NewBoxFromCenterAndSize(r3.Vec{X: 0.5, Y: 0.5, Z: 0.5}, r3.Vec{X: 1, Y: 1, Z: 1}, true)
	require.NoError(t, err)
	m := mustFacet(t, DefaultOptions(), b)
	assert.Len(t, m.Points, 8)
	assert.Len(t, m.Facets, 12)
	assert.Zero(t, m.OpenEdges())
	assert.InDelta(t, 1, m.Volume(), 1e-12)
	assert.InDelta(t, 6, m.Area(), 1e-12)

	require.Len(t, m.EdgeChains, 12)
	corners := b.Corners()
	for _, chain := range m.EdgeChains {
		c, _, ok := solid.BoxEdge(chain.Edge)
		require.True(t, ok)
		require.Len(t, chain.Points, 2, "edge %d", chain.Edge)
		assert.True(t, d3.EqualWithin(corners[c[0]], m.Points[chain.Points[0]], 1e-12))
		assert.True(t, d3.EqualWithin(corners[c[1]], m.Points[chain.Points[1]], 1e-12))
	}
	for _, f := range m.Facets {
		n := r3.Cross(r3.Sub(m.Points[f.Point[1]], m.Points[f.Point[0]]), r3.Sub(m.Points[f.Point[2]], m.Points[f.Point[0]]))
		for k := 0; k < 3; k++ {
			assert.Greater(t, r3.Dot(n, m.Normals[f.Normal[k]]), 0.0, "face %v", f.Face)
		}
	}
}

func TestFacetBoxEdgeSubdivision(t *testing.T) {
	b, err := solid.NewBoxFromCenterAndSize(r3.Vec{}, r3.Vec{X: 4, Y: 1, Z: 1}, true)
	require.NoError(t, err)
	opts := DefaultOptions()
	opts.MaxEdgeLength = 1
	m := mustFacet(t, opts, b)
	assert.Zero(t, m.OpenEdges())
	assert.InDelta(t, 4, m.Volume(), 1e-12)
	edges, ok := solid.BoxAxisEdges(0)
	require.True(t, ok)
	for _, chain := range m.EdgeChains {
		for _, e := range edges {
			if chain.Edge == e {
				// Four unit segments along x.
				assert.Len(t, chain.Points, 5)
			}
		}
	}
}

func TestFacetSphere(t *testing.T) {
	s, err := solid.NewSphere(r3.Vec{X: 1}, 1)
	require.NoError(t, err)
	coarse := mustFacet(t, DefaultOptions(), s)
	assert.Zero(t, coarse.OpenEdges())
	want := 4.0 / 3 * math.Pi
	assert.Less(t, coarse.Volume(), want)
	assert.InEpsilon(t, want, coarse.Volume(), 0.05)
	for _, n := range coarse.Normals {
		assert.InDelta(t, 1, r3.Norm(n), 1e-9)
	}

	opts := DefaultOptions()
	opts.AngleTolerance = math.Pi / 48
	fine := mustFacet(t, opts, s)
	assert.Zero(t, fine.OpenEdges())
	assert.Less(t, maxChord(fine, s), maxChord(coarse, s))
	assert.InEpsilon(t, want, fine.Volume(), 0.005)
}

func TestFacetCylinder(t *testing.T) {
	c, err := solid.NewConeFromCenters(r3.Vec{}, r3.Vec{Z: 2}, 1, 1, true)
	require.NoError(t, err)
	m := mustFacet(t, DefaultOptions(), c)
	assert.Zero(t, m.OpenEdges())
	assert.InEpsilon(t, 2*math.Pi, m.Volume(), 0.03)

	c.SetCapped(false)
	m = mustFacet(t, DefaultOptions(), c)
	assert.NotZero(t, m.OpenEdges())
	for _, f := range m.Facets {
		assert.False(t, f.Face.IsCap())
	}
}

func TestFacetSweeps(t *testing.T) {
	tp, err := solid.NewTorusPipe(r3.Vec{}, r3.Vec{X: 1}, r3.Vec{Y: 1}, 3, 1, math.Pi/2, true)
	require.NoError(t, err)
	m := mustFacet(t, DefaultOptions(), tp)
	assert.Zero(t, m.OpenEdges())
	assert.InEpsilon(t, math.Pi*math.Pi*3/2, m.Volume(), 0.05)

	opts := DefaultOptions()
	opts.NeedParams = true
	m = mustFacet(t, opts, tp)
	require.NotEmpty(t, m.Params)
	for _, f := range m.Facets {
		for k := 0; k < 3; k++ {
			uv := m.Params[f.Param[k]]
			assert.True(t, uv.X >= -1e-12 && uv.X <= 1+1e-12 && uv.Y >= -1e-12 && uv.Y <= 1+1e-12)
		}
	}
}

func TestFacetWeldsAcrossPrimitives(t *testing.T) {
	a, _ := solid.NewBoxFromCenterAndSize(r3.Vec{X: 0.5, Y: 0.5, Z: 0.5}, r3.Vec{X: 1, Y: 1, Z: 1}, true)
	b, _ := solid.NewBoxFromCenterAndSize(r3.Vec{X: 1.5, Y: 0.5, Z: 0.5}, r3.Vec{X: 1, Y: 1, Z: 1}, true)
	m := mustFacet(t, DefaultOptions(), a, b)
	assert.Len(t, m.Points, 12)
	assert.Len(t, m.Facets, 24)
	assert.Equal(t, 1, m.Facets[len(m.Facets)-1].Primitive)
}

func TestFacetErrors(t *testing.T) {
	_, err := Facet(DefaultOptions(), &solid.Primitive{})
	assert.Error(t, err)
	err = NewBuilder(DefaultOptions()).AddSolidPrimitive(nil)
	assert.Error(t, err)
}
