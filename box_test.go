package solid

import (
	"testing"

	"github.com/soypat/solid/internal/d3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

const tol = 1e-9

func vecNear(t *testing.T, want, got r3.Vec, tolerance float64) {
	t.Helper()
	assert.True(t, d3.EqualWithin(want, got, tolerance), "want %v, got %v", want, got)
}

func TestBoxTopologyTables(t *testing.T) {
	for f := 0; f < 6; f++ {
		p, ok := BoxPartnerFace(f)
		require.True(t, ok)
		back, _ := BoxPartnerFace(p)
		assert.Equal(t, f, back)
		seen := map[int]bool{}
		corners, _ := BoxFaceCorners(f)
		for _, c := range corners {
			seen[c] = true
		}
		partner, _ := BoxFaceCorners(p)
		for _, c := range partner {
			assert.False(t, seen[c], "faces %d and %d share corner %d", f, p, c)
		}
	}
	for axis := 0; axis < 3; axis++ {
		edges, ok := BoxAxisEdges(axis)
		require.True(t, ok)
		for _, e := range edges {
			c, faces, ok := BoxEdge(e)
			require.True(t, ok)
			// Axis edges differ in exactly the bit of their axis.
			assert.Equal(t, 1<<axis, c[0]^c[1], "edge %d", e)
			assert.Less(t, faces[0], faces[1])
		}
	}
	_, ok := BoxPartnerFace(6)
	assert.False(t, ok)
}

func TestBoxClosestPoint(t *testing.T) {
	b, err := NewBoxFromCenterAndSize(r3.Vec{}, r3.Vec{X: 2, Y: 2, Z: 2}, true)
	require.NoError(t, err)
	d, ok := b.ClosestPoint(r3.Vec{X: 5})
	require.True(t, ok)
	vecNear(t, r3.Vec{X: 1}, d.XYZ, 1e-9)
	assert.InDelta(t, 16, d.Pick, 1e-8)

	// Nearest to a corner region lands on the corner.
	d, ok = b.ClosestPoint(r3.Vec{X: 3, Y: 3, Z: 3})
	require.True(t, ok)
	vecNear(t, r3.Vec{X: 1, Y: 1, Z: 1}, d.XYZ, 1e-8)
	assert.InDelta(t, 12, d.Pick, 1e-7)
}

func TestBoxRayIntersections(t *testing.T) {
	b, err := NewBoxFromCenterAndSize(r3.Vec{}, r3.Vec{X: 2, Y: 2, Z: 2}, true)
	require.NoError(t, err)
	ray := Ray{Origin: r3.Vec{X: -5, Y: 0.1, Z: 0.05}, Direction: r3.Vec{X: 1, Y: 0.03, Z: 0.02}}
	hits := b.AddRayIntersections(nil, ray, 7, 0)
	require.Len(t, hits, 2)
	assert.InDelta(t, -1, hits[0].XYZ.X, 1e-9)
	assert.InDelta(t, 1, hits[1].XYZ.X, 1e-9)
	assert.Less(t, hits[0].Pick, hits[1].Pick)
	assert.Equal(t, 7, hits[0].ParentID)

	// Hits behind minParameter are dropped.
	hits = b.AddRayIntersections(nil, ray, 0, 5)
	require.Len(t, hits, 1)
	assert.InDelta(t, 1, hits[0].XYZ.X, 1e-9)

	b.SetCapped(false)
	vertical := Ray{Origin: r3.Vec{Z: -5}, Direction: r3.Vec{Z: 1}}
	assert.Empty(t, b.AddRayIntersections(nil, vertical, 0, 0))
}

func TestBoxMoments(t *testing.T) {
	b, err := NewBoxFromCenterAndSize(r3.Vec{X: 0.5, Y: 0.5, Z: 0.5}, r3.Vec{X: 1, Y: 1, Z: 1}, true)
	require.NoError(t, err)
	l, m, ok := b.ComputeSecondMomentVolumeProducts()
	require.True(t, ok)
	world := m.Transformed(l)
	assert.InDelta(t, 1, world.Quantity(), tol)
	c, ok := world.Centroid()
	require.True(t, ok)
	vecNear(t, r3.Vec{X: 0.5, Y: 0.5, Z: 0.5}, c, tol)

	l, m, ok = b.ComputeSecondMomentAreaProducts()
	require.True(t, ok)
	assert.InDelta(t, 6, m.Transformed(l).Quantity(), 1e-9)

	// A frustum is integrated with the trilinear map.
	f, err := NewBox(r3.Vec{}, r3.Vec{Z: 1}, r3.Vec{X: 1}, r3.Vec{Y: 1}, 2, 2, 1, 1, true)
	require.NoError(t, err)
	l, m, ok = f.ComputeSecondMomentVolumeProducts()
	require.True(t, ok)
	// Square frustum: h/3*(A1+A2+sqrt(A1*A2)).
	assert.InDelta(t, (4.0+1+2)/3, m.Transformed(l).Quantity(), 1e-9)

	f.SetCapped(false)
	_, _, ok = f.ComputeSecondMomentVolumeProducts()
	assert.False(t, ok)
}

func TestBoxUVFaces(t *testing.T) {
	b, err := NewBoxFromCenterAndSize(r3.Vec{}, r3.Vec{X: 2, Y: 4, Z: 6}, true)
	require.NoError(t, err)
	faces := b.Faces()
	require.Len(t, faces, 6)
	for _, face := range faces {
		x, du, dv, ok := b.TryUVFractionToXYZ(face, 0.5, 0.5)
		require.True(t, ok, face.String())
		n, ok := d3.SafeUnit(r3.Cross(du, dv))
		require.True(t, ok)
		// Face centers have outward normals.
		assert.Greater(t, r3.Dot(n, x), 0.0, face.String())
	}
	_, _, _, ok := b.TryUVFractionToXYZ(FaceIndices{Index0: 3}, 0, 0)
	assert.False(t, ok)
}
