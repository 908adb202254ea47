package solid

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/spatial/r3"
)

// Moments holds the symmetric 4x4 matrix of integral products
//
//	| xx xy xz x |
//	| xy yy yz y |
//	| xz yz zz z |
//	| x  y  z  1 |
//
// of an area or volume.
type Moments struct {
	Products mgl64.Mat4
}

// pointMoments returns w times the outer product of the homogeneous point.
func pointMoments(p r3.Vec, w float64) Moments {
	h := [4]float64{p.X, p.Y, p.Z, 1}
	var m Moments
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			m.Products.Set(r, c, w*h[r]*h[c])
		}
	}
	return m
}

// momentsFromIntegrals builds the matrix from its distinct integrals.
func momentsFromIntegrals(xx, xy, xz, yy, yz, zz, x, y, z, one float64) Moments {
	var m Moments
	rows := [4][4]float64{
		{xx, xy, xz, x},
		{xy, yy, yz, y},
		{xz, yz, zz, z},
		{x, y, z, one},
	}
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			m.Products.Set(r, c, rows[r][c])
		}
	}
	return m
}

// Add returns m+n.
func (m Moments) Add(n Moments) Moments {
	return Moments{Products: m.Products.Add(n.Products)}
}

// Scale returns k*m.
func (m Moments) Scale(k float64) Moments {
	return Moments{Products: m.Products.Mul(k)}
}

// Transformed returns the sandwich product T*M*T^T, mapping local
// products into the frame of t.
func (m Moments) Transformed(t Transform) Moments {
	tm := t.Mat4()
	return Moments{Products: tm.Mul4(m.Products).Mul4(tm.Transpose())}
}

// Quantity returns the area or volume.
func (m Moments) Quantity() float64 { return m.Products.At(3, 3) }

// Centroid returns the first moments divided by the quantity.
func (m Moments) Centroid() (r3.Vec, bool) {
	q := m.Quantity()
	if q == 0 || math.IsNaN(q) {
		return r3.Vec{}, false
	}
	return r3.Vec{X: m.Products.At(0, 3) / q, Y: m.Products.At(1, 3) / q, Z: m.Products.At(2, 3) / q}, true
}

// CentralProducts returns the second moment products about the centroid,
// xx..zz as a 3x3 matrix.
func (m Moments) CentralProducts() (mgl64.Mat3, bool) {
	c, ok := m.Centroid()
	if !ok {
		return mgl64.Mat3{}, false
	}
	q := m.Quantity()
	cv := [3]float64{c.X, c.Y, c.Z}
	var out mgl64.Mat3
	for r := 0; r < 3; r++ {
		for col := 0; col < 3; col++ {
			out.Set(r, col, m.Products.At(r, col)-q*cv[r]*cv[col])
		}
	}
	return out, true
}

// Equals reports whether the products agree within tol.
func (m Moments) Equals(n Moments, tol float64) bool {
	return m.Products.ApproxEqualThreshold(n.Products, tol)
}

// momentsInFrame expresses world products in the frame localToWorld so
// that world = localToWorld * M * localToWorld^T.
func momentsInFrame(localToWorld Transform, world Moments) (Transform, Moments, bool) {
	inv, ok := localToWorld.Inv()
	if !ok {
		return Transform{}, world, true
	}
	return localToWorld, world.Transformed(inv), true
}

var unitCubeMoments = momentsFromIntegrals(
	1.0/3, 1.0/4, 1.0/4,
	1.0/3, 1.0/4,
	1.0/3,
	0.5, 0.5, 0.5, 1,
)

var unitSquareMoments = momentsFromIntegrals(
	1.0/3, 1.0/4, 0,
	1.0/3, 0,
	0,
	0.5, 0.5, 0, 1,
)
