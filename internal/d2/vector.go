package d2

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// EqualWithin reports whether each component of a and b differ by at most tol.
func EqualWithin(a, b r2.Vec, tol float64) bool {
	return math.Abs(a.X-b.X) <= tol && math.Abs(a.Y-b.Y) <= tol
}

// MinElem return a vector with the minimum components of two vectors.
func MinElem(a, b r2.Vec) r2.Vec {
	return r2.Vec{X: math.Min(a.X, b.X), Y: math.Min(a.Y, b.Y)}
}

// MaxElem return a vector with the maximum components of two vectors.
func MaxElem(a, b r2.Vec) r2.Vec {
	return r2.Vec{X: math.Max(a.X, b.X), Y: math.Max(a.Y, b.Y)}
}

// Cross returns the z component of the cross product of a and b.
func Cross(a, b r2.Vec) float64 { return a.X*b.Y - a.Y*b.X }

// Orient returns twice the signed area of triangle abc. Positive
// when abc turns counterclockwise.
func Orient(a, b, c r2.Vec) float64 {
	return Cross(r2.Sub(b, a), r2.Sub(c, a))
}

// Set is a list of 2D points.
type Set []r2.Vec

// Min return the minimum components of a set of vectors.
func (a Set) Min() r2.Vec {
	vmin := a[0]
	for _, v := range a[1:] {
		vmin = MinElem(vmin, v)
	}
	return vmin
}

// Max return the maximum components of a set of vectors.
func (a Set) Max() r2.Vec {
	vmax := a[0]
	for _, v := range a[1:] {
		vmax = MaxElem(vmax, v)
	}
	return vmax
}

// PolarToXY converts polar coordinates to cartesian.
func PolarToXY(r, theta float64) r2.Vec {
	s, c := math.Sincos(theta)
	return r2.Vec{X: r * c, Y: r * s}
}

// SegmentDist2 returns the squared distance from p to segment ab
// and the fraction along ab of the closest point.
func SegmentDist2(p, a, b r2.Vec) (d2, f float64) {
	ab := r2.Sub(b, a)
	l2 := r2.Norm2(ab)
	if l2 > 0 {
		f = r2.Dot(r2.Sub(p, a), ab) / l2
		f = math.Max(0, math.Min(1, f))
	}
	q := r2.Add(a, r2.Scale(f, ab))
	return r2.Norm2(r2.Sub(p, q)), f
}
