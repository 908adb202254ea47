package d3

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// R3 vector manipulation routines shared by the solid kernel.

// Elem returns a vector with all components equal to sides.
func Elem(sides float64) r3.Vec {
	return r3.Vec{X: sides, Y: sides, Z: sides}
}

// EqualWithin reports whether each component of a and b differ by at most tol.
func EqualWithin(a, b r3.Vec, tol float64) bool {
	return math.Abs(a.X-b.X) <= tol &&
		math.Abs(a.Y-b.Y) <= tol &&
		math.Abs(a.Z-b.Z) <= tol
}

// MinElem return a vector with the minimum components of two vectors.
func MinElem(a, b r3.Vec) r3.Vec {
	return r3.Vec{X: math.Min(a.X, b.X), Y: math.Min(a.Y, b.Y), Z: math.Min(a.Z, b.Z)}
}

// MaxElem return a vector with the maximum components of two vectors.
func MaxElem(a, b r3.Vec) r3.Vec {
	return r3.Vec{X: math.Max(a.X, b.X), Y: math.Max(a.Y, b.Y), Z: math.Max(a.Z, b.Z)}
}

// MaxAbs returns the largest absolute component.
func MaxAbs(a r3.Vec) float64 {
	return math.Max(math.Abs(a.Z), math.Max(math.Abs(a.X), math.Abs(a.Y)))
}

// Lerp returns a + f*(b-a).
func Lerp(a, b r3.Vec, f float64) r3.Vec {
	return r3.Add(a, r3.Scale(f, r3.Sub(b, a)))
}

// Add3 returns the sum of three vectors.
func Add3(a, b, c r3.Vec) r3.Vec {
	return r3.Vec{X: a.X + b.X + c.X, Y: a.Y + b.Y + c.Y, Z: a.Z + b.Z + c.Z}
}

// SumScaled returns origin + a*u + b*v.
func SumScaled(origin, u r3.Vec, a float64, v r3.Vec, b float64) r3.Vec {
	return r3.Vec{
		X: origin.X + a*u.X + b*v.X,
		Y: origin.Y + a*u.Y + b*v.Y,
		Z: origin.Z + a*u.Z + b*v.Z,
	}
}

// Dist returns the euclidean distance between a and b.
func Dist(a, b r3.Vec) float64 { return r3.Norm(r3.Sub(a, b)) }

// Dist2 returns the squared euclidean distance between a and b.
func Dist2(a, b r3.Vec) float64 { return r3.Norm2(r3.Sub(a, b)) }

// SafeUnit returns the unit vector along v. ok is false
// and the zero vector is returned when v has no length.
func SafeUnit(v r3.Vec) (u r3.Vec, ok bool) {
	n := r3.Norm(v)
	if n < 1e-300 || math.IsNaN(n) || math.IsInf(n, 0) {
		return r3.Vec{}, false
	}
	return r3.Scale(1/n, v), true
}

// Perpendicular returns a unit vector perpendicular to v
// using the arbitrary axis rule.
func Perpendicular(v r3.Vec) r3.Vec {
	n, ok := SafeUnit(v)
	if !ok {
		return r3.Vec{X: 1}
	}
	// Pick the world axis least aligned with v.
	var w r3.Vec
	if math.Abs(n.X) < 1.0/64 && math.Abs(n.Y) < 1.0/64 {
		w = r3.Cross(r3.Vec{Y: 1}, n)
	} else {
		w = r3.Cross(r3.Vec{Z: 1}, n)
	}
	u, _ := SafeUnit(w)
	return u
}

// FrameFromZ returns a right handed orthonormal triad with
// z along the argument.
func FrameFromZ(zdir r3.Vec) (x, y, z r3.Vec, ok bool) {
	z, ok = SafeUnit(zdir)
	if !ok {
		return r3.Vec{X: 1}, r3.Vec{Y: 1}, r3.Vec{Z: 1}, false
	}
	x = Perpendicular(z)
	y = r3.Cross(z, x)
	return x, y, z, true
}

// SignedAngle returns the angle from a to b measured counterclockwise
// around the normal n, in (-pi, pi].
func SignedAngle(a, b, n r3.Vec) float64 {
	c := r3.Cross(a, b)
	s := r3.Norm(c)
	if r3.Dot(c, n) < 0 {
		s = -s
	}
	return math.Atan2(s, r3.Dot(a, b))
}

// Angle returns the unsigned angle between a and b in [0, pi].
func Angle(a, b r3.Vec) float64 {
	return math.Atan2(r3.Norm(r3.Cross(a, b)), r3.Dot(a, b))
}

// IsParallel reports whether a and b are parallel (or antiparallel)
// within the angular tolerance.
func IsParallel(a, b r3.Vec, angTol float64) bool {
	ang := Angle(a, b)
	return ang <= angTol || math.Pi-ang <= angTol
}

// IsPerpendicular reports whether a and b are perpendicular within
// the angular tolerance.
func IsPerpendicular(a, b r3.Vec, angTol float64) bool {
	return math.Abs(Angle(a, b)-math.Pi/2) <= angTol
}

// FromR2 lifts a planar vector into 3D with the given z.
func FromR2(v r2.Vec, z float64) r3.Vec {
	return r3.Vec{X: v.X, Y: v.Y, Z: z}
}

// XY drops the z component.
func XY(v r3.Vec) r2.Vec { return r2.Vec{X: v.X, Y: v.Y} }
