package d3

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/spatial/r3"
)

// singularTol is the determinant magnitude under which a transform
// is treated as singular.
const singularTol = 1e-30

// Transform represents a 3D affine transformation.
// The zero value of Transform is the identity transform.
type Transform struct {
	// in order to make the zero value of Transform represent the identity
	// transform we store it with the identity matrix subtracted.
	// These diagonal elements are subtracted such that
	//  d00 = x00-1, d11 = x11-1, d22 = x22-1, d33 = x33-1
	// where x00, x11, x22, x33 are the matrix diagonal elements.
	// We can then check for identity in if blocks like so:
	//  if T == (Transform{})
	d00, x01, x02, x03 float64
	x10, d11, x12, x13 float64
	x20, x21, d22, x23 float64
	x30, x31, x32, d33 float64
}

// Transform applies the Transform to the argument point
// and returns the result.
func (t Transform) Transform(v r3.Vec) r3.Vec {
	w := t.x30*v.X + t.x31*v.Y + t.x32*v.Z + t.d33 + 1
	p := r3.Vec{
		X: (t.d00+1)*v.X + t.x01*v.Y + t.x02*v.Z + t.x03,
		Y: t.x10*v.X + (t.d11+1)*v.Y + t.x12*v.Z + t.x13,
		Z: t.x20*v.X + t.x21*v.Y + (t.d22+1)*v.Z + t.x23,
	}
	if w == 1 || w == 0 {
		return p
	}
	return r3.Scale(1/w, p)
}

// Direction applies only the linear part of the transform to v.
// Translations do not affect directions.
func (t Transform) Direction(v r3.Vec) r3.Vec {
	return r3.Vec{
		X: (t.d00+1)*v.X + t.x01*v.Y + t.x02*v.Z,
		Y: t.x10*v.X + (t.d11+1)*v.Y + t.x12*v.Z,
		Z: t.x20*v.X + t.x21*v.Y + (t.d22+1)*v.Z,
	}
}

// NewTransform returns a new Transform type and populates its elements
// with values passed in row-major form. If val is nil then NewTransform
// returns the identity.
func NewTransform(a []float64) Transform {
	if a == nil {
		return Transform{}
	}
	if len(a) != 16 {
		panic("Transform is initialized with 16 values")
	}
	return Transform{
		d00: a[0] - 1, x01: a[1], x02: a[2], x03: a[3],
		x10: a[4], d11: a[5] - 1, x12: a[6], x13: a[7],
		x20: a[8], x21: a[9], d22: a[10] - 1, x23: a[11],
		x30: a[12], x31: a[13], x32: a[14], d33: a[15] - 1,
	}
}

// FromColumns returns the affine transform whose linear part has
// columns x, y, z and whose translation is origin. The local point
// (a,b,c) maps to origin + a*x + b*y + c*z.
func FromColumns(x, y, z, origin r3.Vec) Transform {
	return Transform{
		d00: x.X - 1, x01: y.X, x02: z.X, x03: origin.X,
		x10: x.Y, d11: y.Y - 1, x12: z.Y, x13: origin.Y,
		x20: x.Z, x21: y.Z, d22: z.Z - 1, x23: origin.Z,
	}
}

// Translation returns a pure translation transform.
func Translation(v r3.Vec) Transform {
	return Transform{}.Translate(v)
}

// Column returns the i'th column of the linear part of the transform
// for i in 0..2, and the translation for i == 3.
func (t Transform) Column(i int) r3.Vec {
	switch i {
	case 0:
		return r3.Vec{X: t.d00 + 1, Y: t.x10, Z: t.x20}
	case 1:
		return r3.Vec{X: t.x01, Y: t.d11 + 1, Z: t.x21}
	case 2:
		return r3.Vec{X: t.x02, Y: t.x12, Z: t.d22 + 1}
	case 3:
		return r3.Vec{X: t.x03, Y: t.x13, Z: t.x23}
	}
	panic("column index out of range")
}

// Origin returns the translation of the transform.
func (t Transform) Origin() r3.Vec { return t.Column(3) }

// Columns returns the three linear columns and translation.
func (t Transform) Columns() (x, y, z, origin r3.Vec) {
	return t.Column(0), t.Column(1), t.Column(2), t.Column(3)
}

// Translate adds Vec to the positional Transform.
func (t Transform) Translate(v r3.Vec) Transform {
	t.x03 += v.X
	t.x13 += v.Y
	t.x23 += v.Z
	return t
}

// Scale returns the transform with scaling added around
// the argument origin.
func (t Transform) Scale(origin, factor r3.Vec) Transform {
	if origin == (r3.Vec{}) {
		return t.scale(factor)
	}
	t = t.Translate(r3.Scale(-1, origin))
	t = t.scale(factor)
	return t.Translate(origin)
}

func (t Transform) scale(factor r3.Vec) Transform {
	t.d00 = (t.d00+1)*factor.X - 1
	t.x01 *= factor.X
	t.x02 *= factor.X
	t.x03 *= factor.X

	t.x10 *= factor.Y
	t.d11 = (t.d11+1)*factor.Y - 1
	t.x12 *= factor.Y
	t.x13 *= factor.Y

	t.x20 *= factor.Z
	t.x21 *= factor.Z
	t.d22 = (t.d22+1)*factor.Z - 1
	t.x23 *= factor.Z
	return t
}

// Rotation returns the transform that rotates by angle radians
// about the line through origin with direction axis (right hand rule).
// A zero axis yields the identity.
func Rotation(origin, axis r3.Vec, angle float64) Transform {
	n := r3.Norm(axis)
	if n == 0 || angle == 0 {
		return Transform{}
	}
	u := r3.Scale(1/n, axis)
	m := mgl64.HomogRotate3D(angle, mgl64.Vec3{u.X, u.Y, u.Z})
	r := FromMat4(m)
	// T(origin) * R * T(-origin)
	return Translation(origin).Mul(r).Mul(Translation(r3.Scale(-1, origin)))
}

// Mat4 returns the transform as a mathgl matrix.
func (t Transform) Mat4() mgl64.Mat4 {
	a := t.SliceCopy()
	return mgl64.Mat4FromRows(
		mgl64.Vec4{a[0], a[1], a[2], a[3]},
		mgl64.Vec4{a[4], a[5], a[6], a[7]},
		mgl64.Vec4{a[8], a[9], a[10], a[11]},
		mgl64.Vec4{a[12], a[13], a[14], a[15]},
	)
}

// FromMat4 converts a mathgl matrix to a Transform.
func FromMat4(m mgl64.Mat4) Transform {
	a := make([]float64, 16)
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			a[row*4+col] = m.At(row, col)
		}
	}
	return NewTransform(a)
}

// LinearDet returns the determinant of the upper 3x3 part.
func (t Transform) LinearDet() float64 {
	x, y, z, _ := t.Columns()
	return r3.Dot(x, r3.Cross(y, z))
}

// IsRigid reports whether the linear part is a rotation (orthonormal,
// right handed) within tol.
func (t Transform) IsRigid(tol float64) bool {
	s, ok := t.UniformScale(tol)
	return ok && math.Abs(s-1) <= tol && t.LinearDet() > 0
}

// UniformScale returns the common column length of the linear part if the
// columns are mutually perpendicular and of equal length within a relative
// tolerance tol.
func (t Transform) UniformScale(tol float64) (scale float64, ok bool) {
	x, y, z, _ := t.Columns()
	a, b, c := r3.Norm(x), r3.Norm(y), r3.Norm(z)
	if a == 0 || b == 0 || c == 0 {
		return 0, false
	}
	if math.Abs(a-b) > tol*a || math.Abs(a-c) > tol*a {
		return 0, false
	}
	if math.Abs(r3.Dot(x, y)) > tol*a*b || math.Abs(r3.Dot(x, z)) > tol*a*c || math.Abs(r3.Dot(y, z)) > tol*b*c {
		return 0, false
	}
	return (a + b + c) / 3, true
}

// Mul multiplies the Transforms a and b and returns the result.
// This is the equivalent of combining two transforms in one.
func (t Transform) Mul(b Transform) Transform {
	if t == (Transform{}) {
		return b
	}
	if b == (Transform{}) {
		return t
	}
	x00 := t.d00 + 1
	x11 := t.d11 + 1
	x22 := t.d22 + 1
	x33 := t.d33 + 1
	y00 := b.d00 + 1
	y11 := b.d11 + 1
	y22 := b.d22 + 1
	y33 := b.d33 + 1
	var m Transform
	m.d00 = x00*y00 + t.x01*b.x10 + t.x02*b.x20 + t.x03*b.x30 - 1
	m.x10 = t.x10*y00 + x11*b.x10 + t.x12*b.x20 + t.x13*b.x30
	m.x20 = t.x20*y00 + t.x21*b.x10 + x22*b.x20 + t.x23*b.x30
	m.x30 = t.x30*y00 + t.x31*b.x10 + t.x32*b.x20 + x33*b.x30
	m.x01 = x00*b.x01 + t.x01*y11 + t.x02*b.x21 + t.x03*b.x31
	m.d11 = t.x10*b.x01 + x11*y11 + t.x12*b.x21 + t.x13*b.x31 - 1
	m.x21 = t.x20*b.x01 + t.x21*y11 + x22*b.x21 + t.x23*b.x31
	m.x31 = t.x30*b.x01 + t.x31*y11 + t.x32*b.x21 + x33*b.x31
	m.x02 = x00*b.x02 + t.x01*b.x12 + t.x02*y22 + t.x03*b.x32
	m.x12 = t.x10*b.x02 + x11*b.x12 + t.x12*y22 + t.x13*b.x32
	m.d22 = t.x20*b.x02 + t.x21*b.x12 + x22*y22 + t.x23*b.x32 - 1
	m.x32 = t.x30*b.x02 + t.x31*b.x12 + t.x32*y22 + x33*b.x32
	m.x03 = x00*b.x03 + t.x01*b.x13 + t.x02*b.x23 + t.x03*y33
	m.x13 = t.x10*b.x03 + x11*b.x13 + t.x12*b.x23 + t.x13*y33
	m.x23 = t.x20*b.x03 + t.x21*b.x13 + x22*b.x23 + t.x23*y33
	m.d33 = t.x30*b.x03 + t.x31*b.x13 + t.x32*b.x23 + x33*y33 - 1
	return m
}

// Det returns the determinant of the Transform.
func (t Transform) Det() float64 {
	x00 := t.d00 + 1
	x11 := t.d11 + 1
	x22 := t.d22 + 1
	x33 := t.d33 + 1
	return x00*x11*x22*x33 - x00*x11*t.x23*t.x32 +
		x00*t.x12*t.x23*t.x31 - x00*t.x12*t.x21*x33 +
		x00*t.x13*t.x21*t.x32 - x00*t.x13*x22*t.x31 -
		t.x01*t.x12*t.x23*t.x30 + t.x01*t.x12*t.x20*x33 -
		t.x01*t.x13*t.x20*t.x32 + t.x01*t.x13*x22*t.x30 -
		t.x01*t.x10*x22*x33 + t.x01*t.x10*t.x23*t.x32 +
		t.x02*t.x13*t.x20*t.x31 - t.x02*t.x13*t.x21*t.x30 +
		t.x02*t.x10*t.x21*x33 - t.x02*t.x10*t.x23*t.x31 +
		t.x02*x11*t.x23*t.x30 - t.x02*x11*t.x20*x33 -
		t.x03*t.x10*t.x21*t.x32 + t.x03*t.x10*x22*t.x31 -
		t.x03*x11*x22*t.x30 + t.x03*x11*t.x20*t.x32 -
		t.x03*t.x12*t.x20*t.x31 + t.x03*t.x12*t.x21*t.x30
}

// Inv returns the inverse of the transform such that
// t.Inv() * t is the identity Transform.
// ok is false if the transform is singular, in which case
// the identity is returned.
func (t Transform) Inv() (inv Transform, ok bool) {
	if t == (Transform{}) {
		return t, true
	}
	det := t.Det()
	if math.Abs(det) < singularTol {
		return Transform{}, false
	}
	d := 1 / det
	x00 := t.d00 + 1
	x11 := t.d11 + 1
	x22 := t.d22 + 1
	x33 := t.d33 + 1
	var m Transform
	m.d00 = (t.x12*t.x23*t.x31-t.x13*x22*t.x31+t.x13*t.x21*t.x32-x11*t.x23*t.x32-t.x12*t.x21*x33+x11*x22*x33)*d - 1
	m.x01 = (t.x03*x22*t.x31 - t.x02*t.x23*t.x31 - t.x03*t.x21*t.x32 + t.x01*t.x23*t.x32 + t.x02*t.x21*x33 - t.x01*x22*x33) * d
	m.x02 = (t.x02*t.x13*t.x31 - t.x03*t.x12*t.x31 + t.x03*x11*t.x32 - t.x01*t.x13*t.x32 - t.x02*x11*x33 + t.x01*t.x12*x33) * d
	m.x03 = (t.x03*t.x12*t.x21 - t.x02*t.x13*t.x21 - t.x03*x11*x22 + t.x01*t.x13*x22 + t.x02*x11*t.x23 - t.x01*t.x12*t.x23) * d
	m.x10 = (t.x13*x22*t.x30 - t.x12*t.x23*t.x30 - t.x13*t.x20*t.x32 + t.x10*t.x23*t.x32 + t.x12*t.x20*x33 - t.x10*x22*x33) * d
	m.d11 = (t.x02*t.x23*t.x30-t.x03*x22*t.x30+t.x03*t.x20*t.x32-x00*t.x23*t.x32-t.x02*t.x20*x33+x00*x22*x33)*d - 1
	m.x12 = (t.x03*t.x12*t.x30 - t.x02*t.x13*t.x30 - t.x03*t.x10*t.x32 + x00*t.x13*t.x32 + t.x02*t.x10*x33 - x00*t.x12*x33) * d
	m.x13 = (t.x02*t.x13*t.x20 - t.x03*t.x12*t.x20 + t.x03*t.x10*x22 - x00*t.x13*x22 - t.x02*t.x10*t.x23 + x00*t.x12*t.x23) * d
	m.x20 = (x11*t.x23*t.x30 - t.x13*t.x21*t.x30 + t.x13*t.x20*t.x31 - t.x10*t.x23*t.x31 - x11*t.x20*x33 + t.x10*t.x21*x33) * d
	m.x21 = (t.x03*t.x21*t.x30 - t.x01*t.x23*t.x30 - t.x03*t.x20*t.x31 + x00*t.x23*t.x31 + t.x01*t.x20*x33 - x00*t.x21*x33) * d
	m.d22 = (t.x01*t.x13*t.x30-t.x03*x11*t.x30+t.x03*t.x10*t.x31-x00*t.x13*t.x31-t.x01*t.x10*x33+x00*x11*x33)*d - 1
	m.x23 = (t.x03*x11*t.x20 - t.x01*t.x13*t.x20 - t.x03*t.x10*t.x21 + x00*t.x13*t.x21 + t.x01*t.x10*t.x23 - x00*x11*t.x23) * d
	m.x30 = (t.x12*t.x21*t.x30 - x11*x22*t.x30 - t.x12*t.x20*t.x31 + t.x10*x22*t.x31 + x11*t.x20*t.x32 - t.x10*t.x21*t.x32) * d
	m.x31 = (t.x01*x22*t.x30 - t.x02*t.x21*t.x30 + t.x02*t.x20*t.x31 - x00*x22*t.x31 - t.x01*t.x20*t.x32 + x00*t.x21*t.x32) * d
	m.x32 = (t.x02*x11*t.x30 - t.x01*t.x12*t.x30 - t.x02*t.x10*t.x31 + x00*t.x12*t.x31 + t.x01*t.x10*t.x32 - x00*x11*t.x32) * d
	m.d33 = (t.x01*t.x12*t.x20-t.x02*x11*t.x20+t.x02*t.x10*t.x21-x00*t.x12*t.x21-t.x01*t.x10*x22+x00*x11*x22)*d - 1
	return m, true
}

// Transpose returns the transposed matrix.
func (t Transform) Transpose() Transform {
	return Transform{
		d00: t.d00, x01: t.x10, x02: t.x20, x03: t.x30,
		x10: t.x01, d11: t.d11, x12: t.x21, x13: t.x31,
		x20: t.x02, x21: t.x12, d22: t.d22, x23: t.x32,
		x30: t.x03, x31: t.x13, x32: t.x23, d33: t.d33,
	}
}

// Equals tests the equality of the Transforms to within a tolerance.
func (t Transform) Equals(b Transform, tolerance float64) bool {
	ta, tb := t.SliceCopy(), b.SliceCopy()
	for i := range ta {
		if math.Abs(ta[i]-tb[i]) > tolerance {
			return false
		}
	}
	return true
}

// SliceCopy returns a copy of the Transform's data
// in row major storage format. It returns 16 elements.
func (t Transform) SliceCopy() []float64 {
	return []float64{
		t.d00 + 1, t.x01, t.x02, t.x03,
		t.x10, t.d11 + 1, t.x12, t.x13,
		t.x20, t.x21, t.d22 + 1, t.x23,
		t.x30, t.x31, t.x32, t.d33 + 1,
	}
}
