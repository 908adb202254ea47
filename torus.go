package solid

import (
	"math"

	"github.com/soypat/solid/curve"
	"github.com/soypat/solid/internal/d3"
	"github.com/soypat/solid/internal/poly"
	"gonum.org/v1/gonum/spatial/r3"
)

// TorusPipe is a circular pipe of MinorRadius bent around Center with
// MajorRadius. The pipe starts on VectorX and sweeps SweepAngle radians
// toward VectorY.
type TorusPipe struct {
	Center                   r3.Vec
	VectorX, VectorY         r3.Vec
	MajorRadius, MinorRadius float64
	SweepAngle               float64
	capped                   bool
}

// NewTorusPipe returns a torus pipe. vectorX and vectorY are
// orthonormalized and the minor radius must be smaller than the major.
func NewTorusPipe(center, vectorX, vectorY r3.Vec, major, minor, sweep float64, capped bool) (*TorusPipe, error) {
	x, ok := d3.SafeUnit(vectorX)
	if !ok {
		return nil, errMsg(ErrDegenerate, "torus x direction")
	}
	y, ok := d3.SafeUnit(r3.Sub(vectorY, r3.Scale(r3.Dot(vectorY, x), x)))
	if !ok {
		return nil, errMsg(ErrDegenerate, "torus y direction")
	}
	if !(minor > 0) || !(major > minor) {
		return nil, errMsg(ErrDegenerate, "torus radii")
	}
	if sweep == 0 {
		return nil, errMsg(ErrDegenerate, "torus sweep")
	}
	return &TorusPipe{Center: center, VectorX: x, VectorY: y, MajorRadius: major, MinorRadius: minor, SweepAngle: sweep, capped: capped}, nil
}

// Kind returns KindTorusPipe.
func (tp *TorusPipe) Kind() Kind { return KindTorusPipe }

// Capped reports whether caps are requested for the torus pipe.
func (tp *TorusPipe) Capped() bool { return tp.capped }

// SetCapped requests or removes the caps.
func (tp *TorusPipe) SetCapped(capped bool) { tp.capped = capped }

// IsClosedVolume reports whether the torus pipe bounds a volume.
func (tp *TorusPipe) IsClosedVolume() bool { return tp.isFullCircle() || tp.capped }

func (tp *TorusPipe) clone() Shape { c := *tp; return &c }

func (tp *TorusPipe) isFullCircle() bool {
	return math.Abs(math.Abs(tp.SweepAngle)-2*math.Pi) <= epsilon
}

// frame returns the rigid local frame and the positive sweep. A negative
// sweep flips the y and z axes.
func (tp *TorusPipe) frame() (l Transform, sweep float64, ok bool) {
	x, okx := d3.SafeUnit(tp.VectorX)
	y, oky := d3.SafeUnit(r3.Sub(tp.VectorY, r3.Scale(r3.Dot(tp.VectorY, x), x)))
	if !okx || !oky {
		return Transform{}, 0, false
	}
	sweep = tp.SweepAngle
	if sweep < 0 {
		y, sweep = r3.Scale(-1, y), -sweep
	}
	z := r3.Cross(x, y)
	return d3.FromColumns(x, y, z, tp.Center), math.Min(sweep, 2*math.Pi), true
}

// TryGetFrame returns the local frame of the torus pipe and its inverse.
func (tp *TorusPipe) TryGetFrame() (localToWorld, worldToLocal Transform, ok bool) {
	l, _, ok := tp.frame()
	if !ok {
		return Transform{}, Transform{}, false
	}
	inv, ok := l.Inv()
	if !ok {
		return Transform{}, Transform{}, false
	}
	return l, inv, true
}

// TryGetRotationAxis returns the center, the axis and the positive sweep.
func (tp *TorusPipe) TryGetRotationAxis() (center, axis r3.Vec, sweep float64, ok bool) {
	l, sweep, ok := tp.frame()
	if !ok {
		return r3.Vec{}, r3.Vec{}, 0, false
	}
	return tp.Center, l.Column(2), sweep, true
}

func (tp *TorusPipe) hasCap(i int) bool {
	return tp.capped && !tp.isFullCircle() && (i == 0 || i == 1)
}

func (tp *TorusPipe) planarCap(i int) (planarCap, bool) {
	if !tp.hasCap(i) {
		return planarCap{}, false
	}
	l, sweep, ok := tp.frame()
	if !ok {
		return planarCap{}, false
	}
	theta := 0.0
	if i == 1 {
		theta = sweep
	}
	rho, tan := tp.radial(l, theta)
	z := l.Column(2)
	center := r3.Add(tp.Center, r3.Scale(tp.MajorRadius, rho))
	return diskCap(d3.FromColumns(z, rho, tan, center), tp.MinorRadius, i == 0), true
}

// radial returns the world radial and tangential directions at theta.
func (tp *TorusPipe) radial(l Transform, theta float64) (rho, tan r3.Vec) {
	s, c := math.Sincos(theta)
	return l.Direction(r3.Vec{X: c, Y: s}), l.Direction(r3.Vec{X: -s, Y: c})
}

// Faces returns the indices of every face, caps last.
func (tp *TorusPipe) Faces() []FaceIndices {
	faces := []FaceIndices{SideFace(0, 0)}
	for i := 0; i < 2; i++ {
		if tp.hasCap(i) {
			faces = append(faces, CapFace(i))
		}
	}
	return faces
}

// Range returns the exact range. Along a world direction e the pipe
// reaches R*m + r*sqrt(m^2+c^2) where m is the extreme of e along the
// radial direction within the sweep and c the axial part of e.
func (tp *TorusPipe) Range() r3.Box {
	l, sweep, ok := tp.frame()
	if !ok {
		return r3.Box{Min: tp.Center, Max: tp.Center}
	}
	x, y, z, _ := l.Columns()
	var lo, hi [3]float64
	for axis := 0; axis < 3; axis++ {
		a, b, c := axisComp(x, axis), axisComp(y, axis), axisComp(z, axis)
		mMin, mMax := radialExtremes(a, b, sweep)
		f := func(m float64) float64 {
			return tp.MajorRadius*m + tp.MinorRadius*math.Hypot(m, c)
		}
		hi[axis] = f(mMax)
		lo[axis] = -(tp.MajorRadius*(-mMin) + tp.MinorRadius*math.Hypot(mMin, c))
	}
	return r3.Box{
		Min: r3.Add(tp.Center, r3.Vec{X: lo[0], Y: lo[1], Z: lo[2]}),
		Max: r3.Add(tp.Center, r3.Vec{X: hi[0], Y: hi[1], Z: hi[2]}),
	}
}

// radialExtremes returns the extremes of a*cos(theta)+b*sin(theta) for
// theta in [0,sweep].
func radialExtremes(a, b, sweep float64) (lo, hi float64) {
	m := func(t float64) float64 { s, c := math.Sincos(t); return a*c + b*s }
	lo, hi = math.Min(m(0), m(sweep)), math.Max(m(0), m(sweep))
	peak := math.Atan2(b, a)
	amp := math.Hypot(a, b)
	if normAngle(peak) <= sweep {
		hi = amp
	}
	if normAngle(peak+math.Pi) <= sweep {
		lo = -amp
	}
	return lo, hi
}

func axisComp(v r3.Vec, axis int) float64 {
	switch axis {
	case 0:
		return v.X
	case 1:
		return v.Y
	}
	return v.Z
}

// TryUVFractionToXYZ returns the point of face at fractions u,v and
// its partial derivatives.
func (tp *TorusPipe) TryUVFractionToXYZ(face FaceIndices, u, v float64) (xyz, dXdu, dXdv r3.Vec, ok bool) {
	if face.IsCap() {
		pc, ok := tp.planarCap(face.CapIndex())
		if !ok || face.Index2 != 0 {
			return xyz, dXdu, dXdv, false
		}
		xyz, dXdu, dXdv = pc.evaluate(u, v)
		return xyz, dXdu, dXdv, true
	}
	l, sweep, ok := tp.frame()
	if !ok || face != SideFace(0, 0) {
		return xyz, dXdu, dXdv, false
	}
	rho, tan := tp.radial(l, u*sweep)
	z := l.Column(2)
	sp, cp := math.Sincos(2 * math.Pi * v)
	R, r := tp.MajorRadius, tp.MinorRadius
	w := R + r*cp
	xyz = d3.SumScaled(tp.Center, rho, w, z, r*sp)
	dXdu = r3.Scale(sweep*w, tan)
	dXdv = d3.SumScaled(r3.Vec{}, rho, -2*math.Pi*r*sp, z, 2*math.Pi*r*cp)
	return xyz, dXdu, dXdv, true
}

// GetConstantUSection returns the curve of face at fixed u.
func (tp *TorusPipe) GetConstantUSection(face FaceIndices, u float64) (*curve.Vector, bool) {
	if face.IsCap() {
		pc, ok := tp.planarCap(face.CapIndex())
		if !ok {
			return nil, false
		}
		return pc.section(u, true)
	}
	l, sweep, ok := tp.frame()
	if !ok || face != SideFace(0, 0) {
		return nil, false
	}
	rho, _ := tp.radial(l, u*sweep)
	r := tp.MinorRadius
	minor := &curve.Arc{
		Center:   r3.Add(tp.Center, r3.Scale(tp.MajorRadius, rho)),
		Vector0:  r3.Scale(r, rho),
		Vector90: r3.Scale(r, l.Column(2)),
		Sweep:    2 * math.Pi,
	}
	return curve.NewPath(curve.BoundaryOuter, minor), true
}

// GetConstantVSection returns the curve of face at fixed v.
func (tp *TorusPipe) GetConstantVSection(face FaceIndices, v float64) (*curve.Vector, bool) {
	if face.IsCap() {
		pc, ok := tp.planarCap(face.CapIndex())
		if !ok {
			return nil, false
		}
		return pc.section(v, false)
	}
	l, sweep, ok := tp.frame()
	if !ok || face != SideFace(0, 0) {
		return nil, false
	}
	x, y, z, _ := l.Columns()
	sp, cp := math.Sincos(2 * math.Pi * v)
	w := tp.MajorRadius + tp.MinorRadius*cp
	major := &curve.Arc{
		Center:   r3.Add(tp.Center, r3.Scale(tp.MinorRadius*sp, z)),
		Vector0:  r3.Scale(w, x),
		Vector90: r3.Scale(w, y),
		Sweep:    sweep,
	}
	bt := curve.BoundaryOpen
	if tp.isFullCircle() {
		bt = curve.BoundaryOuter
	}
	return curve.NewPath(bt, major), true
}

// localUV returns the side fractions of local point p, ok false outside
// the sweep.
func (tp *TorusPipe) localUV(p r3.Vec, sweep float64) (u, v float64, ok bool) {
	theta := normAngle(math.Atan2(p.Y, p.X))
	if tp.isFullCircle() {
		u = theta / (2 * math.Pi)
	} else {
		if theta > sweep+uvTol {
			return 0, 0, false
		}
		u = clamp01(theta / sweep)
	}
	phi := math.Atan2(p.Z, math.Hypot(p.X, p.Y)-tp.MajorRadius)
	return u, normAngle(phi) / (2 * math.Pi), true
}

// AddRayIntersections appends the hits of ray at or past minParameter,
// ordered by ray parameter.
// The torus quartic is solved in the local frame.
func (tp *TorusPipe) AddRayIntersections(dst []LocationDetail, ray Ray, parentID int, minParameter float64) []LocationDetail {
	l, sweep, ok := tp.frame()
	if !ok {
		return dst
	}
	inv, ok := l.Inv()
	if !ok {
		return dst
	}
	n0 := len(dst)
	lr := ray.Transformed(inv)
	d := lr.Direction
	dd := r3.Dot(d, d)
	if dd == 0 {
		return dst
	}
	// Shift to the point of closest approach to the center for conditioning.
	t0 := -r3.Dot(lr.Origin, d) / dd
	o := lr.At(t0)
	R, r := tp.MajorRadius, tp.MinorRadius
	// (|p|^2 + R^2 - r^2)^2 - 4R^2 (x^2+y^2) = 0
	s := poly.Poly{r3.Dot(o, o) + R*R - r*r, 2 * r3.Dot(o, d), dd}
	xy := poly.Poly{o.X*o.X + o.Y*o.Y, 2 * (o.X*d.X + o.Y*d.Y), d.X*d.X + d.Y*d.Y}
	quartic := s.Mul(s).Add(xy.Scale(-4 * R * R))
	for _, tr := range quartic.Roots() {
		t := t0 + tr
		if t < minParameter {
			continue
		}
		u, v, ok := tp.localUV(lr.At(t), sweep)
		if !ok {
			continue
		}
		dst = append(dst, rayHit(tp, ray, t, SideFace(0, 0), u, v, parentID))
	}
	for i := 0; i < 2; i++ {
		if pc, ok := tp.planarCap(i); ok {
			dst = pc.addRayHits(dst, ray, CapFace(i), parentID, minParameter)
		}
	}
	sortTail(dst, n0)
	return dst
}

// ClosestPoint returns the surface point nearest x, with Pick set to
// the squared distance.
func (tp *TorusPipe) ClosestPoint(x r3.Vec) (LocationDetail, bool) {
	l, sweep, ok := tp.frame()
	if !ok {
		return LocationDetail{}, false
	}
	inv, _ := l.Inv()
	p := inv.Transform(x)
	theta := math.Atan2(p.Y, p.X)
	var u float64
	if tp.isFullCircle() {
		u = normAngle(theta) / (2 * math.Pi)
	} else {
		theta = clampAngle(theta, sweep)
		u = theta / sweep
	}
	s, c := math.Sincos(theta)
	w := p.X*c + p.Y*s
	v := normAngle(math.Atan2(p.Z, w-tp.MajorRadius)) / (2 * math.Pi)
	best := newClosest(x)
	if d, ok := detail(tp, SideFace(0, 0), u, v); ok {
		best.offer(d)
	}
	for i := 0; i < 2; i++ {
		if pc, ok := tp.planarCap(i); ok {
			if d, ok := pc.closestPoint(x, CapFace(i)); ok {
				best.offer(d)
			}
		}
	}
	return best.result()
}

// sweepProducts combines section integrals of a body of revolution with
// the angular integrals over [0,alpha]. The arguments are the section
// integrals of 1, w, w^2, h, h*w and h^2 where w is the distance from the
// axis and h the height, taken with respect to the revolution measure.
func sweepProducts(alpha, one, w, w2, h, hw, h2 float64) Moments {
	s, c := math.Sincos(alpha)
	s2 := math.Sin(2 * alpha)
	cc := alpha/2 + s2/4
	ss := alpha/2 - s2/4
	sc := s * s / 2
	return momentsFromIntegrals(
		w2*cc, w2*sc, hw*s,
		w2*ss, hw*(1-c),
		alpha*h2,
		w*s, w*(1-c), alpha*h, alpha*one,
	)
}

// ComputeSecondMomentVolumeProducts returns the volume products of the
// enclosed solid and the frame they are expressed in.
func (tp *TorusPipe) ComputeSecondMomentVolumeProducts() (Transform, Moments, bool) {
	l, sweep, ok := tp.frame()
	if !ok || !tp.IsClosedVolume() {
		return Transform{}, Moments{}, false
	}
	R, r := tp.MajorRadius, tp.MinorRadius
	a := math.Pi * r * r
	local := sweepProducts(sweep,
		a*R,
		a*(R*R+r*r/4),
		a*(R*R*R+3*R*r*r/4),
		0, 0,
		R*math.Pi*r*r*r*r/4,
	)
	return l, local, true
}

// ComputeSecondMomentAreaProducts returns the area products of the
// surface and the frame they are expressed in.
func (tp *TorusPipe) ComputeSecondMomentAreaProducts() (Transform, Moments, bool) {
	l, sweep, ok := tp.frame()
	if !ok {
		return Transform{}, Moments{}, false
	}
	R, r := tp.MajorRadius, tp.MinorRadius
	local := sweepProducts(sweep,
		2*math.Pi*r*R,
		math.Pi*r*(2*R*R+r*r),
		math.Pi*r*(2*R*R*R+3*R*r*r),
		0, 0,
		math.Pi*r*r*r*R,
	)
	if !tp.hasCap(0) {
		return l, local, true
	}
	world := local.Transformed(l)
	for i := 0; i < 2; i++ {
		if pc, ok := tp.planarCap(i); ok {
			if m, ok := pc.areaProducts(); ok {
				world = world.Add(m)
			}
		}
	}
	return momentsInFrame(l, world)
}

func (tp *TorusPipe) transformInPlace(t Transform) bool {
	if !t.IsRigid(epsilon) {
		s, ok := t.UniformScale(epsilon)
		if !ok || t.LinearDet() <= 0 {
			return false
		}
		tp.MajorRadius *= s
		tp.MinorRadius *= s
	}
	x, y := t.Direction(tp.VectorX), t.Direction(tp.VectorY)
	x, _ = d3.SafeUnit(x)
	y, _ = d3.SafeUnit(y)
	tp.Center, tp.VectorX, tp.VectorY = t.Transform(tp.Center), x, y
	return true
}
