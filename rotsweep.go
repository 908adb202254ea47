package solid

import (
	"math"

	"github.com/soypat/solid/curve"
	"github.com/soypat/solid/internal/d3"
	"github.com/soypat/solid/internal/poly"
	"gonum.org/v1/gonum/spatial/r3"
)

// RotationalSweep rotates BaseCurve about Axis through SweepAngle
// radians. Side faces are numbered by the leaf ordinal of the base
// curve, with u along the leaf and v along the rotation.
type RotationalSweep struct {
	BaseCurve  *curve.Vector
	Axis       Ray
	SweepAngle float64
	// NumVRules is the minimum number of rule lines a mesh places along
	// the rotation.
	NumVRules int
	capped    bool
}

// NewRotationalSweep returns the sweep of base about the line through
// center along axis.
func NewRotationalSweep(base *curve.Vector, center, axis r3.Vec, sweep float64, capped bool) (*RotationalSweep, error) {
	if base == nil || base.LeafCount() == 0 {
		return nil, errMsg(ErrNilCurve, "rotational sweep base")
	}
	if r3.Norm(axis) == 0 || sweep == 0 {
		return nil, errMsg(ErrDegenerate, "rotational sweep axis")
	}
	rs := &RotationalSweep{BaseCurve: base, Axis: Ray{Origin: center, Direction: axis}, SweepAngle: sweep, capped: capped}
	if capped && !rs.isFullCircle() {
		if _, ok := base.PlanarFrame(simplifyTol); !ok || !base.IsRegion() {
			return nil, errMsg(ErrNotRegion, "capped rotational sweep")
		}
	}
	return rs, nil
}

// Kind returns KindRotationalSweep.
func (rs *RotationalSweep) Kind() Kind { return KindRotationalSweep }

// Capped reports whether caps are requested for the sweep.
func (rs *RotationalSweep) Capped() bool { return rs.capped }

// SetCapped requests or removes the caps.
func (rs *RotationalSweep) SetCapped(capped bool) { rs.capped = capped }

// IsClosedVolume reports whether the sweep bounds a volume.
func (rs *RotationalSweep) IsClosedVolume() bool {
	return rs.BaseCurve.IsRegion() && (rs.isFullCircle() || rs.hasCaps())
}

func (rs *RotationalSweep) clone() Shape {
	c := *rs
	c.BaseCurve = rs.BaseCurve.Clone()
	return &c
}

func (rs *RotationalSweep) isFullCircle() bool {
	return math.Abs(math.Abs(rs.SweepAngle)-2*math.Pi) <= epsilon
}

// TryGetRotationAxis returns the axis flipped so the sweep is positive.
func (rs *RotationalSweep) TryGetRotationAxis() (center, axis r3.Vec, sweep float64, ok bool) {
	axis, ok = d3.SafeUnit(rs.Axis.Direction)
	if !ok {
		return r3.Vec{}, r3.Vec{}, 0, false
	}
	sweep = rs.SweepAngle
	if sweep < 0 {
		axis, sweep = r3.Scale(-1, axis), -sweep
	}
	return rs.Axis.Origin, axis, math.Min(sweep, 2*math.Pi), true
}

// frame returns the rigid frame with z on the normalized axis and x
// toward the profile point farthest from the axis.
func (rs *RotationalSweep) frame() (l Transform, sweep float64, ok bool) {
	center, z, sweep, ok := rs.TryGetRotationAxis()
	if !ok {
		return Transform{}, 0, false
	}
	x := d3.Perpendicular(z)
	far := 0.0
	for _, p := range curve.StrokeLoop(rs.BaseCurve.Leaves(), math.Pi/4, 0) {
		q := r3.Sub(p, center)
		q = r3.Sub(q, r3.Scale(r3.Dot(q, z), z))
		if n := r3.Norm(q); n > far {
			far, x = n, r3.Scale(1/n, q)
		}
	}
	return d3.FromColumns(x, r3.Cross(z, x), z, center), sweep, true
}

// TryGetFrame returns the local frame of the sweep and its inverse.
func (rs *RotationalSweep) TryGetFrame() (localToWorld, worldToLocal Transform, ok bool) {
	l, _, ok := rs.frame()
	if !ok {
		return Transform{}, Transform{}, false
	}
	inv, ok := l.Inv()
	if !ok {
		return Transform{}, Transform{}, false
	}
	return l, inv, true
}

// rotation returns the world rotation by theta about the normalized axis.
func (rs *RotationalSweep) rotation(theta float64) Transform {
	center, axis, _, _ := rs.TryGetRotationAxis()
	return d3.Rotation(center, axis, theta)
}

// localProfile returns the base curve in the local frame.
func (rs *RotationalSweep) localProfile() (*curve.Vector, Transform, float64, bool) {
	l, sweep, ok := rs.frame()
	if !ok {
		return nil, Transform{}, 0, false
	}
	inv, ok := l.Inv()
	if !ok {
		return nil, Transform{}, 0, false
	}
	return rs.BaseCurve.CloneTransformed(inv), l, sweep, true
}

func (rs *RotationalSweep) hasCaps() bool {
	if !rs.capped || rs.isFullCircle() || !rs.BaseCurve.IsRegion() {
		return false
	}
	_, ok := rs.BaseCurve.PlanarFrame(simplifyTol)
	return ok
}

func (rs *RotationalSweep) planarCap(i int) (planarCap, bool) {
	if (i != 0 && i != 1) || !rs.hasCaps() {
		return planarCap{}, false
	}
	f, ok := rs.BaseCurve.PlanarFrame(simplifyTol)
	if !ok {
		return planarCap{}, false
	}
	center, axis, sweep, _ := rs.TryGetRotationAxis()
	// Orient the cap normal along the motion of the profile's farthest point.
	var far r3.Vec
	farD := -1.0
	for _, p := range curve.StrokeLoop(rs.BaseCurve.Leaves(), math.Pi/8, 0) {
		q := r3.Sub(p, center)
		if d := r3.Norm2(r3.Cross(axis, q)); d > farD {
			far, farD = p, d
		}
	}
	x, y, z, o := f.Columns()
	if r3.Dot(z, r3.Cross(axis, r3.Sub(far, center))) < 0 {
		f = d3.FromColumns(y, x, r3.Scale(-1, z), o)
	}
	inv, ok := f.Inv()
	if !ok {
		return planarCap{}, false
	}
	region := rs.BaseCurve.CloneTransformed(inv)
	if i == 1 {
		f = rs.rotation(sweep).Mul(f)
	}
	return newPlanarCap(f, region, i == 0), true
}

// Faces returns the indices of every face, caps last.
func (rs *RotationalSweep) Faces() []FaceIndices {
	var faces []FaceIndices
	for i := 0; i < rs.BaseCurve.LeafCount(); i++ {
		faces = append(faces, SideFace(0, i))
	}
	if rs.hasCaps() {
		faces = append(faces, CapFace(0), CapFace(1))
	}
	return faces
}

func (rs *RotationalSweep) leaf(face FaceIndices) curve.Primitive {
	if face.Index0 != 0 || face.Index1 != 0 {
		return nil
	}
	return rs.BaseCurve.FindIndexedLeaf(face.Index2)
}

// inAxisPlane reports whether the local profile lies in the plane y = 0.
// With half set it must also stay on the x >= 0 side of the axis.
func inAxisPlane(local *curve.Vector, half bool) bool {
	b := local.Bounds()
	size := d3.Box(b).Diagonal()
	tol := simplifyTol * (1 + size)
	return math.Abs(b.Min.Y) <= tol && math.Abs(b.Max.Y) <= tol && (!half || b.Min.X >= -tol)
}

// Range returns the world range. A profile in a plane through the axis
// gives an exact range, other profiles are stroked. Points on either
// side of the axis reach x*mMax or x*mMin along a world direction.
func (rs *RotationalSweep) Range() r3.Box {
	local, l, sweep, ok := rs.localProfile()
	if !ok {
		return rs.BaseCurve.Bounds()
	}
	x, y, z, o := l.Columns()
	var lo, hi [3]float64
	planar := inAxisPlane(local, false)
	var pts []r3.Vec
	if !planar {
		pts = curve.StrokeLoop(local.Leaves(), math.Pi/64, 0)
	}
	for axis := 0; axis < 3; axis++ {
		a, b, c := axisComp(x, axis), axisComp(y, axis), axisComp(z, axis)
		if planar {
			mMin, mMax := radialExtremes(a, b, sweep)
			f := d3.NewTransform([]float64{
				mMax, 0, c, 0,
				mMin, 0, c, 0,
				0, 0, 0, 0,
				0, 0, 0, 1,
			})
			bb := local.CloneTransformed(f).Bounds()
			lo[axis] = math.Min(bb.Min.X, bb.Min.Y)
			hi[axis] = math.Max(bb.Max.X, bb.Max.Y)
			continue
		}
		lo[axis], hi[axis] = math.Inf(1), math.Inf(-1)
		for _, p := range pts {
			rho := math.Hypot(p.X, p.Y)
			beta := math.Atan2(p.Y, p.X)
			sb, cb := math.Sincos(beta)
			mMin, mMax := radialExtremes(a*cb+b*sb, b*cb-a*sb, sweep)
			lo[axis] = math.Min(lo[axis], rho*mMin+c*p.Z)
			hi[axis] = math.Max(hi[axis], rho*mMax+c*p.Z)
		}
	}
	return r3.Box{
		Min: r3.Add(o, r3.Vec{X: lo[0], Y: lo[1], Z: lo[2]}),
		Max: r3.Add(o, r3.Vec{X: hi[0], Y: hi[1], Z: hi[2]}),
	}
}

// TryUVFractionToXYZ returns the point of face at fractions u,v and
// its partial derivatives.
func (rs *RotationalSweep) TryUVFractionToXYZ(face FaceIndices, u, v float64) (xyz, dXdu, dXdv r3.Vec, ok bool) {
	if face.IsCap() {
		pc, ok := rs.planarCap(face.CapIndex())
		if !ok || face.Index2 != 0 {
			return xyz, dXdu, dXdv, false
		}
		xyz, dXdu, dXdv = pc.evaluate(u, v)
		return xyz, dXdu, dXdv, true
	}
	leaf := rs.leaf(face)
	center, axis, sweep, ok := rs.TryGetRotationAxis()
	if leaf == nil || !ok {
		return xyz, dXdu, dXdv, false
	}
	p, d := leaf.Evaluate(u)
	rot := d3.Rotation(center, axis, v*sweep)
	xyz = rot.Transform(p)
	dXdu = rot.Direction(d)
	dXdv = r3.Scale(sweep, r3.Cross(axis, r3.Sub(xyz, center)))
	return xyz, dXdu, dXdv, true
}

// GetConstantUSection returns the curve of face at fixed u.
func (rs *RotationalSweep) GetConstantUSection(face FaceIndices, u float64) (*curve.Vector, bool) {
	if face.IsCap() {
		pc, ok := rs.planarCap(face.CapIndex())
		if !ok {
			return nil, false
		}
		return pc.section(u, true)
	}
	leaf := rs.leaf(face)
	l, sweep, ok := rs.frame()
	if leaf == nil || !ok {
		return nil, false
	}
	inv, _ := l.Inv()
	p := inv.Transform(curve.Point(leaf, u))
	arc := &curve.Arc{
		Center:   l.Transform(r3.Vec{Z: p.Z}),
		Vector0:  l.Direction(r3.Vec{X: p.X, Y: p.Y}),
		Vector90: l.Direction(r3.Vec{X: -p.Y, Y: p.X}),
		Sweep:    sweep,
	}
	return curve.NewPath(curve.BoundaryOpen, arc), true
}

// GetConstantVSection returns the curve of face at fixed v.
func (rs *RotationalSweep) GetConstantVSection(face FaceIndices, v float64) (*curve.Vector, bool) {
	if face.IsCap() {
		pc, ok := rs.planarCap(face.CapIndex())
		if !ok {
			return nil, false
		}
		return pc.section(v, false)
	}
	leaf := rs.leaf(face)
	_, _, sweep, ok := rs.TryGetRotationAxis()
	if leaf == nil || !ok {
		return nil, false
	}
	return curve.NewPath(curve.BoundaryOpen, leaf.Transformed(rs.rotation(v*sweep))), true
}

// sweepFraction returns the rotation fraction taking the local profile
// point p to the local point h at the same height. ok is false outside
// the sweep.
func sweepFraction(p, h r3.Vec, sweep float64) (v float64, ok bool) {
	cross := p.X*h.Y - p.Y*h.X
	dot := p.X*h.X + p.Y*h.Y
	if math.Hypot(p.X, p.Y) <= epsilon {
		return 0, true
	}
	theta := normAngle(math.Atan2(cross, dot))
	if theta > sweep+uvTol {
		if 2*math.Pi-theta <= uvTol {
			return 0, true
		}
		return 0, false
	}
	return clamp01(theta / sweep), true
}

// revolutionRoots returns the leaf fractions where the leaf crosses the
// surface of revolution of the local ray with dz != 0:
//
//	|dz*o_xy + (z - oz)*d_xy|^2 - dz^2*(x^2 + y^2) = 0
func revolutionRoots(leaf curve.Primitive, o, d r3.Vec) []float64 {
	g := func(p r3.Vec) float64 {
		ax := d.Z*o.X + (p.Z-o.Z)*d.X
		ay := d.Z*o.Y + (p.Z-o.Z)*d.Y
		return ax*ax + ay*ay - d.Z*d.Z*(p.X*p.X+p.Y*p.Y)
	}
	// Polynomial form for a segment from a to b.
	segment := func(a, b r3.Vec) poly.Poly {
		lin := func(a0, a1 float64) poly.Poly { return poly.Poly{a0, a1 - a0} }
		ax := lin(d.Z*o.X+(a.Z-o.Z)*d.X, d.Z*o.X+(b.Z-o.Z)*d.X)
		ay := lin(d.Z*o.Y+(a.Z-o.Z)*d.Y, d.Z*o.Y+(b.Z-o.Z)*d.Y)
		px, py := lin(a.X, b.X), lin(a.Y, b.Y)
		return ax.Mul(ax).Add(ay.Mul(ay)).Add(px.Mul(px).Add(py.Mul(py)).Scale(-d.Z * d.Z))
	}
	switch c := leaf.(type) {
	case *curve.Line:
		return segment(c.P0, c.P1).RootsIn(0, 1, 1e-12)
	case *curve.LineString:
		n := c.Segments()
		var out []float64
		for i := 0; i < n; i++ {
			for _, s := range segment(c.Points[i], c.Points[i+1]).RootsIn(0, 1, 1e-12) {
				out = append(out, (float64(i)+s)/float64(n))
			}
		}
		return dedupeFractions(out)
	case *curve.Arc:
		x, y, z := c.Trig()
		dz := poly.TrigConst(d.Z)
		zo := z.Sub(poly.TrigConst(o.Z))
		ax := dz.Scale(o.X).Add(zo.Scale(d.X))
		ay := dz.Scale(o.Y).Add(zo.Scale(d.Y))
		f := ax.Mul(ax).Add(ay.Mul(ay)).Sub(x.Mul(x).Add(y.Mul(y)).Scale(d.Z * d.Z))
		return c.AngleRootFractions(f.AngleRoots(1e-14 * (1 + f.Num.MaxAbs())))
	}
	roots, ok := curve.PieceRoots(leaf, func(pc curve.Piece) poly.Poly {
		zo := pc.Z.Add(poly.Poly{-o.Z})
		ax := zo.Scale(d.X).Add(poly.Poly{d.Z * o.X})
		ay := zo.Scale(d.Y).Add(poly.Poly{d.Z * o.Y})
		rho2 := pc.X.Mul(pc.X).Add(pc.Y.Mul(pc.Y))
		return ax.Mul(ax).Add(ay.Mul(ay)).Add(rho2.Scale(-d.Z * d.Z))
	})
	if ok {
		return roots
	}
	n := curve.StrokeCount(leaf, math.Pi/32, 0, 32)
	return poly.Bracket(func(f float64) float64 { return g(curve.Point(leaf, f)) }, 0, 1, n)
}

func dedupeFractions(f []float64) []float64 {
	out := f[:0]
	for _, x := range f {
		dup := false
		for _, y := range out {
			if math.Abs(x-y) <= 1e-12 {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, x)
		}
	}
	return out
}

// AddRayIntersections appends the hits of ray at or past minParameter,
// ordered by ray parameter.
// Profile leaves are solved piece by piece in the local frame.
func (rs *RotationalSweep) AddRayIntersections(dst []LocationDetail, ray Ray, parentID int, minParameter float64) []LocationDetail {
	local, l, sweep, ok := rs.localProfile()
	if !ok {
		return dst
	}
	inv, _ := l.Inv()
	n0 := len(dst)
	lr := ray.Transformed(inv)
	o, d := lr.Origin, lr.Direction
	add := func(leafIndex int, f float64, p r3.Vec, t float64) {
		if t < minParameter {
			return
		}
		v, ok := sweepFraction(p, lr.At(t), sweep)
		if !ok {
			return
		}
		dst = append(dst, rayHit(rs, ray, t, SideFace(0, leafIndex), f, v, parentID))
	}
	if math.Abs(d.Z) > 1e-12*r3.Norm(d) {
		for i, leaf := range local.Leaves() {
			for _, f := range revolutionRoots(leaf, o, d) {
				p := curve.Point(leaf, f)
				add(i, f, p, (p.Z-o.Z)/d.Z)
			}
		}
	} else {
		// The ray sweeps the plane z = oz; intersect the profile with it
		// and solve for the circle of each crossing.
		for _, loc := range local.AppendPlaneIntersections(nil, r3.Vec{Z: o.Z}, r3.Vec{Z: 1}) {
			p := loc.Point
			rho2 := p.X*p.X + p.Y*p.Y
			a := d.X*d.X + d.Y*d.Y
			b := 2 * (o.X*d.X + o.Y*d.Y)
			c := o.X*o.X + o.Y*o.Y - rho2
			for _, t := range poly.Quadratic(a, b, c) {
				add(loc.Leaf, loc.Fraction, p, t)
			}
		}
	}
	for i := 0; i < 2; i++ {
		if pc, ok := rs.planarCap(i); ok {
			dst = pc.addRayHits(dst, ray, CapFace(i), parentID, minParameter)
		}
	}
	sortTail(dst, n0)
	return dst
}

// ClosestPoint returns the surface point nearest x, with Pick set to
// the squared distance.
func (rs *RotationalSweep) ClosestPoint(x r3.Vec) (LocationDetail, bool) {
	local, l, sweep, ok := rs.localProfile()
	if !ok {
		return LocationDetail{}, false
	}
	inv, _ := l.Inv()
	p := inv.Transform(x)
	best := newClosest(x)
	angleTo := func(q r3.Vec) float64 {
		return math.Atan2(q.X*p.Y-q.Y*p.X, q.X*p.X+q.Y*p.Y)
	}
	for i, leaf := range local.Leaves() {
		// Alternate between the best rotation for the current profile
		// point and the best profile point for the current rotation.
		for _, seed := range [3]float64{0, 0.5, 1} {
			theta := clampAngle(angleTo(curve.Point(leaf, seed)), sweep)
			var u float64
			for iter := 0; iter < 24; iter++ {
				back := d3.Rotation(r3.Vec{}, r3.Vec{Z: 1}, -theta).Transform(p)
				nu, q := leaf.Closest(back)
				nt := theta
				if math.Hypot(q.X, q.Y) > epsilon {
					nt = clampAngle(angleTo(q), sweep)
				}
				done := math.Abs(nu-u)+math.Abs(nt-theta) < 1e-13
				u, theta = nu, nt
				if done {
					break
				}
			}
			if d, ok := detail(rs, SideFace(0, i), u, safeDiv(theta, sweep, 0)); ok {
				best.offer(d)
			}
		}
	}
	for i := 0; i < 2; i++ {
		if pc, ok := rs.planarCap(i); ok {
			if d, ok := pc.closestPoint(x, CapFace(i)); ok {
				best.offer(d)
			}
		}
	}
	return best.result()
}

// ComputeSecondMomentVolumeProducts integrates the differential wedge of
// the profile region over the sweep. The profile must lie in a half
// plane through the axis.
func (rs *RotationalSweep) ComputeSecondMomentVolumeProducts() (Transform, Moments, bool) {
	if !rs.IsClosedVolume() {
		return Transform{}, Moments{}, false
	}
	local, l, sweep, ok := rs.localProfile()
	if !ok || !inAxisPlane(local, true) {
		return Transform{}, Moments{}, false
	}
	// Map (x, z) onto the xy plane as (rho, h).
	toRhoH := d3.NewTransform([]float64{
		1, 0, 0, 0,
		0, 0, 1, 0,
		0, 1, 0, 0,
		0, 0, 0, 1,
	})
	m, ok := local.CloneTransformed(toRhoH).AreaMoments(3)
	if !ok {
		return Transform{}, Moments{}, false
	}
	return l, sweepProducts(sweep, m[1][0], m[2][0], m[3][0], m[1][1], m[2][1], m[1][2]), true
}

// ComputeSecondMomentAreaProducts returns the area products of the
// surface and the frame they are expressed in.
func (rs *RotationalSweep) ComputeSecondMomentAreaProducts() (Transform, Moments, bool) {
	l, sweep, ok := rs.frame()
	if !ok {
		return Transform{}, Moments{}, false
	}
	nv := int(math.Ceil(sweep/(math.Pi/4))) + 1
	var world Moments
	for i, leaf := range rs.BaseCurve.Leaves() {
		nu := curve.StrokeCount(leaf, math.Pi/4, 0, 1)
		world = world.Add(faceAreaProducts(faceSurface(rs, SideFace(0, i)), nu, nv))
	}
	for i := 0; i < 2; i++ {
		if pc, ok := rs.planarCap(i); ok {
			m, ok := pc.areaProducts()
			if !ok {
				return Transform{}, Moments{}, false
			}
			world = world.Add(m)
		}
	}
	return momentsInFrame(l, world)
}

func (rs *RotationalSweep) transformInPlace(t Transform) bool {
	if !t.IsRigid(epsilon) {
		if _, ok := t.UniformScale(epsilon); !ok || t.LinearDet() <= 0 {
			return false
		}
	}
	rs.BaseCurve = rs.BaseCurve.CloneTransformed(t)
	rs.Axis = rs.Axis.Transformed(t)
	return true
}
