package solid

import (
	"math"

	"github.com/soypat/solid/curve"
	"github.com/soypat/solid/internal/d3"
	"github.com/soypat/solid/internal/poly"
	"gonum.org/v1/gonum/spatial/r3"
)

// Cone is a truncated cone between two parallel circles. The circle at
// CenterA has radius RadiusA in the plane of Vector0 and Vector90, the
// circle at CenterB has RadiusB. Equal radii give a cylinder.
type Cone struct {
	CenterA, CenterB  r3.Vec
	Vector0, Vector90 r3.Vec
	RadiusA, RadiusB  float64
	capped            bool
}

// NewConeFromCenters returns a right circular cone with its axis from a
// to b. Radii must not be negative and not both zero.
func NewConeFromCenters(a, b r3.Vec, radiusA, radiusB float64, capped bool) (*Cone, error) {
	x, y, _, ok := d3.FrameFromZ(r3.Sub(b, a))
	if !ok {
		return nil, errMsg(ErrDegenerate, "cone axis")
	}
	if radiusA < 0 || radiusB < 0 || (radiusA == 0 && radiusB == 0) {
		return nil, errMsg(ErrDegenerate, "cone radii")
	}
	return &Cone{CenterA: a, CenterB: b, Vector0: x, Vector90: y, RadiusA: radiusA, RadiusB: radiusB, capped: capped}, nil
}

// Kind returns KindCone.
func (c *Cone) Kind() Kind { return KindCone }

// Capped reports whether caps are requested for the cone.
func (c *Cone) Capped() bool { return c.capped }

// SetCapped requests or removes the caps.
func (c *Cone) SetCapped(capped bool) { c.capped = capped }

// IsClosedVolume reports whether the cone bounds a volume.
func (c *Cone) IsClosedVolume() bool { return c.capped }

func (c *Cone) clone() Shape { d := *c; return &d }

// TryGetFrame returns the frame in which the cone surface is
// x^2+y^2 = r(z)^2 with r(z) = RadiusA + z*(RadiusB-RadiusA), z in [0,1].
func (c *Cone) TryGetFrame() (localToWorld, worldToLocal Transform, ok bool) {
	l := d3.FromColumns(c.Vector0, c.Vector90, r3.Sub(c.CenterB, c.CenterA), c.CenterA)
	inv, ok := l.Inv()
	if !ok {
		return Transform{}, Transform{}, false
	}
	return l, inv, true
}

// TryGetRotationAxis returns the axis of a circular cone.
func (c *Cone) TryGetRotationAxis() (center, axis r3.Vec, sweep float64, ok bool) {
	if !c.isCircular() {
		return r3.Vec{}, r3.Vec{}, 0, false
	}
	axis, _ = d3.SafeUnit(r3.Sub(c.CenterB, c.CenterA))
	return c.CenterA, axis, 2 * math.Pi, true
}

// isCircular reports whether the cone is right circular: orthonormal
// section vectors perpendicular to the axis.
func (c *Cone) isCircular() bool {
	h := r3.Sub(c.CenterB, c.CenterA)
	n0, n90 := r3.Norm(c.Vector0), r3.Norm(c.Vector90)
	hn := r3.Norm(h)
	if hn == 0 {
		return false
	}
	return math.Abs(n0-1) <= epsilon && math.Abs(n90-1) <= epsilon &&
		math.Abs(r3.Dot(c.Vector0, c.Vector90)) <= epsilon &&
		math.Abs(r3.Dot(c.Vector0, h)) <= epsilon*hn &&
		math.Abs(r3.Dot(c.Vector90, h)) <= epsilon*hn
}

func (c *Cone) radius(z float64) float64 { return c.RadiusA + z*(c.RadiusB-c.RadiusA) }

// hasCap reports whether cap i has a real disk.
func (c *Cone) hasCap(i int) bool {
	if !c.capped {
		return false
	}
	r := c.RadiusA
	if i == 1 {
		r = c.RadiusB
	}
	return math.Abs(r) > poleTol*(1+math.Max(math.Abs(c.RadiusA), math.Abs(c.RadiusB)))
}

func (c *Cone) planarCap(i int) (planarCap, bool) {
	if i < 0 || i > 1 || !c.hasCap(i) {
		return planarCap{}, false
	}
	h := r3.Sub(c.CenterB, c.CenterA)
	center, r := c.CenterA, c.RadiusA
	if i == 1 {
		center, r = c.CenterB, c.RadiusB
	}
	return diskCap(d3.FromColumns(c.Vector0, c.Vector90, h, center), math.Abs(r), i == 0), true
}

// Range returns the world range of the cone.
func (c *Cone) Range() r3.Box {
	b := d3.EmptyBox()
	for i, center := range [2]r3.Vec{c.CenterA, c.CenterB} {
		r := math.Abs(c.RadiusA)
		if i == 1 {
			r = math.Abs(c.RadiusB)
		}
		arc := &curve.Arc{Center: center, Vector0: r3.Scale(r, c.Vector0), Vector90: r3.Scale(r, c.Vector90), Sweep: 2 * math.Pi}
		b = b.Extend(d3.Box(arc.Bounds()))
	}
	return r3.Box(b)
}

// Faces returns the indices of every face, caps last.
func (c *Cone) Faces() []FaceIndices {
	faces := []FaceIndices{SideFace(0, 0)}
	for i := 0; i < 2; i++ {
		if c.hasCap(i) {
			faces = append(faces, CapFace(i))
		}
	}
	return faces
}

// TryUVFractionToXYZ returns the point of face at fractions u,v and
// its partial derivatives.
func (c *Cone) TryUVFractionToXYZ(face FaceIndices, u, v float64) (xyz, dXdu, dXdv r3.Vec, ok bool) {
	if face.IsCap() {
		pc, ok := c.planarCap(face.CapIndex())
		if !ok || face.Index2 != 0 {
			return xyz, dXdu, dXdv, false
		}
		xyz, dXdu, dXdv = pc.evaluate(u, v)
		return xyz, dXdu, dXdv, true
	}
	if face != SideFace(0, 0) {
		return xyz, dXdu, dXdv, false
	}
	l, _, ok := c.TryGetFrame()
	if !ok {
		return xyz, dXdu, dXdv, false
	}
	theta := 2 * math.Pi * u
	s, co := math.Sincos(theta)
	r := c.radius(v)
	dr := c.RadiusB - c.RadiusA
	xyz = l.Transform(r3.Vec{X: r * co, Y: r * s, Z: v})
	dXdu = l.Direction(r3.Vec{X: -2 * math.Pi * r * s, Y: 2 * math.Pi * r * co})
	dXdv = l.Direction(r3.Vec{X: dr * co, Y: dr * s, Z: 1})
	return xyz, dXdu, dXdv, true
}

// GetConstantUSection returns the curve of face at fixed u.
func (c *Cone) GetConstantUSection(face FaceIndices, u float64) (*curve.Vector, bool) {
	if face.IsCap() {
		pc, ok := c.planarCap(face.CapIndex())
		if !ok {
			return nil, false
		}
		return pc.section(u, true)
	}
	p0, _, _, ok := c.TryUVFractionToXYZ(face, u, 0)
	if !ok {
		return nil, false
	}
	p1, _, _, _ := c.TryUVFractionToXYZ(face, u, 1)
	return curve.NewPath(curve.BoundaryOpen, &curve.Line{P0: p0, P1: p1}), true
}

// GetConstantVSection returns the curve of face at fixed v.
func (c *Cone) GetConstantVSection(face FaceIndices, v float64) (*curve.Vector, bool) {
	if face.IsCap() {
		pc, ok := c.planarCap(face.CapIndex())
		if !ok {
			return nil, false
		}
		return pc.section(v, false)
	}
	if face != SideFace(0, 0) {
		return nil, false
	}
	r := c.radius(v)
	arc := &curve.Arc{
		Center:   d3.Lerp(c.CenterA, c.CenterB, v),
		Vector0:  r3.Scale(r, c.Vector0),
		Vector90: r3.Scale(r, c.Vector90),
		Sweep:    2 * math.Pi,
	}
	return curve.NewPath(curve.BoundaryOuter, arc), true
}

// AddRayIntersections appends the hits of ray at or past minParameter,
// ordered by ray parameter.
// The ray is solved against the quadric in the local frame.
func (c *Cone) AddRayIntersections(dst []LocationDetail, ray Ray, parentID int, minParameter float64) []LocationDetail {
	_, inv, ok := c.TryGetFrame()
	if !ok {
		return dst
	}
	n0 := len(dst)
	lr := ray.Transformed(inv)
	o, d := lr.Origin, lr.Direction
	a0, a1 := c.RadiusA, c.RadiusB-c.RadiusA
	rho0, rho1 := a0+a1*o.Z, a1*d.Z
	qa := d.X*d.X + d.Y*d.Y - rho1*rho1
	qb := 2 * (o.X*d.X + o.Y*d.Y - rho0*rho1)
	qc := o.X*o.X + o.Y*o.Y - rho0*rho0
	for _, t := range poly.Quadratic(qa, qb, qc) {
		if t < minParameter {
			continue
		}
		p := lr.At(t)
		if !in01(p.Z, uvTol) || c.radius(p.Z) < 0 {
			continue
		}
		u := normAngle(math.Atan2(p.Y, p.X)) / (2 * math.Pi)
		dst = append(dst, rayHit(c, ray, t, SideFace(0, 0), u, clamp01(p.Z), parentID))
	}
	for i := 0; i < 2; i++ {
		if pc, ok := c.planarCap(i); ok {
			dst = pc.addRayHits(dst, ray, CapFace(i), parentID, minParameter)
		}
	}
	sortTail(dst, n0)
	return dst
}

// ClosestPoint returns the surface point nearest x, with Pick set to
// the squared distance.
func (c *Cone) ClosestPoint(x r3.Vec) (LocationDetail, bool) {
	_, inv, ok := c.TryGetFrame()
	if !ok {
		return LocationDetail{}, false
	}
	best := newClosest(x)
	// Seed on the rule line in the half plane through x.
	lx := inv.Transform(x)
	u := normAngle(math.Atan2(lx.Y, lx.X)) / (2 * math.Pi)
	p0, _, _, _ := c.TryUVFractionToXYZ(SideFace(0, 0), u, 0)
	p1, _, _, _ := c.TryUVFractionToXYZ(SideFace(0, 0), u, 1)
	v, _ := (&curve.Line{P0: p0, P1: p1}).Closest(x)
	u, v = faceNewton(faceSurface(c, SideFace(0, 0)), x, u, v)
	if d, ok := detail(c, SideFace(0, 0), u, v); ok {
		best.offer(d)
	}
	for i := 0; i < 2; i++ {
		if pc, ok := c.planarCap(i); ok {
			if d, ok := pc.closestPoint(x, CapFace(i)); ok {
				best.offer(d)
			}
		}
	}
	return best.result()
}

// polyIntegral integrates p over [lo,hi].
func polyIntegral(p poly.Poly, lo, hi float64) float64 {
	var s float64
	for k, ck := range p {
		n := float64(k + 1)
		s += ck * (math.Pow(hi, n) - math.Pow(lo, n)) / n
	}
	return s
}

// ComputeSecondMomentVolumeProducts returns the volume products of the
// enclosed solid and the frame they are expressed in.
func (c *Cone) ComputeSecondMomentVolumeProducts() (Transform, Moments, bool) {
	l, _, ok := c.TryGetFrame()
	if !ok || !c.IsClosedVolume() {
		return Transform{}, Moments{}, false
	}
	r := poly.Poly{c.RadiusA, c.RadiusB - c.RadiusA}
	r2 := r.Mul(r)
	r4 := r2.Mul(r2)
	z := poly.Poly{0, 1}
	area := r2.Scale(math.Pi)
	xx := polyIntegral(r4.Scale(math.Pi/4), 0, 1)
	local := momentsFromIntegrals(
		xx, 0, 0,
		xx, 0,
		polyIntegral(area.Mul(z).Mul(z), 0, 1),
		0, 0, polyIntegral(area.Mul(z), 0, 1), polyIntegral(area, 0, 1),
	)
	return l, local.Scale(math.Abs(l.LinearDet())), true
}

// ComputeSecondMomentAreaProducts returns the area products of the
// surface and the frame they are expressed in.
func (c *Cone) ComputeSecondMomentAreaProducts() (Transform, Moments, bool) {
	l, _, ok := c.TryGetFrame()
	if !ok {
		return Transform{}, Moments{}, false
	}
	if !c.isCircular() {
		world := faceAreaProducts(faceSurface(c, SideFace(0, 0)), 8, 2)
		for i := 0; i < 2; i++ {
			if pc, ok := c.planarCap(i); ok {
				if m, ok := pc.areaProducts(); ok {
					world = world.Add(m)
				}
			}
		}
		return momentsInFrame(l, world)
	}
	// Right circular: integrate in the orthonormal frame with physical z.
	h := d3.Dist(c.CenterA, c.CenterB)
	axis, _ := d3.SafeUnit(r3.Sub(c.CenterB, c.CenterA))
	frame := d3.FromColumns(c.Vector0, c.Vector90, axis, c.CenterA)
	slope := (c.RadiusB - c.RadiusA) / h
	k := math.Sqrt(1 + slope*slope)
	r := poly.Poly{c.RadiusA, slope}
	z := poly.Poly{0, 1}
	r3p := r.Mul(r).Mul(r)
	xx := math.Pi * k * polyIntegral(r3p, 0, h)
	side := momentsFromIntegrals(
		xx, 0, 0,
		xx, 0,
		2*math.Pi*k*polyIntegral(r.Mul(z).Mul(z), 0, h),
		0, 0, 2*math.Pi*k*polyIntegral(r.Mul(z), 0, h), 2*math.Pi*k*polyIntegral(r, 0, h),
	)
	for i := 0; i < 2; i++ {
		if !c.hasCap(i) {
			continue
		}
		rc, zc := c.RadiusA, 0.0
		if i == 1 {
			rc, zc = c.RadiusB, h
		}
		a := math.Pi * rc * rc
		dxx := a * rc * rc / 4
		side = side.Add(momentsFromIntegrals(dxx, 0, 0, dxx, 0, a*zc*zc, 0, 0, a*zc, a))
	}
	return frame, side, true
}

func (c *Cone) transformInPlace(t Transform) bool {
	a, b := t.Transform(c.CenterA), t.Transform(c.CenterB)
	v0, v90 := t.Direction(c.Vector0), t.Direction(c.Vector90)
	if d3.Dist(a, b) == 0 || r3.Norm(r3.Cross(v0, v90)) == 0 {
		return false
	}
	c.CenterA, c.CenterB, c.Vector0, c.Vector90 = a, b, v0, v90
	return true
}
