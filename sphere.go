package solid

import (
	"math"

	"github.com/soypat/solid/curve"
	"github.com/soypat/solid/internal/d3"
	"github.com/soypat/solid/internal/poly"
	"gonum.org/v1/gonum/spatial/r3"
)

// Sphere is the image of the unit sphere under LocalToWorld, restricted
// to latitudes from StartLatitude through StartLatitude+LatitudeSweep.
type Sphere struct {
	LocalToWorld  Transform
	StartLatitude float64
	LatitudeSweep float64
	capped        bool
}

// NewSphere returns the full sphere of radius r centered at center.
func NewSphere(center r3.Vec, r float64) (*Sphere, error) {
	if !(r > 0) {
		return nil, errMsg(ErrDegenerate, "sphere radius")
	}
	return &Sphere{
		LocalToWorld:  d3.FromColumns(r3.Vec{X: r}, r3.Vec{Y: r}, r3.Vec{Z: r}, center),
		StartLatitude: -math.Pi / 2,
		LatitudeSweep: math.Pi,
	}, nil
}

// NewSphereBand returns the part of the ellipsoid localToWorld between
// the latitudes start and start+sweep.
func NewSphereBand(localToWorld Transform, start, sweep float64, capped bool) (*Sphere, error) {
	if _, ok := localToWorld.Inv(); !ok {
		return nil, errMsg(ErrDegenerate, "sphere frame is singular")
	}
	if sweep == 0 {
		return nil, errMsg(ErrDegenerate, "zero latitude sweep")
	}
	return &Sphere{LocalToWorld: localToWorld, StartLatitude: start, LatitudeSweep: sweep, capped: capped}, nil
}

// Kind returns KindSphere.
func (s *Sphere) Kind() Kind { return KindSphere }

// Capped reports whether caps are requested for the sphere.
func (s *Sphere) Capped() bool { return s.capped }

// SetCapped requests or removes the caps.
func (s *Sphere) SetCapped(capped bool) { s.capped = capped }

// IsClosedVolume reports whether the sphere spans pole to pole or is capped.
func (s *Sphere) IsClosedVolume() bool { return s.isFullLatitude() || s.capped }

func (s *Sphere) clone() Shape { c := *s; return &c }

// TryGetFrame returns the local frame of the sphere and its inverse.
func (s *Sphere) TryGetFrame() (localToWorld, worldToLocal Transform, ok bool) {
	inv, ok := s.LocalToWorld.Inv()
	if !ok {
		return Transform{}, Transform{}, false
	}
	return s.LocalToWorld, inv, true
}

// Center returns the sphere center.
func (s *Sphere) Center() r3.Vec { return s.LocalToWorld.Origin() }

// latitudes returns the bounding latitudes in ascending order.
func (s *Sphere) latitudes() (lo, hi float64) {
	lo, hi = s.StartLatitude, s.StartLatitude+s.LatitudeSweep
	if lo > hi {
		lo, hi = hi, lo
	}
	return lo, hi
}

func (s *Sphere) isFullLatitude() bool {
	lo, hi := s.latitudes()
	return math.Cos(lo) <= poleTol && math.Cos(hi) <= poleTol
}

// capLatitude returns the latitude of cap i.
func (s *Sphere) capLatitude(i int) float64 {
	if i == 0 {
		return s.StartLatitude
	}
	return s.StartLatitude + s.LatitudeSweep
}

func (s *Sphere) hasCap(i int) bool {
	return s.capped && (i == 0 || i == 1) && math.Cos(s.capLatitude(i)) > poleTol
}

func (s *Sphere) planarCap(i int) (planarCap, bool) {
	if !s.hasCap(i) {
		return planarCap{}, false
	}
	sn, cs := math.Sincos(s.capLatitude(i))
	toWorld := s.LocalToWorld.Mul(d3.Translation(r3.Vec{Z: sn}))
	return diskCap(toWorld, cs, i == 0), true
}

// Faces returns the indices of every face, caps last.
func (s *Sphere) Faces() []FaceIndices {
	faces := []FaceIndices{SideFace(0, 0)}
	for i := 0; i < 2; i++ {
		if s.hasCap(i) {
			faces = append(faces, CapFace(i))
		}
	}
	return faces
}

// parallel returns the latitude circle at phi.
func (s *Sphere) parallel(phi float64) *curve.Arc {
	sn, cs := math.Sincos(phi)
	l := s.LocalToWorld
	return &curve.Arc{
		Center:   l.Transform(r3.Vec{Z: sn}),
		Vector0:  l.Direction(r3.Vec{X: cs}),
		Vector90: l.Direction(r3.Vec{Y: cs}),
		Sweep:    2 * math.Pi,
	}
}

// Range returns the world range of the sphere.
func (s *Sphere) Range() r3.Box {
	l := s.LocalToWorld
	b := d3.EmptyBox()
	lo, hi := s.latitudes()
	for _, phi := range [2]float64{lo, hi} {
		b = b.Extend(d3.Box(s.parallel(phi).Bounds()))
	}
	// Extremes of the ellipsoid along each world axis lie where the
	// local normal is parallel to the corresponding row of the linear part.
	x, y, z, _ := l.Columns()
	rows := [3]r3.Vec{{X: x.X, Y: y.X, Z: z.X}, {X: x.Y, Y: y.Y, Z: z.Y}, {X: x.Z, Y: y.Z, Z: z.Z}}
	for _, row := range rows {
		n, ok := d3.SafeUnit(row)
		if !ok {
			continue
		}
		for _, p := range [2]r3.Vec{n, r3.Scale(-1, n)} {
			phi := math.Asin(math.Max(-1, math.Min(1, p.Z)))
			if phi >= lo-epsilon && phi <= hi+epsilon {
				b = b.Include(l.Transform(p))
			}
		}
	}
	return r3.Box(b)
}

// TryUVFractionToXYZ returns the point of face at fractions u,v and
// its partial derivatives.
func (s *Sphere) TryUVFractionToXYZ(face FaceIndices, u, v float64) (xyz, dXdu, dXdv r3.Vec, ok bool) {
	if face.IsCap() {
		pc, ok := s.planarCap(face.CapIndex())
		if !ok || face.Index2 != 0 {
			return xyz, dXdu, dXdv, false
		}
		xyz, dXdu, dXdv = pc.evaluate(u, v)
		return xyz, dXdu, dXdv, true
	}
	if face != SideFace(0, 0) {
		return xyz, dXdu, dXdv, false
	}
	theta := 2 * math.Pi * u
	phi := s.StartLatitude + v*s.LatitudeSweep
	st, ct := math.Sincos(theta)
	sp, cp := math.Sincos(phi)
	l := s.LocalToWorld
	xyz = l.Transform(r3.Vec{X: cp * ct, Y: cp * st, Z: sp})
	dXdu = l.Direction(r3.Vec{X: -2 * math.Pi * cp * st, Y: 2 * math.Pi * cp * ct})
	w := s.LatitudeSweep
	dXdv = l.Direction(r3.Vec{X: -w * sp * ct, Y: -w * sp * st, Z: w * cp})
	return xyz, dXdu, dXdv, true
}

// GetConstantUSection returns the curve of face at fixed u.
func (s *Sphere) GetConstantUSection(face FaceIndices, u float64) (*curve.Vector, bool) {
	if face.IsCap() {
		pc, ok := s.planarCap(face.CapIndex())
		if !ok {
			return nil, false
		}
		return pc.section(u, true)
	}
	if face != SideFace(0, 0) {
		return nil, false
	}
	st, ct := math.Sincos(2 * math.Pi * u)
	l := s.LocalToWorld
	meridian := &curve.Arc{
		Center:   l.Origin(),
		Vector0:  l.Direction(r3.Vec{X: ct, Y: st}),
		Vector90: l.Direction(r3.Vec{Z: 1}),
		Start:    s.StartLatitude,
		Sweep:    s.LatitudeSweep,
	}
	return curve.NewPath(curve.BoundaryOpen, meridian), true
}

// GetConstantVSection returns the curve of face at fixed v.
func (s *Sphere) GetConstantVSection(face FaceIndices, v float64) (*curve.Vector, bool) {
	if face.IsCap() {
		pc, ok := s.planarCap(face.CapIndex())
		if !ok {
			return nil, false
		}
		return pc.section(v, false)
	}
	if face != SideFace(0, 0) {
		return nil, false
	}
	return curve.NewPath(curve.BoundaryOuter, s.parallel(s.StartLatitude+v*s.LatitudeSweep)), true
}

// localUV returns the fractions of the local unit sphere point p.
// ok is false when the latitude is outside the band.
func (s *Sphere) localUV(p r3.Vec) (u, v float64, ok bool) {
	phi := math.Atan2(p.Z, math.Hypot(p.X, p.Y))
	u = normAngle(math.Atan2(p.Y, p.X)) / (2 * math.Pi)
	v = safeDiv(phi-s.StartLatitude, s.LatitudeSweep, 0)
	return u, v, in01(v, uvTol)
}

// AddRayIntersections appends the hits of ray at or past minParameter,
// ordered by ray parameter.
// Hits outside the latitude band are dropped.
func (s *Sphere) AddRayIntersections(dst []LocationDetail, ray Ray, parentID int, minParameter float64) []LocationDetail {
	_, inv, ok := s.TryGetFrame()
	if !ok {
		return dst
	}
	n0 := len(dst)
	lr := ray.Transformed(inv)
	o, d := lr.Origin, lr.Direction
	for _, t := range poly.Quadratic(r3.Dot(d, d), 2*r3.Dot(o, d), r3.Dot(o, o)-1) {
		if t < minParameter {
			continue
		}
		u, v, ok := s.localUV(lr.At(t))
		if !ok {
			continue
		}
		dst = append(dst, rayHit(s, ray, t, SideFace(0, 0), u, clamp01(v), parentID))
	}
	for i := 0; i < 2; i++ {
		if pc, ok := s.planarCap(i); ok {
			dst = pc.addRayHits(dst, ray, CapFace(i), parentID, minParameter)
		}
	}
	sortTail(dst, n0)
	return dst
}

// ClosestPoint returns the surface point nearest x, with Pick set to
// the squared distance.
func (s *Sphere) ClosestPoint(x r3.Vec) (LocationDetail, bool) {
	_, inv, ok := s.TryGetFrame()
	if !ok {
		return LocationDetail{}, false
	}
	best := newClosest(x)
	u, v, _ := s.localUV(inv.Transform(x))
	v = clamp01(v)
	if _, uniform := s.LocalToWorld.UniformScale(epsilon); !uniform {
		u, v = faceNewton(faceSurface(s, SideFace(0, 0)), x, u, v)
	}
	if d, ok := detail(s, SideFace(0, 0), u, v); ok {
		best.offer(d)
	}
	for i := 0; i < 2; i++ {
		if pc, ok := s.planarCap(i); ok {
			if d, ok := pc.closestPoint(x, CapFace(i)); ok {
				best.offer(d)
			}
		}
	}
	return best.result()
}

// bandMoments returns the unit sphere surface products for z in [za,zb].
// The surface element of the unit sphere is 2*pi*dz.
func bandMoments(za, zb float64) Moments {
	z := poly.Poly{0, 1}
	one := poly.Poly{1}
	xx := math.Pi * polyIntegral(poly.Poly{1, 0, -1}, za, zb)
	return momentsFromIntegrals(
		xx, 0, 0,
		xx, 0,
		2*math.Pi*polyIntegral(z.Mul(z), za, zb),
		0, 0, 2*math.Pi*polyIntegral(z, za, zb), 2*math.Pi*polyIntegral(one, za, zb),
	)
}

// diskMoments returns the products of a disk of radius r at height z.
func diskMoments(r, z float64) Moments {
	a := math.Pi * r * r
	xx := a * r * r / 4
	return momentsFromIntegrals(xx, 0, 0, xx, 0, a*z*z, 0, 0, a*z, a)
}

// ComputeSecondMomentAreaProducts returns the area products of the
// surface and the frame they are expressed in.
func (s *Sphere) ComputeSecondMomentAreaProducts() (Transform, Moments, bool) {
	l, _, ok := s.TryGetFrame()
	if !ok {
		return Transform{}, Moments{}, false
	}
	scale, uniform := l.UniformScale(epsilon)
	if !uniform {
		world := faceAreaProducts(faceSurface(s, SideFace(0, 0)), 8, 8)
		for i := 0; i < 2; i++ {
			if pc, ok := s.planarCap(i); ok {
				if m, ok := pc.areaProducts(); ok {
					world = world.Add(m)
				}
			}
		}
		return momentsInFrame(l, world)
	}
	lo, hi := s.latitudes()
	local := bandMoments(math.Sin(lo), math.Sin(hi))
	for i := 0; i < 2; i++ {
		if s.hasCap(i) {
			sn, cs := math.Sincos(s.capLatitude(i))
			local = local.Add(diskMoments(cs, sn))
		}
	}
	return l, local.Scale(scale * scale), true
}

// ComputeSecondMomentVolumeProducts returns the volume products of the
// enclosed solid and the frame they are expressed in.
func (s *Sphere) ComputeSecondMomentVolumeProducts() (Transform, Moments, bool) {
	l, _, ok := s.TryGetFrame()
	if !ok || !s.IsClosedVolume() {
		return Transform{}, Moments{}, false
	}
	lo, hi := s.latitudes()
	za, zb := math.Sin(lo), math.Sin(hi)
	// Slices are disks of radius^2 = 1-z^2.
	area := poly.Poly{math.Pi, 0, -math.Pi}
	z := poly.Poly{0, 1}
	r2 := poly.Poly{1, 0, -1}
	xx := math.Pi / 4 * polyIntegral(r2.Mul(r2), za, zb)
	local := momentsFromIntegrals(
		xx, 0, 0,
		xx, 0,
		polyIntegral(area.Mul(z).Mul(z), za, zb),
		0, 0, polyIntegral(area.Mul(z), za, zb), polyIntegral(area, za, zb),
	)
	return l, local.Scale(math.Abs(l.LinearDet())), true
}

func (s *Sphere) transformInPlace(t Transform) bool {
	l := t.Mul(s.LocalToWorld)
	if _, ok := l.Inv(); !ok {
		return false
	}
	s.LocalToWorld = l
	return true
}
