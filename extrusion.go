package solid

import (
	"math"

	"github.com/soypat/solid/curve"
	"github.com/soypat/solid/internal/d3"
	"gonum.org/v1/gonum/spatial/r3"
)

// Extrusion sweeps BaseCurve along ExtrusionVector. Side faces are
// numbered by the leaf ordinal of the base curve.
type Extrusion struct {
	BaseCurve       *curve.Vector
	ExtrusionVector r3.Vec
	capped          bool
}

// NewExtrusion returns the extrusion of base along v. A capped
// extrusion needs a planar region as base curve.
func NewExtrusion(base *curve.Vector, v r3.Vec, capped bool) (*Extrusion, error) {
	if base == nil || base.LeafCount() == 0 {
		return nil, errMsg(ErrNilCurve, "extrusion base")
	}
	if r3.Norm(v) == 0 {
		return nil, errMsg(ErrDegenerate, "extrusion vector")
	}
	e := &Extrusion{BaseCurve: base, ExtrusionVector: v, capped: capped}
	if capped {
		if _, ok := e.capFrame(); !ok || !base.IsRegion() {
			return nil, errMsg(ErrNotRegion, "capped extrusion")
		}
	}
	return e, nil
}

// Kind returns KindExtrusion.
func (e *Extrusion) Kind() Kind { return KindExtrusion }

// Capped reports whether caps are requested for the extrusion.
func (e *Extrusion) Capped() bool { return e.capped }

// SetCapped requests or removes the caps.
func (e *Extrusion) SetCapped(capped bool) { e.capped = capped }

// IsClosedVolume reports whether the extrusion bounds a volume.
func (e *Extrusion) IsClosedVolume() bool {
	_, planar := e.capFrame()
	return e.capped && planar && e.BaseCurve.IsRegion()
}

func (e *Extrusion) clone() Shape {
	return &Extrusion{BaseCurve: e.BaseCurve.Clone(), ExtrusionVector: e.ExtrusionVector, capped: e.capped}
}

// capFrame returns the rigid frame of the base plane with z on the
// extrusion side.
func (e *Extrusion) capFrame() (Transform, bool) {
	if e.BaseCurve == nil {
		return Transform{}, false
	}
	f, ok := e.BaseCurve.PlanarFrame(simplifyTol)
	if !ok {
		return Transform{}, false
	}
	x, y, z, o := f.Columns()
	dz := r3.Dot(z, e.ExtrusionVector)
	if math.Abs(dz) <= epsilon*r3.Norm(e.ExtrusionVector) {
		// Extrusion in the profile plane sweeps no volume.
		return Transform{}, false
	}
	if dz < 0 {
		f = d3.FromColumns(y, x, r3.Scale(-1, z), o)
	}
	return f, true
}

// TryGetFrame returns the skewed frame whose xy plane holds the base
// curve and whose z column is the extrusion vector.
func (e *Extrusion) TryGetFrame() (localToWorld, worldToLocal Transform, ok bool) {
	var l Transform
	if f, planar := e.capFrame(); planar {
		x, y, _, o := f.Columns()
		l = d3.FromColumns(x, y, e.ExtrusionVector, o)
	} else {
		start, _, ok := e.BaseCurve.StartEnd()
		if !ok {
			return Transform{}, Transform{}, false
		}
		x, y, _, _ := d3.FrameFromZ(e.ExtrusionVector)
		l = d3.FromColumns(x, y, e.ExtrusionVector, start)
	}
	inv, ok := l.Inv()
	if !ok {
		return Transform{}, Transform{}, false
	}
	return l, inv, true
}

func (e *Extrusion) hasCaps() bool { return e.IsClosedVolume() }

func (e *Extrusion) planarCap(i int) (planarCap, bool) {
	if (i != 0 && i != 1) || !e.hasCaps() {
		return planarCap{}, false
	}
	f, _ := e.capFrame()
	inv, ok := f.Inv()
	if !ok {
		return planarCap{}, false
	}
	region := e.BaseCurve.CloneTransformed(inv)
	if i == 1 {
		f = d3.Translation(e.ExtrusionVector).Mul(f)
	}
	return newPlanarCap(f, region, i == 0), true
}

// Range returns the world range of the extrusion.
func (e *Extrusion) Range() r3.Box {
	b := d3.Box(e.BaseCurve.Bounds())
	top := r3.Box{Min: r3.Add(b.Min, e.ExtrusionVector), Max: r3.Add(b.Max, e.ExtrusionVector)}
	return r3.Box(b.Extend(d3.Box(top)))
}

// Faces returns the indices of every face, caps last.
func (e *Extrusion) Faces() []FaceIndices {
	var faces []FaceIndices
	for i := 0; i < e.BaseCurve.LeafCount(); i++ {
		faces = append(faces, SideFace(0, i))
	}
	if e.hasCaps() {
		faces = append(faces, CapFace(0), CapFace(1))
	}
	return faces
}

// leaf resolves a side face to its base curve leaf.
func (e *Extrusion) leaf(face FaceIndices) curve.Primitive {
	if face.Index0 != 0 || face.Index1 != 0 {
		return nil
	}
	return e.BaseCurve.FindIndexedLeaf(face.Index2)
}

// TryUVFractionToXYZ returns the point of face at fractions u,v and
// its partial derivatives.
func (e *Extrusion) TryUVFractionToXYZ(face FaceIndices, u, v float64) (xyz, dXdu, dXdv r3.Vec, ok bool) {
	if face.IsCap() {
		pc, ok := e.planarCap(face.CapIndex())
		if !ok || face.Index2 != 0 {
			return xyz, dXdu, dXdv, false
		}
		xyz, dXdu, dXdv = pc.evaluate(u, v)
		return xyz, dXdu, dXdv, true
	}
	leaf := e.leaf(face)
	if leaf == nil {
		return xyz, dXdu, dXdv, false
	}
	p, d := leaf.Evaluate(u)
	return r3.Add(p, r3.Scale(v, e.ExtrusionVector)), d, e.ExtrusionVector, true
}

// GetConstantUSection returns the curve of face at fixed u.
func (e *Extrusion) GetConstantUSection(face FaceIndices, u float64) (*curve.Vector, bool) {
	if face.IsCap() {
		pc, ok := e.planarCap(face.CapIndex())
		if !ok {
			return nil, false
		}
		return pc.section(u, true)
	}
	leaf := e.leaf(face)
	if leaf == nil {
		return nil, false
	}
	p := curve.Point(leaf, u)
	return curve.NewPath(curve.BoundaryOpen, &curve.Line{P0: p, P1: r3.Add(p, e.ExtrusionVector)}), true
}

// GetConstantVSection returns the curve of face at fixed v.
func (e *Extrusion) GetConstantVSection(face FaceIndices, v float64) (*curve.Vector, bool) {
	if face.IsCap() {
		pc, ok := e.planarCap(face.CapIndex())
		if !ok {
			return nil, false
		}
		return pc.section(v, false)
	}
	leaf := e.leaf(face)
	if leaf == nil {
		return nil, false
	}
	return curve.NewPath(curve.BoundaryOpen, leaf.Transformed(d3.Translation(r3.Scale(v, e.ExtrusionVector)))), true
}

// lineLineParams solves p + s*e = o + t*d for t and s in the least
// squares sense.
func lineLineParams(o, d, p, e r3.Vec) (t, s float64, ok bool) {
	w := r3.Sub(p, o)
	a, b, c := r3.Dot(d, d), -r3.Dot(d, e), r3.Dot(e, e)
	r0, r1 := r3.Dot(d, w), -r3.Dot(e, w)
	det := a*c - b*b
	if math.Abs(det) <= 1e-14*a*c {
		return 0, 0, false
	}
	t = (r0*c - b*r1) / det
	s = (a*r1 - b*r0) / det
	return t, s, true
}

// AddRayIntersections appends the hits of ray at or past minParameter,
// ordered by ray parameter.
func (e *Extrusion) AddRayIntersections(dst []LocationDetail, ray Ray, parentID int, minParameter float64) []LocationDetail {
	n0 := len(dst)
	normal := r3.Cross(ray.Direction, e.ExtrusionVector)
	if r3.Norm(normal) > 1e-14*r3.Norm(ray.Direction)*r3.Norm(e.ExtrusionVector) {
		for _, loc := range e.BaseCurve.AppendPlaneIntersections(nil, ray.Origin, normal) {
			t, s, ok := lineLineParams(ray.Origin, ray.Direction, loc.Point, e.ExtrusionVector)
			if !ok || t < minParameter || !in01(s, uvTol) {
				continue
			}
			dst = append(dst, rayHit(e, ray, t, SideFace(0, loc.Leaf), loc.Fraction, clamp01(s), parentID))
		}
	}
	for i := 0; i < 2; i++ {
		if pc, ok := e.planarCap(i); ok {
			dst = pc.addRayHits(dst, ray, CapFace(i), parentID, minParameter)
		}
	}
	sortTail(dst, n0)
	return dst
}

// projectionAlong returns the transform projecting points along dir onto
// the plane through the origin perpendicular to dir.
func projectionAlong(dir r3.Vec) Transform {
	n, _ := d3.SafeUnit(dir)
	return d3.NewTransform([]float64{
		1 - n.X*n.X, -n.X * n.Y, -n.X * n.Z, 0,
		-n.Y * n.X, 1 - n.Y*n.Y, -n.Y * n.Z, 0,
		-n.Z * n.X, -n.Z * n.Y, 1 - n.Z*n.Z, 0,
		0, 0, 0, 1,
	})
}

// ClosestPoint returns the surface point nearest x, with Pick set to
// the squared distance.
func (e *Extrusion) ClosestPoint(x r3.Vec) (LocationDetail, bool) {
	best := newClosest(x)
	proj := projectionAlong(e.ExtrusionVector)
	ee := r3.Dot(e.ExtrusionVector, e.ExtrusionVector)
	for i, leaf := range e.BaseCurve.Leaves() {
		// Start from the closest point of the unbounded cylinder, then
		// alternate between the sweep and the curve parameter.
		u, _ := leaf.Transformed(proj).Closest(proj.Transform(x))
		var v float64
		for iter := 0; iter < 16; iter++ {
			p := curve.Point(leaf, u)
			nv := clamp01(r3.Dot(r3.Sub(x, p), e.ExtrusionVector) / ee)
			nu, _ := leaf.Closest(r3.Sub(x, r3.Scale(nv, e.ExtrusionVector)))
			if math.Abs(nu-u)+math.Abs(nv-v) < 1e-13 {
				u, v = nu, nv
				break
			}
			u, v = nu, nv
		}
		if d, ok := detail(e, SideFace(0, i), u, v); ok {
			best.offer(d)
		}
	}
	for i := 0; i < 2; i++ {
		if pc, ok := e.planarCap(i); ok {
			if d, ok := pc.closestPoint(x, CapFace(i)); ok {
				best.offer(d)
			}
		}
	}
	return best.result()
}

// ComputeSecondMomentVolumeProducts returns the volume products of the
// enclosed solid and the frame they are expressed in.
func (e *Extrusion) ComputeSecondMomentVolumeProducts() (Transform, Moments, bool) {
	if !e.IsClosedVolume() {
		return Transform{}, Moments{}, false
	}
	l, _, ok := e.TryGetFrame()
	if !ok {
		return Transform{}, Moments{}, false
	}
	f, _ := e.capFrame()
	inv, _ := f.Inv()
	m, ok := e.BaseCurve.CloneTransformed(inv).AreaMoments(2)
	if !ok {
		return Transform{}, Moments{}, false
	}
	// Local coordinates (x, y, t) with the region in xy and t in [0,1].
	local := momentsFromIntegrals(
		m[2][0], m[1][1], m[1][0]/2,
		m[0][2], m[0][1]/2,
		m[0][0]/3,
		m[1][0], m[0][1], m[0][0]/2, m[0][0],
	)
	return l, local.Scale(math.Abs(l.LinearDet())), true
}

// ComputeSecondMomentAreaProducts returns the area products of the
// surface and the frame they are expressed in.
func (e *Extrusion) ComputeSecondMomentAreaProducts() (Transform, Moments, bool) {
	l, _, ok := e.TryGetFrame()
	if !ok {
		return Transform{}, Moments{}, false
	}
	var world Moments
	for i, leaf := range e.BaseCurve.Leaves() {
		nu := curve.StrokeCount(leaf, math.Pi/4, 0, 1)
		world = world.Add(faceAreaProducts(faceSurface(e, SideFace(0, i)), nu, 1))
	}
	for i := 0; i < 2; i++ {
		if pc, ok := e.planarCap(i); ok {
			m, ok := pc.areaProducts()
			if !ok {
				return Transform{}, Moments{}, false
			}
			world = world.Add(m)
		}
	}
	return momentsInFrame(l, world)
}

func (e *Extrusion) transformInPlace(t Transform) bool {
	v := t.Direction(e.ExtrusionVector)
	if r3.Norm(v) == 0 {
		return false
	}
	e.BaseCurve = e.BaseCurve.CloneTransformed(t)
	e.ExtrusionVector = v
	return true
}
