package solid

import (
	"math"

	"github.com/soypat/solid/curve"
	"github.com/soypat/solid/internal/d3"
	"github.com/soypat/solid/internal/poly"
	"gonum.org/v1/gonum/spatial/r3"
)

// RuledSweep connects consecutive section curves with rule lines between
// points of equal fraction. Side faces are (0, pair, leaf).
type RuledSweep struct {
	SectionCurves []*curve.Vector
	capped        bool
}

// NewRuledSweep returns a ruled sweep through sections. All sections
// must have the same number of leaves.
func NewRuledSweep(sections []*curve.Vector, capped bool) (*RuledSweep, error) {
	if len(sections) == 0 {
		return nil, errMsg(ErrNilCurve, "ruled sweep sections")
	}
	n := -1
	for _, s := range sections {
		if s == nil || s.LeafCount() == 0 {
			return nil, errMsg(ErrNilCurve, "ruled sweep section")
		}
		if n >= 0 && s.LeafCount() != n {
			return nil, errMsg(ErrDegenerate, "sections have different leaf counts")
		}
		n = s.LeafCount()
	}
	rs := &RuledSweep{SectionCurves: sections, capped: capped}
	if capped && len(sections) > 1 && !rs.hasCaps() {
		return nil, errMsg(ErrNotRegion, "capped ruled sweep")
	}
	return rs, nil
}

// Kind returns KindRuledSweep.
func (rs *RuledSweep) Kind() Kind { return KindRuledSweep }

// Capped reports whether caps are requested for the ruled sweep.
func (rs *RuledSweep) Capped() bool { return rs.capped }

// SetCapped requests or removes the caps.
func (rs *RuledSweep) SetCapped(capped bool) { rs.capped = capped }

// IsClosedVolume reports whether the ruled sweep bounds a volume.
func (rs *RuledSweep) IsClosedVolume() bool { return rs.hasCaps() }

func (rs *RuledSweep) clone() Shape {
	c := &RuledSweep{capped: rs.capped}
	for _, s := range rs.SectionCurves {
		c.SectionCurves = append(c.SectionCurves, s.Clone())
	}
	return c
}

func (rs *RuledSweep) hasCaps() bool {
	if !rs.capped || len(rs.SectionCurves) < 2 {
		return false
	}
	first, last := rs.SectionCurves[0], rs.SectionCurves[len(rs.SectionCurves)-1]
	if !first.IsRegion() || !last.IsRegion() {
		return false
	}
	_, ok0 := first.PlanarFrame(simplifyTol)
	_, ok1 := last.PlanarFrame(simplifyTol)
	return ok0 && ok1
}

// sectionCenter returns the center of a section's range.
func sectionCenter(cv *curve.Vector) r3.Vec { return d3.Box(cv.Bounds()).Center() }

// sectionFrame returns the planar frame of end section i oriented for
// its cap.
func (rs *RuledSweep) sectionFrame(i int) (Transform, bool) {
	n := len(rs.SectionCurves)
	if n < 2 {
		return Transform{}, false
	}
	f, ok := rs.SectionCurves[i].PlanarFrame(simplifyTol)
	if !ok {
		return Transform{}, false
	}
	neighbor := 1
	if i == n-1 {
		neighbor = n - 2
	}
	dir := r3.Sub(sectionCenter(rs.SectionCurves[neighbor]), sectionCenter(rs.SectionCurves[i]))
	x, y, z, o := f.Columns()
	// The first frame's z points into the sweep since cap 0 is reversed;
	// the last frame's z points out of it.
	if (r3.Dot(z, dir) > 0) != (i == 0) {
		f = d3.FromColumns(y, x, r3.Scale(-1, z), o)
	}
	return f, true
}

func (rs *RuledSweep) planarCap(i int) (planarCap, bool) {
	if (i != 0 && i != 1) || !rs.hasCaps() {
		return planarCap{}, false
	}
	k := 0
	if i == 1 {
		k = len(rs.SectionCurves) - 1
	}
	f, ok := rs.sectionFrame(k)
	if !ok {
		return planarCap{}, false
	}
	inv, ok := f.Inv()
	if !ok {
		return planarCap{}, false
	}
	return newPlanarCap(f, rs.SectionCurves[k].CloneTransformed(inv), i == 0), true
}

// TryGetFrame returns a rigid frame on the first section with z toward
// the second.
func (rs *RuledSweep) TryGetFrame() (localToWorld, worldToLocal Transform, ok bool) {
	var l Transform
	n := len(rs.SectionCurves)
	if f, planar := rs.SectionCurves[0].PlanarFrame(simplifyTol); planar {
		l = f
		if n > 1 {
			x, y, z, o := f.Columns()
			if r3.Dot(z, r3.Sub(sectionCenter(rs.SectionCurves[1]), sectionCenter(rs.SectionCurves[0]))) < 0 {
				l = d3.FromColumns(y, x, r3.Scale(-1, z), o)
			}
		}
	} else {
		start, _, ok := rs.SectionCurves[0].StartEnd()
		if !ok {
			return Transform{}, Transform{}, false
		}
		dir := r3.Vec{Z: 1}
		if n > 1 {
			dir = r3.Sub(sectionCenter(rs.SectionCurves[n-1]), sectionCenter(rs.SectionCurves[0]))
		}
		x, y, z, _ := d3.FrameFromZ(dir)
		l = d3.FromColumns(x, y, z, start)
	}
	inv, ok := l.Inv()
	if !ok {
		return Transform{}, Transform{}, false
	}
	return l, inv, true
}

// Range returns the world range of the ruled sweep.
func (rs *RuledSweep) Range() r3.Box {
	b := d3.EmptyBox()
	for _, s := range rs.SectionCurves {
		b = b.Extend(d3.Box(s.Bounds()))
	}
	return r3.Box(b)
}

// Faces returns the indices of every face, caps last.
func (rs *RuledSweep) Faces() []FaceIndices {
	var faces []FaceIndices
	for i := 0; i+1 < len(rs.SectionCurves); i++ {
		for j := 0; j < rs.SectionCurves[i].LeafCount(); j++ {
			faces = append(faces, SideFace(i, j))
		}
	}
	if rs.hasCaps() {
		faces = append(faces, CapFace(0), CapFace(1))
	}
	return faces
}

// leafPair resolves a side face to its two bounding leaves.
func (rs *RuledSweep) leafPair(face FaceIndices) (a, b curve.Primitive) {
	i := face.Index1
	if face.Index0 != 0 || i < 0 || i+1 >= len(rs.SectionCurves) {
		return nil, nil
	}
	a = rs.SectionCurves[i].FindIndexedLeaf(face.Index2)
	b = rs.SectionCurves[i+1].FindIndexedLeaf(face.Index2)
	if a == nil || b == nil {
		return nil, nil
	}
	return a, b
}

// TryUVFractionToXYZ returns the point of face at fractions u,v and
// its partial derivatives.
func (rs *RuledSweep) TryUVFractionToXYZ(face FaceIndices, u, v float64) (xyz, dXdu, dXdv r3.Vec, ok bool) {
	if face.IsCap() {
		pc, ok := rs.planarCap(face.CapIndex())
		if !ok || face.Index2 != 0 {
			return xyz, dXdu, dXdv, false
		}
		xyz, dXdu, dXdv = pc.evaluate(u, v)
		return xyz, dXdu, dXdv, true
	}
	a, b := rs.leafPair(face)
	if a == nil {
		return xyz, dXdu, dXdv, false
	}
	pa, da := a.Evaluate(u)
	pb, db := b.Evaluate(u)
	return d3.Lerp(pa, pb, v), d3.Lerp(da, db, v), r3.Sub(pb, pa), true
}

// GetConstantUSection returns the curve of face at fixed u.
func (rs *RuledSweep) GetConstantUSection(face FaceIndices, u float64) (*curve.Vector, bool) {
	if face.IsCap() {
		pc, ok := rs.planarCap(face.CapIndex())
		if !ok {
			return nil, false
		}
		return pc.section(u, true)
	}
	a, b := rs.leafPair(face)
	if a == nil {
		return nil, false
	}
	return curve.NewPath(curve.BoundaryOpen, &curve.Line{P0: curve.Point(a, u), P1: curve.Point(b, u)}), true
}

// GetConstantVSection returns the curve of face at fixed v.
func (rs *RuledSweep) GetConstantVSection(face FaceIndices, v float64) (*curve.Vector, bool) {
	if face.IsCap() {
		pc, ok := rs.planarCap(face.CapIndex())
		if !ok {
			return nil, false
		}
		return pc.section(v, false)
	}
	a, b := rs.leafPair(face)
	if a == nil {
		return nil, false
	}
	p, ok := lerpPrimitive(a, b, v)
	if !ok {
		return nil, false
	}
	return curve.NewPath(curve.BoundaryOpen, p), true
}

// lerpPrimitive returns the primitive at v between two structurally equal
// primitives.
func lerpPrimitive(a, b curve.Primitive, v float64) (curve.Primitive, bool) {
	switch ca := a.(type) {
	case *curve.Line:
		cb, ok := b.(*curve.Line)
		if !ok {
			return nil, false
		}
		return &curve.Line{P0: d3.Lerp(ca.P0, cb.P0, v), P1: d3.Lerp(ca.P1, cb.P1, v)}, true
	case *curve.LineString:
		cb, ok := b.(*curve.LineString)
		if !ok || len(ca.Points) != len(cb.Points) {
			return nil, false
		}
		pts := make([]r3.Vec, len(ca.Points))
		for i := range pts {
			pts[i] = d3.Lerp(ca.Points[i], cb.Points[i], v)
		}
		return &curve.LineString{Points: pts}, true
	case *curve.Arc:
		cb, ok := b.(*curve.Arc)
		if !ok || math.Abs(ca.Sweep-cb.Sweep) > epsilon {
			return nil, false
		}
		b0, b90 := shiftedArcVectors(cb, ca.Start)
		return &curve.Arc{
			Center:   d3.Lerp(ca.Center, cb.Center, v),
			Vector0:  d3.Lerp(ca.Vector0, b0, v),
			Vector90: d3.Lerp(ca.Vector90, b90, v),
			Start:    ca.Start,
			Sweep:    ca.Sweep,
		}, true
	case *curve.BSpline:
		cb, ok := b.(*curve.BSpline)
		if !ok || ca.Order != cb.Order || len(ca.Poles) != len(cb.Poles) || len(ca.Knots) != len(cb.Knots) {
			return nil, false
		}
		for i := range ca.Knots {
			if ca.Knots[i] != cb.Knots[i] {
				return nil, false
			}
		}
		poles := make([]r3.Vec, len(ca.Poles))
		for i := range poles {
			poles[i] = d3.Lerp(ca.Poles[i], cb.Poles[i], v)
		}
		return &curve.BSpline{Order: ca.Order, Poles: poles, Knots: ca.Knots}, true
	}
	return nil, false
}

// shiftedArcVectors returns the vectors of b rewritten so that b's
// fraction f sits at angle start + f*sweep.
func shiftedArcVectors(b *curve.Arc, start float64) (v0, v90 r3.Vec) {
	s, c := math.Sincos(b.Start - start)
	v0 = d3.SumScaled(r3.Vec{}, b.Vector0, c, b.Vector90, s)
	v90 = d3.SumScaled(r3.Vec{}, b.Vector0, -s, b.Vector90, c)
	return v0, v90
}

// ruledRayRoots returns the leaf fractions whose rule line is coplanar
// with the ray: (d x (B-A)) . (A-o) = 0.
func ruledRayRoots(a, b curve.Primitive, ray Ray) []float64 {
	o, d := ray.Origin, ray.Direction
	if ca, ok := a.(*curve.Arc); ok {
		if cb, ok := b.(*curve.Arc); ok && math.Abs(ca.Sweep-cb.Sweep) <= epsilon {
			b0, b90 := shiftedArcVectors(cb, ca.Start)
			ax, ay, az := ca.Trig()
			bx := poly.TrigLinear(cb.Center.X, b0.X, b90.X)
			by := poly.TrigLinear(cb.Center.Y, b0.Y, b90.Y)
			bz := poly.TrigLinear(cb.Center.Z, b0.Z, b90.Z)
			ex, ey, ez := bx.Sub(ax), by.Sub(ay), bz.Sub(az)
			// n = d x e
			nx := ez.Scale(d.Y).Sub(ey.Scale(d.Z))
			ny := ex.Scale(d.Z).Sub(ez.Scale(d.X))
			nz := ey.Scale(d.X).Sub(ex.Scale(d.Y))
			wx := ax.Sub(poly.TrigConst(o.X))
			wy := ay.Sub(poly.TrigConst(o.Y))
			wz := az.Sub(poly.TrigConst(o.Z))
			f := nx.Mul(wx).Add(ny.Mul(wy)).Add(nz.Mul(wz))
			return ca.AngleRootFractions(f.AngleRoots(1e-14 * (1 + f.Num.MaxAbs())))
		}
	}
	if roots, ok := ruledPieceRoots(a, b, o, d); ok {
		return roots
	}
	g := func(f float64) float64 {
		pa, pb := curve.Point(a, f), curve.Point(b, f)
		return r3.Dot(r3.Cross(d, r3.Sub(pb, pa)), r3.Sub(pa, o))
	}
	n := curve.StrokeCount(a, math.Pi/32, 0, 32)
	if m := curve.StrokeCount(b, math.Pi/32, 0, 32); m > n {
		n = m
	}
	return poly.Bracket(g, 0, 1, n)
}

// ruledPieceRoots solves the coplanarity condition exactly when both
// sections are piecewise polynomial, one piece pair at a time.
func ruledPieceRoots(a, b curve.Primitive, o, d r3.Vec) ([]float64, bool) {
	ba, da, ok := curve.Breaks(a)
	if !ok {
		return nil, false
	}
	bb, db, ok := curve.Breaks(b)
	if !ok {
		return nil, false
	}
	breaks := curve.MergeBreaks(ba, bb)
	deg := max(da, db)
	pa, pb := curve.Pieces(a, breaks, deg), curve.Pieces(b, breaks, deg)
	if len(pa) != len(pb) {
		return nil, false
	}
	var out []float64
	for i := range pa {
		A, B := pa[i], pb[i]
		ex, ey, ez := B.X.Add(A.X.Scale(-1)), B.Y.Add(A.Y.Scale(-1)), B.Z.Add(A.Z.Scale(-1))
		// n = d x e
		nx := ez.Scale(d.Y).Add(ey.Scale(-d.Z))
		ny := ex.Scale(d.Z).Add(ez.Scale(-d.X))
		nz := ey.Scale(d.X).Add(ex.Scale(-d.Y))
		wx, wy, wz := A.X.Add(poly.Poly{-o.X}), A.Y.Add(poly.Poly{-o.Y}), A.Z.Add(poly.Poly{-o.Z})
		g := nx.Mul(wx).Add(ny.Mul(wy)).Add(nz.Mul(wz))
		out = append(out, curve.SolvePieces([]curve.Piece{A}, func(curve.Piece) poly.Poly { return g })...)
	}
	return dedupeFractions(out), true
}

// AddRayIntersections appends the hits of ray at or past minParameter,
// ordered by ray parameter.
func (rs *RuledSweep) AddRayIntersections(dst []LocationDetail, ray Ray, parentID int, minParameter float64) []LocationDetail {
	n0 := len(dst)
	var hits [][3]float64
	for _, face := range rs.Faces() {
		if face.IsCap() {
			continue
		}
		a, b := rs.leafPair(face)
		hits = hits[:0]
		switch ca := a.(type) {
		case *curve.Line:
			if cb, ok := b.(*curve.Line); ok {
				p00, e10, e01, e11 := ruledPatch(ca.P0, ca.P1, cb.P0, cb.P1)
				hits = bilinearRayHits(hits, ray, p00, e10, e01, e11)
				break
			}
			hits = rs.ruledHits(hits, a, b, ray)
		case *curve.LineString:
			cb, ok := b.(*curve.LineString)
			if !ok || len(cb.Points) != len(ca.Points) {
				hits = rs.ruledHits(hits, a, b, ray)
				break
			}
			n := ca.Segments()
			for i := 0; i < n; i++ {
				p00, e10, e01, e11 := ruledPatch(ca.Points[i], ca.Points[i+1], cb.Points[i], cb.Points[i+1])
				seg := bilinearRayHits(nil, ray, p00, e10, e01, e11)
				for _, h := range seg {
					hits = append(hits, [3]float64{h[0], (float64(i) + h[1]) / float64(n), h[2]})
				}
			}
		default:
			hits = rs.ruledHits(hits, a, b, ray)
		}
		for _, h := range hits {
			if h[0] >= minParameter {
				dst = append(dst, rayHit(rs, ray, h[0], face, h[1], h[2], parentID))
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

// ruledHits intersects the ray with the rule lines at the coplanarity roots.
func (rs *RuledSweep) ruledHits(dst [][3]float64, a, b curve.Primitive, ray Ray) [][3]float64 {
	for _, f := range ruledRayRoots(a, b, ray) {
		pa, pb := curve.Point(a, f), curve.Point(b, f)
		t, s, ok := lineLineParams(ray.Origin, ray.Direction, pa, r3.Sub(pb, pa))
		if !ok || !in01(s, uvTol) {
			continue
		}
		dst = append(dst, [3]float64{t, f, clamp01(s)})
	}
	return dst
}

// ClosestPoint returns the surface point nearest x, with Pick set to
// the squared distance.
// Side faces are projected iteratively.
func (rs *RuledSweep) ClosestPoint(x r3.Vec) (LocationDetail, bool) {
	best := newClosest(x)
	for _, face := range rs.Faces() {
		if face.IsCap() {
			continue
		}
		u, v := faceClosest(faceSurface(rs, face), x, 8)
		if d, ok := detail(rs, face, u, v); ok {
			best.offer(d)
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

// ComputeSecondMomentAreaProducts returns the area products of the
// surface and the frame they are expressed in.
func (rs *RuledSweep) ComputeSecondMomentAreaProducts() (Transform, Moments, bool) {
	l, _, ok := rs.TryGetFrame()
	if !ok {
		return Transform{}, Moments{}, false
	}
	var world Moments
	for _, face := range rs.Faces() {
		if face.IsCap() {
			continue
		}
		a, _ := rs.leafPair(face)
		nu := curve.StrokeCount(a, math.Pi/4, 0, 1)
		world = world.Add(faceAreaProducts(faceSurface(rs, face), nu, 2))
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

// ComputeSecondMomentVolumeProducts is not available for ruled sweeps
// and always returns false.
func (rs *RuledSweep) ComputeSecondMomentVolumeProducts() (Transform, Moments, bool) {
	return Transform{}, Moments{}, false
}

func (rs *RuledSweep) transformInPlace(t Transform) bool {
	if _, ok := t.Inv(); !ok || math.Abs(t.LinearDet()) <= epsilon {
		return false
	}
	for i, s := range rs.SectionCurves {
		rs.SectionCurves[i] = s.CloneTransformed(t)
	}
	return true
}
