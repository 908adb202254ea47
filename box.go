package solid

import (
	"math"

	"github.com/soypat/solid/curve"
	"github.com/soypat/solid/internal/d3"
	"gonum.org/v1/gonum/spatial/r3"
)

// Box is a six faced solid with parallel base and top rectangles. The
// base spans BaseX along VectorX and BaseY along VectorY from BaseOrigin,
// the top spans TopX and TopY from TopOrigin along the same directions.
type Box struct {
	BaseOrigin, TopOrigin r3.Vec
	VectorX, VectorY      r3.Vec
	BaseX, BaseY          float64
	TopX, TopY            float64
	capped                bool
}

// NewBox returns a box. VectorX and VectorY are normalized.
func NewBox(baseOrigin, topOrigin, vectorX, vectorY r3.Vec, baseX, baseY, topX, topY float64, capped bool) (*Box, error) {
	ux, okx := d3.SafeUnit(vectorX)
	uy, oky := d3.SafeUnit(vectorY)
	if !okx || !oky || d3.IsParallel(ux, uy, epsilon) {
		return nil, errMsg(ErrDegenerate, "box directions")
	}
	if d3.EqualWithin(baseOrigin, topOrigin, 0) {
		return nil, errMsg(ErrDegenerate, "box height")
	}
	return &Box{
		BaseOrigin: baseOrigin, TopOrigin: topOrigin,
		VectorX: ux, VectorY: uy,
		BaseX: baseX, BaseY: baseY, TopX: topX, TopY: topY,
		capped: capped,
	}, nil
}

// NewBoxFromCenterAndSize returns the axis aligned box of the given size
// centered at center.
func NewBoxFromCenterAndSize(center, size r3.Vec, capped bool) (*Box, error) {
	if size.X <= 0 || size.Y <= 0 || size.Z <= 0 {
		return nil, errMsg(ErrDegenerate, "box size must be positive")
	}
	base := r3.Sub(center, r3.Scale(0.5, size))
	top := r3.Add(base, r3.Vec{Z: size.Z})
	return NewBox(base, top, r3.Vec{X: 1}, r3.Vec{Y: 1}, size.X, size.Y, size.X, size.Y, capped)
}

// Kind returns KindBox.
func (b *Box) Kind() Kind { return KindBox }

// Capped reports whether caps are requested for the box.
func (b *Box) Capped() bool { return b.capped }

// SetCapped requests or removes the caps.
func (b *Box) SetCapped(capped bool) { b.capped = capped }

// IsClosedVolume reports whether the box bounds a volume.
func (b *Box) IsClosedVolume() bool { return b.capped }

func (b *Box) clone() Shape { c := *b; return &c }

// Corner returns corner i, numbered by bits x=1, y=2, top=4.
func (b *Box) Corner(i int) r3.Vec {
	origin, lx, ly := b.BaseOrigin, b.BaseX, b.BaseY
	if i&4 != 0 {
		origin, lx, ly = b.TopOrigin, b.TopX, b.TopY
	}
	var ax, ay float64
	if i&1 != 0 {
		ax = lx
	}
	if i&2 != 0 {
		ay = ly
	}
	return d3.SumScaled(origin, b.VectorX, ax, b.VectorY, ay)
}

// Corners returns all eight corners.
func (b *Box) Corners() (c [8]r3.Vec) {
	for i := range c {
		c[i] = b.Corner(i)
	}
	return c
}

// TryGetFrame returns the skewed frame taking the unit cube's base onto
// the box base and its top origin onto TopOrigin.
func (b *Box) TryGetFrame() (localToWorld, worldToLocal Transform, ok bool) {
	l := d3.FromColumns(
		r3.Scale(b.BaseX, b.VectorX),
		r3.Scale(b.BaseY, b.VectorY),
		r3.Sub(b.TopOrigin, b.BaseOrigin),
		b.BaseOrigin,
	)
	inv, ok := l.Inv()
	if !ok {
		return Transform{}, Transform{}, false
	}
	return l, inv, true
}

// isParallelepiped reports whether the top rectangle equals the base.
func (b *Box) isParallelepiped() bool {
	scale := math.Max(math.Abs(b.BaseX), math.Abs(b.BaseY))
	return math.Abs(b.TopX-b.BaseX) <= epsilon*scale && math.Abs(b.TopY-b.BaseY) <= epsilon*scale
}

// Range returns the world range of the box.
func (b *Box) Range() r3.Box {
	c := b.Corners()
	return r3.Box(d3.EmptyBox().Include(c[:]...))
}

// activeFace reports whether topology face f exists.
func (b *Box) activeFace(f int) bool { return f >= 2 || b.capped }

// Faces returns the indices of the active box faces.
func (b *Box) Faces() []FaceIndices {
	var faces []FaceIndices
	for f := 0; f < 6; f++ {
		if b.activeFace(f) {
			faces = append(faces, boxFaceIndices(f))
		}
	}
	return faces
}

// patch returns the bilinear coefficients of topology face f.
func (b *Box) patch(f int) (p00, e10, e01, e11 r3.Vec) {
	k := boxFaceCorners[f]
	return ruledPatch(b.Corner(k[0]), b.Corner(k[1]), b.Corner(k[3]), b.Corner(k[2]))
}

func evalPatch(p00, e10, e01, e11 r3.Vec, u, v float64) (x, du, dv r3.Vec) {
	x = r3.Add(d3.SumScaled(p00, e10, u, e01, v), r3.Scale(u*v, e11))
	du = r3.Add(e10, r3.Scale(v, e11))
	dv = r3.Add(e01, r3.Scale(u, e11))
	return x, du, dv
}

// TryUVFractionToXYZ returns the point of face at fractions u,v and
// its partial derivatives.
func (b *Box) TryUVFractionToXYZ(face FaceIndices, u, v float64) (xyz, dXdu, dXdv r3.Vec, ok bool) {
	f, ok := boxFaceFromIndices(face)
	if !ok || !b.activeFace(f) {
		return xyz, dXdu, dXdv, false
	}
	p00, e10, e01, e11 := b.patch(f)
	xyz, dXdu, dXdv = evalPatch(p00, e10, e01, e11, u, v)
	return xyz, dXdu, dXdv, true
}

// GetConstantUSection returns the curve of face at fixed u.
func (b *Box) GetConstantUSection(face FaceIndices, u float64) (*curve.Vector, bool) {
	p0, _, _, ok := b.TryUVFractionToXYZ(face, u, 0)
	if !ok {
		return nil, false
	}
	p1, _, _, _ := b.TryUVFractionToXYZ(face, u, 1)
	return curve.NewPath(curve.BoundaryOpen, &curve.Line{P0: p0, P1: p1}), true
}

// GetConstantVSection returns the curve of face at fixed v.
func (b *Box) GetConstantVSection(face FaceIndices, v float64) (*curve.Vector, bool) {
	p0, _, _, ok := b.TryUVFractionToXYZ(face, 0, v)
	if !ok {
		return nil, false
	}
	p1, _, _, _ := b.TryUVFractionToXYZ(face, 1, v)
	return curve.NewPath(curve.BoundaryOpen, &curve.Line{P0: p0, P1: p1}), true
}

// AddRayIntersections appends the hits of ray at or past minParameter,
// ordered by ray parameter.
// Side faces are bilinear patches and are solved as such.
func (b *Box) AddRayIntersections(dst []LocationDetail, ray Ray, parentID int, minParameter float64) []LocationDetail {
	n0 := len(dst)
	var hits [][3]float64
	for f := 0; f < 6; f++ {
		if !b.activeFace(f) {
			continue
		}
		p00, e10, e01, e11 := b.patch(f)
		hits = bilinearRayHits(hits[:0], ray, p00, e10, e01, e11)
		for _, h := range hits {
			if h[0] < minParameter {
				continue
			}
			dst = append(dst, rayHit(b, ray, h[0], boxFaceIndices(f), h[1], h[2], parentID))
		}
	}
	sortTail(dst, n0)
	return dst
}

// ClosestPoint returns the surface point nearest x, with Pick set to
// the squared distance.
func (b *Box) ClosestPoint(x r3.Vec) (LocationDetail, bool) {
	best := newClosest(x)
	for f := 0; f < 6; f++ {
		if !b.activeFace(f) {
			continue
		}
		p00, e10, e01, e11 := b.patch(f)
		surf := func(u, v float64) (r3.Vec, r3.Vec, r3.Vec) { return evalPatch(p00, e10, e01, e11, u, v) }
		u, v := faceClosest(surf, x, 4)
		if d, ok := detail(b, boxFaceIndices(f), u, v); ok {
			best.offer(d)
		}
	}
	// Edges are charged to their lower numbered face.
	for _, e := range boxEdges {
		f := e.faces[0]
		if !b.activeFace(f) {
			continue
		}
		c0, c1 := b.Corner(e.corners[0]), b.Corner(e.corners[1])
		s, _ := (&curve.Line{P0: c0, P1: c1}).Closest(x)
		uv0 := cornerUV[boxCornerSlot(f, e.corners[0])]
		uv1 := cornerUV[boxCornerSlot(f, e.corners[1])]
		u := uv0[0] + s*(uv1[0]-uv0[0])
		v := uv0[1] + s*(uv1[1]-uv0[1])
		if d, ok := detail(b, boxFaceIndices(f), u, v); ok {
			best.offer(d)
		}
	}
	return best.result()
}

// ComputeSecondMomentAreaProducts returns the area products of the
// surface and the frame they are expressed in.
func (b *Box) ComputeSecondMomentAreaProducts() (Transform, Moments, bool) {
	l, _, ok := b.TryGetFrame()
	if !ok {
		return Transform{}, Moments{}, false
	}
	var world Moments
	for f := 0; f < 6; f++ {
		if !b.activeFace(f) {
			continue
		}
		p00, e10, e01, e11 := b.patch(f)
		if d3.MaxAbs(e11) <= epsilon*(d3.MaxAbs(e10)+d3.MaxAbs(e01)) {
			// Parallelogram face.
			n := r3.Cross(e10, e01)
			area := r3.Norm(n)
			unitN, _ := d3.SafeUnit(n)
			world = world.Add(unitSquareMoments.Transformed(d3.FromColumns(e10, e01, unitN, p00)).Scale(area))
			continue
		}
		surf := func(u, v float64) (r3.Vec, r3.Vec, r3.Vec) { return evalPatch(p00, e10, e01, e11, u, v) }
		world = world.Add(faceAreaProducts(surf, 2, 2))
	}
	return momentsInFrame(l, world)
}

// ComputeSecondMomentVolumeProducts returns the volume products of the
// enclosed solid and the frame they are expressed in.
func (b *Box) ComputeSecondMomentVolumeProducts() (Transform, Moments, bool) {
	l, _, ok := b.TryGetFrame()
	if !ok || !b.IsClosedVolume() {
		return Transform{}, Moments{}, false
	}
	if b.isParallelepiped() {
		return l, unitCubeMoments.Scale(math.Abs(l.LinearDet())), true
	}
	// Trilinear map of the unit cube; the Jacobian is polynomial so a
	// fixed Gauss rule is exact.
	c := b.Corners()
	var world Moments
	for i, s := range gaussX5 {
		for j, t := range gaussX5 {
			for k, r := range gaussX5 {
				x, jac := trilinear(&c, s, t, r)
				w := gaussW5[i] * gaussW5[j] * gaussW5[k] * math.Abs(jac)
				world = world.Add(pointMoments(x, w))
			}
		}
	}
	return momentsInFrame(l, world)
}

// trilinear evaluates the trilinear map of the corners and its Jacobian
// determinant.
func trilinear(c *[8]r3.Vec, s, t, r float64) (x r3.Vec, jac float64) {
	w := func(i int, a, b, c float64) float64 {
		if i&1 == 0 {
			a = 1 - a
		}
		if i&2 == 0 {
			b = 1 - b
		}
		if i&4 == 0 {
			c = 1 - c
		}
		return a * b * c
	}
	var ds, dt, dr r3.Vec
	for i := 0; i < 8; i++ {
		x = r3.Add(x, r3.Scale(w(i, s, t, r), c[i]))
		sg := func(bit int) float64 {
			if i&bit != 0 {
				return 1
			}
			return -1
		}
		// Derivatives of the weights along each parameter.
		ws := sg(1) * w(i|1, 1, t, r)
		wt := sg(2) * w(i|2, s, 1, r)
		wr := sg(4) * w(i|4, s, t, 1)
		ds = r3.Add(ds, r3.Scale(ws, c[i]))
		dt = r3.Add(dt, r3.Scale(wt, c[i]))
		dr = r3.Add(dr, r3.Scale(wr, c[i]))
	}
	return x, r3.Dot(ds, r3.Cross(dt, dr))
}

func (b *Box) transformInPlace(t Transform) bool {
	ux, uy := t.Direction(b.VectorX), t.Direction(b.VectorY)
	sx, sy := r3.Norm(ux), r3.Norm(uy)
	if sx == 0 || sy == 0 {
		return false
	}
	b.BaseOrigin = t.Transform(b.BaseOrigin)
	b.TopOrigin = t.Transform(b.TopOrigin)
	b.VectorX, b.VectorY = r3.Scale(1/sx, ux), r3.Scale(1/sy, uy)
	b.BaseX, b.TopX = b.BaseX*sx, b.TopX*sx
	b.BaseY, b.TopY = b.BaseY*sy, b.TopY*sy
	return true
}

// planarCap returns the base or top rectangle as a planar region.
func (b *Box) planarCap(i int) (planarCap, bool) {
	if !b.capped || i < 0 || i > 1 {
		return planarCap{}, false
	}
	n, ok := d3.SafeUnit(r3.Cross(b.VectorX, b.VectorY))
	if !ok {
		return planarCap{}, false
	}
	origin, lx, ly := b.BaseOrigin, b.BaseX, b.BaseY
	if i == 1 {
		origin, lx, ly = b.TopOrigin, b.TopX, b.TopY
	}
	frame := d3.FromColumns(b.VectorX, b.VectorY, n, origin)
	region := curve.NewRectangle(r3.Vec{}, r3.Vec{X: lx}, r3.Vec{Y: ly})
	// Base uses (y,x) parameter order so its normal points down.
	return newPlanarCap(frame, region, i == 0), true
}
