package solid

import (
	"math"
	"sort"

	"github.com/soypat/solid/curve"
	"github.com/soypat/solid/internal/d3"
	"github.com/soypat/solid/internal/poly"
	"gonum.org/v1/gonum/spatial/r3"
)

// Stroking parameters for curves without a closed form intersection.
const (
	curveAngleTol   = math.Pi / 36
	curveMinStrokes = 8
	curveRefineIter = 24
)

// AddCurveIntersections appends the intersections of every leaf of cv
// with the shape. curvePts and solidPts grow in lockstep: entry i of one
// is the same point as entry i of the other.
func AddCurveIntersections(s Shape, cv *curve.Vector, curvePts []curve.Location, solidPts []LocationDetail, parentID int) ([]curve.Location, []LocationDetail) {
	for i, leaf := range cv.Leaves() {
		n := len(curvePts)
		curvePts, solidPts = AddCurvePrimitiveIntersections(s, leaf, curvePts, solidPts, parentID)
		for j := n; j < len(curvePts); j++ {
			curvePts[j].Leaf = i
		}
	}
	return curvePts, solidPts
}

// AddCurvePrimitiveIntersections appends the intersections of a single
// curve primitive with the shape, ordered by curve fraction. Curves lying
// on the surface over an interval report no points.
func AddCurvePrimitiveIntersections(s Shape, p curve.Primitive, curvePts []curve.Location, solidPts []LocationDetail, parentID int) ([]curve.Location, []LocationDetail) {
	var hits []curveHit
	switch c := p.(type) {
	case *curve.Line:
		hits = segmentHits(hits, s, c.P0, c.P1, 0, 1, parentID)
	case *curve.LineString:
		n := c.Segments()
		for i := 0; i < n; i++ {
			f0, f1 := float64(i)/float64(n), float64(i+1)/float64(n)
			hits = segmentHits(hits, s, c.Points[i], c.Points[i+1], f0, f1, parentID)
		}
	case *curve.Arc:
		var ok bool
		hits, ok = arcHits(hits, s, c, parentID)
		if !ok {
			hits = strokedHits(hits, s, p, parentID)
		}
	default:
		hits = strokedHits(hits, s, p, parentID)
	}
	hits = dedupeHits(hits, curveTol(s))
	for _, h := range hits {
		curvePts = append(curvePts, curve.Location{Primitive: p, Fraction: h.f, Point: curve.Point(p, h.f)})
		solidPts = append(solidPts, h.d)
	}
	return curvePts, solidPts
}

type curveHit struct {
	f float64
	d LocationDetail
}

// curveTol scales the acceptance distance with the shape's size.
func curveTol(s Shape) float64 {
	return 1e-9 * (1 + d3.Box(s.Range()).Diagonal())
}

// segmentHits intersects the segment a..b, which spans curve fractions
// f0..f1, through the shape's ray intersector.
func segmentHits(dst []curveHit, s Shape, a, b r3.Vec, f0, f1 float64, parentID int) []curveHit {
	ray := Ray{Origin: a, Direction: r3.Sub(b, a)}
	for _, d := range s.AddRayIntersections(nil, ray, parentID, -uvTol) {
		if d.Pick > 1+uvTol {
			break
		}
		f := f0 + clamp01(d.Pick)*(f1-f0)
		d.Pick = f
		dst = append(dst, curveHit{f: f, d: d})
	}
	return dst
}

// arcHits solves arc intersections in closed form for shapes with an
// implicit equation. ok is false when the shape has none.
func arcHits(dst []curveHit, s Shape, a *curve.Arc, parentID int) (_ []curveHit, ok bool) {
	var worldToLocal Transform
	var implicit func(x, y, z poly.Trig) poly.Trig
	var implicits []func(x, y, z poly.Trig) poly.Trig
	zeroTol := epsilon
	switch sh := s.(type) {
	case *Sphere:
		var frameOK bool
		_, worldToLocal, frameOK = sh.TryGetFrame()
		if !frameOK {
			return dst, false
		}
		implicit = func(x, y, z poly.Trig) poly.Trig {
			return x.Mul(x).Add(y.Mul(y)).Add(z.Mul(z)).Sub(poly.TrigConst(1))
		}
	case *Cone:
		var frameOK bool
		_, worldToLocal, frameOK = sh.TryGetFrame()
		if !frameOK {
			return dst, false
		}
		ra, dr := sh.RadiusA, sh.RadiusB-sh.RadiusA
		implicit = func(x, y, z poly.Trig) poly.Trig {
			r := z.Scale(dr).Add(poly.TrigConst(ra))
			return x.Mul(x).Add(y.Mul(y)).Sub(r.Mul(r))
		}
	case *TorusPipe:
		l, _, frameOK := sh.frame()
		if !frameOK {
			return dst, false
		}
		worldToLocal, frameOK = l.Inv()
		if !frameOK {
			return dst, false
		}
		R, r := sh.MajorRadius, sh.MinorRadius
		implicit = func(x, y, z poly.Trig) poly.Trig {
			rho2 := x.Mul(x).Add(y.Mul(y))
			q := rho2.Add(z.Mul(z)).Add(poly.TrigConst(R*R - r*r))
			return q.Mul(q).Sub(rho2.Scale(4 * R * R))
		}
	case *RotationalSweep:
		profile, l, _, frameOK := sh.localProfile()
		if !frameOK {
			return dst, false
		}
		worldToLocal, frameOK = l.Inv()
		if !frameOK {
			return dst, false
		}
		// Profile implicits are up to quartic in the coordinates.
		zeroTol = epsilon * math.Pow(1+d3.Box(s.Range()).Diagonal(), 4)
		for _, leaf := range profile.Leaves() {
			var leafOK bool
			implicits, leafOK = appendRevolvedImplicits(implicits, leaf)
			if !leafOK {
				return dst, false
			}
		}
	default:
		return dst, false
	}
	if implicit != nil {
		implicits = append(implicits, implicit)
	}
	local, isArc := a.Transformed(worldToLocal).(*curve.Arc)
	if !isArc {
		return dst, false
	}
	x, y, z := local.Trig()
	var roots []float64
	for _, f := range implicits {
		roots = append(roots, f(x, y, z).AngleRoots(zeroTol)...)
	}
	tol := curveTol(s)
	if s.Capped() {
		// Cap planes cut the arc where the implicit surface does not.
		for i := 0; i < 2; i++ {
			if pc, ok := s.planarCap(i); ok {
				roots = append(roots, capArcAngles(pc, a)...)
			}
		}
	}
	for _, f := range a.AngleRootFractions(roots) {
		dst = onSurfaceHit(dst, s, a, f, tol, parentID)
	}
	sort.Slice(dst, func(i, j int) bool { return dst[i].f < dst[j].f })
	return dst, true
}

// appendRevolvedImplicits appends the implicit equations, in the sweep's
// local frame with the axis on z, of the surfaces swept by the profile
// leaf. Points satisfying them may lie outside the leaf's face and are
// screened by the caller. ok is false for leaves without a closed form.
func appendRevolvedImplicits(dst []func(x, y, z poly.Trig) poly.Trig, leaf curve.Primitive) (_ []func(x, y, z poly.Trig) poly.Trig, ok bool) {
	segment := func(a, b r3.Vec) func(x, y, z poly.Trig) poly.Trig {
		e := r3.Sub(b, a)
		if math.Abs(e.Z) <= epsilon*(1+r3.Norm(e)) {
			// Annulus in the plane z = a.Z.
			return func(_, _, z poly.Trig) poly.Trig { return z.Sub(poly.TrigConst(a.Z)) }
		}
		// Hyperboloid: e.z^2 (x^2+y^2) = |e.z a_xy + (z-a.z) e_xy|^2.
		return func(x, y, z poly.Trig) poly.Trig {
			w := z.Sub(poly.TrigConst(a.Z))
			px := w.Scale(e.X).Add(poly.TrigConst(e.Z * a.X))
			py := w.Scale(e.Y).Add(poly.TrigConst(e.Z * a.Y))
			rho2 := x.Mul(x).Add(y.Mul(y)).Scale(e.Z * e.Z)
			return rho2.Sub(px.Mul(px).Add(py.Mul(py)))
		}
	}
	switch c := leaf.(type) {
	case *curve.Line:
		return append(dst, segment(c.P0, c.P1)), true
	case *curve.LineString:
		for i := 0; i+1 < len(c.Points); i++ {
			dst = append(dst, segment(c.Points[i], c.Points[i+1]))
		}
		return dst, true
	case *curve.Arc:
		r, circular := c.Circular(epsilon)
		if !circular {
			return dst, false
		}
		n, ok := c.Normal()
		if !ok {
			return dst, false
		}
		zc := c.Center.Z
		if math.Abs(math.Abs(n.Z)-1) <= epsilon {
			return append(dst, func(_, _, z poly.Trig) poly.Trig { return z.Sub(poly.TrigConst(zc)) }), true
		}
		if math.Abs(n.Z) > epsilon || math.Abs(r3.Dot(n, c.Center)) > epsilon*(1+r3.Norm(c.Center)) {
			// The arc plane does not contain the axis.
			return dst, false
		}
		rc2 := c.Center.X*c.Center.X + c.Center.Y*c.Center.Y
		return append(dst, func(x, y, z poly.Trig) poly.Trig {
			rho2 := x.Mul(x).Add(y.Mul(y))
			w := z.Sub(poly.TrigConst(zc))
			q := rho2.Add(w.Mul(w)).Add(poly.TrigConst(rc2 - r*r))
			return q.Mul(q).Sub(rho2.Scale(4 * rc2))
		}), true
	}
	return dst, false
}

// capArcAngles returns the arc angles at which the arc crosses the cap
// plane.
func capArcAngles(pc planarCap, a *curve.Arc) []float64 {
	o, n, ok := pc.plane()
	if !ok {
		return nil
	}
	x, y, z := a.Trig()
	h := x.Scale(n.X).Add(y.Scale(n.Y)).Add(z.Scale(n.Z)).Sub(poly.TrigConst(r3.Dot(o, n)))
	return h.AngleRoots(epsilon)
}

// strokedHits locates crossings of a general curve by intersecting its
// chords and refining each chord hit onto the true curve.
func strokedHits(dst []curveHit, s Shape, p curve.Primitive, parentID int) []curveHit {
	n := curve.StrokeCount(p, curveAngleTol, 0, curveMinStrokes)
	tol := curveTol(s)
	prev := curve.Point(p, 0)
	for i := 1; i <= n; i++ {
		f0, f1 := float64(i-1)/float64(n), float64(i)/float64(n)
		next := curve.Point(p, f1)
		for _, h := range segmentHits(nil, s, prev, next, f0, f1, parentID) {
			if f, ok := refineOnSurface(s, p, h.f, f0, f1, tol); ok {
				dst = onSurfaceHit(dst, s, p, f, tol, parentID)
			}
		}
		prev = next
	}
	return dst
}

// refineOnSurface runs Newton steps on the signed distance from the
// curve to the surface along the surface normal, staying within the
// bracket [lo, hi].
func refineOnSurface(s Shape, p curve.Primitive, f, lo, hi, tol float64) (float64, bool) {
	for i := 0; i < curveRefineIter; i++ {
		x, dx := p.Evaluate(f)
		d, ok := s.ClosestPoint(x)
		if !ok {
			return f, false
		}
		if d.Pick <= tol*tol {
			return f, true
		}
		n, ok := d.Normal()
		if !ok {
			return f, false
		}
		h, dh := r3.Dot(r3.Sub(x, d.XYZ), n), r3.Dot(dx, n)
		if math.Abs(dh) < epsilon {
			return f, false
		}
		f = math.Max(lo, math.Min(hi, f-h/dh))
	}
	d, ok := s.ClosestPoint(curve.Point(p, f))
	return f, ok && d.Pick <= tol*tol
}

// onSurfaceHit appends the hit at curve fraction f when the curve point
// lies on the shape. Points outside face windows are rejected here.
// Iterative closest point solvers converge to a looser tolerance than
// the root finders, hence the wider acceptance.
func onSurfaceHit(dst []curveHit, s Shape, p curve.Primitive, f, tol float64, parentID int) []curveHit {
	x := curve.Point(p, f)
	d, ok := s.ClosestPoint(x)
	if accept := 1e3 * tol; !ok || d.Pick > accept*accept {
		return dst
	}
	d.Pick = f
	d.ParentID = parentID
	return append(dst, curveHit{f: f, d: d})
}

func dedupeHits(hits []curveHit, tol float64) []curveHit {
	if len(hits) < 2 {
		return hits
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].f < hits[j].f })
	out := hits[:1]
	for _, h := range hits[1:] {
		last := out[len(out)-1]
		if h.f-last.f < uvTol || d3.Dist(h.d.XYZ, last.d.XYZ) < tol {
			continue
		}
		out = append(out, h)
	}
	return out
}
