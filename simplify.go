package solid

import (
	"math"

	"github.com/soypat/solid/curve"
	"github.com/soypat/solid/internal/d3"
	"gonum.org/v1/gonum/spatial/r3"
)

// Simplify replaces the held shape with a more specific kind when the
// geometry allows it: rotational sweeps of circles become spheres or
// torus pipes, extrusions and ruled sweeps of circles or rectangles
// become cones or boxes, and translated ruled sweeps become extrusions.
// It reports whether the shape was replaced. Simplify is not repeated
// on its own result.
func (p *Primitive) Simplify() bool {
	var next Shape
	switch s := p.shape.(type) {
	case *RotationalSweep:
		if next = sweepToSphere(s); next == nil {
			next = sweepToTorus(s)
		}
	case *Extrusion:
		if next = extrusionToCone(s); next == nil {
			next = extrusionToBox(s)
		}
	case *RuledSweep:
		if next = ruledToCone(s); next == nil {
			if next = ruledToBox(s); next == nil {
				next = ruledToExtrusion(s)
			}
		}
	}
	if next == nil {
		return false
	}
	p.shape = next
	return true
}

// circleFrame returns the center, unit in-plane axes starting at the
// arc's start angle and turning with its sweep, and the radius of a
// circular arc.
func circleFrame(a *curve.Arc) (center, x, y r3.Vec, r float64, ok bool) {
	r, ok = a.Circular(simplifyTol)
	if !ok {
		return
	}
	v0, v90 := r3.Scale(1/r, a.Vector0), r3.Scale(1/r, a.Vector90)
	s, c := math.Sincos(a.Start)
	x = r3.Add(r3.Scale(c, v0), r3.Scale(s, v90))
	y = r3.Sub(r3.Scale(c, v90), r3.Scale(s, v0))
	if a.Sweep < 0 {
		y = r3.Scale(-1, y)
	}
	return a.Center, x, y, r, true
}

func almostEqual(a, b float64) bool { return math.Abs(a-b) <= simplifyTol }

// axisDistance returns the distance from p to the line through c along
// unit direction axis.
func axisDistance(p, c, axis r3.Vec) float64 {
	d := r3.Sub(p, c)
	return r3.Norm(r3.Sub(d, r3.Scale(r3.Dot(d, axis), axis)))
}

// sweepToSphere recognizes a full circle swept half a turn, or a half
// circle closed along the axis swept a full turn, both centered on the
// axis in a plane containing it.
func sweepToSphere(rs *RotationalSweep) Shape {
	c, axis, sweep, ok := rs.TryGetRotationAxis()
	if !ok {
		return nil
	}
	var arc *curve.Arc
	lines := 0
	for _, leaf := range rs.BaseCurve.Leaves() {
		switch l := leaf.(type) {
		case *curve.Arc:
			if arc != nil {
				return nil
			}
			arc = l
		case *curve.Line:
			lines++
		default:
			return nil
		}
	}
	if arc == nil {
		return nil
	}
	center, _, _, r, ok := circleFrame(arc)
	n, nok := arc.Normal()
	if !ok || !nok || math.Abs(r3.Dot(n, axis)) > simplifyTol || axisDistance(center, c, axis) > simplifyTol*r {
		return nil
	}
	switch {
	case lines == 0 && arc.IsFullCircle() && almostEqual(sweep, math.Pi):
	case lines == 1 && almostEqual(math.Abs(arc.Sweep), math.Pi) && almostEqual(sweep, 2*math.Pi):
		s, e := curve.StartEnd(arc)
		if axisDistance(s, c, axis) > simplifyTol*r || axisDistance(e, c, axis) > simplifyTol*r {
			return nil
		}
	default:
		return nil
	}
	x, y, _, _ := d3.FrameFromZ(axis)
	sp, err := NewSphereBand(d3.FromColumns(r3.Scale(r, x), r3.Scale(r, y), r3.Scale(r, axis), center), -math.Pi/2, math.Pi, rs.capped)
	if err != nil {
		return nil
	}
	return sp
}

// sweepToTorus recognizes a single full circle in a plane containing
// the axis, clear of the axis.
func sweepToTorus(rs *RotationalSweep) Shape {
	c, axis, _, ok := rs.TryGetRotationAxis()
	if !ok || rs.BaseCurve.LeafCount() != 1 {
		return nil
	}
	arc, isArc := rs.BaseCurve.FindIndexedLeaf(0).(*curve.Arc)
	if !isArc || !arc.IsFullCircle() {
		return nil
	}
	center, _, _, r, ok := circleFrame(arc)
	n, nok := arc.Normal()
	if !ok || !nok || math.Abs(r3.Dot(n, axis)) > simplifyTol || math.Abs(r3.Dot(r3.Sub(center, c), n)) > simplifyTol*r {
		return nil
	}
	onAxis := r3.Add(c, r3.Scale(r3.Dot(r3.Sub(center, c), axis), axis))
	radial := r3.Sub(center, onAxis)
	major := r3.Norm(radial)
	if major <= r*(1+simplifyTol) {
		return nil
	}
	x := r3.Scale(1/major, radial)
	tp, err := NewTorusPipe(onAxis, x, r3.Cross(axis, x), major, r, math.Min(math.Abs(rs.SweepAngle), 2*math.Pi), rs.capped)
	if err != nil {
		return nil
	}
	return tp
}

// singleCircle returns the only leaf of cv when it is a full circular arc.
func singleCircle(cv *curve.Vector) (*curve.Arc, bool) {
	if cv.LeafCount() != 1 {
		return nil, false
	}
	a, ok := cv.FindIndexedLeaf(0).(*curve.Arc)
	return a, ok && a.IsFullCircle()
}

func extrusionToCone(e *Extrusion) Shape {
	arc, ok := singleCircle(e.BaseCurve)
	if !ok {
		return nil
	}
	center, x, y, r, ok := circleFrame(arc)
	if !ok {
		return nil
	}
	if r3.Dot(r3.Cross(x, y), e.ExtrusionVector) < 0 {
		y = r3.Scale(-1, y)
	}
	return &Cone{
		CenterA: center, CenterB: r3.Add(center, e.ExtrusionVector),
		Vector0: x, Vector90: y,
		RadiusA: r, RadiusB: r,
		capped: e.capped,
	}
}

// rectangleFrame returns the origin corner and the two sides of a
// rectangle profile, ordered so x cross y points along dir.
func rectangleFrame(cv *curve.Vector, dir r3.Vec) (origin, x, y r3.Vec, ok bool) {
	tol := simplifyTol * (1 + d3.Box(cv.Bounds()).Diagonal())
	c, ok := cv.IsRectangle(tol)
	if !ok {
		return origin, x, y, false
	}
	x, y = r3.Sub(c[1], c[0]), r3.Sub(c[3], c[0])
	if r3.Dot(r3.Cross(x, y), dir) < 0 {
		x, y = y, x
	}
	return c[0], x, y, true
}

func extrusionToBox(e *Extrusion) Shape {
	o, x, y, ok := rectangleFrame(e.BaseCurve, e.ExtrusionVector)
	if !ok {
		return nil
	}
	bx, by := r3.Norm(x), r3.Norm(y)
	b, err := NewBox(o, r3.Add(o, e.ExtrusionVector), x, y, bx, by, bx, by, e.capped)
	if err != nil {
		return nil
	}
	return b
}

func ruledToCone(rs *RuledSweep) Shape {
	if len(rs.SectionCurves) != 2 {
		return nil
	}
	a0, ok0 := singleCircle(rs.SectionCurves[0])
	a1, ok1 := singleCircle(rs.SectionCurves[1])
	if !ok0 || !ok1 {
		return nil
	}
	ca, xa, ya, ra, ok := circleFrame(a0)
	if !ok {
		return nil
	}
	cb, xb, yb, rb, ok := circleFrame(a1)
	if !ok {
		return nil
	}
	// Coaxial and untwisted: same in-plane axes, centers along the normal.
	if !d3.EqualWithin(xa, xb, simplifyTol) || !d3.EqualWithin(ya, yb, simplifyTol) {
		return nil
	}
	n := r3.Cross(xa, ya)
	h := r3.Sub(cb, ca)
	if hn := r3.Dot(h, n); math.Abs(hn) <= simplifyTol || r3.Norm(r3.Sub(h, r3.Scale(hn, n))) > simplifyTol*(1+r3.Norm(h)) {
		return nil
	}
	return &Cone{CenterA: ca, CenterB: cb, Vector0: xa, Vector90: ya, RadiusA: ra, RadiusB: rb, capped: rs.capped}
}

func ruledToBox(rs *RuledSweep) Shape {
	if len(rs.SectionCurves) != 2 {
		return nil
	}
	base, top := rs.SectionCurves[0], rs.SectionCurves[1]
	sb, _, okb := base.StartEnd()
	st, _, okt := top.StartEnd()
	if !okb || !okt {
		return nil
	}
	dir := r3.Sub(st, sb)
	ob, xb, yb, ok := rectangleFrame(base, dir)
	if !ok {
		return nil
	}
	ot, xt, yt, ok := rectangleFrame(top, dir)
	if !ok {
		return nil
	}
	ux, _ := d3.SafeUnit(xb)
	uy, _ := d3.SafeUnit(yb)
	vx, _ := d3.SafeUnit(xt)
	vy, _ := d3.SafeUnit(yt)
	if !d3.EqualWithin(ux, vx, simplifyTol) || !d3.EqualWithin(uy, vy, simplifyTol) {
		return nil
	}
	b, err := NewBox(ob, ot, xb, yb, r3.Norm(xb), r3.Norm(yb), r3.Norm(xt), r3.Norm(yt), rs.capped)
	if err != nil {
		return nil
	}
	return b
}

// sectionTranslation returns the vector carrying section a onto section
// b. Interior fractions of every leaf are compared so that a scaled or
// twisted section with matching ends is rejected.
func sectionTranslation(a, b *curve.Vector) (r3.Vec, bool) {
	la, lb := a.Leaves(), b.Leaves()
	if len(la) == 0 || len(la) != len(lb) {
		return r3.Vec{}, false
	}
	shift := r3.Sub(curve.Point(lb[0], 0), curve.Point(la[0], 0))
	tol := simplifyTol * (1 + d3.Box(a.Bounds()).Diagonal())
	for i := range la {
		if la[i].Kind() != lb[i].Kind() {
			return r3.Vec{}, false
		}
		for _, f := range [...]float64{0, 0.2, 0.4, 0.5, 0.6, 0.8, 1} {
			d := r3.Sub(curve.Point(lb[i], f), curve.Point(la[i], f))
			if !d3.EqualWithin(d, shift, tol) {
				return r3.Vec{}, false
			}
		}
	}
	return shift, r3.Norm(shift) > tol
}

func ruledToExtrusion(rs *RuledSweep) Shape {
	if len(rs.SectionCurves) != 2 {
		return nil
	}
	shift, ok := sectionTranslation(rs.SectionCurves[0], rs.SectionCurves[1])
	if !ok {
		return nil
	}
	e, err := NewExtrusion(rs.SectionCurves[0].Clone(), shift, rs.capped)
	if err != nil {
		return nil
	}
	return e
}
