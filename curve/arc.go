package curve

import (
	"math"

	"github.com/soypat/solid/internal/d3"
	"github.com/soypat/solid/internal/poly"
	"gonum.org/v1/gonum/spatial/r3"
)

var gaussX8, gaussW8 = poly.GaussLegendre(8, 0, 1)

// Arc is an elliptic arc
//
//	X(theta) = Center + cos(theta)*Vector0 + sin(theta)*Vector90
//
// for theta from Start to Start+Sweep. Sweep may be negative.
type Arc struct {
	Center, Vector0, Vector90 r3.Vec
	Start, Sweep              float64
}

// NewCircle returns the full counterclockwise circle of radius r around
// the normal through center.
func NewCircle(center, normal r3.Vec, r float64) *Arc {
	x, y, _, _ := d3.FrameFromZ(normal)
	return &Arc{
		Center:   center,
		Vector0:  r3.Scale(r, x),
		Vector90: r3.Scale(r, y),
		Sweep:    2 * math.Pi,
	}
}

// NewArc returns a circular arc of radius r in the plane spanned by the
// unit directions x and y, centered at center.
func NewArc(center, x, y r3.Vec, r, start, sweep float64) *Arc {
	return &Arc{
		Center:   center,
		Vector0:  r3.Scale(r, x),
		Vector90: r3.Scale(r, y),
		Start:    start,
		Sweep:    sweep,
	}
}

func (a *Arc) Kind() Kind { return KindArc }

// FractionToAngle returns the angle at fraction f.
func (a *Arc) FractionToAngle(f float64) float64 { return a.Start + f*a.Sweep }

// AngleToFraction returns the fraction of the angle theta taken modulo
// 2pi into the sweep. ok is false if the angle is outside the sweep by
// more than tol radians.
func (a *Arc) AngleToFraction(theta, tol float64) (f float64, ok bool) {
	if a.Sweep == 0 {
		return 0, false
	}
	sw := math.Abs(a.Sweep)
	var delta float64
	if a.Sweep > 0 {
		delta = normAngle(theta - a.Start)
	} else {
		delta = normAngle(a.Start - theta)
	}
	if delta > sw+tol {
		// Close to the start from below.
		if 2*math.Pi-delta <= tol {
			return 0, true
		}
		return delta / sw, false
	}
	return math.Min(1, delta/sw), true
}

func normAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a
}

func (a *Arc) Evaluate(f float64) (p, d r3.Vec) {
	s, c := math.Sincos(a.FractionToAngle(f))
	p = d3.SumScaled(a.Center, a.Vector0, c, a.Vector90, s)
	d = d3.SumScaled(r3.Vec{}, a.Vector0, -s*a.Sweep, a.Vector90, c*a.Sweep)
	return p, d
}

// Normal returns the unit normal of the arc plane, Vector0 x Vector90.
func (a *Arc) Normal() (r3.Vec, bool) {
	return d3.SafeUnit(r3.Cross(a.Vector0, a.Vector90))
}

// Circular returns the radius when the arc is a circle: the two vectors
// are perpendicular and of equal length within relative tolerance tol.
func (a *Arc) Circular(tol float64) (r float64, ok bool) {
	r0, r90 := r3.Norm(a.Vector0), r3.Norm(a.Vector90)
	if r0 == 0 || math.Abs(r0-r90) > tol*r0 {
		return 0, false
	}
	if math.Abs(r3.Dot(a.Vector0, a.Vector90)) > tol*r0*r90 {
		return 0, false
	}
	return 0.5 * (r0 + r90), true
}

// IsFullCircle reports whether the sweep covers a full turn.
func (a *Arc) IsFullCircle() bool {
	return math.Abs(math.Abs(a.Sweep)-2*math.Pi) <= 1e-10
}

func (a *Arc) Closest(x r3.Vec) (float64, r3.Vec) {
	r, ok := a.Circular(1e-10)
	if !ok {
		return closestByNewton(a, x, 64)
	}
	q := r3.Sub(x, a.Center)
	cx := r3.Dot(q, a.Vector0) / (r * r)
	cy := r3.Dot(q, a.Vector90) / (r * r)
	if math.Hypot(cx, cy) < 1e-14 {
		return 0, Point(a, 0)
	}
	theta := math.Atan2(cy, cx)
	if f, in := a.AngleToFraction(theta, 0); in {
		return f, Point(a, f)
	}
	p0, p1 := StartEnd(a)
	if d3.Dist2(p0, x) <= d3.Dist2(p1, x) {
		return 0, p0
	}
	return 1, p1
}

// Bounds returns the exact range of the arc.
func (a *Arc) Bounds() r3.Box {
	b := d3.EmptyBox()
	p0, p1 := StartEnd(a)
	b = b.Include(p0, p1)
	v0 := [3]float64{a.Vector0.X, a.Vector0.Y, a.Vector0.Z}
	v90 := [3]float64{a.Vector90.X, a.Vector90.Y, a.Vector90.Z}
	for axis := 0; axis < 3; axis++ {
		if v0[axis] == 0 && v90[axis] == 0 {
			continue
		}
		theta := math.Atan2(v90[axis], v0[axis])
		for _, t := range [2]float64{theta, theta + math.Pi} {
			if f, ok := a.AngleToFraction(t, 0); ok {
				b = b.Include(Point(a, f))
			}
		}
	}
	return r3.Box(b)
}

func (a *Arc) Length() float64 {
	if r, ok := a.Circular(1e-12); ok {
		return r * math.Abs(a.Sweep)
	}
	panels := int(math.Ceil(math.Abs(a.Sweep)/(math.Pi/4))) + 1
	return lengthByQuadrature(a, panels)
}

func (a *Arc) Clone() Primitive { c := *a; return &c }

func (a *Arc) Transformed(t Transform) Primitive {
	return &Arc{
		Center:   t.Transform(a.Center),
		Vector0:  t.Direction(a.Vector0),
		Vector90: t.Direction(a.Vector90),
		Start:    a.Start,
		Sweep:    a.Sweep,
	}
}

// Trig returns the trig polynomial coefficients of each coordinate of the
// arc as a function of the angle: X_i(theta) = c_i + a_i cos + b_i sin.
func (a *Arc) Trig() (x, y, z poly.Trig) {
	return poly.TrigLinear(a.Center.X, a.Vector0.X, a.Vector90.X),
		poly.TrigLinear(a.Center.Y, a.Vector0.Y, a.Vector90.Y),
		poly.TrigLinear(a.Center.Z, a.Vector0.Z, a.Vector90.Z)
}

// AngleRootFractions maps angle roots of a trig polynomial to arc
// fractions, keeping those within the sweep.
func (a *Arc) AngleRootFractions(roots []float64) []float64 {
	var out []float64
	for _, theta := range roots {
		if f, ok := a.AngleToFraction(theta, 1e-10); ok {
			out = append(out, f)
		}
	}
	return out
}
