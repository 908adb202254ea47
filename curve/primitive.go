// Package curve implements the curve primitives and curve vectors used
// as profiles by swept solids: lines, line strings, elliptic arcs and
// clamped B-splines, grouped into open paths, closed loops and regions.
package curve

import (
	"math"

	"github.com/soypat/solid/internal/d3"
	"gonum.org/v1/gonum/spatial/r3"
)

// Transform is an affine transformation applied to curves.
type Transform = d3.Transform

// Kind identifies the concrete type of a Primitive.
type Kind int

const (
	KindLine Kind = iota
	KindLineString
	KindArc
	KindBSpline
)

func (k Kind) String() string {
	switch k {
	case KindLine:
		return "line"
	case KindLineString:
		return "linestring"
	case KindArc:
		return "arc"
	case KindBSpline:
		return "bspline"
	}
	return "unknown"
}

// Primitive is a parametric curve over the fraction interval [0,1].
type Primitive interface {
	Kind() Kind
	// Evaluate returns the point at fraction f and the derivative of
	// the point with respect to f.
	Evaluate(f float64) (p, d r3.Vec)
	// Closest returns the fraction and point on the curve nearest x.
	Closest(x r3.Vec) (f float64, p r3.Vec)
	Bounds() r3.Box
	Length() float64
	Clone() Primitive
	Transformed(t Transform) Primitive
}

// Point returns the point at fraction f.
func Point(p Primitive, f float64) r3.Vec {
	x, _ := p.Evaluate(f)
	return x
}

// StartEnd returns the first and last point of p.
func StartEnd(p Primitive) (start, end r3.Vec) {
	return Point(p, 0), Point(p, 1)
}

// Line is a straight segment from P0 to P1.
type Line struct {
	P0, P1 r3.Vec
}

func (l *Line) Kind() Kind { return KindLine }

func (l *Line) Evaluate(f float64) (p, d r3.Vec) {
	d = r3.Sub(l.P1, l.P0)
	return r3.Add(l.P0, r3.Scale(f, d)), d
}

func (l *Line) Closest(x r3.Vec) (float64, r3.Vec) {
	f := segmentFraction(l.P0, l.P1, x)
	return f, d3.Lerp(l.P0, l.P1, f)
}

func (l *Line) Bounds() r3.Box {
	return r3.Box(d3.EmptyBox().Include(l.P0, l.P1))
}

func (l *Line) Length() float64 { return d3.Dist(l.P0, l.P1) }

func (l *Line) Clone() Primitive { c := *l; return &c }

func (l *Line) Transformed(t Transform) Primitive {
	return &Line{P0: t.Transform(l.P0), P1: t.Transform(l.P1)}
}

func segmentFraction(a, b, x r3.Vec) float64 {
	ab := r3.Sub(b, a)
	l2 := r3.Norm2(ab)
	if l2 == 0 {
		return 0
	}
	f := r3.Dot(r3.Sub(x, a), ab) / l2
	return math.Max(0, math.Min(1, f))
}

// LineString is a polyline. Each of the len(Points)-1 segments spans an
// equal share of the fraction interval.
type LineString struct {
	Points []r3.Vec
}

func (ls *LineString) Kind() Kind { return KindLineString }

// Segments returns the number of segments.
func (ls *LineString) Segments() int {
	if len(ls.Points) < 2 {
		return 0
	}
	return len(ls.Points) - 1
}

// segment maps a fraction to a segment index and local fraction.
func (ls *LineString) segment(f float64) (i int, local float64) {
	n := ls.Segments()
	s := f * float64(n)
	i = int(math.Floor(s))
	if i < 0 {
		i = 0
	} else if i > n-1 {
		i = n - 1
	}
	return i, s - float64(i)
}

func (ls *LineString) Evaluate(f float64) (p, d r3.Vec) {
	n := ls.Segments()
	switch {
	case n == 0 && len(ls.Points) == 1:
		return ls.Points[0], r3.Vec{}
	case n == 0:
		return r3.Vec{}, r3.Vec{}
	}
	i, local := ls.segment(f)
	a, b := ls.Points[i], ls.Points[i+1]
	d = r3.Scale(float64(n), r3.Sub(b, a))
	return d3.Lerp(a, b, local), d
}

func (ls *LineString) Closest(x r3.Vec) (float64, r3.Vec) {
	n := ls.Segments()
	if n == 0 {
		if len(ls.Points) == 1 {
			return 0, ls.Points[0]
		}
		return 0, r3.Vec{}
	}
	bestF, best, bestD := 0.0, ls.Points[0], math.Inf(1)
	for i := 0; i < n; i++ {
		a, b := ls.Points[i], ls.Points[i+1]
		f := segmentFraction(a, b, x)
		p := d3.Lerp(a, b, f)
		if d := d3.Dist2(p, x); d < bestD {
			bestD, best, bestF = d, p, (float64(i)+f)/float64(n)
		}
	}
	return bestF, best
}

func (ls *LineString) Bounds() r3.Box {
	return r3.Box(d3.EmptyBox().Include(ls.Points...))
}

func (ls *LineString) Length() float64 {
	var s float64
	for i := 1; i < len(ls.Points); i++ {
		s += d3.Dist(ls.Points[i-1], ls.Points[i])
	}
	return s
}

func (ls *LineString) Clone() Primitive {
	return &LineString{Points: append([]r3.Vec(nil), ls.Points...)}
}

func (ls *LineString) Transformed(t Transform) Primitive {
	pts := make([]r3.Vec, len(ls.Points))
	for i := range pts {
		pts[i] = t.Transform(ls.Points[i])
	}
	return &LineString{Points: pts}
}

// closestByNewton finds the closest point of a generic smooth primitive by
// sampling n fractions then refining with Newton iterations on the
// squared distance.
func closestByNewton(p Primitive, x r3.Vec, n int) (float64, r3.Vec) {
	bestF, bestD := 0.0, math.Inf(1)
	for i := 0; i <= n; i++ {
		f := float64(i) / float64(n)
		if d := d3.Dist2(Point(p, f), x); d < bestD {
			bestD, bestF = d, f
		}
	}
	f := bestF
	const h = 1e-6
	for it := 0; it < 12; it++ {
		c, d := p.Evaluate(f)
		_, dh := p.Evaluate(math.Min(1, f+h))
		_, dl := p.Evaluate(math.Max(0, f-h))
		dd := r3.Scale(1/(math.Min(1, f+h)-math.Max(0, f-h)), r3.Sub(dh, dl))
		diff := r3.Sub(c, x)
		g := r3.Dot(diff, d)
		gp := r3.Dot(d, d) + r3.Dot(diff, dd)
		if gp <= 0 {
			break
		}
		step := g / gp
		next := math.Max(0, math.Min(1, f-step))
		if math.Abs(next-f) < 1e-14 {
			f = next
			break
		}
		f = next
	}
	q := Point(p, f)
	if d3.Dist2(q, x) > bestD {
		f = bestF
		q = Point(p, f)
	}
	return f, q
}

// lengthByQuadrature integrates the speed of p.
func lengthByQuadrature(p Primitive, panels int) float64 {
	var s float64
	h := 1 / float64(panels)
	for k := 0; k < panels; k++ {
		for i, x := range gaussX8 {
			_, d := p.Evaluate((float64(k) + x) * h)
			s += gaussW8[i] * h * r3.Norm(d)
		}
	}
	return s
}
