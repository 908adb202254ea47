package curve

import (
	"math"

	"github.com/soypat/solid/internal/d3"
	"gonum.org/v1/gonum/spatial/r3"
)

// BSpline is a clamped non-rational B-spline curve. When Knots is nil a
// uniform clamped knot vector is used.
type BSpline struct {
	Order int
	Poles []r3.Vec
	Knots []float64
}

// NewBSpline returns a uniform clamped B-spline. Order is degree+1.
func NewBSpline(order int, poles []r3.Vec) *BSpline {
	return &BSpline{Order: order, Poles: poles}
}

func (b *BSpline) Kind() Kind { return KindBSpline }

func (b *BSpline) degree() int {
	p := b.Order - 1
	if p > len(b.Poles)-1 {
		p = len(b.Poles) - 1
	}
	if p < 1 {
		p = 1
	}
	return p
}

func (b *BSpline) knots() []float64 {
	if b.Knots != nil {
		return b.Knots
	}
	n := len(b.Poles)
	p := b.degree()
	k := make([]float64, n+p+1)
	interior := n - p
	for i := range k {
		switch {
		case i <= p:
			k[i] = 0
		case i >= n:
			k[i] = 1
		default:
			k[i] = float64(i-p) / float64(interior)
		}
	}
	return k
}

// Spans returns the number of non-empty knot spans.
func (b *BSpline) Spans() int {
	k := b.knots()
	p := b.degree()
	n := 0
	for i := p; i < len(b.Poles); i++ {
		if k[i+1] > k[i] {
			n++
		}
	}
	if n == 0 {
		return 1
	}
	return n
}

func (b *BSpline) Evaluate(f float64) (p, d r3.Vec) {
	if len(b.Poles) == 0 {
		return r3.Vec{}, r3.Vec{}
	}
	if len(b.Poles) == 1 {
		return b.Poles[0], r3.Vec{}
	}
	k := b.knots()
	deg := b.degree()
	n := len(b.Poles)
	lo, hi := k[deg], k[n]
	u := lo + f*(hi-lo)
	p = deBoor(k, b.Poles, deg, u)
	// Derivative control points.
	dp := make([]r3.Vec, n-1)
	for i := range dp {
		den := k[i+deg+1] - k[i+1]
		if den > 0 {
			dp[i] = r3.Scale(float64(deg)/den, r3.Sub(b.Poles[i+1], b.Poles[i]))
		}
	}
	if deg == 1 {
		s := findSpan(k, deg, n, u)
		d = dp[s-1]
	} else {
		d = deBoor(k[1:len(k)-1], dp, deg-1, u)
	}
	return p, r3.Scale(hi-lo, d)
}

func findSpan(k []float64, deg, n int, u float64) int {
	if u >= k[n] {
		s := n - 1
		for s > deg && k[s] == k[s+1] {
			s--
		}
		return s
	}
	if u <= k[deg] {
		return deg
	}
	s := deg
	for s < n-1 && u >= k[s+1] {
		s++
	}
	return s
}

func deBoor(k []float64, ctrl []r3.Vec, deg int, u float64) r3.Vec {
	n := len(ctrl)
	s := findSpan(k, deg, n, u)
	d := make([]r3.Vec, deg+1)
	for j := 0; j <= deg; j++ {
		d[j] = ctrl[j+s-deg]
	}
	for r := 1; r <= deg; r++ {
		for j := deg; j >= r; j-- {
			i := j + s - deg
			den := k[i+deg+1-r] - k[i]
			var alpha float64
			if den > 0 {
				alpha = (u - k[i]) / den
			}
			d[j] = d3.Lerp(d[j-1], d[j], alpha)
		}
	}
	return d[deg]
}

func (b *BSpline) Closest(x r3.Vec) (float64, r3.Vec) {
	return closestByNewton(b, x, 16*b.Spans()+16)
}

// Bounds returns the range of the control polygon, which contains the curve.
func (b *BSpline) Bounds() r3.Box {
	return r3.Box(d3.EmptyBox().Include(b.Poles...))
}

func (b *BSpline) Length() float64 {
	return lengthByQuadrature(b, 2*b.Spans())
}

func (b *BSpline) Clone() Primitive {
	c := &BSpline{Order: b.Order, Poles: append([]r3.Vec(nil), b.Poles...)}
	if b.Knots != nil {
		c.Knots = append([]float64(nil), b.Knots...)
	}
	return c
}

func (b *BSpline) Transformed(t Transform) Primitive {
	c := b.Clone().(*BSpline)
	for i := range c.Poles {
		c.Poles[i] = t.Transform(c.Poles[i])
	}
	return c
}

// StrokeCount returns the number of chords used to approximate p within
// the angular tolerance, with at least minCount chords and chords no
// longer than maxEdge when maxEdge > 0.
func StrokeCount(p Primitive, angTol, maxEdge float64, minCount int) int {
	if angTol <= 0 {
		angTol = math.Pi / 8
	}
	n := 1
	switch c := p.(type) {
	case *Line:
	case *LineString:
		n = c.Segments()
	case *Arc:
		n = int(math.Ceil(math.Abs(c.Sweep) / angTol))
	default:
		// Sum the turning of the tangent over a fine sampling.
		const samples = 64
		var turn float64
		_, prev := p.Evaluate(0)
		for i := 1; i <= samples; i++ {
			_, d := p.Evaluate(float64(i) / samples)
			turn += d3.Angle(prev, d)
			prev = d
		}
		n = int(math.Ceil(turn / angTol))
		if bs, ok := p.(*BSpline); ok && n < bs.Spans() {
			n = bs.Spans()
		}
	}
	if maxEdge > 0 {
		if m := int(math.Ceil(p.Length() / maxEdge)); m > n {
			if ls, ok := p.(*LineString); ok {
				// Keep vertices: refine every segment equally.
				k := int(math.Ceil(float64(m) / float64(ls.Segments())))
				m = k * ls.Segments()
			}
			n = m
		}
	}
	if n < minCount {
		n = minCount
	}
	if n < 1 {
		n = 1
	}
	return n
}
