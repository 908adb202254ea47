package curve

import (
	"math"
	"sort"

	"github.com/soypat/solid/internal/poly"
)

// Piece is a polynomial stretch of a curve. The point at fraction
// Lo + s*(Hi-Lo) is (X(s), Y(s), Z(s)) for s in [0,1].
type Piece struct {
	Lo, Hi  float64
	X, Y, Z poly.Poly
}

// Fraction maps the piece parameter s to the curve fraction.
func (pc Piece) Fraction(s float64) float64 { return pc.Lo + s*(pc.Hi-pc.Lo) }

// Breaks returns the sorted fractions, 0 and 1 included, between which p
// is a single polynomial of the returned degree. ok is false for curves
// that are not piecewise polynomial.
func Breaks(p Primitive) (breaks []float64, degree int, ok bool) {
	switch c := p.(type) {
	case *Line:
		return []float64{0, 1}, 1, true
	case *LineString:
		n := c.Segments()
		if n < 1 {
			return nil, 0, false
		}
		breaks = make([]float64, n+1)
		for i := range breaks {
			breaks[i] = float64(i) / float64(n)
		}
		return breaks, 1, true
	case *BSpline:
		if len(c.Poles) < 2 {
			return nil, 0, false
		}
		k := c.knots()
		deg := c.degree()
		n := len(c.Poles)
		lo, hi := k[deg], k[n]
		if !(hi > lo) {
			return nil, 0, false
		}
		breaks = append(breaks, 0)
		for i := deg + 1; i < n; i++ {
			if k[i] > k[i-1] {
				breaks = append(breaks, (k[i]-lo)/(hi-lo))
			}
		}
		return append(breaks, 1), deg, true
	}
	return nil, 0, false
}

// MergeBreaks returns the sorted union of two break lists.
func MergeBreaks(a, b []float64) []float64 {
	out := append(append([]float64(nil), a...), b...)
	sort.Float64s(out)
	merged := out[:0]
	for _, f := range out {
		if len(merged) > 0 && f-merged[len(merged)-1] <= 1e-14 {
			continue
		}
		merged = append(merged, f)
	}
	return merged
}

// Pieces splits p at breaks into polynomials of the given degree. Every
// break of p itself must appear in breaks.
func Pieces(p Primitive, breaks []float64, degree int) []Piece {
	if degree < 1 {
		degree = 1
	}
	nodes := make([]float64, degree+1)
	for j := range nodes {
		// Chebyshev-Lobatto nodes keep the interpolation well conditioned.
		nodes[j] = 0.5 - 0.5*math.Cos(math.Pi*float64(j)/float64(degree))
	}
	xs := make([]float64, len(nodes))
	ys := make([]float64, len(nodes))
	zs := make([]float64, len(nodes))
	var pieces []Piece
	for i := 1; i < len(breaks); i++ {
		lo, hi := breaks[i-1], breaks[i]
		if !(hi > lo) {
			continue
		}
		for j, s := range nodes {
			x := Point(p, lo+s*(hi-lo))
			xs[j], ys[j], zs[j] = x.X, x.Y, x.Z
		}
		pieces = append(pieces, Piece{
			Lo: lo, Hi: hi,
			X: interpolate(nodes, xs),
			Y: interpolate(nodes, ys),
			Z: interpolate(nodes, zs),
		})
	}
	return pieces
}

// interpolate returns the polynomial through (s[i], y[i]) in power form
// using Newton divided differences.
func interpolate(s, y []float64) poly.Poly {
	n := len(s)
	c := append([]float64(nil), y...)
	for j := 1; j < n; j++ {
		for i := n - 1; i >= j; i-- {
			c[i] = (c[i] - c[i-1]) / (s[i] - s[i-j])
		}
	}
	p := poly.Poly{c[n-1]}
	for i := n - 2; i >= 0; i-- {
		p = p.Mul(poly.Poly{-s[i], 1}).Add(poly.Poly{c[i]})
	}
	return p
}

// PieceRoots solves g on every piece of p and returns the sorted curve
// fractions of its real roots. ok is false when p is not piecewise
// polynomial.
func PieceRoots(p Primitive, g func(Piece) poly.Poly) (fractions []float64, ok bool) {
	breaks, deg, ok := Breaks(p)
	if !ok {
		return nil, false
	}
	return SolvePieces(Pieces(p, breaks, deg), g), true
}

// SolvePieces returns the sorted, deduplicated curve fractions where the
// polynomial g(piece) vanishes on its piece.
func SolvePieces(pieces []Piece, g func(Piece) poly.Poly) []float64 {
	var out []float64
	for _, pc := range pieces {
		for _, s := range g(pc).RootsIn(0, 1, 1e-10) {
			out = append(out, pc.Fraction(s))
		}
	}
	sort.Float64s(out)
	dedup := out[:0]
	for _, f := range out {
		if len(dedup) > 0 && f-dedup[len(dedup)-1] <= 1e-12 {
			continue
		}
		dedup = append(dedup, f)
	}
	return dedup
}
