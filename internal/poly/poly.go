// Package poly implements the small numeric toolkit used by the solid
// kernel: real polynomial roots, rational trigonometric polynomials,
// bracketing root search and Gauss-Legendre quadrature nodes.
package poly

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// Poly is a real polynomial with coefficients in ascending order,
// p[i] multiplies x^i.
type Poly []float64

// Eval evaluates the polynomial at x using Horner's rule.
func (p Poly) Eval(x float64) float64 {
	var y float64
	for i := len(p) - 1; i >= 0; i-- {
		y = y*x + p[i]
	}
	return y
}

// Deriv returns the derivative polynomial.
func (p Poly) Deriv() Poly {
	if len(p) <= 1 {
		return Poly{0}
	}
	d := make(Poly, len(p)-1)
	for i := 1; i < len(p); i++ {
		d[i-1] = float64(i) * p[i]
	}
	return d
}

// Add returns p+q.
func (p Poly) Add(q Poly) Poly {
	n := len(p)
	if len(q) > n {
		n = len(q)
	}
	r := make(Poly, n)
	copy(r, p)
	for i := range q {
		r[i] += q[i]
	}
	return r
}

// Mul returns the product p*q.
func (p Poly) Mul(q Poly) Poly {
	if len(p) == 0 || len(q) == 0 {
		return nil
	}
	r := make(Poly, len(p)+len(q)-1)
	for i := range p {
		for j := range q {
			r[i+j] += p[i] * q[j]
		}
	}
	return r
}

// Scale returns k*p.
func (p Poly) Scale(k float64) Poly {
	r := make(Poly, len(p))
	for i := range p {
		r[i] = k * p[i]
	}
	return r
}

// MaxAbs returns the largest coefficient magnitude.
func (p Poly) MaxAbs() float64 {
	var m float64
	for _, c := range p {
		m = math.Max(m, math.Abs(c))
	}
	return m
}

// Trim removes leading coefficients that are negligible relative to
// the largest coefficient.
func (p Poly) Trim(relTol float64) Poly {
	m := p.MaxAbs()
	n := len(p)
	for n > 0 && math.Abs(p[n-1]) <= relTol*m {
		n--
	}
	return p[:n]
}

// Degree returns the trimmed degree, -1 for the zero polynomial.
func (p Poly) Degree() int {
	return len(p.Trim(coeffTol)) - 1
}

const coeffTol = 1e-13

// Quadratic returns the real roots of a*x^2 + b*x + c in ascending order.
// Vanishing leading terms degrade to the linear or constant case, which
// have one or no roots. A near zero discriminant produces a single root.
func Quadratic(a, b, c float64) []float64 {
	scale := math.Max(math.Abs(a), math.Max(math.Abs(b), math.Abs(c)))
	if scale == 0 {
		return nil
	}
	a, b, c = a/scale, b/scale, c/scale
	if math.Abs(a) <= coeffTol {
		if math.Abs(b) <= coeffTol {
			return nil
		}
		return []float64{-c / b}
	}
	disc := b*b - 4*a*c
	discTol := 1e-14 * (b*b + math.Abs(4*a*c))
	if disc < -discTol {
		return nil
	}
	if disc <= discTol {
		return []float64{-b / (2 * a)}
	}
	sq := math.Sqrt(disc)
	q := -0.5 * (b + math.Copysign(sq, b))
	r0, r1 := q/a, c/q
	if r0 > r1 {
		r0, r1 = r1, r0
	}
	return []float64{r0, r1}
}

// Roots returns the real roots of p in ascending order. Degrees up to two
// are solved in closed form, higher degrees through the eigenvalues of
// the companion matrix followed by Newton polishing.
func (p Poly) Roots() []float64 {
	q := p.Trim(coeffTol)
	switch len(q) {
	case 0, 1:
		return nil
	case 2:
		return Quadratic(0, q[1], q[0])
	case 3:
		return Quadratic(q[2], q[1], q[0])
	}
	// Strip zero roots so the companion matrix stays well conditioned.
	var roots []float64
	lead := 0
	for lead < len(q)-1 && math.Abs(q[lead]) <= coeffTol*q.MaxAbs() {
		lead++
	}
	if lead > 0 {
		roots = append(roots, 0)
		q = q[lead:]
		if len(q) <= 3 {
			var rest []float64
			if len(q) == 3 {
				rest = Quadratic(q[2], q[1], q[0])
			} else if len(q) == 2 {
				rest = []float64{-q[0] / q[1]}
			}
			return dedupe(append(roots, rest...))
		}
	}
	n := len(q) - 1
	c := mat.NewDense(n, n, nil)
	lc := q[n]
	for i := 0; i < n; i++ {
		if i > 0 {
			c.Set(i, i-1, 1)
		}
		c.Set(i, n-1, -q[i]/lc)
	}
	var eig mat.Eigen
	if !eig.Factorize(c, mat.EigenNone) {
		return dedupe(append(roots, Bracket(q.Eval, -cauchyBound(q), cauchyBound(q), 64*n)...))
	}
	d := q.Deriv()
	for _, v := range eig.Values(nil) {
		re, im := real(v), imag(v)
		if math.Abs(im) > 1e-6*(1+math.Abs(re)) {
			continue
		}
		roots = append(roots, newton(q, d, re))
	}
	return dedupe(roots)
}

// RootsIn returns the real roots of p within [lo-tol, hi+tol], clamped to [lo,hi].
func (p Poly) RootsIn(lo, hi, tol float64) []float64 {
	var out []float64
	for _, r := range p.Roots() {
		if r >= lo-tol && r <= hi+tol {
			out = append(out, math.Max(lo, math.Min(hi, r)))
		}
	}
	return out
}

func cauchyBound(p Poly) float64 {
	n := len(p) - 1
	var m float64
	for i := 0; i < n; i++ {
		m = math.Max(m, math.Abs(p[i]/p[n]))
	}
	return 1 + m
}

func newton(p, d Poly, x float64) float64 {
	for i := 0; i < 8; i++ {
		fx := p.Eval(x)
		if fx == 0 {
			return x
		}
		dx := d.Eval(x)
		if dx == 0 {
			return x
		}
		step := fx / dx
		xn := x - step
		if math.Abs(p.Eval(xn)) >= math.Abs(fx) {
			return x
		}
		x = xn
		if math.Abs(step) <= 1e-15*(1+math.Abs(x)) {
			break
		}
	}
	return x
}

func dedupe(r []float64) []float64 {
	sort.Float64s(r)
	out := r[:0]
	for i, v := range r {
		if i > 0 && math.Abs(v-out[len(out)-1]) <= 1e-10*(1+math.Abs(v)) {
			continue
		}
		out = append(out, v)
	}
	return out
}
