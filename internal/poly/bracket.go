package poly

import (
	"math"

	"gonum.org/v1/gonum/integrate/quad"
)

// Bracket returns the sorted roots of f in [lo,hi] located by sampling n
// uniform intervals and bisecting every sign change. Samples that are
// exactly zero are reported as roots. Where the samples show a local
// minimum of |f| without a sign change the minimum is searched for, so a
// pair of roots between two samples is still found.
func Bracket(f func(float64) float64, lo, hi float64, n int) []float64 {
	if n < 1 || !(hi > lo) {
		return nil
	}
	xs := make([]float64, n+1)
	fs := make([]float64, n+1)
	h := (hi - lo) / float64(n)
	for i := range xs {
		xs[i] = lo + float64(i)*h
		if i == n {
			xs[i] = hi
		}
		fs[i] = f(xs[i])
	}
	var roots []float64
	for i := range xs {
		if fs[i] == 0 {
			roots = append(roots, xs[i])
			continue
		}
		if i > 0 && fs[i-1] != 0 && (fs[i-1] < 0) != (fs[i] < 0) {
			roots = append(roots, bisect(f, xs[i-1], xs[i], fs[i-1]))
		}
	}
	for i := range xs {
		a, b := max(i-1, 0), min(i+1, n)
		sg := math.Copysign(1, fs[i])
		if fs[i] == 0 || sg*fs[a] <= 0 || sg*fs[b] <= 0 {
			continue
		}
		if sg*fs[a] < sg*fs[i] || sg*fs[b] < sg*fs[i] {
			continue // Not a local minimum of |f|.
		}
		xm, fm := goldenMin(func(x float64) float64 { return sg * f(x) }, xs[a], xs[b])
		switch {
		case fm > 0:
		case fm == 0:
			roots = append(roots, xm)
		default:
			fm *= sg
			roots = append(roots, bisect(f, xs[a], xm, fs[a]), bisect(f, xm, xs[b], fm))
		}
	}
	return dedupe(roots)
}

// goldenMin returns the minimum of a unimodal f on [a,b].
func goldenMin(f func(float64) float64, a, b float64) (x, fx float64) {
	const invPhi = 0.6180339887498949
	c := b - invPhi*(b-a)
	d := a + invPhi*(b-a)
	fc, fd := f(c), f(d)
	for i := 0; i < 80 && b-a > 1e-15*(1+math.Abs(a)); i++ {
		if fc < fd {
			b, d, fd = d, c, fc
			c = b - invPhi*(b-a)
			fc = f(c)
		} else {
			a, c, fc = c, d, fd
			d = a + invPhi*(b-a)
			fd = f(d)
		}
		if fc <= 0 || fd <= 0 {
			break
		}
	}
	if fc < fd {
		return c, fc
	}
	return d, fd
}

func bisect(f func(float64) float64, a, b, fa float64) float64 {
	for i := 0; i < 100; i++ {
		m := 0.5 * (a + b)
		if m == a || m == b {
			break
		}
		fm := f(m)
		if fm == 0 {
			return m
		}
		if (fm < 0) == (fa < 0) {
			a, fa = m, fm
		} else {
			b = m
		}
	}
	return 0.5 * (a + b)
}

// GaussLegendre returns n Gauss-Legendre nodes and weights on [lo,hi].
func GaussLegendre(n int, lo, hi float64) (x, w []float64) {
	x = make([]float64, n)
	w = make([]float64, n)
	quad.Legendre{}.FixedLocations(x, w, lo, hi)
	return x, w
}

// Integrate approximates the integral of f over [lo,hi] with
// panels Gauss-Legendre panels of n points each.
func Integrate(f func(float64) float64, lo, hi float64, panels, n int) float64 {
	if panels < 1 {
		panels = 1
	}
	x, w := GaussLegendre(n, 0, 1)
	h := (hi - lo) / float64(panels)
	var sum float64
	for p := 0; p < panels; p++ {
		a := lo + float64(p)*h
		for i := range x {
			sum += w[i] * h * f(a+x[i]*h)
		}
	}
	return sum
}

// SafeDiv returns num/den, or fallback when the quotient is not
// representable or den is negligible relative to num.
func SafeDiv(num, den, fallback float64) float64 {
	if den == 0 || math.Abs(den) <= 1e-300*math.Abs(num) {
		return fallback
	}
	q := num / den
	if math.IsNaN(q) || math.IsInf(q, 0) {
		return fallback
	}
	return q
}
