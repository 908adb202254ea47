package poly

import (
	"math"
	"sort"
)

// Trig is a trigonometric polynomial in theta written as a rational
// function of w = tan(theta/2):
//
//	f(theta) = Num(w) / (1+w^2)^Den
//
// using cos = (1-w^2)/(1+w^2) and sin = 2w/(1+w^2).
type Trig struct {
	Num Poly
	Den int
}

// TrigConst returns the constant trig polynomial a.
func TrigConst(a float64) Trig { return Trig{Num: Poly{a}} }

// TrigLinear returns a + b*cos(theta) + c*sin(theta).
func TrigLinear(a, b, c float64) Trig {
	return Trig{Num: Poly{a + b, 2 * c, a - b}, Den: 1}
}

var onePlusW2 = Poly{1, 0, 1}

func (t Trig) lift(den int) Trig {
	num := t.Num
	for d := t.Den; d < den; d++ {
		num = num.Mul(onePlusW2)
	}
	return Trig{Num: num, Den: den}
}

// Add returns t+u.
func (t Trig) Add(u Trig) Trig {
	den := t.Den
	if u.Den > den {
		den = u.Den
	}
	a, b := t.lift(den), u.lift(den)
	return Trig{Num: a.Num.Add(b.Num), Den: den}
}

// Sub returns t-u.
func (t Trig) Sub(u Trig) Trig { return t.Add(u.Scale(-1)) }

// Mul returns t*u.
func (t Trig) Mul(u Trig) Trig {
	return Trig{Num: t.Num.Mul(u.Num), Den: t.Den + u.Den}
}

// Scale returns k*t.
func (t Trig) Scale(k float64) Trig {
	return Trig{Num: t.Num.Scale(k), Den: t.Den}
}

// padded returns the numerator with exactly 2*Den+1 coefficients.
func (t Trig) padded() Poly {
	n := 2*t.Den + 1
	if len(t.Num) > n {
		n = len(t.Num)
	}
	p := make(Poly, n)
	copy(p, t.Num)
	return p
}

// Eval evaluates the trig polynomial at theta. Angles near pi are
// evaluated through cot(theta/2) to keep precision.
func (t Trig) Eval(theta float64) float64 {
	s, c := math.Sincos(theta / 2)
	p := t.padded()
	k := float64(t.Den)
	if math.Abs(s) <= math.Abs(c) {
		w := s / c
		return p.Eval(w) / math.Pow(1+w*w, k)
	}
	// With z = 1/w the numerator coefficients reverse.
	z := c / s
	r := make(Poly, len(p))
	for i := range p {
		r[len(p)-1-i] = p[i]
	}
	extra := len(p) - 1 - 2*t.Den // degree excess beyond 2k
	v := r.Eval(z) / math.Pow(1+z*z, k)
	if extra > 0 {
		v /= math.Pow(z, float64(extra))
	}
	return v
}

// AngleRoots returns the angles theta in [0, 2pi) where the trig
// polynomial vanishes, ascending. The numerator is solved once in
// w = tan(theta/2) for |theta| <= pi/2 and once in z = cot(theta/2)
// for the remaining half turn, so roots near pi stay accurate.
// A polynomial whose coefficients are all within zeroTol of zero is
// treated as identically zero and reports no roots.
func (t Trig) AngleRoots(zeroTol float64) []float64 {
	p := t.padded()
	if p.MaxAbs() <= zeroTol {
		return nil
	}
	if len(p) > 2*t.Den+1 {
		// Not a trig polynomial of degree Den; fall back to sampling.
		return t.bracketRoots()
	}
	var out []float64
	for _, w := range p.Roots() {
		if math.Abs(w) <= 1+1e-9 {
			out = append(out, normAngle(2*math.Atan(w)))
		}
	}
	r := make(Poly, len(p))
	for i := range p {
		r[len(p)-1-i] = p[i]
	}
	for _, z := range r.Roots() {
		if math.Abs(z) <= 1+1e-9 {
			// theta/2 = atan2(1, z) in (0, pi)
			out = append(out, normAngle(2*math.Atan2(1, z)))
		}
	}
	for i := range out {
		out[i] = t.polish(out[i])
	}
	return dedupeAngles(out)
}

func (t Trig) bracketRoots() []float64 {
	return dedupeAngles(Bracket(t.Eval, 0, 2*math.Pi, 720))
}

func (t Trig) polish(theta float64) float64 {
	const h = 1e-7
	for i := 0; i < 4; i++ {
		f := t.Eval(theta)
		d := (t.Eval(theta+h) - t.Eval(theta-h)) / (2 * h)
		if d == 0 || f == 0 {
			break
		}
		next := theta - f/d
		if math.Abs(t.Eval(next)) >= math.Abs(f) || math.Abs(next-theta) > 1e-3 {
			break
		}
		theta = next
	}
	return normAngle(theta)
}

func normAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a
}

func dedupeAngles(a []float64) []float64 {
	if len(a) == 0 {
		return a
	}
	sort.Float64s(a)
	const tol = 1e-9
	out := a[:1]
	for _, v := range a[1:] {
		if v-out[len(out)-1] > tol {
			out = append(out, v)
		}
	}
	// wrap around
	if len(out) > 1 && out[0]+2*math.Pi-out[len(out)-1] <= tol {
		out = out[:len(out)-1]
	}
	return out
}
