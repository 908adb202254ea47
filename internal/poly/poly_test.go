package poly

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuadratic(t *testing.T) {
	for _, test := range []struct {
		a, b, c float64
		want    []float64
	}{
		{1, -3, 2, []float64{1, 2}},
		{1, 2, 1, []float64{-1}},
		{1, 0, 1, nil},
		{0, 2, -4, []float64{2}},
		{0, 0, 5, nil},
		{1e-20, 1, -1, []float64{1}},
	} {
		got := Quadratic(test.a, test.b, test.c)
		require.Len(t, got, len(test.want), "%v", test)
		for i := range got {
			assert.InDelta(t, test.want[i], got[i], 1e-12)
		}
	}
}

func TestQuarticRoots(t *testing.T) {
	// (x-1)(x+2)(x-3)(x-0.5)
	p := Poly{1}.Mul(Poly{-1, 1}).Mul(Poly{2, 1}).Mul(Poly{-3, 1}).Mul(Poly{-0.5, 1})
	got := p.Roots()
	want := []float64{-2, 0.5, 1, 3}
	require.Len(t, got, 4)
	for i := range want {
		assert.InDelta(t, want[i], got[i], 1e-10)
	}
	// x^2 (x^2 + 1) has a double root at zero only.
	got = Poly{0, 0, 1, 0, 1}.Roots()
	require.Len(t, got, 1)
	assert.InDelta(t, 0, got[0], 1e-12)
	in := p.RootsIn(0, 1.5, 1e-12)
	assert.Len(t, in, 2)
}

func TestTrigRoots(t *testing.T) {
	// cos(theta) = 0 at pi/2 and 3pi/2.
	got := TrigLinear(0, 1, 0).AngleRoots(0)
	require.Len(t, got, 2)
	assert.InDelta(t, math.Pi/2, got[0], 1e-10)
	assert.InDelta(t, 3*math.Pi/2, got[1], 1e-10)

	// 1 + cos(theta) vanishes only at pi, where w is unbounded.
	got = TrigLinear(1, 1, 0).AngleRoots(0)
	require.Len(t, got, 1)
	assert.InDelta(t, math.Pi, got[0], 1e-6)

	// cos^2 - 1/4 = 0 at +-pi/3 and +-2pi/3.
	c := TrigLinear(0, 1, 0)
	q := c.Mul(c).Add(TrigConst(-0.25))
	got = q.AngleRoots(0)
	require.Len(t, got, 4)
	for i, want := range []float64{math.Pi / 3, 2 * math.Pi / 3, 4 * math.Pi / 3, 5 * math.Pi / 3} {
		assert.InDelta(t, want, got[i], 1e-9)
	}
	for _, theta := range []float64{0.1, 1, 3, math.Pi, 5} {
		want := math.Cos(theta)*math.Cos(theta) - 0.25
		assert.InDelta(t, want, q.Eval(theta), 1e-12)
	}
	assert.Empty(t, TrigConst(0).AngleRoots(1e-12))
}

func TestBracketAndIntegrate(t *testing.T) {
	roots := Bracket(math.Sin, 0.5, 10, 100)
	require.Len(t, roots, 3)
	for i, r := range roots {
		assert.InDelta(t, float64(i+1)*math.Pi, r, 1e-12)
	}
	got := Integrate(func(x float64) float64 { return x * x * x }, 0, 2, 1, 3)
	assert.InDelta(t, 4.0, got, 1e-12)
	got = Integrate(math.Sin, 0, math.Pi, 4, 8)
	assert.InDelta(t, 2.0, got, 1e-12)
	assert.Equal(t, 7.0, SafeDiv(1, 0, 7))
	assert.Equal(t, 0.5, SafeDiv(1, 2, 7))
}

func TestBracketCloseRoots(t *testing.T) {
	// Both roots fall between the same pair of samples.
	f := func(x float64) float64 { return (x - 0.52) * (x - 0.5201) }
	roots := Bracket(f, 0, 1, 10)
	require.Len(t, roots, 2, "%v", roots)
	assert.InDelta(t, 0.52, roots[0], 1e-9)
	assert.InDelta(t, 0.5201, roots[1], 1e-9)
	// Negative lobe between two samples.
	roots = Bracket(func(x float64) float64 { return -f(x) }, 0, 1, 10)
	require.Len(t, roots, 2, "%v", roots)
	// Roots well apart still come from sign changes only.
	roots = Bracket(func(x float64) float64 { return (x - 0.25) * (x - 0.75) }, 0, 1, 10)
	require.Len(t, roots, 2, "%v", roots)
	assert.InDelta(t, 0.25, roots[0], 1e-12)
	assert.InDelta(t, 0.75, roots[1], 1e-12)
}
