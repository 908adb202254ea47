package d2

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// SignedArea returns the signed area of the closed loop. Counterclockwise
// loops have positive area. The closing edge is implied.
func SignedArea(loop []r2.Vec) float64 {
	var a float64
	n := len(loop)
	for i := 0; i < n; i++ {
		a += Cross(loop[i], loop[(i+1)%n])
	}
	return a / 2
}

// Crossings returns the number of loop edges crossed by the ray from p
// in the +x direction. Edges are half open in y so vertices on the
// ray are counted once.
func Crossings(loop []r2.Vec, p r2.Vec) int {
	n := len(loop)
	count := 0
	for i := 0; i < n; i++ {
		a, b := loop[i], loop[(i+1)%n]
		if (a.Y > p.Y) == (b.Y > p.Y) {
			continue
		}
		x := a.X + (p.Y-a.Y)*(b.X-a.X)/(b.Y-a.Y)
		if x > p.X {
			count++
		}
	}
	return count
}

// LoopDist2 returns the squared distance from p to the closed loop boundary.
func LoopDist2(loop []r2.Vec, p r2.Vec) float64 {
	best := math.Inf(1)
	n := len(loop)
	for i := 0; i < n; i++ {
		d2, _ := SegmentDist2(p, loop[i], loop[(i+1)%n])
		best = math.Min(best, d2)
	}
	return best
}

// OpenLoop drops a repeated closing point.
func OpenLoop(loop []r2.Vec, tol float64) []r2.Vec {
	for len(loop) > 1 && EqualWithin(loop[0], loop[len(loop)-1], tol) {
		loop = loop[:len(loop)-1]
	}
	return loop
}
