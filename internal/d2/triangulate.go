package d2

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r2"
)

// Triangulate ear-clips a polygon with holes. The returned points are the
// concatenation of the outer loop and the holes (closing duplicates removed)
// and triangles index into them, counterclockwise. Hole loops are joined to
// the outer loop through bridge edges before clipping.
func Triangulate(outer []r2.Vec, holes [][]r2.Vec) (pts []r2.Vec, tris [][3]int) {
	const tol = 1e-14
	outer = OpenLoop(outer, tol)
	if len(outer) < 3 {
		return nil, nil
	}
	pts = append(pts, outer...)
	ring := make([]int, len(outer))
	for i := range ring {
		ring[i] = i
	}
	if SignedArea(outer) < 0 {
		reverse(ring)
	}
	type hole struct {
		idx  []int
		maxX float64
	}
	var hs []hole
	for _, h := range holes {
		h = OpenLoop(h, tol)
		if len(h) < 3 {
			continue
		}
		base := len(pts)
		pts = append(pts, h...)
		idx := make([]int, len(h))
		maxX := math.Inf(-1)
		for i := range idx {
			idx[i] = base + i
			maxX = math.Max(maxX, h[i].X)
		}
		if SignedArea(h) > 0 {
			reverse(idx)
		}
		hs = append(hs, hole{idx: idx, maxX: maxX})
	}
	sort.Slice(hs, func(i, j int) bool { return hs[i].maxX > hs[j].maxX })
	for _, h := range hs {
		ring = bridge(pts, ring, h.idx)
	}
	return pts, earClip(pts, ring)
}

func reverse(s []int) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

// bridge splices hole into ring by connecting the hole's rightmost vertex
// to a mutually visible ring vertex.
func bridge(pts []r2.Vec, ring, hole []int) []int {
	hm := 0
	for i := range hole {
		if pts[hole[i]].X > pts[hole[hm]].X {
			hm = i
		}
	}
	m := pts[hole[hm]]
	// Nearest ring edge hit by the ray from m in +x.
	best := -1
	bestX := math.Inf(1)
	n := len(ring)
	for i := 0; i < n; i++ {
		a, b := pts[ring[i]], pts[ring[(i+1)%n]]
		if (a.Y < m.Y && b.Y < m.Y) || (a.Y > m.Y && b.Y > m.Y) {
			continue
		}
		var x float64
		if a.Y == b.Y {
			x = math.Min(a.X, b.X)
		} else {
			x = a.X + (m.Y-a.Y)*(b.X-a.X)/(b.Y-a.Y)
		}
		if x >= m.X && x < bestX {
			bestX = x
			if a.X > b.X {
				best = i
			} else {
				best = (i + 1) % n
			}
		}
	}
	if best < 0 {
		// Hole is not inside the ring, pick the closest vertex.
		d := math.Inf(1)
		for i := range ring {
			if dd := r2.Norm2(r2.Sub(pts[ring[i]], m)); dd < d {
				d, best = dd, i
			}
		}
	} else {
		// Reflex ring vertices inside triangle (m, hit, candidate) may block
		// visibility; prefer the one with smallest angle to the ray.
		hit := r2.Vec{X: bestX, Y: m.Y}
		p := pts[ring[best]]
		bestAng := math.Inf(1)
		for i := 0; i < n; i++ {
			q := pts[ring[i]]
			if i == best || q.X < m.X {
				continue
			}
			if !inTriangle(m, hit, p, q) {
				continue
			}
			ang := math.Abs(math.Atan2(q.Y-m.Y, q.X-m.X))
			if ang < bestAng {
				bestAng, best = ang, i
			}
		}
	}
	out := make([]int, 0, len(ring)+len(hole)+2)
	out = append(out, ring[:best+1]...)
	for k := 0; k <= len(hole); k++ {
		out = append(out, hole[(hm+k)%len(hole)])
	}
	out = append(out, ring[best])
	out = append(out, ring[best+1:]...)
	return out
}

func inTriangle(a, b, c, p r2.Vec) bool {
	d1 := Orient(a, b, p)
	d2 := Orient(b, c, p)
	d3 := Orient(c, a, p)
	neg := d1 < 0 || d2 < 0 || d3 < 0
	pos := d1 > 0 || d2 > 0 || d3 > 0
	return !(neg && pos)
}

func earClip(pts []r2.Vec, ring []int) (tris [][3]int) {
	v := append([]int(nil), ring...)
	guard := 0
	for len(v) > 3 {
		n := len(v)
		clipped := false
		for i := 0; i < n; i++ {
			ia, ib, ic := v[(i+n-1)%n], v[i], v[(i+1)%n]
			a, b, c := pts[ia], pts[ib], pts[ic]
			if Orient(a, b, c) <= 0 {
				continue
			}
			if anyInside(pts, v, a, b, c) {
				continue
			}
			tris = append(tris, [3]int{ia, ib, ic})
			v = append(v[:i], v[i+1:]...)
			clipped = true
			break
		}
		if !clipped {
			// Drop a collinear vertex so the loop terminates.
			guard++
			if guard > len(ring) {
				break
			}
			drop := 0
			small := math.Inf(1)
			for i := 0; i < n; i++ {
				o := math.Abs(Orient(pts[v[(i+n-1)%n]], pts[v[i]], pts[v[(i+1)%n]]))
				if o < small {
					small, drop = o, i
				}
			}
			v = append(v[:drop], v[drop+1:]...)
		}
	}
	if len(v) == 3 && Orient(pts[v[0]], pts[v[1]], pts[v[2]]) > 0 {
		tris = append(tris, [3]int{v[0], v[1], v[2]})
	}
	return tris
}

func anyInside(pts []r2.Vec, v []int, a, b, c r2.Vec) bool {
	for _, k := range v {
		p := pts[k]
		if p == a || p == b || p == c {
			continue
		}
		if inTriangle(a, b, c, p) {
			return true
		}
	}
	return false
}
