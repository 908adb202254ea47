package curve

import (
	"math"

	"github.com/soypat/solid/internal/d2"
	"github.com/soypat/solid/internal/d3"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// InOut is the result of a point classification against a region.
type InOut int

const (
	Out InOut = iota
	On
	In
)

func (c InOut) String() string {
	switch c {
	case Out:
		return "out"
	case On:
		return "on"
	case In:
		return "in"
	}
	return "invalid"
}

// flattenZ projects onto the xy plane.
var flattenZ = d3.Transform{}.Scale(r3.Vec{}, r3.Vec{X: 1, Y: 1, Z: 0})

// PointInOnOutXY classifies p against the region using only x and y.
// Points within tol of a boundary are On.
func (cv *Vector) PointInOnOutXY(p r3.Vec, tol float64) InOut {
	if cv == nil {
		return Out
	}
	switch cv.Type {
	case BoundaryOuter, BoundaryInner, BoundaryOpen, BoundaryNone:
		if len(cv.Children) == 0 {
			return loopClassify(cv.Primitives, p, tol)
		}
		fallthrough
	case BoundaryParityRegion:
		in := false
		for _, c := range cv.Children {
			switch c.PointInOnOutXY(p, tol) {
			case On:
				return On
			case In:
				in = !in
			}
		}
		if in {
			return In
		}
		return Out
	case BoundaryUnionRegion:
		result := Out
		for _, c := range cv.Children {
			switch c.PointInOnOutXY(p, tol) {
			case In:
				return In
			case On:
				result = On
			}
		}
		return result
	}
	return Out
}

func loopClassify(prims []Primitive, p r3.Vec, tol float64) InOut {
	if len(prims) == 0 {
		return Out
	}
	q := r3.Vec{X: p.X, Y: p.Y}
	for _, prim := range prims {
		flat := prim.Transformed(flattenZ)
		if _, c := flat.Closest(q); d3.Dist(c, q) <= tol {
			return On
		}
	}
	count := 0
	for _, prim := range prims {
		count += crossings(prim, r2.Vec{X: p.X, Y: p.Y})
	}
	if count%2 == 1 {
		return In
	}
	return Out
}

// crossings counts the crossings of p with the +x ray from q using the
// half open rule on segment end heights.
func crossings(p Primitive, q r2.Vec) int {
	seg := func(a, b r3.Vec) int {
		if (a.Y > q.Y) == (b.Y > q.Y) {
			return 0
		}
		x := a.X + (q.Y-a.Y)*(b.X-a.X)/(b.Y-a.Y)
		if x > q.X {
			return 1
		}
		return 0
	}
	switch c := p.(type) {
	case *Line:
		return seg(c.P0, c.P1)
	case *LineString:
		n := 0
		for i := 1; i < len(c.Points); i++ {
			n += seg(c.Points[i-1], c.Points[i])
		}
		return n
	case *Arc:
		// Split into pieces monotone in y.
		fr := []float64{0, 1}
		theta := math.Atan2(c.Vector90.Y, c.Vector0.Y)
		for _, t := range [2]float64{theta, theta + math.Pi} {
			if f, ok := c.AngleToFraction(t, 0); ok && f > 0 && f < 1 {
				fr = append(fr, f)
			}
		}
		sortFloats(fr)
		n := 0
		for i := 1; i < len(fr); i++ {
			a, b := Point(c, fr[i-1]), Point(c, fr[i])
			if (a.Y > q.Y) == (b.Y > q.Y) {
				continue
			}
			f := bisectY(c, fr[i-1], fr[i], a.Y, q.Y)
			if Point(c, f).X > q.X {
				n++
			}
		}
		return n
	}
	m := StrokeCount(p, math.Pi/64, 0, 64)
	n := 0
	prev := Point(p, 0)
	for i := 1; i <= m; i++ {
		next := Point(p, float64(i)/float64(m))
		n += seg(prev, next)
		prev = next
	}
	return n
}

func bisectY(p Primitive, lo, hi, ylo, y float64) float64 {
	above := ylo > y
	for i := 0; i < 80; i++ {
		m := 0.5 * (lo + hi)
		if (Point(p, m).Y > y) == above {
			lo = m
		} else {
			hi = m
		}
	}
	return 0.5 * (lo + hi)
}

func sortFloats(a []float64) {
	for i := 1; i < len(a); i++ {
		for j := i; j > 0 && a[j] < a[j-1]; j-- {
			a[j], a[j-1] = a[j-1], a[j]
		}
	}
}

// quadPanels returns the number of Gauss panels needed to integrate
// smooth functions along p accurately.
func quadPanels(p Primitive) int {
	switch c := p.(type) {
	case *Line:
		return 1
	case *LineString:
		return c.Segments()
	case *Arc:
		return int(math.Ceil(math.Abs(c.Sweep)/(math.Pi/4))) + 1
	case *BSpline:
		return 2 * c.Spans()
	}
	return 16
}

// loopMoments returns the signed integrals of x^a y^b over the area
// enclosed by the loop, for a+b <= maxDeg, by Green's theorem.
func loopMoments(prims []Primitive, maxDeg int) [][]float64 {
	m := newMoments(maxDeg)
	for _, p := range prims {
		panels := quadPanels(p)
		h := 1 / float64(panels)
		for k := 0; k < panels; k++ {
			for i, x := range gaussX8 {
				pt, d := p.Evaluate((float64(k) + x) * h)
				w := gaussW8[i] * h * d.Y
				for a := 0; a <= maxDeg; a++ {
					xa1 := math.Pow(pt.X, float64(a+1)) / float64(a+1)
					yb := 1.0
					for b := 0; a+b <= maxDeg; b++ {
						m[a][b] += w * xa1 * yb
						yb *= pt.Y
					}
				}
			}
		}
	}
	return m
}

func newMoments(maxDeg int) [][]float64 {
	m := make([][]float64, maxDeg+1)
	for a := range m {
		m[a] = make([]float64, maxDeg+1-a)
	}
	return m
}

func addMoments(dst, src [][]float64, k float64) {
	for a := range dst {
		for b := range dst[a] {
			dst[a][b] += k * src[a][b]
		}
	}
}

// AreaMoments returns m[a][b], the integral of x^a y^b over the region
// in the xy plane for a+b <= maxDeg. Loops are oriented so the region
// area m[0][0] is positive. ok is false if the vector does not bound an
// area.
func (cv *Vector) AreaMoments(maxDeg int) (m [][]float64, ok bool) {
	m = newMoments(maxDeg)
	if cv == nil || !cv.IsRegion() {
		return m, false
	}
	switch cv.Type {
	case BoundaryOuter, BoundaryInner:
		if len(cv.Children) == 0 {
			lm := loopMoments(cv.Primitives, maxDeg)
			addMoments(m, lm, sign(lm[0][0]))
			return m, lm[0][0] != 0
		}
		fallthrough
	case BoundaryParityRegion:
		var loops [][][]float64
		outer, maxA := -1, 0.0
		for _, c := range cv.Children {
			lm, ok := c.AreaMoments(maxDeg)
			if !ok {
				continue
			}
			loops = append(loops, lm)
			if lm[0][0] > maxA {
				outer, maxA = len(loops)-1, lm[0][0]
			}
		}
		if outer < 0 {
			return m, false
		}
		for i, lm := range loops {
			k := -1.0
			if i == outer {
				k = 1
			}
			addMoments(m, lm, k)
		}
		return m, m[0][0] > 0
	case BoundaryUnionRegion:
		found := false
		for _, c := range cv.Children {
			if lm, ok := c.AreaMoments(maxDeg); ok {
				addMoments(m, lm, 1)
				found = true
			}
		}
		return m, found
	}
	return m, false
}

func sign(x float64) float64 {
	if x < 0 {
		return -1
	}
	return 1
}

// Polygon is a stroked planar area: an outer loop and holes.
type Polygon struct {
	Outer []r2.Vec
	Holes [][]r2.Vec
}

// Polygons strokes the region into xy polygons.
func (cv *Vector) Polygons(angTol, maxEdge float64) []Polygon {
	if cv == nil {
		return nil
	}
	switch cv.Type {
	case BoundaryOuter, BoundaryInner:
		if len(cv.Children) == 0 {
			return []Polygon{{Outer: strokeLoopXY(cv.Primitives, angTol, maxEdge)}}
		}
		fallthrough
	case BoundaryParityRegion:
		var loops [][]r2.Vec
		outer, maxA := -1, 0.0
		for _, c := range cv.Children {
			for _, pg := range c.Polygons(angTol, maxEdge) {
				loops = append(loops, pg.Outer)
				if a := math.Abs(d2.SignedArea(pg.Outer)); a > maxA {
					outer, maxA = len(loops)-1, a
				}
			}
		}
		if outer < 0 {
			return nil
		}
		pg := Polygon{Outer: loops[outer]}
		for i, l := range loops {
			if i != outer {
				pg.Holes = append(pg.Holes, l)
			}
		}
		return []Polygon{pg}
	case BoundaryUnionRegion:
		var out []Polygon
		for _, c := range cv.Children {
			out = append(out, c.Polygons(angTol, maxEdge)...)
		}
		return out
	}
	return nil
}

// StrokeLoop returns points along the primitives with shared endpoints
// emitted once.
func StrokeLoop(prims []Primitive, angTol, maxEdge float64) []r3.Vec {
	var pts []r3.Vec
	for _, p := range prims {
		n := StrokeCount(p, angTol, maxEdge, 1)
		for i := 0; i <= n; i++ {
			x := Point(p, float64(i)/float64(n))
			if len(pts) > 0 && i == 0 && d3.Dist(pts[len(pts)-1], x) <= 1e-12 {
				continue
			}
			pts = append(pts, x)
		}
	}
	return pts
}

func strokeLoopXY(prims []Primitive, angTol, maxEdge float64) []r2.Vec {
	pts := StrokeLoop(prims, angTol, maxEdge)
	out := make([]r2.Vec, len(pts))
	for i := range pts {
		out[i] = d3.XY(pts[i])
	}
	return d2.OpenLoop(out, 1e-12)
}

// PlanarFrame returns a rigid frame whose xy plane contains every leaf.
// The frame z axis follows the loop orientation (Newell normal) of the
// largest loop; the origin is the first point of the first leaf.
// ok is false if the curves are collinear or not coplanar within tol
// (relative to the curve size).
func (cv *Vector) PlanarFrame(tol float64) (localToWorld Transform, ok bool) {
	leaves := cv.Leaves()
	if len(leaves) == 0 {
		return Transform{}, false
	}
	var all []r3.Vec
	var normal r3.Vec
	bestArea := -1.0
	collect := func(prims []Primitive) {
		pts := StrokeLoop(prims, math.Pi/16, 0)
		all = append(all, pts...)
		n := newell(pts)
		if a := r3.Norm(n); a > bestArea {
			bestArea, normal = a, n
		}
	}
	var walk func(v *Vector)
	walk = func(v *Vector) {
		if len(v.Primitives) > 0 {
			collect(v.Primitives)
		}
		for _, c := range v.Children {
			walk(c)
		}
	}
	walk(cv)
	size := d3.Box(cv.Bounds()).Diagonal()
	if size == 0 {
		return Transform{}, false
	}
	z, ok := d3.SafeUnit(normal)
	if !ok || bestArea <= 1e-14*size*size {
		return Transform{}, false
	}
	origin := all[0]
	far := origin
	for _, p := range all {
		if d3.Dist2(p, origin) > d3.Dist2(far, origin) {
			far = p
		}
		if math.Abs(r3.Dot(r3.Sub(p, origin), z)) > tol*size {
			return Transform{}, false
		}
	}
	xdir := r3.Sub(far, origin)
	xdir = r3.Sub(xdir, r3.Scale(r3.Dot(xdir, z), z))
	x, ok := d3.SafeUnit(xdir)
	if !ok {
		x = d3.Perpendicular(z)
	}
	y := r3.Cross(z, x)
	return d3.FromColumns(x, y, z, origin), true
}

// newell returns twice the vector area of the closed polygon.
func newell(pts []r3.Vec) r3.Vec {
	var n r3.Vec
	for i := range pts {
		n = r3.Add(n, r3.Cross(pts[i], pts[(i+1)%len(pts)]))
	}
	return n
}

// IsRectangle reports whether the vector is a single closed path of
// straight segments forming a rectangle. The corners are returned in
// path order.
func (cv *Vector) IsRectangle(tol float64) (corners [4]r3.Vec, ok bool) {
	if !cv.IsPath() || len(cv.Children) > 0 {
		return corners, false
	}
	var pts []r3.Vec
	add := func(p r3.Vec) {
		if len(pts) == 0 || d3.Dist(pts[len(pts)-1], p) > tol {
			pts = append(pts, p)
		}
	}
	for _, p := range cv.Primitives {
		switch c := p.(type) {
		case *Line:
			add(c.P0)
			add(c.P1)
		case *LineString:
			for _, x := range c.Points {
				add(x)
			}
		default:
			return corners, false
		}
	}
	if len(pts) < 4 || d3.Dist(pts[0], pts[len(pts)-1]) > tol {
		return corners, false
	}
	pts = pts[:len(pts)-1]
	// Remove collinear vertices.
	var v []r3.Vec
	n := len(pts)
	for i := 0; i < n; i++ {
		a, b, c := pts[(i+n-1)%n], pts[i], pts[(i+1)%n]
		if r3.Norm(r3.Cross(r3.Sub(b, a), r3.Sub(c, b))) <= tol*(d3.Dist(a, b)+d3.Dist(b, c)) {
			continue
		}
		v = append(v, b)
	}
	if len(v) != 4 {
		return corners, false
	}
	e0 := r3.Sub(v[1], v[0])
	e1 := r3.Sub(v[2], v[1])
	if math.Abs(r3.Dot(e0, e1)) > tol*r3.Norm(e0)*r3.Norm(e1) {
		return corners, false
	}
	if d3.Dist(r3.Add(v[0], e1), v[3]) > tol*(1+r3.Norm(e1)) {
		return corners, false
	}
	copy(corners[:], v)
	return corners, true
}
