package solid

import (
	"math"
	"sort"

	"github.com/soypat/solid/curve"
	"github.com/soypat/solid/internal/d3"
	"github.com/soypat/solid/internal/poly"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// planarCap is a flat face: a region in the xy plane of a local frame.
// Fractions map linearly onto the region's range. A reversed cap swaps
// the roles of u and v so its normal opposes the unreversed orientation.
type planarCap struct {
	toWorld  Transform
	region   *curve.Vector
	lo, size r2.Vec
	reversed bool
}

func newPlanarCap(toWorld Transform, region *curve.Vector, reversed bool) planarCap {
	b := region.Bounds()
	return planarCap{
		toWorld:  toWorld,
		region:   region,
		lo:       r2.Vec{X: b.Min.X, Y: b.Min.Y},
		size:     r2.Vec{X: b.Max.X - b.Min.X, Y: b.Max.Y - b.Min.Y},
		reversed: reversed,
	}
}

// diskCap returns a cap holding the disk of radius r about the local origin.
func diskCap(toWorld Transform, r float64, reversed bool) planarCap {
	return planarCap{
		toWorld:  toWorld,
		region:   curve.NewPath(curve.BoundaryOuter, curve.NewCircle(r3.Vec{}, r3.Vec{Z: 1}, r)),
		lo:       r2.Vec{X: -r, Y: -r},
		size:     r2.Vec{X: 2 * r, Y: 2 * r},
		reversed: reversed,
	}
}

// localToUV maps local xy to fractions.
func (c planarCap) localToUV(x, y float64) (u, v float64) {
	u = safeDiv(x-c.lo.X, c.size.X, 0.5)
	v = safeDiv(y-c.lo.Y, c.size.Y, 0.5)
	if c.reversed {
		u, v = v, u
	}
	return u, v
}

// evaluate returns the cap point and derivatives at fractions u,v.
func (c planarCap) evaluate(u, v float64) (x, du, dv r3.Vec) {
	if c.reversed {
		u, v = v, u
	}
	local := r3.Vec{X: c.lo.X + u*c.size.X, Y: c.lo.Y + v*c.size.Y}
	x = c.toWorld.Transform(local)
	du = c.toWorld.Direction(r3.Vec{X: c.size.X})
	dv = c.toWorld.Direction(r3.Vec{Y: c.size.Y})
	if c.reversed {
		du, dv = dv, du
	}
	return x, du, dv
}

// plane returns the cap plane origin and unit normal of the local xy plane.
func (c planarCap) plane() (origin, normal r3.Vec, ok bool) {
	origin = c.toWorld.Origin()
	normal, ok = d3.SafeUnit(r3.Cross(c.toWorld.Column(0), c.toWorld.Column(1)))
	return origin, normal, ok
}

// planeCoordinates solves p - origin = a*col0 + b*col1 in the least squares sense.
func (c planarCap) planeCoordinates(p r3.Vec) (a, b float64) {
	e0, e1 := c.toWorld.Column(0), c.toWorld.Column(1)
	w := r3.Sub(p, c.toWorld.Origin())
	g00, g01, g11 := r3.Dot(e0, e0), r3.Dot(e0, e1), r3.Dot(e1, e1)
	r0, r1 := r3.Dot(w, e0), r3.Dot(w, e1)
	det := g00*g11 - g01*g01
	a = safeDiv(r0*g11-r1*g01, det, 0)
	b = safeDiv(g00*r1-g01*r0, det, 0)
	return a, b
}

// tol returns the membership tolerance scaled to the region size.
func (c planarCap) tol() float64 {
	return 1e-10 * (1 + math.Max(math.Abs(c.size.X), math.Abs(c.size.Y)))
}

// addRayHits appends the intersection of ray with the cap region.
func (c planarCap) addRayHits(dst []LocationDetail, ray Ray, face FaceIndices, parentID int, minParameter float64) []LocationDetail {
	origin, n, ok := c.plane()
	if !ok {
		return dst
	}
	dn := r3.Dot(ray.Direction, n)
	if math.Abs(dn) <= 1e-14*r3.Norm(ray.Direction) {
		return dst
	}
	t := r3.Dot(r3.Sub(origin, ray.Origin), n) / dn
	if t < minParameter {
		return dst
	}
	p := ray.At(t)
	a, b := c.planeCoordinates(p)
	if c.region.PointInOnOutXY(r3.Vec{X: a, Y: b}, c.tol()) == curve.Out {
		return dst
	}
	u, v := c.localToUV(a, b)
	_, du, dv := c.evaluate(u, v)
	return append(dst, LocationDetail{
		XYZ: p, Face: face, U: u, V: v, UDirection: du, VDirection: dv,
		Pick: t, ParentID: parentID,
	})
}

// closestPoint returns the nearest cap point to x.
func (c planarCap) closestPoint(x r3.Vec, face FaceIndices) (LocationDetail, bool) {
	origin, n, ok := c.plane()
	if !ok {
		return LocationDetail{}, false
	}
	foot := r3.Sub(x, r3.Scale(r3.Dot(r3.Sub(x, origin), n), n))
	a, b := c.planeCoordinates(foot)
	var local r3.Vec
	if c.region.PointInOnOutXY(r3.Vec{X: a, Y: b}, c.tol()) != curve.Out {
		local = r3.Vec{X: a, Y: b}
	} else {
		// Nearest boundary point measured in world space.
		world := c.region.CloneTransformed(c.toWorld)
		loc, ok := world.ClosestPoint(x)
		if !ok {
			return LocationDetail{}, false
		}
		local, _, _ = c.region.ComponentFractionToPoint(loc.Leaf, loc.Fraction)
	}
	u, v := c.localToUV(local.X, local.Y)
	p, du, dv := c.evaluate(u, v)
	return LocationDetail{XYZ: p, Face: face, U: u, V: v, UDirection: du, VDirection: dv}, true
}

// areaProducts returns the world area products of the cap.
func (c planarCap) areaProducts() (Moments, bool) {
	m, ok := c.region.AreaMoments(2)
	if !ok {
		return Moments{}, false
	}
	local := momentsFromIntegrals(
		m[2][0], m[1][1], 0,
		m[0][2], 0,
		0,
		m[1][0], m[0][1], 0, m[0][0],
	)
	jac := r3.Norm(r3.Cross(c.toWorld.Column(0), c.toWorld.Column(1)))
	return local.Transformed(c.toWorld).Scale(jac), true
}

// polygonsUV strokes the cap region into fraction space polygons.
func (c planarCap) polygonsUV(angTol, maxEdge float64) []curve.Polygon {
	// Edge length is measured in world space; scale it into local.
	if maxEdge > 0 {
		s := math.Max(r3.Norm(c.toWorld.Column(0)), r3.Norm(c.toWorld.Column(1)))
		maxEdge = safeDiv(maxEdge, s, 0)
	}
	pgs := c.region.Polygons(angTol, maxEdge)
	toUV := func(loop []r2.Vec) {
		for i, p := range loop {
			u, v := c.localToUV(p.X, p.Y)
			loop[i] = r2.Vec{X: u, Y: v}
		}
	}
	for _, pg := range pgs {
		toUV(pg.Outer)
		for _, h := range pg.Holes {
			toUV(h)
		}
	}
	return pgs
}

// section returns the cap's parameter line at the fixed fraction,
// clipped to the region. fixU selects a constant u line.
func (c planarCap) section(fixed float64, fixU bool) (*curve.Vector, bool) {
	if c.reversed {
		fixU = !fixU
	}
	var origin, normal r3.Vec
	along := func(p r3.Vec) float64 { return p.X }
	if fixU {
		origin, normal = r3.Vec{X: c.lo.X + fixed*c.size.X}, r3.Vec{X: 1}
		along = func(p r3.Vec) float64 { return p.Y }
	} else {
		origin, normal = r3.Vec{Y: c.lo.Y + fixed*c.size.Y}, r3.Vec{Y: 1}
	}
	locs := c.region.AppendPlaneIntersections(nil, origin, normal)
	sort.Slice(locs, func(i, j int) bool { return along(locs[i].Point) < along(locs[j].Point) })
	var prims []curve.Primitive
	for i := 0; i+1 < len(locs); i++ {
		p0, p1 := locs[i].Point, locs[i+1].Point
		if d3.Dist(p0, p1) <= c.tol() {
			continue
		}
		if c.region.PointInOnOutXY(d3.Lerp(p0, p1, 0.5), c.tol()) != curve.In {
			continue
		}
		prims = append(prims, &curve.Line{P0: c.toWorld.Transform(p0), P1: c.toWorld.Transform(p1)})
	}
	if len(prims) == 0 {
		return nil, false
	}
	return curve.NewPath(curve.BoundaryNone, prims...), true
}

func safeDiv(num, den, fallback float64) float64 { return poly.SafeDiv(num, den, fallback) }
