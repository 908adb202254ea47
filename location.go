package solid

import (
	"math"
	"sort"

	"github.com/soypat/solid/internal/d3"
	"gonum.org/v1/gonum/spatial/r3"
)

// LocationDetail is a point on a primitive's surface.
type LocationDetail struct {
	XYZ        r3.Vec
	Face       FaceIndices
	U, V       float64
	UDirection r3.Vec
	VDirection r3.Vec
	// Pick is the ray parameter for intersections and the squared
	// distance for closest point queries.
	Pick     float64
	ParentID int
}

// Normal returns the unit surface normal, UDirection x VDirection.
func (d LocationDetail) Normal() (r3.Vec, bool) {
	return d3.SafeUnit(r3.Cross(d.UDirection, d.VDirection))
}

// Ray is a parametric line Origin + t*Direction.
type Ray struct {
	Origin, Direction r3.Vec
}

// At returns the point at parameter t.
func (r Ray) At(t float64) r3.Vec { return r3.Add(r.Origin, r3.Scale(t, r.Direction)) }

// Transformed applies t to the ray. Ray parameters are preserved.
func (r Ray) Transformed(t Transform) Ray {
	return Ray{Origin: t.Transform(r.Origin), Direction: t.Direction(r.Direction)}
}

// sortTail stably sorts dst[from:] by ascending pick parameter.
func sortTail(dst []LocationDetail, from int) {
	tail := dst[from:]
	sort.SliceStable(tail, func(i, j int) bool { return tail[i].Pick < tail[j].Pick })
}

// closest accumulates the nearest candidate to a target point.
type closest struct {
	target r3.Vec
	best   LocationDetail
	found  bool
}

func newClosest(x r3.Vec) *closest {
	return &closest{target: x, best: LocationDetail{Pick: math.Inf(1)}}
}

// offer computes the candidate's squared distance and keeps it if nearer.
func (c *closest) offer(d LocationDetail) {
	d.Pick = d3.Dist2(d.XYZ, c.target)
	if d.Pick < c.best.Pick {
		c.best = d
		c.found = true
	}
}

func (c *closest) result() (LocationDetail, bool) {
	if !c.found {
		return LocationDetail{}, false
	}
	return c.best, true
}

// detail evaluates a face and returns the location at u,v.
func detail(s Shape, face FaceIndices, u, v float64) (LocationDetail, bool) {
	x, du, dv, ok := s.TryUVFractionToXYZ(face, u, v)
	if !ok {
		return LocationDetail{}, false
	}
	return LocationDetail{XYZ: x, Face: face, U: u, V: v, UDirection: du, VDirection: dv}, true
}

// rayHit builds a ray intersection record at parameter t, with the
// tangents taken from the face parameterization.
func rayHit(s Shape, ray Ray, t float64, face FaceIndices, u, v float64, parentID int) LocationDetail {
	d, ok := detail(s, face, u, v)
	if !ok {
		d = LocationDetail{Face: face, U: u, V: v}
	}
	d.XYZ = ray.At(t)
	d.Pick = t
	d.ParentID = parentID
	return d
}

// clamp01 clamps f into [0,1].
func clamp01(f float64) float64 { return math.Max(0, math.Min(1, f)) }

// in01 reports whether f is in [0,1] up to tol.
func in01(f, tol float64) bool { return f >= -tol && f <= 1+tol }

// normAngle returns a in [0, 2pi).
func normAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a
}

// clampAngle maps theta into [0,sweep] choosing the nearer end when
// theta falls outside.
func clampAngle(theta, sweep float64) float64 {
	theta = normAngle(theta)
	if theta <= sweep {
		return theta
	}
	if 2*math.Pi-theta < theta-sweep {
		return 0
	}
	return sweep
}
