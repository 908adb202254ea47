package curve

import (
	"errors"
	"math"

	"github.com/soypat/solid/internal/d3"
	"github.com/soypat/solid/internal/poly"
	"gonum.org/v1/gonum/spatial/r3"
)

// BoundaryType classifies how a Vector's contents are interpreted.
type BoundaryType int

const (
	// BoundaryNone is an unstructured collection of primitives.
	BoundaryNone BoundaryType = iota
	// BoundaryOpen is a connected open path.
	BoundaryOpen
	// BoundaryOuter is a closed loop bounding an area.
	BoundaryOuter
	// BoundaryInner is a closed loop bounding a hole.
	BoundaryInner
	// BoundaryParityRegion holds loops combined by parity (outer with holes).
	BoundaryParityRegion
	// BoundaryUnionRegion holds disjoint regions.
	BoundaryUnionRegion
)

// Vector is an ordered collection of curve primitives, or of child
// vectors for region types. Leaves are numbered depth first: a vector's
// own primitives first, then each child's leaves in order.
type Vector struct {
	Type       BoundaryType
	Primitives []Primitive
	Children   []*Vector
}

var (
	ErrEmpty    = errors.New("curve vector has no primitives")
	ErrNotPlane = errors.New("curve vector is not planar")
)

// NewPath returns a vector of the given boundary type holding prims.
func NewPath(t BoundaryType, prims ...Primitive) *Vector {
	return &Vector{Type: t, Primitives: prims}
}

// NewRegion returns a region vector holding the child loops.
func NewRegion(t BoundaryType, children ...*Vector) *Vector {
	return &Vector{Type: t, Children: children}
}

// NewRectangle returns the closed counterclockwise rectangle with corner
// origin and sides along x and y, as a single line string.
func NewRectangle(origin, x, y r3.Vec) *Vector {
	return NewPath(BoundaryOuter, &LineString{Points: []r3.Vec{
		origin,
		r3.Add(origin, x),
		d3.Add3(origin, x, y),
		r3.Add(origin, y),
		origin,
	}})
}

// IsRegion reports whether the vector bounds an area.
func (cv *Vector) IsRegion() bool {
	switch cv.Type {
	case BoundaryOuter, BoundaryInner, BoundaryParityRegion, BoundaryUnionRegion:
		return true
	}
	return false
}

// IsPath reports whether the vector is a single connected path.
func (cv *Vector) IsPath() bool {
	return cv.Type == BoundaryOpen || cv.Type == BoundaryOuter || cv.Type == BoundaryInner
}

// Leaves returns the primitives in leaf order.
func (cv *Vector) Leaves() []Primitive {
	if cv == nil {
		return nil
	}
	return cv.appendLeaves(nil)
}

func (cv *Vector) appendLeaves(dst []Primitive) []Primitive {
	dst = append(dst, cv.Primitives...)
	for _, c := range cv.Children {
		if c != nil {
			dst = c.appendLeaves(dst)
		}
	}
	return dst
}

// LeafCount returns the number of leaves.
func (cv *Vector) LeafCount() int {
	if cv == nil {
		return 0
	}
	n := len(cv.Primitives)
	for _, c := range cv.Children {
		n += c.LeafCount()
	}
	return n
}

// FindIndexedLeaf returns the leaf with the given ordinal, nil if out of range.
func (cv *Vector) FindIndexedLeaf(index int) Primitive {
	if cv == nil || index < 0 {
		return nil
	}
	if index < len(cv.Primitives) {
		return cv.Primitives[index]
	}
	index -= len(cv.Primitives)
	for _, c := range cv.Children {
		n := c.LeafCount()
		if index < n {
			return c.FindIndexedLeaf(index)
		}
		index -= n
	}
	return nil
}

// LeafToIndex returns the ordinal of leaf p, compared by identity.
func (cv *Vector) LeafToIndex(p Primitive) (int, bool) {
	for i, leaf := range cv.Leaves() {
		if leaf == p {
			return i, true
		}
	}
	return -1, false
}

// ComponentFractionToPoint evaluates leaf index at fraction f.
func (cv *Vector) ComponentFractionToPoint(index int, f float64) (p, d r3.Vec, ok bool) {
	leaf := cv.FindIndexedLeaf(index)
	if leaf == nil {
		return r3.Vec{}, r3.Vec{}, false
	}
	p, d = leaf.Evaluate(f)
	return p, d, true
}

// Clone returns a deep copy.
func (cv *Vector) Clone() *Vector {
	if cv == nil {
		return nil
	}
	c := &Vector{Type: cv.Type}
	for _, p := range cv.Primitives {
		c.Primitives = append(c.Primitives, p.Clone())
	}
	for _, ch := range cv.Children {
		c.Children = append(c.Children, ch.Clone())
	}
	return c
}

// CloneTransformed returns a deep copy with every primitive transformed.
func (cv *Vector) CloneTransformed(t Transform) *Vector {
	if cv == nil {
		return nil
	}
	c := &Vector{Type: cv.Type}
	for _, p := range cv.Primitives {
		c.Primitives = append(c.Primitives, p.Transformed(t))
	}
	for _, ch := range cv.Children {
		c.Children = append(c.Children, ch.CloneTransformed(t))
	}
	return c
}

// Bounds returns the range of all leaves.
func (cv *Vector) Bounds() r3.Box {
	b := d3.EmptyBox()
	for _, p := range cv.Leaves() {
		b = b.Extend(d3.Box(p.Bounds()))
	}
	return r3.Box(b)
}

// StartEnd returns the start of the first leaf and the end of the last.
func (cv *Vector) StartEnd() (start, end r3.Vec, ok bool) {
	leaves := cv.Leaves()
	if len(leaves) == 0 {
		return r3.Vec{}, r3.Vec{}, false
	}
	start = Point(leaves[0], 0)
	end = Point(leaves[len(leaves)-1], 1)
	return start, end, true
}

// IsClosedPath reports whether the vector is a single path whose ends meet.
func (cv *Vector) IsClosedPath(tol float64) bool {
	if !cv.IsPath() {
		return false
	}
	s, e, ok := cv.StartEnd()
	return ok && d3.Dist(s, e) <= tol
}

// Length returns the summed length of the leaves.
func (cv *Vector) Length() float64 {
	var s float64
	for _, p := range cv.Leaves() {
		s += p.Length()
	}
	return s
}

// Location is a point on a leaf of a curve vector.
type Location struct {
	Leaf      int
	Primitive Primitive
	Fraction  float64
	Point     r3.Vec
}

// ClosestPoint returns the point on the vector's leaves nearest x.
func (cv *Vector) ClosestPoint(x r3.Vec) (Location, bool) {
	best := Location{Leaf: -1}
	bestD := math.Inf(1)
	for i, p := range cv.Leaves() {
		f, q := p.Closest(x)
		if d := d3.Dist2(q, x); d < bestD {
			bestD = d
			best = Location{Leaf: i, Primitive: p, Fraction: f, Point: q}
		}
	}
	return best, best.Leaf >= 0
}

// AppendPlaneIntersections appends the points where the leaves cross the
// plane through origin with the given normal. Leaves lying in the plane
// contribute nothing.
func (cv *Vector) AppendPlaneIntersections(dst []Location, origin, normal r3.Vec) []Location {
	for i, p := range cv.Leaves() {
		for _, f := range PlaneIntersections(p, origin, normal) {
			dst = append(dst, Location{Leaf: i, Primitive: p, Fraction: f, Point: Point(p, f)})
		}
	}
	return dst
}

// PlaneIntersections returns the fractions where p crosses the plane.
func PlaneIntersections(p Primitive, origin, normal r3.Vec) []float64 {
	h := func(x r3.Vec) float64 { return r3.Dot(r3.Sub(x, origin), normal) }
	switch c := p.(type) {
	case *Line:
		return segmentPlane(h(c.P0), h(c.P1), 0, 1, true)
	case *LineString:
		n := c.Segments()
		var out []float64
		for i := 0; i < n; i++ {
			f0, f1 := float64(i)/float64(n), float64(i+1)/float64(n)
			out = append(out, segmentPlane(h(c.Points[i]), h(c.Points[i+1]), f0, f1, i == n-1)...)
		}
		return out
	case *Arc:
		a := h(c.Center)
		b := r3.Dot(c.Vector0, normal)
		s := r3.Dot(c.Vector90, normal)
		r := math.Hypot(b, s)
		if r <= 1e-14*(math.Abs(a)+r3.Norm(c.Vector0)) {
			return nil
		}
		q := -a / r
		if q < -1-1e-12 || q > 1+1e-12 {
			return nil
		}
		q = math.Max(-1, math.Min(1, q))
		phi := math.Atan2(s, b)
		dphi := math.Acos(q)
		var out []float64
		for _, theta := range [2]float64{phi + dphi, phi - dphi} {
			if f, ok := c.AngleToFraction(theta, 1e-12); ok {
				out = append(out, f)
			}
		}
		if len(out) == 2 && math.Abs(out[0]-out[1]) < 1e-12 {
			out = out[:1]
		}
		return out
	}
	off := r3.Dot(origin, normal)
	roots, ok := PieceRoots(p, func(pc Piece) poly.Poly {
		return pc.X.Scale(normal.X).Add(pc.Y.Scale(normal.Y)).Add(pc.Z.Scale(normal.Z)).Add(poly.Poly{-off})
	})
	if ok {
		return roots
	}
	n := StrokeCount(p, math.Pi/16, 0, 32)
	return poly.Bracket(func(f float64) float64 { return h(Point(p, f)) }, 0, 1, n)
}

func segmentPlane(h0, h1, f0, f1 float64, includeEnd bool) []float64 {
	if h0 == 0 && h1 == 0 {
		return nil
	}
	if h0 == 0 {
		return []float64{f0}
	}
	if h1 == 0 {
		if includeEnd {
			return []float64{f1}
		}
		return nil
	}
	if (h0 < 0) == (h1 < 0) {
		return nil
	}
	s := h0 / (h0 - h1)
	return []float64{f0 + s*(f1-f0)}
}
