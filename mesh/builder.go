// Package mesh facets solid primitives into indexed triangle meshes.
//
// Side faces are sampled on a regular parameter grid whose density
// follows the curvature of the face's constant-parameter sections.
// Planar caps are triangulated from their stroked regions so holes and
// non-convex profiles are preserved.
package mesh

import (
	"errors"
	"fmt"
	"math"
	"math/bits"
	"sort"

	"github.com/soypat/solid"
	"github.com/soypat/solid/curve"
	"github.com/soypat/solid/internal/d2"
	"github.com/soypat/solid/internal/d3"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

var _ solid.MeshBuilder = (*Builder)(nil)

// ErrNoFacets is returned when a primitive yields no triangles.
var ErrNoFacets = errors.New("primitive produced no facets")

// Builder accumulates faceted primitives into a single Polyface.
type Builder struct {
	opts   Options
	mesh   Polyface
	weld   welder
	nPrims int
}

// NewBuilder returns a builder faceting with opts.
func NewBuilder(opts Options) *Builder {
	return &Builder{opts: opts, weld: welder{tol: opts.weldTol()}}
}

// Polyface returns the mesh built so far. The builder keeps appending
// to it on later calls.
func (b *Builder) Polyface() *Polyface { return &b.mesh }

// AddSolidPrimitive facets every face of p into the mesh.
func (b *Builder) AddSolidPrimitive(p *solid.Primitive) error {
	if p == nil || p.Shape() == nil {
		return errors.New("nil primitive")
	}
	id := b.nPrims
	start := len(b.mesh.Facets)
	firstPoint := len(b.mesh.Points)
	var err error
	switch s := p.Shape().(type) {
	case *solid.Box:
		err = b.addBox(p, s, id)
		if err == nil {
			b.addBoxEdges(s, id, firstPoint)
		}
	default:
		err = b.addFaces(p, id)
	}
	if err != nil {
		return err
	}
	if len(b.mesh.Facets) == start {
		return fmt.Errorf("%s: %w", p.Kind(), ErrNoFacets)
	}
	b.nPrims++
	return nil
}

// addFaces facets side faces on parameter grids and caps from their
// regions.
func (b *Builder) addFaces(p *solid.Primitive, id int) error {
	for _, face := range p.Faces() {
		var err error
		if face.IsCap() {
			err = b.addCap(p, face, id)
		} else {
			nu, nv := b.gridCounts(p, face)
			err = b.addGrid(p, face, id, nu, nv)
		}
		if err != nil {
			return fmt.Errorf("%s face %s: %w", p.Kind(), face, err)
		}
	}
	return nil
}

// addBox facets every box face, caps included, as a grid. Counts are
// chosen per corner axis so neighboring faces split shared edges alike.
func (b *Builder) addBox(p *solid.Primitive, box *solid.Box, id int) error {
	corners := box.Corners()
	var counts [3]int
	for axis := range counts {
		counts[axis] = 1
		edges, _ := solid.BoxAxisEdges(axis)
		if b.opts.MaxEdgeLength <= 0 {
			continue
		}
		var longest float64
		for _, e := range edges {
			c, _, _ := solid.BoxEdge(e)
			longest = math.Max(longest, d3.Dist(corners[c[0]], corners[c[1]]))
		}
		counts[axis] = max(1, int(math.Ceil(longest/b.opts.MaxEdgeLength)))
	}
	for _, face := range p.Faces() {
		nu, nv := 1, 1
		if ua, va, ok := boxFaceAxes(p, face, &corners); ok {
			nu, nv = counts[ua], counts[va]
		}
		if err := b.addGrid(p, face, id, nu, nv); err != nil {
			return fmt.Errorf("box face %s: %w", face, err)
		}
	}
	return nil
}

// boxFaceAxes finds the corner axes that u and v of a box face run
// along by locating the corners at the patch's parameter corners.
func boxFaceAxes(p *solid.Primitive, face solid.FaceIndices, corners *[8]r3.Vec) (uAxis, vAxis int, ok bool) {
	nearest := func(u, v float64) int {
		x, _, _, _ := p.TryUVFractionToXYZ(face, u, v)
		best, bestD := 0, math.Inf(1)
		for i, c := range corners {
			if d := d3.Dist2(x, c); d < bestD {
				best, bestD = i, d
			}
		}
		return best
	}
	k00, k10, k01 := nearest(0, 0), nearest(1, 0), nearest(0, 1)
	du, dv := uint(k00^k10), uint(k00^k01)
	if bits.OnesCount(du) != 1 || bits.OnesCount(dv) != 1 {
		return 0, 0, false
	}
	return bits.TrailingZeros(du), bits.TrailingZeros(dv), true
}

// sectionStrokes returns the chord count needed along a section curve.
func (b *Builder) sectionStrokes(cv *curve.Vector, ok bool) int {
	if !ok || cv == nil {
		return 1
	}
	n := 0
	for _, leaf := range cv.Leaves() {
		n += curve.StrokeCount(leaf, b.opts.angTol(), b.opts.MaxEdgeLength, 1)
	}
	return max(n, 1)
}

// gridCounts chooses the grid size of a side face from sections at the
// start, middle and end of each parameter.
func (b *Builder) gridCounts(p *solid.Primitive, face solid.FaceIndices) (nu, nv int) {
	nu, nv = 1, 1
	for _, f := range [3]float64{0, 0.5, 1} {
		nu = max(nu, b.sectionStrokes(p.GetConstantVSection(face, f)))
		nv = max(nv, b.sectionStrokes(p.GetConstantUSection(face, f)))
	}
	return nu, nv
}

type vertex struct {
	point, normal, param int
}

// addVertex evaluates the face at u,v and stores the point, normal and
// parameter as requested.
func (b *Builder) addVertex(p *solid.Primitive, face solid.FaceIndices, u, v float64) (vertex, bool) {
	x, du, dv, ok := p.TryUVFractionToXYZ(face, u, v)
	if !ok {
		return vertex{}, false
	}
	vx := vertex{normal: -1, param: -1}
	b.mesh.Points, vx.point = b.weld.add(b.mesh.Points, x)
	if b.opts.NeedNormals {
		n, ok := d3.SafeUnit(r3.Cross(du, dv))
		if !ok {
			n = b.poleNormal(p, face, u, v)
		}
		vx.normal = len(b.mesh.Normals)
		b.mesh.Normals = append(b.mesh.Normals, n)
	}
	if b.opts.NeedParams {
		vx.param = len(b.mesh.Params)
		b.mesh.Params = append(b.mesh.Params, r2.Vec{X: u, Y: v})
	}
	return vx, true
}

// poleNormal estimates the normal where a parameter direction collapses,
// as at sphere poles and cone apexes, by stepping into the face.
func (b *Builder) poleNormal(p *solid.Primitive, face solid.FaceIndices, u, v float64) r3.Vec {
	const step = 1e-6
	for _, uv := range [4][2]float64{{u, v + step}, {u, v - step}, {u + step, v}, {u - step, v}} {
		if uv[0] < 0 || uv[0] > 1 || uv[1] < 0 || uv[1] > 1 {
			continue
		}
		_, du, dv, ok := p.TryUVFractionToXYZ(face, uv[0], uv[1])
		if !ok {
			continue
		}
		if n, ok := d3.SafeUnit(r3.Cross(du, dv)); ok {
			return n
		}
	}
	return r3.Vec{}
}

// addTriangle appends a facet unless welding collapsed it.
func (b *Builder) addTriangle(a, c, d vertex, face solid.FaceIndices, id int) {
	if a.point == c.point || c.point == d.point || d.point == a.point {
		return
	}
	b.mesh.Facets = append(b.mesh.Facets, Facet{
		Point:     [3]int{a.point, c.point, d.point},
		Normal:    [3]int{a.normal, c.normal, d.normal},
		Param:     [3]int{a.param, c.param, d.param},
		Face:      face,
		Primitive: id,
	})
}

// addGrid facets a side face on an nu by nv parameter grid. Quads are
// split along the diagonal so triangles follow u x v.
func (b *Builder) addGrid(p *solid.Primitive, face solid.FaceIndices, id, nu, nv int) error {
	grid := make([]vertex, (nu+1)*(nv+1))
	for j := 0; j <= nv; j++ {
		v := float64(j) / float64(nv)
		for i := 0; i <= nu; i++ {
			vx, ok := b.addVertex(p, face, float64(i)/float64(nu), v)
			if !ok {
				return errors.New("face evaluation failed")
			}
			grid[j*(nu+1)+i] = vx
		}
	}
	at := func(i, j int) vertex { return grid[j*(nu+1)+i] }
	for j := 0; j < nv; j++ {
		for i := 0; i < nu; i++ {
			v00, v10, v11, v01 := at(i, j), at(i+1, j), at(i+1, j+1), at(i, j+1)
			b.addTriangle(v00, v10, v11, face, id)
			b.addTriangle(v00, v11, v01, face, id)
		}
	}
	return nil
}

// addCap triangulates the cap region in its parameter space. Triangles
// come out counterclockwise in u,v which is outward for caps.
func (b *Builder) addCap(p *solid.Primitive, face solid.FaceIndices, id int) error {
	polys, ok := p.CapPolygonsUV(face.CapIndex(), b.opts.angTol(), b.opts.MaxEdgeLength)
	if !ok {
		return errors.New("cap has no region")
	}
	for _, pg := range polys {
		pts, tris := d2.Triangulate(pg.Outer, pg.Holes)
		verts := make([]vertex, len(pts))
		for i, uv := range pts {
			vx, ok := b.addVertex(p, face, uv.X, uv.Y)
			if !ok {
				return errors.New("cap evaluation failed")
			}
			verts[i] = vx
		}
		for _, t := range tris {
			b.addTriangle(verts[t[0]], verts[t[1]], verts[t[2]], face, id)
		}
	}
	return nil
}

// addBoxEdges records, for each of the twelve box edges, the mesh points
// lying on it ordered from its first corner.
func (b *Builder) addBoxEdges(box *solid.Box, id, firstPoint int) {
	corners := box.Corners()
	tol := b.weld.tol
	for e := 0; e < 12; e++ {
		c, _, ok := solid.BoxEdge(e)
		if !ok {
			continue
		}
		p0, p1 := corners[c[0]], corners[c[1]]
		seg := r3.Sub(p1, p0)
		l2 := r3.Norm2(seg)
		if l2 == 0 {
			continue
		}
		type onEdge struct {
			index int
			f     float64
		}
		var pts []onEdge
		for i := firstPoint; i < len(b.mesh.Points); i++ {
			x := b.mesh.Points[i]
			f := r3.Dot(r3.Sub(x, p0), seg) / l2
			if f < -tol || f > 1+tol {
				continue
			}
			if d3.Dist(x, r3.Add(p0, r3.Scale(f, seg))) <= tol {
				pts = append(pts, onEdge{i, f})
			}
		}
		sort.Slice(pts, func(i, j int) bool { return pts[i].f < pts[j].f })
		chain := EdgeChain{Primitive: id, Edge: e}
		for _, pt := range pts {
			chain.Points = append(chain.Points, pt.index)
		}
		b.mesh.EdgeChains = append(b.mesh.EdgeChains, chain)
	}
}

// Facet facets the primitives into a fresh mesh.
func Facet(opts Options, prims ...*solid.Primitive) (*Polyface, error) {
	b := NewBuilder(opts)
	for i, p := range prims {
		if err := p.Facet(b); err != nil {
			return nil, fmt.Errorf("primitive %d: %w", i, err)
		}
	}
	return b.Polyface(), nil
}
