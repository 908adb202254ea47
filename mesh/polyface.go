package mesh

import (
	"github.com/soypat/solid"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// Polyface is an indexed triangle mesh. Points are welded across faces
// and primitives; normals and params are stored per face vertex so
// creases and seams keep their own values.
type Polyface struct {
	Points  []r3.Vec
	Normals []r3.Vec
	Params  []r2.Vec
	Facets  []Facet
	// EdgeChains are the point index chains along the edges of boxes.
	EdgeChains []EdgeChain
}

// Facet is a counterclockwise triangle seen from outside the solid.
// Normal and Param hold -1 when not requested.
type Facet struct {
	Point  [3]int
	Normal [3]int
	Param  [3]int
	Face   solid.FaceIndices
	// Primitive numbers the primitive in the order it was added.
	Primitive int
}

// EdgeChain is a polyline of point indices running along a box edge
// from its first corner to its second.
type EdgeChain struct {
	Primitive int
	Edge      int
	Points    []int
}

// Triangle returns the vertices of facet i.
func (m *Polyface) Triangle(i int) [3]r3.Vec {
	f := m.Facets[i].Point
	return [3]r3.Vec{m.Points[f[0]], m.Points[f[1]], m.Points[f[2]]}
}

// Area returns the total facet area.
func (m *Polyface) Area() float64 {
	var a float64
	for i := range m.Facets {
		t := m.Triangle(i)
		a += r3.Norm(r3.Cross(r3.Sub(t[1], t[0]), r3.Sub(t[2], t[0])))
	}
	return a / 2
}

// Volume returns the signed volume enclosed by the facets. It is only
// meaningful for closed meshes.
func (m *Polyface) Volume() float64 {
	var v float64
	for i := range m.Facets {
		t := m.Triangle(i)
		v += r3.Dot(t[0], r3.Cross(t[1], t[2]))
	}
	return v / 6
}

// OpenEdges returns the number of directed edges without an opposite
// twin. A closed, consistently oriented mesh has none.
func (m *Polyface) OpenEdges() int {
	type edge [2]int
	count := make(map[edge]int)
	for _, f := range m.Facets {
		for k := 0; k < 3; k++ {
			count[edge{f.Point[k], f.Point[(k+1)%3]}]++
		}
	}
	open := 0
	for e, n := range count {
		if count[edge{e[1], e[0]}] != n {
			open++
		}
	}
	return open
}
