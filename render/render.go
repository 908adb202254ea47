// Package render writes faceted solids to STL files and draws software
// previews of them.
package render

import (
	"io"

	"github.com/soypat/glgl/math/ms3"
	"github.com/soypat/solid/mesh"
	"gonum.org/v1/gonum/spatial/r3"
)

// Renderer streams triangles. ReadTriangles returns io.EOF once every
// triangle has been read.
type Renderer interface {
	ReadTriangles(dst []ms3.Triangle) (int, error)
}

// PolyfaceRenderer streams the facets of a mesh as float32 triangles.
type PolyfaceRenderer struct {
	m    *mesh.Polyface
	next int
}

var _ Renderer = (*PolyfaceRenderer)(nil)

// NewPolyfaceRenderer returns a Renderer over the facets of m.
func NewPolyfaceRenderer(m *mesh.Polyface) *PolyfaceRenderer {
	return &PolyfaceRenderer{m: m}
}

func (r *PolyfaceRenderer) ReadTriangles(dst []ms3.Triangle) (n int, err error) {
	for n < len(dst) && r.next < len(r.m.Facets) {
		t := r.m.Triangle(r.next)
		dst[n] = ms3.Triangle{vec32(t[0]), vec32(t[1]), vec32(t[2])}
		n++
		r.next++
	}
	if r.next == len(r.m.Facets) {
		err = io.EOF
	}
	return n, err
}

func vec32(v r3.Vec) ms3.Vec {
	return ms3.Vec{X: float32(v.X), Y: float32(v.Y), Z: float32(v.Z)}
}
