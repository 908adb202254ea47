package render

import (
	"image"

	"github.com/fogleman/fauxgl"
	"github.com/nfnt/resize"
	"github.com/soypat/solid/mesh"
	"gonum.org/v1/gonum/spatial/r3"
)

// View places the camera for a preview. The mesh is fit in a bi-unit
// cube centered at the origin before drawing.
type View struct {
	Eye, LookAt, Up r3.Vec
	Near, Far       float64
	// Fovy is the vertical field of view in degrees.
	Fovy float64
}

// IsoView is an isometric view with z up.
var IsoView = View{
	Eye:  r3.Vec{X: 2.4, Y: 2.4, Z: 2.4},
	Up:   r3.Vec{Z: 1},
	Near: 1,
	Far:  10,
	Fovy: 30,
}

// ToFauxGL converts the facets of m to a fauxgl mesh. Vertex normals of
// the polyface are used when present.
func ToFauxGL(m *mesh.Polyface) *fauxgl.Mesh {
	tris := make([]*fauxgl.Triangle, 0, len(m.Facets))
	for i, f := range m.Facets {
		t := m.Triangle(i)
		var v [3]fauxgl.Vertex
		for k := range v {
			v[k].Position = fauxgl.V(t[k].X, t[k].Y, t[k].Z)
			if f.Normal[k] >= 0 {
				n := m.Normals[f.Normal[k]]
				v[k].Normal = fauxgl.V(n.X, n.Y, n.Z)
			}
		}
		tris = append(tris, fauxgl.NewTriangle(v[0], v[1], v[2]))
	}
	return fauxgl.NewTriangleMesh(tris)
}

// Preview draws the mesh with a phong shader. The image is rendered at
// supersample times the size and downscaled for antialiasing.
func Preview(m *fauxgl.Mesh, view View, width, height, supersample int) image.Image {
	if supersample < 1 {
		supersample = 1
	}
	var (
		eye    = fauxgl.V(view.Eye.X, view.Eye.Y, view.Eye.Z)          // camera position
		center = fauxgl.V(view.LookAt.X, view.LookAt.Y, view.LookAt.Z) // view center position
		up     = fauxgl.V(view.Up.X, view.Up.Y, view.Up.Z)             // up vector
		light  = fauxgl.V(-0.75, 1, 0.25).Normalize()                  // light direction
		color  = fauxgl.HexColor("#468966")                            // object color
	)
	m = m.Copy()
	// fit mesh in a bi-unit cube centered at the origin
	m.BiUnitCube()
	context := fauxgl.NewContext(width*supersample, height*supersample)
	context.ClearColorBufferWith(fauxgl.HexColor("#FFF8E3"))
	aspect := float64(width) / float64(height)
	matrix := fauxgl.LookAt(eye, center, up).Perspective(view.Fovy, aspect, view.Near, view.Far)
	shader := fauxgl.NewPhongShader(matrix, light, eye)
	shader.ObjectColor = color
	context.Shader = shader
	context.DrawMesh(m)
	img := context.Image()
	if supersample == 1 {
		return img
	}
	return resize.Resize(uint(width), uint(height), img, resize.Bilinear)
}
