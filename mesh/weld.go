package mesh

import (
	"math"

	"gonum.org/v1/gonum/spatial/kdtree"
	"gonum.org/v1/gonum/spatial/r3"
)

var _ kdtree.Comparable = weldPoint{}

// weldPoint is a mesh point stored in the welding tree.
type weldPoint struct {
	p     r3.Vec
	index int
}

func (a weldPoint) Compare(b kdtree.Comparable, d kdtree.Dim) float64 {
	return comp(a.p, int(d)) - comp(b.(weldPoint).p, int(d))
}

func (a weldPoint) Dims() int { return 3 }

func (a weldPoint) Distance(b kdtree.Comparable) float64 {
	return r3.Norm2(r3.Sub(a.p, b.(weldPoint).p))
}

func comp(v r3.Vec, d int) float64 {
	switch d {
	case 0:
		return v.X
	case 1:
		return v.Y
	}
	return v.Z
}

// welder merges points closer than tol into a single index.
type welder struct {
	tree kdtree.Tree
	tol  float64
}

// find returns the index of a welded point within tol of p.
func (w *welder) find(p r3.Vec) (int, bool) {
	if w.tree.Root == nil {
		return -1, false
	}
	got, d2 := w.tree.Nearest(weldPoint{p: p})
	if got == nil || d2 > w.tol*w.tol || math.IsNaN(d2) {
		return -1, false
	}
	return got.(weldPoint).index, true
}

// add returns the index of p in points, appending it when no welded
// match exists.
func (w *welder) add(points []r3.Vec, p r3.Vec) ([]r3.Vec, int) {
	if i, ok := w.find(p); ok {
		return points, i
	}
	i := len(points)
	w.tree.Insert(weldPoint{p: p, index: i}, false)
	return append(points, p), i
}
