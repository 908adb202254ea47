package d3

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Box is a 3d axis aligned range. The zero value is not empty,
// use EmptyBox to start accumulating points.
type Box r3.Box

// EmptyBox returns a box that contains nothing. Including
// any point into it yields a degenerate box at that point.
func EmptyBox() Box {
	inf := math.Inf(1)
	return Box{Min: Elem(inf), Max: Elem(-inf)}
}

// IsEmpty reports whether the box has been given no points.
func (a Box) IsEmpty() bool {
	return a.Min.X > a.Max.X || a.Min.Y > a.Max.Y || a.Min.Z > a.Max.Z
}

// Equals test the equality of 3d boxes.
func (a Box) Equals(b Box, tol float64) bool {
	return EqualWithin(a.Min, b.Min, tol) && EqualWithin(a.Max, b.Max, tol)
}

// Extend returns a box enclosing two 3d boxes.
func (a Box) Extend(b Box) Box {
	if b.IsEmpty() {
		return a
	}
	return Box{
		Min: MinElem(a.Min, b.Min),
		Max: MaxElem(a.Max, b.Max),
	}
}

// Include enlarges a 3d box to include a point.
func (a Box) Include(v ...r3.Vec) Box {
	for i := range v {
		a.Min = MinElem(a.Min, v[i])
		a.Max = MaxElem(a.Max, v[i])
	}
	return a
}

// Size returns the size of a 3d box.
func (a Box) Size() r3.Vec {
	return r3.Sub(a.Max, a.Min)
}

// Center returns the center of a 3d box.
func (a Box) Center() r3.Vec {
	return r3.Add(a.Min, r3.Scale(0.5, a.Size()))
}

// Diagonal returns the length of the box diagonal, zero if empty.
func (a Box) Diagonal() float64 {
	if a.IsEmpty() {
		return 0
	}
	return r3.Norm(a.Size())
}

// Contains checks if the 3d box contains the given vector (considering bounds as inside).
func (a Box) Contains(v r3.Vec) bool {
	return a.Min.X <= v.X && a.Min.Y <= v.Y && a.Min.Z <= v.Z &&
		v.X <= a.Max.X && v.Y <= a.Max.Y && v.Z <= a.Max.Z
}

// Vertices returns the 8 corners of the box. Corner i has
// x from Max when bit 0 is set, y when bit 1 is set and z when bit 2 is set.
func (a Box) Vertices() [8]r3.Vec {
	var v [8]r3.Vec
	for i := range v {
		v[i] = a.Min
		if i&1 != 0 {
			v[i].X = a.Max.X
		}
		if i&2 != 0 {
			v[i].Y = a.Max.Y
		}
		if i&4 != 0 {
			v[i].Z = a.Max.Z
		}
	}
	return v
}

// Transformed returns the range of the box's corners after transformation.
func (a Box) Transformed(t Transform) Box {
	if a.IsEmpty() {
		return a
	}
	out := EmptyBox()
	for _, v := range a.Vertices() {
		out = out.Include(t.Transform(v))
	}
	return out
}

// MinMaxDist2 returns the minimum and maximum dist * dist from a point to a box.
// Points within the box have minimum distance = 0.
func (a Box) MinMaxDist2(p r3.Vec) (min, max float64) {
	var dmin, dmax r3.Vec
	for axis := 0; axis < 3; axis++ {
		lo, hi, x := comp(a.Min, axis), comp(a.Max, axis), comp(p, axis)
		var near float64
		switch {
		case x < lo:
			near = lo - x
		case x > hi:
			near = x - hi
		}
		far := math.Max(math.Abs(x-lo), math.Abs(x-hi))
		setComp(&dmin, axis, near)
		setComp(&dmax, axis, far)
	}
	return r3.Norm2(dmin), r3.Norm2(dmax)
}

func comp(v r3.Vec, axis int) float64 {
	switch axis {
	case 0:
		return v.X
	case 1:
		return v.Y
	}
	return v.Z
}

func setComp(v *r3.Vec, axis int, f float64) {
	switch axis {
	case 0:
		v.X = f
	case 1:
		v.Y = f
	default:
		v.Z = f
	}
}
