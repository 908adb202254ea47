package solid

// Box corners are numbered by bits: bit 0 selects the x end, bit 1 the
// y end and bit 2 the top. Faces 0 and 1 are the base and top, faces 2
// through 5 the sides in counterclockwise order seen from the top.

// boxFaceCorners lists each face's corners in (0,0) (1,0) (1,1) (0,1)
// parameter order. Every face's u x v points outward.
var boxFaceCorners = [6][4]int{
	{0, 2, 3, 1},
	{4, 5, 7, 6},
	{0, 1, 5, 4},
	{1, 3, 7, 5},
	{3, 2, 6, 7},
	{2, 0, 4, 6},
}

// boxPartnerFace is the face opposite each face.
var boxPartnerFace = [6]int{1, 0, 4, 5, 2, 3}

// boxFaceDirections gives the corner bit that u and v advance along on
// each face, and the outward normal as axis and sign.
var boxFaceDirections = [6]struct {
	uAxis, vAxis int
	normalAxis   int
	normalSign   int
}{
	{1, 0, 2, -1},
	{0, 1, 2, 1},
	{0, 2, 1, -1},
	{1, 2, 0, 1},
	{0, 2, 1, 1},
	{1, 2, 0, -1},
}

// boxEdges holds each edge's corners and its two adjacent faces, lower
// numbered face first.
var boxEdges = [12]struct {
	corners [2]int
	faces   [2]int
}{
	{[2]int{0, 1}, [2]int{0, 2}},
	{[2]int{1, 3}, [2]int{0, 3}},
	{[2]int{3, 2}, [2]int{0, 4}},
	{[2]int{2, 0}, [2]int{0, 5}},
	{[2]int{4, 5}, [2]int{1, 2}},
	{[2]int{5, 7}, [2]int{1, 3}},
	{[2]int{7, 6}, [2]int{1, 4}},
	{[2]int{6, 4}, [2]int{1, 5}},
	{[2]int{0, 4}, [2]int{2, 5}},
	{[2]int{1, 5}, [2]int{2, 3}},
	{[2]int{3, 7}, [2]int{3, 4}},
	{[2]int{2, 6}, [2]int{4, 5}},
}

// boxAxisEdges lists the four edges parallel to each corner axis.
var boxAxisEdges = [3][4]int{
	{0, 2, 4, 6},
	{1, 3, 5, 7},
	{8, 9, 10, 11},
}

// cornerUV are the parameter coordinates of a face's corner slots.
var cornerUV = [4][2]float64{{0, 0}, {1, 0}, {1, 1}, {0, 1}}

// BoxFaceCorners returns the corner numbers of box face f in parameter
// order, ok false when f is not in [0,6).
func BoxFaceCorners(f int) (corners [4]int, ok bool) {
	if f < 0 || f >= 6 {
		return corners, false
	}
	return boxFaceCorners[f], true
}

// BoxPartnerFace returns the face opposite f.
func BoxPartnerFace(f int) (int, bool) {
	if f < 0 || f >= 6 {
		return -1, false
	}
	return boxPartnerFace[f], true
}

// BoxEdge returns the corner numbers and the adjacent faces of edge e.
func BoxEdge(e int) (corners, faces [2]int, ok bool) {
	if e < 0 || e >= 12 {
		return corners, faces, false
	}
	return boxEdges[e].corners, boxEdges[e].faces, true
}

// BoxAxisEdges returns the edges running along corner axis 0, 1 or 2.
func BoxAxisEdges(axis int) ([4]int, bool) {
	if axis < 0 || axis >= 3 {
		return [4]int{}, false
	}
	return boxAxisEdges[axis], true
}

// boxFaceIndices maps a topology face to its FaceIndices. The base and
// top are caps.
func boxFaceIndices(f int) FaceIndices {
	switch f {
	case 0, 1:
		return CapFace(f)
	}
	return SideFace(0, f-2)
}

// boxFaceFromIndices is the inverse of boxFaceIndices.
func boxFaceFromIndices(face FaceIndices) (int, bool) {
	if face.IsCap() {
		if i := face.CapIndex(); i >= 0 && face.Index2 == 0 {
			return i, true
		}
		return -1, false
	}
	if face.Index0 != 0 || face.Index1 != 0 || face.Index2 < 0 || face.Index2 > 3 {
		return -1, false
	}
	return face.Index2 + 2, true
}

// boxCornerSlot returns the slot of corner c in face f, -1 if absent.
func boxCornerSlot(f, c int) int {
	for i, fc := range boxFaceCorners[f] {
		if fc == c {
			return i
		}
	}
	return -1
}
