package solid

import "fmt"

// PrimaryIDCap is the Index0 value marking a cap face.
const PrimaryIDCap = -1

// FaceIndices identifies a face of a primitive. Cap faces have Index0 equal
// to PrimaryIDCap and Index1 selecting cap 0 or cap 1. Other faces use
// Index0 for the face family, Index1 for the sub-face (box side group,
// ruled sweep section pair) and Index2 for the component (box side,
// profile leaf).
type FaceIndices struct {
	Index0, Index1, Index2 int
}

// CapFace returns the indices of cap i (0 or 1).
func CapFace(i int) FaceIndices { return FaceIndices{Index0: PrimaryIDCap, Index1: i} }

// SideFace returns the indices of a primary face.
func SideFace(sub, component int) FaceIndices {
	return FaceIndices{Index0: 0, Index1: sub, Index2: component}
}

// IsCap reports whether the face is a cap.
func (f FaceIndices) IsCap() bool { return f.Index0 == PrimaryIDCap }

// CapIndex returns the cap number, -1 if f is not a valid cap.
func (f FaceIndices) CapIndex() int {
	if !f.IsCap() || f.Index1 < 0 || f.Index1 > 1 {
		return -1
	}
	return f.Index1
}

func (f FaceIndices) String() string {
	if f.IsCap() {
		return fmt.Sprintf("cap%d", f.Index1)
	}
	return fmt.Sprintf("(%d,%d,%d)", f.Index0, f.Index1, f.Index2)
}
