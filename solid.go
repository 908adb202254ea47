// Package solid implements a kernel of parametric solid primitives: boxes,
// cones, spheres, torus pipes, extrusions, rotational sweeps and ruled
// sweeps. Every primitive answers the same queries analytically: range,
// face parameterization, ray and curve intersection, closest point and
// second moment integrals. Primitives are tessellated only when Facet is
// called.
package solid

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/soypat/solid/curve"
	"github.com/soypat/solid/internal/d3"
	"gonum.org/v1/gonum/spatial/r3"
)

// Transform is an affine 4x4 transformation. The zero value is the identity.
type Transform = d3.Transform

// NewFrame returns the affine transform mapping the local point (a,b,c) to
// origin + a*x + b*y + c*z.
func NewFrame(origin, x, y, z r3.Vec) Transform { return d3.FromColumns(x, y, z, origin) }

// Translation returns a pure translation transform.
func Translation(v r3.Vec) Transform { return d3.Translation(v) }

// Rotation returns the rotation by angle radians about the line through
// origin along axis.
func Rotation(origin, axis r3.Vec, angle float64) Transform {
	return d3.Rotation(origin, axis, angle)
}

// Kind identifies a primitive shape.
type Kind int

const (
	KindBox Kind = iota
	KindCone
	KindSphere
	KindTorusPipe
	KindExtrusion
	KindRotationalSweep
	KindRuledSweep
)

func (k Kind) String() string {
	switch k {
	case KindBox:
		return "box"
	case KindCone:
		return "cone"
	case KindSphere:
		return "sphere"
	case KindTorusPipe:
		return "torus pipe"
	case KindExtrusion:
		return "extrusion"
	case KindRotationalSweep:
		return "rotational sweep"
	case KindRuledSweep:
		return "ruled sweep"
	}
	return "unknown kind"
}

// Shape is implemented by the seven primitive details of this package.
// Query methods never modify the receiver.
type Shape interface {
	Kind() Kind
	// TryGetFrame returns the frame mapping the shape's canonical domain
	// to world. ok is false for degenerate geometry, with identity
	// transforms returned.
	TryGetFrame() (localToWorld, worldToLocal Transform, ok bool)
	// Range returns the world axis aligned range of the shape.
	Range() r3.Box
	// Faces lists the faces of the shape, caps included when real.
	Faces() []FaceIndices
	// TryUVFractionToXYZ evaluates the face at fractions u,v returning
	// the point and its partial derivatives. ok is false for an unknown face.
	TryUVFractionToXYZ(face FaceIndices, u, v float64) (xyz, dXdu, dXdv r3.Vec, ok bool)
	// AddRayIntersections appends the hits with parameter >= minParameter
	// sorted by ray parameter.
	AddRayIntersections(dst []LocationDetail, ray Ray, parentID int, minParameter float64) []LocationDetail
	// ClosestPoint returns the point of the surface nearest x. The pick
	// parameter holds the squared distance.
	ClosestPoint(x r3.Vec) (LocationDetail, bool)
	// ComputeSecondMomentAreaProducts returns the surface area products
	// in a local frame such that world = localToWorld * M * localToWorld^T.
	ComputeSecondMomentAreaProducts() (localToWorld Transform, m Moments, ok bool)
	// ComputeSecondMomentVolumeProducts is as ComputeSecondMomentAreaProducts
	// for the enclosed volume.
	ComputeSecondMomentVolumeProducts() (localToWorld Transform, m Moments, ok bool)
	// GetConstantUSection returns the curve of the face at fixed u.
	GetConstantUSection(face FaceIndices, u float64) (*curve.Vector, bool)
	// GetConstantVSection returns the curve of the face at fixed v.
	GetConstantVSection(face FaceIndices, v float64) (*curve.Vector, bool)
	// Capped reports whether open ends are closed with cap faces.
	Capped() bool
	SetCapped(capped bool)
	// IsClosedVolume reports whether the shape bounds a volume.
	IsClosedVolume() bool

	clone() Shape
	transformInPlace(t Transform) bool
	planarCap(i int) (planarCap, bool)
}

// RotationalShape is implemented by shapes swept about an axis.
type RotationalShape interface {
	// TryGetRotationAxis returns the axis with sweep normalized positive.
	TryGetRotationAxis() (center, axis r3.Vec, sweep float64, ok bool)
}

var (
	// ErrDegenerate is returned when defining geometry has no extent.
	ErrDegenerate = errors.New("degenerate geometry")
	// ErrNilCurve is returned when a profile curve is missing.
	ErrNilCurve = errors.New("nil curve vector")
	// ErrNotRegion is returned when a capped sweep's profile bounds no area.
	ErrNotRegion = errors.New("capped profile does not bound an area")
)

// errMsg returns an error with a message, function name and line number.
func errMsg(err error, msg string) error {
	pc, _, line, ok := runtime.Caller(1)
	if !ok {
		return fmt.Errorf("?: %s: %w", msg, err)
	}
	fn := runtime.FuncForPC(pc)
	return fmt.Errorf("%s line %d: %s: %w", fn.Name(), line, msg, err)
}

// Tolerances used by the shape predicates.
const (
	// epsilon is the relative tolerance for geometric equality tests.
	epsilon = 1e-10
	// simplifyTol is the relative tolerance shapes must meet to be
	// reclassified by Simplify.
	simplifyTol = 1e-6
	// poleTol is the distance from a pole under which a latitude has no cap.
	poleTol = 1e-12
	// uvTol is the parametric tolerance for accepting boundary hits.
	uvTol = 1e-10
)
