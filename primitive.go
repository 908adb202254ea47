package solid

import (
	"errors"

	"github.com/soypat/solid/curve"
	"gonum.org/v1/gonum/spatial/r3"
)

// Primitive owns exactly one shape. Queries are forwarded to the shape;
// Simplify may replace it with a more specific kind.
type Primitive struct {
	shape Shape
}

// MeshBuilder receives primitives for faceting.
type MeshBuilder interface {
	AddSolidPrimitive(p *Primitive) error
}

var errNoShape = errors.New("primitive holds no shape")

// NewPrimitive returns a primitive owning s. The primitive takes
// ownership; callers must not mutate s afterwards.
func NewPrimitive(s Shape) *Primitive { return &Primitive{shape: s} }

// Shape returns the held shape. Use a type switch to access its fields.
func (p *Primitive) Shape() Shape { return p.shape }

func (p *Primitive) Kind() Kind { return p.shape.Kind() }

// Clone returns a deep copy. Curve profiles are copied too.
func (p *Primitive) Clone() *Primitive { return &Primitive{shape: p.shape.clone()} }

// TransformInPlace applies t to the shape. Shapes that cannot represent
// the transformed geometry (a sphere band is kept, a torus needs a
// similarity) report false and are left unchanged.
func (p *Primitive) TransformInPlace(t Transform) bool {
	c := p.shape.clone()
	if !c.transformInPlace(t) {
		return false
	}
	p.shape = c
	return true
}

// Facet hands the primitive to the mesh builder.
func (p *Primitive) Facet(b MeshBuilder) error {
	if p.shape == nil {
		return errNoShape
	}
	return b.AddSolidPrimitive(p)
}

func (p *Primitive) TryGetFrame() (localToWorld, worldToLocal Transform, ok bool) {
	return p.shape.TryGetFrame()
}

// TryGetRotationAxis returns the rotation axis for cones, torus pipes
// and rotational sweeps.
func (p *Primitive) TryGetRotationAxis() (center, axis r3.Vec, sweep float64, ok bool) {
	if rs, isRot := p.shape.(RotationalShape); isRot {
		return rs.TryGetRotationAxis()
	}
	return r3.Vec{}, r3.Vec{}, 0, false
}

func (p *Primitive) Range() r3.Box          { return p.shape.Range() }
func (p *Primitive) Faces() []FaceIndices   { return p.shape.Faces() }
func (p *Primitive) Capped() bool           { return p.shape.Capped() }
func (p *Primitive) SetCapped(capped bool)  { p.shape.SetCapped(capped) }
func (p *Primitive) IsClosedVolume() bool   { return p.shape.IsClosedVolume() }

// HasRealCaps reports whether any cap face exists.
func (p *Primitive) HasRealCaps() bool {
	for _, f := range p.shape.Faces() {
		if f.IsCap() {
			return true
		}
	}
	return false
}

func (p *Primitive) TryUVFractionToXYZ(face FaceIndices, u, v float64) (xyz, dXdu, dXdv r3.Vec, ok bool) {
	return p.shape.TryUVFractionToXYZ(face, u, v)
}

func (p *Primitive) AddRayIntersections(dst []LocationDetail, ray Ray, parentID int, minParameter float64) []LocationDetail {
	return p.shape.AddRayIntersections(dst, ray, parentID, minParameter)
}

func (p *Primitive) ClosestPoint(x r3.Vec) (LocationDetail, bool) { return p.shape.ClosestPoint(x) }

func (p *Primitive) ComputeSecondMomentAreaProducts() (Transform, Moments, bool) {
	return p.shape.ComputeSecondMomentAreaProducts()
}

func (p *Primitive) ComputeSecondMomentVolumeProducts() (Transform, Moments, bool) {
	return p.shape.ComputeSecondMomentVolumeProducts()
}

func (p *Primitive) GetConstantUSection(face FaceIndices, u float64) (*curve.Vector, bool) {
	return p.shape.GetConstantUSection(face, u)
}

func (p *Primitive) GetConstantVSection(face FaceIndices, v float64) (*curve.Vector, bool) {
	return p.shape.GetConstantVSection(face, v)
}

// CapRegion returns the frame of cap i and its region in the frame's
// xy plane.
func (p *Primitive) CapRegion(i int) (localToWorld Transform, region *curve.Vector, ok bool) {
	pc, ok := p.shape.planarCap(i)
	if !ok {
		return Transform{}, nil, false
	}
	return pc.toWorld, pc.region, true
}

// CapPolygonsUV strokes cap i into polygons in its fraction space.
func (p *Primitive) CapPolygonsUV(i int, angTol, maxEdge float64) ([]curve.Polygon, bool) {
	pc, ok := p.shape.planarCap(i)
	if !ok {
		return nil, false
	}
	return pc.polygonsUV(angTol, maxEdge), true
}

// IsSameStructureAndGeometry reports whether both primitives hold the
// same kind with the same defining data within tol.
func (p *Primitive) IsSameStructureAndGeometry(other *Primitive, tol float64) bool {
	if other == nil || p.Kind() != other.Kind() || p.Capped() != other.Capped() {
		return false
	}
	near := func(a, b float64) bool { return abs(a-b) <= tol }
	vnear := func(a, b r3.Vec) bool { return near(a.X, b.X) && near(a.Y, b.Y) && near(a.Z, b.Z) }
	switch a := p.shape.(type) {
	case *Box:
		b := other.shape.(*Box)
		return vnear(a.BaseOrigin, b.BaseOrigin) && vnear(a.TopOrigin, b.TopOrigin) &&
			vnear(a.VectorX, b.VectorX) && vnear(a.VectorY, b.VectorY) &&
			near(a.BaseX, b.BaseX) && near(a.BaseY, b.BaseY) && near(a.TopX, b.TopX) && near(a.TopY, b.TopY)
	case *Cone:
		b := other.shape.(*Cone)
		return vnear(a.CenterA, b.CenterA) && vnear(a.CenterB, b.CenterB) &&
			vnear(a.Vector0, b.Vector0) && vnear(a.Vector90, b.Vector90) &&
			near(a.RadiusA, b.RadiusA) && near(a.RadiusB, b.RadiusB)
	case *Sphere:
		b := other.shape.(*Sphere)
		return a.LocalToWorld.Equals(b.LocalToWorld, tol) &&
			near(a.StartLatitude, b.StartLatitude) && near(a.LatitudeSweep, b.LatitudeSweep)
	case *TorusPipe:
		b := other.shape.(*TorusPipe)
		return vnear(a.Center, b.Center) && vnear(a.VectorX, b.VectorX) && vnear(a.VectorY, b.VectorY) &&
			near(a.MajorRadius, b.MajorRadius) && near(a.MinorRadius, b.MinorRadius) && near(a.SweepAngle, b.SweepAngle)
	case *Extrusion:
		b := other.shape.(*Extrusion)
		return vnear(a.ExtrusionVector, b.ExtrusionVector) && sameCurves(a.BaseCurve, b.BaseCurve, tol)
	case *RotationalSweep:
		b := other.shape.(*RotationalSweep)
		return vnear(a.Axis.Origin, b.Axis.Origin) && vnear(a.Axis.Direction, b.Axis.Direction) &&
			near(a.SweepAngle, b.SweepAngle) && sameCurves(a.BaseCurve, b.BaseCurve, tol)
	case *RuledSweep:
		b := other.shape.(*RuledSweep)
		if len(a.SectionCurves) != len(b.SectionCurves) {
			return false
		}
		for i := range a.SectionCurves {
			if !sameCurves(a.SectionCurves[i], b.SectionCurves[i], tol) {
				return false
			}
		}
		return true
	}
	return false
}

// sameCurves compares leaves kind by kind and point by point at a few
// fractions.
func sameCurves(a, b *curve.Vector, tol float64) bool {
	la, lb := a.Leaves(), b.Leaves()
	if len(la) != len(lb) || a.Type != b.Type {
		return false
	}
	for i := range la {
		if la[i].Kind() != lb[i].Kind() {
			return false
		}
		for _, f := range [5]float64{0, 0.25, 0.5, 0.75, 1} {
			pa, pb := curve.Point(la[i], f), curve.Point(lb[i], f)
			if r3.Norm(r3.Sub(pa, pb)) > tol {
				return false
			}
		}
	}
	return true
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
