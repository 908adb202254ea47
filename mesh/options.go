package mesh

import "math"

// Options controls how finely primitives are faceted.
type Options struct {
	// AngleTolerance is the largest angle in radians a single facet may
	// turn through along a curved direction.
	AngleTolerance float64
	// MaxEdgeLength limits facet edge length in world units. Zero
	// disables the limit.
	MaxEdgeLength float64
	// NeedNormals and NeedParams request per-vertex surface normals and
	// face parameters.
	NeedNormals bool
	NeedParams  bool
	// WeldTolerance is the distance under which points are merged.
	WeldTolerance float64
}

// DefaultOptions returns options suitable for previews.
func DefaultOptions() Options {
	return Options{
		AngleTolerance: math.Pi / 12,
		NeedNormals:    true,
		WeldTolerance:  1e-9,
	}
}

func (o Options) angTol() float64 {
	if o.AngleTolerance <= 0 || math.IsNaN(o.AngleTolerance) {
		return math.Pi / 12
	}
	return math.Min(o.AngleTolerance, math.Pi/2)
}

func (o Options) weldTol() float64 {
	if o.WeldTolerance <= 0 {
		return 1e-12
	}
	return o.WeldTolerance
}
