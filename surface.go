package solid

import (
	"math"

	"github.com/soypat/solid/internal/d3"
	"github.com/soypat/solid/internal/poly"
	"gonum.org/v1/gonum/spatial/r3"
)

// surface evaluates a face at fractions u,v.
type surface func(u, v float64) (x, du, dv r3.Vec)

func faceSurface(s Shape, face FaceIndices) surface {
	return func(u, v float64) (x, du, dv r3.Vec) {
		x, du, dv, _ = s.TryUVFractionToXYZ(face, u, v)
		return x, du, dv
	}
}

var gaussX5, gaussW5 = poly.GaussLegendre(5, 0, 1)

// faceAreaProducts integrates the area products of f over the unit
// square using nu by nv panels of 5x5 Gauss points.
func faceAreaProducts(f surface, nu, nv int) Moments {
	var m Moments
	hu, hv := 1/float64(nu), 1/float64(nv)
	for i := 0; i < nu; i++ {
		for j := 0; j < nv; j++ {
			for a, xu := range gaussX5 {
				for b, xv := range gaussX5 {
					u := (float64(i) + xu) * hu
					v := (float64(j) + xv) * hv
					x, du, dv := f(u, v)
					jac := r3.Norm(r3.Cross(du, dv))
					m = m.Add(pointMoments(x, gaussW5[a]*gaussW5[b]*hu*hv*jac))
				}
			}
		}
	}
	return m
}

// faceNewton minimizes |f(u,v)-x| with projected Gauss-Newton steps
// clamped to the unit square.
func faceNewton(f surface, x r3.Vec, u, v float64) (float64, float64) {
	p, du, dv := f(u, v)
	d2 := d3.Dist2(p, x)
	for iter := 0; iter < 40; iter++ {
		r := r3.Sub(p, x)
		g00, g01, g11 := r3.Dot(du, du), r3.Dot(du, dv), r3.Dot(dv, dv)
		b0, b1 := -r3.Dot(r, du), -r3.Dot(r, dv)
		det := g00*g11 - g01*g01
		var su, sv float64
		if math.Abs(det) > 1e-14*(g00*g11+1e-300) {
			su = (b0*g11 - b1*g01) / det
			sv = (g00*b1 - g01*b0) / det
		} else {
			// Singular metric, move along the gradient.
			su = safeDiv(b0, g00, 0)
			sv = safeDiv(b1, g11, 0)
		}
		improved := false
		for k := 0; k < 8; k++ {
			nu, nv := clamp01(u+su), clamp01(v+sv)
			np, ndu, ndv := f(nu, nv)
			if nd := d3.Dist2(np, x); nd < d2 {
				if math.Abs(nu-u)+math.Abs(nv-v) < 1e-14 {
					return nu, nv
				}
				u, v, p, du, dv, d2 = nu, nv, np, ndu, ndv, nd
				improved = true
				break
			}
			su, sv = su/2, sv/2
		}
		if !improved {
			break
		}
	}
	return u, v
}

// faceClosest seeds faceNewton from the nearest points of an n by n
// grid of samples and returns the best converged fractions.
func faceClosest(f surface, x r3.Vec, n int) (u, v float64) {
	type seed struct{ u, v, d float64 }
	var seeds [3]seed
	for i := range seeds {
		seeds[i].d = math.Inf(1)
	}
	for i := 0; i <= n; i++ {
		for j := 0; j <= n; j++ {
			su, sv := float64(i)/float64(n), float64(j)/float64(n)
			p, _, _ := f(su, sv)
			d := d3.Dist2(p, x)
			for k := range seeds {
				if d < seeds[k].d {
					copy(seeds[k+1:], seeds[k:len(seeds)-1])
					seeds[k] = seed{su, sv, d}
					break
				}
			}
		}
	}
	best := math.Inf(1)
	for _, s := range seeds {
		if math.IsInf(s.d, 1) {
			continue
		}
		nu, nv := faceNewton(f, x, s.u, s.v)
		p, _, _ := f(nu, nv)
		if d := d3.Dist2(p, x); d < best {
			best, u, v = d, nu, nv
		}
	}
	return u, v
}

// bilinearRayHits intersects a ray with the bilinear patch
//
//	X(u,v) = p00 + u*e10 + v*e01 + u*v*e11
//
// appending (t,u,v) triples for hits with u,v in [0,1].
func bilinearRayHits(dst [][3]float64, ray Ray, p00, e10, e01, e11 r3.Vec) [][3]float64 {
	dir, ok := d3.SafeUnit(ray.Direction)
	if !ok {
		return dst
	}
	n1 := d3.Perpendicular(dir)
	n2 := r3.Cross(dir, n1)
	w := r3.Sub(p00, ray.Origin)
	coef := func(n r3.Vec) (a, b, c, d float64) {
		return r3.Dot(n, w), r3.Dot(n, e10), r3.Dot(n, e01), r3.Dot(n, e11)
	}
	a1, b1, c1, d1 := coef(n1)
	a2, b2, c2, d2 := coef(n2)
	qa := b1*d2 - b2*d1
	qb := a1*d2 + b1*c2 - a2*d1 - b2*c1
	qc := a1*c2 - a2*c1
	scale := d3.MaxAbs(e10) + d3.MaxAbs(e01) + d3.MaxAbs(e11) + d3.MaxAbs(w)
	if math.Abs(qa)+math.Abs(qb)+math.Abs(qc) <= 1e-14*scale*scale {
		// Ray lies in the patch plane; no isolated hits.
		return dst
	}
	dd := r3.Norm2(ray.Direction)
	for _, u := range poly.Quadratic(qa, qb, qc) {
		if !in01(u, uvTol) {
			continue
		}
		u = clamp01(u)
		den1, den2 := c1+u*d1, c2+u*d2
		var v float64
		if math.Abs(den1) >= math.Abs(den2) {
			v = safeDiv(-(a1 + u*b1), den1, math.NaN())
		} else {
			v = safeDiv(-(a2 + u*b2), den2, math.NaN())
		}
		if math.IsNaN(v) || !in01(v, uvTol) {
			continue
		}
		v = clamp01(v)
		x := r3.Add(p00, r3.Add(r3.Add(r3.Scale(u, e10), r3.Scale(v, e01)), r3.Scale(u*v, e11)))
		t := r3.Dot(r3.Sub(x, ray.Origin), ray.Direction) / dd
		dst = append(dst, [3]float64{t, u, v})
	}
	return dst
}

// ruledPatch returns the bilinear coefficients of the segment pair a0a1, b0b1.
func ruledPatch(a0, a1, b0, b1 r3.Vec) (p00, e10, e01, e11 r3.Vec) {
	p00 = a0
	e10 = r3.Sub(a1, a0)
	e01 = r3.Sub(b0, a0)
	e11 = r3.Add(r3.Sub(b1, b0), r3.Sub(a0, a1))
	return
}

// transformedVolume maps local volume products to world, scaled by
// |det t| so local unit measures become world measures.
func transformedVolume(t Transform, local Moments) Moments {
	return local.Transformed(t).Scale(math.Abs(t.LinearDet()))
}
