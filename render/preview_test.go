package render

import (
	"io"
	"math"
	"testing"

	"github.com/soypat/glgl/math/ms3"
	"github.com/soypat/solid"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestToFauxGL(t *testing.T) {
	b, err := solid.NewBoxFromCenterAndSize(r3.Vec{X: 1}, r3.Vec{X: 2, Y: 4, Z: 6}, true)
	m := facetOrFatal(t, b, err)
	fm := ToFauxGL(m)
	if len(fm.Triangles) != len(m.Facets) {
		t.Fatalf("got %d triangles, want %d", len(fm.Triangles), len(m.Facets))
	}
	bb := fm.BoundingBox()
	want := [2][3]float64{{0, -2, -3}, {2, 2, 3}}
	got := [2][3]float64{{bb.Min.X, bb.Min.Y, bb.Min.Z}, {bb.Max.X, bb.Max.Y, bb.Max.Z}}
	for i := range want {
		for k := range want[i] {
			if math.Abs(got[i][k]-want[i][k]) > 1e-12 {
				t.Fatalf("bounding box %v, want %v", got, want)
			}
		}
	}
	for i, tri := range fm.Triangles {
		n := tri.Normal()
		if math.Abs(n.Length()-1) > 1e-9 {
			t.Fatalf("triangle %d normal %v not unit", i, n)
		}
	}
}

func TestPreview(t *testing.T) {
	m := testSphere(t, r3.Vec{Z: 5}, 1)
	fm := ToFauxGL(m)
	img := Preview(fm, IsoView, 64, 48, 2)
	if got := img.Bounds(); got.Dx() != 64 || got.Dy() != 48 {
		t.Fatalf("image bounds %v, want 64x48", got)
	}
	// The mesh passed in is not moved.
	bb := fm.BoundingBox()
	if math.Abs(bb.Min.Z-4) > 1e-9 || math.Abs(bb.Max.Z-6) > 1e-9 {
		t.Errorf("Preview modified input mesh: %v", bb)
	}
	// Center of the frame shows the object, not the background.
	r, g, b, _ := img.At(32, 24).RGBA()
	br, bg, bb2, _ := img.At(0, 0).RGBA()
	if r == br && g == bg && b == bb2 {
		t.Error("center pixel matches background")
	}
	img = Preview(fm, IsoView, 16, 16, 0)
	if got := img.Bounds(); got.Dx() != 16 || got.Dy() != 16 {
		t.Fatalf("image bounds %v, want 16x16", got)
	}
}

func TestRenderAllTriangleBuffer(t *testing.T) {
	var tb TriangleBuffer
	tris := make([]ms3.Triangle, 2500)
	for i := range tris {
		tris[i] = ms3.Triangle{{X: float32(i)}, {X: float32(i) + 1}, {Y: 1}}
	}
	if n := tb.Write(tris); n != len(tris) || tb.Len() != len(tris) {
		t.Fatalf("wrote %d, buffer length %d", n, tb.Len())
	}
	got, err := RenderAll(&tb)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(tris) {
		t.Fatalf("got %d triangles, want %d", len(got), len(tris))
	}
	for i := range got {
		if got[i] != tris[i] {
			t.Fatalf("triangle %d mismatch", i)
		}
	}
	if n, err := tb.ReadTriangles(make([]ms3.Triangle, 1)); n != 0 || err != io.EOF {
		t.Errorf("drained buffer returned %d, %v", n, err)
	}
}

func TestPolyfaceRendererChunks(t *testing.T) {
	m := testSphere(t, r3.Vec{}, 1)
	r := NewPolyfaceRenderer(m)
	buf := make([]ms3.Triangle, 7)
	total := 0
	for {
		n, err := r.ReadTriangles(buf)
		total += n
		if err == io.EOF {
			break
		} else if err != nil {
			t.Fatal(err)
		}
		if n != len(buf) {
			t.Fatalf("short read of %d before EOF", n)
		}
	}
	if total != len(m.Facets) {
		t.Fatalf("read %d triangles, want %d", total, len(m.Facets))
	}
}
