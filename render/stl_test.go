package render

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/chewxy/math32"
	"github.com/soypat/glgl/math/ms3"
	"github.com/soypat/solid"
	"github.com/soypat/solid/mesh"
	"gonum.org/v1/gonum/spatial/r3"
)

func facetOrFatal(t testing.TB, s solid.Shape, err error) *mesh.Polyface {
	t.Helper()
	if err != nil {
		t.Fatal(err)
	}
	m, err := mesh.Facet(mesh.DefaultOptions(), solid.NewPrimitive(s))
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func testSphere(t testing.TB, center r3.Vec, r float64) *mesh.Polyface {
	s, err := solid.NewSphere(center, r)
	return facetOrFatal(t, s, err)
}

func TestSTLWriteReadback(t *testing.T) {
	const tol = 1e-6
	m := testSphere(t, r3.Vec{X: 1, Y: 2, Z: 3}, 2)
	input, err := RenderAll(NewPolyfaceRenderer(m))
	if err != nil {
		t.Fatal(err)
	}
	if len(input) != len(m.Facets) {
		t.Fatalf("rendered %d triangles, mesh has %d", len(input), len(m.Facets))
	}
	var b bytes.Buffer
	n, err := WriteBinarySTL(&b, input)
	if err != nil {
		t.Fatal(err)
	}
	if want := stlHeaderSize + stlTriangleSize*len(input); n != want || b.Len() != want {
		t.Fatalf("wrote %d bytes, buffer has %d, want %d", n, b.Len(), want)
	}
	output, err := ReadBinarySTL(&b)
	if err != nil {
		t.Fatal(err)
	}
	if len(output) != len(input) {
		t.Fatal("length of triangles written/read not equal")
	}
	for i := range output {
		for k := 0; k < 3; k++ {
			d := ms3.Sub(input[i][k], output[i][k])
			if math32.Abs(d.X) > tol || math32.Abs(d.Y) > tol || math32.Abs(d.Z) > tol {
				t.Fatalf("triangle %d vertex %d: got %v want %v", i, k, output[i][k], input[i][k])
			}
		}
	}
}

func TestCreateSTLMatchesWrite(t *testing.T) {
	cone, err := solid.NewConeFromCenters(r3.Vec{}, r3.Vec{Z: 3}, 1, 0.5, true)
	m := facetOrFatal(t, cone, err)
	path := filepath.Join(t.TempDir(), "frustum.stl")
	if err := CreateSTL(path, NewPolyfaceRenderer(m)); err != nil {
		t.Fatal(err)
	}
	bfile, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	model, err := RenderAll(NewPolyfaceRenderer(m))
	if err != nil {
		t.Fatal(err)
	}
	var b bytes.Buffer
	if _, err = WriteBinarySTL(&b, model); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(b.Bytes(), bfile) {
		t.Fatalf("WriteBinarySTL and CreateSTL output mismatch: %d vs %d bytes", b.Len(), len(bfile))
	}
}

func TestCreateSTLLargeMesh(t *testing.T) {
	opts := mesh.DefaultOptions()
	opts.AngleTolerance = math.Pi / 64
	s, _ := solid.NewSphere(r3.Vec{}, 1)
	m, err := mesh.Facet(opts, solid.NewPrimitive(s))
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Facets) <= trianglesInBuffer {
		t.Fatalf("want more than %d facets to exercise buffering, got %d", trianglesInBuffer, len(m.Facets))
	}
	path := filepath.Join(t.TempDir(), "sphere.stl")
	if err := CreateSTL(path, NewPolyfaceRenderer(m)); err != nil {
		t.Fatal(err)
	}
	fp, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer fp.Close()
	got, err := ReadBinarySTL(fp)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(m.Facets) {
		t.Fatalf("read %d triangles, want %d", len(got), len(m.Facets))
	}
}

func TestReadBinarySTLErrors(t *testing.T) {
	var empty [stlHeaderSize]byte
	if _, err := ReadBinarySTL(bytes.NewReader(empty[:])); err == nil {
		t.Error("expected error for zero triangle count")
	}
	if _, err := ReadBinarySTL(bytes.NewReader(empty[:10])); err == nil {
		t.Error("expected error for short header")
	}

	tri := ms3.Triangle{{X: 0}, {X: 1}, {Y: 1}}
	var b bytes.Buffer
	if _, err := WriteBinarySTL(&b, []ms3.Triangle{tri}); err != nil {
		t.Fatal(err)
	}
	raw := b.Bytes()
	// Flip the stored normal.
	d := stlFromTriangle(tri)
	d.Normal = [3]float32{1, 0, 0}
	d.put(raw[stlHeaderSize:])
	got, err := ReadBinarySTL(bytes.NewReader(raw))
	if !errors.Is(err, ErrNormalMismatch) || len(got) != 1 {
		t.Errorf("want normal mismatch with triangle returned, got %v and %d triangles", err, len(got))
	}
	d.Vertex2[0] = math32.NaN()
	d.put(raw[stlHeaderSize:])
	if _, err = ReadBinarySTL(bytes.NewReader(raw)); err == nil || errors.Is(err, ErrNormalMismatch) {
		t.Errorf("want NaN vertex error, got %v", err)
	}
	if _, err = WriteBinarySTL(&b, nil); err == nil {
		t.Error("expected error writing empty model")
	}
}
