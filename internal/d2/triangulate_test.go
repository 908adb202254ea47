package d2

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"
)

func triArea(pts []r2.Vec, tris [][3]int) float64 {
	var a float64
	for _, t := range tris {
		a += Orient(pts[t[0]], pts[t[1]], pts[t[2]]) / 2
	}
	return a
}

func TestTriangulateSquare(t *testing.T) {
	sq := []r2.Vec{{X: 0, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 1}, {X: 1, Y: 0}} // clockwise on purpose
	pts, tris := Triangulate(sq, nil)
	if len(tris) != 2 {
		t.Fatalf("want 2 triangles, got %d", len(tris))
	}
	if a := triArea(pts, tris); math.Abs(a-1) > 1e-12 {
		t.Errorf("area %g, want 1", a)
	}
}

func TestTriangulateHole(t *testing.T) {
	outer := []r2.Vec{{X: 0, Y: 0}, {X: 4, Y: 0}, {X: 4, Y: 4}, {X: 0, Y: 4}}
	hole := []r2.Vec{{X: 1, Y: 1}, {X: 3, Y: 1}, {X: 3, Y: 3}, {X: 1, Y: 3}}
	pts, tris := Triangulate(outer, [][]r2.Vec{hole})
	for _, tr := range tris {
		if Orient(pts[tr[0]], pts[tr[1]], pts[tr[2]]) <= 0 {
			t.Fatalf("triangle %v not counterclockwise", tr)
		}
	}
	if a := triArea(pts, tris); math.Abs(a-12) > 1e-9 {
		t.Errorf("area %g, want 12", a)
	}
}

func TestCrossings(t *testing.T) {
	sq := []r2.Vec{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}}
	for _, test := range []struct {
		p   r2.Vec
		odd bool
	}{
		{r2.Vec{X: 0.5, Y: 0.5}, true},
		{r2.Vec{X: 1.5, Y: 0.5}, false},
		{r2.Vec{X: -0.5, Y: 0.5}, false},
		{r2.Vec{X: 0.5, Y: 0}, true}, // vertex row counted once
	} {
		got := Crossings(sq, test.p)%2 == 1
		if got != test.odd {
			t.Errorf("point %v: inside=%v want %v", test.p, got, test.odd)
		}
	}
	if a := SignedArea(sq); a != 1 {
		t.Errorf("area %g", a)
	}
}
