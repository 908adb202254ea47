package render

import (
	"io"

	"github.com/soypat/glgl/math/ms3"
)

// RenderAll reads the full contents of a Renderer and returns the slice read.
// It does not return error on io.EOF, like the io.ReadAll implementation.
func RenderAll(r Renderer) ([]ms3.Triangle, error) {
	var err error
	var nt int
	result := make([]ms3.Triangle, 0, 1<<12)
	buf := make([]ms3.Triangle, 1024)
	for {
		nt, err = r.ReadTriangles(buf)
		result = append(result, buf[:nt]...)
		if err != nil {
			break
		}
	}
	if err == io.EOF {
		return result, nil
	}
	return result, err
}

// TriangleBuffer is a Renderer over triangles held in memory.
type TriangleBuffer struct {
	buf []ms3.Triangle
}

// ReadTriangles reads from this buffer.
func (b *TriangleBuffer) ReadTriangles(t []ms3.Triangle) (int, error) {
	n := copy(t, b.buf)
	b.buf = b.buf[n:]
	if len(b.buf) == 0 {
		return n, io.EOF
	}
	return n, nil
}

// Write appends triangles to this buffer.
func (b *TriangleBuffer) Write(t []ms3.Triangle) int {
	b.buf = append(b.buf, t...)
	return len(t)
}

func (b *TriangleBuffer) Len() int { return len(b.buf) }
