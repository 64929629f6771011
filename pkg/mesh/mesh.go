// Package mesh defines the canonical vertex/face representation all format
// parsers converge to, along with the normalization and edge extraction steps
// that prepare a mesh for wireframe rendering.
package mesh

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

var (
	// ErrIndexOutOfRange is returned by Validate when a face references a missing vertex.
	ErrIndexOutOfRange = errors.New("face index out of range")
	// ErrShortFace is returned by Validate for faces with fewer than three indices.
	ErrShortFace = errors.New("face has fewer than 3 indices")
)

// Vertex is a position in model space.
type Vertex struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Vec returns the vertex as a mathgl vector.
func (v Vertex) Vec() mgl64.Vec3 {
	return mgl64.Vec3{v.X, v.Y, v.Z}
}

// FromVec builds a Vertex from a mathgl vector.
func FromVec(p mgl64.Vec3) Vertex {
	return Vertex{X: p[0], Y: p[1], Z: p[2]}
}

// Face is an ordered list of vertex indices.
type Face []int

// Mesh owns an ordered vertex list and an ordered face list.
type Mesh struct {
	Vertices []Vertex
	Faces    []Face
}

// New returns an empty mesh.
func New() *Mesh {
	return &Mesh{Vertices: []Vertex{}, Faces: []Face{}}
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int { return len(m.Vertices) }

// FaceCount returns the number of faces.
func (m *Mesh) FaceCount() int { return len(m.Faces) }

// IsEmpty reports whether the mesh has no vertices.
func (m *Mesh) IsEmpty() bool { return len(m.Vertices) == 0 }

// AppendTriples appends vertices from a flat x,y,z coordinate list.
// A trailing partial triple is ignored.
func (m *Mesh) AppendTriples(coords []float64) {
	for i := 0; i+2 < len(coords); i += 3 {
		m.Vertices = append(m.Vertices, Vertex{X: coords[i], Y: coords[i+1], Z: coords[i+2]})
	}
}

// AddPolygon fan-triangulates face and appends the resulting triangles.
// Faces with fewer than three indices are dropped.
func (m *Mesh) AddPolygon(face Face) {
	m.Faces = append(m.Faces, Triangulate(face)...)
}

// Validate checks that every face has at least three indices and that every
// index references an existing vertex.
func (m *Mesh) Validate() error {
	n := len(m.Vertices)
	for fi, f := range m.Faces {
		if len(f) < 3 {
			return fmt.Errorf("%w: face %d has %d", ErrShortFace, fi, len(f))
		}
		for _, idx := range f {
			if idx < 0 || idx >= n {
				return fmt.Errorf("%w: face %d index %d (vertex count %d)", ErrIndexOutOfRange, fi, idx, n)
			}
		}
	}
	return nil
}

// Clone returns a deep copy of the mesh.
func (m *Mesh) Clone() *Mesh {
	out := &Mesh{
		Vertices: make([]Vertex, len(m.Vertices)),
		Faces:    make([]Face, len(m.Faces)),
	}
	copy(out.Vertices, m.Vertices)
	for i, f := range m.Faces {
		out.Faces[i] = append(Face(nil), f...)
	}
	return out
}

// FlatCoords returns vertex coordinates packed as x0,y0,z0,x1,...
func (m *Mesh) FlatCoords() []float64 {
	out := make([]float64, 0, len(m.Vertices)*3)
	for _, v := range m.Vertices {
		out = append(out, v.X, v.Y, v.Z)
	}
	return out
}

// Triangulate splits a polygon into triangles sharing its first vertex.
// Triangles are returned as-is (copied); faces shorter than 3 yield nil.
func Triangulate(face Face) []Face {
	switch {
	case len(face) < 3:
		return nil
	case len(face) == 3:
		return []Face{{face[0], face[1], face[2]}}
	}
	tris := make([]Face, 0, len(face)-2)
	for i := 1; i < len(face)-1; i++ {
		tris = append(tris, Face{face[0], face[i], face[i+1]})
	}
	return tris
}
