package mesh

// Edge is an undirected vertex pair stored with the smaller index first.
type Edge struct {
	A, B int
}

// NewEdge returns the canonical form of the edge between a and b.
func NewEdge(a, b int) Edge {
	if a > b {
		a, b = b, a
	}
	return Edge{A: a, B: b}
}

// UniqueEdges returns every boundary edge of faces exactly once, in the order
// first seen while walking faces in order and each face's edges in index order
// (wrapping last to first).
func UniqueEdges(faces []Face) []Edge {
	seen := make(map[Edge]struct{})
	var edges []Edge
	for _, f := range faces {
		n := len(f)
		if n < 2 {
			continue
		}
		for i := 0; i < n; i++ {
			e := NewEdge(f[i], f[(i+1)%n])
			if _, dup := seen[e]; dup {
				continue
			}
			seen[e] = struct{}{}
			edges = append(edges, e)
		}
	}
	return edges
}

// Edges returns the unique edges of the mesh's faces.
func (m *Mesh) Edges() []Edge {
	return UniqueEdges(m.Faces)
}
