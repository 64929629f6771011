package mesh

import "github.com/go-gl/mathgl/mgl64"

// Bounds is an axis-aligned bounding box.
type Bounds struct {
	Min mgl64.Vec3
	Max mgl64.Vec3
}

// Size returns the box extent on each axis.
func (b Bounds) Size() mgl64.Vec3 {
	return b.Max.Sub(b.Min)
}

// Center returns the per-axis midpoint.
func (b Bounds) Center() mgl64.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// MaxDimension returns the largest of the three extents.
func (b Bounds) MaxDimension() float64 {
	s := b.Size()
	return max(s[0], s[1], s[2])
}

// Bounds computes the bounding box of all vertices. ok is false for an empty mesh.
func (m *Mesh) Bounds() (b Bounds, ok bool) {
	if len(m.Vertices) == 0 {
		return Bounds{}, false
	}
	b.Min = m.Vertices[0].Vec()
	b.Max = b.Min
	for _, v := range m.Vertices[1:] {
		p := v.Vec()
		for i := 0; i < 3; i++ {
			b.Min[i] = min(b.Min[i], p[i])
			b.Max[i] = max(b.Max[i], p[i])
		}
	}
	return b, true
}

// NormalizeResult describes the transform applied by Normalize.
type NormalizeResult struct {
	Original Bounds
	Center   mgl64.Vec3
	Scale    float64
	Applied  bool
}

// Normalize recenters the mesh on the origin and scales it uniformly so its
// longest bounding-box dimension equals targetSize. A degenerate box with zero
// extent keeps scale 1. Empty meshes are left untouched.
func (m *Mesh) Normalize(targetSize float64) NormalizeResult {
	b, ok := m.Bounds()
	if !ok {
		return NormalizeResult{Scale: 1}
	}

	center := b.Center()
	scale := 1.0
	if d := b.MaxDimension(); d > 0 {
		scale = targetSize / d
	}

	for i, v := range m.Vertices {
		m.Vertices[i] = FromVec(v.Vec().Sub(center).Mul(scale))
	}

	return NormalizeResult{Original: b, Center: center, Scale: scale, Applied: true}
}
