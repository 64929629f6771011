// Package debug provides debug visualization utilities.
package debug

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/Ni-zav/formula/pkg/mesh"
)

// Line is a segment between two points in model space.
type Line [2]mgl64.Vec3

// BoxLineCount is the number of edges of a box wireframe.
const BoxLineCount = 12

// BoxLines returns the 12 edges of an axis-aligned box.
func BoxLines(lo, hi mgl64.Vec3) []Line {
	corner := func(x, y, z bool) mgl64.Vec3 {
		p := lo
		if x {
			p[0] = hi[0]
		}
		if y {
			p[1] = hi[1]
		}
		if z {
			p[2] = hi[2]
		}
		return p
	}

	lines := make([]Line, 0, BoxLineCount)
	for _, y := range []bool{false, true} {
		// Bottom then top ring
		lines = append(lines,
			Line{corner(false, y, false), corner(true, y, false)},
			Line{corner(true, y, false), corner(true, y, true)},
			Line{corner(true, y, true), corner(false, y, true)},
			Line{corner(false, y, true), corner(false, y, false)},
		)
	}
	for _, c := range [][2]bool{{false, false}, {true, false}, {true, true}, {false, true}} {
		lines = append(lines, Line{corner(c[0], false, c[1]), corner(c[0], true, c[1])})
	}
	return lines
}

// BoundsLines returns the wireframe of b expanded by padding on all sides.
func BoundsLines(b mesh.Bounds, padding float64) []Line {
	pad := mgl64.Vec3{padding, padding, padding}
	return BoxLines(b.Min.Sub(pad), b.Max.Add(pad))
}
