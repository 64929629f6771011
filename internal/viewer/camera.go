package viewer

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Limits applied by the camera adjusters.
const (
	MinDepth = 0.1
	MaxDepth = 20.0
	MaxSpeed = math.Pi / 6
)

// Camera spins the model about the vertical axis and looks at it from a
// fixed distance along +Z.
type Camera struct {
	Angle float64 // Radians
	Depth float64 // Translation added to z before the perspective divide
	Speed float64 // Radians added to Angle per frame
}

// NewCamera returns a camera at angle zero.
func NewCamera(depth, speed float64) *Camera {
	c := &Camera{}
	c.SetDepth(depth)
	c.SetSpeed(speed)
	return c
}

// Advance moves the rotation forward by one frame.
func (c *Camera) Advance() {
	c.Angle = math.Mod(c.Angle+c.Speed, 2*math.Pi)
}

// SetDepth sets the camera distance, clamped to [MinDepth, MaxDepth].
func (c *Camera) SetDepth(d float64) {
	c.Depth = mgl64.Clamp(d, MinDepth, MaxDepth)
}

// SetSpeed sets the rotation speed, clamped to [-MaxSpeed, MaxSpeed].
func (c *Camera) SetSpeed(s float64) {
	c.Speed = mgl64.Clamp(s, -MaxSpeed, MaxSpeed)
}

// Rotate turns p about the Y axis in the xz-plane:
// x' = x cos a - z sin a, z' = x sin a + z cos a.
func (c *Camera) Rotate(p mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Rotate3DY(-c.Angle).Mul3x1(p)
}

// Project rotates p, pushes it Depth units away and divides by z.
// ok is false for points at or behind the camera plane.
func (c *Camera) Project(p mgl64.Vec3) (mgl64.Vec2, bool) {
	r := c.Rotate(p)
	z := r.Z() + c.Depth
	if z <= nearPlane {
		return mgl64.Vec2{}, false
	}
	return mgl64.Vec2{r.X() / z, r.Y() / z}, true
}

const nearPlane = 1e-6

// ToScreen maps normalized device coordinates (-1..1, y up) to pixels
// (0..width, y down).
func ToScreen(p mgl64.Vec2, width, height int) mgl64.Vec2 {
	return mgl64.Vec2{
		(p.X() + 1) / 2 * float64(width),
		(1 - (p.Y()+1)/2) * float64(height),
	}
}
