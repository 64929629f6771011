package viewer

import (
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Ni-zav/formula/internal/engine/debug"
)

// Segment is a projected edge in window pixels.
type Segment struct {
	X1, Y1, X2, Y2 float32
}

// Segments projects every unique edge of the current mesh for a window of the
// given size, appending to dst[:0]. Edges with an endpoint behind the camera
// are skipped.
func (s *Session) Segments(cam *Camera, width, height int, dst []Segment) []Segment {
	dst = dst[:0]
	if s.mesh == nil {
		return dst
	}

	// Project each vertex once; edges share endpoints heavily.
	n := len(s.coords) / 3
	screen := make([]mgl64.Vec2, n)
	visible := make([]bool, n)
	for i := 0; i < n; i++ {
		p := mgl64.Vec3{s.coords[3*i], s.coords[3*i+1], s.coords[3*i+2]}
		if q, ok := cam.Project(p); ok {
			screen[i] = ToScreen(q, width, height)
			visible[i] = true
		}
	}

	for _, e := range s.edges {
		if !visible[e.A] || !visible[e.B] {
			continue
		}
		a, b := screen[e.A], screen[e.B]
		dst = append(dst, Segment{
			X1: float32(a.X()), Y1: float32(a.Y()),
			X2: float32(b.X()), Y2: float32(b.Y()),
		})
	}
	return dst
}

// BoxSegments projects the bounding box of the current mesh.
func (s *Session) BoxSegments(cam *Camera, width, height int, dst []Segment) []Segment {
	dst = dst[:0]
	if s.mesh == nil {
		return dst
	}
	b, ok := s.mesh.Bounds()
	if !ok {
		return dst
	}
	return ProjectLines(cam, debug.BoundsLines(b, 0), width, height, dst)
}

// ProjectLines appends the projection of each model-space line to dst.
// Lines with an endpoint behind the camera are skipped.
func ProjectLines(cam *Camera, lines []debug.Line, width, height int, dst []Segment) []Segment {
	for _, l := range lines {
		p, ok1 := cam.Project(l[0])
		q, ok2 := cam.Project(l[1])
		if !ok1 || !ok2 {
			continue
		}
		a, b := ToScreen(p, width, height), ToScreen(q, width, height)
		dst = append(dst, Segment{
			X1: float32(a.X()), Y1: float32(a.Y()),
			X2: float32(b.X()), Y2: float32(b.Y()),
		})
	}
	return dst
}

// FPSCounter counts frames over one-second windows.
type FPSCounter struct {
	frames int
	start  time.Time
	fps    int
}

// Tick records a frame at now and returns the rate of the last full second.
func (c *FPSCounter) Tick(now time.Time) int {
	if c.start.IsZero() {
		c.start = now
	}
	c.frames++
	if now.Sub(c.start) >= time.Second {
		c.fps = c.frames
		c.frames = 0
		c.start = now
	}
	return c.fps
}

// Title formats the window title shown while a mesh is on screen.
func (s *Session) Title(fps int) string {
	return fmt.Sprintf("FPS: %d | Vertices: %d | Faces: %d", fps, s.VertexCount(), s.FaceCount())
}
