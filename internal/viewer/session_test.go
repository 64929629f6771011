package viewer

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Ni-zav/formula/pkg/formats"
	"github.com/Ni-zav/formula/pkg/mesh"
	"github.com/Ni-zav/formula/pkg/meshjs"
)

const triangleOBJ = "v 0 0 0\nv 4 0 0\nv 0 2 0\nf 1 2 3\n"

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestSessionLoad(t *testing.T) {
	s := NewSession(1)
	path := writeFile(t, "tri.obj", triangleOBJ)

	if err := s.Load(path); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.VertexCount() != 3 || s.FaceCount() != 1 {
		t.Errorf("counts = %d/%d, want 3/1", s.VertexCount(), s.FaceCount())
	}
	if len(s.Edges()) != 3 {
		t.Errorf("edges = %d, want 3", len(s.Edges()))
	}
	if len(s.Coords()) != 9 {
		t.Errorf("coords = %d, want 9", len(s.Coords()))
	}
	b, _ := s.Mesh().Bounds()
	if math.Abs(b.MaxDimension()-1) > 1e-9 {
		t.Errorf("loaded mesh not normalized: max dimension %v", b.MaxDimension())
	}
	if !strings.Contains(s.Status(), "tri.obj") {
		t.Errorf("status %q should name the file", s.Status())
	}
}

func TestSessionLoadMeshModule(t *testing.T) {
	m := mesh.New()
	m.AppendTriples([]float64{0, 0, 0, 1, 0, 0, 1, 1, 0, 0, 1, 0})
	m.Faces = []mesh.Face{{0, 1, 2}, {0, 2, 3}}

	path := filepath.Join(t.TempDir(), "quad.js")
	if err := meshjs.WriteFile(path, m); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	s := NewSession(1)
	if err := s.Load(path); err != nil {
		t.Fatalf("Load: %v", err)
	}
	// Shared diagonal is drawn once.
	if len(s.Edges()) != 5 {
		t.Errorf("edges = %d, want 5", len(s.Edges()))
	}
}

func TestSessionKeepsMeshOnFailure(t *testing.T) {
	s := NewSession(1)
	good := writeFile(t, "tri.obj", triangleOBJ)
	if err := s.Load(good); err != nil {
		t.Fatalf("Load: %v", err)
	}
	before := s.Mesh()

	tests := []struct {
		name string
		path string
		want error
	}{
		{"unsupported", writeFile(t, "model.stl", "solid x"), formats.ErrUnsupportedFormat},
		{"malformed", writeFile(t, "bad.obj", "v 1 2\n"), formats.ErrMalformedInput},
		{"empty", writeFile(t, "empty.obj", "# empty\n"), formats.ErrEmptyResult},
		{"empty module", writeFile(t, "empty.js", "const vs = []\nconst fs = []\n"), formats.ErrEmptyResult},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Load(tt.path)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if s.Mesh() != before {
				t.Error("previous mesh was replaced after a failed load")
			}
			if s.Path() != good {
				t.Errorf("path = %s, want %s", s.Path(), good)
			}
			if !strings.HasPrefix(s.Status(), "Failed to load") {
				t.Errorf("status = %q", s.Status())
			}
		})
	}
}

func TestSessionReload(t *testing.T) {
	s := NewSession(1)
	if err := s.Reload(); err == nil {
		t.Error("expected error reloading an empty session")
	}

	path := writeFile(t, "tri.obj", triangleOBJ)
	if err := s.Load(path); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := os.WriteFile(path, []byte(triangleOBJ+"v 0 0 4\nf 1 2 4\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := s.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if s.VertexCount() != 4 || s.FaceCount() != 2 {
		t.Errorf("counts after reload = %d/%d, want 4/2", s.VertexCount(), s.FaceCount())
	}
}

func TestSegments(t *testing.T) {
	s := NewSession(1)
	if got := s.Segments(NewCamera(1, 0), 100, 100, nil); len(got) != 0 {
		t.Errorf("empty session produced %d segments", len(got))
	}

	m := mesh.New()
	m.AppendTriples([]float64{-0.5, 0, 0, 0.5, 0, 0, 0, 0.5, 0})
	m.Faces = []mesh.Face{{0, 1, 2}}
	s.Set(m)

	segs := s.Segments(NewCamera(1, 0), 100, 100, nil)
	if len(segs) != 3 {
		t.Fatalf("segments = %d, want 3", len(segs))
	}
	// Edge (0,1) runs along y=0 through the middle of the window.
	first := segs[0]
	if first.X1 != 25 || first.X2 != 75 || first.Y1 != 50 || first.Y2 != 50 {
		t.Errorf("first segment = %+v", first)
	}

	// Reuses the destination buffer.
	again := s.Segments(NewCamera(1, 0), 100, 100, segs)
	if &again[0] != &segs[0] {
		t.Error("Segments did not reuse dst")
	}
}

func TestSegmentsSkipsHiddenEdges(t *testing.T) {
	m := mesh.New()
	m.AppendTriples([]float64{0, 0, 0, 1, 0, 0, 0, 0, -2})
	m.Faces = []mesh.Face{{0, 1, 2}}

	s := NewSession(1)
	s.Set(m)
	segs := s.Segments(&Camera{Depth: 1}, 100, 100, nil)
	if len(segs) != 1 {
		t.Errorf("segments = %d, want 1 (only the edge in front of the camera)", len(segs))
	}
}

func TestBoxSegments(t *testing.T) {
	s := NewSession(1)
	if got := s.BoxSegments(NewCamera(2, 0), 100, 100, nil); len(got) != 0 {
		t.Errorf("empty session produced %d box segments", len(got))
	}

	m := mesh.New()
	m.AppendTriples([]float64{-0.5, -0.5, -0.5, 0.5, 0.5, 0.5})
	s.Set(m)
	if got := s.BoxSegments(NewCamera(2, 0), 100, 100, nil); len(got) != 12 {
		t.Errorf("box segments = %d, want 12", len(got))
	}
}

func TestFPSCounter(t *testing.T) {
	var c FPSCounter
	start := time.Unix(0, 0)

	if fps := c.Tick(start); fps != 0 {
		t.Errorf("first tick fps = %d, want 0", fps)
	}
	c.Tick(start.Add(500 * time.Millisecond))
	if fps := c.Tick(start.Add(time.Second)); fps != 3 {
		t.Errorf("fps after one second = %d, want 3", fps)
	}
	if fps := c.Tick(start.Add(1500 * time.Millisecond)); fps != 3 {
		t.Errorf("fps mid-window = %d, want 3", fps)
	}
}

func TestTitle(t *testing.T) {
	s := NewSession(1)
	s.Set(&mesh.Mesh{
		Vertices: []mesh.Vertex{{}, {X: 1}, {Y: 1}},
		Faces:    []mesh.Face{{0, 1, 2}},
	})
	if got, want := s.Title(60), "FPS: 60 | Vertices: 3 | Faces: 1"; got != want {
		t.Errorf("Title = %q, want %q", got, want)
	}
}
