// Package viewer holds the state behind the wireframe viewer: the loaded
// mesh with its derived edge list, the spinning camera and frame helpers.
package viewer

import (
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/Ni-zav/formula/internal/convert"
	"github.com/Ni-zav/formula/internal/logger"
	"github.com/Ni-zav/formula/pkg/formats"
	"github.com/Ni-zav/formula/pkg/mesh"
	"github.com/Ni-zav/formula/pkg/meshjs"
)

// Session owns the mesh currently on screen. A load replaces the mesh and
// everything derived from it at once, and only when it succeeds.
type Session struct {
	targetSize float64

	mesh   *mesh.Mesh
	edges  []mesh.Edge
	coords []float64
	path   string
	status string
}

// NewSession creates a session that normalizes loaded meshes to targetSize.
func NewSession(targetSize float64) *Session {
	return &Session{targetSize: targetSize, status: "No model loaded"}
}

// Load reads a model file or a converted mesh module. On failure the
// previous mesh stays in place and the status describes the error.
func (s *Session) Load(path string) error {
	m, err := readMesh(path)
	if err != nil {
		s.status = fmt.Sprintf("Failed to load %s: %v", filepath.Base(path), err)
		logger.Warn("load failed", zap.String("path", path), zap.Error(err))
		return err
	}

	m.Normalize(s.targetSize)
	s.Set(m)
	s.path = path
	s.status = fmt.Sprintf("Loaded %s (%d vertices, %d faces)", filepath.Base(path), m.VertexCount(), m.FaceCount())
	logger.Info("model loaded",
		zap.String("path", path),
		zap.Int("vertices", m.VertexCount()),
		zap.Int("faces", m.FaceCount()),
		zap.Int("edges", len(s.edges)))
	return nil
}

// Reload loads the last successfully loaded path again.
func (s *Session) Reload() error {
	if s.path == "" {
		return fmt.Errorf("nothing to reload")
	}
	return s.Load(s.path)
}

// Set installs m as the current mesh without normalizing it.
func (s *Session) Set(m *mesh.Mesh) {
	s.mesh = m
	s.edges = m.Edges()
	s.coords = m.FlatCoords()
}

func readMesh(path string) (*mesh.Mesh, error) {
	var (
		m   *mesh.Mesh
		err error
	)
	if strings.EqualFold(filepath.Ext(path), convert.OutputExt) {
		m, err = meshjs.ReadFile(path)
	} else {
		m, _, err = convert.Load(path, false)
	}
	if err != nil {
		return nil, err
	}
	if m.IsEmpty() {
		return nil, formats.ErrEmptyResult
	}
	return m, nil
}

// Mesh returns the current mesh, or nil before the first successful load.
func (s *Session) Mesh() *mesh.Mesh { return s.mesh }

// Edges returns the unique edges of the current mesh.
func (s *Session) Edges() []mesh.Edge { return s.edges }

// Coords returns the current vertices as a flat x,y,z buffer.
func (s *Session) Coords() []float64 { return s.coords }

// Path returns the path of the current mesh.
func (s *Session) Path() string { return s.path }

// Status returns a one-line description of the last load.
func (s *Session) Status() string { return s.status }

// VertexCount returns the number of vertices on screen.
func (s *Session) VertexCount() int {
	if s.mesh == nil {
		return 0
	}
	return s.mesh.VertexCount()
}

// FaceCount returns the number of faces on screen.
func (s *Session) FaceCount() int {
	if s.mesh == nil {
		return 0
	}
	return s.mesh.FaceCount()
}
