// Package convert turns a model file into a normalized mesh module.
package convert

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/Ni-zav/formula/internal/logger"
	"github.com/Ni-zav/formula/pkg/formats"
	"github.com/Ni-zav/formula/pkg/mesh"
	"github.com/Ni-zav/formula/pkg/meshjs"
)

// OutputExt is the extension of written mesh modules.
const OutputExt = ".js"

// Options controls a conversion.
type Options struct {
	TargetSize float64
	OutputDir  string // "" means the current directory
	AllowEmpty bool
}

// DefaultOptions returns the settings used when no config is supplied.
func DefaultOptions() Options {
	return Options{TargetSize: 1.5}
}

// Result summarizes a finished conversion.
type Result struct {
	Input    string
	Output   string
	Format   formats.Format
	Original mesh.Bounds
	Scale    float64
	Vertices int
	Faces    int
}

// OutputPath returns where the module for input is written: the input's base
// name with a .js extension, placed in dir.
func OutputPath(input, dir string) string {
	base := filepath.Base(input)
	base = strings.TrimSuffix(base, filepath.Ext(base)) + OutputExt
	if dir == "" {
		dir = "."
	}
	return filepath.Join(dir, base)
}

// Load parses a model file and rejects meshes without vertices unless allowEmpty.
func Load(path string, allowEmpty bool) (*mesh.Mesh, formats.Format, error) {
	m, f, err := formats.ParseFile(path)
	if err != nil {
		return nil, f, err
	}
	if m.IsEmpty() && !allowEmpty {
		return nil, f, fmt.Errorf("%s: %w", filepath.Base(path), formats.ErrEmptyResult)
	}
	return m, f, nil
}

// File converts input and writes the mesh module to opts.OutputDir.
func File(input string, opts Options) (*Result, error) {
	if opts.TargetSize <= 0 {
		return nil, fmt.Errorf("target size must be positive, got %v", opts.TargetSize)
	}

	m, f, err := Load(input, opts.AllowEmpty)
	if err != nil {
		return nil, err
	}
	logger.Debug("parsed model",
		zap.String("path", input),
		zap.Stringer("format", f),
		zap.Int("vertices", m.VertexCount()),
		zap.Int("faces", m.FaceCount()))

	norm := m.Normalize(opts.TargetSize)
	if norm.Applied {
		size := norm.Original.Size()
		logger.Info("normalized",
			zap.Float64("size_x", size[0]),
			zap.Float64("size_y", size[1]),
			zap.Float64("size_z", size[2]),
			zap.Float64("scale", norm.Scale))
	}

	out := OutputPath(input, opts.OutputDir)
	if opts.OutputDir != "" {
		if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
			return nil, fmt.Errorf("creating output dir: %w", err)
		}
	}
	if err := meshjs.WriteFile(out, m); err != nil {
		return nil, fmt.Errorf("writing %s: %w", out, err)
	}

	logger.Info("wrote mesh module",
		zap.String("output", out),
		zap.Int("vertices", m.VertexCount()),
		zap.Int("faces", m.FaceCount()))

	return &Result{
		Input:    input,
		Output:   out,
		Format:   f,
		Original: norm.Original,
		Scale:    norm.Scale,
		Vertices: m.VertexCount(),
		Faces:    m.FaceCount(),
	}, nil
}
