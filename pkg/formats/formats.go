// Package formats provides parsers that convert OBJ, glTF/GLB, Collada and FBX
// files into the canonical mesh representation.
package formats

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Ni-zav/formula/pkg/mesh"
)

// Format identifies a supported source format.
type Format int

const (
	FormatUnknown Format = iota
	FormatOBJ
	FormatGLTF
	FormatGLB
	FormatDAE
	FormatFBX
)

// String returns the conventional extension-style name of the format.
func (f Format) String() string {
	switch f {
	case FormatOBJ:
		return "OBJ"
	case FormatGLTF:
		return "GLTF"
	case FormatGLB:
		return "GLB"
	case FormatDAE:
		return "DAE"
	case FormatFBX:
		return "FBX"
	default:
		return fmt.Sprintf("Unknown(%d)", int(f))
	}
}

// SupportedExtensions lists the file extensions FormatFromPath accepts.
var SupportedExtensions = []string{".obj", ".glb", ".gltf", ".dae", ".fbx"}

// FormatFromPath selects a format by file extension (case-insensitive).
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".obj":
		return FormatOBJ, nil
	case ".gltf":
		return FormatGLTF, nil
	case ".glb":
		return FormatGLB, nil
	case ".dae":
		return FormatDAE, nil
	case ".fbx":
		return FormatFBX, nil
	}
	return FormatUnknown, fmt.Errorf("%w: %q (supported: %s)",
		ErrUnsupportedFormat, filepath.Ext(path), strings.Join(SupportedExtensions, ", "))
}

// Refine adjusts an extension-derived format using the file signature.
// glTF and GLB share a loader, so a binary container wins over the extension.
func Refine(f Format, data []byte) Format {
	switch f {
	case FormatGLTF, FormatGLB:
		if IsGLB(data) {
			return FormatGLB
		}
		return FormatGLTF
	}
	return f
}

// IsGLB reports whether data starts with the GLB container magic.
func IsGLB(data []byte) bool {
	return len(data) >= 4 && bytes.Equal(data[:4], []byte("glTF"))
}

// Parser converts one source format into a mesh.
type Parser interface {
	Parse(data []byte) (*mesh.Mesh, error)
}

// ParserFor returns the parser for f.
func ParserFor(f Format) (Parser, error) {
	switch f {
	case FormatOBJ:
		return OBJParser{}, nil
	case FormatGLTF, FormatGLB:
		return GLTFParser{}, nil
	case FormatDAE:
		return DAEParser{}, nil
	case FormatFBX:
		return FBXParser{}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, f)
}

// Parse decodes data as format f and checks that every face index
// references an existing vertex.
func Parse(f Format, data []byte) (*mesh.Mesh, error) {
	p, err := ParserFor(Refine(f, data))
	if err != nil {
		return nil, err
	}
	return parseWith(p, data)
}

func parseWith(p Parser, data []byte) (*mesh.Mesh, error) {
	m, err := p.Parse(data)
	if err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidReference, err)
	}
	return m, nil
}

// ParseFile reads path and parses it according to its extension.
// Relative glTF buffer URIs are resolved against the file's directory.
func ParseFile(path string) (*mesh.Mesh, Format, error) {
	f, err := FormatFromPath(path)
	if err != nil {
		return nil, FormatUnknown, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, f, fmt.Errorf("reading %s: %w", path, err)
	}

	f = Refine(f, data)
	var p Parser
	if f == FormatGLTF || f == FormatGLB {
		p = GLTFParser{BaseDir: filepath.Dir(path)}
	} else if p, err = ParserFor(f); err != nil {
		return nil, f, err
	}

	m, err := parseWith(p, data)
	if err != nil {
		return nil, f, fmt.Errorf("parsing %s: %w", f, err)
	}
	return m, f, nil
}
