// Package meshjs reads and writes the viewer's mesh module format: two
// declarations, "vs" (an array of {x, y, z} objects) and "fs" (an array of
// index arrays). The text is loaded as data and never executed.
package meshjs

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"

	"github.com/Ni-zav/formula/pkg/mesh"
)

// Declaration names used in the output.
const (
	VerticesName = "vs"
	FacesName    = "fs"
)

var (
	ErrMissingDeclaration = errors.New("missing declaration")
	ErrInvalidValue       = errors.New("invalid declaration value")
)

const indent = "    "

// Marshal renders m as mesh module text.
func Marshal(m *mesh.Mesh) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, m); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write renders m to w.
func Write(w io.Writer, m *mesh.Mesh) error {
	vs := m.Vertices
	if vs == nil {
		vs = []mesh.Vertex{}
	}
	fs := make([][]int, len(m.Faces))
	for i, f := range m.Faces {
		fs[i] = []int(f)
	}

	vsJSON, err := json.MarshalIndent(vs, "", indent)
	if err != nil {
		return fmt.Errorf("encoding vertices: %w", err)
	}
	fsJSON, err := json.MarshalIndent(fs, "", indent)
	if err != nil {
		return fmt.Errorf("encoding faces: %w", err)
	}

	_, err = fmt.Fprintf(w, "const %s = %s\n\nconst %s = %s\n", VerticesName, vsJSON, FacesName, fsJSON)
	return err
}

// WriteFile writes m to path.
func WriteFile(path string, m *mesh.Mesh) error {
	data, err := Marshal(m)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

var (
	bareKeyRe       = regexp.MustCompile(`([{,]\s*)([A-Za-z_$][A-Za-z0-9_$]*)\s*:`)
	trailingCommaRe = regexp.MustCompile(`,(\s*[\]}])`)
)

// Unmarshal parses mesh module text. Declarations may use const, let or var,
// object keys may be bare identifiers and arrays may carry trailing commas,
// as in hand-written modules.
func Unmarshal(data []byte) (*mesh.Mesh, error) {
	m := mesh.New()

	if err := decodeDeclaration(data, VerticesName, &m.Vertices); err != nil {
		return nil, err
	}

	var faces [][]int
	if err := decodeDeclaration(data, FacesName, &faces); err != nil {
		return nil, err
	}
	m.Faces = make([]mesh.Face, len(faces))
	for i, f := range faces {
		m.Faces[i] = mesh.Face(f)
	}

	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidValue, err)
	}
	return m, nil
}

// ReadFile loads a mesh module from disk.
func ReadFile(path string) (*mesh.Mesh, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Unmarshal(data)
}

func decodeDeclaration(data []byte, name string, v any) error {
	re := regexp.MustCompile(`(?m)(?:^|[;\s])(?:const|let|var)\s+` + regexp.QuoteMeta(name) + `\s*=\s*`)
	loc := re.FindIndex(data)
	if loc == nil {
		return fmt.Errorf("%w: %q", ErrMissingDeclaration, name)
	}

	value, err := valueText(data[loc[1]:])
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrInvalidValue, name, err)
	}
	value = bareKeyRe.ReplaceAll(value, []byte(`$1"$2":`))
	value = trailingCommaRe.ReplaceAll(value, []byte(`$1`))

	if err := json.Unmarshal(value, v); err != nil {
		return fmt.Errorf("%w: %q: %v", ErrInvalidValue, name, err)
	}
	return nil
}

// valueText returns the bracketed literal at the start of s.
func valueText(s []byte) ([]byte, error) {
	if len(s) == 0 || s[0] != '[' {
		return nil, errors.New("expected array literal")
	}
	depth := 0
	inString := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch c {
			case '\\':
				i++
			case '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '[', '{':
			depth++
		case ']', '}':
			depth--
			if depth == 0 {
				return s[:i+1], nil
			}
		}
	}
	return nil, errors.New("unterminated array literal")
}
