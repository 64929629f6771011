package formats

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/Ni-zav/formula/pkg/mesh"
)

// OBJParser reads Wavefront OBJ text. Only "v" and "f" statements are used;
// faces keep their native arity and faces with fewer than 3 indices are dropped.
type OBJParser struct{}

// Parse implements Parser.
func (OBJParser) Parse(data []byte) (*mesh.Mesh, error) {
	return ParseOBJ(data)
}

// ParseOBJ parses OBJ text into a mesh.
func ParseOBJ(data []byte) (*mesh.Mesh, error) {
	m := mesh.New()

	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)

	lineNo := 0
	for sc.Scan() {
		lineNo++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "v":
			v, err := parseOBJVertex(fields[1:])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			m.Vertices = append(m.Vertices, v)
		case "f":
			face, err := parseOBJFace(fields[1:], len(m.Vertices))
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			if len(face) >= 3 {
				m.Faces = append(m.Faces, face)
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading OBJ: %w", err)
	}

	return m, nil
}

func parseOBJVertex(args []string) (mesh.Vertex, error) {
	if len(args) < 3 {
		return mesh.Vertex{}, fmt.Errorf("%w: vertex needs 3 coordinates, got %d", ErrMalformedNumber, len(args))
	}
	var xyz [3]float64
	for i := range xyz {
		f, err := parseCoord(args[i])
		if err != nil {
			return mesh.Vertex{}, err
		}
		xyz[i] = f
	}
	return mesh.Vertex{X: xyz[0], Y: xyz[1], Z: xyz[2]}, nil
}

// parseOBJFace reads "index[/texcoord][/normal]" tokens. Negative indices are
// relative to the vertices declared so far.
func parseOBJFace(args []string, vertexCount int) (mesh.Face, error) {
	face := make(mesh.Face, 0, len(args))
	for _, tok := range args {
		idxStr, _, _ := strings.Cut(tok, "/")
		idx, err := strconv.Atoi(idxStr)
		if err != nil || idx == 0 {
			return nil, fmt.Errorf("%w: face index %q", ErrMalformedNumber, tok)
		}
		if idx < 0 {
			face = append(face, vertexCount+idx)
		} else {
			face = append(face, idx-1)
		}
	}
	return face, nil
}
