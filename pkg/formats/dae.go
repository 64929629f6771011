package formats

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Ni-zav/formula/pkg/mesh"
	"github.com/Ni-zav/formula/pkg/xmltree"
)

// DAEParser reads Collada documents. Only position data and the first
// triangles/polylist/polygons primitive of each geometry are used.
type DAEParser struct{}

// Parse implements Parser.
func (DAEParser) Parse(data []byte) (*mesh.Mesh, error) {
	return ParseDAE(data)
}

// ParseDAE parses Collada XML into a mesh.
func ParseDAE(data []byte) (*mesh.Mesh, error) {
	root := xmltree.Parse(string(data))

	collada := root
	if root == nil || root.Name != "COLLADA" {
		collada = root.Child("COLLADA")
	}
	if collada == nil {
		return nil, ErrInvalidRoot
	}

	m := mesh.New()

	lib := collada.Child("library_geometries")
	if lib == nil {
		return m, nil
	}

	for _, geom := range lib.FindDeep("geometry") {
		el := geom.Child("mesh")
		if el == nil {
			continue
		}
		if err := readDAEMesh(m, el); err != nil {
			return nil, fmt.Errorf("geometry %q: %w", geom.Attr("id"), err)
		}
	}

	return m, nil
}

func readDAEMesh(m *mesh.Mesh, el *xmltree.Node) error {
	sources := make(map[string][]float64)
	for _, src := range el.ChildrenNamed("source") {
		arr := src.Child("float_array")
		if arr == nil || arr.Text == "" {
			continue
		}
		vals, err := parseFloatList(arr.Text)
		if err != nil {
			return fmt.Errorf("source %q: %w", src.Attr("id"), err)
		}
		sources[src.Attr("id")] = vals
	}

	var positionID string
	for _, in := range el.Child("vertices").ChildrenNamed("input") {
		if in.Attr("semantic") == "POSITION" {
			positionID = strings.TrimPrefix(in.Attr("source"), "#")
			break
		}
	}

	positions := sources[positionID]
	if len(positions) == 0 {
		return nil
	}

	offset := len(m.Vertices)
	m.AppendTriples(positions)

	prim := el.Child("triangles")
	if prim == nil {
		prim = el.Child("polylist")
	}
	if prim == nil {
		prim = el.Child("polygons")
	}
	if prim == nil {
		return nil
	}

	stride, vertexSlot, err := daeInputLayout(prim)
	if err != nil {
		return err
	}

	if prim.Name == "polygons" {
		for _, p := range prim.ChildrenNamed("p") {
			idx, err := parseIntList(p.Text)
			if err != nil {
				return err
			}
			face, err := daeGather(idx, 0, len(idx)/stride, stride, vertexSlot, offset)
			if err != nil {
				return err
			}
			m.AddPolygon(face)
		}
		return nil
	}

	p := prim.Child("p")
	if p == nil || p.Text == "" {
		return nil
	}
	idx, err := parseIntList(p.Text)
	if err != nil {
		return err
	}

	if vc := prim.Child("vcount"); vc != nil && vc.Text != "" {
		counts, err := parseIntList(vc.Text)
		if err != nil {
			return fmt.Errorf("vcount: %w", err)
		}
		pos := 0
		for _, n := range counts {
			if n < 0 {
				return fmt.Errorf("%w: negative vcount %d", ErrMalformedInput, n)
			}
			face, err := daeGather(idx, pos, n, stride, vertexSlot, offset)
			if err != nil {
				return err
			}
			pos += n * stride
			m.AddPolygon(face)
		}
		return nil
	}

	for i := 0; i+2*stride+vertexSlot < len(idx); i += stride * 3 {
		m.Faces = append(m.Faces, mesh.Face{
			idx[i+vertexSlot] + offset,
			idx[i+stride+vertexSlot] + offset,
			idx[i+2*stride+vertexSlot] + offset,
		})
	}
	return nil
}

// daeInputLayout returns the per-vertex index stride and the slot holding
// the VERTEX semantic. A missing or unparseable offset counts as 0.
func daeInputLayout(prim *xmltree.Node) (stride, vertexSlot int, err error) {
	stride = 1
	for _, in := range prim.ChildrenNamed("input") {
		off, convErr := strconv.Atoi(in.Attr("offset"))
		if convErr != nil {
			off = 0
		}
		if off < 0 {
			return 0, 0, fmt.Errorf("%w: negative input offset %d", ErrMalformedInput, off)
		}
		stride = max(stride, off+1)
		if in.Attr("semantic") == "VERTEX" {
			vertexSlot = off
		}
	}
	return stride, vertexSlot, nil
}

// daeGather collects n vertex indices starting at pos, taking the VERTEX
// component of each interleaved index tuple.
func daeGather(idx []int, pos, n, stride, vertexSlot, offset int) (mesh.Face, error) {
	face := make(mesh.Face, 0, max(n, 0))
	for v := 0; v < n; v++ {
		i := pos + v*stride + vertexSlot
		if i < 0 {
			return nil, fmt.Errorf("%w: index position %d", ErrMalformedInput, i)
		}
		if i >= len(idx) {
			return nil, fmt.Errorf("%w: <p> has %d indices, need index %d", ErrInvalidReference, len(idx), i)
		}
		face = append(face, idx[i]+offset)
	}
	return face, nil
}

func parseFloatList(s string) ([]float64, error) {
	fields := strings.Fields(s)
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := parseCoord(f)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func parseIntList(s string) ([]int, error) {
	fields := strings.Fields(s)
	out := make([]int, len(fields))
	for i, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrMalformedNumber, f)
		}
		out[i] = v
	}
	return out, nil
}
