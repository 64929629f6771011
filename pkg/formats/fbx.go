package formats

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/Ni-zav/formula/pkg/binreader"
	"github.com/Ni-zav/formula/pkg/mesh"
)

const (
	fbxBinaryMagic   = "Kaydara FBX Binary"
	fbxHeaderSize    = 23 // 21-byte magic + 2 bytes padding
	fbx64BitVersion  = 7500
	fbxNullRecord32  = 13
	fbxNullRecord64  = 25
	fbxArrayRaw      = 0
	fbxArrayDeflated = 1
)

// FBXParser reads ASCII or binary FBX files, auto-detected by signature.
type FBXParser struct{}

// Parse implements Parser.
func (FBXParser) Parse(data []byte) (*mesh.Mesh, error) {
	return ParseFBX(data)
}

// IsBinaryFBX reports whether data carries the binary FBX signature.
func IsBinaryFBX(data []byte) bool {
	head := data[:min(len(data), 21)]
	return bytes.HasPrefix(head, []byte(fbxBinaryMagic))
}

// ParseFBX parses an FBX file into a mesh.
func ParseFBX(data []byte) (*mesh.Mesh, error) {
	if !IsBinaryFBX(data) {
		return ParseFBXASCII(string(data))
	}
	return ParseFBXBinary(data)
}

// fbxNode is one record of the binary node tree.
type fbxNode struct {
	Name     string
	Props    []any
	Children []*fbxNode
}

func (n *fbxNode) child(name string) *fbxNode {
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// findDeep returns n and all descendants named name, depth first.
func (n *fbxNode) findDeep(name string) []*fbxNode {
	var out []*fbxNode
	if n.Name == name {
		out = append(out, n)
	}
	for _, c := range n.Children {
		out = append(out, c.findDeep(name)...)
	}
	return out
}

// fbxDecoder walks the binary node tree. The cursor lives in r and is shared
// by every recursive call.
type fbxDecoder struct {
	r      *binreader.Reader
	is64   bool
	nullSz int
}

// ParseFBXBinary parses a binary FBX file into a mesh.
func ParseFBXBinary(data []byte) (*mesh.Mesh, error) {
	nodes, err := decodeFBXTree(data)
	if err != nil {
		return nil, err
	}
	return fbxGeometry(nodes)
}

func decodeFBXTree(data []byte) ([]*fbxNode, error) {
	r := binreader.New(data)
	if err := r.Seek(fbxHeaderSize); err != nil {
		return nil, fmt.Errorf("FBX header: %w", err)
	}
	version, err := r.Uint32()
	if err != nil {
		return nil, fmt.Errorf("FBX header: %w", err)
	}

	d := &fbxDecoder{r: r, is64: version >= fbx64BitVersion, nullSz: fbxNullRecord32}
	if d.is64 {
		d.nullSz = fbxNullRecord64
	}

	var nodes []*fbxNode
	for r.Pos() < r.Len()-d.nullSz {
		n, err := d.node()
		if err != nil {
			return nil, err
		}
		if n == nil {
			break
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

func (d *fbxDecoder) word() (uint64, error) {
	if d.is64 {
		return d.r.Uint64()
	}
	v, err := d.r.Uint32()
	return uint64(v), err
}

// node reads one node record and its children. A null record yields nil.
func (d *fbxDecoder) node() (*fbxNode, error) {
	start := d.r.Pos()

	end, err := d.word()
	if err != nil {
		return nil, fmt.Errorf("node at %d: %w", start, err)
	}
	numProps, err := d.word()
	if err != nil {
		return nil, fmt.Errorf("node at %d: %w", start, err)
	}
	if _, err := d.word(); err != nil { // property list length
		return nil, fmt.Errorf("node at %d: %w", start, err)
	}
	nameLen, err := d.r.Uint8()
	if err != nil {
		return nil, fmt.Errorf("node at %d: %w", start, err)
	}
	name, err := d.r.String(int(nameLen))
	if err != nil {
		return nil, fmt.Errorf("node at %d: %w", start, err)
	}

	if end == 0 {
		return nil, nil
	}
	if end <= uint64(start) || end > uint64(d.r.Len()) {
		return nil, fmt.Errorf("%w: node %q at %d ends at %d", ErrOutOfBounds, name, start, end)
	}

	n := &fbxNode{Name: name}
	for i := uint64(0); i < numProps; i++ {
		p, err := d.property()
		if err != nil {
			return nil, fmt.Errorf("node %q property %d: %w", name, i, err)
		}
		n.Props = append(n.Props, p)
	}

	for d.r.Pos() < int(end)-d.nullSz {
		c, err := d.node()
		if err != nil {
			return nil, err
		}
		if c != nil {
			n.Children = append(n.Children, c)
		}
	}

	if err := d.r.Seek(int(end)); err != nil {
		return nil, err
	}
	return n, nil
}

func (d *fbxDecoder) property() (any, error) {
	code, err := d.r.Uint8()
	if err != nil {
		return nil, err
	}

	switch code {
	case 'Y':
		return d.r.Int16()
	case 'C':
		v, err := d.r.Uint8()
		return v != 0, err
	case 'I':
		return d.r.Int32()
	case 'F':
		return d.r.Float32()
	case 'D':
		return d.r.Float64()
	case 'L':
		return d.r.Int64()
	case 'S':
		n, err := d.r.Uint32()
		if err != nil {
			return nil, err
		}
		return d.r.String(int(n))
	case 'R':
		n, err := d.r.Uint32()
		if err != nil {
			return nil, err
		}
		return d.r.Bytes(int(n))
	case 'f', 'd', 'l', 'i', 'b':
		return d.array(code)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownPropertyType, rune(code))
}

// array reads a typed array property, inflating it when zlib-encoded.
func (d *fbxDecoder) array(code byte) (any, error) {
	count, err := d.r.Uint32()
	if err != nil {
		return nil, err
	}
	encoding, err := d.r.Uint32()
	if err != nil {
		return nil, err
	}
	size, err := d.r.Uint32()
	if err != nil {
		return nil, err
	}
	raw, err := d.r.Bytes(int(size))
	if err != nil {
		return nil, err
	}

	switch encoding {
	case fbxArrayRaw:
	case fbxArrayDeflated:
		zr, err := zlib.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("%w: inflating array: %v", ErrMalformedInput, err)
		}
		// Never inflate more than the declared elements can occupy.
		limit := int64(count) * int64(fbxArrayElemSize[code])
		raw, err = io.ReadAll(io.LimitReader(zr, limit))
		zr.Close()
		if err != nil {
			return nil, fmt.Errorf("%w: inflating array: %v", ErrMalformedInput, err)
		}
	default:
		return nil, fmt.Errorf("%w: array encoding %d", ErrUnsupportedFormat, encoding)
	}

	return decodeFBXArray(binreader.New(raw), code, int(count))
}

// fbxArrayElemSize is the byte width of each array element type.
var fbxArrayElemSize = map[byte]int{'f': 4, 'd': 8, 'l': 8, 'i': 4, 'b': 1}

func decodeFBXArray(r *binreader.Reader, code byte, n int) (any, error) {
	if need := n * fbxArrayElemSize[code]; need > r.Remaining() {
		return nil, fmt.Errorf("%w: array of %d %q needs %d bytes, have %d",
			ErrMalformedInput, n, rune(code), need, r.Remaining())
	}

	var err error
	switch code {
	case 'f':
		out := make([]float32, n)
		for i := range out {
			if out[i], err = r.Float32(); err != nil {
				return nil, err
			}
		}
		return out, nil
	case 'd':
		out := make([]float64, n)
		for i := range out {
			if out[i], err = r.Float64(); err != nil {
				return nil, err
			}
		}
		return out, nil
	case 'l':
		out := make([]int64, n)
		for i := range out {
			if out[i], err = r.Int64(); err != nil {
				return nil, err
			}
		}
		return out, nil
	case 'i':
		out := make([]int32, n)
		for i := range out {
			if out[i], err = r.Int32(); err != nil {
				return nil, err
			}
		}
		return out, nil
	default: // 'b'
		out := make([]bool, n)
		for i := range out {
			v, err := r.Uint8()
			if err != nil {
				return nil, err
			}
			out[i] = v != 0
		}
		return out, nil
	}
}

// fbxGeometry collects every Mesh geometry under the top-level Objects node.
func fbxGeometry(nodes []*fbxNode) (*mesh.Mesh, error) {
	m := mesh.New()

	var objects *fbxNode
	for _, n := range nodes {
		if n.Name == "Objects" {
			objects = n
			break
		}
	}
	if objects == nil {
		return m, nil
	}

	for _, geom := range objects.findDeep("Geometry") {
		if len(geom.Props) < 3 {
			continue
		}
		if kind, _ := geom.Props[2].(string); kind != "Mesh" {
			continue
		}

		offset := len(m.Vertices)
		if v := geom.child("Vertices"); v != nil && len(v.Props) > 0 {
			if coords, ok := floatsOf(v.Props[0]); ok {
				if err := checkFinite(coords); err != nil {
					return nil, fmt.Errorf("geometry Vertices: %w", err)
				}
				m.AppendTriples(coords)
			}
		}
		if p := geom.child("PolygonVertexIndex"); p != nil && len(p.Props) > 0 {
			if idx, ok := intsOf(p.Props[0]); ok {
				appendFBXPolygons(m, idx, offset)
			}
		}
	}
	return m, nil
}

func floatsOf(v any) ([]float64, bool) {
	switch a := v.(type) {
	case []float64:
		return a, true
	case []float32:
		out := make([]float64, len(a))
		for i, f := range a {
			out[i] = float64(f)
		}
		return out, true
	}
	return nil, false
}

func intsOf(v any) ([]int64, bool) {
	switch a := v.(type) {
	case []int64:
		return a, true
	case []int32:
		out := make([]int64, len(a))
		for i, x := range a {
			out[i] = int64(x)
		}
		return out, true
	}
	return nil, false
}

// appendFBXPolygons decodes a PolygonVertexIndex list. A negative entry ends
// the current polygon and stores the bitwise complement of the real index.
// A trailing polygon without a terminator is dropped.
func appendFBXPolygons(m *mesh.Mesh, indices []int64, offset int) {
	var face mesh.Face
	for _, idx := range indices {
		if idx < 0 {
			face = append(face, int(^idx)+offset)
			m.AddPolygon(face)
			face = face[:0]
			continue
		}
		face = append(face, int(idx)+offset)
	}
}

var (
	fbxASCIIVertices = regexp.MustCompile(`Vertices:\s*\*\d+\s*\{\s*a:\s*([\d\s.,eE+-]+)`)
	fbxASCIIIndices  = regexp.MustCompile(`PolygonVertexIndex:\s*\*\d+\s*\{\s*a:\s*([\d\s.,-]+)`)
)

// ParseFBXASCII parses the first Vertices and PolygonVertexIndex blocks of an
// ASCII FBX document.
func ParseFBXASCII(content string) (*mesh.Mesh, error) {
	m := mesh.New()

	if match := fbxASCIIVertices.FindStringSubmatch(content); match != nil {
		toks := splitCSV(match[1])
		coords := make([]float64, 0, len(toks))
		for _, tok := range toks {
			f, err := parseCoord(tok)
			if err != nil {
				return nil, fmt.Errorf("Vertices: %w", err)
			}
			coords = append(coords, f)
		}
		m.AppendTriples(coords)
	}

	if match := fbxASCIIIndices.FindStringSubmatch(content); match != nil {
		toks := splitCSV(match[1])
		idx := make([]int64, 0, len(toks))
		for _, tok := range toks {
			v, err := strconv.ParseInt(tok, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("PolygonVertexIndex: %w: %q", ErrMalformedNumber, tok)
			}
			idx = append(idx, v)
		}
		appendFBXPolygons(m, idx, 0)
	}

	return m, nil
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
