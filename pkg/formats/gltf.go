package formats

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/qmuntal/gltf"

	"github.com/Ni-zav/formula/pkg/binreader"
	"github.com/Ni-zav/formula/pkg/mesh"
)

// GLB container constants.
const (
	glbMagic      = 0x46546C67 // "glTF"
	glbHeaderSize = 12
	glbChunkJSON  = 0x4E4F534A // "JSON"
	glbChunkBIN   = 0x004E4942 // "BIN\0"
)

// GLTFParser reads glTF JSON text or GLB binary containers.
type GLTFParser struct {
	// BaseDir resolves relative buffer URIs. When empty, buffers that
	// reference external files fail with ErrExternalBuffer.
	BaseDir string
}

// Parse implements Parser.
func (p GLTFParser) Parse(data []byte) (*mesh.Mesh, error) {
	if IsGLB(data) {
		jsonChunk, binChunk, err := readGLBChunks(data)
		if err != nil {
			return nil, err
		}
		return p.parseDocument(jsonChunk, binChunk)
	}
	return p.parseDocument(data, nil)
}

// ParseGLTF parses glTF or GLB data held in memory.
func ParseGLTF(data []byte) (*mesh.Mesh, error) {
	return GLTFParser{}.Parse(data)
}

// readGLBChunks splits a GLB container into its JSON and first BIN chunk.
func readGLBChunks(data []byte) (jsonChunk, binChunk []byte, err error) {
	r := binreader.New(data)

	magic, err := r.Uint32()
	if err != nil {
		return nil, nil, fmt.Errorf("GLB header: %w", err)
	}
	if magic != glbMagic {
		return nil, nil, fmt.Errorf("%w: bad GLB magic 0x%08X", ErrMalformedInput, magic)
	}
	if _, err := r.Uint32(); err != nil { // version
		return nil, nil, fmt.Errorf("GLB header: %w", err)
	}
	total, err := r.Uint32()
	if err != nil {
		return nil, nil, fmt.Errorf("GLB header: %w", err)
	}

	for r.Pos() < int(total) {
		length, err := r.Uint32()
		if err != nil {
			return nil, nil, fmt.Errorf("GLB chunk at %d: %w", r.Pos(), err)
		}
		kind, err := r.Uint32()
		if err != nil {
			return nil, nil, fmt.Errorf("GLB chunk at %d: %w", r.Pos(), err)
		}
		payload, err := r.Bytes(int(length))
		if err != nil {
			return nil, nil, fmt.Errorf("GLB chunk payload: %w", err)
		}

		switch kind {
		case glbChunkJSON:
			if jsonChunk == nil {
				jsonChunk = payload
			}
		case glbChunkBIN:
			if binChunk == nil {
				binChunk = payload
			}
		}
	}

	if jsonChunk == nil {
		return nil, nil, ErrMissingJSONChunk
	}
	return jsonChunk, binChunk, nil
}

func (p GLTFParser) parseDocument(jsonData, embedded []byte) (*mesh.Mesh, error) {
	var doc gltf.Document
	if err := json.Unmarshal(jsonData, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}

	buffers, err := p.loadBuffers(&doc, embedded)
	if err != nil {
		return nil, err
	}

	dec := &accessorDecoder{doc: &doc, buffers: buffers}
	m := mesh.New()

	for mi, gm := range doc.Meshes {
		if gm == nil {
			continue
		}
		for pi, prim := range gm.Primitives {
			if prim == nil {
				continue
			}
			posIdx, ok := prim.Attributes[gltf.POSITION]
			if !ok {
				continue
			}

			positions, err := dec.decode(posIdx)
			if err != nil {
				return nil, fmt.Errorf("mesh %d primitive %d POSITION: %w", mi, pi, err)
			}
			if err := checkFinite(positions); err != nil {
				return nil, fmt.Errorf("mesh %d primitive %d POSITION: %w", mi, pi, err)
			}

			offset := len(m.Vertices)
			m.AppendTriples(positions)
			added := len(m.Vertices) - offset

			if prim.Indices != nil {
				indices, err := dec.decode(*prim.Indices)
				if err != nil {
					return nil, fmt.Errorf("mesh %d primitive %d indices: %w", mi, pi, err)
				}
				for i := 0; i+2 < len(indices); i += 3 {
					m.Faces = append(m.Faces, mesh.Face{
						int(indices[i]) + offset,
						int(indices[i+1]) + offset,
						int(indices[i+2]) + offset,
					})
				}
			} else {
				for i := 0; i+2 < added; i += 3 {
					m.Faces = append(m.Faces, mesh.Face{offset + i, offset + i + 1, offset + i + 2})
				}
			}
		}
	}

	return m, nil
}

// loadBuffers resolves every declared buffer to its bytes.
func (p GLTFParser) loadBuffers(doc *gltf.Document, embedded []byte) ([][]byte, error) {
	buffers := make([][]byte, len(doc.Buffers))
	for i, b := range doc.Buffers {
		if b == nil {
			continue
		}
		switch {
		case b.URI == "":
			if i == 0 && embedded != nil {
				buffers[i] = embedded
			}
		case strings.HasPrefix(b.URI, "data:"):
			data, err := decodeDataURI(b.URI)
			if err != nil {
				return nil, fmt.Errorf("buffer %d: %w", i, err)
			}
			buffers[i] = data
		default:
			if p.BaseDir == "" {
				return nil, fmt.Errorf("buffer %d %q: %w", i, b.URI, ErrExternalBuffer)
			}
			name, err := url.PathUnescape(b.URI)
			if err != nil {
				name = b.URI
			}
			data, err := os.ReadFile(filepath.Join(p.BaseDir, filepath.FromSlash(name)))
			if err != nil {
				return nil, fmt.Errorf("buffer %d: %w", i, err)
			}
			buffers[i] = data
		}
	}
	return buffers, nil
}

func decodeDataURI(uri string) ([]byte, error) {
	_, payload, ok := strings.Cut(uri, ",")
	if !ok {
		return nil, fmt.Errorf("%w: data URI without payload", ErrMalformedInput)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: data URI: %v", ErrMalformedInput, err)
	}
	return data, nil
}

// maxZeroAccessorCount bounds accessors that have no backing bytes to size
// against.
const maxZeroAccessorCount = 1 << 24

// accessorDecoder reads accessor contents as flat float64 sequences.
type accessorDecoder struct {
	doc     *gltf.Document
	buffers [][]byte
}

func (d *accessorDecoder) decode(index int) ([]float64, error) {
	if index < 0 || index >= len(d.doc.Accessors) || d.doc.Accessors[index] == nil {
		return nil, fmt.Errorf("%w: accessor %d", ErrInvalidReference, index)
	}
	acc := d.doc.Accessors[index]

	comps := acc.Type.Components()
	size := acc.ComponentType.ByteSize()
	if acc.Count < 0 {
		return nil, fmt.Errorf("%w: accessor %d count %d", ErrMalformedInput, index, acc.Count)
	}

	// Accessors without a buffer view are all zeros.
	if acc.BufferView == nil {
		if acc.Count > maxZeroAccessorCount {
			return nil, fmt.Errorf("%w: accessor %d count %d without bufferView", ErrMalformedInput, index, acc.Count)
		}
		return make([]float64, acc.Count*comps), nil
	}

	bvIdx := *acc.BufferView
	if bvIdx < 0 || bvIdx >= len(d.doc.BufferViews) || d.doc.BufferViews[bvIdx] == nil {
		return nil, fmt.Errorf("%w: bufferView %d", ErrInvalidReference, bvIdx)
	}
	view := d.doc.BufferViews[bvIdx]
	if view.Buffer < 0 || view.Buffer >= len(d.buffers) || d.buffers[view.Buffer] == nil {
		return nil, fmt.Errorf("%w: buffer %d", ErrInvalidReference, view.Buffer)
	}

	base := view.ByteOffset + acc.ByteOffset
	stride := view.ByteStride
	if stride == 0 {
		stride = size * comps
	}

	buf := d.buffers[view.Buffer]
	if base < 0 || stride < 0 {
		return nil, fmt.Errorf("%w: accessor %d negative offset or stride", ErrMalformedInput, index)
	}
	if acc.Count > 0 {
		if last := base + (acc.Count-1)*stride + comps*size; acc.Count > len(buf) || last > len(buf) {
			return nil, fmt.Errorf("%w: accessor %d needs %d elements from a %d-byte buffer", ErrOutOfBounds, index, acc.Count, len(buf))
		}
	}

	out := make([]float64, 0, acc.Count*comps)
	r := binreader.New(buf)
	for i := 0; i < acc.Count; i++ {
		if err := r.Seek(base + i*stride); err != nil {
			return nil, fmt.Errorf("accessor %d element %d: %w", index, i, err)
		}
		for j := 0; j < comps; j++ {
			v, err := readComponent(r, acc.ComponentType)
			if err != nil {
				return nil, fmt.Errorf("accessor %d element %d: %w", index, i, err)
			}
			out = append(out, v)
		}
	}
	return out, nil
}

func readComponent(r *binreader.Reader, ct gltf.ComponentType) (float64, error) {
	switch ct {
	case gltf.ComponentByte:
		v, err := r.Int8()
		return float64(v), err
	case gltf.ComponentUbyte:
		v, err := r.Uint8()
		return float64(v), err
	case gltf.ComponentShort:
		v, err := r.Int16()
		return float64(v), err
	case gltf.ComponentUshort:
		v, err := r.Uint16()
		return float64(v), err
	case gltf.ComponentUint:
		v, err := r.Uint32()
		return float64(v), err
	case gltf.ComponentFloat:
		v, err := r.Float32()
		return float64(v), err
	}
	return 0, fmt.Errorf("%w: component type %v", ErrUnsupportedFormat, ct)
}
