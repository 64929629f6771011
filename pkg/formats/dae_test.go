package formats

import (
	"errors"
	"reflect"
	"testing"

	"github.com/Ni-zav/formula/pkg/mesh"
)

const polylistDAE = `<?xml version="1.0" encoding="utf-8"?>
<COLLADA xmlns="http://www.collada.org/2005/11/COLLADASchema" version="1.4.1">
  <asset><unit name="meter" meter="1"/></asset>
  <library_geometries>
    <geometry id="Plane-mesh" name="Plane">
      <mesh>
        <source id="Plane-mesh-positions">
          <float_array id="Plane-mesh-positions-array" count="12">-1 -1 0 1 -1 0 1 1 0 -1 1 0</float_array>
        </source>
        <source id="Plane-mesh-normals">
          <float_array id="Plane-mesh-normals-array" count="3">0 0 1</float_array>
        </source>
        <vertices id="Plane-mesh-vertices">
          <input semantic="POSITION" source="#Plane-mesh-positions"/>
        </vertices>
        <polylist count="1">
          <input semantic="VERTEX" source="#Plane-mesh-vertices" offset="0"/>
          <input semantic="NORMAL" source="#Plane-mesh-normals" offset="1"/>
          <vcount>4 </vcount>
          <p>0 0 1 0 2 0 3 0</p>
        </polylist>
      </mesh>
    </geometry>
  </library_geometries>
</COLLADA>`

func TestParseDAE_PolylistFan(t *testing.T) {
	m, err := ParseDAE([]byte(polylistDAE))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.VertexCount() != 4 {
		t.Errorf("vertex count = %d, want 4", m.VertexCount())
	}
	if m.Vertices[2] != (mesh.Vertex{X: 1, Y: 1, Z: 0}) {
		t.Errorf("vertex 2 = %v", m.Vertices[2])
	}
	want := []mesh.Face{{0, 1, 2}, {0, 2, 3}}
	if !reflect.DeepEqual(m.Faces, want) {
		t.Errorf("faces = %v, want %v", m.Faces, want)
	}
}

func TestParseDAE_TrianglesMultipleGeometries(t *testing.T) {
	doc := `<COLLADA>
  <library_geometries>
    <geometry id="a">
      <mesh>
        <source id="a-pos"><float_array>0 0 0 1 0 0 0 1 0</float_array></source>
        <vertices id="a-vtx"><input semantic="POSITION" source="#a-pos"/></vertices>
        <triangles count="1">
          <input semantic="VERTEX" source="#a-vtx" offset="0"/>
          <input semantic="NORMAL" source="#a-n" offset="1"/>
          <input semantic="TEXCOORD" source="#a-uv" offset="2"/>
          <p>0 9 9 1 9 9 2 9 9</p>
        </triangles>
      </mesh>
    </geometry>
    <geometry id="no-positions">
      <mesh>
        <vertices id="x"><input semantic="NORMAL" source="#nothing"/></vertices>
        <triangles><input semantic="VERTEX" offset="0"/><p>0 1 2</p></triangles>
      </mesh>
    </geometry>
    <geometry id="spline"><spline/></geometry>
    <geometry id="b">
      <mesh>
        <source id="b-pos"><float_array>5 5 5 6 5 5 6 6 5 5 6 5</float_array></source>
        <vertices id="b-vtx"><input semantic="POSITION" source="#b-pos"/></vertices>
        <triangles count="2">
          <input semantic="NORMAL" source="#b-n" offset="0"/>
          <input semantic="VERTEX" source="#b-vtx" offset="1"/>
          <p>7 0 7 1 7 2 7 0 7 2 7 3</p>
        </triangles>
      </mesh>
    </geometry>
  </library_geometries>
</COLLADA>`

	m, err := ParseDAE([]byte(doc))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.VertexCount() != 7 {
		t.Fatalf("vertex count = %d, want 7", m.VertexCount())
	}
	want := []mesh.Face{{0, 1, 2}, {3, 4, 5}, {3, 5, 6}}
	if !reflect.DeepEqual(m.Faces, want) {
		t.Errorf("faces = %v, want %v", m.Faces, want)
	}
}

func TestParseDAE_Polygons(t *testing.T) {
	doc := `<COLLADA>
  <library_geometries>
    <geometry>
      <mesh>
        <source id="p"><float_array>0 0 0 1 0 0 1 1 0 0 1 0 2 0 0</float_array></source>
        <vertices id="v"><input semantic="POSITION" source="#p"/></vertices>
        <polygons count="2">
          <input semantic="VERTEX" source="#v" offset="0"/>
          <p>0 1 2 3</p>
          <p>1 4 2</p>
        </polygons>
      </mesh>
    </geometry>
  </library_geometries>
</COLLADA>`

	m, err := ParseDAE([]byte(doc))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []mesh.Face{{0, 1, 2}, {0, 2, 3}, {1, 4, 2}}
	if !reflect.DeepEqual(m.Faces, want) {
		t.Errorf("faces = %v, want %v", m.Faces, want)
	}
}

func TestParseDAE_PolylistDropsShortFaces(t *testing.T) {
	doc := `<COLLADA><library_geometries><geometry><mesh>
  <source id="p"><float_array>0 0 0 1 0 0 1 1 0 0 1 0 2 2 2</float_array></source>
  <vertices id="v"><input semantic="POSITION" source="#p"/></vertices>
  <polylist>
    <input semantic="VERTEX" source="#v" offset="0"/>
    <vcount>2 3 5</vcount>
    <p>0 1 0 1 2 0 1 2 3 4</p>
  </polylist>
</mesh></geometry></library_geometries></COLLADA>`

	m, err := ParseDAE([]byte(doc))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []mesh.Face{{0, 1, 2}, {0, 1, 2}, {0, 2, 3}, {0, 3, 4}}
	if !reflect.DeepEqual(m.Faces, want) {
		t.Errorf("faces = %v, want %v", m.Faces, want)
	}
}

func TestParseDAE_NoLibrary(t *testing.T) {
	m, err := ParseDAE([]byte(`<COLLADA><asset/></COLLADA>`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !m.IsEmpty() {
		t.Error("expected empty mesh without library_geometries")
	}
}

func TestParseDAE_Errors(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr error
	}{
		{"no root", `<scene/>`, ErrInvalidRoot},
		{"empty", ``, ErrInvalidRoot},
		{
			"bad float",
			`<COLLADA><library_geometries><geometry><mesh>
			  <source id="p"><float_array>0 zero 0</float_array></source>
			</mesh></geometry></library_geometries></COLLADA>`,
			ErrMalformedNumber,
		},
		{
			"vcount exceeds p",
			`<COLLADA><library_geometries><geometry><mesh>
			  <source id="p"><float_array>0 0 0 1 0 0 0 1 0</float_array></source>
			  <vertices id="v"><input semantic="POSITION" source="#p"/></vertices>
			  <polylist><input semantic="VERTEX" offset="0"/><vcount>4</vcount><p>0 1 2</p></polylist>
			</mesh></geometry></library_geometries></COLLADA>`,
			ErrInvalidReference,
		},
		{
			"negative input offset",
			`<COLLADA><library_geometries><geometry><mesh>
			  <source id="p"><float_array>0 0 0 1 0 0 0 1 0</float_array></source>
			  <vertices id="v"><input semantic="POSITION" source="#p"/></vertices>
			  <triangles><input semantic="VERTEX" offset="-1"/><p>0 1 2</p></triangles>
			</mesh></geometry></library_geometries></COLLADA>`,
			ErrMalformedInput,
		},
		{
			"negative vcount",
			`<COLLADA><library_geometries><geometry><mesh>
			  <source id="p"><float_array>0 0 0 1 0 0 0 1 0</float_array></source>
			  <vertices id="v"><input semantic="POSITION" source="#p"/></vertices>
			  <polylist><input semantic="VERTEX" offset="0"/><vcount>-2 3</vcount><p>0 1 2</p></polylist>
			</mesh></geometry></library_geometries></COLLADA>`,
			ErrMalformedInput,
		},
		{
			"non-finite float",
			`<COLLADA><library_geometries><geometry><mesh>
			  <source id="p"><float_array>0 NaN 0 1 0 0 0 1 0</float_array></source>
			</mesh></geometry></library_geometries></COLLADA>`,
			ErrMalformedNumber,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDAE([]byte(tt.doc))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}

	if _, err := ParseDAE([]byte(`<scene/>`)); !errors.Is(err, ErrMissingChunk) {
		t.Errorf("ErrInvalidRoot should match ErrMissingChunk, got %v", err)
	}
}
