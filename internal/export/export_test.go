package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/Faultbox/dem2mesh/internal/terrain"
)

// quad is a unit square split into two triangles.
func quad() *terrain.Mesh {
	return &terrain.Mesh{
		Positions: []float32{-0.5, -0.5, 0, 0.5, -0.5, 0, 0.5, 0.5, 1.25, -0.5, 0.5, 0},
		Indices:   []uint32{0, 1, 3, 1, 2, 3},
		UVs:       []float32{0, 0, 1, 0, 1, 1, 0, 1},
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, quad()); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}

	var payload []json.RawMessage
	if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
		t.Fatalf("output is not a JSON array: %v", err)
	}
	if len(payload) != 3 {
		t.Fatalf("payload has %d elements, want 3", len(payload))
	}

	var positions, uvs []float32
	var indices []uint32
	for i, dst := range []any{&positions, &indices, &uvs} {
		if err := json.Unmarshal(payload[i], dst); err != nil {
			t.Fatalf("element %d: %v", i, err)
		}
	}

	m := quad()
	if diff := cmp.Diff(m.Positions, positions); diff != "" {
		t.Errorf("positions mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(m.Indices, indices); diff != "" {
		t.Errorf("indices mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(m.UVs, uvs); diff != "" {
		t.Errorf("uvs mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteJSON_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, &terrain.Mesh{}); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}
	if got, want := strings.TrimSpace(buf.String()), "[[],[],[]]"; got != want {
		t.Errorf("WriteJSON() = %s, want %s", got, want)
	}
}

func TestWriteOBJ(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteOBJ(&buf, quad()); err != nil {
		t.Fatalf("WriteOBJ failed: %v", err)
	}

	want := `# 4 vertices, 2 triangles
v -0.5 -0.5 0
v 0.5 -0.5 0
v 0.5 0.5 1.25
v -0.5 0.5 0
vt 0 0
vt 1 0
vt 1 1
vt 0 1
f 1/1 2/2 4/4
f 2/2 3/3 4/4
`
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("WriteOBJ() mismatch (-want +got):\n%s", diff)
	}
}

func TestWrite(t *testing.T) {
	for _, format := range []string{JSON, OBJ} {
		var buf bytes.Buffer
		if err := Write(&buf, quad(), format); err != nil {
			t.Errorf("Write(%s) failed: %v", format, err)
		}
		if buf.Len() == 0 {
			t.Errorf("Write(%s) wrote nothing", format)
		}
	}

	if err := Write(&bytes.Buffer{}, quad(), "stl"); err == nil {
		t.Error("Write accepted an unknown format")
	}
	if got := Ext(OBJ); got != ".obj" {
		t.Errorf("Ext(obj) = %q, want .obj", got)
	}
}
