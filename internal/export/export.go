// Package export writes tile meshes in host formats.
package export

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/Faultbox/dem2mesh/internal/terrain"
)

// Format names.
const (
	JSON = "json"
	OBJ  = "obj"
)

// Write encodes m in the named format.
func Write(w io.Writer, m *terrain.Mesh, format string) error {
	switch format {
	case JSON:
		return WriteJSON(w, m)
	case OBJ:
		return WriteOBJ(w, m)
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
}

// Ext returns the file extension for a format, including the dot.
func Ext(format string) string {
	return "." + format
}

// WriteJSON writes the mesh as the three-element array
// [positions, indices, uvs].
func WriteJSON(w io.Writer, m *terrain.Mesh) error {
	payload := [3]any{
		nonNil(m.Positions),
		nonNil(m.Indices),
		nonNil(m.UVs),
	}
	return json.NewEncoder(w).Encode(payload)
}

// nonNil keeps empty buffers as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// WriteOBJ writes the mesh as Wavefront OBJ with one texture coordinate per
// vertex and 1-based v/vt face references.
func WriteOBJ(w io.Writer, m *terrain.Mesh) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "# %d vertices, %d triangles\n", m.VertexCount(), m.TriangleCount())
	for i := 0; i+2 < len(m.Positions); i += 3 {
		bw.WriteString("v ")
		writeFloats(bw, m.Positions[i:i+3])
	}
	for i := 0; i+1 < len(m.UVs); i += 2 {
		bw.WriteString("vt ")
		writeFloats(bw, m.UVs[i:i+2])
	}
	for i := 0; i+2 < len(m.Indices); i += 3 {
		a, b, c := m.Indices[i]+1, m.Indices[i+1]+1, m.Indices[i+2]+1
		fmt.Fprintf(bw, "f %d/%d %d/%d %d/%d\n", a, a, b, b, c, c)
	}

	return bw.Flush()
}

func writeFloats(bw *bufio.Writer, vals []float32) {
	for i, v := range vals {
		if i > 0 {
			bw.WriteByte(' ')
		}
		bw.WriteString(strconv.FormatFloat(float64(v), 'g', -1, 32))
	}
	bw.WriteByte('\n')
}
