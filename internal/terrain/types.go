// Package terrain builds regular-grid tile meshes from elevation height fields.
package terrain

import (
	"errors"
	"math"
)

// MaxSegments is the largest subdivision count accepted by BuildGrid.
const MaxSegments = 255

// Tessellation errors.
var (
	ErrInvalidTileSize = errors.New("tile size must be a positive finite number")
	ErrInvalidSegments = errors.New("segments out of range")
	ErrNilHeightField  = errors.New("nil height field")
)

// TileParams describes the physical extent and density of a tile mesh.
type TileParams struct {
	Size     float32 // Edge length in world units
	Segments int     // Subdivisions per axis, 0 yields an empty mesh
}

// Validate checks the parameters against BuildGrid's limits.
func (p TileParams) Validate() error {
	s := float64(p.Size)
	if !(s > 0) || math.IsInf(s, 0) {
		return ErrInvalidTileSize
	}
	if p.Segments < 0 || p.Segments > MaxSegments {
		return ErrInvalidSegments
	}
	return nil
}

// Mesh holds the final tile mesh ready for GPU upload.
type Mesh struct {
	Positions []float32 // xyz per vertex
	Indices   []uint32  // CCW triangles viewed from +Z
	UVs       []float32 // uv per vertex
	Bounds    Bounds
	Stats     Stats
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Positions) / 3
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// Bounds holds the axis-aligned bounding box of the mesh.
type Bounds struct {
	Min [3]float32
	Max [3]float32
}

// Stats records mesh sizes through the pipeline.
type Stats struct {
	GridVertices     int
	GridTriangles    int
	TargetTriangles  int
	ReducedTriangles int
	FinalVertices    int
	SimplifyError    float32 // Reached error, 0 when the backend does not report it
}
