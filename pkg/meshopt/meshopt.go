package meshopt

import (
	"errors"
	"fmt"
)

// Mesh validation errors.
var (
	ErrInvalidIndexCount  = errors.New("meshopt: index count must be a multiple of 3")
	ErrInvalidVertexCount = errors.New("meshopt: position count must be a multiple of 3")
	ErrIndexOutOfRange    = errors.New("meshopt: index out of range")
)

// unused marks a vertex not yet assigned a new index.
const unused = ^uint32(0)

// validateMesh checks buffer shapes and that every index names a vertex.
func validateMesh(indices []uint32, positions []float32) error {
	if len(indices)%3 != 0 {
		return fmt.Errorf("%w: %d", ErrInvalidIndexCount, len(indices))
	}
	if len(positions)%3 != 0 {
		return fmt.Errorf("%w: %d", ErrInvalidVertexCount, len(positions))
	}

	vertexCount := uint32(len(positions) / 3)
	for i, idx := range indices {
		if idx >= vertexCount {
			return fmt.Errorf("%w: index %d is %d, vertex count %d", ErrIndexOutOfRange, i, idx, vertexCount)
		}
	}
	return nil
}
