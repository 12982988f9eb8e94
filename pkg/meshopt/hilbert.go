package meshopt

import (
	"fmt"
	"math"
	"sort"

	"github.com/google/hilbert"
)

// DefaultHilbertResolution is the grid size vertices are quantized to.
const DefaultHilbertResolution = 1024

// HilbertOptimizer compacts a vertex buffer to the referenced vertices and
// orders them along a Hilbert curve over their X/Y position, so vertices
// close on the tile are close in memory.
type HilbertOptimizer struct {
	alloc Allocator

	// Resolution is the power-of-two quantization grid; 0 selects the default.
	Resolution int
}

// NewHilbertOptimizer creates a Hilbert-order optimizer.
func NewHilbertOptimizer() *HilbertOptimizer {
	return &HilbertOptimizer{}
}

// SetAllocator installs the allocation hooks used for scratch memory.
func (h *HilbertOptimizer) SetAllocator(a Allocator) {
	h.alloc = a
}

// CompactAndOptimize returns new indices and positions with unreferenced
// vertices dropped. Ties on the curve keep first-use order.
func (h *HilbertOptimizer) CompactAndOptimize(indices []uint32, positions []float32) (newIndices []uint32, newPositions []float32, err error) {
	sc, err := newScratch(h.alloc)
	if err != nil {
		return nil, nil, err
	}
	defer func() {
		if rerr := sc.release(); rerr != nil && err == nil {
			newIndices, newPositions, err = nil, nil, rerr
		}
	}()

	if err := validateMesh(indices, positions); err != nil {
		return nil, nil, err
	}

	resolution := h.Resolution
	if resolution == 0 {
		resolution = DefaultHilbertResolution
	}
	curve, err := hilbert.NewHilbert(resolution)
	if err != nil {
		return nil, nil, fmt.Errorf("meshopt: hilbert resolution %d: %w", resolution, err)
	}

	vertexCount := len(positions) / 3
	remap, err := sc.uint32s(vertexCount)
	if err != nil {
		return nil, nil, err
	}
	for i := range remap {
		remap[i] = unused
	}

	// Collect referenced vertices and their planar bounds
	order := make([]uint32, 0, min(vertexCount, len(indices)))
	minX, minY := float32(math.MaxFloat32), float32(math.MaxFloat32)
	maxX, maxY := -minX, -minY
	for _, v := range indices {
		if remap[v] != unused {
			continue
		}
		remap[v] = 0
		order = append(order, v)

		x, y := positions[v*3], positions[v*3+1]
		minX, maxX = min(minX, x), max(maxX, x)
		minY, maxY = min(minY, y), max(maxY, y)
	}
	if err := sc.record(len(order) * 4); err != nil {
		return nil, nil, err
	}

	keys, err := sc.uint32s(vertexCount)
	if err != nil {
		return nil, nil, err
	}
	for _, v := range order {
		qx := quantize(positions[v*3], minX, maxX, resolution)
		qy := quantize(positions[v*3+1], minY, maxY, resolution)
		d, err := curve.MapInverse(qx, qy)
		if err != nil {
			return nil, nil, fmt.Errorf("meshopt: hilbert index of vertex %d: %w", v, err)
		}
		keys[v] = uint32(d)
	}

	sort.SliceStable(order, func(i, j int) bool {
		return keys[order[i]] < keys[order[j]]
	})

	newPositions = make([]float32, 0, len(order)*3)
	for i, v := range order {
		remap[v] = uint32(i)
		newPositions = append(newPositions, positions[v*3:v*3+3]...)
	}

	newIndices = make([]uint32, len(indices))
	for i, v := range indices {
		newIndices[i] = remap[v]
	}

	return newIndices, newPositions, nil
}

// quantize maps v from [lo, hi] onto the integer grid [0, n-1].
func quantize(v, lo, hi float32, n int) int {
	if hi <= lo {
		return 0
	}
	q := int(float64(v-lo)/float64(hi-lo)*float64(n-1) + 0.5)
	return max(0, min(n-1, q))
}
