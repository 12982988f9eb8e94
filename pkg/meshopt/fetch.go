package meshopt

// FetchOptimizer compacts a vertex buffer to the vertices referenced by an
// index buffer, numbering them in the order the index stream first uses them.
type FetchOptimizer struct {
	alloc Allocator
}

// NewFetchOptimizer creates a vertex fetch optimizer.
func NewFetchOptimizer() *FetchOptimizer {
	return &FetchOptimizer{}
}

// SetAllocator installs the allocation hooks used for scratch memory.
func (f *FetchOptimizer) SetAllocator(a Allocator) {
	f.alloc = a
}

// CompactAndOptimize returns new indices and positions. Unreferenced
// vertices are dropped and the inputs are left untouched.
func (f *FetchOptimizer) CompactAndOptimize(indices []uint32, positions []float32) (newIndices []uint32, newPositions []float32, err error) {
	sc, err := newScratch(f.alloc)
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

	vertexCount := len(positions) / 3
	remap, err := sc.uint32s(vertexCount)
	if err != nil {
		return nil, nil, err
	}
	for i := range remap {
		remap[i] = unused
	}

	newIndices = make([]uint32, len(indices))
	newPositions = make([]float32, 0, min(vertexCount, len(indices))*3)

	var next uint32
	for i, v := range indices {
		if remap[v] == unused {
			remap[v] = next
			next++
			newPositions = append(newPositions, positions[v*3:v*3+3]...)
		}
		newIndices[i] = remap[v]
	}

	return newIndices, newPositions, nil
}
