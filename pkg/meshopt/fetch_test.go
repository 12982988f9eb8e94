package meshopt

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// compactor is the shape shared by both optimizers.
type compactor interface {
	AllocatorSetter
	CompactAndOptimize(indices []uint32, positions []float32) ([]uint32, []float32, error)
}

func testCompactors() map[string]func() compactor {
	return map[string]func() compactor{
		"fetch":   func() compactor { return NewFetchOptimizer() },
		"hilbert": func() compactor { return NewHilbertOptimizer() },
	}
}

// sparseMesh references a subset of a 4x4 grid, in a scrambled order.
func sparseMesh() ([]uint32, []float32) {
	positions, _ := testGrid(4)
	indices := []uint32{24, 12, 20, 12, 0, 4, 6, 12, 4}
	return indices, positions
}

func corner(positions []float32, v uint32) [3]float32 {
	return [3]float32{positions[v*3], positions[v*3+1], positions[v*3+2]}
}

func TestCompact_Invariants(t *testing.T) {
	for name, newCompactor := range testCompactors() {
		t.Run(name, func(t *testing.T) {
			indices, positions := sparseMesh()
			origIndices := append([]uint32(nil), indices...)
			origPositions := append([]float32(nil), positions...)

			c := newCompactor()
			c.SetAllocator(NewRegistry())
			newIndices, newPositions, err := c.CompactAndOptimize(indices, positions)
			if err != nil {
				t.Fatalf("CompactAndOptimize failed: %v", err)
			}

			distinct := make(map[uint32]bool)
			for _, v := range indices {
				distinct[v] = true
			}
			if got := len(newPositions) / 3; got != len(distinct) {
				t.Errorf("vertex count = %d, want %d", got, len(distinct))
			}
			if len(newIndices) != len(indices) {
				t.Fatalf("index count = %d, want %d", len(newIndices), len(indices))
			}

			checkIndices(t, newIndices, len(newPositions)/3)

			// Every output vertex is referenced.
			used := make([]bool, len(newPositions)/3)
			for _, v := range newIndices {
				used[v] = true
			}
			for v, ok := range used {
				if !ok {
					t.Errorf("vertex %d is not referenced", v)
				}
			}

			// Each triangle keeps its corner positions and order.
			for i := range indices {
				want := corner(positions, indices[i])
				got := corner(newPositions, newIndices[i])
				if want != got {
					t.Errorf("corner %d = %v, want %v", i, got, want)
				}
			}

			if diff := cmp.Diff(origIndices, indices); diff != "" {
				t.Errorf("indices modified (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(origPositions, positions); diff != "" {
				t.Errorf("positions modified (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFetchOptimizer_FirstUseOrder(t *testing.T) {
	indices, positions := sparseMesh()

	f := NewFetchOptimizer()
	f.SetAllocator(NewRegistry())
	newIndices, _, err := f.CompactAndOptimize(indices, positions)
	if err != nil {
		t.Fatalf("CompactAndOptimize failed: %v", err)
	}

	want := []uint32{0, 1, 2, 1, 3, 4, 5, 1, 4}
	if diff := cmp.Diff(want, newIndices); diff != "" {
		t.Errorf("CompactAndOptimize() indices mismatch (-want +got):\n%s", diff)
	}
}

func TestHilbertOptimizer_Locality(t *testing.T) {
	// 8x8 vertices quantize exactly onto an 8x8 curve.
	positions, indices := testGrid(7)

	h := NewHilbertOptimizer()
	h.Resolution = 8
	h.SetAllocator(NewRegistry())
	_, newPositions, err := h.CompactAndOptimize(indices, positions)
	if err != nil {
		t.Fatalf("CompactAndOptimize failed: %v", err)
	}

	for v := 1; v < len(newPositions)/3; v++ {
		prev := corner(newPositions, uint32(v-1))
		cur := corner(newPositions, uint32(v))
		dx, dy := cur[0]-prev[0], cur[1]-prev[1]
		if dx*dx+dy*dy != 1 {
			t.Fatalf("vertices %d and %d are not grid neighbors: %v, %v", v-1, v, prev, cur)
		}
	}
}

func TestQuantize(t *testing.T) {
	tests := []struct {
		v, lo, hi float32
		n         int
		want      int
	}{
		{0, 0, 1, 1024, 0},
		{1, 0, 1, 1024, 1023},
		{0.5, 0, 1, 3, 1},
		{2, 0, 1, 8, 7},
		{-1, 0, 1, 8, 0},
		{5, 5, 5, 8, 0},
	}

	for _, tt := range tests {
		if got := quantize(tt.v, tt.lo, tt.hi, tt.n); got != tt.want {
			t.Errorf("quantize(%v, %v, %v, %d) = %d, want %d", tt.v, tt.lo, tt.hi, tt.n, got, tt.want)
		}
	}
}

func TestCompact_Empty(t *testing.T) {
	for name, newCompactor := range testCompactors() {
		t.Run(name, func(t *testing.T) {
			c := newCompactor()
			c.SetAllocator(NewRegistry())
			newIndices, newPositions, err := c.CompactAndOptimize(nil, []float32{1, 2, 3})
			if err != nil {
				t.Fatalf("CompactAndOptimize failed: %v", err)
			}
			if len(newIndices) != 0 || len(newPositions) != 0 {
				t.Errorf("got %d indices, %d floats, want empty", len(newIndices), len(newPositions))
			}
		})
	}
}

func TestCompact_InvalidInput(t *testing.T) {
	for name, newCompactor := range testCompactors() {
		t.Run(name, func(t *testing.T) {
			c := newCompactor()
			c.SetAllocator(NewRegistry())
			_, _, err := c.CompactAndOptimize([]uint32{0, 1, 9}, make([]float32, 9))
			if !errors.Is(err, ErrIndexOutOfRange) {
				t.Errorf("got %v, want %v", err, ErrIndexOutOfRange)
			}
		})
	}
}
