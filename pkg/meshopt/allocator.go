// Package meshopt implements triangle mesh simplification and vertex fetch
// optimization for indexed meshes with float32 xyz positions.
//
// Backends take every scratch buffer through an Allocator installed with
// SetAllocator and release it before returning. A backend called without an
// allocator fails with ErrNoAllocator.
package meshopt

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"
)

// Allocator errors.
var (
	ErrNoAllocator            = errors.New("meshopt: allocator not set")
	ErrUnknownAllocation      = errors.New("meshopt: deallocation without matching allocation")
	ErrAllocationSizeMismatch = errors.New("meshopt: deallocation size does not match allocation")
	ErrAllocationLeak         = errors.New("meshopt: allocations outstanding")
	ErrInvalidAllocation      = errors.New("meshopt: invalid allocation size")
)

// Allocator records scratch allocations made by a backend.
// Each Allocate returns a handle that must be passed back to Deallocate
// exactly once, with the same size.
type Allocator interface {
	Allocate(size int) (uintptr, error)
	Deallocate(ptr uintptr, size int) error
}

// AllocatorSetter is implemented by backends that accept allocation hooks.
type AllocatorSetter interface {
	SetAllocator(a Allocator)
}

// Registry is an Allocator that keeps one record per live allocation.
// It is not safe for concurrent use.
type Registry struct {
	live        map[uintptr]int
	next        uintptr
	outstanding int
	peak        int
	total       int
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{live: make(map[uintptr]int)}
}

// Allocate records an allocation of size bytes and returns its handle.
func (r *Registry) Allocate(size int) (uintptr, error) {
	if size < 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidAllocation, size)
	}
	if r.live == nil {
		r.live = make(map[uintptr]int)
	}

	r.next++
	ptr := r.next
	r.live[ptr] = size

	r.outstanding += size
	r.total += size
	if r.outstanding > r.peak {
		r.peak = r.outstanding
	}
	return ptr, nil
}

// Deallocate releases the allocation ptr, which must have been made with size bytes.
func (r *Registry) Deallocate(ptr uintptr, size int) error {
	recorded, ok := r.live[ptr]
	if !ok {
		return fmt.Errorf("%w: handle %d", ErrUnknownAllocation, ptr)
	}
	if recorded != size {
		return fmt.Errorf("%w: handle %d allocated %d bytes, released %d", ErrAllocationSizeMismatch, ptr, recorded, size)
	}

	delete(r.live, ptr)
	r.outstanding -= size
	return nil
}

// Live returns the number of allocations not yet released.
func (r *Registry) Live() int {
	return len(r.live)
}

// Outstanding returns the number of bytes not yet released.
func (r *Registry) Outstanding() int {
	return r.outstanding
}

// Peak returns the highest number of bytes live at once.
func (r *Registry) Peak() int {
	return r.peak
}

// Total returns the number of bytes allocated over the registry's lifetime.
func (r *Registry) Total() int {
	return r.total
}

// CheckLeaks returns ErrAllocationLeak if any allocation is still live.
func (r *Registry) CheckLeaks() error {
	if len(r.live) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %d allocations, %d bytes", ErrAllocationLeak, len(r.live), r.outstanding)
}

// scratch hands out typed buffers and records each one with the allocator.
type scratch struct {
	alloc Allocator
	held  []allocation
}

type allocation struct {
	ptr  uintptr
	size int
}

func newScratch(a Allocator) (*scratch, error) {
	if a == nil {
		return nil, ErrNoAllocator
	}
	return &scratch{alloc: a}, nil
}

func (s *scratch) record(size int) error {
	ptr, err := s.alloc.Allocate(size)
	if err != nil {
		return err
	}
	s.held = append(s.held, allocation{ptr: ptr, size: size})
	return nil
}

func (s *scratch) uint32s(n int) ([]uint32, error) {
	if err := s.record(n * 4); err != nil {
		return nil, err
	}
	return make([]uint32, n), nil
}

func (s *scratch) bytes(n int) ([]byte, error) {
	if err := s.record(n); err != nil {
		return nil, err
	}
	return make([]byte, n), nil
}

func (s *scratch) quadrics(n int) ([]quadricSlot, error) {
	if err := s.record(n * quadricSlotSize); err != nil {
		return nil, err
	}
	return make([]quadricSlot, n), nil
}

// release returns every held buffer in reverse order and reports every failure.
func (s *scratch) release() error {
	var err error
	for i := len(s.held) - 1; i >= 0; i-- {
		a := s.held[i]
		err = multierr.Append(err, s.alloc.Deallocate(a.ptr, a.size))
	}
	s.held = nil
	return err
}
