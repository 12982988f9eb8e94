// Package pipeline turns terrarium-encoded elevation tiles into simplified
// terrain meshes.
//
// A run decodes the tile, tessellates a regular grid, reduces it with a
// Simplifier, compacts the vertex buffer with a Compactor and synthesizes
// texture coordinates. Backends that implement meshopt.AllocatorSetter get
// a fresh allocation registry per run, which must be empty when the run ends.
package pipeline

import (
	"fmt"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/dem2mesh/internal/config"
	"github.com/Faultbox/dem2mesh/internal/terrain"
	"github.com/Faultbox/dem2mesh/pkg/dem"
	"github.com/Faultbox/dem2mesh/pkg/meshopt"
)

// Simplifier reduces an index buffer. The returned indices reference the
// input vertex buffer. maxError is relative to the mesh extent.
type Simplifier interface {
	Simplify(indices []uint32, positions []float32, targetIndexCount int, maxError float32) ([]uint32, error)
}

// Compactor drops unreferenced vertices and reorders the rest.
type Compactor interface {
	CompactAndOptimize(indices []uint32, positions []float32) (newIndices []uint32, newPositions []float32, err error)
}

// AllocatorSetter is implemented by backends that take allocation hooks.
type AllocatorSetter = meshopt.AllocatorSetter

// errorReporter is implemented by simplifiers that report the reached error.
type errorReporter interface {
	SimplifyResult(indices []uint32, positions []float32, targetIndexCount int, maxError float32) (meshopt.SimplifyResult, error)
}

// Budget bounds the reduction step.
type Budget struct {
	TargetRatio   float32 // Fraction of grid triangles to keep, rounded down
	MaxError      float32
	AbsoluteError bool // MaxError in world units instead of relative to the extent
}

// DefaultBudget returns the default reduction budget.
func DefaultBudget() Budget {
	return Budget{TargetRatio: 0.2, MaxError: 0.01}
}

// Options configures a Generator.
type Options struct {
	Budget  Budget
	Sampler terrain.Sampler // nil selects terrain.SampleNearest
}

// Generator runs the tile pipeline. Runs are serialized.
type Generator struct {
	mu         sync.Mutex
	opts       Options
	simplifier Simplifier
	compactor  Compactor
	log        *zap.Logger
}

// New creates a Generator from explicit backends.
func New(opts Options, simplifier Simplifier, compactor Compactor, log *zap.Logger) *Generator {
	if opts.Sampler == nil {
		opts.Sampler = terrain.SampleNearest
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Generator{
		opts:       opts,
		simplifier: simplifier,
		compactor:  compactor,
		log:        log,
	}
}

// NewDefault creates a Generator with the bundled backends selected by cfg.
func NewDefault(cfg *config.Config, log *zap.Logger) (*Generator, error) {
	sampler, err := terrain.ParseSampler(cfg.Tile.Sampling)
	if err != nil {
		return nil, err
	}

	var compactor Compactor
	switch cfg.Compact.Order {
	case "", config.OrderFetch:
		compactor = meshopt.NewFetchOptimizer()
	case config.OrderHilbert:
		compactor = meshopt.NewHilbertOptimizer()
	default:
		return nil, fmt.Errorf("unknown compaction order %q", cfg.Compact.Order)
	}

	opts := Options{
		Budget: Budget{
			TargetRatio:   cfg.Simplify.TargetRatio,
			MaxError:      cfg.Simplify.MaxError,
			AbsoluteError: cfg.Simplify.AbsoluteError,
		},
		Sampler: sampler,
	}
	return New(opts, meshopt.NewSimplifier(), compactor, log), nil
}

// Elevation decodes a tile into its height field.
func (g *Generator) Elevation(data []byte) (*dem.HeightField, error) {
	hf, err := dem.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return hf, nil
}

// Generate builds the simplified mesh of one elevation tile. On failure no
// partial mesh is returned.
func (g *Generator) Generate(data []byte, p terrain.TileParams) (*terrain.Mesh, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	start := time.Now()

	hf, err := g.Elevation(data)
	if err != nil {
		return nil, err
	}
	g.log.Debug("decoded tile", zap.Int("width", hf.Width), zap.Int("height", hf.Height))

	positions, indices, err := terrain.BuildGrid(hf, p, g.opts.Sampler)
	if err != nil {
		return nil, fmt.Errorf("tessellate: %w", err)
	}

	stats := terrain.Stats{
		GridVertices:  len(positions) / 3,
		GridTriangles: len(indices) / 3,
	}
	g.log.Debug("tessellated grid",
		zap.Int("segments", p.Segments),
		zap.Int("vertices", stats.GridVertices),
		zap.Int("triangles", stats.GridTriangles))

	reg := meshopt.NewRegistry()
	g.installAllocator(reg)

	stats.TargetTriangles = targetTriangles(stats.GridTriangles, g.opts.Budget.TargetRatio)
	maxError := g.relativeError(positions)

	reduced, reachedErr, err := g.simplify(indices, positions, stats.TargetTriangles*3, maxError)
	if err != nil {
		return nil, fmt.Errorf("simplify: %w", err)
	}
	stats.ReducedTriangles = len(reduced) / 3
	stats.SimplifyError = reachedErr
	g.log.Debug("simplified mesh",
		zap.Int("target_triangles", stats.TargetTriangles),
		zap.Int("triangles", stats.ReducedTriangles),
		zap.Float32("error", reachedErr))

	finalIndices, finalPositions, err := g.compactor.CompactAndOptimize(reduced, positions)
	if err != nil {
		return nil, fmt.Errorf("compact: %w", err)
	}
	stats.FinalVertices = len(finalPositions) / 3
	g.log.Debug("compacted vertices", zap.Int("vertices", stats.FinalVertices))

	if err := reg.CheckLeaks(); err != nil {
		return nil, fmt.Errorf("allocator: %w", err)
	}

	mesh := &terrain.Mesh{
		Positions: finalPositions,
		Indices:   finalIndices,
		UVs:       terrain.ComputeUVs(finalPositions, p.Size),
		Bounds:    terrain.ComputeBounds(finalPositions),
		Stats:     stats,
	}

	g.log.Info("generated tile mesh",
		zap.Int("grid_triangles", stats.GridTriangles),
		zap.Int("triangles", mesh.TriangleCount()),
		zap.Int("vertices", mesh.VertexCount()),
		zap.Int("scratch_peak_bytes", reg.Peak()),
		zap.Duration("took", time.Since(start)))

	return mesh, nil
}

// installAllocator hands reg to every backend that accepts allocation hooks.
func (g *Generator) installAllocator(reg meshopt.Allocator) {
	if s, ok := g.simplifier.(AllocatorSetter); ok {
		s.SetAllocator(reg)
	}
	if c, ok := g.compactor.(AllocatorSetter); ok {
		c.SetAllocator(reg)
	}
}

func (g *Generator) simplify(indices []uint32, positions []float32, target int, maxError float32) ([]uint32, float32, error) {
	if r, ok := g.simplifier.(errorReporter); ok {
		res, err := r.SimplifyResult(indices, positions, target, maxError)
		if err != nil {
			return nil, 0, err
		}
		return res.Indices, res.Error, nil
	}

	reduced, err := g.simplifier.Simplify(indices, positions, target, maxError)
	return reduced, 0, err
}

// relativeError converts an absolute budget into a fraction of the largest
// mesh extent, the unit Simplifier expects.
func (g *Generator) relativeError(positions []float32) float32 {
	b := g.opts.Budget
	if !b.AbsoluteError || len(positions) == 0 {
		return b.MaxError
	}

	bounds := terrain.ComputeBounds(positions)
	var extent float32
	for i := 0; i < 3; i++ {
		extent = max(extent, bounds.Max[i]-bounds.Min[i])
	}
	if extent == 0 {
		return b.MaxError
	}
	return b.MaxError / extent
}

// targetTriangles is floor(triangles * ratio).
func targetTriangles(triangles int, ratio float32) int {
	return int(math.Floor(float64(triangles) * float64(ratio)))
}
