package meshopt

import (
	"math"
	"sort"

	mmath "github.com/Faultbox/dem2mesh/pkg/math"
)

// DefaultBorderWeight scales the planes that hold open edges in place.
const DefaultBorderWeight = 10.0

// quadricSlot is the per-vertex error quadric.
type quadricSlot = mmath.Quadric

// quadricSlotSize is the size of a quadricSlot in bytes (11 float64 fields).
const quadricSlotSize = 11 * 8

const vec3Size = 3 * 8

// Vertex kinds derived from open (unpaired) half-edges.
const (
	kindManifold byte = iota // no open edges
	kindBorder               // exactly one open edge in and one out
	kindLocked               // anything else, never moves
)

// Simplifier reduces triangle count by collapsing edges onto existing
// vertices. The vertex buffer is never modified; the returned indices
// reference the original vertices.
type Simplifier struct {
	alloc Allocator

	// AbsoluteError interprets maxError in position units. By default the
	// error is relative to the largest extent of the mesh.
	AbsoluteError bool

	// BorderWeight overrides DefaultBorderWeight when positive.
	BorderWeight float64
}

// SimplifyResult is the outcome of a simplification run.
type SimplifyResult struct {
	Indices []uint32
	Error   float32 // Largest collapse error, in the units of maxError
	Passes  int
}

// NewSimplifier creates a simplifier with relative error semantics.
func NewSimplifier() *Simplifier {
	return &Simplifier{}
}

// SetAllocator installs the allocation hooks used for scratch memory.
func (s *Simplifier) SetAllocator(a Allocator) {
	s.alloc = a
}

// Simplify returns a reduced index buffer that approaches targetIndexCount
// without exceeding maxError.
func (s *Simplifier) Simplify(indices []uint32, positions []float32, targetIndexCount int, maxError float32) ([]uint32, error) {
	res, err := s.SimplifyResult(indices, positions, targetIndexCount, maxError)
	if err != nil {
		return nil, err
	}
	return res.Indices, nil
}

// collapse moves vertex from onto vertex to.
type collapse struct {
	from, to uint32
	err      float64
}

// SimplifyResult is Simplify with the reached error and pass count.
func (s *Simplifier) SimplifyResult(indices []uint32, positions []float32, targetIndexCount int, maxError float32) (res SimplifyResult, err error) {
	sc, err := newScratch(s.alloc)
	if err != nil {
		return SimplifyResult{}, err
	}
	defer func() {
		if rerr := sc.release(); rerr != nil && err == nil {
			res, err = SimplifyResult{}, rerr
		}
	}()

	if err := validateMesh(indices, positions); err != nil {
		return SimplifyResult{}, err
	}

	result := make([]uint32, len(indices))
	copy(result, indices)

	target := max(targetIndexCount, 0) / 3 * 3
	if len(result) <= target {
		return SimplifyResult{Indices: result}, nil
	}

	vertexCount := len(positions) / 3

	// Scratch buffers, sized once for the whole run
	verts, err := s.normalizedPositions(sc, positions)
	if err != nil {
		return SimplifyResult{}, err
	}
	quadrics, err := sc.quadrics(vertexCount)
	if err != nil {
		return SimplifyResult{}, err
	}
	kinds, err := sc.bytes(vertexCount)
	if err != nil {
		return SimplifyResult{}, err
	}
	locked, err := sc.bytes(vertexCount)
	if err != nil {
		return SimplifyResult{}, err
	}
	remap, err := sc.uint32s(vertexCount)
	if err != nil {
		return SimplifyResult{}, err
	}
	adj, err := newAdjacency(sc, vertexCount, len(indices))
	if err != nil {
		return SimplifyResult{}, err
	}

	adj.build(result)
	fillFaceQuadrics(quadrics, result, verts)
	if err := s.classify(sc, kinds, quadrics, result, verts, adj); err != nil {
		return SimplifyResult{}, err
	}

	limit := float64(maxError) * float64(maxError)
	var reached float64
	passes := 0

	for len(result) > target {
		candidates := pickCollapses(result, verts, quadrics, kinds, adj)
		if len(candidates) == 0 {
			break
		}
		sort.Slice(candidates, func(i, j int) bool {
			return candidates[i].err < candidates[j].err
		})

		for i := range remap {
			remap[i] = uint32(i)
			locked[i] = 0
		}

		goal := (len(result) - target) / 3
		removed := 0
		performed := 0

		for _, c := range candidates {
			if c.err > limit || removed >= goal {
				break
			}
			if locked[c.from] != 0 || locked[c.to] != 0 {
				continue
			}
			if hasTriangleFlip(result, verts, positions, adj, c.from, c.to) {
				continue
			}

			remap[c.from] = c.to
			locked[c.to] = 1
			for _, t := range adj.triangles(c.from) {
				locked[result[t*3]] = 1
				locked[result[t*3+1]] = 1
				locked[result[t*3+2]] = 1
				if hasVertex(result, t, c.to) {
					removed++
				}
			}

			quadrics[c.to].Add(quadrics[c.from])
			reached = math.Max(reached, c.err)
			performed++
		}

		if performed == 0 {
			break
		}

		result = remapTriangles(result, remap)
		adj.build(result)
		passes++
	}

	return SimplifyResult{
		Indices: result,
		Error:   float32(math.Sqrt(reached)),
		Passes:  passes,
	}, nil
}

// normalizedPositions converts positions to double precision, translated to
// the origin and scaled to unit extent unless AbsoluteError is set.
func (s *Simplifier) normalizedPositions(sc *scratch, positions []float32) ([]mmath.Vec3, error) {
	vertexCount := len(positions) / 3
	if err := sc.record(vertexCount * vec3Size); err != nil {
		return nil, err
	}
	verts := make([]mmath.Vec3, vertexCount)
	if vertexCount == 0 {
		return verts, nil
	}

	lo := mmath.Vec3At(positions, 0)
	hi := lo
	for i := 0; i < vertexCount; i++ {
		verts[i] = mmath.Vec3At(positions, uint32(i))
		lo = lo.Min(verts[i])
		hi = hi.Max(verts[i])
	}

	scale := 1.0
	if !s.AbsoluteError {
		size := hi.Sub(lo)
		extent := math.Max(size.X, math.Max(size.Y, size.Z))
		if extent > 0 {
			scale = 1 / extent
		}
	}

	for i := range verts {
		verts[i] = verts[i].Sub(lo).Scale(scale)
	}
	return verts, nil
}

func (s *Simplifier) borderWeight() float64 {
	if s.BorderWeight > 0 {
		return s.BorderWeight
	}
	return DefaultBorderWeight
}

// fillFaceQuadrics accumulates each triangle's area-weighted plane into its corners.
func fillFaceQuadrics(quadrics []quadricSlot, indices []uint32, verts []mmath.Vec3) {
	for t := 0; t < len(indices); t += 3 {
		a, b, c := indices[t], indices[t+1], indices[t+2]
		n := mmath.TriangleNormal(verts[a], verts[b], verts[c])
		area2 := n.Length()
		if area2 == 0 {
			continue
		}
		n = n.Scale(1 / area2)

		q := mmath.PlaneQuadric(n, -n.Dot(verts[a]), area2*0.5)
		quadrics[a].Add(q)
		quadrics[b].Add(q)
		quadrics[c].Add(q)
	}
}

// classify assigns vertex kinds from open half-edges and adds a plane
// perpendicular to every open edge so borders keep their outline.
func (s *Simplifier) classify(sc *scratch, kinds []byte, quadrics []quadricSlot, indices []uint32, verts []mmath.Vec3, adj *adjacency) error {
	openOut, err := sc.bytes(len(kinds))
	if err != nil {
		return err
	}
	openIn, err := sc.bytes(len(kinds))
	if err != nil {
		return err
	}
	weight := s.borderWeight()

	for t := 0; t < len(indices); t += 3 {
		for e := 0; e < 3; e++ {
			a := indices[t+e]
			b := indices[t+(e+1)%3]
			c := indices[t+(e+2)%3]
			if a == b || adj.hasEdge(indices, b, a) {
				continue
			}

			openOut[a] = saturatingInc(openOut[a])
			openIn[b] = saturatingInc(openIn[b])

			edge := verts[b].Sub(verts[a])
			length := edge.Length()
			normal := mmath.TriangleNormal(verts[a], verts[b], verts[c])
			plane := edge.Cross(normal).Normalize()
			if length == 0 || plane == (mmath.Vec3{}) {
				continue
			}

			q := mmath.PlaneQuadric(plane, -plane.Dot(verts[a]), length*weight)
			quadrics[a].Add(q)
			quadrics[b].Add(q)
		}
	}

	for v := range kinds {
		switch {
		case openOut[v] == 0 && openIn[v] == 0:
			kinds[v] = kindManifold
		case openOut[v] == 1 && openIn[v] == 1:
			kinds[v] = kindBorder
		default:
			kinds[v] = kindLocked
		}
	}
	return nil
}

func saturatingInc(v uint8) uint8 {
	if v == math.MaxUint8 {
		return v
	}
	return v + 1
}

// pickCollapses returns one candidate per collapsible edge, in its cheaper allowed direction.
func pickCollapses(indices []uint32, verts []mmath.Vec3, quadrics []quadricSlot, kinds []byte, adj *adjacency) []collapse {
	candidates := make([]collapse, 0, len(indices)/2)

	for t := 0; t < len(indices); t += 3 {
		for e := 0; e < 3; e++ {
			a := indices[t+e]
			b := indices[t+(e+1)%3]
			if a == b {
				continue
			}
			open := !adj.hasEdge(indices, b, a)
			// Interior edges appear twice, keep one
			if !open && a > b {
				continue
			}

			ab := canCollapse(kinds[a], kinds[b], open)
			ba := canCollapse(kinds[b], kinds[a], open)
			if !ab && !ba {
				continue
			}

			errAB := math.Inf(1)
			if ab {
				errAB = quadrics[a].Error(verts[b])
			}
			errBA := math.Inf(1)
			if ba {
				errBA = quadrics[b].Error(verts[a])
			}

			if errAB <= errBA {
				candidates = append(candidates, collapse{from: a, to: b, err: errAB})
			} else {
				candidates = append(candidates, collapse{from: b, to: a, err: errBA})
			}
		}
	}
	return candidates
}

// canCollapse reports whether a vertex of kind from may move onto a vertex of kind to.
// Border vertices only slide along an open edge onto another border vertex.
func canCollapse(from, to byte, openEdge bool) bool {
	switch from {
	case kindManifold:
		return true
	case kindBorder:
		return to == kindBorder && openEdge
	default:
		return false
	}
}

// hasTriangleFlip reports whether moving from onto to would tilt any
// surviving triangle by more than about 75 degrees, make it degenerate, or
// reverse the xy winding of a triangle that faces up.
func hasTriangleFlip(indices []uint32, verts []mmath.Vec3, positions []float32, adj *adjacency, from, to uint32) bool {
	target := verts[to]
	for _, t := range adj.triangles(from) {
		if hasVertex(indices, t, to) {
			continue
		}

		corners := [3]mmath.Vec3{verts[indices[t*3]], verts[indices[t*3+1]], verts[indices[t*3+2]]}
		before := mmath.TriangleNormal(corners[0], corners[1], corners[2])

		for k := 0; k < 3; k++ {
			if indices[t*3+uint32(k)] == from {
				corners[k] = target
			}
		}
		after := mmath.TriangleNormal(corners[0], corners[1], corners[2])

		la := after.Length()
		if la == 0 || before.Dot(after) < 0.25*before.Length()*la {
			return true
		}

		if orient2D(positions, indices, t, from, from) > 0 && orient2D(positions, indices, t, from, to) <= 0 {
			return true
		}
	}
	return false
}

// orient2D returns twice the signed xy area of triangle t with from moved
// onto to. The sign is exact for float32 inputs.
func orient2D(positions []float32, indices []uint32, t, from, to uint32) float64 {
	var p [3]mmath.Vec3
	for k := 0; k < 3; k++ {
		v := indices[t*3+uint32(k)]
		if v == from {
			v = to
		}
		p[k] = mmath.Vec3At(positions, v)
	}
	return (p[1].X-p[0].X)*(p[2].Y-p[0].Y) - (p[1].Y-p[0].Y)*(p[2].X-p[0].X)
}

func hasVertex(indices []uint32, t uint32, v uint32) bool {
	return indices[t*3] == v || indices[t*3+1] == v || indices[t*3+2] == v
}

// remapTriangles rewrites indices through remap in place and drops
// triangles that became degenerate.
func remapTriangles(indices []uint32, remap []uint32) []uint32 {
	out := indices[:0]
	for t := 0; t < len(indices); t += 3 {
		a, b, c := remap[indices[t]], remap[indices[t+1]], remap[indices[t+2]]
		if a == b || b == c || c == a {
			continue
		}
		out = append(out, a, b, c)
	}
	return out
}

// adjacency lists, for every vertex, the triangles that reference it.
type adjacency struct {
	offsets []uint32
	counts  []uint32
	data    []uint32
}

func newAdjacency(sc *scratch, vertexCount, indexCount int) (*adjacency, error) {
	offsets, err := sc.uint32s(vertexCount + 1)
	if err != nil {
		return nil, err
	}
	counts, err := sc.uint32s(vertexCount)
	if err != nil {
		return nil, err
	}
	data, err := sc.uint32s(indexCount)
	if err != nil {
		return nil, err
	}
	return &adjacency{offsets: offsets, counts: counts, data: data}, nil
}

func (a *adjacency) build(indices []uint32) {
	clear(a.counts)
	for _, v := range indices {
		a.counts[v]++
	}

	var offset uint32
	for v, c := range a.counts {
		a.offsets[v] = offset
		offset += c
	}
	a.offsets[len(a.counts)] = offset

	clear(a.counts)
	for i, v := range indices {
		a.data[a.offsets[v]+a.counts[v]] = uint32(i / 3)
		a.counts[v]++
	}
}

func (a *adjacency) triangles(v uint32) []uint32 {
	return a.data[a.offsets[v] : a.offsets[v]+a.counts[v]]
}

// hasEdge reports whether some triangle contains the directed edge from -> to.
func (a *adjacency) hasEdge(indices []uint32, from, to uint32) bool {
	for _, t := range a.triangles(from) {
		i0, i1, i2 := indices[t*3], indices[t*3+1], indices[t*3+2]
		if (i0 == from && i1 == to) || (i1 == from && i2 == to) || (i2 == from && i0 == to) {
			return true
		}
	}
	return false
}
