package terrain

import (
	"github.com/Faultbox/dem2mesh/pkg/dem"
)

// BuildGrid tessellates the height field into a regular grid spanning
// [-Size/2, Size/2] on X and Y with Segments subdivisions per axis.
//
// Vertices are emitted row by row from the south edge (y = -Size/2), so
// vertex (ix, iy) has index iy*(Segments+1)+ix. Each quad cell produces two
// triangles wound counter-clockwise when viewed from +Z.
//
// Segments == 0 yields empty buffers.
func BuildGrid(hf *dem.HeightField, p TileParams, sample Sampler) ([]float32, []uint32, error) {
	if err := p.Validate(); err != nil {
		return nil, nil, err
	}
	if p.Segments == 0 {
		return []float32{}, []uint32{}, nil
	}
	if hf == nil {
		return nil, nil, ErrNilHeightField
	}
	if err := hf.Validate(); err != nil {
		return nil, nil, err
	}
	if sample == nil {
		sample = SampleNearest
	}

	n := p.Segments
	stride := n + 1
	half := p.Size / 2
	step := p.Size / float32(n)

	positions := make([]float32, 0, stride*stride*3)
	for iy := 0; iy < stride; iy++ {
		v := float32(iy) / float32(n)
		y := -half + float32(iy)*step
		if iy == n {
			y = half
		}
		for ix := 0; ix < stride; ix++ {
			u := float32(ix) / float32(n)
			x := -half + float32(ix)*step
			if ix == n {
				x = half
			}
			positions = append(positions, x, y, sample(hf, u, v))
		}
	}

	indices := make([]uint32, 0, n*n*6)
	for iy := 0; iy < n; iy++ {
		for ix := 0; ix < n; ix++ {
			a := uint32(iy*stride + ix)         // south-west
			b := uint32(iy*stride + ix + 1)     // south-east
			c := uint32((iy+1)*stride + ix + 1) // north-east
			d := uint32((iy+1)*stride + ix)     // north-west

			indices = append(indices,
				a, b, d,
				b, c, d,
			)
		}
	}

	return positions, indices, nil
}

// ComputeBounds returns the axis-aligned bounds of a flat xyz buffer.
// An empty buffer yields zero bounds.
func ComputeBounds(positions []float32) Bounds {
	if len(positions) < 3 {
		return Bounds{}
	}

	bounds := Bounds{
		Min: [3]float32{positions[0], positions[1], positions[2]},
		Max: [3]float32{positions[0], positions[1], positions[2]},
	}
	for i := 3; i+2 < len(positions); i += 3 {
		updateBounds(&bounds, [3]float32{positions[i], positions[i+1], positions[i+2]})
	}
	return bounds
}

func updateBounds(b *Bounds, p [3]float32) {
	for i := 0; i < 3; i++ {
		if p[i] < b.Min[i] {
			b.Min[i] = p[i]
		}
		if p[i] > b.Max[i] {
			b.Max[i] = p[i]
		}
	}
}
