package terrain

import (
	"fmt"

	"github.com/Faultbox/dem2mesh/pkg/dem"
)

// Sampler returns the elevation at normalized tile coordinates.
// u runs west to east and v runs south to north, both in [0, 1].
// Image row 0 is the north edge of the tile.
type Sampler func(hf *dem.HeightField, u, v float32) float32

// Sampler names accepted by ParseSampler.
const (
	SamplingNearest  = "nearest"
	SamplingBilinear = "bilinear"
)

// ParseSampler returns the sampler registered under name.
func ParseSampler(name string) (Sampler, error) {
	switch name {
	case "", SamplingNearest:
		return SampleNearest, nil
	case SamplingBilinear:
		return SampleBilinear, nil
	default:
		return nil, fmt.Errorf("unknown sampling %q", name)
	}
}

// SampleNearest returns the sample of the nearest pixel.
func SampleNearest(hf *dem.HeightField, u, v float32) float32 {
	px, py := pixelCoords(hf, u, v)
	return hf.At(int(px+0.5), int(py+0.5))
}

// SampleBilinear interpolates the four pixels surrounding (u, v).
func SampleBilinear(hf *dem.HeightField, u, v float32) float32 {
	px, py := pixelCoords(hf, u, v)

	cellX := int(px)
	cellY := int(py)

	// Keep a full 2x2 neighbourhood inside the field
	if cellX >= hf.Width-1 {
		cellX = hf.Width - 2
	}
	if cellY >= hf.Height-1 {
		cellY = hf.Height - 2
	}
	if cellX < 0 {
		cellX = 0
	}
	if cellY < 0 {
		cellY = 0
	}

	fracX := clampf(px-float32(cellX), 0, 1)
	fracY := clampf(py-float32(cellY), 0, 1)

	// Upper row (smaller y): lerp between left and right
	upper := hf.At(cellX, cellY)*(1-fracX) + hf.At(cellX+1, cellY)*fracX
	// Lower row
	lower := hf.At(cellX, cellY+1)*(1-fracX) + hf.At(cellX+1, cellY+1)*fracX

	return upper*(1-fracY) + lower*fracY
}

// pixelCoords maps normalized tile coordinates to fractional pixel coordinates.
func pixelCoords(hf *dem.HeightField, u, v float32) (float32, float32) {
	u = clampf(u, 0, 1)
	v = clampf(v, 0, 1)
	return u * float32(hf.Width-1), (1 - v) * float32(hf.Height-1)
}

func clampf(v, min, max float32) float32 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
