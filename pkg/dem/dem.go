// Package dem decodes terrarium-encoded elevation tiles into height fields.
//
// A tile is a 256x256 RGB PNG where each pixel stores one elevation sample:
//
//	elevation = R*256 + G + B/256 - 32768
//
// The integer part is carried by R and G, the fraction by B in 1/256 steps.
package dem

import (
	"errors"
	"fmt"
)

// Tile dimensions required by Decode.
const (
	TileWidth    = 256
	TileHeight   = 256
	TileChannels = 3
	TileBitDepth = 8
)

// Elevation range representable by the encoding.
const (
	MinElevation = -32768.0
	MaxElevation = 32767.0 + 255.0/256.0
)

// Decode errors.
var (
	ErrDecode         = errors.New("malformed elevation image")
	ErrEmptyHeightmap = errors.New("empty height field")
)

// Format describes the pixel layout of an image.
type Format struct {
	Width    int
	Height   int
	Channels int
	BitDepth int
}

// String returns the format as "WxH Nch Bbit".
func (f Format) String() string {
	return fmt.Sprintf("%dx%d %dch %dbit", f.Width, f.Height, f.Channels, f.BitDepth)
}

// TileFormat is the only format accepted by Decode.
var TileFormat = Format{
	Width:    TileWidth,
	Height:   TileHeight,
	Channels: TileChannels,
	BitDepth: TileBitDepth,
}

// FormatError reports an image whose layout is not TileFormat.
type FormatError struct {
	Expected Format
	Actual   Format
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("unexpected image format: expected %s, got %s", e.Expected, e.Actual)
}

// HeightField is a dense grid of elevation samples in row-major raster order.
// Row 0 is the top row of the source image.
type HeightField struct {
	Width   int
	Height  int
	Samples []float32
}

// NewHeightField creates a height field filled with elevation.
func NewHeightField(width, height int, elevation float32) *HeightField {
	samples := make([]float32, width*height)
	for i := range samples {
		samples[i] = elevation
	}
	return &HeightField{Width: width, Height: height, Samples: samples}
}

// At returns the sample at pixel (x, y), clamping coordinates to the edge.
func (h *HeightField) At(x, y int) float32 {
	x = clampi(x, 0, h.Width-1)
	y = clampi(y, 0, h.Height-1)
	return h.Samples[y*h.Width+x]
}

// MinMax returns the lowest and highest sample.
func (h *HeightField) MinMax() (lo, hi float32) {
	if len(h.Samples) == 0 {
		return 0, 0
	}
	lo, hi = h.Samples[0], h.Samples[0]
	for _, s := range h.Samples[1:] {
		if s < lo {
			lo = s
		}
		if s > hi {
			hi = s
		}
	}
	return lo, hi
}

// Validate checks that the sample count matches the dimensions.
func (h *HeightField) Validate() error {
	if h.Width <= 0 || h.Height <= 0 {
		return ErrEmptyHeightmap
	}
	if len(h.Samples) != h.Width*h.Height {
		return fmt.Errorf("height field has %d samples, want %dx%d", len(h.Samples), h.Width, h.Height)
	}
	return nil
}

// Elevation decodes one pixel.
func Elevation(r, g, b uint8) float32 {
	return float32(r)*256.0 + float32(g) + float32(b)/256.0 - 32768.0
}

// RGB encodes one elevation, clamped to the representable range and
// rounded to the nearest 1/256.
func RGB(elevation float32) (r, g, b uint8) {
	e := float64(elevation)
	if e != e { // NaN
		e = 0
	}
	if e < MinElevation {
		e = MinElevation
	}
	if e > MaxElevation {
		e = MaxElevation
	}
	v := uint32((e-MinElevation)*256.0 + 0.5)
	if v > 0xFFFFFF {
		v = 0xFFFFFF
	}
	return uint8(v >> 16), uint8(v >> 8), uint8(v)
}

func clampi(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
