package terrain

import (
	"testing"

	"github.com/Faultbox/dem2mesh/pkg/dem"
)

// rampField returns a 3x3 field whose sample equals its x pixel coordinate
// plus ten times its y pixel coordinate.
func rampField() *dem.HeightField {
	hf := &dem.HeightField{Width: 3, Height: 3, Samples: make([]float32, 9)}
	for y := 0; y < 3; y++ {
		for x := 0; x < 3; x++ {
			hf.Samples[y*3+x] = float32(x + 10*y)
		}
	}
	return hf
}

func TestSampleNearest(t *testing.T) {
	hf := rampField()

	tests := []struct {
		u, v float32
		want float32
	}{
		{0, 1, 0},      // north-west
		{1, 1, 2},      // north-east
		{0, 0, 20},     // south-west
		{1, 0, 22},     // south-east
		{0.5, 0.5, 11}, // center
		{0.2, 0.9, 0},  // rounds to north-west pixel
		{-3, 5, 0},     // clamped
	}

	for _, tt := range tests {
		if got := SampleNearest(hf, tt.u, tt.v); got != tt.want {
			t.Errorf("SampleNearest(%v, %v) = %v, want %v", tt.u, tt.v, got, tt.want)
		}
	}
}

func TestSampleBilinear(t *testing.T) {
	hf := rampField()

	tests := []struct {
		u, v float32
		want float32
	}{
		{0, 1, 0},
		{1, 0, 22},
		{0.25, 1, 0.5},
		{0, 0.75, 5},
		{0.5, 0.5, 11},
		{0.75, 0.25, 16.5},
	}

	for _, tt := range tests {
		if got := SampleBilinear(hf, tt.u, tt.v); got != tt.want {
			t.Errorf("SampleBilinear(%v, %v) = %v, want %v", tt.u, tt.v, got, tt.want)
		}
	}
}

func TestParseSampler(t *testing.T) {
	for _, name := range []string{"", SamplingNearest, SamplingBilinear} {
		s, err := ParseSampler(name)
		if err != nil {
			t.Errorf("ParseSampler(%q) failed: %v", name, err)
		}
		if s == nil {
			t.Errorf("ParseSampler(%q) returned nil sampler", name)
		}
	}

	if _, err := ParseSampler("bicubic"); err == nil {
		t.Error("expected error for unknown sampler")
	}
}
