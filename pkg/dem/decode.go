package dem

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
)

// Decode parses a terrarium PNG tile into a height field.
// The image must be 256x256 8-bit RGB; any other layout yields a *FormatError.
// A corrupt stream yields an error wrapping ErrDecode.
func Decode(data []byte) (*HeightField, error) {
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	actual := formatOf(cfg.ColorModel, cfg.Width, cfg.Height)
	if actual != TileFormat {
		return nil, &FormatError{Expected: TileFormat, Actual: actual}
	}

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	rgba, ok := img.(*image.RGBA)
	if !ok {
		return nil, &FormatError{
			Expected: TileFormat,
			Actual:   formatOf(img.ColorModel(), img.Bounds().Dx(), img.Bounds().Dy()),
		}
	}

	return fromRGBA(rgba), nil
}

func fromRGBA(img *image.RGBA) *HeightField {
	b := img.Bounds()
	width, height := b.Dx(), b.Dy()
	samples := make([]float32, width*height)

	for y := 0; y < height; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+width*4]
		for x := 0; x < width; x++ {
			p := row[x*4 : x*4+3]
			samples[y*width+x] = Elevation(p[0], p[1], p[2])
		}
	}

	return &HeightField{Width: width, Height: height, Samples: samples}
}

// formatOf maps the color model reported by image/png to a channel layout.
func formatOf(model color.Model, width, height int) Format {
	f := Format{Width: width, Height: height}
	switch model {
	case color.RGBAModel:
		f.Channels, f.BitDepth = 3, 8
	case color.RGBA64Model:
		f.Channels, f.BitDepth = 3, 16
	case color.NRGBAModel:
		f.Channels, f.BitDepth = 4, 8
	case color.NRGBA64Model:
		f.Channels, f.BitDepth = 4, 16
	case color.GrayModel:
		f.Channels, f.BitDepth = 1, 8
	case color.Gray16Model:
		f.Channels, f.BitDepth = 1, 16
	default:
		if _, ok := model.(color.Palette); ok {
			f.Channels, f.BitDepth = 1, 8
		}
	}
	return f
}
