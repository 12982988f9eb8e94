package dem

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
)

// Encode writes a height field as an opaque RGB terrarium PNG.
// Samples are clamped to the representable range and quantized to 1/256.
func Encode(hf *HeightField) ([]byte, error) {
	if err := hf.Validate(); err != nil {
		return nil, err
	}

	img := image.NewRGBA(image.Rect(0, 0, hf.Width, hf.Height))
	for i, s := range hf.Samples {
		r, g, b := RGB(s)
		img.Pix[i*4] = r
		img.Pix[i*4+1] = g
		img.Pix[i*4+2] = b
		img.Pix[i*4+3] = 0xFF
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode elevation image: %w", err)
	}
	return buf.Bytes(), nil
}
