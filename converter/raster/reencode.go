package raster

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	_ "image/png" // register PNG decoder

	xdraw "golang.org/x/image/draw"
)

const jpegQuality = 90

// DefaultMaxPixels matches the 16383x16383 input limit of common image
// pipelines
const DefaultMaxPixels int64 = 16383 * 16383

// ErrImageTooLarge is returned for images whose header declares more pixels
// than allowed
var ErrImageTooLarge = errors.New("image too large")

// Encoded is an image re-encoded as baseline JPEG
type Encoded struct {
	Data   []byte
	Width  int
	Height int
}

// ReencodeJPEG decodes a JPEG or PNG image, flattens any transparency onto
// white and re-encodes it as JPEG. Truncated or corrupt input is an error.
// The header is checked against maxPixels before any pixel buffer is
// allocated; maxPixels <= 0 means DefaultMaxPixels.
func ReencodeJPEG(data []byte, maxPixels int64) (*Encoded, error) {
	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	if pixels := int64(cfg.Width) * int64(cfg.Height); pixels > maxPixels {
		return nil, fmt.Errorf("%w: %dx%d is above the limit of %d pixels", ErrImageTooLarge, cfg.Width, cfg.Height, maxPixels)
	}

	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := src.Bounds()
	if bounds.Empty() {
		return nil, fmt.Errorf("image has no pixels")
	}

	flat := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	xdraw.Draw(flat, flat.Bounds(), &image.Uniform{C: color.White}, image.Point{}, xdraw.Src)
	xdraw.Draw(flat, flat.Bounds(), src, bounds.Min, xdraw.Over)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, flat, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode %s as JPEG: %w", format, err)
	}

	return &Encoded{
		Data:   buf.Bytes(),
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}, nil
}
