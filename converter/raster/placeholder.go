package raster

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"convertey/converter/colors"
)

const (
	placeholderWidth  = 800
	placeholderHeight = 600
	placeholderMargin = 50
	borderWidth       = 2
)

// Placeholder draws the stand-in image returned when no rasterizer works
type Placeholder struct {
	palette  colors.Palette
	title    string
	subtitle string
}

// NewPlaceholder creates a placeholder renderer with the given palette
func NewPlaceholder(palette colors.Palette) *Placeholder {
	return &Placeholder{
		palette:  palette,
		title:    "PDF Document",
		subtitle: "Converted to Image",
	}
}

// Image draws a framed card with the title lines centered on it
func (p *Placeholder) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, placeholderWidth, placeholderHeight))
	fill(img, img.Bounds(), p.palette.Background.ToRGBA())

	card := image.Rect(placeholderMargin, placeholderMargin,
		placeholderWidth-placeholderMargin, placeholderHeight-placeholderMargin)
	fill(img, card, p.palette.Border.ToRGBA())
	fill(img, card.Inset(borderWidth), p.palette.Surface.ToRGBA())

	mid := placeholderHeight / 2
	drawText(img, p.title, p.palette.Heading.ToRGBA(), mid-30, 3)
	drawText(img, p.subtitle, p.palette.Muted.ToRGBA(), mid+25, 2)

	return img
}

// JPEG encodes the placeholder image
func (p *Placeholder) JPEG() ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, p.Image(), &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode placeholder: %w", err)
	}
	return buf.Bytes(), nil
}

func fill(dst *image.RGBA, r image.Rectangle, c color.RGBA) {
	xdraw.Draw(dst, r, &image.Uniform{C: c}, image.Point{}, xdraw.Src)
}

// drawText renders s with the 7x13 bitmap face, upscaled by scale and
// centered horizontally around centerY
func drawText(dst *image.RGBA, s string, c color.RGBA, centerY, scale int) {
	face := basicfont.Face7x13
	w := font.MeasureString(face, s).Ceil()
	h := face.Metrics().Height.Ceil()
	if w == 0 || h == 0 {
		return
	}

	glyphs := image.NewRGBA(image.Rect(0, 0, w, h))
	d := &font.Drawer{
		Dst:  glyphs,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(0, face.Metrics().Ascent.Ceil()),
	}
	d.DrawString(s)

	sw, sh := w*scale, h*scale
	x := (dst.Bounds().Dx() - sw) / 2
	y := centerY - sh/2
	xdraw.NearestNeighbor.Scale(dst, image.Rect(x, y, x+sw, y+sh), glyphs, glyphs.Bounds(), xdraw.Over, nil)
}
