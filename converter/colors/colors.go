package colors

import (
	"fmt"
	"image/color"
	"sort"
	"strconv"
	"strings"
)

// Palette is the set of colors used for generated output: the placeholder
// image, PDF pages and slide decks
type Palette struct {
	Name       string
	Background Color // Canvas behind the placeholder card
	Surface    Color // Card / page fill
	Border     Color // Card outline
	Heading    Color // Titles and slide headers
	Text       Color // Body text
	Muted      Color // Secondary text
}

// Color represents a color with both normalized (0-1) and 8-bit (0-255) values
type Color struct {
	R8, G8, B8 uint8   // 8-bit values (0-255)
	R, G, B    float64 // Normalized values (0-1)
}

// NewColorFromHex creates a Color from a hex string (e.g., "#1a1a1a" or "1a1a1a")
func NewColorFromHex(hex string) (Color, error) {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) != 6 {
		return Color{}, fmt.Errorf("invalid hex color: %s (expected 6 characters)", hex)
	}

	r, err := strconv.ParseUint(hex[0:2], 16, 8)
	if err != nil {
		return Color{}, fmt.Errorf("invalid red component in hex: %s", hex)
	}
	g, err := strconv.ParseUint(hex[2:4], 16, 8)
	if err != nil {
		return Color{}, fmt.Errorf("invalid green component in hex: %s", hex)
	}
	b, err := strconv.ParseUint(hex[4:6], 16, 8)
	if err != nil {
		return Color{}, fmt.Errorf("invalid blue component in hex: %s", hex)
	}

	return NewColorFromRGB8(uint8(r), uint8(g), uint8(b)), nil
}

// NewColorFromRGB8 creates a Color from 8-bit RGB values
func NewColorFromRGB8(r, g, b uint8) Color {
	return Color{
		R8: r, G8: g, B8: b,
		R: float64(r) / 255.0,
		G: float64(g) / 255.0,
		B: float64(b) / 255.0,
	}
}

// ToRGBA converts to Go's color.RGBA
func (c Color) ToRGBA() color.RGBA {
	return color.RGBA{R: c.R8, G: c.G8, B: c.B8, A: 255}
}

// Hex returns the hex string representation
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R8, c.G8, c.B8)
}

// HexDigits returns the hex representation without the leading '#',
// the form DrawingML srgbClr values use
func (c Color) HexDigits() string {
	return strings.ToUpper(strings.TrimPrefix(c.Hex(), "#"))
}

// Ints returns the 8-bit components as ints, the form fpdf setters take
func (c Color) Ints() (r, g, b int) {
	return int(c.R8), int(c.G8), int(c.B8)
}

// mustHex is NewColorFromHex for the palette literals below
func mustHex(hex string) Color {
	c, err := NewColorFromHex(hex)
	if err != nil {
		panic(err)
	}
	return c
}

// Predefined palettes
var (
	// PaletteDefault is the neutral gray palette the service ships with
	PaletteDefault = Palette{
		Name:       "default",
		Background: NewColorFromRGB8(240, 240, 240), // #f0f0f0
		Surface:    NewColorFromRGB8(255, 255, 255), // #ffffff
		Border:     NewColorFromRGB8(204, 204, 204), // #cccccc
		Heading:    NewColorFromRGB8(54, 54, 54),    // #363636
		Text:       NewColorFromRGB8(0, 0, 0),       // #000000
		Muted:      NewColorFromRGB8(153, 153, 153), // #999999
	}

	// PaletteMono is pure black on white, for print-oriented deployments
	PaletteMono = Palette{
		Name:       "mono",
		Background: NewColorFromRGB8(255, 255, 255),
		Surface:    NewColorFromRGB8(255, 255, 255),
		Border:     NewColorFromRGB8(0, 0, 0),
		Heading:    NewColorFromRGB8(0, 0, 0),
		Text:       NewColorFromRGB8(0, 0, 0),
		Muted:      NewColorFromRGB8(102, 102, 102),
	}

	// PaletteNord is inspired by the Nord color palette
	PaletteNord = Palette{
		Name:       "nord",
		Background: mustHex("#e5e9f0"),
		Surface:    mustHex("#eceff4"),
		Border:     mustHex("#81a1c1"),
		Heading:    mustHex("#2e3440"),
		Text:       mustHex("#3b4252"),
		Muted:      mustHex("#4c566a"),
	}

	// AvailablePalettes maps palette names to their definitions
	AvailablePalettes = map[string]Palette{
		"default": PaletteDefault,
		"mono":    PaletteMono,
		"nord":    PaletteNord,
	}
)

// GetPalette returns a palette by name, or an error if not found
func GetPalette(name string) (Palette, error) {
	name = strings.ToLower(name)
	if p, ok := AvailablePalettes[name]; ok {
		return p, nil
	}
	return Palette{}, fmt.Errorf("unknown palette: %s", name)
}

// ListPalettes returns the available palette names, sorted
func ListPalettes() []string {
	names := make([]string, 0, len(AvailablePalettes))
	for name := range AvailablePalettes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultPalette returns the default palette
func DefaultPalette() Palette {
	return PaletteDefault
}
