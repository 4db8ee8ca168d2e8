package colors

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewColorFromHex(t *testing.T) {
	tests := []struct {
		in      string
		want    Color
		wantErr bool
	}{
		{in: "#ffffff", want: NewColorFromRGB8(255, 255, 255)},
		{in: "2e3440", want: NewColorFromRGB8(46, 52, 64)},
		{in: "#FFF", wantErr: true},
		{in: "#gggggg", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NewColorFromHex(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestColorForms(t *testing.T) {
	c := NewColorFromRGB8(46, 52, 64)

	assert.Equal(t, "#2e3440", c.Hex())
	assert.Equal(t, "2E3440", c.HexDigits())
	assert.Equal(t, color.RGBA{R: 46, G: 52, B: 64, A: 255}, c.ToRGBA())

	r, g, b := c.Ints()
	assert.Equal(t, []int{46, 52, 64}, []int{r, g, b})
	assert.InDelta(t, 46.0/255.0, c.R, 1e-9)
}

func TestGetPalette(t *testing.T) {
	p, err := GetPalette("NORD")
	require.NoError(t, err)
	assert.Equal(t, "nord", p.Name)
	assert.Equal(t, "#2e3440", p.Heading.Hex())

	_, err = GetPalette("neon")
	assert.Error(t, err)

	assert.Equal(t, []string{"default", "mono", "nord"}, ListPalettes())
	assert.Equal(t, PaletteDefault, DefaultPalette())
}
