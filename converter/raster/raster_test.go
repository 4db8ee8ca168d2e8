package raster

import (
	"bytes"
	"context"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"convertey/converter/colors"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func missingOptions() Options {
	return Options{Binaries: []string{"convertey-missing-rasterizer"}, Timeout: time.Second}
}

// fakeRasterizer writes a shell script that mimics pdftoppm by copying
// a prepared JPEG to <prefix>-1.jpg, or failing when fail is set
func fakeRasterizer(t *testing.T, fail bool) (bin string, want []byte) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not executable on windows")
	}

	dir := t.TempDir()
	img := image.NewRGBA(image.Rect(0, 0, 8, 6))
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	want = buf.Bytes()

	src := filepath.Join(dir, "page.jpg")
	require.NoError(t, os.WriteFile(src, want, 0o600))

	script := "#!/bin/sh\nfor last; do :; done\ncp '" + src + "' \"$last-1.jpg\"\n"
	if fail {
		script = "#!/bin/sh\necho 'Syntax Error: broken file' >&2\nexit 1\n"
	}
	bin = filepath.Join(dir, "fake-pdftoppm")
	require.NoError(t, os.WriteFile(bin, []byte(script), 0o755))
	return bin, want
}

func TestPlaceholder(t *testing.T) {
	p := NewPlaceholder(colors.DefaultPalette())

	img := p.Image()
	assert.Equal(t, image.Rect(0, 0, 800, 600), img.Bounds())
	assert.Equal(t, colors.PaletteDefault.Background.ToRGBA(), img.RGBAAt(10, 10))
	assert.Equal(t, colors.PaletteDefault.Border.ToRGBA(), img.RGBAAt(50, 300))
	assert.Equal(t, colors.PaletteDefault.Surface.ToRGBA(), img.RGBAAt(60, 60))

	data, err := p.JPEG()
	require.NoError(t, err)
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 800, cfg.Width)
	assert.Equal(t, 600, cfg.Height)

	again, err := p.JPEG()
	require.NoError(t, err)
	assert.Equal(t, data, again)
}

func TestEngineFallsBackWithoutRasterizer(t *testing.T) {
	e := NewEngine(NewRenderer(missingOptions(), discardLogger()), NewPlaceholder(colors.DefaultPalette()), discardLogger())

	img, err := e.Render(context.Background(), []byte("%PDF-1.4"))
	require.NoError(t, err)
	assert.True(t, img.Fallback)
	require.Error(t, img.Cause)
	assert.Contains(t, img.Cause.Error(), "convertey-missing-rasterizer not found")

	_, err = jpeg.DecodeConfig(bytes.NewReader(img.Data))
	assert.NoError(t, err)
	assert.Empty(t, e.Renderer().Available())
}

func TestEngineCancelled(t *testing.T) {
	e := NewEngine(NewRenderer(missingOptions(), discardLogger()), NewPlaceholder(colors.DefaultPalette()), discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	img, err := e.Render(ctx, []byte("%PDF-1.4"))
	assert.Nil(t, img)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRendererWithFakeTool(t *testing.T) {
	bin, want := fakeRasterizer(t, false)
	r := NewRenderer(Options{Binaries: []string{"convertey-missing-rasterizer", bin}, Timeout: 5 * time.Second}, discardLogger())

	got, err := r.RenderFirstPage(context.Background(), []byte("%PDF-1.4"))
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, []string{bin}, r.Available())
}

func TestRendererToolFailure(t *testing.T) {
	bin, _ := fakeRasterizer(t, true)
	r := NewRenderer(Options{Binaries: []string{bin}, Timeout: 5 * time.Second}, discardLogger())

	_, err := r.RenderFirstPage(context.Background(), []byte("%PDF-1.4"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no PDF renderer available")
	assert.Contains(t, err.Error(), "Syntax Error: broken file")
}

func TestRendererRemovesScratchDir(t *testing.T) {
	parent := t.TempDir()
	opts := missingOptions()
	opts.TempDir = parent
	r := NewRenderer(opts, discardLogger())

	_, err := r.RenderFirstPage(context.Background(), []byte("%PDF-1.4"))
	require.Error(t, err)

	entries, err := os.ReadDir(parent)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestNewRendererDefaults(t *testing.T) {
	r := NewRenderer(Options{}, nil)
	assert.Equal(t, DefaultOptions(), r.opts)
}

func TestExtractPageNumber(t *testing.T) {
	tests := []struct {
		name string
		want int
	}{
		{"/tmp/x/page-1.jpg", 1},
		{"page-01.jpg", 1},
		{"page-12.jpg", 12},
		{"page.jpg", 0},
		{"other.jpg", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractPageNumber(tt.name))
		})
	}
}

func TestReencodeJPEG(t *testing.T) {
	t.Run("png with transparency is flattened on white", func(t *testing.T) {
		src := image.NewNRGBA(image.Rect(0, 0, 16, 9))
		var buf bytes.Buffer
		require.NoError(t, png.Encode(&buf, src))

		enc, err := ReencodeJPEG(buf.Bytes(), 0)
		require.NoError(t, err)
		assert.Equal(t, 16, enc.Width)
		assert.Equal(t, 9, enc.Height)

		out, err := jpeg.Decode(bytes.NewReader(enc.Data))
		require.NoError(t, err)
		r, g, b, _ := out.At(8, 4).RGBA()
		assert.Greater(t, r>>8, uint32(240))
		assert.Greater(t, g>>8, uint32(240))
		assert.Greater(t, b>>8, uint32(240))
	})

	t.Run("jpeg", func(t *testing.T) {
		src := image.NewRGBA(image.Rect(0, 0, 3, 5))
		src.Set(1, 1, color.RGBA{R: 255, A: 255})
		var buf bytes.Buffer
		require.NoError(t, jpeg.Encode(&buf, src, nil))

		enc, err := ReencodeJPEG(buf.Bytes(), 0)
		require.NoError(t, err)
		assert.Equal(t, 3, enc.Width)
		assert.Equal(t, 5, enc.Height)
	})

	t.Run("truncated", func(t *testing.T) {
		src := image.NewRGBA(image.Rect(0, 0, 32, 32))
		var buf bytes.Buffer
		require.NoError(t, jpeg.Encode(&buf, src, nil))

		_, err := ReencodeJPEG(buf.Bytes()[:20], 0)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to decode image")
	})

	t.Run("not an image", func(t *testing.T) {
		_, err := ReencodeJPEG([]byte("plain text"), 0)
		assert.Error(t, err)
	})

	t.Run("above the pixel limit", func(t *testing.T) {
		src := image.NewNRGBA(image.Rect(0, 0, 16, 9))
		var buf bytes.Buffer
		require.NoError(t, png.Encode(&buf, src))

		_, err := ReencodeJPEG(buf.Bytes(), 100)
		require.ErrorIs(t, err, ErrImageTooLarge)
		assert.Contains(t, err.Error(), "16x9 is above the limit of 100 pixels")

		enc, err := ReencodeJPEG(buf.Bytes(), 144)
		require.NoError(t, err)
		assert.Equal(t, 16, enc.Width)
	})

	t.Run("huge header is rejected before decoding", func(t *testing.T) {
		_, err := ReencodeJPEG(pngHeader(50000, 50000), 0)
		require.ErrorIs(t, err, ErrImageTooLarge)
		assert.Contains(t, err.Error(), "50000x50000")
	})
}

// pngHeader returns a PNG signature and IHDR chunk for a grayscale image
// with no pixel data
func pngHeader(w, h uint32) []byte {
	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:4], w)
	binary.BigEndian.PutUint32(ihdr[4:8], h)
	ihdr[8] = 8 // bit depth
	ihdr[9] = 0 // grayscale

	chunk := append([]byte("IHDR"), ihdr...)
	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")
	_ = binary.Write(&buf, binary.BigEndian, uint32(len(ihdr)))
	buf.Write(chunk)
	_ = binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(chunk))
	return buf.Bytes()
}
