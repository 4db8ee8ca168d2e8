package raster

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/jpeg"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Options configures the external rasterizer
type Options struct {
	// Binaries are tried in order until one produces an image
	Binaries []string
	DPI      int
	// Timeout bounds each external process invocation
	Timeout time.Duration
	// TempDir is the parent for per-call scratch directories ("" = os.TempDir)
	TempDir string
}

// DefaultOptions returns the poppler-based defaults
func DefaultOptions() Options {
	return Options{
		Binaries: []string{"pdftoppm", "pdftocairo"},
		DPI:      300,
		Timeout:  30 * time.Second,
	}
}

// Renderer handles PDF to image conversion through poppler's command line tools
type Renderer struct {
	opts   Options
	logger *slog.Logger
}

// NewRenderer creates a new Renderer with the given options
func NewRenderer(opts Options, logger *slog.Logger) *Renderer {
	def := DefaultOptions()
	if len(opts.Binaries) == 0 {
		opts.Binaries = def.Binaries
	}
	if opts.DPI <= 0 {
		opts.DPI = def.DPI
	}
	if opts.Timeout <= 0 {
		opts.Timeout = def.Timeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{opts: opts, logger: logger}
}

// RenderFirstPage rasterizes page 1 of the PDF to JPEG bytes.
// The PDF is written to a scratch directory that is removed before return.
func (r *Renderer) RenderFirstPage(ctx context.Context, pdf []byte) ([]byte, error) {
	tempDir, err := os.MkdirTemp(r.opts.TempDir, "convertey-raster-")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer r.cleanup(tempDir)

	pdfPath := filepath.Join(tempDir, "input.pdf")
	if err := os.WriteFile(pdfPath, pdf, 0o600); err != nil {
		return nil, fmt.Errorf("failed to write temp PDF: %w", err)
	}

	var errs []error
	for _, bin := range r.opts.Binaries {
		data, err := r.renderWith(ctx, bin, pdfPath, tempDir)
		if err == nil {
			return data, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		errs = append(errs, err)
	}

	return nil, fmt.Errorf("no PDF renderer available: %w", errors.Join(errs...))
}

// renderWith runs one poppler tool against the PDF
func (r *Renderer) renderWith(ctx context.Context, bin, pdfPath, tempDir string) ([]byte, error) {
	path, err := exec.LookPath(bin)
	if err != nil {
		return nil, fmt.Errorf("%s not found: %w", bin, err)
	}

	outputPrefix := filepath.Join(tempDir, "page")
	dpi := strconv.Itoa(r.opts.DPI)

	var args []string
	if strings.Contains(filepath.Base(bin), "pdftocairo") {
		args = []string{"-jpeg", "-singlefile", "-f", "1", "-l", "1", "-r", dpi, pdfPath, outputPrefix}
	} else {
		args = []string{"-f", "1", "-l", "1", "-jpeg", "-r", dpi, pdfPath, outputPrefix}
	}

	runCtx, cancel := context.WithTimeout(ctx, r.opts.Timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, path, args...)
	if output, err := cmd.CombinedOutput(); err != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%s timed out after %s", bin, r.opts.Timeout)
		}
		return nil, fmt.Errorf("%s failed: %w: %s", bin, err, strings.TrimSpace(string(output)))
	}

	return r.loadFirstImage(tempDir)
}

// loadFirstImage reads the lowest-numbered JPEG the tool wrote.
// pdftoppm pads page numbers by page count ("page-1.jpg", "page-01.jpg"),
// pdftocairo -singlefile writes "page.jpg".
func (r *Renderer) loadFirstImage(dir string) ([]byte, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "page*.jpg"))
	if err != nil {
		return nil, fmt.Errorf("failed to glob images: %w", err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no rendered images found")
	}

	sort.Slice(matches, func(i, j int) bool {
		return extractPageNumber(matches[i]) < extractPageNumber(matches[j])
	})

	data, err := os.ReadFile(matches[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read image %s: %w", filepath.Base(matches[0]), err)
	}
	if _, err := jpeg.DecodeConfig(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("rendered image is not a valid JPEG: %w", err)
	}

	return data, nil
}

// cleanup removes the scratch directory; failures are only logged
func (r *Renderer) cleanup(dir string) {
	if err := os.RemoveAll(dir); err != nil {
		r.logger.Warn("failed to remove temp directory", "dir", dir, "error", err)
	}
}

// extractPageNumber extracts the page number from a filename like "page-01.jpg"
func extractPageNumber(filename string) int {
	base := filepath.Base(filename)
	base = strings.TrimPrefix(base, "page-")
	base = strings.TrimPrefix(base, "page")
	base = strings.TrimSuffix(base, ".jpg")
	num, _ := strconv.Atoi(base)
	return num
}

// Available returns the configured binaries that can be found on PATH
func (r *Renderer) Available() []string {
	var found []string
	for _, bin := range r.opts.Binaries {
		if _, err := exec.LookPath(bin); err == nil {
			found = append(found, bin)
		}
	}
	return found
}
