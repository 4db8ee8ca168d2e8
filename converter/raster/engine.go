package raster

import (
	"context"
	"fmt"
	"log/slog"
)

// Image is the first-page rendering of a PDF. Fallback is set when the
// placeholder was returned instead of a real rendering; Cause says why.
type Image struct {
	Data     []byte
	Fallback bool
	Cause    error
}

// Engine implements PDF first-page rasterization with a placeholder fallback
type Engine struct {
	renderer    *Renderer
	placeholder *Placeholder
	logger      *slog.Logger
}

// NewEngine creates a new raster engine
func NewEngine(renderer *Renderer, placeholder *Placeholder, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		renderer:    renderer,
		placeholder: placeholder,
		logger:      logger,
	}
}

// Render rasterizes the first page of the PDF. Rasterizer failures degrade
// to the placeholder image; only cancellation of ctx is returned as an error.
func (e *Engine) Render(ctx context.Context, pdf []byte) (*Image, error) {
	data, err := e.renderer.RenderFirstPage(ctx, pdf)
	if err == nil {
		return &Image{Data: data}, nil
	}
	if ctx.Err() != nil {
		return nil, fmt.Errorf("rendering cancelled: %w", ctx.Err())
	}

	e.logger.Warn("rasterizer unavailable, using placeholder image", "error", err)

	fallback, perr := e.placeholder.JPEG()
	if perr != nil {
		return nil, fmt.Errorf("placeholder after %v: %w", err, perr)
	}

	return &Image{Data: fallback, Fallback: true, Cause: err}, nil
}

// Renderer returns the engine's rasterizer
func (e *Engine) Renderer() *Renderer {
	return e.renderer
}
