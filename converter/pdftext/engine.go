package pdftext

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

var disableConfigDir sync.Once

// Page is the text of one PDF page
type Page struct {
	Number int
	Lines  []string
}

// Empty reports whether the page carries no text
func (p Page) Empty() bool {
	return len(p.Lines) == 0
}

// Extractor reads page text out of a PDF document
type Extractor struct {
	parser *Parser
	logger *slog.Logger
}

// NewExtractor creates a new text extractor
func NewExtractor(logger *slog.Logger) *Extractor {
	disableConfigDir.Do(api.DisableConfigDir)
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		parser: NewParser(),
		logger: logger,
	}
}

// HasText reports whether any page carries text
func HasText(pages []Page) bool {
	for _, p := range pages {
		if !p.Empty() {
			return true
		}
	}
	return false
}

// Extract returns the text of every page, in page order. Pages whose
// content cannot be decoded come back empty; a document that cannot be
// parsed at all is an error.
func (e *Extractor) Extract(ctx context.Context, data []byte) (pages []Page, err error) {
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("failed to parse PDF: %v", r)
		}
	}()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	pdfCtx, err := api.ReadContext(bytes.NewReader(data), conf)
	if err != nil {
		return nil, fmt.Errorf("failed to parse PDF: %w", err)
	}

	if err := pdfCtx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("failed to determine page count: %w", err)
	}

	e.logger.Debug("extracting text", "version", pdfCtx.HeaderVersion, "pages", pdfCtx.PageCount)

	pages = make([]Page, 0, pdfCtx.PageCount)
	for pageNum := 1; pageNum <= pdfCtx.PageCount; pageNum++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		content, err := e.pageContent(pdfCtx, pageNum)
		if err != nil {
			e.logger.Warn("failed to read page content", "page", pageNum, "error", err)
		}

		pages = append(pages, Page{
			Number: pageNum,
			Lines:  e.parser.ExtractLines(content),
		})
	}

	return pages, nil
}

// pageContent returns the decoded, concatenated content streams of a page
func (e *Extractor) pageContent(ctx *model.Context, pageNum int) ([]byte, error) {
	pageDict, _, _, err := ctx.PageDict(pageNum, false)
	if err != nil {
		return nil, fmt.Errorf("failed to get page dict: %w", err)
	}
	if pageDict == nil {
		return nil, nil
	}

	contentsEntry, found := pageDict.Find("Contents")
	if !found {
		return nil, nil // Page has no content
	}

	var buf bytes.Buffer
	switch contents := contentsEntry.(type) {
	case types.IndirectRef:
		// Single content stream, or a reference to an array of them
		obj, err := ctx.Dereference(contents)
		if err != nil {
			return nil, err
		}
		if arr, ok := obj.(types.Array); ok {
			e.appendStreams(ctx, &buf, arr)
			break
		}
		if err := appendStream(&buf, obj); err != nil {
			return nil, err
		}

	case types.Array:
		e.appendStreams(ctx, &buf, contents)
	}

	return buf.Bytes(), nil
}

// appendStreams appends each stream of a Contents array; streams split at
// token boundaries so a separating newline is safe
func (e *Extractor) appendStreams(ctx *model.Context, buf *bytes.Buffer, arr types.Array) {
	for i, item := range arr {
		obj, err := ctx.Dereference(item)
		if err != nil {
			e.logger.Warn("failed to dereference content stream", "index", i, "error", err)
			continue
		}
		if err := appendStream(buf, obj); err != nil {
			e.logger.Warn("failed to decode content stream", "index", i, "error", err)
		}
	}
}

func appendStream(buf *bytes.Buffer, obj types.Object) error {
	sd, ok := obj.(types.StreamDict)
	if !ok {
		return nil
	}
	if err := sd.Decode(); err != nil {
		return fmt.Errorf("failed to decode stream: %w", err)
	}
	buf.Write(sd.Content)
	buf.WriteByte('\n')
	return nil
}
