package converter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"convertey/converter/colors"
	"convertey/converter/layout"
	"convertey/converter/ooxml"
	"convertey/converter/pdftext"
	"convertey/converter/raster"
)

// Routine names used in failure messages
const (
	RoutinePDFToJPG   = "PDF to JPG"
	RoutinePDFToDOCX  = "PDF to DOCX"
	RoutinePDFToPPTX  = "PDF to PPTX"
	RoutineDOCXToPDF  = "DOCX to PDF"
	RoutineImageToPDF = "Image to PDF"
	RoutinePPTXToPDF  = "PowerPoint to PDF"
)

const (
	noTextNote      = "No extractable text was found in this PDF."
	noTextWarning   = "no extractable text found in PDF"
	emptySlideText  = "Slide content (no readable text found)"
	noSlidesText    = "PowerPoint presentation converted to PDF"
	unreadableDeck  = "PowerPoint presentation converted to PDF (text extraction failed)"
	errNoDocxText   = "no text content found in DOCX file"
	rasterFallback  = "rasterizer unavailable, returned placeholder image: "
	legacyPPTReason = "presentation is not an OOXML package"
)

// ConverterFunc adapts a function to the Converter interface
type ConverterFunc struct {
	name string
	fn   func(ctx context.Context, input []byte) (Outcome, error)
}

// NewConverterFunc wraps fn as a named Converter
func NewConverterFunc(name string, fn func(ctx context.Context, input []byte) (Outcome, error)) ConverterFunc {
	return ConverterFunc{name: name, fn: fn}
}

// Convert calls the wrapped function
func (c ConverterFunc) Convert(ctx context.Context, input []byte) (Outcome, error) {
	return c.fn(ctx, input)
}

// Name returns the routine label
func (c ConverterFunc) Name() string {
	return c.name
}

// Options configures the conversion routines
type Options struct {
	Raster         raster.Options
	Palette        colors.Palette
	MaxImagePixels int64 // 0 means raster.DefaultMaxPixels
	Logger         *slog.Logger
}

// Routines holds the engines shared by the six conversion routines.
// All fields are read-only after construction.
type Routines struct {
	extractor *pdftext.Extractor
	raster    *raster.Engine
	layout    *layout.Layout
	palette   colors.Palette
	maxPixels int64
	logger    *slog.Logger
}

// NewRoutines wires the extraction, rasterization and layout engines
func NewRoutines(opts Options) *Routines {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	palette := opts.Palette
	if palette.Name == "" {
		palette = colors.DefaultPalette()
	}

	return &Routines{
		extractor: pdftext.NewExtractor(logger),
		raster: raster.NewEngine(
			raster.NewRenderer(opts.Raster, logger),
			raster.NewPlaceholder(palette),
			logger,
		),
		layout:  layout.New(palette),
		palette:   palette,
		maxPixels: opts.MaxImagePixels,
		logger:    logger,
	}
}

// Table returns the dispatch table for every registered pair
func (r *Routines) Table() map[Pair]Converter {
	imageToPDF := NewConverterFunc(RoutineImageToPDF, r.ImageToPDF)
	pptxToPDF := NewConverterFunc(RoutinePPTXToPDF, r.PPTXToPDF)

	return map[Pair]Converter{
		{Source: MediaTypePDF, Format: FormatJPG}:  NewConverterFunc(RoutinePDFToJPG, r.PDFToJPG),
		{Source: MediaTypePDF, Format: FormatDOCX}: NewConverterFunc(RoutinePDFToDOCX, r.PDFToDOCX),
		{Source: MediaTypePDF, Format: FormatPPTX}: NewConverterFunc(RoutinePDFToPPTX, r.PDFToPPTX),
		{Source: MediaTypeDOCX, Format: FormatPDF}: NewConverterFunc(RoutineDOCXToPDF, r.DOCXToPDF),
		{Source: MediaTypeJPEG, Format: FormatPDF}: imageToPDF,
		{Source: MediaTypePNG, Format: FormatPDF}:  imageToPDF,
		{Source: MediaTypePPTX, Format: FormatPDF}: pptxToPDF,
		{Source: MediaTypePPT, Format: FormatPDF}:  pptxToPDF,
	}
}

// Rasterizers returns the configured rasterizer binaries present on PATH.
// With none available PDF to JPG conversions are degraded.
func (r *Routines) Rasterizers() []string {
	return r.raster.Renderer().Available()
}

// DefaultTable builds routines from opts and returns their dispatch table
func DefaultTable(opts Options) map[Pair]Converter {
	return NewRoutines(opts).Table()
}

// PDFToJPG rasterizes the first page. Without a working rasterizer the
// placeholder image is returned and the outcome is degraded.
func (r *Routines) PDFToJPG(ctx context.Context, input []byte) (Outcome, error) {
	img, err := r.raster.Render(ctx, input)
	if err != nil {
		return Outcome{}, err
	}
	if img.Fallback {
		return Outcome{
			Data:     img.Data,
			Degraded: true,
			Warning:  rasterFallback + img.Cause.Error(),
		}, nil
	}
	return Outcome{Data: img.Data}, nil
}

// PDFToDOCX writes one paragraph per extracted line, starting each page
// after the first on a new page
func (r *Routines) PDFToDOCX(ctx context.Context, input []byte) (Outcome, error) {
	pages, err := r.extractor.Extract(ctx, input)
	if err != nil {
		return Outcome{}, err
	}

	if !pdftext.HasText(pages) {
		data, err := ooxml.WriteDocument([]ooxml.Paragraph{{Text: noTextNote}})
		return Outcome{Data: data, Degraded: true, Warning: noTextWarning}, err
	}

	var paras []ooxml.Paragraph
	for i, page := range pages {
		for j, line := range page.Lines {
			paras = append(paras, ooxml.Paragraph{
				Text:            line,
				PageBreakBefore: i > 0 && j == 0,
			})
		}
		if i > 0 && page.Empty() {
			paras = append(paras, ooxml.Paragraph{PageBreakBefore: true})
		}
	}

	data, err := ooxml.WriteDocument(paras)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Data: data}, nil
}

// PDFToPPTX writes one slide per page titled "Page N"
func (r *Routines) PDFToPPTX(ctx context.Context, input []byte) (Outcome, error) {
	pages, err := r.extractor.Extract(ctx, input)
	if err != nil {
		return Outcome{}, err
	}

	if !pdftext.HasText(pages) {
		data, err := ooxml.WriteDeck([]ooxml.Slide{{Title: "Page 1", Body: []string{noTextNote}}}, r.palette)
		return Outcome{Data: data, Degraded: true, Warning: noTextWarning}, err
	}

	slides := make([]ooxml.Slide, 0, len(pages))
	for _, page := range pages {
		slides = append(slides, ooxml.Slide{
			Title: "Page " + strconv.Itoa(page.Number),
			Body:  page.Lines,
		})
	}

	data, err := ooxml.WriteDeck(slides, r.palette)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Data: data}, nil
}

// DOCXToPDF lays out the document's paragraphs as A4 text pages
func (r *Routines) DOCXToPDF(ctx context.Context, input []byte) (Outcome, error) {
	paras, err := ooxml.ReadDocumentText(input)
	if err != nil {
		return Outcome{}, err
	}

	hasText := false
	for _, p := range paras {
		if strings.TrimSpace(p) != "" {
			hasText = true
			break
		}
	}
	if !hasText {
		return Outcome{}, errors.New(errNoDocxText)
	}
	if err := ctx.Err(); err != nil {
		return Outcome{}, err
	}

	data, err := r.layout.TextDocument(paras)
	if err != nil {
		return Outcome{}, err
	}
	warning := glyphWarning(paras...)
	return Outcome{Data: data, Degraded: warning != "", Warning: warning}, nil
}

// ImageToPDF places a JPEG or PNG on a single page sized to the image
func (r *Routines) ImageToPDF(ctx context.Context, input []byte) (Outcome, error) {
	img, err := raster.ReencodeJPEG(input, r.maxPixels)
	if err != nil {
		return Outcome{}, err
	}
	if err := ctx.Err(); err != nil {
		return Outcome{}, err
	}

	data, err := r.layout.ImagePage(img.Data, img.Width, img.Height)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Data: data}, nil
}

// PPTXToPDF renders one page per slide headed "Slide N". Legacy binary
// decks and decks without slides produce a single fallback page.
func (r *Routines) PPTXToPDF(ctx context.Context, input []byte) (Outcome, error) {
	slides, err := ooxml.ReadSlides(input)

	var (
		sections []layout.Section
		warning  string
	)
	switch {
	case errors.Is(err, ooxml.ErrNotPackage):
		sections = []layout.Section{{Title: "Slide 1", Body: []string{unreadableDeck}}}
		warning = legacyPPTReason
	case errors.Is(err, ooxml.ErrNoSlides):
		sections = []layout.Section{{Title: "Slide 1", Body: []string{noSlidesText}}}
		warning = "presentation has no slides"
	case err != nil:
		r.logger.Warn("slide text extraction failed", "error", err)
		sections = []layout.Section{{Title: "Slide 1", Body: []string{unreadableDeck}}}
		warning = fmt.Sprintf("slide text extraction failed: %v", err)
	default:
		for i, s := range slides {
			body := s.Paragraphs
			if len(body) == 0 {
				body = []string{emptySlideText}
			}
			sections = append(sections, layout.Section{
				Title: "Slide " + strconv.Itoa(i+1),
				Body:  body,
			})
		}
	}
	if err := ctx.Err(); err != nil {
		return Outcome{}, err
	}

	data, lerr := r.layout.Sections(sections)
	if lerr != nil {
		return Outcome{}, lerr
	}
	if warning == "" {
		var texts []string
		for _, s := range sections {
			texts = append(texts, s.Title)
			texts = append(texts, s.Body...)
		}
		warning = glyphWarning(texts...)
	}
	return Outcome{Data: data, Degraded: warning != "", Warning: warning}, nil
}

// glyphWarning describes characters the PDF fonts replaced, or returns ""
func glyphWarning(texts ...string) string {
	missing := layout.Unencodable(texts...)
	if len(missing) == 0 {
		return ""
	}
	sample := missing
	if len(sample) > 5 {
		sample = sample[:5]
	}
	return fmt.Sprintf("%d distinct characters could not be rendered with the built-in PDF fonts and were replaced with '.' (e.g. %q)",
		len(missing), string(sample))
}
