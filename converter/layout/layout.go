// Package layout assembles PDF documents from extracted text and images.
// Every document it writes is deterministic: identical input produces
// identical bytes.
package layout

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"golang.org/x/text/encoding/charmap"

	"convertey/converter/colors"
)

const (
	// A4 in points
	pageWidth  = 595.28
	pageHeight = 841.89

	margin     = 50.0
	fontFamily = "Helvetica"
	bodySize   = 12.0
	headerSize = 16.0

	// imagePageWidth and imagePageMaxHeight bound a full-page image
	imagePageWidth     = 595.0
	imagePageMaxHeight = 842.0

	producer = "convertey"
)

// documentTime is written as both creation and modification date
var documentTime = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

// Section is a titled block of text rendered on its own page
type Section struct {
	Title string
	Body  []string
}

// Layout renders PDFs with a fixed palette
type Layout struct {
	palette colors.Palette
}

// New creates a Layout using the given palette
func New(palette colors.Palette) *Layout {
	return &Layout{palette: palette}
}

func (l *Layout) newDocument() *fpdf.Fpdf {
	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(true, margin)
	pdf.SetCreator(producer, false)
	pdf.SetProducer(producer, false)
	pdf.SetCatalogSort(true)
	pdf.SetCreationDate(documentTime)
	pdf.SetModificationDate(documentTime)
	return pdf
}

func (l *Layout) output(pdf *fpdf.Fpdf) ([]byte, error) {
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to write PDF: %w", err)
	}
	return buf.Bytes(), nil
}

// TextDocument lays out paragraphs as left-aligned body text on A4 pages.
// Empty paragraphs become blank lines.
func (l *Layout) TextDocument(paragraphs []string) ([]byte, error) {
	pdf := l.newDocument()
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	lineHeight := bodySize * 1.25

	pdf.AddPage()
	pdf.SetFont(fontFamily, "", bodySize)
	pdf.SetTextColor(l.palette.Text.Ints())

	for _, p := range paragraphs {
		if strings.TrimSpace(p) == "" {
			pdf.Ln(lineHeight)
			continue
		}
		pdf.MultiCell(0, lineHeight, tr(normalize(p)), "", "L", false)
	}

	return l.output(pdf)
}

// Sections renders one A4 page per section: a centered bold header followed
// by the body lines
func (l *Layout) Sections(sections []Section) ([]byte, error) {
	if len(sections) == 0 {
		return nil, fmt.Errorf("no sections to render")
	}

	pdf := l.newDocument()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	for _, s := range sections {
		pdf.AddPage()

		pdf.SetFont(fontFamily, "B", headerSize)
		pdf.SetTextColor(l.palette.Heading.Ints())
		pdf.CellFormat(0, headerSize*1.25, tr(s.Title), "", 1, "C", false, 0, "")
		pdf.Ln(bodySize)

		pdf.SetFont(fontFamily, "", bodySize)
		pdf.SetTextColor(l.palette.Text.Ints())
		for _, line := range s.Body {
			pdf.MultiCell(0, bodySize*1.25, tr(normalize(line)), "", "L", false)
		}
	}

	return l.output(pdf)
}

// ImagePage places a JPEG on a single page sized to the image: 595pt wide
// with the height following the aspect ratio, capped at 842pt
func (l *Layout) ImagePage(jpeg []byte, width, height int) ([]byte, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid image size %dx%d", width, height)
	}

	w, h := ImagePageSize(width, height)

	pdf := l.newDocument()
	opts := fpdf.ImageOptions{ImageType: "JPG"}
	pdf.RegisterImageOptionsReader("image", opts, bytes.NewReader(jpeg))
	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("failed to embed image: %w", err)
	}

	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPageFormat("P", fpdf.SizeType{Wd: w, Ht: h})
	pdf.ImageOptions("image", 0, 0, w, h, false, opts, 0, "")

	return l.output(pdf)
}

// ImagePageSize returns the page size for an image of the given pixel size
func ImagePageSize(width, height int) (w, h float64) {
	w = imagePageWidth
	h = w * float64(height) / float64(width)
	if h > imagePageMaxHeight {
		h = imagePageMaxHeight
		w = h * float64(width) / float64(height)
	}
	return w, h
}

// Unencodable returns the distinct runes in texts that the core fonts cannot
// show, in order of first appearance. They are drawn as '.'.
func Unencodable(texts ...string) []rune {
	var (
		missing []rune
		seen    = make(map[rune]bool)
	)
	for _, text := range texts {
		for _, r := range text {
			if _, ok := charmap.Windows1252.EncodeRune(r); ok || seen[r] {
				continue
			}
			seen[r] = true
			missing = append(missing, r)
		}
	}
	return missing
}

// normalize expands tabs and drops carriage returns, which the core fonts
// cannot render
func normalize(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return strings.ReplaceAll(s, "\t", "    ")
}
