package ooxml

import (
	"encoding/xml"
	"errors"
	"fmt"
	"strings"
)

const (
	docxMainPart = "word/document.xml"

	contentTypeDocxMain = "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"

	nsWordTransitional = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	nsWordStrict       = "http://purl.oclc.org/ooxml/wordprocessingml/main"
)

// ErrNoDocument is returned when a package has no main document part
var ErrNoDocument = errors.New("no word/document.xml part")

// Paragraph is one paragraph of a generated document
type Paragraph struct {
	Text string
	// PageBreakBefore starts the paragraph on a new page
	PageBreakBefore bool
}

// WriteDocument builds a DOCX package holding the paragraphs in order.
// An empty list still yields a valid, blank document.
func WriteDocument(paras []Paragraph) ([]byte, error) {
	var body strings.Builder
	for _, p := range paras {
		if p.PageBreakBefore {
			body.WriteString(`<w:p><w:r><w:br w:type="page"/></w:r></w:p>`)
		}
		if p.Text == "" {
			body.WriteString(`<w:p/>`)
			continue
		}
		fmt.Fprintf(&body, `<w:p><w:r><w:t xml:space="preserve">%s</w:t></w:r></w:p>`, escape(p.Text))
	}
	if len(paras) == 0 {
		body.WriteString(`<w:p/>`)
	}

	document := xmlHeader +
		`<w:document xmlns:w="` + nsWordTransitional + `" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">` +
		`<w:body>` + body.String() +
		`<w:sectPr><w:pgSz w:w="11906" w:h="16838"/>` +
		`<w:pgMar w:top="1440" w:right="1440" w:bottom="1440" w:left="1440" w:header="708" w:footer="708" w:gutter="0"/></w:sectPr>` +
		`</w:body></w:document>`

	return writePackage([]part{
		{
			name:    "[Content_Types].xml",
			content: contentTypesXML([]override{{partName: "/" + docxMainPart, contentType: contentTypeDocxMain}}),
		},
		{
			name:    "_rels/.rels",
			content: relationshipsXML([]relationship{{id: "rId1", relType: relTypeOfficeDocument, target: docxMainPart}}),
		},
		{name: docxMainPart, content: document},
	})
}

// ReadDocumentText returns the text of every paragraph in a DOCX package,
// in document order. Runs are concatenated; tabs become '\t' and breaks '\n'.
// Paragraphs without text are returned as empty strings.
func ReadDocumentText(data []byte) ([]string, error) {
	pkg, err := OpenPackage(data)
	if err != nil {
		return nil, err
	}
	if !pkg.Has(docxMainPart) {
		return nil, ErrNoDocument
	}

	content, err := pkg.Read(docxMainPart)
	if err != nil {
		return nil, err
	}

	paras, err := paragraphs(content, isWordElement("p"), wordText)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", docxMainPart, err)
	}
	return paras, nil
}

func isWordNamespace(space string) bool {
	return space == nsWordTransitional || space == nsWordStrict
}

func isWordElement(local string) func(xml.Name) bool {
	return func(n xml.Name) bool {
		return n.Local == local && isWordNamespace(n.Space)
	}
}

// wordText classifies run content: w:t carries text, w:tab and w:br/w:cr
// are separators
func wordText(n xml.Name) (string, bool) {
	if !isWordNamespace(n.Space) {
		return "", false
	}
	switch n.Local {
	case "t":
		return "", true
	case "tab":
		return "\t", false
	case "br", "cr":
		return "\n", false
	}
	return "", false
}
