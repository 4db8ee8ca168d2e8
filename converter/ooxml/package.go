// Package ooxml reads and writes the Office Open XML containers used for
// DOCX and PPTX files. Only the parts needed to carry plain text are
// produced; readers tolerate anything else a package may contain.
package ooxml

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/klauspost/compress/zip"
)

const (
	// maxPartSize caps how much of a single decompressed part is read
	maxPartSize = 64 << 20

	xmlHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"

	relTypeOfficeDocument = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument"
	relTypeSlide          = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide"
	relTypeSlideLayout    = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideLayout"
	relTypeSlideMaster    = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideMaster"
	relTypeTheme          = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/theme"
)

// ErrNotPackage is returned when the input is not a zip container
var ErrNotPackage = errors.New("not an OOXML package")

// packageTime is stamped on every zip entry so identical input gives
// identical bytes
var packageTime = time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC)

// part is one file inside a package
type part struct {
	name    string
	content string
}

// writePackage zips parts in the given order
func writePackage(parts []part) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	for _, p := range parts {
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     p.name,
			Method:   zip.Deflate,
			Modified: packageTime,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to add %s: %w", p.name, err)
		}
		if _, err := io.WriteString(w, p.content); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", p.name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize package: %w", err)
	}
	return buf.Bytes(), nil
}

// Package is an opened OOXML container
type Package struct {
	files map[string]*zip.File
}

// OpenPackage opens a zip container held in memory. Part names are only
// used as map keys, so names zip considers insecure are accepted.
func OpenPackage(data []byte) (*Package, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil && !errors.Is(err, zip.ErrInsecurePath) {
		return nil, fmt.Errorf("%w: %v", ErrNotPackage, err)
	}

	files := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		files[strings.TrimPrefix(f.Name, "/")] = f
	}
	return &Package{files: files}, nil
}

// Has reports whether the package contains the named part
func (p *Package) Has(name string) bool {
	_, ok := p.files[name]
	return ok
}

// Names returns the part names, sorted
func (p *Package) Names() []string {
	names := make([]string, 0, len(p.files))
	for name := range p.files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Read returns the decompressed content of the named part
func (p *Package) Read(name string) ([]byte, error) {
	f, ok := p.files[name]
	if !ok {
		return nil, fmt.Errorf("part %s not found", name)
	}

	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, maxPartSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	if len(data) > maxPartSize {
		return nil, fmt.Errorf("part %s exceeds %d bytes", name, maxPartSize)
	}
	return data, nil
}

// relationship is one entry of a .rels part
type relationship struct {
	id, relType, target string
}

func relationshipsXML(rels []relationship) string {
	var b strings.Builder
	b.WriteString(xmlHeader)
	b.WriteString(`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`)
	for _, r := range rels {
		fmt.Fprintf(&b, `<Relationship Id="%s" Type="%s" Target="%s"/>`, r.id, r.relType, escape(r.target))
	}
	b.WriteString(`</Relationships>`)
	return b.String()
}

// override maps one part to its content type
type override struct {
	partName, contentType string
}

func contentTypesXML(overrides []override) string {
	var b strings.Builder
	b.WriteString(xmlHeader)
	b.WriteString(`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">`)
	b.WriteString(`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>`)
	b.WriteString(`<Default Extension="xml" ContentType="application/xml"/>`)
	for _, o := range overrides {
		fmt.Fprintf(&b, `<Override PartName="%s" ContentType="%s"/>`, o.partName, o.contentType)
	}
	b.WriteString(`</Types>`)
	return b.String()
}

// escape returns s with XML special characters escaped and characters
// XML 1.0 cannot carry removed
func escape(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(strings.Map(func(r rune) rune {
		if r == '\t' || r == '\n' || r == '\r' || r >= 0x20 && r != 0xFFFE && r != 0xFFFF {
			return r
		}
		return -1
	}, s)))
	return buf.String()
}

// paragraphs walks an XML part and collects the text of every paragraph
// element. textOf decides, per element, whether it contributes text ("t")
// or a separator ("tab", "br").
func paragraphs(data []byte, isParagraph func(xml.Name) bool, textOf func(xml.Name) (string, bool)) ([]string, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = false

	var (
		result  []string
		current strings.Builder
		depth   int // paragraph nesting
		inText  int
	)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("malformed XML: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			// property containers (pPr, rPr, sectPr...) never hold visible text
			if strings.HasSuffix(t.Name.Local, "Pr") {
				if err := dec.Skip(); err != nil {
					return nil, fmt.Errorf("malformed XML: %w", err)
				}
				continue
			}
			if isParagraph(t.Name) {
				if depth == 0 {
					current.Reset()
				}
				depth++
				continue
			}
			if sep, isText := textOf(t.Name); isText {
				inText++
			} else if depth > 0 && sep != "" {
				current.WriteString(sep)
			}
		case xml.EndElement:
			if isParagraph(t.Name) && depth > 0 {
				depth--
				if depth == 0 {
					result = append(result, current.String())
				}
				continue
			}
			if _, isText := textOf(t.Name); isText && inText > 0 {
				inText--
			}
		case xml.CharData:
			if depth > 0 && inText > 0 {
				current.Write(t)
			}
		}
	}

	return result, nil
}
