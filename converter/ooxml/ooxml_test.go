package ooxml

import (
	"bytes"
	"errors"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"convertey/converter/colors"
)

// zipParts builds a package from name/content pairs, in order
func zipParts(t *testing.T, kv ...string) []byte {
	t.Helper()
	require.Zero(t, len(kv)%2)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for i := 0; i < len(kv); i += 2 {
		w, err := zw.Create(kv[i])
		require.NoError(t, err)
		_, err = w.Write([]byte(kv[i+1]))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestWriteDocumentRoundTrip(t *testing.T) {
	data, err := WriteDocument([]Paragraph{
		{Text: "Quarterly report"},
		{Text: "Revenue & costs <draft>"},
		{Text: "Appendix", PageBreakBefore: true},
	})
	require.NoError(t, err)

	pkg, err := OpenPackage(data)
	require.NoError(t, err)
	assert.Equal(t, []string{"[Content_Types].xml", "_rels/.rels", "word/document.xml"}, pkg.Names())

	got, err := ReadDocumentText(data)
	require.NoError(t, err)
	assert.Equal(t, []string{"Quarterly report", "Revenue & costs <draft>", "\n", "Appendix"}, got)
}

func TestWriteDocumentEmpty(t *testing.T) {
	data, err := WriteDocument(nil)
	require.NoError(t, err)

	got, err := ReadDocumentText(data)
	require.NoError(t, err)
	assert.Equal(t, []string{""}, got)
}

func TestWriteDocumentDeterministic(t *testing.T) {
	paras := []Paragraph{{Text: "same"}, {Text: "input", PageBreakBefore: true}}

	first, err := WriteDocument(paras)
	require.NoError(t, err)
	second, err := WriteDocument(paras)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestReadDocumentTextForeignPackage(t *testing.T) {
	document := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p>
      <w:pPr><w:tabs><w:tab w:val="left" w:pos="720"/></w:tabs></w:pPr>
      <w:r><w:rPr><w:b/></w:rPr><w:t>Split</w:t></w:r><w:r><w:t xml:space="preserve"> run</w:t></w:r>
    </w:p>
    <w:p><w:r><w:t>a</w:t><w:tab/><w:t>b</w:t><w:br/><w:t>c</w:t></w:r></w:p>
    <w:p/>
    <w:tbl><w:tr><w:tc><w:p><w:r><w:t>cell</w:t></w:r></w:p></w:tc></w:tr></w:tbl>
    <w:sectPr><w:pgSz w:w="11906" w:h="16838"/></w:sectPr>
  </w:body>
</w:document>`

	data := zipParts(t, "word/document.xml", document)

	got, err := ReadDocumentText(data)
	require.NoError(t, err)
	assert.Equal(t, []string{"Split run", "a\tb\nc", "", "cell"}, got)
}

func TestReadDocumentTextStrictNamespace(t *testing.T) {
	document := `<w:document xmlns:w="http://purl.oclc.org/ooxml/wordprocessingml/main">` +
		`<w:body><w:p><w:r><w:t>strict</w:t></w:r></w:p></w:body></w:document>`

	got, err := ReadDocumentText(zipParts(t, "word/document.xml", document))
	require.NoError(t, err)
	assert.Equal(t, []string{"strict"}, got)
}

func TestReadDocumentTextErrors(t *testing.T) {
	t.Run("not a zip", func(t *testing.T) {
		_, err := ReadDocumentText([]byte("plain text"))
		assert.True(t, errors.Is(err, ErrNotPackage))
	})

	t.Run("missing main part", func(t *testing.T) {
		_, err := ReadDocumentText(zipParts(t, "other.xml", "<x/>"))
		assert.True(t, errors.Is(err, ErrNoDocument))
	})

	t.Run("malformed xml", func(t *testing.T) {
		_, err := ReadDocumentText(zipParts(t, "word/document.xml", `<w:document><w:body><w:p w:x="`))
		assert.Error(t, err)
	})
}

func TestWriteDeckRoundTrip(t *testing.T) {
	slides := []Slide{
		{Title: "Page 1", Body: []string{"first line", "second line"}},
		{Title: "Page 2"},
		{Title: "Page 3", Body: []string{"R&D <summary>"}},
	}

	data, err := WriteDeck(slides, colors.PaletteNord)
	require.NoError(t, err)

	pkg, err := OpenPackage(data)
	require.NoError(t, err)
	for _, name := range []string{
		"[Content_Types].xml",
		"_rels/.rels",
		"ppt/presentation.xml",
		"ppt/_rels/presentation.xml.rels",
		"ppt/slideMasters/slideMaster1.xml",
		"ppt/slideLayouts/slideLayout1.xml",
		"ppt/theme/theme1.xml",
		"ppt/slides/slide3.xml",
		"ppt/slides/_rels/slide3.xml.rels",
	} {
		assert.True(t, pkg.Has(name), name)
	}

	theme, err := pkg.Read("ppt/theme/theme1.xml")
	require.NoError(t, err)
	assert.Contains(t, string(theme), colors.PaletteNord.Heading.HexDigits())

	got, err := ReadSlides(data)
	require.NoError(t, err)
	assert.Equal(t, []SlideText{
		{Number: 1, Paragraphs: []string{"Page 1", "first line", "second line"}},
		{Number: 2, Paragraphs: []string{"Page 2"}},
		{Number: 3, Paragraphs: []string{"Page 3", "R&D <summary>"}},
	}, got)
}

func TestWriteDeckDeterministic(t *testing.T) {
	slides := []Slide{{Title: "Page 1", Body: []string{"x"}}}

	first, err := WriteDeck(slides, colors.PaletteDefault)
	require.NoError(t, err)
	second, err := WriteDeck(slides, colors.PaletteDefault)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestWriteDeckEmpty(t *testing.T) {
	_, err := WriteDeck(nil, colors.PaletteDefault)
	assert.ErrorIs(t, err, ErrNoSlides)
}

func TestReadSlidesOrdersNumerically(t *testing.T) {
	slide := func(text string) string {
		return `<p:sld xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" ` +
			`xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main">` +
			`<p:cSld><p:spTree><p:sp><p:txBody><a:bodyPr/>` +
			`<a:p><a:r><a:rPr lang="en-US"/><a:t>` + text + `</a:t></a:r><a:br/><a:r><a:t>more</a:t></a:r></a:p>` +
			`<a:p><a:endParaRPr lang="en-US"/></a:p>` +
			`</p:txBody></p:sp></p:spTree></p:cSld></p:sld>`
	}

	data := zipParts(t,
		"ppt/slides/slide10.xml", slide("ten"),
		"ppt/slides/slide2.xml", slide("two"),
		"ppt/slides/_rels/slide2.xml.rels", "<Relationships/>",
		"ppt/slides/slide1.xml", slide("one"),
		"ppt/slideLayouts/slideLayout1.xml", slide("layout"),
	)

	got, err := ReadSlides(data)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, 1, got[0].Number)
	assert.Equal(t, []string{"one\nmore"}, got[0].Paragraphs)
	assert.Equal(t, 2, got[1].Number)
	assert.Equal(t, 10, got[2].Number)
	assert.Equal(t, []string{"ten\nmore"}, got[2].Paragraphs)
}

func TestReadSlidesErrors(t *testing.T) {
	t.Run("legacy binary presentation", func(t *testing.T) {
		// OLE compound file signature
		legacy := []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1, 0, 0, 0, 0}
		_, err := ReadSlides(legacy)
		assert.ErrorIs(t, err, ErrNotPackage)
	})

	t.Run("package without slides", func(t *testing.T) {
		_, err := ReadSlides(zipParts(t, "ppt/presentation.xml", "<p:presentation/>"))
		assert.ErrorIs(t, err, ErrNoSlides)
	})
}

func TestPackageRead(t *testing.T) {
	pkg, err := OpenPackage(zipParts(t, "/leading/slash.xml", "content"))
	require.NoError(t, err)

	assert.True(t, pkg.Has("leading/slash.xml"))
	got, err := pkg.Read("leading/slash.xml")
	require.NoError(t, err)
	assert.Equal(t, "content", string(got))

	_, err = pkg.Read("missing.xml")
	assert.Error(t, err)
}

func TestEscape(t *testing.T) {
	assert.Equal(t, "a &amp; b &lt;c&gt;", escape("a & b <c>"))
	assert.Equal(t, "ab", escape("a\x00\x01b"))
}
