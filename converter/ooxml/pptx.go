package ooxml

import (
	"encoding/xml"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"convertey/converter/colors"
)

const (
	nsDrawing       = "http://schemas.openxmlformats.org/drawingml/2006/main"
	nsDrawingStrict = "http://purl.oclc.org/ooxml/drawingml/main"
	nsPresentation  = "http://schemas.openxmlformats.org/presentationml/2006/main"
	nsRelationships = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"

	contentTypePresentation = "application/vnd.openxmlformats-officedocument.presentationml.presentation.main+xml"
	contentTypeSlide        = "application/vnd.openxmlformats-officedocument.presentationml.slide+xml"
	contentTypeSlideLayout  = "application/vnd.openxmlformats-officedocument.presentationml.slideLayout+xml"
	contentTypeSlideMaster  = "application/vnd.openxmlformats-officedocument.presentationml.slideMaster+xml"
	contentTypeTheme        = "application/vnd.openxmlformats-officedocument.theme+xml"

	// 16:9 slide size in EMU
	slideWidth  = 9144000
	slideHeight = 5143500

	slideMasterID = 2147483648
	slideLayoutID = 2147483649
	firstSlideID  = 256
)

// ErrNoSlides is returned when a package carries no slide parts
var ErrNoSlides = errors.New("no slides found")

var slidePartPattern = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

// Slide is one slide of a generated deck
type Slide struct {
	Title string
	Body  []string
}

// SlideText is the text read back from one slide part
type SlideText struct {
	Number     int
	Paragraphs []string
}

const namespaces = `xmlns:a="` + nsDrawing + `" xmlns:r="` + nsRelationships + `" xmlns:p="` + nsPresentation + `"`

const emptyGroup = `<p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr>` +
	`<p:grpSpPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="0" cy="0"/><a:chOff x="0" y="0"/><a:chExt cx="0" cy="0"/></a:xfrm></p:grpSpPr>`

// WriteDeck builds a 16:9 PPTX package with one slide per entry, each with
// a title box and a body box holding one paragraph per line
func WriteDeck(slides []Slide, palette colors.Palette) ([]byte, error) {
	if len(slides) == 0 {
		return nil, ErrNoSlides
	}

	overrides := []override{
		{partName: "/ppt/presentation.xml", contentType: contentTypePresentation},
		{partName: "/ppt/slideMasters/slideMaster1.xml", contentType: contentTypeSlideMaster},
		{partName: "/ppt/slideLayouts/slideLayout1.xml", contentType: contentTypeSlideLayout},
		{partName: "/ppt/theme/theme1.xml", contentType: contentTypeTheme},
	}
	presRels := []relationship{
		{id: "rId1", relType: relTypeSlideMaster, target: "slideMasters/slideMaster1.xml"},
	}

	var slideIDs strings.Builder
	slideParts := make([]part, 0, 2*len(slides))
	for i, s := range slides {
		n := i + 1
		rid := "rId" + strconv.Itoa(n+1)
		name := fmt.Sprintf("ppt/slides/slide%d.xml", n)

		overrides = append(overrides, override{partName: "/" + name, contentType: contentTypeSlide})
		presRels = append(presRels, relationship{id: rid, relType: relTypeSlide, target: fmt.Sprintf("slides/slide%d.xml", n)})
		fmt.Fprintf(&slideIDs, `<p:sldId id="%d" r:id="%s"/>`, firstSlideID+i, rid)

		slideParts = append(slideParts,
			part{name: name, content: slideXML(s, palette)},
			part{
				name: fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", n),
				content: relationshipsXML([]relationship{
					{id: "rId1", relType: relTypeSlideLayout, target: "../slideLayouts/slideLayout1.xml"},
				}),
			},
		)
	}
	presRels = append(presRels, relationship{
		id: "rId" + strconv.Itoa(len(slides)+2), relType: relTypeTheme, target: "theme/theme1.xml",
	})

	presentation := xmlHeader +
		`<p:presentation ` + namespaces + ` saveSubsetFonts="1">` +
		fmt.Sprintf(`<p:sldMasterIdLst><p:sldMasterId id="%d" r:id="rId1"/></p:sldMasterIdLst>`, slideMasterID) +
		`<p:sldIdLst>` + slideIDs.String() + `</p:sldIdLst>` +
		fmt.Sprintf(`<p:sldSz cx="%d" cy="%d"/>`, slideWidth, slideHeight) +
		`<p:notesSz cx="6858000" cy="9144000"/>` +
		`</p:presentation>`

	parts := []part{
		{name: "[Content_Types].xml", content: contentTypesXML(overrides)},
		{
			name:    "_rels/.rels",
			content: relationshipsXML([]relationship{{id: "rId1", relType: relTypeOfficeDocument, target: "ppt/presentation.xml"}}),
		},
		{name: "ppt/presentation.xml", content: presentation},
		{name: "ppt/_rels/presentation.xml.rels", content: relationshipsXML(presRels)},
		{name: "ppt/slideMasters/slideMaster1.xml", content: slideMasterXML(palette)},
		{
			name: "ppt/slideMasters/_rels/slideMaster1.xml.rels",
			content: relationshipsXML([]relationship{
				{id: "rId1", relType: relTypeSlideLayout, target: "../slideLayouts/slideLayout1.xml"},
				{id: "rId2", relType: relTypeTheme, target: "../theme/theme1.xml"},
			}),
		},
		{name: "ppt/slideLayouts/slideLayout1.xml", content: slideLayoutXML},
		{
			name: "ppt/slideLayouts/_rels/slideLayout1.xml.rels",
			content: relationshipsXML([]relationship{
				{id: "rId1", relType: relTypeSlideMaster, target: "../slideMasters/slideMaster1.xml"},
			}),
		},
		{name: "ppt/theme/theme1.xml", content: themeXML(palette)},
	}

	return writePackage(append(parts, slideParts...))
}

func slideXML(s Slide, palette colors.Palette) string {
	var b strings.Builder
	b.WriteString(xmlHeader)
	b.WriteString(`<p:sld ` + namespaces + `><p:cSld><p:spTree>` + emptyGroup)

	b.WriteString(textBox(2, "Title", 457200, 228600, 8229600, 685800))
	fmt.Fprintf(&b, `<a:p><a:r><a:rPr lang="en-US" sz="2800" b="1" dirty="0"><a:solidFill><a:srgbClr val="%s"/></a:solidFill></a:rPr><a:t>%s</a:t></a:r></a:p>`,
		palette.Heading.HexDigits(), escape(s.Title))
	b.WriteString(`</p:txBody></p:sp>`)

	b.WriteString(textBox(3, "Content", 457200, 1028700, 8229600, 3771900))
	for _, line := range s.Body {
		fmt.Fprintf(&b, `<a:p><a:r><a:rPr lang="en-US" sz="1400" dirty="0"><a:solidFill><a:srgbClr val="%s"/></a:solidFill></a:rPr><a:t>%s</a:t></a:r></a:p>`,
			palette.Text.HexDigits(), escape(line))
	}
	if len(s.Body) == 0 {
		b.WriteString(`<a:p><a:endParaRPr lang="en-US" dirty="0"/></a:p>`)
	}
	b.WriteString(`</p:txBody></p:sp>`)

	b.WriteString(`</p:spTree></p:cSld><p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr></p:sld>`)
	return b.String()
}

// textBox opens a text shape; the caller writes paragraphs and closes it
func textBox(id int, name string, x, y, cx, cy int) string {
	return fmt.Sprintf(`<p:sp><p:nvSpPr><p:cNvPr id="%d" name="%s"/><p:cNvSpPr txBox="1"/><p:nvPr/></p:nvSpPr>`, id, name) +
		fmt.Sprintf(`<p:spPr><a:xfrm><a:off x="%d" y="%d"/><a:ext cx="%d" cy="%d"/></a:xfrm><a:prstGeom prst="rect"><a:avLst/></a:prstGeom><a:noFill/></p:spPr>`, x, y, cx, cy) +
		`<p:txBody><a:bodyPr wrap="square" rtlCol="0"><a:normAutofit/></a:bodyPr><a:lstStyle/>`
}

func slideMasterXML(palette colors.Palette) string {
	return xmlHeader +
		`<p:sldMaster ` + namespaces + `><p:cSld>` +
		fmt.Sprintf(`<p:bg><p:bgPr><a:solidFill><a:srgbClr val="%s"/></a:solidFill><a:effectLst/></p:bgPr></p:bg>`, palette.Surface.HexDigits()) +
		`<p:spTree>` + emptyGroup + `</p:spTree></p:cSld>` +
		`<p:clrMap bg1="lt1" tx1="dk1" bg2="lt2" tx2="dk2" accent1="accent1" accent2="accent2" accent3="accent3" accent4="accent4" accent5="accent5" accent6="accent6" hlink="hlink" folHlink="folHlink"/>` +
		fmt.Sprintf(`<p:sldLayoutIdLst><p:sldLayoutId id="%d" r:id="rId1"/></p:sldLayoutIdLst>`, slideLayoutID) +
		`</p:sldMaster>`
}

const slideLayoutXML = xmlHeader +
	`<p:sldLayout ` + namespaces + ` type="blank" preserve="1">` +
	`<p:cSld name="Blank"><p:spTree>` + emptyGroup + `</p:spTree></p:cSld>` +
	`<p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr></p:sldLayout>`

func themeXML(palette colors.Palette) string {
	solid := `<a:solidFill><a:schemeClr val="phClr"/></a:solidFill>`
	line := `<a:ln w="%d" cap="flat" cmpd="sng" algn="ctr"><a:solidFill><a:schemeClr val="phClr"/></a:solidFill><a:prstDash val="solid"/><a:miter lim="800000"/></a:ln>`
	effect := `<a:effectStyle><a:effectLst/></a:effectStyle>`

	return xmlHeader +
		`<a:theme xmlns:a="` + nsDrawing + `" name="Convertey">` +
		`<a:themeElements>` +
		`<a:clrScheme name="Convertey">` +
		`<a:dk1><a:srgbClr val="` + palette.Text.HexDigits() + `"/></a:dk1>` +
		`<a:lt1><a:srgbClr val="FFFFFF"/></a:lt1>` +
		`<a:dk2><a:srgbClr val="` + palette.Heading.HexDigits() + `"/></a:dk2>` +
		`<a:lt2><a:srgbClr val="` + palette.Background.HexDigits() + `"/></a:lt2>` +
		`<a:accent1><a:srgbClr val="4472C4"/></a:accent1>` +
		`<a:accent2><a:srgbClr val="ED7D31"/></a:accent2>` +
		`<a:accent3><a:srgbClr val="A5A5A5"/></a:accent3>` +
		`<a:accent4><a:srgbClr val="FFC000"/></a:accent4>` +
		`<a:accent5><a:srgbClr val="5B9BD5"/></a:accent5>` +
		`<a:accent6><a:srgbClr val="70AD47"/></a:accent6>` +
		`<a:hlink><a:srgbClr val="0563C1"/></a:hlink>` +
		`<a:folHlink><a:srgbClr val="954F72"/></a:folHlink>` +
		`</a:clrScheme>` +
		`<a:fontScheme name="Convertey">` +
		`<a:majorFont><a:latin typeface="Calibri Light"/><a:ea typeface=""/><a:cs typeface=""/></a:majorFont>` +
		`<a:minorFont><a:latin typeface="Calibri"/><a:ea typeface=""/><a:cs typeface=""/></a:minorFont>` +
		`</a:fontScheme>` +
		`<a:fmtScheme name="Convertey">` +
		`<a:fillStyleLst>` + solid + solid + solid + `</a:fillStyleLst>` +
		`<a:lnStyleLst>` + fmt.Sprintf(line, 6350) + fmt.Sprintf(line, 12700) + fmt.Sprintf(line, 19050) + `</a:lnStyleLst>` +
		`<a:effectStyleLst>` + effect + effect + effect + `</a:effectStyleLst>` +
		`<a:bgFillStyleLst>` + solid + solid + solid + `</a:bgFillStyleLst>` +
		`</a:fmtScheme>` +
		`</a:themeElements>` +
		`<a:objectDefaults/><a:extraClrSchemeLst/>` +
		`</a:theme>`
}

// ReadSlides returns the paragraph text of every slide part, ordered by
// slide number. Empty paragraphs are dropped.
func ReadSlides(data []byte) ([]SlideText, error) {
	pkg, err := OpenPackage(data)
	if err != nil {
		return nil, err
	}

	type slidePart struct {
		number int
		name   string
	}
	var found []slidePart
	for _, name := range pkg.Names() {
		m := slidePartPattern.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		found = append(found, slidePart{number: n, name: name})
	}
	if len(found) == 0 {
		return nil, ErrNoSlides
	}
	sort.Slice(found, func(i, j int) bool { return found[i].number < found[j].number })

	slides := make([]SlideText, 0, len(found))
	for _, sp := range found {
		content, err := pkg.Read(sp.name)
		if err != nil {
			return nil, err
		}
		paras, err := paragraphs(content, isDrawingElement("p"), drawingText)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", sp.name, err)
		}

		var kept []string
		for _, p := range paras {
			if strings.TrimSpace(p) != "" {
				kept = append(kept, p)
			}
		}
		slides = append(slides, SlideText{Number: sp.number, Paragraphs: kept})
	}

	return slides, nil
}

func isDrawingNamespace(space string) bool {
	return space == nsDrawing || space == nsDrawingStrict
}

func isDrawingElement(local string) func(xml.Name) bool {
	return func(n xml.Name) bool {
		return n.Local == local && isDrawingNamespace(n.Space)
	}
}

// drawingText classifies DrawingML run content: a:t carries text and a:br
// is a line break
func drawingText(n xml.Name) (string, bool) {
	if !isDrawingNamespace(n.Space) {
		return "", false
	}
	switch n.Local {
	case "t":
		return "", true
	case "br":
		return "\n", false
	}
	return "", false
}
