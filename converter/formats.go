package converter

import (
	"sort"
	"strings"
)

// Source media types accepted by the service
const (
	MediaTypePDF  = "application/pdf"
	MediaTypeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MediaTypeJPEG = "image/jpeg"
	MediaTypePNG  = "image/png"
	MediaTypePPTX = "application/vnd.openxmlformats-officedocument.presentationml.presentation"
	MediaTypePPT  = "application/vnd.ms-powerpoint"
)

// Target format tokens accepted by the service
const (
	FormatPDF  = "pdf"
	FormatDOCX = "docx"
	FormatJPG  = "jpg"
	FormatJPEG = "jpeg"
	FormatPNG  = "png"
	FormatPPTX = "pptx"
)

// Pair is an ordered (source media type, target format) combination
type Pair struct {
	Source string
	Format string
}

func (p Pair) String() string {
	return p.Source + " -> " + p.Format
}

// Format describes a target format token
type Format struct {
	Token     string
	MediaType string
	Extension string
	// Canonical is set for alias tokens (jpeg -> jpg)
	Canonical string
}

// Registry is the static table of legal conversions. It is built once and
// only read afterwards, so a single instance can be shared by every request.
type Registry struct {
	targets    map[string][]string
	formats    map[string]Format
	extensions map[string]string
	sources    []string
}

// NewRegistry builds the registry of the six supported conversions
func NewRegistry() *Registry {
	r := &Registry{
		targets: map[string][]string{
			MediaTypePDF:  {FormatDOCX, FormatJPG, FormatPPTX},
			MediaTypeDOCX: {FormatPDF},
			MediaTypeJPEG: {FormatPDF},
			MediaTypePNG:  {FormatPDF},
			MediaTypePPTX: {FormatPDF},
			MediaTypePPT:  {FormatPDF},
		},
		formats: map[string]Format{
			FormatPDF:  {Token: FormatPDF, MediaType: MediaTypePDF, Extension: "pdf"},
			FormatDOCX: {Token: FormatDOCX, MediaType: MediaTypeDOCX, Extension: "docx"},
			FormatJPG:  {Token: FormatJPG, MediaType: MediaTypeJPEG, Extension: "jpg"},
			FormatJPEG: {Token: FormatJPEG, MediaType: MediaTypeJPEG, Extension: "jpg", Canonical: FormatJPG},
			FormatPNG:  {Token: FormatPNG, MediaType: MediaTypePNG, Extension: "png"},
			FormatPPTX: {Token: FormatPPTX, MediaType: MediaTypePPTX, Extension: "pptx"},
		},
		extensions: map[string]string{
			".pdf":  MediaTypePDF,
			".docx": MediaTypeDOCX,
			".jpg":  MediaTypeJPEG,
			".jpeg": MediaTypeJPEG,
			".png":  MediaTypePNG,
			".pptx": MediaTypePPTX,
			".ppt":  MediaTypePPT,
		},
	}

	for source := range r.targets {
		r.sources = append(r.sources, source)
	}
	sort.Strings(r.sources)

	return r
}

// canonical resolves alias tokens to the token used in the conversion table
func (r *Registry) canonical(format string) string {
	if f, ok := r.formats[format]; ok && f.Canonical != "" {
		return f.Canonical
	}
	return format
}

// AllowedTargets returns the target tokens a source media type converts to.
// The result is a copy; nil means the source type is not registered.
func (r *Registry) AllowedTargets(source string) []string {
	targets, ok := r.targets[source]
	if !ok {
		return nil
	}
	out := make([]string, len(targets))
	copy(out, targets)
	return out
}

// Supports reports whether the ordered pair is a registered conversion
func (r *Registry) Supports(source, format string) bool {
	if _, ok := r.formats[format]; !ok {
		return false
	}
	want := r.canonical(format)
	for _, target := range r.targets[source] {
		if target == want {
			return true
		}
	}
	return false
}

// Normalize maps a pair onto the key used by the dispatch table
func (r *Registry) Normalize(p Pair) Pair {
	return Pair{Source: p.Source, Format: r.canonical(p.Format)}
}

// CanonicalMediaType returns the output media type for a format token
func (r *Registry) CanonicalMediaType(format string) (string, bool) {
	f, ok := r.formats[format]
	return f.MediaType, ok
}

// Extension returns the file extension written for a format token.
// Both JPEG tokens write "jpg".
func (r *Registry) Extension(format string) (string, bool) {
	f, ok := r.formats[format]
	return f.Extension, ok
}

// Pairs returns every registered pair, without alias tokens, sorted
func (r *Registry) Pairs() []Pair {
	var pairs []Pair
	for _, source := range r.sources {
		for _, target := range r.targets[source] {
			pairs = append(pairs, Pair{Source: source, Format: target})
		}
	}
	return pairs
}

// SourceTypes returns the recognized source media types, sorted
func (r *Registry) SourceTypes() []string {
	out := make([]string, len(r.sources))
	copy(out, r.sources)
	return out
}

// Formats returns the recognized target format tokens, sorted
func (r *Registry) Formats() []string {
	out := make([]string, 0, len(r.formats))
	for token := range r.formats {
		out = append(out, token)
	}
	sort.Strings(out)
	return out
}

// SourceTypeForExtension maps a file extension (with or without the dot)
// to its source media type
func (r *Registry) SourceTypeForExtension(ext string) (string, bool) {
	ext = strings.ToLower(ext)
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	mt, ok := r.extensions[ext]
	return mt, ok
}
