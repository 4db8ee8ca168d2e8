package converter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryAllowedTargets(t *testing.T) {
	r := NewRegistry()

	tests := []struct {
		source string
		want   []string
	}{
		{MediaTypePDF, []string{FormatDOCX, FormatJPG, FormatPPTX}},
		{MediaTypeDOCX, []string{FormatPDF}},
		{MediaTypeJPEG, []string{FormatPDF}},
		{MediaTypePNG, []string{FormatPDF}},
		{MediaTypePPTX, []string{FormatPDF}},
		{MediaTypePPT, []string{FormatPDF}},
		{"text/plain", nil},
		{"", nil},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			assert.Equal(t, tt.want, r.AllowedTargets(tt.source))
		})
	}
}

func TestRegistryAllowedTargetsReturnsCopy(t *testing.T) {
	r := NewRegistry()

	targets := r.AllowedTargets(MediaTypePDF)
	targets[0] = "xlsx"

	assert.Equal(t, FormatDOCX, r.AllowedTargets(MediaTypePDF)[0])
}

func TestRegistrySupports(t *testing.T) {
	r := NewRegistry()

	tests := []struct {
		name   string
		source string
		format string
		want   bool
	}{
		{"pdf to docx", MediaTypePDF, FormatDOCX, true},
		{"pdf to jpg", MediaTypePDF, FormatJPG, true},
		{"pdf to jpeg alias", MediaTypePDF, FormatJPEG, true},
		{"pdf to pptx", MediaTypePDF, FormatPPTX, true},
		{"png to pdf", MediaTypePNG, FormatPDF, true},
		{"ppt to pdf", MediaTypePPT, FormatPDF, true},
		{"pdf to pdf", MediaTypePDF, FormatPDF, false},
		{"pdf to png is not offered", MediaTypePDF, FormatPNG, false},
		{"pdf to xlsx", MediaTypePDF, "xlsx", false},
		{"unknown source", "text/plain", FormatPDF, false},
		{"docx to jpg", MediaTypeDOCX, FormatJPG, false},
		{"case sensitive format", MediaTypePDF, "DOCX", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Supports(tt.source, tt.format))
			assert.Equal(t, tt.want, r.Validate(tt.source, tt.format))
		})
	}
}

func TestRegistryNormalize(t *testing.T) {
	r := NewRegistry()

	assert.Equal(t, Pair{Source: MediaTypePDF, Format: FormatJPG},
		r.Normalize(Pair{Source: MediaTypePDF, Format: FormatJPEG}))
	assert.Equal(t, Pair{Source: MediaTypePDF, Format: FormatDOCX},
		r.Normalize(Pair{Source: MediaTypePDF, Format: FormatDOCX}))
}

func TestRegistryFormatLookups(t *testing.T) {
	r := NewRegistry()

	t.Run("jpeg writes the jpg extension", func(t *testing.T) {
		ext, ok := r.Extension(FormatJPEG)
		require.True(t, ok)
		assert.Equal(t, "jpg", ext)

		mt, ok := r.CanonicalMediaType(FormatJPEG)
		require.True(t, ok)
		assert.Equal(t, MediaTypeJPEG, mt)
	})

	t.Run("docx media type", func(t *testing.T) {
		mt, ok := r.CanonicalMediaType(FormatDOCX)
		require.True(t, ok)
		assert.Equal(t, MediaTypeDOCX, mt)
	})

	t.Run("unknown token", func(t *testing.T) {
		_, ok := r.Extension("xlsx")
		assert.False(t, ok)
		_, ok = r.CanonicalMediaType("xlsx")
		assert.False(t, ok)
	})
}

func TestRegistryPairs(t *testing.T) {
	pairs := NewRegistry().Pairs()

	assert.Len(t, pairs, 8)
	assert.Contains(t, pairs, Pair{Source: MediaTypePDF, Format: FormatJPG})
	assert.NotContains(t, pairs, Pair{Source: MediaTypePDF, Format: FormatJPEG})
	assert.Equal(t, "application/pdf -> docx", Pair{Source: MediaTypePDF, Format: FormatDOCX}.String())
}

func TestRegistrySourceTypeForExtension(t *testing.T) {
	r := NewRegistry()

	tests := []struct {
		ext  string
		want string
		ok   bool
	}{
		{".pdf", MediaTypePDF, true},
		{"PDF", MediaTypePDF, true},
		{".jpeg", MediaTypeJPEG, true},
		{".jpg", MediaTypeJPEG, true},
		{".ppt", MediaTypePPT, true},
		{".xlsx", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.ext, func(t *testing.T) {
			got, ok := r.SourceTypeForExtension(tt.ext)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
