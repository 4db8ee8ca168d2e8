package pdftext

import (
	"bytes"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	xunicode "golang.org/x/text/encoding/unicode"
)

var (
	bomUTF16BE = []byte{0xFE, 0xFF}
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
)

// decodeString converts the bytes of a shown string to text.
// Strings with a UTF-16BE byte order mark, or that look like two-byte
// codes with a zero high byte, decode as UTF-16BE; everything else is
// read as WinAnsi (Windows-1252), the encoding of the standard fonts.
func decodeString(b []byte) string {
	var s string
	switch {
	case len(b) == 0:
		return ""
	case bytes.HasPrefix(b, bomUTF8):
		s = string(b[len(bomUTF8):])
	case bytes.HasPrefix(b, bomUTF16BE):
		s = decodeUTF16(b)
	case looksLikeUTF16(b):
		s = decodeUTF16(append(append([]byte{}, bomUTF16BE...), b...))
	default:
		out, err := charmap.Windows1252.NewDecoder().Bytes(b)
		if err != nil {
			s = string(b)
		} else {
			s = string(out)
		}
	}
	return clean(s)
}

func decodeUTF16(b []byte) string {
	dec := xunicode.UTF16(xunicode.BigEndian, xunicode.ExpectBOM).NewDecoder()
	out, err := dec.Bytes(b)
	if err != nil {
		return ""
	}
	return string(out)
}

// looksLikeUTF16 reports whether every even byte is zero and the string
// has an even length, the shape of Identity-H encoded Latin text
func looksLikeUTF16(b []byte) bool {
	if len(b) < 2 || len(b)%2 != 0 {
		return false
	}
	for i := 0; i < len(b); i += 2 {
		if b[i] != 0 || b[i+1] == 0 {
			return false
		}
	}
	return true
}

// clean drops control characters and invalid runes, keeping tabs as spaces
func clean(s string) string {
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "")
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\t':
			return ' '
		case r == utf8.RuneError, unicode.IsControl(r):
			return -1
		}
		return r
	}, s)
}
