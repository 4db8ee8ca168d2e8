package pdftext

import (
	"bytes"
	"strconv"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokString
	tokName
	tokOperator
	tokArray
	tokDict
)

// token is one lexical item of a content stream
type token struct {
	kind  tokenKind
	text  string  // operator or name
	num   float64 // tokNumber
	str   []byte  // raw string bytes, escapes resolved
	items []token // tokArray
}

// lexer splits a content stream into tokens
type lexer struct {
	data []byte
	pos  int
}

func newLexer(data []byte) *lexer {
	return &lexer{data: data}
}

func isWhitespace(c byte) bool {
	switch c {
	case 0, '\t', '\n', '\f', '\r', ' ':
		return true
	}
	return false
}

func isDelimiter(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

func isRegular(c byte) bool {
	return !isWhitespace(c) && !isDelimiter(c)
}

// skipSpace skips whitespace and comments
func (l *lexer) skipSpace() {
	for l.pos < len(l.data) {
		c := l.data[l.pos]
		switch {
		case isWhitespace(c):
			l.pos++
		case c == '%':
			for l.pos < len(l.data) && l.data[l.pos] != '\n' && l.data[l.pos] != '\r' {
				l.pos++
			}
		default:
			return
		}
	}
}

// next returns the next token, or tokEOF at the end of input
func (l *lexer) next() token {
	for {
		l.skipSpace()
		if l.pos >= len(l.data) {
			return token{kind: tokEOF}
		}

		c := l.data[l.pos]
		switch c {
		case '(':
			l.pos++
			return token{kind: tokString, str: l.readLiteral()}
		case '<':
			if l.peek(1) == '<' {
				l.pos += 2
				l.skipDict()
				return token{kind: tokDict}
			}
			l.pos++
			return token{kind: tokString, str: l.readHex()}
		case '[':
			l.pos++
			return token{kind: tokArray, items: l.readArray()}
		case '/':
			l.pos++
			return token{kind: tokName, text: l.readRegular()}
		case ')', '>', ']', '{', '}':
			// stray delimiter
			l.pos++
			continue
		}

		word := l.readRegular()
		if word == "" {
			l.pos++
			continue
		}
		if c == '+' || c == '-' || c == '.' || (c >= '0' && c <= '9') {
			if n, err := strconv.ParseFloat(word, 64); err == nil {
				return token{kind: tokNumber, num: n, text: word}
			}
		}
		return token{kind: tokOperator, text: word}
	}
}

func (l *lexer) peek(offset int) byte {
	if l.pos+offset < len(l.data) {
		return l.data[l.pos+offset]
	}
	return 0
}

func (l *lexer) readRegular() string {
	start := l.pos
	for l.pos < len(l.data) && isRegular(l.data[l.pos]) {
		l.pos++
	}
	return string(l.data[start:l.pos])
}

// readLiteral reads a (string) body after the opening parenthesis.
// Balanced parentheses nest; backslash escapes follow the PDF rules.
func (l *lexer) readLiteral() []byte {
	var out []byte
	depth := 1
	for l.pos < len(l.data) {
		c := l.data[l.pos]
		l.pos++
		switch c {
		case '(':
			depth++
			out = append(out, c)
		case ')':
			depth--
			if depth == 0 {
				return out
			}
			out = append(out, c)
		case '\\':
			if l.pos >= len(l.data) {
				return out
			}
			e := l.data[l.pos]
			l.pos++
			switch e {
			case 'n':
				out = append(out, '\n')
			case 'r':
				out = append(out, '\r')
			case 't':
				out = append(out, '\t')
			case 'b':
				out = append(out, '\b')
			case 'f':
				out = append(out, '\f')
			case '\r':
				// line continuation
				if l.pos < len(l.data) && l.data[l.pos] == '\n' {
					l.pos++
				}
			case '\n':
			case '0', '1', '2', '3', '4', '5', '6', '7':
				v := int(e - '0')
				for i := 0; i < 2 && l.pos < len(l.data); i++ {
					d := l.data[l.pos]
					if d < '0' || d > '7' {
						break
					}
					v = v*8 + int(d-'0')
					l.pos++
				}
				out = append(out, byte(v))
			default:
				out = append(out, e)
			}
		default:
			out = append(out, c)
		}
	}
	return out
}

// readHex reads a <hex string> body after the opening angle bracket
func (l *lexer) readHex() []byte {
	var out []byte
	var hi byte
	half := false
	for l.pos < len(l.data) {
		c := l.data[l.pos]
		l.pos++
		if c == '>' {
			break
		}
		v, ok := hexValue(c)
		if !ok {
			continue
		}
		if half {
			out = append(out, hi<<4|v)
			half = false
		} else {
			hi = v
			half = true
		}
	}
	if half {
		out = append(out, hi<<4)
	}
	return out
}

func hexValue(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

// readArray reads tokens up to the matching close bracket
func (l *lexer) readArray() []token {
	var items []token
	for {
		l.skipSpace()
		if l.pos >= len(l.data) {
			return items
		}
		if l.data[l.pos] == ']' {
			l.pos++
			return items
		}
		t := l.next()
		if t.kind == tokEOF {
			return items
		}
		items = append(items, t)
	}
}

// skipDict skips a << >> dictionary; content streams only carry them as
// marked-content properties, which never hold page text
func (l *lexer) skipDict() {
	depth := 1
	for l.pos < len(l.data) && depth > 0 {
		switch {
		case l.data[l.pos] == '(':
			l.pos++
			l.readLiteral()
		case l.data[l.pos] == '<' && l.peek(1) == '<':
			depth++
			l.pos += 2
		case l.data[l.pos] == '>' && l.peek(1) == '>':
			depth--
			l.pos += 2
		default:
			l.pos++
		}
	}
}

// skipInlineImage skips binary image data following an ID operator,
// up to and including the EI that ends it
func (l *lexer) skipInlineImage() {
	// a single whitespace byte separates ID from the data
	if l.pos < len(l.data) && isWhitespace(l.data[l.pos]) {
		l.pos++
	}
	for {
		i := bytes.Index(l.data[l.pos:], []byte("EI"))
		if i < 0 {
			l.pos = len(l.data)
			return
		}
		at := l.pos + i
		before := at == 0 || isWhitespace(l.data[at-1])
		after := at+2 >= len(l.data) || isWhitespace(l.data[at+2])
		l.pos = at + 2
		if before && after {
			return
		}
	}
}
