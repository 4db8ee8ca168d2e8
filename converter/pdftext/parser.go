package pdftext

import (
	"math"
	"strings"
)

const (
	// lineTolerance is the vertical distance, in text space units, beyond
	// which a glyph run starts a new line
	lineTolerance = 1.0
	// kerningSpace is the TJ adjustment (thousandths of an em) treated as
	// a word gap
	kerningSpace = -200
)

// Parser extracts lines of text from page content streams
type Parser struct{}

// NewParser creates a new content stream parser
func NewParser() *Parser {
	return &Parser{}
}

// textState tracks the parts of the text state that decide line breaks
type textState struct {
	y       float64
	leading float64

	lines   []string
	current strings.Builder

	haveY   bool
	lastY   float64
	moved   bool
	newLine bool
}

// ExtractLines returns the visible text of a content stream as lines, in
// stream order. Blank lines are dropped.
func (p *Parser) ExtractLines(content []byte) []string {
	st := &textState{}
	lex := newLexer(content)

	var operands []token
	for {
		t := lex.next()
		if t.kind == tokEOF {
			break
		}
		if t.kind != tokOperator {
			operands = append(operands, t)
			continue
		}

		st.apply(t.text, operands)
		if t.text == "ID" {
			lex.skipInlineImage()
		}
		operands = operands[:0]
	}

	st.flush()
	return st.lines
}

// apply executes one text operator against the state
func (st *textState) apply(op string, operands []token) {
	switch op {
	case "BT":
		st.y = 0
		st.moved = true
	case "Td":
		if ty, ok := number(operands, 1, 2); ok {
			st.y += ty
		}
		st.moved = true
	case "TD":
		if ty, ok := number(operands, 1, 2); ok {
			st.y += ty
			st.leading = -ty
		}
		st.moved = true
	case "TL":
		if tl, ok := number(operands, 0, 1); ok {
			st.leading = tl
		}
	case "Tm":
		if f, ok := number(operands, 5, 6); ok {
			st.y = f
		}
		st.moved = true
	case "T*":
		st.nextLine()
	case "Tj":
		if s, ok := lastString(operands); ok {
			st.show(decodeString(s))
		}
	case "'", "\"":
		st.nextLine()
		if s, ok := lastString(operands); ok {
			st.show(decodeString(s))
		}
	case "TJ":
		if len(operands) == 0 || operands[len(operands)-1].kind != tokArray {
			return
		}
		for _, item := range operands[len(operands)-1].items {
			switch item.kind {
			case tokString:
				st.show(decodeString(item.str))
			case tokNumber:
				if item.num < kerningSpace {
					st.space()
				}
			}
		}
	}
}

func (st *textState) nextLine() {
	st.y -= st.leading
	st.newLine = true
}

// show appends a decoded glyph run, breaking the line when the baseline moved
func (st *textState) show(s string) {
	if s == "" {
		return
	}
	if st.newLine || (st.haveY && math.Abs(st.y-st.lastY) > lineTolerance) {
		st.flush()
	} else if st.moved {
		st.space()
	}

	st.current.WriteString(s)
	st.haveY = true
	st.lastY = st.y
	st.moved = false
	st.newLine = false
}

// space adds a single word gap to a non-empty line
func (st *textState) space() {
	cur := st.current.String()
	if cur == "" || strings.HasSuffix(cur, " ") {
		return
	}
	st.current.WriteByte(' ')
}

func (st *textState) flush() {
	line := strings.Join(strings.Fields(st.current.String()), " ")
	if line != "" {
		st.lines = append(st.lines, line)
	}
	st.current.Reset()
}

// number returns operands[i] as a number when exactly want operands are present
func number(operands []token, i, want int) (float64, bool) {
	if len(operands) < want {
		return 0, false
	}
	base := len(operands) - want
	t := operands[base+i]
	if t.kind != tokNumber {
		return 0, false
	}
	return t.num, true
}

func lastString(operands []token) ([]byte, bool) {
	if len(operands) == 0 {
		return nil, false
	}
	t := operands[len(operands)-1]
	if t.kind != tokString {
		return nil, false
	}
	return t.str, true
}
