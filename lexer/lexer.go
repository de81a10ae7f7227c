package lexer

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/smasher164/xid"
)

// Ext is the file extension of record declaration files.
const Ext = ".hrec"

type Lexer struct {
	ch    rune
	pos   int
	i     int // position in buffer
	err   error
	buf   []rune
	rdr   *bufio.Reader
	lines []int // offsets at which each line starts
}

const eof = -1

func (l *Lexer) lexWS() Token {
	startPos := l.pos
	for unicode.IsSpace(l.ch) {
		l.next()
	}
	return Token{Type: Whitespace, Span: l.spanOf(startPos, l.pos-1), Data: l.bufString()}
}

func isLetter(ch rune) bool {
	return ch == '_' || xid.Start(ch)
}

func (l *Lexer) lexIdentOrKeyword() Token {
	startPos := l.pos
	l.next()
	for xid.Continue(l.ch) {
		l.next()
	}
	ident := l.bufString()
	if ttyp, ok := Keywords[ident]; ok {
		return Token{Type: ttyp, Span: l.spanOf(startPos, l.pos-1)}
	}
	return Token{Type: Ident, Span: l.spanOf(startPos, l.pos-1), Data: ident}
}

func isDecimal(ch rune) bool { return '0' <= ch && ch <= '9' }
func isHex(ch rune) bool {
	return '0' <= ch && ch <= '9' || 'a' <= ch && ch <= 'f' || 'A' <= ch && ch <= 'F'
}

func (l *Lexer) lexDigits(err *Token, base int) (digitCount int) {
	_allowed := base == 16
	for {
		switch {
		case l.ch == '_':
			if !_allowed {
				if err.Type != Illegal {
					*err = Token{Type: Illegal, Span: l.spanOf(l.pos, l.pos), Data: "'_' must separate successive digits"}
				}
			}
			_allowed = false
		case base == 10 && isDecimal(l.ch), base == 16 && isHex(l.ch):
			_allowed = true
			digitCount++
		default:
			if !_allowed && digitCount > 0 && err.Type != Illegal {
				*err = Token{Type: Illegal, Span: l.spanOf(l.pos-1, l.pos-1), Data: "'_' must separate successive digits"}
			}
			return digitCount
		}
		l.next()
	}
}

// lexNumber lexes the integer literals used as array lengths.
func (l *Lexer) lexNumber() Token {
	startPos := l.pos
	base := 10
	var tok Token
	if l.ch == '0' && (l.peek() == 'x' || l.peek() == 'X') {
		l.next()
		l.next()
		base = 16
	}
	if count := l.lexDigits(&tok, base); count == 0 {
		return Token{Type: Illegal, Span: l.spanOf(startPos, l.pos-1), Data: "no digits in number"}
	}
	if tok.Type == Illegal {
		return tok
	}
	if isLetter(l.ch) || l.ch == '.' {
		ch := l.ch
		l.next()
		return Token{Type: Illegal, Span: l.spanOf(startPos, l.pos-1), Data: fmt.Sprintf("%q is not a valid digit in base %d", ch, base)}
	}
	return Token{Type: Number, Span: l.spanOf(startPos, l.pos-1), Data: l.bufString()}
}

func (l *Lexer) lexLineComment() Token {
	startPos := l.pos
	l.until('\n')
	return Token{Type: LineComment, Span: l.spanOf(startPos, l.pos-1), Data: l.bufString()}
}

// lexEscape consumes an escape sequence after the backslash. It accepts
// the same escapes as a Go interpreted string literal.
func (l *Lexer) lexEscape() string {
	var n int
	var base, max uint32
	switch l.ch {
	case 'a', 'b', 'f', 'n', 'r', 't', 'v', '\\', '"':
		l.next()
		return ""
	case '0', '1', '2', '3', '4', '5', '6', '7':
		n, base, max = 3, 8, 255
	case 'x':
		l.next()
		n, base, max = 2, 16, 255
	case 'u':
		l.next()
		n, base, max = 4, 16, unicode.MaxRune
	case 'U':
		l.next()
		n, base, max = 8, 16, unicode.MaxRune
	default:
		if l.ch == eof {
			return "escape sequence not terminated"
		}
		l.next()
		return "unknown escape sequence"
	}

	var x uint32
	for n > 0 {
		d, err := strconv.ParseUint(string(l.ch), int(base), 8)
		if err != nil {
			if l.ch == eof {
				return "escape sequence not terminated"
			}
			msg := fmt.Sprintf("illegal character %#U in escape sequence", l.ch)
			l.next()
			return msg
		}
		x = x*base + uint32(d)
		l.next()
		n--
	}

	if x > max || base != 8 && 0xD800 <= x && x < 0xE000 {
		return "escape sequence is invalid Unicode code point"
	}

	return ""
}

func (l *Lexer) lexString() Token {
	startPos := l.pos
	l.next()
	var tok Token
	for l.ch != '"' {
		switch l.ch {
		case eof, '\n':
			return Token{Type: Illegal, Span: l.spanOf(startPos, l.pos-1), Data: "string literal not terminated"}
		case '\\':
			l.next()
			escPos := l.pos
			if msg := l.lexEscape(); msg != "" && tok.Type != Illegal {
				tok = Token{Type: Illegal, Span: l.spanOf(escPos, l.pos-1), Data: msg}
			}
		default:
			l.next()
		}
	}
	l.next()
	if tok.Type == Illegal {
		return tok
	}
	return Token{Type: String, Span: l.spanOf(startPos, l.pos-1), Data: l.bufString()}
}

func (l *Lexer) lexRawString() Token {
	startPos := l.pos
	l.next()
	l.until('`')
	if l.ch == eof {
		return Token{Type: Illegal, Span: l.spanOf(startPos, l.pos-1), Data: "raw string literal not terminated"}
	}
	l.next()
	return Token{Type: String, Span: l.spanOf(startPos, l.pos-1), Data: l.bufString()}
}

func (l *Lexer) next() {
	if l.ch == eof {
		return
	}
	l.i++
	l.pos++
	if l.i < len(l.buf) {
		l.ch = l.buf[l.i]
	} else {
		r, _, err := l.rdr.ReadRune()
		if err != nil {
			l.ch = eof
			if err != io.EOF {
				l.err = err
			}
		} else {
			l.ch = r
		}
		l.buf = append(l.buf, l.ch)
	}
	if l.ch == '\n' {
		if l.lines[len(l.lines)-1] <= l.pos {
			l.lines = append(l.lines, l.pos+1)
		}
	}
}

func (l *Lexer) backup() {
	if l.i > 0 {
		l.i--
		l.pos--
		l.ch = l.buf[l.i]
	}
}

func (l *Lexer) peek() rune {
	if l.ch == eof {
		return eof
	}
	l.next()
	ch := l.ch
	l.backup()
	return ch
}

func (l *Lexer) until(r rune) {
	for l.ch != r && l.ch != eof {
		l.next()
	}
}

func (l *Lexer) bufString() string {
	return string(l.buf[:l.i])
}

func (l *Lexer) lineIndex(offset int) int {
	line, found := sort.Find(len(l.lines), func(i int) int {
		v := l.lines[i]
		if offset == v {
			return 0
		}
		if offset < v {
			return -1
		}
		return 1
	})
	if found {
		return line
	}
	return line - 1
}

func (l *Lexer) posOf(offset int) Pos {
	line := l.lineIndex(offset)
	return Pos{Offset: offset, Line: line + 1, Column: offset - l.lines[line] + 1}
}

func (l *Lexer) spanOf(off1, off2 int) Span {
	start := l.posOf(off1)
	var end Pos
	if off1 == off2 {
		end = start
	} else {
		end = l.posOf(off2)
	}
	return Span{Start: start, End: end}
}

func (l *Lexer) resetPos() {
	l.buf = l.buf[l.i:]
	l.i = 0
	l.ch = l.buf[l.i]
}

func (l *Lexer) NextToken() Token {
	defer l.resetPos()
	startPos := l.pos
	switch {
	case unicode.IsSpace(l.ch):
		return l.lexWS()
	case isLetter(l.ch):
		return l.lexIdentOrKeyword()
	case isDecimal(l.ch):
		return l.lexNumber()
	case l.ch == '/' && l.peek() == '/':
		return l.lexLineComment()
	case l.ch == '"':
		return l.lexString()
	case l.ch == '`':
		return l.lexRawString()
	}
	if ttyp, ok := SingleCharTokens[l.ch]; ok {
		l.next()
		return Token{Type: ttyp, Span: l.spanOf(startPos, startPos)}
	}
	ch := l.ch
	l.next()
	return Token{Type: Illegal, Span: l.spanOf(startPos, startPos), Data: fmt.Sprintf("unexpected character %q", ch)}
}

// Next returns the next significant token, with any whitespace and
// comments before it attached as LeadingTrivia.
func (l *Lexer) Next() Token {
	var t Token
	var trivia []Token
	for t = l.NextToken(); t.Type == Whitespace || t.Type == LineComment; t = l.NextToken() {
		trivia = append(trivia, t)
	}
	t.LeadingTrivia = trivia
	return t
}

// Err returns the first read error, other than io.EOF, encountered by the
// lexer.
func (l *Lexer) Err() error {
	return l.err
}

func newLexer(rdr io.Reader) *Lexer {
	l := &Lexer{
		rdr:   bufio.NewReader(rdr),
		i:     -1,
		pos:   -1,
		lines: []int{0},
	}
	l.next()
	return l
}

// NewLexer opens filename in fsys. The file must have the .hrec extension.
func NewLexer(fsys fs.FS, filename string) (*Lexer, error) {
	if filepath.Ext(filename) != Ext {
		return nil, fmt.Errorf("invalid file extension %q, expected %q", filepath.Ext(filename), Ext)
	}
	b, err := fs.ReadFile(fsys, filename)
	if err != nil {
		return nil, err
	}
	return newLexer(bytes.NewReader(b)), nil
}

// NewStringLexer lexes src directly.
func NewStringLexer(src string) *Lexer {
	return newLexer(strings.NewReader(src))
}
