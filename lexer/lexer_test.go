package lexer_test

import (
	"testing"
	"testing/fstest"
	"unicode/utf8"

	"github.com/kr/pretty"
	. "github.com/smasher164/hrec/lexer"
	"golang.org/x/exp/slices"
)

func single(trivia []Token, ttyp TokenType, pos Pos) Token {
	return Token{LeadingTrivia: trivia, Type: ttyp, Span: Span{Start: pos, End: pos}}
}

func singleWS(wsPos Pos, ttyp TokenType, pos Pos) Token {
	return Token{LeadingTrivia: []Token{
		{nil, Whitespace, unitSpan(wsPos), " "},
	}, Type: ttyp, Span: Span{Start: pos, End: pos}}
}

func keyword(trivia []Token, ttyp TokenType, start, end Pos) Token {
	return Token{LeadingTrivia: trivia, Type: ttyp, Span: Span{Start: start, End: end}}
}

func keywordWS(wsPos Pos, ttyp TokenType, start, end Pos) Token {
	return keyword([]Token{{nil, Whitespace, unitSpan(wsPos), " "}}, ttyp, start, end)
}

func dataTok(trivia []Token, ttyp TokenType, start Pos, data string) Token {
	dataLen := utf8.RuneCountInString(data)
	return Token{LeadingTrivia: trivia, Type: ttyp, Span: Span{Start: start, End: Pos{Offset: start.Offset + dataLen - 1, Line: start.Line, Column: start.Column + dataLen - 1}}, Data: data}
}

func dataTokWS(wsPos Pos, ttyp TokenType, start Pos, data string) Token {
	return dataTok([]Token{{nil, Whitespace, unitSpan(wsPos), " "}}, ttyp, start, data)
}

func unitSpan(pos Pos) Span {
	return Span{Start: pos, End: pos}
}

func lexAll(l *Lexer) []Token {
	var got []Token
	var tok Token
	for tok = l.Next(); tok.Type != EOF; tok = l.Next() {
		got = append(got, tok)
	}
	return append(got, tok)
}

func TestLexer(t *testing.T) {
	run := func(name, data string, expected []Token) {
		t.Run(name, func(t *testing.T) {
			got := lexAll(NewStringLexer(data))
			if !slices.EqualFunc(got, expected, Token.ExactEq) {
				t.Log(name)
				pretty.Ldiff(t, expected, got)
				t.Fail()
			}
		})
	}

	run("empty", "", []Token{single(nil, EOF, Pos{0, 1, 1})})

	run("singlechar", ", : . * ( ) [ ]", []Token{
		single(nil, Comma, Pos{0, 1, 1}),
		singleWS(Pos{1, 1, 2}, Colon, Pos{2, 1, 3}),
		singleWS(Pos{3, 1, 4}, Period, Pos{4, 1, 5}),
		singleWS(Pos{5, 1, 6}, Times, Pos{6, 1, 7}),
		singleWS(Pos{7, 1, 8}, LeftParen, Pos{8, 1, 9}),
		singleWS(Pos{9, 1, 10}, RightParen, Pos{10, 1, 11}),
		singleWS(Pos{11, 1, 12}, LeftBracket, Pos{12, 1, 13}),
		singleWS(Pos{13, 1, 14}, RightBracket, Pos{14, 1, 15}),
		single(nil, EOF, Pos{15, 1, 16}),
	})

	run("keywords", "package import key record get as map", []Token{
		keyword(nil, Package, Pos{0, 1, 1}, Pos{6, 1, 7}),
		keywordWS(Pos{7, 1, 8}, Import, Pos{8, 1, 9}, Pos{13, 1, 14}),
		keywordWS(Pos{14, 1, 15}, Key, Pos{15, 1, 16}, Pos{17, 1, 18}),
		keywordWS(Pos{18, 1, 19}, Record, Pos{19, 1, 20}, Pos{24, 1, 25}),
		keywordWS(Pos{25, 1, 26}, Get, Pos{26, 1, 27}, Pos{28, 1, 29}),
		keywordWS(Pos{29, 1, 30}, As, Pos{30, 1, 31}, Pos{31, 1, 32}),
		keywordWS(Pos{32, 1, 33}, Map, Pos{33, 1, 34}, Pos{35, 1, 36}),
		single(nil, EOF, Pos{36, 1, 37}),
	})

	run("identifiers", "_ __ a_b_c a12 अखिल", []Token{
		dataTok(nil, Ident, Pos{0, 1, 1}, "_"),
		dataTokWS(Pos{1, 1, 2}, Ident, Pos{2, 1, 3}, "__"),
		dataTokWS(Pos{4, 1, 5}, Ident, Pos{5, 1, 6}, "a_b_c"),
		dataTokWS(Pos{10, 1, 11}, Ident, Pos{11, 1, 12}, "a12"),
		dataTokWS(Pos{14, 1, 15}, Ident, Pos{15, 1, 16}, "अखिल"),
		single(nil, EOF, Pos{19, 1, 20}),
	})

	run("numbers", "0 16 1_000 0xFF", []Token{
		dataTok(nil, Number, Pos{0, 1, 1}, "0"),
		dataTokWS(Pos{1, 1, 2}, Number, Pos{2, 1, 3}, "16"),
		dataTokWS(Pos{4, 1, 5}, Number, Pos{5, 1, 6}, "1_000"),
		dataTokWS(Pos{10, 1, 11}, Number, Pos{11, 1, 12}, "0xFF"),
		single(nil, EOF, Pos{15, 1, 16}),
	})

	run("strings", "\"example.com/geo\" `raw\\path` \"\\u00e9\\x41\"", []Token{
		dataTok(nil, String, Pos{0, 1, 1}, `"example.com/geo"`),
		dataTokWS(Pos{17, 1, 18}, String, Pos{18, 1, 19}, "`raw\\path`"),
		dataTokWS(Pos{28, 1, 29}, String, Pos{29, 1, 30}, `"\u00e9\x41"`),
		single(nil, EOF, Pos{41, 1, 42}),
	})

	run("lines", "key A\n// tags\nrecord", []Token{
		keyword(nil, Key, Pos{0, 1, 1}, Pos{2, 1, 3}),
		dataTokWS(Pos{3, 1, 4}, Ident, Pos{4, 1, 5}, "A"),
		keyword([]Token{
			{nil, Whitespace, unitSpan(Pos{5, 1, 6}), "\n"},
			dataTok(nil, LineComment, Pos{6, 2, 1}, "// tags"),
			{nil, Whitespace, unitSpan(Pos{13, 2, 8}), "\n"},
		}, Record, Pos{14, 3, 1}, Pos{19, 3, 6}),
		single(nil, EOF, Pos{20, 3, 7}),
	})
}

func TestLexerIllegal(t *testing.T) {
	cases := []struct {
		src  string
		want string
	}{
		{`"open`, "string literal not terminated"},
		{`"\q"`, "unknown escape sequence"},
		{`"\xZZ"`, "illegal character U+005A 'Z' in escape sequence"},
		{"`open", "raw string literal not terminated"},
		{"12x", "'x' is not a valid digit in base 10"},
		{"1__0", "'_' must separate successive digits"},
		{"0x", "no digits in number"},
		{"@", "unexpected character '@'"},
		{"/x", "unexpected character '/'"},
	}
	for _, tc := range cases {
		tok := NewStringLexer(tc.src).Next()
		if tok.Type != Illegal || tok.Data != tc.want {
			t.Errorf("%q: got %s, want Illegal %q", tc.src, tok, tc.want)
		}
	}
}

func TestNewLexer(t *testing.T) {
	fsys := fstest.MapFS{
		"doc.hrec": &fstest.MapFile{Data: []byte("package doc")},
		"doc.txt":  &fstest.MapFile{Data: []byte("package doc")},
	}
	if _, err := NewLexer(fsys, "doc.txt"); err == nil {
		t.Error("expected extension error")
	}
	if _, err := NewLexer(fsys, "missing.hrec"); err == nil {
		t.Error("expected open error")
	}
	l, err := NewLexer(fsys, "doc.hrec")
	if err != nil {
		t.Fatal(err)
	}
	got := lexAll(l)
	want := []Token{
		keyword(nil, Package, Pos{0, 1, 1}, Pos{6, 1, 7}),
		dataTokWS(Pos{7, 1, 8}, Ident, Pos{8, 1, 9}, "doc"),
		single(nil, EOF, Pos{11, 1, 12}),
	}
	if !slices.EqualFunc(got, want, Token.ExactEq) {
		pretty.Ldiff(t, want, got)
		t.Fail()
	}
}
