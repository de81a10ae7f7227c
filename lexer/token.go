package lexer

import (
	"fmt"

	"golang.org/x/exp/slices"
)

type TokenType int

const (
	EOF TokenType = iota

	Comma
	Colon
	Period
	Times
	LeftParen
	RightParen
	LeftBracket
	RightBracket

	Package
	Import
	Key
	Record
	Get
	As
	Map

	Ident
	Number
	String
	Whitespace
	LineComment
	Illegal
)

var tokenNames = [...]string{
	EOF:          "EOF",
	Comma:        "Comma",
	Colon:        "Colon",
	Period:       "Period",
	Times:        "Times",
	LeftParen:    "LeftParen",
	RightParen:   "RightParen",
	LeftBracket:  "LeftBracket",
	RightBracket: "RightBracket",
	Package:      "Package",
	Import:       "Import",
	Key:          "Key",
	Record:       "Record",
	Get:          "Get",
	As:           "As",
	Map:          "Map",
	Ident:        "Ident",
	Number:       "Number",
	String:       "String",
	Whitespace:   "Whitespace",
	LineComment:  "LineComment",
	Illegal:      "Illegal",
}

func (t TokenType) String() string {
	if t < 0 || int(t) >= len(tokenNames) {
		return fmt.Sprintf("TokenType(%d)", int(t))
	}
	return tokenNames[t]
}

var SingleCharTokens = map[rune]TokenType{
	',': Comma,
	':': Colon,
	'.': Period,
	'*': Times,
	'(': LeftParen,
	')': RightParen,
	'[': LeftBracket,
	']': RightBracket,
	eof: EOF,
}

var Keywords = map[string]TokenType{
	"package": Package,
	"import":  Import,
	"key":     Key,
	"record":  Record,
	"get":     Get,
	"as":      As,
	"map":     Map,
}

// IsDecl reports whether t begins a top-level declaration.
func (t TokenType) IsDecl() bool {
	return t == Import || t == Key || t == Record || t == Get
}

type Pos struct {
	Offset int
	Line   int
	Column int
}

func (p Pos) Min(other Pos) Pos {
	if p.Column == 0 {
		return other
	}
	if other.Column == 0 {
		return p
	}
	if p.Offset < other.Offset {
		return p
	}
	return other
}

func (p Pos) Max(other Pos) Pos {
	if p.Column == 0 {
		return other
	}
	if other.Column == 0 {
		return p
	}
	if p.Offset > other.Offset {
		return p
	}
	return other
}

type Span struct {
	Start Pos
	End   Pos
}

func (span Span) Add(other Span) Span {
	return Span{span.Start.Min(other.Start), span.End.Max(other.End)}
}

func (s Span) String() string {
	if s.Start == s.End {
		return fmt.Sprintf("%d:%d", s.Start.Line, s.Start.Column)
	}
	if s.Start.Line == s.End.Line {
		return fmt.Sprintf("%d:%d-%d", s.Start.Line, s.Start.Column, s.End.Column)
	}
	return fmt.Sprintf("%d:%d-%d:%d", s.Start.Line, s.Start.Column, s.End.Line, s.End.Column)
}

type Token struct {
	LeadingTrivia []Token
	Type          TokenType
	Span          Span
	Data          string
}

func (t Token) String() string {
	if t.Data == "" {
		return fmt.Sprintf("%s:%s", t.Span, t.Type)
	}
	return fmt.Sprintf("%s:%s %q", t.Span, t.Type, t.Data)
}

func (a Token) ExactEq(b Token) bool {
	return a.Type == b.Type && a.Span == b.Span && a.Data == b.Data && slices.EqualFunc(a.LeadingTrivia, b.LeadingTrivia, Token.ExactEq)
}
