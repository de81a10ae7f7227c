package ast

import (
	"strconv"
	"strings"

	"github.com/smasher164/hrec/lexer"
)

// Node is any syntax tree node that covers a range of source.
type Node interface {
	Span() lexer.Span
}

// Decl is a top-level declaration in a file.
type Decl interface {
	Node
	isDecl()
}

// Expr is a type expression.
type Expr interface {
	Node
	isExpr()
}

var (
	_ Decl = (*ImportDecl)(nil)
	_ Decl = (*KeyDecl)(nil)
	_ Decl = (*RecordDecl)(nil)
	_ Decl = (*GetDecl)(nil)
	_ Decl = (*Illegal)(nil)
	_ Node = (*Field)(nil)
	_ Node = (*BasicString)(nil)
	_ Node = (*Number)(nil)
	_ Expr = (*Ident)(nil)
	_ Expr = (*SelectorExpr)(nil)
	_ Expr = (*SliceType)(nil)
	_ Expr = (*ArrayType)(nil)
	_ Expr = (*PointerType)(nil)
	_ Expr = (*MapType)(nil)
	_ Expr = (*Illegal)(nil)
)

func spanOf(n Node) lexer.Span {
	if isNil(n) {
		return lexer.Span{}
	}
	return n.Span()
}

// isNil catches typed nil pointers stored in an interface, which optional
// children like ImportDecl.Name are when absent.
func isNil(n Node) bool {
	switch n := n.(type) {
	case nil:
		return true
	case *Ident:
		return n == nil
	case *BasicString:
		return n == nil
	case *Number:
		return n == nil
	}
	return false
}

type Package struct {
	Name  string
	Files []*File
}

type File struct {
	Filename    string
	Package     lexer.Token
	PackageName *Ident
	Imports     []*ImportDecl
	Decls       []Decl
}

type ImportDecl struct {
	Import lexer.Token
	Name   *Ident
	Path   *BasicString
}

// LocalName is the name the import is referred to by in this file.
// Without an explicit name it is the last element of the path.
func (d *ImportDecl) LocalName() string {
	if d.Name != nil {
		return d.Name.Name.Data
	}
	path := d.Path.Value()
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[i+1:]
	}
	return path
}

func (d *ImportDecl) Span() lexer.Span { return d.Import.Span.Add(spanOf(d.Path)) }

func (*ImportDecl) isDecl() {}

type KeyDecl struct {
	Key   lexer.Token
	Names []*Ident
}

func (d *KeyDecl) Span() lexer.Span {
	span := d.Key.Span
	if len(d.Names) > 0 {
		span = span.Add(d.Names[len(d.Names)-1].Span())
	}
	return span
}

func (*KeyDecl) isDecl() {}

type RecordDecl struct {
	Record     lexer.Token
	Name       *Ident
	LeftParen  lexer.Token
	Fields     []*Field
	RightParen lexer.Token
}

func (d *RecordDecl) Span() lexer.Span { return d.Record.Span.Add(d.RightParen.Span) }

func (*RecordDecl) isDecl() {}

// Field is a single `Key: Value` entry of a record.
type Field struct {
	Key   Expr
	Colon lexer.Token
	Value Expr
	Comma lexer.Token
}

func (f *Field) Span() lexer.Span { return spanOf(f.Key).Add(spanOf(f.Value)) }

// GetDecl requests an accessor: `get R[K]` or `get R[K, V] as Name`.
type GetDecl struct {
	Get          lexer.Token
	Record       *Ident
	LeftBracket  lexer.Token
	Key          Expr
	Value        Expr // nil in the single-key form
	RightBracket lexer.Token
	As           lexer.Token
	Alias        *Ident
}

func (d *GetDecl) Span() lexer.Span {
	if d.Alias != nil {
		return d.Get.Span.Add(d.Alias.Span())
	}
	return d.Get.Span.Add(d.RightBracket.Span)
}

func (*GetDecl) isDecl() {}

type Ident struct {
	Name lexer.Token
}

func (id *Ident) Span() lexer.Span { return id.Name.Span }

func (*Ident) isExpr() {}

type SelectorExpr struct {
	X      *Ident
	Period lexer.Token
	Name   *Ident
}

func (s *SelectorExpr) Span() lexer.Span { return spanOf(s.X).Add(spanOf(s.Name)) }

func (*SelectorExpr) isExpr() {}

// SliceType is []Elem.
type SliceType struct {
	LeftBracket lexer.Token
	Elem        Expr
}

func (s *SliceType) Span() lexer.Span { return s.LeftBracket.Span.Add(spanOf(s.Elem)) }

func (*SliceType) isExpr() {}

// ArrayType is [Len]Elem.
type ArrayType struct {
	LeftBracket lexer.Token
	Len         *Number
	Elem        Expr
}

func (a *ArrayType) Span() lexer.Span { return a.LeftBracket.Span.Add(spanOf(a.Elem)) }

func (*ArrayType) isExpr() {}

type PointerType struct {
	Star lexer.Token
	Elem Expr
}

func (p *PointerType) Span() lexer.Span { return p.Star.Span.Add(spanOf(p.Elem)) }

func (*PointerType) isExpr() {}

type MapType struct {
	Map   lexer.Token
	Key   Expr
	Value Expr
}

func (m *MapType) Span() lexer.Span { return m.Map.Span.Add(spanOf(m.Value)) }

func (*MapType) isExpr() {}

type BasicString struct {
	Lit lexer.Token
}

// Value is the literal with quotes removed and escapes interpreted.
func (s *BasicString) Value() string {
	v, err := strconv.Unquote(s.Lit.Data)
	if err != nil {
		// the lexer only produces well-formed literals
		return s.Lit.Data
	}
	return v
}

func (s *BasicString) Span() lexer.Span { return s.Lit.Span }

type Number struct {
	Lit lexer.Token
}

func (n *Number) Span() lexer.Span { return n.Lit.Span }

// Illegal stands in for a declaration or type expression that failed to
// parse.
type Illegal struct {
	span lexer.Span
	Node Node
	Msg  string
}

func NewIllegal(tok lexer.Token, node Node, msg string) *Illegal {
	return &Illegal{span: tok.Span, Node: node, Msg: msg}
}

func (i *Illegal) Span() lexer.Span {
	return i.span.Add(spanOf(i.Node))
}

func (*Illegal) isDecl() {}
func (*Illegal) isExpr() {}
