package parser

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/smasher164/hrec/ast"
	"github.com/smasher164/hrec/lexer"
)

const debug = false

type parser struct {
	filename string
	l        Lexer
	tok      lexer.Token
	buf      []lexer.Token
	indent   int
	errs     []error
}

type Lexer interface {
	Next() lexer.Token
}

// bailout unwinds out of a declaration that cannot be parsed.
type bailout struct{}

var tokenText = map[lexer.TokenType]string{}

func init() {
	for r, ttyp := range lexer.SingleCharTokens {
		if ttyp != lexer.EOF {
			tokenText[ttyp] = fmt.Sprintf("'%c'", r)
		}
	}
	for kw, ttyp := range lexer.Keywords {
		tokenText[ttyp] = fmt.Sprintf("'%s'", kw)
	}
	tokenText[lexer.EOF] = "end of file"
	tokenText[lexer.Ident] = "identifier"
	tokenText[lexer.Number] = "number"
	tokenText[lexer.String] = "string"
}

func describe(tok lexer.Token) string {
	switch tok.Type {
	case lexer.Ident, lexer.Number, lexer.String:
		return fmt.Sprintf("%s %s", tokenText[tok.Type], tok.Data)
	}
	return tokenText[tok.Type]
}

func (p *parser) trace(msg string) func() {
	if debug {
		fmt.Printf("%*s%s\n", p.indent*2, "", msg)
		p.indent++
		return func() {
			p.indent--
		}
	}
	return func() {}
}

func (p *parser) errorf(span lexer.Span, format string, args ...any) {
	p.errs = append(p.errs, &ast.Error{Filename: p.filename, Span: span, Msg: fmt.Sprintf(format, args...)})
}

func (p *parser) next() {
	if len(p.buf) > 0 {
		p.tok = p.buf[0]
		p.buf = p.buf[1:]
	} else {
		p.tok = p.l.Next()
	}
	if p.tok.Type == lexer.Illegal {
		p.errorf(p.tok.Span, "%s", p.tok.Data)
	}
}

func (p *parser) peek() lexer.Token {
	if len(p.buf) == 0 {
		p.buf = append(p.buf, p.l.Next())
	}
	return p.buf[0]
}

// expect consumes a token of type ttyp, or reports an error and bails out
// of the current declaration.
func (p *parser) expect(ttyp lexer.TokenType, context string) lexer.Token {
	tok := p.tok
	if tok.Type != ttyp {
		if tok.Type != lexer.Illegal {
			p.errorf(tok.Span, "expected %s %s, found %s", tokenText[ttyp], context, describe(tok))
		}
		panic(bailout{})
	}
	p.next()
	return tok
}

func (p *parser) parseIdent(context string) *ast.Ident {
	return &ast.Ident{Name: p.expect(lexer.Ident, context)}
}

// sync skips to the start of the next declaration.
func (p *parser) sync() {
	for !p.tok.Type.IsDecl() && p.tok.Type != lexer.EOF {
		p.next()
	}
}

// ParseFile parses a single .hrec file. The returned file is usable even
// when err is non-nil; declarations that failed to parse are *ast.Illegal.
func ParseFile(fsys fs.FS, filename string) (*ast.File, error) {
	l, err := lexer.NewLexer(fsys, filename)
	if err != nil {
		return nil, err
	}
	p := &parser{filename: filename, l: l}
	f := p.parseFile()
	if err := l.Err(); err != nil {
		p.errs = append(p.errs, err)
	}
	return f, errors.Join(p.errs...)
}

// ParseString parses src as if it were the contents of filename.
func ParseString(filename, src string) (*ast.File, error) {
	p := &parser{filename: filename, l: lexer.NewStringLexer(src)}
	f := p.parseFile()
	return f, errors.Join(p.errs...)
}

// File = "package" Ident { ImportDecl } { Decl } EOF
func (p *parser) parseFile() *ast.File {
	defer p.trace("parseFile")()
	f := &ast.File{Filename: p.filename}
	p.next()
	func() {
		defer p.recoverDecl(nil)
		f.Package = p.expect(lexer.Package, "at start of file")
		f.PackageName = p.parseIdent("after package")
	}()
	for p.tok.Type == lexer.Import {
		f.Imports = append(f.Imports, p.parseImportDecl())
	}
	for p.tok.Type != lexer.EOF {
		if p.tok.Type == lexer.Import {
			p.errorf(p.tok.Span, "imports must appear before other declarations")
			p.parseImportDecl()
			continue
		}
		f.Decls = append(f.Decls, p.parseDecl())
	}
	return f
}

// recoverDecl turns a bailout into an Illegal declaration stored in *dst.
func (p *parser) recoverDecl(dst *ast.Decl) {
	r := recover()
	if r == nil {
		return
	}
	if _, ok := r.(bailout); !ok {
		panic(r)
	}
	if dst != nil {
		*dst = ast.NewIllegal(p.tok, nil, "malformed declaration")
	}
	p.sync()
}

// Decl = KeyDecl | RecordDecl | GetDecl
func (p *parser) parseDecl() (decl ast.Decl) {
	defer p.trace("parseDecl")()
	defer p.recoverDecl(&decl)
	switch p.tok.Type {
	case lexer.Key:
		return p.parseKeyDecl()
	case lexer.Record:
		return p.parseRecordDecl()
	case lexer.Get:
		return p.parseGetDecl()
	}
	if p.tok.Type != lexer.Illegal {
		p.errorf(p.tok.Span, "expected declaration, found %s", describe(p.tok))
	}
	panic(bailout{})
}

// ImportDecl = "import" [ Ident ] String
func (p *parser) parseImportDecl() (decl *ast.ImportDecl) {
	defer p.trace("parseImportDecl")()
	decl = &ast.ImportDecl{Import: p.tok}
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(bailout); !ok {
				panic(r)
			}
			p.sync()
		}
	}()
	p.next()
	if p.tok.Type == lexer.Ident {
		decl.Name = &ast.Ident{Name: p.tok}
		p.next()
	}
	decl.Path = &ast.BasicString{Lit: p.expect(lexer.String, "import path")}
	return decl
}

// KeyDecl = "key" Ident { "," Ident }
func (p *parser) parseKeyDecl() *ast.KeyDecl {
	defer p.trace("parseKeyDecl")()
	decl := &ast.KeyDecl{Key: p.tok}
	p.next()
	decl.Names = append(decl.Names, p.parseIdent("in key declaration"))
	for p.tok.Type == lexer.Comma {
		p.next()
		decl.Names = append(decl.Names, p.parseIdent("in key declaration"))
	}
	return decl
}

// RecordDecl = "record" Ident "(" [ Field { "," Field } [ "," ] ] ")"
func (p *parser) parseRecordDecl() *ast.RecordDecl {
	defer p.trace("parseRecordDecl")()
	decl := &ast.RecordDecl{Record: p.tok}
	p.next()
	decl.Name = p.parseIdent("after record")
	decl.LeftParen = p.expect(lexer.LeftParen, "after record name")
	for p.tok.Type != lexer.RightParen {
		field := p.parseField()
		decl.Fields = append(decl.Fields, field)
		if p.tok.Type != lexer.Comma {
			break
		}
		field.Comma = p.tok
		p.next()
	}
	decl.RightParen = p.expect(lexer.RightParen, "to close record")
	return decl
}

// Field = Type ":" Type
func (p *parser) parseField() *ast.Field {
	defer p.trace("parseField")()
	field := &ast.Field{}
	field.Key = p.parseType()
	field.Colon = p.expect(lexer.Colon, "after field key")
	field.Value = p.parseType()
	return field
}

// GetDecl = "get" Ident "[" Type [ "," Type ] "]" [ "as" Ident ]
func (p *parser) parseGetDecl() *ast.GetDecl {
	defer p.trace("parseGetDecl")()
	decl := &ast.GetDecl{Get: p.tok}
	p.next()
	decl.Record = p.parseIdent("after get")
	decl.LeftBracket = p.expect(lexer.LeftBracket, "after record name")
	decl.Key = p.parseType()
	if p.tok.Type == lexer.Comma {
		p.next()
		decl.Value = p.parseType()
	}
	decl.RightBracket = p.expect(lexer.RightBracket, "to close lookup")
	if p.tok.Type == lexer.As {
		decl.As = p.tok
		p.next()
		decl.Alias = p.parseIdent("after as")
	}
	return decl
}

// Type = Ident [ "." Ident ] | "[" [ Number ] "]" Type | "*" Type | "map" "[" Type "]" Type
func (p *parser) parseType() ast.Expr {
	defer p.trace("parseType")()
	switch p.tok.Type {
	case lexer.Ident:
		id := &ast.Ident{Name: p.tok}
		p.next()
		if p.tok.Type == lexer.Period {
			sel := &ast.SelectorExpr{X: id, Period: p.tok}
			p.next()
			sel.Name = p.parseIdent("after '.'")
			return sel
		}
		return id
	case lexer.LeftBracket:
		lbrack := p.tok
		p.next()
		if p.tok.Type == lexer.Number {
			arr := &ast.ArrayType{LeftBracket: lbrack, Len: &ast.Number{Lit: p.tok}}
			p.next()
			p.expect(lexer.RightBracket, "after array length")
			arr.Elem = p.parseType()
			return arr
		}
		p.expect(lexer.RightBracket, "in slice type")
		return &ast.SliceType{LeftBracket: lbrack, Elem: p.parseType()}
	case lexer.Times:
		star := p.tok
		p.next()
		return &ast.PointerType{Star: star, Elem: p.parseType()}
	case lexer.Map:
		m := &ast.MapType{Map: p.tok}
		p.next()
		p.expect(lexer.LeftBracket, "after map")
		m.Key = p.parseType()
		p.expect(lexer.RightBracket, "after map key")
		m.Value = p.parseType()
		return m
	}
	if p.tok.Type != lexer.Illegal {
		p.errorf(p.tok.Span, "expected type, found %s", describe(p.tok))
	}
	panic(bailout{})
}
