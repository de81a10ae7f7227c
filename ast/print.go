package ast

import (
	"fmt"
	"strings"

	"github.com/smasher164/hrec/lexer"
)

// ExprString renders a type expression the way it would be written in Go.
func ExprString(x Expr) string {
	var b strings.Builder
	writeExpr(&b, x)
	return b.String()
}

func writeExpr(b *strings.Builder, x Expr) {
	switch x := x.(type) {
	case *Ident:
		b.WriteString(x.Name.Data)
	case *SelectorExpr:
		writeExpr(b, x.X)
		b.WriteByte('.')
		writeExpr(b, x.Name)
	case *SliceType:
		b.WriteString("[]")
		writeExpr(b, x.Elem)
	case *ArrayType:
		fmt.Fprintf(b, "[%s]", x.Len.Lit.Data)
		writeExpr(b, x.Elem)
	case *PointerType:
		b.WriteByte('*')
		writeExpr(b, x.Elem)
	case *MapType:
		b.WriteString("map[")
		writeExpr(b, x.Key)
		b.WriteByte(']')
		writeExpr(b, x.Value)
	case *Illegal:
		b.WriteString("<illegal>")
	default:
		fmt.Fprintf(b, "<%T>", x)
	}
}

// Error is a diagnostic attached to a position in a .hrec file.
type Error struct {
	Filename string
	Span     lexer.Span
	Msg      string
}

func (e *Error) Error() string {
	if e.Filename == "" {
		return fmt.Sprintf("%s: %s", e.Span, e.Msg)
	}
	return fmt.Sprintf("%s:%s: %s", e.Filename, e.Span, e.Msg)
}
