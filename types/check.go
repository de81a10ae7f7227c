package types

import (
	"errors"
	"fmt"
	"go/token"
	gotypes "go/types"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/samber/lo"
	"github.com/smasher164/hrec/ast"
	"github.com/smasher164/hrec/lexer"
	"golang.org/x/exp/slices"
	"golang.org/x/mod/module"
)

// Error is a diagnostic found while checking declarations.
type Error struct {
	Filename string
	Span     lexer.Span
	Msg      string
}

func (e *Error) Error() string {
	return (&ast.Error{Filename: e.Filename, Span: e.Span, Msg: e.Msg}).Error()
}

// Field is one checked record field.
type Field struct {
	Key   gotypes.Type
	Value gotypes.Type
	Span  lexer.Span
}

// Record is a checked record declaration. Fields are in declaration
// order.
type Record struct {
	Name     string
	Type     *gotypes.Named
	Fields   []*Field
	Shadowed []*Field // fields hidden by an earlier field with the same key
	Methods  []*Query
	Filename string
	Span     lexer.Span
}

// Query is one generated accessor on a record.
type Query struct {
	Record *Record
	Key    gotypes.Type
	Value  gotypes.Type // nil for the single-key form
	Method string
	Must   string
	Result Opt
	Span   lexer.Span
}

type Info struct {
	Package *gotypes.Package
	Keys    []*gotypes.TypeName
	Records []*Record
}

// Checker binds the names in a package of declarations to go/types types
// and resolves every lookup.
type Checker struct {
	PkgPath  string
	Importer gotypes.Importer
	Resolver *Resolver

	pkg      *gotypes.Package
	filename string
	errs     []error
	decls    map[string]lexer.Span // top-level generated identifiers
	records  map[string]*Record
	declared map[*ast.RecordDecl]*Record
	scopes   map[*ast.File]map[string]*gotypes.Package
	imports  map[string]*gotypes.Package
}

func NewChecker(pkgPath string, importer gotypes.Importer) *Checker {
	return &Checker{
		PkgPath:  pkgPath,
		Importer: importer,
		Resolver: NewResolver(),
	}
}

func (c *Checker) errorf(span lexer.Span, format string, args ...any) {
	c.errs = append(c.errs, &Error{Filename: c.filename, Span: span, Msg: fmt.Sprintf(format, args...)})
}

// Check checks every file of p. The returned Info is complete for the
// declarations that were well formed, even when err is non-nil.
func (c *Checker) Check(p *ast.Package) (*Info, error) {
	c.pkg = gotypes.NewPackage(c.PkgPath, p.Name)
	c.errs = nil
	c.decls = make(map[string]lexer.Span)
	c.records = make(map[string]*Record)
	c.declared = make(map[*ast.RecordDecl]*Record)
	c.scopes = make(map[*ast.File]map[string]*gotypes.Package)
	info := &Info{Package: c.pkg}

	if err := module.CheckImportPath(c.PkgPath); err != nil {
		c.errs = append(c.errs, fmt.Errorf("package path: %w", err))
	}

	// Keys and record names are visible in every file, in any order.
	for _, f := range p.Files {
		c.filename = f.Filename
		for _, d := range f.Decls {
			switch d := d.(type) {
			case *ast.KeyDecl:
				for _, name := range d.Names {
					if tn := c.declareKey(name); tn != nil {
						info.Keys = append(info.Keys, tn)
					}
				}
			case *ast.RecordDecl:
				if r := c.declareRecord(d); r != nil {
					info.Records = append(info.Records, r)
				}
			}
		}
	}
	for _, f := range p.Files {
		c.filename = f.Filename
		c.imports = c.fileImports(f)
		c.scopes[f] = c.imports
		for _, d := range f.Decls {
			if d, ok := d.(*ast.RecordDecl); ok {
				if r := c.declared[d]; r != nil {
					c.checkFields(r, d)
				}
			}
		}
	}
	c.checkCycles(info.Records)
	for _, r := range info.Records {
		c.filename = r.Filename
		c.autoMethods(r)
	}
	for _, f := range p.Files {
		c.filename = f.Filename
		c.imports = c.scopes[f]
		for _, d := range f.Decls {
			if d, ok := d.(*ast.GetDecl); ok {
				c.checkGet(d)
			}
		}
	}
	return info, errors.Join(c.errs...)
}

func (c *Checker) declareName(name string, span lexer.Span) bool {
	switch {
	case name == "_":
		c.errorf(span, "cannot declare blank identifier")
		return false
	case token.IsKeyword(name):
		c.errorf(span, "cannot declare keyword %s", name)
		return false
	case name == runtimeName:
		c.errorf(span, "%s is reserved for the record runtime import", name)
		return false
	}
	if prev, ok := c.decls[name]; ok {
		c.errorf(span, "%s redeclared (previous declaration at %s)", name, prev)
		return false
	}
	c.decls[name] = span
	return true
}

func (c *Checker) declareKey(id *ast.Ident) *gotypes.TypeName {
	name := id.Name.Data
	if !c.declareName(name, id.Span()) {
		return nil
	}
	tn := gotypes.NewTypeName(token.NoPos, c.pkg, name, nil)
	gotypes.NewNamed(tn, gotypes.NewStruct(nil, nil), nil)
	c.pkg.Scope().Insert(tn)
	return tn
}

func (c *Checker) declareRecord(d *ast.RecordDecl) *Record {
	name := d.Name.Name.Data
	if !c.declareName(name, d.Name.Span()) || !c.declareName("New"+name, d.Name.Span()) {
		return nil
	}
	tn := gotypes.NewTypeName(token.NoPos, c.pkg, name, nil)
	named := gotypes.NewNamed(tn, gotypes.NewStruct(nil, nil), nil)
	c.pkg.Scope().Insert(tn)
	r := &Record{Name: name, Type: named, Filename: c.filename, Span: d.Span()}
	c.records[name] = r
	c.declared[d] = r
	return r
}

func (c *Checker) fileImports(f *ast.File) map[string]*gotypes.Package {
	imports := make(map[string]*gotypes.Package)
	for _, imp := range f.Imports {
		if imp.Path == nil {
			continue
		}
		path := imp.Path.Value()
		if err := module.CheckImportPath(path); err != nil {
			c.errorf(imp.Path.Span(), "invalid import path %q: %v", path, err)
			continue
		}
		name := imp.LocalName()
		if _, ok := imports[name]; ok {
			c.errorf(imp.Span(), "%s redeclared in this file", name)
			continue
		}
		if c.Importer == nil {
			c.errorf(imp.Span(), "could not import %s: no importer", path)
			continue
		}
		pkg, err := c.Importer.Import(path)
		if err != nil {
			c.errorf(imp.Span(), "could not import %s: %v", path, err)
			continue
		}
		imports[name] = pkg
	}
	return imports
}

func (c *Checker) checkFields(r *Record, d *ast.RecordDecl) {
	for _, fd := range d.Fields {
		key, value := c.typeOf(fd.Key), c.typeOf(fd.Value)
		if key == nil || value == nil {
			continue
		}
		r.Fields = append(r.Fields, &Field{Key: key, Value: value, Span: fd.Span()})
	}
	r.Shadowed = lo.Filter(r.Fields, func(f *Field, i int) bool {
		return c.Resolver.Resolve(r, f.Key, nil).Index != i
	})
}

// elems returns the records of this package that a value of type t
// stores inline. Pointers, slices and maps break the containment.
func (c *Checker) elems(t gotypes.Type) []*Record {
	switch t := t.(type) {
	case *gotypes.Named:
		if t.Obj().Pkg() != c.pkg {
			return nil
		}
		if r := c.records[t.Obj().Name()]; r != nil {
			return []*Record{r}
		}
	case *gotypes.Array:
		return c.elems(t.Elem())
	}
	return nil
}

// checkCycles reports records that contain themselves by value, directly
// or through other records.
func (c *Checker) checkCycles(records []*Record) {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[*Record]int)
	var path []string
	var visit func(r *Record)
	visit = func(r *Record) {
		state[r] = visiting
		path = append(path, r.Name)
		for _, f := range r.Fields {
			for _, next := range c.elems(f.Value) {
				switch state[next] {
				case visiting:
					i := slices.Index(path, next.Name)
					cycle := append(slices.Clone(path[i:]), next.Name)
					c.filename = r.Filename
					c.errorf(f.Span, "invalid recursive type %s (%s)", next.Name, strings.Join(cycle, " refers to "))
				case unvisited:
					visit(next)
				}
			}
		}
		path = path[:len(path)-1]
		state[r] = done
	}
	for _, r := range records {
		if state[r] == unvisited {
			visit(r)
		}
	}
}

// autoMethods adds a single-key accessor for every distinct key of r.
func (c *Checker) autoMethods(r *Record) {
	for i, f := range r.Fields {
		if c.Resolver.Resolve(r, f.Key, nil).Index != i {
			continue
		}
		c.addMethod(r, &Query{Key: f.Key, Method: "Get" + TypeName(c.pkg, f.Key), Span: f.Span})
	}
}

func (c *Checker) checkGet(d *ast.GetDecl) {
	if d.Record == nil {
		return
	}
	r := c.records[d.Record.Name.Data]
	if r == nil {
		c.errorf(d.Record.Span(), "undefined record %s", d.Record.Name.Data)
		return
	}
	q := &Query{Span: d.Span()}
	if q.Key = c.typeOf(d.Key); q.Key == nil {
		return
	}
	if d.Value != nil {
		if q.Value = c.typeOf(d.Value); q.Value == nil {
			return
		}
	}
	switch {
	case d.Alias != nil:
		q.Method = d.Alias.Name.Data
	case q.Value != nil:
		q.Method = "Get" + TypeName(c.pkg, q.Key) + TypeName(c.pkg, q.Value)
	default:
		q.Method = "Get" + TypeName(c.pkg, q.Key)
	}
	c.addMethod(r, q)
}

// runtimeName is the name the generated file imports the runtime under.
const runtimeName = "hrec"

// Names of the fields and methods promoted from the embedded list.
var reservedMethods = map[string]bool{
	"Cons":   true,
	"Nil":    true,
	"Head":   true,
	"Tail":   true,
	"Len":    true,
	"uncons": true,
}

func mustName(method string) string {
	first, _ := utf8.DecodeRuneInString(method)
	if unicode.IsUpper(first) {
		return "Must" + method
	}
	return "must" + capitalize(method)
}

func (c *Checker) addMethod(r *Record, q *Query) {
	q.Record = r
	q.Must = mustName(q.Method)
	q.Result = c.Resolver.Resolve(r, q.Key, q.Value)
	for _, name := range []string{q.Method, q.Must} {
		if name == "_" || reservedMethods[name] || token.IsKeyword(name) {
			c.errorf(q.Span, "invalid accessor name %s", name)
			return
		}
	}
	for _, prev := range r.Methods {
		if prev.Method != q.Method && prev.Must != q.Method && prev.Method != q.Must {
			continue
		}
		// get R[A] restates the accessor generated for a declared key.
		if prev.Method == q.Method && sameLookup(prev, q) {
			return
		}
		c.errorf(q.Span, "method %s.%s already declared at %s", r.Name, q.Method, prev.Span)
		return
	}
	r.Methods = append(r.Methods, q)
}

func sameLookup(a, b *Query) bool {
	if (a.Value == nil) != (b.Value == nil) || !gotypes.Identical(a.Key, b.Key) {
		return false
	}
	return a.Value == nil || gotypes.Identical(a.Value, b.Value)
}

// typeOf builds the go/types type denoted by x, or reports an error and
// returns nil.
func (c *Checker) typeOf(x ast.Expr) gotypes.Type {
	switch x := x.(type) {
	case *ast.Ident:
		return c.identType(x)
	case *ast.SelectorExpr:
		pkg := c.imports[x.X.Name.Data]
		if pkg == nil {
			c.errorf(x.X.Span(), "undefined: %s", x.X.Name.Data)
			return nil
		}
		name := x.Name.Name.Data
		obj := pkg.Scope().Lookup(name)
		if obj == nil || !obj.Exported() {
			c.errorf(x.Span(), "undefined: %s", ast.ExprString(x))
			return nil
		}
		return c.typeName(x, obj)
	case *ast.SliceType:
		if elem := c.typeOf(x.Elem); elem != nil {
			return gotypes.NewSlice(elem)
		}
	case *ast.ArrayType:
		n, err := strconv.ParseInt(x.Len.Lit.Data, 0, 64)
		if err != nil {
			c.errorf(x.Len.Span(), "invalid array length %s", x.Len.Lit.Data)
			return nil
		}
		if elem := c.typeOf(x.Elem); elem != nil {
			return gotypes.NewArray(elem, n)
		}
	case *ast.PointerType:
		if elem := c.typeOf(x.Elem); elem != nil {
			return gotypes.NewPointer(elem)
		}
	case *ast.MapType:
		key, value := c.typeOf(x.Key), c.typeOf(x.Value)
		if key == nil || value == nil {
			return nil
		}
		if !gotypes.Comparable(key) {
			c.errorf(x.Key.Span(), "invalid map key type %s", ast.ExprString(x.Key))
			return nil
		}
		return gotypes.NewMap(key, value)
	case *ast.Illegal:
		// already reported by the parser
	default:
		c.errorf(x.Span(), "%s is not a type", ast.ExprString(x))
	}
	return nil
}

func (c *Checker) identType(id *ast.Ident) gotypes.Type {
	name := id.Name.Data
	obj := c.pkg.Scope().Lookup(name)
	if obj == nil {
		obj = gotypes.Universe.Lookup(name)
	}
	if obj == nil {
		c.errorf(id.Span(), "undefined: %s", name)
		return nil
	}
	return c.typeName(id, obj)
}

func (c *Checker) typeName(x ast.Expr, obj gotypes.Object) gotypes.Type {
	tn, ok := obj.(*gotypes.TypeName)
	if !ok {
		c.errorf(x.Span(), "%s is not a type", ast.ExprString(x))
		return nil
	}
	t := tn.Type()
	if named, ok := t.(*gotypes.Named); ok && named.TypeParams().Len() > 0 {
		c.errorf(x.Span(), "cannot use generic type %s without instantiation", ast.ExprString(x))
		return nil
	}
	if iface, ok := t.Underlying().(*gotypes.Interface); ok && !iface.IsMethodSet() {
		c.errorf(x.Span(), "cannot use type %s outside a type constraint", ast.ExprString(x))
		return nil
	}
	return t
}

// TypeName renders t as an identifier fragment for accessor names.
// Types from pkg are unqualified; others are prefixed with their package
// name.
func TypeName(pkg *gotypes.Package, t gotypes.Type) string {
	switch t := t.(type) {
	case *gotypes.Alias:
		return objName(pkg, t.Obj())
	case *gotypes.Named:
		return objName(pkg, t.Obj())
	case *gotypes.Basic:
		return capitalize(t.Name())
	case *gotypes.Slice:
		return "Slice" + TypeName(pkg, t.Elem())
	case *gotypes.Array:
		return "Array" + strconv.FormatInt(t.Len(), 10) + TypeName(pkg, t.Elem())
	case *gotypes.Pointer:
		return "Ptr" + TypeName(pkg, t.Elem())
	case *gotypes.Map:
		return "Map" + TypeName(pkg, t.Key()) + TypeName(pkg, t.Elem())
	case *gotypes.Interface:
		if t.Empty() {
			return "Any"
		}
	}
	return "T"
}

func objName(pkg *gotypes.Package, obj *gotypes.TypeName) string {
	if obj.Pkg() == nil || obj.Pkg() == pkg {
		return capitalize(obj.Name())
	}
	return capitalize(obj.Pkg().Name()) + capitalize(obj.Name())
}

func capitalize(s string) string {
	first, size := utf8.DecodeRuneInString(s)
	return strings.ToUpper(string(first)) + s[size:]
}
