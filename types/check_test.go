package types

import (
	"fmt"
	"go/token"
	gotypes "go/types"
	"strings"
	"testing"

	"github.com/kr/pretty"
	"github.com/smasher164/hrec/ast"
	"github.com/smasher164/hrec/parser"
)

type fakeImporter map[string]*gotypes.Package

func (f fakeImporter) Import(path string) (*gotypes.Package, error) {
	if pkg, ok := f[path]; ok {
		return pkg, nil
	}
	return nil, fmt.Errorf("package %s is not in std", path)
}

func geoPackage() *gotypes.Package {
	pkg := gotypes.NewPackage("example.com/geo", "geo")
	float := gotypes.Typ[gotypes.Float64]
	point := gotypes.NewTypeName(token.NoPos, pkg, "Point", nil)
	gotypes.NewNamed(point, gotypes.NewStruct([]*gotypes.Var{
		gotypes.NewField(token.NoPos, pkg, "X", float, false),
		gotypes.NewField(token.NoPos, pkg, "Y", float, false),
	}, nil), nil)
	pkg.Scope().Insert(point)

	hidden := gotypes.NewTypeName(token.NoPos, pkg, "point", nil)
	gotypes.NewNamed(hidden, gotypes.NewStruct(nil, nil), nil)
	pkg.Scope().Insert(hidden)

	pair := gotypes.NewTypeName(token.NoPos, pkg, "Pair", nil)
	named := gotypes.NewNamed(pair, gotypes.NewStruct(nil, nil), nil)
	tparam := gotypes.NewTypeParam(gotypes.NewTypeName(token.NoPos, pkg, "T", nil), gotypes.NewInterfaceType(nil, nil))
	named.SetTypeParams([]*gotypes.TypeParam{tparam})
	pkg.Scope().Insert(pair)

	pkg.MarkComplete()
	return pkg
}

var imports = fakeImporter{"example.com/geo": geoPackage()}

func check(t *testing.T, files ...string) (*Checker, *Info, error) {
	t.Helper()
	pkg := &ast.Package{}
	for i, src := range files {
		f, err := parser.ParseString(fmt.Sprintf("f%d.hrec", i), src)
		if err != nil {
			t.Fatal(err)
		}
		pkg.Name = f.PackageName.Name.Data
		pkg.Files = append(pkg.Files, f)
	}
	c := NewChecker("example.com/doc", imports)
	info, err := c.Check(pkg)
	return c, info, err
}

func record(t *testing.T, info *Info, name string) *Record {
	t.Helper()
	for _, r := range info.Records {
		if r.Name == name {
			return r
		}
	}
	t.Fatalf("record %s not found", name)
	return nil
}

type result struct {
	Method  string
	Must    string
	Present bool
	Index   int
	Elem    string
}

func results(r *Record) []result {
	var out []result
	for _, q := range r.Methods {
		out = append(out, result{q.Method, q.Must, q.Result.Present, q.Result.Index, gotypes.TypeString(q.Result.Elem, gotypes.RelativeTo(q.Record.Type.Obj().Pkg()))})
	}
	return out
}

func TestCheckJson(t *testing.T) {
	_, info, err := check(t, `package doc
import geo "example.com/geo"
key A, B, C, D, E
record Json(A: uint, B: rune, C: string, E: []geo.Point)
get Json[D]
get Json[A]
get Json[A, uint] as CountAsUint
get Json[A, int]
get Json[B, int32]
get Json[E, []geo.Point] as points
`)
	if err != nil {
		t.Fatal(err)
	}
	if len(info.Keys) != 5 || info.Package.Path() != "example.com/doc" || info.Package.Name() != "doc" {
		t.Fatalf("unexpected package info %v %v", info.Keys, info.Package)
	}
	want := []result{
		{"GetA", "MustGetA", true, 0, "uint"},
		{"GetB", "MustGetB", true, 1, "rune"},
		{"GetC", "MustGetC", true, 2, "string"},
		{"GetE", "MustGetE", true, 3, "[]example.com/geo.Point"},
		{"GetD", "MustGetD", false, -1, "any"},
		{"CountAsUint", "MustCountAsUint", true, 0, "uint"},
		{"GetAInt", "MustGetAInt", false, -1, "int"},
		{"GetBInt32", "MustGetBInt32", true, 1, "rune"},
		{"points", "mustPoints", true, 3, "[]example.com/geo.Point"},
	}
	if got := results(record(t, info, "Json")); !equalResults(got, want) {
		pretty.Ldiff(t, want, got)
		t.Fail()
	}
}

func equalResults(a, b []result) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestCheckAcrossFiles(t *testing.T) {
	_, info, err := check(t,
		"package doc\nrecord R(A: Inner)\nget Inner[B]",
		"package doc\nkey A, B\nrecord Inner(B: [0x10]byte)",
	)
	if err != nil {
		t.Fatal(err)
	}
	r := record(t, info, "R")
	if len(r.Fields) != 1 || r.Fields[0].Value != record(t, info, "Inner").Type {
		t.Errorf("R.A should hold Inner, got %v", r.Fields)
	}
	got := results(record(t, info, "Inner"))
	want := []result{{"GetB", "MustGetB", true, 0, "[16]byte"}}
	if !equalResults(got, want) {
		pretty.Ldiff(t, want, got)
		t.Fail()
	}
}

func TestCheckDuplicateKeys(t *testing.T) {
	_, info, err := check(t, `package doc
key A, B
record Dup(A: uint, B: int, A: string)
get Dup[A, string]
`)
	if err != nil {
		t.Fatal(err)
	}
	r := record(t, info, "Dup")
	if len(r.Shadowed) != 1 || r.Shadowed[0] != r.Fields[2] {
		t.Errorf("expected the third field to be shadowed, got %v", r.Shadowed)
	}
	want := []result{
		{"GetA", "MustGetA", true, 0, "uint"},
		{"GetB", "MustGetB", true, 1, "int"},
		{"GetAString", "MustGetAString", true, 2, "string"},
	}
	if got := results(r); !equalResults(got, want) {
		pretty.Ldiff(t, want, got)
		t.Fail()
	}
}

func TestCheckErrors(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want string
	}{
		{"undefined key", "package doc\nrecord R(Z: int)", "f0.hrec:2:10: undefined: Z"},
		{"undefined record", "package doc\nkey A\nget S[A]", "f0.hrec:3:5: undefined record S"},
		{"undefined package", "package doc\nkey A\nrecord R(A: geom.Point)", "undefined: geom"},
		{"unexported", "package doc\nimport \"example.com/geo\"\nkey A\nrecord R(A: geo.point)", "undefined: geo.point"},
		{"missing import", "package doc\nimport \"example.com/nope\"", "could not import example.com/nope: package example.com/nope is not in std"},
		{"invalid import path", "package doc\nimport \"a b\"", `invalid import path "a b"`},
		{"redeclared key", "package doc\nkey A, A", "A redeclared"},
		{"record clashes with key", "package doc\nkey R\nrecord R()", "R redeclared"},
		{"constructor clash", "package doc\nkey NewR\nrecord R()", "NewR redeclared"},
		{"blank", "package doc\nkey _", "cannot declare blank identifier"},
		{"method clash", "package doc\nkey A, B\nrecord R(A: int, B: int)\nget R[A, int] as GetB", "method R.GetB already declared"},
		{"must clash", "package doc\nkey A, B\nrecord R(A: int)\nget R[B] as MustGetA", "method R.MustGetA already declared"},
		{"reserved", "package doc\nkey A\nrecord R(A: int)\nget R[A, int] as Len", "invalid accessor name Len"},
		{"generic", "package doc\nimport \"example.com/geo\"\nkey A\nrecord R(A: geo.Pair)", "cannot use generic type geo.Pair without instantiation"},
		{"constraint", "package doc\nkey A\nrecord R(A: comparable)", "cannot use type comparable outside a type constraint"},
		{"map key", "package doc\nkey A\nrecord R(A: map[[]int]int)", "invalid map key type []int"},
		{"not a type", "package doc\nkey A\nrecord R(A: true)", "true is not a type"},
		{"cons accessor", "package doc\nkey A\nrecord R(A: int)\nget R[A] as Cons", "invalid accessor name Cons"},
		{"nil accessor", "package doc\nkey A\nrecord R()\nget R[A] as Nil", "invalid accessor name Nil"},
		{"keyword accessor", "package doc\nkey A\nrecord R(A: int)\nget R[A, int] as func", "invalid accessor name func"},
		{"runtime import name", "package doc\nkey hrec", "f0.hrec:2:5-8: hrec is reserved for the record runtime import"},
		{"keyword key", "package doc\nkey func", "f0.hrec:2:5-8: cannot declare keyword func"},
		{"keyword record", "package doc\nrecord type()", "cannot declare keyword type"},
		{"recursive record", "package doc\nkey A\nrecord R(A: R)", "f0.hrec:3:10-13: invalid recursive type R (R refers to R)"},
		{"recursive through array", "package doc\nkey A\nrecord R(A: S)\nrecord S(A: [2]R)", "invalid recursive type R (R refers to S refers to R)"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := check(t, tc.src)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Errorf("got %v, want %q", err, tc.want)
			}
		})
	}
}

func TestCheckIndirectRecursion(t *testing.T) {
	_, info, err := check(t, "package doc\nkey A, B, C\nrecord R(A: *R, B: []R, C: map[string]R)")
	if err != nil {
		t.Fatal(err)
	}
	if n := len(record(t, info, "R").Fields); n != 3 {
		t.Errorf("got %d fields, want 3", n)
	}
}

func TestCheckPackagePath(t *testing.T) {
	f, err := parser.ParseString("x.hrec", "package x")
	if err != nil {
		t.Fatal(err)
	}
	c := NewChecker("", nil)
	if _, err := c.Check(&ast.Package{Name: "x", Files: []*ast.File{f}}); err == nil {
		t.Error("expected an error for an empty package path")
	}
}

func TestEqual(t *testing.T) {
	universe := func(name string) gotypes.Type { return gotypes.Universe.Lookup(name).Type() }
	celsius := gotypes.NewNamed(gotypes.NewTypeName(token.NoPos, nil, "celsius", nil), gotypes.Typ[gotypes.Float64], nil)
	cases := []struct {
		x, y gotypes.Type
		want bool
	}{
		{universe("byte"), universe("uint8"), true},
		{universe("rune"), universe("int32"), true},
		{universe("any"), gotypes.NewInterfaceType(nil, nil), true},
		{gotypes.NewSlice(universe("int")), gotypes.NewSlice(universe("int")), true},
		{celsius, gotypes.Typ[gotypes.Float64], false},
		{universe("int"), universe("int64"), false},
	}
	for _, tc := range cases {
		if got := Equal(tc.x, tc.y).Value(); got != tc.want {
			t.Errorf("Equal(%s, %s) = %v, want %v", tc.x, tc.y, got, tc.want)
		}
	}
}

func TestResolveMemo(t *testing.T) {
	c, info, err := check(t, "package doc\nkey A, B\nrecord R(A: []int, B: string)")
	if err != nil {
		t.Fatal(err)
	}
	r := record(t, info, "R")
	res := c.Resolver
	before := res.evals
	key := r.Fields[0].Key
	slice := func() gotypes.Type { return gotypes.NewSlice(gotypes.Typ[gotypes.Int]) }
	first := res.Resolve(r, key, slice())
	second := res.Resolve(r, key, slice())
	if res.evals != before+1 {
		t.Errorf("identical lookups evaluated %d times", res.evals-before)
	}
	if first != second || !first.Present || first.Index != 0 {
		t.Errorf("unexpected results %v %v", first, second)
	}
	if miss := res.Resolve(r, key, gotypes.Typ[gotypes.String]); miss.Present || miss.Elem != gotypes.Typ[gotypes.String] {
		t.Errorf("[A, string] should be absent with element string, got %v", miss)
	}
	if res.evals != before+2 {
		t.Errorf("distinct lookup was not evaluated")
	}
}

func TestResolveEmpty(t *testing.T) {
	res := NewResolver()
	r := &Record{Name: "Empty"}
	opt := res.Resolve(r, gotypes.Typ[gotypes.Int], nil)
	if opt.Present || opt.Index != -1 || !gotypes.Identical(opt.Elem, anyType) {
		t.Errorf("got %v", opt)
	}
}

func TestTypeName(t *testing.T) {
	geo := geoPackage()
	local := gotypes.NewPackage("example.com/doc", "doc")
	key := gotypes.NewTypeName(token.NoPos, local, "count", nil)
	gotypes.NewNamed(key, gotypes.NewStruct(nil, nil), nil)
	point := geo.Scope().Lookup("Point").Type()
	cases := []struct {
		t    gotypes.Type
		want string
	}{
		{key.Type(), "Count"},
		{point, "GeoPoint"},
		{gotypes.NewSlice(gotypes.Typ[gotypes.String]), "SliceString"},
		{gotypes.NewPointer(point), "PtrGeoPoint"},
		{gotypes.NewArray(gotypes.Typ[gotypes.Byte], 4), "Array4Uint8"},
		{gotypes.NewMap(gotypes.Typ[gotypes.String], gotypes.Typ[gotypes.Int]), "MapStringInt"},
		{gotypes.NewInterfaceType(nil, nil), "Any"},
		{gotypes.Universe.Lookup("error").Type(), "Error"},
	}
	for _, tc := range cases {
		if got := TypeName(local, tc.t); got != tc.want {
			t.Errorf("TypeName(%s) = %q, want %q", tc.t, got, tc.want)
		}
	}
}
