// Package codegen writes the Go source for a checked package of record
// declarations.
package codegen

import (
	"bytes"
	"fmt"
	"go/format"
	gotypes "go/types"
	"io/fs"
	"path"
	"strconv"
	"strings"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/smasher164/hrec/fsx"
	"github.com/smasher164/hrec/types"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// RuntimePath is the import path of the record runtime.
const RuntimePath = "github.com/smasher164/hrec"

const formatSource = true

// Filename is the default name of the generated file for package pkg.
func Filename(pkg string) string {
	return pkg + "_hrec.go"
}

type Generator struct {
	info   *types.Info
	logger log.Logger

	// import names chosen for packages referenced by field types
	names map[*gotypes.Package]string
	taken map[string]bool
}

// NewGenerator prepares to generate info. A nil logger discards output.
func NewGenerator(info *types.Info, logger log.Logger) *Generator {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Generator{info: info, logger: logger}
}

// Generate writes the generated source to name in outfs.
func (g *Generator) Generate(outfs fs.FS, name string) error {
	for _, r := range g.info.Records {
		for _, f := range r.Shadowed {
			level.Warn(g.logger).Log(
				"msg", "field shadowed by an earlier field with the same key",
				"record", r.Name,
				"key", gotypes.TypeString(f.Key, gotypes.RelativeTo(g.info.Package)),
				"pos", fmt.Sprintf("%s:%s", r.Filename, f.Span),
			)
		}
	}
	src, err := g.Source()
	if err != nil {
		return err
	}
	if err := fsx.MkdirAll(outfs, path.Dir(name), 0o755); err != nil {
		return err
	}
	if err := fsx.WriteFile(outfs, name, src); err != nil {
		return err
	}
	level.Debug(g.logger).Log("msg", "wrote generated file", "file", name, "records", len(g.info.Records), "bytes", len(src))
	return nil
}

// Source renders the generated file.
func (g *Generator) Source() ([]byte, error) {
	g.names = make(map[*gotypes.Package]string)
	g.taken = map[string]bool{"hrec": true}
	for _, tn := range g.info.Keys {
		g.taken[tn.Name()] = true
	}
	for _, r := range g.info.Records {
		g.taken[r.Name] = true
		g.taken["New"+r.Name] = true
	}

	var body bytes.Buffer
	for _, tn := range g.info.Keys {
		fmt.Fprintf(&body, "type %s struct{}\n\n", tn.Name())
	}
	for _, r := range g.info.Records {
		g.record(&body, r)
	}

	var out bytes.Buffer
	fmt.Fprintf(&out, "// Code generated by hrecgen. DO NOT EDIT.\n\n")
	fmt.Fprintf(&out, "package %s\n\n", g.info.Package.Name())
	g.imports(&out)
	out.Write(body.Bytes())
	if !formatSource {
		return out.Bytes(), nil
	}
	src, err := format.Source(out.Bytes())
	if err != nil {
		return nil, fmt.Errorf("formatting generated source: %w", err)
	}
	return src, nil
}

func (g *Generator) imports(w *bytes.Buffer) {
	if len(g.info.Records) == 0 {
		return
	}
	pkgs := maps.Keys(g.names)
	slices.SortFunc(pkgs, func(a, b *gotypes.Package) bool { return a.Path() < b.Path() })
	fmt.Fprintf(w, "import (\n\t%q\n", RuntimePath)
	for _, pkg := range pkgs {
		if name := g.names[pkg]; name == path.Base(pkg.Path()) {
			fmt.Fprintf(w, "\t%q\n", pkg.Path())
		} else {
			fmt.Fprintf(w, "\t%s %q\n", name, pkg.Path())
		}
	}
	fmt.Fprintf(w, ")\n\n")
}

// qualify names pkg in the generated file, choosing a fresh name when
// pkg.Name() is already in use.
func (g *Generator) qualify(pkg *gotypes.Package) string {
	if pkg == g.info.Package {
		return ""
	}
	if name, ok := g.names[pkg]; ok {
		return name
	}
	name := pkg.Name()
	for i := 2; g.taken[name]; i++ {
		name = pkg.Name() + strconv.Itoa(i)
	}
	g.taken[name] = true
	g.names[pkg] = name
	return name
}

func (g *Generator) typeString(t gotypes.Type) string {
	return gotypes.TypeString(t, g.qualify)
}

func (g *Generator) chain(fields []*types.Field) string {
	var b strings.Builder
	for _, f := range fields {
		fmt.Fprintf(&b, "hrec.Cons[hrec.Member[%s, %s], ", g.typeString(f.Key), g.typeString(f.Value))
	}
	b.WriteString("hrec.Nil")
	b.WriteString(strings.Repeat("]", len(fields)))
	return b.String()
}

func (g *Generator) record(w *bytes.Buffer, r *types.Record) {
	if len(r.Fields) == 0 {
		fmt.Fprintf(w, "type %s struct {\n\threc.Nil\n}\n\n", r.Name)
		fmt.Fprintf(w, "func New%s() %s {\n\treturn %s{}\n}\n\n", r.Name, r.Name, r.Name)
	} else {
		fmt.Fprintf(w, "type %s struct {\n\t%s\n}\n\n", r.Name, g.chain(r.Fields))
		params := make([]string, len(r.Fields))
		var value strings.Builder
		for i, f := range r.Fields {
			params[i] = fmt.Sprintf("v%d %s", i+1, g.typeString(f.Value))
			fmt.Fprintf(&value, "hrec.Push(hrec.Field[%s](v%d), ", g.typeString(f.Key), i+1)
		}
		value.WriteString("hrec.Nil{}")
		value.WriteString(strings.Repeat(")", len(r.Fields)))
		fmt.Fprintf(w, "// New%s builds a %s from its field values in declaration order.\n", r.Name, r.Name)
		fmt.Fprintf(w, "func New%s(%s) %s {\n\treturn %s{%s}\n}\n\n", r.Name, strings.Join(params, ", "), r.Name, r.Name, value.String())
	}
	for _, q := range r.Methods {
		g.method(w, r, q)
	}
}

func fieldPath(index int) string {
	return "r." + strings.Repeat("Tail.", index) + "Head.Value"
}

func (g *Generator) method(w *bytes.Buffer, r *types.Record, q *types.Query) {
	key := g.typeString(q.Key)
	elem := g.typeString(q.Result.Elem)
	if q.Result.Present {
		fmt.Fprintf(w, "// %s returns the %s field of r.\n", q.Method, key)
		fmt.Fprintf(w, "func (r %s) %s() hrec.Present[%s] {\n\treturn hrec.Some(%s)\n}\n\n", r.Name, q.Method, elem, fieldPath(q.Result.Index))
	} else {
		if q.Value == nil {
			fmt.Fprintf(w, "// %s is always absent: %s has no %s field.\n", q.Method, r.Name, key)
		} else {
			fmt.Fprintf(w, "// %s is always absent: %s has no %s field of type %s.\n", q.Method, r.Name, key, elem)
		}
		fmt.Fprintf(w, "func (r %s) %s() hrec.Absent[%s] {\n\treturn hrec.None[%s]()\n}\n\n", r.Name, q.Method, elem, elem)
	}
	fmt.Fprintf(w, "func (r %s) %s() %s {\n\treturn r.%s().Expect(%q)\n}\n\n", r.Name, q.Must, elem, q.Method, key)
}
