package parser

import (
	"errors"
	"fmt"
	"io/fs"
	"path"

	"github.com/samber/lo"
	"github.com/smasher164/hrec/ast"
	"github.com/smasher164/hrec/lexer"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Loader parses directories of .hrec files into packages. Each directory
// is parsed at most once.
type Loader struct {
	root     fs.FS
	PkgCache map[string]*ast.Package
}

func NewLoader(root fs.FS) *Loader {
	return &Loader{
		root:     root,
		PkgCache: make(map[string]*ast.Package),
	}
}

// Load parses every .hrec file in dir. Files are parsed in name order so
// that declarations, and therefore field order and diagnostics, are
// deterministic.
func (l *Loader) Load(dir string) (*ast.Package, error) {
	if pkg, ok := l.PkgCache[dir]; ok {
		return pkg, nil
	}
	entries, err := fs.ReadDir(l.root, dir)
	if err != nil {
		return nil, err
	}
	filenames := lo.FilterMap(entries, func(entry fs.DirEntry, _ int) (string, bool) {
		name := entry.Name()
		if entry.IsDir() || path.Ext(name) != lexer.Ext {
			return "", false
		}
		return path.Join(dir, name), true
	})
	if len(filenames) == 0 {
		return nil, fmt.Errorf("no %s files found in %s", lexer.Ext, dir)
	}
	pkg, err := ParsePackage(l.root, filenames...)
	if pkg != nil && err == nil {
		l.PkgCache[dir] = pkg
	}
	return pkg, err
}

// ParsePackage parses the named files and checks that they agree on a
// package name.
func ParsePackage(fsys fs.FS, filenames ...string) (*ast.Package, error) {
	filenames = slices.Clone(filenames)
	slices.Sort(filenames)
	pkg := &ast.Package{}
	var errs []error
	byName := make(map[string][]string)
	for _, filename := range filenames {
		f, err := ParseFile(fsys, filename)
		if f == nil {
			return nil, err
		}
		if err != nil {
			errs = append(errs, err)
		}
		pkg.Files = append(pkg.Files, f)
		if f.PackageName != nil {
			byName[f.PackageName.Name.Data] = append(byName[f.PackageName.Name.Data], filename)
		}
	}
	names := maps.Keys(byName)
	slices.Sort(names)
	switch len(names) {
	case 0:
	case 1:
		pkg.Name = names[0]
	default:
		pkg.Name = names[0]
		for _, name := range names[1:] {
			for _, filename := range byName[name] {
				errs = append(errs, fmt.Errorf("%s: found package %s, expected %s (%s)", filename, name, names[0], byName[names[0]][0]))
			}
		}
	}
	return pkg, errors.Join(errs...)
}
