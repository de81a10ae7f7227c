package types

import (
	"fmt"
	gotypes "go/types"
	"strings"

	"golang.org/x/tools/go/packages"
)

// PackagesImporter imports Go packages by loading them with the go
// command, relative to Dir.
type PackagesImporter struct {
	Dir   string
	cache map[string]*gotypes.Package
}

func NewPackagesImporter(dir string) *PackagesImporter {
	return &PackagesImporter{Dir: dir, cache: make(map[string]*gotypes.Package)}
}

func (imp *PackagesImporter) Import(path string) (*gotypes.Package, error) {
	if pkg, ok := imp.cache[path]; ok {
		return pkg, nil
	}
	cfg := &packages.Config{
		Mode: packages.NeedName | packages.NeedTypes,
		Dir:  imp.Dir,
	}
	pkgs, err := packages.Load(cfg, path)
	if err != nil {
		return nil, err
	}
	if len(pkgs) != 1 {
		return nil, fmt.Errorf("expected one package for %s, found %d", path, len(pkgs))
	}
	pkg := pkgs[0]
	if len(pkg.Errors) > 0 {
		msgs := make([]string, len(pkg.Errors))
		for i, e := range pkg.Errors {
			msgs[i] = e.Error()
		}
		return nil, fmt.Errorf("%s", strings.Join(msgs, "; "))
	}
	imp.cache[path] = pkg.Types
	return pkg.Types, nil
}

// PackagePath reports the import path of the Go package in dir.
func PackagePath(dir string) (string, error) {
	pkgs, err := packages.Load(&packages.Config{Mode: packages.NeedName, Dir: dir}, ".")
	if err != nil {
		return "", err
	}
	if len(pkgs) != 1 || pkgs[0].PkgPath == "" {
		return "", fmt.Errorf("no Go package found in %s", dir)
	}
	return pkgs[0].PkgPath, nil
}
