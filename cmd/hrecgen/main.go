// Command hrecgen generates record types and accessors from the .hrec
// declarations in a package directory. It is meant to be run from a
// go:generate directive:
//
//	//go:generate go run github.com/smasher164/hrec/cmd/hrecgen
package main

import (
	"io"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"

	"github.com/smasher164/hrec/codegen"
	"github.com/smasher164/hrec/fsx"
	"github.com/smasher164/hrec/parser"
	"github.com/smasher164/hrec/types"
)

type globalOptions struct {
	LogLevel  string `name:"log.level" enum:"debug,info,warn,error" default:"info" help:"Only log messages with the given severity or above (debug | info | warn | error)."`
	LogFormat string `name:"log.format" enum:"logfmt,json" default:"logfmt" help:"Output log messages in the given format (logfmt | json)."`
}

type generateCmd struct {
	globalOptions `embed:""`

	Dir     string `help:"Directory containing the .hrec files." default:"." type:"existingdir"`
	PkgPath string `name:"pkg-path" help:"Import path of the package in --dir. Looked up with the go command when empty."`
	Out     string `help:"Name of the generated file, relative to --dir. Missing directories are created. Defaults to <package>_hrec.go."`
}

func newParser(cmd *generateCmd, options ...kong.Option) (*kong.Kong, error) {
	return kong.New(cmd, append([]kong.Option{
		kong.Name("hrecgen"),
		kong.Description("Generate typed record accessors from .hrec declarations."),
		kong.UsageOnError(),
	}, options...)...)
}

func main() {
	var cmd generateCmd
	cli, err := newParser(&cmd)
	if err != nil {
		panic(err)
	}
	ctx, err := cli.Parse(os.Args[1:])
	cli.FatalIfErrorf(err)
	ctx.FatalIfErrorf(cmd.Run(os.Stderr))
}

// newLogger builds the go-kit logger used for the run: UTC timestamps, the
// caller, and a level filter applied last.
func newLogger(format, lvl string, w io.Writer) log.Logger {
	writer := log.NewSyncWriter(w)
	var logger log.Logger
	if format == "json" {
		logger = log.NewJSONLogger(writer)
	} else {
		logger = log.NewLogfmtLogger(writer)
	}
	logger = log.With(logger, "ts", log.DefaultTimestampUTC, "caller", log.Caller(5))

	var allow level.Option
	switch lvl {
	case "debug":
		allow = level.AllowDebug()
	case "warn":
		allow = level.AllowWarn()
	case "error":
		allow = level.AllowError()
	default:
		allow = level.AllowInfo()
	}
	return level.NewFilter(logger, allow)
}

func (cmd *generateCmd) Run(logOutput io.Writer) error {
	logger := newLogger(cmd.LogFormat, cmd.LogLevel, logOutput)
	dir := fsx.DirFS(cmd.Dir)

	pkg, err := parser.NewLoader(dir).Load(".")
	if err != nil {
		return errors.Wrapf(err, "parsing %s", cmd.Dir)
	}

	pkgPath := cmd.PkgPath
	if pkgPath == "" {
		if pkgPath, err = types.PackagePath(cmd.Dir); err != nil {
			return errors.Wrap(err, "looking up package path")
		}
	}
	level.Debug(logger).Log("msg", "checking declarations", "package", pkgPath, "files", len(pkg.Files))

	info, err := types.NewChecker(pkgPath, types.NewPackagesImporter(cmd.Dir)).Check(pkg)
	if err != nil {
		return errors.Wrap(err, "checking declarations")
	}

	out := filepath.ToSlash(cmd.Out)
	if out == "" {
		out = codegen.Filename(pkg.Name)
	}
	if err := codegen.NewGenerator(info, logger).Generate(dir, out); err != nil {
		return errors.Wrapf(err, "writing %s", out)
	}
	level.Info(logger).Log("msg", "generated record accessors", "file", filepath.Join(cmd.Dir, out), "records", len(info.Records))
	return nil
}
