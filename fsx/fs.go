// Package fsx extends io/fs with creation of files and directories, so that
// generated sources can be written to disk or to an in-memory tree in tests.
package fsx

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/exp/slices"
)

var _ fs.File = (*memDir)(nil)
var _ fs.DirEntry = (*memDir)(nil)
var _ fs.ReadDirFile = (*memDir)(nil)
var _ fs.FS = (*memDir)(nil)
var _ CreateFS = (*memDir)(nil)
var _ MkdirFS = (*memDir)(nil)
var _ fs.FS = DirFS("")
var _ CreateFS = DirFS("")
var _ MkdirFS = DirFS("")

type WriteableFile interface {
	fs.File
	io.Writer
}

type CreateFS interface {
	fs.FS
	Create(name string) (WriteableFile, error)
}

type MkdirFS interface {
	fs.FS
	Mkdir(name string, perm fs.FileMode) (fs.FS, error)
}

func Create(fsys fs.FS, name string) (WriteableFile, error) {
	if cfs, ok := fsys.(CreateFS); ok {
		return cfs.Create(name)
	}
	return nil, &fs.PathError{Op: "create", Path: name, Err: errors.ErrUnsupported}
}

func Mkdir(fsys fs.FS, name string, perm fs.FileMode) (fs.FS, error) {
	if mfs, ok := fsys.(MkdirFS); ok {
		return mfs.Mkdir(name, perm)
	}
	return nil, &fs.PathError{Op: "mkdir", Path: name, Err: errors.ErrUnsupported}
}

// MkdirAll creates dir along with any missing parents. Directories that
// already exist are left as they are.
func MkdirAll(fsys fs.FS, dir string, perm fs.FileMode) error {
	if !fs.ValidPath(dir) {
		return &fs.PathError{Op: "mkdir", Path: dir, Err: fs.ErrInvalid}
	}
	if dir == "." {
		return nil
	}
	var cur string
	for _, elem := range strings.Split(dir, "/") {
		cur = path.Join(cur, elem)
		_, err := Mkdir(fsys, cur, perm)
		if err == nil {
			continue
		}
		if !errors.Is(err, fs.ErrExist) {
			return err
		}
		if info, serr := fs.Stat(fsys, cur); serr != nil || !info.IsDir() {
			return err
		}
	}
	return nil
}

// WriteFile creates or truncates name and writes data to it.
func WriteFile(fsys fs.FS, name string, data []byte) (err error) {
	f, err := Create(fsys, name)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	_, err = f.Write(data)
	return err
}

// TestFS builds an in-memory tree from (path, contents) pairs. Paths are
// slash-separated; intermediate directories are created as needed.
func TestFS(files ...[2]string) *memDir {
	root := newMemDir(".", 0o755)
	for _, file := range files {
		dir, name := path.Split(file[0])
		cur := root
		if dir != "" {
			cur = root.mkdirAll(strings.TrimSuffix(dir, "/"))
		}
		cur.entries = append(cur.entries, newMemFile(name, 0o644, []byte(file[1])))
	}
	return root
}

type memFile struct {
	name   string
	mode   fs.FileMode
	data   []byte
	offset int
}

func newMemFile(name string, mode fs.FileMode, data []byte) *memFile {
	return &memFile{name: name, mode: mode, data: data}
}

func (f *memFile) Write(p []byte) (int, error) {
	f.data = append(f.data, p...)
	return len(p), nil
}

func (f *memFile) Read(p []byte) (int, error) {
	if f.offset >= len(f.data) {
		return 0, io.EOF
	}
	n := copy(p, f.data[f.offset:])
	f.offset += n
	return n, nil
}

func (f *memFile) Close() error {
	f.offset = 0
	return nil
}

func (f *memFile) Stat() (fs.FileInfo, error) { return f, nil }
func (f *memFile) Info() (fs.FileInfo, error) { return f, nil }
func (f *memFile) Type() fs.FileMode          { return f.mode.Type() }
func (f *memFile) IsDir() bool                { return f.mode.IsDir() }
func (*memFile) ModTime() time.Time           { return time.Time{} }
func (f *memFile) Mode() fs.FileMode          { return f.mode }
func (f *memFile) Name() string               { return f.name }
func (f *memFile) Size() int64                { return int64(len(f.data)) }
func (*memFile) Sys() any                     { return nil }

// memDir is both a directory entry and an fs.FS rooted at itself.
type memDir struct {
	memFile
	entries []fs.File
}

func newMemDir(name string, perm fs.FileMode) *memDir {
	return &memDir{memFile: memFile{name: name, mode: perm | fs.ModeDir}}
}

func (d *memDir) Read([]byte) (int, error) {
	return 0, &fs.PathError{Op: "read", Path: d.name, Err: errors.New("is a directory")}
}

// ReadDir implements fs.ReadDirFile.
func (d *memDir) ReadDir(count int) ([]fs.DirEntry, error) {
	n := len(d.entries) - d.offset
	if n == 0 && count > 0 {
		return nil, io.EOF
	}
	if count > 0 && n > count {
		n = count
	}
	list := make([]fs.DirEntry, n)
	for i := range list {
		list[i] = d.entries[d.offset+i].(fs.DirEntry)
	}
	d.offset += n
	return list, nil
}

func nameOf(f fs.File) string {
	switch f := f.(type) {
	case *memDir:
		return f.name
	case *memFile:
		return f.name
	}
	panic("unreachable")
}

func (d *memDir) lookup(name string) int {
	return slices.IndexFunc(d.entries, func(f fs.File) bool {
		return nameOf(f) == name
	})
}

func (d *memDir) mkdirAll(dir string) *memDir {
	cur := d
	for _, elem := range strings.Split(dir, "/") {
		i := cur.lookup(elem)
		if i < 0 {
			cur.entries = append(cur.entries, newMemDir(elem, 0o755))
			i = len(cur.entries) - 1
		}
		cur = cur.entries[i].(*memDir)
	}
	return cur
}

// walk returns the entry at name, which must be a valid path.
func (d *memDir) walk(op, name string) (fs.File, error) {
	if name == "." {
		return d, nil
	}
	cur := d
	elems := strings.Split(name, "/")
	for i, elem := range elems {
		j := cur.lookup(elem)
		if j < 0 {
			return nil, &fs.PathError{Op: op, Path: name, Err: fs.ErrNotExist}
		}
		switch entry := cur.entries[j].(type) {
		case *memDir:
			cur = entry
		case *memFile:
			if i != len(elems)-1 {
				return nil, &fs.PathError{Op: op, Path: name, Err: fs.ErrNotExist}
			}
			return entry, nil
		}
	}
	return cur, nil
}

func (d *memDir) parent(op, name string) (*memDir, string, error) {
	if !fs.ValidPath(name) || name == "." {
		return nil, "", &fs.PathError{Op: op, Path: name, Err: fs.ErrInvalid}
	}
	dir, base := path.Split(name)
	if dir == "" {
		return d, base, nil
	}
	f, err := d.walk(op, strings.TrimSuffix(dir, "/"))
	if err != nil {
		return nil, "", err
	}
	pd, ok := f.(*memDir)
	if !ok {
		return nil, "", &fs.PathError{Op: op, Path: name, Err: fs.ErrInvalid}
	}
	return pd, base, nil
}

// Open implements fs.FS. Each call returns a fresh handle with its own
// read offset.
func (d *memDir) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}
	f, err := d.walk("open", name)
	if err != nil {
		return nil, err
	}
	switch f := f.(type) {
	case *memDir:
		dup := *f
		dup.offset = 0
		return &dup, nil
	case *memFile:
		dup := *f
		dup.offset = 0
		return &dup, nil
	}
	return f, nil
}

// Mkdir implements MkdirFS.
func (d *memDir) Mkdir(name string, perm fs.FileMode) (fs.FS, error) {
	pd, base, err := d.parent("mkdir", name)
	if err != nil {
		return nil, err
	}
	if pd.lookup(base) >= 0 {
		return nil, &fs.PathError{Op: "mkdir", Path: name, Err: fs.ErrExist}
	}
	nd := newMemDir(base, perm)
	pd.entries = append(pd.entries, nd)
	return nd, nil
}

// Create implements CreateFS. An existing file is truncated.
func (d *memDir) Create(name string) (WriteableFile, error) {
	pd, base, err := d.parent("create", name)
	if err != nil {
		return nil, err
	}
	if i := pd.lookup(base); i >= 0 {
		f, ok := pd.entries[i].(*memFile)
		if !ok {
			return nil, &fs.PathError{Op: "create", Path: name, Err: fs.ErrExist}
		}
		f.data, f.offset = nil, 0
		return f, nil
	}
	f := newMemFile(base, 0o644, nil)
	pd.entries = append(pd.entries, f)
	return f, nil
}

// DirFS is like os.DirFS but also supports creating files and
// directories.
type DirFS string

// join returns the OS path for name in dir.
func (dir DirFS) join(name string) (string, error) {
	if dir == "" {
		return "", errors.New("fsx: DirFS with empty root")
	}
	if !fs.ValidPath(name) {
		return "", os.ErrInvalid
	}
	local, err := filepath.Localize(name)
	if err != nil {
		return "", os.ErrInvalid
	}
	return filepath.Join(string(dir), local), nil
}

func (dir DirFS) Open(name string) (fs.File, error) {
	fullname, err := dir.join(name)
	if err != nil {
		return nil, &fs.PathError{Op: "open", Path: name, Err: err}
	}
	f, err := os.Open(fullname)
	if err != nil {
		return nil, renamed(err, name)
	}
	return f, nil
}

func (dir DirFS) Stat(name string) (fs.FileInfo, error) {
	fullname, err := dir.join(name)
	if err != nil {
		return nil, &fs.PathError{Op: "stat", Path: name, Err: err}
	}
	info, err := os.Stat(fullname)
	if err != nil {
		return nil, renamed(err, name)
	}
	return info, nil
}

// Mkdir implements MkdirFS.
func (dir DirFS) Mkdir(name string, perm fs.FileMode) (fs.FS, error) {
	fullname, err := dir.join(name)
	if err != nil {
		return nil, &fs.PathError{Op: "mkdir", Path: name, Err: err}
	}
	if err := os.Mkdir(fullname, perm); err != nil {
		return nil, renamed(err, name)
	}
	return DirFS(fullname), nil
}

// Create implements CreateFS.
func (dir DirFS) Create(name string) (WriteableFile, error) {
	fullname, err := dir.join(name)
	if err != nil {
		return nil, &fs.PathError{Op: "create", Path: name, Err: err}
	}
	f, err := os.Create(fullname)
	if err != nil {
		return nil, renamed(err, name)
	}
	return f, nil
}

// renamed reports errors relative to the DirFS root.
func renamed(err error, name string) error {
	var perr *fs.PathError
	if errors.As(err, &perr) {
		perr.Path = name
	}
	return err
}
