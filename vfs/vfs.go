// Package vfs implements a small in-memory filesystem simulator with
// Unix-like path semantics and no real I/O. It is useful for exercising
// code that manipulates file trees without touching the disk.
package vfs

import (
	"bytes"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/scratchfs/scratchfs/internal/clock"
	"github.com/scratchfs/scratchfs/internal/iocopy"
)

// Well-known errors returned by this package.
var (
	ErrNotFound    = errors.New("no such entry")
	ErrExists      = errors.New("entry already exists")
	ErrInvalidPath = errors.New("invalid path")
	ErrNotEmpty    = errors.New("directory not empty")
)

const (
	defaultDirPerm  = Permissions(0o755)
	defaultFilePerm = Permissions(0o644)
)

type dirNode struct {
	name  string
	meta  Metadata
	dirs  []*dirNode
	files []*File
}

func (d *dirNode) childDir(name string) *dirNode {
	for _, sub := range d.dirs {
		if sub.name == name {
			return sub
		}
	}

	return nil
}

func (d *dirNode) childFile(name string) *File {
	for _, f := range d.files {
		if f.name == name {
			return f
		}
	}

	return nil
}

// FS is an in-memory filesystem rooted at "/" with a current working
// directory. The zero value is not usable; construct with New.
//
// FS performs no locking; concurrent use requires external mutual exclusion.
type FS struct {
	root *dirNode
	cwd  []string
}

// New returns an empty filesystem whose working directory is the root.
func New() *FS {
	return &FS{root: &dirNode{meta: newMetadata(defaultDirPerm)}}
}

// resolve turns a path into absolute components. Relative paths are joined
// to the working directory; "." is dropped and ".." pops, clamped at the
// root like a real Unix path walk.
func (fs *FS) resolve(path string) []string {
	var out []string

	if !strings.HasPrefix(path, "/") {
		out = append(out, fs.cwd...)
	}

	for _, comp := range strings.Split(path, "/") {
		switch comp {
		case "", ".":
		case "..":
			if len(out) > 0 {
				out = out[:len(out)-1]
			}
		default:
			out = append(out, comp)
		}
	}

	return out
}

func joinComponents(comps []string) string {
	return "/" + strings.Join(comps, "/")
}

// dirAt descends from the root along comps, failing when a component is
// missing or is a file.
func (fs *FS) dirAt(comps []string) (*dirNode, error) {
	cur := fs.root

	for i, c := range comps {
		next := cur.childDir(c)
		if next == nil {
			return nil, errors.Wrapf(ErrNotFound, "%v", joinComponents(comps[:i+1]))
		}

		cur = next
	}

	return cur, nil
}

// parentOf resolves path and returns its parent directory and leaf name.
func (fs *FS) parentOf(path string) (*dirNode, string, error) {
	comps := fs.resolve(path)
	if len(comps) == 0 {
		return nil, "", errors.Wrapf(ErrInvalidPath, "%v", path)
	}

	parent, err := fs.dirAt(comps[:len(comps)-1])
	if err != nil {
		return nil, "", err
	}

	return parent, comps[len(comps)-1], nil
}

// Pwd returns the current working directory as an absolute path.
func (fs *FS) Pwd() string {
	return joinComponents(fs.cwd)
}

// Cd changes the working directory. The target must be an existing
// directory.
func (fs *FS) Cd(path string) error {
	comps := fs.resolve(path)

	if _, err := fs.dirAt(comps); err != nil {
		return err
	}

	fs.cwd = comps

	return nil
}

// Mkdir creates the directory at path along with any missing components,
// like mkdir -p. A file occupying any component is an error; components that
// already exist as directories are fine.
func (fs *FS) Mkdir(path string) error {
	cur := fs.root

	for _, c := range fs.resolve(path) {
		if cur.childFile(c) != nil {
			return errors.Wrapf(ErrExists, "%v is a file", c)
		}

		next := cur.childDir(c)
		if next == nil {
			next = &dirNode{name: c, meta: newMetadata(defaultDirPerm)}
			cur.dirs = append(cur.dirs, next)
		}

		cur = next
	}

	return nil
}

// Touch creates an empty file at path. The parent directory must already
// exist. Touching an existing file is a no-op; touching a directory is an
// error.
func (fs *FS) Touch(path string) error {
	parent, name, err := fs.parentOf(path)
	if err != nil {
		return err
	}

	if parent.childDir(name) != nil {
		return errors.Wrapf(ErrExists, "%v is a directory", path)
	}

	if parent.childFile(name) != nil {
		return nil
	}

	parent.files = append(parent.files, &File{name: name, meta: newMetadata(defaultFilePerm)})

	return nil
}

// Open returns the file at path, creating it first when missing.
func (fs *FS) Open(path string) (*File, error) {
	if err := fs.Touch(path); err != nil {
		return nil, err
	}

	return fs.Lookup(path)
}

// Lookup returns the file at path without creating anything.
func (fs *FS) Lookup(path string) (*File, error) {
	parent, name, err := fs.parentOf(path)
	if err != nil {
		return nil, err
	}

	if f := parent.childFile(name); f != nil {
		return f, nil
	}

	return nil, errors.Wrapf(ErrNotFound, "%v", path)
}

// Ls lists the entries of the directory at path: subdirectories first with a
// trailing slash, then files, each group in creation order.
func (fs *FS) Ls(path string) ([]string, error) {
	d, err := fs.dirAt(fs.resolve(path))
	if err != nil {
		return nil, err
	}

	var names []string

	for _, sub := range d.dirs {
		names = append(names, sub.name+"/")
	}

	for _, f := range d.files {
		names = append(names, f.name)
	}

	return names, nil
}

// Rm removes the file at path. Directories are refused; use Rmdir.
func (fs *FS) Rm(path string) error {
	parent, name, err := fs.parentOf(path)
	if err != nil {
		return err
	}

	if parent.childDir(name) != nil {
		return errors.Wrapf(ErrInvalidPath, "%v is a directory", path)
	}

	for i, f := range parent.files {
		if f.name == name {
			parent.files = append(parent.files[:i], parent.files[i+1:]...)

			return nil
		}
	}

	return errors.Wrapf(ErrNotFound, "%v", path)
}

// Rmdir removes the empty directory at path. The root and the working
// directory (or any ancestor of it) cannot be removed.
func (fs *FS) Rmdir(path string) error {
	comps := fs.resolve(path)
	if len(comps) == 0 {
		return errors.Wrap(ErrInvalidPath, "cannot remove the root")
	}

	if isPrefix(comps, fs.cwd) {
		return errors.Wrapf(ErrInvalidPath, "%v is in use", path)
	}

	parent, err := fs.dirAt(comps[:len(comps)-1])
	if err != nil {
		return err
	}

	name := comps[len(comps)-1]

	for i, sub := range parent.dirs {
		if sub.name != name {
			continue
		}

		if len(sub.dirs)+len(sub.files) > 0 {
			return errors.Wrapf(ErrNotEmpty, "%v", path)
		}

		parent.dirs = append(parent.dirs[:i], parent.dirs[i+1:]...)

		return nil
	}

	return errors.Wrapf(ErrNotFound, "%v", path)
}

// Rename moves a file or directory to a new path. The destination's parent
// must exist and the destination itself must not. Moving a directory renames
// every path below it; moving it into its own subtree, or moving the working
// directory, is refused.
func (fs *FS) Rename(oldPath, newPath string) error {
	oldComps := fs.resolve(oldPath)
	if len(oldComps) == 0 {
		return errors.Wrap(ErrInvalidPath, "cannot rename the root")
	}

	newComps := fs.resolve(newPath)
	if len(newComps) == 0 {
		return errors.Wrap(ErrInvalidPath, "cannot rename onto the root")
	}

	if isPrefix(oldComps, newComps) {
		return errors.Wrapf(ErrInvalidPath, "cannot move %v into itself", oldPath)
	}

	if isPrefix(oldComps, fs.cwd) {
		return errors.Wrapf(ErrInvalidPath, "%v is in use", oldPath)
	}

	oldParent, err := fs.dirAt(oldComps[:len(oldComps)-1])
	if err != nil {
		return err
	}

	newParent, err := fs.dirAt(newComps[:len(newComps)-1])
	if err != nil {
		return err
	}

	newName := newComps[len(newComps)-1]
	if newParent.childDir(newName) != nil || newParent.childFile(newName) != nil {
		return errors.Wrapf(ErrExists, "%v", newPath)
	}

	oldName := oldComps[len(oldComps)-1]

	for i, f := range oldParent.files {
		if f.name == oldName {
			oldParent.files = append(oldParent.files[:i], oldParent.files[i+1:]...)
			f.name = newName
			f.meta.Modified = clock.Now()
			newParent.files = append(newParent.files, f)

			return nil
		}
	}

	for i, sub := range oldParent.dirs {
		if sub.name == oldName {
			oldParent.dirs = append(oldParent.dirs[:i], oldParent.dirs[i+1:]...)
			sub.name = newName
			sub.meta.Modified = clock.Now()
			newParent.dirs = append(newParent.dirs, sub)

			return nil
		}
	}

	return errors.Wrapf(ErrNotFound, "%v", oldPath)
}

// Chmod replaces the permission bits of the entry at path.
func (fs *FS) Chmod(path string, perm Permissions) error {
	m, err := fs.metaAt(path)
	if err != nil {
		return err
	}

	m.Perm = perm
	m.Modified = clock.Now()

	return nil
}

// Chown replaces the owner and group of the entry at path.
func (fs *FS) Chown(path, owner, group string) error {
	m, err := fs.metaAt(path)
	if err != nil {
		return err
	}

	m.Owner = owner
	m.Group = group
	m.Modified = clock.Now()

	return nil
}

// Stat returns a copy of the metadata of the entry at path.
func (fs *FS) Stat(path string) (Metadata, error) {
	m, err := fs.metaAt(path)
	if err != nil {
		return Metadata{}, err
	}

	return *m, nil
}

func (fs *FS) metaAt(path string) (*Metadata, error) {
	comps := fs.resolve(path)
	if len(comps) == 0 {
		return &fs.root.meta, nil
	}

	parent, err := fs.dirAt(comps[:len(comps)-1])
	if err != nil {
		return nil, err
	}

	name := comps[len(comps)-1]

	if f := parent.childFile(name); f != nil {
		return &f.meta, nil
	}

	if d := parent.childDir(name); d != nil {
		return &d.meta, nil
	}

	return nil, errors.Wrapf(ErrNotFound, "%v", path)
}

// ImportFile replaces the content of the file at path with everything read
// from r, creating the file when missing. It returns the number of bytes
// imported.
func (fs *FS) ImportFile(path string, r io.Reader) (int64, error) {
	f, err := fs.Open(path)
	if err != nil {
		return 0, err
	}

	f.data = nil
	f.pos = 0

	n, err := iocopy.Copy(f, r)

	return n, errors.Wrap(err, "error importing content")
}

// ImportPath imports the real file at diskPath into the filesystem at path.
func (fs *FS) ImportPath(path, diskPath string) (int64, error) {
	src, err := os.Open(diskPath) //nolint:gosec
	if err != nil {
		return 0, errors.Wrap(err, "unable to open source file")
	}

	defer src.Close() //nolint:errcheck

	return fs.ImportFile(path, src)
}

// ExportFile copies the content of the file at path into w, leaving the
// file's cursor alone.
func (fs *FS) ExportFile(path string, w io.Writer) (int64, error) {
	f, err := fs.Lookup(path)
	if err != nil {
		return 0, err
	}

	n, err := iocopy.Copy(w, bytes.NewReader(f.data))

	return n, errors.Wrap(err, "error exporting content")
}

// isPrefix reports whether p is a path prefix of (or equal to) q.
func isPrefix(p, q []string) bool {
	if len(p) > len(q) {
		return false
	}

	for i := range p {
		if p[i] != q[i] {
			return false
		}
	}

	return true
}
