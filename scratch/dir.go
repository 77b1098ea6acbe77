package scratch

import (
	"context"
	stderrors "errors"
	"fmt"
	"path/filepath"
	"regexp"
	"runtime"

	"github.com/pkg/errors"

	"github.com/scratchfs/scratchfs/internal/clock"
)

// dirResource couples a registry directory's location with the children
// created through it. The scope-exit backstop shares this value with the
// registry, so late cleanup sees the same child list the registry mutates.
type dirResource struct {
	path          string
	createdParent string
	osi           osInterface
	children      []*File
}

// release disposes all tracked children first, then removes the directory
// tree itself, including the created-ancestor subtree when one was recorded.
func (r *dirResource) release() error {
	var err error

	for _, c := range r.children {
		if childErr := c.releaseNow(); childErr != nil {
			err = stderrors.Join(err, childErr)
		}
	}

	r.children = nil

	root := r.path
	if r.createdParent != "" {
		root = r.createdParent
	}

	return stderrors.Join(err, r.osi.RemoveAll(root))
}

func releaseDirResource(r *dirResource) {
	r.release() //nolint:errcheck
}

// Dir is a registry directory. Scratch files created through it are tracked
// by the registry and disposed, children before the directory itself, when
// the registry is deleted, discarded or becomes unreachable.
//
// Like File, a Dir is a single-owner resource without internal locking.
type Dir struct {
	res     *dirResource
	opts    Options
	cleanup runtime.Cleanup
}

// CreateDir creates a registry directory at the given path, creating missing
// ancestors; a directory already occupying the path is adopted instead. A
// relative path is grounded against the system temporary directory.
func CreateDir(ctx context.Context, path string, opts *Options) (*Dir, error) {
	opts = optionsOrDefault(opts)
	osi := opts.osi()

	target, err := resolveTempRooted(osi, path)
	if err != nil {
		return nil, err
	}

	return createDirAt(ctx, osi, target, opts)
}

// CreateDirHere is like CreateDir with relative paths grounded against the
// process working directory.
func CreateDirHere(ctx context.Context, path string, opts *Options) (*Dir, error) {
	opts = optionsOrDefault(opts)
	osi := opts.osi()

	target, err := resolveHereRooted(osi, path)
	if err != nil {
		return nil, err
	}

	return createDirAt(ctx, osi, target, opts)
}

// CreateRandomDir creates a registry directory with a generated unique name
// inside parent. An empty parent selects the system temporary directory; a
// relative parent is grounded against it.
func CreateRandomDir(ctx context.Context, parent string, opts *Options) (*Dir, error) {
	opts = optionsOrDefault(opts)
	osi := opts.osi()

	base := osi.TempDir()

	if parent != "" {
		p, err := resolveTempRooted(osi, parent)
		if err != nil {
			return nil, err
		}

		base = p
	}

	gen := newNameGenerator(osi, opts)

	for i := int64(0); i < gen.attempts; i++ {
		candidate, err := gen.generateUnique(base)
		if err != nil {
			return nil, err
		}

		d, err := createDirExclusive(ctx, osi, candidate, opts)
		if errors.Is(err, ErrPathExists) {
			continue
		}

		return d, err
	}

	return nil, errors.WithStack(ErrNameExhausted)
}

func createDirAt(ctx context.Context, osi osInterface, target string, opts *Options) (*Dir, error) {
	cr, err := createDirWithParents(ctx, osi, target, false, opts)
	if err != nil {
		return nil, err
	}

	log(ctx).Debugf("created scratch directory %v", cr.path)

	return newDir(cr, osi, opts), nil
}

func createDirExclusive(ctx context.Context, osi osInterface, target string, opts *Options) (*Dir, error) {
	cr, err := createDirWithParents(ctx, osi, target, true, opts)
	if err != nil {
		return nil, err
	}

	log(ctx).Debugf("created scratch directory %v", cr.path)

	return newDir(cr, osi, opts), nil
}

func newDir(cr *createdResource, osi osInterface, opts *Options) *Dir {
	res := &dirResource{
		path:          cr.path,
		createdParent: cr.createdParent,
		osi:           osi,
	}

	d := &Dir{res: res, opts: *opts}
	d.cleanup = runtime.AddCleanup(d, releaseDirResource, res)

	return d
}

// Active reports whether the registry still owns its directory.
func (d *Dir) Active() bool {
	return d.res != nil
}

// Path returns the directory location, or "" once the registry was torn
// down or persisted.
func (d *Dir) Path() string {
	if d.res == nil {
		return ""
	}

	return d.res.path
}

// MustPath is like Path but panics on a disposed registry.
func (d *Dir) MustPath() string {
	if d.res == nil {
		panic("scratch: MustPath called on a disposed directory")
	}

	return d.res.path
}

func (d *Dir) String() string {
	if d.res == nil {
		return "scratch directory (disposed)"
	}

	return fmt.Sprintf("scratch directory %v", d.res.path)
}

// CreateFile creates and tracks a scratch file with the given name inside
// the directory. The name is joined to the directory path as given; names
// containing separators or ".." address entries outside the registry's flat
// namespace and still become tracked children.
func (d *Dir) CreateFile(ctx context.Context, name string) (*File, error) {
	if d.res == nil {
		return nil, errors.WithStack(ErrDisposed)
	}

	f, err := createFileAt(ctx, d.res.osi, filepath.Join(d.res.path, name), &d.opts)
	if err != nil {
		return nil, err
	}

	d.res.children = append(d.res.children, f)

	return f, nil
}

// CreateRandomFile creates and tracks a scratch file with a generated unique
// name inside the directory.
func (d *Dir) CreateRandomFile(ctx context.Context) (*File, error) {
	if d.res == nil {
		return nil, errors.WithStack(ErrDisposed)
	}

	f, err := createRandomFileIn(ctx, d.res.osi, d.res.path, &d.opts)
	if err != nil {
		return nil, err
	}

	d.res.children = append(d.res.children, f)

	return f, nil
}

// Lookup returns the first tracked child whose base name matches name and
// whose lifecycle has not ended, or nil when there is none.
func (d *Dir) Lookup(name string) *File {
	if d.res == nil {
		return nil
	}

	for _, c := range d.res.children {
		if c.Active() && c.Name() == name {
			return c
		}
	}

	return nil
}

// ListFiles returns the current paths of all tracked children that are still
// Active, in tracking order.
func (d *Dir) ListFiles() []string {
	if d.res == nil {
		return nil
	}

	var paths []string

	for _, c := range d.res.children {
		if c.Active() {
			paths = append(paths, c.Path())
		}
	}

	return paths
}

// FindFiles returns the tracked Active children whose base name matches the
// regular expression pattern. A pattern that does not compile fails with
// ErrInvalidPattern.
func (d *Dir) FindFiles(pattern string) ([]*File, error) {
	if d.res == nil {
		return nil, errors.WithStack(ErrDisposed)
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidPattern, "%v", err)
	}

	var matched []*File

	for _, c := range d.res.children {
		if c.Active() && re.MatchString(c.Name()) {
			matched = append(matched, c)
		}
	}

	return matched, nil
}

// RemoveFile removes the tracked children whose base name matches name from
// the filesystem immediately and stops tracking them. Children whose
// lifecycle already ended never match. Removing a name with no match is a
// no-op.
func (d *Dir) RemoveFile(ctx context.Context, name string) error {
	if d.res == nil {
		return errors.WithStack(ErrDisposed)
	}

	var err error

	kept := d.res.children[:0]

	for _, c := range d.res.children {
		if c.Active() && c.Name() == name {
			log(ctx).Debugf("removing tracked file %v", c.Path())

			if removeErr := c.releaseNow(); removeErr != nil {
				err = stderrors.Join(err, removeErr)
			}

			continue
		}

		kept = append(kept, c)
	}

	d.res.children = kept

	return errors.Wrap(err, "unable to remove tracked file")
}

// Persist releases the directory from scratch cleanup and returns its path.
// Tracked children are still disposed of: only the directory entry itself
// and whatever non-tracked content it holds survive.
func (d *Dir) Persist(ctx context.Context) (string, error) {
	if d.res == nil {
		return "", errors.WithStack(ErrDisposed)
	}

	for _, c := range d.res.children {
		c.discard(ctx)
	}

	d.cleanup.Stop()

	p := d.res.path
	log(ctx).Debugf("persisted scratch directory %v", p)
	d.res = nil

	return p, nil
}

// Delete tears the registry down: children are disposed first, then the
// directory tree is removed, including the ancestor subtree created during
// construction.
func (d *Dir) Delete(ctx context.Context) error {
	if d.res == nil {
		return errors.WithStack(ErrDisposed)
	}

	d.cleanup.Stop()

	t0 := clock.Now()
	p := d.res.path
	err := d.res.release()
	log(ctx).Debugf("deleted scratch directory %v in %v", p, clock.Since(t0))
	d.res = nil

	return errors.Wrap(err, "unable to delete scratch directory")
}

// Discard tears the registry down like Delete but silently; errors are
// swallowed by policy. Discarding after any other disposal is a no-op, so
// deferring Discard unconditionally is safe.
func (d *Dir) Discard(ctx context.Context) {
	if d.res == nil {
		return
	}

	d.cleanup.Stop()

	p := d.res.path

	if err := d.res.release(); err != nil {
		log(ctx).Debugw("unable to release scratch directory", "path", p, "error", err)
	}

	d.res = nil
}
