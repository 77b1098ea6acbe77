// Package scratch implements ephemeral files and directories whose lifetime
// is bound to a handle. The filesystem entry is removed automatically once
// the handle is discarded or becomes unreachable, unless Persist, Disarm,
// Close or Delete ended the lifecycle first.
package scratch

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/pkg/errors"

	"github.com/scratchfs/scratchfs/internal/stat"
	"github.com/scratchfs/scratchfs/logging"
)

var log = logging.Module("scratch")

// resource couples the location of a live filesystem entry with its open
// handle. A File either holds a complete resource or none at all; path and
// handle are never present one without the other.
type resource struct {
	path          string
	handle        *os.File
	createdParent string
	osi           osInterface
}

// release removes the filesystem entry (the whole created-ancestor subtree
// when one was recorded) and closes the handle.
func (r *resource) release() error {
	var err error

	if r.createdParent != "" {
		err = r.osi.RemoveAll(r.createdParent)
	} else {
		err = r.osi.Remove(r.path)
	}

	if closeErr := r.handle.Close(); closeErr != nil {
		err = stderrors.Join(err, closeErr)
	}

	return err
}

// releaseResource runs when an Active File becomes unreachable without any
// disposal call. Scope-exit removal is silent by policy.
func releaseResource(r *resource) {
	r.release() //nolint:errcheck
}

// File is an ephemeral file. It is always created exclusively, never
// adopting an entry that already occupies its path, and it is removed from
// the filesystem when discarded unless one of Persist, PersistAs,
// PersistHere, Disarm, Close or Delete ended the lifecycle first. All of
// those are one-shot: the first ends the lifecycle and any later one fails
// with ErrDisposed.
//
// A File is a single-owner resource and performs no internal locking.
type File struct {
	res      *resource
	detached *os.File // set by Disarm, kept open until the File is discarded
	opts     Options
	cleanup  runtime.Cleanup
}

// Create creates a scratch file at the given path, creating missing ancestor
// directories. A relative path is grounded against the system temporary
// directory; a leading "." component grounds it against the working
// directory instead.
func Create(ctx context.Context, path string, opts *Options) (*File, error) {
	opts = optionsOrDefault(opts)
	osi := opts.osi()

	target, err := resolveTempRooted(osi, path)
	if err != nil {
		return nil, err
	}

	return createFileAt(ctx, osi, target, opts)
}

// CreateHere is like Create with relative paths grounded against the process
// working directory.
func CreateHere(ctx context.Context, path string, opts *Options) (*File, error) {
	opts = optionsOrDefault(opts)
	osi := opts.osi()

	target, err := resolveHereRooted(osi, path)
	if err != nil {
		return nil, err
	}

	return createFileAt(ctx, osi, target, opts)
}

// CreateRandom creates a scratch file with a generated unique name inside
// dir. An empty dir selects the system temporary directory; a relative dir
// is grounded against it.
func CreateRandom(ctx context.Context, dir string, opts *Options) (*File, error) {
	opts = optionsOrDefault(opts)
	osi := opts.osi()

	parent := osi.TempDir()

	if dir != "" {
		p, err := resolveTempRooted(osi, dir)
		if err != nil {
			return nil, err
		}

		parent = p
	}

	return createRandomFileIn(ctx, osi, parent, opts)
}

// CreateRandomHere creates a scratch file with a generated unique name
// inside dir. An empty dir selects the process working directory; a relative
// dir is grounded against it.
func CreateRandomHere(ctx context.Context, dir string, opts *Options) (*File, error) {
	opts = optionsOrDefault(opts)
	osi := opts.osi()

	var parent string

	if dir == "" {
		wd, err := osi.Getwd()
		if err != nil {
			return nil, errors.Wrap(err, "unable to determine working directory")
		}

		parent = wd
	} else {
		p, err := resolveHereRooted(osi, dir)
		if err != nil {
			return nil, err
		}

		parent = p
	}

	return createRandomFileIn(ctx, osi, parent, opts)
}

// Adopt wraps an externally created path and open handle into a scratch
// file, after verifying that both identify the same filesystem object. On
// success the file enters the ordinary scratch lifecycle, deletion on
// discard included. A relative path is grounded against the working
// directory without normalization.
func Adopt(ctx context.Context, path string, handle *os.File, opts *Options) (*File, error) {
	opts = optionsOrDefault(opts)
	osi := opts.osi()

	if !filepath.IsAbs(path) {
		wd, err := osi.Getwd()
		if err != nil {
			return nil, errors.Wrap(err, "unable to determine working directory")
		}

		path = filepath.Join(wd, path)
	}

	same, err := stat.SameFile(path, handle)
	if err != nil {
		return nil, errors.Wrap(err, "unable to verify handle identity")
	}

	if !same {
		return nil, errors.Wrapf(ErrHandleMismatch, "%v", path)
	}

	log(ctx).Debugf("adopted scratch file %v", path)

	return newFile(&createdResource{path: path, handle: handle}, osi, opts), nil
}

func createFileAt(ctx context.Context, osi osInterface, target string, opts *Options) (*File, error) {
	cr, err := createFileWithParents(ctx, osi, target, opts)
	if err != nil {
		return nil, err
	}

	log(ctx).Debugf("created scratch file %v", cr.path)

	return newFile(cr, osi, opts), nil
}

// createRandomFileIn searches for a free name and creates it exclusively.
// Losing the creation race to a concurrent process counts as a collision and
// consumes one more attempt.
func createRandomFileIn(ctx context.Context, osi osInterface, parent string, opts *Options) (*File, error) {
	gen := newNameGenerator(osi, opts)

	for i := int64(0); i < gen.attempts; i++ {
		candidate, err := gen.generateUnique(parent)
		if err != nil {
			return nil, err
		}

		f, err := createFileAt(ctx, osi, candidate, opts)
		if errors.Is(err, ErrPathExists) {
			continue
		}

		return f, err
	}

	return nil, errors.WithStack(ErrNameExhausted)
}

func newFile(cr *createdResource, osi osInterface, opts *Options) *File {
	res := &resource{
		path:          cr.path,
		handle:        cr.handle,
		createdParent: cr.createdParent,
		osi:           osi,
	}

	f := &File{res: res, opts: *opts}
	f.cleanup = runtime.AddCleanup(f, releaseResource, res)

	return f
}

// Active reports whether the handle still owns a live resource.
func (f *File) Active() bool {
	return f.res != nil
}

// Path returns the current location of the resource, or "" once the
// lifecycle has ended.
func (f *File) Path() string {
	if f.res == nil {
		return ""
	}

	return f.res.path
}

// Name returns the base name of the resource, or "" once the lifecycle has
// ended.
func (f *File) Name() string {
	if f.res == nil {
		return ""
	}

	return filepath.Base(f.res.path)
}

func (f *File) String() string {
	if f.res == nil {
		return "scratch file (disposed)"
	}

	return fmt.Sprintf("scratch file %v", f.res.path)
}

// Handle returns the raw OS handle while the file is Active. The handle is
// only valid until the next disposal call; Disarm keeps it usable for as
// long as the File itself is referenced.
func (f *File) Handle() (*os.File, error) {
	if f.res == nil {
		return nil, errors.WithStack(ErrDisposed)
	}

	return f.res.handle, nil
}

// MustHandle is like Handle but panics on a disposed file. Reserved for call
// sites that established Active by program logic.
func (f *File) MustHandle() *os.File {
	h, err := f.Handle()
	if err != nil {
		panic("scratch: MustHandle called on a disposed file")
	}

	return h
}

// Read reads from the underlying handle at its current offset.
func (f *File) Read(p []byte) (int, error) {
	if f.res == nil {
		return 0, errors.WithStack(ErrDisposed)
	}

	return f.res.handle.Read(p) //nolint:wrapcheck
}

// Write writes to the underlying handle at its current offset.
func (f *File) Write(p []byte) (int, error) {
	if f.res == nil {
		return 0, errors.WithStack(ErrDisposed)
	}

	return f.res.handle.Write(p) //nolint:wrapcheck
}

// Seek moves the handle offset.
func (f *File) Seek(offset int64, whence int) (int64, error) {
	if f.res == nil {
		return 0, errors.WithStack(ErrDisposed)
	}

	return f.res.handle.Seek(offset, whence) //nolint:wrapcheck
}

// Sync commits the current contents of the file to stable storage.
func (f *File) Sync() error {
	if f.res == nil {
		return errors.WithStack(ErrDisposed)
	}

	return errors.Wrap(f.res.handle.Sync(), "unable to sync scratch file")
}

// Stat returns metadata for the resource at its current path.
func (f *File) Stat() (os.FileInfo, error) {
	if f.res == nil {
		return nil, errors.WithStack(ErrDisposed)
	}

	fi, err := f.res.osi.Stat(f.res.path)

	return fi, errors.Wrap(err, "unable to stat scratch file")
}

// Persist ends the scratch lifecycle and hands the raw OS handle to the
// caller. The file stays on disk at its current path and closing the
// returned handle becomes the caller's responsibility.
func (f *File) Persist(ctx context.Context) (*os.File, error) {
	if f.res == nil {
		return nil, errors.WithStack(ErrDisposed)
	}

	f.cleanup.Stop()

	h := f.res.handle
	log(ctx).Debugf("persisted scratch file %v", f.res.path)
	f.res = nil

	return h, nil
}

// PersistAs relocates the file (see Rename) and persists it.
func (f *File) PersistAs(ctx context.Context, newPath string) (*os.File, error) {
	if f.res == nil {
		return nil, errors.WithStack(ErrDisposed)
	}

	if err := f.Rename(ctx, newPath); err != nil {
		return nil, err
	}

	return f.Persist(ctx)
}

// PersistHere relocates the file into the process working directory (see
// RenameHere) and persists it.
func (f *File) PersistHere(ctx context.Context, newPath string) (*os.File, error) {
	if f.res == nil {
		return nil, errors.WithStack(ErrDisposed)
	}

	if err := f.RenameHere(ctx, newPath); err != nil {
		return nil, err
	}

	return f.Persist(ctx)
}

// Disarm ends the scratch lifecycle without deleting the file. The OS handle
// is kept open in memory until the File is discarded or collected, so raw
// handles obtained earlier remain usable while the wrapper itself refuses
// further operations.
func (f *File) Disarm(ctx context.Context) error {
	if f.res == nil {
		return errors.WithStack(ErrDisposed)
	}

	if err := f.res.handle.Sync(); err != nil {
		// the lifecycle is spent either way, fall back to discarding
		f.discard(ctx)

		return errors.Wrap(err, "unable to sync scratch file")
	}

	f.cleanup.Stop()

	log(ctx).Debugf("disarmed scratch file %v", f.res.path)

	f.detached = f.res.handle
	f.res = nil

	return nil
}

// Close syncs and closes the file, ending the scratch lifecycle while
// leaving the file on disk.
func (f *File) Close(ctx context.Context) error {
	if f.res == nil {
		return errors.WithStack(ErrDisposed)
	}

	if err := f.res.handle.Sync(); err != nil {
		f.discard(ctx)

		return errors.Wrap(err, "unable to sync scratch file")
	}

	f.cleanup.Stop()

	err := f.res.handle.Close()
	log(ctx).Debugf("closed scratch file %v", f.res.path)
	f.res = nil

	return errors.Wrap(err, "unable to close scratch file")
}

// Delete syncs, removes the file from the filesystem and closes the handle.
// Only the file entry itself is removed; ancestor directories created during
// construction stay behind, unlike with Discard.
func (f *File) Delete(ctx context.Context) error {
	if f.res == nil {
		return errors.WithStack(ErrDisposed)
	}

	if err := f.res.handle.Sync(); err != nil {
		f.discard(ctx)

		return errors.Wrap(err, "unable to sync scratch file")
	}

	f.cleanup.Stop()

	err := f.res.osi.Remove(f.res.path)

	if closeErr := f.res.handle.Close(); closeErr != nil {
		err = stderrors.Join(err, closeErr)
	}

	log(ctx).Debugf("deleted scratch file %v", f.res.path)
	f.res = nil

	return errors.Wrap(err, "unable to delete scratch file")
}

// Discard ends the scratch lifecycle silently. An Active file is removed
// from the filesystem, together with the ancestor subtree created during
// construction, and its handle closed; errors are swallowed by policy.
// Discarding after any other disposal only releases a handle Disarm left
// open, so deferring Discard unconditionally is safe.
func (f *File) Discard(ctx context.Context) {
	f.discard(ctx)
}

func (f *File) discard(ctx context.Context) {
	p := f.Path()

	if err := f.releaseNow(); err != nil {
		log(ctx).Debugw("unable to release scratch file", "path", p, "error", err)
	}
}

// releaseNow applies scope-exit semantics immediately: remove the entry and
// its created-ancestor subtree, close the handle. Used by Discard and by
// directory teardown, which needs to observe the error.
func (f *File) releaseNow() error {
	if f.res == nil {
		if f.detached != nil {
			err := f.detached.Close()
			f.detached = nil

			return errors.Wrap(err, "unable to close detached handle")
		}

		return nil
	}

	f.cleanup.Stop()

	err := f.res.release()
	f.res = nil

	return errors.Wrap(err, "unable to release scratch file")
}
