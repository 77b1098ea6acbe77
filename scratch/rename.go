package scratch

import (
	"context"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/natefinch/atomic"
	"github.com/pkg/errors"
)

// maxWindowsFilenameLength is the length at which file names start requiring
// the long-filename UNC prefix on Windows.
const maxWindowsFilenameLength = 260

// maybePrefixLongFilenameOnWindows prefixes very long filenames with `\\?\`
// which enables extended-length paths on Windows.
func maybePrefixLongFilenameOnWindows(fname string) string {
	if runtime.GOOS != "windows" {
		return fname
	}

	if len(fname) < maxWindowsFilenameLength || strings.HasPrefix(fname, `\\?\`) {
		return fname
	}

	return `\\?\` + strings.ReplaceAll(fname, "/", `\`)
}

// Rename relocates the file. A location without path separators is a bare
// name re-anchored under the file's current parent directory; anything else
// is used exactly as given. Relocation copies the content to the new
// location, removes the original and only then updates the recorded path, so
// the path never points at a location the resource does not occupy. The raw
// OS handle is left untouched and keeps addressing the original, now
// unlinked file; reopen via Path when the new location is needed.
//
// Renaming a file whose lifecycle has ended does nothing.
func (f *File) Rename(ctx context.Context, newPath string) error {
	if f.res == nil {
		return nil
	}

	target := newPath
	if isBareName(newPath) {
		target = filepath.Join(filepath.Dir(f.res.path), newPath)
	}

	return f.relocate(ctx, target)
}

// RenameHere relocates the file like Rename, except that a bare name is
// re-anchored under the process working directory.
func (f *File) RenameHere(ctx context.Context, newPath string) error {
	if f.res == nil {
		return nil
	}

	target := newPath

	if isBareName(newPath) {
		wd, err := f.res.osi.Getwd()
		if err != nil {
			return errors.Wrap(err, "unable to determine working directory")
		}

		target = filepath.Join(wd, newPath)
	}

	return f.relocate(ctx, target)
}

// relocate copies the resource to target, carries the permission bits over
// and removes the original. The copy goes through a temp file next to the
// target followed by an atomic rename, so a crash mid-copy never leaves a
// partially written target visible.
func (f *File) relocate(ctx context.Context, target string) error {
	fi, err := f.res.osi.Stat(f.res.path)
	if err != nil {
		return errors.Wrap(err, "unable to stat relocation source")
	}

	src, err := f.res.osi.Open(f.res.path)
	if err != nil {
		return errors.Wrap(err, "unable to open relocation source")
	}

	defer src.Close() //nolint:errcheck

	if err := atomic.WriteFile(maybePrefixLongFilenameOnWindows(target), src); err != nil {
		return errors.Wrap(err, "unable to copy to relocation target")
	}

	if err := f.res.osi.Chmod(target, fi.Mode().Perm()); err != nil {
		_ = f.res.osi.Remove(target)

		return errors.Wrap(err, "unable to carry permissions to relocation target")
	}

	if err := f.res.osi.Remove(f.res.path); err != nil {
		return errors.Wrap(err, "unable to remove relocation source")
	}

	log(ctx).Debugw("relocated scratch file", "from", f.res.path, "to", target)
	f.res.path = target

	return nil
}
