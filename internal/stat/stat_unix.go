//go:build !windows
// +build !windows

// Package stat provides a cross-platform identity check
// for paths and open file handles.
package stat

import (
	"os"
	"syscall"

	"github.com/pkg/errors"
)

// SameFile reports whether path and the open file f refer to the same
// underlying filesystem object, compared by device and inode numbers.
func SameFile(path string, f *os.File) (bool, error) {
	var pst syscall.Stat_t

	if err := syscall.Stat(path, &pst); err != nil {
		return false, errors.Wrapf(err, "unable to stat %v", path)
	}

	fi, err := f.Stat()
	if err != nil {
		return false, errors.Wrap(err, "unable to stat open handle")
	}

	fst, ok := fi.Sys().(*syscall.Stat_t)
	if !ok {
		return false, errors.Errorf("unexpected stat type %T", fi.Sys())
	}

	return pst.Dev == fst.Dev && pst.Ino == fst.Ino, nil
}
