package scratch

import (
	"os"
	"sync/atomic"

	"github.com/pkg/errors"
)

var errUnderlyingProblem = errors.Errorf("underlying problem")

// mockOS injects failures into individual OS calls. Each *RemainingErrors
// counter makes the next N calls of that operation fail before passing
// through to the embedded implementation.
type mockOS struct {
	openRemainingErrors          int32
	createNewFileRemainingErrors int32
	statRemainingErrors          int32
	mkdirRemainingErrors         int32
	mkdirAllRemainingErrors      int32
	removeRemainingErrors        int32
	removeAllRemainingErrors     int32
	chmodRemainingErrors         int32

	tempDirOverride string
	getwdOverride   string

	osInterface
}

func newMockOS() *mockOS {
	return &mockOS{osInterface: realOS{}}
}

func (osi *mockOS) Open(fname string) (*os.File, error) {
	if atomic.AddInt32(&osi.openRemainingErrors, -1) >= 0 {
		return nil, &os.PathError{Op: "open", Path: fname, Err: errUnderlyingProblem}
	}

	return osi.osInterface.Open(fname)
}

func (osi *mockOS) CreateNewFile(fname string, perm os.FileMode) (*os.File, error) {
	if atomic.AddInt32(&osi.createNewFileRemainingErrors, -1) >= 0 {
		return nil, &os.PathError{Op: "create", Path: fname, Err: errUnderlyingProblem}
	}

	return osi.osInterface.CreateNewFile(fname, perm)
}

func (osi *mockOS) Stat(fname string) (os.FileInfo, error) {
	if atomic.AddInt32(&osi.statRemainingErrors, -1) >= 0 {
		return nil, &os.PathError{Op: "stat", Path: fname, Err: errUnderlyingProblem}
	}

	return osi.osInterface.Stat(fname)
}

func (osi *mockOS) Mkdir(dirname string, perm os.FileMode) error {
	if atomic.AddInt32(&osi.mkdirRemainingErrors, -1) >= 0 {
		return &os.PathError{Op: "mkdir", Path: dirname, Err: errUnderlyingProblem}
	}

	return osi.osInterface.Mkdir(dirname, perm)
}

func (osi *mockOS) MkdirAll(dirname string, perm os.FileMode) error {
	if atomic.AddInt32(&osi.mkdirAllRemainingErrors, -1) >= 0 {
		return &os.PathError{Op: "mkdir", Path: dirname, Err: errUnderlyingProblem}
	}

	return osi.osInterface.MkdirAll(dirname, perm)
}

func (osi *mockOS) Remove(fname string) error {
	if atomic.AddInt32(&osi.removeRemainingErrors, -1) >= 0 {
		return &os.PathError{Op: "unlink", Path: fname, Err: errUnderlyingProblem}
	}

	return osi.osInterface.Remove(fname)
}

func (osi *mockOS) RemoveAll(path string) error {
	if atomic.AddInt32(&osi.removeAllRemainingErrors, -1) >= 0 {
		return &os.PathError{Op: "removeall", Path: path, Err: errUnderlyingProblem}
	}

	return osi.osInterface.RemoveAll(path)
}

func (osi *mockOS) Chmod(fname string, mode os.FileMode) error {
	if atomic.AddInt32(&osi.chmodRemainingErrors, -1) >= 0 {
		return &os.PathError{Op: "chmod", Path: fname, Err: errUnderlyingProblem}
	}

	return osi.osInterface.Chmod(fname, mode)
}

func (osi *mockOS) TempDir() string {
	if osi.tempDirOverride != "" {
		return osi.tempDirOverride
	}

	return osi.osInterface.TempDir()
}

func (osi *mockOS) Getwd() (string, error) {
	if osi.getwdOverride != "" {
		return osi.getwdOverride, nil
	}

	return osi.osInterface.Getwd()
}
