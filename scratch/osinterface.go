package scratch

import "os"

// osInterface is the subset of OS filesystem calls this package performs,
// replaceable in tests for fault injection.
type osInterface interface {
	Open(fname string) (*os.File, error)
	CreateNewFile(fname string, perm os.FileMode) (*os.File, error)
	Stat(fname string) (os.FileInfo, error)
	Mkdir(dirname string, perm os.FileMode) error
	MkdirAll(dirname string, perm os.FileMode) error
	Remove(fname string) error
	RemoveAll(path string) error
	Chmod(fname string, mode os.FileMode) error
	Getwd() (string, error)
	TempDir() string

	IsExist(err error) bool
	IsNotExist(err error) bool
}

// realOS implements osInterface using the real operating system.
type realOS struct{}

//nolint:wrapcheck
func (realOS) Open(fname string) (*os.File, error) {
	return os.Open(fname)
}

// CreateNewFile creates the named file exclusively, failing when an entry
// already occupies the path.
//
//nolint:wrapcheck
func (realOS) CreateNewFile(fname string, perm os.FileMode) (*os.File, error) {
	return os.OpenFile(fname, os.O_RDWR|os.O_CREATE|os.O_EXCL, perm)
}

//nolint:wrapcheck
func (realOS) Stat(fname string) (os.FileInfo, error) {
	return os.Stat(fname)
}

//nolint:wrapcheck
func (realOS) Mkdir(dirname string, perm os.FileMode) error {
	return os.Mkdir(dirname, perm)
}

//nolint:wrapcheck
func (realOS) MkdirAll(dirname string, perm os.FileMode) error {
	return os.MkdirAll(dirname, perm)
}

//nolint:wrapcheck
func (realOS) Remove(fname string) error {
	return os.Remove(fname)
}

//nolint:wrapcheck
func (realOS) RemoveAll(path string) error {
	return os.RemoveAll(path)
}

//nolint:wrapcheck
func (realOS) Chmod(fname string, mode os.FileMode) error {
	return os.Chmod(fname, mode)
}

//nolint:wrapcheck
func (realOS) Getwd() (string, error) {
	return os.Getwd()
}

func (realOS) TempDir() string {
	return os.TempDir()
}

func (realOS) IsExist(err error) bool {
	return os.IsExist(err)
}

func (realOS) IsNotExist(err error) bool {
	return os.IsNotExist(err)
}

var _ osInterface = realOS{}
