package scratch

import "github.com/pkg/errors"

// Well-known errors returned by this package, checkable with errors.Is.
var (
	// ErrDisposed is returned when an operation references a handle whose
	// resource was already persisted, disarmed, closed, deleted or discarded.
	ErrDisposed = errors.New("scratch resource already disposed")

	// ErrPathExists is returned when a creation target is already present on
	// the filesystem.
	ErrPathExists = errors.New("path already exists")

	// ErrHandleMismatch is returned by Adopt when the supplied path and open
	// handle do not identify the same filesystem object.
	ErrHandleMismatch = errors.New("path and handle identify different filesystem objects")

	// ErrInvalidPattern is returned when a file name pattern does not compile.
	ErrInvalidPattern = errors.New("invalid file name pattern")

	// ErrNameExhausted is returned when the random name search exceeds its
	// retry budget without finding a free name.
	ErrNameExhausted = errors.New("unable to generate a unique name")
)
