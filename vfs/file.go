package vfs

import (
	"io"
	"time"

	"github.com/pkg/errors"

	"github.com/scratchfs/scratchfs/internal/clock"
)

// Permissions holds the low nine Unix permission bits.
type Permissions uint32

// String renders the bits in ls style, e.g. "rwxr-x---".
func (p Permissions) String() string {
	const symbols = "rwx"

	out := make([]byte, 0, 9)

	for i := 8; i >= 0; i-- {
		if p&(1<<i) == 0 {
			out = append(out, '-')
			continue
		}

		out = append(out, symbols[2-i%3])
	}

	return string(out)
}

// Metadata describes one filesystem entry.
type Metadata struct {
	Perm     Permissions
	Owner    string
	Group    string
	Created  time.Time
	Modified time.Time
}

func newMetadata(perm Permissions) Metadata {
	now := clock.Now()

	return Metadata{
		Perm:     perm,
		Owner:    "root",
		Group:    "root",
		Created:  now,
		Modified: now,
	}
}

// File is an in-memory file: a content buffer plus a single cursor shared by
// reads and writes.
type File struct {
	name string
	meta Metadata
	data []byte
	pos  int
}

// Name returns the file's current base name.
func (f *File) Name() string {
	return f.name
}

// Size returns the content length in bytes.
func (f *File) Size() int64 {
	return int64(len(f.data))
}

// Stat returns a copy of the file's metadata.
func (f *File) Stat() Metadata {
	return f.meta
}

func (f *File) Read(p []byte) (int, error) {
	if f.pos >= len(f.data) {
		return 0, io.EOF
	}

	n := copy(p, f.data[f.pos:])
	f.pos += n

	return n, nil
}

// Write writes at the cursor, growing the buffer as needed. A cursor parked
// beyond the end zero-fills the gap first.
func (f *File) Write(p []byte) (int, error) {
	if f.pos > len(f.data) {
		f.data = append(f.data, make([]byte, f.pos-len(f.data))...)
	}

	n := copy(f.data[f.pos:], p)
	if n < len(p) {
		f.data = append(f.data, p[n:]...)
	}

	f.pos += len(p)
	f.meta.Modified = clock.Now()

	return len(p), nil
}

// Seek moves the cursor. Positions beyond the end are allowed and take
// effect on the next write; negative positions are an error.
func (f *File) Seek(offset int64, whence int) (int64, error) {
	var base int64

	switch whence {
	case io.SeekStart:
		base = 0
	case io.SeekCurrent:
		base = int64(f.pos)
	case io.SeekEnd:
		base = int64(len(f.data))
	default:
		return 0, errors.Errorf("invalid whence %v", whence)
	}

	pos := base + offset
	if pos < 0 {
		return 0, errors.Errorf("negative position %v", pos)
	}

	f.pos = int(pos)

	return pos, nil
}

// ReadAll returns a copy of the whole content without moving the cursor.
func (f *File) ReadAll() []byte {
	out := make([]byte, len(f.data))
	copy(out, f.data)

	return out
}
