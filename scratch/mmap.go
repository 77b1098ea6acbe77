package scratch

import (
	mmap "github.com/edsrzf/mmap-go"
	"github.com/pkg/errors"
)

// Mapping is a memory-mapped view of a scratch file. It stays valid only
// while the originating File is Active; ending the file's lifecycle with a
// mapping still open is the caller's mistake.
type Mapping struct {
	data mmap.MMap
}

// Map returns a read-only memory mapping of the file's current contents.
func (f *File) Map() (*Mapping, error) {
	return f.mapWithProt(mmap.RDONLY)
}

// MapMutable returns a writable memory mapping of the file's current
// contents. Call Flush to push modifications back to the file.
func (f *File) MapMutable() (*Mapping, error) {
	return f.mapWithProt(mmap.RDWR)
}

func (f *File) mapWithProt(prot int) (*Mapping, error) {
	if f.res == nil {
		return nil, errors.WithStack(ErrDisposed)
	}

	m, err := mmap.Map(f.res.handle, prot, 0)
	if err != nil {
		return nil, errors.Wrap(err, "unable to map scratch file")
	}

	return &Mapping{data: m}, nil
}

// Bytes exposes the mapped view. The slice is invalidated by Close.
func (m *Mapping) Bytes() []byte {
	return m.data
}

// Flush commits modifications made through a mutable mapping to the file.
func (m *Mapping) Flush() error {
	if m.data == nil {
		return nil
	}

	return errors.Wrap(m.data.Flush(), "unable to flush mapping")
}

// Close unmaps the view. Closing an already closed mapping is a no-op.
func (m *Mapping) Close() error {
	if m.data == nil {
		return nil
	}

	err := m.data.Unmap()
	m.data = nil

	return errors.Wrap(err, "unable to unmap scratch file")
}
