package vfs_test

import (
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scratchfs/scratchfs/vfs"
)

func openTestFile(t *testing.T) *vfs.File {
	t.Helper()

	f, err := vfs.New().Open("/f.txt")
	require.NoError(t, err)

	return f
}

func TestFileCursorRoundTrip(t *testing.T) {
	t.Parallel()

	f := openTestFile(t)

	n, err := f.Write([]byte("hello"))
	require.NoError(t, err)
	require.Equal(t, 5, n)

	// the cursor sits at the end, so an immediate read hits EOF
	_, err = f.Read(make([]byte, 1))
	require.ErrorIs(t, err, io.EOF)

	pos, err := f.Seek(0, io.SeekStart)
	require.NoError(t, err)
	require.Zero(t, pos)

	got, err := io.ReadAll(f)
	require.NoError(t, err)
	require.Equal(t, "hello", string(got))
}

func TestFileOverwriteMiddle(t *testing.T) {
	t.Parallel()

	f := openTestFile(t)

	_, err := f.Write([]byte("abcdef"))
	require.NoError(t, err)

	_, err = f.Seek(2, io.SeekStart)
	require.NoError(t, err)

	_, err = f.Write([]byte("XY"))
	require.NoError(t, err)

	require.Equal(t, "abXYef", string(f.ReadAll()))
	require.Equal(t, int64(6), f.Size())
}

func TestFileSparseWriteZeroPads(t *testing.T) {
	t.Parallel()

	f := openTestFile(t)

	_, err := f.Seek(4, io.SeekStart)
	require.NoError(t, err)

	_, err = f.Write([]byte("x"))
	require.NoError(t, err)

	require.Equal(t, []byte{0, 0, 0, 0, 'x'}, f.ReadAll())
}

func TestFileSeekRules(t *testing.T) {
	t.Parallel()

	f := openTestFile(t)

	_, err := f.Write([]byte("abc"))
	require.NoError(t, err)

	pos, err := f.Seek(-1, io.SeekEnd)
	require.NoError(t, err)
	require.Equal(t, int64(2), pos)

	pos, err = f.Seek(10, io.SeekCurrent)
	require.NoError(t, err)
	require.Equal(t, int64(12), pos)

	// negative positions are refused and leave the cursor alone
	_, err = f.Seek(-1, io.SeekStart)
	require.Error(t, err)

	_, err = f.Seek(-100, io.SeekCurrent)
	require.Error(t, err)

	pos, err = f.Seek(0, io.SeekCurrent)
	require.NoError(t, err)
	require.Equal(t, int64(12), pos)

	_, err = f.Seek(0, 42)
	require.Error(t, err)
}

func TestFileReadAllLeavesCursor(t *testing.T) {
	t.Parallel()

	f := openTestFile(t)

	_, err := f.Write([]byte("abcdef"))
	require.NoError(t, err)

	_, err = f.Seek(3, io.SeekStart)
	require.NoError(t, err)

	require.Equal(t, "abcdef", string(f.ReadAll()))

	// the cursor did not move
	got, err := io.ReadAll(f)
	require.NoError(t, err)
	require.Equal(t, "def", string(got))

	// and mutating the returned copy does not touch the file
	all := f.ReadAll()
	all[0] = 'Z'
	require.Equal(t, "abcdef", string(f.ReadAll()))
}

func TestFileMetadataTracksWrites(t *testing.T) {
	t.Parallel()

	fs := vfs.New()

	f, err := fs.Open("/f.txt")
	require.NoError(t, err)

	created := f.Stat().Created
	require.False(t, created.IsZero())
	require.Equal(t, "rw-r--r--", f.Stat().Perm.String())

	_, err = f.Write([]byte("x"))
	require.NoError(t, err)

	require.False(t, f.Stat().Modified.Before(created))
	require.Equal(t, "f.txt", f.Name())
}

func TestPermissionsString(t *testing.T) {
	t.Parallel()

	cases := []struct {
		perm vfs.Permissions
		want string
	}{
		{0o000, "---------"},
		{0o777, "rwxrwxrwx"},
		{0o755, "rwxr-xr-x"},
		{0o640, "rw-r-----"},
		{0o421, "r---w---x"},
	}

	for _, tc := range cases {
		require.Equal(t, tc.want, tc.perm.String(), "perm %o", uint32(tc.perm))
	}
}
