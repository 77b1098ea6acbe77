package vfs_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	petname "github.com/dustinkirkland/golang-petname"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/scratchfs/scratchfs/internal/testutil"
	"github.com/scratchfs/scratchfs/vfs"
)

func TestMkdirTouchLs(t *testing.T) {
	t.Parallel()

	fs := vfs.New()

	require.NoError(t, fs.Mkdir("/a/b"))
	require.NoError(t, fs.Mkdir("/a/z"))
	require.NoError(t, fs.Touch("/a/f.txt"))
	require.NoError(t, fs.Touch("/a/g.txt"))

	got, err := fs.Ls("/a")
	require.NoError(t, err)

	// directories first, then files, both in creation order
	if diff := cmp.Diff([]string{"b/", "z/", "f.txt", "g.txt"}, got); diff != "" {
		t.Fatalf("unexpected listing (-want +got):\n%v", diff)
	}

	// mkdir of an existing directory chain is a no-op
	require.NoError(t, fs.Mkdir("/a/b"))

	// a file in the way is not
	require.ErrorIs(t, fs.Mkdir("/a/f.txt/deeper"), vfs.ErrExists)

	_, err = fs.Ls("/missing")
	require.ErrorIs(t, err, vfs.ErrNotFound)
}

func TestTouchRules(t *testing.T) {
	t.Parallel()

	fs := vfs.New()

	require.NoError(t, fs.Mkdir("/a"))

	// parents are not created implicitly
	require.ErrorIs(t, fs.Touch("/nope/f.txt"), vfs.ErrNotFound)

	require.NoError(t, fs.Touch("/a/f.txt"))

	// touching an existing file keeps its content
	f, err := fs.Open("/a/f.txt")
	require.NoError(t, err)

	_, err = f.Write([]byte("payload"))
	require.NoError(t, err)

	require.NoError(t, fs.Touch("/a/f.txt"))
	require.Equal(t, []byte("payload"), f.ReadAll())

	// touching a directory is refused
	require.ErrorIs(t, fs.Touch("/a"), vfs.ErrExists)

	// the root is not a file
	require.ErrorIs(t, fs.Touch("/"), vfs.ErrInvalidPath)
}

func TestCdPwdRelativePaths(t *testing.T) {
	t.Parallel()

	fs := vfs.New()

	require.Equal(t, "/", fs.Pwd())
	require.NoError(t, fs.Mkdir("/a/b"))

	require.NoError(t, fs.Cd("a"))
	require.Equal(t, "/a", fs.Pwd())

	require.NoError(t, fs.Cd("b"))
	require.Equal(t, "/a/b", fs.Pwd())

	// relative entries resolve against the working directory
	require.NoError(t, fs.Touch("f.txt"))

	_, err := fs.Lookup("/a/b/f.txt")
	require.NoError(t, err)

	require.NoError(t, fs.Cd(".."))
	require.Equal(t, "/a", fs.Pwd())

	// ".." clamps at the root
	require.NoError(t, fs.Cd("../../.."))
	require.Equal(t, "/", fs.Pwd())

	// cd onto a missing entry or a file leaves the working directory alone
	require.ErrorIs(t, fs.Cd("/missing"), vfs.ErrNotFound)
	require.ErrorIs(t, fs.Cd("/a/b/f.txt"), vfs.ErrNotFound)
	require.Equal(t, "/", fs.Pwd())
}

func TestRm(t *testing.T) {
	t.Parallel()

	fs := vfs.New()

	require.NoError(t, fs.Mkdir("/a"))
	require.NoError(t, fs.Touch("/a/f.txt"))

	require.NoError(t, fs.Rm("/a/f.txt"))

	got, err := fs.Ls("/a")
	require.NoError(t, err)
	require.Empty(t, got)

	require.ErrorIs(t, fs.Rm("/a/f.txt"), vfs.ErrNotFound)
	require.ErrorIs(t, fs.Rm("/a"), vfs.ErrInvalidPath)
}

func TestRmdir(t *testing.T) {
	t.Parallel()

	fs := vfs.New()

	require.NoError(t, fs.Mkdir("/a/b"))
	require.NoError(t, fs.Touch("/a/b/f.txt"))

	require.ErrorIs(t, fs.Rmdir("/a/b"), vfs.ErrNotEmpty)

	require.NoError(t, fs.Rm("/a/b/f.txt"))
	require.NoError(t, fs.Rmdir("/a/b"))
	require.ErrorIs(t, fs.Rmdir("/a/b"), vfs.ErrNotFound)

	require.ErrorIs(t, fs.Rmdir("/"), vfs.ErrInvalidPath)

	// the working directory and its ancestors are protected
	require.NoError(t, fs.Mkdir("/w/in"))
	require.NoError(t, fs.Cd("/w/in"))
	require.ErrorIs(t, fs.Rmdir("/w/in"), vfs.ErrInvalidPath)
	require.ErrorIs(t, fs.Rmdir("/w"), vfs.ErrInvalidPath)
}

func TestRenameFile(t *testing.T) {
	t.Parallel()

	fs := vfs.New()

	require.NoError(t, fs.Mkdir("/a"))
	require.NoError(t, fs.Mkdir("/b"))

	f, err := fs.Open("/a/old.txt")
	require.NoError(t, err)

	_, err = f.Write([]byte("content"))
	require.NoError(t, err)

	require.NoError(t, fs.Rename("/a/old.txt", "/b/new.txt"))

	_, err = fs.Lookup("/a/old.txt")
	require.ErrorIs(t, err, vfs.ErrNotFound)

	moved, err := fs.Lookup("/b/new.txt")
	require.NoError(t, err)
	require.Equal(t, "new.txt", moved.Name())
	require.Equal(t, []byte("content"), moved.ReadAll())

	// destination must not exist
	require.NoError(t, fs.Touch("/b/taken.txt"))
	require.NoError(t, fs.Touch("/b/other.txt"))
	require.ErrorIs(t, fs.Rename("/b/other.txt", "/b/taken.txt"), vfs.ErrExists)

	// destination parent must exist
	require.ErrorIs(t, fs.Rename("/b/other.txt", "/missing/x.txt"), vfs.ErrNotFound)
}

func TestRenameDirectoryMovesSubtree(t *testing.T) {
	t.Parallel()

	fs := vfs.New()

	require.NoError(t, fs.Mkdir("/a/b"))
	require.NoError(t, fs.Touch("/a/b/f.txt"))

	require.NoError(t, fs.Rename("/a", "/x"))

	_, err := fs.Lookup("/x/b/f.txt")
	require.NoError(t, err)

	_, err = fs.Ls("/a")
	require.ErrorIs(t, err, vfs.ErrNotFound)

	// a directory cannot move into its own subtree
	require.ErrorIs(t, fs.Rename("/x", "/x/b/deeper"), vfs.ErrInvalidPath)

	// nor can the working directory move
	require.NoError(t, fs.Cd("/x/b"))
	require.ErrorIs(t, fs.Rename("/x/b", "/y"), vfs.ErrInvalidPath)
}

func TestChmodChownStat(t *testing.T) {
	t.Parallel()

	fs := vfs.New()

	require.NoError(t, fs.Mkdir("/a"))
	require.NoError(t, fs.Touch("/a/f.txt"))

	md, err := fs.Stat("/a/f.txt")
	require.NoError(t, err)
	require.Equal(t, vfs.Permissions(0o644), md.Perm)
	require.Equal(t, "root", md.Owner)
	require.Equal(t, "root", md.Group)
	require.False(t, md.Created.IsZero())

	require.NoError(t, fs.Chmod("/a/f.txt", 0o640))
	require.NoError(t, fs.Chown("/a/f.txt", "alice", "staff"))

	md, err = fs.Stat("/a/f.txt")
	require.NoError(t, err)
	require.Equal(t, "rw-r-----", md.Perm.String())
	require.Equal(t, "alice", md.Owner)
	require.Equal(t, "staff", md.Group)

	// directories and the root have metadata too
	md, err = fs.Stat("/")
	require.NoError(t, err)
	require.Equal(t, vfs.Permissions(0o755), md.Perm)

	_, err = fs.Stat("/a/missing.txt")
	require.ErrorIs(t, err, vfs.ErrNotFound)
}

func TestImportExport(t *testing.T) {
	t.Parallel()

	fs := vfs.New()
	content := petname.Generate(4, "-")

	n, err := fs.ImportFile("/imported.txt", strings.NewReader(content))
	require.NoError(t, err)
	require.Equal(t, int64(len(content)), n)

	// importing replaces previous content wholesale
	n, err = fs.ImportFile("/imported.txt", strings.NewReader("short"))
	require.NoError(t, err)
	require.Equal(t, int64(5), n)

	var out bytes.Buffer

	n, err = fs.ExportFile("/imported.txt", &out)
	require.NoError(t, err)
	require.Equal(t, int64(5), n)
	require.Equal(t, "short", out.String())

	_, err = fs.ExportFile("/missing.txt", &out)
	require.ErrorIs(t, err, vfs.ErrNotFound)
}

func TestImportPath(t *testing.T) {
	t.Parallel()

	fs := vfs.New()
	tmp := testutil.TempDirectory(t)

	diskPath := filepath.Join(tmp, "src.bin")
	require.NoError(t, os.WriteFile(diskPath, bytes.Repeat([]byte{0xab}, 100_000), 0o600))

	n, err := fs.ImportPath("/big.bin", diskPath)
	require.NoError(t, err)
	require.Equal(t, int64(100_000), n)

	f, err := fs.Lookup("/big.bin")
	require.NoError(t, err)
	require.Equal(t, int64(100_000), f.Size())

	_, err = fs.ImportPath("/nope.bin", filepath.Join(tmp, "does-not-exist"))
	require.Error(t, err)
}
