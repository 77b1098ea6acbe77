package scratch

import (
	"context"
	"os"
	"path/filepath"
	"runtime"

	"github.com/pkg/errors"
)

// createdResource describes a successfully created filesystem entry.
// createdParent is the topmost ancestor directory the call had to create,
// or "" when every ancestor already existed. The leaf never counts as its
// own created parent.
type createdResource struct {
	path          string
	handle        *os.File // nil for directories
	createdParent string
}

// createFileWithParents exclusively creates a file at path, first creating
// any missing ancestor directories. When the leaf creation fails, ancestors
// created by this call are removed again so the filesystem is left exactly
// as it was found.
func createFileWithParents(ctx context.Context, osi osInterface, path string, opts *Options) (*createdResource, error) {
	if _, err := osi.Stat(path); err == nil {
		return nil, errors.Wrapf(ErrPathExists, "cannot create %v", path)
	}

	marker := firstMissingDirComponent(osi, path)

	if marker != "" {
		parent := filepath.Dir(path)

		log(ctx).Debugw("creating ancestor directories", "parent", parent, "topmost", marker)

		if err := osi.MkdirAll(parent, opts.dirMode()); err != nil {
			rollback(ctx, osi, marker)

			return nil, errors.Wrap(err, "unable to create parent directories")
		}
	}

	f, err := osi.CreateNewFile(path, opts.fileMode())
	if err != nil {
		rollback(ctx, osi, marker)

		if osi.IsExist(err) {
			return nil, errors.Wrapf(ErrPathExists, "cannot create %v", path)
		}

		return nil, errors.Wrap(err, "unable to create file")
	}

	if err := hardenCreated(osi, marker, path, opts.fileMode(), opts.dirMode()); err != nil {
		f.Close() //nolint:errcheck
		_ = osi.Remove(path)
		rollback(ctx, osi, marker)

		return nil, err
	}

	return &createdResource{path: path, handle: f, createdParent: marker}, nil
}

// createDirWithParents creates a directory at path along with any missing
// ancestors. With exclusive set, an entry already occupying path is a
// collision error; otherwise an existing directory is adopted as-is.
func createDirWithParents(ctx context.Context, osi osInterface, path string, exclusive bool, opts *Options) (*createdResource, error) {
	leafMissing := true

	if _, err := osi.Stat(path); err == nil {
		if exclusive {
			return nil, errors.Wrapf(ErrPathExists, "cannot create %v", path)
		}

		leafMissing = false
	}

	marker := firstMissingDirComponent(osi, path)

	if marker != "" {
		if err := osi.MkdirAll(filepath.Dir(path), opts.dirMode()); err != nil {
			rollback(ctx, osi, marker)

			return nil, errors.Wrap(err, "unable to create parent directories")
		}
	}

	if leafMissing {
		if err := osi.Mkdir(path, opts.dirMode()); err != nil {
			switch {
			case !osi.IsExist(err):
				rollback(ctx, osi, marker)

				return nil, errors.Wrap(err, "unable to create directory")

			case exclusive:
				rollback(ctx, osi, marker)

				return nil, errors.Wrapf(ErrPathExists, "cannot create %v", path)

			default:
				// lost a creation race, adopt the winner's directory
				leafMissing = false
			}
		}
	}

	if leafMissing {
		if err := hardenCreated(osi, marker, path, opts.dirMode(), opts.dirMode()); err != nil {
			_ = osi.Remove(path)
			rollback(ctx, osi, marker)

			return nil, err
		}
	}

	return &createdResource{path: path, createdParent: marker}, nil
}

// hardenCreated applies owner-only permission bits to the target and to every
// ancestor directory created by the same call, countering a permissive umask
// or inherited mode. Windows has no equivalent permission model, so the pass
// is skipped there.
func hardenCreated(osi osInterface, marker, target string, targetMode, dirMode os.FileMode) error {
	if runtime.GOOS == "windows" {
		return nil
	}

	if marker != "" {
		for _, dir := range dirChainBetween(marker, filepath.Dir(target)) {
			if err := osi.Chmod(dir, dirMode); err != nil {
				return errors.Wrap(err, "unable to set directory permissions")
			}
		}
	}

	return errors.Wrap(osi.Chmod(target, targetMode), "unable to set permissions")
}

// dirChainBetween lists top and every directory below it down to bottom,
// topmost first. top must be bottom or one of its ancestors.
func dirChainBetween(top, bottom string) []string {
	var chain []string

	for p := bottom; ; {
		chain = append(chain, p)

		if p == top {
			break
		}

		parent := filepath.Dir(p)
		if parent == p {
			break
		}

		p = parent
	}

	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}

	return chain
}

// rollback removes the whole subtree of ancestors created by a failed
// construction. The construction error is what the caller propagates, so a
// failure here is only logged.
func rollback(ctx context.Context, osi osInterface, marker string) {
	if marker == "" {
		return
	}

	if err := osi.RemoveAll(marker); err != nil {
		log(ctx).Debugw("unable to roll back created directories", "path", marker, "error", err)
	}
}
