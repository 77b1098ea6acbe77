package scratch

import (
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
)

func isSeparator(r rune) bool {
	return r < utf8.RuneSelf && os.IsPathSeparator(uint8(r))
}

// pathComponents splits a path into its components. A volume name and the
// root separator of an absolute path count as leading components; fixed is
// how many of those there are, since ".." popping never crosses them.
func pathComponents(path string) (parts []string, fixed int) {
	vol := filepath.VolumeName(path)
	rest := path[len(vol):]

	if vol != "" {
		parts = append(parts, vol)
	}

	if rest != "" && os.IsPathSeparator(rest[0]) {
		parts = append(parts, string(filepath.Separator))
	}

	fixed = len(parts)

	return append(parts, strings.FieldsFunc(rest, isSeparator)...), fixed
}

// normalizePath resolves "." and ".." lexically, without touching the
// filesystem. A "." in the leading position splices in the current working
// directory; later "." components are dropped. Each ".." pops the most
// recently gathered component but never the volume or root, so "/a/../../b"
// normalizes to "/b" while the relative "a/../../b" normalizes to "b".
func normalizePath(osi osInterface, path string) (string, error) {
	comps, floor := pathComponents(path)

	var parts []string

	for i, comp := range comps {
		switch comp {
		case ".":
			if i == 0 {
				wd, err := osi.Getwd()
				if err != nil {
					return "", errors.Wrap(err, "unable to determine working directory")
				}

				wdParts, wdFixed := pathComponents(wd)
				parts = append(parts, wdParts...)
				floor = wdFixed
			}

		case "..":
			if len(parts) > floor {
				parts = parts[:len(parts)-1]
			}

		default:
			parts = append(parts, comp)
		}
	}

	return filepath.Join(parts...), nil
}

// resolveTempRooted normalizes path and grounds it against the system
// temporary directory when the result is relative.
func resolveTempRooted(osi osInterface, path string) (string, error) {
	p, err := normalizePath(osi, path)
	if err != nil {
		return "", err
	}

	if filepath.IsAbs(p) {
		return p, nil
	}

	return filepath.Join(osi.TempDir(), p), nil
}

// resolveHereRooted normalizes path and grounds it against the process
// working directory when the result is relative.
func resolveHereRooted(osi osInterface, path string) (string, error) {
	p, err := normalizePath(osi, path)
	if err != nil {
		return "", err
	}

	if filepath.IsAbs(p) {
		return p, nil
	}

	wd, err := osi.Getwd()
	if err != nil {
		return "", errors.Wrap(err, "unable to determine working directory")
	}

	return filepath.Join(wd, p), nil
}

// firstMissingDirComponent walks the ancestor chain of path from the top
// down and returns the first prefix that does not exist, or "" when every
// ancestor is present. The leaf itself is never considered.
func firstMissingDirComponent(osi osInterface, path string) string {
	parent := filepath.Dir(path)
	if parent == path {
		return ""
	}

	comps, _ := pathComponents(parent)

	var prefix string

	for _, comp := range comps {
		if prefix == "" {
			prefix = comp
		} else {
			prefix = filepath.Join(prefix, comp)
		}

		if _, err := osi.Stat(prefix); err != nil {
			return prefix
		}
	}

	return ""
}

// isBareName reports whether the location contains no path separators and
// therefore needs re-anchoring during rename. Both separator styles are
// recognized on every platform.
func isBareName(s string) bool {
	return !strings.ContainsAny(s, `/\`)
}
