// Package fsops performs the filesystem side effects task steps are allowed
// to have: removing build output, removing files that match a glob, and
// creating output directories. All operations go through an afero.Fs and
// treat an already-absent target as success.
package fsops

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"
)

// DirPerm is the permission used for directories created by MkdirAll.
const DirPerm = 0o755

// RemoveAll deletes path and everything below it. A missing path is not an
// error.
func RemoveAll(fsys afero.Fs, path string) error {
	if _, err := fsys.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) || os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if err := fsys.RemoveAll(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove %s: %w", path, err)
	}
	return nil
}

// Glob returns the paths below root matching a doublestar pattern such as
// "**/coverage.txt". Returned paths are joined with root and sorted. A
// missing root yields no matches.
func Glob(fsys afero.Fs, root, pattern string) ([]string, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid glob pattern %q", pattern)
	}
	if ok, err := afero.DirExists(fsys, root); err != nil {
		return nil, fmt.Errorf("stat %s: %w", root, err)
	} else if !ok {
		return nil, nil
	}

	iofs := afero.NewIOFS(afero.NewBasePathFs(fsys, root))
	matches, err := doublestar.Glob(iofs, filepath.ToSlash(pattern))
	if err != nil {
		return nil, fmt.Errorf("glob %q under %s: %w", pattern, root, err)
	}

	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, filepath.Join(root, filepath.FromSlash(m)))
	}
	sort.Strings(out)
	return out, nil
}

// RemoveGlob deletes every path below root that matches pattern and returns
// the removed paths. No matches is not an error.
func RemoveGlob(fsys afero.Fs, root, pattern string) ([]string, error) {
	matches, err := Glob(fsys, root, pattern)
	if err != nil {
		return nil, err
	}
	removed := make([]string, 0, len(matches))
	for _, m := range matches {
		if err := RemoveAll(fsys, m); err != nil {
			return removed, err
		}
		removed = append(removed, m)
	}
	return removed, nil
}

// MkdirAll creates path and any missing parents.
func MkdirAll(fsys afero.Fs, path string) error {
	if err := fsys.MkdirAll(path, DirPerm); err != nil {
		return fmt.Errorf("mkdir %s: %w", path, err)
	}
	return nil
}
