package database

import (
	"fmt"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"strings"
)

// BCFiles lazily enumerates compiled-unit identifiers, in index order and
// then unit listing order within a package. When pkgName is non-empty, only
// that package's units are produced; naming a package absent from the index
// is ErrUnknownPackage. With full set, identifiers are absolute paths under
// the package directory; otherwise they are base names.
func (db *Database) BCFiles(pkgName string, full bool) (iter.Seq[string], error) {
	if pkgName != "" && !db.HasPackage(pkgName) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPackage, pkgName)
	}
	return func(yield func(string) bool) {
		for _, pkg := range db.packages {
			if pkgName != "" && pkg.Name != pkgName {
				continue
			}
			for _, f := range pkg.Build.BCFiles {
				name := filepath.Base(f)
				if full {
					name = filepath.Join(db.packageDir(pkg.Name), f)
				}
				if !yield(name) {
					return
				}
			}
		}
	}, nil
}

// FindBCName returns the first compiled-unit name containing fragment as a
// substring, scanning packages in index order and units in listing order.
// First match wins; this is deterministic only relative to the fixed index
// order, not a best match.
func (db *Database) FindBCName(fragment string) (string, bool) {
	for _, pkg := range db.packages {
		for _, name := range pkg.BCNames() {
			if strings.Contains(name, fragment) {
				return name, true
			}
		}
	}
	return "", false
}

// NumSlices counts slice artifacts. Both filters given restricts to the
// (function, unit) namespace; only fn counts recursively across that
// function's units; only bc walks the whole slice tree and sums the files of
// every leaf directory whose name contains bc as a substring; neither
// counts the entire slice tree. Namespaces that do not exist count zero.
func (db *Database) NumSlices(fn, bc string) (int, error) {
	switch {
	case fn != "" && bc != "":
		return countFilesRecursive(filepath.Join(db.slicesDir(), fn, bc))
	case fn != "":
		return countFilesRecursive(filepath.Join(db.slicesDir(), fn))
	case bc != "":
		return db.numSlicesByBCFragment(bc)
	default:
		return countFilesRecursive(db.slicesDir())
	}
}

// numSlicesByBCFragment sums files whose containing directory name contains
// the fragment. Same ambiguity class as FindBCName: substring, not exact.
func (db *Database) numSlicesByBCFragment(bc string) (int, error) {
	count := 0
	err := filepath.WalkDir(db.slicesDir(), func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.Contains(filepath.Base(filepath.Dir(path)), bc) {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("walk slices: %w", err)
	}
	return count, nil
}
