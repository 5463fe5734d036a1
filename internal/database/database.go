// Package database is the artifact store for the analysis pipeline.
//
// On disk it owns two areas under one root directory:
//
//	packages/<name>/index.json   package metadata (the package index)
//	packages/<name>/source/      opaque source tree, managed externally
//	analysis/slices/<fn>/<bc>/<slice>.json
//	analysis/dugraphs/<fn>/<bc>/<slice>/<trace>.json
//	analysis/features/<fn>/<bc>/<slice>/<trace>.json
//
// Slices, traces and features are written by the external analysis stages;
// this package gives them namespace creation, whole-document read/write,
// enumeration and counting. A temp/ scratch area exists for external
// collaborators and is never interpreted here.
package database

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/purs3lab/arbitrar/internal/logging"
)

// Document is a decoded artifact document. Its contents are opaque to the
// store; consumers pick out the keys they understand.
type Document map[string]any

// Database is the session object owning the package index and the artifact
// tree rooted at dir. There is exactly one writer per database directory;
// no locking is performed against concurrent readers.
type Database struct {
	dir      string
	packages []*Package
	log      *slog.Logger
}

// Open materializes the directory skeleton under dir (creating it if needed)
// and loads the package index. Package entries with missing or malformed
// index.json are skipped, not fatal.
func Open(dir string) (*Database, error) {
	db := &Database{dir: dir, log: logging.New("database")}

	for _, d := range []string{
		db.packagesDir(),
		db.slicesDir(),
		db.dugraphsDir(),
		db.featuresDir(),
		db.tempDir(),
	} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return nil, fmt.Errorf("create %s: %w", d, err)
		}
	}

	if err := db.loadPackages(); err != nil {
		return nil, err
	}
	return db, nil
}

// Dir returns the database root directory.
func (db *Database) Dir() string { return db.dir }

// --- directory layout ---

func (db *Database) packagesDir() string { return filepath.Join(db.dir, "packages") }
func (db *Database) analysisDir() string { return filepath.Join(db.dir, "analysis") }
func (db *Database) slicesDir() string   { return filepath.Join(db.analysisDir(), "slices") }
func (db *Database) dugraphsDir() string { return filepath.Join(db.analysisDir(), "dugraphs") }
func (db *Database) featuresDir() string { return filepath.Join(db.analysisDir(), "features") }
func (db *Database) tempDir() string     { return filepath.Join(db.dir, "temp") }

func (db *Database) packageDir(name string) string {
	return filepath.Join(db.packagesDir(), name)
}

func (db *Database) packageIndexPath(name string) string {
	return filepath.Join(db.packageDir(name), "index.json")
}

// PackageSourceDir returns the opaque source tree location for a package.
// The tree itself is fetched and owned by the external fetch pipeline.
func (db *Database) PackageSourceDir(name string) string {
	return filepath.Join(db.packageDir(name), "source")
}

// --- package index ---

// loadPackages scans packages/*/index.json in sorted order and rebuilds the
// in-memory index. Malformed entries are logged at debug and skipped.
func (db *Database) loadPackages() error {
	db.packages = nil
	entries, err := os.ReadDir(db.packagesDir())
	if err != nil {
		return fmt.Errorf("scan packages: %w", err)
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		indexPath := db.packageIndexPath(e.Name())
		data, err := os.ReadFile(indexPath)
		if err != nil {
			db.log.Debug("skipping package without index", "package", e.Name())
			continue
		}
		var pkg Package
		if err := json.Unmarshal(data, &pkg); err != nil {
			db.log.Debug("skipping package with malformed index", "package", e.Name(), "err", err)
			continue
		}
		db.packages = append(db.packages, &pkg)
	}
	return nil
}

// Upsert writes the package metadata to its canonical index.json (full
// overwrite) and replaces the in-memory entry with the same name, or appends
// if absent. Re-upserting an existing name never grows the index.
func (db *Database) Upsert(pkg *Package) error {
	if pkg == nil || pkg.Name == "" {
		return fmt.Errorf("upsert: package must have a name")
	}
	if err := os.MkdirAll(db.packageDir(pkg.Name), 0o755); err != nil {
		return fmt.Errorf("create package dir: %w", err)
	}
	data, err := json.Marshal(pkg)
	if err != nil {
		return fmt.Errorf("marshal package %s: %w", pkg.Name, err)
	}
	if err := os.WriteFile(db.packageIndexPath(pkg.Name), data, 0o644); err != nil {
		return fmt.Errorf("write package index: %w", err)
	}
	for i, p := range db.packages {
		if p.Name == pkg.Name {
			db.packages[i] = pkg
			return nil
		}
	}
	db.packages = append(db.packages, pkg)
	return nil
}

// HasPackage reports whether a package with the given name is in the index.
func (db *Database) HasPackage(name string) bool {
	_, ok := db.GetPackage(name)
	return ok
}

// GetPackage returns the indexed package with the given name, or false.
func (db *Database) GetPackage(name string) (*Package, bool) {
	for _, p := range db.packages {
		if p.Name == name {
			return p, true
		}
	}
	return nil, false
}

// Packages returns the indexed packages in load order.
func (db *Database) Packages() []*Package {
	out := make([]*Package, len(db.packages))
	copy(out, db.packages)
	return out
}
