package database

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
)

// Kind selects one of the three artifact trees.
type Kind int

const (
	KindSlice Kind = iota
	KindTrace
	KindFeature
)

func (k Kind) String() string {
	switch k {
	case KindSlice:
		return "slice"
	case KindTrace:
		return "trace"
	default:
		return "feature"
	}
}

// root returns the on-disk tree for the kind. Traces live under "dugraphs"
// for historical reasons: one def-use graph per observed execution.
func (db *Database) root(k Kind) string {
	switch k {
	case KindSlice:
		return db.slicesDir()
	case KindTrace:
		return db.dugraphsDir()
	default:
		return db.featuresDir()
	}
}

// Coord addresses one artifact. TraceID is ignored for KindSlice.
type Coord struct {
	Func    string
	BC      string
	SliceID int
	TraceID int
}

func (c Coord) String() string {
	return fmt.Sprintf("%s/%s/%d/%d", c.Func, c.BC, c.SliceID, c.TraceID)
}

// docPath is the canonical file location for an artifact coordinate.
// Slices store one document per slice id; traces and features nest one
// document per trace id under the slice.
func (db *Database) docPath(k Kind, c Coord) string {
	base := filepath.Join(db.root(k), c.Func, c.BC)
	if k == KindSlice {
		return filepath.Join(base, strconv.Itoa(c.SliceID)+".json")
	}
	return filepath.Join(base, strconv.Itoa(c.SliceID), strconv.Itoa(c.TraceID)+".json")
}

// EnsureNamespace idempotently creates the directory that will hold the
// artifact at the given coordinate and returns it. Safe to call repeatedly.
func (db *Database) EnsureNamespace(k Kind, c Coord) (string, error) {
	dir := filepath.Dir(db.docPath(k, c))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("ensure %s namespace: %w", k, err)
	}
	return dir, nil
}

// WriteDocument creates the enclosing namespace as needed and writes the
// document at the coordinate path, overwriting any prior content. Writes are
// plain whole-file overwrites; there is no versioning and no atomicity
// guarantee against concurrent readers.
func (db *Database) WriteDocument(k Kind, c Coord, doc Document) error {
	if _, err := db.EnsureNamespace(k, c); err != nil {
		return err
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal %s %s: %w", k, c, err)
	}
	if err := os.WriteFile(db.docPath(k, c), data, 0o644); err != nil {
		return fmt.Errorf("write %s %s: %w", k, c, err)
	}
	return nil
}

// ReadDocument returns the stored document at the coordinate. A missing
// artifact is ErrNotFound; undecodable content is a *ParseError.
func (db *Database) ReadDocument(k Kind, c Coord) (Document, error) {
	path := db.docPath(k, c)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s %s: %w", k, c, ErrNotFound)
		}
		return nil, fmt.Errorf("read %s %s: %w", k, c, err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return doc, nil
}

// Slice reads the slice document at (fn, bc, sliceID).
func (db *Database) Slice(fn, bc string, sliceID int) (Document, error) {
	return db.ReadDocument(KindSlice, Coord{Func: fn, BC: bc, SliceID: sliceID})
}

// Trace reads the def-use-graph document at (fn, bc, sliceID, traceID).
func (db *Database) Trace(fn, bc string, sliceID, traceID int) (Document, error) {
	return db.ReadDocument(KindTrace, Coord{Func: fn, BC: bc, SliceID: sliceID, TraceID: traceID})
}

// Feature reads the feature document at (fn, bc, sliceID, traceID).
func (db *Database) Feature(fn, bc string, sliceID, traceID int) (Document, error) {
	return db.ReadDocument(KindFeature, Coord{Func: fn, BC: bc, SliceID: sliceID, TraceID: traceID})
}

// ClearBC removes every analysis artifact recorded for the compiled unit,
// across all functions and all three artifact kinds, with an explicit
// recursive walk. It returns the number of artifact files removed. A unit
// with no artifacts is a successful no-op.
func (db *Database) ClearBC(bc string) (int, error) {
	removed := 0
	for _, k := range []Kind{KindSlice, KindTrace, KindFeature} {
		fns, err := os.ReadDir(db.root(k))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return removed, fmt.Errorf("scan %s tree: %w", k, err)
		}
		for _, fn := range fns {
			if !fn.IsDir() {
				continue
			}
			target := filepath.Join(db.root(k), fn.Name(), bc)
			n, err := countFilesRecursive(target)
			if err != nil {
				return removed, err
			}
			if n == 0 {
				continue
			}
			if err := os.RemoveAll(target); err != nil {
				return removed, fmt.Errorf("clear %s/%s: %w", fn.Name(), bc, err)
			}
			removed += n
		}
	}
	return removed, nil
}

// countFilesRecursive counts regular files under dir; a missing dir is 0.
func countFilesRecursive(dir string) (int, error) {
	count := 0
	err := filepath.WalkDir(dir, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if !d.IsDir() {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("walk %s: %w", dir, err)
	}
	return count, nil
}
