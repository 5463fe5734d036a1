package database

import (
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// DataPoint is the transient join of one slice and one observed trace, the
// unit of active-learning labeling. The slice document is loaded when the
// point is produced; the trace and feature documents are read on demand.
type DataPoint struct {
	Func    string
	BC      string
	SliceID int
	TraceID int

	db    *Database
	slice Document
}

// Slice returns the already-loaded slice document.
func (dp *DataPoint) Slice() Document { return dp.slice }

// Trace loads the def-use-graph document for this point.
func (dp *DataPoint) Trace() (Document, error) {
	return dp.db.Trace(dp.Func, dp.BC, dp.SliceID, dp.TraceID)
}

// Feature loads the feature document for this point.
func (dp *DataPoint) Feature() (Document, error) {
	return dp.db.Feature(dp.Func, dp.BC, dp.SliceID, dp.TraceID)
}

// HasLabel reports whether the slice document carries the given ground-truth
// label, either as its "label" value or in its "labels" list.
func (dp *DataPoint) HasLabel(label string) bool {
	if s, ok := dp.slice["label"].(string); ok && s == label {
		return true
	}
	if list, ok := dp.slice["labels"].([]any); ok {
		for _, v := range list {
			if s, ok := v.(string); ok && s == label {
				return true
			}
		}
	}
	return false
}

// AlarmNames returns the alarm names recorded on the slice document, if any.
// Used by CSV reports.
func (dp *DataPoint) AlarmNames() []string {
	list, ok := dp.slice["alarms"].([]any)
	if !ok {
		return nil
	}
	names := make([]string, 0, len(list))
	for _, v := range list {
		if s, ok := v.(string); ok {
			names = append(names, s)
		}
	}
	return names
}

func (dp *DataPoint) String() string {
	return fmt.Sprintf("%s/%s/%d/%d", dp.Func, dp.BC, dp.SliceID, dp.TraceID)
}

// DataPoints returns a lazy, single-pass stream of the function's data
// points. It fails eagerly with ErrNotFound when the function has no slice
// namespace. Enumeration order is sorted unit name, then numeric slice id,
// then numeric trace id; each slice document is loaded exactly once and
// shared by the points of its traces. Read failures mid-stream are yielded
// as the error value and end the stream.
func (db *Database) DataPoints(fn string) (iter.Seq2[*DataPoint, error], error) {
	fnDir := filepath.Join(db.slicesDir(), fn)
	if _, err := os.Stat(fnDir); err != nil {
		return nil, fmt.Errorf("function %s: %w", fn, ErrNotFound)
	}
	return func(yield func(*DataPoint, error) bool) {
		bcs, err := sortedDirNames(fnDir)
		if err != nil {
			yield(nil, err)
			return
		}
		for _, bc := range bcs {
			sliceIDs, err := sortedDocIDs(filepath.Join(fnDir, bc))
			if err != nil {
				yield(nil, err)
				return
			}
			for _, sliceID := range sliceIDs {
				slice, err := db.Slice(fn, bc, sliceID)
				if err != nil {
					yield(nil, err)
					return
				}
				traceDir := filepath.Join(db.dugraphsDir(), fn, bc, strconv.Itoa(sliceID))
				traceIDs, err := sortedDocIDs(traceDir)
				if err != nil {
					yield(nil, err)
					return
				}
				for _, traceID := range traceIDs {
					dp := &DataPoint{
						Func: fn, BC: bc, SliceID: sliceID, TraceID: traceID,
						db: db, slice: slice,
					}
					if !yield(dp, nil) {
						return
					}
				}
			}
		}
	}, nil
}

// CollectDataPoints drains the stream into a slice.
func (db *Database) CollectDataPoints(fn string) ([]*DataPoint, error) {
	seq, err := db.DataPoints(fn)
	if err != nil {
		return nil, err
	}
	var points []*DataPoint
	for dp, err := range seq {
		if err != nil {
			return nil, err
		}
		points = append(points, dp)
	}
	return points, nil
}

// sortedDirNames lists subdirectory names in lexical order; missing dir is empty.
func sortedDirNames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// sortedDocIDs lists the integer ids of "<id>.json" entries in a directory
// in ascending numeric order. Non-conforming names are ignored; a missing
// directory is empty (a slice may simply have no traces yet).
func sortedDocIDs(dir string) ([]int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	var ids []int
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := strings.TrimSuffix(e.Name(), ".json")
		if name == e.Name() {
			continue
		}
		id, err := strconv.Atoi(name)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids, nil
}
