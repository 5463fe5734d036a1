package database

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func openTestDB(t *testing.T) *Database {
	t.Helper()
	db, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	return db
}

func TestOpen_CreatesSkeleton(t *testing.T) {
	db := openTestDB(t)
	for _, d := range []string{
		"packages", "analysis/slices", "analysis/dugraphs", "analysis/features", "temp",
	} {
		if _, err := os.Stat(filepath.Join(db.Dir(), d)); err != nil {
			t.Errorf("expected %s to exist: %v", d, err)
		}
	}
}

func TestOpen_Idempotent(t *testing.T) {
	dir := t.TempDir()
	db1, err := Open(dir)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	if err := db1.Upsert(&Package{Name: "libpng", Fetched: true}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	db2, err := Open(dir)
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	if !db2.HasPackage("libpng") {
		t.Error("reopened database lost the package index entry")
	}
}

func TestUpsert_ReplacesNeverDuplicates(t *testing.T) {
	db := openTestDB(t)

	if err := db.Upsert(&Package{Name: "openssl"}); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	updated := &Package{Name: "openssl", Fetched: true, Build: Build{Result: BuildSuccess}}
	if err := db.Upsert(updated); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	if got := len(db.Packages()); got != 1 {
		t.Fatalf("index size = %d, want 1", got)
	}
	pkg, ok := db.GetPackage("openssl")
	if !ok {
		t.Fatal("package missing after upsert")
	}
	if diff := cmp.Diff(updated, pkg); diff != "" {
		t.Errorf("package mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadPackages_SkipsMalformedIndex(t *testing.T) {
	dir := t.TempDir()
	db, err := Open(dir)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := db.Upsert(&Package{Name: "good"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	// One entry with no index.json, one with garbage.
	if err := os.MkdirAll(filepath.Join(dir, "packages", "empty"), 0o755); err != nil {
		t.Fatal(err)
	}
	badDir := filepath.Join(dir, "packages", "bad")
	if err := os.MkdirAll(badDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(badDir, "index.json"), []byte("{nope"), 0o644); err != nil {
		t.Fatal(err)
	}

	db2, err := Open(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if got := len(db2.Packages()); got != 1 {
		t.Errorf("index size = %d, want 1 (malformed entries must be skipped)", got)
	}
}

func TestGetPackage_NotFoundIsNotAnError(t *testing.T) {
	db := openTestDB(t)
	if _, ok := db.GetPackage("missing"); ok {
		t.Error("GetPackage on empty index returned ok")
	}
	if db.HasPackage("missing") {
		t.Error("HasPackage on empty index returned true")
	}
}

func TestEnsureNamespace_Idempotent(t *testing.T) {
	db := openTestDB(t)
	c := Coord{Func: "malloc", BC: "libpng.bc", SliceID: 3, TraceID: 1}

	first, err := db.EnsureNamespace(KindTrace, c)
	if err != nil {
		t.Fatalf("first ensure: %v", err)
	}
	second, err := db.EnsureNamespace(KindTrace, c)
	if err != nil {
		t.Fatalf("second ensure: %v", err)
	}
	if first != second {
		t.Errorf("namespace paths differ: %s vs %s", first, second)
	}
	if _, err := os.Stat(first); err != nil {
		t.Errorf("namespace not materialized: %v", err)
	}
}

func TestWriteRead_RoundTrip(t *testing.T) {
	db := openTestDB(t)
	doc := Document{"entry": "bb0", "callee": "malloc", "functions": []any{"a", "b"}}

	for _, k := range []Kind{KindSlice, KindTrace, KindFeature} {
		c := Coord{Func: "malloc", BC: "libpng.bc", SliceID: 2, TraceID: 7}
		if err := db.WriteDocument(k, c, doc); err != nil {
			t.Fatalf("%s: write: %v", k, err)
		}
		got, err := db.ReadDocument(k, c)
		if err != nil {
			t.Fatalf("%s: read: %v", k, err)
		}
		if diff := cmp.Diff(doc, got); diff != "" {
			t.Errorf("%s round-trip mismatch (-want +got):\n%s", k, diff)
		}
	}
}

func TestWrite_Overwrites(t *testing.T) {
	db := openTestDB(t)
	c := Coord{Func: "free", BC: "zlib.bc", SliceID: 0}
	if err := db.WriteDocument(KindSlice, c, Document{"v": "old"}); err != nil {
		t.Fatal(err)
	}
	if err := db.WriteDocument(KindSlice, c, Document{"v": "new"}); err != nil {
		t.Fatal(err)
	}
	got, err := db.ReadDocument(KindSlice, c)
	if err != nil {
		t.Fatal(err)
	}
	if got["v"] != "new" {
		t.Errorf("document = %v, want overwritten value", got["v"])
	}
}

func TestRead_Errors(t *testing.T) {
	db := openTestDB(t)
	c := Coord{Func: "free", BC: "zlib.bc", SliceID: 9}

	_, err := db.ReadDocument(KindSlice, c)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("missing document: err = %v, want ErrNotFound", err)
	}

	// Corrupt content must surface as ParseError.
	if _, err := db.EnsureNamespace(KindSlice, c); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(db.docPath(KindSlice, c), []byte("}{"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err = db.ReadDocument(KindSlice, c)
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Errorf("corrupt document: err = %v, want *ParseError", err)
	}
}

// writeSlices seeds count slice docs under (fn, bc) with ids 0..count-1.
func writeSlices(t *testing.T, db *Database, fn, bc string, count int) {
	t.Helper()
	for i := 0; i < count; i++ {
		c := Coord{Func: fn, BC: bc, SliceID: i}
		if err := db.WriteDocument(KindSlice, c, Document{"id": i}); err != nil {
			t.Fatalf("seed slice %s/%s/%d: %v", fn, bc, i, err)
		}
	}
}

func TestNumSlices_Filters(t *testing.T) {
	db := openTestDB(t)
	writeSlices(t, db, "malloc", "libcurl.bc", 3)
	writeSlices(t, db, "malloc", "libpng.bc", 2)
	writeSlices(t, db, "free", "libcurl.bc", 4)

	tests := []struct {
		name   string
		fn, bc string
		want   int
	}{
		{"both", "malloc", "libcurl.bc", 3},
		{"function only", "malloc", "", 5},
		{"bc only exact", "", "libcurl.bc", 7},
		{"bc only substring", "", "lib", 9},
		{"neither", "", "", 9},
		{"unknown function", "nosuch", "", 0},
		{"unknown bc", "", "missing.bc", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := db.NumSlices(tt.fn, tt.bc)
			if err != nil {
				t.Fatalf("NumSlices(%q, %q): %v", tt.fn, tt.bc, err)
			}
			if got != tt.want {
				t.Errorf("NumSlices(%q, %q) = %d, want %d", tt.fn, tt.bc, got, tt.want)
			}
		})
	}
}

func TestNumSlices_CountConsistency(t *testing.T) {
	db := openTestDB(t)
	writeSlices(t, db, "malloc", "a.bc", 2)
	writeSlices(t, db, "free", "a.bc", 1)
	writeSlices(t, db, "free", "b.bc", 5)

	total, err := db.NumSlices("", "")
	if err != nil {
		t.Fatal(err)
	}

	perFunc := 0
	for _, fn := range []string{"malloc", "free"} {
		n, err := db.NumSlices(fn, "")
		if err != nil {
			t.Fatal(err)
		}
		perFunc += n
	}
	perBC := 0
	for _, bc := range []string{"a.bc", "b.bc"} {
		n, err := db.NumSlices("", bc)
		if err != nil {
			t.Fatal(err)
		}
		perBC += n
	}

	if total != perFunc || total != perBC {
		t.Errorf("count inconsistency: total=%d perFunc=%d perBC=%d", total, perFunc, perBC)
	}
}

func TestBCFiles_Enumeration(t *testing.T) {
	db := openTestDB(t)
	mustUpsert(t, db, &Package{Name: "curl", Build: Build{BCFiles: []string{"out/libcurl.bc"}}})
	mustUpsert(t, db, &Package{Name: "png", Build: Build{BCFiles: []string{"out/libpng.bc", "out/pngtest.bc"}}})

	seq, err := db.BCFiles("", false)
	if err != nil {
		t.Fatal(err)
	}
	var got []string
	for name := range seq {
		got = append(got, name)
	}
	want := []string{"libcurl.bc", "libpng.bc", "pngtest.bc"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("enumeration mismatch (-want +got):\n%s", diff)
	}

	seq, err = db.BCFiles("png", false)
	if err != nil {
		t.Fatal(err)
	}
	got = nil
	for name := range seq {
		got = append(got, name)
	}
	if diff := cmp.Diff([]string{"libpng.bc", "pngtest.bc"}, got); diff != "" {
		t.Errorf("package-filtered enumeration mismatch (-want +got):\n%s", diff)
	}
}

func TestBCFiles_UnknownPackage(t *testing.T) {
	db := openTestDB(t)
	_, err := db.BCFiles("ghost", false)
	if !errors.Is(err, ErrUnknownPackage) {
		t.Errorf("err = %v, want ErrUnknownPackage", err)
	}
}

func TestFindBCName_FirstMatch(t *testing.T) {
	db := openTestDB(t)
	mustUpsert(t, db, &Package{Name: "curl", Build: Build{BCFiles: []string{"libcurl.bc"}}})
	mustUpsert(t, db, &Package{Name: "png", Build: Build{BCFiles: []string{"libpng.bc"}}})

	name, ok := db.FindBCName("libc")
	if !ok || name != "libcurl.bc" {
		t.Errorf("FindBCName(libc) = %q, %v; want libcurl.bc, true", name, ok)
	}
	if _, ok := db.FindBCName("rust"); ok {
		t.Error("FindBCName on absent fragment returned a match")
	}
}

func TestClearBC(t *testing.T) {
	db := openTestDB(t)
	writeSlices(t, db, "malloc", "a.bc", 2)
	writeSlices(t, db, "free", "a.bc", 1)
	writeSlices(t, db, "malloc", "b.bc", 3)
	tc := Coord{Func: "malloc", BC: "a.bc", SliceID: 0, TraceID: 0}
	if err := db.WriteDocument(KindTrace, tc, Document{}); err != nil {
		t.Fatal(err)
	}
	if err := db.WriteDocument(KindFeature, tc, Document{}); err != nil {
		t.Fatal(err)
	}

	removed, err := db.ClearBC("a.bc")
	if err != nil {
		t.Fatalf("ClearBC: %v", err)
	}
	// 2 + 1 slices, 1 trace, 1 feature.
	if removed != 5 {
		t.Errorf("removed = %d, want 5", removed)
	}

	n, err := db.NumSlices("", "a.bc")
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("slices remain after clear: %d", n)
	}
	n, err = db.NumSlices("malloc", "b.bc")
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("unrelated unit affected by clear: %d, want 3", n)
	}
}

func TestClearBC_MissingUnitIsNoOp(t *testing.T) {
	db := openTestDB(t)
	removed, err := db.ClearBC("absent.bc")
	if err != nil {
		t.Fatalf("ClearBC on absent unit: %v", err)
	}
	if removed != 0 {
		t.Errorf("removed = %d, want 0", removed)
	}
}

func mustUpsert(t *testing.T, db *Database, pkg *Package) {
	t.Helper()
	if err := db.Upsert(pkg); err != nil {
		t.Fatalf("upsert %s: %v", pkg.Name, err)
	}
}
