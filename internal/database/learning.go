package database

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// NewLearningDir creates and returns a fresh run directory
// learning/<fn>/<n> under the database root, where n is one past the highest
// existing run number. The external training stage and the learn command
// write their reports (alarms.csv, unified.json, curves) there.
func (db *Database) NewLearningDir(fn string) (string, error) {
	base := filepath.Join(db.dir, "learning", fn)
	if err := os.MkdirAll(base, 0o755); err != nil {
		return "", fmt.Errorf("create learning dir: %w", err)
	}
	entries, err := os.ReadDir(base)
	if err != nil {
		return "", fmt.Errorf("scan learning dir: %w", err)
	}
	next := 0
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if n, err := strconv.Atoi(e.Name()); err == nil && n >= next {
			next = n + 1
		}
	}
	run := filepath.Join(base, strconv.Itoa(next))
	if err := os.Mkdir(run, 0o755); err != nil {
		return "", fmt.Errorf("create run dir: %w", err)
	}
	return run, nil
}
