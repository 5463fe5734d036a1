package database

import "path/filepath"

// BuildResult is the outcome of the external build pipeline for a package.
type BuildResult string

const (
	BuildNone    BuildResult = "none"
	BuildSuccess BuildResult = "success"
	BuildFailure BuildResult = "failure"
)

// Build records the build outcome and the compiled units it produced.
// BCFiles are stored relative to the package directory.
type Build struct {
	Result  BuildResult `json:"result"`
	BCFiles []string    `json:"bc_files,omitempty"`
}

// Package is one entry of the package index. Name is the unique key.
// Packages are created and updated only via Database.Upsert; the core
// never deletes them.
type Package struct {
	Name    string `json:"name"`
	Fetched bool   `json:"fetched"`
	Build   Build  `json:"build"`
}

// FetchStatus returns the human-readable fetch state.
func (p *Package) FetchStatus() string {
	if p.Fetched {
		return "fetched"
	}
	return "not fetched"
}

// BCNames returns the base names of the package's compiled units,
// in stored order.
func (p *Package) BCNames() []string {
	names := make([]string, 0, len(p.Build.BCFiles))
	for _, f := range p.Build.BCFiles {
		names = append(names, filepath.Base(f))
	}
	return names
}
