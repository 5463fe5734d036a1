package database

import (
	"errors"
	"fmt"
)

// Sentinel errors for the storage and query layer. Callers match with
// errors.Is; the CLI prints them and halts the requested operation.
var (
	// ErrNotFound marks a missing function, slice, trace or feature.
	ErrNotFound = errors.New("not found")

	// ErrUnknownPackage marks a query that names a package absent from the index.
	ErrUnknownPackage = errors.New("unknown package")

	// ErrUnimplemented marks a declared-but-unbuilt query path.
	ErrUnimplemented = errors.New("query not implemented")
)

// ParseError reports a document that exists on disk but cannot be decoded.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
