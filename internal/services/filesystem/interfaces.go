// Package filesystem provides the file system collaborators consumed by the
// diagnostics engine: sequential artifact reads and scratch-file handling.
package filesystem

import (
	"io"
	"os"
)

// FileService defines the file operations the engine depends on.
type FileService interface {
	// OpenRead opens a file for sequential reading.
	OpenRead(path string) (io.ReadCloser, error)

	// Stat returns file info for the specified path.
	Stat(path string) (os.FileInfo, error)

	// FileExists checks if a file exists at the specified path.
	FileExists(path string) bool

	// RemoveIfPresent deletes the file at path. A path that does not
	// exist is not an error; a locked file reports its error so the
	// caller can decide to proceed best-effort.
	RemoveIfPresent(path string) error

	// MkdirAll creates a directory and all parent directories.
	MkdirAll(path string, perm os.FileMode) error
}

// ScratchProvider supplies a writable staging directory for transient
// artifacts. The host environment owns the directory's lifecycle.
type ScratchProvider interface {
	ScratchDir() (string, error)
}
