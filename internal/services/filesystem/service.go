package filesystem

import (
	"io"
	"os"
)

const scratchDirMode = 0700

// Service implements FileService and ScratchProvider using the os package.
type Service struct {
	scratchDir string
}

// New creates a file system service. scratchDir may be empty, in which case
// the OS temp directory is used.
func New(scratchDir string) *Service {
	return &Service{scratchDir: scratchDir}
}

// OpenRead opens a file for sequential reading.
func (s *Service) OpenRead(path string) (io.ReadCloser, error) {
	return os.Open(path)
}

// Stat returns file info for the specified path.
func (s *Service) Stat(path string) (os.FileInfo, error) {
	return os.Stat(path)
}

// FileExists checks if a file exists at the specified path.
func (s *Service) FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// RemoveIfPresent deletes the file at path, treating absence as success.
func (s *Service) RemoveIfPresent(path string) error {
	err := os.Remove(path)
	if err == nil || os.IsNotExist(err) {
		return nil
	}
	return err
}

// MkdirAll creates a directory and all parent directories.
func (s *Service) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

// ScratchDir returns the staging directory, creating it if needed.
func (s *Service) ScratchDir() (string, error) {
	dir := s.scratchDir
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, scratchDirMode); err != nil {
		return "", err
	}
	return dir, nil
}
