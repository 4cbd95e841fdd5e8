// Package artifact manages the temporary PDF files written during conversion.
package artifact

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// Stable file names for conversion output.
const (
	DocumentFileName = "TemporaryDocumentFile.pdf"
	BytesFileName    = "TemporaryBytesFile.pdf"
)

// Store creates, reads and deletes conversion artifacts. File-mode output is
// kept in the files directory; byte-mode scratch files go to the cache
// directory and never outlive their request.
type Store struct {
	filesDir string
	cacheDir string
	log      *zap.Logger
}

// New returns a Store rooted at the given directories. Empty directories
// are replaced with [DefaultFilesDir] and [DefaultCacheDir].
func New(filesDir, cacheDir string, log *zap.Logger) *Store {
	if filesDir == "" {
		filesDir = DefaultFilesDir()
	}
	if cacheDir == "" {
		cacheDir = DefaultCacheDir()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{filesDir: filesDir, cacheDir: cacheDir, log: log}
}

// DefaultFilesDir returns the default directory for file-mode output.
func DefaultFilesDir() string {
	return filepath.Join(os.TempDir(), "htmlpdf", "files")
}

// DefaultCacheDir returns the default directory for byte-mode scratch files.
func DefaultCacheDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "htmlpdf")
	}
	return filepath.Join(os.TempDir(), "htmlpdf", "cache")
}

// DocumentPath is where file-mode output is written.
func (s *Store) DocumentPath() string {
	return filepath.Join(s.filesDir, DocumentFileName)
}

// ScratchPath is where byte-mode output is staged before being read back.
func (s *Store) ScratchPath() string {
	return filepath.Join(s.cacheDir, BytesFileName)
}

// EnsureDirectory creates dir and its parents if they do not exist.
func (s *Store) EnsureDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("artifact: creating directory %s: %w", dir, err)
	}
	return nil
}

// Create opens path for writing, truncating any previous content and
// creating missing parent directories.
func (s *Store) Create(path string) (*os.File, error) {
	if err := s.EnsureDirectory(filepath.Dir(path)); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("artifact: opening %s: %w", path, err)
	}
	return f, nil
}

// ReadAll returns the content of path.
func (s *Store) ReadAll(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("artifact: reading %s: %w", path, err)
	}
	return data, nil
}

// Delete removes path. A failed deletion is logged and reported as false;
// it is never an error for the caller. Deleting a missing file succeeds.
func (s *Store) Delete(path string) bool {
	err := os.Remove(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return true
	}
	s.log.Warn("failed to delete temporary file", zap.String("path", path), zap.Error(err))
	return false
}

// ReadAndDelete reads path and then deletes it. The deletion is attempted
// even when reading fails.
func (s *Store) ReadAndDelete(path string) ([]byte, error) {
	data, err := s.ReadAll(path)
	s.Delete(path)
	return data, err
}
