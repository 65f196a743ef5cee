// Package store persists generated artifacts under the output directory
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"route-forge/internal/logger"
	"route-forge/internal/model"
)

// PersistError means an artifact could not be written or read back
type PersistError struct {
	Path string
	Op   string // "write" or "read"
	Err  error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("failed to %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PersistError) Unwrap() error {
	return e.Err
}

// Store writes artifacts relative to a root directory
type Store struct {
	fs   afero.Fs
	root string
}

// New creates a store rooted at root. A nil fs means the OS filesystem.
func New(fs afero.Fs, root string) *Store {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Store{fs: fs, root: root}
}

// Root returns the output directory
func (s *Store) Root() string {
	return s.root
}

// PathFor resolves where an artifact of kind named fileName lives.
// Test suites go under the tests subdirectory.
func (s *Store) PathFor(kind model.ArtifactKind, fileName string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(fileName))
	if fileName == "" || filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid artifact file name %q", fileName)
	}
	if kind == model.KindTest {
		clean = filepath.Join(model.TestsDir, clean)
	}
	return filepath.Join(s.root, clean), nil
}

// Save writes content, creating parent directories and overwriting
// (with a warning) any existing file
func (s *Store) Save(kind model.ArtifactKind, fileName, content string) (*model.GeneratedArtifact, error) {
	path, err := s.PathFor(kind, fileName)
	if err != nil {
		return nil, &PersistError{Path: fileName, Op: "write", Err: err}
	}

	if err := s.fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, &PersistError{Path: path, Op: "write", Err: err}
	}

	if _, err := s.fs.Stat(path); err == nil {
		logger.Warn("Overwriting existing file: %s", path)
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, &PersistError{Path: path, Op: "write", Err: err}
	}

	if err := afero.WriteFile(s.fs, path, []byte(content), 0644); err != nil {
		return nil, &PersistError{Path: path, Op: "write", Err: err}
	}
	logger.Debug("Saved %s artifact to %s (%d bytes)", kind, path, len(content))

	return &model.GeneratedArtifact{
		Kind:     kind,
		FileName: fileName,
		Path:     path,
		Content:  content,
	}, nil
}

// Read loads a persisted artifact
func (s *Store) Read(kind model.ArtifactKind, fileName string) (*model.GeneratedArtifact, error) {
	path, err := s.PathFor(kind, fileName)
	if err != nil {
		return nil, &PersistError{Path: fileName, Op: "read", Err: err}
	}

	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		return nil, &PersistError{Path: path, Op: "read", Err: err}
	}

	return &model.GeneratedArtifact{
		Kind:     kind,
		FileName: fileName,
		Path:     path,
		Content:  string(data),
	}, nil
}
