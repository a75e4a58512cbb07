package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
)

// StoriesDir is the markdown directory inside the store directory.
const StoriesDir = "stories"

// MarkdownStore handles the human-readable story files. Names are relative to
// its base path.
type MarkdownStore struct {
	fs       afero.Fs
	basePath string
}

func NewMarkdownStore(fsys afero.Fs, basePath string) *MarkdownStore {
	return &MarkdownStore{fs: fsys, basePath: basePath}
}

func (s *MarkdownStore) path(name string) string {
	return filepath.Join(s.basePath, name)
}

// Write creates or overwrites a story file.
func (s *MarkdownStore) Write(name, content string) error {
	if err := s.fs.MkdirAll(s.basePath, 0755); err != nil {
		return fmt.Errorf("create stories dir: %w", err)
	}
	return afero.WriteFile(s.fs, s.path(name), []byte(content), 0644)
}

// Read returns the file content. A missing file is reported with ok == false.
func (s *MarkdownStore) Read(name string) (string, bool, error) {
	data, err := afero.ReadFile(s.fs, s.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read %s: %w", name, err)
	}
	return string(data), true, nil
}

// Exists reports whether the file is present.
func (s *MarkdownStore) Exists(name string) (bool, error) {
	return afero.Exists(s.fs, s.path(name))
}

// Overwrite replaces the content of an existing file and reports whether it existed.
func (s *MarkdownStore) Overwrite(name, content string) (bool, error) {
	ok, err := s.Exists(name)
	if err != nil || !ok {
		return false, err
	}
	if err := afero.WriteFile(s.fs, s.path(name), []byte(content), 0644); err != nil {
		return false, fmt.Errorf("write %s: %w", name, err)
	}
	return true, nil
}

// Rename moves a story file.
func (s *MarkdownStore) Rename(oldName, newName string) error {
	return s.fs.Rename(s.path(oldName), s.path(newName))
}

// Remove deletes a story file; a file that is already gone is not an error.
func (s *MarkdownStore) Remove(name string) error {
	err := s.fs.Remove(s.path(name))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove %s: %w", name, err)
	}
	return nil
}

// List returns the markdown filenames in the stories directory, sorted.
func (s *MarkdownStore) List() ([]string, error) {
	infos, err := afero.ReadDir(s.fs, s.basePath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list stories dir: %w", err)
	}

	var names []string
	for _, info := range infos {
		if info.IsDir() || !strings.HasSuffix(info.Name(), ".md") {
			continue
		}
		names = append(names, info.Name())
	}
	sort.Strings(names)
	return names, nil
}

// Dir returns the base path of the stories directory.
func (s *MarkdownStore) Dir() string {
	return s.basePath
}
