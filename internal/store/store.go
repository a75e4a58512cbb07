package store

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/cesto93/ai-agile-dev/internal/story"
	"github.com/spf13/afero"
)

// Store orchestrates access to both the SQLite index and the markdown files.
// Every operation holds the store mutex, so concurrent callers in one process
// never interleave partial writes.
type Store struct {
	mu     sync.Mutex
	index  *SQLiteIndex
	files  *MarkdownStore
	logger *slog.Logger
}

// Option configures a Store.
type Option func(*options)

type options struct {
	fs     afero.Fs
	logger *slog.Logger
}

// WithFs sets the filesystem used for markdown files.
func WithFs(fsys afero.Fs) Option {
	return func(o *options) { o.fs = fsys }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// Open opens the store rooted at dir. Passing MemoryDSN keeps the index in
// memory and, unless WithFs is given, the files too.
func Open(dir string, opts ...Option) (*Store, error) {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	storiesDir := filepath.Join(dir, StoriesDir)
	if dir == MemoryDSN {
		storiesDir = StoriesDir
		if o.fs == nil {
			o.fs = afero.NewMemMapFs()
		}
	}
	if o.fs == nil {
		o.fs = afero.NewOsFs()
	}

	index, err := NewSQLiteIndex(dir)
	if err != nil {
		return nil, err
	}

	return &Store{
		index:  index,
		files:  NewMarkdownStore(o.fs, storiesDir),
		logger: o.logger,
	}, nil
}

// StoriesDir returns the directory holding the markdown files.
func (s *Store) StoriesDir() string {
	return s.files.Dir()
}

// Save renders the story to its markdown file and records it in the index.
// Saving an existing title overwrites the file and keeps the single row.
// The title is stored exactly as given; a blank title is rejected.
func (s *Store) Save(st story.UserStory) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	title := st.Title
	if strings.TrimSpace(title) == "" {
		return ErrEmptyTitle
	}
	file := story.FileName(title)

	owner, owned, err := s.index.GetByFile(file)
	if err != nil {
		return err
	}
	if owned && owner.Title != title {
		return fmt.Errorf("%w: %q and %q both map to %s", ErrSlugCollision, title, owner.Title, file)
	}

	if err := s.files.Write(file, story.Render(st)); err != nil {
		return fmt.Errorf("file write: %w", err)
	}

	if owned {
		if err := s.index.TouchStory(title); err != nil {
			return fmt.Errorf("db update: %w", err)
		}
		s.logger.Debug("story updated", "title", title, "file", file)
		return nil
	}

	if err := s.index.InsertStory(title, file); err != nil {
		// Compensating action: the row never existed, so the file must not either.
		_ = s.files.Remove(file)
		return fmt.Errorf("db insert: %w", err)
	}
	s.logger.Debug("story saved", "title", title, "file", file)
	return nil
}

// SaveProblemDescription stores the problem text, replacing any previous one.
func (s *Store) SaveProblemDescription(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.SaveProblemDescription(text)
}

// ProblemDescription returns the stored problem text, if any.
func (s *Store) ProblemDescription() (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.GetProblemDescription()
}

// ListTitles returns all story titles in insertion order.
func (s *Store) ListTitles() ([]string, error) {
	entries, err := s.List()
	if err != nil {
		return nil, err
	}
	titles := make([]string, 0, len(entries))
	for _, e := range entries {
		titles = append(titles, e.Title)
	}
	return titles, nil
}

// List returns all story index rows in insertion order.
func (s *Store) List() ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.ListStories()
}

// GetByTitle returns the markdown content of a story. A missing row or a
// missing file both yield ok == false.
func (s *Store) GetByTitle(title string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok, err := s.index.GetByTitle(title)
	if err != nil || !ok {
		return "", false, err
	}

	content, ok, err := s.files.Read(e.File)
	if err != nil {
		return "", false, err
	}
	if !ok {
		s.logger.Warn("story file missing", "title", title, "file", e.File)
	}
	return content, ok, nil
}

// RemoveByTitle deletes the story file and its row, and reports whether the row existed.
func (s *Store) RemoveByTitle(title string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok, err := s.index.GetByTitle(title)
	if err != nil || !ok {
		return false, err
	}

	if err := s.files.Remove(e.File); err != nil {
		return false, err
	}
	return s.index.DeleteStory(title)
}

// RemoveAll deletes every story and returns how many were removed. Each row
// is deleted right after its file, so on error the count covers exactly the
// stories that are gone. The problem description is kept.
func (s *Store) RemoveAll() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.index.ListStories()
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, e := range entries {
		if err := s.files.Remove(e.File); err != nil {
			return removed, fmt.Errorf("remove %s: %w", e.File, err)
		}
		ok, err := s.index.DeleteStory(e.Title)
		if err != nil {
			return removed, err
		}
		if ok {
			removed++
		}
	}
	s.logger.Debug("stories removed", "count", removed)
	return removed, nil
}

// Edit overwrites the markdown content of an existing story. The index row
// is left unchanged. It reports false when the row or its file is missing.
func (s *Store) Edit(title, content string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok, err := s.index.GetByTitle(title)
	if err != nil || !ok {
		return false, err
	}
	return s.files.Overwrite(e.File, content)
}

// Rename moves a story to a new title. The file is renamed first and the row
// updated after; if the row update fails the file is moved back.
// It reports false when the old title or its file does not exist.
func (s *Store) Rename(oldTitle, newTitle string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(newTitle) == "" {
		return false, ErrEmptyTitle
	}

	e, ok, err := s.index.GetByTitle(oldTitle)
	if err != nil || !ok {
		return false, err
	}
	if newTitle == oldTitle {
		return s.files.Exists(e.File)
	}

	if _, taken, err := s.index.GetByTitle(newTitle); err != nil {
		return false, err
	} else if taken {
		return false, fmt.Errorf("%w: %s", ErrTitleExists, newTitle)
	}

	newFile := story.FileName(newTitle)
	if owner, owned, err := s.index.GetByFile(newFile); err != nil {
		return false, err
	} else if owned && owner.Title != oldTitle {
		return false, fmt.Errorf("%w: %q and %q both map to %s", ErrSlugCollision, newTitle, owner.Title, newFile)
	}

	exists, err := s.files.Exists(e.File)
	if err != nil || !exists {
		return false, err
	}

	if newFile != e.File {
		// A file with no row (see Check) still occupies the name.
		if stray, err := s.files.Exists(newFile); err != nil {
			return false, err
		} else if stray {
			return false, fmt.Errorf("%w: %s already exists on disk", ErrSlugCollision, newFile)
		}
		if err := s.files.Rename(e.File, newFile); err != nil {
			return false, fmt.Errorf("file rename: %w", err)
		}
	}

	if err := s.index.RenameStory(oldTitle, newTitle, newFile); err != nil {
		if newFile != e.File {
			if rbErr := s.files.Rename(newFile, e.File); rbErr != nil {
				s.logger.Error("rename rollback failed", "from", newFile, "to", e.File, "error", rbErr)
			}
		}
		return false, fmt.Errorf("db update: %w", err)
	}

	s.logger.Debug("story renamed", "from", oldTitle, "to", newTitle)
	return true, nil
}

// Check reports rows whose file is missing and markdown files with no row.
func (s *Store) Check() ([]Issue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.index.ListStories()
	if err != nil {
		return nil, err
	}

	var issues []Issue
	known := make(map[string]bool, len(entries))
	for _, e := range entries {
		known[e.File] = true
		ok, err := s.files.Exists(e.File)
		if err != nil {
			return nil, err
		}
		if !ok {
			issues = append(issues, Issue{
				Type:    IssueMissingFile,
				Title:   e.Title,
				File:    e.File,
				Message: fmt.Sprintf("Markdown file missing: %s", e.File),
			})
		}
	}

	names, err := s.files.List()
	if err != nil {
		return nil, err
	}
	for _, name := range names {
		if !known[name] {
			issues = append(issues, Issue{
				Type:    IssueOrphanFile,
				File:    name,
				Message: fmt.Sprintf("Markdown file has no index entry: %s", name),
			})
		}
	}

	return issues, nil
}

// Close releases the index database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Close()
}
