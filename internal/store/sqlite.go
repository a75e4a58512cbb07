package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// MemoryDSN opens the index in memory instead of a file.
const MemoryDSN = ":memory:"

// IndexFile is the SQLite filename inside the store directory.
const IndexFile = "stories.db"

// SQLiteIndex keeps the document rows: one per story plus the problem description.
type SQLiteIndex struct {
	db *sql.DB
}

// NewSQLiteIndex opens (or creates) the index inside basePath.
func NewSQLiteIndex(basePath string) (*SQLiteIndex, error) {
	var dbPath string
	if basePath == MemoryDSN {
		dbPath = MemoryDSN
	} else {
		dbPath = filepath.Join(basePath, IndexFile)

		if err := os.MkdirAll(basePath, 0755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// A single connection keeps :memory: databases alive and serializes writers.
	db.SetMaxOpenConns(1)

	idx := &SQLiteIndex{db: db}
	if err := idx.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return idx, nil
}

func (s *SQLiteIndex) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		type TEXT NOT NULL,                 -- story, problem_description
		title TEXT UNIQUE,                  -- NULL for the problem description
		file TEXT,                          -- markdown filename relative to the stories dir
		content TEXT,                       -- problem description text only
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_documents_problem
		ON documents(type) WHERE type = 'problem_description';
	CREATE INDEX IF NOT EXISTS idx_documents_file ON documents(file);
	`
	_, err := s.db.Exec(schema)
	return err
}

// === Stories ===

// GetByTitle returns the story row for title.
func (s *SQLiteIndex) GetByTitle(title string) (*Entry, bool, error) {
	return s.getEntry("SELECT id, title, file, created_at, updated_at FROM documents WHERE type = ? AND title = ?", TypeStory, title)
}

// GetByFile returns the story row that owns file.
func (s *SQLiteIndex) GetByFile(file string) (*Entry, bool, error) {
	return s.getEntry("SELECT id, title, file, created_at, updated_at FROM documents WHERE type = ? AND file = ?", TypeStory, file)
}

func (s *SQLiteIndex) getEntry(query string, args ...any) (*Entry, bool, error) {
	var e Entry
	var createdAt, updatedAt string
	err := s.db.QueryRow(query, args...).Scan(&e.ID, &e.Title, &e.File, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("query story: %w", err)
	}
	e.CreatedAt = parseTime(createdAt)
	e.UpdatedAt = parseTime(updatedAt)
	return &e, true, nil
}

// InsertStory adds a new story row.
func (s *SQLiteIndex) InsertStory(title, file string) error {
	now := formatTime(time.Now())
	_, err := s.db.Exec(`
		INSERT INTO documents (type, title, file, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, TypeStory, title, file, now, now)
	if err != nil {
		return fmt.Errorf("insert story: %w", err)
	}
	return nil
}

// TouchStory bumps updated_at on an existing story row.
func (s *SQLiteIndex) TouchStory(title string) error {
	_, err := s.db.Exec("UPDATE documents SET updated_at = ? WHERE type = ? AND title = ?",
		formatTime(time.Now()), TypeStory, title)
	if err != nil {
		return fmt.Errorf("touch story: %w", err)
	}
	return nil
}

// RenameStory updates the title and file of a story row.
func (s *SQLiteIndex) RenameStory(oldTitle, newTitle, newFile string) error {
	result, err := s.db.Exec(`
		UPDATE documents SET title = ?, file = ?, updated_at = ?
		WHERE type = ? AND title = ?
	`, newTitle, newFile, formatTime(time.Now()), TypeStory, oldTitle)
	if err != nil {
		return fmt.Errorf("rename story: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("story not found: %s", oldTitle)
	}
	return nil
}

// DeleteStory removes a story row and reports whether one existed.
func (s *SQLiteIndex) DeleteStory(title string) (bool, error) {
	result, err := s.db.Exec("DELETE FROM documents WHERE type = ? AND title = ?", TypeStory, title)
	if err != nil {
		return false, fmt.Errorf("delete story: %w", err)
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

// ListStories returns every story row in insertion order.
func (s *SQLiteIndex) ListStories() ([]Entry, error) {
	rows, err := s.db.Query(`
		SELECT id, title, file, created_at, updated_at FROM documents
		WHERE type = ? AND title IS NOT NULL ORDER BY id
	`, TypeStory)
	if err != nil {
		return nil, fmt.Errorf("query stories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var createdAt, updatedAt string
		if err := rows.Scan(&e.ID, &e.Title, &e.File, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan story: %w", err)
		}
		e.CreatedAt = parseTime(createdAt)
		e.UpdatedAt = parseTime(updatedAt)
		entries = append(entries, e)
	}
	if err := checkRowsErr(rows); err != nil {
		return nil, err
	}

	return entries, nil
}

// === Problem Description ===

// GetProblemDescription returns the singleton problem description.
// Absence is reported with ok == false, not an error.
func (s *SQLiteIndex) GetProblemDescription() (string, bool, error) {
	var content sql.NullString
	err := s.db.QueryRow("SELECT content FROM documents WHERE type = ?", TypeProblemDescription).Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("query problem description: %w", err)
	}
	return content.String, true, nil
}

// SaveProblemDescription creates or replaces the singleton row.
func (s *SQLiteIndex) SaveProblemDescription(text string) error {
	now := formatTime(time.Now())
	_, err := s.db.Exec(`
		INSERT INTO documents (type, content, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(type) WHERE type = 'problem_description'
		DO UPDATE SET content = excluded.content, updated_at = excluded.updated_at
	`, TypeProblemDescription, text, now, now)
	if err != nil {
		return fmt.Errorf("save problem description: %w", err)
	}
	return nil
}

// === Lifecycle ===

func (s *SQLiteIndex) Close() error {
	return s.db.Close()
}
