/*
Package store persists user stories as one markdown file per story plus a
SQLite index of titles, files and the singleton problem description.
*/
package store

import (
	"errors"
	"time"
)

// Document types stored in the index.
const (
	TypeStory              = "story"
	TypeProblemDescription = "problem_description"
)

var (
	// ErrEmptyTitle is returned when a story title is blank.
	ErrEmptyTitle = errors.New("title cannot be empty")
	// ErrTitleExists is returned by Rename when the target title is taken.
	ErrTitleExists = errors.New("a story with this title already exists")
	// ErrSlugCollision is returned when two distinct titles map to the same file.
	ErrSlugCollision = errors.New("title maps to a file owned by another story")
)

// Entry is an index row for a saved story. The markdown file is the source
// of truth for its content.
type Entry struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	File      string    `json:"file"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Issue represents a problem found during integrity checks.
type Issue struct {
	Type    string `json:"type"`            // missing_file, orphan_file
	Title   string `json:"title,omitempty"` // Related story if applicable
	File    string `json:"file"`
	Message string `json:"message"`
}

// Issue types reported by Check.
const (
	IssueMissingFile = "missing_file"
	IssueOrphanFile  = "orphan_file"
)
