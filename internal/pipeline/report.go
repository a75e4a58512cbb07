package pipeline

import (
	"fmt"
	"strings"

	"github.com/cesto93/ai-agile-dev/internal/story"
)

// Failure records a candidate whose refinement or save failed.
type Failure struct {
	Title  string `json:"title"`
	Reason string `json:"reason"`
}

// Report summarizes the refine stage: stories saved and stories that failed.
type Report struct {
	Saved  []string  `json:"saved"`
	Failed []Failure `json:"failed"`
}

// HasFailures reports whether at least one candidate failed.
func (r Report) HasFailures() bool {
	return len(r.Failed) > 0
}

// String returns a one-line summary.
func (r Report) String() string {
	if !r.HasFailures() {
		return fmt.Sprintf("%d saved", len(r.Saved))
	}
	titles := make([]string, 0, len(r.Failed))
	for _, f := range r.Failed {
		titles = append(titles, f.Title)
	}
	return fmt.Sprintf("%d saved, %d failed (%s)", len(r.Saved), len(r.Failed), strings.Join(titles, ", "))
}

// Result carries the pipeline output and its intermediate artifacts.
type Result struct {
	CleanedText string            `json:"cleanedText"`
	Candidates  []story.Candidate `json:"candidates"`
	Stories     []story.UserStory `json:"stories"`
	Report      Report            `json:"report"`
	Minimal     bool              `json:"minimal"`
}
