package mcp

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cesto93/ai-agile-dev/internal/pipeline"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.English)

// FormatTitles renders the story list as a numbered Markdown list.
func FormatTitles(titles []string) string {
	if len(titles) == 0 {
		return "No stories saved yet. Use `create_stories` to generate some."
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Stories (%d)\n\n", len(titles)))
	for i, t := range titles {
		sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, t))
	}
	return sb.String()
}

// FormatCreateResult summarizes a pipeline run.
func FormatCreateResult(result *pipeline.Result) string {
	if result == nil {
		return "No result."
	}

	var sb strings.Builder
	if result.Minimal {
		sb.WriteString(fmt.Sprintf("## Candidate Stories (%d, not saved)\n\n", len(result.Stories)))
		for _, s := range result.Stories {
			sb.WriteString(fmt.Sprintf("- **%s**: %s\n", s.Title, truncate(s.Description, 200)))
		}
		return sb.String()
	}

	sb.WriteString(fmt.Sprintf("## Stories Saved (%d)\n\n", len(result.Report.Saved)))
	for _, t := range result.Report.Saved {
		sb.WriteString(fmt.Sprintf("- %s\n", t))
	}

	if result.Report.HasFailures() {
		sb.WriteString(fmt.Sprintf("\n## Failed (%d)\n\n", len(result.Report.Failed)))
		for _, f := range result.Report.Failed {
			sb.WriteString(fmt.Sprintf("- **%s**: %s\n", f.Title, truncate(f.Reason, 200)))
		}
	}
	return sb.String()
}

// FormatPipelineError describes a failed run, naming the stage when known.
func FormatPipelineError(err error) string {
	var stageErr *pipeline.StageError
	if errors.As(err, &stageErr) {
		return fmt.Sprintf("## Error\n\n**Stage**: %s\n**Details**: %v", titleCaser.String(string(stageErr.Stage)), stageErr.Err)
	}
	return FormatError(err.Error())
}

// FormatError returns a Markdown error message.
func FormatError(message string) string {
	return fmt.Sprintf("## Error\n\n**Details**: %s", message)
}

// FormatValidationError returns a Markdown error for validation failures.
func FormatValidationError(field, message string) string {
	return fmt.Sprintf("## Validation Error\n\n**Field**: `%s`\n**Details**: %s", field, message)
}

func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}
