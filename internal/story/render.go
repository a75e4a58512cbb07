package story

import (
	"strings"
	"text/template"
)

// markdownLayout is the fixed document layout of a rendered story.
// Every field is substituted verbatim; empty fields render as empty strings.
const markdownLayout = `# {{.Title}}

{{.Description}}

## User Story

As {{.Role}}
I want {{.Feature}}
so that {{.Benefit}}

## Acceptance Criteria

{{.AcceptanceCriteria}}

## Technical Notes

Constraints: {{.Constraints}}

Performance: {{.Performance}}

Security: {{.Security}}

Dependencies: {{.Dependencies}}

## Priority

{{.Priority}}

## Estimate

{{.Estimate}}

## Attachments

{{.Attachments}}
`

var markdownTmpl = template.Must(template.New("story").Option("missingkey=zero").Parse(markdownLayout))

// Render returns the markdown document for a story.
func Render(s UserStory) string {
	var sb strings.Builder
	// The template only reads string fields of a value type, so Execute cannot fail.
	_ = markdownTmpl.Execute(&sb, s)
	return sb.String()
}
