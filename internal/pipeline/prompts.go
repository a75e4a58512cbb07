package pipeline

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// Prompts holds the text/template source for each stage.
//
// Templates receive a map with these keys:
//   - clean:   text
//   - extract: text
//   - refine:  title, description
type Prompts struct {
	Clean   string `yaml:"clean"`
	Extract string `yaml:"extract"`
	Refine  string `yaml:"refine"`
}

// DefaultPrompts returns the built-in prompts.
func DefaultPrompts() Prompts {
	return Prompts{
		Clean:   CleanPrompt,
		Extract: ExtractPrompt,
		Refine:  RefinePrompt,
	}
}

// LoadPrompts reads a YAML overrides file. Stages the file leaves empty keep
// their default prompt. An empty path, or a path that does not exist,
// yields the defaults.
func LoadPrompts(fsys afero.Fs, path string) (Prompts, error) {
	prompts := DefaultPrompts()
	if strings.TrimSpace(path) == "" {
		return prompts, nil
	}

	data, err := afero.ReadFile(fsys, path)
	if errors.Is(err, fs.ErrNotExist) {
		return prompts, nil
	}
	if err != nil {
		return prompts, fmt.Errorf("read prompts file %s: %w", path, err)
	}

	var overrides Prompts
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return prompts, fmt.Errorf("parse prompts file %s: %w", path, err)
	}

	return prompts.merge(overrides), nil
}

func (p Prompts) merge(o Prompts) Prompts {
	if strings.TrimSpace(o.Clean) != "" {
		p.Clean = o.Clean
	}
	if strings.TrimSpace(o.Extract) != "" {
		p.Extract = o.Extract
	}
	if strings.TrimSpace(o.Refine) != "" {
		p.Refine = o.Refine
	}
	return p
}

// CleanPrompt removes content unrelated to software requirements.
const CleanPrompt = `You are preparing a problem description for requirements analysis.

Remove every sentence that is unrelated to the software product being described
(greetings, anecdotes, off-topic remarks). Keep every relevant sentence exactly
as written: do not rephrase, summarize, translate or reorder it.

Respond with the cleaned text only, without any preamble or formatting.

TEXT:
{{.text}}
`

// ExtractPrompt lists candidate user stories.
const ExtractPrompt = `You are an agile business analyst. Identify the user stories contained in the
problem description below. Each story needs a short, unique title and a one or
two sentence description.

Submit the stories with the submit_user_stories tool when it is available.
Otherwise respond with JSON only, using exactly this structure:
{"user_stories": [{"title": "...", "description": "..."}]}

If the text contains no user stories, respond with {"user_stories": []}.

PROBLEM DESCRIPTION:
{{.text}}
`

// RefinePrompt expands one candidate into a detailed story.
const RefinePrompt = `You are an agile business analyst writing a detailed user story.

Story title: {{.title}}
Story description: {{.description}}

Submit the story with the submit_story_details tool when it is available.
Otherwise respond with JSON only, using exactly these keys. Every value is a string;
acceptance_criteria may also be a list of strings and must not be empty.
{
  "role": "the user role, e.g. a registered customer",
  "feature": "what the user wants",
  "benefit": "why the user wants it",
  "acceptance_criteria": ["Given ... when ... then ..."],
  "constraints": "",
  "performance": "",
  "security": "",
  "dependencies": "",
  "priority": "High, Medium or Low",
  "estimate": "story points or time estimate",
  "attachments": ""
}
`
