package pipeline

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cesto93/ai-agile-dev/internal/story"
)

// decodeStructured extracts the first JSON value from a model response and
// decodes it into T, then runs schema validation. Markdown fences and text
// around the JSON value are ignored; anything else that does not fit the
// schema is reported as malformed. No syntax repair is attempted.
func decodeStructured[T any, PT interface {
	*T
	story.Validatable
}](stage Stage, response string) (T, error) {
	var result T

	cleaned := cleanResponse(response)
	if cleaned == "" {
		return result, &MalformedOutputError{Stage: stage, Raw: response, Err: fmt.Errorf("empty response")}
	}

	idx := strings.IndexAny(cleaned, "{[")
	if idx == -1 {
		return result, &MalformedOutputError{Stage: stage, Raw: response, Err: fmt.Errorf("no JSON object found")}
	}

	decoder := json.NewDecoder(strings.NewReader(cleaned[idx:]))
	if err := decoder.Decode(&result); err != nil {
		return result, &MalformedOutputError{Stage: stage, Raw: response, Err: fmt.Errorf("parse JSON: %w", err)}
	}

	if v := PT(&result).Validate(); !v.Valid {
		return result, &MalformedOutputError{Stage: stage, Raw: response, Err: fmt.Errorf("schema: %s", v.ErrorSummary())}
	}

	return result, nil
}

// cleanResponse strips surrounding whitespace and markdown code fences.
func cleanResponse(response string) string {
	response = strings.TrimSpace(response)

	if strings.HasPrefix(response, "```json") {
		response = strings.TrimPrefix(response, "```json")
	} else if strings.HasPrefix(response, "```") {
		response = strings.TrimPrefix(response, "```")
	}
	response = strings.TrimSuffix(response, "```")

	return strings.TrimSpace(response)
}
