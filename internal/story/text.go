package story

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Text is a string field that models may emit either as a JSON string or as a
// list of strings. Lists are joined with newlines, one entry per line.
type Text string

// UnmarshalJSON implements json.Unmarshaler.
func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*t = ""
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(strings.TrimSpace(s))
		return nil
	case '[':
		var items []string
		if err := json.Unmarshal(data, &items); err != nil {
			return fmt.Errorf("expected a list of strings: %w", err)
		}
		lines := make([]string, 0, len(items))
		for _, item := range items {
			if item = strings.TrimSpace(item); item != "" {
				lines = append(lines, item)
			}
		}
		*t = Text(strings.Join(lines, "\n"))
		return nil
	default:
		return fmt.Errorf("expected a string or a list of strings, got %s", truncate(string(data), 40))
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
