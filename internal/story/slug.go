package story

import "strings"

// slugReplacer turns spaces and path separators into underscores.
var slugReplacer = strings.NewReplacer(" ", "_", "/", "_", `\`, "_")

// Slug derives the markdown filename stem for a title.
func Slug(title string) string {
	return slugReplacer.Replace(strings.TrimSpace(title))
}

// FileName returns the markdown filename for a title.
func FileName(title string) string {
	return Slug(title) + ".md"
}
