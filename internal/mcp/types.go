// Package mcp provides tool parameter types, handlers and Markdown
// presenters for the MCP server.
package mcp

// Tool names exposed by the server.
const (
	ToolListStories           = "list_stories"
	ToolGetStory              = "get_story"
	ToolCreateStories         = "create_stories"
	ToolEditStory             = "edit_story"
	ToolRenameStory           = "rename_story"
	ToolRemoveStory           = "remove_story"
	ToolGetProblemDescription = "get_problem_description"
)

// ListStoriesParams defines the parameters for the list_stories tool.
type ListStoriesParams struct{}

// GetStoryParams defines the parameters for the get_story tool.
type GetStoryParams struct {
	Title string `json:"title"` // Required: exact story title
}

// CreateStoriesParams defines the parameters for the create_stories tool.
type CreateStoriesParams struct {
	Text     string `json:"text"`               // Required: problem description
	Provider string `json:"provider,omitempty"` // Optional: openai, anthropic, ollama, gemini
	Model    string `json:"model,omitempty"`    // Optional: model ID
	Minimal  bool   `json:"minimal,omitempty"`  // Optional: skip refinement and persistence
}

// EditStoryParams defines the parameters for the edit_story tool.
type EditStoryParams struct {
	Title   string `json:"title"`   // Required
	Content string `json:"content"` // Required: full markdown replacement
}

// RenameStoryParams defines the parameters for the rename_story tool.
type RenameStoryParams struct {
	OldTitle string `json:"old_title"` // Required
	NewTitle string `json:"new_title"` // Required
}

// RemoveStoryParams defines the parameters for the remove_story tool.
// Exactly one of Title or All must be set.
type RemoveStoryParams struct {
	Title string `json:"title,omitempty"`
	All   bool   `json:"all,omitempty"`
}

// ProblemDescriptionParams defines the parameters for the get_problem_description tool.
type ProblemDescriptionParams struct{}

// ToolResult is the outcome of a tool handler: Markdown content, or an error
// message meant for the calling model.
type ToolResult struct {
	Content string `json:"content"`
	Error   string `json:"error,omitempty"`
}

func contentResult(markdown string) *ToolResult {
	return &ToolResult{Content: markdown}
}

func errorResult(markdown string) *ToolResult {
	return &ToolResult{Content: markdown, Error: markdown}
}
