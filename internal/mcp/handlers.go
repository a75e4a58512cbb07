package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cesto93/ai-agile-dev/internal/app"
	"github.com/cesto93/ai-agile-dev/internal/store"
)

// Handlers report user-facing failures through ToolResult.Error and reserve
// the error return for failures the server cannot describe to the model.

// HandleListStories lists stored story titles.
func HandleListStories(_ context.Context, stories *app.StoryApp, _ ListStoriesParams) (*ToolResult, error) {
	titles, err := stories.Titles()
	if err != nil {
		return nil, fmt.Errorf("list stories: %w", err)
	}
	return contentResult(FormatTitles(titles)), nil
}

// HandleGetStory returns the markdown content of one story.
func HandleGetStory(_ context.Context, stories *app.StoryApp, params GetStoryParams) (*ToolResult, error) {
	title := strings.TrimSpace(params.Title)
	if title == "" {
		return errorResult(FormatValidationError("title", "title is required")), nil
	}

	content, err := stories.Get(title)
	if errors.Is(err, app.ErrNotFound) {
		return errorResult(FormatError(fmt.Sprintf("story %q not found", title))), nil
	}
	if err != nil {
		return nil, fmt.Errorf("get story: %w", err)
	}
	return contentResult(content), nil
}

// HandleCreateStories runs the generation pipeline on the given problem text.
// Pipeline failures are reported to the model rather than returned.
func HandleCreateStories(ctx context.Context, stories *app.StoryApp, params CreateStoriesParams) (*ToolResult, error) {
	if strings.TrimSpace(params.Text) == "" {
		return errorResult(FormatValidationError("text", "problem description text is required")), nil
	}

	result, err := stories.CreateStories(ctx, params.Text, app.CreateOptions{
		Provider: params.Provider,
		Model:    params.Model,
		Minimal:  params.Minimal,
	})
	if err != nil {
		return errorResult(FormatPipelineError(err)), nil
	}
	return contentResult(FormatCreateResult(result)), nil
}

// HandleEditStory replaces the markdown content of a story.
func HandleEditStory(_ context.Context, stories *app.StoryApp, params EditStoryParams) (*ToolResult, error) {
	title := strings.TrimSpace(params.Title)
	if title == "" {
		return errorResult(FormatValidationError("title", "title is required")), nil
	}
	if strings.TrimSpace(params.Content) == "" {
		return errorResult(FormatValidationError("content", "content is required")), nil
	}

	err := stories.Edit(title, params.Content)
	if errors.Is(err, app.ErrNotFound) {
		return errorResult(FormatError(fmt.Sprintf("story %q not found", title))), nil
	}
	if err != nil {
		return nil, fmt.Errorf("edit story: %w", err)
	}
	return contentResult(fmt.Sprintf("Updated **%s**.", title)), nil
}

// HandleRenameStory changes a story title.
func HandleRenameStory(_ context.Context, stories *app.StoryApp, params RenameStoryParams) (*ToolResult, error) {
	oldTitle := strings.TrimSpace(params.OldTitle)
	newTitle := strings.TrimSpace(params.NewTitle)
	if oldTitle == "" {
		return errorResult(FormatValidationError("old_title", "old_title is required")), nil
	}
	if newTitle == "" {
		return errorResult(FormatValidationError("new_title", "new_title is required")), nil
	}

	err := stories.Rename(oldTitle, newTitle)
	switch {
	case err == nil:
		return contentResult(fmt.Sprintf("Renamed **%s** to **%s**.", oldTitle, newTitle)), nil
	case errors.Is(err, app.ErrNotFound):
		return errorResult(FormatError(fmt.Sprintf("story %q not found", oldTitle))), nil
	case errors.Is(err, store.ErrTitleExists), errors.Is(err, store.ErrSlugCollision):
		return errorResult(FormatError(err.Error())), nil
	default:
		return nil, fmt.Errorf("rename story: %w", err)
	}
}

// HandleRemoveStory deletes one story, or all of them when All is set.
func HandleRemoveStory(_ context.Context, stories *app.StoryApp, params RemoveStoryParams) (*ToolResult, error) {
	title := strings.TrimSpace(params.Title)
	if params.All == (title != "") {
		return errorResult(FormatValidationError("title", "set either title or all, not both")), nil
	}

	if params.All {
		n, err := stories.RemoveAll()
		if err != nil {
			return nil, fmt.Errorf("remove stories: %w", err)
		}
		return contentResult(fmt.Sprintf("Removed %d stories.", n)), nil
	}

	removed, err := stories.Remove(title)
	if err != nil {
		return nil, fmt.Errorf("remove story: %w", err)
	}
	if !removed {
		return errorResult(FormatError(fmt.Sprintf("story %q not found", title))), nil
	}
	return contentResult(fmt.Sprintf("Removed **%s**.", title)), nil
}

// HandleGetProblemDescription returns the stored problem description.
func HandleGetProblemDescription(_ context.Context, stories *app.StoryApp, _ ProblemDescriptionParams) (*ToolResult, error) {
	text, ok, err := stories.ProblemDescription()
	if err != nil {
		return nil, fmt.Errorf("get problem description: %w", err)
	}
	if !ok {
		return contentResult("No problem description stored yet."), nil
	}
	return contentResult("## Problem Description\n\n" + text), nil
}
