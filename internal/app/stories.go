package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cesto93/ai-agile-dev/internal/config"
	"github.com/cesto93/ai-agile-dev/internal/llm"
	"github.com/cesto93/ai-agile-dev/internal/logger"
	"github.com/cesto93/ai-agile-dev/internal/pipeline"
	"github.com/cesto93/ai-agile-dev/internal/store"
	"github.com/cesto93/ai-agile-dev/internal/story"
)

// ErrNotFound is returned by StoryApp lookups for a title that is not stored.
// Store operations themselves report absence as a boolean.
var ErrNotFound = errors.New("story not found")

// StoryApp provides story generation and CRUD operations.
// This is THE implementation - CLI, MCP and the dashboard all call these methods.
type StoryApp struct {
	ctx *Context
}

// NewStoryApp creates a new story application service.
func NewStoryApp(ctx *Context) *StoryApp {
	return &StoryApp{ctx: ctx}
}

// CreateOptions configures a generation run.
type CreateOptions struct {
	Provider string // Empty uses the configured provider
	Model    string // Empty uses the configured or default model
	Minimal  bool   // Skip refinement and persistence
}

// CreateStories runs the generation pipeline on the problem text. Refined
// stories are saved as they are produced; on a full run the problem text is
// then stored as the problem description.
func (a *StoryApp) CreateStories(ctx context.Context, problemText string, opts CreateOptions) (*pipeline.Result, error) {
	if strings.TrimSpace(problemText) == "" {
		return nil, pipeline.ErrEmptyInput
	}
	logger.SetLastInput(problemText)

	llmCfg, err := config.LoadLLMConfig(opts.Provider, opts.Model)
	if err != nil {
		return nil, err
	}
	chatModel, err := a.ctx.NewModel(ctx, llmCfg)
	if err != nil {
		return nil, err
	}

	prompts, err := pipeline.LoadPrompts(a.ctx.Fs, config.GetPromptsFile())
	if err != nil {
		return nil, err
	}

	pipeOpts := []pipeline.Option{
		pipeline.WithPrompts(prompts),
		pipeline.WithConcurrency(config.GetPipelineConcurrency()),
		pipeline.WithToolCalling(llm.SupportsForcedToolCall(llmCfg.Provider)),
		pipeline.WithLogger(a.ctx.Logger.With("provider", llmCfg.Provider, "model", llmCfg.Model)),
	}
	if llmCfg.Timeout > 0 {
		pipeOpts = append(pipeOpts, pipeline.WithTimeout(llmCfg.Timeout))
	}

	var saver pipeline.Saver
	if !opts.Minimal {
		saver = a.ctx.Store
	}

	result, err := pipeline.New(chatModel, saver, pipeOpts...).Run(ctx, problemText, opts.Minimal)
	if err != nil {
		return result, err
	}

	if !opts.Minimal {
		if err := a.ctx.Store.SaveProblemDescription(problemText); err != nil {
			return result, fmt.Errorf("save problem description: %w", err)
		}
	}
	return result, nil
}

// List returns the stored stories in insertion order.
func (a *StoryApp) List() ([]store.Entry, error) {
	return a.ctx.Store.List()
}

// Titles returns the stored titles in insertion order.
func (a *StoryApp) Titles() ([]string, error) {
	return a.ctx.Store.ListTitles()
}

// Get returns the markdown content of a story, or ErrNotFound.
func (a *StoryApp) Get(title string) (string, error) {
	content, ok, err := a.ctx.Store.GetByTitle(title)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, title)
	}
	return content, nil
}

// Save stores a story written by hand.
func (a *StoryApp) Save(s story.UserStory) error {
	if v := s.Validate(); !v.Valid {
		return fmt.Errorf("invalid story: %s", v.ErrorSummary())
	}
	return a.ctx.Store.Save(s)
}

// Edit replaces the markdown content of a story, or returns ErrNotFound.
func (a *StoryApp) Edit(title, content string) error {
	ok, err := a.ctx.Store.Edit(title, content)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, title)
	}
	return nil
}

// Rename changes a story title, or returns ErrNotFound.
func (a *StoryApp) Rename(oldTitle, newTitle string) error {
	ok, err := a.ctx.Store.Rename(oldTitle, newTitle)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, oldTitle)
	}
	return nil
}

// Remove deletes one story and reports whether it existed.
func (a *StoryApp) Remove(title string) (bool, error) {
	return a.ctx.Store.RemoveByTitle(title)
}

// RemoveAll deletes every story. The problem description is kept.
func (a *StoryApp) RemoveAll() (int, error) {
	return a.ctx.Store.RemoveAll()
}

// ProblemDescription returns the stored problem text, if any.
func (a *StoryApp) ProblemDescription() (string, bool, error) {
	return a.ctx.Store.ProblemDescription()
}

// Check reports store integrity issues.
func (a *StoryApp) Check() ([]store.Issue, error) {
	return a.ctx.Store.Check()
}
