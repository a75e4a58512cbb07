// Package app provides the application layer that orchestrates business logic.
// This layer sits between CLI/MCP/dashboard handlers and the pipeline and
// store, so every front-end performs the same operations the same way.
package app

import (
	"context"
	"log/slog"

	"github.com/cesto93/ai-agile-dev/internal/llm"
	"github.com/cesto93/ai-agile-dev/internal/store"
	"github.com/cloudwego/eino/components/model"
	"github.com/spf13/afero"
)

// ModelFactory resolves an LLM configuration to a chat model.
type ModelFactory func(ctx context.Context, cfg llm.Config) (model.BaseChatModel, error)

// Context holds shared dependencies for all app services.
type Context struct {
	Store    *store.Store
	Fs       afero.Fs // Used for the prompts overrides file
	Logger   *slog.Logger
	NewModel ModelFactory
}

// NewContext creates an app context with standard initialization.
func NewContext(s *store.Store) *Context {
	return &Context{
		Store:    s,
		Fs:       afero.NewOsFs(),
		Logger:   slog.Default(),
		NewModel: llm.NewChatModel,
	}
}
