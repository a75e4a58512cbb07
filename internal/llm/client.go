// Package llm resolves a provider and model pair to an Eino chat model.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino-ext/components/model/ollama"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"google.golang.org/genai"
)

// ErrModelResolution is wrapped by every error returned from NewChatModel.
var ErrModelResolution = errors.New("model resolution failed")

// Provider identifies the LLM provider to use.
type Provider string

// Config holds configuration for creating an LLM client.
type Config struct {
	Provider Provider
	Model    string        // Chat model; empty selects the provider default
	APIKey   string        // Required for OpenAI, Anthropic and Gemini
	BaseURL  string        // Optional endpoint override (Ollama default: http://localhost:11434)
	Timeout  time.Duration // HTTP timeout where the provider client supports one
}

// NewChatModel creates a ChatModel instance based on the provider configuration.
// It returns an Eino BaseChatModel that can be used for Generate() or Stream() calls.
func NewChatModel(ctx context.Context, cfg Config) (model.BaseChatModel, error) {
	provider, err := ValidateProvider(string(cfg.Provider))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelResolution, err)
	}

	modelName := strings.TrimSpace(cfg.Model)
	if modelName == "" {
		modelName = GetDefaultModelID(string(provider))
	}

	cm, err := newChatModel(ctx, provider, modelName, cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %s/%s: %v", ErrModelResolution, provider, modelName, err)
	}
	return cm, nil
}

func newChatModel(ctx context.Context, provider Provider, modelName string, cfg Config) (model.BaseChatModel, error) {
	switch provider {
	case ProviderOpenAI:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("OpenAI API key is required")
		}
		return openai.NewChatModel(ctx, &openai.ChatModelConfig{
			Model:   modelName,
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Timeout: cfg.Timeout,
		})

	case ProviderOllama:
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = DefaultOllamaURL
		}
		return ollama.NewChatModel(ctx, &ollama.ChatModelConfig{
			BaseURL: baseURL,
			Model:   modelName,
			Timeout: cfg.Timeout,
		})

	case ProviderAnthropic:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("anthropic API key is required")
		}
		claudeCfg := &claude.Config{
			APIKey:    cfg.APIKey,
			Model:     modelName,
			MaxTokens: DefaultMaxTokens,
		}
		if cfg.BaseURL != "" {
			baseURL := cfg.BaseURL
			claudeCfg.BaseURL = &baseURL
		}
		return claude.NewChatModel(ctx, claudeCfg)

	case ProviderGemini:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("gemini API key is required")
		}
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  cfg.APIKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, fmt.Errorf("create genai client: %w", err)
		}
		return gemini.NewChatModel(ctx, &gemini.Config{
			Client: client,
			Model:  modelName,
		})

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s (supported: openai, ollama, anthropic, gemini)", provider)
	}
}

// ValidateProvider checks if the given provider string is supported and
// returns its canonical form. Aliases such as "google_genai" are accepted.
func ValidateProvider(p string) (Provider, error) {
	name := strings.ToLower(strings.TrimSpace(p))
	if alias, ok := providerAliases[name]; ok {
		return alias, nil
	}

	switch name {
	case ProviderOpenAI:
		return ProviderOpenAI, nil
	case ProviderOllama:
		return ProviderOllama, nil
	case ProviderAnthropic:
		return ProviderAnthropic, nil
	case ProviderGemini:
		return ProviderGemini, nil
	default:
		return "", fmt.Errorf("unsupported provider: %q", p)
	}
}
