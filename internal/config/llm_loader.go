package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/cesto93/ai-agile-dev/internal/llm"
	"github.com/spf13/viper"
)

// LoadLLMConfig loads LLM configuration from Viper and Environment variables.
// Non-empty provider or model arguments override the configured values.
// Precedence: arguments > Viper config (file/env) > provider defaults.
// When only a model is given, the provider is inferred from it if possible.
func LoadLLMConfig(provider, model string) (llm.Config, error) {
	provider = strings.TrimSpace(provider)
	model = strings.TrimSpace(model)

	// 1. Provider
	configured := viper.GetString("llm.provider")
	if provider == "" && model != "" {
		if inferred, ok := llm.InferProvider(model); ok {
			provider = inferred
		}
	}
	if provider == "" {
		provider = configured
	}
	if provider == "" {
		provider = llm.DefaultProvider
	}

	llmProvider, err := llm.ValidateProvider(provider)
	if err != nil {
		return llm.Config{}, fmt.Errorf("%w: %v", llm.ErrModelResolution, err)
	}

	// 2. Model: the configured model only applies to the configured provider
	if model == "" {
		if cp, err := llm.ValidateProvider(configured); err == nil && cp == llmProvider {
			model = viper.GetString("llm.model")
		}
	}
	if model == "" {
		model = llm.DefaultModelForProvider(string(llmProvider))
	}

	// 3. API Key (missing keys are reported by llm.NewChatModel)
	apiKey := ResolveAPIKey(llmProvider)

	// 4. Base URL
	baseURL := viper.GetString("llm.baseURL")
	if baseURL == "" && llmProvider == llm.ProviderOllama {
		baseURL = llm.DefaultOllamaURL
	}

	return llm.Config{
		Provider: llmProvider,
		Model:    model,
		APIKey:   apiKey,
		BaseURL:  baseURL,
		Timeout:  viper.GetDuration("llm.timeout"),
	}, nil
}

// ResolveAPIKey returns the best API key for the given provider using
// per-provider config keys, then provider-specific env vars.
func ResolveAPIKey(provider llm.Provider) string {
	path := fmt.Sprintf("llm.apiKeys.%s", provider)
	if viper.IsSet(path) {
		if key := strings.TrimSpace(viper.GetString(path)); key != "" {
			return key
		}
	}
	return providerEnvKey(provider)
}

func providerEnvKey(provider llm.Provider) string {
	switch provider {
	case llm.ProviderOpenAI:
		return strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	case llm.ProviderAnthropic:
		return strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY"))
	case llm.ProviderGemini:
		key := strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
		if key == "" {
			key = strings.TrimSpace(os.Getenv("GOOGLE_API_KEY"))
		}
		return key
	default:
		return ""
	}
}
