package llm

// Provider constants
const (
	// ProviderOpenAI represents the OpenAI provider
	ProviderOpenAI = "openai"

	// ProviderOllama represents the Ollama provider
	ProviderOllama = "ollama"

	// ProviderAnthropic represents the Anthropic provider
	ProviderAnthropic = "anthropic"

	// ProviderGemini represents the Google Gemini provider
	ProviderGemini = "gemini"

	// DefaultProvider is the default LLM provider
	DefaultProvider = ProviderGemini
)

// providerAliases maps accepted alternative names to canonical providers.
var providerAliases = map[string]Provider{
	"google_genai": ProviderGemini,
	"google":       ProviderGemini,
	"claude":       ProviderAnthropic,
}

// DefaultOllamaURL is the default URL for Ollama server
const DefaultOllamaURL = "http://localhost:11434"

// DefaultMaxTokens caps Anthropic responses, which require an explicit limit.
const DefaultMaxTokens = 4096

// SupportsForcedToolCall reports whether the provider's chat model honors a
// forced tool choice. Ollama models are asked for JSON in the prompt instead.
func SupportsForcedToolCall(provider Provider) bool {
	return provider != ProviderOllama
}

// DefaultModelForProvider returns the default model ID for a given provider.
// This is a convenience wrapper around GetDefaultModelID in models.go.
func DefaultModelForProvider(provider string) string {
	return GetDefaultModelID(provider)
}
