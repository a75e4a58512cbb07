package llm

import (
	"sort"
	"strings"
)

// Model is a known chat model and the provider that serves it.
type Model struct {
	ID         string   // Canonical model ID (e.g., "gemini-2.5-flash")
	ProviderID string   // Internal provider ID (e.g., "gemini")
	Aliases    []string // Alternative IDs including dated versions
	IsDefault  bool     // Whether this is the default model for its provider
}

// ModelRegistry lists the models offered for selection. Models outside the
// registry can still be used by passing their ID explicitly.
var ModelRegistry = []Model{
	// OpenAI
	{ID: "gpt-4.1-mini", ProviderID: ProviderOpenAI, Aliases: []string{"gpt-4.1-mini-2025-04-14"}, IsDefault: true},
	{ID: "gpt-4.1", ProviderID: ProviderOpenAI},
	{ID: "gpt-4o", ProviderID: ProviderOpenAI, Aliases: []string{"gpt-4o-2024-08-06"}},
	{ID: "gpt-4o-mini", ProviderID: ProviderOpenAI, Aliases: []string{"gpt-4o-mini-2024-07-18"}},

	// Anthropic
	{ID: "claude-3-5-sonnet-latest", ProviderID: ProviderAnthropic, Aliases: []string{"claude-3-5-sonnet-20241022"}, IsDefault: true},
	{ID: "claude-3-5-haiku-latest", ProviderID: ProviderAnthropic, Aliases: []string{"claude-3-5-haiku-20241022"}},

	// Gemini
	{ID: "gemini-2.5-flash", ProviderID: ProviderGemini, IsDefault: true},
	{ID: "gemini-2.5-pro", ProviderID: ProviderGemini},
	{ID: "gemini-2.0-flash", ProviderID: ProviderGemini},

	// Ollama (local)
	{ID: "llama3.2", ProviderID: ProviderOllama, IsDefault: true},
	{ID: "mistral", ProviderID: ProviderOllama},
	{ID: "qwen2.5", ProviderID: ProviderOllama},
}

// modelIndex is built at init time for fast lookups
var modelIndex map[string]*Model

func init() {
	buildModelIndex()
}

func buildModelIndex() {
	modelIndex = make(map[string]*Model)
	for i := range ModelRegistry {
		m := &ModelRegistry[i]
		modelIndex[m.ID] = m
		for _, alias := range m.Aliases {
			modelIndex[alias] = m
		}
	}
}

// GetModel returns the model definition for a given model ID or alias.
// Returns nil if the model is not found.
func GetModel(modelID string) *Model {
	return modelIndex[modelID]
}

// GetDefaultModelID returns the default model ID for a provider.
func GetDefaultModelID(providerID string) string {
	for _, m := range ModelRegistry {
		if m.ProviderID == providerID && m.IsDefault {
			return m.ID
		}
	}
	return ""
}

// InferProvider attempts to determine the provider from a model name.
// Returns the provider ID and true if inference succeeded.
func InferProvider(modelID string) (string, bool) {
	if m := GetModel(modelID); m != nil {
		return m.ProviderID, true
	}

	// Fallback to prefix-based inference for unknown models
	switch {
	case strings.HasPrefix(modelID, "gpt-"), strings.HasPrefix(modelID, "o1-"), strings.HasPrefix(modelID, "o3-"):
		return ProviderOpenAI, true
	case strings.HasPrefix(modelID, "claude-"):
		return ProviderAnthropic, true
	case strings.HasPrefix(modelID, "gemini-"):
		return ProviderGemini, true
	case strings.HasPrefix(modelID, "llama"), strings.HasPrefix(modelID, "mistral"), strings.HasPrefix(modelID, "qwen"):
		return ProviderOllama, true
	}

	return "", false
}

// ModelsForProvider returns the registered model IDs for a provider, default first.
func ModelsForProvider(providerID string) []Model {
	var models []Model
	for _, m := range ModelRegistry {
		if m.ProviderID == providerID {
			models = append(models, m)
		}
	}

	sort.SliceStable(models, func(i, j int) bool {
		if models[i].IsDefault != models[j].IsDefault {
			return models[i].IsDefault
		}
		return models[i].ID < models[j].ID
	})
	return models
}

// Providers returns the canonical provider IDs.
func Providers() []string {
	return []string{ProviderGemini, ProviderOpenAI, ProviderAnthropic, ProviderOllama}
}
