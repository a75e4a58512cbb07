package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cesto93/ai-agile-dev/internal/llm"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetViperForTest(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
	for _, key := range []string{"OPENAI_API_KEY", "ANTHROPIC_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY"} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	resetViperForTest(t)
	SetDefaults()

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.Equal(t, 2*time.Minute, cfg.LLM.Timeout)
	assert.Equal(t, DefaultStoreDir, cfg.Store.Dir)
	assert.Equal(t, 1, cfg.Pipeline.Concurrency)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestInit_ReadsConfigFile(t *testing.T) {
	resetViperForTest(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
llm:
  provider: openai
  model: gpt-4o
  timeout: 30s
store:
  dir: /tmp/stories
pipeline:
  concurrency: 4
log:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	require.NoError(t, Init(path))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "gpt-4o", cfg.LLM.Model)
	assert.Equal(t, 30*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, "/tmp/stories", cfg.Store.Dir)
	assert.Equal(t, 4, cfg.Pipeline.Concurrency)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestInit_MissingExplicitFile(t *testing.T) {
	resetViperForTest(t)
	err := Init(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  any
	}{
		{name: "bad log level", key: "log.level", val: "loud"},
		{name: "zero concurrency", key: "pipeline.concurrency", val: 0},
		{name: "empty store dir", key: "store.dir", val: ""},
		{name: "bad base url", key: "llm.baseURL", val: "not a url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetViperForTest(t)
			SetDefaults()
			viper.Set(tt.key, tt.val)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadLLMConfig(t *testing.T) {
	t.Run("defaults to gemini", func(t *testing.T) {
		resetViperForTest(t)
		t.Setenv("GOOGLE_API_KEY", "g-key")

		cfg, err := LoadLLMConfig("", "")
		require.NoError(t, err)
		assert.Equal(t, llm.Provider(llm.ProviderGemini), cfg.Provider)
		assert.Equal(t, "gemini-2.5-flash", cfg.Model)
		assert.Equal(t, "g-key", cfg.APIKey)
	})

	t.Run("alias and explicit model", func(t *testing.T) {
		resetViperForTest(t)

		cfg, err := LoadLLMConfig("google_genai", "gemini-2.5-pro")
		require.NoError(t, err)
		assert.Equal(t, llm.Provider(llm.ProviderGemini), cfg.Provider)
		assert.Equal(t, "gemini-2.5-pro", cfg.Model)
	})

	t.Run("configured model ignored for another provider", func(t *testing.T) {
		resetViperForTest(t)
		viper.Set("llm.provider", "openai")
		viper.Set("llm.model", "gpt-4o")

		cfg, err := LoadLLMConfig("anthropic", "")
		require.NoError(t, err)
		assert.Equal(t, "claude-3-5-sonnet-latest", cfg.Model)

		cfg, err = LoadLLMConfig("", "")
		require.NoError(t, err)
		assert.Equal(t, "gpt-4o", cfg.Model)
	})

	t.Run("provider inferred from model", func(t *testing.T) {
		resetViperForTest(t)

		cfg, err := LoadLLMConfig("", "claude-3-5-haiku-latest")
		require.NoError(t, err)
		assert.Equal(t, llm.Provider(llm.ProviderAnthropic), cfg.Provider)
	})

	t.Run("ollama base url default", func(t *testing.T) {
		resetViperForTest(t)

		cfg, err := LoadLLMConfig("ollama", "")
		require.NoError(t, err)
		assert.Equal(t, llm.DefaultOllamaURL, cfg.BaseURL)
	})

	t.Run("unknown provider", func(t *testing.T) {
		resetViperForTest(t)

		_, err := LoadLLMConfig("acme", "")
		assert.ErrorIs(t, err, llm.ErrModelResolution)
	})
}

func TestResolveAPIKey(t *testing.T) {
	resetViperForTest(t)
	t.Setenv("OPENAI_API_KEY", "env-key")

	assert.Equal(t, "env-key", ResolveAPIKey(llm.ProviderOpenAI))

	viper.Set("llm.apiKeys.openai", "config-key")
	assert.Equal(t, "config-key", ResolveAPIKey(llm.ProviderOpenAI))

	assert.Empty(t, ResolveAPIKey(llm.ProviderOllama))
}

func TestPaths(t *testing.T) {
	resetViperForTest(t)

	assert.Equal(t, DefaultStoreDir, GetStoreDir())
	assert.Equal(t, "", GetPromptsFile())

	viper.Set("store.dir", "/data/stories")
	viper.Set("pipeline.promptsFile", "prompts.yaml")
	assert.Equal(t, filepath.Join("/data/stories", "crash_logs"), GetCrashLogDir())
	assert.Equal(t, filepath.Join("/data/stories", "prompts.yaml"), GetPromptsFile())

	viper.Set("pipeline.promptsFile", "/etc/prompts.yaml")
	assert.Equal(t, "/etc/prompts.yaml", GetPromptsFile())
}
