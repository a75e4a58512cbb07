// Package config loads application settings from flags, environment, .env
// and an optional YAML config file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	configName = ".agiledev"
	envPrefix  = "AGILEDEV"
)

// AppConfig is the resolved application configuration.
type AppConfig struct {
	LLM      LLMSettings      `mapstructure:"llm"`
	Store    StoreSettings    `mapstructure:"store"`
	Pipeline PipelineSettings `mapstructure:"pipeline"`
	Log      LogSettings      `mapstructure:"log"`
}

type LLMSettings struct {
	Provider string            `mapstructure:"provider" validate:"required"`
	Model    string            `mapstructure:"model"`
	APIKeys  map[string]string `mapstructure:"apikeys"`
	BaseURL  string            `mapstructure:"baseurl" validate:"omitempty,url"`
	Timeout  time.Duration     `mapstructure:"timeout" validate:"gte=0"`
}

type StoreSettings struct {
	Dir string `mapstructure:"dir" validate:"required"`
}

type PipelineSettings struct {
	Concurrency int    `mapstructure:"concurrency" validate:"gte=1,lte=32"`
	PromptsFile string `mapstructure:"promptsfile"`
}

type LogSettings struct {
	Level  string `mapstructure:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"omitempty,oneof=text json"`
}

// validate is a single instance of Validate, it caches struct info
var validate = validator.New()

// SetDefaults registers default values for every known key.
func SetDefaults() {
	viper.SetDefault("llm.provider", "gemini")
	viper.SetDefault("llm.model", "")
	viper.SetDefault("llm.baseURL", "")
	viper.SetDefault("llm.timeout", 2*time.Minute)
	viper.SetDefault("store.dir", DefaultStoreDir)
	viper.SetDefault("pipeline.concurrency", 1)
	viper.SetDefault("pipeline.promptsFile", "")
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "text")
}

// Init reads .env, environment variables and the config file into viper.
// cfgFile, when set, must exist. Otherwise .agiledev.yaml is searched in the
// working directory and then the home directory; a missing file is fine.
func Init(cfgFile string) error {
	// It's okay if .env file doesn't exist.
	_ = godotenv.Load()

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	SetDefaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(home)
		}
		viper.SetConfigName(configName)
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) && cfgFile == "" {
			slog.Debug("no config file found, using defaults and environment")
			return nil
		}
		return fmt.Errorf("read config file: %w", err)
	}

	slog.Debug("using config file", "path", viper.ConfigFileUsed())
	return nil
}

// Load unmarshals and validates the current viper state.
func Load() (*AppConfig, error) {
	var cfg AppConfig
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}
