package config

import (
	"path/filepath"

	"github.com/spf13/viper"
)

// DefaultStoreDir is the store directory used when none is configured.
const DefaultStoreDir = ".agiledev"

// GetStoreDir returns the directory holding the story index and markdown files.
// Resolution order: "store.dir" (flag, env, config file), then DefaultStoreDir.
func GetStoreDir() string {
	if dir := viper.GetString("store.dir"); dir != "" {
		return dir
	}
	return DefaultStoreDir
}

// GetCrashLogDir returns the directory for crash logs.
func GetCrashLogDir() string {
	return filepath.Join(GetStoreDir(), "crash_logs")
}

// GetPromptsFile returns the prompt overrides file, or "" when none is configured.
// Relative paths are resolved against the store directory.
func GetPromptsFile() string {
	path := viper.GetString("pipeline.promptsFile")
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(GetStoreDir(), path)
}

// GetPipelineConcurrency returns how many candidates are refined in parallel, at least 1.
func GetPipelineConcurrency() int {
	if n := viper.GetInt("pipeline.concurrency"); n > 1 {
		return n
	}
	return 1
}
