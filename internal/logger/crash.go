// Package logger configures structured logging and records crash logs.
package logger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	// CrashLogDir is the directory for crash logs relative to the store directory
	CrashLogDir = "crash_logs"

	// MaxCrashLogs is the maximum number of crash logs to keep
	MaxCrashLogs = 10
)

// CrashContext stores context for crash logging.
type CrashContext struct {
	mu        sync.RWMutex
	lastInput string
	command   string
	version   string
	basePath  string
}

// globalContext is the singleton crash context.
var globalContext = &CrashContext{}

// exit is replaced in tests.
var exit = os.Exit

// SetBasePath sets the base path for crash logs (typically the store directory).
func SetBasePath(path string) {
	globalContext.mu.Lock()
	defer globalContext.mu.Unlock()
	globalContext.basePath = path
}

// SetVersion sets the application version for crash logs.
func SetVersion(version string) {
	globalContext.mu.Lock()
	defer globalContext.mu.Unlock()
	globalContext.version = version
}

// SetCommand sets the current command being executed.
func SetCommand(cmd string) {
	globalContext.mu.Lock()
	defer globalContext.mu.Unlock()
	globalContext.command = cmd
}

// SetLastInput records the problem text being processed.
func SetLastInput(input string) {
	globalContext.mu.Lock()
	defer globalContext.mu.Unlock()
	globalContext.lastInput = truncateForLog(strings.TrimSpace(input), 500)
}

func truncateForLog(value string, maxLen int) string {
	if len(value) <= maxLen {
		return value
	}
	return value[:maxLen] + "... [truncated]"
}

// CrashLog represents a crash log entry.
type CrashLog struct {
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	Version    string    `json:"version"`
	Command    string    `json:"command"`
	PanicValue string    `json:"panic_value"`
	StackTrace string    `json:"stack_trace"`
	LastInput  string    `json:"last_input,omitempty"`
	GoVersion  string    `json:"go_version"`
	OS         string    `json:"os"`
	Arch       string    `json:"arch"`
}

// HandlePanic is a deferred function that recovers from panics and logs them.
// Usage: defer logger.HandlePanic()
func HandlePanic() {
	if r := recover(); r != nil {
		path, err := RecordPanic(r)
		if err != nil {
			fmt.Fprintf(os.Stderr, "\n[CRASH] Failed to write crash log: %v\n", err)
			fmt.Fprintf(os.Stderr, "[CRASH] Panic: %v\n%s\n", r, debug.Stack())
		} else {
			fmt.Fprintf(os.Stderr, "\nagiledev encountered an unexpected error.\n")
			fmt.Fprintf(os.Stderr, "A crash log has been saved to:\n  %s\n\n", path)
		}
		exit(1)
	}
}

// RecordPanic writes a crash log for a recovered panic value and returns its path.
func RecordPanic(panicValue any) (string, error) {
	log := createCrashLog(panicValue)
	return writeCrashLog(log)
}

// createCrashLog creates a CrashLog from a panic value.
func createCrashLog(panicValue any) CrashLog {
	globalContext.mu.RLock()
	defer globalContext.mu.RUnlock()

	return CrashLog{
		ID:         uuid.NewString(),
		Timestamp:  time.Now(),
		Version:    globalContext.version,
		Command:    globalContext.command,
		PanicValue: fmt.Sprintf("%v", panicValue),
		StackTrace: string(debug.Stack()),
		LastInput:  globalContext.lastInput,
		GoVersion:  runtime.Version(),
		OS:         runtime.GOOS,
		Arch:       runtime.GOARCH,
	}
}

// writeCrashLog writes a crash log to disk as indented JSON.
func writeCrashLog(log CrashLog) (string, error) {
	dir := getCrashLogDir()

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create crash log dir: %w", err)
	}

	data, err := json.MarshalIndent(log, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal crash log: %w", err)
	}

	path := getCrashLogPath(log)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write crash log: %w", err)
	}

	if err := cleanOldCrashLogs(dir); err != nil {
		fmt.Fprintf(os.Stderr, "[WARN] Failed to clean old crash logs: %v\n", err)
	}

	return path, nil
}

// getCrashLogDir returns the directory for crash logs.
func getCrashLogDir() string {
	globalContext.mu.RLock()
	basePath := globalContext.basePath
	globalContext.mu.RUnlock()

	if basePath == "" {
		basePath = ".agiledev"
	}

	return filepath.Join(basePath, CrashLogDir)
}

// getCrashLogPath returns the path for a crash log file. Names sort by time.
func getCrashLogPath(log CrashLog) string {
	filename := fmt.Sprintf("crash_%s_%s.json", log.Timestamp.Format("20060102_150405.000000"), log.ID[:8])
	return filepath.Join(getCrashLogDir(), filename)
}

func isCrashLog(name string) bool {
	return strings.HasPrefix(name, "crash_") && strings.HasSuffix(name, ".json")
}

// cleanOldCrashLogs removes old crash logs, keeping only MaxCrashLogs most recent.
func cleanOldCrashLogs(dir string) error {
	logs, err := listCrashLogs(dir)
	if err != nil || len(logs) <= MaxCrashLogs {
		return err
	}

	toRemove := len(logs) - MaxCrashLogs
	for i := range toRemove {
		if err := os.Remove(logs[i]); err != nil {
			return fmt.Errorf("remove old crash log %s: %w", filepath.Base(logs[i]), err)
		}
	}
	return nil
}

func listCrashLogs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var logs []string
	for _, e := range entries {
		if !e.IsDir() && isCrashLog(e.Name()) {
			logs = append(logs, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(logs)
	return logs, nil
}

// ListCrashLogs returns all crash logs, oldest first.
func ListCrashLogs() ([]string, error) {
	return listCrashLogs(getCrashLogDir())
}

// ReadCrashLog reads and decodes a crash log file.
func ReadCrashLog(path string) (*CrashLog, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var log CrashLog
	if err := json.Unmarshal(content, &log); err != nil {
		return nil, fmt.Errorf("decode crash log: %w", err)
	}
	return &log, nil
}
