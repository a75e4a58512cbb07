package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cesto93/ai-agile-dev/internal/app"
	"github.com/cesto93/ai-agile-dev/internal/config"
	"github.com/cesto93/ai-agile-dev/internal/llm"
	"github.com/cesto93/ai-agile-dev/internal/store"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

// newModel resolves chat models for commands. Tests replace it with a scripted model.
var newModel app.ModelFactory = llm.NewChatModel

func isJSON() bool {
	return viper.GetBool("json")
}

func isVerbose() bool {
	return viper.GetBool("verbose")
}

func printJSON(w io.Writer, v any) error {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(output))
	return err
}

// openStoryApp opens the configured store and wraps it in a StoryApp.
// The returned close function must be called when the command is done.
func openStoryApp() (*app.StoryApp, *store.Store, func(), error) {
	dir := config.GetStoreDir()
	s, err := store.Open(dir)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open store at %s: %w", dir, err)
	}

	appCtx := app.NewContext(s)
	appCtx.NewModel = newModel
	return app.NewStoryApp(appCtx), s, func() { _ = s.Close() }, nil
}

// isTerminal reports whether f is attached to a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// stdinIsTerminal is swapped in tests.
var stdinIsTerminal = func() bool { return isTerminal(os.Stdin) }

// confirmOrAbort asks a yes/no question on an interactive terminal.
// Non-interactive input never confirms: callers must pass --yes instead.
func confirmOrAbort(cmd *cobra.Command, prompt string) bool {
	if !stdinIsTerminal() {
		fmt.Fprintln(cmd.ErrOrStderr(), "Refusing to continue without confirmation on non-interactive input. Pass --yes.")
		return false
	}
	fmt.Fprint(cmd.ErrOrStderr(), prompt)
	reader := bufio.NewReader(cmd.InOrStdin())
	response, _ := reader.ReadString('\n')
	response = strings.TrimSpace(strings.ToLower(response))
	if response != "y" && response != "yes" {
		fmt.Fprintln(cmd.ErrOrStderr(), "Cancelled.")
		return false
	}
	return true
}

// readInput reads path, or the command's stdin when path is "-".
func readInput(cmd *cobra.Command, path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}
