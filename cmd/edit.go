package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/cesto93/ai-agile-dev/internal/app"
	"github.com/cesto93/ai-agile-dev/internal/story"
	"github.com/spf13/cobra"
)

var editCmd = &cobra.Command{
	Use:   "edit TITLE",
	Short: "Replace the markdown of a story",
	Long: `Replace the markdown content of a story. The title and file name stay the same.

The new content is read from --file, from stdin when it is not a terminal,
or from $EDITOR opened on the current content.`,
	Args: cobra.ExactArgs(1),
	RunE: runEdit,
}

func init() {
	rootCmd.AddCommand(editCmd)
	editCmd.Flags().String("file", "", "file with the new content (\"-\" for stdin)")
}

func runEdit(cmd *cobra.Command, args []string) error {
	title := args[0]
	path, _ := cmd.Flags().GetString("file")

	storyApp, _, closeStore, err := openStoryApp()
	if err != nil {
		return err
	}
	defer closeStore()

	var content string
	switch {
	case path != "":
		content, err = readInput(cmd, path)
	case !stdinIsTerminal():
		content, err = readInput(cmd, "-")
	default:
		content, err = editInEditor(storyApp, title)
	}
	if err != nil {
		return err
	}

	if err := storyApp.Edit(title, content); err != nil {
		return err
	}
	if !isJSON() {
		fmt.Fprintf(cmd.OutOrStdout(), "Updated %s\n", title)
	}
	return nil
}

// editInEditor opens $EDITOR (vi by default) on a copy of the story.
func editInEditor(storyApp *app.StoryApp, title string) (string, error) {
	current, err := storyApp.Get(title)
	if err != nil {
		return "", err
	}

	dir, err := os.MkdirTemp("", "agiledev-edit-")
	if err != nil {
		return "", fmt.Errorf("create temp dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(dir) }()

	path := filepath.Join(dir, story.FileName(title))
	if err := os.WriteFile(path, []byte(current), 0o600); err != nil {
		return "", fmt.Errorf("write temp file: %w", err)
	}

	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vi"
	}
	c := exec.Command(editor, path)
	c.Stdin, c.Stdout, c.Stderr = os.Stdin, os.Stdout, os.Stderr
	if err := c.Run(); err != nil {
		return "", fmt.Errorf("run %s: %w", editor, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read edited file: %w", err)
	}
	return string(data), nil
}
