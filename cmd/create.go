package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/cesto93/ai-agile-dev/internal/app"
	"github.com/cesto93/ai-agile-dev/internal/pipeline"
	"github.com/cesto93/ai-agile-dev/internal/ui"
	"github.com/spf13/cobra"
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Generate user stories from a problem description",
	Long: `Run the generation pipeline on a problem description.

The text is cleaned of irrelevant sentences, candidate stories are extracted,
and each candidate is refined into a full user story and saved. One failing
candidate does not stop the others; failures are listed at the end.

With --minimal the refinement step is skipped and nothing is saved.

Examples:
  agiledev create --doc-path problem.txt
  cat problem.txt | agiledev create --provider openai --model gpt-4.1-mini
  agiledev create --doc-path problem.txt --minimal --json`,
	Args: cobra.NoArgs,
	RunE: runCreate,
}

func init() {
	rootCmd.AddCommand(createCmd)
	createCmd.Flags().String("provider", "", "LLM provider (openai, anthropic, ollama, gemini)")
	createCmd.Flags().String("model", "", "model ID (default depends on the provider)")
	createCmd.Flags().String("doc-path", "", "file with the problem description (\"-\" for stdin)")
	createCmd.Flags().Bool("minimal", false, "skip refinement and do not save")
	createCmd.Flags().Bool("select", false, "choose provider and model interactively")
}

func runCreate(cmd *cobra.Command, _ []string) error {
	provider, _ := cmd.Flags().GetString("provider")
	model, _ := cmd.Flags().GetString("model")
	docPath, _ := cmd.Flags().GetString("doc-path")
	minimal, _ := cmd.Flags().GetBool("minimal")
	interactive, _ := cmd.Flags().GetBool("select")

	if docPath == "" {
		if stdinIsTerminal() {
			return errors.New("no problem description: pass --doc-path FILE or pipe text on stdin")
		}
		docPath = "-"
	}
	text, err := readInput(cmd, docPath)
	if err != nil {
		return err
	}

	if interactive {
		selection, err := ui.PromptLLMSelection()
		if err != nil {
			return err
		}
		provider, model = selection.Provider, selection.Model
	}

	storyApp, _, closeStore, err := openStoryApp()
	if err != nil {
		return err
	}
	defer closeStore()

	var spinner *ui.Spinner
	if !isJSON() && isTerminal(os.Stderr) {
		spinner = ui.NewSpinner(os.Stderr, "Generating stories...")
		spinner.Start()
	}
	result, err := storyApp.CreateStories(cmd.Context(), text, app.CreateOptions{
		Provider: provider,
		Model:    model,
		Minimal:  minimal,
	})
	if spinner != nil {
		spinner.Stop()
	}

	out := cmd.OutOrStdout()
	if err != nil {
		if result != nil && !isJSON() {
			printCreateResult(out, result)
		}
		return err
	}

	if isJSON() {
		return printJSON(out, result)
	}
	printCreateResult(out, result)
	return nil
}

func printCreateResult(w io.Writer, result *pipeline.Result) {
	if result.Minimal {
		fmt.Fprintln(w, ui.StyleHeader.Render(ui.Heading(fmt.Sprintf("candidate stories (%d)", len(result.Stories)))))
		for _, s := range result.Stories {
			fmt.Fprintf(w, "  • %s\n", ui.StyleTitle.Render(s.Title))
			if s.Description != "" {
				fmt.Fprintf(w, "    %s\n", ui.StyleSubtle.Render(s.Description))
			}
		}
		return
	}

	for _, title := range result.Report.Saved {
		fmt.Fprintf(w, "%s %s\n", ui.Icon("✓", ui.StyleSuccess), title)
	}
	for _, f := range result.Report.Failed {
		fmt.Fprintf(w, "%s %s: %s\n", ui.Icon("✗", ui.StyleError), f.Title, f.Reason)
	}
	fmt.Fprintln(w, ui.StyleSubtle.Render(result.Report.String()))
}
