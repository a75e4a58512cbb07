package cmd

import (
	"fmt"
	"io"

	"github.com/cesto93/ai-agile-dev/internal/app"
	"github.com/cesto93/ai-agile-dev/internal/config"
	"github.com/cesto93/ai-agile-dev/internal/llm"
	"github.com/cesto93/ai-agile-dev/internal/logger"
	"github.com/cesto93/ai-agile-dev/internal/store"
	"github.com/cesto93/ai-agile-dev/internal/ui"
	"github.com/spf13/cobra"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the store and LLM setup and diagnose issues",
	Long: `Validate the agiledev setup.

Checks:
  • LLM provider and model resolution, and whether an API key is set
  • Index rows whose markdown file is missing
  • Markdown files that no index row points to
  • Recent crash logs`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		storyApp, _, closeStore, err := openStoryApp()
		if err != nil {
			return err
		}
		defer closeStore()

		checks := runDoctorChecks(storyApp)
		out := cmd.OutOrStdout()
		if isJSON() {
			return printJSON(out, checks)
		}
		printDoctor(out, checks)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

// DoctorCheck represents a single diagnostic check
type DoctorCheck struct {
	Name    string `json:"name"`
	Status  string `json:"status"` // "ok", "warn", "fail"
	Message string `json:"message"`
	Hint    string `json:"hint,omitempty"`
}

func runDoctorChecks(storyApp *app.StoryApp) []DoctorCheck {
	checks := []DoctorCheck{checkLLM()}
	checks = append(checks, checkStore(storyApp)...)
	checks = append(checks, checkCrashLogs())
	return checks
}

func checkLLM() DoctorCheck {
	cfg, err := config.LoadLLMConfig("", "")
	if err != nil {
		return DoctorCheck{Name: "LLM", Status: "fail", Message: err.Error(), Hint: "Set llm.provider to openai, anthropic, ollama or gemini"}
	}
	msg := fmt.Sprintf("%s / %s", cfg.Provider, cfg.Model)
	if cfg.Provider != llm.ProviderOllama && cfg.APIKey == "" {
		return DoctorCheck{Name: "LLM", Status: "warn", Message: msg + " (no API key)", Hint: fmt.Sprintf("Set llm.apiKeys.%s or the provider's API key env var", cfg.Provider)}
	}
	return DoctorCheck{Name: "LLM", Status: "ok", Message: msg}
}

func checkStore(storyApp *app.StoryApp) []DoctorCheck {
	issues, err := storyApp.Check()
	if err != nil {
		return []DoctorCheck{{Name: "Store", Status: "fail", Message: err.Error()}}
	}
	if len(issues) == 0 {
		titles, _ := storyApp.Titles()
		return []DoctorCheck{{Name: "Store", Status: "ok", Message: fmt.Sprintf("%d stories, index and files agree", len(titles))}}
	}

	checks := make([]DoctorCheck, 0, len(issues))
	for _, issue := range issues {
		c := DoctorCheck{Name: "Store", Status: "warn", Message: issue.Message}
		switch issue.Type {
		case store.IssueMissingFile:
			c.Hint = fmt.Sprintf("Run: agiledev remove %q", issue.Title)
		case store.IssueOrphanFile:
			c.Hint = "Delete the file or recreate the story"
		}
		checks = append(checks, c)
	}
	return checks
}

func checkCrashLogs() DoctorCheck {
	logs, err := logger.ListCrashLogs()
	if err != nil || len(logs) == 0 {
		return DoctorCheck{Name: "Crash logs", Status: "ok", Message: "none"}
	}
	latest := logs[len(logs)-1]
	return DoctorCheck{Name: "Crash logs", Status: "warn", Message: fmt.Sprintf("%d found, latest %s", len(logs), latest)}
}

func printDoctor(w io.Writer, checks []DoctorCheck) {
	fmt.Fprintln(w, ui.StyleHeader.Render(ui.Heading("agiledev doctor")))
	fmt.Fprintln(w)

	hasErrors := false
	for _, c := range checks {
		var icon string
		switch c.Status {
		case "ok":
			icon = ui.Icon("✓", ui.StyleSuccess)
		case "warn":
			icon = ui.Icon("!", ui.StyleWarning)
		default:
			icon = ui.Icon("✗", ui.StyleError)
			hasErrors = true
		}
		fmt.Fprintf(w, "%s %s: %s\n", icon, c.Name, c.Message)
		if c.Hint != "" && c.Status != "ok" {
			fmt.Fprintf(w, "   └─ %s\n", c.Hint)
		}
	}

	fmt.Fprintln(w)
	if hasErrors {
		fmt.Fprintln(w, "Issues found. Fix the errors above before continuing.")
	} else {
		fmt.Fprintln(w, "Everything looks good!")
	}
}
