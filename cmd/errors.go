package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/cesto93/ai-agile-dev/internal/app"
	"github.com/cesto93/ai-agile-dev/internal/llm"
	"github.com/cesto93/ai-agile-dev/internal/pipeline"
	"github.com/cesto93/ai-agile-dev/internal/store"
	"github.com/spf13/viper"
)

// HandleFatalError handles unrecoverable errors that should terminate the application.
func HandleFatalError(userMsg string, technicalErr error) {
	PrintError(os.Stderr, userMsg, technicalErr)
	os.Exit(1)
}

// PrintError prints an error message without exiting, allowing for recovery.
// In verbose mode the technical error is printed instead of the short message.
func PrintError(w io.Writer, userMsg string, technicalErr error) {
	if viper.GetBool("verbose") && technicalErr != nil {
		fmt.Fprintf(w, "Error: %v\n", technicalErr)
	} else {
		fmt.Fprintln(w, userMsg)
	}
}

// userMessage maps known errors to a short explanation for the terminal.
func userMessage(err error) string {
	var stageErr *pipeline.StageError
	switch {
	case errors.Is(err, llm.ErrModelResolution):
		return "Could not set up the language model. Check --provider, --model and your API key."
	case errors.Is(err, pipeline.ErrEmptyInput):
		return "The problem description is empty."
	case errors.As(err, &stageErr):
		return fmt.Sprintf("Story generation failed during the %s stage.", stageErr.Stage)
	case errors.Is(err, app.ErrNotFound):
		return "Story not found."
	case errors.Is(err, store.ErrTitleExists):
		return "A story with that title already exists."
	case errors.Is(err, store.ErrSlugCollision):
		return "Another story already uses the same file name."
	case errors.Is(err, store.ErrEmptyTitle):
		return "The title must not be blank."
	default:
		return "Error: " + err.Error()
	}
}
