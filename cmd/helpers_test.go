package cmd

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/cesto93/ai-agile-dev/internal/llm"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// scriptedModel answers the default prompts: two candidates, both refinable.
type scriptedModel struct{}

func (scriptedModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	prompt := input[len(input)-1].Content
	switch {
	case strings.Contains(prompt, "Respond with the cleaned text only"):
		return schema.AssistantMessage("Users need to log in and log out.", nil), nil
	case strings.Contains(prompt, `{"user_stories": [`):
		return schema.AssistantMessage(`{"user_stories": [
			{"title": "Login", "description": "Sign in"},
			{"title": "Logout", "description": "Sign out"}
		]}`, nil), nil
	default:
		return schema.AssistantMessage(`{"role": "a user", "feature": "to sign in", "benefit": "I can work", "acceptance_criteria": ["works"]}`, nil), nil
	}
}

func (m scriptedModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

// resetFlags restores every flag of c and its children to its default value.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, child := range c.Commands() {
		resetFlags(child)
	}
}

// executeCommand runs the CLI with a scripted model and non-interactive stdin.
// It returns what the command wrote to stdout.
func executeCommand(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	viper.Reset()
	resetFlags(rootCmd)

	origModel, origTerminal := newModel, stdinIsTerminal
	newModel = func(context.Context, llm.Config) (model.BaseChatModel, error) {
		return scriptedModel{}, nil
	}
	stdinIsTerminal = func() bool { return false }
	t.Cleanup(func() {
		newModel, stdinIsTerminal = origModel, origTerminal
		viper.Reset()
	})

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}
