package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cesto93/ai-agile-dev/internal/story"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeChatModel answers each prompt with a scripted response chosen by reply.
type fakeChatModel struct {
	mu    sync.Mutex
	calls []string
	reply func(ctx context.Context, prompt string) (*schema.Message, error)
}

func (f *fakeChatModel) Generate(ctx context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	prompt := input[len(input)-1].Content
	f.mu.Lock()
	f.calls = append(f.calls, prompt)
	f.mu.Unlock()
	return f.reply(ctx, prompt)
}

func (f *fakeChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := f.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func (f *fakeChatModel) callCount(prefix string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

// recordingSaver collects saved stories and can fail on chosen titles.
type recordingSaver struct {
	mu     sync.Mutex
	saved  []story.UserStory
	failOn map[string]bool
}

func (r *recordingSaver) Save(s story.UserStory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failOn[s.Title] {
		return errors.New("disk full")
	}
	r.saved = append(r.saved, s)
	return nil
}

func (r *recordingSaver) titles() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, s := range r.saved {
		out = append(out, s.Title)
	}
	return out
}

var testPrompts = Prompts{
	Clean:   "CLEAN\n{{.text}}",
	Extract: "EXTRACT\n{{.text}}",
	Refine:  "REFINE\n{{.title}}",
}

const refinedJSON = `{"role": "a user", "feature": "%s", "benefit": "value", "acceptance_criteria": ["works"], "priority": "High"}`

func candidatesJSON(titles ...string) string {
	var parts []string
	for _, t := range titles {
		parts = append(parts, fmt.Sprintf(`{"title": %q, "description": "about %s"}`, t, t))
	}
	return `{"user_stories": [` + strings.Join(parts, ",") + `]}`
}

// scripted returns a reply func that cleans to cleaned, extracts titles and
// refines with refine.
func scripted(cleaned string, titles []string, refine func(title string) (string, error)) func(context.Context, string) (*schema.Message, error) {
	return func(_ context.Context, prompt string) (*schema.Message, error) {
		switch {
		case strings.HasPrefix(prompt, "CLEAN"):
			return schema.AssistantMessage(cleaned, nil), nil
		case strings.HasPrefix(prompt, "EXTRACT"):
			return schema.AssistantMessage("```json\n"+candidatesJSON(titles...)+"\n```", nil), nil
		case strings.HasPrefix(prompt, "REFINE"):
			title := strings.TrimPrefix(prompt, "REFINE\n")
			content, err := refine(title)
			if err != nil {
				return nil, err
			}
			return schema.AssistantMessage(content, nil), nil
		}
		return nil, fmt.Errorf("unexpected prompt: %s", prompt)
	}
}

func okRefine(title string) (string, error) {
	return fmt.Sprintf(refinedJSON, title), nil
}

func TestRun_FullSavesEveryStory(t *testing.T) {
	cm := &fakeChatModel{reply: scripted("cleaned", []string{"Login", "Logout"}, okRefine)}
	saver := &recordingSaver{}

	result, err := New(cm, saver, WithPrompts(testPrompts)).Run(context.Background(), "raw text", false)
	require.NoError(t, err)

	assert.Equal(t, "cleaned", result.CleanedText)
	require.Len(t, result.Candidates, 2)
	require.Len(t, result.Stories, 2)
	assert.Equal(t, "Login", result.Stories[0].Title)
	assert.Equal(t, "about Login", result.Stories[0].Description)
	assert.Equal(t, "works", result.Stories[0].AcceptanceCriteria)
	assert.Equal(t, []string{"Login", "Logout"}, result.Report.Saved)
	assert.Empty(t, result.Report.Failed)
	assert.Equal(t, []string{"Login", "Logout"}, saver.titles())
}

func TestRun_PartialRefinementResilience(t *testing.T) {
	refine := func(title string) (string, error) {
		if title == "Second" {
			return "Sorry, I cannot produce JSON for this one.", nil
		}
		return okRefine(title)
	}
	cm := &fakeChatModel{reply: scripted("cleaned", []string{"First", "Second", "Third"}, refine)}
	saver := &recordingSaver{}

	result, err := New(cm, saver, WithPrompts(testPrompts)).Run(context.Background(), "raw", false)
	require.NoError(t, err)

	assert.Equal(t, []string{"First", "Third"}, saver.titles())
	assert.Equal(t, []string{"First", "Third"}, result.Report.Saved)
	require.Len(t, result.Report.Failed, 1)
	assert.Equal(t, "Second", result.Report.Failed[0].Title)
	assert.Contains(t, result.Report.Failed[0].Reason, ErrMalformedOutput.Error())
	assert.True(t, result.Report.HasFailures())
	assert.Equal(t, "2 saved, 1 failed (Second)", result.Report.String())
}

func TestRun_RefineFailureKinds(t *testing.T) {
	refine := func(title string) (string, error) {
		switch title {
		case "Model error":
			return "", errors.New("rate limited")
		case "Missing criteria":
			return `{"role": "a user", "acceptance_criteria": ""}`, nil
		}
		return okRefine(title)
	}
	titles := []string{"Model error", "Missing criteria", "Save fails", "Good"}
	cm := &fakeChatModel{reply: scripted("cleaned", titles, refine)}
	saver := &recordingSaver{failOn: map[string]bool{"Save fails": true}}

	result, err := New(cm, saver, WithPrompts(testPrompts)).Run(context.Background(), "raw", false)
	require.NoError(t, err)

	assert.Equal(t, []string{"Good"}, result.Report.Saved)
	require.Len(t, result.Report.Failed, 3)
	assert.Equal(t, "Model error", result.Report.Failed[0].Title)
	assert.Contains(t, result.Report.Failed[0].Reason, "rate limited")
	assert.Equal(t, "Missing criteria", result.Report.Failed[1].Title)
	assert.Equal(t, "Save fails", result.Report.Failed[2].Title)
	assert.Contains(t, result.Report.Failed[2].Reason, "disk full")
}

func TestRun_ParallelRefinementKeepsOrder(t *testing.T) {
	titles := []string{"A", "B", "C", "D", "E", "F"}
	refine := func(title string) (string, error) {
		// Earlier titles finish later.
		time.Sleep(time.Duration(len(titles)-strings.Index("ABCDEF", title)) * time.Millisecond)
		return okRefine(title)
	}
	cm := &fakeChatModel{reply: scripted("cleaned", titles, refine)}
	saver := &recordingSaver{}

	result, err := New(cm, saver, WithPrompts(testPrompts), WithConcurrency(4)).Run(context.Background(), "raw", false)
	require.NoError(t, err)

	assert.Equal(t, titles, result.Report.Saved)
	var got []string
	for _, s := range result.Stories {
		got = append(got, s.Title)
	}
	assert.Equal(t, titles, got)
	assert.ElementsMatch(t, titles, saver.titles())
}

func TestRun_MinimalSkipsPersistence(t *testing.T) {
	cm := &fakeChatModel{reply: scripted("cleaned", []string{"One", "Two"}, okRefine)}
	saver := &recordingSaver{}

	result, err := New(cm, saver, WithPrompts(testPrompts)).Run(context.Background(), "raw", true)
	require.NoError(t, err)

	assert.Empty(t, saver.titles())
	assert.Zero(t, cm.callCount("REFINE"))
	require.Len(t, result.Stories, 2)
	assert.Equal(t, story.FromCandidate(result.Candidates[0]), result.Stories[0])
	assert.Empty(t, result.Stories[1].AcceptanceCriteria)
	assert.True(t, result.Minimal)
}

func TestRun_MinimalWithoutSaver(t *testing.T) {
	cm := &fakeChatModel{reply: scripted("cleaned", []string{"One"}, okRefine)}

	result, err := New(cm, nil, WithPrompts(testPrompts)).Run(context.Background(), "raw", true)
	require.NoError(t, err)
	assert.Len(t, result.Stories, 1)

	_, err = New(cm, nil, WithPrompts(testPrompts)).Run(context.Background(), "raw", false)
	assert.Error(t, err)
}

func TestRun_CleanStagePreservesRelevantText(t *testing.T) {
	relevant1 := "Users must be able to register with an email address."
	relevant2 := "Administrators can export monthly sales reports as CSV."
	irrelevant := "By the way, my cat enjoys sleeping on the keyboard."
	input := relevant1 + " " + irrelevant + " " + relevant2

	// The model answers in two text parts, in either multi-part field.
	tests := []struct {
		name  string
		reply *schema.Message
	}{
		{
			name: "assistant output parts",
			reply: &schema.Message{
				Role: schema.Assistant,
				AssistantGenMultiContent: []schema.MessageOutputPart{
					{Type: schema.ChatMessagePartTypeText, Text: relevant1 + " "},
					{Type: schema.ChatMessagePartTypeText, Text: relevant2},
				},
			},
		},
		{
			name: "legacy parts",
			reply: &schema.Message{
				Role: schema.Assistant,
				MultiContent: []schema.ChatMessagePart{
					{Type: schema.ChatMessagePartTypeText, Text: relevant1 + " "},
					{Type: schema.ChatMessagePartTypeText, Text: relevant2},
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cm := &fakeChatModel{reply: func(_ context.Context, prompt string) (*schema.Message, error) {
				if strings.HasPrefix(prompt, "CLEAN") {
					return tt.reply, nil
				}
				return schema.AssistantMessage(`{"user_stories": []}`, nil), nil
			}}

			result, err := New(cm, &recordingSaver{}, WithPrompts(testPrompts)).Run(context.Background(), input, false)
			require.NoError(t, err)

			assert.Equal(t, relevant1+" "+relevant2, result.CleanedText)
			assert.NotContains(t, result.CleanedText, irrelevant)
			assert.Empty(t, result.Candidates)
			assert.Empty(t, result.Stories)
		})
	}
}

func TestRun_RefineSeesOnlyItsCandidate(t *testing.T) {
	cleaned := "Users log in. Admins audit every login attempt."
	cm := &fakeChatModel{reply: func(_ context.Context, prompt string) (*schema.Message, error) {
		switch {
		case strings.Contains(prompt, "Respond with the cleaned text only"):
			return schema.AssistantMessage(cleaned, nil), nil
		case strings.Contains(prompt, `{"user_stories": [`):
			return schema.AssistantMessage(candidatesJSON("Login"), nil), nil
		}
		return schema.AssistantMessage(fmt.Sprintf(refinedJSON, "Login"), nil), nil
	}}

	result, err := New(cm, &recordingSaver{}).Run(context.Background(), "raw text", false)
	require.NoError(t, err)
	require.Equal(t, []string{"Login"}, result.Report.Saved)

	cm.mu.Lock()
	defer cm.mu.Unlock()
	require.Len(t, cm.calls, 3)
	refinePrompt := cm.calls[2]
	assert.Contains(t, refinePrompt, "Story title: Login")
	assert.Contains(t, refinePrompt, "Story description: about Login")
	assert.NotContains(t, refinePrompt, "Admins audit every login attempt")
}

// toolCallingModel is a fakeChatModel that supports tool binding. It records
// the bound tools and how many calls forced a tool choice.
type toolCallingModel struct {
	*fakeChatModel
	bound  []string
	forced int
}

func (m *toolCallingModel) WithTools(tools []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range tools {
		m.bound = append(m.bound, t.Name)
	}
	return m, nil
}

func (m *toolCallingModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	if o := model.GetCommonOptions(nil, opts...); o.ToolChoice != nil && *o.ToolChoice == schema.ToolChoiceForced {
		m.mu.Lock()
		m.forced++
		m.mu.Unlock()
	}
	return m.fakeChatModel.Generate(ctx, input, opts...)
}

func toolCall(name, args string) *schema.Message {
	return schema.AssistantMessage("", []schema.ToolCall{{
		ID:       "call_1",
		Type:     "function",
		Function: schema.FunctionCall{Name: name, Arguments: args},
	}})
}

func TestRun_StructuredStagesForceToolCall(t *testing.T) {
	cm := &toolCallingModel{fakeChatModel: &fakeChatModel{reply: func(_ context.Context, prompt string) (*schema.Message, error) {
		switch {
		case strings.HasPrefix(prompt, "CLEAN"):
			return schema.AssistantMessage("cleaned", nil), nil
		case strings.HasPrefix(prompt, "EXTRACT"):
			return toolCall(ExtractToolName, candidatesJSON("Login", "Logout")), nil
		}
		title := strings.TrimPrefix(prompt, "REFINE\n")
		return toolCall(RefineToolName, fmt.Sprintf(refinedJSON, title)), nil
	}}}
	saver := &recordingSaver{}

	result, err := New(cm, saver, WithPrompts(testPrompts)).Run(context.Background(), "raw", false)
	require.NoError(t, err)

	assert.Equal(t, []string{"Login", "Logout"}, saver.titles())
	assert.Equal(t, "works", result.Stories[0].AcceptanceCriteria)
	assert.Equal(t, []string{ExtractToolName, RefineToolName}, cm.bound)
	assert.Equal(t, 3, cm.forced, "extract and both refine calls are forced, clean is not")
}

func TestRun_ToolCallArgumentsAreValidated(t *testing.T) {
	cm := &toolCallingModel{fakeChatModel: &fakeChatModel{reply: func(_ context.Context, prompt string) (*schema.Message, error) {
		if strings.HasPrefix(prompt, "CLEAN") {
			return schema.AssistantMessage("cleaned", nil), nil
		}
		return toolCall(ExtractToolName, `{"user_stories": [{"title": "  "}]}`), nil
	}}}

	_, err := New(cm, &recordingSaver{}, WithPrompts(testPrompts)).Run(context.Background(), "raw", false)
	var malformed *MalformedOutputError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, StageExtract, malformed.Stage)
	assert.Equal(t, `{"user_stories": [{"title": "  "}]}`, malformed.Raw)
}

func TestRun_ToolCallingDisabledReadsText(t *testing.T) {
	cm := &toolCallingModel{fakeChatModel: &fakeChatModel{reply: scripted("cleaned", []string{"Login"}, okRefine)}}

	result, err := New(cm, &recordingSaver{}, WithPrompts(testPrompts), WithToolCalling(false)).
		Run(context.Background(), "raw", false)
	require.NoError(t, err)

	assert.Equal(t, []string{"Login"}, result.Report.Saved)
	assert.Empty(t, cm.bound)
	assert.Zero(t, cm.forced)
}

func TestRun_StageFailuresAbort(t *testing.T) {
	tests := []struct {
		name          string
		reply         func(context.Context, string) (*schema.Message, error)
		wantStage     Stage
		wantMalformed bool
	}{
		{
			name: "clean model error",
			reply: func(context.Context, string) (*schema.Message, error) {
				return nil, errors.New("unavailable")
			},
			wantStage: StageClean,
		},
		{
			name: "clean empty response",
			reply: func(context.Context, string) (*schema.Message, error) {
				return schema.AssistantMessage("   ", nil), nil
			},
			wantStage:     StageClean,
			wantMalformed: true,
		},
		{
			name: "extract not JSON",
			reply: func(_ context.Context, prompt string) (*schema.Message, error) {
				if strings.HasPrefix(prompt, "CLEAN") {
					return schema.AssistantMessage("cleaned", nil), nil
				}
				return schema.AssistantMessage("Here are some stories: login, logout", nil), nil
			},
			wantStage:     StageExtract,
			wantMalformed: true,
		},
		{
			name: "extract wrong shape",
			reply: func(_ context.Context, prompt string) (*schema.Message, error) {
				if strings.HasPrefix(prompt, "CLEAN") {
					return schema.AssistantMessage("cleaned", nil), nil
				}
				return schema.AssistantMessage(`{"user_stories": [{"title": ""}]}`, nil), nil
			},
			wantStage:     StageExtract,
			wantMalformed: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			saver := &recordingSaver{}
			result, err := New(&fakeChatModel{reply: tt.reply}, saver, WithPrompts(testPrompts)).Run(context.Background(), "raw", false)
			require.Error(t, err)
			assert.Nil(t, result)
			assert.Empty(t, saver.titles())

			var stageErr *StageError
			require.ErrorAs(t, err, &stageErr)
			assert.Equal(t, tt.wantStage, stageErr.Stage)
			assert.NotEmpty(t, stageErr.Input)

			if tt.wantMalformed {
				assert.ErrorIs(t, err, ErrMalformedOutput)
				var malformed *MalformedOutputError
				require.ErrorAs(t, err, &malformed)
				assert.Equal(t, tt.wantStage, malformed.Stage)
			}
		})
	}
}

func TestRun_TimeoutIsStageFailure(t *testing.T) {
	cm := &fakeChatModel{reply: func(ctx context.Context, _ string) (*schema.Message, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}

	_, err := New(cm, &recordingSaver{}, WithPrompts(testPrompts), WithTimeout(20*time.Millisecond)).
		Run(context.Background(), "raw", false)
	require.Error(t, err)

	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, StageClean, stageErr.Stage)
	assert.Contains(t, err.Error(), "timed out")
}

func TestRun_EmptyInput(t *testing.T) {
	cm := &fakeChatModel{reply: scripted("x", nil, okRefine)}
	_, err := New(cm, &recordingSaver{}).Run(context.Background(), "  \n", false)
	assert.ErrorIs(t, err, ErrEmptyInput)
	assert.Zero(t, cm.callCount(""))
}

func TestDecodeStructured(t *testing.T) {
	t.Run("text around JSON", func(t *testing.T) {
		got, err := decodeStructured[story.CandidateList](StageExtract, `Sure! {"user_stories": [{"title": "A"}]} Hope this helps.`)
		require.NoError(t, err)
		require.Len(t, got.UserStories, 1)
		assert.Equal(t, "A", got.UserStories[0].Title)
	})

	t.Run("wrong field type", func(t *testing.T) {
		_, err := decodeStructured[story.Details](StageRefine, `{"acceptance_criteria": 12}`)
		var malformed *MalformedOutputError
		require.ErrorAs(t, err, &malformed)
		assert.Equal(t, `{"acceptance_criteria": 12}`, malformed.Raw)
	})
}

func TestLoadPrompts(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "prompts.yaml", []byte("extract: |\n  custom {{.text}}\n"), 0644))

	p, err := LoadPrompts(fsys, "prompts.yaml")
	require.NoError(t, err)
	assert.Equal(t, "custom {{.text}}\n", p.Extract)
	assert.Equal(t, CleanPrompt, p.Clean)
	assert.Equal(t, RefinePrompt, p.Refine)

	p, err = LoadPrompts(fsys, "missing.yaml")
	require.NoError(t, err)
	assert.Equal(t, DefaultPrompts(), p)

	require.NoError(t, afero.WriteFile(fsys, "bad.yaml", []byte("clean: [unterminated"), 0644))
	_, err = LoadPrompts(fsys, "bad.yaml")
	assert.Error(t, err)
}
