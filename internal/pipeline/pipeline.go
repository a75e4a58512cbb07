/*
Package pipeline turns a free-text problem description into user stories in
three model-backed stages: clean, extract and refine.

Clean and extract failures abort the run. Refine failures are scoped to the
candidate that caused them and collected in the run Report.
*/
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cesto93/ai-agile-dev/internal/story"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// DefaultTimeout bounds every model call.
const DefaultTimeout = 2 * time.Minute

// Saver persists a refined story. The story store satisfies it.
type Saver interface {
	Save(s story.UserStory) error
}

// Pipeline runs the generation stages against one chat model.
type Pipeline struct {
	chatModel   model.BaseChatModel
	saver       Saver
	prompts     Prompts
	timeout     time.Duration
	concurrency int
	toolCalling bool
	logger      *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithTimeout sets the per-call model timeout. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(p *Pipeline) { p.timeout = d }
}

// WithConcurrency sets how many candidates are refined in parallel.
func WithConcurrency(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

// WithToolCalling controls whether extract and refine force a tool call on
// models that support tool binding. It is on by default; when off, or when the
// model cannot bind tools, the JSON is read from the response text.
func WithToolCalling(enabled bool) Option {
	return func(p *Pipeline) { p.toolCalling = enabled }
}

// WithPrompts replaces the stage prompts.
func WithPrompts(prompts Prompts) Option {
	return func(p *Pipeline) { p.prompts = DefaultPrompts().merge(prompts) }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// New creates a pipeline. saver may be nil when only minimal runs are made.
func New(chatModel model.BaseChatModel, saver Saver, opts ...Option) *Pipeline {
	p := &Pipeline{
		chatModel:   chatModel,
		saver:       saver,
		prompts:     DefaultPrompts(),
		timeout:     DefaultTimeout,
		concurrency: 1,
		toolCalling: true,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes the pipeline. With minimal set, the refine stage is skipped:
// stories carry only the candidate title and description and nothing is saved.
func (p *Pipeline) Run(ctx context.Context, text string, minimal bool) (*Result, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyInput
	}

	log := p.logger.With("run_id", uuid.NewString())
	start := time.Now()

	cleaned, err := p.clean(ctx, text)
	if err != nil {
		return nil, &StageError{Stage: StageClean, Input: text, Err: err}
	}
	log.Debug("clean stage done", "input_len", len(text), "output_len", len(cleaned))

	candidates, err := p.extract(ctx, cleaned)
	if err != nil {
		return nil, &StageError{Stage: StageExtract, Input: cleaned, Err: err}
	}
	log.Debug("extract stage done", "candidates", len(candidates))

	result := &Result{
		CleanedText: cleaned,
		Candidates:  candidates,
		Stories:     []story.UserStory{},
		Minimal:     minimal,
	}

	if minimal {
		for _, c := range candidates {
			result.Stories = append(result.Stories, story.FromCandidate(c))
		}
		log.Info("pipeline finished", "mode", "minimal", "stories", len(result.Stories), "duration", time.Since(start))
		return result, nil
	}

	if p.saver == nil {
		return nil, fmt.Errorf("pipeline: no saver configured for a full run")
	}

	p.refineAll(ctx, log, candidates, result)
	log.Info("pipeline finished",
		"saved", len(result.Report.Saved),
		"failed", len(result.Report.Failed),
		"duration", time.Since(start))

	if err := ctx.Err(); err != nil {
		return result, &StageError{Stage: StageRefine, Input: cleaned, Err: err}
	}
	return result, nil
}

func (p *Pipeline) clean(ctx context.Context, text string) (string, error) {
	c, err := newChain(ctx, StageClean, p.chatModel, p.prompts.Clean, parseCleanText, p.timeout, nil)
	if err != nil {
		return "", err
	}
	return c.Invoke(ctx, map[string]any{"text": text})
}

func (p *Pipeline) extract(ctx context.Context, cleaned string) ([]story.Candidate, error) {
	tool := p.tool(extractTool)
	c, err := newChain(ctx, StageExtract, p.chatModel, p.prompts.Extract, func(msg *schema.Message) (story.CandidateList, error) {
		return decodeStructured[story.CandidateList](StageExtract, structuredText(msg, tool))
	}, p.timeout, tool)
	if err != nil {
		return nil, err
	}

	list, err := c.Invoke(ctx, map[string]any{"text": cleaned})
	if err != nil {
		return nil, err
	}

	candidates := make([]story.Candidate, 0, len(list.UserStories))
	for _, cand := range list.UserStories {
		cand.Title = strings.TrimSpace(cand.Title)
		cand.Description = strings.TrimSpace(cand.Description)
		candidates = append(candidates, cand)
	}
	return candidates, nil
}

// refineAll refines and saves every candidate. Output order follows candidate
// order regardless of concurrency.
// Each candidate is refined from its own title and description only.
func (p *Pipeline) refineAll(ctx context.Context, log *slog.Logger, candidates []story.Candidate, result *Result) {
	tool := p.tool(refineTool)
	refiner, err := newChain(ctx, StageRefine, p.chatModel, p.prompts.Refine, func(msg *schema.Message) (story.Details, error) {
		return decodeStructured[story.Details](StageRefine, structuredText(msg, tool))
	}, p.timeout, tool)
	if err != nil {
		for _, c := range candidates {
			result.Report.Failed = append(result.Report.Failed, Failure{Title: c.Title, Reason: err.Error()})
		}
		return
	}

	type slot struct {
		story story.UserStory
		err   error
	}
	slots := make([]slot, len(candidates))

	var g errgroup.Group
	g.SetLimit(p.concurrency)
	for i, c := range candidates {
		g.Go(func() error {
			s, err := p.refineOne(ctx, refiner, c)
			slots[i] = slot{story: s, err: err}
			if err != nil {
				log.Warn("refine failed", "title", c.Title, "error", err)
			} else {
				log.Debug("story saved", "title", c.Title)
			}
			return nil
		})
	}
	_ = g.Wait()

	for i, c := range candidates {
		if slots[i].err != nil {
			result.Report.Failed = append(result.Report.Failed, Failure{Title: c.Title, Reason: slots[i].err.Error()})
			continue
		}
		result.Stories = append(result.Stories, slots[i].story)
		result.Report.Saved = append(result.Report.Saved, c.Title)
	}
}

func (p *Pipeline) refineOne(ctx context.Context, refiner *chain[story.Details], c story.Candidate) (story.UserStory, error) {
	if err := ctx.Err(); err != nil {
		return story.UserStory{}, err
	}

	details, err := refiner.Invoke(ctx, map[string]any{
		"title":       c.Title,
		"description": c.Description,
	})
	if err != nil {
		return story.UserStory{}, err
	}

	s := story.Merge(c, details)
	if err := p.saver.Save(s); err != nil {
		return story.UserStory{}, fmt.Errorf("save: %w", err)
	}
	return s, nil
}

func (p *Pipeline) tool(t *schema.ToolInfo) *schema.ToolInfo {
	if !p.toolCalling {
		return nil
	}
	return t
}

// parseCleanText accepts any non-blank text response.
func parseCleanText(msg *schema.Message) (string, error) {
	raw := messageText(msg)
	text := strings.TrimSpace(cleanFences(raw))
	if text == "" {
		return "", &MalformedOutputError{Stage: StageClean, Raw: raw, Err: fmt.Errorf("empty response")}
	}
	return text, nil
}

// cleanFences strips a surrounding markdown code fence from plain-text output.
func cleanFences(s string) string {
	t := strings.TrimSpace(s)
	if !strings.HasPrefix(t, "```") || !strings.HasSuffix(t, "```") || len(t) < 6 {
		return s
	}
	t = strings.TrimSuffix(strings.TrimPrefix(t, "```"), "```")
	// Drop an optional language tag on the opening fence line.
	if nl := strings.IndexByte(t, '\n'); nl >= 0 && !strings.Contains(t[:nl], " ") {
		t = t[nl+1:]
	}
	return t
}
