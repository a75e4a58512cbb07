package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
)

// outcome is the tagged result of the parser node: either a decoded Value or
// the error describing why the raw response could not be decoded.
type outcome[T any] struct {
	Value T
	Raw   string
	Err   error
}

// parseFunc turns a model response into a typed value.
type parseFunc[T any] func(msg *schema.Message) (T, error)

// chain is a compiled Eino graph: prompt -> model -> parser.
// When built with a tool, the model is bound to it and forced to call it, so
// the response arrives as tool-call arguments matching the tool's schema.
type chain[T any] struct {
	runnable compose.Runnable[map[string]any, outcome[T]]
	stage    Stage
	timeout  time.Duration
}

// newChain compiles the graph for one stage.
func newChain[T any](
	ctx context.Context,
	stage Stage,
	chatModel model.BaseChatModel,
	templateStr string,
	parse parseFunc[T],
	timeout time.Duration,
	tool *schema.ToolInfo,
) (*chain[T], error) {
	// 1. Template Node
	tmpl, err := template.New(string(stage)).Option("missingkey=zero").Parse(templateStr)
	if err != nil {
		return nil, fmt.Errorf("parse %s template: %w", stage, err)
	}

	templateFunc := func(ctx context.Context, input map[string]any) ([]*schema.Message, error) {
		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, input); err != nil {
			return nil, fmt.Errorf("execute template: %w", err)
		}
		return []*schema.Message{schema.UserMessage(buf.String())}, nil
	}

	// 2. Model Node (BaseChatModel wrapped in a lambda so models without tool binding work)
	callModel := chatModel
	var genOpts []model.Option
	if tool != nil {
		if tc, ok := chatModel.(model.ToolCallingChatModel); ok {
			bound, err := tc.WithTools([]*schema.ToolInfo{tool})
			if err != nil {
				return nil, fmt.Errorf("bind %s tool: %w", stage, err)
			}
			callModel = bound
			genOpts = append(genOpts, model.WithToolChoice(schema.ToolChoiceForced))
		}
	}

	modelFunc := func(ctx context.Context, input []*schema.Message) (*schema.Message, error) {
		return callModel.Generate(ctx, input, genOpts...)
	}

	// 3. Parser Node: malformed output is a value, not a graph failure
	parserFunc := func(ctx context.Context, output *schema.Message) (outcome[T], error) {
		raw := structuredText(output, tool)
		value, err := parse(output)
		return outcome[T]{Value: value, Raw: raw, Err: err}, nil
	}

	graph := compose.NewGraph[map[string]any, outcome[T]]()

	_ = graph.AddLambdaNode("prompt", compose.InvokableLambda(templateFunc))
	_ = graph.AddLambdaNode("model", compose.InvokableLambda(modelFunc))
	_ = graph.AddLambdaNode("parser", compose.InvokableLambda(parserFunc))

	_ = graph.AddEdge(compose.START, "prompt")
	_ = graph.AddEdge("prompt", "model")
	_ = graph.AddEdge("model", "parser")
	_ = graph.AddEdge("parser", compose.END)

	runnable, err := graph.Compile(ctx, compose.WithGraphName(string(stage)))
	if err != nil {
		return nil, fmt.Errorf("compile %s chain: %w", stage, err)
	}

	return &chain[T]{runnable: runnable, stage: stage, timeout: timeout}, nil
}

// Invoke runs the chain under the per-call timeout.
func (c *chain[T]) Invoke(ctx context.Context, input map[string]any) (T, error) {
	var zero T

	callCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	out, err := c.runnable.Invoke(callCtx, input)
	if err != nil {
		if ctxErr := callCtx.Err(); ctxErr != nil && ctx.Err() == nil {
			return zero, fmt.Errorf("model call timed out after %s: %w", c.timeout, ctxErr)
		}
		return zero, fmt.Errorf("model call: %w", err)
	}
	if out.Err != nil {
		return zero, out.Err
	}
	return out.Value, nil
}

// messageText returns the text of a response. Multi-part responses have their
// text parts concatenated in order.
func messageText(msg *schema.Message) string {
	if msg == nil {
		return ""
	}
	if msg.Content != "" {
		return msg.Content
	}

	var sb strings.Builder
	for _, part := range msg.AssistantGenMultiContent {
		if part.Type == schema.ChatMessagePartTypeText {
			sb.WriteString(part.Text)
		}
	}
	if sb.Len() > 0 {
		return sb.String()
	}
	for _, part := range msg.MultiContent {
		if part.Type == schema.ChatMessagePartTypeText {
			sb.WriteString(part.Text)
		}
	}
	return sb.String()
}

// structuredText returns the arguments of the call to tool when the response
// carries one, and the message text otherwise. A model that answered in
// plain text despite the binding is still decoded from its text.
func structuredText(msg *schema.Message, tool *schema.ToolInfo) string {
	if msg == nil {
		return ""
	}
	if tool != nil {
		for _, call := range msg.ToolCalls {
			if call.Function.Name == tool.Name {
				return call.Function.Arguments
			}
		}
	}
	return messageText(msg)
}
