package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/cesto93/ai-agile-dev/internal/app"
	mcppresenter "github.com/cesto93/ai-agile-dev/internal/mcp"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP server for AI tool integration",
	Long: `Start a Model Context Protocol (MCP) server over stdio so AI assistants
can generate and manage user stories in this store.

Tools: list_stories, get_story, create_stories, edit_story, rename_story,
remove_story, get_problem_description.

The server will run until the client disconnects.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMCPServer(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

// mcpMarkdownResponse wraps Markdown content in an MCP tool result.
func mcpMarkdownResponse(markdown string) (*mcpsdk.CallToolResultFor[any], error) {
	return &mcpsdk.CallToolResultFor[any]{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: markdown}},
	}, nil
}

// mcpErrorResponse wraps an error in an MCP tool result with IsError=true.
// Tool errors go in the result, not the protocol, so the model can see them.
func mcpErrorResponse(err error) (*mcpsdk.CallToolResultFor[any], error) {
	return mcpFormattedErrorResponse(mcppresenter.FormatError(err.Error()))
}

// mcpFormattedErrorResponse wraps pre-formatted error text with IsError=true.
func mcpFormattedErrorResponse(formattedError string) (*mcpsdk.CallToolResultFor[any], error) {
	return &mcpsdk.CallToolResultFor[any]{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: formattedError}},
		IsError: true,
	}, nil
}

// toolResponse converts a handler outcome into an MCP tool result.
func toolResponse(result *mcppresenter.ToolResult, err error) (*mcpsdk.CallToolResultFor[any], error) {
	if err != nil {
		return mcpErrorResponse(err)
	}
	if result.Error != "" {
		return mcpFormattedErrorResponse(result.Error)
	}
	return mcpMarkdownResponse(result.Content)
}

// addStoryTool registers a tool whose handler takes the story app and typed params.
func addStoryTool[P any](server *mcpsdk.Server, storyApp *app.StoryApp, name, description string,
	handle func(context.Context, *app.StoryApp, P) (*mcppresenter.ToolResult, error)) {
	tool := &mcpsdk.Tool{Name: name, Description: description}
	mcpsdk.AddTool(server, tool, func(ctx context.Context, _ *mcpsdk.ServerSession, params *mcpsdk.CallToolParamsFor[P]) (*mcpsdk.CallToolResultFor[any], error) {
		return toolResponse(handle(ctx, storyApp, params.Arguments))
	})
}

// newMCPServer builds the server with every story tool registered.
func newMCPServer(storyApp *app.StoryApp) *mcpsdk.Server {
	impl := &mcpsdk.Implementation{
		Name:    "agiledev-mcp",
		Version: version,
	}
	serverOpts := &mcpsdk.ServerOptions{
		InitializedHandler: func(ctx context.Context, session *mcpsdk.ServerSession, params *mcpsdk.InitializedParams) {
			fmt.Fprintln(os.Stderr, "✓ MCP connection established")
		},
	}
	server := mcpsdk.NewServer(impl, serverOpts)

	addStoryTool(server, storyApp, mcppresenter.ToolListStories,
		"List the titles of all stored user stories in creation order.",
		mcppresenter.HandleListStories)
	addStoryTool(server, storyApp, mcppresenter.ToolGetStory,
		`Get the markdown of one user story. Requires {"title": "..."} with the exact title.`,
		mcppresenter.HandleGetStory)
	addStoryTool(server, storyApp, mcppresenter.ToolCreateStories,
		`Generate user stories from a problem description and save them.
- text (required): the problem description
- provider, model (optional): LLM to use, defaults from configuration
- minimal (optional): only extract candidate stories, save nothing`,
		mcppresenter.HandleCreateStories)
	addStoryTool(server, storyApp, mcppresenter.ToolEditStory,
		`Replace the markdown content of a story. Requires title and content.`,
		mcppresenter.HandleEditStory)
	addStoryTool(server, storyApp, mcppresenter.ToolRenameStory,
		`Rename a story, keeping its content. Requires old_title and new_title.`,
		mcppresenter.HandleRenameStory)
	addStoryTool(server, storyApp, mcppresenter.ToolRemoveStory,
		`Remove a story by title, or every story with {"all": true}. The problem description is kept.`,
		mcppresenter.HandleRemoveStory)
	addStoryTool(server, storyApp, mcppresenter.ToolGetProblemDescription,
		"Get the problem description stored by the last full create_stories run.",
		mcppresenter.HandleGetProblemDescription)

	return server
}

func runMCPServer(ctx context.Context) error {
	// NOTE: MCP uses stdio transport. stdout MUST be pure JSON-RPC.
	fmt.Fprintln(os.Stderr, "agiledev MCP server starting...")

	storyApp, _, closeStore, err := openStoryApp()
	if err != nil {
		return err
	}
	defer closeStore()

	if err := newMCPServer(storyApp).Run(ctx, mcpsdk.NewStdioTransport()); err != nil {
		return fmt.Errorf("MCP server failed: %w", err)
	}
	return nil
}
