// Package mcpserver exposes the agent as MCP tools over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/vthunder/nana/internal/agent"
	"github.com/vthunder/nana/internal/brain"
	"github.com/vthunder/nana/internal/logging"
)

// Brain is the agent surface the tools need
type Brain interface {
	Respond(ctx context.Context, input string) (*agent.Thought, error)
	LearnText(text string) float64
	ActivateText(text string) ([]brain.Activation, float64)
	Neighbors(token string) []brain.Activation
	Stats() agent.Stats
	Save() error
}

// Tools holds the tool handlers bound to one agent
type Tools struct {
	brain Brain
}

// NewServer builds an MCP server with all nana tools registered
func NewServer(b Brain, version string) *server.MCPServer {
	t := &Tools{brain: b}

	s := server.NewMCPServer(
		"nana",
		version,
		server.WithToolCapabilities(true),
	)

	s.AddTool(respondTool(), t.handleRespond)
	s.AddTool(learnTool(), t.handleLearn)
	s.AddTool(activateTool(), t.handleActivate)
	s.AddTool(neighborsTool(), t.handleNeighbors)
	s.AddTool(stateTool(), t.handleState)

	return s
}

// Serve runs the server on stdin/stdout until the client disconnects
func Serve(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

func respondTool() mcp.Tool {
	return mcp.NewTool("nana_respond",
		mcp.WithDescription("Talk to Nana. She learns the message, recalls related concepts and replies. The memory is saved afterwards."),
		mcp.WithString("message",
			mcp.Required(),
			mcp.Description("What to say"),
		),
	)
}

func (t *Tools) handleRespond(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := req.Params.Arguments.(map[string]any)
	message, _ := args["message"].(string)

	thought, err := t.brain.Respond(ctx, message)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to respond: %v", err)), nil
	}
	t.checkpoint()

	output := fmt.Sprintf("%s\n\nconfidence: %.2f, novelty: %.2f", thought.Text, thought.Confidence, thought.Novelty)
	if thought.LookedUp {
		output += "\n(learned from a web lookup)"
	}
	return mcp.NewToolResultText(output), nil
}

func learnTool() mcp.Tool {
	return mcp.NewTool("nana_learn",
		mcp.WithDescription("Teach Nana a piece of text without asking for a reply. Returns the share of words she had never seen."),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("Text to learn"),
		),
	)
}

func (t *Tools) handleLearn(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := req.Params.Arguments.(map[string]any)
	text, _ := args["text"].(string)

	if len(brain.Tokenize(text)) == 0 {
		return mcp.NewToolResultError("text contains no learnable words"), nil
	}

	novelty := t.brain.LearnText(text)
	t.checkpoint()

	return mcp.NewToolResultText(fmt.Sprintf("Learned. novelty: %.2f", novelty)), nil
}

func activateTool() mcp.Tool {
	return mcp.NewTool("nana_activate",
		mcp.WithDescription("Show which concepts a text brings to mind, with scores and overall confidence. Does not learn the text."),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("Cue text"),
		),
	)
}

func (t *Tools) handleActivate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := req.Params.Arguments.(map[string]any)
	text, _ := args["text"].(string)

	act, conf := t.brain.ActivateText(text)
	if len(act) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("Nothing comes to mind. confidence: %.2f", conf)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("%s\nconfidence: %.2f", formatActivations(act), conf)), nil
}

func neighborsTool() mcp.Tool {
	return mcp.NewTool("nana_neighbors",
		mcp.WithDescription("List the concepts linked to a concept, strongest first"),
		mcp.WithString("concept",
			mcp.Required(),
			mcp.Description("Concept (a single word)"),
		),
	)
}

func (t *Tools) handleNeighbors(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := req.Params.Arguments.(map[string]any)
	concept, _ := args["concept"].(string)

	if concept == "" {
		return mcp.NewToolResultError("concept is required"), nil
	}

	links := t.brain.Neighbors(concept)
	if len(links) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No links for %q", concept)), nil
	}
	return mcp.NewToolResultText(formatActivations(links)), nil
}

func stateTool() mcp.Tool {
	return mcp.NewTool("nana_state",
		mcp.WithDescription("Report Nana's growth: neurons, links, episodes, age and mood"),
	)
}

func (t *Tools) handleState(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(t.brain.Stats(), "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode state: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (t *Tools) checkpoint() {
	if err := t.brain.Save(); err != nil {
		logging.Warn("mcp", "checkpoint failed: %v", err)
	}
}

func formatActivations(act []brain.Activation) string {
	var b strings.Builder
	for i, a := range act {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s\t%.3f", a.Concept, a.Score)
	}
	return b.String()
}
