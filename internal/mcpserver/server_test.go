package mcpserver

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/vthunder/nana/internal/agent"
	"github.com/vthunder/nana/internal/brain"
)

type fakeBrain struct {
	learned []string
	saves   int
}

func (f *fakeBrain) Respond(ctx context.Context, input string) (*agent.Thought, error) {
	return &agent.Thought{Text: "hello " + input, Confidence: 0.5, Novelty: 0.25, LookedUp: true}, nil
}

func (f *fakeBrain) LearnText(text string) float64 {
	f.learned = append(f.learned, text)
	return 1
}

func (f *fakeBrain) ActivateText(text string) ([]brain.Activation, float64) {
	if text == "" {
		return nil, 0.05
	}
	return []brain.Activation{{Concept: "night", Score: 1.3}, {Concept: "code", Score: 0.25}}, 0.6
}

func (f *fakeBrain) Neighbors(token string) []brain.Activation {
	if token == "night" {
		return []brain.Activation{{Concept: "code", Score: 0.2}}
	}
	return nil
}

func (f *fakeBrain) Stats() agent.Stats {
	return agent.Stats{Name: "Nana", Neurons: 3, Links: 2}
}

func (f *fakeBrain) Save() error {
	f.saves++
	return nil
}

func call(t *testing.T, handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]any) (string, bool) {
	t.Helper()
	var req mcp.CallToolRequest
	req.Params.Arguments = args

	result, err := handler(context.Background(), req)
	if err != nil {
		t.Fatalf("Handler returned error: %v", err)
	}
	if len(result.Content) == 0 {
		t.Fatal("Handler returned no content")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("Expected text content, got %T", result.Content[0])
	}
	return text.Text, result.IsError
}

func TestRespondTool(t *testing.T) {
	b := &fakeBrain{}
	tools := &Tools{brain: b}

	out, isErr := call(t, tools.handleRespond, map[string]any{"message": "world"})
	if isErr {
		t.Fatalf("Unexpected error result: %s", out)
	}
	if !strings.HasPrefix(out, "hello world") || !strings.Contains(out, "confidence: 0.50") {
		t.Errorf("Unexpected output: %q", out)
	}
	if !strings.Contains(out, "web lookup") {
		t.Errorf("Expected lookup note, got %q", out)
	}
	if b.saves != 1 {
		t.Errorf("Expected a checkpoint, got %d", b.saves)
	}
}

func TestLearnTool(t *testing.T) {
	b := &fakeBrain{}
	tools := &Tools{brain: b}

	out, isErr := call(t, tools.handleLearn, map[string]any{"text": "night owls code"})
	if isErr || !strings.Contains(out, "novelty: 1.00") {
		t.Errorf("Unexpected output: %q (error=%v)", out, isErr)
	}
	if len(b.learned) != 1 || b.saves != 1 {
		t.Errorf("Expected one learn and one save, got %d and %d", len(b.learned), b.saves)
	}

	if _, isErr := call(t, tools.handleLearn, map[string]any{"text": "42 !!"}); !isErr {
		t.Error("Expected error for text without words")
	}
	if _, isErr := call(t, tools.handleLearn, nil); !isErr {
		t.Error("Expected error for missing text")
	}
}

func TestActivateTool(t *testing.T) {
	tools := &Tools{brain: &fakeBrain{}}

	out, _ := call(t, tools.handleActivate, map[string]any{"text": "night"})
	want := "night\t1.300\ncode\t0.250\nconfidence: 0.60"
	if out != want {
		t.Errorf("Got %q, want %q", out, want)
	}

	out, _ = call(t, tools.handleActivate, map[string]any{})
	if !strings.HasPrefix(out, "Nothing comes to mind") {
		t.Errorf("Unexpected empty output: %q", out)
	}
}

func TestNeighborsTool(t *testing.T) {
	tools := &Tools{brain: &fakeBrain{}}

	out, _ := call(t, tools.handleNeighbors, map[string]any{"concept": "night"})
	if out != "code\t0.200" {
		t.Errorf("Unexpected neighbors: %q", out)
	}
	out, _ = call(t, tools.handleNeighbors, map[string]any{"concept": "void"})
	if !strings.HasPrefix(out, "No links") {
		t.Errorf("Unexpected output: %q", out)
	}
	if _, isErr := call(t, tools.handleNeighbors, nil); !isErr {
		t.Error("Expected error for missing concept")
	}
}

func TestStateTool(t *testing.T) {
	tools := &Tools{brain: &fakeBrain{}}

	out, isErr := call(t, tools.handleState, nil)
	if isErr {
		t.Fatalf("Unexpected error: %s", out)
	}
	for _, want := range []string{`"name": "Nana"`, `"neurons": 3`, `"links": 2`} {
		if !strings.Contains(out, want) {
			t.Errorf("State missing %s: %s", want, out)
		}
	}
}

func TestNewServerRegistersTools(t *testing.T) {
	if s := NewServer(&fakeBrain{}, "test"); s == nil {
		t.Fatal("Expected a server")
	}
}
