package chat_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/Abraxas-365/chatstream/pkg/ai/llm"
	"github.com/Abraxas-365/chatstream/pkg/ai/llm/toolx"
	"github.com/Abraxas-365/chatstream/pkg/chat"
	"github.com/Abraxas-365/chatstream/pkg/kernel"
	"github.com/Abraxas-365/chatstream/pkg/streamx"
)

// scriptedProvider replays pre-built step event sequences, one stream per
// ChatStream call.
type scriptedProvider struct {
	steps [][]llm.StepEvent
	calls int
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) ChatStream(ctx context.Context, messages []llm.Message, opts ...llm.Option) (llm.StepStream, error) {
	if p.calls >= len(p.steps) {
		return nil, errors.New("no step scripted for call")
	}
	events := p.steps[p.calls]
	p.calls++
	return &scriptedStream{events: events}, nil
}

type scriptedStream struct {
	events []llm.StepEvent
	pos    int
}

func (s *scriptedStream) Next() (llm.StepEvent, error) {
	if s.pos >= len(s.events) {
		return llm.StepEvent{}, io.EOF
	}
	event := s.events[s.pos]
	s.pos++
	return event, nil
}

func (s *scriptedStream) Close() error { return nil }

// wireLine is one decoded frame of the output
type wireLine struct {
	tag     string
	payload json.RawMessage
}

func decodeWire(t *testing.T, buf *bytes.Buffer) []wireLine {
	t.Helper()
	var lines []wireLine
	for _, raw := range strings.Split(strings.TrimRight(buf.String(), "\n"), "\n") {
		idx := strings.IndexByte(raw, ':')
		if idx < 0 {
			t.Fatalf("malformed frame line %q", raw)
		}
		lines = append(lines, wireLine{tag: raw[:idx], payload: json.RawMessage(raw[idx+1:])})
	}
	return lines
}

func tagString(lines []wireLine) string {
	tags := make([]string, len(lines))
	for i, l := range lines {
		tags[i] = l.tag
	}
	return strings.Join(tags, " ")
}

func userTurn(content string) []llm.Message {
	return []llm.Message{llm.NewUserMessage(content)}
}

func TestRunner_FullTurnFrameSequence(t *testing.T) {
	provider := &scriptedProvider{steps: [][]llm.StepEvent{
		{
			{Type: llm.EventTextDelta, Text: "Let me check."},
			{Type: llm.EventToolCall, ToolCall: &llm.ToolCall{
				ID:   "call-1",
				Type: "function",
				Function: llm.FunctionCall{
					Name:      "echo",
					Arguments: `{"msg":"hi"}`,
				},
			}},
			{Type: llm.EventStepFinish, Finish: &llm.StepFinish{
				Reason: llm.FinishToolCalls,
				Usage:  llm.Usage{PromptTokens: 10, CompletionTokens: 5},
			}},
		},
		{
			{Type: llm.EventTextDelta, Text: "Done."},
			{Type: llm.EventStepFinish, Finish: &llm.StepFinish{
				Reason: llm.FinishStop,
				Usage:  llm.Usage{PromptTokens: 20, CompletionTokens: 3},
				Sources: []llm.Source{
					{SourceType: "url", ID: "src_0", URL: "https://example.com"},
				},
			}},
		},
	}}

	registry := toolx.NewRegistry()
	registry.Register(toolx.NewTool("echo", "echoes", map[string]any{"type": "object"},
		func(ctx context.Context, args string) (any, error) {
			return map[string]any{"echoed": args}, nil
		}))

	var buf bytes.Buffer
	w := streamx.NewWriter(&buf)

	runner := chat.NewRunner(provider, registry)
	result, err := runner.Run(context.Background(), w, kernel.NewSessionID(), userTurn("hi"))
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	lines := decodeWire(t, &buf)
	want := "f 0 9 e a f 0 2 h e d"
	if got := tagString(lines); got != want {
		t.Fatalf("frame tags = %q, want %q", got, want)
	}

	// Exactly one turn-finish frame, and it is last.
	for i, line := range lines {
		if line.tag == "d" && i != len(lines)-1 {
			t.Fatalf("turn-finish frame at position %d of %d", i, len(lines))
		}
	}

	var finish struct {
		FinishReason string `json:"finishReason"`
		Usage        struct {
			PromptTokens     int `json:"promptTokens"`
			CompletionTokens int `json:"completionTokens"`
		} `json:"usage"`
	}
	if err := json.Unmarshal(lines[len(lines)-1].payload, &finish); err != nil {
		t.Fatalf("decode finish frame: %v", err)
	}
	if finish.FinishReason != "stop" {
		t.Fatalf("finishReason = %q, want stop", finish.FinishReason)
	}
	if finish.Usage.PromptTokens != 30 || finish.Usage.CompletionTokens != 8 {
		t.Fatalf("turn usage = %+v, want accumulated 30/8", finish.Usage)
	}

	if result.Finish != llm.FinishStop {
		t.Fatalf("result.Finish = %q", result.Finish)
	}
	// Assistant, tool, assistant.
	if len(result.Messages) != 3 {
		t.Fatalf("expected 3 produced messages, got %d", len(result.Messages))
	}
	if result.Messages[1].Role != llm.RoleTool || result.Messages[1].ToolCallID != "call-1" {
		t.Fatalf("tool message = %+v", result.Messages[1])
	}
	if len(result.Records) != 1 || result.Records[0].State != streamx.StateSucceeded {
		t.Fatalf("records = %+v", result.Records)
	}
}

func TestRunner_ToolTimeoutRendersErrorResult(t *testing.T) {
	provider := &scriptedProvider{steps: [][]llm.StepEvent{
		{
			{Type: llm.EventToolCall, ToolCall: &llm.ToolCall{
				ID:       "call-slow",
				Type:     "function",
				Function: llm.FunctionCall{Name: "slow", Arguments: `{}`},
			}},
			{Type: llm.EventStepFinish, Finish: &llm.StepFinish{Reason: llm.FinishToolCalls}},
		},
		{
			{Type: llm.EventTextDelta, Text: "The tool did not respond."},
			{Type: llm.EventStepFinish, Finish: &llm.StepFinish{Reason: llm.FinishStop}},
		},
	}}

	registry := toolx.NewRegistry()
	registry.RegisterWithTimeout(toolx.NewTool("slow", "sleeps", map[string]any{"type": "object"},
		func(ctx context.Context, args string) (any, error) {
			select {
			case <-time.After(500 * time.Millisecond):
				return "late", nil
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}), 20*time.Millisecond)

	var buf bytes.Buffer
	w := streamx.NewWriter(&buf)

	runner := chat.NewRunner(provider, registry)
	result, err := runner.Run(context.Background(), w, kernel.NewSessionID(), userTurn("go"))
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	lines := decodeWire(t, &buf)
	var resultFrame struct {
		ToolCallID string `json:"toolCallId"`
		Result     struct {
			Status  string `json:"status"`
			Details struct {
				Code string `json:"code"`
			} `json:"details"`
		} `json:"result"`
	}
	found := false
	for _, line := range lines {
		if line.tag != "a" {
			continue
		}
		if err := json.Unmarshal(line.payload, &resultFrame); err != nil {
			t.Fatalf("decode tool result frame: %v", err)
		}
		found = true
	}
	if !found {
		t.Fatal("no tool result frame emitted")
	}
	if resultFrame.Result.Status != "error" || resultFrame.Result.Details.Code != "timeout" {
		t.Fatalf("tool result = %+v, want error/timeout", resultFrame.Result)
	}

	// The failed tool never aborts the turn.
	if lines[len(lines)-1].tag != "d" {
		t.Fatalf("last frame tag = %q, want d", lines[len(lines)-1].tag)
	}
	if result.Finish != llm.FinishStop {
		t.Fatalf("result.Finish = %q", result.Finish)
	}
	if len(result.Records) != 1 || result.Records[0].State != streamx.StateFailed {
		t.Fatalf("records = %+v", result.Records)
	}
}

func TestRunner_AbortEmitsErrorBoundary(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	provider := &scriptedProvider{}
	runner := chat.NewRunner(provider, toolx.NewRegistry())

	var buf bytes.Buffer
	w := streamx.NewWriter(&buf)

	result, err := runner.Run(ctx, w, kernel.NewSessionID(), userTurn("hi"))
	if err == nil {
		t.Fatal("expected error from aborted turn")
	}

	lines := decodeWire(t, &buf)
	if got := tagString(lines); got != "3 d" {
		t.Fatalf("frame tags = %q, want \"3 d\"", got)
	}

	var message string
	if err := json.Unmarshal(lines[0].payload, &message); err != nil {
		t.Fatalf("decode error frame: %v", err)
	}
	if message != "Response stopped." {
		t.Fatalf("error message = %q", message)
	}

	var finish struct {
		FinishReason string `json:"finishReason"`
		Usage        struct {
			PromptTokens     int `json:"promptTokens"`
			CompletionTokens int `json:"completionTokens"`
		} `json:"usage"`
	}
	if err := json.Unmarshal(lines[1].payload, &finish); err != nil {
		t.Fatalf("decode finish frame: %v", err)
	}
	if finish.FinishReason != "error" {
		t.Fatalf("finishReason = %q, want error", finish.FinishReason)
	}
	if finish.Usage.PromptTokens != 0 || finish.Usage.CompletionTokens != 0 {
		t.Fatalf("aborted turn reported usage %+v", finish.Usage)
	}
	if result.Finish != llm.FinishError {
		t.Fatalf("result.Finish = %q", result.Finish)
	}
}

func TestRunner_InlineThinkingBecomesReasoning(t *testing.T) {
	provider := &scriptedProvider{steps: [][]llm.StepEvent{
		{
			{Type: llm.EventTextDelta, Text: "<think"},
			{Type: llm.EventTextDelta, Text: "ing>plan "},
			{Type: llm.EventTextDelta, Text: "ahead</thinking>Hello"},
			{Type: llm.EventTextDelta, Text: " there"},
			{Type: llm.EventStepFinish, Finish: &llm.StepFinish{Reason: llm.FinishStop}},
		},
	}}

	runner := chat.NewRunner(provider, toolx.NewRegistry())

	var buf bytes.Buffer
	w := streamx.NewWriter(&buf)

	result, err := runner.Run(context.Background(), w, kernel.NewSessionID(), userTurn("hi"))
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	var text, reasoning strings.Builder
	for _, line := range decodeWire(t, &buf) {
		var delta string
		switch line.tag {
		case "0":
			if err := json.Unmarshal(line.payload, &delta); err != nil {
				t.Fatalf("decode text frame: %v", err)
			}
			text.WriteString(delta)
		case "g":
			if err := json.Unmarshal(line.payload, &delta); err != nil {
				t.Fatalf("decode reasoning frame: %v", err)
			}
			reasoning.WriteString(delta)
		}
	}

	if text.String() != "Hello there" {
		t.Fatalf("visible text = %q", text.String())
	}
	if reasoning.String() != "plan ahead" {
		t.Fatalf("reasoning = %q", reasoning.String())
	}

	if len(result.Messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(result.Messages))
	}
	if result.Messages[0].Content != "Hello there" || result.Messages[0].Reasoning != "plan ahead" {
		t.Fatalf("assistant message = %+v", result.Messages[0])
	}
}

func TestRunner_StepLimitEndsTurn(t *testing.T) {
	// Every step requests another tool call; the runner must stop at its
	// step limit and render the failure in-band.
	loopStep := []llm.StepEvent{
		{Type: llm.EventToolCall, ToolCall: &llm.ToolCall{
			ID:       "call-loop",
			Type:     "function",
			Function: llm.FunctionCall{Name: "echo", Arguments: `{}`},
		}},
		{Type: llm.EventStepFinish, Finish: &llm.StepFinish{Reason: llm.FinishToolCalls}},
	}
	provider := &scriptedProvider{steps: [][]llm.StepEvent{loopStep, loopStep, loopStep}}

	registry := toolx.NewRegistry()
	registry.Register(toolx.NewTool("echo", "echoes", map[string]any{"type": "object"},
		func(ctx context.Context, args string) (any, error) { return "ok", nil }))

	runner := chat.NewRunner(provider, registry, chat.WithMaxSteps(2))

	var buf bytes.Buffer
	w := streamx.NewWriter(&buf)

	_, err := runner.Run(context.Background(), w, kernel.NewSessionID(), userTurn("hi"))
	if err == nil {
		t.Fatal("expected step limit error")
	}

	lines := decodeWire(t, &buf)
	if lines[len(lines)-1].tag != "d" {
		t.Fatalf("last frame tag = %q, want d", lines[len(lines)-1].tag)
	}
	if lines[len(lines)-2].tag != "3" {
		t.Fatalf("second to last frame tag = %q, want 3", lines[len(lines)-2].tag)
	}
}
