package toolx_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/Abraxas-365/chatstream/pkg/ai/llm"
	"github.com/Abraxas-365/chatstream/pkg/ai/llm/toolx"
)

func callFor(name, args string) llm.ToolCall {
	return llm.ToolCall{
		ID:   "call-1",
		Type: "function",
		Function: llm.FunctionCall{
			Name:      name,
			Arguments: args,
		},
	}
}

func TestRegistry_UnknownTool(t *testing.T) {
	r := toolx.NewRegistry()

	result := r.Call(context.Background(), callFor("nope", "{}"))
	if result.OK() {
		t.Fatal("unknown tool must fail")
	}
	if result.Error.Code != toolx.CodeValidationFailed {
		t.Fatalf("expected validation_failed, got %s", result.Error.Code)
	}
}

func TestRegistry_Success(t *testing.T) {
	r := toolx.NewRegistry()
	r.Register(toolx.NewTool("echo", "echoes its args", nil,
		func(ctx context.Context, args string) (any, error) {
			return args, nil
		}))

	result := r.Call(context.Background(), callFor("echo", `{"q":"go"}`))
	if !result.OK() {
		t.Fatalf("expected success, got %v", result.Error)
	}
	if result.Payload != `{"q":"go"}` {
		t.Fatalf("unexpected payload %v", result.Payload)
	}
}

func TestRegistry_TimeoutWinsOverSlowTool(t *testing.T) {
	r := toolx.NewRegistry()
	r.RegisterWithTimeout(toolx.NewTool("slow", "sleeps past its window", nil,
		func(ctx context.Context, args string) (any, error) {
			select {
			case <-time.After(500 * time.Millisecond):
				return "late", nil
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}), 20*time.Millisecond)

	result := r.Call(context.Background(), callFor("slow", "{}"))
	if result.OK() {
		t.Fatal("expected timeout failure")
	}
	if result.Error.Code != toolx.CodeTimeout {
		t.Fatalf("expected timeout code, got %s", result.Error.Code)
	}
}

func TestRegistry_PanicRecovered(t *testing.T) {
	r := toolx.NewRegistry()
	r.Register(toolx.NewTool("boom", "panics", nil,
		func(ctx context.Context, args string) (any, error) {
			panic("bad pointer")
		}))

	result := r.Call(context.Background(), callFor("boom", "{}"))
	if result.OK() {
		t.Fatal("panicking tool must fail")
	}
	if result.Error.Code != toolx.CodeUnknown {
		t.Fatalf("expected unknown code, got %s", result.Error.Code)
	}
}

func TestRegistry_ToolErrorPassesThrough(t *testing.T) {
	r := toolx.NewRegistry()
	r.Register(toolx.NewTool("gate", "always rejects", nil,
		func(ctx context.Context, args string) (any, error) {
			return nil, toolx.AuthFailed("token expired")
		}))

	result := r.Call(context.Background(), callFor("gate", "{}"))
	if result.Error == nil || result.Error.Code != toolx.CodeAuthFailed {
		t.Fatalf("expected auth_failed, got %+v", result.Error)
	}
	if result.Error.Message != "token expired" {
		t.Fatalf("message must survive normalization, got %q", result.Error.Message)
	}
}

func TestRegistry_SpecsInRegistrationOrder(t *testing.T) {
	r := toolx.NewRegistry()
	for _, name := range []string{"c", "a", "b"} {
		r.Register(toolx.NewTool(name, name, nil,
			func(ctx context.Context, args string) (any, error) { return nil, nil }))
	}

	specs := r.Specs()
	if len(specs) != 3 {
		t.Fatalf("expected 3 specs, got %d", len(specs))
	}
	for i, want := range []string{"c", "a", "b"} {
		if specs[i].Function.Name != want {
			t.Fatalf("spec %d: expected %s, got %s", i, want, specs[i].Function.Name)
		}
	}
}

func TestResult_ModelTextShape(t *testing.T) {
	failure := toolx.Fail(toolx.TimedOut("window elapsed"))

	var decoded map[string]any
	if err := json.Unmarshal([]byte(failure.ModelText()), &decoded); err != nil {
		t.Fatalf("model text must be valid JSON: %v", err)
	}
	if decoded["status"] != "error" {
		t.Fatalf("expected error status, got %v", decoded["status"])
	}
	details := decoded["details"].(map[string]any)
	if details["code"] != "timeout" {
		t.Fatalf("expected timeout code, got %v", details["code"])
	}

	success := toolx.Succeed(map[string]any{"rows": 3})
	if err := json.Unmarshal([]byte(success.ModelText()), &decoded); err != nil {
		t.Fatalf("model text must be valid JSON: %v", err)
	}
	if decoded["status"] != "success" {
		t.Fatalf("expected success status, got %v", decoded["status"])
	}
}
