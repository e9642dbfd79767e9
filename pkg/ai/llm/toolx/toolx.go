// Package toolx manages the executable tools a conversation exposes to the
// model: a per-request registry, per-tool timeout races, and normalization
// of every failure into a structured Result the model channel can carry.
package toolx

import (
	"context"
	"fmt"
	"time"

	"github.com/Abraxas-365/chatstream/pkg/ai/llm"
	"github.com/Abraxas-365/chatstream/pkg/asyncx"
	"github.com/Abraxas-365/chatstream/pkg/errx"
)

// DefaultTimeout bounds a tool execution unless the tool was registered
// with its own window.
const DefaultTimeout = 8 * time.Second

// Tool is one executable capability exposed to the model
type Tool interface {
	Name() string
	Description() string
	Parameters() any // JSON Schema object

	// Execute runs the tool. Failures should be returned as *ToolError;
	// any other error is normalized to CodeUnknown.
	Execute(ctx context.Context, args string) (any, error)
}

// FuncTool adapts a plain function into a Tool
type FuncTool struct {
	name        string
	description string
	parameters  any
	fn          func(ctx context.Context, args string) (any, error)
}

// NewTool creates a FuncTool
func NewTool(name, description string, parameters any, fn func(ctx context.Context, args string) (any, error)) *FuncTool {
	return &FuncTool{name: name, description: description, parameters: parameters, fn: fn}
}

func (t *FuncTool) Name() string        { return t.name }
func (t *FuncTool) Description() string { return t.description }
func (t *FuncTool) Parameters() any     { return t.parameters }

func (t *FuncTool) Execute(ctx context.Context, args string) (any, error) {
	return t.fn(ctx, args)
}

// Registry holds the tools available to one request. It is built per
// request and never shared across conversations, so credentials captured
// inside tool closures stay request-scoped.
type Registry struct {
	tools    map[string]Tool
	order    []string
	timeouts map[string]time.Duration
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		tools:    make(map[string]Tool),
		timeouts: make(map[string]time.Duration),
	}
}

// Register adds a tool with the default timeout. Re-registering a name
// replaces the previous tool.
func (r *Registry) Register(t Tool) {
	r.RegisterWithTimeout(t, DefaultTimeout)
}

// RegisterWithTimeout adds a tool with its own execution window
func (r *Registry) RegisterWithTimeout(t Tool, timeout time.Duration) {
	if _, exists := r.tools[t.Name()]; !exists {
		r.order = append(r.order, t.Name())
	}
	r.tools[t.Name()] = t
	r.timeouts[t.Name()] = timeout
}

// Get returns a registered tool by name
func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Len returns the number of registered tools
func (r *Registry) Len() int { return len(r.tools) }

// Specs returns the tool declarations in registration order, in the shape
// the llm package sends to providers.
func (r *Registry) Specs() []llm.Tool {
	specs := make([]llm.Tool, 0, len(r.order))
	for _, name := range r.order {
		t := r.tools[name]
		specs = append(specs, llm.Tool{
			Type: "function",
			Function: llm.Function{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  t.Parameters(),
			},
		})
	}
	return specs
}

// Call executes one tool call and always returns a Result: unknown tools,
// panics, timeouts and thrown errors all come back normalized. The timeout
// race is distinct from the tool's own failures so a slow integration is
// reported as CodeTimeout, not as whatever partial error it produced.
func (r *Registry) Call(ctx context.Context, call llm.ToolCall) Result {
	tool, ok := r.tools[call.Function.Name]
	if !ok {
		return Fail(ValidationFailed(fmt.Sprintf("unknown tool %q", call.Function.Name)))
	}

	timeout := r.timeouts[call.Function.Name]
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	payload, err := asyncx.WithTimeout(ctx, timeout, func(ctx context.Context) (any, error) {
		return safeExecute(ctx, tool, call.Function.Arguments)
	})
	if err != nil {
		return Fail(normalizeError(err, tool.Name(), timeout))
	}
	return Succeed(payload)
}

// safeExecute runs the tool with panic recovery
func safeExecute(ctx context.Context, tool Tool, args string) (payload any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = Unknown(fmt.Sprintf("tool %s panicked: %v", tool.Name(), rec))
		}
	}()
	return tool.Execute(ctx, args)
}

// normalizeError maps every failure shape to a *ToolError
func normalizeError(err error, toolName string, timeout time.Duration) *ToolError {
	var toolErr *ToolError
	if errx.As(err, &toolErr) {
		return toolErr
	}

	if errx.Is(err, context.DeadlineExceeded) {
		return TimedOut(fmt.Sprintf("tool %s exceeded its %s window", toolName, timeout))
	}

	var coded *errx.Error
	if errx.As(err, &coded) {
		switch coded.Type {
		case errx.TypeAuthorization:
			return AuthFailed(coded.Message)
		case errx.TypeValidation:
			return ValidationFailed(coded.Message)
		case errx.TypeTimeout:
			return TimedOut(coded.Message)
		default:
			return Unknown(coded.Message)
		}
	}

	return Unknown(err.Error())
}
