package llm

// ChatOptions holds per-request generation parameters
type ChatOptions struct {
	Model       string
	Temperature float32
	TopP        float32
	MaxTokens   int
	Stop        []string
	Tools       []Tool
	ToolChoice  any // "auto" | "none" | "required"

	// ReasoningMode asks the model to expose its reasoning. Providers
	// without native thinking output are prompted to wrap reasoning in
	// <thinking> tags, which the stream pipeline strips back out.
	ReasoningMode bool
}

// DefaultOptions returns baseline chat options
func DefaultOptions() *ChatOptions {
	return &ChatOptions{
		Temperature: 0.7,
	}
}

// Option mutates ChatOptions
type Option func(*ChatOptions)

// WithModel sets the model name
func WithModel(model string) Option {
	return func(o *ChatOptions) { o.Model = model }
}

// WithTemperature sets the sampling temperature
func WithTemperature(t float32) Option {
	return func(o *ChatOptions) { o.Temperature = t }
}

// WithTopP sets nucleus sampling
func WithTopP(p float32) Option {
	return func(o *ChatOptions) { o.TopP = p }
}

// WithMaxTokens caps completion length
func WithMaxTokens(n int) Option {
	return func(o *ChatOptions) { o.MaxTokens = n }
}

// WithStop sets stop sequences
func WithStop(stop ...string) Option {
	return func(o *ChatOptions) { o.Stop = stop }
}

// WithTools exposes tools to the model
func WithTools(tools []Tool) Option {
	return func(o *ChatOptions) { o.Tools = tools }
}

// WithToolChoice sets the tool choice mode
func WithToolChoice(choice any) Option {
	return func(o *ChatOptions) { o.ToolChoice = choice }
}

// WithReasoningMode toggles reasoning output
func WithReasoningMode(enabled bool) Option {
	return func(o *ChatOptions) { o.ReasoningMode = enabled }
}
