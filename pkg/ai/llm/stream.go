package llm

import "context"

// FinishReason explains why a generation step stopped
type FinishReason string

const (
	// FinishStop is the normal terminal reason
	FinishStop FinishReason = "stop"

	// FinishToolCalls means the step requested tool executions and
	// generation should continue once results are available
	FinishToolCalls FinishReason = "tool-calls"

	// FinishLength means the completion hit the token cap
	FinishLength FinishReason = "length"

	// FinishContentFilter means the provider blocked the output
	FinishContentFilter FinishReason = "content-filter"

	// FinishError marks an abnormal termination
	FinishError FinishReason = "error"
)

// Terminal reports whether the reason ends the turn (no further steps)
func (r FinishReason) Terminal() bool {
	return r != FinishToolCalls
}

// StepEventType identifies the kind of a step stream event
type StepEventType string

const (
	// EventTextDelta is an increment of user-visible text
	EventTextDelta StepEventType = "text-delta"

	// EventReasoningDelta is an increment of model reasoning
	EventReasoningDelta StepEventType = "reasoning-delta"

	// EventToolCallStart is the first sighting of a streaming tool call id
	EventToolCallStart StepEventType = "tool-call-start"

	// EventToolCallDelta carries a fragment of streamed tool arguments
	EventToolCallDelta StepEventType = "tool-call-delta"

	// EventToolCall is a complete tool call (id, name, final arguments)
	EventToolCall StepEventType = "tool-call"

	// EventFile is an inline binary part returned by the model
	EventFile StepEventType = "file"

	// EventStepFinish closes one generation step and carries its metadata
	EventStepFinish StepEventType = "step-finish"
)

// StepEvent is one element of a provider step stream. Exactly the fields
// implied by Type are populated.
type StepEvent struct {
	Type StepEventType

	// EventTextDelta / EventReasoningDelta
	Text string

	// EventToolCallStart / EventToolCallDelta
	ToolCallID string
	ToolName   string
	ArgsDelta  string

	// EventToolCall
	ToolCall *ToolCall

	// EventFile
	File *FileData

	// EventStepFinish
	Finish *StepFinish
}

// StepFinish carries the metadata of one finished generation step
type StepFinish struct {
	Reason  FinishReason
	Usage   Usage
	Safety  []SafetyRating
	Sources []Source
}

// SafetyRating is one provider-reported harm rating for a category
type SafetyRating struct {
	Category    string `json:"category"`
	Probability string `json:"probability"`
	Severity    string `json:"severity,omitempty"`
	Blocked     bool   `json:"blocked,omitempty"`
}

// Source is a grounding citation surfaced by search-augmented generation
type Source struct {
	SourceType string `json:"sourceType"`
	ID         string `json:"id"`
	URL        string `json:"url"`
	Title      string `json:"title,omitempty"`
	Snippet    string `json:"snippet,omitempty"`
}

// FileData is an inline binary part (image, audio) from the model
type FileData struct {
	MIMEType string `json:"mimeType"`
	Data     []byte `json:"data"`
}

// StepStream is a pull-based stream of step events. Next returns io.EOF
// once the underlying step sequence is exhausted; any other error is
// terminal and means the sequence was not silently truncated.
type StepStream interface {
	Next() (StepEvent, error)
	Close() error
}

// Provider produces step streams for a conversation
type Provider interface {
	// Name identifies the provider for logging
	Name() string

	// ChatStream starts one generation step over the given messages
	ChatStream(ctx context.Context, messages []Message, opts ...Option) (StepStream, error)
}
