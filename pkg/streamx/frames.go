// Package streamx implements the client-visible data stream: a framed wire
// protocol multiplexing text, reasoning, tool lifecycle, sources, safety
// metadata and step markers onto one ordered channel, plus the per-tool-call
// state tracking that decides which lifecycle frames are emitted.
package streamx

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/Abraxas-365/chatstream/pkg/ai/llm"
)

// FrameTag is the short wire code prefixed to every frame. Tags follow the
// data stream protocol the web client's parser expects: a streaming parser
// with no lookahead dispatches on the tag alone.
type FrameTag string

const (
	TagText          FrameTag = "0" // raw text delta (JSON string)
	TagData          FrameTag = "2" // arbitrary structured data (JSON array)
	TagError         FrameTag = "3" // error message (JSON string)
	TagToolCall      FrameTag = "9" // complete tool call
	TagToolCallStart FrameTag = "b" // tool call streaming start
	TagToolCallDelta FrameTag = "c" // tool call argument delta
	TagToolResult    FrameTag = "a" // tool result
	TagFinishTurn    FrameTag = "d" // turn finish, always last
	TagFinishStep    FrameTag = "e" // step finish
	TagStartStep     FrameTag = "f" // step start
	TagReasoning     FrameTag = "g" // reasoning text delta (JSON string)
	TagSource        FrameTag = "h" // source citation
	TagFile          FrameTag = "k" // inline file/image
)

// Frame is one tagged unit of the output wire protocol
type Frame struct {
	Tag     FrameTag
	Payload any
}

// Encode renders the frame as `<tag>:<json>\n`
func (f Frame) Encode() ([]byte, error) {
	payload, err := json.Marshal(f.Payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s frame: %w", f.Tag, err)
	}
	out := make([]byte, 0, len(f.Tag)+len(payload)+2)
	out = append(out, f.Tag...)
	out = append(out, ':')
	out = append(out, payload...)
	out = append(out, '\n')
	return out, nil
}

// UsagePayload is the token usage shape carried by finish frames
type UsagePayload struct {
	PromptTokens     int `json:"promptTokens"`
	CompletionTokens int `json:"completionTokens"`
}

func usagePayload(u llm.Usage) UsagePayload {
	return UsagePayload{
		PromptTokens:     u.PromptTokens,
		CompletionTokens: u.CompletionTokens,
	}
}

// TextFrame carries a user-visible text delta
func TextFrame(text string) Frame {
	return Frame{Tag: TagText, Payload: text}
}

// ReasoningFrame carries a reasoning text delta
func ReasoningFrame(text string) Frame {
	return Frame{Tag: TagReasoning, Payload: text}
}

// ErrorFrame carries a user-facing error message
func ErrorFrame(message string) Frame {
	return Frame{Tag: TagError, Payload: message}
}

// DataFrame carries arbitrary structured objects
func DataFrame(items []any) Frame {
	return Frame{Tag: TagData, Payload: items}
}

// ToolCallStartFrame announces a streaming tool call id
func ToolCallStartFrame(toolCallID, toolName string) Frame {
	return Frame{Tag: TagToolCallStart, Payload: map[string]any{
		"toolCallId": toolCallID,
		"toolName":   toolName,
	}}
}

// ToolCallDeltaFrame carries newly appended argument text for a call
func ToolCallDeltaFrame(toolCallID, argsDelta string) Frame {
	return Frame{Tag: TagToolCallDelta, Payload: map[string]any{
		"toolCallId":    toolCallID,
		"argsTextDelta": argsDelta,
	}}
}

// ToolCallFrame carries a complete tool call with its final arguments
func ToolCallFrame(toolCallID, toolName, argsText string) Frame {
	return Frame{Tag: TagToolCall, Payload: map[string]any{
		"toolCallId": toolCallID,
		"toolName":   toolName,
		"args":       argsValue(argsText),
	}}
}

// ToolResultFrame carries the structured result of a finished call
func ToolResultFrame(toolCallID string, result any) Frame {
	return Frame{Tag: TagToolResult, Payload: map[string]any{
		"toolCallId": toolCallID,
		"result":     result,
	}}
}

// StartStepFrame opens one generation step
func StartStepFrame(messageID string) Frame {
	return Frame{Tag: TagStartStep, Payload: map[string]any{
		"messageId": messageID,
	}}
}

// FinishStepFrame closes one generation step
func FinishStepFrame(reason llm.FinishReason, usage llm.Usage, isContinued bool) Frame {
	return Frame{Tag: TagFinishStep, Payload: map[string]any{
		"finishReason": string(reason),
		"usage":        usagePayload(usage),
		"isContinued":  isContinued,
	}}
}

// FinishTurnFrame closes the turn; exactly one is written, always last
func FinishTurnFrame(reason llm.FinishReason, usage llm.Usage) Frame {
	return Frame{Tag: TagFinishTurn, Payload: map[string]any{
		"finishReason": string(reason),
		"usage":        usagePayload(usage),
	}}
}

// SourceFrame carries one grounding citation
func SourceFrame(source llm.Source) Frame {
	return Frame{Tag: TagSource, Payload: source}
}

// FileFrame carries one inline binary part, base64-encoded
func FileFrame(file llm.FileData) Frame {
	return Frame{Tag: TagFile, Payload: map[string]any{
		"data":     base64.StdEncoding.EncodeToString(file.Data),
		"mimeType": file.MIMEType,
	}}
}

// argsValue parses final argument text into a JSON value where possible so
// the client receives an object rather than a doubly-encoded string.
func argsValue(argsText string) any {
	if argsText == "" {
		return map[string]any{}
	}
	var v any
	if err := json.Unmarshal([]byte(argsText), &v); err != nil {
		return argsText
	}
	return v
}
