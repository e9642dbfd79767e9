package toolx

import (
	"encoding/json"
	"fmt"
)

// ErrorCode classifies a tool failure
type ErrorCode string

const (
	CodeAuthFailed       ErrorCode = "auth_failed"
	CodeValidationFailed ErrorCode = "validation_failed"
	CodeTimeout          ErrorCode = "timeout"
	CodeUnknown          ErrorCode = "unknown"
)

// ToolError is a typed failure raised by a tool execution. Tools return it
// directly; anything else thrown across the boundary is normalized into one.
type ToolError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// Error implements the error interface
func (e *ToolError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// AuthFailed builds an authentication failure
func AuthFailed(message string) *ToolError {
	return &ToolError{Code: CodeAuthFailed, Message: message}
}

// ValidationFailed builds a validation failure
func ValidationFailed(message string) *ToolError {
	return &ToolError{Code: CodeValidationFailed, Message: message}
}

// TimedOut builds a timeout failure
func TimedOut(message string) *ToolError {
	return &ToolError{Code: CodeTimeout, Message: message}
}

// Unknown builds an unclassified failure
func Unknown(message string) *ToolError {
	return &ToolError{Code: CodeUnknown, Message: message}
}

// Result is the structured outcome of one tool call. Success and failure
// are distinguished by the Error field, never by inspecting strings.
type Result struct {
	Status  string     `json:"status"` // "success" | "error"
	Payload any        `json:"data,omitempty"`
	Error   *ToolError `json:"-"`
}

// Succeed builds a success result
func Succeed(payload any) Result {
	return Result{Status: "success", Payload: payload}
}

// Fail builds a failure result
func Fail(err *ToolError) Result {
	return Result{Status: "error", Error: err}
}

// OK reports whether the call succeeded
func (r Result) OK() bool { return r.Error == nil }

// JSONValue returns the wire representation of the result: the value placed
// in the tool-result frame and serialized for the model channel.
func (r Result) JSONValue() any {
	if r.OK() {
		return map[string]any{
			"status": "success",
			"data":   r.Payload,
		}
	}
	return map[string]any{
		"status": "error",
		"error":  r.Error.Message,
		"details": map[string]any{
			"code":    string(r.Error.Code),
			"message": r.Error.Message,
		},
	}
}

// ModelText serializes the result for the model-facing tool channel. The
// model never sees a native error, only this JSON string.
func (r Result) ModelText() string {
	data, err := json.Marshal(r.JSONValue())
	if err != nil {
		return `{"status":"error","error":"result serialization failed","details":{"code":"unknown","message":"result serialization failed"}}`
	}
	return string(data)
}
