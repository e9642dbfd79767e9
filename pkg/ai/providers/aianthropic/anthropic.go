// Package aianthropic adapts the Anthropic Messages streaming API to the
// llm step-stream contract.
package aianthropic

import (
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/Abraxas-365/chatstream/pkg/ai/llm"
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicProvider implements llm.Provider for Anthropic Claude
type AnthropicProvider struct {
	client anthropic.Client
	apiKey string
}

// NewAnthropicProvider creates a new Anthropic provider
func NewAnthropicProvider(apiKey string, opts ...option.RequestOption) *AnthropicProvider {
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}

	options := append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &AnthropicProvider{
		client: anthropic.NewClient(options...),
		apiKey: apiKey,
	}
}

// Name implements llm.Provider
func (p *AnthropicProvider) Name() string { return "anthropic" }

func defaultChatOptions() *llm.ChatOptions {
	options := llm.DefaultOptions()
	options.Model = "claude-sonnet-4-20250514"
	return options
}

// ChatStream starts one generation step. Anthropic streams content as
// typed blocks: text deltas, native thinking deltas and tool_use blocks
// whose arguments arrive as input_json_delta fragments.
func (p *AnthropicProvider) ChatStream(ctx context.Context, messages []llm.Message, opts ...llm.Option) (llm.StepStream, error) {
	if p.apiKey == "" {
		return nil, errorRegistry.New(ErrMissingAPIKey)
	}
	if len(messages) == 0 {
		return nil, errorRegistry.New(ErrEmptyMessages)
	}

	options := defaultChatOptions()
	for _, opt := range opts {
		opt(options)
	}

	systemBlocks, nonSystemMsgs := extractSystemPrompt(messages)

	anthropicMsgs, err := convertMessages(nonSystemMsgs)
	if err != nil {
		return nil, err
	}

	maxTokens := int64(4096)
	if options.MaxTokens > 0 {
		maxTokens = int64(options.MaxTokens)
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(options.Model),
		MaxTokens: maxTokens,
		Messages:  anthropicMsgs,
	}

	if len(systemBlocks) > 0 {
		params.System = systemBlocks
	}
	if options.Temperature != 0 {
		params.Temperature = anthropic.Float(float64(options.Temperature))
	}
	if options.TopP != 0 {
		params.TopP = anthropic.Float(float64(options.TopP))
	}
	if len(options.Stop) > 0 {
		params.StopSequences = options.Stop
	}

	if len(options.Tools) > 0 {
		if tools := convertToAnthropicTools(options.Tools); len(tools) > 0 {
			params.Tools = tools
		}
	}
	if options.ToolChoice != nil {
		params.ToolChoice = convertToolChoice(options.ToolChoice)
	}

	stream := p.client.Messages.NewStreaming(ctx, params)

	return &anthropicStream{stream: stream}, nil
}

type sseEventStream interface {
	Next() bool
	Current() anthropic.MessageStreamEventUnion
	Err() error
	Close() error
}

// anthropicStream assembles message stream events into step events
type anthropicStream struct {
	stream sseEventStream

	pending   []llm.StepEvent
	toolCalls []llm.ToolCall
	reason    llm.FinishReason
	usage     llm.Usage
	finished  bool
	lastError error
}

func (s *anthropicStream) Next() (llm.StepEvent, error) {
	for {
		if len(s.pending) > 0 {
			ev := s.pending[0]
			s.pending = s.pending[1:]
			return ev, nil
		}
		if s.lastError != nil {
			return llm.StepEvent{}, s.lastError
		}

		if !s.stream.Next() {
			if err := s.stream.Err(); err != nil {
				s.lastError = ParseAnthropicError(err)
				return llm.StepEvent{}, s.lastError
			}
			if !s.finished {
				s.finished = true
				s.queueFinish()
				continue
			}
			s.lastError = io.EOF
			return llm.StepEvent{}, io.EOF
		}

		s.consumeEvent(s.stream.Current())
	}
}

func (s *anthropicStream) Close() error {
	return s.stream.Close()
}

func (s *anthropicStream) consumeEvent(event anthropic.MessageStreamEventUnion) {
	switch event.Type {
	case "message_start":
		s.usage.PromptTokens = int(event.Message.Usage.InputTokens)

	case "content_block_start":
		cb := event.ContentBlock
		if cb.Type == "tool_use" {
			s.toolCalls = append(s.toolCalls, llm.ToolCall{
				ID:   cb.ID,
				Type: "function",
				Function: llm.FunctionCall{
					Name: cb.Name,
				},
			})
			s.pending = append(s.pending, llm.StepEvent{
				Type:       llm.EventToolCallStart,
				ToolCallID: cb.ID,
				ToolName:   cb.Name,
			})
		}

	case "content_block_delta":
		delta := event.Delta

		switch delta.Type {
		case "text_delta":
			s.pending = append(s.pending, llm.StepEvent{
				Type: llm.EventTextDelta,
				Text: delta.Text,
			})

		case "thinking_delta":
			s.pending = append(s.pending, llm.StepEvent{
				Type: llm.EventReasoningDelta,
				Text: delta.Thinking,
			})

		case "input_json_delta":
			if len(s.toolCalls) == 0 {
				return
			}
			last := &s.toolCalls[len(s.toolCalls)-1]
			last.Function.Arguments += delta.PartialJSON
			s.pending = append(s.pending, llm.StepEvent{
				Type:       llm.EventToolCallDelta,
				ToolCallID: last.ID,
				ArgsDelta:  delta.PartialJSON,
			})
		}

	case "message_delta":
		s.usage.CompletionTokens = int(event.Usage.OutputTokens)
		s.usage.TotalTokens = s.usage.PromptTokens + s.usage.CompletionTokens
		if event.Delta.StopReason != "" {
			s.reason = convertStopReason(string(event.Delta.StopReason))
		}
	}
}

// queueFinish emits the assembled tool calls followed by the step-finish
// event once the SSE stream drains.
func (s *anthropicStream) queueFinish() {
	for i := range s.toolCalls {
		call := s.toolCalls[i]
		s.pending = append(s.pending, llm.StepEvent{
			Type:     llm.EventToolCall,
			ToolCall: &call,
		})
	}

	reason := s.reason
	if len(s.toolCalls) > 0 {
		reason = llm.FinishToolCalls
	} else if reason == "" {
		reason = llm.FinishStop
	}

	s.pending = append(s.pending, llm.StepEvent{
		Type: llm.EventStepFinish,
		Finish: &llm.StepFinish{
			Reason: reason,
			Usage:  s.usage,
		},
	})
}

func convertStopReason(reason string) llm.FinishReason {
	switch reason {
	case "end_turn", "stop_sequence":
		return llm.FinishStop
	case "tool_use":
		return llm.FinishToolCalls
	case "max_tokens":
		return llm.FinishLength
	case "refusal":
		return llm.FinishContentFilter
	default:
		return llm.FinishStop
	}
}

// extractSystemPrompt separates system messages into TextBlockParams
func extractSystemPrompt(messages []llm.Message) ([]anthropic.TextBlockParam, []llm.Message) {
	var system []anthropic.TextBlockParam
	var rest []llm.Message

	for _, msg := range messages {
		if msg.Role == llm.RoleSystem {
			system = append(system, anthropic.TextBlockParam{
				Text: msg.Content,
			})
		} else {
			rest = append(rest, msg)
		}
	}

	return system, rest
}

// convertMessages converts llm messages to Anthropic MessageParams.
// Consecutive tool results collapse into one user message, as the API
// requires.
func convertMessages(messages []llm.Message) ([]anthropic.MessageParam, error) {
	var result []anthropic.MessageParam

	for i := 0; i < len(messages); i++ {
		msg := messages[i]

		switch msg.Role {
		case llm.RoleUser:
			result = append(result, anthropic.NewUserMessage(
				anthropic.NewTextBlock(msg.Content),
			))

		case llm.RoleAssistant:
			result = append(result, anthropic.NewAssistantMessage(
				convertAssistantContentBlocks(msg)...,
			))

		case llm.RoleTool:
			var toolBlocks []anthropic.ContentBlockParamUnion
			toolBlocks = append(toolBlocks, anthropic.NewToolResultBlock(
				msg.ToolCallID, msg.Content, false,
			))
			for i+1 < len(messages) && messages[i+1].Role == llm.RoleTool {
				i++
				toolBlocks = append(toolBlocks, anthropic.NewToolResultBlock(
					messages[i].ToolCallID, messages[i].Content, false,
				))
			}
			result = append(result, anthropic.NewUserMessage(toolBlocks...))

		default:
			return nil, errorRegistry.New(ErrUnsupportedRole).
				WithDetail("role", msg.Role)
		}
	}

	return result, nil
}

func convertAssistantContentBlocks(msg llm.Message) []anthropic.ContentBlockParamUnion {
	var blocks []anthropic.ContentBlockParamUnion

	if msg.Content != "" {
		blocks = append(blocks, anthropic.NewTextBlock(msg.Content))
	}

	for _, tc := range msg.ToolCalls {
		var input any
		if tc.Function.Arguments != "" {
			_ = json.Unmarshal([]byte(tc.Function.Arguments), &input)
		}
		if input == nil {
			input = map[string]any{}
		}
		blocks = append(blocks, anthropic.NewToolUseBlock(
			tc.ID, input, tc.Function.Name,
		))
	}

	return blocks
}

func convertToAnthropicTools(tools []llm.Tool) []anthropic.ToolUnionParam {
	var result []anthropic.ToolUnionParam

	for _, tool := range tools {
		if tool.Type != "function" {
			continue
		}
		schema := convertToolSchema(tool.Function.Parameters)
		t := anthropic.ToolUnionParamOfTool(schema, tool.Function.Name)
		if tool.Function.Description != "" {
			t.OfTool.Description = anthropic.String(tool.Function.Description)
		}
		result = append(result, t)
	}

	return result
}

func convertToolSchema(params any) anthropic.ToolInputSchemaParam {
	schema := anthropic.ToolInputSchemaParam{}

	if params == nil {
		return schema
	}

	var m map[string]any
	switch v := params.(type) {
	case map[string]any:
		m = v
	default:
		data, err := json.Marshal(params)
		if err != nil {
			return schema
		}
		_ = json.Unmarshal(data, &m)
	}

	if props, ok := m["properties"]; ok {
		schema.Properties = props
	}
	if req, ok := m["required"].([]any); ok {
		for _, r := range req {
			if s, ok := r.(string); ok {
				schema.Required = append(schema.Required, s)
			}
		}
	}

	return schema
}

func convertToolChoice(toolChoice any) anthropic.ToolChoiceUnionParam {
	if strChoice, ok := toolChoice.(string); ok {
		switch strChoice {
		case "required":
			return anthropic.ToolChoiceUnionParam{
				OfAny: &anthropic.ToolChoiceAnyParam{},
			}
		case "none":
			return anthropic.ToolChoiceUnionParam{
				OfNone: &anthropic.ToolChoiceNoneParam{},
			}
		}
	}

	return anthropic.ToolChoiceUnionParam{
		OfAuto: &anthropic.ToolChoiceAutoParam{},
	}
}
