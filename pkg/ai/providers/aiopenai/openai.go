// Package aiopenai adapts the OpenAI Chat Completions streaming API to the
// llm step-stream contract.
package aiopenai

import (
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/Abraxas-365/chatstream/pkg/ai/llm"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared/constant"
)

// OpenAIProvider implements llm.Provider for OpenAI
type OpenAIProvider struct {
	client openai.Client
	apiKey string
}

// NewOpenAIProvider creates a new OpenAI provider
func NewOpenAIProvider(apiKey string, opts ...option.RequestOption) *OpenAIProvider {
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}

	options := append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &OpenAIProvider{
		client: openai.NewClient(options...),
		apiKey: apiKey,
	}
}

// Name implements llm.Provider
func (p *OpenAIProvider) Name() string { return "openai" }

func defaultChatOptions() *llm.ChatOptions {
	options := llm.DefaultOptions()
	options.Model = "gpt-4o"
	return options
}

// ChatStream starts one generation step. OpenAI streams tool calls as
// index-keyed fragments; the adapter surfaces those as start and delta
// events and emits the assembled calls once the step finishes.
func (p *OpenAIProvider) ChatStream(ctx context.Context, messages []llm.Message, opts ...llm.Option) (llm.StepStream, error) {
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

	openAIMessages := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for i, msg := range messages {
		openAIMsg, err := convertToOpenAIMessage(msg)
		if err != nil {
			return nil, WrapError(err, ErrUnsupportedRole).
				WithDetail("message_index", i).
				WithDetail("role", msg.Role)
		}
		openAIMessages = append(openAIMessages, openAIMsg)
	}

	params := openai.ChatCompletionNewParams{
		Messages: openAIMessages,
		Model:    options.Model,
		StreamOptions: openai.ChatCompletionStreamOptionsParam{
			IncludeUsage: openai.Bool(true),
		},
	}

	if options.Temperature != 0 {
		params.Temperature = openai.Float(float64(options.Temperature))
	}
	if options.TopP != 0 {
		params.TopP = openai.Float(float64(options.TopP))
	}
	if options.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(options.MaxTokens))
	}
	if len(options.Stop) > 0 {
		params.Stop = openai.ChatCompletionNewParamsStopUnion{
			OfStringArray: options.Stop,
		}
	}

	if len(options.Tools) > 0 {
		tools, err := convertToOpenAITools(options.Tools)
		if err != nil {
			return nil, err
		}
		params.Tools = tools
	}
	if options.ToolChoice != nil {
		params.ToolChoice = convertToOpenAIToolChoice(options.ToolChoice)
	}

	sseStream := p.client.Chat.Completions.NewStreaming(ctx, params)

	return &openAIStream{stream: sseStream}, nil
}

type sseChunkStream interface {
	Next() bool
	Current() openai.ChatCompletionChunk
	Err() error
	Close() error
}

// openAIStream assembles chat completion chunks into step events
type openAIStream struct {
	stream sseChunkStream

	pending   []llm.StepEvent
	toolCalls []llm.ToolCall
	reason    llm.FinishReason
	usage     llm.Usage
	finished  bool
	lastError error
}

func (s *openAIStream) Next() (llm.StepEvent, error) {
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
				s.lastError = ParseOpenAIError(err)
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

		s.consumeChunk(s.stream.Current())
	}
}

func (s *openAIStream) Close() error {
	return s.stream.Close()
}

func (s *openAIStream) consumeChunk(chunk openai.ChatCompletionChunk) {
	if chunk.Usage.TotalTokens > 0 {
		s.usage = llm.Usage{
			PromptTokens:     int(chunk.Usage.PromptTokens),
			CompletionTokens: int(chunk.Usage.CompletionTokens),
			TotalTokens:      int(chunk.Usage.TotalTokens),
		}
	}

	if len(chunk.Choices) == 0 {
		return
	}
	choice := chunk.Choices[0]

	if choice.Delta.Content != "" {
		s.pending = append(s.pending, llm.StepEvent{
			Type: llm.EventTextDelta,
			Text: choice.Delta.Content,
		})
	}

	// Tool calls arrive as index-keyed fragments: the id and name only on
	// the first fragment for an index, argument text on every fragment.
	for _, tc := range choice.Delta.ToolCalls {
		idx := int(tc.Index)
		for len(s.toolCalls) <= idx {
			s.toolCalls = append(s.toolCalls, llm.ToolCall{Type: "function"})
		}
		call := &s.toolCalls[idx]

		if tc.ID != "" {
			call.ID = tc.ID
		}
		if tc.Function.Name != "" {
			call.Function.Name += tc.Function.Name
			s.pending = append(s.pending, llm.StepEvent{
				Type:       llm.EventToolCallStart,
				ToolCallID: call.ID,
				ToolName:   call.Function.Name,
			})
		}
		if tc.Function.Arguments != "" {
			call.Function.Arguments += tc.Function.Arguments
			s.pending = append(s.pending, llm.StepEvent{
				Type:       llm.EventToolCallDelta,
				ToolCallID: call.ID,
				ArgsDelta:  tc.Function.Arguments,
			})
		}
	}

	if choice.FinishReason != "" {
		s.reason = convertFinishReason(choice.FinishReason)
	}
}

// queueFinish emits the assembled tool calls followed by the step-finish
// event once the SSE stream drains.
func (s *openAIStream) queueFinish() {
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

func convertFinishReason(reason string) llm.FinishReason {
	switch reason {
	case "stop":
		return llm.FinishStop
	case "tool_calls", "function_call":
		return llm.FinishToolCalls
	case "length":
		return llm.FinishLength
	case "content_filter":
		return llm.FinishContentFilter
	default:
		return llm.FinishStop
	}
}

func convertToOpenAIMessage(msg llm.Message) (openai.ChatCompletionMessageParamUnion, error) {
	switch msg.Role {
	case llm.RoleSystem:
		return openai.SystemMessage(msg.Content), nil
	case llm.RoleUser:
		return openai.UserMessage(msg.Content), nil
	case llm.RoleAssistant:
		if len(msg.ToolCalls) > 0 {
			toolCalls := make([]openai.ChatCompletionMessageToolCallUnionParam, 0, len(msg.ToolCalls))
			for _, tc := range msg.ToolCalls {
				toolCalls = append(toolCalls, openai.ChatCompletionMessageToolCallUnionParam{
					OfFunction: &openai.ChatCompletionMessageFunctionToolCallParam{
						ID:   tc.ID,
						Type: constant.Function("function"),
						Function: openai.ChatCompletionMessageFunctionToolCallFunctionParam{
							Name:      tc.Function.Name,
							Arguments: tc.Function.Arguments,
						},
					},
				})
			}

			return openai.ChatCompletionMessageParamUnion{
				OfAssistant: &openai.ChatCompletionAssistantMessageParam{
					Role: constant.Assistant("assistant"),
					Content: openai.ChatCompletionAssistantMessageParamContentUnion{
						OfString: openai.String(msg.Content),
					},
					ToolCalls: toolCalls,
				},
			}, nil
		}
		return openai.AssistantMessage(msg.Content), nil
	case llm.RoleTool:
		return openai.ToolMessage(msg.Content, msg.ToolCallID), nil
	default:
		return openai.ChatCompletionMessageParamUnion{},
			errorRegistry.New(ErrUnsupportedRole).WithDetail("role", msg.Role)
	}
}

func convertToOpenAITools(tools []llm.Tool) ([]openai.ChatCompletionToolUnionParam, error) {
	result := make([]openai.ChatCompletionToolUnionParam, 0, len(tools))

	for _, tool := range tools {
		if tool.Type != "function" {
			continue
		}

		paramsJSON, err := json.Marshal(tool.Function.Parameters)
		if err != nil {
			return nil, WrapError(err, ErrJSONParsing).
				WithDetail("tool", tool.Function.Name)
		}

		var parametersMap map[string]any
		if err := json.Unmarshal(paramsJSON, &parametersMap); err != nil {
			return nil, WrapError(err, ErrJSONParsing).
				WithDetail("tool", tool.Function.Name)
		}

		result = append(result, openai.ChatCompletionFunctionTool(openai.FunctionDefinitionParam{
			Name:        tool.Function.Name,
			Description: openai.String(tool.Function.Description),
			Parameters:  openai.FunctionParameters(parametersMap),
		}))
	}

	return result, nil
}

func convertToOpenAIToolChoice(toolChoice any) openai.ChatCompletionToolChoiceOptionUnionParam {
	choice := "auto"
	if strChoice, ok := toolChoice.(string); ok {
		switch strChoice {
		case "auto", "none", "required":
			choice = strChoice
		}
	}
	return openai.ChatCompletionToolChoiceOptionUnionParam{
		OfAuto: openai.String(choice),
	}
}
