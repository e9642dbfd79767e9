// Package aigemini adapts Google Gemini streaming generation to the llm
// step-stream contract.
package aigemini

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/Abraxas-365/chatstream/pkg/ai/llm"
	"google.golang.org/genai"
)

// ProviderOption configures the Gemini provider
type ProviderOption func(*GeminiProvider)

// WithVertexAI configures the provider to use the Vertex AI backend
func WithVertexAI(project, location string) ProviderOption {
	return func(p *GeminiProvider) {
		p.project = project
		p.location = location
		p.useVertexAI = true
	}
}

// GeminiProvider implements llm.Provider for Google Gemini
type GeminiProvider struct {
	client      *genai.Client
	apiKey      string
	project     string
	location    string
	useVertexAI bool
}

// NewGeminiProvider creates a new Gemini provider. The key is request
// scoped: callers pass it per call, nothing is read from ambient state
// beyond the env fallback.
func NewGeminiProvider(ctx context.Context, apiKey string, opts ...ProviderOption) (*GeminiProvider, error) {
	p := &GeminiProvider{apiKey: apiKey}
	for _, opt := range opts {
		opt(p)
	}

	if p.apiKey == "" {
		p.apiKey = os.Getenv("GEMINI_API_KEY")
	}

	config := &genai.ClientConfig{}
	if p.useVertexAI {
		config.Backend = genai.BackendVertexAI
		config.Project = p.project
		config.Location = p.location
	} else {
		config.APIKey = p.apiKey
		config.Backend = genai.BackendGeminiAPI
	}

	client, err := genai.NewClient(ctx, config)
	if err != nil {
		return nil, WrapError(err, ErrMissingAPIKey).
			WithDetail("error", "failed to create Gemini client")
	}

	p.client = client
	return p, nil
}

// Name implements llm.Provider
func (p *GeminiProvider) Name() string { return "gemini" }

func defaultChatOptions() *llm.ChatOptions {
	options := llm.DefaultOptions()
	options.Model = "gemini-2.0-flash"
	return options
}

// ChatStream starts one generation step and exposes it as a step stream.
// Gemini delivers tool calls whole, so the stream emits tool-call events
// without preceding start/delta fragments.
func (p *GeminiProvider) ChatStream(ctx context.Context, messages []llm.Message, opts ...llm.Option) (llm.StepStream, error) {
	if len(messages) == 0 {
		return nil, errorRegistry.New(ErrEmptyMessages)
	}

	options := defaultChatOptions()
	for _, opt := range opts {
		opt(options)
	}

	systemContent, contents := convertMessages(messages)
	config := buildGenerateConfig(options, systemContent)

	iter := p.client.Models.GenerateContentStream(ctx, options.Model, contents, config)

	// Convert the push-based iterator to a pull-based stream via a channel
	ch := make(chan chunkResult, 1)
	done := make(chan struct{})

	go func() {
		defer close(ch)
		iter(func(resp *genai.GenerateContentResponse, err error) bool {
			select {
			case ch <- chunkResult{resp: resp, err: err}:
				return true
			case <-done:
				return false
			}
		})
	}()

	return &geminiStream{ch: ch, done: done}, nil
}

type chunkResult struct {
	resp *genai.GenerateContentResponse
	err  error
}

// geminiStream turns Gemini response chunks into step events. One chunk
// can produce several events, so decoded events queue in pending.
type geminiStream struct {
	ch   chan chunkResult
	done chan struct{}

	pending   []llm.StepEvent
	toolCalls int
	reason    llm.FinishReason
	usage     llm.Usage
	safety    []llm.SafetyRating
	sources   []llm.Source
	finished  bool
	lastError error
}

func (s *geminiStream) Next() (llm.StepEvent, error) {
	for {
		if len(s.pending) > 0 {
			ev := s.pending[0]
			s.pending = s.pending[1:]
			return ev, nil
		}
		if s.lastError != nil {
			return llm.StepEvent{}, s.lastError
		}

		result, ok := <-s.ch
		if !ok {
			if !s.finished {
				s.finished = true
				return s.finishEvent(), nil
			}
			s.lastError = io.EOF
			return llm.StepEvent{}, io.EOF
		}

		if result.err != nil {
			s.lastError = ParseGeminiError(result.err)
			return llm.StepEvent{}, s.lastError
		}

		s.consumeChunk(result.resp)
	}
}

func (s *geminiStream) Close() error {
	close(s.done)
	return nil
}

func (s *geminiStream) consumeChunk(resp *genai.GenerateContentResponse) {
	if resp == nil {
		return
	}

	if resp.UsageMetadata != nil {
		s.usage = llm.Usage{
			PromptTokens:     int(resp.UsageMetadata.PromptTokenCount),
			CompletionTokens: int(resp.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      int(resp.UsageMetadata.TotalTokenCount),
		}
	}

	if len(resp.Candidates) == 0 {
		return
	}
	candidate := resp.Candidates[0]

	for _, rating := range candidate.SafetyRatings {
		s.safety = append(s.safety, llm.SafetyRating{
			Category:    string(rating.Category),
			Probability: string(rating.Probability),
			Severity:    string(rating.Severity),
			Blocked:     rating.Blocked,
		})
	}

	if gm := candidate.GroundingMetadata; gm != nil {
		for _, chunk := range gm.GroundingChunks {
			if chunk.Web == nil {
				continue
			}
			s.sources = append(s.sources, llm.Source{
				SourceType: "url",
				ID:         fmt.Sprintf("src_%d", len(s.sources)),
				URL:        chunk.Web.URI,
				Title:      chunk.Web.Title,
			})
		}
	}

	if candidate.FinishReason != "" {
		s.reason = convertFinishReason(candidate.FinishReason)
	}

	if candidate.Content == nil {
		return
	}

	for _, part := range candidate.Content.Parts {
		switch {
		case part.Text != "" && part.Thought:
			s.pending = append(s.pending, llm.StepEvent{
				Type: llm.EventReasoningDelta,
				Text: part.Text,
			})

		case part.Text != "":
			s.pending = append(s.pending, llm.StepEvent{
				Type: llm.EventTextDelta,
				Text: part.Text,
			})

		case part.FunctionCall != nil:
			args, _ := json.Marshal(part.FunctionCall.Args)
			id := part.FunctionCall.ID
			if id == "" {
				id = fmt.Sprintf("call_%s_%d", part.FunctionCall.Name, s.toolCalls)
			}
			s.toolCalls++
			s.pending = append(s.pending, llm.StepEvent{
				Type: llm.EventToolCall,
				ToolCall: &llm.ToolCall{
					ID:   id,
					Type: "function",
					Function: llm.FunctionCall{
						Name:      part.FunctionCall.Name,
						Arguments: string(args),
					},
				},
			})

		case part.InlineData != nil:
			s.pending = append(s.pending, llm.StepEvent{
				Type: llm.EventFile,
				File: &llm.FileData{
					MIMEType: part.InlineData.MIMEType,
					Data:     part.InlineData.Data,
				},
			})
		}
	}
}

func (s *geminiStream) finishEvent() llm.StepEvent {
	reason := s.reason
	if s.toolCalls > 0 {
		reason = llm.FinishToolCalls
	} else if reason == "" {
		reason = llm.FinishStop
	}

	return llm.StepEvent{
		Type: llm.EventStepFinish,
		Finish: &llm.StepFinish{
			Reason:  reason,
			Usage:   s.usage,
			Safety:  s.safety,
			Sources: s.sources,
		},
	}
}

func convertFinishReason(reason genai.FinishReason) llm.FinishReason {
	switch reason {
	case genai.FinishReasonStop:
		return llm.FinishStop
	case genai.FinishReasonMaxTokens:
		return llm.FinishLength
	case genai.FinishReasonSafety, genai.FinishReasonRecitation, genai.FinishReasonBlocklist,
		genai.FinishReasonProhibitedContent, genai.FinishReasonSPII:
		return llm.FinishContentFilter
	default:
		return llm.FinishStop
	}
}

func convertMessages(messages []llm.Message) (*genai.Content, []*genai.Content) {
	var systemContent *genai.Content
	var contents []*genai.Content

	for _, msg := range messages {
		switch msg.Role {
		case llm.RoleSystem:
			if systemContent == nil {
				systemContent = &genai.Content{
					Parts: []*genai.Part{genai.NewPartFromText(msg.Content)},
				}
			} else {
				systemContent.Parts = append(systemContent.Parts,
					genai.NewPartFromText(msg.Content))
			}

		case llm.RoleUser:
			contents = append(contents, &genai.Content{
				Role:  "user",
				Parts: []*genai.Part{genai.NewPartFromText(msg.Content)},
			})

		case llm.RoleAssistant:
			contents = append(contents, &genai.Content{
				Role:  "model",
				Parts: convertAssistantParts(msg),
			})

		case llm.RoleTool:
			contents = append(contents, &genai.Content{
				Role: "user",
				Parts: []*genai.Part{
					genai.NewPartFromFunctionResponse(msg.Name, map[string]any{
						"output": msg.Content,
					}),
				},
			})
		}
	}

	return systemContent, contents
}

func convertAssistantParts(msg llm.Message) []*genai.Part {
	var parts []*genai.Part

	if msg.Content != "" {
		parts = append(parts, genai.NewPartFromText(msg.Content))
	}

	for _, tc := range msg.ToolCalls {
		var args map[string]any
		if tc.Function.Arguments != "" {
			_ = json.Unmarshal([]byte(tc.Function.Arguments), &args)
		}
		if args == nil {
			args = map[string]any{}
		}
		parts = append(parts, genai.NewPartFromFunctionCall(tc.Function.Name, args))
	}

	return parts
}

func buildGenerateConfig(options *llm.ChatOptions, systemContent *genai.Content) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{}

	if systemContent != nil {
		config.SystemInstruction = systemContent
	}

	if options.Temperature != 0 {
		config.Temperature = genai.Ptr(options.Temperature)
	}
	if options.TopP != 0 {
		config.TopP = genai.Ptr(options.TopP)
	}
	if options.MaxTokens > 0 {
		config.MaxOutputTokens = int32(options.MaxTokens)
	}
	if len(options.Stop) > 0 {
		config.StopSequences = options.Stop
	}

	if options.ReasoningMode {
		config.ThinkingConfig = &genai.ThinkingConfig{
			IncludeThoughts: true,
		}
	}

	if len(options.Tools) > 0 {
		if tools := convertToGeminiTools(options.Tools); len(tools) > 0 {
			config.Tools = tools
		}
		if options.ToolChoice != nil {
			config.ToolConfig = convertGeminiToolConfig(options.ToolChoice)
		}
	}

	return config
}

func convertToGeminiTools(tools []llm.Tool) []*genai.Tool {
	var declarations []*genai.FunctionDeclaration

	for _, tool := range tools {
		if tool.Type != "function" {
			continue
		}
		decl := &genai.FunctionDeclaration{
			Name:        tool.Function.Name,
			Description: tool.Function.Description,
		}
		if tool.Function.Parameters != nil {
			decl.Parameters = convertToGeminiSchema(tool.Function.Parameters)
		}
		declarations = append(declarations, decl)
	}

	if len(declarations) == 0 {
		return nil
	}

	return []*genai.Tool{{
		FunctionDeclarations: declarations,
	}}
}

func convertToGeminiSchema(params any) *genai.Schema {
	var m map[string]any
	switch v := params.(type) {
	case map[string]any:
		m = v
	default:
		data, err := json.Marshal(params)
		if err != nil {
			return nil
		}
		_ = json.Unmarshal(data, &m)
	}

	return mapToGeminiSchema(m)
}

func mapToGeminiSchema(m map[string]any) *genai.Schema {
	if m == nil {
		return nil
	}

	schema := &genai.Schema{}

	if t, ok := m["type"].(string); ok {
		switch t {
		case "object":
			schema.Type = genai.TypeObject
		case "array":
			schema.Type = genai.TypeArray
		case "string":
			schema.Type = genai.TypeString
		case "number":
			schema.Type = genai.TypeNumber
		case "integer":
			schema.Type = genai.TypeInteger
		case "boolean":
			schema.Type = genai.TypeBoolean
		}
	}

	if desc, ok := m["description"].(string); ok {
		schema.Description = desc
	}

	if enum, ok := m["enum"].([]any); ok {
		for _, e := range enum {
			if s, ok := e.(string); ok {
				schema.Enum = append(schema.Enum, s)
			}
		}
	}

	if props, ok := m["properties"].(map[string]any); ok {
		schema.Properties = make(map[string]*genai.Schema)
		for key, val := range props {
			if propMap, ok := val.(map[string]any); ok {
				schema.Properties[key] = mapToGeminiSchema(propMap)
			}
		}
	}

	if items, ok := m["items"].(map[string]any); ok {
		schema.Items = mapToGeminiSchema(items)
	}

	if required, ok := m["required"].([]any); ok {
		for _, r := range required {
			if s, ok := r.(string); ok {
				schema.Required = append(schema.Required, s)
			}
		}
	}

	return schema
}

func convertGeminiToolConfig(toolChoice any) *genai.ToolConfig {
	strChoice, ok := toolChoice.(string)
	if !ok {
		return nil
	}

	var mode genai.FunctionCallingConfigMode
	switch strChoice {
	case "auto":
		mode = genai.FunctionCallingConfigModeAuto
	case "none":
		mode = genai.FunctionCallingConfigModeNone
	case "required":
		mode = genai.FunctionCallingConfigModeAny
	default:
		return nil
	}

	return &genai.ToolConfig{
		FunctionCallingConfig: &genai.FunctionCallingConfig{Mode: mode},
	}
}
