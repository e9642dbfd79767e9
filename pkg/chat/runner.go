package chat

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/Abraxas-365/chatstream/pkg/ai/llm"
	"github.com/Abraxas-365/chatstream/pkg/ai/llm/toolx"
	"github.com/Abraxas-365/chatstream/pkg/asyncx"
	"github.com/Abraxas-365/chatstream/pkg/errx"
	"github.com/Abraxas-365/chatstream/pkg/kernel"
	"github.com/Abraxas-365/chatstream/pkg/logx"
	"github.com/Abraxas-365/chatstream/pkg/streamx"
)

// DefaultMaxSteps bounds the generation loop of one turn
const DefaultMaxSteps = 10

// Runner drives one chat turn: it loops generation steps against the
// provider, multiplexes everything onto the client stream, and executes
// requested tool calls between steps.
type Runner struct {
	provider llm.Provider
	registry *toolx.Registry
	notifier Notifier
	maxSteps int
	fileSink func(context.Context, llm.FileData)
}

// RunnerOption configures a Runner
type RunnerOption func(*Runner)

// WithMaxSteps overrides the step limit
func WithMaxSteps(n int) RunnerOption {
	return func(r *Runner) { r.maxSteps = n }
}

// WithNotifier sets the annotation sink
func WithNotifier(n Notifier) RunnerOption {
	return func(r *Runner) { r.notifier = n }
}

// WithFileSink sets an async mirror for inline files emitted by the model
func WithFileSink(fn func(context.Context, llm.FileData)) RunnerOption {
	return func(r *Runner) { r.fileSink = fn }
}

// NewRunner creates a runner for one request. The registry is request
// scoped; the runner holds no cross-request state.
func NewRunner(provider llm.Provider, registry *toolx.Registry, opts ...RunnerOption) *Runner {
	r := &Runner{
		provider: provider,
		registry: registry,
		notifier: LogNotifier{},
		maxSteps: DefaultMaxSteps,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// TurnResult is what a completed turn leaves behind for persistence
type TurnResult struct {
	Messages []llm.Message
	Usage    llm.Usage
	Records  []*streamx.ToolCallRecord
	Finish   llm.FinishReason
}

// Run executes one turn and writes every frame to w. Once streaming has
// begun failures never surface as transport errors: the deferred boundary
// renders them as an error frame followed by the turn-finish frame, and
// the idempotent writer makes that safe under races with normal
// completion. The returned error is for logging only.
func (r *Runner) Run(ctx context.Context, w *streamx.Writer, sessionID kernel.SessionID, history []llm.Message, opts ...llm.Option) (result TurnResult, err error) {
	tracker := streamx.NewTracker(w)

	defer func() {
		result.Records = tracker.Records()
		if err == nil {
			return
		}
		_ = w.Emit(streamx.ErrorFrame(boundaryMessage(err)))
		_ = w.Emit(streamx.FinishTurnFrame(llm.FinishError, llm.Usage{}))
		w.Close()
		result.Finish = llm.FinishError
	}()

	messages := history
	var totalUsage llm.Usage
	var safety []llm.SafetyRating
	var sources []llm.Source

	for step := 0; step < r.maxSteps; step++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return result, ctxErr
		}

		stepOpts := opts
		if r.registry.Len() > 0 {
			stepOpts = append(stepOpts, llm.WithTools(r.registry.Specs()))
		}

		_ = w.Emit(streamx.StartStepFrame(kernel.NewMessageID().String()))

		stream, streamErr := r.provider.ChatStream(ctx, messages, stepOpts...)
		if streamErr != nil {
			return result, streamErr
		}

		outcome, drainErr := r.drainStep(ctx, stream, w, tracker)
		_ = stream.Close()
		if drainErr != nil {
			return result, drainErr
		}

		totalUsage.Add(outcome.finish.Usage)
		safety = append(safety, outcome.finish.Safety...)
		sources = append(sources, outcome.finish.Sources...)

		assistant := llm.Message{
			Role:      llm.RoleAssistant,
			Content:   outcome.text,
			Reasoning: outcome.reasoning,
			ToolCalls: outcome.calls,
		}
		messages = append(messages, assistant)
		result.Messages = append(result.Messages, assistant)

		if outcome.finish.Reason == llm.FinishToolCalls && len(outcome.calls) > 0 {
			_ = w.Emit(streamx.FinishStepFrame(llm.FinishToolCalls, outcome.finish.Usage, true))

			toolMessages := r.executeCalls(ctx, sessionID, tracker, outcome.calls)
			messages = append(messages, toolMessages...)
			result.Messages = append(result.Messages, toolMessages...)
			continue
		}

		assessment := streamx.AssessSafety(safety)
		_ = w.Emit(streamx.DataFrame([]any{assessment.Payload()}))
		r.notifier.SafetyAssessed(ctx, sessionID, assessment)

		for _, source := range sources {
			_ = w.Emit(streamx.SourceFrame(source))
		}

		_ = w.Emit(streamx.FinishStepFrame(outcome.finish.Reason, outcome.finish.Usage, false))
		_ = w.Emit(streamx.FinishTurnFrame(outcome.finish.Reason, totalUsage))

		result.Usage = totalUsage
		result.Finish = outcome.finish.Reason
		return result, nil
	}

	return result, errorRegistry.New(ErrMaxStepsExceeded).
		WithDetail("max_steps", r.maxSteps)
}

// stepOutcome collects what one drained step produced
type stepOutcome struct {
	text      string
	reasoning string
	calls     []llm.ToolCall
	finish    *llm.StepFinish
}

// drainStep consumes one provider step stream, routing every event to the
// wire. Text deltas pass through the thinking splitter so inline
// <thinking> segments come out as reasoning frames.
func (r *Runner) drainStep(ctx context.Context, stream llm.StepStream, w *streamx.Writer, tracker *streamx.Tracker) (stepOutcome, error) {
	var out stepOutcome
	var splitter streamx.ThinkingSplitter
	var textB, reasonB strings.Builder

	emitSplit := func(text, reasoning string) {
		if text != "" {
			textB.WriteString(text)
			_ = w.Emit(streamx.TextFrame(text))
		}
		if reasoning != "" {
			reasonB.WriteString(reasoning)
			_ = w.Emit(streamx.ReasoningFrame(reasoning))
		}
	}

	for {
		event, err := stream.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return out, err
		}

		switch event.Type {
		case llm.EventTextDelta:
			emitSplit(splitter.Split(event.Text))

		case llm.EventReasoningDelta:
			reasonB.WriteString(event.Text)
			_ = w.Emit(streamx.ReasoningFrame(event.Text))

		case llm.EventToolCallStart:
			tracker.ObserveStart(event.ToolCallID, event.ToolName)

		case llm.EventToolCallDelta:
			tracker.ObserveArgsDelta(event.ToolCallID, event.ArgsDelta)

		case llm.EventToolCall:
			call := *event.ToolCall
			tracker.ObserveCall(call.ID, call.Function.Name, call.Function.Arguments)
			out.calls = append(out.calls, call)

		case llm.EventFile:
			file := *event.File
			_ = w.Emit(streamx.FileFrame(file))
			if r.fileSink != nil {
				asyncx.Do(func() { r.fileSink(context.WithoutCancel(ctx), file) })
			}

		case llm.EventStepFinish:
			out.finish = event.Finish
		}
	}

	emitSplit(splitter.Flush())
	out.text = textB.String()
	out.reasoning = reasonB.String()

	if out.finish == nil {
		out.finish = &llm.StepFinish{Reason: llm.FinishStop}
	}
	return out, nil
}

// executeCalls fans the step's tool calls out concurrently, each bounded
// by its registry timeout, then feeds results back through the tracker in
// request order.
func (r *Runner) executeCalls(ctx context.Context, sessionID kernel.SessionID, tracker *streamx.Tracker, calls []llm.ToolCall) []llm.Message {
	fns := make([]func(context.Context) (toolx.Result, error), len(calls))
	for i, call := range calls {
		call := call
		fns[i] = func(ctx context.Context) (toolx.Result, error) {
			return r.registry.Call(ctx, call), nil
		}
	}

	settled := asyncx.AllSettled(ctx, fns...)

	toolMessages := make([]llm.Message, 0, len(calls))
	for i, call := range calls {
		res := settled[i].Value
		tracker.ObserveResult(call.ID, res)

		if rec, ok := tracker.Get(call.ID); ok {
			r.notifier.ToolFinished(ctx, sessionID, rec)
		}
		toolMessages = append(toolMessages,
			llm.NewToolMessage(call.ID, call.Function.Name, res.ModelText()))
	}
	return toolMessages
}

// boundaryMessage maps a turn-ending error to the user-facing text of the
// error frame.
func boundaryMessage(err error) string {
	switch {
	case errors.Is(err, context.Canceled):
		return "Response stopped."
	case errors.Is(err, context.DeadlineExceeded) || errx.IsType(err, errx.TypeTimeout):
		return "The request timed out. Please try again."
	}

	var toolErr *toolx.ToolError
	if errors.As(err, &toolErr) {
		return "A tool failed: " + toolErr.Message
	}

	var coded *errx.Error
	if errors.As(err, &coded) {
		logx.WithError(coded).Error("turn ended with error")
		return coded.Message
	}

	return err.Error()
}
