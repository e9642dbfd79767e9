package streamx

import (
	"strings"

	"github.com/Abraxas-365/chatstream/pkg/ai/llm/toolx"
)

// ToolCallState is the lifecycle state of one tool call
type ToolCallState string

const (
	StatePending       ToolCallState = "pending"
	StateArgsStreaming ToolCallState = "args-streaming"
	StateInvoked       ToolCallState = "invoked"
	StateSucceeded     ToolCallState = "succeeded"
	StateFailed        ToolCallState = "failed"
)

// Terminal reports whether the state ends the call lifecycle
func (s ToolCallState) Terminal() bool {
	return s == StateSucceeded || s == StateFailed
}

// ToolCallRecord tracks one tool call for the duration of a turn. Records
// are owned by the Tracker and never deleted before turn finalization.
type ToolCallRecord struct {
	ID     string
	Name   string
	Args   string // accumulated argument text
	State  ToolCallState
	Result *toolx.Result

	startEmitted    bool
	callEmitted     bool
	terminalEmitted bool
}

// Tracker is the per-turn tool call state machine. Every observation from
// the provider stream or the executor runs through it; the tracker decides
// which lifecycle frames the downstream writer sees, with guarded
// transitions so out-of-order delivery never produces an illegal sequence.
type Tracker struct {
	w       *Writer
	records map[string]*ToolCallRecord
	order   []string
}

// NewTracker creates a tracker emitting to w
func NewTracker(w *Writer) *Tracker {
	return &Tracker{
		w:       w,
		records: make(map[string]*ToolCallRecord),
	}
}

// Records returns all records in first-sighting order
func (t *Tracker) Records() []*ToolCallRecord {
	out := make([]*ToolCallRecord, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.records[id])
	}
	return out
}

// Get returns the record for an id, if it exists
func (t *Tracker) Get(id string) (*ToolCallRecord, bool) {
	rec, ok := t.records[id]
	return rec, ok
}

func (t *Tracker) record(id string) *ToolCallRecord {
	rec, ok := t.records[id]
	if !ok {
		rec = &ToolCallRecord{ID: id, State: StatePending}
		t.records[id] = rec
		t.order = append(t.order, id)
	}
	return rec
}

// ObserveStart handles the first sighting of a streaming tool call id.
// The start frame is emitted exactly once per id.
func (t *Tracker) ObserveStart(id, name string) {
	rec := t.record(id)
	if name != "" {
		rec.Name = name
	}
	if rec.State == StatePending {
		rec.State = StateArgsStreaming
	}
	if !rec.startEmitted {
		rec.startEmitted = true
		_ = t.w.Emit(ToolCallStartFrame(id, rec.Name))
	}
}

// ObserveArgsDelta appends newly streamed argument text for a call
func (t *Tracker) ObserveArgsDelta(id, delta string) {
	if delta == "" {
		return
	}
	rec := t.record(id)
	t.ObserveArgs(id, rec.Args+delta)
}

// ObserveArgs handles an observation of the call's accumulated argument
// text. When the new text extends the stored prefix only the appended
// suffix is emitted, keeping the wire incremental. A non-extension
// observation is treated as a complete replacement: the stored text is
// reset and the whole new value goes out as one delta.
func (t *Tracker) ObserveArgs(id, accumulated string) {
	rec := t.record(id)
	if rec.State.Terminal() || rec.State == StateInvoked {
		return
	}

	if rec.State == StatePending {
		rec.State = StateArgsStreaming
		if !rec.startEmitted {
			rec.startEmitted = true
			_ = t.w.Emit(ToolCallStartFrame(id, rec.Name))
		}
	}

	var delta string
	switch {
	case accumulated == rec.Args:
		return
	case strings.HasPrefix(accumulated, rec.Args):
		delta = accumulated[len(rec.Args):]
	default:
		// Replacement, not extension: re-emit the full value.
		delta = accumulated
	}

	rec.Args = accumulated
	_ = t.w.Emit(ToolCallDeltaFrame(id, delta))
}

// ObserveCall handles a complete tool call (id, name, final arguments).
// The full-call frame is emitted exactly once; duplicate observations of
// the same final call are ignored.
func (t *Tracker) ObserveCall(id, name, args string) {
	rec := t.record(id)
	if name != "" {
		rec.Name = name
	}
	rec.Args = args

	if rec.State.Terminal() {
		return
	}
	rec.State = StateInvoked

	if !rec.callEmitted {
		rec.callEmitted = true
		_ = t.w.Emit(ToolCallFrame(id, rec.Name, args))
	}
}

// ObserveResult handles the arrival of a result for an id and transitions
// the call to its terminal state. Results for ids that never reached
// Invoked synthesize that transition first, so a reordered provider
// stream still yields a legal lifecycle. At most one terminal
// frame is ever emitted per id, no matter how many results are observed.
func (t *Tracker) ObserveResult(id string, result toolx.Result) {
	rec := t.record(id)
	if rec.terminalEmitted {
		return
	}

	if rec.State != StateInvoked {
		t.ObserveCall(id, rec.Name, rec.Args)
	}

	rec.Result = &result
	if result.OK() {
		rec.State = StateSucceeded
	} else {
		rec.State = StateFailed
	}

	rec.terminalEmitted = true
	_ = t.w.Emit(ToolResultFrame(id, result.JSONValue()))
}
