package streamx_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/Abraxas-365/chatstream/pkg/ai/llm/toolx"
	"github.com/Abraxas-365/chatstream/pkg/streamx"
)

func decodeFrames(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var frames []map[string]any
	for _, line := range frameLines(buf) {
		tag, payload, ok := strings.Cut(line, ":")
		if !ok {
			t.Fatalf("malformed frame %q", line)
		}
		var v any
		if err := json.Unmarshal([]byte(payload), &v); err != nil {
			t.Fatalf("frame %q payload is not JSON: %v", line, err)
		}
		frames = append(frames, map[string]any{"tag": tag, "payload": v})
	}
	return frames
}

func TestTracker_StartEmittedOnce(t *testing.T) {
	var buf bytes.Buffer
	w := streamx.NewWriter(&buf)
	tr := streamx.NewTracker(w)

	tr.ObserveStart("call-1", "search")
	tr.ObserveStart("call-1", "search")

	if got := countTag(frameLines(&buf), streamx.TagToolCallStart); got != 1 {
		t.Fatalf("expected one b frame, got %d", got)
	}
}

func TestTracker_DeltaConcatenation(t *testing.T) {
	var buf bytes.Buffer
	w := streamx.NewWriter(&buf)
	tr := streamx.NewTracker(w)

	tr.ObserveStart("call-1", "search")
	tr.ObserveArgs("call-1", "ab")
	tr.ObserveArgs("call-1", "abcd")

	var deltas []string
	for _, frame := range decodeFrames(t, &buf) {
		if frame["tag"] != string(streamx.TagToolCallDelta) {
			continue
		}
		payload := frame["payload"].(map[string]any)
		deltas = append(deltas, payload["argsTextDelta"].(string))
	}

	if strings.Join(deltas, "") != "abcd" {
		t.Fatalf("deltas must concatenate to the accumulated text, got %v", deltas)
	}
	if len(deltas) != 2 || deltas[0] != "ab" || deltas[1] != "cd" {
		t.Fatalf("expected deltas [ab cd], got %v", deltas)
	}
}

func TestTracker_NonPrefixObservationReplaces(t *testing.T) {
	var buf bytes.Buffer
	w := streamx.NewWriter(&buf)
	tr := streamx.NewTracker(w)

	tr.ObserveStart("call-1", "search")
	tr.ObserveArgs("call-1", "ab")
	tr.ObserveArgs("call-1", "xyz")

	rec, ok := tr.Get("call-1")
	if !ok || rec.Args != "xyz" {
		t.Fatalf("expected stored args xyz, got %+v", rec)
	}

	var last string
	for _, frame := range decodeFrames(t, &buf) {
		if frame["tag"] == string(streamx.TagToolCallDelta) {
			last = frame["payload"].(map[string]any)["argsTextDelta"].(string)
		}
	}
	if last != "xyz" {
		t.Fatalf("replacement must emit the full new value as the delta, got %q", last)
	}
}

func TestTracker_ArgsDeltaAppends(t *testing.T) {
	var buf bytes.Buffer
	w := streamx.NewWriter(&buf)
	tr := streamx.NewTracker(w)

	tr.ObserveStart("call-1", "search")
	tr.ObserveArgsDelta("call-1", `{"q":`)
	tr.ObserveArgsDelta("call-1", `"go"}`)

	rec, _ := tr.Get("call-1")
	if rec.Args != `{"q":"go"}` {
		t.Fatalf("expected accumulated args, got %q", rec.Args)
	}
}

func TestTracker_CallFrameEmittedOnce(t *testing.T) {
	var buf bytes.Buffer
	w := streamx.NewWriter(&buf)
	tr := streamx.NewTracker(w)

	tr.ObserveCall("call-1", "search", `{"q":"go"}`)
	tr.ObserveCall("call-1", "search", `{"q":"go"}`)

	if got := countTag(frameLines(&buf), streamx.TagToolCall); got != 1 {
		t.Fatalf("expected one 9 frame, got %d", got)
	}
	rec, _ := tr.Get("call-1")
	if rec.State != streamx.StateInvoked {
		t.Fatalf("expected invoked state, got %s", rec.State)
	}
}

func TestTracker_AtMostOneTerminalFrame(t *testing.T) {
	var buf bytes.Buffer
	w := streamx.NewWriter(&buf)
	tr := streamx.NewTracker(w)

	tr.ObserveCall("call-1", "search", `{}`)
	tr.ObserveResult("call-1", toolx.Succeed("first"))
	tr.ObserveResult("call-1", toolx.Fail(toolx.Unknown("dup")))
	tr.ObserveResult("call-1", toolx.Succeed("third"))

	if got := countTag(frameLines(&buf), streamx.TagToolResult); got != 1 {
		t.Fatalf("expected exactly one a frame, got %d", got)
	}

	rec, _ := tr.Get("call-1")
	if rec.State != streamx.StateSucceeded {
		t.Fatalf("first result wins; expected succeeded, got %s", rec.State)
	}
}

func TestTracker_FailureClassification(t *testing.T) {
	var buf bytes.Buffer
	w := streamx.NewWriter(&buf)
	tr := streamx.NewTracker(w)

	tr.ObserveCall("call-1", "netsuite_query", `{}`)
	tr.ObserveResult("call-1", toolx.Fail(toolx.AuthFailed("check your credentials")))

	rec, _ := tr.Get("call-1")
	if rec.State != streamx.StateFailed {
		t.Fatalf("expected failed, got %s", rec.State)
	}

	frames := decodeFrames(t, &buf)
	result := frames[len(frames)-1]["payload"].(map[string]any)["result"].(map[string]any)
	if result["status"] != "error" {
		t.Fatalf("expected error status in result frame, got %v", result)
	}
	details := result["details"].(map[string]any)
	if details["code"] != "auth_failed" {
		t.Fatalf("expected auth_failed code, got %v", details["code"])
	}
}

func TestTracker_OutOfOrderResultSynthesizesInvoked(t *testing.T) {
	var buf bytes.Buffer
	w := streamx.NewWriter(&buf)
	tr := streamx.NewTracker(w)

	// Result arrives for an id the tracker has never seen invoked.
	tr.ObserveResult("call-9", toolx.Succeed("ok"))

	lines := frameLines(&buf)
	if got := countTag(lines, streamx.TagToolCall); got != 1 {
		t.Fatalf("expected synthesized 9 frame, got %d", got)
	}
	if !strings.HasPrefix(lines[0], "9:") || !strings.HasPrefix(lines[1], "a:") {
		t.Fatalf("expected 9 frame before a frame, got %v", lines)
	}

	rec, _ := tr.Get("call-9")
	if rec.State != streamx.StateSucceeded {
		t.Fatalf("expected succeeded, got %s", rec.State)
	}
}

func TestTracker_RecordsRetainedInOrder(t *testing.T) {
	var buf bytes.Buffer
	w := streamx.NewWriter(&buf)
	tr := streamx.NewTracker(w)

	tr.ObserveCall("call-1", "a", `{}`)
	tr.ObserveCall("call-2", "b", `{}`)
	tr.ObserveResult("call-2", toolx.Succeed(nil))
	tr.ObserveResult("call-1", toolx.Succeed(nil))

	records := tr.Records()
	if len(records) != 2 || records[0].ID != "call-1" || records[1].ID != "call-2" {
		t.Fatalf("records must keep first-sighting order, got %+v", records)
	}
}
