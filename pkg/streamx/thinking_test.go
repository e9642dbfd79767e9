package streamx_test

import (
	"testing"

	"github.com/Abraxas-365/chatstream/pkg/streamx"
)

func splitAll(s *streamx.ThinkingSplitter, deltas ...string) (text, reasoning string) {
	for _, d := range deltas {
		t, r := s.Split(d)
		text += t
		reasoning += r
	}
	t, r := s.Flush()
	return text + t, reasoning + r
}

func TestThinkingSplitter_SingleDelta(t *testing.T) {
	var s streamx.ThinkingSplitter
	text, reasoning := splitAll(&s, "<thinking>plan</thinking>visible")

	if reasoning != "plan" {
		t.Fatalf("expected reasoning %q, got %q", "plan", reasoning)
	}
	if text != "visible" {
		t.Fatalf("expected text %q, got %q", "visible", text)
	}
}

func TestThinkingSplitter_TagSplitAcrossDeltas(t *testing.T) {
	var s streamx.ThinkingSplitter
	text, reasoning := splitAll(&s, "<think", "ing>pl", "an</thin", "king>vis", "ible")

	if reasoning != "plan" {
		t.Fatalf("expected reasoning %q, got %q", "plan", reasoning)
	}
	if text != "visible" {
		t.Fatalf("expected text %q, got %q", "visible", text)
	}
}

func TestThinkingSplitter_NoThinking(t *testing.T) {
	var s streamx.ThinkingSplitter
	text, reasoning := splitAll(&s, "just ", "plain ", "text")

	if reasoning != "" {
		t.Fatalf("expected no reasoning, got %q", reasoning)
	}
	if text != "just plain text" {
		t.Fatalf("unexpected text %q", text)
	}
}

func TestThinkingSplitter_FalsePartialTagReleased(t *testing.T) {
	var s streamx.ThinkingSplitter
	text, reasoning := splitAll(&s, "a <thing", " happened")

	if reasoning != "" {
		t.Fatalf("expected no reasoning, got %q", reasoning)
	}
	if text != "a <thing happened" {
		t.Fatalf("held-back text must be released, got %q", text)
	}
}

func TestThinkingSplitter_UnclosedThinkingFlushesAsReasoning(t *testing.T) {
	var s streamx.ThinkingSplitter
	text, reasoning := splitAll(&s, "<thinking>never closed")

	if text != "" {
		t.Fatalf("expected no text, got %q", text)
	}
	if reasoning != "never closed" {
		t.Fatalf("expected unclosed content as reasoning, got %q", reasoning)
	}
}

func TestThinkingSplitter_MultipleSegments(t *testing.T) {
	var s streamx.ThinkingSplitter
	text, reasoning := splitAll(&s, "a<thinking>x</thinking>b<thinking>y</thinking>c")

	if text != "abc" {
		t.Fatalf("expected text abc, got %q", text)
	}
	if reasoning != "xy" {
		t.Fatalf("expected reasoning xy, got %q", reasoning)
	}
}
