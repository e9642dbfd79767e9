package streamx_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/Abraxas-365/chatstream/pkg/ai/llm"
	"github.com/Abraxas-365/chatstream/pkg/streamx"
)

func frameLines(buf *bytes.Buffer) []string {
	raw := strings.TrimRight(buf.String(), "\n")
	if raw == "" {
		return nil
	}
	return strings.Split(raw, "\n")
}

func countTag(lines []string, tag streamx.FrameTag) int {
	n := 0
	for _, line := range lines {
		if strings.HasPrefix(line, string(tag)+":") {
			n++
		}
	}
	return n
}

func TestWriter_TextFrameEncoding(t *testing.T) {
	var buf bytes.Buffer
	w := streamx.NewWriter(&buf)

	if err := w.Emit(streamx.TextFrame("hello")); err != nil {
		t.Fatalf("emit failed: %v", err)
	}

	if got := buf.String(); got != "0:\"hello\"\n" {
		t.Fatalf("unexpected encoding: %q", got)
	}
}

func TestWriter_OrderPreserved(t *testing.T) {
	var buf bytes.Buffer
	w := streamx.NewWriter(&buf)

	w.Emit(streamx.StartStepFrame("msg-1"))
	w.Emit(streamx.TextFrame("a"))
	w.Emit(streamx.ReasoningFrame("b"))
	w.Emit(streamx.TextFrame("c"))

	lines := frameLines(&buf)
	want := []string{"f:", "0:", "g:", "0:"}
	if len(lines) != len(want) {
		t.Fatalf("expected %d frames, got %d", len(want), len(lines))
	}
	for i, prefix := range want {
		if !strings.HasPrefix(lines[i], prefix) {
			t.Fatalf("frame %d: expected prefix %q, got %q", i, prefix, lines[i])
		}
	}
}

func TestWriter_IdempotentClose(t *testing.T) {
	var buf bytes.Buffer
	w := streamx.NewWriter(&buf)

	w.Emit(streamx.TextFrame("hi"))
	for i := 0; i < 5; i++ {
		w.Close()
	}

	if err := w.Emit(streamx.TextFrame("late")); err != nil {
		t.Fatalf("emit after close must be a silent no-op, got %v", err)
	}

	lines := frameLines(&buf)
	if len(lines) != 1 {
		t.Fatalf("expected 1 frame, got %d: %v", len(lines), lines)
	}
}

func TestWriter_ExactlyOneFinishFrame(t *testing.T) {
	var buf bytes.Buffer
	w := streamx.NewWriter(&buf)

	finish := streamx.FinishTurnFrame(llm.FinishStop, llm.Usage{PromptTokens: 3, CompletionTokens: 7})

	// Racing completion paths all try to finish the same turn.
	w.Emit(finish)
	w.Emit(finish)
	w.Emit(streamx.ErrorFrame("too late"))
	w.Close()
	w.Emit(finish)

	lines := frameLines(&buf)
	if got := countTag(lines, streamx.TagFinishTurn); got != 1 {
		t.Fatalf("expected exactly one d frame, got %d", got)
	}
	if !strings.HasPrefix(lines[len(lines)-1], "d:") {
		t.Fatalf("finish frame must be last, got %q", lines[len(lines)-1])
	}
}

func TestWriter_ClosedReporting(t *testing.T) {
	var buf bytes.Buffer
	w := streamx.NewWriter(&buf)

	if w.Closed() {
		t.Fatal("fresh writer must not be closed")
	}
	w.Emit(streamx.FinishTurnFrame(llm.FinishStop, llm.Usage{}))
	if !w.Closed() {
		t.Fatal("writer must close after the turn-finish frame")
	}
}
