package streamx

import (
	"io"
	"sync"
)

// flusher is implemented by buffered sinks (bufio.Writer) that need an
// explicit flush for the client to see each frame as it is produced.
type flusher interface {
	Flush() error
}

// Writer serializes frames onto one physical output channel. It is the
// single writer for a turn: frames go out in Emit order, Close is
// idempotent, and every Emit or Close after the channel is closed is a
// silent no-op. Multiple paths (step finish, turn finish, error boundary,
// client abort) may race to close the same channel; none of them may fail.
type Writer struct {
	mu     sync.Mutex
	out    io.Writer
	closed bool
}

// NewWriter wraps an output sink
func NewWriter(out io.Writer) *Writer {
	return &Writer{out: out}
}

// Emit appends one frame to the channel. Emitting the turn-finish frame
// closes the writer, which structurally guarantees that exactly one finish
// frame is written and nothing follows it.
func (w *Writer) Emit(frame Frame) error {
	data, err := frame.Encode()
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}

	if _, err := w.out.Write(data); err != nil {
		// The peer is gone; close so later emits become no-ops.
		w.closed = true
		return err
	}
	if f, ok := w.out.(flusher); ok {
		_ = f.Flush()
	}

	if frame.Tag == TagFinishTurn {
		w.closed = true
	}
	return nil
}

// Close terminates the channel. Safe to call any number of times from any
// completion path.
func (w *Writer) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
}

// Closed reports whether the channel has been terminated
func (w *Writer) Closed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closed
}
