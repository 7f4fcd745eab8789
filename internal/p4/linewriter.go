package p4

import "bytes"

// LineWriter reassembles lines from arbitrarily chunked output.
//
// Each Write emits every complete line to the callback and keeps the trailing
// partial line until the next Write or Close. Once the callback fails, the
// error is returned from every later Write and from Close.
type LineWriter struct {
	fn      func(line string) error
	pending []byte
	err     error
}

// NewLineWriter creates a LineWriter calling fn once per line, without the terminator.
func NewLineWriter(fn func(line string) error) *LineWriter {
	return &LineWriter{fn: fn}
}

// Write implements io.Writer.
func (w *LineWriter) Write(p []byte) (int, error) {
	if w.err != nil {
		return 0, w.err
	}

	w.pending = append(w.pending, p...)

	for {
		idx := bytes.IndexByte(w.pending, '\n')
		if idx < 0 {
			break
		}

		line := w.pending[:idx]
		w.pending = w.pending[idx+1:]

		if err := w.emit(line); err != nil {
			return len(p), err
		}
	}

	return len(p), nil
}

// Close flushes a final line that had no terminator.
func (w *LineWriter) Close() error {
	if w.err != nil {
		return w.err
	}

	if len(w.pending) == 0 {
		return nil
	}

	line := w.pending
	w.pending = nil

	return w.emit(line)
}

// Err returns the first callback error, if any.
func (w *LineWriter) Err() error {
	return w.err
}

func (w *LineWriter) emit(line []byte) error {
	line = bytes.TrimSuffix(line, []byte{'\r'})

	if err := w.fn(string(line)); err != nil {
		w.err = err

		return err
	}

	return nil
}
