// Package stream frames the evaluation event stream as newline-delimited
// JSON. The producer writes one JSON record per line as events become
// available; the consumer splits incoming bytes back into complete lines,
// holding any trailing partial line until the next chunk completes it.
// Both sides share the same line semantics.
package stream

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"

	"llmarena/internal/domain"
)

// Writer serializes events onto a long-lived response body, one JSON line
// per event, flushing after each write so the first byte reaches the
// client before the evaluation finishes. Writes are serialized by a mutex
// so concurrent model goroutines can never interleave partial lines.
type Writer struct {
	mu      sync.Mutex
	w       io.Writer
	flusher http.Flusher
}

func NewWriter(w io.Writer) *Writer {
	sw := &Writer{w: w}
	if f, ok := w.(http.Flusher); ok {
		sw.flusher = f
	}
	return sw
}

// WriteEvent writes one event as a newline-terminated JSON record.
func (w *Writer) WriteEvent(ev domain.StreamEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, err := w.w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	if w.flusher != nil {
		w.flusher.Flush()
	}
	return nil
}

// LineBuffer incrementally splits a byte stream into newline-terminated
// lines, retaining the trailing partial line across calls.
type LineBuffer struct {
	rest []byte
}

// Feed appends p to the buffer and returns every complete line, without
// its terminating newline. Blank lines are dropped.
func (b *LineBuffer) Feed(p []byte) [][]byte {
	b.rest = append(b.rest, p...)

	var lines [][]byte
	for {
		i := bytes.IndexByte(b.rest, '\n')
		if i < 0 {
			return lines
		}
		line := b.rest[:i]
		b.rest = b.rest[i+1:]
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		out := make([]byte, len(line))
		copy(out, line)
		lines = append(lines, out)
	}
}

// Pending returns the current unterminated tail, if any.
func (b *LineBuffer) Pending() []byte {
	return b.rest
}

// Decoder is the consumer-side counterpart of Writer: it reads a framed
// byte stream and yields events one at a time.
type Decoder struct {
	r      io.Reader
	buf    LineBuffer
	queued [][]byte
	chunk  []byte
}

func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: r, chunk: make([]byte, 4096)}
}

// Next returns the next event, or io.EOF once the stream has ended.
func (d *Decoder) Next() (domain.StreamEvent, error) {
	for len(d.queued) == 0 {
		n, err := d.r.Read(d.chunk)
		if n > 0 {
			d.queued = d.buf.Feed(d.chunk[:n])
		}
		if err != nil {
			if err == io.EOF && len(d.queued) > 0 {
				break
			}
			return domain.StreamEvent{}, err
		}
	}

	line := d.queued[0]
	d.queued = d.queued[1:]

	var ev domain.StreamEvent
	if err := json.Unmarshal(line, &ev); err != nil {
		return domain.StreamEvent{}, fmt.Errorf("decode event: %w", err)
	}
	return ev, nil
}
