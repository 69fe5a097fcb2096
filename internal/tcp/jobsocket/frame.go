package jobsocket

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Terminator ends every message on the job acceptor stream. There is no
// length prefix, so a payload must not end a chunk with it.
const Terminator = "END"

var terminator = []byte(Terminator)

// Frame serializes v and appends the terminator.
func Frame(v interface{}) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal frame: %w", err)
	}
	return append(b, terminator...), nil
}

// Accumulator collects stream chunks until the buffer ends with the
// terminator.
type Accumulator struct {
	buf []byte
}

// Feed appends a chunk. When the buffer then ends with the terminator it
// returns the bytes before it and resets.
func (a *Accumulator) Feed(chunk []byte) ([]byte, bool) {
	a.buf = append(a.buf, chunk...)
	if !bytes.HasSuffix(a.buf, terminator) {
		return nil, false
	}
	frame := make([]byte, len(a.buf)-len(terminator))
	copy(frame, a.buf)
	a.buf = a.buf[:0]
	return frame, true
}

// Buffered returns the number of bytes waiting for a terminator.
func (a *Accumulator) Buffered() int {
	return len(a.buf)
}
