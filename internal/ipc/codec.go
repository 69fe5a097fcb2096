package ipc

import (
	"encoding/binary"
	"fmt"
	"io"
	"sync"

	"gitlab.com/fcv-2025.net/jobinitiator/internal/static/errs"
)

// WriteMessage writes one frame to w. Header and payload go out in a single
// Write so concurrent writers guarded by a mutex never interleave.
func WriteMessage(w io.Writer, msg Message) error {
	if len(msg.Payload) > MaxPayloadSize {
		return fmt.Errorf("%w: %d bytes", errs.ErrFrameTooLarge, len(msg.Payload))
	}
	frame := make([]byte, HeaderSize+len(msg.Payload))
	binary.BigEndian.PutUint16(frame[0:2], MagicNumber)
	frame[2] = msg.Type
	frame[3] = 0 // Reserved
	binary.BigEndian.PutUint32(frame[4:8], uint32(len(msg.Payload)))
	copy(frame[HeaderSize:], msg.Payload)

	if _, err := w.Write(frame); err != nil {
		return fmt.Errorf("failed to write %s message: %w", TypeName(msg.Type), err)
	}
	return nil
}

// ReadMessage reads one frame from r. io.EOF is returned unwrapped when the
// stream ends cleanly between frames.
func ReadMessage(r io.Reader) (Message, error) {
	header := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return Message{}, err
	}

	magic := binary.BigEndian.Uint16(header[0:2])
	if magic != MagicNumber {
		return Message{}, fmt.Errorf("%w: %x", errs.ErrBadMagic, magic)
	}
	msgType := header[2]
	payloadLen := binary.BigEndian.Uint32(header[4:8])
	if payloadLen > MaxPayloadSize {
		return Message{}, fmt.Errorf("%w: %d bytes", errs.ErrFrameTooLarge, payloadLen)
	}

	payload := make([]byte, payloadLen)
	if _, err := io.ReadFull(r, payload); err != nil {
		return Message{}, fmt.Errorf("failed to read %s payload: %w", TypeName(msgType), err)
	}
	return Message{Type: msgType, Payload: payload}, nil
}

// Channel serializes writes of framed messages onto one stream.
type Channel struct {
	mu sync.Mutex
	w  io.Writer
}

// NewChannel wraps w.
func NewChannel(w io.Writer) *Channel {
	return &Channel{w: w}
}

// Send writes msg to the underlying stream.
func (c *Channel) Send(msg Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return WriteMessage(c.w, msg)
}
