package nativehost

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

const (
	// MaxInboundSize caps a single browser->host message.
	MaxInboundSize = 4 << 20
	// MaxOutboundSize is Chrome's limit for host->browser messages.
	MaxOutboundSize = 1 << 20
)

var ErrMessageTooLarge = errors.New("native message too large")

// ReadMessage reads one length-prefixed message. The prefix is a uint32 in
// native byte order, which is little-endian on every platform Chrome ships on.
// A clean end of stream between messages returns io.EOF.
func ReadMessage(r io.Reader) ([]byte, error) {
	var hdr [4]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, err
	}
	n := binary.LittleEndian.Uint32(hdr[:])
	if n > MaxInboundSize {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrMessageTooLarge, n, MaxInboundSize)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, fmt.Errorf("read message body: %w", err)
	}
	return buf, nil
}

// WriteMessage encodes v as JSON and writes it with its length prefix.
func WriteMessage(w io.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	if len(data) > MaxOutboundSize {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrMessageTooLarge, len(data), MaxOutboundSize)
	}
	buf := make([]byte, 4+len(data))
	binary.LittleEndian.PutUint32(buf, uint32(len(data)))
	copy(buf[4:], data)
	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	return nil
}
