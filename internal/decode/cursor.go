package decode

import (
	"fmt"

	"github.com/coredatalabs/tens/internal/ir"
)

// cursor is a position-tracking byte reader over an in-memory buffer. The
// decoder uses it (rather than bufio.Reader) so every Error carries the
// exact byte offset the anomaly was found at (spec §7 DecodeError{offset}).
type cursor struct {
	buf []byte
	pos int
}

func newCursor(buf []byte) *cursor {
	return &cursor{buf: buf}
}

func (c *cursor) ReadByte() (byte, error) {
	if c.pos >= len(c.buf) {
		return 0, fmt.Errorf("decode: truncated at offset %d", c.pos)
	}
	b := c.buf[c.pos]
	c.pos++
	return b, nil
}

func (c *cursor) peekByte() (byte, bool) {
	if c.pos >= len(c.buf) {
		return 0, false
	}
	return c.buf[c.pos], true
}

func (c *cursor) readN(n int) ([]byte, error) {
	if n < 0 || c.pos+n > len(c.buf) {
		return nil, &Error{Offset: c.pos, Kind: KindTruncated, Msg: fmt.Sprintf("need %d bytes, have %d", n, len(c.buf)-c.pos)}
	}
	b := c.buf[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}

func (c *cursor) expectByte(want byte, kind Kind, what string) error {
	got, err := c.ReadByte()
	if err != nil {
		return &Error{Offset: c.pos, Kind: KindTruncated, Msg: "unexpected EOF reading " + what}
	}
	if got != want {
		return &Error{Offset: c.pos - 1, Kind: kind, Msg: fmt.Sprintf("expected %s (0x%02x), got 0x%02x", what, want, got)}
	}
	return nil
}

func (c *cursor) varint() (uint64, error) {
	start := c.pos
	v, err := ir.ReadVarint(c)
	if err != nil {
		return 0, &Error{Offset: start, Kind: KindBadVarint, Msg: err.Error()}
	}
	return v, nil
}

func (c *cursor) remaining() []byte {
	return c.buf[c.pos:]
}
