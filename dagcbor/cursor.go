package dagcbor

// cursor is a read position over an immutable input buffer. Reads are
// bounds-checked before the position moves, so a failed read consumes
// nothing.
type cursor struct {
	buf []byte
	pos int
}

func (c *cursor) position() int {
	return c.pos
}

func (c *cursor) remaining() int {
	return len(c.buf) - c.pos
}

func (c *cursor) readByte() (byte, error) {
	if c.pos >= len(c.buf) {
		return 0, newDecodeError(c.pos, ErrTruncated, "need 1 byte, have 0")
	}
	b := c.buf[c.pos]
	c.pos++
	return b, nil
}

// readN returns the next n bytes as a sub-slice of the input; the caller must
// not retain it past the decode call.
func (c *cursor) readN(n uint64) ([]byte, error) {
	if n > uint64(c.remaining()) {
		return nil, newDecodeError(c.pos, ErrTruncated, "need %d bytes, have %d", n, c.remaining())
	}
	start := c.pos
	c.pos += int(n)
	return c.buf[start:c.pos], nil
}

func (c *cursor) skip(n uint64) error {
	_, err := c.readN(n)
	return err
}

// readUint reads a big-endian unsigned integer of width bytes (1, 2, 4 or 8).
func (c *cursor) readUint(width int) (uint64, error) {
	b, err := c.readN(uint64(width))
	if err != nil {
		return 0, err
	}
	var v uint64
	for _, x := range b {
		v = v<<8 | uint64(x)
	}
	return v, nil
}
