package dagcbor

// Header is the decoded initial byte (plus any following argument bytes) of
// one CBOR data item.
type Header struct {
	Major MajorType
	// low five bits of the initial byte
	Info byte
	// Literal value, length, element/pair count, tag number, or the raw bits
	// of a float or simple value. Zero when Indefinite is set.
	Arg        uint64
	Indefinite bool
}

// IsBreak reports whether h is the "break" stop code (0xff) terminating an
// indefinite-length item.
func (h Header) IsBreak() bool {
	return h.Major == MajOther && h.Indefinite
}

// ReadHeader decodes the item header at the start of buf, returning it and the
// number of bytes it occupies.
func ReadHeader(buf []byte) (Header, int, error) {
	c := cursor{buf: buf}
	h, err := readHeader(&c)
	if err != nil {
		return Header{}, 0, err
	}
	return h, c.position(), nil
}

func readHeader(c *cursor) (Header, error) {
	start := c.position()
	ib, err := c.readByte()
	if err != nil {
		return Header{}, err
	}
	h := Header{
		Major: MajorType(ib >> 5),
		Info:  ib & 0x1f,
	}

	switch {
	case h.Info < infoUint8:
		h.Arg = uint64(h.Info)
	case h.Info <= infoUint64:
		width := 1 << (h.Info - infoUint8)
		h.Arg, err = c.readUint(width)
		if err != nil {
			c.pos = start
			return Header{}, err
		}
	case h.Info == infoIndefinite:
		switch h.Major {
		case MajByteString, MajTextString, MajArray, MajMap, MajOther:
			h.Indefinite = true
		default:
			c.pos = start
			return Header{}, newDecodeError(start, ErrInvalidHeader, "indefinite length not allowed for %s", h.Major)
		}
	default:
		c.pos = start
		return Header{}, newDecodeError(start, ErrInvalidHeader, "reserved additional info %d", h.Info)
	}
	return h, nil
}
