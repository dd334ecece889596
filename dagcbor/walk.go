package dagcbor

// walker consumes exactly one data item (recursively) from the cursor,
// calling emit for every accepted link in document order.
type walker struct {
	cur  cursor
	ex   *Extractor
	emit func(Link) bool

	// reused when concatenating indefinite-length link payloads
	scratch []byte
}

// next reads and consumes one complete data item. depth is the number of
// containers enclosing it.
func (w *walker) next(depth int) error {
	start := w.cur.position()
	h, err := readHeader(&w.cur)
	if err != nil {
		return err
	}
	if h.IsBreak() {
		return newDecodeError(start, ErrInvalidHeader, "unexpected break")
	}
	return w.item(start, h, depth)
}

func (w *walker) item(start int, h Header, depth int) error {
	switch h.Major {
	case MajUnsignedInt, MajNegativeInt, MajOther:
		// the header is the whole item
		return nil
	case MajByteString, MajTextString:
		if h.Indefinite {
			return w.chunks(h.Major, nil)
		}
		return w.cur.skip(h.Arg)
	case MajArray:
		return w.array(start, h, depth)
	case MajMap:
		return w.mapItems(start, h, depth)
	case MajTag:
		if h.Arg == TagCID {
			return w.link(start)
		}
		if err := w.enter(start, depth); err != nil {
			return err
		}
		return w.next(depth + 1)
	default:
		// unreachable: MajorType comes from three bits
		return newDecodeError(start, ErrInvalidHeader, "unknown major type %d", h.Major)
	}
}

func (w *walker) enter(start, depth int) error {
	if depth+1 > w.ex.maxDepth {
		return newDecodeError(start, ErrDepthExceeded, "limit %d", w.ex.maxDepth)
	}
	return nil
}

func (w *walker) array(start int, h Header, depth int) error {
	if err := w.enter(start, depth); err != nil {
		return err
	}
	if h.Indefinite {
		for {
			elemStart := w.cur.position()
			eh, err := readHeader(&w.cur)
			if err != nil {
				return err
			}
			if eh.IsBreak() {
				return nil
			}
			if err := w.item(elemStart, eh, depth+1); err != nil {
				return err
			}
		}
	}

	// every element takes at least one byte
	if h.Arg > uint64(w.cur.remaining()) {
		return newDecodeError(w.cur.position(), ErrTruncated, "array of %d elements, %d bytes left", h.Arg, w.cur.remaining())
	}
	for i := uint64(0); i < h.Arg; i++ {
		if err := w.next(depth + 1); err != nil {
			return err
		}
	}
	return nil
}

func (w *walker) mapItems(start int, h Header, depth int) error {
	if err := w.enter(start, depth); err != nil {
		return err
	}
	if h.Indefinite {
		for {
			keyStart := w.cur.position()
			kh, err := readHeader(&w.cur)
			if err != nil {
				return err
			}
			if kh.IsBreak() {
				return nil
			}
			if err := w.item(keyStart, kh, depth+1); err != nil {
				return err
			}

			valStart := w.cur.position()
			vh, err := readHeader(&w.cur)
			if err != nil {
				return err
			}
			if vh.IsBreak() {
				return newDecodeError(valStart, ErrInvalidIndefiniteChunk, "map ended between key and value")
			}
			if err := w.item(valStart, vh, depth+1); err != nil {
				return err
			}
		}
	}

	// keys and values alternate, each at least one byte
	if h.Arg > uint64(w.cur.remaining())/2 {
		return newDecodeError(w.cur.position(), ErrTruncated, "map of %d pairs, %d bytes left", h.Arg, w.cur.remaining())
	}
	for i := uint64(0); i < 2*h.Arg; i++ {
		if err := w.next(depth + 1); err != nil {
			return err
		}
	}
	return nil
}

// chunks consumes the chunks of an indefinite-length string up to and
// including the break. Each chunk must be a definite-length string of the
// same major type. fn, if set, sees every chunk in order.
func (w *walker) chunks(major MajorType, fn func([]byte)) error {
	for {
		start := w.cur.position()
		h, err := readHeader(&w.cur)
		if err != nil {
			return err
		}
		if h.IsBreak() {
			return nil
		}
		if h.Major != major {
			return newDecodeError(start, ErrInvalidIndefiniteChunk, "%s chunk inside indefinite %s", h.Major, major)
		}
		if h.Indefinite {
			return newDecodeError(start, ErrInvalidIndefiniteChunk, "nested indefinite %s chunk", major)
		}
		b, err := w.cur.readN(h.Arg)
		if err != nil {
			return err
		}
		if fn != nil {
			fn(b)
		}
	}
}

// link handles the content of a tag 42 item. start is the offset of the tag.
func (w *walker) link(start int) error {
	payloadStart := w.cur.position()
	h, err := readHeader(&w.cur)
	if err != nil {
		return err
	}
	if h.Major != MajByteString {
		if h.IsBreak() {
			return newDecodeError(payloadStart, ErrInvalidCidEncoding, "tag %d followed by break", TagCID)
		}
		return newDecodeError(payloadStart, ErrInvalidCidEncoding, "tag %d content is %s, not byte-string", TagCID, h.Major)
	}

	var payload []byte
	if h.Indefinite {
		if !w.ex.allowIndefinite {
			return newDecodeError(payloadStart, ErrInvalidCidEncoding, "indefinite-length cid payload")
		}
		w.scratch = w.scratch[:0]
		err = w.chunks(MajByteString, func(b []byte) {
			w.scratch = append(w.scratch, b...)
		})
		payload = w.scratch
	} else {
		payload, err = w.cur.readN(h.Arg)
	}
	if err != nil {
		return err
	}

	l, ok, err := w.ex.parseLinkPayload(payload)
	if err != nil {
		return newDecodeError(start, ErrInvalidCidEncoding, "%s", err)
	}
	if !ok {
		return nil
	}
	if w.emit != nil && !w.emit(l) {
		return errStop
	}
	return nil
}
