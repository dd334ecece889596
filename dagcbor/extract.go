package dagcbor

import (
	"errors"
	"iter"
)

// walk decodes one item from the start of buf. With whole set, bytes left
// after the item are an error. Returns the offset where decoding stopped.
func (ex *Extractor) walk(buf []byte, whole bool, emit func(Link) bool) (int, error) {
	w := walker{
		cur:  cursor{buf: buf},
		ex:   ex,
		emit: emit,
	}
	if err := w.next(0); err != nil {
		if errors.Is(err, errStop) {
			return w.cur.position(), nil
		}
		return w.cur.position(), err
	}
	if whole && w.cur.remaining() > 0 {
		return w.cur.position(), newDecodeError(w.cur.position(), ErrTrailingData, "%d bytes", w.cur.remaining())
	}
	return w.cur.position(), nil
}

// Links returns a single-use iterator over the links in buf, which must hold
// exactly one CBOR data item. Links are produced as the walk reaches them. If
// the input is malformed, the last pair yielded carries a *DecodeError; links
// yielded before it are still valid.
//
// The iterator must be driven from one goroutine. buf must not be modified
// until iteration finishes.
func (ex *Extractor) Links(buf []byte) iter.Seq2[Link, error] {
	return func(yield func(Link, error) bool) {
		_, err := ex.walk(buf, true, func(l Link) bool {
			return yield(l, nil)
		})
		if err != nil {
			yield(Link{}, err)
		}
	}
}

// Extract returns every link in buf, in document order. On malformed input it
// returns nil and a *DecodeError.
func (ex *Extractor) Extract(buf []byte) ([]Link, error) {
	var out []Link
	_, err := ex.walk(buf, true, func(l Link) bool {
		out = append(out, l)
		return true
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ScanItem decodes the single data item at the start of buf and returns its
// encoded length; anything after it is ignored, so this can step through a
// CBOR sequence. fn, if not nil, is called for each link; returning false
// stops the scan early, in which case the returned offset is where decoding
// stopped.
func (ex *Extractor) ScanItem(buf []byte, fn func(Link) bool) (int, error) {
	return ex.walk(buf, false, fn)
}

// Links iterates over the blake3 links in buf using DefaultOptions.
func Links(buf []byte) iter.Seq2[Link, error] {
	return defaultExtractor.Links(buf)
}

// ExtractReferences returns the blake3 links in buf using DefaultOptions.
func ExtractReferences(buf []byte) ([]Link, error) {
	return defaultExtractor.Extract(buf)
}
