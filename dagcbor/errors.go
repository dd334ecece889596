package dagcbor

import (
	"errors"
	"fmt"
)

var (
	ErrTruncated              = errors.New("truncated input")
	ErrInvalidHeader          = errors.New("invalid item header")
	ErrInvalidIndefiniteChunk = errors.New("invalid indefinite-length item")
	ErrInvalidCidEncoding     = errors.New("invalid cid encoding")
	ErrDepthExceeded          = errors.New("max nesting depth exceeded")
	ErrTrailingData           = errors.New("trailing data after item")
)

// DecodeError is returned for every malformed input. Err is always one of
// the Err* sentinels, so callers can use errors.Is.
type DecodeError struct {
	// byte offset into the input where the problem was detected
	Offset int
	Err    error
	Detail string
}

func (e *DecodeError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("dagcbor: %s at offset %d", e.Err, e.Offset)
	}
	return fmt.Sprintf("dagcbor: %s at offset %d: %s", e.Err, e.Offset, e.Detail)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func newDecodeError(off int, err error, format string, args ...any) *DecodeError {
	de := &DecodeError{Offset: off, Err: err}
	if format != "" {
		de.Detail = fmt.Sprintf(format, args...)
	}
	return de
}

// errStop unwinds the walker when the consumer stops pulling links. It never
// escapes the package.
var errStop = errors.New("dagcbor: iteration stopped")
