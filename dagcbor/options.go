package dagcbor

import (
	"slices"
)

// Options configures an Extractor.
type Options struct {
	// Maximum number of nested arrays, maps and (non-CID) tags. Values <= 0
	// mean DefaultMaxDepth.
	MaxDepth int

	// Multihash codes of links to return. Links with other hash functions are
	// skipped without error. Empty means DefaultHashCode (blake3).
	HashCodes []uint64

	// Return links with any hash function, ignoring HashCodes. Anything that
	// must see every reference in a block (reachability, garbage collection)
	// needs this.
	AnyHash bool

	// Accept indefinite-length byte strings as tag 42 payloads, concatenating
	// their chunks. DAG-CBOR forbids this encoding, so it is off by default.
	AllowIndefiniteLinks bool
}

func DefaultOptions() Options {
	return Options{
		MaxDepth:  DefaultMaxDepth,
		HashCodes: []uint64{DefaultHashCode},
	}
}

// Extractor finds links in DAG-CBOR blocks. It holds no per-call state and can
// be shared between goroutines.
type Extractor struct {
	maxDepth        int
	codes           []uint64
	anyHash         bool
	allowIndefinite bool
}

func NewExtractor(opts Options) *Extractor {
	ex := &Extractor{
		maxDepth:        opts.MaxDepth,
		anyHash:         opts.AnyHash,
		allowIndefinite: opts.AllowIndefiniteLinks,
	}
	if ex.maxDepth <= 0 {
		ex.maxDepth = DefaultMaxDepth
	}
	for _, c := range opts.HashCodes {
		if !slices.Contains(ex.codes, c) {
			ex.codes = append(ex.codes, c)
		}
	}
	if len(ex.codes) == 0 {
		ex.codes = []uint64{DefaultHashCode}
	}
	return ex
}

// MaxDepth returns the effective nesting limit.
func (ex *Extractor) MaxDepth() int {
	return ex.maxDepth
}

// Accepts reports whether links hashed with the given multihash code are returned.
func (ex *Extractor) Accepts(code uint64) bool {
	if ex.anyHash {
		return true
	}
	// usually one or two entries, a map is not worth it
	for _, c := range ex.codes {
		if c == code {
			return true
		}
	}
	return false
}

// AcceptsAnyHash reports whether the extractor returns every well-formed link.
func (ex *Extractor) AcceptsAnyHash() bool {
	return ex.anyHash
}

var defaultExtractor = NewExtractor(DefaultOptions())
