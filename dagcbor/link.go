package dagcbor

import (
	"bytes"
	"fmt"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multicodec"
	"github.com/multiformats/go-multihash"
	"github.com/multiformats/go-varint"
)

// Link is one CID found in a block.
type Link struct {
	// CID version (0 or 1)
	Version uint64
	// multicodec of the linked block, eg 0x71 (dag-cbor) or 0x55 (raw)
	Codec uint64
	// Multihash bytes (code, digest length, digest). Owned by the caller;
	// never aliases the decoded buffer.
	Hash multihash.Multihash
}

// Cid re-assembles the full CID.
func (l Link) Cid() cid.Cid {
	if l.Version == 0 {
		return cid.NewCidV0(l.Hash)
	}
	return cid.NewCidV1(l.Codec, l.Hash)
}

// HashCode returns the multihash function code.
func (l Link) HashCode() uint64 {
	code, _, err := varint.FromUvarint(l.Hash)
	if err != nil {
		return 0
	}
	return code
}

// Digest returns the hash digest without the multihash prefix.
func (l Link) Digest() []byte {
	_, n, err := varint.FromUvarint(l.Hash)
	if err != nil {
		return nil
	}
	_, m, err := varint.FromUvarint(l.Hash[n:])
	if err != nil {
		return nil
	}
	return l.Hash[n+m:]
}

func (l Link) String() string {
	return fmt.Sprintf("%s (codec=%s hash=%s)", l.Cid(), multicodec.Code(l.Codec), multicodec.Code(l.HashCode()))
}

// Equal reports whether two links refer to the same CID.
func (l Link) Equal(o Link) bool {
	return l.Version == o.Version && l.Codec == o.Codec && bytes.Equal(l.Hash, o.Hash)
}

// parseLinkPayload interprets the contents of a tag 42 byte string. The second
// return value is false when the payload is well formed but uses a hash
// function the extractor does not accept.
//
// The payload is the 0x00 multibase prefix followed by binary CID bytes:
// either a CIDv1 (version varint, codec varint, multihash) or a bare sha2-256
// multihash, which is how CIDv0 is written.
func (ex *Extractor) parseLinkPayload(payload []byte) (Link, bool, error) {
	if len(payload) == 0 {
		return Link{}, false, fmt.Errorf("empty payload")
	}
	if payload[0] != cidMultibasePrefix {
		return Link{}, false, fmt.Errorf("expected multibase prefix 0x00, got 0x%02x", payload[0])
	}
	b := payload[1:]

	var l Link
	if len(b) == cidV0Len && b[0] == sha256Code && b[1] == sha256Len {
		l.Version = 0
		l.Codec = cid.DagProtobuf
	} else {
		version, n, err := varint.FromUvarint(b)
		if err != nil {
			return Link{}, false, fmt.Errorf("reading cid version: %w", err)
		}
		if version != 1 {
			return Link{}, false, fmt.Errorf("unsupported cid version %d", version)
		}
		b = b[n:]
		codec, n, err := varint.FromUvarint(b)
		if err != nil {
			return Link{}, false, fmt.Errorf("reading cid codec: %w", err)
		}
		b = b[n:]
		l.Version = 1
		l.Codec = codec
	}

	code, n, err := varint.FromUvarint(b)
	if err != nil {
		return Link{}, false, fmt.Errorf("reading multihash code: %w", err)
	}
	length, m, err := varint.FromUvarint(b[n:])
	if err != nil {
		return Link{}, false, fmt.Errorf("reading multihash length: %w", err)
	}
	digest := b[n+m:]
	if uint64(len(digest)) != length {
		return Link{}, false, fmt.Errorf("multihash declares %d digest bytes, payload has %d", length, len(digest))
	}
	if !ex.Accepts(code) {
		return Link{}, false, nil
	}
	l.Hash = multihash.Multihash(bytes.Clone(b))
	return l, true, nil
}
