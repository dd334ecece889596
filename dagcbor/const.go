package dagcbor

import (
	"fmt"

	"github.com/multiformats/go-multihash"
)

// MajorType is the top three bits of a CBOR initial byte.
type MajorType byte

const (
	MajUnsignedInt MajorType = iota
	MajNegativeInt
	MajByteString
	MajTextString
	MajArray
	MajMap
	MajTag
	MajOther
)

func (m MajorType) String() string {
	switch m {
	case MajUnsignedInt:
		return "unsigned-int"
	case MajNegativeInt:
		return "negative-int"
	case MajByteString:
		return "byte-string"
	case MajTextString:
		return "text-string"
	case MajArray:
		return "array"
	case MajMap:
		return "map"
	case MajTag:
		return "tag"
	case MajOther:
		return "float-or-simple"
	default:
		return fmt.Sprintf("major(%d)", byte(m))
	}
}

const (
	// CBOR tag number reserved by IPLD for CIDs
	TagCID = 42

	// additional-info values in the low five bits of the initial byte
	infoUint8      = 24
	infoUint16     = 25
	infoUint32     = 26
	infoUint64     = 27
	infoIndefinite = 31

	// first byte of every DAG-CBOR CID payload (the "identity" multibase)
	cidMultibasePrefix = 0x00

	// CIDv0 is a bare sha2-256 multihash
	sha256Code = 0x12
	sha256Len  = 32
	cidV0Len   = 2 + sha256Len

	// default limit on nested containers and tags
	DefaultMaxDepth = 64

	// default accepted multihash code
	DefaultHashCode = multihash.BLAKE3
)
