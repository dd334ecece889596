package dagcbor

import (
	"bytes"
	"testing"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
	cbg "github.com/whyrusleeping/cbor-gen"
	"github.com/zeebo/blake3"
)

// blockBuilder assembles raw CBOR for tests, including deliberately
// malformed encodings that no marshaller would produce.
type blockBuilder struct {
	buf bytes.Buffer
}

func (b *blockBuilder) head(maj byte, n uint64) *blockBuilder {
	b.buf.Write(cbg.CborEncodeMajorType(maj, n))
	return b
}

func (b *blockBuilder) raw(p ...byte) *blockBuilder {
	b.buf.Write(p)
	return b
}

func (b *blockBuilder) text(s string) *blockBuilder {
	b.head(cbg.MajTextString, uint64(len(s)))
	b.buf.WriteString(s)
	return b
}

func (b *blockBuilder) bytes(p []byte) *blockBuilder {
	b.head(cbg.MajByteString, uint64(len(p)))
	b.buf.Write(p)
	return b
}

func (b *blockBuilder) link(c cid.Cid) *blockBuilder {
	if err := cbg.WriteCid(&b.buf, c); err != nil {
		panic(err)
	}
	return b
}

func (b *blockBuilder) Bytes() []byte {
	return b.buf.Bytes()
}

func blake3Mh(t testing.TB, data []byte) multihash.Multihash {
	sum := blake3.Sum256(data)
	mh, err := multihash.Encode(sum[:], multihash.BLAKE3)
	if err != nil {
		t.Fatal(err)
	}
	return mh
}

func blake3Cid(t testing.TB, codec uint64, data []byte) cid.Cid {
	return cid.NewCidV1(codec, blake3Mh(t, data))
}

func sha256Cid(t testing.TB, codec uint64, data []byte) cid.Cid {
	mh, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		t.Fatal(err)
	}
	return cid.NewCidV1(codec, mh)
}

// linkPayload is the byte string content of a tag 42 item for c.
func linkPayload(c cid.Cid) []byte {
	return append([]byte{0x00}, c.Bytes()...)
}

func linkCids(links []Link) []cid.Cid {
	out := make([]cid.Cid, len(links))
	for i, l := range links {
		out[i] = l.Cid()
	}
	return out
}
