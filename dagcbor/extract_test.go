package dagcbor

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	cbg "github.com/whyrusleeping/cbor-gen"
	"github.com/zeebo/blake3"
)

func TestScalarsHaveNoLinks(t *testing.T) {
	assert := assert.New(t)

	inputs := []string{
		"00",
		"17",
		"1b0000000000000001",
		"20",
		"3bffffffffffffffff",
		"f4", "f5", "f6", "f7",
		"f820",
		"f93c00",
		"fa47c35000",
		"fb3ff199999999999a",
		"40",
		"4401020304",
		"60",
		"6568656c6c6f",
		"80",
		"a0",
		"c11a514b67b0",
		"c249010000000000000000",
		"5f42aabb41ccff",
		"7f616162626364ff",
	}
	for _, in := range inputs {
		buf, err := hex.DecodeString(in)
		require.NoError(t, err)
		links, err := ExtractReferences(buf)
		assert.NoError(err, in)
		assert.Empty(links, in)
	}
}

func TestExtractExample(t *testing.T) {
	assert := assert.New(t)

	data := []byte("some raw block")
	sum := blake3.Sum256(data)
	c := blake3Cid(t, cid.Raw, data)

	// {"links": [42(h'00 01 55 1e20 <digest>')]}
	var b blockBuilder
	b.head(cbg.MajMap, 1).text("links").head(cbg.MajArray, 1).link(c)

	links, err := ExtractReferences(b.Bytes())
	require.NoError(t, err)
	require.Len(t, links, 1)

	l := links[0]
	assert.Equal(uint64(1), l.Version)
	assert.Equal(uint64(cid.Raw), l.Codec)
	assert.Equal(uint64(multihash.BLAKE3), l.HashCode())
	assert.Equal(sum[:], l.Digest())
	assert.Equal(append([]byte{0x1e, 0x20}, sum[:]...), []byte(l.Hash))
	assert.Equal(c, l.Cid())
	assert.Contains(l.String(), c.String())
}

func TestExtractedHashIsCopied(t *testing.T) {
	assert := assert.New(t)

	c := blake3Cid(t, cid.DagCBOR, []byte("copy"))
	var b blockBuilder
	b.link(c)
	buf := b.Bytes()

	links, err := ExtractReferences(buf)
	require.NoError(t, err)
	require.Len(t, links, 1)

	for i := range buf {
		buf[i] = 0
	}
	assert.Equal(c, links[0].Cid())
}

// nestedArrays builds [l1, [l2, [... [lD]]]], one link per level.
func nestedArrays(t *testing.T, depth int) ([]byte, []cid.Cid) {
	var b blockBuilder
	var want []cid.Cid
	for i := 0; i < depth; i++ {
		c := blake3Cid(t, cid.DagCBOR, []byte(fmt.Sprintf("level-%d", i)))
		want = append(want, c)
		if i == depth-1 {
			b.head(cbg.MajArray, 1).link(c)
		} else {
			b.head(cbg.MajArray, 2).link(c)
		}
	}
	return b.Bytes(), want
}

// nestedMaps builds {_ "l": l1, "n": {_ "l": l2, ...}} with indefinite maps.
func nestedMaps(t *testing.T, depth int) ([]byte, []cid.Cid) {
	var b blockBuilder
	var want []cid.Cid
	for i := 0; i < depth; i++ {
		c := blake3Cid(t, cid.DagCBOR, []byte(fmt.Sprintf("map-level-%d", i)))
		want = append(want, c)
		b.raw(0xbf).text("l").link(c)
		if i < depth-1 {
			b.text("n")
		}
	}
	for i := 0; i < depth; i++ {
		b.raw(0xff)
	}
	return b.Bytes(), want
}

func TestDepthLimit(t *testing.T) {
	for _, build := range []func(*testing.T, int) ([]byte, []cid.Cid){nestedArrays, nestedMaps} {
		for _, depth := range []int{1, 2, 10, 64} {
			buf, want := build(t, depth)

			ex := NewExtractor(Options{MaxDepth: depth})
			links, err := ex.Extract(buf)
			require.NoError(t, err, "depth %d", depth)
			assert.Equal(t, want, linkCids(links), "depth %d", depth)

			if depth == 1 {
				continue
			}
			ex = NewExtractor(Options{MaxDepth: depth - 1})
			_, err = ex.Extract(buf)
			assert.ErrorIs(t, err, ErrDepthExceeded, "depth %d", depth)

			// the lazy sequence stops at the level that broke the limit
			var got []cid.Cid
			var iterErr error
			for l, err := range ex.Links(buf) {
				if err != nil {
					iterErr = err
					break
				}
				got = append(got, l.Cid())
			}
			assert.ErrorIs(t, iterErr, ErrDepthExceeded)
			assert.Equal(t, want[:depth-1], got)
		}
	}
}

func TestDepthCountsTagsButNotLinks(t *testing.T) {
	assert := assert.New(t)

	c := blake3Cid(t, cid.DagCBOR, []byte("tagged"))

	// tag 1(tag 1(0))
	ex := NewExtractor(Options{MaxDepth: 1})
	_, err := ex.Extract([]byte{0xc1, 0xc1, 0x00})
	assert.ErrorIs(err, ErrDepthExceeded)
	_, err = NewExtractor(Options{MaxDepth: 2}).Extract([]byte{0xc1, 0xc1, 0x00})
	assert.NoError(err)

	// [42(...)] fits in a single level
	var b blockBuilder
	b.head(cbg.MajArray, 1).link(c)
	links, err := ex.Extract(b.Bytes())
	assert.NoError(err)
	assert.Len(links, 1)

	// unknown tags are transparent: tag 1([42(...)])
	var tb blockBuilder
	tb.head(cbg.MajTag, 1).head(cbg.MajArray, 1).link(c)
	links, err = ExtractReferences(tb.Bytes())
	assert.NoError(err)
	assert.Equal([]cid.Cid{c}, linkCids(links))
}

func TestDefaultMaxDepth(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(DefaultMaxDepth, NewExtractor(Options{}).MaxDepth())
	assert.Equal(DefaultMaxDepth, NewExtractor(Options{MaxDepth: -3}).MaxDepth())

	// far deeper than any goroutine stack should have to recurse
	deep := make([]byte, 0, 100001)
	for i := 0; i < 100000; i++ {
		deep = append(deep, 0x81)
	}
	deep = append(deep, 0x00)
	_, err := ExtractReferences(deep)
	assert.ErrorIs(err, ErrDepthExceeded)

	var de *DecodeError
	assert.True(errors.As(err, &de))
	assert.Equal(DefaultMaxDepth, de.Offset)
}

func truncationFixture(t *testing.T) []byte {
	var b blockBuilder
	b.head(cbg.MajMap, 4)
	b.text("links").head(cbg.MajArray, 2)
	b.link(blake3Cid(t, cid.Raw, []byte("one")))
	b.link(sha256Cid(t, cid.DagCBOR, []byte("two")))
	b.text("big").raw(0x1b, 0, 0, 0, 1, 0, 0, 0, 0)
	b.text("indef").raw(0x9f).raw(0x5f).bytes([]byte{1, 2, 3}).raw(0xff).raw(0xbf).text("k").raw(0xf6).raw(0xff).raw(0xff)
	b.text("tagged").head(cbg.MajTag, 6000).link(blake3Cid(t, cid.DagCBOR, []byte("three")))
	return b.Bytes()
}

func TestTruncated(t *testing.T) {
	assert := assert.New(t)

	buf := truncationFixture(t)
	links, err := ExtractReferences(buf)
	require.NoError(t, err)
	assert.Len(links, 2)

	for i := 0; i < len(buf); i++ {
		_, err := ExtractReferences(buf[:i])
		assert.ErrorIs(err, ErrTruncated, "prefix of %d bytes", i)
	}

	// declared lengths far beyond the input
	for _, in := range []string{
		"5affffffff",
		"7b00000001000000000000",
		"9bffffffffffffffff",
		"bbffffffffffffffff00",
		"d82a5825000171",
	} {
		buf, err := hex.DecodeString(in)
		require.NoError(t, err)
		_, err = ExtractReferences(buf)
		assert.ErrorIs(err, ErrTruncated, in)
	}
}

func TestIndefiniteItems(t *testing.T) {
	assert := assert.New(t)

	c := blake3Cid(t, cid.DagCBOR, []byte("indefinite"))

	var arr blockBuilder
	arr.raw(0x9f).link(c).raw(0x01).raw(0x7f).text("a").text("b").raw(0xff).raw(0xff)
	links, err := ExtractReferences(arr.Bytes())
	assert.NoError(err)
	assert.Equal([]cid.Cid{c}, linkCids(links))

	var m blockBuilder
	m.raw(0xbf).text("a").raw(0x9f).raw(0xff).text("b").link(c).raw(0xff)
	links, err = ExtractReferences(m.Bytes())
	assert.NoError(err)
	assert.Equal([]cid.Cid{c}, linkCids(links))

	bad := []struct {
		in  string
		err error
	}{
		// text chunk inside a byte string
		{"5f41006161ff", ErrInvalidIndefiniteChunk},
		// byte chunk inside a text string
		{"7f4100ff", ErrInvalidIndefiniteChunk},
		// nested indefinite chunk
		{"5f5fffff", ErrInvalidIndefiniteChunk},
		// map ends after a key
		{"bf6161ff", ErrInvalidIndefiniteChunk},
		{"bf616101616202ff00", ErrTrailingData},
		// break outside of an indefinite item
		{"ff", ErrInvalidHeader},
		{"8201ff", ErrInvalidHeader},
		{"a16161ff", ErrInvalidHeader},
		{"c1ff", ErrInvalidHeader},
		// missing break
		{"9f0102", ErrTruncated},
		{"5f4100", ErrTruncated},
	}
	for _, tc := range bad {
		buf, err := hex.DecodeString(tc.in)
		require.NoError(t, err)
		_, err = ExtractReferences(buf)
		assert.ErrorIs(err, tc.err, tc.in)
	}
}

func TestIndefiniteLinkPayload(t *testing.T) {
	assert := assert.New(t)

	c := blake3Cid(t, cid.DagCBOR, []byte("chunked"))
	payload := linkPayload(c)

	var b blockBuilder
	b.head(cbg.MajArray, 1).head(cbg.MajTag, TagCID).raw(0x5f).bytes(payload[:5]).bytes(payload[5:20]).bytes(payload[20:]).raw(0xff)
	buf := b.Bytes()

	// rejected by default
	_, err := ExtractReferences(buf)
	assert.ErrorIs(err, ErrInvalidCidEncoding)

	// concatenated when enabled
	ex := NewExtractor(Options{AllowIndefiniteLinks: true})
	links, err := ex.Extract(buf)
	assert.NoError(err)
	assert.Equal([]cid.Cid{c}, linkCids(links))

	// chunks still have to be byte strings
	var tb blockBuilder
	tb.head(cbg.MajTag, TagCID).raw(0x5f).bytes(payload[:5]).text("x").raw(0xff)
	_, err = ex.Extract(tb.Bytes())
	assert.ErrorIs(err, ErrInvalidIndefiniteChunk)

	// concatenated bytes still have to form a CID
	var sb blockBuilder
	sb.head(cbg.MajTag, TagCID).raw(0x5f).bytes(payload[:5]).raw(0xff)
	_, err = ex.Extract(sb.Bytes())
	assert.ErrorIs(err, ErrInvalidCidEncoding)
}

func TestHashCodeFilter(t *testing.T) {
	assert := assert.New(t)

	b3 := blake3Cid(t, cid.DagCBOR, []byte("blake3"))
	s2 := sha256Cid(t, cid.DagCBOR, []byte("sha256"))

	var foreign blockBuilder
	foreign.link(s2)
	links, err := ExtractReferences(foreign.Bytes())
	assert.NoError(err)
	assert.Empty(links)

	var mixed blockBuilder
	mixed.head(cbg.MajArray, 3).link(s2).link(b3).link(s2)

	links, err = ExtractReferences(mixed.Bytes())
	assert.NoError(err)
	assert.Equal([]cid.Cid{b3}, linkCids(links))

	ex := NewExtractor(Options{HashCodes: []uint64{multihash.SHA2_256}})
	links, err = ex.Extract(mixed.Bytes())
	assert.NoError(err)
	assert.Equal([]cid.Cid{s2, s2}, linkCids(links))
	assert.False(ex.Accepts(multihash.BLAKE3))

	ex = NewExtractor(Options{HashCodes: []uint64{multihash.SHA2_256, multihash.BLAKE3, multihash.SHA2_256}})
	links, err = ex.Extract(mixed.Bytes())
	assert.NoError(err)
	assert.Equal([]cid.Cid{s2, b3, s2}, linkCids(links))

	ex = NewExtractor(Options{AnyHash: true, HashCodes: []uint64{multihash.SHA2_256}})
	assert.True(ex.AcceptsAnyHash())
	assert.True(ex.Accepts(0x1234))
	links, err = ex.Extract(mixed.Bytes())
	assert.NoError(err)
	assert.Equal([]cid.Cid{s2, b3, s2}, linkCids(links))
	assert.False(NewExtractor(DefaultOptions()).AcceptsAnyHash())
}

func TestCidV0Link(t *testing.T) {
	assert := assert.New(t)

	mh, err := multihash.Sum([]byte("dag-pb node"), multihash.SHA2_256, -1)
	require.NoError(t, err)
	c := cid.NewCidV0(mh)

	var b blockBuilder
	b.link(c)

	ex := NewExtractor(Options{HashCodes: []uint64{multihash.SHA2_256}})
	links, err := ex.Extract(b.Bytes())
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(uint64(0), links[0].Version)
	assert.Equal(uint64(cid.DagProtobuf), links[0].Codec)
	assert.Equal(c, links[0].Cid())
}

func TestInvalidCidEncoding(t *testing.T) {
	assert := assert.New(t)

	c := blake3Cid(t, cid.DagCBOR, []byte("invalid"))
	mh := []byte(c.Hash())
	s2 := sha256Cid(t, cid.DagCBOR, []byte("other hash"))

	payloads := map[string][]byte{
		"empty":          {},
		"no prefix":      c.Bytes(),
		"wrong prefix":   append([]byte{0x01}, c.Bytes()...),
		"prefix only":    {0x00},
		"version 2":      append([]byte{0x00, 0x02, 0x71}, mh...),
		"version 0 long": append([]byte{0x00, 0x00, 0x71}, mh...),
		"no codec":       {0x00, 0x01},
		"bad varint":     {0x00, 0x01, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff},
		"no multihash":   {0x00, 0x01, 0x71},
		"short digest":   linkPayload(c)[:len(linkPayload(c))-1],
		"long digest":    append(linkPayload(c), 0x00),
		"foreign short":  linkPayload(s2)[:len(linkPayload(s2))-3],
	}
	for name, p := range payloads {
		var b blockBuilder
		b.head(cbg.MajTag, TagCID).bytes(p)
		_, err := ExtractReferences(b.Bytes())
		assert.ErrorIs(err, ErrInvalidCidEncoding, name)
	}

	others := map[string]string{
		"text":  "d82a6161",
		"int":   "d82a01",
		"array": "d82a80",
		"break": "d82aff",
	}
	for name, in := range others {
		buf, err := hex.DecodeString(in)
		require.NoError(t, err)
		_, err = ExtractReferences(buf)
		assert.ErrorIs(err, ErrInvalidCidEncoding, name)
	}
}

func TestTrailingData(t *testing.T) {
	assert := assert.New(t)

	c := blake3Cid(t, cid.DagCBOR, []byte("trailing"))
	var b blockBuilder
	b.link(c)
	item := b.Bytes()
	buf := append(append([]byte{}, item...), 0x00, 0x01)

	_, err := ExtractReferences(buf)
	assert.ErrorIs(err, ErrTrailingData)
	var de *DecodeError
	require.True(t, errors.As(err, &de))
	assert.Equal(len(item), de.Offset)
	assert.Contains(de.Error(), "offset")

	// a link seen before the trailing bytes is still yielded lazily
	var got []Link
	var iterErr error
	for l, err := range Links(buf) {
		if err != nil {
			iterErr = err
			continue
		}
		got = append(got, l)
	}
	assert.Len(got, 1)
	assert.ErrorIs(iterErr, ErrTrailingData)
}

func TestScanItemSequence(t *testing.T) {
	assert := assert.New(t)

	c1 := blake3Cid(t, cid.DagCBOR, []byte("seq-1"))
	c2 := blake3Cid(t, cid.DagCBOR, []byte("seq-2"))

	var b blockBuilder
	b.head(cbg.MajArray, 1).link(c1)
	first := len(b.Bytes())
	b.text("no links here")
	second := len(b.Bytes())
	b.head(cbg.MajMap, 1).text("x").link(c2)
	seq := b.Bytes()

	ex := NewExtractor(DefaultOptions())
	var got []cid.Cid
	collect := func(l Link) bool {
		got = append(got, l.Cid())
		return true
	}

	n, err := ex.ScanItem(seq, collect)
	assert.NoError(err)
	assert.Equal(first, n)

	m, err := ex.ScanItem(seq[n:], collect)
	assert.NoError(err)
	assert.Equal(second, n+m)

	k, err := ex.ScanItem(seq[n+m:], nil)
	assert.NoError(err)
	assert.Equal(len(seq), n+m+k)
	assert.Equal([]cid.Cid{c1}, got)

	// stopping early
	got = nil
	_, err = ex.ScanItem(seq[n+m:], func(l Link) bool {
		got = append(got, l.Cid())
		return false
	})
	assert.NoError(err)
	assert.Equal([]cid.Cid{c2}, got)
}

func TestLinksEarlyStop(t *testing.T) {
	assert := assert.New(t)

	var b blockBuilder
	b.head(cbg.MajArray, 3)
	for i := 0; i < 3; i++ {
		b.link(blake3Cid(t, cid.DagCBOR, []byte{byte(i)}))
	}
	// garbage after the array is never reached
	buf := append(b.Bytes(), 0xff, 0xff)

	count := 0
	for _, err := range Links(buf) {
		assert.NoError(err)
		count++
		if count == 2 {
			break
		}
	}
	assert.Equal(2, count)
}

func TestRoundTrip(t *testing.T) {
	assert := assert.New(t)

	buf, err := os.ReadFile("testdata/wnfs_directory.cbor")
	require.NoError(t, err)

	links, err := ExtractReferences(buf)
	require.NoError(t, err)
	require.Len(t, links, 2)

	for _, l := range links {
		var b blockBuilder
		b.link(l.Cid())
		again, err := ExtractReferences(b.Bytes())
		assert.NoError(err)
		if assert.Len(again, 1) {
			assert.True(l.Equal(again[0]))
		}
	}
}

func TestWnfsDirectoryFixture(t *testing.T) {
	assert := assert.New(t)

	buf, err := os.ReadFile("testdata/wnfs_directory.cbor")
	require.NoError(t, err)

	links, err := ExtractReferences(buf)
	require.NoError(t, err)
	require.Len(t, links, 2)

	digests := []string{
		"45c910e86e64f78a99dde9232e5978de40823eaa42732ff7a3814983d6969e73",
		"82a8fc238c9a05e2351f8ceaa4e5af2cdb39a895f6e929827a2614e61239d47c",
	}
	for i, l := range links {
		assert.Equal(uint64(cid.DagCBOR), l.Codec)
		assert.Equal(uint64(multihash.BLAKE3), l.HashCode())
		assert.Equal(digests[i], hex.EncodeToString(l.Digest()))
	}
}

func TestTextPrefixFixture(t *testing.T) {
	assert := assert.New(t)

	buf, err := os.ReadFile("testdata/text_prefix.bin")
	require.NoError(t, err)

	_, err = ExtractReferences(buf)
	assert.ErrorIs(err, ErrTrailingData)

	n, err := NewExtractor(DefaultOptions()).ScanItem(buf, nil)
	assert.NoError(err)
	assert.Equal(16, n)
}

func BenchmarkExtract(b *testing.B) {
	buf, err := os.ReadFile("testdata/wnfs_directory.cbor")
	if err != nil {
		b.Fatal(err)
	}
	ex := NewExtractor(DefaultOptions())

	b.ReportAllocs()
	b.SetBytes(int64(len(buf)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := ex.ScanItem(buf, func(Link) bool { return true }); err != nil {
			b.Fatal(err)
		}
	}
}
