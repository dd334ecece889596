package testutil

import (
	"bytes"
	"io"
	"testing"

	blocks "github.com/ipfs/go-block-format"
	"github.com/ipfs/go-cid"
	car "github.com/ipld/go-car"
	carutil "github.com/ipld/go-car/util"
	"github.com/multiformats/go-multihash"
	"github.com/stretchr/testify/require"
	cbg "github.com/whyrusleeping/cbor-gen"
	"github.com/zeebo/blake3"
)

func Blake3Cid(t testing.TB, codec uint64, data []byte) cid.Cid {
	sum := blake3.Sum256(data)
	mh, err := multihash.Encode(sum[:], multihash.BLAKE3)
	require.NoError(t, err)
	return cid.NewCidV1(codec, mh)
}

// RawBlock is a leaf block with the raw codec.
func RawBlock(t testing.TB, data string) blocks.Block {
	blk, err := blocks.NewBlockWithCid([]byte(data), Blake3Cid(t, cid.Raw, []byte(data)))
	require.NoError(t, err)
	return blk
}

// NodeBlock encodes {"name": name, "links": [...]} as DAG-CBOR and addresses
// it with a blake3 CIDv1.
func NodeBlock(t testing.TB, name string, links ...cid.Cid) blocks.Block {
	return NodeBlockWithHash(t, multihash.BLAKE3, name, links...)
}

// NodeBlockWithHash is NodeBlock addressed with the given multihash function.
func NodeBlockWithHash(t testing.TB, mhType uint64, name string, links ...cid.Cid) blocks.Block {
	require := require.New(t)

	buf := new(bytes.Buffer)
	cw := cbg.NewCborWriter(buf)
	require.NoError(cw.WriteMajorTypeHeader(cbg.MajMap, 2))
	writeText(t, cw, "name")
	writeText(t, cw, name)
	writeText(t, cw, "links")
	require.NoError(cw.WriteMajorTypeHeader(cbg.MajArray, uint64(len(links))))
	for _, l := range links {
		require.NoError(cbg.WriteCid(cw, l))
	}

	data := buf.Bytes()
	c := Blake3Cid(t, cid.DagCBOR, data)
	if mhType != multihash.BLAKE3 {
		pref := cid.Prefix{Version: 1, Codec: cid.DagCBOR, MhType: mhType, MhLength: -1}
		var err error
		c, err = pref.Sum(data)
		require.NoError(err)
	}
	blk, err := blocks.NewBlockWithCid(data, c)
	require.NoError(err)
	return blk
}

func writeText(t testing.TB, cw *cbg.CborWriter, s string) {
	require.NoError(t, cw.WriteMajorTypeHeader(cbg.MajTextString, uint64(len(s))))
	_, err := cw.WriteString(s)
	require.NoError(t, err)
}

// WriteCAR writes a CARv1 with the given roots and blocks.
func WriteCAR(t testing.TB, w io.Writer, roots []cid.Cid, blks ...blocks.Block) {
	require.NoError(t, car.WriteHeader(&car.CarHeader{Roots: roots, Version: 1}, w))
	for _, b := range blks {
		require.NoError(t, carutil.LdWrite(w, b.Cid().Bytes(), b.RawData()))
	}
}

// Tree is a small DAG used across graph and store tests:
//
//	root -> a -> leaf1
//	     -> b -> leaf1, leaf2
//	     -> c (raw)
type Tree struct {
	Root, A, B  blocks.Block
	C           blocks.Block
	Leaf1       blocks.Block
	Leaf2       blocks.Block
	Unreachable blocks.Block
}

func NewTree(t testing.TB) *Tree {
	tr := &Tree{}
	tr.Leaf1 = NodeBlock(t, "leaf1")
	tr.Leaf2 = NodeBlock(t, "leaf2")
	tr.C = RawBlock(t, "raw payload")
	tr.A = NodeBlock(t, "a", tr.Leaf1.Cid())
	tr.B = NodeBlock(t, "b", tr.Leaf1.Cid(), tr.Leaf2.Cid())
	tr.Root = NodeBlock(t, "root", tr.A.Cid(), tr.B.Cid(), tr.C.Cid())
	tr.Unreachable = NodeBlock(t, "orphan", tr.Leaf2.Cid())
	return tr
}

// Blocks returns every block in the tree, root first.
func (tr *Tree) Blocks() []blocks.Block {
	return []blocks.Block{tr.Root, tr.A, tr.B, tr.C, tr.Leaf1, tr.Leaf2, tr.Unreachable}
}
