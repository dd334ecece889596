package store

import (
	"fmt"

	blocks "github.com/ipfs/go-block-format"
	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
	"github.com/zeebo/blake3"
)

// VerifyBlock checks that the block's data hashes to its CID. Any hash
// function registered with go-multihash works, blake3 included.
func VerifyBlock(blk blocks.Block) error {
	c := blk.Cid()
	computed, err := c.Prefix().Sum(blk.RawData())
	if err != nil {
		return fmt.Errorf("hashing block %s: %w", c, err)
	}
	if !computed.Equals(c) {
		return fmt.Errorf("block data does not match %s (computed %s)", c, computed)
	}
	return nil
}

// Blake3Block wraps data in a block addressed by a blake3 CIDv1 with the given
// codec.
func Blake3Block(codec uint64, data []byte) (blocks.Block, error) {
	sum := blake3.Sum256(data)
	mh, err := multihash.Encode(sum[:], multihash.BLAKE3)
	if err != nil {
		return nil, err
	}
	blk, err := blocks.NewBlockWithCid(data, cid.NewCidV1(codec, mh))
	if err != nil {
		return nil, err
	}
	return blk, nil
}
