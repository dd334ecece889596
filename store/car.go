package store

import (
	"context"
	"errors"
	"fmt"
	"io"

	blocks "github.com/ipfs/go-block-format"
	"github.com/ipfs/go-cid"
	carv2 "github.com/ipld/go-car/v2"
)

var ErrNoRoot = errors.New("CAR file missing root CID")

// BlockPutter is the write half of a blockstore.
type BlockPutter interface {
	Put(ctx context.Context, blk blocks.Block) error
}

// ImportCAR copies every block of a CARv1 or CARv2 stream into bs. Block
// hashes are verified while reading. Returns the header roots and the number
// of blocks imported.
func ImportCAR(ctx context.Context, bs BlockPutter, r io.Reader) ([]cid.Cid, int, error) {
	var roots []cid.Cid
	count := 0
	err := ForEachCARBlock(r, func(hdrRoots []cid.Cid, blk blocks.Block) error {
		roots = hdrRoots
		if err := bs.Put(ctx, blk); err != nil {
			return fmt.Errorf("storing block %s: %w", blk.Cid(), err)
		}
		count++
		return nil
	})
	if err != nil {
		return nil, count, err
	}
	return roots, count, nil
}

// ForEachCARBlock calls fn for every block in the CAR stream, in file order,
// along with the header roots.
func ForEachCARBlock(r io.Reader, fn func(roots []cid.Cid, blk blocks.Block) error) error {
	br, err := carv2.NewBlockReader(r)
	if err != nil {
		return fmt.Errorf("reading CAR header: %w", err)
	}
	if len(br.Roots) < 1 {
		return ErrNoRoot
	}

	for {
		blk, err := br.Next()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("reading CAR block: %w", err)
		}
		if err := fn(br.Roots, blk); err != nil {
			return err
		}
	}
}
