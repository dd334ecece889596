package graph

import (
	"context"
	"fmt"

	blocks "github.com/ipfs/go-block-format"
	"github.com/ipfs/go-cid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// BlockDiff computes which blocks of the tree under oldroot are no longer
// referenced once the blocks in newblks are written. newblks is the changed
// portion of the new tree: every unchanged subtree is expected to be linked
// directly from one of them. Like Collect, this needs an extractor that
// accepts every hash function.
func (w *Walker) BlockDiff(ctx context.Context, oldroot cid.Cid, newblks map[cid.Cid]blocks.Block) (*cid.Set, error) {
	if !w.ex.AcceptsAnyHash() {
		return nil, ErrFilteredExtractor
	}

	ctx, span := otel.Tracer("graph").Start(ctx, "BlockDiff")
	defer span.End()

	dropset := cid.NewSet()
	if !oldroot.Defined() {
		return dropset, nil
	}

	// mark everything the new blocks reference as 'keep'
	keepset := cid.NewSet()
	for c, blk := range newblks {
		keepset.Add(c)
		links, err := BlockLinks(w.ex, blk)
		if err != nil {
			return nil, fmt.Errorf("scanning new block: %w", err)
		}
		for _, l := range links {
			keepset.Add(l)
		}
	}

	if keepset.Has(oldroot) {
		// should not happen in practice, but nothing was dropped
		return dropset, nil
	}

	// walk the old tree from the root, only descending into blocks that are
	// not kept
	err := w.Walk(ctx, []cid.Cid{oldroot}, func(c cid.Cid) error {
		if keepset.Has(c) {
			return ErrSkip
		}
		dropset.Add(c)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking old tree: %w", err)
	}

	span.SetAttributes(attribute.Int("dropped", dropset.Len()))
	return dropset, nil
}
