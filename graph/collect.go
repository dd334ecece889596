package graph

import (
	"context"
	"fmt"
	"sort"

	"github.com/ipfs/go-cid"
	blockstore "github.com/ipfs/go-ipfs-blockstore"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// Collect is a mark-and-sweep garbage collection of bs: every block not
// reachable from roots is deleted (or only reported, with dryRun). The
// unreachable CIDs are returned sorted. The walker's extractor must accept
// every hash function, otherwise ErrFilteredExtractor. Blockstores key
// blocks by multihash, so the returned CIDs carry whatever codec the store's
// key listing uses.
func (w *Walker) Collect(ctx context.Context, bs blockstore.Blockstore, roots []cid.Cid, dryRun bool) ([]cid.Cid, error) {
	if !w.ex.AcceptsAnyHash() {
		return nil, ErrFilteredExtractor
	}

	ctx, span := otel.Tracer("graph").Start(ctx, "Collect")
	defer span.End()

	live, err := w.Reachable(ctx, roots)
	if err != nil {
		return nil, fmt.Errorf("marking live blocks: %w", err)
	}
	liveHashes := make(map[string]struct{}, live.Len())
	for _, c := range live.Keys() {
		liveHashes[string(c.Hash())] = struct{}{}
	}

	keys, err := bs.AllKeysChan(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing blocks: %w", err)
	}
	var dead []cid.Cid
	for k := range keys {
		if _, ok := liveHashes[string(k.Hash())]; !ok {
			dead = append(dead, k)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sort.Slice(dead, func(i, j int) bool {
		return dead[i].KeyString() < dead[j].KeyString()
	})

	if !dryRun {
		for _, c := range dead {
			if err := bs.DeleteBlock(ctx, c); err != nil {
				return nil, fmt.Errorf("deleting %s: %w", c, err)
			}
			collectedBlocks.Inc()
		}
	}

	w.log.Info("garbage collection finished", "live", live.Len(), "unreachable", len(dead), "dryRun", dryRun)
	span.SetAttributes(attribute.Int("live", live.Len()), attribute.Int("unreachable", len(dead)))
	return dead, nil
}
