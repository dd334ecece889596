package graph

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/bluesky-social/dagscan/dagcbor"

	blocks "github.com/ipfs/go-block-format"
	"github.com/ipfs/go-cid"
	blockstore "github.com/ipfs/go-ipfs-blockstore"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// Prefetcher copies the closure of a set of roots from a remote source into a
// local blockstore. Blocks already present locally are not fetched again, but
// their links are still followed.
type Prefetcher struct {
	Local     blockstore.Blockstore
	Remote    BlockGetter
	// must accept every hash function; defaults to GraphOptions
	Extractor *dagcbor.Extractor
	// max blocks in flight; defaults to 8
	Concurrency int
	// hash-check blocks received from Remote
	Verify func(blocks.Block) error
	Logger *slog.Logger
}

// Prefetch walks the DAG level by level from roots, fetching each level in
// parallel. Returns the number of blocks copied from Remote.
func (p *Prefetcher) Prefetch(ctx context.Context, roots []cid.Cid) (int, error) {
	ctx, span := otel.Tracer("graph").Start(ctx, "Prefetch")
	defer span.End()
	start := time.Now()

	ex := p.Extractor
	if ex == nil {
		ex = dagcbor.NewExtractor(GraphOptions())
	}
	if !ex.AcceptsAnyHash() {
		return 0, ErrFilteredExtractor
	}
	limit := p.Concurrency
	if limit <= 0 {
		limit = 8
	}
	log := p.Logger
	if log == nil {
		log = slog.Default().With("system", "prefetch")
	}

	var fetched atomic.Int64
	seen := cid.NewSet()
	var level []cid.Cid
	for _, r := range roots {
		if seen.Visit(r) {
			level = append(level, r)
		}
	}

	for depth := 0; len(level) > 0; depth++ {
		next := make([][]cid.Cid, len(level))

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(limit)
		for i, c := range level {
			g.Go(func() error {
				blk, remote, err := p.get(gctx, c)
				if err != nil {
					return err
				}
				if remote {
					fetched.Add(1)
					prefetchedBlocks.Inc()
				}
				links, err := BlockLinks(ex, blk)
				if err != nil {
					return err
				}
				next[i] = links
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return int(fetched.Load()), err
		}

		log.Debug("prefetched level", "depth", depth, "blocks", len(level))
		level = level[:0]
		for _, links := range next {
			for _, l := range links {
				if seen.Visit(l) {
					level = append(level, l)
				}
			}
		}
	}

	prefetchDuration.Observe(time.Since(start).Seconds())
	span.SetAttributes(attribute.Int64("fetched", fetched.Load()))
	return int(fetched.Load()), nil
}

func (p *Prefetcher) get(ctx context.Context, c cid.Cid) (blocks.Block, bool, error) {
	has, err := p.Local.Has(ctx, c)
	if err != nil {
		return nil, false, err
	}
	if has {
		blk, err := p.Local.Get(ctx, c)
		return blk, false, err
	}

	blk, err := p.Remote.Get(ctx, c)
	if err != nil {
		return nil, false, fmt.Errorf("fetching %s: %w", c, err)
	}
	if p.Verify != nil {
		if err := p.Verify(blk); err != nil {
			return nil, false, err
		}
	}
	if err := p.Local.Put(ctx, blk); err != nil {
		return nil, false, fmt.Errorf("storing %s: %w", c, err)
	}
	return blk, true, nil
}
