package graph

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bluesky-social/dagscan/dagcbor"

	lru "github.com/hashicorp/golang-lru/v2"
	blocks "github.com/ipfs/go-block-format"
	"github.com/ipfs/go-cid"
	ipld "github.com/ipfs/go-ipld-format"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// ErrSkip can be returned from a Walk callback to not descend into the links
// of the current block.
var ErrSkip = errors.New("skip block links")

// ErrFilteredExtractor is returned by operations that delete or copy blocks
// when the walker's extractor drops links by hash function.
var ErrFilteredExtractor = errors.New("extractor does not accept every hash function")

// GraphOptions are the extractor options used for reachability: every link
// is followed regardless of hash function.
func GraphOptions() dagcbor.Options {
	opts := dagcbor.DefaultOptions()
	opts.AnyHash = true
	return opts
}

// BlockGetter is the read half of a blockstore.
type BlockGetter interface {
	Get(ctx context.Context, c cid.Cid) (blocks.Block, error)
}

type WalkerConfig struct {
	// Collect and BlockDiff require one built with AnyHash
	Extractor *dagcbor.Extractor
	// number of blocks whose link lists are memoized; zero disables the cache
	CacheSize int
	// treat blocks missing from the store as leaves instead of failing
	AllowMissing bool
	Logger       *slog.Logger
}

func DefaultWalkerConfig() WalkerConfig {
	return WalkerConfig{
		Extractor: dagcbor.NewExtractor(GraphOptions()),
		CacheSize: 10_000,
	}
}

// Walker follows links between blocks in a store. Only DAG-CBOR blocks are
// decoded; any other codec is a leaf.
type Walker struct {
	bs           BlockGetter
	ex           *dagcbor.Extractor
	allowMissing bool
	log          *slog.Logger

	// blocks are immutable, so their links can be cached by CID indefinitely
	cache *lru.Cache[cid.Cid, []cid.Cid]
}

func NewWalker(bs BlockGetter, cfg WalkerConfig) (*Walker, error) {
	w := &Walker{
		bs:           bs,
		ex:           cfg.Extractor,
		allowMissing: cfg.AllowMissing,
		log:          cfg.Logger,
	}
	if w.ex == nil {
		w.ex = dagcbor.NewExtractor(GraphOptions())
	}
	if w.log == nil {
		w.log = slog.Default().With("system", "graph")
	}
	if cfg.CacheSize > 0 {
		cache, err := lru.New[cid.Cid, []cid.Cid](cfg.CacheSize)
		if err != nil {
			return nil, err
		}
		w.cache = cache
	}
	return w, nil
}

// Links returns the CIDs referenced by a single block, in document order.
func (w *Walker) Links(ctx context.Context, c cid.Cid) ([]cid.Cid, error) {
	if c.Prefix().Codec != cid.DagCBOR {
		return nil, nil
	}

	if w.cache != nil {
		if links, ok := w.cache.Get(c); ok {
			linkCacheLookups.WithLabelValues("hit").Inc()
			return links, nil
		}
		linkCacheLookups.WithLabelValues("miss").Inc()
	}

	blk, err := w.bs.Get(ctx, c)
	if err != nil {
		return nil, err
	}

	links, err := BlockLinks(w.ex, blk)
	if err != nil {
		return nil, err
	}

	if w.cache != nil {
		w.cache.Add(c, links)
	}
	return links, nil
}

// BlockLinks extracts the links of an already loaded block. Non-DAG-CBOR
// blocks have none.
func BlockLinks(ex *dagcbor.Extractor, blk blocks.Block) ([]cid.Cid, error) {
	if blk.Cid().Prefix().Codec != cid.DagCBOR {
		return nil, nil
	}

	found, err := ex.Extract(blk.RawData())
	if err != nil {
		blocksScanned.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("scanning block %s: %w", blk.Cid(), err)
	}
	blocksScanned.WithLabelValues("ok").Inc()
	linksExtracted.Add(float64(len(found)))

	links := make([]cid.Cid, len(found))
	for i, l := range found {
		links[i] = l.Cid()
	}
	return links, nil
}

// Walk visits every block reachable from roots exactly once, breadth-first.
// fn is called before a block's links are loaded; returning ErrSkip prunes
// the walk below that block, any other error aborts it.
func (w *Walker) Walk(ctx context.Context, roots []cid.Cid, fn func(cid.Cid) error) error {
	ctx, span := otel.Tracer("graph").Start(ctx, "Walk")
	defer span.End()

	seen := cid.NewSet()
	var queue []cid.Cid
	for _, r := range roots {
		if seen.Visit(r) {
			queue = append(queue, r)
		}
	}

	visited := 0
	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}

		c := queue[0]
		queue = queue[1:]
		visited++

		if fn != nil {
			if err := fn(c); err != nil {
				if errors.Is(err, ErrSkip) {
					continue
				}
				return err
			}
		}

		links, err := w.Links(ctx, c)
		if err != nil {
			if w.allowMissing && ipld.IsNotFound(err) {
				missingBlocks.Inc()
				w.log.Debug("skipping missing block", "cid", c)
				continue
			}
			return fmt.Errorf("walking %s: %w", c, err)
		}

		for _, l := range links {
			if seen.Visit(l) {
				queue = append(queue, l)
			}
		}
	}

	span.SetAttributes(attribute.Int("visited", visited))
	return nil
}

// Reachable returns the set of CIDs reachable from roots, roots included.
func (w *Walker) Reachable(ctx context.Context, roots []cid.Cid) (*cid.Set, error) {
	out := cid.NewSet()
	err := w.Walk(ctx, roots, func(c cid.Cid) error {
		out.Add(c)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
