package store

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	blocks "github.com/ipfs/go-block-format"
	"github.com/ipfs/go-cid"
	blockstore "github.com/ipfs/go-ipfs-blockstore"
)

// CacheBlockstore keeps recently read blocks in memory in front of a slower
// blockstore (eg, flatfs during a garbage collection walk).
type CacheBlockstore struct {
	base  blockstore.Blockstore
	cache *lru.TwoQueueCache[string, blocks.Block]
}

func NewCacheBlockstore(base blockstore.Blockstore, size int) (*CacheBlockstore, error) {
	cache, err := lru.New2Q[string, blocks.Block](size)
	if err != nil {
		return nil, err
	}
	return &CacheBlockstore{
		base:  base,
		cache: cache,
	}, nil
}

var _ blockstore.Blockstore = (*CacheBlockstore)(nil)

// blocks are keyed by multihash in the base store, so the cache is too
func cacheKey(c cid.Cid) string {
	return string(c.Hash())
}

func (bs *CacheBlockstore) DeleteBlock(ctx context.Context, c cid.Cid) error {
	bs.cache.Remove(cacheKey(c))
	return bs.base.DeleteBlock(ctx, c)
}

func (bs *CacheBlockstore) Has(ctx context.Context, c cid.Cid) (bool, error) {
	if bs.cache.Contains(cacheKey(c)) {
		return true, nil
	}
	return bs.base.Has(ctx, c)
}

func (bs *CacheBlockstore) Get(ctx context.Context, c cid.Cid) (blocks.Block, error) {
	if blk, ok := bs.cache.Get(cacheKey(c)); ok {
		if blk.Cid().Equals(c) {
			return blk, nil
		}
		// same bytes, requested under a different codec
		nb, err := blocks.NewBlockWithCid(blk.RawData(), c)
		if err != nil {
			return nil, err
		}
		return nb, nil
	}

	blk, err := bs.base.Get(ctx, c)
	if err != nil {
		return nil, err
	}

	bs.cache.Add(cacheKey(c), blk)
	return blk, nil
}

func (bs *CacheBlockstore) GetSize(ctx context.Context, c cid.Cid) (int, error) {
	if blk, ok := bs.cache.Get(cacheKey(c)); ok {
		return len(blk.RawData()), nil
	}
	return bs.base.GetSize(ctx, c)
}

func (bs *CacheBlockstore) Put(ctx context.Context, blk blocks.Block) error {
	if err := bs.base.Put(ctx, blk); err != nil {
		return err
	}

	bs.cache.Add(cacheKey(blk.Cid()), blk)
	return nil
}

func (bs *CacheBlockstore) PutMany(ctx context.Context, blks []blocks.Block) error {
	if err := bs.base.PutMany(ctx, blks); err != nil {
		return err
	}
	for _, blk := range blks {
		bs.cache.Add(cacheKey(blk.Cid()), blk)
	}
	return nil
}

func (bs *CacheBlockstore) AllKeysChan(ctx context.Context) (<-chan cid.Cid, error) {
	return bs.base.AllKeysChan(ctx)
}

func (bs *CacheBlockstore) HashOnRead(enabled bool) {
	bs.base.HashOnRead(enabled)
}

func (bs *CacheBlockstore) String() string {
	return fmt.Sprintf("CacheBlockstore(%d cached)", bs.cache.Len())
}
