package store

import (
	"context"
	"sync"

	blocks "github.com/ipfs/go-block-format"
	"github.com/ipfs/go-cid"
	ipld "github.com/ipfs/go-ipld-format"
)

// MemStore is a minimal map of blocks keyed by full CID (unlike a Blockstore,
// which keys by multihash). It satisfies graph.BlockGetter and is handy as a
// remote in tests.
type MemStore struct {
	lk     sync.RWMutex
	blocks map[string]blocks.Block
}

func NewMemStore(blks ...blocks.Block) *MemStore {
	ms := &MemStore{blocks: make(map[string]blocks.Block, len(blks))}
	for _, b := range blks {
		ms.blocks[b.Cid().KeyString()] = b
	}
	return ms
}

func (ms *MemStore) Put(_ context.Context, block blocks.Block) error {
	ms.lk.Lock()
	defer ms.lk.Unlock()
	ms.blocks[block.Cid().KeyString()] = block
	return nil
}

func (ms *MemStore) Get(_ context.Context, ncid cid.Cid) (blocks.Block, error) {
	ms.lk.RLock()
	defer ms.lk.RUnlock()
	block, found := ms.blocks[ncid.KeyString()]
	if found {
		return block, nil
	}
	return nil, &ipld.ErrNotFound{Cid: ncid}
}

func (ms *MemStore) Len() int {
	ms.lk.RLock()
	defer ms.lk.RUnlock()
	return len(ms.blocks)
}
