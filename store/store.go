package store

import (
	"fmt"
	"os"

	"github.com/ipfs/go-datastore"
	dssync "github.com/ipfs/go-datastore/sync"
	flatfs "github.com/ipfs/go-ds-flatfs"
	blockstore "github.com/ipfs/go-ipfs-blockstore"
)

// Store is a blockstore together with the datastore backing it.
type Store struct {
	blockstore.Blockstore

	ds datastore.Batching
}

// Open returns a flatfs-backed store rooted at dir, creating the directory if
// needed. An empty dir gives an in-memory store.
func Open(dir string) (*Store, error) {
	if dir == "" {
		return NewMemory(), nil
	}

	if err := os.MkdirAll(dir, 0775); err != nil {
		return nil, err
	}

	fds, err := flatfs.CreateOrOpen(dir, flatfs.IPFS_DEF_SHARD, false)
	if err != nil {
		return nil, fmt.Errorf("opening flatfs store at %s: %w", dir, err)
	}
	return &Store{
		Blockstore: blockstore.NewBlockstore(fds),
		ds:         fds,
	}, nil
}

// NewMemory returns a store backed by a mutex-wrapped map datastore.
func NewMemory() *Store {
	mds := dssync.MutexWrap(datastore.NewMapDatastore())
	return &Store{
		Blockstore: blockstore.NewBlockstore(mds),
		ds:         mds,
	}
}

func (s *Store) Close() error {
	return s.ds.Close()
}
