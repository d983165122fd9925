package mdutils

import (
	"github.com/ipfs/go-ipfs-lite/blocks/blockstore"
	dag "github.com/ipfs/go-ipfs-lite/merkledag"

	ds "github.com/ipfs/go-datastore"
	dssync "github.com/ipfs/go-datastore/sync"
)

// Mock returns a DAGService backed by an in-memory datastore.
func Mock() dag.DAGService {
	d := dssync.MutexWrap(ds.NewMapDatastore())
	return dag.NewDAGService(blockstore.NewBlockstore(d), d)
}
