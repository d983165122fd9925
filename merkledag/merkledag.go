// package merkledag implements the IPFS Merkle DAG data structures.
package merkledag

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ipfs/go-ipfs-lite/blocks"
	"github.com/ipfs/go-ipfs-lite/blocks/blockstore"
	"github.com/ipfs/go-ipfs-lite/cid"
	"github.com/ipfs/go-ipfs-lite/errs"

	ds "github.com/ipfs/go-datastore"
	dsns "github.com/ipfs/go-datastore/namespace"
	logging "github.com/ipfs/go-log/v2"
	"github.com/multiformats/go-base32"
)

var log = logging.Logger("merkledag")

// IndexPrefix namespaces the hash index inside the datastore.
const IndexPrefix = "/local/index"

var ErrNotFound = fmt.Errorf("merkledag: node %w", errs.ErrNotFound)

// NodeAdder persists nodes.
type NodeAdder interface {
	// Add commits the node if needed, stores it and returns the number
	// of encoded bytes written.
	Add(context.Context, *ProtoNode) (uint64, error)
}

// DAGService is an IPFS Merkle DAG service.
type DAGService interface {
	NodeAdder

	Get(ctx context.Context, hash []byte) (*ProtoNode, error)
	GetByMultihash(ctx context.Context, m []byte) (*ProtoNode, error)
	Has(ctx context.Context, hash []byte) (bool, error)

	// Batch returns a buffer whose nodes become visible together on Commit.
	Batch() *Batch
}

// NewDAGService stores node bytes in bs and keeps an index of stored
// hashes in d.
func NewDAGService(bs blockstore.Blockstore, d ds.Batching) DAGService {
	return &dagService{
		Blocks: bs,
		index:  dsns.Wrap(d, ds.NewKey(IndexPrefix)),
	}
}

// dagService is an IPFS Merkle DAG service.
// - the root is virtual (like a forest)
// - stores nodes' data in a Blockstore
// - records every stored hash in an index
type dagService struct {
	Blocks blockstore.Blockstore
	index  ds.Batching
}

func indexKey(hash []byte) ds.Key {
	return ds.NewKey(base32.RawStdEncoding.EncodeToString(hash))
}

func indexValue(hash []byte) ([]byte, error) {
	s, err := cid.HashToBase58(hash)
	if err != nil {
		return nil, err
	}
	return []byte(s), nil
}

// toBlock commits nd and wraps its encoding in a block.
func toBlock(nd *ProtoNode) (*blocks.Block, error) {
	if nd == nil {
		return nil, errors.New("merkledag: nil node")
	}
	hash, err := nd.Commit()
	if err != nil {
		return nil, err
	}
	enc, err := nd.EncodeProtobuf(false)
	if err != nil {
		return nil, err
	}
	return blocks.NewBlockWithCid(enc, cid.NewV0(hash))
}

// Add adds a node to the dagService, storing the block in the BlockService
func (n *dagService) Add(ctx context.Context, nd *ProtoNode) (uint64, error) {
	b, err := toBlock(nd)
	if err != nil {
		return 0, err
	}
	if err := n.Blocks.Put(ctx, b); err != nil {
		return 0, fmt.Errorf("merkledag: storing %s: %w", b.Cid(), err)
	}

	v, err := indexValue(b.Cid().Hash)
	if err != nil {
		return 0, err
	}
	if err := n.index.Put(ctx, indexKey(b.Cid().Hash), v); err != nil {
		return 0, fmt.Errorf("merkledag: indexing %s: %w", b.Cid(), err)
	}

	log.Debugw("added node", "hash", b.Cid().String(), "size", len(b.RawData()))
	return uint64(len(b.RawData())), nil
}

func (n *dagService) Has(ctx context.Context, hash []byte) (bool, error) {
	return n.index.Has(ctx, indexKey(hash))
}

// Get retrieves a node from the dagService, fetching the block in the BlockService
func (n *dagService) Get(ctx context.Context, hash []byte) (*ProtoNode, error) {
	has, err := n.Has(ctx, hash)
	if err != nil {
		return nil, err
	}
	if !has {
		return nil, ErrNotFound
	}

	b, err := n.Blocks.Get(ctx, hash)
	if err != nil {
		if errors.Is(err, blockstore.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get block for %x: %w", hash, err)
	}

	nd, err := DecodeProtobuf(b.RawData())
	if err != nil {
		return nil, err
	}
	nd.SetHash(hash)
	return nd, nil
}

// GetByMultihash strips the multihash envelope and fetches the node.
func (n *dagService) GetByMultihash(ctx context.Context, m []byte) (*ProtoNode, error) {
	hash, err := cid.UnwrapDigest(m)
	if err != nil {
		return nil, err
	}
	return n.Get(ctx, hash)
}

func (n *dagService) Batch() *Batch {
	return &Batch{ds: n, seen: make(map[string]struct{})}
}

// Batch buffers added nodes in memory. Nothing reaches the store before
// Commit; the blocks are written first, the index entries after them.
type Batch struct {
	ds *dagService

	mu     sync.Mutex
	blocks []*blocks.Block
	seen   map[string]struct{}
}

// Add commits nd and buffers its encoding.
func (t *Batch) Add(ctx context.Context, nd *ProtoNode) (uint64, error) {
	b, err := toBlock(nd)
	if err != nil {
		return 0, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.seen[string(b.Cid().Hash)]; !ok {
		t.seen[string(b.Cid().Hash)] = struct{}{}
		t.blocks = append(t.blocks, b)
	}
	return uint64(len(b.RawData())), nil
}

// Len returns the number of distinct nodes buffered.
func (t *Batch) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.blocks)
}

// Commit writes every buffered node.
func (t *Batch) Commit(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.blocks) == 0 {
		return nil
	}
	if err := t.ds.Blocks.PutMany(ctx, t.blocks); err != nil {
		return fmt.Errorf("merkledag: batch blocks: %w", err)
	}

	ib, err := t.ds.index.Batch(ctx)
	if err != nil {
		return err
	}
	for _, b := range t.blocks {
		v, err := indexValue(b.Cid().Hash)
		if err != nil {
			return err
		}
		if err := ib.Put(ctx, indexKey(b.Cid().Hash), v); err != nil {
			return err
		}
	}
	if err := ib.Commit(ctx); err != nil {
		return fmt.Errorf("merkledag: batch index: %w", err)
	}

	log.Debugf("committed batch of %d nodes", len(t.blocks))
	t.blocks = nil
	t.seen = make(map[string]struct{})
	return nil
}

// Discard drops every buffered node.
func (t *Batch) Discard() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.blocks = nil
	t.seen = make(map[string]struct{})
}
