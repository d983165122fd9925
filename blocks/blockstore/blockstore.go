// package blockstore implements a thin wrapper over a datastore, giving a
// clean interface for Getting and Putting block objects.
package blockstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/ipfs/go-ipfs-lite/blocks"
	"github.com/ipfs/go-ipfs-lite/errs"

	ds "github.com/ipfs/go-datastore"
	dsns "github.com/ipfs/go-datastore/namespace"
	dsq "github.com/ipfs/go-datastore/query"
	logging "github.com/ipfs/go-log/v2"
	"github.com/multiformats/go-base32"
)

var log = logging.Logger("blockstore")

// DefaultPrefix namespaces blockstore datastores
const DefaultPrefix = "/blocks"

var ErrHashMismatch = errors.New("block in storage has different hash than requested")

var ErrNotFound = fmt.Errorf("blockstore: block %w", errs.ErrNotFound)

// ErrNoCid is returned when putting a block that carries no cid.
var ErrNoCid = errors.New("blockstore: block has no cid")

// Blockstore wraps a Datastore. Blocks are keyed by the raw digest of
// their content.
type Blockstore interface {
	DeleteBlock(ctx context.Context, hash []byte) error
	Has(ctx context.Context, hash []byte) (bool, error)
	Get(ctx context.Context, hash []byte) (*blocks.Block, error)
	Put(ctx context.Context, b *blocks.Block) error
	PutMany(ctx context.Context, bs []*blocks.Block) error

	AllKeysChan(ctx context.Context) (<-chan []byte, error)
}

// HashToDsKey returns the datastore key a digest is stored under.
func HashToDsKey(hash []byte) ds.Key {
	return ds.NewKey(base32.RawStdEncoding.EncodeToString(hash))
}

// DsKeyToHash is the inverse of HashToDsKey.
func DsKeyToHash(k ds.Key) ([]byte, error) {
	return base32.RawStdEncoding.DecodeString(k.BaseNamespace())
}

func NewBlockstore(d ds.Batching) *blockstore {
	return NewBlockstoreWPrefix(d, DefaultPrefix)
}

func NewBlockstoreWPrefix(d ds.Batching, prefix string) *blockstore {
	return &blockstore{
		datastore: dsns.Wrap(d, ds.NewKey(prefix)),
	}
}

type blockstore struct {
	datastore ds.Batching

	rehash bool
}

// HashOnRead makes Get re-hash every block it reads.
func (bs *blockstore) HashOnRead(enabled bool) {
	bs.rehash = enabled
}

func (bs *blockstore) Get(ctx context.Context, hash []byte) (*blocks.Block, error) {
	if len(hash) == 0 {
		log.Error("empty hash in blockstore")
		return nil, ErrNotFound
	}

	bdata, err := bs.datastore.Get(ctx, HashToDsKey(hash))
	if errors.Is(err, ds.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	b, err := blocks.Unmarshal(bdata)
	if err != nil {
		return nil, err
	}
	if b.Cid() == nil || !bytes.Equal(b.Cid().Hash, hash) {
		return nil, ErrHashMismatch
	}
	if bs.rehash {
		if err := b.Verify(); err != nil {
			return nil, ErrHashMismatch
		}
	}
	return b, nil
}

func (bs *blockstore) Put(ctx context.Context, block *blocks.Block) error {
	if block.Cid() == nil {
		return ErrNoCid
	}
	enc, err := block.Marshal()
	if err != nil {
		return err
	}
	return bs.datastore.Put(ctx, HashToDsKey(block.Cid().Hash), enc)
}

func (bs *blockstore) PutMany(ctx context.Context, bl []*blocks.Block) error {
	t, err := bs.datastore.Batch(ctx)
	if err != nil {
		return err
	}
	for _, b := range bl {
		if b.Cid() == nil {
			return ErrNoCid
		}
		enc, err := b.Marshal()
		if err != nil {
			return err
		}
		if err := t.Put(ctx, HashToDsKey(b.Cid().Hash), enc); err != nil {
			return err
		}
	}
	return t.Commit(ctx)
}

func (bs *blockstore) Has(ctx context.Context, hash []byte) (bool, error) {
	return bs.datastore.Has(ctx, HashToDsKey(hash))
}

func (bs *blockstore) DeleteBlock(ctx context.Context, hash []byte) error {
	err := bs.datastore.Delete(ctx, HashToDsKey(hash))
	if errors.Is(err, ds.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

// AllKeysChan runs a query for keys from the blockstore.
//
// AllKeysChan respects context
func (bs *blockstore) AllKeysChan(ctx context.Context) (<-chan []byte, error) {
	// KeysOnly, because that would be _a lot_ of data.
	res, err := bs.datastore.Query(ctx, dsq.Query{KeysOnly: true})
	if err != nil {
		return nil, err
	}

	output := make(chan []byte, dsq.KeysOnlyBufSize)
	go func() {
		defer func() {
			res.Close()
			close(output)
		}()

		for {
			e, ok := res.NextSync()
			if !ok {
				return
			}
			if e.Error != nil {
				log.Debugf("blockstore.AllKeysChan got err: %s", e.Error)
				return
			}

			hash, err := DsKeyToHash(ds.RawKey(e.Key))
			if err != nil {
				log.Warnf("error parsing key from DsKey: %s", err)
				continue
			}

			select {
			case <-ctx.Done():
				return
			case output <- hash:
			}
		}
	}()

	return output, nil
}
