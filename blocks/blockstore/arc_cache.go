package blockstore

import (
	"context"
	"errors"

	"github.com/ipfs/go-ipfs-lite/blocks"

	lru "github.com/hashicorp/golang-lru/v2"
)

// twoqcache remembers the outcome of Has lookups, positive and negative.
type twoqcache struct {
	cache      *lru.TwoQueueCache[string, bool]
	blockstore Blockstore
}

func newTwoQueueCached(bs Blockstore, size int) (*twoqcache, error) {
	c, err := lru.New2Q[string, bool](size)
	if err != nil {
		return nil, err
	}
	return &twoqcache{cache: c, blockstore: bs}, nil
}

func (b *twoqcache) DeleteBlock(ctx context.Context, hash []byte) error {
	if has, ok := b.hasCached(hash); ok && !has {
		return ErrNotFound
	}

	b.cache.Remove(string(hash)) // Invalidate cache before deleting.
	err := b.blockstore.DeleteBlock(ctx, hash)
	if err == nil || errors.Is(err, ErrNotFound) {
		b.cache.Add(string(hash), false)
	}
	return err
}

// if ok == false has is inconclusive
// if ok == true then has respons to question: is it contained
func (b *twoqcache) hasCached(hash []byte) (has bool, ok bool) {
	if len(hash) == 0 {
		return false, false
	}
	return b.cache.Get(string(hash))
}

func (b *twoqcache) Has(ctx context.Context, hash []byte) (bool, error) {
	if has, ok := b.hasCached(hash); ok {
		return has, nil
	}

	res, err := b.blockstore.Has(ctx, hash)
	if err == nil {
		b.cache.Add(string(hash), res)
	}
	return res, err
}

func (b *twoqcache) Get(ctx context.Context, hash []byte) (*blocks.Block, error) {
	if has, ok := b.hasCached(hash); ok && !has {
		return nil, ErrNotFound
	}

	bl, err := b.blockstore.Get(ctx, hash)
	if bl == nil && errors.Is(err, ErrNotFound) {
		b.cache.Add(string(hash), false)
	} else if bl != nil {
		b.cache.Add(string(hash), true)
	}
	return bl, err
}

func (b *twoqcache) Put(ctx context.Context, bl *blocks.Block) error {
	if bl.Cid() == nil {
		return ErrNoCid
	}
	if has, ok := b.hasCached(bl.Cid().Hash); ok && has {
		return nil
	}

	err := b.blockstore.Put(ctx, bl)
	if err == nil {
		b.cache.Add(string(bl.Cid().Hash), true)
	}
	return err
}

func (b *twoqcache) PutMany(ctx context.Context, bs []*blocks.Block) error {
	var good []*blocks.Block
	for _, bl := range bs {
		if bl.Cid() == nil {
			return ErrNoCid
		}
		if has, ok := b.hasCached(bl.Cid().Hash); !ok || !has {
			good = append(good, bl)
		}
	}
	if len(good) == 0 {
		return nil
	}
	err := b.blockstore.PutMany(ctx, good)
	if err != nil {
		return err
	}
	for _, bl := range good {
		b.cache.Add(string(bl.Cid().Hash), true)
	}
	return nil
}

func (b *twoqcache) AllKeysChan(ctx context.Context) (<-chan []byte, error) {
	return b.blockstore.AllKeysChan(ctx)
}
