package blockstore

import (
	"context"
	"sync/atomic"

	"github.com/ipfs/go-ipfs-lite/blocks"

	bloom "github.com/ipfs/bbloom"
)

// bloomCached returns Blockstore that caches Has requests using Bloom filter
// Size is size of bloom filter in bytes
func bloomCached(ctx context.Context, bs Blockstore, bloomSize, hashCount int) (*bloomcache, error) {
	bl, err := bloom.New(float64(bloomSize), float64(hashCount))
	if err != nil {
		return nil, err
	}
	bc := &bloomcache{blockstore: bs, bloom: bl}
	bc.Invalidate()
	go bc.Rebuild(ctx)

	return bc, nil
}

type bloomcache struct {
	bloom  *bloom.Bloom
	active int32

	// This chan is only used for testing to wait for bloom to enable
	rebuildChan chan struct{}
	blockstore  Blockstore

	// Statistics
	hits   uint64
	misses uint64
}

func (b *bloomcache) Invalidate() {
	b.rebuildChan = make(chan struct{})
	atomic.StoreInt32(&b.active, 0)
}

func (b *bloomcache) BloomActive() bool {
	return atomic.LoadInt32(&b.active) != 0
}

func (b *bloomcache) Rebuild(ctx context.Context) {
	ch, err := b.blockstore.AllKeysChan(ctx)
	if err != nil {
		log.Errorf("AllKeysChan failed in bloomcache rebuild with: %v", err)
		return
	}
	for {
		select {
		case hash, ok := <-ch:
			if !ok {
				close(b.rebuildChan)
				atomic.StoreInt32(&b.active, 1)
				return
			}
			b.bloom.AddTS(hash)
		case <-ctx.Done():
			log.Warn("Cache rebuild closed by context finishing.")
			return
		}
	}
}

func (b *bloomcache) DeleteBlock(ctx context.Context, hash []byte) error {
	if has, ok := b.hasCached(hash); ok && !has {
		return ErrNotFound
	}

	return b.blockstore.DeleteBlock(ctx, hash)
}

// if ok == false has is inconclusive
// if ok == true then has respons to question: is it contained
func (b *bloomcache) hasCached(hash []byte) (has bool, ok bool) {
	if len(hash) == 0 {
		return false, false
	}
	if b.BloomActive() {
		if b.bloom.HasTS(hash) {
			atomic.AddUint64(&b.hits, 1)
			return false, false // not conclusive
		}
		atomic.AddUint64(&b.misses, 1)
		return false, true
	}
	return false, false
}

func (b *bloomcache) Has(ctx context.Context, hash []byte) (bool, error) {
	if has, ok := b.hasCached(hash); ok {
		return has, nil
	}

	return b.blockstore.Has(ctx, hash)
}

func (b *bloomcache) Get(ctx context.Context, hash []byte) (*blocks.Block, error) {
	if has, ok := b.hasCached(hash); ok && !has {
		return nil, ErrNotFound
	}

	return b.blockstore.Get(ctx, hash)
}

func (b *bloomcache) Put(ctx context.Context, bl *blocks.Block) error {
	err := b.blockstore.Put(ctx, bl)
	if err == nil {
		b.bloom.AddTS(bl.Cid().Hash)
	}
	return err
}

func (b *bloomcache) PutMany(ctx context.Context, bs []*blocks.Block) error {
	err := b.blockstore.PutMany(ctx, bs)
	if err != nil {
		return err
	}
	for _, bl := range bs {
		b.bloom.AddTS(bl.Cid().Hash)
	}
	return nil
}

func (b *bloomcache) AllKeysChan(ctx context.Context) (<-chan []byte, error) {
	return b.blockstore.AllKeysChan(ctx)
}
