package blockstore

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/ipfs/go-ipfs-lite/blocks"
	"github.com/ipfs/go-ipfs-lite/blocks/blocksutil"
	"github.com/ipfs/go-ipfs-lite/cid"
	"github.com/ipfs/go-ipfs-lite/errs"

	ds "github.com/ipfs/go-datastore"
	dssync "github.com/ipfs/go-datastore/sync"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBlockstore() (*blockstore, ds.Batching) {
	d := dssync.MutexWrap(ds.NewMapDatastore())
	return NewBlockstore(d), d
}

func TestGetWhenKeyNotPresent(t *testing.T) {
	bs, _ := newTestBlockstore()
	_, err := bs.Get(context.Background(), cid.Sum([]byte("stuff")))
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestGetWhenKeyIsEmpty(t *testing.T) {
	bs, _ := newTestBlockstore()
	_, err := bs.Get(context.Background(), nil)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestPutThenGetBlock(t *testing.T) {
	ctx := context.Background()
	bs, _ := newTestBlockstore()
	block := blocks.NewBlock([]byte("some data"))

	require.NoError(t, bs.Put(ctx, block))

	has, err := bs.Has(ctx, block.Cid().Hash)
	require.NoError(t, err)
	assert.True(t, has)

	out, err := bs.Get(ctx, block.Cid().Hash)
	require.NoError(t, err)
	assert.Equal(t, block.RawData(), out.RawData())
	assert.True(t, block.Cid().Equals(out.Cid()))
}

func TestStoredUnderBase32Key(t *testing.T) {
	ctx := context.Background()
	bs, d := newTestBlockstore()
	block := blocks.NewBlock([]byte("keyed"))
	require.NoError(t, bs.Put(ctx, block))

	k := ds.NewKey(DefaultPrefix).Child(HashToDsKey(block.Cid().Hash))
	raw, err := d.Get(ctx, k)
	require.NoError(t, err)

	stored, err := blocks.Unmarshal(raw)
	require.NoError(t, err)
	assert.Equal(t, []byte("keyed"), stored.RawData())

	back, err := DsKeyToHash(HashToDsKey(block.Cid().Hash))
	require.NoError(t, err)
	assert.Equal(t, block.Cid().Hash, back)
}

func TestHashMismatch(t *testing.T) {
	ctx := context.Background()
	bs, d := newTestBlockstore()
	good := blocks.NewBlock([]byte("good"))
	other := blocks.NewBlock([]byte("other"))

	enc, err := other.Marshal()
	require.NoError(t, err)
	k := ds.NewKey(DefaultPrefix).Child(HashToDsKey(good.Cid().Hash))
	require.NoError(t, d.Put(ctx, k, enc))

	_, err = bs.Get(ctx, good.Cid().Hash)
	require.ErrorIs(t, err, ErrHashMismatch)
}

func TestHashOnRead(t *testing.T) {
	ctx := context.Background()
	bs, d := newTestBlockstore()
	bs.HashOnRead(true)

	block := blocks.NewBlock([]byte("original"))

	// data that does not match its recorded cid
	forged := forgeRecord(t, []byte("tampered"), block.Cid())
	k := ds.NewKey(DefaultPrefix).Child(HashToDsKey(block.Cid().Hash))
	require.NoError(t, d.Put(ctx, k, forged))

	_, err := bs.Get(ctx, block.Cid().Hash)
	require.ErrorIs(t, err, ErrHashMismatch)

	bs.HashOnRead(false)
	out, err := bs.Get(ctx, block.Cid().Hash)
	require.NoError(t, err)
	assert.Equal(t, []byte("tampered"), out.RawData())
}

func forgeRecord(t *testing.T, data []byte, c *cid.Cid) []byte {
	t.Helper()
	cb, err := c.Marshal()
	require.NoError(t, err)
	rec := append([]byte{0x0a, byte(len(data))}, data...)
	rec = append(rec, 0x12, byte(len(cb)))
	return append(rec, cb...)
}

func TestDeleteBlock(t *testing.T) {
	ctx := context.Background()
	bs, _ := newTestBlockstore()
	block := blocks.NewBlock([]byte("delete me"))
	require.NoError(t, bs.Put(ctx, block))
	require.NoError(t, bs.DeleteBlock(ctx, block.Cid().Hash))

	has, err := bs.Has(ctx, block.Cid().Hash)
	require.NoError(t, err)
	assert.False(t, has)
}

func TestPutManyAllKeys(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	bs, _ := newTestBlockstore()

	bg := blocksutil.NewBlockGenerator()
	bl := bg.Blocks(100)
	var want []string
	for _, b := range bl {
		want = append(want, string(b.Cid().Hash))
	}
	require.NoError(t, bs.PutMany(ctx, bl))

	ch, err := bs.AllKeysChan(ctx)
	require.NoError(t, err)
	var got []string
	for h := range ch {
		got = append(got, string(h))
	}
	sort.Strings(want)
	sort.Strings(got)
	assert.Equal(t, want, got)
}

func TestCachedBlockstore(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	inner, _ := newTestBlockstore()

	present := blocks.NewBlock([]byte("present"))
	require.NoError(t, inner.Put(ctx, present))

	cbs, err := CachedBlockstore(ctx, inner, DefaultCacheOpts())
	require.NoError(t, err)

	bc := cbs.(*bloomcache)
	select {
	case <-bc.rebuildChan:
	case <-time.After(5 * time.Second):
		t.Fatal("bloom filter did not become active")
	}
	require.True(t, bc.BloomActive())

	has, err := cbs.Has(ctx, present.Cid().Hash)
	require.NoError(t, err)
	assert.True(t, has)

	absent := blocks.NewBlock([]byte("absent"))
	has, err = cbs.Has(ctx, absent.Cid().Hash)
	require.NoError(t, err)
	assert.False(t, has)

	require.NoError(t, cbs.Put(ctx, absent))
	out, err := cbs.Get(ctx, absent.Cid().Hash)
	require.NoError(t, err)
	assert.Equal(t, []byte("absent"), out.RawData())

	require.NoError(t, cbs.DeleteBlock(ctx, absent.Cid().Hash))
	has, err = cbs.Has(ctx, absent.Cid().Hash)
	require.NoError(t, err)
	assert.False(t, has)
}

func TestCacheOptsValidation(t *testing.T) {
	inner, _ := newTestBlockstore()
	_, err := CachedBlockstore(context.Background(), inner, CacheOpts{HasBloomFilterSize: 1})
	assert.Error(t, err)
	_, err = CachedBlockstore(context.Background(), inner, CacheOpts{HasTwoQueueCacheSize: -1})
	assert.Error(t, err)
}

func TestPutBlockWithoutCid(t *testing.T) {
	ctx := context.Background()
	inner, _ := newTestBlockstore()
	cbs, err := CachedBlockstore(ctx, inner, CacheOpts{HasTwoQueueCacheSize: 16})
	require.NoError(t, err)

	for _, bs := range []Blockstore{inner, cbs} {
		assert.ErrorIs(t, bs.Put(ctx, new(blocks.Block)), ErrNoCid)
		assert.ErrorIs(t, bs.PutMany(ctx, []*blocks.Block{blocks.NewBlock([]byte("ok")), new(blocks.Block)}), ErrNoCid)
	}
}
