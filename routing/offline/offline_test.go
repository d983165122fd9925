package offline

import (
	"context"
	"testing"

	"github.com/ipfs/go-ipfs-lite/cid"
	"github.com/ipfs/go-ipfs-lite/errs"
	dag "github.com/ipfs/go-ipfs-lite/merkledag"
	mdtest "github.com/ipfs/go-ipfs-lite/merkledag/test"
	"github.com/ipfs/go-ipfs-lite/routing"

	ds "github.com/ipfs/go-datastore"
	dssync "github.com/ipfs/go-datastore/sync"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetValueServesDAG(t *testing.T) {
	ctx := context.Background()
	dserv := mdtest.Mock()
	r := NewOfflineRouter(dserv, dssync.MutexWrap(ds.NewMapDatastore()))

	nd := dag.NodeWithData([]byte("served"))
	_, err := dserv.Add(ctx, nd)
	require.NoError(t, err)

	v, err := r.GetValue(ctx, nd.Hash())
	require.NoError(t, err)
	enc, err := nd.EncodeProtobuf(false)
	require.NoError(t, err)
	assert.Equal(t, enc, v)
}

func TestPutGetRecord(t *testing.T) {
	ctx := context.Background()
	r := NewOfflineRouter(mdtest.Mock(), dssync.MutexWrap(ds.NewMapDatastore()))

	key := cid.Sum([]byte("record"))
	require.NoError(t, r.PutValue(ctx, key, []byte("value")))

	v, err := r.GetValue(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), v)
}

func TestGetValueNotFound(t *testing.T) {
	r := NewOfflineRouter(mdtest.Mock(), dssync.MutexWrap(ds.NewMapDatastore()))
	_, err := r.GetValue(context.Background(), cid.Sum([]byte("missing")))
	assert.ErrorIs(t, err, routing.ErrNotFound)
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestOfflineOperations(t *testing.T) {
	ctx := context.Background()
	r := NewOfflineRouter(mdtest.Mock(), dssync.MutexWrap(ds.NewMapDatastore()))

	assert.ErrorIs(t, r.Provide(ctx, cid.Sum([]byte("x"))), ErrOffline)
	_, err := r.FindPeer(ctx, "peer")
	assert.ErrorIs(t, err, ErrOffline)

	var n int
	for range r.FindProvidersAsync(ctx, cid.Sum([]byte("x")), 1) {
		n++
	}
	assert.Zero(t, n)
	assert.NoError(t, r.Bootstrap(ctx))
}
