package exporter

import (
	"bytes"
	"context"
	"encoding/json"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/ipfs/go-ipfs-lite/cid"
	"github.com/ipfs/go-ipfs-lite/errs"
	"github.com/ipfs/go-ipfs-lite/importer"
	dag "github.com/ipfs/go-ipfs-lite/merkledag"
	mdtest "github.com/ipfs/go-ipfs-lite/merkledag/test"
	mockrouting "github.com/ipfs/go-ipfs-lite/routing/mock"
	ft "github.com/ipfs/go-ipfs-lite/unixfs"

	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*importer.Adder, *Exporter, dag.DAGService) {
	t.Helper()
	ds := mdtest.Mock()
	r := mockrouting.NewServer().Client(peer.ID("me"), ds)
	return importer.NewAdder(ds, r), NewExporter(r), ds
}

func randBytes(seed int64, n int) []byte {
	b := make([]byte, n)
	rand.New(rand.NewSource(seed)).Read(b)
	return b
}

func TestExportFidelity(t *testing.T) {
	ctx := context.Background()
	for _, n := range []int{0, 1, 1000, 256 * 1024, 256*1024 + 1, 1000000} {
		adder, exp, _ := setup(t)
		data := randBytes(int64(n), n)

		nd, _, err := adder.AddReader(ctx, bytes.NewReader(data))
		require.NoError(t, err)

		var buf bytes.Buffer
		require.NoError(t, exp.ToStream(ctx, nd.Hash(), &buf), "size %d", n)
		assert.Equal(t, len(data), buf.Len(), "size %d", n)
		assert.True(t, bytes.Equal(data, buf.Bytes()), "size %d", n)
	}
}

func TestExportConcurrent(t *testing.T) {
	ctx := context.Background()
	adder, exp, _ := setup(t)
	exp.Concurrency = 3

	data := randBytes(42, 7*256*1024+99)
	nd, _, err := adder.AddReader(ctx, bytes.NewReader(data))
	require.NoError(t, err)
	require.Len(t, nd.Links(), 8)

	var buf bytes.Buffer
	require.NoError(t, exp.ToStream(ctx, nd.Hash(), &buf))
	assert.True(t, bytes.Equal(data, buf.Bytes()))
}

func TestExportNestedLinks(t *testing.T) {
	ctx := context.Background()
	adder, exp, ds := setup(t)
	a, _, err := adder.AddReader(ctx, bytes.NewReader(randBytes(1, 300*1024)))
	require.NoError(t, err)
	b, _, err := adder.AddReader(ctx, bytes.NewReader([]byte("tail")))
	require.NoError(t, err)

	top := dag.NodeWithData(ft.FilePBData(nil, 0))
	require.NoError(t, top.AddNodeLink("", a))
	require.NoError(t, top.AddNodeLink("", b))
	_, err = ds.Add(ctx, top)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, exp.ToStream(ctx, top.Hash(), &buf))
	want := append(randBytes(1, 300*1024), "tail"...)
	assert.True(t, bytes.Equal(want, buf.Bytes()))
}

func TestGetNodeNotFound(t *testing.T) {
	_, exp, _ := setup(t)
	missing := cid.Sum([]byte("missing"))

	_, err := exp.GetNode(context.Background(), missing)
	require.ErrorIs(t, err, errs.ErrNotFound)

	var re *errs.RetrievalError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, missing, re.Hash)
}

func TestGetNodeMalformed(t *testing.T) {
	ctx := context.Background()
	ds := mdtest.Mock()
	r := mockrouting.NewServer().Client(peer.ID("me"), ds)
	exp := NewExporter(r)

	key := cid.Sum([]byte("bad"))
	require.NoError(t, r.PutValue(ctx, key, []byte{0x12, 0x09, 0x01}))
	_, err := exp.GetNode(ctx, key)
	assert.ErrorIs(t, err, errs.ErrMalformed)
}

func TestToFile(t *testing.T) {
	ctx := context.Background()
	adder, exp, _ := setup(t)
	data := randBytes(9, 600*1024)
	nd, _, err := adder.AddReader(ctx, bytes.NewReader(data))
	require.NoError(t, err)

	b58, err := cid.HashToBase58(nd.Hash())
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "out.bin")
	require.NoError(t, exp.ToFile(ctx, b58, out))
	got, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(data, got))
}

func TestToFileFailureLeavesNothing(t *testing.T) {
	_, exp, _ := setup(t)
	b58, err := cid.HashToBase58(cid.Sum([]byte("absent")))
	require.NoError(t, err)

	dir := t.TempDir()
	out := filepath.Join(dir, "out.bin")
	require.ErrorIs(t, exp.ToFile(context.Background(), b58, out), errs.ErrNotFound)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	assert.ErrorIs(t, exp.ToFile(context.Background(), "not-a-hash", out), errs.ErrMalformed)
}

func TestCatNodePreOrder(t *testing.T) {
	ctx := context.Background()
	_, exp, ds := setup(t)

	leaf := dag.NodeWithData(ft.WrapData([]byte("C")))
	_, err := ds.Add(ctx, leaf)
	require.NoError(t, err)
	mid := dag.NodeWithData(ft.WrapData([]byte("B")))
	require.NoError(t, mid.AddNodeLink("c", leaf))
	_, err = ds.Add(ctx, mid)
	require.NoError(t, err)
	top := dag.NodeWithData(ft.WrapData([]byte("A")))
	require.NoError(t, top.AddNodeLink("b", mid))
	require.NoError(t, top.AddNodeLink("c", leaf))
	_, err = ds.Add(ctx, top)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, exp.Cat(ctx, top.Hash(), &buf))
	assert.Equal(t, "ABCC", buf.String())
}

func TestToConsole(t *testing.T) {
	ctx := context.Background()
	_, exp, ds := setup(t)

	child := dag.NodeWithData([]byte{0x01})
	_, err := ds.Add(ctx, child)
	require.NoError(t, err)
	nd := dag.NodeWithData([]byte{0xca, 0xfe})
	require.NoError(t, nd.AddNodeLink("kid", child))
	_, err = ds.Add(ctx, nd)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, exp.ToConsole(ctx, nd.Hash(), &buf))

	var out struct {
		Links []struct {
			Name string
			Hash string
			Size uint64
		}
		Data string
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	require.Len(t, out.Links, 1)
	assert.Equal(t, "kid", out.Links[0].Name)
	assert.Equal(t, child.String(), out.Links[0].Hash)
	assert.Equal(t, "cafe", out.Data)
}
