package core

import (
	"bytes"
	"context"
	"testing"

	"github.com/ipfs/go-ipfs-lite/config"
	merkledag "github.com/ipfs/go-ipfs-lite/merkledag"
	path "github.com/ipfs/go-ipfs-lite/path"
	"github.com/ipfs/go-ipfs-lite/repo"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitialization(t *testing.T) {
	ctx := context.Background()

	good := []*config.Config{
		config.Init(),
		func() *config.Config {
			c := config.Init()
			c.Routing.Type = config.RoutingNone
			return c
		}(),
	}

	for i, c := range good {
		r := repo.NewMock()
		r.C = *c
		n, err := NewNode(ctx, &BuildCfg{Repo: r})
		require.NoError(t, err, "good config %d", i)
		require.NoError(t, n.Close())
	}

	bad := config.Init()
	bad.Routing.Type = "dht"
	r := repo.NewMock()
	r.C = *bad
	_, err := NewNode(ctx, &BuildCfg{Repo: r})
	assert.Error(t, err)

	_, err = NewNode(ctx, &BuildCfg{Online: true})
	assert.Error(t, err)

	_, err = NewNode(ctx, &BuildCfg{Repo: repo.NewMock(), NilRepo: true})
	assert.Error(t, err)
}

func TestResolve(t *testing.T) {
	ctx := context.Background()
	n, err := NewNode(ctx, nil)
	require.NoError(t, err)
	defer n.Close()

	child := merkledag.NodeWithData([]byte("leaf"))
	_, err = n.DAG.Add(ctx, child)
	require.NoError(t, err)
	root := merkledag.NewDirectory()
	require.NoError(t, root.AddNodeLink("leaf", child))
	_, err = n.DAG.Add(ctx, root)
	require.NoError(t, err)

	nd, err := Resolve(ctx, n, path.FromString(root.Cid().String()+"/leaf"))
	require.NoError(t, err)
	assert.Equal(t, child.Hash(), nd.Hash())

	_, err = Resolve(ctx, n, path.FromString("/ipns/example.com"))
	assert.ErrorIs(t, err, ErrNoNamesys)

	var out bytes.Buffer
	require.NoError(t, n.Exporter.ToConsole(ctx, root.Hash(), &out))
	assert.Contains(t, out.String(), `"Name":"leaf"`)
}

func TestNilRepo(t *testing.T) {
	ctx := context.Background()
	n, err := NewNode(ctx, &BuildCfg{NilRepo: true})
	require.NoError(t, err)
	defer n.Close()

	nd := merkledag.NodeWithData([]byte("gone"))
	_, err = n.DAG.Add(ctx, nd)
	require.NoError(t, err)
	_, err = n.DAG.Get(ctx, nd.Hash())
	assert.Error(t, err)
}
