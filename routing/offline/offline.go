// Package offline implements Routing with a client which
// is only able to perform offline operations.
package offline

import (
	"context"
	"errors"
	"fmt"

	dag "github.com/ipfs/go-ipfs-lite/merkledag"
	"github.com/ipfs/go-ipfs-lite/routing"

	ds "github.com/ipfs/go-datastore"
	dsns "github.com/ipfs/go-datastore/namespace"
	logging "github.com/ipfs/go-log/v2"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/multiformats/go-base32"
)

var log = logging.Logger("routing/offline")

// ErrOffline is returned when trying to perform operations that
// require connectivity.
var ErrOffline = routing.ErrOffline

// RecordPrefix namespaces values stored with PutValue.
const RecordPrefix = "/routing/records"

// NewOfflineRouter returns a Routing implementation which only performs
// offline operations. GetValue serves the encoded form of nodes in the
// local DAG, then values stored with PutValue.
func NewOfflineRouter(dserv dag.DAGService, dstore ds.Datastore) routing.Routing {
	return &offlineRouting{
		dag:       dserv,
		datastore: dsns.Wrap(dstore, ds.NewKey(RecordPrefix)),
	}
}

type offlineRouting struct {
	dag       dag.DAGService
	datastore ds.Datastore
}

func recordKey(key []byte) ds.Key {
	return ds.NewKey(base32.RawStdEncoding.EncodeToString(key))
}

func (c *offlineRouting) PutValue(ctx context.Context, key []byte, val []byte) error {
	return c.datastore.Put(ctx, recordKey(key), val)
}

func (c *offlineRouting) GetValue(ctx context.Context, key []byte) ([]byte, error) {
	nd, err := c.dag.Get(ctx, key)
	switch {
	case err == nil:
		return nd.EncodeProtobuf(false)
	case !errors.Is(err, dag.ErrNotFound):
		return nil, err
	}

	v, err := c.datastore.Get(ctx, recordKey(key))
	if errors.Is(err, ds.ErrNotFound) {
		log.Debugf("no local value for %x", key)
		return nil, fmt.Errorf("%x: %w", key, routing.ErrNotFound)
	}
	return v, err
}

func (c *offlineRouting) FindPeer(ctx context.Context, pid peer.ID) (peer.AddrInfo, error) {
	return peer.AddrInfo{}, ErrOffline
}

func (c *offlineRouting) FindProvidersAsync(ctx context.Context, k []byte, max int) <-chan peer.AddrInfo {
	out := make(chan peer.AddrInfo)
	close(out)
	return out
}

func (c *offlineRouting) Provide(_ context.Context, _ []byte) error {
	return ErrOffline
}

func (c *offlineRouting) Bootstrap(context.Context) error {
	return nil
}

// ensure offlineRouting matches the Routing interface
var _ routing.Routing = &offlineRouting{}
