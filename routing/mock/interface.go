// Package mockrouting provides a virtual routing server. To use it, create
// a virtual routing server and use the Client() method to get a routing
// client. The server quacks like a DHT but is really a local in-memory
// hash table.
package mockrouting

import (
	"context"
	"errors"
	"fmt"
	"sync"

	dag "github.com/ipfs/go-ipfs-lite/merkledag"
	"github.com/ipfs/go-ipfs-lite/routing"

	"github.com/libp2p/go-libp2p/core/peer"
)

// Server is an in-memory provider and value table shared by its clients.
type Server struct {
	lock      sync.RWMutex
	providers map[string]map[peer.ID]struct{}
	provided  [][]byte
	values    map[string][]byte
}

// NewServer returns a mockrouting Server
func NewServer() *Server {
	return &Server{
		providers: make(map[string]map[peer.ID]struct{}),
		values:    make(map[string][]byte),
	}
}

// Client returns a router acting as peer id. GetValue falls back to
// the nodes of dserv when it is not nil.
func (rs *Server) Client(id peer.ID, dserv dag.DAGService) routing.Routing {
	return &client{server: rs, id: id, dag: dserv}
}

func (rs *Server) announce(p peer.ID, k []byte) {
	rs.lock.Lock()
	defer rs.lock.Unlock()

	set, ok := rs.providers[string(k)]
	if !ok {
		set = make(map[peer.ID]struct{})
		rs.providers[string(k)] = set
	}
	set[p] = struct{}{}
	rs.provided = append(rs.provided, append([]byte(nil), k...))
}

// Providers returns the peers that announced k.
func (rs *Server) Providers(k []byte) []peer.AddrInfo {
	rs.lock.RLock()
	defer rs.lock.RUnlock()

	var ret []peer.AddrInfo
	for p := range rs.providers[string(k)] {
		ret = append(ret, peer.AddrInfo{ID: p})
	}
	return ret
}

// Provided returns every announced key in announcement order.
func (rs *Server) Provided() [][]byte {
	rs.lock.RLock()
	defer rs.lock.RUnlock()
	return append([][]byte(nil), rs.provided...)
}

type client struct {
	server *Server
	id     peer.ID
	dag    dag.DAGService
}

func (c *client) PutValue(_ context.Context, key []byte, val []byte) error {
	c.server.lock.Lock()
	defer c.server.lock.Unlock()
	c.server.values[string(key)] = append([]byte(nil), val...)
	return nil
}

func (c *client) GetValue(ctx context.Context, key []byte) ([]byte, error) {
	c.server.lock.RLock()
	v, ok := c.server.values[string(key)]
	c.server.lock.RUnlock()
	if ok {
		return v, nil
	}

	if c.dag != nil {
		nd, err := c.dag.Get(ctx, key)
		if err == nil {
			return nd.EncodeProtobuf(false)
		}
		if !errors.Is(err, dag.ErrNotFound) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%x: %w", key, routing.ErrNotFound)
}

func (c *client) FindPeer(_ context.Context, pid peer.ID) (peer.AddrInfo, error) {
	return peer.AddrInfo{ID: pid}, nil
}

func (c *client) FindProvidersAsync(ctx context.Context, k []byte, max int) <-chan peer.AddrInfo {
	out := make(chan peer.AddrInfo)
	go func() {
		defer close(out)
		for i, p := range c.server.Providers(k) {
			if max > 0 && i >= max {
				return
			}
			select {
			case out <- p:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

func (c *client) Provide(_ context.Context, key []byte) error {
	c.server.announce(c.id, key)
	return nil
}

func (c *client) Bootstrap(context.Context) error {
	return nil
}

var _ routing.Routing = &client{}
