// Package nilrouting implements a router that does nothing.
package nilrouting

import (
	"context"

	"github.com/ipfs/go-ipfs-lite/routing"

	"github.com/libp2p/go-libp2p/core/peer"
)

type nilclient struct{}

func (c *nilclient) PutValue(_ context.Context, _ []byte, _ []byte) error {
	return nil
}

func (c *nilclient) GetValue(_ context.Context, _ []byte) ([]byte, error) {
	return nil, routing.ErrNotFound
}

func (c *nilclient) FindPeer(_ context.Context, _ peer.ID) (peer.AddrInfo, error) {
	return peer.AddrInfo{}, routing.ErrNotFound
}

func (c *nilclient) FindProvidersAsync(_ context.Context, _ []byte, _ int) <-chan peer.AddrInfo {
	out := make(chan peer.AddrInfo)
	close(out)
	return out
}

func (c *nilclient) Provide(_ context.Context, _ []byte) error {
	return nil
}

func (c *nilclient) Bootstrap(_ context.Context) error {
	return nil
}

// ConstructNilRouting creates a Routing client which does nothing.
func ConstructNilRouting() routing.Routing {
	return &nilclient{}
}

//  ensure nilclient satisfies interface
var _ routing.Routing = &nilclient{}
