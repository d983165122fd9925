// Package routing defines the interfaces content routers implement.
// Keys are raw sha2-256 digests.
package routing

import (
	"context"
	"errors"
	"fmt"

	"github.com/ipfs/go-ipfs-lite/errs"

	"github.com/libp2p/go-libp2p/core/peer"
)

// ErrOffline is returned when trying to perform operations that
// require connectivity.
var ErrOffline = errors.New("routing system in offline mode")

// ErrNotFound is returned when the router fails to find the requested record.
var ErrNotFound = fmt.Errorf("routing: %w", errs.ErrNotFound)

// ContentRouting is a value provider layer of indirection.
type ContentRouting interface {
	// Provide announces that this node can provide value for given key
	Provide(ctx context.Context, key []byte) error

	// FindProvidersAsync searches for peers who are able to provide a given key
	FindProvidersAsync(ctx context.Context, key []byte, count int) <-chan peer.AddrInfo
}

// ValueStore is a basic Put/Get interface.
type ValueStore interface {
	// PutValue adds value corresponding to given Key.
	PutValue(ctx context.Context, key []byte, value []byte) error

	// GetValue searches for the value corresponding to given Key.
	GetValue(ctx context.Context, key []byte) ([]byte, error)
}

// PeerRouting finds addressing information for a peer.
type PeerRouting interface {
	FindPeer(ctx context.Context, id peer.ID) (peer.AddrInfo, error)
}

// Routing is the combination of different routing types supported.
// It is implemented by things like DHTs, etc.
type Routing interface {
	ContentRouting
	PeerRouting
	ValueStore

	// Bootstrap allows callers to hint to the routing system to get into a
	// Boostrapped state and remain there.
	Bootstrap(context.Context) error
}
